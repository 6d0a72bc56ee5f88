package listing

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/brokerage-api/internal/domain"
	"github.com/brokerage-api/internal/infrastructure/geocode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockListingStore struct{ mock.Mock }

func (m *mockListingStore) Put(ctx context.Context, l *domain.Listing) error {
	return m.Called(ctx, l).Error(0)
}
func (m *mockListingStore) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	args := m.Called(ctx, listingID)
	if l, _ := args.Get(0).(*domain.Listing); l != nil {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockListingStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Listing), args.Error(1)
}
func (m *mockListingStore) BrowsePage(ctx context.Context, filter domain.ListingFilter, limit int32, cursor string) ([]domain.Listing, string, error) {
	args := m.Called(ctx, filter, limit, cursor)
	return args.Get(0).([]domain.Listing), args.String(1), args.Error(2)
}
func (m *mockListingStore) Update(ctx context.Context, listingID string, updates map[string]interface{}) error {
	return m.Called(ctx, listingID, updates).Error(0)
}
func (m *mockListingStore) SoftDelete(ctx context.Context, listingID string) error {
	return m.Called(ctx, listingID).Error(0)
}

type mockImageStore struct{ mock.Mock }

func (m *mockImageStore) Put(ctx context.Context, img *domain.ListingImage) error {
	return m.Called(ctx, img).Error(0)
}
func (m *mockImageStore) Get(ctx context.Context, imageID string) (*domain.ListingImage, error) {
	args := m.Called(ctx, imageID)
	if img, _ := args.Get(0).(*domain.ListingImage); img != nil {
		return img, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockImageStore) ListByListing(ctx context.Context, listingID string) ([]domain.ListingImage, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).([]domain.ListingImage), args.Error(1)
}
func (m *mockImageStore) SetPositions(ctx context.Context, positions map[string]int) error {
	return m.Called(ctx, positions).Error(0)
}
func (m *mockImageStore) Delete(ctx context.Context, imageID string) error {
	return m.Called(ctx, imageID).Error(0)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.String(0), args.Error(1)
}
func (m *mockObjectStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockGeocoder struct{ mock.Mock }

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*geocode.Result, error) {
	args := m.Called(ctx, address)
	if r, _ := args.Get(0).(*geocode.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func newSvc(ls *mockListingStore, is *mockImageStore, os *mockObjectStore, g *mockGeocoder) Service {
	deps := ServiceDeps{ListingRepo: ls}
	if is != nil {
		deps.ImageRepo = is
	}
	if os != nil {
		deps.ObjectStore = os
	}
	if g != nil {
		deps.Geocoder = g
	}
	return NewService(deps)
}

func validCreate() domain.CreateListingRequest {
	return domain.CreateListingRequest{
		Title:   "Sunny bungalow",
		Address: "12 Elm St",
		City:    "Springfield",
		State:   "IL",
		Price:   250000,
		Type:    domain.ListingTypeSale,
	}
}

func activeListing() *domain.Listing {
	return &domain.Listing{ListingID: "lst-1", OwnerID: "agent-1", Enable: 1, City: "Springfield"}
}

// --- Create tests ---

func TestCreateListing_GeocodesAddress(t *testing.T) {
	ls, g := &mockListingStore{}, &mockGeocoder{}

	g.On("Geocode", mock.Anything, "12 Elm St, Springfield, IL ").
		Return(&geocode.Result{Lat: 39.78, Lng: -89.65}, nil)
	ls.On("Put", mock.Anything, mock.AnythingOfType("*domain.Listing")).Return(nil)

	l, err := newSvc(ls, nil, nil, g).Create(context.Background(), "agent-1", validCreate())

	require.NoError(t, err)
	require.NotNil(t, l.Lat)
	assert.Equal(t, 39.78, *l.Lat)
	assert.Equal(t, domain.ListingStatusActive, l.Status)
	assert.Equal(t, "agent-1", l.OwnerID)
}

func TestCreateListing_GeocodeFailure_StoredAnyway(t *testing.T) {
	ls, g := &mockListingStore{}, &mockGeocoder{}

	g.On("Geocode", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))
	ls.On("Put", mock.Anything, mock.AnythingOfType("*domain.Listing")).Return(nil)

	l, err := newSvc(ls, nil, nil, g).Create(context.Background(), "agent-1", validCreate())

	require.NoError(t, err)
	assert.Nil(t, l.Lat)
}

func TestCreateListing_InvalidType_Rejected(t *testing.T) {
	ls := &mockListingStore{}

	req := validCreate()
	req.Type = "timeshare"

	_, err := newSvc(ls, nil, nil, nil).Create(context.Background(), "agent-1", req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	ls.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- Get tests ---

func TestGetListing_PresignsImages(t *testing.T) {
	ls, is, os := &mockListingStore{}, &mockImageStore{}, &mockObjectStore{}

	ls.On("Get", mock.Anything, "lst-1").Return(activeListing(), nil)
	is.On("ListByListing", mock.Anything, "lst-1").Return([]domain.ListingImage{
		{ImageID: "img-1", Key: "listings/lst-1/img-1-a.jpg", URL: "stored-url"},
	}, nil)
	os.On("PresignedURL", mock.Anything, "listings/lst-1/img-1-a.jpg", time.Hour).Return("https://signed", nil)

	l, err := newSvc(ls, is, os, nil).Get(context.Background(), "lst-1")

	require.NoError(t, err)
	require.Len(t, l.Images, 1)
	assert.Equal(t, "https://signed", l.Images[0].URL)
}

func TestGetListing_SoftDeleted_NotFound(t *testing.T) {
	ls := &mockListingStore{}

	gone := activeListing()
	gone.Enable = 0
	ls.On("Get", mock.Anything, "lst-1").Return(gone, nil)

	_, err := newSvc(ls, nil, nil, nil).Get(context.Background(), "lst-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- Update tests ---

func TestUpdateListing_NotOwner_Forbidden(t *testing.T) {
	ls := &mockListingStore{}

	ls.On("Get", mock.Anything, "lst-1").Return(activeListing(), nil)

	price := 300000.0
	_, err := newSvc(ls, nil, nil, nil).Update(context.Background(), "stranger", "lst-1", domain.UpdateListingRequest{Price: &price})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	ls.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateListing_AddressChange_Regeocodes(t *testing.T) {
	ls, is, os, g := &mockListingStore{}, &mockImageStore{}, &mockObjectStore{}, &mockGeocoder{}

	ls.On("Get", mock.Anything, "lst-1").Return(activeListing(), nil)
	g.On("Geocode", mock.Anything, mock.Anything).Return(&geocode.Result{Lat: 41.88, Lng: -87.63}, nil)
	ls.On("Update", mock.Anything, "lst-1", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u["city"] == "Chicago" && u["lat"] == 41.88
	})).Return(nil)
	is.On("ListByListing", mock.Anything, "lst-1").Return([]domain.ListingImage{}, nil)

	city := "Chicago"
	_, err := newSvc(ls, is, os, g).Update(context.Background(), "agent-1", "lst-1", domain.UpdateListingRequest{City: &city})

	require.NoError(t, err)
	g.AssertCalled(t, "Geocode", mock.Anything, mock.Anything)
}

// --- ReorderImages tests ---

func imagesOnListing(is *mockImageStore, ids ...string) {
	imgs := make([]domain.ListingImage, len(ids))
	for i, imgID := range ids {
		imgs[i] = domain.ListingImage{ImageID: imgID, ListingID: "lst-1", Position: i}
	}
	is.On("ListByListing", mock.Anything, "lst-1").Return(imgs, nil)
}

func TestReorderImages_RewritesPositions(t *testing.T) {
	ls, is := &mockListingStore{}, &mockImageStore{}

	ls.On("Get", mock.Anything, "lst-1").Return(activeListing(), nil)
	imagesOnListing(is, "img-a", "img-b", "img-c")
	is.On("SetPositions", mock.Anything, map[string]int{"img-c": 0, "img-a": 1, "img-b": 2}).Return(nil)

	_, err := newSvc(ls, is, nil, nil).ReorderImages(context.Background(), "agent-1", "lst-1", []string{"img-c", "img-a", "img-b"})

	require.NoError(t, err)
	is.AssertCalled(t, "SetPositions", mock.Anything, map[string]int{"img-c": 0, "img-a": 1, "img-b": 2})
}

func TestReorderImages_IncompleteSet_Rejected(t *testing.T) {
	ls, is := &mockListingStore{}, &mockImageStore{}

	ls.On("Get", mock.Anything, "lst-1").Return(activeListing(), nil)
	imagesOnListing(is, "img-a", "img-b", "img-c")

	_, err := newSvc(ls, is, nil, nil).ReorderImages(context.Background(), "agent-1", "lst-1", []string{"img-a", "img-b"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	is.AssertNotCalled(t, "SetPositions", mock.Anything, mock.Anything)
}

func TestReorderImages_ForeignImage_Rejected(t *testing.T) {
	ls, is := &mockListingStore{}, &mockImageStore{}

	ls.On("Get", mock.Anything, "lst-1").Return(activeListing(), nil)
	imagesOnListing(is, "img-a", "img-b")

	_, err := newSvc(ls, is, nil, nil).ReorderImages(context.Background(), "agent-1", "lst-1", []string{"img-a", "img-x"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestReorderImages_DuplicateID_Rejected(t *testing.T) {
	ls, is := &mockListingStore{}, &mockImageStore{}

	ls.On("Get", mock.Anything, "lst-1").Return(activeListing(), nil)
	imagesOnListing(is, "img-a", "img-b")

	_, err := newSvc(ls, is, nil, nil).ReorderImages(context.Background(), "agent-1", "lst-1", []string{"img-a", "img-a"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// --- UploadImage tests ---

func TestUploadImage_AppendsAtEnd(t *testing.T) {
	ls, is, os := &mockListingStore{}, &mockImageStore{}, &mockObjectStore{}

	ls.On("Get", mock.Anything, "lst-1").Return(activeListing(), nil)
	imagesOnListing(is, "img-a", "img-b")
	os.On("Upload", mock.Anything, mock.Anything, mock.Anything, "image/jpeg").Return("https://bucket/key", nil)
	is.On("Put", mock.Anything, mock.AnythingOfType("*domain.ListingImage")).Return(nil)

	img, err := newSvc(ls, is, os, nil).UploadImage(context.Background(), "agent-1", "lst-1", "front.jpg", strings.NewReader("jpeg-bytes"))

	require.NoError(t, err)
	assert.Equal(t, 2, img.Position)
	assert.Contains(t, img.Key, "lst-1")
	assert.Contains(t, img.Key, "front.jpg")
}

// --- DeleteImage tests ---

func TestDeleteImage_RemovesObjectAndRecord(t *testing.T) {
	ls, is, os := &mockListingStore{}, &mockImageStore{}, &mockObjectStore{}

	is.On("Get", mock.Anything, "img-a").Return(&domain.ListingImage{ImageID: "img-a", ListingID: "lst-1", Key: "listings/lst-1/img-a"}, nil)
	ls.On("Get", mock.Anything, "lst-1").Return(activeListing(), nil)
	os.On("Delete", mock.Anything, "listings/lst-1/img-a").Return(nil)
	is.On("Delete", mock.Anything, "img-a").Return(nil)

	err := newSvc(ls, is, os, nil).DeleteImage(context.Background(), "agent-1", "img-a")

	require.NoError(t, err)
	is.AssertCalled(t, "Delete", mock.Anything, "img-a")
}

func TestDeleteImage_ObjectStoreFailure_StillDeletesRecord(t *testing.T) {
	ls, is, os := &mockListingStore{}, &mockImageStore{}, &mockObjectStore{}

	is.On("Get", mock.Anything, "img-a").Return(&domain.ListingImage{ImageID: "img-a", ListingID: "lst-1", Key: "listings/lst-1/img-a"}, nil)
	ls.On("Get", mock.Anything, "lst-1").Return(activeListing(), nil)
	os.On("Delete", mock.Anything, mock.Anything).Return(errors.New("s3 unavailable"))
	is.On("Delete", mock.Anything, "img-a").Return(nil)

	err := newSvc(ls, is, os, nil).DeleteImage(context.Background(), "agent-1", "img-a")

	require.NoError(t, err)
}

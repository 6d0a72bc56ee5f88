package listing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/brokerage-api/internal/domain"
	"github.com/brokerage-api/internal/infrastructure/geocode"
	s3infra "github.com/brokerage-api/internal/infrastructure/s3"
	"github.com/brokerage-api/internal/pkg/id"
	"github.com/brokerage-api/internal/pkg/validate"
)

// presignTTL bounds how long a photo URL handed to a client stays valid.
const presignTTL = time.Hour

type Service interface {
	Create(ctx context.Context, ownerID string, req domain.CreateListingRequest) (*domain.Listing, error)
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
	Browse(ctx context.Context, filter domain.ListingFilter, limit int32, cursor string) ([]domain.Listing, string, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error)
	Update(ctx context.Context, actorID, listingID string, req domain.UpdateListingRequest) (*domain.Listing, error)
	Delete(ctx context.Context, actorID, listingID string) error

	UploadImage(ctx context.Context, actorID, listingID, filename string, r io.Reader) (*domain.ListingImage, error)
	ReorderImages(ctx context.Context, actorID, listingID string, imageIDs []string) ([]domain.ListingImage, error)
	DeleteImage(ctx context.Context, actorID, imageID string) error
}

type listingStore interface {
	Put(ctx context.Context, l *domain.Listing) error
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error)
	BrowsePage(ctx context.Context, filter domain.ListingFilter, limit int32, cursor string) ([]domain.Listing, string, error)
	Update(ctx context.Context, listingID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, listingID string) error
}

type imageStore interface {
	Put(ctx context.Context, img *domain.ListingImage) error
	Get(ctx context.Context, imageID string) (*domain.ListingImage, error)
	ListByListing(ctx context.Context, listingID string) ([]domain.ListingImage, error)
	SetPositions(ctx context.Context, positions map[string]int) error
	Delete(ctx context.Context, imageID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type activityStore interface {
	Put(ctx context.Context, a *domain.Activity) error
}

// ServiceDeps bundles the stores the listing service needs.
type ServiceDeps struct {
	ListingRepo  listingStore
	ImageRepo    imageStore
	ObjectStore  objectStore
	ActivityRepo activityStore
	Geocoder     geocode.Geocoder
}

type service struct {
	deps ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	return &service{deps: deps}
}

func (s *service) Create(ctx context.Context, ownerID string, req domain.CreateListingRequest) (*domain.Listing, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	l := &domain.Listing{
		ListingID:   id.New(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Zip:         req.Zip,
		Price:       req.Price,
		Type:        req.Type,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		AreaSqft:    req.AreaSqft,
		Status:      domain.ListingStatusActive,
		Enable:      1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.geocodeInto(ctx, l)

	if err := s.deps.ListingRepo.Put(ctx, l); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, ownerID, domain.ActivityListingCreated, map[string]interface{}{
		"listing_id": l.ListingID,
		"title":      l.Title,
	})
	return l, nil
}

// geocodeInto resolves the listing address to coordinates. Geocoding is best
// effort: a failure leaves lat/lng unset and the listing is stored anyway.
func (s *service) geocodeInto(ctx context.Context, l *domain.Listing) {
	if s.deps.Geocoder == nil {
		return
	}
	full := fmt.Sprintf("%s, %s, %s %s", l.Address, l.City, l.State, l.Zip)
	res, err := s.deps.Geocoder.Geocode(ctx, full)
	if err != nil {
		slog.Warn("geocoding failed", "listing_id", l.ListingID, "err", err)
		return
	}
	l.Lat = &res.Lat
	l.Lng = &res.Lng
}

func (s *service) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	l, err := s.deps.ListingRepo.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.Enable != 1 {
		return nil, fmt.Errorf("listing not found: %w", domain.ErrNotFound)
	}
	images, err := s.deps.ImageRepo.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	l.Images = s.presignImages(ctx, images)
	return l, nil
}

// presignImages swaps stored object keys for time-limited URLs. An image that
// fails to presign keeps its stored URL rather than dropping off the listing.
func (s *service) presignImages(ctx context.Context, images []domain.ListingImage) []domain.ListingImage {
	for i := range images {
		url, err := s.deps.ObjectStore.PresignedURL(ctx, images[i].Key, presignTTL)
		if err != nil {
			slog.Warn("presign failed", "image_id", images[i].ImageID, "err", err)
			continue
		}
		images[i].URL = url
	}
	return images
}

func (s *service) Browse(ctx context.Context, filter domain.ListingFilter, limit int32, cursor string) ([]domain.Listing, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	return s.deps.ListingRepo.BrowsePage(ctx, filter, limit, cursor)
}

func (s *service) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	return s.deps.ListingRepo.ListByOwner(ctx, ownerID)
}

func (s *service) Update(ctx context.Context, actorID, listingID string, req domain.UpdateListingRequest) (*domain.Listing, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	l, err := s.requireOwned(ctx, actorID, listingID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	addressChanged := false
	for field, v := range map[string]*string{
		"title":       req.Title,
		"description": req.Description,
		"address":     req.Address,
		"city":        req.City,
		"state":       req.State,
		"zip":         req.Zip,
		"type":        req.Type,
		"status":      req.Status,
	} {
		if v != nil {
			updates[field] = *v
			if field == "address" || field == "city" || field == "state" || field == "zip" {
				addressChanged = true
			}
		}
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Bedrooms != nil {
		updates["bedrooms"] = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		updates["bathrooms"] = *req.Bathrooms
	}
	if req.AreaSqft != nil {
		updates["area_sqft"] = *req.AreaSqft
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}

	if addressChanged {
		moved := *l
		applyAddress(&moved, req)
		s.geocodeInto(ctx, &moved)
		if moved.Lat != nil {
			updates["lat"] = *moved.Lat
			updates["lng"] = *moved.Lng
		}
	}

	if err := s.deps.ListingRepo.Update(ctx, listingID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, listingID)
}

func applyAddress(l *domain.Listing, req domain.UpdateListingRequest) {
	if req.Address != nil {
		l.Address = *req.Address
	}
	if req.City != nil {
		l.City = *req.City
	}
	if req.State != nil {
		l.State = *req.State
	}
	if req.Zip != nil {
		l.Zip = *req.Zip
	}
}

func (s *service) Delete(ctx context.Context, actorID, listingID string) error {
	if _, err := s.requireOwned(ctx, actorID, listingID); err != nil {
		return err
	}
	return s.deps.ListingRepo.SoftDelete(ctx, listingID)
}

func (s *service) UploadImage(ctx context.Context, actorID, listingID, filename string, r io.Reader) (*domain.ListingImage, error) {
	if _, err := s.requireOwned(ctx, actorID, listingID); err != nil {
		return nil, err
	}
	existing, err := s.deps.ImageRepo.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	imageID := id.New()
	key := fmt.Sprintf("listings/%s/%s-%s", listingID, imageID, filename)
	url, err := s.deps.ObjectStore.Upload(ctx, key, r, s3infra.DetectContentType(filename))
	if err != nil {
		return nil, err
	}

	img := &domain.ListingImage{
		ImageID:   imageID,
		ListingID: listingID,
		Key:       key,
		URL:       url,
		Position:  len(existing),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.deps.ImageRepo.Put(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

// ReorderImages rewrites display positions to match imageIDs. The list must
// contain exactly the listing's current images; positions change atomically.
func (s *service) ReorderImages(ctx context.Context, actorID, listingID string, imageIDs []string) ([]domain.ListingImage, error) {
	if _, err := s.requireOwned(ctx, actorID, listingID); err != nil {
		return nil, err
	}
	existing, err := s.deps.ImageRepo.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if len(imageIDs) != len(existing) {
		return nil, fmt.Errorf("reorder must include all %d images: %w", len(existing), domain.ErrBadRequest)
	}
	known := make(map[string]bool, len(existing))
	for _, img := range existing {
		known[img.ImageID] = true
	}
	positions := make(map[string]int, len(imageIDs))
	for i, imgID := range imageIDs {
		if !known[imgID] {
			return nil, fmt.Errorf("image %s does not belong to listing: %w", imgID, domain.ErrBadRequest)
		}
		if _, dup := positions[imgID]; dup {
			return nil, fmt.Errorf("duplicate image id %s: %w", imgID, domain.ErrBadRequest)
		}
		positions[imgID] = i
	}
	if err := s.deps.ImageRepo.SetPositions(ctx, positions); err != nil {
		return nil, err
	}
	return s.deps.ImageRepo.ListByListing(ctx, listingID)
}

func (s *service) DeleteImage(ctx context.Context, actorID, imageID string) error {
	img, err := s.deps.ImageRepo.Get(ctx, imageID)
	if err != nil {
		return err
	}
	if _, err := s.requireOwned(ctx, actorID, img.ListingID); err != nil {
		return err
	}
	if err := s.deps.ObjectStore.Delete(ctx, img.Key); err != nil {
		slog.Warn("failed to delete photo object", "image_id", imageID, "key", img.Key, "err", err)
	}
	return s.deps.ImageRepo.Delete(ctx, imageID)
}

func (s *service) requireOwned(ctx context.Context, actorID, listingID string) (*domain.Listing, error) {
	l, err := s.deps.ListingRepo.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.OwnerID != actorID {
		return nil, fmt.Errorf("not the listing owner: %w", domain.ErrForbidden)
	}
	return l, nil
}

func (s *service) recordActivity(ctx context.Context, userID, activityType string, detail map[string]interface{}) {
	if s.deps.ActivityRepo == nil {
		return
	}
	a := &domain.Activity{
		ActivityID: id.New(),
		UserID:     userID,
		Type:       activityType,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.deps.ActivityRepo.Put(ctx, a); err != nil {
		slog.Warn("failed to record activity", "user_id", userID, "type", activityType, "err", err)
	}
}

package export

import (
	"context"
	"errors"
	"testing"

	"github.com/brokerage-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockListingStore struct{ mock.Mock }

func (m *mockListingStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Listing), args.Error(1)
}

type mockActivityStore struct{ mock.Mock }

func (m *mockActivityStore) ListByUser(ctx context.Context, userID string, limit int32) ([]domain.Activity, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]domain.Activity), args.Error(1)
}

type mockSettingsSvc struct{ mock.Mock }

func (m *mockSettingsSvc) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	args := m.Called(ctx, userID)
	if s, _ := args.Get(0).(*domain.Settings); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func newSvc(us *mockUserStore, ls *mockListingStore, as *mockActivityStore, ss *mockSettingsSvc) Service {
	return NewService(ServiceDeps{UserRepo: us, ListingRepo: ls, ActivityRepo: as, Settings: ss})
}

func TestExport_BundlesAllUserData(t *testing.T) {
	us, ls, as, ss := &mockUserStore{}, &mockListingStore{}, &mockActivityStore{}, &mockSettingsSvc{}

	us.On("Get", mock.Anything, "user-1").Return(&domain.User{UserID: "user-1", Username: "alice"}, nil)
	ls.On("ListByOwner", mock.Anything, "user-1").Return([]domain.Listing{{ListingID: "lst-1"}}, nil)
	as.On("ListByUser", mock.Anything, "user-1", int32(1000)).Return([]domain.Activity{{ActivityID: "act-1"}}, nil)
	ss.On("Get", mock.Anything, "user-1").Return(&domain.Settings{UserID: "user-1"}, nil)

	p, err := newSvc(us, ls, as, ss).Export(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "alice", p.User.Username)
	assert.Len(t, p.Listings, 1)
	assert.Len(t, p.Activity, 1)
	assert.NotNil(t, p.Settings)
	assert.False(t, p.ExportedAt.IsZero())
}

func TestExport_UnknownUser(t *testing.T) {
	us, ls, as, ss := &mockUserStore{}, &mockListingStore{}, &mockActivityStore{}, &mockSettingsSvc{}

	us.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	_, err := newSvc(us, ls, as, ss).Export(context.Background(), "ghost")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	ls.AssertNotCalled(t, "ListByOwner", mock.Anything, mock.Anything)
}

func TestExport_StoreFailure_Surfaced(t *testing.T) {
	us, ls, as, ss := &mockUserStore{}, &mockListingStore{}, &mockActivityStore{}, &mockSettingsSvc{}

	boom := errors.New("dynamo unavailable")
	us.On("Get", mock.Anything, "user-1").Return(&domain.User{UserID: "user-1"}, nil)
	ls.On("ListByOwner", mock.Anything, "user-1").Return([]domain.Listing(nil), boom)

	_, err := newSvc(us, ls, as, ss).Export(context.Background(), "user-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

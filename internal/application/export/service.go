package export

import (
	"context"
	"time"

	"github.com/brokerage-api/internal/domain"
)

// Payload is the full user-data export served as a JSON attachment.
type Payload struct {
	User       *domain.User      `json:"user"`
	Listings   []domain.Listing  `json:"listings"`
	Activity   []domain.Activity `json:"activity"`
	Settings   *domain.Settings  `json:"settings"`
	ExportedAt time.Time         `json:"exported_at"`
}

type Service interface {
	Export(ctx context.Context, userID string) (*Payload, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type listingStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error)
}

type activityStore interface {
	ListByUser(ctx context.Context, userID string, limit int32) ([]domain.Activity, error)
}

type settingsService interface {
	Get(ctx context.Context, userID string) (*domain.Settings, error)
}

// ServiceDeps bundles the stores the export service needs.
type ServiceDeps struct {
	UserRepo     userStore
	ListingRepo  listingStore
	ActivityRepo activityStore
	Settings     settingsService
}

type service struct {
	deps ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	return &service{deps: deps}
}

// exportActivityLimit caps how much of the feed ships in one export.
const exportActivityLimit = 1000

func (s *service) Export(ctx context.Context, userID string) (*Payload, error) {
	u, err := s.deps.UserRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	listings, err := s.deps.ListingRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	activity, err := s.deps.ActivityRepo.ListByUser(ctx, userID, exportActivityLimit)
	if err != nil {
		return nil, err
	}
	prefs, err := s.deps.Settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Payload{
		User:       u,
		Listings:   listings,
		Activity:   activity,
		Settings:   prefs,
		ExportedAt: time.Now().UTC(),
	}, nil
}

package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brokerage-api/internal/domain"
	"github.com/brokerage-api/internal/pkg/validate"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.Settings, error)
	Update(ctx context.Context, userID string, req domain.UpdateSettingsRequest) (*domain.Settings, error)
}

type settingsStore interface {
	Get(ctx context.Context, userID string) (*domain.Settings, error)
	Put(ctx context.Context, s *domain.Settings) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type service struct {
	repo settingsStore
}

func NewService(repo settingsStore) Service {
	return &service{repo: repo}
}

// Get returns the user's settings, creating the row with defaults on first
// access.
func (s *service) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	prefs, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.createDefaults(ctx, userID)
	}
	return prefs, err
}

func (s *service) createDefaults(ctx context.Context, userID string) (*domain.Settings, error) {
	prefs := &domain.Settings{
		UserID:                      userID,
		EmailNotifications:          true,
		SMSNotifications:            false,
		DefaultCommissionVisibility: domain.VisibilityPrivate,
		Timezone:                    "UTC",
		UpdatedAt:                   time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateSettingsRequest) (*domain.Settings, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	// Ensure the row exists so a partial update has something to land on.
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.EmailNotifications != nil {
		updates["email_notifications"] = *req.EmailNotifications
	}
	if req.SMSNotifications != nil {
		updates["sms_notifications"] = *req.SMSNotifications
	}
	if req.DefaultCommissionVisibility != nil {
		updates["default_commission_visibility"] = *req.DefaultCommissionVisibility
	}
	if req.Timezone != nil {
		updates["timezone"] = *req.Timezone
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

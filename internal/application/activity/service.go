package activity

import (
	"context"

	"github.com/brokerage-api/internal/domain"
)

type Service interface {
	ListForUser(ctx context.Context, userID string, limit int32) ([]domain.Activity, error)
}

type activityStore interface {
	ListByUser(ctx context.Context, userID string, limit int32) ([]domain.Activity, error)
}

type service struct {
	repo activityStore
}

func NewService(repo activityStore) Service {
	return &service{repo: repo}
}

func (s *service) ListForUser(ctx context.Context, userID string, limit int32) ([]domain.Activity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

package commission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brokerage-api/internal/domain"
	"github.com/brokerage-api/internal/pkg/id"
	"github.com/brokerage-api/internal/pkg/validate"
)

// Detail bundles a commission with its verification attempts and audit trail.
type Detail struct {
	Commission    *domain.CommissionStructure     `json:"commission"`
	Verifications []domain.CommissionVerification `json:"verifications"`
	History       []domain.CommissionHistory      `json:"history"`
}

type Service interface {
	Create(ctx context.Context, actorID string, req domain.CreateCommissionRequest) (*domain.CommissionStructure, error)
	Verify(ctx context.Context, verifierID, commissionID string, req domain.VerifyCommissionRequest) (*domain.CommissionVerification, error)
	GetForListing(ctx context.Context, actorID, listingID string) (*Detail, error)
}

type commissionStore interface {
	Get(ctx context.Context, commissionID string) (*domain.CommissionStructure, error)
	GetByListing(ctx context.Context, listingID string) (*domain.CommissionStructure, error)
	CreateWithHistory(ctx context.Context, c *domain.CommissionStructure, h *domain.CommissionHistory) error
	VerifyWithHistory(ctx context.Context, v *domain.CommissionVerification, h *domain.CommissionHistory, verifiedAt time.Time) error
	ListVerifications(ctx context.Context, commissionID string) ([]domain.CommissionVerification, error)
	ListHistory(ctx context.Context, commissionID string) ([]domain.CommissionHistory, error)
}

type listingStore interface {
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type activityStore interface {
	Put(ctx context.Context, a *domain.Activity) error
}

// Notifier delivers out-of-band verification notices to the listing agent.
type Notifier interface {
	NotifyVerified(ctx context.Context, agent *domain.User, c *domain.CommissionStructure)
}

// ServiceDeps bundles the stores the commission service needs.
type ServiceDeps struct {
	CommissionRepo commissionStore
	ListingRepo    listingStore
	UserRepo       userStore
	ActivityRepo   activityStore
	Notifier       Notifier
}

type service struct {
	deps ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	return &service{deps: deps}
}

// Create validates and persists a new commission structure together with its
// "created" history entry. The two writes commit as one transaction: a
// failure leaves neither row behind.
func (s *service) Create(ctx context.Context, actorID string, req domain.CreateCommissionRequest) (*domain.CommissionStructure, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}

	l, err := s.deps.ListingRepo.Get(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if l.OwnerID != actorID {
		return nil, fmt.Errorf("only the listing owner can set commission terms: %w", domain.ErrForbidden)
	}
	if _, err := s.deps.CommissionRepo.GetByListing(ctx, req.ListingID); err == nil {
		return nil, fmt.Errorf("listing already has a commission structure: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	c := &domain.CommissionStructure{
		CommissionID:         id.New(),
		ListingID:            req.ListingID,
		Type:                 req.Type,
		Amount:               req.Amount,
		SplitPercentage:      req.SplitPercentage,
		Terms:                req.Terms,
		VerificationRequired: req.VerificationRequired,
		Visibility:           req.Visibility,
		CreatedBy:            actorID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	h := &domain.CommissionHistory{
		HistoryID:    id.New(),
		CommissionID: c.CommissionID,
		ChangedBy:    actorID,
		ChangeType:   domain.ChangeTypeCreated,
		Data:         commissionSnapshot(c),
		CreatedAt:    now,
	}
	if err := s.deps.CommissionRepo.CreateWithHistory(ctx, c, h); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, actorID, domain.ActivityCommissionCreated, map[string]interface{}{
		"commission_id": c.CommissionID,
		"listing_id":    c.ListingID,
	})
	return c, nil
}

// Verify records a verification attempt, stamps the commission and appends
// the "verified" history entry in one transaction. Repeating an identical
// request appends independent rows; verification is deliberately not
// idempotent.
func (s *service) Verify(ctx context.Context, verifierID, commissionID string, req domain.VerifyCommissionRequest) (*domain.CommissionVerification, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}

	c, err := s.deps.CommissionRepo.Get(ctx, commissionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v := &domain.CommissionVerification{
		VerificationID: id.New(),
		CommissionID:   commissionID,
		VerifiedBy:     verifierID,
		Type:           req.VerificationType,
		Data:           req.VerificationData,
		ExpiresAt:      req.ExpiresAt,
		Status:         domain.VerificationStatusApproved,
		Notes:          req.Notes,
		CreatedAt:      now,
	}
	h := &domain.CommissionHistory{
		HistoryID:    id.New(),
		CommissionID: commissionID,
		ChangedBy:    verifierID,
		ChangeType:   domain.ChangeTypeVerified,
		Data: map[string]interface{}{
			"verification_id":   v.VerificationID,
			"verification_type": v.Type,
			"verified_by":       verifierID,
			"verified_at":       now.Format(time.RFC3339),
		},
		CreatedAt: now,
	}
	if err := s.deps.CommissionRepo.VerifyWithHistory(ctx, v, h, now); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, verifierID, domain.ActivityCommissionVerified, map[string]interface{}{
		"commission_id": commissionID,
		"listing_id":    c.ListingID,
	})
	s.notifyAgent(ctx, c)
	return v, nil
}

// notifyAgent tells the listing agent their commission terms were verified.
// Best effort: delivery failures are logged, never surfaced to the verifier.
func (s *service) notifyAgent(ctx context.Context, c *domain.CommissionStructure) {
	if s.deps.Notifier == nil {
		return
	}
	agent, err := s.deps.UserRepo.Get(ctx, c.CreatedBy)
	if err != nil {
		slog.Warn("could not load agent for verification notice", "commission_id", c.CommissionID, "err", err)
		return
	}
	s.deps.Notifier.NotifyVerified(ctx, agent, c)
}

// GetForListing returns the commission detail subject to visibility rules:
// private is owner-only, verified_only is hidden from non-owners until the
// commission carries a verification stamp.
func (s *service) GetForListing(ctx context.Context, actorID, listingID string) (*Detail, error) {
	c, err := s.deps.CommissionRepo.GetByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if c.CreatedBy != actorID {
		switch c.Visibility {
		case domain.VisibilityPrivate:
			return nil, fmt.Errorf("commission is private: %w", domain.ErrForbidden)
		case domain.VisibilityVerifiedOnly:
			if c.VerifiedAt == nil {
				return nil, fmt.Errorf("commission not yet verified: %w", domain.ErrForbidden)
			}
		}
	}
	verifications, err := s.deps.CommissionRepo.ListVerifications(ctx, c.CommissionID)
	if err != nil {
		return nil, err
	}
	history, err := s.deps.CommissionRepo.ListHistory(ctx, c.CommissionID)
	if err != nil {
		return nil, err
	}
	return &Detail{Commission: c, Verifications: verifications, History: history}, nil
}

// commissionSnapshot captures the full commission data for a history entry.
func commissionSnapshot(c *domain.CommissionStructure) map[string]interface{} {
	snap := map[string]interface{}{
		"commission_id":         c.CommissionID,
		"listing_id":            c.ListingID,
		"type":                  c.Type,
		"amount":                c.Amount,
		"verification_required": c.VerificationRequired,
		"visibility":            c.Visibility,
		"created_by":            c.CreatedBy,
	}
	if c.SplitPercentage != nil {
		snap["split_percentage"] = *c.SplitPercentage
	}
	if c.Terms != nil {
		snap["terms"] = *c.Terms
	}
	return snap
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

package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brokerage-api/internal/domain"
	"github.com/brokerage-api/internal/pkg/id"
	"github.com/brokerage-api/internal/pkg/token"
	"github.com/brokerage-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	RegisterWithSession(ctx context.Context, req domain.CreateUserRequest) (*domain.Session, string, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, actorID, actorRole, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	List(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Delete(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	SoftDelete(ctx context.Context, userID string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	SoftDeleteByUser(ctx context.Context, userID string) error
}

type jwtSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

// ServiceDeps bundles the stores the user service needs.
type ServiceDeps struct {
	UserRepo        userStore
	SessionRepo     sessionStore
	JWTProvider     jwtSigner
	RefreshTokenTTL time.Duration
}

type service struct {
	deps ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	return &service{deps: deps}
}

// RegisterWithSession creates the account and logs it in, returning the new
// session plus bearer and refresh tokens.
func (s *service) RegisterWithSession(ctx context.Context, req domain.CreateUserRequest) (*domain.Session, string, string, error) {
	if err := validate.Struct(req); err != nil {
		return nil, "", "", fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	if _, err := s.deps.UserRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, "", "", fmt.Errorf("username already taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", "", err
	}
	if _, err := s.deps.UserRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, "", "", fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:        id.New(),
		Username:      req.Username,
		Email:         req.Email,
		Phone:         req.Phone,
		PasswordHash:  string(hash),
		Role:          domain.RoleAgent,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		LicenseNumber: req.LicenseNumber,
		Agency:        req.Agency,
		AuthProvider:  "local",
		Enable:        1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.deps.UserRepo.Put(ctx, u); err != nil {
		return nil, "", "", err
	}

	refreshToken, err := token.NewRefreshToken()
	if err != nil {
		return nil, "", "", err
	}
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.deps.RefreshTokenTTL).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.deps.SessionRepo.Put(ctx, sess); err != nil {
		return nil, "", "", err
	}
	bearer, err := s.deps.JWTProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, "", "", err
	}
	sess.User = u
	return sess, bearer, refreshToken, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.deps.UserRepo.Get(ctx, userID)
}

// Update applies a partial update. Users may edit their own profile; only
// admins may touch another user, the role field or the enable flag.
func (s *service) Update(ctx context.Context, actorID, actorRole, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	isAdmin := actorRole == domain.RoleAdmin
	if actorID != userID && !isAdmin {
		return nil, fmt.Errorf("cannot edit another user: %w", domain.ErrForbidden)
	}
	if (req.Role != nil || req.Enable != nil) && !isAdmin {
		return nil, fmt.Errorf("role and enable are admin-only: %w", domain.ErrForbidden)
	}

	updates := map[string]interface{}{}
	setIfPresent(updates, "username", req.Username)
	setIfPresent(updates, "email", req.Email)
	setIfPresent(updates, "phone", req.Phone)
	setIfPresent(updates, "first_name", req.FirstName)
	setIfPresent(updates, "last_name", req.LastName)
	setIfPresent(updates, "license_number", req.LicenseNumber)
	setIfPresent(updates, "agency", req.Agency)
	setIfPresent(updates, "role", req.Role)
	if req.Enable != nil {
		updates["enable"] = *req.Enable
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.deps.UserRepo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.deps.UserRepo.Get(ctx, userID)
}

func setIfPresent(updates map[string]interface{}, field string, v *string) {
	if v != nil {
		updates[field] = *v
	}
}

func (s *service) List(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	return s.deps.UserRepo.ScanPage(ctx, limit, cursor)
}

// Delete soft-deletes the user and disables all their sessions.
func (s *service) Delete(ctx context.Context, userID string) error {
	if err := s.deps.UserRepo.SoftDelete(ctx, userID); err != nil {
		return err
	}
	return s.deps.SessionRepo.SoftDeleteByUser(ctx, userID)
}

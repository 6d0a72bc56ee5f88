package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brokerage-api/internal/domain"
	"github.com/brokerage-api/internal/infrastructure/google"
	"github.com/brokerage-api/internal/pkg/id"
	"github.com/brokerage-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
}

type activityStore interface {
	Put(ctx context.Context, a *domain.Activity) error
}

type jwtSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, idToken string) (*google.Payload, error)
}

// ServiceDeps bundles the stores the session service needs.
type ServiceDeps struct {
	UserRepo        userStore
	SessionRepo     sessionStore
	ActivityRepo    activityStore
	JWTProvider     jwtSigner
	GoogleVerifier  googleVerifier
	RefreshTokenTTL time.Duration
}

type service struct {
	deps ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	return &service{deps: deps}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.deps.UserRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		u, err = s.deps.UserRepo.GetByEmail(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
	}
	if u.Enable != 1 {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return s.openSession(ctx, u)
}

func (s *service) LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error) {
	if s.deps.GoogleVerifier == nil {
		return nil, fmt.Errorf("google sign-in not configured: %w", domain.ErrBadRequest)
	}
	payload, err := s.deps.GoogleVerifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	u, err := s.deps.UserRepo.GetByEmail(ctx, payload.Email)
	if errors.Is(err, domain.ErrNotFound) {
		u, err = s.provisionGoogleUser(ctx, payload)
	}
	if err != nil {
		return nil, err
	}
	if u.Enable != 1 {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	return s.openSession(ctx, u)
}

// provisionGoogleUser creates a local account for a first-time Google sign-in.
func (s *service) provisionGoogleUser(ctx context.Context, p *google.Payload) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{
		UserID:         id.New(),
		Username:       p.Email,
		Email:          p.Email,
		Role:           domain.RoleAgent,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		EmailConfirmed: p.EmailVerified,
		AuthProvider:   "google",
		GoogleSub:      p.Sub,
		Enable:         1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.deps.UserRepo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) openSession(ctx context.Context, u *domain.User) (*LoginResult, error) {
	refreshToken, err := token.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
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
		return nil, err
	}
	bearer, err := s.deps.JWTProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, err
	}
	s.recordLogin(ctx, u.UserID)
	sess.User = u
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

// recordLogin appends a login activity entry. Best effort: a failed write is
// logged and does not fail the login.
func (s *service) recordLogin(ctx context.Context, userID string) {
	if s.deps.ActivityRepo == nil {
		return
	}
	a := &domain.Activity{
		ActivityID: id.New(),
		UserID:     userID,
		Type:       domain.ActivityLogin,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.deps.ActivityRepo.Put(ctx, a); err != nil {
		slog.Warn("failed to record login activity", "user_id", userID, "err", err)
	}
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.deps.SessionRepo.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.deps.SessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	u, err := s.deps.UserRepo.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return sess, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.deps.SessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}
	if time.Now().UTC().Unix() > sess.RefreshExpiresAt {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	u, err := s.deps.UserRepo.Get(ctx, sess.UserID)
	if err != nil {
		return "", "", err
	}
	newToken, err := token.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	newExpiry := time.Now().UTC().Add(s.deps.RefreshTokenTTL).Unix()
	if err := s.deps.SessionRepo.RotateRefreshToken(ctx, sess.SessionID, newToken, newExpiry); err != nil {
		return "", "", err
	}
	bearer, err := s.deps.JWTProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brokerage-api/internal/domain"
	"github.com/brokerage-api/internal/infrastructure/google"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	args := m.Called(ctx, refreshToken)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role, sessionID string) (string, error) {
	args := m.Called(userID, role, sessionID)
	return args.String(0), args.Error(1)
}

type mockGoogleVerifier struct{ mock.Mock }

func (m *mockGoogleVerifier) Verify(ctx context.Context, idToken string) (*google.Payload, error) {
	args := m.Called(ctx, idToken)
	if p, _ := args.Get(0).(*google.Payload); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func newSvc(us *mockUserStore, ss *mockSessionStore, jwt *mockJWTSigner, gv *mockGoogleVerifier) Service {
	deps := ServiceDeps{
		UserRepo:        us,
		SessionRepo:     ss,
		JWTProvider:     jwt,
		RefreshTokenTTL: 24 * time.Hour,
	}
	if gv != nil {
		deps.GoogleVerifier = gv
	}
	return NewService(deps)
}

func hashedPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func activeAgent(t *testing.T) *domain.User {
	return &domain.User{
		UserID:       "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		Role:         domain.RoleAgent,
		Enable:       1,
		PasswordHash: hashedPassword(t, "s3cret"),
	}
}

func validPayload() *google.Payload {
	return &google.Payload{
		Sub:           "google-sub-123",
		Email:         "alice@example.com",
		EmailVerified: true,
		FirstName:     "Alice",
		LastName:      "Smith",
	}
}

// --- Login tests ---

func TestLogin_Success(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByUsername", mock.Anything, "alice").Return(activeAgent(t), nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", "user-1", domain.RoleAgent, mock.Anything).Return("bearer", nil)

	result, err := newSvc(us, ss, jwt, nil).Login(context.Background(), LoginRequest{Username: "alice", Password: "s3cret"})

	require.NoError(t, err)
	assert.Equal(t, "bearer", result.Bearer)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "user-1", result.Session.UserID)
	assert.True(t, result.Session.Enable)
}

func TestLogin_ByEmailFallback(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByUsername", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeAgent(t), nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", "user-1", domain.RoleAgent, mock.Anything).Return("bearer", nil)

	result, err := newSvc(us, ss, jwt, nil).Login(context.Background(), LoginRequest{Username: "alice@example.com", Password: "s3cret"})

	require.NoError(t, err)
	assert.Equal(t, "bearer", result.Bearer)
}

func TestLogin_WrongPassword(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByUsername", mock.Anything, "alice").Return(activeAgent(t), nil)

	_, err := newSvc(us, ss, jwt, nil).Login(context.Background(), LoginRequest{Username: "alice", Password: "wrong"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	ss.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestLogin_UnknownUser(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByUsername", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	_, err := newSvc(us, ss, jwt, nil).Login(context.Background(), LoginRequest{Username: "ghost", Password: "whatever"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_DisabledAccount(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	u := activeAgent(t)
	u.Enable = 0
	us.On("GetByUsername", mock.Anything, "alice").Return(u, nil)

	_, err := newSvc(us, ss, jwt, nil).Login(context.Background(), LoginRequest{Username: "alice", Password: "s3cret"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- LoginWithGoogle tests ---

func TestLoginWithGoogle_ExistingUser(t *testing.T) {
	us, ss, jwt, gv := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}, &mockGoogleVerifier{}

	gv.On("Verify", mock.Anything, "tok").Return(validPayload(), nil)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeAgent(t), nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", "user-1", domain.RoleAgent, mock.Anything).Return("bearer", nil)

	result, err := newSvc(us, ss, jwt, gv).LoginWithGoogle(context.Background(), "tok")

	require.NoError(t, err)
	assert.Equal(t, "bearer", result.Bearer)
}

func TestLoginWithGoogle_NewUser_Provisioned(t *testing.T) {
	us, ss, jwt, gv := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}, &mockGoogleVerifier{}

	gv.On("Verify", mock.Anything, "tok").Return(validPayload(), nil)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", mock.Anything, domain.RoleAgent, mock.Anything).Return("bearer", nil)

	result, err := newSvc(us, ss, jwt, gv).LoginWithGoogle(context.Background(), "tok")

	require.NoError(t, err)
	assert.Equal(t, "google-sub-123", result.Session.User.GoogleSub)
	assert.Equal(t, "google", result.Session.User.AuthProvider)
	us.AssertCalled(t, "Put", mock.Anything, mock.AnythingOfType("*domain.User"))
}

func TestLoginWithGoogle_NotConfigured(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	_, err := newSvc(us, ss, jwt, nil).LoginWithGoogle(context.Background(), "tok")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestLoginWithGoogle_BadToken(t *testing.T) {
	us, ss, jwt, gv := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}, &mockGoogleVerifier{}

	gv.On("Verify", mock.Anything, "tok").Return(nil, errors.New("token invalid"))

	_, err := newSvc(us, ss, jwt, gv).LoginWithGoogle(context.Background(), "tok")

	require.Error(t, err)
	us.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

// --- GetCurrent tests ---

func TestGetCurrent_ActiveSession(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	ss.On("Get", mock.Anything, "sess-1").Return(&domain.Session{SessionID: "sess-1", UserID: "user-1", Enable: true}, nil)
	us.On("Get", mock.Anything, "user-1").Return(activeAgent(t), nil)

	sess, err := newSvc(us, ss, jwt, nil).GetCurrent(context.Background(), "sess-1")

	require.NoError(t, err)
	assert.Equal(t, "alice", sess.User.Username)
}

func TestGetCurrent_DisabledSession(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	ss.On("Get", mock.Anything, "sess-1").Return(&domain.Session{SessionID: "sess-1", UserID: "user-1", Enable: false}, nil)

	_, err := newSvc(us, ss, jwt, nil).GetCurrent(context.Background(), "sess-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	us.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

// --- Refresh tests ---

func TestRefresh_RotatesToken(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	sess := &domain.Session{
		SessionID:        "sess-1",
		UserID:           "user-1",
		Enable:           true,
		RefreshToken:     "old-token",
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	ss.On("GetByRefreshToken", mock.Anything, "old-token").Return(sess, nil)
	us.On("Get", mock.Anything, "user-1").Return(activeAgent(t), nil)
	ss.On("RotateRefreshToken", mock.Anything, "sess-1", mock.Anything, mock.Anything).Return(nil)
	jwt.On("Sign", "user-1", domain.RoleAgent, "sess-1").Return("new-bearer", nil)

	bearer, newToken, err := newSvc(us, ss, jwt, nil).Refresh(context.Background(), "old-token")

	require.NoError(t, err)
	assert.Equal(t, "new-bearer", bearer)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, "old-token", newToken)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	sess := &domain.Session{
		SessionID:        "sess-1",
		UserID:           "user-1",
		RefreshToken:     "old-token",
		RefreshExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}
	ss.On("GetByRefreshToken", mock.Anything, "old-token").Return(sess, nil)

	_, _, err := newSvc(us, ss, jwt, nil).Refresh(context.Background(), "old-token")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	ss.AssertNotCalled(t, "RotateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_UnknownToken(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	ss.On("GetByRefreshToken", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	_, _, err := newSvc(us, ss, jwt, nil).Refresh(context.Background(), "nope")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- Logout tests ---

func TestLogout_DisablesSession(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	ss.On("Update", mock.Anything, "sess-1", map[string]interface{}{"enable": false}).Return(nil)

	err := newSvc(us, ss, jwt, nil).Logout(context.Background(), "sess-1")

	require.NoError(t, err)
	ss.AssertCalled(t, "Update", mock.Anything, "sess-1", map[string]interface{}{"enable": false})
}

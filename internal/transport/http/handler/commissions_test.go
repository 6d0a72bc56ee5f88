package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brokerage-api/internal/application/commission"
	"github.com/brokerage-api/internal/config"
	"github.com/brokerage-api/internal/domain"
	jwtinfra "github.com/brokerage-api/internal/infrastructure/jwt"
	"github.com/brokerage-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockCommissionSvc struct{ mock.Mock }

func (m *mockCommissionSvc) Create(ctx context.Context, actorID string, req domain.CreateCommissionRequest) (*domain.CommissionStructure, error) {
	args := m.Called(ctx, actorID, req)
	if c, _ := args.Get(0).(*domain.CommissionStructure); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCommissionSvc) Verify(ctx context.Context, verifierID, commissionID string, req domain.VerifyCommissionRequest) (*domain.CommissionVerification, error) {
	args := m.Called(ctx, verifierID, commissionID, req)
	if v, _ := args.Get(0).(*domain.CommissionVerification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCommissionSvc) GetForListing(ctx context.Context, actorID, listingID string) (*commission.Detail, error) {
	args := m.Called(ctx, actorID, listingID)
	if d, _ := args.Get(0).(*commission.Detail); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

// bearerReq builds a request with a signed Bearer token for the given userID and role.
func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target, userID, role string, body []byte) *http.Request {
	t.Helper()
	token, err := p.Sign(userID, role, "sess1")
	require.NoError(t, err)
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// withChiParam injects a chi URL param into the request context.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p)(h).ServeHTTP(w, r)
}

func createBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(domain.CreateCommissionRequest{
		ListingID:  "lst-1",
		Type:       domain.CommissionTypeFlat,
		Amount:     500,
		Visibility: domain.VisibilityPublic,
	})
	require.NoError(t, err)
	return body
}

// --- Create tests ---

func TestCommissionCreate_Success(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockCommissionSvc{}
	h := NewCommissionHandler(svc)

	svc.On("Create", mock.Anything, "agent-1", mock.AnythingOfType("domain.CreateCommissionRequest")).
		Return(&domain.CommissionStructure{CommissionID: "com-1", ListingID: "lst-1"}, nil)

	r := bearerReq(t, p, http.MethodPost, "/v1/commissions", "agent-1", "agent", createBody(t))
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got domain.CommissionStructure
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "com-1", got.CommissionID)
}

func TestCommissionCreate_NoToken(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockCommissionSvc{}
	h := NewCommissionHandler(svc)

	r := httptest.NewRequest(http.MethodPost, "/v1/commissions", bytes.NewReader(createBody(t)))
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCommissionCreate_InvalidBody(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockCommissionSvc{}
	h := NewCommissionHandler(svc)

	r := bearerReq(t, p, http.MethodPost, "/v1/commissions", "agent-1", "agent", []byte("not-json"))
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCommissionCreate_NotOwner_Forbidden(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockCommissionSvc{}
	h := NewCommissionHandler(svc)

	svc.On("Create", mock.Anything, "agent-2", mock.Anything).Return(nil, domain.ErrForbidden)

	r := bearerReq(t, p, http.MethodPost, "/v1/commissions", "agent-2", "agent", createBody(t))
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCommissionCreate_DuplicateListing_Conflict(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockCommissionSvc{}
	h := NewCommissionHandler(svc)

	svc.On("Create", mock.Anything, "agent-1", mock.Anything).Return(nil, domain.ErrConflict)

	r := bearerReq(t, p, http.MethodPost, "/v1/commissions", "agent-1", "agent", createBody(t))
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, r)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

// --- Verify tests ---

func TestCommissionVerify_Success(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockCommissionSvc{}
	h := NewCommissionHandler(svc)

	svc.On("Verify", mock.Anything, "broker-9", "com-1", mock.AnythingOfType("domain.VerifyCommissionRequest")).
		Return(&domain.CommissionVerification{VerificationID: "ver-1", Status: domain.VerificationStatusApproved}, nil)

	body, _ := json.Marshal(domain.VerifyCommissionRequest{VerificationType: "mls"})
	r := bearerReq(t, p, http.MethodPost, "/v1/commissions/com-1/verify", "broker-9", "agent", body)
	r = withChiParam(r, "id", "com-1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Verify), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got domain.CommissionVerification
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, domain.VerificationStatusApproved, got.Status)
}

func TestCommissionVerify_UnknownCommission(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockCommissionSvc{}
	h := NewCommissionHandler(svc)

	svc.On("Verify", mock.Anything, "broker-9", "nope", mock.Anything).Return(nil, domain.ErrNotFound)

	body, _ := json.Marshal(domain.VerifyCommissionRequest{VerificationType: "mls"})
	r := bearerReq(t, p, http.MethodPost, "/v1/commissions/nope/verify", "broker-9", "agent", body)
	r = withChiParam(r, "id", "nope")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Verify), rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- GetForListing tests ---

func TestCommissionGetForListing_Success(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockCommissionSvc{}
	h := NewCommissionHandler(svc)

	detail := &commission.Detail{
		Commission: &domain.CommissionStructure{CommissionID: "com-1"},
		History:    []domain.CommissionHistory{{HistoryID: "his-1"}},
	}
	svc.On("GetForListing", mock.Anything, "agent-1", "lst-1").Return(detail, nil)

	r := bearerReq(t, p, http.MethodGet, "/v1/listings/lst-1/commission", "agent-1", "agent", nil)
	r = withChiParam(r, "listingID", "lst-1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.GetForListing), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCommissionGetForListing_PrivateForbidden(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockCommissionSvc{}
	h := NewCommissionHandler(svc)

	svc.On("GetForListing", mock.Anything, "stranger", "lst-1").Return(nil, domain.ErrForbidden)

	r := bearerReq(t, p, http.MethodGet, "/v1/listings/lst-1/commission", "stranger", "agent", nil)
	r = withChiParam(r, "listingID", "lst-1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.GetForListing), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

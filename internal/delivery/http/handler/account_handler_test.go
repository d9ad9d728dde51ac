package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"raisevoice/internal/config"
	domainAccount "raisevoice/internal/domain/account"
	"raisevoice/internal/usecase/account"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAccountRepo struct {
	domainAccount.Repository
	account *domainAccount.Account
}

func (s *stubAccountRepo) GetByEmail(ctx context.Context, email string) (*domainAccount.Account, error) {
	if s.account != nil && s.account.Email == email {
		return s.account, nil
	}
	return nil, domainAccount.ErrAccountNotFound
}

func (s *stubAccountRepo) SetResetToken(ctx context.Context, accountID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return nil
}

func (s *stubAccountRepo) ClearResetToken(ctx context.Context, accountID uuid.UUID) error {
	return nil
}

type stubRefreshTokenRepo struct {
	domainAccount.RefreshTokenRepository
}

type stubMailer struct{}

func (stubMailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	return nil
}

func newForgotPasswordRouter(t *testing.T, repo domainAccount.Repository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App: config.AppConfig{BaseURL: "http://localhost:3000"},
		JWT: config.JWTConfig{Secret: "test-secret", ExpiryHours: 1, RefreshExpiryHours: 24},
	}
	svc := account.NewService(repo, &stubRefreshTokenRepo{}, stubMailer{}, nil, cfg)
	h := NewAccountHandler(svc)

	router := gin.New()
	v1 := router.Group("/api/v1")
	h.RegisterAuthRoutes(v1)
	return router
}

func postForgotPassword(t *testing.T, router *gin.Engine, email string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"email":"` + email + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/forgot-password", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// The response for a known email and for a ghost email must be
// byte-for-byte identical; account existence is not observable.
func TestForgotPasswordResponseIsUniform(t *testing.T) {
	repo := &stubAccountRepo{
		account: &domainAccount.Account{
			ID:    uuid.New(),
			Name:  "Jamie Reporter",
			Email: "jamie@example.com",
		},
	}
	router := newForgotPasswordRouter(t, repo)

	known := postForgotPassword(t, router, "jamie@example.com")
	ghost := postForgotPassword(t, router, "ghost@example.com")

	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, ghost.Code)
	assert.Equal(t, known.Body.String(), ghost.Body.String())
}

func TestForgotPasswordRejectsMalformedEmail(t *testing.T) {
	router := newForgotPasswordRouter(t, &stubAccountRepo{})

	w := postForgotPassword(t, router, "not-an-email")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"raisevoice/internal/config"
	domainAccount "raisevoice/internal/domain/account"
	appErrors "raisevoice/pkg/errors"
	"raisevoice/pkg/tokens"
	"raisevoice/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------- test fakes --------

type fakeAccountRepo struct {
	accounts map[uuid.UUID]*domainAccount.Account

	consumeCalls int
	clearCalls   int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*domainAccount.Account)}
}

func (f *fakeAccountRepo) Create(ctx context.Context, acc *domainAccount.Account) error {
	for _, existing := range f.accounts {
		if existing.Email == acc.Email {
			return domainAccount.ErrAccountAlreadyExists
		}
	}
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	f.accounts[acc.ID] = acc
	return nil
}

func (f *fakeAccountRepo) GetByEmail(ctx context.Context, email string) (*domainAccount.Account, error) {
	for _, acc := range f.accounts {
		if acc.Email == email {
			return acc, nil
		}
	}
	return nil, domainAccount.ErrAccountNotFound
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, accountID uuid.UUID) (*domainAccount.Account, error) {
	acc, ok := f.accounts[accountID]
	if !ok {
		return nil, domainAccount.ErrAccountNotFound
	}
	return acc, nil
}

func (f *fakeAccountRepo) List(ctx context.Context, filter *domainAccount.Filter) ([]*domainAccount.Account, int64, error) {
	var out []*domainAccount.Account
	for _, acc := range f.accounts {
		out = append(out, acc)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAccountRepo) Update(ctx context.Context, acc *domainAccount.Account) error {
	if _, ok := f.accounts[acc.ID]; !ok {
		return domainAccount.ErrAccountNotFound
	}
	f.accounts[acc.ID] = acc
	return nil
}

func (f *fakeAccountRepo) UpdatePassword(ctx context.Context, accountID uuid.UUID, passwordHash string) error {
	acc, ok := f.accounts[accountID]
	if !ok {
		return domainAccount.ErrAccountNotFound
	}
	acc.PasswordHash = passwordHash
	return nil
}

func (f *fakeAccountRepo) UpdateRole(ctx context.Context, accountID uuid.UUID, role domainAccount.Role) error {
	acc, ok := f.accounts[accountID]
	if !ok {
		return domainAccount.ErrAccountNotFound
	}
	acc.Role = role
	return nil
}

func (f *fakeAccountRepo) SetResetToken(ctx context.Context, accountID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	acc, ok := f.accounts[accountID]
	if !ok {
		return domainAccount.ErrAccountNotFound
	}
	acc.ResetTokenHash = &tokenHash
	acc.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeAccountRepo) ClearResetToken(ctx context.Context, accountID uuid.UUID) error {
	f.clearCalls++
	acc, ok := f.accounts[accountID]
	if !ok {
		return domainAccount.ErrAccountNotFound
	}
	acc.ResetTokenHash = nil
	acc.ResetTokenExpiresAt = nil
	return nil
}

func (f *fakeAccountRepo) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) error {
	f.consumeCalls++
	for _, acc := range f.accounts {
		if acc.ResetTokenHash != nil && *acc.ResetTokenHash == tokenHash &&
			acc.ResetTokenExpiresAt != nil && acc.ResetTokenExpiresAt.After(time.Now()) {
			acc.PasswordHash = newPasswordHash
			acc.ResetTokenHash = nil
			acc.ResetTokenExpiresAt = nil
			return nil
		}
	}
	return domainAccount.ErrResetTokenInvalid
}

type fakeRefreshTokenRepo struct {
	tokens map[string]*domainAccount.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]*domainAccount.RefreshToken)}
}

func (f *fakeRefreshTokenRepo) Create(ctx context.Context, token *domainAccount.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeRefreshTokenRepo) GetByToken(ctx context.Context, token string) (*domainAccount.RefreshToken, error) {
	t, ok := f.tokens[token]
	if !ok || t.Revoked || t.ExpiresAt.Before(time.Now()) {
		return nil, domainAccount.ErrTokenInvalid
	}
	return t, nil
}

func (f *fakeRefreshTokenRepo) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	for _, t := range f.tokens {
		if t.ID == tokenID {
			t.Revoked = true
			return nil
		}
	}
	return domainAccount.ErrTokenInvalid
}

func (f *fakeRefreshTokenRepo) RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) error {
	for _, t := range f.tokens {
		if t.AccountID == accountID {
			t.Revoked = true
		}
	}
	return nil
}

func (f *fakeRefreshTokenRepo) DeleteExpired(ctx context.Context, olderThan time.Duration) error {
	return nil
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to       string
	name     string
	resetURL string
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, name: name, resetURL: resetURL})
	return nil
}

type fakeIdentityProvider struct {
	profile *Profile
	err     error
}

func (f *fakeIdentityProvider) Verify(ctx context.Context, provider, assertion string) (*Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

// -------- helpers --------

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{BaseURL: "http://localhost:3000"},
		JWT: config.JWTConfig{
			Secret:             "test-secret",
			ExpiryHours:        1,
			RefreshExpiryHours: 24,
		},
	}
}

func newTestService(t *testing.T) (*Service, *fakeAccountRepo, *fakeRefreshTokenRepo, *fakeMailer, *fakeIdentityProvider) {
	t.Helper()
	accountRepo := newFakeAccountRepo()
	refreshRepo := newFakeRefreshTokenRepo()
	mailer := &fakeMailer{}
	identity := &fakeIdentityProvider{}
	svc := NewService(accountRepo, refreshRepo, mailer, identity, testConfig())
	return svc, accountRepo, refreshRepo, mailer, identity
}

func signupAccount(t *testing.T, svc *Service, email, password string) *AuthResponse {
	t.Helper()
	resp, err := svc.Signup(context.Background(), &SignupRequest{
		Name:     "Jamie Reporter",
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return resp
}

// tokenFromMail extracts the plaintext reset token from the mailed link.
func tokenFromMail(t *testing.T, m sentMail) string {
	t.Helper()
	u, err := url.Parse(m.resetURL)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func anyToJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// -------- tests --------

func TestSignup(t *testing.T) {
	svc, repo, refreshRepo, _, _ := newTestService(t)

	resp := signupAccount(t, svc, "jamie@example.com", "secret123")

	assert.Equal(t, "jamie@example.com", resp.Account.Email)
	assert.Equal(t, "user", resp.Account.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Len(t, refreshRepo.tokens, 1)

	stored, err := repo.GetByEmail(context.Background(), "jamie@example.com")
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword(stored.PasswordHash, "secret123"))
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	signupAccount(t, svc, "jamie@example.com", "secret123")

	_, err := svc.Signup(context.Background(), &SignupRequest{
		Name:     "Other Person",
		Email:    "jamie@example.com",
		Password: "secret456",
	})
	assert.ErrorIs(t, err, appErrors.ErrAccountAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	signupAccount(t, svc, "jamie@example.com", "secret123")

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "jamie@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	signupAccount(t, svc, "jamie@example.com", "secret123")

	// A federated account with no password hash at all.
	require.NoError(t, repo.Create(context.Background(), &domainAccount.Account{
		Name:     "Fed User",
		Email:    "fed@example.com",
		Provider: domainAccount.ProviderGoogle,
		Role:     domainAccount.RoleUser,
	}))

	cases := []LoginRequest{
		{Email: "jamie@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "secret123"},
		{Email: "fed@example.com", Password: "secret123"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), &req)
		assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	}
}

func TestFederatedLoginCreatesAccountOnce(t *testing.T) {
	svc, repo, _, _, identity := newTestService(t)
	identity.profile = &Profile{Email: "fed@example.com", Name: "Fed User"}

	first, err := svc.FederatedLogin(context.Background(), &FederatedLoginRequest{
		Provider:  "google",
		Assertion: "id-token",
	})
	require.NoError(t, err)

	second, err := svc.FederatedLogin(context.Background(), &FederatedLoginRequest{
		Provider:  "google",
		Assertion: "id-token",
	})
	require.NoError(t, err)

	assert.Equal(t, first.Account.ID, second.Account.ID)
	assert.Len(t, repo.accounts, 1)
}

func TestFederatedLoginRejectsBadAssertion(t *testing.T) {
	svc, _, _, _, identity := newTestService(t)
	identity.err = errors.New("token rejected")

	_, err := svc.FederatedLogin(context.Background(), &FederatedLoginRequest{
		Provider:  "google",
		Assertion: "forged",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc, _, _, mailer, _ := newTestService(t)

	// A ghost email must get the same nil outcome as a real one, with no
	// side effects that could reveal the difference.
	err := svc.RequestPasswordReset(context.Background(), &ForgotPasswordRequest{
		Email: "ghost@example.com",
	})
	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestRequestPasswordReset(t *testing.T) {
	svc, repo, _, mailer, _ := newTestService(t)
	auth := signupAccount(t, svc, "jamie@example.com", "secret123")

	before := time.Now()
	err := svc.RequestPasswordReset(context.Background(), &ForgotPasswordRequest{
		Email: "jamie@example.com",
	})
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "jamie@example.com", mailer.sent[0].to)

	stored := repo.accounts[auth.Account.ID]
	require.NotNil(t, stored.ResetTokenHash)
	require.NotNil(t, stored.ResetTokenExpiresAt)

	// The stored value is a hash, never the plaintext, and the mailed token
	// hashes to exactly that value.
	plaintext := tokenFromMail(t, mailer.sent[0])
	assert.NotEqual(t, plaintext, *stored.ResetTokenHash)
	assert.True(t, tokens.Verify(plaintext, *stored.ResetTokenHash))

	assert.WithinDuration(t, before.Add(time.Hour), *stored.ResetTokenExpiresAt, 5*time.Second)
}

func TestRequestPasswordResetOverwritesPreviousToken(t *testing.T) {
	svc, repo, _, mailer, _ := newTestService(t)
	auth := signupAccount(t, svc, "jamie@example.com", "secret123")

	for i := 0; i < 2; i++ {
		err := svc.RequestPasswordReset(context.Background(), &ForgotPasswordRequest{
			Email: "jamie@example.com",
		})
		require.NoError(t, err)
	}
	require.Len(t, mailer.sent, 2)

	stored := repo.accounts[auth.Account.ID]
	first := tokenFromMail(t, mailer.sent[0])
	second := tokenFromMail(t, mailer.sent[1])

	assert.False(t, tokens.Verify(first, *stored.ResetTokenHash))
	assert.True(t, tokens.Verify(second, *stored.ResetTokenHash))
}

func TestRequestPasswordResetMailFailureRollsBack(t *testing.T) {
	svc, repo, _, mailer, _ := newTestService(t)
	auth := signupAccount(t, svc, "jamie@example.com", "secret123")
	mailer.err = errors.New("smtp: connection refused")

	err := svc.RequestPasswordReset(context.Background(), &ForgotPasswordRequest{
		Email: "jamie@example.com",
	})
	assert.ErrorIs(t, err, appErrors.ErrEmailDispatchFailed)

	// The token the user can never learn must not stay valid.
	stored := repo.accounts[auth.Account.ID]
	assert.Nil(t, stored.ResetTokenHash)
	assert.Nil(t, stored.ResetTokenExpiresAt)
	assert.Equal(t, 1, repo.clearCalls)
}

func TestCompletePasswordReset(t *testing.T) {
	svc, repo, _, mailer, _ := newTestService(t)
	auth := signupAccount(t, svc, "jamie@example.com", "secret123")

	require.NoError(t, svc.RequestPasswordReset(context.Background(), &ForgotPasswordRequest{
		Email: "jamie@example.com",
	}))
	plaintext := tokenFromMail(t, mailer.sent[0])

	err := svc.CompletePasswordReset(context.Background(), &ResetPasswordRequest{
		Token:       plaintext,
		NewPassword: "brand-new-password",
	})
	require.NoError(t, err)

	stored := repo.accounts[auth.Account.ID]
	assert.True(t, utils.CheckPassword(stored.PasswordHash, "brand-new-password"))
	assert.False(t, utils.CheckPassword(stored.PasswordHash, "secret123"))
	assert.Nil(t, stored.ResetTokenHash)
	assert.Nil(t, stored.ResetTokenExpiresAt)
}

func TestCompletePasswordResetConsumesTokenOnce(t *testing.T) {
	svc, _, _, mailer, _ := newTestService(t)
	signupAccount(t, svc, "jamie@example.com", "secret123")

	require.NoError(t, svc.RequestPasswordReset(context.Background(), &ForgotPasswordRequest{
		Email: "jamie@example.com",
	}))
	plaintext := tokenFromMail(t, mailer.sent[0])

	require.NoError(t, svc.CompletePasswordReset(context.Background(), &ResetPasswordRequest{
		Token:       plaintext,
		NewPassword: "brand-new-password",
	}))

	err := svc.CompletePasswordReset(context.Background(), &ResetPasswordRequest{
		Token:       plaintext,
		NewPassword: "another-password",
	})
	assert.ErrorIs(t, err, appErrors.ErrResetTokenInvalid)
}

func TestCompletePasswordResetExpiredToken(t *testing.T) {
	svc, repo, _, mailer, _ := newTestService(t)
	auth := signupAccount(t, svc, "jamie@example.com", "secret123")

	require.NoError(t, svc.RequestPasswordReset(context.Background(), &ForgotPasswordRequest{
		Email: "jamie@example.com",
	}))
	plaintext := tokenFromMail(t, mailer.sent[0])

	expired := time.Now().Add(-time.Minute)
	repo.accounts[auth.Account.ID].ResetTokenExpiresAt = &expired

	err := svc.CompletePasswordReset(context.Background(), &ResetPasswordRequest{
		Token:       plaintext,
		NewPassword: "brand-new-password",
	})
	assert.ErrorIs(t, err, appErrors.ErrResetTokenInvalid)
}

func TestCompletePasswordResetWrongToken(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	signupAccount(t, svc, "jamie@example.com", "secret123")

	err := svc.CompletePasswordReset(context.Background(), &ResetPasswordRequest{
		Token:       "0000000000000000000000000000000000000000000000000000000000000000",
		NewPassword: "brand-new-password",
	})
	assert.ErrorIs(t, err, appErrors.ErrResetTokenInvalid)
}

func TestCompletePasswordResetRejectsShortPasswordBeforeLookup(t *testing.T) {
	svc, repo, _, mailer, _ := newTestService(t)
	signupAccount(t, svc, "jamie@example.com", "secret123")

	require.NoError(t, svc.RequestPasswordReset(context.Background(), &ForgotPasswordRequest{
		Email: "jamie@example.com",
	}))
	plaintext := tokenFromMail(t, mailer.sent[0])

	err := svc.CompletePasswordReset(context.Background(), &ResetPasswordRequest{
		Token:       plaintext,
		NewPassword: "short",
	})
	require.Error(t, err)

	// Policy failures never touch the token, so a retry with a valid
	// password still succeeds.
	assert.Equal(t, 0, repo.consumeCalls)
	require.NoError(t, svc.CompletePasswordReset(context.Background(), &ResetPasswordRequest{
		Token:       plaintext,
		NewPassword: "long-enough-password",
	}))
}

func TestChangePassword(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	auth := signupAccount(t, svc, "jamie@example.com", "secret123")

	err := svc.ChangePassword(context.Background(), auth.Account.ID, &ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "brand-new-password",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(context.Background(), auth.Account.ID, &ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "brand-new-password",
	}))
	assert.True(t, utils.CheckPassword(repo.accounts[auth.Account.ID].PasswordHash, "brand-new-password"))
}

func TestRefreshTokenRotation(t *testing.T) {
	svc, _, refreshRepo, _, _ := newTestService(t)
	auth := signupAccount(t, svc, "jamie@example.com", "secret123")

	pair, err := svc.RefreshToken(context.Background(), auth.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	// The original refresh token is revoked by rotation.
	_, err = refreshRepo.GetByToken(context.Background(), auth.RefreshToken)
	assert.Error(t, err)
	_, err = svc.RefreshToken(context.Background(), auth.RefreshToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	// The rotated token works.
	_, err = svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
}

func TestRevokeToken(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	auth := signupAccount(t, svc, "jamie@example.com", "secret123")

	require.NoError(t, svc.RevokeToken(context.Background(), auth.Account.ID, auth.RefreshToken))

	_, err := svc.RefreshToken(context.Background(), auth.RefreshToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestAccountResponseNeverCarriesSecrets(t *testing.T) {
	hash := "stored-hash"
	expires := time.Now().Add(time.Hour)
	acc := &domainAccount.Account{
		ID:                  uuid.New(),
		Name:                "Jamie Reporter",
		Email:               "jamie@example.com",
		PasswordHash:        "bcrypt-hash",
		Provider:            domainAccount.ProviderCredentials,
		Role:                domainAccount.RoleUser,
		ResetTokenHash:      &hash,
		ResetTokenExpiresAt: &expires,
	}

	resp := ToAccountResponse(acc)
	assert.Equal(t, acc.Email, resp.Email)

	// The outward struct has no field that could carry either secret.
	assert.NotContains(t, strings.ToLower(anyToJSON(t, resp)), "hash")
	assert.NotContains(t, anyToJSON(t, resp), "bcrypt-hash")
	assert.NotContains(t, anyToJSON(t, resp), "stored-hash")
}

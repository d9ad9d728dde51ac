package account

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"raisevoice/internal/config"
	domainAccount "raisevoice/internal/domain/account"
	"raisevoice/internal/logger"
	appErrors "raisevoice/pkg/errors"
	"raisevoice/pkg/tokens"
	"raisevoice/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// resetTokenTTL is how long a password-reset token stays valid.
const resetTokenTTL = 1 * time.Hour

// Mailer dispatches transactional mail. Dispatch is synchronous and
// single-attempt; a failure surfaces immediately.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, resetURL string) error
}

// Profile is the verified identity returned by a federated provider.
type Profile struct {
	Email     string
	Name      string
	AvatarURL *string
}

// IdentityProvider verifies a federated login assertion and returns the
// profile it attests to.
type IdentityProvider interface {
	Verify(ctx context.Context, provider, assertion string) (*Profile, error)
}

// Service implements account use cases
type Service struct {
	accountRepo      domainAccount.Repository
	refreshTokenRepo domainAccount.RefreshTokenRepository
	mailer           Mailer
	identity         IdentityProvider
	config           *config.Config
}

// NewService creates a new account service
func NewService(
	accountRepo domainAccount.Repository,
	refreshTokenRepo domainAccount.RefreshTokenRepository,
	mailer Mailer,
	identity IdentityProvider,
	cfg *config.Config,
) *Service {
	return &Service{
		accountRepo:      accountRepo,
		refreshTokenRepo: refreshTokenRepo,
		mailer:           mailer,
		identity:         identity,
		config:           cfg,
	}
}

func (s *Service) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	email := utils.SanitizeEmail(req.Email)

	existing, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domainAccount.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		logger.Warn("Signup attempt with existing email",
			zap.String("email", req.Email),
			zap.String("event", "signup_failed_duplicate_email"),
		)
		return nil, appErrors.ErrAccountAlreadyExists
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acc := &domainAccount.Account{
		Name:         utils.SanitizeString(req.Name),
		Email:        email,
		PasswordHash: passwordHash,
		Provider:     domainAccount.ProviderCredentials,
		Role:         domainAccount.RoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	logger.Info("Account created",
		zap.String("account_id", acc.ID.String()),
		zap.String("event", "account_created"),
	)

	return s.issueSession(ctx, acc)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	acc, err := s.accountRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domainAccount.ErrAccountNotFound) {
			logger.Warn("Login attempt with non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "login_failed_account_not_found"),
			)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	// Federated accounts carry no password hash; CheckPassword rejects the
	// empty hash, so they fall through to the same generic error.
	if !utils.CheckPassword(acc.PasswordHash, req.Password) {
		logger.Warn("Login attempt with invalid password",
			zap.String("account_id", acc.ID.String()),
			zap.String("event", "login_failed_invalid_password"),
		)
		return nil, appErrors.ErrInvalidCredentials
	}

	logger.Info("Login succeeded",
		zap.String("account_id", acc.ID.String()),
		zap.String("role", string(acc.Role)),
		zap.String("event", "login_success"),
	)

	return s.issueSession(ctx, acc)
}

// FederatedLogin verifies the provider assertion and signs the caller in,
// creating the account on first login.
func (s *Service) FederatedLogin(ctx context.Context, req *FederatedLoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	profile, err := s.identity.Verify(ctx, req.Provider, req.Assertion)
	if err != nil {
		logger.Warn("Federated login with unverifiable assertion",
			zap.String("provider", req.Provider),
			zap.String("event", "federated_login_failed"),
		)
		return nil, appErrors.ErrInvalidCredentials
	}

	email := utils.SanitizeEmail(profile.Email)

	acc, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domainAccount.ErrAccountNotFound) {
			return nil, err
		}

		acc = &domainAccount.Account{
			Name:      profile.Name,
			Email:     email,
			AvatarURL: profile.AvatarURL,
			Provider:  domainAccount.Provider(req.Provider),
			Role:      domainAccount.RoleUser,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := s.accountRepo.Create(ctx, acc); err != nil {
			return nil, err
		}

		logger.Info("Account created from federated login",
			zap.String("account_id", acc.ID.String()),
			zap.String("provider", req.Provider),
			zap.String("event", "account_created_federated"),
		)
	}

	return s.issueSession(ctx, acc)
}

// RequestPasswordReset starts the reset workflow. Whatever the outcome of the
// account lookup, the caller receives the same nil result so that account
// existence cannot be probed. The only surfaced failure is a mail-dispatch
// error, which occurs after the account has demonstrably been found by its
// owner's own request.
func (s *Service) RequestPasswordReset(ctx context.Context, req *ForgotPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	acc, err := s.accountRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domainAccount.ErrAccountNotFound) {
			logger.Info("Password reset requested for non-existent email",
				zap.String("event", "password_reset_unknown_email"),
			)
			return nil // Don't reveal whether the account exists
		}
		return fmt.Errorf("failed to retrieve account: %w", err)
	}

	plaintext, hash, err := tokens.New()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(resetTokenTTL)

	// Overwrites any previous pair; the most recent request wins.
	if err := s.accountRepo.SetResetToken(ctx, acc.ID, hash, expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := s.buildResetURL(plaintext)

	if err := s.mailer.SendPasswordReset(ctx, acc.Email, acc.Name, resetURL); err != nil {
		// A token the user can never learn must not stay valid: undo it.
		if clearErr := s.accountRepo.ClearResetToken(ctx, acc.ID); clearErr != nil {
			logger.Error("Failed to roll back reset token after mail failure",
				zap.String("account_id", acc.ID.String()),
				zap.Error(clearErr),
			)
		}

		logger.Warn("Password reset email dispatch failed",
			zap.String("account_id", acc.ID.String()),
			zap.String("event", "password_reset_email_failed"),
			zap.Error(err),
		)
		return appErrors.ErrEmailDispatchFailed
	}

	logger.Info("Password reset token issued",
		zap.String("account_id", acc.ID.String()),
		zap.Time("expires_at", expiresAt),
		zap.String("event", "password_reset_token_issued"),
	)

	return nil
}

// CompletePasswordReset finishes the workflow. Wrong, expired and consumed
// tokens all produce the same generic error; the guarded update in the
// repository guarantees a token is consumed at most once.
func (s *Service) CompletePasswordReset(ctx context.Context, req *ResetPasswordRequest) error {
	// Password policy is checked before any lookup touches storage.
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return appErrors.NewAppError("WEAK_PASSWORD", err.Error(), nil)
	}

	newHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accountRepo.ConsumeResetToken(ctx, tokens.Hash(req.Token), newHash); err != nil {
		if errors.Is(err, domainAccount.ErrResetTokenInvalid) {
			logger.Warn("Password reset attempt with invalid token",
				zap.String("event", "password_reset_failed_invalid_token"),
			)
			return appErrors.ErrResetTokenInvalid
		}
		return err
	}

	logger.Info("Password reset completed",
		zap.String("event", "password_reset_success"),
	)

	return nil
}

func (s *Service) ChangePassword(ctx context.Context, accountID uuid.UUID, req *ChangePasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return appErrors.NewAppError("WEAK_PASSWORD", err.Error(), nil)
	}

	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if !utils.CheckPassword(acc.PasswordHash, req.OldPassword) {
		logger.Warn("Password change attempt with invalid old password",
			zap.String("account_id", acc.ID.String()),
			zap.String("event", "password_change_failed_invalid_old_password"),
		)
		return appErrors.ErrInvalidCredentials
	}

	newHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accountRepo.UpdatePassword(ctx, accountID, newHash); err != nil {
		return err
	}

	logger.Info("Password changed",
		zap.String("account_id", acc.ID.String()),
		zap.String("event", "password_change_success"),
	)

	return nil
}

func (s *Service) GetProfile(ctx context.Context, accountID uuid.UUID) (*AccountResponse, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return ToAccountResponse(acc), nil
}

func (s *Service) UpdateProfile(ctx context.Context, accountID uuid.UUID, req *UpdateProfileRequest) (*AccountResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		acc.Name = *req.Name
	}
	if req.AvatarURL != nil {
		acc.AvatarURL = req.AvatarURL
	}
	acc.UpdatedAt = time.Now()

	if err := s.accountRepo.Update(ctx, acc); err != nil {
		return nil, err
	}

	return ToAccountResponse(acc), nil
}

func (s *Service) ListAccounts(ctx context.Context, req *ListAccountsRequest) (*AccountListResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	accounts, total, err := s.accountRepo.List(ctx, &domainAccount.Filter{
		Search:   req.Search,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]*AccountResponse, len(accounts))
	for i, acc := range accounts {
		responses[i] = ToAccountResponse(acc)
	}

	return &AccountListResponse{
		Accounts: responses,
		Pagination: Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
			Pages:    (total + int64(pageSize) - 1) / int64(pageSize),
		},
	}, nil
}

func (s *Service) UpdateRole(ctx context.Context, accountID uuid.UUID, req *UpdateRoleRequest) (*AccountResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	role := domainAccount.Role(req.Role)
	if !role.IsValid() {
		return nil, appErrors.ErrInvalidAccountRole
	}

	if err := s.accountRepo.UpdateRole(ctx, accountID, role); err != nil {
		return nil, err
	}

	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	logger.Info("Account role updated",
		zap.String("account_id", accountID.String()),
		zap.String("role", req.Role),
		zap.String("event", "account_role_updated"),
	)

	return ToAccountResponse(acc), nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	claims, err := utils.ValidateToken(refreshToken, s.config.JWT.Secret)
	if err != nil {
		logger.Warn("Token refresh attempt with invalid token",
			zap.String("event", "token_refresh_failed_invalid_token"),
			zap.Error(err),
		)
		return nil, appErrors.ErrInvalidToken
	}

	dbToken, err := s.refreshTokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		logger.Warn("Token refresh attempt with non-existent or revoked token",
			zap.String("account_id", claims.UserID.String()),
			zap.String("event", "token_refresh_failed_token_not_found"),
		)
		return nil, appErrors.ErrInvalidToken
	}

	if dbToken.AccountID != claims.UserID {
		logger.Warn("Token refresh attempt with mismatched account ID",
			zap.String("token_account_id", dbToken.AccountID.String()),
			zap.String("claim_account_id", claims.UserID.String()),
			zap.String("event", "token_refresh_failed_account_mismatch"),
		)
		return nil, appErrors.ErrInvalidToken
	}

	// Rotate: revoke the old token before issuing the next pair.
	if err := s.refreshTokenRepo.Revoke(ctx, dbToken.ID); err != nil {
		logger.Error("Failed to revoke refresh token",
			zap.String("token_id", dbToken.ID.String()),
			zap.Error(err),
		)
	}

	tokenPair, err := utils.GenerateTokenPair(
		claims.UserID,
		claims.Email,
		claims.Role,
		s.config.JWT.Secret,
		s.config.JWT.ExpiryHours,
		s.config.JWT.RefreshExpiryHours,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	newRefreshToken := &domainAccount.RefreshToken{
		AccountID: claims.UserID,
		Token:     tokenPair.RefreshToken,
		ExpiresAt: time.Now().Add(time.Duration(s.config.JWT.RefreshExpiryHours) * time.Hour),
		Revoked:   false,
	}
	if err := s.refreshTokenRepo.Create(ctx, newRefreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenPair, nil
}

func (s *Service) RevokeToken(ctx context.Context, accountID uuid.UUID, refreshToken string) error {
	dbToken, err := s.refreshTokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		return appErrors.ErrInvalidToken
	}

	if dbToken.AccountID != accountID {
		return appErrors.ErrInvalidToken
	}

	if err := s.refreshTokenRepo.Revoke(ctx, dbToken.ID); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	logger.Info("Refresh token revoked",
		zap.String("account_id", accountID.String()),
		zap.String("event", "token_revoked"),
	)

	return nil
}

func (s *Service) issueSession(ctx context.Context, acc *domainAccount.Account) (*AuthResponse, error) {
	tokenPair, err := utils.GenerateTokenPair(
		acc.ID,
		acc.Email,
		string(acc.Role),
		s.config.JWT.Secret,
		s.config.JWT.ExpiryHours,
		s.config.JWT.RefreshExpiryHours,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	refreshToken := &domainAccount.RefreshToken{
		AccountID: acc.ID,
		Token:     tokenPair.RefreshToken,
		ExpiresAt: time.Now().Add(time.Duration(s.config.JWT.RefreshExpiryHours) * time.Hour),
		Revoked:   false,
	}
	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthResponse{
		Account:      ToAccountResponse(acc),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    tokenPair.ExpiresAt,
	}, nil
}

func (s *Service) buildResetURL(plaintextToken string) string {
	base := s.config.App.BaseURL
	if base == "" {
		base = "http://localhost:3000"
	}
	return fmt.Sprintf("%s/auth/reset-password?token=%s", base, url.QueryEscape(plaintextToken))
}

package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for account repository operations
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, accountID uuid.UUID) (*Account, error)
	List(ctx context.Context, filter *Filter) ([]*Account, int64, error)
	Update(ctx context.Context, acc *Account) error
	UpdatePassword(ctx context.Context, accountID uuid.UUID, passwordHash string) error
	UpdateRole(ctx context.Context, accountID uuid.UUID, role Role) error

	// SetResetToken overwrites any previous reset token pair. The most recent
	// request wins; an earlier plaintext token simply stops matching.
	SetResetToken(ctx context.Context, accountID uuid.UUID, tokenHash string, expiresAt time.Time) error

	// ClearResetToken removes both reset fields. Used as the compensating
	// action when the reset email cannot be dispatched.
	ClearResetToken(ctx context.Context, accountID uuid.UUID) error

	// ConsumeResetToken atomically replaces the password and clears both reset
	// fields for the account whose stored hash matches tokenHash and whose
	// expiry is strictly in the future. Returns ErrResetTokenInvalid when no
	// such account exists, so a token can be consumed at most once even under
	// concurrent attempts.
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) error
}

// Filter represents filtering options for listing accounts
type Filter struct {
	// Search matches name or email, case-insensitively.
	Search string

	Page     int
	PageSize int
}

// RefreshTokenRepository defines the interface for refresh token operations
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) error
	GetByToken(ctx context.Context, token string) (*RefreshToken, error)
	Revoke(ctx context.Context, tokenID uuid.UUID) error
	RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) error
}

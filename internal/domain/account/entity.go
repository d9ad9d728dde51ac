package account

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies how an account authenticates.
type Provider string

const (
	ProviderCredentials Provider = "credentials"
	ProviderGoogle      Provider = "google"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account represents a registered user in the domain.
// PasswordHash is empty for accounts created through a federated provider.
// ResetTokenHash and ResetTokenExpiresAt are set together and cleared together,
// only by the password-reset workflow.
type Account struct {
	ID                  uuid.UUID
	Name                string
	Email               string
	PasswordHash        string
	AvatarURL           *string
	Provider            Provider
	Role                Role
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasValidResetToken reports whether a reset token is pending and not expired.
// A token with a past expiry is treated the same as no token at all.
func (a *Account) HasValidResetToken(now time.Time) bool {
	return a.ResetTokenHash != nil && a.ResetTokenExpiresAt != nil && a.ResetTokenExpiresAt.After(now)
}

// RefreshToken represents a persisted session continuation token.
type RefreshToken struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Token     string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpired checks if the refresh token is expired.
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// IsActive checks if the refresh token is active (not revoked and not expired).
func (rt *RefreshToken) IsActive() bool {
	return !rt.Revoked && !rt.IsExpired()
}

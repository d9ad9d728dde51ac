package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountModel represents the database model for Account.
// The reset token columns hold only the SHA-256 hash of a token; plaintext
// tokens are never persisted.
type AccountModel struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name                string     `gorm:"type:varchar(255);not null"`
	Email               string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash        string     `gorm:"type:varchar(255)"`
	AvatarURL           *string    `gorm:"type:text"`
	Provider            string     `gorm:"type:varchar(50);not null;default:'credentials'"`
	Role                string     `gorm:"type:varchar(50);not null;default:'user'"`
	ResetTokenHash      *string    `gorm:"type:varchar(64);index"`
	ResetTokenExpiresAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt           time.Time  `gorm:"not null"`
	UpdatedAt           time.Time  `gorm:"not null"`
}

func (AccountModel) TableName() string {
	return "accounts"
}

// RefreshTokenModel represents the database model for RefreshToken
type RefreshTokenModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AccountID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Token     string     `gorm:"type:varchar(500);not null;uniqueIndex"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	Revoked   bool       `gorm:"default:false;index"`
	RevokedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

func (RefreshTokenModel) TableName() string {
	return "refresh_tokens"
}

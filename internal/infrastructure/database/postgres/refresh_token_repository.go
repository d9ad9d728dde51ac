package postgres

import (
	"context"
	"errors"
	"fmt"
	"raisevoice/internal/domain/account"
	"raisevoice/internal/infrastructure/database/postgres/models"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshTokenRepository implements account.RefreshTokenRepository
type RefreshTokenRepository struct {
	db *DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *DB) account.RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *account.RefreshToken) error {
	token.ID = uuid.New()
	token.CreatedAt = time.Now()
	token.UpdatedAt = time.Now()

	dbModel := &models.RefreshTokenModel{
		ID:        token.ID,
		AccountID: token.AccountID,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		Revoked:   token.Revoked,
		CreatedAt: token.CreatedAt,
		UpdatedAt: token.UpdatedAt,
	}

	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	return nil
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*account.RefreshToken, error) {
	var dbModel models.RefreshTokenModel
	err := r.db.DB.WithContext(ctx).
		Where("token = ? AND revoked = false AND expires_at > ?", token, time.Now()).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &account.RefreshToken{
		ID:        dbModel.ID,
		AccountID: dbModel.AccountID,
		Token:     dbModel.Token,
		ExpiresAt: dbModel.ExpiresAt,
		Revoked:   dbModel.Revoked,
		CreatedAt: dbModel.CreatedAt,
		UpdatedAt: dbModel.UpdatedAt,
	}, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	now := time.Now()
	result := r.db.DB.WithContext(ctx).Model(&models.RefreshTokenModel{}).
		Where("id = ?", tokenID).
		Updates(map[string]interface{}{
			"revoked":    true,
			"revoked_at": now,
			"updated_at": now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return account.ErrTokenInvalid
	}

	return nil
}

func (r *RefreshTokenRepository) RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) error {
	now := time.Now()
	result := r.db.DB.WithContext(ctx).Model(&models.RefreshTokenModel{}).
		Where("account_id = ? AND revoked = false", accountID).
		Updates(map[string]interface{}{
			"revoked":    true,
			"revoked_at": now,
			"updated_at": now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to revoke tokens for account: %w", result.Error)
	}

	return nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	result := r.db.DB.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.RefreshTokenModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete expired tokens: %w", result.Error)
	}

	return nil
}

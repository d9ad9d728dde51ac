package postgres

import (
	"context"
	"errors"
	"fmt"
	"raisevoice/internal/domain/account"
	"raisevoice/internal/infrastructure/database/postgres/models"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepository implements account.Repository
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) account.Repository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	acc.ID = uuid.New()
	acc.CreatedAt = time.Now()
	acc.UpdatedAt = time.Now()
	if acc.Role == "" {
		acc.Role = account.RoleUser
	}
	if acc.Provider == "" {
		acc.Provider = account.ProviderCredentials
	}

	dbModel := toAccountModel(acc)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		errStr := strings.ToLower(err.Error())
		if strings.Contains(errStr, "duplicate key") && strings.Contains(errStr, "email") {
			return account.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	acc.ID = dbModel.ID
	acc.CreatedAt = dbModel.CreatedAt
	acc.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	var dbModel models.AccountModel
	err := r.db.DB.WithContext(ctx).Where("email = ?", email).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return toAccountEntity(&dbModel), nil
}

func (r *AccountRepository) GetByID(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	var dbModel models.AccountModel
	err := r.db.DB.WithContext(ctx).First(&dbModel, "id = ?", accountID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return toAccountEntity(&dbModel), nil
}

func (r *AccountRepository) List(ctx context.Context, filter *account.Filter) ([]*account.Account, int64, error) {
	var dbModels []models.AccountModel
	var total int64

	db := r.db.DB.WithContext(ctx).Model(&models.AccountModel{})

	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		db = db.Where("name ILIKE ? OR email ILIKE ?", search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	err := db.Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]*account.Account, len(dbModels))
	for i, dbModel := range dbModels {
		accounts[i] = toAccountEntity(&dbModel)
	}

	return accounts, total, nil
}

func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	acc.UpdatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).Model(&models.AccountModel{}).
		Where("id = ?", acc.ID).
		Updates(map[string]interface{}{
			"name":       acc.Name,
			"avatar_url": acc.AvatarURL,
			"updated_at": acc.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, accountID uuid.UUID, passwordHash string) error {
	result := r.db.DB.WithContext(ctx).Model(&models.AccountModel{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}

func (r *AccountRepository) UpdateRole(ctx context.Context, accountID uuid.UUID, role account.Role) error {
	result := r.db.DB.WithContext(ctx).Model(&models.AccountModel{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"role":       string(role),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}

func (r *AccountRepository) SetResetToken(ctx context.Context, accountID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	// Unconditional overwrite: concurrent requests are safe because the last
	// write wins and earlier plaintext tokens simply stop matching.
	result := r.db.DB.WithContext(ctx).Model(&models.AccountModel{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"reset_token_hash":       tokenHash,
			"reset_token_expires_at": expiresAt,
			"updated_at":             time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to set reset token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}

func (r *AccountRepository) ClearResetToken(ctx context.Context, accountID uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).Model(&models.AccountModel{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"reset_token_hash":       nil,
			"reset_token_expires_at": nil,
			"updated_at":             time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to clear reset token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}

func (r *AccountRepository) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) error {
	// Single guarded update: the row must still hold the matching hash with a
	// future expiry. Under concurrent attempts exactly one update matches; the
	// rest see zero rows and fail with the generic error.
	result := r.db.DB.WithContext(ctx).Model(&models.AccountModel{}).
		Where("reset_token_hash = ? AND reset_token_expires_at > ?", tokenHash, time.Now()).
		Updates(map[string]interface{}{
			"password_hash":          newPasswordHash,
			"reset_token_hash":       nil,
			"reset_token_expires_at": nil,
			"updated_at":             time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to consume reset token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return account.ErrResetTokenInvalid
	}

	return nil
}

// Helper functions to convert between domain entities and database models

func toAccountModel(acc *account.Account) *models.AccountModel {
	return &models.AccountModel{
		ID:                  acc.ID,
		Name:                acc.Name,
		Email:               acc.Email,
		PasswordHash:        acc.PasswordHash,
		AvatarURL:           acc.AvatarURL,
		Provider:            string(acc.Provider),
		Role:                string(acc.Role),
		ResetTokenHash:      acc.ResetTokenHash,
		ResetTokenExpiresAt: acc.ResetTokenExpiresAt,
		CreatedAt:           acc.CreatedAt,
		UpdatedAt:           acc.UpdatedAt,
	}
}

func toAccountEntity(m *models.AccountModel) *account.Account {
	return &account.Account{
		ID:                  m.ID,
		Name:                m.Name,
		Email:               m.Email,
		PasswordHash:        m.PasswordHash,
		AvatarURL:           m.AvatarURL,
		Provider:            account.Provider(m.Provider),
		Role:                account.Role(m.Role),
		ResetTokenHash:      m.ResetTokenHash,
		ResetTokenExpiresAt: m.ResetTokenExpiresAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

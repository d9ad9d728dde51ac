package account

import (
	"time"

	"github.com/google/uuid"
	domainAccount "raisevoice/internal/domain/account"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FederatedLoginRequest carries the assertion issued by an external identity
// provider; the provider collaborator verifies it and returns the profile.
type FederatedLoginRequest struct {
	Provider  string `json:"provider" validate:"required,oneof=google"`
	Assertion string `json:"assertion" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type UpdateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=255"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,account_role"`
}

type ListAccountsRequest struct {
	Search   string `form:"search"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// AccountResponse is the outward account shape. Password hashes and reset
// token fields are never part of it.
type AccountResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Provider  string    `json:"provider"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	Account      *AccountResponse `json:"account"`
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresAt    int64            `json:"expires_at"`
}

type AccountListResponse struct {
	Accounts   []*AccountResponse `json:"accounts"`
	Pagination Pagination         `json:"pagination"`
}

type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	Pages    int64 `json:"pages"`
}

func ToAccountResponse(acc *domainAccount.Account) *AccountResponse {
	if acc == nil {
		return nil
	}
	return &AccountResponse{
		ID:        acc.ID,
		Name:      acc.Name,
		Email:     acc.Email,
		AvatarURL: acc.AvatarURL,
		Provider:  string(acc.Provider),
		Role:      string(acc.Role),
		CreatedAt: acc.CreatedAt,
	}
}

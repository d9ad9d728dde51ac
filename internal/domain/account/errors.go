package account

import "errors"

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrInvalidRole          = errors.New("invalid account role")

	// ErrResetTokenInvalid covers every failed consumption: wrong token,
	// expired token, already-consumed token. Callers never learn which.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")

	ErrTokenInvalid = errors.New("token is invalid")
)

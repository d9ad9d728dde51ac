package handler

import (
	"errors"
	"net/http"

	domainAccount "raisevoice/internal/domain/account"
	domainIssue "raisevoice/internal/domain/issue"
	appErrors "raisevoice/pkg/errors"
	"raisevoice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondWithError maps domain and application errors onto HTTP statuses.
// Unknown errors become an opaque 500 so internals never leak.
func respondWithError(c *gin.Context, err error) {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)
		return
	}

	switch {
	case errors.Is(err, appErrors.ErrInvalidCredentials):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, appErrors.ErrInvalidToken):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, appErrors.ErrResetTokenInvalid):
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid or expired reset token")
	case errors.Is(err, appErrors.ErrEmailDispatchFailed):
		utils.ErrorResponse(c, http.StatusBadGateway, "Failed to send email, please try again later")
	case errors.Is(err, appErrors.ErrAccountAlreadyExists), errors.Is(err, domainAccount.ErrAccountAlreadyExists):
		utils.ErrorResponse(c, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, domainAccount.ErrAccountNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Account not found")
	case errors.Is(err, appErrors.ErrInvalidAccountRole), errors.Is(err, domainAccount.ErrInvalidRole):
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid account role")
	case errors.Is(err, domainIssue.ErrIssueNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Issue not found")
	case errors.Is(err, domainIssue.ErrNotIssueOwner):
		utils.ErrorResponse(c, http.StatusForbidden, "Only the reporter can modify this issue")
	case errors.Is(err, domainIssue.ErrInvalidCategory):
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid issue category")
	case errors.Is(err, domainIssue.ErrInvalidStatus):
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid issue status")
	case errors.Is(err, domainIssue.ErrTooManyImages):
		utils.ErrorResponse(c, http.StatusBadRequest, "An issue can carry at most 5 images")
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

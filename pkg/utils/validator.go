package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	err := validate.RegisterValidation("account_role", validateAccountRole)
	if err != nil {
		return
	}
	err = validate.RegisterValidation("issue_category", validateIssueCategory)
	if err != nil {
		return
	}
	err = validate.RegisterValidation("issue_status", validateIssueStatus)
	if err != nil {
		return
	}
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateAccountRole(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	validRoles := []string{"user", "admin"}

	for _, validRole := range validRoles {
		if role == validRole {
			return true
		}
	}
	return false
}

func validateIssueCategory(fl validator.FieldLevel) bool {
	category := fl.Field().String()
	validCategories := []string{
		"water-supply", "puddle", "road", "garbage", "electricity", "streetlight", "other",
	}

	for _, validCategory := range validCategories {
		if category == validCategory {
			return true
		}
	}
	return false
}

func validateIssueStatus(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	validStatuses := []string{"open", "in-progress", "resolved"}

	for _, validStatus := range validStatuses {
		if status == validStatus {
			return true
		}
	}
	return false
}

func IsValidEmail(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	re := regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	return re.MatchString(email)
}

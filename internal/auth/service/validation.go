package service

import (
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/ventionteams/medfast-credentials/internal/auth/domain"
	"github.com/ventionteams/medfast-credentials/internal/common/constants"
)

type SignUpRequest struct {
	Email    string      `validate:"required,email,max=254"`
	Password string      `validate:"required"`
	Name     string      `validate:"max=128"`
	Role     domain.Role `validate:"required"`
}

type CredentialValidator struct {
	validate *validator.Validate
}

func NewCredentialValidator() CredentialValidator {
	return CredentialValidator{validate: validator.New()}
}

func (cv CredentialValidator) Validate(req SignUpRequest) error {
	if err := cv.validate.Struct(req); err != nil {
		return ErrValidation.WithCause(err)
	}

	if len(req.Password) < constants.PasswordMinLength || len(req.Password) > constants.PasswordMaxLength {
		return ErrValidationPasswordLength
	}

	if !isValidPassword(req.Password) {
		return ErrValidationPasswordLatinDigit
	}

	if !req.Role.Valid() {
		return ErrValidationRole
	}

	return nil
}

func isValidPassword(value string) bool {
	hasLetter := false
	hasDigit := false

	for _, r := range value {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if hasLetter && hasDigit {
			return true
		}
	}

	return false
}

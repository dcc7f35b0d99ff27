package service

import (
	commonerrors "github.com/ventionteams/medfast-credentials/internal/common/errors"
)

var (
	ErrMalformedToken = commonerrors.NewDomainError(
		"MALFORMED_TOKEN",
		commonerrors.CategoryMalformed,
		"token is malformed or its signature is invalid",
	)

	ErrAccessTokenExpired = commonerrors.NewDomainError(
		"ACCESS_TOKEN_EXPIRED",
		commonerrors.CategoryExpired,
		"access token expired",
	)

	ErrAccessTokenRevoked = commonerrors.NewDomainError(
		"ACCESS_TOKEN_REVOKED",
		commonerrors.CategoryUnauthorized,
		"access token revoked",
	)

	ErrWeakSigningKey = commonerrors.NewDomainError(
		"WEAK_SIGNING_KEY",
		commonerrors.CategoryValidation,
		"signing key is shorter than the required minimum",
	)

	ErrRefreshTokenNotFound = commonerrors.NewDomainError(
		"REFRESH_TOKEN_NOT_FOUND",
		commonerrors.CategoryNotFound,
		"refresh token not found",
	)

	ErrRefreshTokenExpired = commonerrors.NewDomainError(
		"REFRESH_TOKEN_EXPIRED",
		commonerrors.CategoryExpired,
		"refresh token expired",
	)

	ErrTokenNotFound = commonerrors.NewDomainError(
		"TOKEN_NOT_FOUND",
		commonerrors.CategoryNotFound,
		"token not found",
	)

	ErrTokenExpired = commonerrors.NewDomainError(
		"TOKEN_EXPIRED",
		commonerrors.CategoryExpired,
		"token expired",
	)

	ErrUnknownPurpose = commonerrors.NewDomainError(
		"UNKNOWN_TOKEN_PURPOSE",
		commonerrors.CategoryValidation,
		"unknown token purpose",
	)

	ErrUserAlreadyVerified = commonerrors.NewDomainError(
		"USER_ALREADY_VERIFIED",
		commonerrors.CategoryConflict,
		"user is already verified",
	)

	ErrUserNotVerified = commonerrors.NewDomainError(
		"USER_NOT_VERIFIED",
		commonerrors.CategoryUnauthorized,
		"user has not verified the e-mail address",
	)

	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		"invalid e-mail or password",
	)

	ErrInvalidCurrentPassword = commonerrors.NewDomainError(
		"INVALID_CURRENT_PASSWORD",
		commonerrors.CategoryUnauthorized,
		"current password is incorrect",
	)

	ErrPasswordRepetition = commonerrors.NewDomainError(
		"PASSWORD_REPETITION",
		commonerrors.CategoryConflict,
		"new password must differ from the current one",
	)

	ErrPasswordHistory = commonerrors.NewDomainError(
		"PASSWORD_HISTORY",
		commonerrors.CategoryConflict,
		"new password matches the current password",
	)

	ErrEmailTaken = commonerrors.NewDomainError(
		"EMAIL_TAKEN",
		commonerrors.CategoryConflict,
		"e-mail is already registered",
	)

	ErrValidation = commonerrors.NewDomainError(
		"VALIDATION_FAILED",
		commonerrors.CategoryValidation,
		"validation failed",
	)

	ErrDeliveryFailed = commonerrors.NewDomainError(
		"DELIVERY_FAILED",
		commonerrors.CategoryExternal,
		"failed to deliver e-mail",
	)

	ErrRevocationUnavailable = commonerrors.NewDomainError(
		"REVOCATION_UNAVAILABLE",
		commonerrors.CategoryExternal,
		"revocation cache unavailable",
	)

	ErrServiceUnavailable = commonerrors.NewDomainError(
		"SERVICE_UNAVAILABLE",
		commonerrors.CategoryExternal,
		"service temporarily unavailable",
	)
)

var (
	ErrValidationPasswordLength = commonerrors.NewDomainError(
		"VALIDATION_PASSWORD_LENGTH",
		commonerrors.CategoryValidation,
		"password must be between 8 and 72 characters",
	)

	ErrValidationPasswordLatinDigit = commonerrors.NewDomainError(
		"VALIDATION_PASSWORD_LETTER_DIGIT",
		commonerrors.CategoryValidation,
		"password must contain at least one letter and one digit",
	)

	ErrValidationRole = commonerrors.NewDomainError(
		"VALIDATION_ROLE",
		commonerrors.CategoryValidation,
		"role must be one of PATIENT, DOCTOR, ADMIN",
	)
)

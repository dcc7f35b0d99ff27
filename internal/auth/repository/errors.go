package repository

import commonerrors "github.com/ventionteams/medfast-credentials/internal/common/errors"

var (
	ErrUserNotFound       = commonerrors.ErrUserNotFound
	ErrEmailAlreadyExists = commonerrors.ErrEmailAlreadyExists

	ErrRefreshTokenNotFound = commonerrors.NewDomainError(
		"REFRESH_TOKEN_NOT_FOUND",
		commonerrors.CategoryNotFound,
		"refresh token not found",
	)

	ErrEphemeralTokenNotFound = commonerrors.NewDomainError(
		"EPHEMERAL_TOKEN_NOT_FOUND",
		commonerrors.CategoryNotFound,
		"token not found",
	)
)

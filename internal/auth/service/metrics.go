package service

import (
	"github.com/ventionteams/medfast-credentials/internal/auth/domain"
	"github.com/ventionteams/medfast-credentials/internal/observability/metrics"
)

func incrementAccessTokensIssued() {
	metrics.AccessTokensIssued.Inc()
}

func incrementAccessTokensRevoked() {
	metrics.AccessTokensRevoked.Inc()
}

func incrementJWTValidations() {
	metrics.JWTValidationsTotal.Inc()
}

func incrementJWTValidationsFailed(reason string) {
	metrics.JWTValidationsFailed.WithLabelValues(reason).Inc()
}

func incrementJWTRevokedChecks() {
	metrics.JWTRevokedChecksTotal.Inc()
}

func incrementRefreshTokensIssued() {
	metrics.RefreshTokensIssued.Inc()
}

func incrementRefreshTokensUsed() {
	metrics.RefreshTokensUsed.Inc()
}

func incrementRefreshTokensRevoked(n int64) {
	metrics.RefreshTokensRevoked.Add(float64(n))
}

func incrementRefreshTokensExpired() {
	metrics.RefreshTokensExpired.Inc()
}

func incrementEphemeralIssued(purpose domain.Purpose) {
	metrics.EphemeralTokensIssued.WithLabelValues(string(purpose)).Inc()
}

func incrementEphemeralConsumed(purpose domain.Purpose, outcome domain.Outcome) {
	metrics.EphemeralTokensConsumed.WithLabelValues(string(purpose), outcome.String()).Inc()
}

func incrementPasswordChange(kind, result string) {
	metrics.PasswordChanges.WithLabelValues(kind, result).Inc()
}

func incrementMailDelivery(kind, result string) {
	metrics.MailDeliveryAttempts.WithLabelValues(kind, result).Inc()
}

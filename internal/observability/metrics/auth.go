package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccessTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "access_tokens_issued_total",
			Help: "Total number of access tokens issued",
		},
	)

	AccessTokensRevoked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "access_tokens_revoked_total",
			Help: "Total number of access tokens added to the revocation cache",
		},
	)

	JWTValidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jwt_validations_total",
			Help: "Total number of JWT validations",
		},
	)

	JWTValidationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jwt_validations_failed_total",
			Help: "Total number of failed JWT validations by reason",
		},
		[]string{"reason"},
	)

	JWTRevokedChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jwt_revoked_checks_total",
			Help: "Total number of revoked token checks",
		},
	)

	RevocationCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "revocation_cache_entries",
			Help: "Number of live entries in the in-process revocation cache",
		},
	)

	RefreshTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_issued_total",
			Help: "Total number of refresh tokens issued",
		},
	)

	RefreshTokensUsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_used_total",
			Help: "Total number of refresh tokens used",
		},
	)

	RefreshTokensRevoked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_revoked_total",
			Help: "Total number of refresh tokens deleted on logout",
		},
	)

	RefreshTokensExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_expired_total",
			Help: "Total number of refresh tokens rejected as expired",
		},
	)

	EphemeralTokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ephemeral_tokens_issued_total",
			Help: "Total number of single-use tokens issued by purpose",
		},
		[]string{"purpose"},
	)

	EphemeralTokensConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ephemeral_tokens_consumed_total",
			Help: "Total number of single-use token consumption attempts by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)

	TokensCleanupDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokens_cleanup_deleted_total",
			Help: "Total number of expired tokens deleted during cleanup",
		},
		[]string{"store"},
	)

	PasswordChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "password_changes_total",
			Help: "Total number of password change attempts by kind and result",
		},
		[]string{"kind", "result"},
	)

	MailDeliveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_delivery_attempts_total",
			Help: "Total number of mail delivery attempts by kind and result",
		},
		[]string{"kind", "result"},
	)
)

package constants

import "time"

const (
	PasswordMinLength       = 8
	PasswordMaxLength       = 72
	SigningKeyMinBytes      = 32
	PasswordResetCodeDigits = 4

	RevocationCacheCleanupInterval = 30 * time.Second
	RevocationKeyPrefix            = "revoked:"

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second

	RedisPingTimeout = 2 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second

	DefaultHTTPPort = "8081"

	DefaultCircuitBreakerThreshold = 500
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultAccessTokenTTL       = 30 * time.Minute
	DefaultRefreshTokenTTL      = 7 * 24 * time.Hour
	DefaultVerificationTimeout  = 24 * time.Hour
	DefaultPasswordResetTimeout = 10 * time.Minute
	DefaultDeliveryMaxAttempts  = 3
	DefaultCleanupInterval      = 1 * time.Hour

	DefaultSMTPPort    = 587
	DefaultSMTPTimeout = 10 * time.Second
	DefaultMailQueue   = "mail.outbound"

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"

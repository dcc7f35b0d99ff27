package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ventionteams/medfast-credentials/internal/common/constants"
	commonerrors "github.com/ventionteams/medfast-credentials/internal/common/errors"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	RevocationMemory = "memory"
	RevocationRedis  = "redis"

	MailSMTP = "smtp"
	MailAMQP = "amqp"
	MailNoop = "noop"
)

type CredentialsConfig struct {
	HTTPPort string `validate:"required,numeric"`
	LogDir   string
	LogLevel string `validate:"omitempty,oneof=DEBUG INFO WARN WARNING ERROR CRITICAL debug info warn warning error critical"`

	StorageDriver string `validate:"oneof=memory postgres"`
	DatabaseURL   string `validate:"required_if=StorageDriver postgres"`

	RevocationDriver string `validate:"oneof=memory redis"`
	RedisAddr        string `validate:"required_if=RevocationDriver redis"`
	RedisPassword    string
	RedisDB          int `validate:"gte=0"`

	MailDriver   string `validate:"oneof=smtp amqp noop"`
	MailFrom     string `validate:"required_unless=MailDriver noop,omitempty,email"`
	SMTPHost     string `validate:"required_if=MailDriver smtp"`
	SMTPPort     int    `validate:"gt=0,lte=65535"`
	SMTPUsername string
	SMTPPassword string
	AMQPURL      string `validate:"required_if=MailDriver amqp"`
	AMQPQueue    string `validate:"required"`

	SigningKey           string        `validate:"min=32"`
	AccessTokenTTL       time.Duration `validate:"gte=0"`
	RefreshTokenTTL      time.Duration `validate:"gte=0"`
	VerificationTimeout  time.Duration `validate:"gte=0"`
	PasswordResetTimeout time.Duration `validate:"gte=0"`
	DeliveryMaxAttempts  int           `validate:"min=1"`
	VerificationBaseURL  string        `validate:"required,url"`
	CleanupInterval      time.Duration `validate:"gt=0"`
}

// LoadCredentialsConfig reads the process environment, preceded by an
// optional .env file in the working directory.
func LoadCredentialsConfig() (CredentialsConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return CredentialsConfig{}, fmt.Errorf("failed to load .env: %w", err)
	}

	signingKey, err := mustEnv("JWT_SIGNING_KEY")
	if err != nil {
		return CredentialsConfig{}, err
	}

	cfg := CredentialsConfig{
		HTTPPort: getEnv("CREDENTIALS_HTTP_PORT", constants.DefaultHTTPPort),
		LogDir:   getEnv("LOG_DIR", ""),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		RevocationDriver: strings.ToLower(getEnv("REVOCATION_DRIVER", RevocationMemory)),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getIntEnv("REDIS_DB", 0),

		MailDriver:   strings.ToLower(getEnv("MAIL_DRIVER", MailNoop)),
		MailFrom:     getEnv("MAIL_FROM", ""),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getIntEnv("SMTP_PORT", constants.DefaultSMTPPort),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPQueue:    getEnv("AMQP_MAIL_QUEUE", constants.DefaultMailQueue),

		SigningKey:           signingKey,
		AccessTokenTTL:       getDurationEnv("TOKEN_ACCESS_TTL", constants.DefaultAccessTokenTTL),
		RefreshTokenTTL:      getDurationEnv("TOKEN_REFRESH_TTL", constants.DefaultRefreshTokenTTL),
		VerificationTimeout:  getDurationEnv("VERIFICATION_TIMEOUT", constants.DefaultVerificationTimeout),
		PasswordResetTimeout: getDurationEnv("PASSWORD_RESET_TIMEOUT", constants.DefaultPasswordResetTimeout),
		DeliveryMaxAttempts:  getIntEnv("MAIL_DELIVERY_MAX_ATTEMPTS", constants.DefaultDeliveryMaxAttempts),
		VerificationBaseURL:  getEnv("VERIFICATION_BASE_URL", "http://localhost:8081"),
		CleanupInterval:      getDurationEnv("TOKEN_CLEANUP_INTERVAL", constants.DefaultCleanupInterval),
	}

	if err := cfg.Validate(); err != nil {
		return CredentialsConfig{}, err
	}
	return cfg, nil
}

func (c CredentialsConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return commonerrors.ErrInvalidConfig.WithCause(errors.New(strings.Join(fields, ", ")))
		}
		return commonerrors.ErrInvalidConfig.WithCause(err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", commonerrors.ErrMissingRequiredEnv.WithCause(errors.New(key))
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

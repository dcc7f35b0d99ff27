package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"

	authrepo "github.com/ventionteams/medfast-credentials/internal/auth/repository"
	"github.com/ventionteams/medfast-credentials/internal/auth/revocation"
	"github.com/ventionteams/medfast-credentials/internal/auth/service"
	"github.com/ventionteams/medfast-credentials/internal/common/clock"
	"github.com/ventionteams/medfast-credentials/internal/common/config"
	"github.com/ventionteams/medfast-credentials/internal/common/constants"
	commoncrypto "github.com/ventionteams/medfast-credentials/internal/common/crypto"
	"github.com/ventionteams/medfast-credentials/internal/common/db"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
	"github.com/ventionteams/medfast-credentials/internal/common/resilience"
	"github.com/ventionteams/medfast-credentials/internal/common/server"
	"github.com/ventionteams/medfast-credentials/internal/notification"
)

type repositories struct {
	users     authrepo.UserRepository
	refreshes authrepo.RefreshTokenRepository
	ephemeral authrepo.EphemeralTokenRepository
}

type CredentialsApp struct {
	Log       *logger.Logger
	Config    config.CredentialsConfig
	Pool      *pgxpool.Pool
	Service   *service.AuthService
	Refresh   *service.RefreshLedger
	Ephemeral *service.EphemeralTokenAuthority
	// Hooks release external resources on shutdown.
	Hooks []server.ShutdownHook
}

func NewCredentialsApp(ctx context.Context) (*CredentialsApp, error) {
	log, err := initializeLogger("credentials")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.LoadCredentialsConfig()
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return nil, err
	}

	app := &CredentialsApp{Log: log, Config: cfg}
	if err := app.wire(ctx); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (a *CredentialsApp) wire(ctx context.Context) error {
	cfg := a.Config
	realClock := clock.NewRealClock()
	ids := commoncrypto.NewUUIDGenerator()

	repos, err := a.initializeStorage(ctx)
	if err != nil {
		return err
	}

	revoked, err := a.initializeRevocation(ctx, realClock)
	if err != nil {
		return err
	}

	sender, err := a.initializeSender(realClock)
	if err != nil {
		return err
	}

	var breaker *resilience.CircuitBreaker
	if a.Pool != nil {
		breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Threshold:  constants.DefaultCircuitBreakerThreshold,
			Timeout:    constants.DefaultCircuitBreakerTimeout,
			ResetAfter: constants.DefaultCircuitBreakerReset,
			Name:       "database",
			Clock:      realClock,
			Logger:     a.Log,
		})
	}

	tokens, err := service.NewAccessTokenAuthority(cfg.SigningKey, cfg.AccessTokenTTL, revoked, ids, realClock, a.Log)
	if err != nil {
		return err
	}

	hasher := commoncrypto.NewBcryptHasher(0)
	a.Refresh = service.NewRefreshLedger(repos.refreshes, repos.users, tokens, breaker, ids, cfg.RefreshTokenTTL, realClock, a.Log)
	a.Ephemeral = service.NewEphemeralTokenAuthority(repos.ephemeral, breaker, ids, realClock, a.Log,
		service.VerificationPolicy(cfg.VerificationTimeout, ids),
		service.PasswordResetPolicy(cfg.PasswordResetTimeout, commoncrypto.NewNumericCodeGenerator(constants.PasswordResetCodeDigits)),
	)
	policy := service.NewCredentialPolicy(repos.users, hasher, breaker, a.Log)
	delivery := service.NewDeliveryCoordinator(sender, cfg.DeliveryMaxAttempts, a.Log)

	a.Service = service.NewAuthService(
		repos.users,
		tokens,
		a.Refresh,
		a.Ephemeral,
		policy,
		delivery,
		hasher,
		ids,
		breaker,
		realClock,
		cfg.VerificationBaseURL,
		a.Log,
	)
	return nil
}

func (a *CredentialsApp) initializeStorage(ctx context.Context) (repositories, error) {
	if a.Config.StorageDriver == config.StorageMemory {
		a.Log.Warn("using in-memory storage; data is lost on restart")
		users := authrepo.NewMemoryUserRepository()
		return repositories{
			users:     users,
			refreshes: authrepo.NewMemoryRefreshTokenRepository(),
			ephemeral: authrepo.NewMemoryEphemeralTokenRepository(users),
		}, nil
	}

	pool, err := db.NewPool(ctx, a.Log, a.Config.DatabaseURL)
	if err != nil {
		return repositories{}, err
	}
	a.Pool = pool
	a.Hooks = append(a.Hooks, func(context.Context) error {
		pool.Close()
		return nil
	})

	if err := db.Migrate(ctx, pool); err != nil {
		return repositories{}, err
	}
	db.StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)

	return repositories{
		users:     authrepo.NewPgUserRepository(pool),
		refreshes: authrepo.NewPgRefreshTokenRepository(pool),
		ephemeral: authrepo.NewPgEphemeralTokenRepository(pool),
	}, nil
}

func (a *CredentialsApp) initializeRevocation(ctx context.Context, c clock.Clock) (revocation.Cache, error) {
	if a.Config.RevocationDriver == config.RevocationRedis {
		client, err := revocation.NewRedisClient(ctx, revocation.RedisOptions{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPassword,
			DB:       a.Config.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.Hooks = append(a.Hooks, func(context.Context) error {
			return client.Close()
		})
		return revocation.NewRedisCache(client), nil
	}

	cache := revocation.NewMemoryCache(ctx, c, a.Log)
	a.Hooks = append(a.Hooks, func(context.Context) error {
		cache.Close()
		return nil
	})
	return cache, nil
}

func (a *CredentialsApp) initializeSender(c clock.Clock) (notification.Sender, error) {
	cfg := a.Config
	switch cfg.MailDriver {
	case config.MailSMTP:
		return notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			Timeout:  constants.DefaultSMTPTimeout,
		}, a.Log), nil
	case config.MailAMQP:
		sender, err := notification.NewAMQPSender(cfg.AMQPURL, cfg.AMQPQueue, c, a.Log)
		if err != nil {
			return nil, err
		}
		a.Hooks = append(a.Hooks, func(context.Context) error {
			return sender.Close()
		})
		return sender, nil
	default:
		a.Log.Warn("mail driver is noop; credential mail is only logged")
		return notification.NewNoopSender(a.Log), nil
	}
}

func (a *CredentialsApp) close() {
	for i := len(a.Hooks) - 1; i >= 0; i-- {
		if err := a.Hooks[i](context.Background()); err != nil {
			a.Log.Errorf("failed to release resource: %v", err)
		}
	}
	a.Hooks = nil
}

func initializeLogger(serviceName string) (*logger.Logger, error) {
	return logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"),
		logger.WithFormat(logger.ParseFormat(os.Getenv("LOG_FORMAT"))))
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/ventionteams/medfast-credentials/internal/auth/domain"
	authrepo "github.com/ventionteams/medfast-credentials/internal/auth/repository"
	"github.com/ventionteams/medfast-credentials/internal/common/clock"
	commoncrypto "github.com/ventionteams/medfast-credentials/internal/common/crypto"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
	"github.com/ventionteams/medfast-credentials/internal/common/resilience"
)

type UserFinder interface {
	FindByID(ctx context.Context, id domain.UserID) (domain.User, error)
}

type RefreshResult struct {
	AccessToken         string
	RefreshToken        string
	AccessTTL           time.Duration
	RefreshTTLRemaining time.Duration
}

// RefreshLedger issues non-rotating refresh tokens: presenting one mints a
// new access token and hands the same refresh value back until it expires.
type RefreshLedger struct {
	repo        authrepo.RefreshTokenRepository
	users       UserFinder
	tokens      *AccessTokenAuthority
	breaker     *resilience.CircuitBreaker
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	refreshTTL  time.Duration
	log         *logger.Logger
}

func NewRefreshLedger(
	repo authrepo.RefreshTokenRepository,
	users UserFinder,
	tokens *AccessTokenAuthority,
	breaker *resilience.CircuitBreaker,
	idGenerator commoncrypto.IDGenerator,
	refreshTTL time.Duration,
	clock clock.Clock,
	log *logger.Logger,
) *RefreshLedger {
	return &RefreshLedger{
		repo:        repo,
		users:       users,
		tokens:      tokens,
		breaker:     breaker,
		idGenerator: idGenerator,
		clock:       clock,
		refreshTTL:  refreshTTL,
		log:         log,
	}
}

func (l *RefreshLedger) RefreshTTL() time.Duration {
	return l.refreshTTL
}

func (l *RefreshLedger) Issue(ctx context.Context, user domain.User) (domain.RefreshToken, error) {
	rawToken, err := l.idGenerator.NewID()
	if err != nil {
		return domain.RefreshToken{}, err
	}
	id, err := l.idGenerator.NewID()
	if err != nil {
		return domain.RefreshToken{}, err
	}

	stored := domain.RefreshToken{
		ID:        id,
		TokenHash: HashRefreshToken(rawToken),
		UserID:    user.ID,
		CreatedAt: l.clock.Now(),
	}

	err = callDB(ctx, l.breaker, func(ctx context.Context) error {
		return l.repo.Create(ctx, stored)
	})
	if err != nil {
		l.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "create_refresh_token_failed",
		}).Errorf("failed to create refresh token: %v", err)
		return domain.RefreshToken{}, err
	}

	incrementRefreshTokensIssued()
	stored.RawToken = rawToken
	return stored, nil
}

func (l *RefreshLedger) Refresh(ctx context.Context, value string) (RefreshResult, error) {
	if value == "" {
		return RefreshResult{}, ErrRefreshTokenNotFound
	}
	hash := HashRefreshToken(value)

	var stored domain.RefreshToken
	err := callDB(ctx, l.breaker, func(ctx context.Context) error {
		var err error
		stored, err = l.repo.FindByTokenHash(ctx, hash)
		return err
	})
	if err != nil {
		if errors.Is(err, authrepo.ErrRefreshTokenNotFound) {
			l.log.WithFields(ctx, logger.Fields{
				"action": "refresh_token_not_found",
			}).Warn("refresh token failed: not found")
			return RefreshResult{}, ErrRefreshTokenNotFound
		}
		l.log.WithFields(ctx, logger.Fields{
			"action": "refresh_token_lookup_failed",
		}).Errorf("refresh token lookup failed: %v", err)
		return RefreshResult{}, err
	}

	age := l.clock.Since(stored.CreatedAt)
	if age > l.refreshTTL {
		incrementRefreshTokensExpired()
		l.log.WithFields(ctx, logger.Fields{
			"user_id": string(stored.UserID),
			"action":  "refresh_token_expired",
		}).Warn("refresh token expired")
		if err := l.deleteByHash(ctx, hash); err != nil {
			l.log.WithFields(ctx, logger.Fields{
				"user_id": string(stored.UserID),
				"action":  "refresh_token_delete_expired_failed",
			}).Errorf("refresh token failed to delete expired token: %v", err)
			return RefreshResult{}, err
		}
		return RefreshResult{}, ErrRefreshTokenExpired
	}

	var user domain.User
	err = callDB(ctx, l.breaker, func(ctx context.Context) error {
		var err error
		user, err = l.users.FindByID(ctx, stored.UserID)
		return err
	})
	if err != nil {
		if errors.Is(err, authrepo.ErrUserNotFound) {
			if err := l.deleteByHash(ctx, hash); err != nil {
				l.log.WithFields(ctx, logger.Fields{
					"user_id": string(stored.UserID),
					"action":  "refresh_token_delete_orphaned_failed",
				}).Errorf("refresh token failed to delete token of missing user: %v", err)
			}
			return RefreshResult{}, ErrRefreshTokenNotFound
		}
		l.log.WithFields(ctx, logger.Fields{
			"user_id": string(stored.UserID),
			"action":  "refresh_token_user_lookup_failed",
		}).Errorf("refresh token failed: user lookup error: %v", err)
		return RefreshResult{}, err
	}

	accessToken, err := l.tokens.Issue(user)
	if err != nil {
		l.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "refresh_token_issue_failed",
		}).Errorf("refresh token failed to issue access token: %v", err)
		return RefreshResult{}, err
	}

	incrementRefreshTokensUsed()
	l.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "refresh_token_success",
	}).Info("refresh token success")

	return RefreshResult{
		AccessToken:         accessToken,
		RefreshToken:        value,
		AccessTTL:           l.tokens.AccessTTL(),
		RefreshTTLRemaining: l.refreshTTL - age,
	}, nil
}

func (l *RefreshLedger) DeleteAllForUser(ctx context.Context, userID domain.UserID) error {
	var deleted int64
	err := callDB(ctx, l.breaker, func(ctx context.Context) error {
		var err error
		deleted, err = l.repo.DeleteByUserID(ctx, userID)
		return err
	})
	if err != nil {
		l.log.WithFields(ctx, logger.Fields{
			"user_id": string(userID),
			"action":  "delete_refresh_tokens_failed",
		}).Errorf("failed to delete refresh tokens: %v", err)
		return err
	}

	if deleted > 0 {
		incrementRefreshTokensRevoked(deleted)
	}
	return nil
}

// DeleteExpired removes tokens older than the refresh TTL.
func (l *RefreshLedger) DeleteExpired(ctx context.Context) (int64, error) {
	cutoff := l.clock.Now().Add(-l.refreshTTL)
	var deleted int64
	err := callDB(ctx, l.breaker, func(ctx context.Context) error {
		var err error
		deleted, err = l.repo.DeleteCreatedBefore(ctx, cutoff)
		return err
	})
	return deleted, err
}

func (l *RefreshLedger) deleteByHash(ctx context.Context, hash string) error {
	return callDB(ctx, l.breaker, func(ctx context.Context) error {
		return l.repo.DeleteByTokenHash(ctx, hash)
	})
}

func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

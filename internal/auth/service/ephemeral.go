package service

import (
	"context"
	"errors"
	"time"

	"github.com/ventionteams/medfast-credentials/internal/auth/domain"
	authrepo "github.com/ventionteams/medfast-credentials/internal/auth/repository"
	"github.com/ventionteams/medfast-credentials/internal/common/clock"
	commoncrypto "github.com/ventionteams/medfast-credentials/internal/common/crypto"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
	"github.com/ventionteams/medfast-credentials/internal/common/resilience"
)

// Policy describes one kind of single-use credential.
type Policy struct {
	Purpose  domain.Purpose
	TTL      time.Duration
	Generate func() (string, error)
}

func VerificationPolicy(ttl time.Duration, ids commoncrypto.IDGenerator) Policy {
	return Policy{Purpose: domain.PurposeEmailVerification, TTL: ttl, Generate: ids.NewID}
}

func PasswordResetPolicy(ttl time.Duration, codes commoncrypto.CodeGenerator) Policy {
	return Policy{Purpose: domain.PurposePasswordReset, TTL: ttl, Generate: codes.NewCode}
}

// EphemeralTokenAuthority issues and consumes single-use tokens for every
// registered purpose. Outstanding tokens of the same owner and purpose may
// coexist; each is consumed on its own.
type EphemeralTokenAuthority struct {
	repo        authrepo.EphemeralTokenRepository
	policies    map[domain.Purpose]Policy
	breaker     *resilience.CircuitBreaker
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	log         *logger.Logger
}

func NewEphemeralTokenAuthority(
	repo authrepo.EphemeralTokenRepository,
	breaker *resilience.CircuitBreaker,
	idGenerator commoncrypto.IDGenerator,
	clock clock.Clock,
	log *logger.Logger,
	policies ...Policy,
) *EphemeralTokenAuthority {
	byPurpose := make(map[domain.Purpose]Policy, len(policies))
	for _, p := range policies {
		byPurpose[p.Purpose] = p
	}
	return &EphemeralTokenAuthority{
		repo:        repo,
		policies:    byPurpose,
		breaker:     breaker,
		idGenerator: idGenerator,
		clock:       clock,
		log:         log,
	}
}

func (e *EphemeralTokenAuthority) Issue(ctx context.Context, user domain.User, purpose domain.Purpose) (domain.EphemeralToken, error) {
	policy, ok := e.policies[purpose]
	if !ok {
		return domain.EphemeralToken{}, ErrUnknownPurpose
	}

	value, err := policy.Generate()
	if err != nil {
		return domain.EphemeralToken{}, err
	}
	id, err := e.idGenerator.NewID()
	if err != nil {
		return domain.EphemeralToken{}, err
	}

	token := domain.EphemeralToken{
		ID:        id,
		UserID:    user.ID,
		Purpose:   purpose,
		Value:     value,
		CreatedAt: e.clock.Now(),
	}

	err = callDB(ctx, e.breaker, func(ctx context.Context) error {
		return e.repo.Create(ctx, token)
	})
	if err != nil {
		e.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"purpose": string(purpose),
			"action":  "ephemeral_issue_failed",
		}).Errorf("failed to store token: %v", err)
		return domain.EphemeralToken{}, err
	}

	incrementEphemeralIssued(purpose)
	return token, nil
}

// ValidateAndConsume looks up the token carrying value for the owner and
// deletes it when found, whether it is still valid or already expired.
// The returned error is reserved for storage failures.
func (e *EphemeralTokenAuthority) ValidateAndConsume(ctx context.Context, email string, purpose domain.Purpose, value string) (domain.Outcome, error) {
	policy, ok := e.policies[purpose]
	if !ok {
		return domain.OutcomeNotFound, ErrUnknownPurpose
	}

	outcome, err := e.consume(ctx, policy, email, value)
	if err != nil {
		e.log.WithFields(ctx, logger.Fields{
			"purpose": string(purpose),
			"action":  "ephemeral_consume_failed",
		}).Errorf("failed to consume token: %v", err)
		return outcome, err
	}

	incrementEphemeralConsumed(purpose, outcome)
	if outcome != domain.OutcomeConsumed {
		e.log.WithFields(ctx, logger.Fields{
			"purpose": string(purpose),
			"outcome": outcome.String(),
			"action":  "ephemeral_consume_rejected",
		}).Warn("token rejected")
	}
	return outcome, nil
}

func (e *EphemeralTokenAuthority) consume(ctx context.Context, policy Policy, email, value string) (domain.Outcome, error) {
	var token domain.EphemeralToken
	err := callDB(ctx, e.breaker, func(ctx context.Context) error {
		var err error
		token, err = e.repo.FindByOwnerAndValue(ctx, policy.Purpose, email, value)
		return err
	})
	if errors.Is(err, authrepo.ErrEphemeralTokenNotFound) {
		var others bool
		err := callDB(ctx, e.breaker, func(ctx context.Context) error {
			var err error
			others, err = e.repo.ExistsForOwner(ctx, policy.Purpose, email)
			return err
		})
		if err != nil {
			return domain.OutcomeNotFound, err
		}
		if others {
			return domain.OutcomeMismatch, nil
		}
		return domain.OutcomeNotFound, nil
	}
	if err != nil {
		return domain.OutcomeNotFound, err
	}

	var deleted bool
	err = callDB(ctx, e.breaker, func(ctx context.Context) error {
		var err error
		deleted, err = e.repo.DeleteByID(ctx, token.ID)
		return err
	})
	if err != nil {
		return domain.OutcomeNotFound, err
	}
	if !deleted {
		// Lost the race to a concurrent consumer.
		return domain.OutcomeNotFound, nil
	}

	if e.clock.Since(token.CreatedAt) > policy.TTL {
		return domain.OutcomeExpired, nil
	}
	return domain.OutcomeConsumed, nil
}

// DeleteExpired sweeps tokens past their purpose's TTL.
func (e *EphemeralTokenAuthority) DeleteExpired(ctx context.Context) (int64, error) {
	now := e.clock.Now()
	var total int64
	for _, policy := range e.policies {
		var deleted int64
		err := callDB(ctx, e.breaker, func(ctx context.Context) error {
			var err error
			deleted, err = e.repo.DeleteCreatedBefore(ctx, policy.Purpose, now.Add(-policy.TTL))
			return err
		})
		if err != nil {
			return total, err
		}
		total += deleted
	}
	return total, nil
}

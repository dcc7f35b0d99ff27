package service

import (
	"context"

	"github.com/ventionteams/medfast-credentials/internal/auth/domain"
	commoncrypto "github.com/ventionteams/medfast-credentials/internal/common/crypto"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
	"github.com/ventionteams/medfast-credentials/internal/common/resilience"
)

type PasswordStore interface {
	UpdatePassword(ctx context.Context, id domain.UserID, passwordHash string) error
}

// CredentialPolicy guards password changes. Nothing is written unless every
// check passes.
type CredentialPolicy struct {
	store   PasswordStore
	hasher  commoncrypto.PasswordHasher
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

func NewCredentialPolicy(
	store PasswordStore,
	hasher commoncrypto.PasswordHasher,
	breaker *resilience.CircuitBreaker,
	log *logger.Logger,
) *CredentialPolicy {
	return &CredentialPolicy{
		store:   store,
		hasher:  hasher,
		breaker: breaker,
		log:     log,
	}
}

func (p *CredentialPolicy) ChangePassword(ctx context.Context, user domain.User, current, newPassword string) error {
	if err := p.hasher.Compare(user.PasswordHash, current); err != nil {
		incrementPasswordChange("change", "invalid_current")
		p.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "change_password_invalid_current",
		}).Warn("change password failed: current password mismatch")
		return ErrInvalidCurrentPassword
	}

	if current == newPassword {
		incrementPasswordChange("change", "repetition")
		p.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "change_password_repetition",
		}).Warn("change password failed: new password equals current")
		return ErrPasswordRepetition
	}

	if err := p.save(ctx, user, newPassword); err != nil {
		incrementPasswordChange("change", "error")
		return err
	}

	incrementPasswordChange("change", "success")
	p.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "change_password_success",
	}).Info("password changed")
	return nil
}

func (p *CredentialPolicy) ResetPassword(ctx context.Context, user domain.User, newPassword string) error {
	if err := p.hasher.Compare(user.PasswordHash, newPassword); err == nil {
		incrementPasswordChange("reset", "history")
		p.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "reset_password_history",
		}).Warn("reset password failed: new password matches stored one")
		return ErrPasswordHistory
	}

	if err := p.save(ctx, user, newPassword); err != nil {
		incrementPasswordChange("reset", "error")
		return err
	}

	incrementPasswordChange("reset", "success")
	p.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "reset_password_success",
	}).Info("password reset")
	return nil
}

func (p *CredentialPolicy) save(ctx context.Context, user domain.User, password string) error {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		p.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "password_hash_failed",
		}).Errorf("failed to hash password: %v", err)
		return err
	}

	err = callDB(ctx, p.breaker, func(ctx context.Context) error {
		return p.store.UpdatePassword(ctx, user.ID, hash)
	})
	if err != nil {
		p.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "password_update_failed",
		}).Errorf("failed to update password: %v", err)
		return err
	}
	return nil
}

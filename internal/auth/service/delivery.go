package service

import (
	"context"

	"github.com/ventionteams/medfast-credentials/internal/common/logger"
	"github.com/ventionteams/medfast-credentials/internal/common/resilience"
	"github.com/ventionteams/medfast-credentials/internal/notification"
)

// DeliveryCoordinator sends credential mail. Verification mail is retried
// immediately on transient failures; password-reset mail is sent once.
type DeliveryCoordinator struct {
	sender      notification.Sender
	maxAttempts int
	log         *logger.Logger
}

func NewDeliveryCoordinator(sender notification.Sender, maxAttempts int, log *logger.Logger) *DeliveryCoordinator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &DeliveryCoordinator{
		sender:      sender,
		maxAttempts: maxAttempts,
		log:         log,
	}
}

func (d *DeliveryCoordinator) SendVerificationWithRetry(ctx context.Context, msg notification.VerificationMessage) error {
	policy := resilience.RetryPolicy{
		MaxAttempts: d.maxAttempts,
		IsRetryable: notification.IsTransient,
		OnRetry: func(attempt int, err error) {
			d.log.WithFields(ctx, logger.Fields{
				"attempt": attempt,
				"action":  "verification_mail_retry",
			}).Warnf("verification mail attempt failed: %v", err)
		},
	}

	err := resilience.Retry(ctx, policy, func(ctx context.Context, attempt int) error {
		err := d.sender.SendVerification(ctx, msg)
		if err != nil {
			incrementMailDelivery("verification", "failure")
			return err
		}
		incrementMailDelivery("verification", "success")
		return nil
	})
	if err != nil {
		d.log.WithFields(ctx, logger.Fields{
			"max_attempts": d.maxAttempts,
			"action":       "verification_mail_failed",
		}).Errorf("verification mail not delivered: %v", err)
		return ErrDeliveryFailed.WithCause(err)
	}
	return nil
}

func (d *DeliveryCoordinator) SendPasswordReset(ctx context.Context, msg notification.PasswordResetMessage) error {
	if err := d.sender.SendPasswordReset(ctx, msg); err != nil {
		incrementMailDelivery("password_reset", "failure")
		d.log.WithFields(ctx, logger.Fields{
			"action": "password_reset_mail_failed",
		}).Errorf("password reset mail not delivered: %v", err)
		return ErrDeliveryFailed.WithCause(err)
	}
	incrementMailDelivery("password_reset", "success")
	return nil
}

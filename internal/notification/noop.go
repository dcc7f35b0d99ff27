package notification

import (
	"context"

	"github.com/ventionteams/medfast-credentials/internal/common/logger"
)

// NoopSender only logs. Useful for local runs without a mail server.
type NoopSender struct {
	log *logger.Logger
}

func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) SendVerification(ctx context.Context, msg VerificationMessage) error {
	if err := checkRecipient(msg.Recipient); err != nil {
		return err
	}
	s.log.WithFields(ctx, logger.Fields{"recipient": msg.Recipient, "action": "mail_verification_skipped"}).Infof("verification link: %s", msg.Link)
	return nil
}

func (s *NoopSender) SendPasswordReset(ctx context.Context, msg PasswordResetMessage) error {
	if err := checkRecipient(msg.Recipient); err != nil {
		return err
	}
	s.log.WithFields(ctx, logger.Fields{"recipient": msg.Recipient, "action": "mail_password_reset_skipped"}).Debugf("password reset code issued")
	return nil
}

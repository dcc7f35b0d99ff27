package notification

import "context"

type VerificationMessage struct {
	Recipient string
	Name      string
	Link      string
}

type PasswordResetMessage struct {
	Recipient string
	Code      string
}

// Sender delivers credential-carrying mail. Failures are reported as
// *DeliveryError so callers can tell retryable ones apart.
type Sender interface {
	SendVerification(ctx context.Context, msg VerificationMessage) error
	SendPasswordReset(ctx context.Context, msg PasswordResetMessage) error
}

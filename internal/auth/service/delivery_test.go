package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ventionteams/medfast-credentials/internal/notification"
)

func TestDelivery_RetriesTransientFailures(t *testing.T) {
	sender := &mockSender{}
	calls := 0
	sender.sendVerificationFunc = func(context.Context, notification.VerificationMessage) error {
		calls++
		if calls < 3 {
			return notification.Transient(errors.New("421 try later"))
		}
		return nil
	}
	delivery := NewDeliveryCoordinator(sender, 3, testLogger())

	if err := delivery.SendVerificationWithRetry(context.Background(), notification.VerificationMessage{Recipient: "jane@example.com"}); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDelivery_SurfacesLastErrorAfterExhaustion(t *testing.T) {
	sender := &mockSender{}
	lastErr := errors.New("auth failed")
	sender.sendVerificationFunc = func(context.Context, notification.VerificationMessage) error {
		return notification.Transient(lastErr)
	}
	delivery := NewDeliveryCoordinator(sender, 3, testLogger())

	err := delivery.SendVerificationWithRetry(context.Background(), notification.VerificationMessage{Recipient: "jane@example.com"})
	if !errors.Is(err, ErrDeliveryFailed) || !errors.Is(err, lastErr) {
		t.Fatalf("expected ErrDeliveryFailed wrapping the last error, got %v", err)
	}
	if sender.verificationCount() != 3 {
		t.Errorf("expected 3 attempts, got %d", sender.verificationCount())
	}
}

func TestDelivery_PermanentFailureIsNotRetried(t *testing.T) {
	sender := &mockSender{}
	sender.sendVerificationFunc = func(context.Context, notification.VerificationMessage) error {
		return notification.Permanent(errors.New("550 no such mailbox"))
	}
	delivery := NewDeliveryCoordinator(sender, 3, testLogger())

	err := delivery.SendVerificationWithRetry(context.Background(), notification.VerificationMessage{Recipient: "jane@example.com"})
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if sender.verificationCount() != 1 {
		t.Errorf("expected a single attempt, got %d", sender.verificationCount())
	}
}

func TestDelivery_PasswordResetSentOnce(t *testing.T) {
	sender := &mockSender{}
	sender.sendPasswordResetFunc = func(context.Context, notification.PasswordResetMessage) error {
		return notification.Transient(errors.New("timeout"))
	}
	delivery := NewDeliveryCoordinator(sender, 3, testLogger())

	err := delivery.SendPasswordReset(context.Background(), notification.PasswordResetMessage{Recipient: "jane@example.com", Code: "0042"})
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if len(sender.resets) != 1 {
		t.Errorf("expected one attempt, got %d", len(sender.resets))
	}
}

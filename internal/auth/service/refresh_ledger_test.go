package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	authrepo "github.com/ventionteams/medfast-credentials/internal/auth/repository"
	commoncrypto "github.com/ventionteams/medfast-credentials/internal/common/crypto"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
)

type failingDeleteRefreshRepo struct {
	*authrepo.MemoryRefreshTokenRepository
}

func (r failingDeleteRefreshRepo) DeleteByTokenHash(context.Context, string) error {
	return errors.New("connection reset")
}

func TestRefreshLedger_RefreshDoesNotRotate(t *testing.T) {
	f := newFixture(t, defaultTTLs())
	ctx := context.Background()
	user := f.addUser(t, "jane@example.com", "secret123", true)

	issued, err := f.ledger.Issue(ctx, user)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if issued.RawToken == "" || issued.TokenHash != HashRefreshToken(issued.RawToken) {
		t.Fatalf("expected raw value and its hash, got %+v", issued)
	}

	f.clock.Advance(24 * time.Hour)
	result, err := f.ledger.Refresh(ctx, issued.RawToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if result.RefreshToken != issued.RawToken {
		t.Errorf("expected the same refresh value, got %s", result.RefreshToken)
	}
	if result.RefreshTTLRemaining != 6*24*time.Hour {
		t.Errorf("expected 6 days remaining, got %v", result.RefreshTTLRemaining)
	}
	if result.AccessTTL != 30*time.Minute {
		t.Errorf("expected access TTL of 30m, got %v", result.AccessTTL)
	}
	if !f.tokens.Validate(ctx, result.AccessToken, "jane@example.com") {
		t.Error("expected a valid access token")
	}

	again, err := f.ledger.Refresh(ctx, issued.RawToken)
	if err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if again.RefreshToken != issued.RawToken {
		t.Error("expected refresh value to stay the same across refreshes")
	}
}

func TestRefreshLedger_IssueKeepsEarlierTokens(t *testing.T) {
	f := newFixture(t, defaultTTLs())
	ctx := context.Background()
	user := f.addUser(t, "jane@example.com", "secret123", true)

	first, _ := f.ledger.Issue(ctx, user)
	second, _ := f.ledger.Issue(ctx, user)
	if first.RawToken == second.RawToken {
		t.Fatal("expected distinct values")
	}

	for _, value := range []string{first.RawToken, second.RawToken} {
		if _, err := f.ledger.Refresh(ctx, value); err != nil {
			t.Errorf("expected %s to stay usable, got %v", value, err)
		}
	}
}

func TestRefreshLedger_Expired(t *testing.T) {
	f := newFixture(t, defaultTTLs())
	ctx := context.Background()
	user := f.addUser(t, "jane@example.com", "secret123", true)

	issued, _ := f.ledger.Issue(ctx, user)

	f.clock.Advance(7 * 24 * time.Hour)
	if _, err := f.ledger.Refresh(ctx, issued.RawToken); err != nil {
		t.Fatalf("expected token to be valid at exactly its TTL, got %v", err)
	}

	f.clock.Advance(time.Second)
	if _, err := f.ledger.Refresh(ctx, issued.RawToken); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected ErrRefreshTokenExpired, got %v", err)
	}
	if _, err := f.ledger.Refresh(ctx, issued.RawToken); !errors.Is(err, ErrRefreshTokenNotFound) {
		t.Errorf("expected expired token to be deleted, got %v", err)
	}
}

func TestRefreshLedger_UnknownValue(t *testing.T) {
	f := newFixture(t, defaultTTLs())

	for _, value := range []string{"", "does-not-exist"} {
		if _, err := f.ledger.Refresh(context.Background(), value); !errors.Is(err, ErrRefreshTokenNotFound) {
			t.Errorf("value %q: expected ErrRefreshTokenNotFound, got %v", value, err)
		}
	}
}

func TestRefreshLedger_DeleteAllForUser(t *testing.T) {
	f := newFixture(t, defaultTTLs())
	ctx := context.Background()
	jane := f.addUser(t, "jane@example.com", "secret123", true)
	john := f.addUser(t, "john@example.com", "secret123", true)

	a, _ := f.ledger.Issue(ctx, jane)
	b, _ := f.ledger.Issue(ctx, jane)
	c, _ := f.ledger.Issue(ctx, john)

	if err := f.ledger.DeleteAllForUser(ctx, jane.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := f.ledger.DeleteAllForUser(ctx, jane.ID); err != nil {
		t.Fatalf("expected delete to be idempotent, got %v", err)
	}

	for _, value := range []string{a.RawToken, b.RawToken} {
		if _, err := f.ledger.Refresh(ctx, value); !errors.Is(err, ErrRefreshTokenNotFound) {
			t.Errorf("expected ErrRefreshTokenNotFound, got %v", err)
		}
	}
	if _, err := f.ledger.Refresh(ctx, c.RawToken); err != nil {
		t.Errorf("expected other user's token to survive, got %v", err)
	}
}

func TestRefreshLedger_DeleteExpired(t *testing.T) {
	f := newFixture(t, defaultTTLs())
	ctx := context.Background()
	user := f.addUser(t, "jane@example.com", "secret123", true)

	old, _ := f.ledger.Issue(ctx, user)
	f.clock.Advance(5 * 24 * time.Hour)
	fresh, _ := f.ledger.Issue(ctx, user)
	f.clock.Advance(3 * 24 * time.Hour)

	deleted, err := f.ledger.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if _, err := f.ledger.Refresh(ctx, old.RawToken); !errors.Is(err, ErrRefreshTokenNotFound) {
		t.Errorf("expected old token gone, got %v", err)
	}
	if _, err := f.ledger.Refresh(ctx, fresh.RawToken); err != nil {
		t.Errorf("expected fresh token to survive, got %v", err)
	}
}

func TestRefreshLedger_MissingOwnerDeleteFailureIsLogged(t *testing.T) {
	f := newFixture(t, defaultTTLs())
	ctx := context.Background()

	var buf bytes.Buffer
	repo := failingDeleteRefreshRepo{authrepo.NewMemoryRefreshTokenRepository()}
	ledger := NewRefreshLedger(repo, authrepo.NewMemoryUserRepository(), f.tokens, nil,
		commoncrypto.NewUUIDGenerator(), 7*24*time.Hour, f.clock, logger.NewWithWriter(&buf, "test", "error"))

	issued, err := ledger.Issue(ctx, testUser())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := ledger.Refresh(ctx, issued.RawToken); !errors.Is(err, ErrRefreshTokenNotFound) {
		t.Fatalf("expected ErrRefreshTokenNotFound, got %v", err)
	}
	if !strings.Contains(buf.String(), "action=refresh_token_delete_orphaned_failed") {
		t.Errorf("expected delete failure to be logged, got %q", buf.String())
	}
}

package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ventionteams/medfast-credentials/internal/auth/domain"
	authrepo "github.com/ventionteams/medfast-credentials/internal/auth/repository"
	"github.com/ventionteams/medfast-credentials/internal/auth/revocation"
	"github.com/ventionteams/medfast-credentials/internal/common/clock"
	commoncrypto "github.com/ventionteams/medfast-credentials/internal/common/crypto"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
	"github.com/ventionteams/medfast-credentials/internal/notification"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

var testStart = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type mockSender struct {
	mu                    sync.Mutex
	sendVerificationFunc  func(ctx context.Context, msg notification.VerificationMessage) error
	sendPasswordResetFunc func(ctx context.Context, msg notification.PasswordResetMessage) error
	verifications         []notification.VerificationMessage
	resets                []notification.PasswordResetMessage
}

func (m *mockSender) SendVerification(ctx context.Context, msg notification.VerificationMessage) error {
	m.mu.Lock()
	m.verifications = append(m.verifications, msg)
	m.mu.Unlock()
	if m.sendVerificationFunc != nil {
		return m.sendVerificationFunc(ctx, msg)
	}
	return nil
}

func (m *mockSender) SendPasswordReset(ctx context.Context, msg notification.PasswordResetMessage) error {
	m.mu.Lock()
	m.resets = append(m.resets, msg)
	m.mu.Unlock()
	if m.sendPasswordResetFunc != nil {
		return m.sendPasswordResetFunc(ctx, msg)
	}
	return nil
}

func (m *mockSender) verificationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.verifications)
}

type mockCache struct {
	putFunc func(ctx context.Context, key, value string, ttl time.Duration) error
	getFunc func(ctx context.Context, key string) (string, bool, error)
}

func (m *mockCache) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.putFunc != nil {
		return m.putFunc(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockCache) Get(ctx context.Context, key string) (string, bool, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return "", false, nil
}

type fixedCodeGenerator struct {
	code string
}

func (g fixedCodeGenerator) NewCode() (string, error) {
	return g.code, nil
}

type testTTLs struct {
	access       time.Duration
	refresh      time.Duration
	verification time.Duration
	reset        time.Duration
}

func defaultTTLs() testTTLs {
	return testTTLs{
		access:       30 * time.Minute,
		refresh:      7 * 24 * time.Hour,
		verification: 24 * time.Hour,
		reset:        60 * time.Second,
	}
}

type fixture struct {
	clock     *clock.MockClock
	users     *authrepo.MemoryUserRepository
	refreshes *authrepo.MemoryRefreshTokenRepository
	ephemeral *authrepo.MemoryEphemeralTokenRepository
	sender    *mockSender
	hasher    commoncrypto.PasswordHasher
	tokens    *AccessTokenAuthority
	ledger    *RefreshLedger
	authority *EphemeralTokenAuthority
	service   *AuthService
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "test", "critical")
}

func newFixture(t *testing.T, ttls testTTLs) *fixture {
	t.Helper()

	log := testLogger()
	mockClock := clock.NewMockClock(testStart)
	ids := commoncrypto.NewUUIDGenerator()
	hasher := commoncrypto.NewBcryptHasher(bcrypt.MinCost)

	cache := revocation.NewMemoryCache(context.Background(), mockClock, log)
	t.Cleanup(cache.Close)

	tokens, err := NewAccessTokenAuthority(testSigningKey, ttls.access, cache, ids, mockClock, log)
	if err != nil {
		t.Fatalf("failed to build access token authority: %v", err)
	}

	users := authrepo.NewMemoryUserRepository()
	refreshes := authrepo.NewMemoryRefreshTokenRepository()
	ephemeral := authrepo.NewMemoryEphemeralTokenRepository(users)
	sender := &mockSender{}

	ledger := NewRefreshLedger(refreshes, users, tokens, nil, ids, ttls.refresh, mockClock, log)
	authority := NewEphemeralTokenAuthority(ephemeral, nil, ids, mockClock, log,
		VerificationPolicy(ttls.verification, ids),
		PasswordResetPolicy(ttls.reset, fixedCodeGenerator{code: "4321"}),
	)
	policy := NewCredentialPolicy(users, hasher, nil, log)
	delivery := NewDeliveryCoordinator(sender, 3, log)

	service := NewAuthService(users, tokens, ledger, authority, policy, delivery,
		hasher, ids, nil, mockClock, "https://medfast.example.com", log)

	return &fixture{
		clock:     mockClock,
		users:     users,
		refreshes: refreshes,
		ephemeral: ephemeral,
		sender:    sender,
		hasher:    hasher,
		tokens:    tokens,
		ledger:    ledger,
		authority: authority,
		service:   service,
	}
}

// addUser stores an enabled user with the given password.
func (f *fixture) addUser(t *testing.T, email, password string, enabled bool) domain.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := domain.User{
		ID:           domain.UserID("user-" + email),
		Email:        email,
		PasswordHash: hash,
		Enabled:      enabled,
		Role:         domain.RolePatient,
		CreatedAt:    f.clock.Now(),
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

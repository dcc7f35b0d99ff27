package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ventionteams/medfast-credentials/internal/auth/domain"
)

// MemoryUserRepository keeps users in process memory. It backs the
// "memory" storage driver and tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[domain.UserID]domain.User
	byEmail map[string]domain.UserID
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[domain.UserID]domain.User),
		byEmail: make(map[string]domain.UserID),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return ErrEmailAlreadyExists
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id domain.UserID) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id domain.UserID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	r.byID[id] = user
	return nil
}

func (r *MemoryUserRepository) SetEnabled(_ context.Context, id domain.UserID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	user.Enabled = enabled
	r.byID[id] = user
	return nil
}

type MemoryRefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]domain.RefreshToken
}

func NewMemoryRefreshTokenRepository() *MemoryRefreshTokenRepository {
	return &MemoryRefreshTokenRepository{tokens: make(map[string]domain.RefreshToken)}
}

func (r *MemoryRefreshTokenRepository) Create(_ context.Context, token domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token.RawToken = ""
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *MemoryRefreshTokenRepository) FindByTokenHash(_ context.Context, hash string) (domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[hash]
	if !ok {
		return domain.RefreshToken{}, ErrRefreshTokenNotFound
	}
	return token, nil
}

func (r *MemoryRefreshTokenRepository) DeleteByTokenHash(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, hash)
	return nil
}

func (r *MemoryRefreshTokenRepository) DeleteByUserID(_ context.Context, userID domain.UserID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for hash, token := range r.tokens {
		if token.UserID == userID {
			delete(r.tokens, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemoryRefreshTokenRepository) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for hash, token := range r.tokens {
		if token.CreatedAt.Before(cutoff) {
			delete(r.tokens, hash)
			deleted++
		}
	}
	return deleted, nil
}

// UserLookup resolves an owner email to a user id.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

type MemoryEphemeralTokenRepository struct {
	mu     sync.Mutex
	users  UserLookup
	tokens map[string]domain.EphemeralToken
}

func NewMemoryEphemeralTokenRepository(users UserLookup) *MemoryEphemeralTokenRepository {
	return &MemoryEphemeralTokenRepository{
		users:  users,
		tokens: make(map[string]domain.EphemeralToken),
	}
}

func (r *MemoryEphemeralTokenRepository) Create(_ context.Context, token domain.EphemeralToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token.ID] = token
	return nil
}

func (r *MemoryEphemeralTokenRepository) FindByOwnerAndValue(ctx context.Context, purpose domain.Purpose, email, value string) (domain.EphemeralToken, error) {
	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return domain.EphemeralToken{}, ErrEphemeralTokenNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []domain.EphemeralToken
	for _, token := range r.tokens {
		if token.Purpose == purpose && token.UserID == user.ID && token.Value == value {
			matches = append(matches, token)
		}
	}
	if len(matches) == 0 {
		return domain.EphemeralToken{}, ErrEphemeralTokenNotFound
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches[0], nil
}

func (r *MemoryEphemeralTokenRepository) ExistsForOwner(ctx context.Context, purpose domain.Purpose, email string) (bool, error) {
	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, token := range r.tokens {
		if token.Purpose == purpose && token.UserID == user.ID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryEphemeralTokenRepository) DeleteByID(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[id]; !ok {
		return false, nil
	}
	delete(r.tokens, id)
	return true, nil
}

func (r *MemoryEphemeralTokenRepository) DeleteCreatedBefore(_ context.Context, purpose domain.Purpose, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, token := range r.tokens {
		if token.Purpose == purpose && token.CreatedAt.Before(cutoff) {
			delete(r.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

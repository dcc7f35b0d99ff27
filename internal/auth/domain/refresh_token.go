package domain

import "time"

// RefreshToken is stored by hash only; RawToken is set on issue and never
// persisted.
type RefreshToken struct {
	ID        string
	TokenHash string
	UserID    UserID
	CreatedAt time.Time
	RawToken  string
}

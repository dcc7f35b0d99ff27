package domain

import "time"

// AccessClaims is the decoded view of a signed access token.
type AccessClaims struct {
	UserID    UserID
	Email     string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

package domain

import "time"

type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

type EphemeralToken struct {
	ID        string
	UserID    UserID
	Purpose   Purpose
	Value     string
	CreatedAt time.Time
}

type Outcome int

const (
	OutcomeConsumed Outcome = iota
	OutcomeExpired
	OutcomeNotFound
	OutcomeMismatch
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConsumed:
		return "consumed"
	case OutcomeExpired:
		return "expired"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

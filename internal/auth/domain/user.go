package domain

import "time"

type UserID string

type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           UserID
	Email        string
	PasswordHash string
	Enabled      bool
	Role         Role
	CreatedAt    time.Time
}

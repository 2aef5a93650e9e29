package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role controls access to the admin surfaces.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an authenticated participant. Each user owns exactly one ledger
// account (derived from its id) which funds bets and receives payouts.
type User struct {
	ID           uuid.UUID `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	Username     string    `json:"username"   db:"username"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	Role         Role      `json:"role"       db:"role"`
	IsActive     bool      `json:"is_active"  db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin returns true for back-office users.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

package model

import "time"

// User is an account that can authenticate with email/password and hold
// API keys. Passwords are stored as bcrypt hashes.
type User struct {
	ID                int64      `json:"id" db:"id"`
	DisplayName       string     `json:"display_name" db:"display_name"`
	Email             string     `json:"email" db:"email"`
	PasswordHash      string     `json:"-" db:"password_hash"` // bcrypt hash, never expose
	RoleName          string     `json:"role_name" db:"role_name"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty" db:"password_changed_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

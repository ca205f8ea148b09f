package model

import "time"

// APIKey is an opaque credential presented as "<id>.<secret>". The raw
// secret is generated once, returned to the owner exactly once, and never
// stored; only a keyed HMAC hash is persisted. Revocation is a terminal
// soft delete; rows are never physically removed.
type APIKey struct {
	ID          string     `json:"id" db:"id"` // UUID, doubles as the lookup half of the presented key
	OwnerUserID int64      `json:"owner_user_id" db:"owner_user_id"`
	Name        string     `json:"name" db:"name"`
	SecretHash  string     `json:"-" db:"secret_hash"` // HMAC-SHA256 hex, never expose
	Revoked     bool       `json:"revoked" db:"revoked"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
}

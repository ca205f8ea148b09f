package model

import "time"

// AuthMethod values carried on an Identity. Exactly one credential scheme
// determines the method for any given request.
const (
	AuthMethodToken  = "token"
	AuthMethodAPIKey = "api_key"
)

// Identity is the authenticated caller for a single request. It is built
// fresh by the auth pipeline, never persisted, and immutable after
// construction. Role reflects the role row as read at request time.
type Identity struct {
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	RoleName    string    `json:"role_name"`
	Role        *Role     `json:"role,omitempty"` // nil when the role row is absent: zero permissions
	AuthMethod  string    `json:"auth_method"`
	APIKeyID    string    `json:"api_key_id,omitempty"`
	APIKeyName  string    `json:"api_key_name,omitempty"`
}

// Can reports whether the identity's role grants the named permission.
// Safe to call on a nil identity.
func (id *Identity) Can(perm string) bool {
	if id == nil {
		return false
	}
	return id.Role.Has(perm)
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/julieginest/prjCyberA3/internal/model"
	"github.com/julieginest/prjCyberA3/internal/store"
)

// Resolver loads user rows and role permission sets from the backing store.
type Resolver struct {
	store *store.Store
}

// NewResolver creates a Resolver over the given store.
func NewResolver(st *store.Store) *Resolver {
	return &Resolver{store: st}
}

// Resolve returns the user row for a verified subject id. A missing row
// fails ErrUnknownSubject; store failures are wrapped and surfaced as-is so
// the caller can log them without leaking detail to clients.
func (r *Resolver) Resolve(ctx context.Context, subjectID int64) (*model.User, error) {
	user, err := r.store.GetUserByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, fmt.Errorf("resolve subject %d: %w", subjectID, err)
	}
	return user, nil
}

// LoadRole returns the named role, or nil when no such role row exists.
// Absence is not an error: it yields an identity with zero permissions.
func (r *Resolver) LoadRole(ctx context.Context, name string) (*model.Role, error) {
	role, err := r.store.GetRoleByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load role %q: %w", name, err)
	}
	return role, nil
}

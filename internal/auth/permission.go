package auth

import "github.com/julieginest/prjCyberA3/internal/model"

// Require allows or denies a permission for an identity. A nil identity
// means no pipeline ran upstream (or it failed silently) and fails
// ErrUnauthenticated; a missing role or a false/absent flag fails
// ErrForbidden. Pure function, no side effects.
func Require(id *model.Identity, perm string) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if !id.Can(perm) {
		return ErrForbidden
	}
	return nil
}

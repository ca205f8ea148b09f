package auth

import (
	"errors"
	"testing"

	"github.com/julieginest/prjCyberA3/internal/model"
)

func TestRequire(t *testing.T) {
	editor := &model.Identity{
		UserID: 1,
		Role:   &model.Role{Name: "editor", CreateProduct: true},
	}

	if err := Require(nil, model.PermViewProducts); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("got %v, want ErrUnauthenticated for nil identity", err)
	}
	if err := Require(editor, model.PermCreateProduct); err != nil {
		t.Errorf("granted permission denied: %v", err)
	}
	if err := Require(editor, model.PermDeleteProduct); !errors.Is(err, ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden for missing permission", err)
	}
	if err := Require(editor, "no_such_permission"); !errors.Is(err, ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden for unknown permission", err)
	}

	// A missing role row yields an identity with zero permissions.
	roleless := &model.Identity{UserID: 2, RoleName: "ghost"}
	if err := Require(roleless, model.PermViewProducts); !errors.Is(err, ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden for nil role", err)
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julieginest/prjCyberA3/internal/model"
)

// GetRoleByName returns a role by its unique name. Roles are always looked
// up by name: the role name is the column stored on the user row.
func (s *Store) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := s.db.GetContext(ctx, &role, s.rebind("SELECT * FROM roles WHERE name = ?"), name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get role by name: %w", err)
	}
	return &role, nil
}

// ListRoles returns all roles ordered by name.
func (s *Store) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := s.db.SelectContext(ctx, &roles, "SELECT * FROM roles ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// CreateRole inserts a new role.
func (s *Store) CreateRole(ctx context.Context, role *model.Role) error {
	now := nowUTC()
	role.CreatedAt = now
	role.UpdatedAt = now

	const q = `INSERT INTO roles
		(name, description, view_products, create_product, update_product, delete_product,
		 update_image, set_bestseller, manage_api_keys, created_at, updated_at)
		VALUES
		(:name, :description, :view_products, :create_product, :update_product, :delete_product,
		 :update_image, :set_bestseller, :manage_api_keys, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, role); err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julieginest/prjCyberA3/internal/model"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// CreateUser inserts a new user. Emails are normalized to lower case. The ID
// and CreatedAt fields on u are populated after a successful insert.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = nowUTC()

	const q = `INSERT INTO users
		(display_name, email, password_hash, role_name, password_changed_at, created_at)
		VALUES
		(:display_name, :email, :password_hash, :role_name, :password_changed_at, :created_at)`

	id, err := s.insertID(ctx, q, u)
	if err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return nil
}

// GetUserByID returns a user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, s.rebind("SELECT * FROM users WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail returns a user by normalized email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	if err := s.db.GetContext(ctx, &u, s.rebind("SELECT * FROM users WHERE email = ?"), email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by email.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUserPassword replaces the password hash and stamps
// password_changed_at, which invalidates every bearer token issued before
// this moment.
func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	now := nowUTC()
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE users SET password_hash = ?, password_changed_at = ? WHERE id = ?"),
		passwordHash, now, id)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user password rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicateErr reports whether err is a unique-constraint violation for
// any of the supported engines.
func isDuplicateErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julieginest/prjCyberA3/internal/model"
)

// CreateAPIKey inserts a new API key record. The secret hash must already be
// computed; the store never sees the plaintext secret.
func (s *Store) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	key.CreatedAt = nowUTC()

	const q = `INSERT INTO api_keys
		(id, owner_user_id, name, secret_hash, revoked, created_at)
		VALUES
		(:id, :owner_user_id, :name, :secret_hash, :revoked, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// GetAPIKeyByID returns an API key by primary key, revoked or not.
func (s *Store) GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error) {
	var key model.APIKey
	if err := s.db.GetContext(ctx, &key, s.rebind("SELECT * FROM api_keys WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return &key, nil
}

// ListAPIKeysByOwner returns all of a user's keys, newest first.
func (s *Store) ListAPIKeysByOwner(ctx context.Context, ownerID int64) ([]model.APIKey, error) {
	var keys []model.APIKey
	q := s.rebind("SELECT * FROM api_keys WHERE owner_user_id = ? ORDER BY created_at DESC, id")
	if err := s.db.SelectContext(ctx, &keys, q, ownerID); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// HasLiveAPIKey reports whether the owner already has a non-revoked key with
// the given name.
func (s *Store) HasLiveAPIKey(ctx context.Context, ownerID int64, name string) (bool, error) {
	var count int
	q := s.rebind("SELECT COUNT(*) FROM api_keys WHERE owner_user_id = ? AND name = ? AND revoked = ?")
	if err := s.db.GetContext(ctx, &count, q, ownerID, name, false); err != nil {
		return false, fmt.Errorf("count api keys: %w", err)
	}
	return count > 0, nil
}

// RevokeAPIKey flips the revoked flag. Revoking an already-revoked key is a
// no-op, so the operation is idempotent; only a missing row is an error.
func (s *Store) RevokeAPIKey(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE api_keys SET revoked = ? WHERE id = ?"), true, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchAPIKey sets last_used_at to now.
func (s *Store) TouchAPIKey(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE api_keys SET last_used_at = ? WHERE id = ?"), nowUTC(), id)
	if err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

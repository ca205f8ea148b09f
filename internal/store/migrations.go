package store

import (
	"fmt"
	"strings"
)

// dialect holds the few DDL fragments that differ between engines. Keeping
// the divergence to three snippets lets the table definitions stay shared.
type dialect struct {
	serialPK     string // auto-incrementing integer primary key
	timestamp    string // timestamp column type
	insertIgnore string // INSERT that silently skips duplicate keys
}

var dialects = map[string]dialect{
	"sqlite": {
		serialPK:     "INTEGER PRIMARY KEY AUTOINCREMENT",
		timestamp:    "DATETIME",
		insertIgnore: "INSERT OR IGNORE",
	},
	"postgres": {
		serialPK:     "BIGSERIAL PRIMARY KEY",
		timestamp:    "TIMESTAMPTZ",
		insertIgnore: "INSERT",
	},
	"mysql": {
		serialPK:     "BIGINT PRIMARY KEY AUTO_INCREMENT",
		timestamp:    "DATETIME",
		insertIgnore: "INSERT IGNORE",
	},
}

func (s *Store) migrate() error {
	d, ok := dialects[s.driver]
	if !ok {
		return fmt.Errorf("no migrations for driver %q", s.driver)
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS roles (
			name TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			view_products BOOLEAN NOT NULL DEFAULT 0,
			create_product BOOLEAN NOT NULL DEFAULT 0,
			update_product BOOLEAN NOT NULL DEFAULT 0,
			delete_product BOOLEAN NOT NULL DEFAULT 0,
			update_image BOOLEAN NOT NULL DEFAULT 0,
			set_bestseller BOOLEAN NOT NULL DEFAULT 0,
			manage_api_keys BOOLEAN NOT NULL DEFAULT 0,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id {{serial}},
			display_name TEXT NOT NULL DEFAULT '',
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role_name TEXT NOT NULL DEFAULT 'viewer',
			password_changed_at {{ts}},
			created_at {{ts}} NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS api_keys (
			id TEXT PRIMARY KEY,
			owner_user_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			secret_hash TEXT NOT NULL,
			revoked BOOLEAN NOT NULL DEFAULT 0,
			created_at {{ts}} NOT NULL,
			last_used_at {{ts}}
		)`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_owner ON api_keys(owner_user_id)`,

		`CREATE TABLE IF NOT EXISTS products (
			id {{serial}},
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price_cents BIGINT NOT NULL DEFAULT 0,
			image_path TEXT NOT NULL DEFAULT '',
			bestseller BOOLEAN NOT NULL DEFAULT 0,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,
	}

	// Seed the built-in roles. Re-running is a no-op.
	seeds := []struct {
		name, desc                                           string
		view, create, update, del, image, bestseller, manage bool
	}{
		{"admin", "Full access", true, true, true, true, true, true, true},
		{"editor", "Catalog management without key administration", true, true, true, false, true, true, false},
		{"viewer", "Read-only catalog access", true, false, false, false, false, false, false},
	}

	repl := strings.NewReplacer("{{serial}}", d.serialPK, "{{ts}}", d.timestamp)
	for _, m := range migrations {
		if _, err := s.db.Exec(repl.Replace(m)); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	seedQ := d.insertIgnore + ` INTO roles
		(name, description, view_products, create_product, update_product, delete_product,
		 update_image, set_bestseller, manage_api_keys, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if s.driver == "postgres" {
		seedQ += " ON CONFLICT (name) DO NOTHING"
	}
	seedQ = s.rebind(seedQ)

	for _, r := range seeds {
		now := nowUTC()
		if _, err := s.db.Exec(seedQ, r.name, r.desc, r.view, r.create, r.update, r.del,
			r.image, r.bestseller, r.manage, now, now); err != nil {
			return fmt.Errorf("seed role %s: %w", r.name, err)
		}
	}
	return nil
}

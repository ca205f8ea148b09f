// Package store persists users, roles, API keys, and products behind a
// single sqlx-backed Store. SQLite is the default engine; PostgreSQL and
// MySQL are supported for deployments that already run one.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store is the application database. All lookups take a context so callers
// can impose their own deadlines.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the database identified by driver ("sqlite", "postgres",
// or "mysql") and dsn, then runs idempotent migrations. For sqlite an empty
// dsn opens an in-memory database.
func Open(driver, dsn string) (*Store, error) {
	var db *sqlx.DB
	var err error

	switch driver {
	case "sqlite", "":
		driver = "sqlite"
		if dsn == "" {
			dsn = ":memory:?_journal_mode=WAL"
		}
		db, err = sqlx.Connect("sqlite", dsn)
		if err == nil {
			db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
			if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
				return nil, fmt.Errorf("enable foreign keys: %w", err)
			}
		}
	case "postgres":
		db, err = sqlx.Connect("pgx", dsn)
	case "mysql":
		db, err = sqlx.Connect("mysql", dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// OpenDir opens (creating if needed) a SQLite database under dataDir. Pass
// empty string for in-memory. This is the zero-configuration default path.
func OpenDir(dataDir string) (*Store, error) {
	if dataDir == "" {
		return Open("sqlite", "")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dsn := filepath.Join(dataDir, "atelier.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	return Open("sqlite", dsn)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind converts "?" bindvars to the driver's placeholder style.
func (s *Store) rebind(q string) string {
	return s.db.Rebind(q)
}

// insertID runs a named INSERT and returns the generated row id. PostgreSQL
// has no LastInsertId, so the query gains a RETURNING clause there.
func (s *Store) insertID(ctx context.Context, q string, arg any) (int64, error) {
	if s.driver == "postgres" {
		rows, err := s.db.NamedQueryContext(ctx, q+" RETURNING id", arg)
		if err != nil {
			return 0, err
		}
		defer rows.Close()
		var id int64
		if !rows.Next() {
			return 0, fmt.Errorf("insert returned no id")
		}
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		return id, rows.Err()
	}

	res, err := s.db.NamedExecContext(ctx, q, arg)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

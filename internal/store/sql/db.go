// Package sqlstore persists items in a relational database through
// database/sql. SQLite (modernc.org/sqlite) is the default; PostgreSQL is
// reachable through either pgx or lib/pq.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/demo-api/internal/logger"
)

type Options struct {
	URL    string // DATABASE_URL
	Driver string // optional override, see ParseDSN

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

func (o *Options) withDefaults() {
	if o.MaxOpenConns == 0 {
		o.MaxOpenConns = 25
	}
	if o.MaxIdleConns == 0 {
		o.MaxIdleConns = 5
	}
	if o.ConnMaxLifetime == 0 {
		o.ConnMaxLifetime = time.Hour
	}
	if o.PingTimeout == 0 {
		o.PingTimeout = 5 * time.Second
	}
}

type Store struct {
	db     *sql.DB
	driver string
	log    logger.Logger
}

// Open connects, pings and migrates. The returned Store must be closed.
func Open(ctx context.Context, opts Options, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewNop()
	}
	opts.withDefaults()

	driver, dsn, err := ParseDSN(opts.URL, opts.Driver)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		if path := SQLitePath(dsn); path != "" {
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
				}
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer; serialise through one connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxIdleConns)
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	s := &Store{db: db, driver: driver, log: log}

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("database ready", logger.String("driver", driver))
	return s, nil
}

func (s *Store) Driver() string { return s.driver }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		description TEXT,
		is_active   BOOLEAN NOT NULL DEFAULT 1,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS ix_items_name ON items (name)`,
}

var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS ix_items_name ON items (name)`,
}

// Migrate creates the items table and its indexes when missing.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := schemaPostgres
	if s.driver == DriverSQLite {
		stmts = schemaSQLite
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites $n placeholders to "?" for sqlite. Arguments must be
// numbered in order of appearance, and no query here has '$' in a literal.
func (s *Store) rebind(query string) string {
	if s.driver != DriverSQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c != '$' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		if j == i+1 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('?')
		i = j - 1
	}
	return b.String()
}

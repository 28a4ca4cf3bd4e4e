package sqlstore

import (
	"fmt"
	"net/url"
	"strings"
)

// Driver names registered with database/sql.
const (
	DriverSQLite   = "sqlite"   // modernc.org/sqlite
	DriverPgx      = "pgx"      // github.com/jackc/pgx/v5/stdlib
	DriverPostgres = "postgres" // github.com/lib/pq
)

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"

// ParseDSN maps a DATABASE_URL onto a database/sql driver name and the DSN
// that driver expects. override, when set, picks the driver for postgres URLs.
//
//	sqlite://data/demo.db        -> sqlite, data/demo.db (relative)
//	sqlite:////app/data/demo.db  -> sqlite, /app/data/demo.db
//	postgres://u:p@h/db          -> pgx (or postgres with override)
func ParseDSN(raw, override string) (driver, dsn string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", fmt.Errorf("empty database url")
	}

	switch {
	case strings.HasPrefix(raw, "sqlite://"), strings.HasPrefix(raw, "sqlite3://"):
		if override != "" && override != DriverSQLite {
			return "", "", fmt.Errorf("driver %q cannot open %s", override, redact(raw))
		}
		path := raw[strings.Index(raw, "://")+3:]
		// sqlite:///rel and sqlite:////abs, as written for SQLAlchemy.
		if strings.HasPrefix(path, "/") {
			path = path[1:]
		}
		if path == "" {
			return "", "", fmt.Errorf("missing sqlite path in %q", raw)
		}
		return DriverSQLite, withSQLitePragmas(path), nil

	case strings.HasPrefix(raw, "file:"):
		if override != "" && override != DriverSQLite {
			return "", "", fmt.Errorf("driver %q cannot open %s", override, redact(raw))
		}
		return DriverSQLite, withSQLitePragmas(raw), nil

	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		u, perr := url.Parse(raw)
		if perr != nil {
			return "", "", fmt.Errorf("failed to parse database url: %w", perr)
		}
		u.Scheme = "postgres"
		switch override {
		case "", DriverPgx:
			return DriverPgx, u.String(), nil
		case DriverPostgres:
			return DriverPostgres, u.String(), nil
		default:
			return "", "", fmt.Errorf("driver %q cannot open %s", override, redact(raw))
		}
	}

	return "", "", fmt.Errorf("unsupported database url scheme in %s", redact(raw))
}

// SQLitePath returns the filesystem path of a sqlite DSN, or "" for
// in-memory databases.
func SQLitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.HasPrefix(path, ":memory:") {
		return ""
	}
	return path
}

func withSQLitePragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + sqlitePragmas
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}

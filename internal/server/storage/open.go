package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
	"github.com/dmitrijs2005/rfcdiscuss/internal/filex"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const pingTimeout = 8 * time.Second

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects to the store named by driver and dsn and pings it. The
// returned *sql.DB is owned by the caller, who must Close it.
//
// SQLite handles are limited to one open connection: the engine has a single
// writer anyway, and the schema manager relies on connection-scoped pragmas.
// Foreign keys and a busy timeout are switched on for every connection.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)

	switch strings.ToLower(driver) {
	case DriverSQLite, "sqlite3":
		dialect = SQLite{}
		if path, ok := sqliteFile(dsn); ok {
			if _, err := filex.EnsureParentDir(path); err != nil {
				return nil, nil, fmt.Errorf("%w: %w", common.ErrorStore, err)
			}
		}
		db, err = sqlOpen("sqlite", sqliteDSN(dsn))
		if err == nil {
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres, "pgx", "postgresql":
		dialect = Postgres{}
		db, err = sqlOpen("pgx", dsn)
		if err == nil {
			db.SetMaxOpenConns(10)
			db.SetMaxIdleConns(10)
			db.SetConnMaxLifetime(30 * time.Minute)
		}
	default:
		return nil, nil, fmt.Errorf("%w: unsupported database driver %q", common.ErrorStore, driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: db open error: %w", common.ErrorStore, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("%w: db ping error: %w", common.ErrorStore, err)
	}

	return db, dialect, nil
}

// sqliteDSN appends the pragmas every connection needs unless the caller
// already set them.
func sqliteDSN(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// sqliteFile returns the file a SQLite DSN points at, if any.
func sqliteFile(dsn string) (string, bool) {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if strings.Contains(path[i:], "mode=memory") {
			return "", false
		}
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return "", false
	}
	return path, true
}

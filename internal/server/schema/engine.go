package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/rfcdiscuss/internal/server/storage"
	"github.com/pressly/goose/v3"
)

// engine holds the DDL and connection handling that differ between stores.
type engine interface {
	gooseDialect() goose.Dialect
	tableDDL(table string) string

	// lock serializes schema work across processes. The returned func
	// releases it.
	lock(ctx context.Context, db *sql.DB) (func(), error)

	// prepare configures the pinned connection used for rebuilds. The
	// returned func undoes it before the connection goes back to the pool.
	prepare(ctx context.Context, conn *sql.Conn) (func(context.Context) error, error)

	dropTable(table string) string

	// afterCopy returns statements that resynchronise generated keys once
	// rows with explicit ids were copied into table.
	afterCopy(table string) []string

	// relink returns the statement restoring ref's foreign key to parent
	// after parent was replaced, or "" when the engine keeps it by name.
	relink(ref Reference, parent string) string
}

func engineFor(d storage.Dialect) (engine, error) {
	switch d.Name() {
	case storage.DriverSQLite:
		return sqliteEngine{}, nil
	case storage.DriverPostgres:
		return postgresEngine{}, nil
	}
	return nil, fmt.Errorf("no schema engine for driver %q", d.Name())
}

type sqliteEngine struct{}

func (sqliteEngine) gooseDialect() goose.Dialect  { return goose.DialectSQLite3 }
func (sqliteEngine) tableDDL(table string) string { return sqliteTables[table] }

// SQLite takes a database-wide write lock for every transaction, which is
// enough for the single-writer deployments it serves.
func (sqliteEngine) lock(context.Context, *sql.DB) (func(), error) {
	return func() {}, nil
}

// Foreign keys are off while tables are swapped so that dropping the old
// parent does not cascade into children. With legacy_alter_table on, a
// rename leaves child references pointing at the original name, which the
// rebuilt table takes over.
func (sqliteEngine) prepare(ctx context.Context, conn *sql.Conn) (func(context.Context) error, error) {
	for _, q := range []string{"PRAGMA foreign_keys = OFF", "PRAGMA legacy_alter_table = ON"} {
		if _, err := conn.ExecContext(ctx, q); err != nil {
			return nil, err
		}
	}
	return func(ctx context.Context) error {
		for _, q := range []string{"PRAGMA legacy_alter_table = OFF", "PRAGMA foreign_keys = ON"} {
			if _, err := conn.ExecContext(ctx, q); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

func (sqliteEngine) dropTable(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
}

// AUTOINCREMENT keeps its counter in sqlite_sequence and moves past copied
// ids on its own.
func (sqliteEngine) afterCopy(string) []string { return nil }

func (sqliteEngine) relink(Reference, string) string { return "" }

// advisoryLockKey identifies the schema lock among PostgreSQL advisory locks.
const advisoryLockKey int64 = 0x7266635f736368 // "rfc_sch"

type postgresEngine struct{}

func (postgresEngine) gooseDialect() goose.Dialect  { return goose.DialectPostgres }
func (postgresEngine) tableDDL(table string) string { return postgresTables[table] }

// Session-level advisory locks belong to a connection, so the lock pins one
// for as long as it is held.
func (postgresEngine) lock(ctx context.Context, db *sql.DB) (func(), error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", advisoryLockKey); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", advisoryLockKey)
		_ = conn.Close()
	}, nil
}

func (postgresEngine) prepare(context.Context, *sql.Conn) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// CASCADE removes the foreign keys children hold on the renamed table;
// relink puts them back on the new one.
func (postgresEngine) dropTable(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)
}

func (postgresEngine) afterCopy(table string) []string {
	return []string{fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
		table,
	)}
}

func (postgresEngine) relink(ref Reference, parent string) string {
	return fmt.Sprintf(
		"ALTER TABLE %[1]s ADD CONSTRAINT %[1]s_%[2]s_fkey FOREIGN KEY (%[2]s) REFERENCES %[3]s(id) ON DELETE CASCADE",
		ref.Table, ref.Column, parent,
	)
}

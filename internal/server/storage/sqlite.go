package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
	"github.com/dmitrijs2005/rfcdiscuss/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite is the Dialect for modernc.org/sqlite.
type SQLite struct{}

func (SQLite) Name() string { return DriverSQLite }

func (SQLite) Rebind(query string) string { return query }

func (SQLite) NowEpoch() string { return `CAST(strftime('%s', 'now') AS INTEGER)` }

// ToEpoch leaves values that are already integers alone: strftime would read
// a bare number as a Julian day.
func (SQLite) ToEpoch(expr string) string {
	return fmt.Sprintf(`CASE WHEN typeof(%[1]s) = 'integer' THEN %[1]s ELSE CAST(strftime('%%s', %[1]s) AS INTEGER) END`, expr)
}

func (SQLite) Classify(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return nil
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return common.ErrorConflict
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return common.ErrorNotFound
	}
	// primary result code only
	if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := se.Error()
		switch {
		case strings.Contains(msg, "UNIQUE"):
			return common.ErrorConflict
		case strings.Contains(msg, "FOREIGN KEY"):
			return common.ErrorNotFound
		}
	}
	return nil
}

func (SQLite) DescribeColumns(ctx context.Context, q dbx.DBTX, table string) ([]ColumnDescriptor, error) {
	rows, err := q.QueryContext(ctx, `SELECT name, type, "notnull" FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnDescriptor
	for rows.Next() {
		var c ColumnDescriptor
		var notNull int
		if err := rows.Scan(&c.Name, &c.Type, &notNull); err != nil {
			return nil, fmt.Errorf("failed to scan %s column: %w", table, err)
		}
		c.Kind = KindOf(c.Type)
		c.NotNull = notNull != 0
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s columns: %w", table, err)
	}
	return cols, nil
}

// Package storage opens the relational store and hides the differences
// between the supported engines (SQLite via modernc.org/sqlite and
// PostgreSQL via pgx) behind a small Dialect interface.
//
// Repositories write their SQL with '?' placeholders and pass it through
// Dialect.Rebind. Every persisted instant is an INTEGER unix epoch produced
// by the store's own clock (Dialect.NowEpoch), so issue, verify and purge
// never compare a client clock with a server clock.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
	"github.com/dmitrijs2005/rfcdiscuss/internal/dbx"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ColumnKind is the engine-neutral storage class of a column.
type ColumnKind int

const (
	KindOther ColumnKind = iota
	KindInteger
	KindText
	KindTemporal
)

func (k ColumnKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindText:
		return "text"
	case KindTemporal:
		return "temporal"
	}
	return "other"
}

// ColumnDescriptor describes one column as observed in the live store.
type ColumnDescriptor struct {
	Name    string
	Type    string // as reported by the engine
	Kind    ColumnKind
	NotNull bool
}

// ColumnDescriber reports the columns of a table in declaration order.
// A table that does not exist yields an empty slice and no error.
type ColumnDescriber interface {
	DescribeColumns(ctx context.Context, q dbx.DBTX, table string) ([]ColumnDescriptor, error)
}

// Dialect is the per-engine SQL surface used by repositories and the schema
// manager.
type Dialect interface {
	ColumnDescriber

	// Name returns DriverSQLite or DriverPostgres.
	Name() string

	// Rebind rewrites '?' placeholders into the engine's native form.
	Rebind(query string) string

	// NowEpoch is an SQL expression for the store's current unix time.
	NowEpoch() string

	// ToEpoch wraps a timestamp-valued SQL expression so it yields unix
	// seconds.
	ToEpoch(expr string) string

	// Classify maps a driver error to common.ErrorConflict (unique
	// violation) or common.ErrorNotFound (foreign key violation). It returns
	// nil for anything else.
	Classify(err error) error
}

// Error wraps a driver error for callers: constraint violations carry their
// classified sentinel, everything else carries common.ErrorStore. The driver
// error stays in the chain.
func Error(d Dialect, err error) error {
	if err == nil {
		return nil
	}
	if sentinel := d.Classify(err); sentinel != nil {
		return fmt.Errorf("db error: %w: %w", sentinel, err)
	}
	return fmt.Errorf("db error: %w: %w", common.ErrorStore, err)
}

// KindOf classifies an engine type name.
func KindOf(declared string) ColumnKind {
	t := strings.ToLower(strings.TrimSpace(declared))
	switch {
	case t == "":
		return KindOther
	case strings.HasPrefix(t, "interval"):
		return KindOther
	case strings.Contains(t, "int"):
		return KindInteger
	case strings.Contains(t, "time"), strings.Contains(t, "date"):
		return KindTemporal
	case strings.Contains(t, "char"), strings.Contains(t, "text"), strings.Contains(t, "clob"):
		return KindText
	}
	return KindOther
}

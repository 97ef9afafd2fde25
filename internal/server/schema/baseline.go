package schema

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

// baselineVersion is the goose version of the current table set.
const baselineVersion int64 = 1

// gooseUp is a seam for testing (*goose.Provider).Up.
var gooseUp = func(ctx context.Context, p *goose.Provider) ([]*goose.MigrationResult, error) {
	return p.Up(ctx)
}

// newBaseline builds a goose provider whose only migration creates every
// managed table and index that does not exist yet. Stores that predate
// version tracking already went through the rules, so the IF NOT EXISTS
// statements only fill gaps.
func newBaseline(db *sql.DB, e engine) (*goose.Provider, error) {
	up := func(ctx context.Context, tx *sql.Tx) error {
		for _, t := range ManagedTables {
			stmts := append([]string{e.tableDDL(t)}, tableIndexes[t]...)
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					return err
				}
			}
		}
		return nil
	}
	down := func(ctx context.Context, tx *sql.Tx) error {
		for i := len(ManagedTables) - 1; i >= 0; i-- {
			if _, err := tx.ExecContext(ctx, e.dropTable(ManagedTables[i])); err != nil {
				return err
			}
		}
		return nil
	}

	return goose.NewProvider(e.gooseDialect(), db, nil,
		goose.WithGoMigrations(
			goose.NewGoMigration(baselineVersion, &goose.GoFunc{RunTx: up}, &goose.GoFunc{RunTx: down}),
		),
	)
}

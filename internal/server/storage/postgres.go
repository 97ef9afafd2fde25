package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
	"github.com/dmitrijs2005/rfcdiscuss/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Postgres is the Dialect for PostgreSQL through the pgx stdlib driver.
type Postgres struct{}

func (Postgres) Name() string { return DriverPostgres }

// Rebind turns '?' into $1, $2, ... . Queries in this module never carry a
// literal question mark.
func (Postgres) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (Postgres) NowEpoch() string { return `CAST(EXTRACT(EPOCH FROM now()) AS BIGINT)` }

func (Postgres) ToEpoch(expr string) string {
	return fmt.Sprintf(`CAST(EXTRACT(EPOCH FROM CAST(%s AS TIMESTAMPTZ)) AS BIGINT)`, expr)
}

func (Postgres) Classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return common.ErrorConflict
	case pgForeignKeyViolation:
		return common.ErrorNotFound
	}
	return nil
}

func (Postgres) DescribeColumns(ctx context.Context, q dbx.DBTX, table string) ([]ColumnDescriptor, error) {
	query := `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position
	`
	rows, err := q.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnDescriptor
	for rows.Next() {
		var c ColumnDescriptor
		var nullable string
		if err := rows.Scan(&c.Name, &c.Type, &nullable); err != nil {
			return nil, fmt.Errorf("failed to scan %s column: %w", table, err)
		}
		c.Kind = KindOf(c.Type)
		c.NotNull = nullable == "NO"
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s columns: %w", table, err)
	}
	return cols, nil
}

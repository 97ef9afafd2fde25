// Package schema brings the store to the current table set. It inspects the
// live store, applies an ordered list of repair rules for the shapes older
// deployments left behind, and finishes with a goose-tracked baseline that
// creates whatever is still missing.
package schema

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
	"github.com/dmitrijs2005/rfcdiscuss/internal/dbx"
	"github.com/dmitrijs2005/rfcdiscuss/internal/logging"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/storage"
)

// legacySuffix names the table a rebuild renames the old definition to.
const legacySuffix = "_legacy"

// Manager runs schema reconciliation for one store.
type Manager struct {
	db      *sql.DB
	dialect storage.Dialect
	engine  engine
	rules   []Rule
	logger  logging.Logger
}

// NewManager returns a Manager for db using the default rule set.
func NewManager(db *sql.DB, d storage.Dialect, logger logging.Logger) (*Manager, error) {
	e, err := engineFor(d)
	if err != nil {
		return nil, err
	}
	return &Manager{db: db, dialect: d, engine: e, rules: Rules(), logger: logger}, nil
}

// EnsureSchema is idempotent: on a current store it changes nothing. Every
// failure wraps common.ErrorSchema; callers must not serve requests after
// one.
func (m *Manager) EnsureSchema(ctx context.Context) error {
	if err := m.ensure(ctx); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorSchema, err)
	}
	return nil
}

func (m *Manager) ensure(ctx context.Context) error {
	unlock, err := m.engine.lock(ctx, m.db)
	if err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	defer unlock()

	// The rules connection must be back in the pool before goose asks for
	// one: SQLite runs with a single connection.
	if err := m.applyRules(ctx); err != nil {
		return err
	}

	p, err := newBaseline(m.db, m.engine)
	if err != nil {
		return fmt.Errorf("baseline: %w", err)
	}
	results, err := gooseUp(ctx, p)
	if err != nil {
		return fmt.Errorf("baseline: %w", err)
	}
	for _, r := range results {
		m.logger.Info(ctx, "baseline migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

func (m *Manager) applyRules(ctx context.Context) (err error) {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	restore, err := m.engine.prepare(ctx, conn)
	if err != nil {
		return fmt.Errorf("prepare connection: %w", err)
	}
	defer func() {
		if rerr := restore(context.WithoutCancel(ctx)); rerr != nil {
			// Never hand a connection with altered settings back to the pool.
			_ = conn.Raw(func(any) error { return driver.ErrBadConn })
			if err == nil {
				err = fmt.Errorf("restore connection: %w", rerr)
			}
		}
	}()

	for _, rule := range m.rules {
		snap, err := m.observe(ctx, conn, rule.Tables)
		if err != nil {
			return fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		for _, a := range rule.Decide(snap) {
			m.logger.Info(ctx, "applying schema rule",
				"rule", rule.Name, "action", a.Kind.String(), "table", a.Table, "reason", a.Reason)
			if err := m.apply(ctx, conn, a); err != nil {
				return fmt.Errorf("rule %s: %s %s: %w", rule.Name, a.Kind, a.Table, err)
			}
		}
	}
	return nil
}

// observe describes tables right before a rule decides, so that each rule
// sees the effects of the ones before it.
func (m *Manager) observe(ctx context.Context, q dbx.DBTX, tables []string) (Snapshot, error) {
	snap := Snapshot{}
	for _, t := range tables {
		cols, err := m.dialect.DescribeColumns(ctx, q, t)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", t, err)
		}
		if len(cols) > 0 {
			snap[t] = cols
		}
	}
	return snap, nil
}

// Describe reports the managed and legacy tables currently present.
func (m *Manager) Describe(ctx context.Context) (Snapshot, error) {
	tables := append(append([]string{}, ManagedTables...), legacyDocumentTables...)
	return m.observe(ctx, m.db, tables)
}

func (m *Manager) apply(ctx context.Context, conn *sql.Conn, a Action) error {
	switch a.Kind {
	case ActionDrop:
		_, err := conn.ExecContext(ctx, m.engine.dropTable(a.Table))
		return err
	case ActionRebuild:
		return dbx.WithTx(ctx, conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return m.rebuild(ctx, tx, a)
		})
	}
	return fmt.Errorf("unknown action %v", a.Kind)
}

func (m *Manager) rebuild(ctx context.Context, tx dbx.DBTX, a Action) error {
	ddl := m.engine.tableDDL(a.Table)
	if ddl == "" {
		return fmt.Errorf("no definition for table %s", a.Table)
	}
	legacy := a.Table + legacySuffix

	stmts := []string{
		m.engine.dropTable(legacy),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", a.Table, legacy),
		ddl,
	}
	if len(a.Columns) > 0 {
		stmts = append(stmts, m.copyStatement(a, legacy))
		stmts = append(stmts, m.engine.afterCopy(a.Table)...)
	}
	stmts = append(stmts, m.engine.dropTable(legacy))
	if err := execAll(ctx, tx, stmts); err != nil {
		return err
	}

	for _, ref := range a.Dependents {
		q := m.engine.relink(ref, a.Table)
		if q == "" {
			continue
		}
		cols, err := m.dialect.DescribeColumns(ctx, tx, ref.Table)
		if err != nil {
			return fmt.Errorf("describe %s: %w", ref.Table, err)
		}
		if !hasColumn(cols, ref.Column) {
			continue
		}
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("relink %s.%s: %w", ref.Table, ref.Column, err)
		}
	}

	// Indexes come last: the old table kept the index names until it was
	// dropped.
	return execAll(ctx, tx, tableIndexes[a.Table])
}

func (m *Manager) copyStatement(a Action, from string) string {
	targets := make([]string, 0, len(a.Columns))
	sources := make([]string, 0, len(a.Columns))
	for _, c := range a.Columns {
		targets = append(targets, c.Target)
		sources = append(sources, m.render(c))
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		a.Table, strings.Join(targets, ", "), strings.Join(sources, ", "), from)
	if a.Where != "" {
		q += " WHERE " + a.Where
	}
	return q
}

func (m *Manager) render(c ColumnCopy) string {
	switch c.Conversion {
	case ToEpoch:
		return fmt.Sprintf("COALESCE(%s, %s)", m.dialect.ToEpoch(c.Source), m.dialect.NowEpoch())
	case NowEpoch:
		return m.dialect.NowEpoch()
	}
	return c.Source
}

func execAll(ctx context.Context, tx dbx.DBTX, stmts []string) error {
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%s: %w", firstLine(q), err)
		}
	}
	return nil
}

func hasColumn(cols []storage.ColumnDescriptor, name string) bool {
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func firstLine(q string) string {
	if i := strings.IndexByte(q, '\n'); i >= 0 {
		return strings.TrimSpace(q[:i])
	}
	return q
}

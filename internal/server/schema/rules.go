package schema

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/rfcdiscuss/internal/server/storage"
)

// Snapshot is the observed shape of a set of tables. Tables that do not
// exist have no entry.
type Snapshot map[string][]storage.ColumnDescriptor

// Has reports whether table exists.
func (s Snapshot) Has(table string) bool { return len(s[table]) > 0 }

// Column looks up a column by name, case-insensitively.
func (s Snapshot) Column(table, name string) (storage.ColumnDescriptor, bool) {
	for _, c := range s[table] {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return storage.ColumnDescriptor{}, false
}

// isEpoch reports whether table.name exists and holds integers.
func (s Snapshot) isEpoch(table, name string) bool {
	c, ok := s.Column(table, name)
	return ok && c.Kind == storage.KindInteger
}

// ActionKind says what to do with a table.
type ActionKind int

const (
	ActionDrop ActionKind = iota + 1
	ActionRebuild
)

func (k ActionKind) String() string {
	switch k {
	case ActionDrop:
		return "drop"
	case ActionRebuild:
		return "rebuild"
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Conversion says how a copied value is produced from the legacy table.
type Conversion int

const (
	// Verbatim copies the source column as is.
	Verbatim Conversion = iota
	// ToEpoch converts a timestamp to unix seconds with the store's own
	// function; unparsable values become "now".
	ToEpoch
	// NowEpoch ignores the source and stores the current unix time.
	NowEpoch
)

// ColumnCopy maps one column of the rebuilt table to its legacy source.
type ColumnCopy struct {
	Target     string
	Source     string
	Conversion Conversion
}

// Reference is a foreign key column in another table pointing at a rebuilt
// table.
type Reference struct {
	Table  string
	Column string
}

// Action is one migration step. A rebuild renames the table aside, creates
// the current definition, copies Columns from rows matching Where, drops the
// old table and recreates indexes, all in one transaction. An empty Columns
// list keeps no rows.
type Action struct {
	Kind       ActionKind
	Table      string
	Columns    []ColumnCopy
	Where      string
	Dependents []Reference
	Reason     string
}

// Rule inspects Tables and decides which actions bring them to the current
// shape. Decide must be a pure function of the snapshot and return nothing
// for a current store.
type Rule struct {
	Name   string
	Tables []string
	Decide func(Snapshot) []Action
}

// Rules returns the rule set in the order it must run: later rules assume
// the earlier ones already normalized the tables they depend on.
func Rules() []Rule {
	return []Rule{
		{Name: "users-optional-password", Tables: []string{TableUsers}, Decide: decideUsers},
		{Name: "comments-by-slug", Tables: []string{TableComments}, Decide: decideComments},
		{Name: "drop-inline-documents", Tables: legacyDocumentTables, Decide: decideDocuments},
		{Name: "login-tokens-epoch-expiry", Tables: []string{TableLoginTokens}, Decide: decideLoginTokens},
	}
}

func epochCopy(s Snapshot, table, name string) ColumnCopy {
	c, ok := s.Column(table, name)
	switch {
	case !ok:
		return ColumnCopy{Target: name, Conversion: NowEpoch}
	case c.Kind == storage.KindInteger:
		return ColumnCopy{Target: name, Source: c.Name}
	}
	return ColumnCopy{Target: name, Source: c.Name, Conversion: ToEpoch}
}

func decideUsers(s Snapshot) []Action {
	if !s.Has(TableUsers) {
		return nil
	}

	pw, hasPw := s.Column(TableUsers, "password_hash")
	var reasons []string
	switch {
	case !hasPw:
		reasons = append(reasons, "password_hash missing")
	case pw.NotNull:
		reasons = append(reasons, "password_hash is mandatory")
	}
	if !s.isEpoch(TableUsers, "created_at") {
		reasons = append(reasons, "created_at is not an epoch")
	}
	if len(reasons) == 0 {
		return nil
	}

	cols := []ColumnCopy{
		{Target: "id", Source: "id"},
		{Target: "email", Source: "email"},
	}
	if hasPw {
		cols = append(cols, ColumnCopy{Target: "password_hash", Source: pw.Name})
	}
	cols = append(cols, epochCopy(s, TableUsers, "created_at"))

	return []Action{{
		Kind:    ActionRebuild,
		Table:   TableUsers,
		Columns: cols,
		Dependents: []Reference{
			{Table: TableLoginTokens, Column: "user_id"},
			{Table: TableComments, Column: "user_id"},
		},
		Reason: strings.Join(reasons, "; "),
	}}
}

func decideComments(s Snapshot) []Action {
	if !s.Has(TableComments) {
		return nil
	}

	var reasons []string
	for _, key := range obsoleteCommentKeys {
		if _, ok := s.Column(TableComments, key); ok {
			reasons = append(reasons, "addressed by "+key)
		}
	}
	_, hasSlug := s.Column(TableComments, "rfc_slug")
	if !hasSlug {
		reasons = append(reasons, "rfc_slug missing")
	}
	if hasSlug && !s.isEpoch(TableComments, "created_at") {
		reasons = append(reasons, "created_at is not an epoch")
	}
	if len(reasons) == 0 {
		return nil
	}

	a := Action{Kind: ActionRebuild, Table: TableComments, Reason: strings.Join(reasons, "; ")}
	// Rows keyed only by a numeric document id cannot be mapped to a slug.
	if hasSlug {
		a.Columns = []ColumnCopy{
			{Target: "id", Source: "id"},
			{Target: "rfc_slug", Source: "rfc_slug"},
			{Target: "user_id", Source: "user_id"},
			{Target: "body", Source: "body"},
			epochCopy(s, TableComments, "created_at"),
		}
		a.Where = "rfc_slug IS NOT NULL AND trim(rfc_slug) <> '' AND body IS NOT NULL AND trim(body) <> '' AND user_id IN (SELECT id FROM users)"
	}
	return []Action{a}
}

func decideDocuments(s Snapshot) []Action {
	var actions []Action
	for _, t := range legacyDocumentTables {
		if s.Has(t) {
			actions = append(actions, Action{Kind: ActionDrop, Table: t, Reason: "documents are served by the external registry"})
		}
	}
	return actions
}

func decideLoginTokens(s Snapshot) []Action {
	if !s.Has(TableLoginTokens) {
		return nil
	}

	source := "token"
	var reasons []string
	if _, ok := s.Column(TableLoginTokens, "token"); !ok {
		if _, ok := s.Column(TableLoginTokens, "code"); ok {
			source = "code"
			reasons = append(reasons, "code column instead of token")
		} else {
			reasons = append(reasons, "token missing")
		}
	}
	if !s.isEpoch(TableLoginTokens, "expires_at") {
		reasons = append(reasons, "expires_at is not an epoch")
	}
	if !s.isEpoch(TableLoginTokens, "created_at") {
		reasons = append(reasons, "created_at is not an epoch")
	}
	if len(reasons) == 0 {
		return nil
	}

	a := Action{Kind: ActionRebuild, Table: TableLoginTokens, Reason: strings.Join(reasons, "; ")}
	if _, ok := s.Column(TableLoginTokens, source); ok {
		a.Columns = []ColumnCopy{
			{Target: "id", Source: "id"},
			{Target: "user_id", Source: "user_id"},
			{Target: "token", Source: source},
			epochCopy(s, TableLoginTokens, "expires_at"),
			epochCopy(s, TableLoginTokens, "created_at"),
		}
		a.Where = source + " IS NOT NULL AND user_id IN (SELECT id FROM users)"
	}
	return []Action{a}
}

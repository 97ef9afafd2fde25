package schema

// Managed tables.
const (
	TableUsers       = "users"
	TableLoginTokens = "login_tokens"
	TableComments    = "comments"
)

// ManagedTables lists the current tables in creation order: parents first.
var ManagedTables = []string{TableUsers, TableLoginTokens, TableComments}

// legacyDocumentTables held RFC documents inline before the documents moved
// to the external registry.
var legacyDocumentTables = []string{"rfcs", "documents"}

// obsoleteCommentKeys are numeric document references older comment tables
// used instead of rfc_slug.
var obsoleteCommentKeys = []string{"rfc_id", "document_id", "doc_id"}

var sqliteTables = map[string]string{
	TableUsers: `CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		email         TEXT    NOT NULL UNIQUE,
		password_hash TEXT,
		created_at    INTEGER NOT NULL
	)`,
	TableLoginTokens: `CREATE TABLE IF NOT EXISTS login_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token      TEXT    NOT NULL,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	TableComments: `CREATE TABLE IF NOT EXISTS comments (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		rfc_slug   TEXT    NOT NULL,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		body       TEXT    NOT NULL CHECK (trim(body) <> ''),
		created_at INTEGER NOT NULL
	)`,
}

var postgresTables = map[string]string{
	TableUsers: `CREATE TABLE IF NOT EXISTS users (
		id            BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		email         TEXT   NOT NULL UNIQUE,
		password_hash TEXT,
		created_at    BIGINT NOT NULL
	)`,
	TableLoginTokens: `CREATE TABLE IF NOT EXISTS login_tokens (
		id         BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token      TEXT   NOT NULL,
		expires_at BIGINT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	TableComments: `CREATE TABLE IF NOT EXISTS comments (
		id         BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		rfc_slug   TEXT   NOT NULL,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		body       TEXT   NOT NULL CHECK (trim(body) <> ''),
		created_at BIGINT NOT NULL
	)`,
}

// Index DDL is shared: both engines accept CREATE INDEX IF NOT EXISTS.
var tableIndexes = map[string][]string{
	TableLoginTokens: {
		`CREATE INDEX IF NOT EXISTS idx_login_tokens_user_id ON login_tokens (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_login_tokens_expires_at ON login_tokens (expires_at)`,
	},
	TableComments: {
		`CREATE INDEX IF NOT EXISTS idx_comments_rfc_slug ON comments (rfc_slug, created_at)`,
	},
}

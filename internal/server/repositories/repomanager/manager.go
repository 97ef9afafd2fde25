package repomanager

import (
	"context"

	"github.com/dmitrijs2005/rfcdiscuss/internal/dbx"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/comments"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/logintokens"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/users"
)

type RepositoryManager interface {
	EnsureSchema(context.Context) error
	Users(db dbx.DBTX) users.Repository
	LoginTokens(db dbx.DBTX) logintokens.Repository
	Comments(db dbx.DBTX) comments.Repository
}

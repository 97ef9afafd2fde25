// Package services contains the business logic of the rfcdiscuss core:
// one-time login codes, comments and the login flow that ties them to users.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
	"github.com/dmitrijs2005/rfcdiscuss/internal/dbx"
	"github.com/dmitrijs2005/rfcdiscuss/internal/logging"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/models"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/repomanager"
)

// generateCode is a seam for tests.
var generateCode = common.GenerateLoginCode

// LoginTokenService issues and checks one-time login codes. A user moves
// from no pending login to a pending one on Issue; the pending code then
// ends as verified, expired or superseded by the next Issue.
type LoginTokenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	ttl         time.Duration
}

// NewLoginTokenService constructs a LoginTokenService issuing codes valid
// for common.LoginCodeTTL.
func NewLoginTokenService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *LoginTokenService {
	return &LoginTokenService{db: db, repomanager: m, logger: logger, ttl: common.LoginCodeTTL}
}

// Issue replaces any tokens of userID with a fresh code. Both steps share a
// transaction, so a user never has more than one live token.
func (s *LoginTokenService) Issue(ctx context.Context, userID int64) (*models.LoginToken, error) {
	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate login code: %w", err)
	}

	var token *models.LoginToken
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.LoginTokens(tx)
		if err := repo.DeleteForUser(ctx, userID); err != nil {
			return err
		}
		var err error
		token, err = repo.Create(ctx, userID, code, s.ttl)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("issue login code: %w", storeError(err))
	}

	s.logger.Info(ctx, "login code issued", "user_id", userID, "expires_at", token.ExpiresAt)
	return token, nil
}

// Verify consumes the code if it is the user's live token. It reports
// false for wrong, expired, already used or malformed codes without saying
// which.
func (s *LoginTokenService) Verify(ctx context.Context, userID int64, code string) (bool, error) {
	if !common.IsLoginCode(code) {
		s.logger.Info(ctx, "login code rejected", "user_id", userID)
		return false, nil
	}

	ok, err := s.repomanager.LoginTokens(s.db).Consume(ctx, userID, code)
	if err != nil {
		return false, fmt.Errorf("verify login code: %w", storeError(err))
	}
	if ok {
		s.logger.Info(ctx, "login code accepted", "user_id", userID)
	} else {
		s.logger.Info(ctx, "login code rejected", "user_id", userID)
	}
	return ok, nil
}

// PurgeExpired deletes expired tokens of all users.
func (s *LoginTokenService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.LoginTokens(s.db).DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge login codes: %w", storeError(err))
	}
	if n > 0 {
		s.logger.Debug(ctx, "expired login codes purged", "count", n)
	}
	return n, nil
}

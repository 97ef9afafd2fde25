package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
	"github.com/dmitrijs2005/rfcdiscuss/internal/logging"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/auth"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/config"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/models"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/repomanager"
)

// AuthService runs the passwordless login: RequestLogin hands out a code
// for the mail channel, VerifyLogin turns a correct code into an Identity.
// It keeps no session state of its own.
type AuthService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	tokens          *LoginTokenService
	logger          logging.Logger
	jwtSecret       []byte
	sessionValidity time.Duration
}

// NewAuthService constructs an AuthService using repositories and config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *LoginTokenService, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:              db,
		repomanager:     m,
		tokens:          tokens,
		logger:          logger,
		jwtSecret:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionValidityDuration,
	}
}

// RequestLogin finds or creates the user for email and issues a new code,
// superseding any earlier one. The result is meant for the mail channel,
// never for the requesting client.
func (s *AuthService) RequestLogin(ctx context.Context, email string) (*models.LoginRequest, error) {
	email = common.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is empty", common.ErrorValidation)
	}

	user, err := s.findOrCreate(ctx, email)
	if err != nil {
		return nil, err
	}

	if _, err := s.tokens.PurgeExpired(ctx); err != nil {
		s.logger.Warn(ctx, "purge of expired login codes failed", "error", err)
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "login requested", "user_id", user.ID)
	return &models.LoginRequest{
		UserID:    user.ID,
		Email:     user.Email,
		Code:      token.Code,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

func (s *AuthService) findOrCreate(ctx context.Context, email string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("find user: %w", storeError(err))
	}

	user, err = repo.Create(ctx, email)
	if err == nil {
		s.logger.Info(ctx, "user created", "user_id", user.ID)
		return user, nil
	}
	if !errors.Is(err, common.ErrorConflict) {
		return nil, fmt.Errorf("create user: %w", storeError(err))
	}

	// Lost a race with a concurrent request for the same email.
	user, err = repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", storeError(err))
	}
	return user, nil
}

// VerifyLogin checks code for userID. Every kind of rejection is reported
// as common.ErrorAuthFailure.
func (s *AuthService) VerifyLogin(ctx context.Context, userID int64, code string) (*models.Identity, error) {
	ok, err := s.tokens.Verify(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorAuthFailure
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorAuthFailure
		}
		return nil, fmt.Errorf("load user: %w", storeError(err))
	}

	sessionToken, expiresAt, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.sessionValidity)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info(ctx, "login verified", "user_id", user.ID)
	return &models.Identity{
		UserID:       user.ID,
		Email:        user.Email,
		SessionToken: sessionToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// IdentityFromToken validates a session token issued by VerifyLogin.
func (s *AuthService) IdentityFromToken(token string) (*models.Identity, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	id := &models.Identity{
		UserID:       claims.UserID,
		Email:        claims.Email,
		SessionToken: token,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/rfcdiscuss/internal/common"
	"github.com/dmitrijs2005/rfcdiscuss/internal/logging"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/models"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/repositories/repomanager"
)

// CommentService stores and lists comments on externally served documents.
// Slugs are opaque; no registry lookup happens here.
type CommentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewCommentService constructs a CommentService.
func NewCommentService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *CommentService {
	return &CommentService{db: db, repomanager: m, logger: logger}
}

// Add stores body, trimmed, as a comment by userID on slug. A blank body or
// slug yields common.ErrorValidation and an unknown user
// common.ErrorNotFound.
func (s *CommentService) Add(ctx context.Context, slug string, userID int64, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is empty", common.ErrorValidation)
	}
	if strings.TrimSpace(slug) == "" {
		return nil, fmt.Errorf("%w: document slug is empty", common.ErrorValidation)
	}

	c, err := s.repomanager.Comments(s.db).Create(ctx, &models.Comment{
		DocumentSlug: slug,
		UserID:       userID,
		Body:         body,
	})
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", storeError(err))
	}

	s.logger.Info(ctx, "comment added", "user_id", userID, "slug", slug, "comment_id", c.ID)
	return c, nil
}

// ListForDocument returns the comments of slug, oldest first.
func (s *CommentService) ListForDocument(ctx context.Context, slug string) ([]models.Comment, error) {
	list, err := s.repomanager.Comments(s.db).ListBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", storeError(err))
	}
	return list, nil
}

// CountsByDocument returns the number of comments per slug.
func (s *CommentService) CountsByDocument(ctx context.Context) (map[string]int, error) {
	counts, err := s.repomanager.Comments(s.db).CountBySlug(ctx)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", storeError(err))
	}
	return counts, nil
}

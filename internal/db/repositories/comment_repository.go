// comment_repository.go implements CommentRepository: appending notes and listing them
// per target record with the author's name.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db/models"
)

// CommentRepository handles comment database operations
type CommentRepository struct {
	db sqlx.ExtContext
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db sqlx.ExtContext) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create appends a comment
func (r *CommentRepository) Create(ctx context.Context, c *models.Comment) error {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now()

	query := `
		INSERT INTO comments (id, organization_id, author_id, body, lead_id, task_id, account_id, case_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.OrganizationID, c.AuthorID, c.Body, c.LeadID, c.TaskID, c.AccountID, c.CaseID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// ListByLead returns a lead's comments, oldest first
func (r *CommentRepository) ListByLead(ctx context.Context, orgID, leadID string) ([]*models.Comment, error) {
	return r.listBy(ctx, "lead_id", orgID, leadID)
}

// ListByAccount returns an account's comments, oldest first
func (r *CommentRepository) ListByAccount(ctx context.Context, orgID, accountID string) ([]*models.Comment, error) {
	return r.listBy(ctx, "account_id", orgID, accountID)
}

func (r *CommentRepository) listBy(ctx context.Context, column, orgID, targetID string) ([]*models.Comment, error) {
	query := fmt.Sprintf(`
		SELECT c.id, c.organization_id, c.author_id, u.name AS author_name, c.body,
		       c.lead_id, c.task_id, c.account_id, c.case_id, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.organization_id = $1 AND c.%s = $2
		ORDER BY c.created_at`, column)

	comments := make([]*models.Comment, 0)
	if err := sqlx.SelectContext(ctx, r.db, &comments, query, orgID, targetID); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db/models"
	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
	"github.com/bottlecrm/bottlecrm/internal/telemetry"
)

// CommentInput is a comment body and the one record it is attached to
type CommentInput struct {
	Body      string  `json:"body"`
	LeadID    *string `json:"leadId"`
	TaskID    *string `json:"taskId"`
	AccountID *string `json:"accountId"`
	CaseID    *string `json:"caseId"`
}

// target returns the table and id of the single referenced record
func (in *CommentInput) target() (table, id string, err error) {
	refs := []struct {
		table string
		id    *string
	}{
		{"leads", in.LeadID},
		{"tasks", in.TaskID},
		{"accounts", in.AccountID},
		{"cases", in.CaseID},
	}

	count := 0
	for _, ref := range refs {
		if ref.id != nil && strings.TrimSpace(*ref.id) != "" {
			table, id = ref.table, strings.TrimSpace(*ref.id)
			count++
		}
	}
	if count != 1 {
		return "", "", NewValidationError("target", "exactly one of leadId, taskId, accountId or caseId is required")
	}
	return table, id, nil
}

// CommentService appends comments to tenant-scoped records
type CommentService struct {
	db sqlx.ExtContext
}

// NewCommentService creates a new CommentService
func NewCommentService(database sqlx.ExtContext) *CommentService {
	return &CommentService{db: database}
}

// Add validates the input and appends a comment authored by authorID.
// The target must exist in the organization, otherwise ErrNotFound is returned.
func (s *CommentService) Add(ctx context.Context, organizationID, authorID string, in CommentInput) (*models.Comment, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, NewValidationError("body", "comment body cannot be empty")
	}

	table, targetID, err := in.target()
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(targetID); err != nil {
		return nil, ErrNotFound
	}

	exists, err := repositories.RecordExists(ctx, s.db, table, organizationID, targetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	comment := &models.Comment{
		OrganizationID: organizationID,
		AuthorID:       authorID,
		Body:           body,
	}
	switch table {
	case "leads":
		comment.LeadID = &targetID
	case "tasks":
		comment.TaskID = &targetID
	case "accounts":
		comment.AccountID = &targetID
	case "cases":
		comment.CaseID = &targetID
	}

	if err := repositories.NewCommentRepository(s.db).Create(ctx, comment); err != nil {
		return nil, err
	}
	telemetry.RecordsCreatedTotal.WithLabelValues("comment").Inc()
	return comment, nil
}

// task_repository.go implements TaskRepository and CaseRepository, the two activity records.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db/models"
)

const taskColumns = `id, organization_id, owner_id, subject, description, status, priority, due_date,
	account_id, contact_id, lead_id, opportunity_id, created_at, updated_at`

const caseColumns = `id, organization_id, owner_id, account_id, subject, description, status, priority,
	created_at, updated_at`

// TaskFilters are the optional list filters for tasks
type TaskFilters struct {
	Status   string
	Priority string
}

// TaskRepository handles task database operations
type TaskRepository struct {
	db sqlx.ExtContext
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db sqlx.ExtContext) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns one page of tasks in the organization, soonest due first
func (r *TaskRepository) List(ctx context.Context, orgID string, filters TaskFilters, page Page) ([]*models.Task, int, error) {
	f := NewFilter(orgID).
		EqIf("status", filters.Status).
		EqIf("priority", filters.Priority)

	return listPage[models.Task](ctx, r.db, taskColumns, "tasks", f, "due_date ASC NULLS LAST, created_at DESC", page)
}

// Create inserts a new task
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	t.ID = uuid.New().String()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	if t.Status == "" {
		t.Status = models.TaskStatusNotStarted
	}
	if t.Priority == "" {
		t.Priority = models.PriorityNormal
	}

	query := `
		INSERT INTO tasks (id, organization_id, owner_id, subject, description, status, priority,
			due_date, account_id, contact_id, lead_id, opportunity_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.OrganizationID, t.OwnerID, t.Subject, t.Description, t.Status, t.Priority,
		t.DueDate, t.AccountID, t.ContactID, t.LeadID, t.OpportunityID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// CaseFilters are the optional list filters for cases
type CaseFilters struct {
	Status string
}

// CaseRepository handles case database operations
type CaseRepository struct {
	db sqlx.ExtContext
}

// NewCaseRepository creates a new CaseRepository
func NewCaseRepository(db sqlx.ExtContext) *CaseRepository {
	return &CaseRepository{db: db}
}

// List returns one page of cases in the organization
func (r *CaseRepository) List(ctx context.Context, orgID string, filters CaseFilters, page Page) ([]*models.Case, int, error) {
	f := NewFilter(orgID).EqIf("status", filters.Status)

	return listPage[models.Case](ctx, r.db, caseColumns, "cases", f, "created_at DESC", page)
}

// Create inserts a new case
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	if c.Status == "" {
		c.Status = models.CaseStatusOpen
	}
	if c.Priority == "" {
		c.Priority = models.PriorityNormal
	}

	query := `
		INSERT INTO cases (id, organization_id, owner_id, account_id, subject, description, status,
			priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.OrganizationID, c.OwnerID, c.AccountID, c.Subject, c.Description, c.Status,
		c.Priority, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

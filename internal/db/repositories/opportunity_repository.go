// opportunity_repository.go implements OpportunityRepository.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db/models"
)

const opportunityColumns = `id, organization_id, owner_id, account_id, name, stage, amount, probability,
	close_date, description, created_at, updated_at`

// OpportunityFilters are the optional list filters for opportunities
type OpportunityFilters struct {
	Stage     string
	AccountID string
}

// OpportunityRepository handles opportunity database operations
type OpportunityRepository struct {
	db sqlx.ExtContext
}

// NewOpportunityRepository creates a new OpportunityRepository
func NewOpportunityRepository(db sqlx.ExtContext) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

// List returns one page of opportunities in the organization
func (r *OpportunityRepository) List(ctx context.Context, orgID string, filters OpportunityFilters, page Page) ([]*models.Opportunity, int, error) {
	f := NewFilter(orgID).
		EqIf("stage", filters.Stage).
		EqIf("account_id", filters.AccountID)

	return listPage[models.Opportunity](ctx, r.db, opportunityColumns, "opportunities", f, "created_at DESC", page)
}

// GetByID retrieves an opportunity scoped to the organization
func (r *OpportunityRepository) GetByID(ctx context.Context, orgID, id string) (*models.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE id = $1 AND organization_id = $2`

	var o models.Opportunity
	err := sqlx.GetContext(ctx, r.db, &o, query, id, orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}
	return &o, nil
}

// ListByAccount returns every opportunity attached to an account
func (r *OpportunityRepository) ListByAccount(ctx context.Context, orgID, accountID string) ([]*models.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities
		WHERE account_id = $1 AND organization_id = $2 ORDER BY created_at DESC`

	opps := make([]*models.Opportunity, 0)
	if err := sqlx.SelectContext(ctx, r.db, &opps, query, accountID, orgID); err != nil {
		return nil, fmt.Errorf("failed to list account opportunities: %w", err)
	}
	return opps, nil
}

// Create inserts a new opportunity
func (r *OpportunityRepository) Create(ctx context.Context, o *models.Opportunity) error {
	o.ID = uuid.New().String()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	if o.Stage == "" {
		o.Stage = models.StageProspecting
	}

	query := `
		INSERT INTO opportunities (id, organization_id, owner_id, account_id, name, stage, amount,
			probability, close_date, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.OrganizationID, o.OwnerID, o.AccountID, o.Name, o.Stage, o.Amount,
		o.Probability, o.CloseDate, o.Description, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create opportunity: %w", err)
	}
	return nil
}

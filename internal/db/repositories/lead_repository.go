// lead_repository.go implements LeadRepository: tenant-scoped lead queries, the row lock
// taken by conversion, and the one-way CONVERTED update.
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

const leadColumns = `id, organization_id, owner_id, first_name, last_name, email, phone, company, title,
	industry, source, description, status, is_converted, converted_at,
	converted_contact_id, converted_account_id, converted_opportunity_id, contact_id,
	created_at, updated_at`

// LeadFilters are the optional list filters for leads
type LeadFilters struct {
	Status  string
	Source  string
	OwnerID string
	Query   string
}

// LeadRepository handles lead database operations
type LeadRepository struct {
	db sqlx.ExtContext
}

// NewLeadRepository creates a new LeadRepository
func NewLeadRepository(db sqlx.ExtContext) *LeadRepository {
	return &LeadRepository{db: db}
}

// List returns one page of leads in the organization and the total match count
func (r *LeadRepository) List(ctx context.Context, orgID string, filters LeadFilters, page Page) ([]*models.Lead, int, error) {
	f := NewFilter(orgID).
		EqIf("status", filters.Status).
		EqIf("source", filters.Source).
		EqIf("owner_id", filters.OwnerID).
		Search(filters.Query, "first_name", "last_name", "email", "company")

	return listPage[models.Lead](ctx, r.db, leadColumns, "leads", f, "created_at DESC", page)
}

// GetByID retrieves a lead scoped to the organization
func (r *LeadRepository) GetByID(ctx context.Context, orgID, id string) (*models.Lead, error) {
	return r.get(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 AND organization_id = $2`, id, orgID)
}

// GetForUpdate retrieves a lead and locks its row until the surrounding transaction ends
func (r *LeadRepository) GetForUpdate(ctx context.Context, orgID, id string) (*models.Lead, error) {
	return r.get(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 AND organization_id = $2 FOR UPDATE`, id, orgID)
}

func (r *LeadRepository) get(ctx context.Context, query, id, orgID string) (*models.Lead, error) {
	var lead models.Lead
	err := sqlx.GetContext(ctx, r.db, &lead, query, id, orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return &lead, nil
}

// Create inserts a new lead
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	lead.ID = uuid.New().String()
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}

	query := `
		INSERT INTO leads (id, organization_id, owner_id, first_name, last_name, email, phone, company,
			title, industry, source, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		lead.ID, lead.OrganizationID, lead.OwnerID, lead.FirstName, lead.LastName, lead.Email,
		lead.Phone, lead.Company, lead.Title, lead.Industry, lead.Source, lead.Description,
		lead.Status, lead.CreatedAt, lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// Update writes the editable fields of an unconverted lead. It reports false when
// no row matched, which includes a lead that has been converted in the meantime.
func (r *LeadRepository) Update(ctx context.Context, lead *models.Lead) (bool, error) {
	lead.UpdatedAt = time.Now()

	query := `
		UPDATE leads SET
			first_name = $3, last_name = $4, email = $5, phone = $6, company = $7, title = $8,
			industry = $9, source = $10, description = $11, status = $12, owner_id = $13, updated_at = $14
		WHERE id = $1 AND organization_id = $2 AND is_converted = FALSE`

	res, err := r.db.ExecContext(ctx, query,
		lead.ID, lead.OrganizationID, lead.FirstName, lead.LastName, lead.Email, lead.Phone,
		lead.Company, lead.Title, lead.Industry, lead.Source, lead.Description, lead.Status,
		lead.OwnerID, lead.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to update lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update lead: %w", err)
	}
	return n == 1, nil
}

// ConversionRefs are the records a lead was converted into
type ConversionRefs struct {
	ContactID     string
	AccountID     string
	OpportunityID string
}

// MarkConverted moves the lead to CONVERTED and records the created records.
// It fails when the lead is missing or already converted.
func (r *LeadRepository) MarkConverted(ctx context.Context, orgID, id string, refs ConversionRefs, at time.Time) error {
	query := `
		UPDATE leads SET
			status = $3, is_converted = TRUE, converted_at = $4,
			converted_contact_id = $5, converted_account_id = $6, converted_opportunity_id = $7,
			contact_id = $5, updated_at = $4
		WHERE id = $1 AND organization_id = $2 AND is_converted = FALSE`

	res, err := r.db.ExecContext(ctx, query,
		id, orgID, models.LeadStatusConverted, at, refs.ContactID, refs.AccountID, refs.OpportunityID)
	if err != nil {
		return fmt.Errorf("failed to mark lead converted: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark lead converted: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("failed to mark lead converted: %d rows updated", n)
	}
	return nil
}

// CountAll returns the number of leads and converted leads across all organizations
func (r *LeadRepository) CountAll(ctx context.Context) (total, converted int, err error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_converted) FROM leads`
	if err := r.db.QueryRowxContext(ctx, query).Scan(&total, &converted); err != nil {
		return 0, 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return total, converted, nil
}

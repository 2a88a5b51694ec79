// contact_repository.go implements ContactRepository, including the per-organization
// email lookup used for duplicate detection and the contact-opportunity link.
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

const contactColumns = `id, organization_id, owner_id, first_name, last_name, email, phone, title,
	department, description, created_at, updated_at`

// ContactFilters are the optional list filters for contacts
type ContactFilters struct {
	OwnerID string
	Query   string
}

// ContactRepository handles contact database operations
type ContactRepository struct {
	db sqlx.ExtContext
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db sqlx.ExtContext) *ContactRepository {
	return &ContactRepository{db: db}
}

// List returns one page of contacts in the organization
func (r *ContactRepository) List(ctx context.Context, orgID string, filters ContactFilters, page Page) ([]*models.Contact, int, error) {
	f := NewFilter(orgID).
		EqIf("owner_id", filters.OwnerID).
		Search(filters.Query, "first_name", "last_name", "email")

	return listPage[models.Contact](ctx, r.db, contactColumns, "contacts", f, "created_at DESC", page)
}

// GetByID retrieves a contact scoped to the organization
func (r *ContactRepository) GetByID(ctx context.Context, orgID, id string) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND organization_id = $2`

	var c models.Contact
	err := sqlx.GetContext(ctx, r.db, &c, query, id, orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &c, nil
}

// EmailExists reports whether a contact with this email already exists in the organization
func (r *ContactRepository) EmailExists(ctx context.Context, orgID, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM contacts WHERE organization_id = $1 AND lower(email) = lower($2))`

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, orgID, email); err != nil {
		return false, fmt.Errorf("failed to check contact email: %w", err)
	}
	return exists, nil
}

// Create inserts a new contact
func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) error {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	query := `
		INSERT INTO contacts (id, organization_id, owner_id, first_name, last_name, email, phone,
			title, department, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.OrganizationID, c.OwnerID, c.FirstName, c.LastName, c.Email, c.Phone,
		c.Title, c.Department, c.Description, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// ListByAccount returns the contacts related to an account with their relationship details
func (r *ContactRepository) ListByAccount(ctx context.Context, orgID, accountID string) ([]*models.AccountContact, error) {
	query := `
		SELECT c.id, c.organization_id, c.owner_id, c.first_name, c.last_name, c.email, c.phone,
		       c.title, c.department, c.description, c.created_at, c.updated_at,
		       r.is_primary, r.role
		FROM contacts c
		JOIN account_contact_relationships r ON r.contact_id = c.id
		WHERE r.account_id = $1 AND c.organization_id = $2
		ORDER BY r.is_primary DESC, c.last_name`

	contacts := make([]*models.AccountContact, 0)
	if err := sqlx.SelectContext(ctx, r.db, &contacts, query, accountID, orgID); err != nil {
		return nil, fmt.Errorf("failed to list account contacts: %w", err)
	}
	return contacts, nil
}

// LinkOpportunity relates a contact to an opportunity
func (r *ContactRepository) LinkOpportunity(ctx context.Context, contactID, opportunityID string) error {
	query := `INSERT INTO contact_opportunities (contact_id, opportunity_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, contactID, opportunityID); err != nil {
		return fmt.Errorf("failed to link contact to opportunity: %w", err)
	}
	return nil
}

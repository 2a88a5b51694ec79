// account_repository.go implements AccountRepository and the account-contact relationship rows.
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

const accountColumns = `id, organization_id, owner_id, name, industry, website, phone, description,
	is_active, created_at, updated_at`

// AccountFilters are the optional list filters for accounts
type AccountFilters struct {
	Industry string
	Active   *bool
	Query    string
}

// AccountRepository handles account database operations
type AccountRepository struct {
	db sqlx.ExtContext
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db sqlx.ExtContext) *AccountRepository {
	return &AccountRepository{db: db}
}

// List returns one page of accounts in the organization
func (r *AccountRepository) List(ctx context.Context, orgID string, filters AccountFilters, page Page) ([]*models.Account, int, error) {
	f := NewFilter(orgID).
		EqIf("industry", filters.Industry).
		Bool("is_active", filters.Active).
		Search(filters.Query, "name", "website")

	return listPage[models.Account](ctx, r.db, accountColumns, "accounts", f, "name ASC", page)
}

// GetByID retrieves an account scoped to the organization
func (r *AccountRepository) GetByID(ctx context.Context, orgID, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND organization_id = $2`

	var a models.Account
	err := sqlx.GetContext(ctx, r.db, &a, query, id, orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	a.ID = uuid.New().String()
	a.IsActive = true
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt

	query := `
		INSERT INTO accounts (id, organization_id, owner_id, name, industry, website, phone,
			description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.OrganizationID, a.OwnerID, a.Name, a.Industry, a.Website, a.Phone,
		a.Description, a.IsActive, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// AddContact links a contact to an account
func (r *AccountRepository) AddContact(ctx context.Context, rel *models.AccountContactRelationship) error {
	rel.ID = uuid.New().String()
	rel.CreatedAt = time.Now()

	query := `
		INSERT INTO account_contact_relationships (id, account_id, contact_id, is_primary, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, rel.ID, rel.AccountID, rel.ContactID, rel.IsPrimary, rel.Role, rel.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to link contact to account: %w", err)
	}
	return nil
}

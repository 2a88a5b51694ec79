// organization_repository.go implements OrganizationRepository, providing database queries
// for organization CRUD and membership management.
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

const organizationColumns = `id, name, domain, description, is_active, created_at, updated_at`

// OrganizationRepository handles database operations for organizations
type OrganizationRepository struct {
	db sqlx.ExtContext
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db sqlx.ExtContext) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`

	var org models.Organization
	err := sqlx.GetContext(ctx, r.db, &org, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// CreateOrganization inserts org and returns a unique violation when the name is taken
func (r *OrganizationRepository) CreateOrganization(ctx context.Context, org *models.Organization) error {
	org.ID = uuid.New().String()
	org.IsActive = true
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt

	query := `
		INSERT INTO organizations (id, name, domain, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		org.ID, org.Name, org.Domain, org.Description, org.IsActive, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// ListAll returns every organization, newest first
func (r *OrganizationRepository) ListAll(ctx context.Context) ([]*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY created_at DESC`

	orgs := make([]*models.Organization, 0)
	if err := sqlx.SelectContext(ctx, r.db, &orgs, query); err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// Count returns the number of organizations
func (r *OrganizationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM organizations`); err != nil {
		return 0, fmt.Errorf("failed to count organizations: %w", err)
	}
	return n, nil
}

// === Organization Membership Operations ===

// AddMember adds a user to an organization with the given role
func (r *OrganizationRepository) AddMember(ctx context.Context, orgID, userID, role string) (*models.OrganizationMember, error) {
	member := &models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		JoinedAt:       time.Now(),
	}

	query := `
		INSERT INTO organization_members (organization_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, orgID, userID, role, member.JoinedAt); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return member, nil
}

// RemoveMember removes a user from an organization
func (r *OrganizationRepository) RemoveMember(ctx context.Context, orgID, userID string) error {
	query := `DELETE FROM organization_members WHERE organization_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, orgID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// GetMember retrieves a user's membership in an organization
func (r *OrganizationRepository) GetMember(ctx context.Context, orgID, userID string) (*models.OrganizationMember, error) {
	query := `
		SELECT organization_id, user_id, role, joined_at
		FROM organization_members
		WHERE organization_id = $1 AND user_id = $2`

	var member models.OrganizationMember
	err := sqlx.GetContext(ctx, r.db, &member, query, orgID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &member, nil
}

// ListMembers lists members of an organization with their user details
func (r *OrganizationRepository) ListMembers(ctx context.Context, orgID string) ([]*models.OrganizationMemberWithUser, error) {
	query := `
		SELECT m.organization_id, m.user_id, m.role, m.joined_at,
		       u.name AS user_name, u.email AS user_email
		FROM organization_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1
		ORDER BY m.joined_at`

	members := make([]*models.OrganizationMemberWithUser, 0)
	if err := sqlx.SelectContext(ctx, r.db, &members, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// LockAdmins returns the user ids of the organization's admins and locks their
// membership rows until the surrounding transaction ends
func (r *OrganizationRepository) LockAdmins(ctx context.Context, orgID string) ([]string, error) {
	query := `SELECT user_id FROM organization_members
		WHERE organization_id = $1 AND role = $2
		ORDER BY user_id
		FOR UPDATE`

	var ids []string
	if err := sqlx.SelectContext(ctx, r.db, &ids, query, orgID, models.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to lock admins: %w", err)
	}
	return ids, nil
}

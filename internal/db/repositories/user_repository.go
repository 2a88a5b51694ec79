// Package repositories implements the data access layer (repository pattern) for BottleCRM.
// Each repository type encapsulates all database queries for a domain entity.
// Repositories accept a sqlx.ExtContext so the same code runs against the shared pool or
// inside a transaction; tenant-scoped queries always filter by organization_id.
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

const userColumns = `id, email, name, profile_photo, is_active, last_login, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db sqlx.ExtContext
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db sqlx.ExtContext) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	err := sqlx.GetContext(ctx, r.db, &user, query, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	var user models.User
	err := sqlx.GetContext(ctx, r.db, &user, query, email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// UpsertByEmail creates the user on first sign-in, or refreshes name, photo and
// last_login on subsequent ones. An empty name or photo keeps the stored value.
func (r *UserRepository) UpsertByEmail(ctx context.Context, email, name string, photo *string) (*models.User, error) {
	now := time.Now()
	query := `
		INSERT INTO users (id, email, name, profile_photo, is_active, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5, $5)
		ON CONFLICT (email) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			profile_photo = COALESCE(EXCLUDED.profile_photo, users.profile_photo),
			last_login = EXCLUDED.last_login,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns

	var user models.User
	if err := sqlx.GetContext(ctx, r.db, &user, query, uuid.New().String(), email, name, photo, now); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &user, nil
}

// GetUserWithMemberships returns the user and every organization they belong to
func (r *UserRepository) GetUserWithMemberships(ctx context.Context, userID string) (*models.UserWithMemberships, error) {
	user, err := r.GetUserByID(ctx, userID)
	if err != nil || user == nil {
		return nil, err
	}

	query := `
		SELECT m.organization_id, o.name AS organization_name, m.role, m.joined_at
		FROM organization_members m
		JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = $1 AND o.is_active
		ORDER BY o.name`

	memberships := make([]models.UserMembership, 0)
	if err := sqlx.SelectContext(ctx, r.db, &memberships, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	return &models.UserWithMemberships{User: *user, Memberships: memberships}, nil
}

// CountUsers returns the number of users
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

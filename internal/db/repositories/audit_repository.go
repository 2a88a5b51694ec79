// audit_repository.go implements AuditRepository, providing database queries for writing
// and retrieving audit log entries for an organization.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db/models"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db sqlx.ExtContext
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db sqlx.ExtContext) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilters contains filters for querying audit logs
type AuditFilters struct {
	UserID       string
	Action       string
	ResourceType string
}

// CreateAuditLog creates a new audit log entry
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	log.ID = uuid.New().String()
	log.CreatedAt = time.Now()

	// Marshal metadata to JSONB
	var metadataJSON []byte
	var err error
	if log.Metadata != nil {
		metadataJSON, err = json.Marshal(log.Metadata)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_logs (id, user_id, organization_id, action, resource_type, resource_id, metadata, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.OrganizationID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		metadataJSON,
		log.IPAddress,
		log.CreatedAt,
	)

	return err
}

// ListAuditLogs retrieves an organization's audit logs, newest first
func (r *AuditRepository) ListAuditLogs(ctx context.Context, orgID string, filters AuditFilters, page Page) ([]*models.AuditLog, int, error) {
	where, args := NewFilter(orgID).
		EqIf("user_id", filters.UserID).
		EqIf("action", filters.Action).
		EqIf("resource_type", filters.ResourceType).
		Where()

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM audit_logs WHERE ` + where)
	if err := r.db.QueryRowxContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := r.db.Rebind(`
		SELECT id, user_id, organization_id, action, resource_type, resource_id, metadata, ip_address, created_at
		FROM audit_logs
		WHERE `+where+`
		ORDER BY created_at DESC`) + page.clause()

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		log := &models.AuditLog{}
		var metadataJSON []byte

		err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.OrganizationID,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&metadataJSON,
			&log.IPAddress,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}

		// Unmarshal metadata from JSONB
		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &log.Metadata); err != nil {
				return nil, 0, fmt.Errorf("failed to decode audit metadata: %w", err)
			}
		}

		logs = append(logs, log)
	}

	return logs, total, rows.Err()
}

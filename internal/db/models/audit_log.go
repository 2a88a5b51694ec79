// Package models - audit_log.go defines the AuditLog model for recording write activity,
// capturing actor, tenant, action, affected resource, client IP, and arbitrary metadata.
package models

import "time"

// AuditLog represents an audit log entry for tracking user actions
type AuditLog struct {
	ID             string                 `json:"id"`
	UserID         *string                `json:"userId,omitempty"` // Nullable for system actions
	OrganizationID *string                `json:"organizationId,omitempty"`
	Action         string                 `json:"action"`                 // "lead.converted", "POST /api/contacts"
	ResourceType   *string                `json:"resourceType,omitempty"` // "lead", "contact", "account"
	ResourceID     *string                `json:"resourceId,omitempty"`   // UUID of affected resource
	Metadata       map[string]interface{} `json:"metadata,omitempty"`     // JSONB: additional context
	IPAddress      *string                `json:"ipAddress,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
}

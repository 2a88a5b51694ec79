// Package models - organization.go defines the Organization model, the tenant boundary
// every CRM record belongs to.
package models

import "time"

// Organization represents a tenant
type Organization struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Domain      *string   `json:"domain,omitempty" db:"domain"`
	Description *string   `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Package models - account.go defines the Account company record and its contact relationships.
package models

import "time"

// PrimaryContactRole is the relationship role given to the contact created by lead conversion
const PrimaryContactRole = "Primary Contact"

// Account is a company of interest
type Account struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organizationId" db:"organization_id"`
	OwnerID        string    `json:"ownerId" db:"owner_id"`
	Name           string    `json:"name" db:"name"`
	Industry       *string   `json:"industry,omitempty" db:"industry"`
	Website        *string   `json:"website,omitempty" db:"website"`
	Phone          *string   `json:"phone,omitempty" db:"phone"`
	Description    *string   `json:"description,omitempty" db:"description"`
	IsActive       bool      `json:"isActive" db:"is_active"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// AccountContactRelationship links an account to a contact
type AccountContactRelationship struct {
	ID        string    `json:"id" db:"id"`
	AccountID string    `json:"accountId" db:"account_id"`
	ContactID string    `json:"contactId" db:"contact_id"`
	IsPrimary bool      `json:"isPrimary" db:"is_primary"`
	Role      *string   `json:"role,omitempty" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AccountDetail is the account detail view
type AccountDetail struct {
	Account
	Contacts      []*AccountContact `json:"contacts"`
	Opportunities []*Opportunity    `json:"opportunities"`
	Comments      []*Comment        `json:"comments"`
}

// Package models - contact.go defines the Contact person record.
package models

import "time"

// Contact is a person, created directly or by lead conversion
type Contact struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organizationId" db:"organization_id"`
	OwnerID        string    `json:"ownerId" db:"owner_id"`
	FirstName      string    `json:"firstName" db:"first_name"`
	LastName       string    `json:"lastName" db:"last_name"`
	Email          *string   `json:"email,omitempty" db:"email"`
	Phone          *string   `json:"phone,omitempty" db:"phone"`
	Title          *string   `json:"title,omitempty" db:"title"`
	Department     *string   `json:"department,omitempty" db:"department"`
	Description    *string   `json:"description,omitempty" db:"description"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// AccountContact is a contact as seen through an account relationship
type AccountContact struct {
	Contact
	IsPrimary bool    `json:"isPrimary" db:"is_primary"`
	Role      *string `json:"role,omitempty" db:"role"`
}

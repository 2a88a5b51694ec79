// Package models - lead.go defines the Lead prospect record and its status lifecycle.
package models

import (
	"strings"
	"time"
)

// Lead statuses. CONVERTED is terminal.
const (
	LeadStatusNew         = "NEW"
	LeadStatusPending     = "PENDING"
	LeadStatusContacted   = "CONTACTED"
	LeadStatusQualified   = "QUALIFIED"
	LeadStatusUnqualified = "UNQUALIFIED"
	LeadStatusConverted   = "CONVERTED"
)

var leadStatuses = map[string]bool{
	LeadStatusNew:         true,
	LeadStatusPending:     true,
	LeadStatusContacted:   true,
	LeadStatusQualified:   true,
	LeadStatusUnqualified: true,
	LeadStatusConverted:   true,
}

// ValidLeadStatus reports whether s is a known lead status
func ValidLeadStatus(s string) bool {
	return leadStatuses[s]
}

// Lead is an unqualified prospect, convertible exactly once
type Lead struct {
	ID                     string     `json:"id" db:"id"`
	OrganizationID         string     `json:"organizationId" db:"organization_id"`
	OwnerID                string     `json:"ownerId" db:"owner_id"`
	FirstName              string     `json:"firstName" db:"first_name"`
	LastName               string     `json:"lastName" db:"last_name"`
	Email                  string     `json:"email" db:"email"`
	Phone                  *string    `json:"phone,omitempty" db:"phone"`
	Company                *string    `json:"company,omitempty" db:"company"`
	Title                  *string    `json:"title,omitempty" db:"title"`
	Industry               *string    `json:"industry,omitempty" db:"industry"`
	Source                 *string    `json:"source,omitempty" db:"source"`
	Description            *string    `json:"description,omitempty" db:"description"`
	Status                 string     `json:"status" db:"status"`
	IsConverted            bool       `json:"isConverted" db:"is_converted"`
	ConvertedAt            *time.Time `json:"convertedAt,omitempty" db:"converted_at"`
	ConvertedContactID     *string    `json:"convertedContactId,omitempty" db:"converted_contact_id"`
	ConvertedAccountID     *string    `json:"convertedAccountId,omitempty" db:"converted_account_id"`
	ConvertedOpportunityID *string    `json:"convertedOpportunityId,omitempty" db:"converted_opportunity_id"`
	ContactID              *string    `json:"contactId,omitempty" db:"contact_id"`
	CreatedAt              time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName returns "<first> <last>"
func (l *Lead) FullName() string {
	return l.FirstName + " " + l.LastName
}

// CompanyName returns the trimmed company name, or "" when the lead has none
func (l *Lead) CompanyName() string {
	if l.Company == nil {
		return ""
	}
	return strings.TrimSpace(*l.Company)
}

// LeadWithComments is the lead detail view
type LeadWithComments struct {
	Lead
	Comments []*Comment `json:"comments"`
}

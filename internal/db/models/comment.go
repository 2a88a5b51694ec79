// Package models - comment.go defines the Comment note, attached to exactly one record.
package models

import "time"

// Comment is a free-text note
type Comment struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organizationId" db:"organization_id"`
	AuthorID       string    `json:"authorId" db:"author_id"`
	AuthorName     string    `json:"authorName,omitempty" db:"author_name"`
	Body           string    `json:"body" db:"body"`
	LeadID         *string   `json:"leadId,omitempty" db:"lead_id"`
	TaskID         *string   `json:"taskId,omitempty" db:"task_id"`
	AccountID      *string   `json:"accountId,omitempty" db:"account_id"`
	CaseID         *string   `json:"caseId,omitempty" db:"case_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// Package models - task.go defines Task and Case records together with the shared priority scale.
package models

import "time"

// Task statuses
const (
	TaskStatusNotStarted = "NOT_STARTED"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusCompleted  = "COMPLETED"
	TaskStatusDeferred   = "DEFERRED"
	TaskStatusWaiting    = "WAITING"
)

// Case statuses
const (
	CaseStatusOpen       = "OPEN"
	CaseStatusInProgress = "IN_PROGRESS"
	CaseStatusClosed     = "CLOSED"
)

// Priorities shared by tasks and cases
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// ValidTaskStatus reports whether s is a known task status
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusCompleted, TaskStatusDeferred, TaskStatusWaiting:
		return true
	}
	return false
}

// ValidCaseStatus reports whether s is a known case status
func ValidCaseStatus(s string) bool {
	switch s {
	case CaseStatusOpen, CaseStatusInProgress, CaseStatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether s is a known priority
func ValidPriority(s string) bool {
	switch s {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a to-do item optionally related to other records
type Task struct {
	ID             string     `json:"id" db:"id"`
	OrganizationID string     `json:"organizationId" db:"organization_id"`
	OwnerID        string     `json:"ownerId" db:"owner_id"`
	Subject        string     `json:"subject" db:"subject"`
	Description    *string    `json:"description,omitempty" db:"description"`
	Status         string     `json:"status" db:"status"`
	Priority       string     `json:"priority" db:"priority"`
	DueDate        *time.Time `json:"dueDate,omitempty" db:"due_date"`
	AccountID      *string    `json:"accountId,omitempty" db:"account_id"`
	ContactID      *string    `json:"contactId,omitempty" db:"contact_id"`
	LeadID         *string    `json:"leadId,omitempty" db:"lead_id"`
	OpportunityID  *string    `json:"opportunityId,omitempty" db:"opportunity_id"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

// Case is a support case raised against an account
type Case struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organizationId" db:"organization_id"`
	OwnerID        string    `json:"ownerId" db:"owner_id"`
	AccountID      string    `json:"accountId" db:"account_id"`
	Subject        string    `json:"subject" db:"subject"`
	Description    *string   `json:"description,omitempty" db:"description"`
	Status         string    `json:"status" db:"status"`
	Priority       string    `json:"priority" db:"priority"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// Package models - opportunity.go defines the Opportunity deal record and its pipeline stages.
package models

import "time"

// Opportunity stages
const (
	StageProspecting   = "PROSPECTING"
	StageQualification = "QUALIFICATION"
	StageProposal      = "PROPOSAL"
	StageNegotiation   = "NEGOTIATION"
	StageClosedWon     = "CLOSED_WON"
	StageClosedLost    = "CLOSED_LOST"
)

var stages = map[string]bool{
	StageProspecting:   true,
	StageQualification: true,
	StageProposal:      true,
	StageNegotiation:   true,
	StageClosedWon:     true,
	StageClosedLost:    true,
}

// ValidStage reports whether s is a known opportunity stage
func ValidStage(s string) bool {
	return stages[s]
}

// Opportunity is a deal attached to an account
type Opportunity struct {
	ID             string     `json:"id" db:"id"`
	OrganizationID string     `json:"organizationId" db:"organization_id"`
	OwnerID        string     `json:"ownerId" db:"owner_id"`
	AccountID      string     `json:"accountId" db:"account_id"`
	Name           string     `json:"name" db:"name"`
	Stage          string     `json:"stage" db:"stage"`
	Amount         float64    `json:"amount" db:"amount"`
	Probability    *int       `json:"probability,omitempty" db:"probability"`
	CloseDate      *time.Time `json:"closeDate,omitempty" db:"close_date"`
	Description    *string    `json:"description,omitempty" db:"description"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

// Package models - organization_member.go defines user-to-organization membership,
// the relation that grants access to a tenant, along with enriched views for display.
package models

import "time"

// Membership roles
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ValidRole reports whether role is a known membership role
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

// OrganizationMember represents a user's membership in an organization
type OrganizationMember struct {
	OrganizationID string    `json:"organizationId" db:"organization_id"`
	UserID         string    `json:"userId" db:"user_id"`
	Role           string    `json:"role" db:"role"`
	JoinedAt       time.Time `json:"joinedAt" db:"joined_at"`
}

// OrganizationMemberWithUser includes user details for member listings
type OrganizationMemberWithUser struct {
	OrganizationMember
	UserName  string `json:"userName" db:"user_name"`
	UserEmail string `json:"userEmail" db:"user_email"`
}

// UserMembership includes organization details for a user's membership
type UserMembership struct {
	OrganizationID   string    `json:"id" db:"organization_id"`
	OrganizationName string    `json:"name" db:"organization_name"`
	Role             string    `json:"role" db:"role"`
	JoinedAt         time.Time `json:"joinedAt" db:"joined_at"`
}

// Package models - user.go defines the User identity record and the membership view
// returned alongside it by /auth/me.
package models

import "time"

// User represents a person who can sign in
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	ProfilePhoto *string    `json:"profilePhoto,omitempty" db:"profile_photo"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// UserWithMemberships is a user plus every organization they belong to
type UserWithMemberships struct {
	User
	Memberships []UserMembership `json:"organizations"`
}

// IsAdminOf reports whether the user holds the admin role in the given organization
func (u *UserWithMemberships) IsAdminOf(organizationID string) bool {
	for _, m := range u.Memberships {
		if m.OrganizationID == organizationID {
			return m.Role == RoleAdmin
		}
	}
	return false
}

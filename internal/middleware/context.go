package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/bottlecrm/bottlecrm/internal/db/models"
)

// Context keys set by the authentication and tenant middleware
const (
	UserKey           = "user"
	UserIDKey         = "user_id"
	UserEmailKey      = "user_email"
	OrganizationIDKey = "organization_id"
	OrganizationKey   = "organization"
	OrgRoleKey        = "org_role"
	AuditRecordedKey  = "audit_recorded"
)

// MarkAuditRecorded tells AuditMiddleware that the handler already wrote a more
// specific audit entry for this request
func MarkAuditRecorded(c *gin.Context) {
	c.Set(AuditRecordedKey, true)
}

// CurrentUserID returns the authenticated user's id, or "" outside AuthMiddleware
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// CurrentUser returns the authenticated user, or nil outside AuthMiddleware
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(UserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// CurrentOrganizationID returns the organization resolved by RequireOrganization
func CurrentOrganizationID(c *gin.Context) string {
	return c.GetString(OrganizationIDKey)
}

// CurrentRole returns the caller's role in the resolved organization
func CurrentRole(c *gin.Context) string {
	return c.GetString(OrgRoleKey)
}

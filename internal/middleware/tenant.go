// tenant.go implements the tenant membership gate and the capabilities that compose
// on top of it: role requirements and the super-admin email-domain allow-list.
package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bottlecrm/bottlecrm/internal/auth"
	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
)

// OrganizationHeader carries the organization a tenant-scoped request acts on
const OrganizationHeader = "X-Organization-ID"

// RequireOrganization confirms the authenticated user is a member of the organization
// named by the X-Organization-ID header. A missing header is a 400; a malformed id,
// missing membership or inactive organization is a 403. It must run after AuthMiddleware.
func RequireOrganization(orgRepo *repositories.OrganizationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetHeader(OrganizationHeader)
		if orgID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "X-Organization-ID header is required",
			})
			return
		}

		userID := CurrentUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		if _, err := uuid.Parse(orgID); err != nil {
			forbidOrganization(c)
			return
		}

		member, err := orgRepo.GetMember(c.Request.Context(), orgID, userID)
		if err != nil {
			slog.Error("failed to check organization membership", "organization_id", orgID, "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check organization membership",
			})
			return
		}
		if member == nil {
			forbidOrganization(c)
			return
		}

		org, err := orgRepo.GetByID(c.Request.Context(), orgID)
		if err != nil {
			slog.Error("failed to load organization", "organization_id", orgID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check organization membership",
			})
			return
		}
		if org == nil || !org.IsActive {
			forbidOrganization(c)
			return
		}

		c.Set(OrganizationIDKey, org.ID)
		c.Set(OrgRoleKey, member.Role)
		c.Set(OrganizationKey, org)

		c.Next()
	}
}

func forbidOrganization(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error": "You do not have access to this organization",
	})
}

// RequireRole rejects the request unless the caller's organization role is one of roles.
// It must run after RequireOrganization.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, CurrentRole(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin rejects the request unless the authenticated user's email belongs
// to domain. An empty domain rejects everybody.
func RequireSuperAdmin(domain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.IsSuperAdminEmail(c.GetString(UserEmailKey), domain) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Super admin access required",
			})
			return
		}
		c.Next()
	}
}

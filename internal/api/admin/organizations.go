// organizations.go implements the cross-tenant organization listing.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
)

// OrganizationHandlers handles organization management endpoints
type OrganizationHandlers struct {
	orgRepo *repositories.OrganizationRepository
}

// NewOrganizationHandlers creates a new OrganizationHandlers instance
func NewOrganizationHandlers(database *sqlx.DB) *OrganizationHandlers {
	return &OrganizationHandlers{
		orgRepo: repositories.NewOrganizationRepository(database),
	}
}

// ListOrganizationsHandler lists every organization, including inactive ones
// GET /api/admin/organizations
func (h *OrganizationHandlers) ListOrganizationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgs, err := h.orgRepo.ListAll(c.Request.Context())
		if err != nil {
			slog.Error("failed to list organizations", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list organizations",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"organizations": orgs,
			"total":         len(orgs),
		})
	}
}

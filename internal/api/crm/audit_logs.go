package crm

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
	"github.com/bottlecrm/bottlecrm/internal/middleware"
)

// AuditHandlers serves the organization audit trail
type AuditHandlers struct {
	audit *repositories.AuditRepository
}

// NewAuditHandlers creates audit log handlers
func NewAuditHandlers(db *sqlx.DB) *AuditHandlers {
	return &AuditHandlers{audit: repositories.NewAuditRepository(db)}
}

// ListAuditLogsHandler returns one page of the organization's audit entries, newest first
// GET /api/audit-logs
func (h *AuditHandlers) ListAuditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := repositories.AuditFilters{
			UserID:       c.Query("user_id"),
			Action:       c.Query("action"),
			ResourceType: c.Query("resource_type"),
		}

		p, page := pageParams(c)
		logs, total, err := h.audit.ListAuditLogs(c.Request.Context(), middleware.CurrentOrganizationID(c), filters, p)
		if err != nil {
			respondError(c, err, "Failed to list audit logs")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"audit_logs": logs,
			"pagination": pagination(p, page, total),
		})
	}
}

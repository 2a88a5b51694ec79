// audit.go provides Gin middleware that records authenticated write operations to the
// audit log without delaying the response.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bottlecrm/bottlecrm/internal/db/models"
	"github.com/bottlecrm/bottlecrm/internal/safego"
)

// AuditWriter persists audit entries
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// auditTimeout bounds each asynchronous audit write
const auditTimeout = 5 * time.Second

// resourceTypes maps the first path segment after /api to an audit resource type
var resourceTypes = map[string]string{
	"leads":         "lead",
	"contacts":      "contact",
	"accounts":      "account",
	"opportunities": "opportunity",
	"tasks":         "task",
	"cases":         "case",
	"comments":      "comment",
	"organizations": "organization",
}

// AuditMiddleware records successful authenticated write requests. Reads, OPTIONS,
// failed requests, anonymous requests and requests whose handler called
// MarkAuditRecorded are not recorded. Writes happen in a
// panic-safe goroutine after the response is produced.
func AuditMiddleware(writer AuditWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		status := c.Writer.Status()
		if status >= 400 {
			return
		}
		userID := CurrentUserID(c)
		if userID == "" || c.GetBool(AuditRecordedKey) {
			return
		}

		entry := buildAuditEntry(c, userID, status)
		safego.Go("audit-log", func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
			defer cancel()
			if err := writer.CreateAuditLog(ctx, entry); err != nil {
				slog.Error("failed to create audit log", "action", entry.Action, "error", err)
			}
		})
	}
}

func buildAuditEntry(c *gin.Context, userID string, status int) *models.AuditLog {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	ip := c.ClientIP()

	entry := &models.AuditLog{
		UserID:    &userID,
		Action:    fmt.Sprintf("%s %s", c.Request.Method, route),
		IPAddress: &ip,
		Metadata: map[string]interface{}{
			"status_code": status,
		},
	}
	if orgID := CurrentOrganizationID(c); orgID != "" {
		entry.OrganizationID = &orgID
	}
	if rt, ok := resourceTypeFor(c.Request.URL.Path); ok {
		entry.ResourceType = &rt
	}
	if id := c.Param("id"); id != "" {
		entry.ResourceID = &id
	}
	if requestID := c.GetString(RequestIDKey); requestID != "" {
		entry.Metadata["request_id"] = requestID
	}
	return entry
}

// resourceTypeFor derives the resource type from a path such as /api/leads/<id>/convert
func resourceTypeFor(path string) (string, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 || segments[0] != "api" {
		return "", false
	}
	rt, ok := resourceTypes[segments[1]]
	return rt, ok
}

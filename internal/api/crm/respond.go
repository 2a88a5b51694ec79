// Package crm implements the tenant-scoped CRM endpoints: leads, contacts, accounts,
// opportunities, tasks, cases, comments and the organization audit log.
//
// Every handler runs behind the tenant gate and reads the organization id from the
// request context, never from the request body.
package crm

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
	"github.com/bottlecrm/bottlecrm/internal/services"
	"github.com/bottlecrm/bottlecrm/internal/validation"
)

// pageParams reads page and per_page from the query string
func pageParams(c *gin.Context) (repositories.Page, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	p := repositories.NewPage(page, perPage)
	return p, p.Offset/p.Limit + 1
}

func pagination(p repositories.Page, page, total int) gin.H {
	return gin.H{
		"page":     page,
		"per_page": p.Limit,
		"total":    total,
	}
}

// pathID returns the :id parameter. Anything that is not a UUID cannot name a
// record, so it is answered with 404 like any other unknown id.
func pathID(c *gin.Context, notFound string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return "", false
	}
	return id, true
}

// bindJSON binds the body into req and answers 400 with the offending field on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondInvalid(c, validation.FromBindError(err))
		return false
	}
	return true
}

func respondInvalid(c *gin.Context, fe *validation.FieldError) {
	c.JSON(http.StatusBadRequest, fe)
}

// respondError maps a service-layer error to its status code. Anything unrecognised
// is logged and answered with a generic 500.
func respondError(c *gin.Context, err error, internalMsg string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.Is(err, services.ErrConflict), repositories.IsUniqueViolation(err):
		c.JSON(http.StatusConflict, gin.H{"error": "Record already exists"})
	default:
		slog.Error(internalMsg, "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalMsg})
	}
}

// trimmed returns nil for a missing or blank optional string
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp
func parseDate(field string, s *string) (*time.Time, *validation.FieldError) {
	v := trimmed(s)
	if v == nil {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, *v); err == nil {
			return &t, nil
		}
	}
	return nil, &validation.FieldError{Field: field, Message: field + " must be a date (YYYY-MM-DD)"}
}

// resolveRef reports whether id names a row of table in the organization. A miss,
// including a malformed id, has already been answered with 404 when it returns false.
func resolveRef(c *gin.Context, q sqlx.QueryerContext, table, orgID, id, notFound string) bool {
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return false
	}
	exists, err := repositories.RecordExists(c.Request.Context(), q, table, orgID, id)
	if err != nil {
		respondError(c, err, "Failed to resolve "+table)
		return false
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return false
	}
	return true
}

// Package admin implements the super-admin endpoints that look across every organization.
//
// stats.go implements the platform-wide dashboard counters.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
)

// StatsHandler handles stats-related API requests
type StatsHandler struct {
	users *repositories.UserRepository
	orgs  *repositories.OrganizationRepository
	leads *repositories.LeadRepository
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(database *sqlx.DB) *StatsHandler {
	return &StatsHandler{
		users: repositories.NewUserRepository(database),
		orgs:  repositories.NewOrganizationRepository(database),
		leads: repositories.NewLeadRepository(database),
	}
}

// LeadStats counts leads across all organizations
type LeadStats struct {
	Total     int `json:"total"`
	Converted int `json:"converted"`
}

// DashboardStats represents the response for dashboard statistics
type DashboardStats struct {
	Users         int       `json:"users"`
	Organizations int       `json:"organizations"`
	Leads         LeadStats `json:"leads"`
}

// GetDashboardStats returns platform-wide counts
// GET /api/admin/stats
func (h *StatsHandler) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	var stats DashboardStats
	var err error

	if stats.Users, err = h.users.CountUsers(ctx); err != nil {
		h.fail(c, err)
		return
	}
	if stats.Organizations, err = h.orgs.Count(ctx); err != nil {
		h.fail(c, err)
		return
	}
	if stats.Leads.Total, stats.Leads.Converted, err = h.leads.CountAll(ctx); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) fail(c *gin.Context, err error) {
	slog.Error("failed to load dashboard statistics", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard statistics"})
}

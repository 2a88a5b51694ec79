package crm

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db/models"
	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
	"github.com/bottlecrm/bottlecrm/internal/middleware"
	"github.com/bottlecrm/bottlecrm/internal/telemetry"
	"github.com/bottlecrm/bottlecrm/internal/validation"
)

// OpportunityHandlers handles opportunity endpoints
type OpportunityHandlers struct {
	db            *sqlx.DB
	opportunities *repositories.OpportunityRepository
}

// NewOpportunityHandlers creates opportunity handlers
func NewOpportunityHandlers(db *sqlx.DB) *OpportunityHandlers {
	return &OpportunityHandlers{
		db:            db,
		opportunities: repositories.NewOpportunityRepository(db),
	}
}

// CreateOpportunityRequest is the body of POST /api/opportunities
type CreateOpportunityRequest struct {
	Name        string   `json:"name" binding:"required"`
	AccountID   string   `json:"accountId" binding:"required"`
	Stage       string   `json:"stage"`
	Amount      *float64 `json:"amount" binding:"omitempty,gte=0,lte=999999999999.99"`
	Probability *int     `json:"probability" binding:"omitempty,gte=0,lte=100"`
	CloseDate   *string  `json:"closeDate"`
	Description *string  `json:"description"`
}

// ListOpportunitiesHandler returns one page of opportunities
// GET /api/opportunities
func (h *OpportunityHandlers) ListOpportunitiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := repositories.OpportunityFilters{
			Stage:     c.Query("stage"),
			AccountID: c.Query("account_id"),
		}
		if fe := validation.OneOf("stage", filters.Stage, models.ValidStage); fe != nil {
			respondInvalid(c, fe)
			return
		}

		p, page := pageParams(c)
		opps, total, err := h.opportunities.List(c.Request.Context(), middleware.CurrentOrganizationID(c), filters, p)
		if err != nil {
			respondError(c, err, "Failed to list opportunities")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"opportunities": opps,
			"pagination":    pagination(p, page, total),
		})
	}
}

// GetOpportunityHandler returns a single opportunity
// GET /api/opportunities/:id
func (h *OpportunityHandlers) GetOpportunityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "Opportunity not found")
		if !ok {
			return
		}

		opp, err := h.opportunities.GetByID(c.Request.Context(), middleware.CurrentOrganizationID(c), id)
		if err != nil {
			respondError(c, err, "Failed to get opportunity")
			return
		}
		if opp == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Opportunity not found"})
			return
		}

		c.JSON(http.StatusOK, opp)
	}
}

// CreateOpportunityHandler creates an opportunity on an account of the organization
// POST /api/opportunities
func (h *OpportunityHandlers) CreateOpportunityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOpportunityRequest
		if !bindJSON(c, &req) {
			return
		}
		closeDate, fe := parseDate("closeDate", req.CloseDate)
		if fe = validation.First(
			validation.Required("name", req.Name),
			validation.OneOf("stage", req.Stage, models.ValidStage),
			fe,
		); fe != nil {
			respondInvalid(c, fe)
			return
		}

		orgID := middleware.CurrentOrganizationID(c)
		accountID := strings.TrimSpace(req.AccountID)
		if !resolveRef(c, h.db, "accounts", orgID, accountID, "Account not found") {
			return
		}

		opp := &models.Opportunity{
			OrganizationID: orgID,
			OwnerID:        middleware.CurrentUserID(c),
			AccountID:      accountID,
			Name:           strings.TrimSpace(req.Name),
			Stage:          req.Stage,
			Probability:    req.Probability,
			CloseDate:      closeDate,
			Description:    trimmed(req.Description),
		}
		if req.Amount != nil {
			opp.Amount = *req.Amount
		}
		if err := h.opportunities.Create(c.Request.Context(), opp); err != nil {
			respondError(c, err, "Failed to create opportunity")
			return
		}
		telemetry.RecordsCreatedTotal.WithLabelValues("opportunity").Inc()

		c.JSON(http.StatusCreated, opp)
	}
}

package crm

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db/models"
	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
	"github.com/bottlecrm/bottlecrm/internal/middleware"
	"github.com/bottlecrm/bottlecrm/internal/services"
	"github.com/bottlecrm/bottlecrm/internal/telemetry"
	"github.com/bottlecrm/bottlecrm/internal/validation"
)

// LeadHandlers handles lead endpoints
type LeadHandlers struct {
	leads     *repositories.LeadRepository
	comments  *repositories.CommentRepository
	converter *services.LeadConverter
}

// NewLeadHandlers creates lead handlers
func NewLeadHandlers(db *sqlx.DB) *LeadHandlers {
	return &LeadHandlers{
		leads:     repositories.NewLeadRepository(db),
		comments:  repositories.NewCommentRepository(db),
		converter: services.NewLeadConverter(db),
	}
}

// CreateLeadRequest is the body of POST /api/leads
type CreateLeadRequest struct {
	FirstName   string  `json:"firstName" binding:"required"`
	LastName    string  `json:"lastName" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Phone       *string `json:"phone"`
	Company     *string `json:"company"`
	Title       *string `json:"title"`
	Industry    *string `json:"industry"`
	Source      *string `json:"source"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

// UpdateLeadRequest is the body of PATCH /api/leads/:id. Absent fields are left unchanged.
type UpdateLeadRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       *string `json:"phone"`
	Company     *string `json:"company"`
	Title       *string `json:"title"`
	Industry    *string `json:"industry"`
	Source      *string `json:"source"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// validLeadInputStatus accepts every status a client may set directly
func validLeadInputStatus(s string) bool {
	return s != models.LeadStatusConverted && models.ValidLeadStatus(s)
}

// ListLeadsHandler returns one page of leads
// GET /api/leads
func (h *LeadHandlers) ListLeadsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := repositories.LeadFilters{
			Status:  c.Query("status"),
			Source:  c.Query("source"),
			OwnerID: c.Query("owner_id"),
			Query:   c.Query("q"),
		}
		if fe := validation.OneOf("status", filters.Status, models.ValidLeadStatus); fe != nil {
			respondInvalid(c, fe)
			return
		}

		p, page := pageParams(c)
		leads, total, err := h.leads.List(c.Request.Context(), middleware.CurrentOrganizationID(c), filters, p)
		if err != nil {
			respondError(c, err, "Failed to list leads")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"leads":      leads,
			"pagination": pagination(p, page, total),
		})
	}
}

// GetLeadHandler returns a lead with its comments
// GET /api/leads/:id
func (h *LeadHandlers) GetLeadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "Lead not found")
		if !ok {
			return
		}
		orgID := middleware.CurrentOrganizationID(c)

		lead, err := h.leads.GetByID(c.Request.Context(), orgID, id)
		if err != nil {
			respondError(c, err, "Failed to get lead")
			return
		}
		if lead == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
			return
		}

		comments, err := h.comments.ListByLead(c.Request.Context(), orgID, id)
		if err != nil {
			respondError(c, err, "Failed to get lead")
			return
		}

		c.JSON(http.StatusOK, models.LeadWithComments{Lead: *lead, Comments: comments})
	}
}

// CreateLeadHandler creates a lead owned by the caller
// POST /api/leads
func (h *LeadHandlers) CreateLeadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLeadRequest
		if !bindJSON(c, &req) {
			return
		}
		if fe := validation.First(
			validation.Required("firstName", req.FirstName),
			validation.Required("lastName", req.LastName),
			validation.OneOf("status", req.Status, validLeadInputStatus),
		); fe != nil {
			respondInvalid(c, fe)
			return
		}

		lead := &models.Lead{
			OrganizationID: middleware.CurrentOrganizationID(c),
			OwnerID:        middleware.CurrentUserID(c),
			FirstName:      strings.TrimSpace(req.FirstName),
			LastName:       strings.TrimSpace(req.LastName),
			Email:          strings.TrimSpace(req.Email),
			Phone:          trimmed(req.Phone),
			Company:        trimmed(req.Company),
			Title:          trimmed(req.Title),
			Industry:       trimmed(req.Industry),
			Source:         trimmed(req.Source),
			Description:    trimmed(req.Description),
			Status:         req.Status,
		}
		if err := h.leads.Create(c.Request.Context(), lead); err != nil {
			respondError(c, err, "Failed to create lead")
			return
		}
		telemetry.RecordsCreatedTotal.WithLabelValues("lead").Inc()

		c.JSON(http.StatusCreated, lead)
	}
}

// UpdateLeadHandler applies a partial update to an unconverted lead
// PATCH /api/leads/:id
func (h *LeadHandlers) UpdateLeadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "Lead not found")
		if !ok {
			return
		}

		var req UpdateLeadRequest
		if !bindJSON(c, &req) {
			return
		}
		if req.Status != nil && *req.Status == models.LeadStatusConverted {
			respondInvalid(c, &validation.FieldError{
				Field:   "status",
				Message: "status CONVERTED can only be set by converting the lead",
			})
			return
		}
		if req.Status != nil {
			if fe := validation.OneOf("status", *req.Status, validLeadInputStatus); fe != nil {
				respondInvalid(c, fe)
				return
			}
		}
		if fe := validation.First(
			requiredIfSet("firstName", req.FirstName),
			requiredIfSet("lastName", req.LastName),
			requiredIfSet("email", req.Email),
		); fe != nil {
			respondInvalid(c, fe)
			return
		}

		lead, err := h.leads.GetByID(c.Request.Context(), middleware.CurrentOrganizationID(c), id)
		if err != nil {
			respondError(c, err, "Failed to update lead")
			return
		}
		if lead == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
			return
		}
		if lead.IsConverted {
			c.JSON(http.StatusConflict, gin.H{"error": "Converted leads cannot be modified"})
			return
		}

		req.applyTo(lead)

		updated, err := h.leads.Update(c.Request.Context(), lead)
		if err != nil {
			respondError(c, err, "Failed to update lead")
			return
		}
		if !updated {
			c.JSON(http.StatusConflict, gin.H{"error": "Converted leads cannot be modified"})
			return
		}

		c.JSON(http.StatusOK, lead)
	}
}

func (req *UpdateLeadRequest) applyTo(lead *models.Lead) {
	if req.FirstName != nil {
		lead.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		lead.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		lead.Email = strings.TrimSpace(*req.Email)
	}
	if req.Status != nil {
		lead.Status = *req.Status
	}
	optional := []struct {
		src *string
		dst **string
	}{
		{req.Phone, &lead.Phone},
		{req.Company, &lead.Company},
		{req.Title, &lead.Title},
		{req.Industry, &lead.Industry},
		{req.Source, &lead.Source},
		{req.Description, &lead.Description},
	}
	for _, f := range optional {
		if f.src != nil {
			*f.dst = trimmed(f.src)
		}
	}
}

func requiredIfSet(field string, v *string) *validation.FieldError {
	if v == nil {
		return nil
	}
	return validation.Required(field, *v)
}

// ConvertLeadHandler converts a lead into a contact, account and opportunity
// POST /api/leads/:id/convert
func (h *LeadHandlers) ConvertLeadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "Lead not found")
		if !ok {
			return
		}

		result, err := h.converter.Convert(c.Request.Context(),
			middleware.CurrentOrganizationID(c), id, middleware.CurrentUserID(c))
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
			return
		}
		if err != nil {
			slog.Error("lead conversion failed", "lead_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lead conversion failed"})
			return
		}
		if !result.AlreadyConverted {
			// lead.converted was written inside the conversion transaction
			middleware.MarkAuditRecorded(c)
		}

		c.JSON(http.StatusOK, result)
	}
}

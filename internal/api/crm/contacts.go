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

// ContactHandlers handles contact endpoints
type ContactHandlers struct {
	contacts *repositories.ContactRepository
}

// NewContactHandlers creates contact handlers
func NewContactHandlers(db *sqlx.DB) *ContactHandlers {
	return &ContactHandlers{contacts: repositories.NewContactRepository(db)}
}

// CreateContactRequest is the body of POST /api/contacts
type CreateContactRequest struct {
	FirstName   string  `json:"firstName" binding:"required"`
	LastName    string  `json:"lastName" binding:"required"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       *string `json:"phone"`
	Title       *string `json:"title"`
	Department  *string `json:"department"`
	Description *string `json:"description"`
}

// ListContactsHandler returns one page of contacts
// GET /api/contacts
func (h *ContactHandlers) ListContactsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := repositories.ContactFilters{
			OwnerID: c.Query("owner_id"),
			Query:   c.Query("q"),
		}

		p, page := pageParams(c)
		contacts, total, err := h.contacts.List(c.Request.Context(), middleware.CurrentOrganizationID(c), filters, p)
		if err != nil {
			respondError(c, err, "Failed to list contacts")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"contacts":   contacts,
			"pagination": pagination(p, page, total),
		})
	}
}

// GetContactHandler returns a single contact
// GET /api/contacts/:id
func (h *ContactHandlers) GetContactHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "Contact not found")
		if !ok {
			return
		}

		contact, err := h.contacts.GetByID(c.Request.Context(), middleware.CurrentOrganizationID(c), id)
		if err != nil {
			respondError(c, err, "Failed to get contact")
			return
		}
		if contact == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
			return
		}

		c.JSON(http.StatusOK, contact)
	}
}

// CreateContactHandler creates a contact owned by the caller. An email already used
// by another contact in the organization is rejected and nothing is written.
// POST /api/contacts
func (h *ContactHandlers) CreateContactHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateContactRequest
		if !bindJSON(c, &req) {
			return
		}
		if fe := validation.First(
			validation.Required("firstName", req.FirstName),
			validation.Required("lastName", req.LastName),
		); fe != nil {
			respondInvalid(c, fe)
			return
		}

		orgID := middleware.CurrentOrganizationID(c)
		email := trimmed(req.Email)
		if email != nil {
			exists, err := h.contacts.EmailExists(c.Request.Context(), orgID, *email)
			if err != nil {
				respondError(c, err, "Failed to create contact")
				return
			}
			if exists {
				respondInvalid(c, &validation.FieldError{
					Field:   "email",
					Message: "A contact with this email already exists",
				})
				return
			}
		}

		contact := &models.Contact{
			OrganizationID: orgID,
			OwnerID:        middleware.CurrentUserID(c),
			FirstName:      strings.TrimSpace(req.FirstName),
			LastName:       strings.TrimSpace(req.LastName),
			Email:          email,
			Phone:          trimmed(req.Phone),
			Title:          trimmed(req.Title),
			Department:     trimmed(req.Department),
			Description:    trimmed(req.Description),
		}
		if err := h.contacts.Create(c.Request.Context(), contact); err != nil {
			respondError(c, err, "Failed to create contact")
			return
		}
		telemetry.RecordsCreatedTotal.WithLabelValues("contact").Inc()

		c.JSON(http.StatusCreated, contact)
	}
}

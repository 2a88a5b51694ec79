package crm

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db/models"
	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
	"github.com/bottlecrm/bottlecrm/internal/middleware"
	"github.com/bottlecrm/bottlecrm/internal/telemetry"
	"github.com/bottlecrm/bottlecrm/internal/validation"
)

// AccountHandlers handles account endpoints
type AccountHandlers struct {
	accounts      *repositories.AccountRepository
	contacts      *repositories.ContactRepository
	opportunities *repositories.OpportunityRepository
	comments      *repositories.CommentRepository
}

// NewAccountHandlers creates account handlers
func NewAccountHandlers(db *sqlx.DB) *AccountHandlers {
	return &AccountHandlers{
		accounts:      repositories.NewAccountRepository(db),
		contacts:      repositories.NewContactRepository(db),
		opportunities: repositories.NewOpportunityRepository(db),
		comments:      repositories.NewCommentRepository(db),
	}
}

// CreateAccountRequest is the body of POST /api/accounts
type CreateAccountRequest struct {
	Name        string  `json:"name" binding:"required"`
	Industry    *string `json:"industry"`
	Website     *string `json:"website" binding:"omitempty,url"`
	Phone       *string `json:"phone"`
	Description *string `json:"description"`
}

// ListAccountsHandler returns one page of accounts
// GET /api/accounts
func (h *AccountHandlers) ListAccountsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := repositories.AccountFilters{
			Industry: c.Query("industry"),
			Query:    c.Query("q"),
		}
		if raw := c.Query("active"); raw != "" {
			active, err := strconv.ParseBool(raw)
			if err != nil {
				respondInvalid(c, &validation.FieldError{Field: "active", Message: "active must be true or false"})
				return
			}
			filters.Active = &active
		}

		p, page := pageParams(c)
		accounts, total, err := h.accounts.List(c.Request.Context(), middleware.CurrentOrganizationID(c), filters, p)
		if err != nil {
			respondError(c, err, "Failed to list accounts")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"accounts":   accounts,
			"pagination": pagination(p, page, total),
		})
	}
}

// GetAccountHandler returns an account with its contacts, opportunities and comments
// GET /api/accounts/:id
func (h *AccountHandlers) GetAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "Account not found")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		orgID := middleware.CurrentOrganizationID(c)

		account, err := h.accounts.GetByID(ctx, orgID, id)
		if err != nil {
			respondError(c, err, "Failed to get account")
			return
		}
		if account == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}

		detail := models.AccountDetail{Account: *account}
		if detail.Contacts, err = h.contacts.ListByAccount(ctx, orgID, id); err != nil {
			respondError(c, err, "Failed to get account")
			return
		}
		if detail.Opportunities, err = h.opportunities.ListByAccount(ctx, orgID, id); err != nil {
			respondError(c, err, "Failed to get account")
			return
		}
		if detail.Comments, err = h.comments.ListByAccount(ctx, orgID, id); err != nil {
			respondError(c, err, "Failed to get account")
			return
		}

		c.JSON(http.StatusOK, detail)
	}
}

// CreateAccountHandler creates an account owned by the caller
// POST /api/accounts
func (h *AccountHandlers) CreateAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAccountRequest
		if !bindJSON(c, &req) {
			return
		}
		if fe := validation.Required("name", req.Name); fe != nil {
			respondInvalid(c, fe)
			return
		}

		account := &models.Account{
			OrganizationID: middleware.CurrentOrganizationID(c),
			OwnerID:        middleware.CurrentUserID(c),
			Name:           strings.TrimSpace(req.Name),
			Industry:       trimmed(req.Industry),
			Website:        trimmed(req.Website),
			Phone:          trimmed(req.Phone),
			Description:    trimmed(req.Description),
		}
		if err := h.accounts.Create(c.Request.Context(), account); err != nil {
			respondError(c, err, "Failed to create account")
			return
		}
		telemetry.RecordsCreatedTotal.WithLabelValues("account").Inc()

		c.JSON(http.StatusCreated, account)
	}
}

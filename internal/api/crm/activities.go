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

// ActivityHandlers handles task and case endpoints
type ActivityHandlers struct {
	db    *sqlx.DB
	tasks *repositories.TaskRepository
	cases *repositories.CaseRepository
}

// NewActivityHandlers creates task and case handlers
func NewActivityHandlers(db *sqlx.DB) *ActivityHandlers {
	return &ActivityHandlers{
		db:    db,
		tasks: repositories.NewTaskRepository(db),
		cases: repositories.NewCaseRepository(db),
	}
}

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	Subject       string  `json:"subject" binding:"required"`
	Description   *string `json:"description"`
	Status        string  `json:"status"`
	Priority      string  `json:"priority"`
	DueDate       *string `json:"dueDate"`
	AccountID     *string `json:"accountId"`
	ContactID     *string `json:"contactId"`
	LeadID        *string `json:"leadId"`
	OpportunityID *string `json:"opportunityId"`
}

// CreateCaseRequest is the body of POST /api/cases
type CreateCaseRequest struct {
	Subject     string  `json:"subject" binding:"required"`
	AccountID   string  `json:"accountId" binding:"required"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
}

// ListTasksHandler returns one page of tasks
// GET /api/tasks
func (h *ActivityHandlers) ListTasksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := repositories.TaskFilters{
			Status:   c.Query("status"),
			Priority: c.Query("priority"),
		}
		if fe := validation.First(
			validation.OneOf("status", filters.Status, models.ValidTaskStatus),
			validation.OneOf("priority", filters.Priority, models.ValidPriority),
		); fe != nil {
			respondInvalid(c, fe)
			return
		}

		p, page := pageParams(c)
		tasks, total, err := h.tasks.List(c.Request.Context(), middleware.CurrentOrganizationID(c), filters, p)
		if err != nil {
			respondError(c, err, "Failed to list tasks")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"tasks":      tasks,
			"pagination": pagination(p, page, total),
		})
	}
}

// CreateTaskHandler creates a task. Every related record given must exist in the organization.
// POST /api/tasks
func (h *ActivityHandlers) CreateTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTaskRequest
		if !bindJSON(c, &req) {
			return
		}
		dueDate, fe := parseDate("dueDate", req.DueDate)
		if fe = validation.First(
			validation.Required("subject", req.Subject),
			validation.OneOf("status", req.Status, models.ValidTaskStatus),
			validation.OneOf("priority", req.Priority, models.ValidPriority),
			fe,
		); fe != nil {
			respondInvalid(c, fe)
			return
		}

		orgID := middleware.CurrentOrganizationID(c)
		task := &models.Task{
			OrganizationID: orgID,
			OwnerID:        middleware.CurrentUserID(c),
			Subject:        strings.TrimSpace(req.Subject),
			Description:    trimmed(req.Description),
			Status:         req.Status,
			Priority:       req.Priority,
			DueDate:        dueDate,
			AccountID:      trimmed(req.AccountID),
			ContactID:      trimmed(req.ContactID),
			LeadID:         trimmed(req.LeadID),
			OpportunityID:  trimmed(req.OpportunityID),
		}

		refs := []struct {
			table    string
			id       *string
			notFound string
		}{
			{"accounts", task.AccountID, "Account not found"},
			{"contacts", task.ContactID, "Contact not found"},
			{"leads", task.LeadID, "Lead not found"},
			{"opportunities", task.OpportunityID, "Opportunity not found"},
		}
		for _, ref := range refs {
			if ref.id != nil && !resolveRef(c, h.db, ref.table, orgID, *ref.id, ref.notFound) {
				return
			}
		}

		if err := h.tasks.Create(c.Request.Context(), task); err != nil {
			respondError(c, err, "Failed to create task")
			return
		}
		telemetry.RecordsCreatedTotal.WithLabelValues("task").Inc()

		c.JSON(http.StatusCreated, task)
	}
}

// ListCasesHandler returns one page of cases
// GET /api/cases
func (h *ActivityHandlers) ListCasesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := repositories.CaseFilters{Status: c.Query("status")}
		if fe := validation.OneOf("status", filters.Status, models.ValidCaseStatus); fe != nil {
			respondInvalid(c, fe)
			return
		}

		p, page := pageParams(c)
		cases, total, err := h.cases.List(c.Request.Context(), middleware.CurrentOrganizationID(c), filters, p)
		if err != nil {
			respondError(c, err, "Failed to list cases")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"cases":      cases,
			"pagination": pagination(p, page, total),
		})
	}
}

// CreateCaseHandler opens a case against an account of the organization
// POST /api/cases
func (h *ActivityHandlers) CreateCaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCaseRequest
		if !bindJSON(c, &req) {
			return
		}
		if fe := validation.First(
			validation.Required("subject", req.Subject),
			validation.OneOf("status", req.Status, models.ValidCaseStatus),
			validation.OneOf("priority", req.Priority, models.ValidPriority),
		); fe != nil {
			respondInvalid(c, fe)
			return
		}

		orgID := middleware.CurrentOrganizationID(c)
		accountID := strings.TrimSpace(req.AccountID)
		if !resolveRef(c, h.db, "accounts", orgID, accountID, "Account not found") {
			return
		}

		cs := &models.Case{
			OrganizationID: orgID,
			OwnerID:        middleware.CurrentUserID(c),
			AccountID:      accountID,
			Subject:        strings.TrimSpace(req.Subject),
			Description:    trimmed(req.Description),
			Status:         req.Status,
			Priority:       req.Priority,
		}
		if err := h.cases.Create(c.Request.Context(), cs); err != nil {
			respondError(c, err, "Failed to create case")
			return
		}
		telemetry.RecordsCreatedTotal.WithLabelValues("case").Inc()

		c.JSON(http.StatusCreated, cs)
	}
}

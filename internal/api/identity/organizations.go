package identity

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db"
	"github.com/bottlecrm/bottlecrm/internal/db/models"
	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
	"github.com/bottlecrm/bottlecrm/internal/middleware"
	"github.com/bottlecrm/bottlecrm/internal/telemetry"
	"github.com/bottlecrm/bottlecrm/internal/validation"
)

var errLastAdmin = errors.New("organization must keep at least one admin")

// OrganizationHandlers handles organization and membership endpoints
type OrganizationHandlers struct {
	db       *sqlx.DB
	orgRepo  *repositories.OrganizationRepository
	userRepo *repositories.UserRepository
}

// NewOrganizationHandlers creates organization handlers
func NewOrganizationHandlers(database *sqlx.DB) *OrganizationHandlers {
	return &OrganizationHandlers{
		db:       database,
		orgRepo:  repositories.NewOrganizationRepository(database),
		userRepo: repositories.NewUserRepository(database),
	}
}

// CreateOrganizationRequest is the body of POST /api/organizations
type CreateOrganizationRequest struct {
	Name        string  `json:"name" binding:"required"`
	Domain      *string `json:"domain"`
	Description *string `json:"description"`
}

// AddMemberRequest is the body of POST /api/organizations/members
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,oneof=admin member"`
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ListMyOrganizationsHandler lists the organizations the caller belongs to
// GET /api/organizations
func (h *OrganizationHandlers) ListMyOrganizationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.userRepo.GetUserWithMemberships(c.Request.Context(), middleware.CurrentUserID(c))
		if err != nil {
			slog.Error("failed to list organizations", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list organizations"})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"organizations": user.Memberships})
	}
}

// CreateOrganizationHandler creates an organization with the caller as its first admin
// POST /api/organizations
func (h *OrganizationHandlers) CreateOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrganizationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, validation.FromBindError(err))
			return
		}
		if fe := validation.Required("name", req.Name); fe != nil {
			c.JSON(http.StatusBadRequest, fe)
			return
		}

		org := &models.Organization{
			Name:        strings.TrimSpace(req.Name),
			Domain:      optional(req.Domain),
			Description: optional(req.Description),
		}
		userID := middleware.CurrentUserID(c)

		err := db.WithTx(c.Request.Context(), h.db, func(tx *sqlx.Tx) error {
			orgs := repositories.NewOrganizationRepository(tx)
			if err := orgs.CreateOrganization(c.Request.Context(), org); err != nil {
				return err
			}
			_, err := orgs.AddMember(c.Request.Context(), org.ID, userID, models.RoleAdmin)
			return err
		})
		if repositories.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Organization name already exists"})
			return
		}
		if err != nil {
			slog.Error("failed to create organization", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create organization"})
			return
		}
		telemetry.RecordsCreatedTotal.WithLabelValues("organization").Inc()

		c.JSON(http.StatusCreated, gin.H{
			"organization": org,
			"role":         models.RoleAdmin,
		})
	}
}

// ListMembersHandler lists the members of the current organization
// GET /api/organizations/members
func (h *OrganizationHandlers) ListMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		members, err := h.orgRepo.ListMembers(c.Request.Context(), middleware.CurrentOrganizationID(c))
		if err != nil {
			slog.Error("failed to list members", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list members"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"members": members})
	}
}

// AddMemberHandler adds an existing user to the current organization
// POST /api/organizations/members
func (h *OrganizationHandlers) AddMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, validation.FromBindError(err))
			return
		}
		if req.Role == "" {
			req.Role = models.RoleMember
		}

		ctx := c.Request.Context()
		orgID := middleware.CurrentOrganizationID(c)

		user, err := h.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
		if err != nil {
			slog.Error("failed to look up user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		existing, err := h.orgRepo.GetMember(ctx, orgID, user.ID)
		if err != nil {
			slog.Error("failed to check membership", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this organization"})
			return
		}

		member, err := h.orgRepo.AddMember(ctx, orgID, user.ID, req.Role)
		if repositories.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this organization"})
			return
		}
		if err != nil {
			slog.Error("failed to add member", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
			return
		}

		c.JSON(http.StatusCreated, models.OrganizationMemberWithUser{
			OrganizationMember: *member,
			UserName:           user.Name,
			UserEmail:          user.Email,
		})
	}
}

// RemoveMemberHandler removes a user from the current organization. The last admin
// cannot be removed.
// DELETE /api/organizations/members/:userId
func (h *OrganizationHandlers) RemoveMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if _, err := uuid.Parse(userID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		orgID := middleware.CurrentOrganizationID(c)

		var found bool
		err := db.WithTx(c.Request.Context(), h.db, func(tx *sqlx.Tx) error {
			orgs := repositories.NewOrganizationRepository(tx)
			member, err := orgs.GetMember(c.Request.Context(), orgID, userID)
			if err != nil || member == nil {
				return err
			}
			found = true

			if member.Role == models.RoleAdmin {
				// concurrent removals serialize on the admin rows
				admins, err := orgs.LockAdmins(c.Request.Context(), orgID)
				if err != nil {
					return err
				}
				if !slices.Contains(admins, userID) {
					found = false
					return nil
				}
				if len(admins) <= 1 {
					return errLastAdmin
				}
			}
			return orgs.RemoveMember(c.Request.Context(), orgID, userID)
		})

		switch {
		case errors.Is(err, errLastAdmin):
			c.JSON(http.StatusConflict, gin.H{"error": "Cannot remove the last admin of an organization"})
		case err != nil:
			slog.Error("failed to remove member", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		case !found:
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		default:
			c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
		}
	}
}

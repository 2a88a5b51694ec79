package crm

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/middleware"
	"github.com/bottlecrm/bottlecrm/internal/services"
)

// CommentHandlers handles comment endpoints
type CommentHandlers struct {
	comments *services.CommentService
}

// NewCommentHandlers creates comment handlers
func NewCommentHandlers(db *sqlx.DB) *CommentHandlers {
	return &CommentHandlers{comments: services.NewCommentService(db)}
}

// AddCommentHandler attaches a comment to one lead, task, account or case
// POST /api/comments
func (h *CommentHandlers) AddCommentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.CommentInput
		if !bindJSON(c, &in) {
			return
		}

		comment, err := h.comments.Add(c.Request.Context(),
			middleware.CurrentOrganizationID(c), middleware.CurrentUserID(c), in)
		if err != nil {
			respondError(c, err, "Failed to add comment")
			return
		}

		c.JSON(http.StatusCreated, comment)
	}
}

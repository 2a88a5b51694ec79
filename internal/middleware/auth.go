// Package middleware provides Gin HTTP middleware for authentication, tenant
// membership, rate limiting, security headers, request logging and audit logging.
//
// Middleware ordering is enforced in router.go:
//
//	Recovery → RequestID → Metrics → Logger → CORS → Security → Auth →
//	RateLimit → Audit → Tenant → Role → Handler
//
// Rate limiting runs after auth so sessions are keyed by user; the /auth limiter
// sits ahead of it and keys by client IP. Audit is registered before the gates
// but records after the handler returns, so it sees the resolved organization.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bottlecrm/bottlecrm/internal/auth"
	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
)

// AuthMiddleware resolves the bearer token into a user.
//
// Every rejection is a 401; the message distinguishes a missing credential, a bad
// or expired token, and a token whose subject has no active user. Lookup failures
// are 500s.
func AuthMiddleware(verifier auth.TokenVerifier, userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			slog.Debug("bearer token rejected", "error", err, "ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		// subjects from an external issuer need not be user ids at all
		if _, err := uuid.Parse(claims.UserID); err != nil {
			rejectUnknownUser(c, claims.UserID)
			return
		}

		user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			slog.Error("failed to load user for token", "user_id", claims.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}
		if user == nil || !user.IsActive {
			rejectUnknownUser(c, claims.UserID)
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Set(UserEmailKey, user.Email)

		c.Next()
	}
}

func rejectUnknownUser(c *gin.Context, subject string) {
	slog.Warn("valid token for unknown or inactive user", "user_id", subject)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": "User not found",
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" value
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

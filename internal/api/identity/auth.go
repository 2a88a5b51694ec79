// Package identity implements sign-in, the current-user endpoint and organization
// membership management.
package identity

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/auth"
	"github.com/bottlecrm/bottlecrm/internal/auth/oidc"
	"github.com/bottlecrm/bottlecrm/internal/config"
	"github.com/bottlecrm/bottlecrm/internal/db/models"
	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
	"github.com/bottlecrm/bottlecrm/internal/middleware"
	"github.com/bottlecrm/bottlecrm/internal/validation"
)

const (
	stateCookie    = "bcrm_oauth_state"
	stateCookieTTL = 10 * time.Minute
)

// GoogleAuthenticator is the part of the Google provider the handlers use
type GoogleAuthenticator interface {
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	Authenticate(ctx context.Context, rawIDToken string) (*oidc.GoogleUser, error)
}

// AuthHandlers handles sign-in and session endpoints
type AuthHandlers struct {
	cfg      *config.Config
	google   GoogleAuthenticator
	userRepo *repositories.UserRepository
}

// NewAuthHandlers creates auth handlers. google may be nil when Google sign-in is not configured.
func NewAuthHandlers(cfg *config.Config, db *sqlx.DB, google GoogleAuthenticator) *AuthHandlers {
	return &AuthHandlers{
		cfg:      cfg,
		google:   google,
		userRepo: repositories.NewUserRepository(db),
	}
}

// GoogleSignInRequest is the body of POST /auth/google
type GoogleSignInRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// generateState generates a random state string for OAuth
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (h *AuthHandlers) googleEnabled(c *gin.Context) bool {
	if h.google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return false
	}
	return true
}

// GoogleSignInHandler exchanges a Google ID token obtained by the client for a session token
// POST /auth/google
func (h *AuthHandlers) GoogleSignInHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.googleEnabled(c) {
			return
		}

		var req GoogleSignInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, validation.FromBindError(err))
			return
		}

		gu, err := h.google.Authenticate(c.Request.Context(), req.IDToken)
		if err != nil {
			slog.Warn("google sign-in rejected", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		h.completeSignIn(c, gu)
	}
}

// LoginHandler starts the server-side Google authorization code flow
// GET /auth/google/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.googleEnabled(c) {
			return
		}

		state, err := generateState()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate state"})
			return
		}

		secure := strings.HasPrefix(h.cfg.Server.BaseURL, "https://")
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(stateCookie, state, int(stateCookieTTL.Seconds()), "/auth/google", "", secure, true)
		c.Redirect(http.StatusFound, h.google.GetAuthURL(state))
	}
}

// CallbackHandler completes the authorization code flow
// GET /auth/google/callback?code=...&state=...
func (h *AuthHandlers) CallbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.googleEnabled(c) {
			return
		}

		expected, err := c.Cookie(stateCookie)
		state := c.Query("state")
		if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state parameter. Please try logging in again."})
			return
		}
		// The state is single use
		c.SetCookie(stateCookie, "", -1, "/auth/google", "", false, true)

		if reason := c.Query("error"); reason != "" {
			slog.Info("google consent denied", "reason", reason)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign-in was cancelled"})
			return
		}

		code := c.Query("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
			return
		}

		rawIDToken, err := h.google.ExchangeCode(c.Request.Context(), code)
		if err != nil {
			slog.Warn("google code exchange failed", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to exchange authorization code"})
			return
		}

		gu, err := h.google.Authenticate(c.Request.Context(), rawIDToken)
		if err != nil {
			slog.Warn("google id token rejected", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		h.completeSignIn(c, gu)
	}
}

// completeSignIn upserts the user by email and issues a session token
func (h *AuthHandlers) completeSignIn(c *gin.Context, gu *oidc.GoogleUser) {
	var photo *string
	if gu.Picture != "" {
		photo = &gu.Picture
	}

	user, err := h.userRepo.UpsertByEmail(c.Request.Context(), strings.ToLower(gu.Email), gu.Name, photo)
	if err != nil {
		slog.Error("failed to upsert user on sign-in", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}
	if !user.IsActive {
		slog.Warn("sign-in by inactive user", "user_id", user.ID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	h.issueToken(c, user)
}

func (h *AuthHandlers) issueToken(c *gin.Context, user *models.User) {
	token, err := auth.GenerateJWT(user.ID, user.Email, h.cfg.Auth.JWTExpiry)
	if err != nil {
		slog.Error("failed to generate session token", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(h.cfg.Auth.JWTExpiry.Seconds()),
		"user":       user,
	})
}

// RefreshHandler issues a fresh token for the authenticated user
// POST /auth/refresh
func (h *AuthHandlers) RefreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		h.issueToken(c, user)
	}
}

// MeHandler returns the authenticated user and their organization memberships
// GET /auth/me
func (h *AuthHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.userRepo.GetUserWithMemberships(c.Request.Context(), middleware.CurrentUserID(c))
		if err != nil {
			slog.Error("failed to load current user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user information"})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

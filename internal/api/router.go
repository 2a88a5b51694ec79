// Package api wires together all HTTP routes for the BottleCRM backend.
//
// Route grouping:
//   - /health, /ready and /version are public.
//   - /auth/* carries the sign-in flows behind a stricter rate limiter; /auth/me and
//     /auth/refresh additionally require a session token.
//   - /api/* always requires a session token. Tenant-scoped routes sit behind the
//     organization membership gate, and membership management plus the audit log
//     additionally require the admin role. /api/admin/* is for super-admins only.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/bottlecrm/bottlecrm/internal/api/admin"
	"github.com/bottlecrm/bottlecrm/internal/api/crm"
	"github.com/bottlecrm/bottlecrm/internal/api/identity"
	"github.com/bottlecrm/bottlecrm/internal/auth"
	"github.com/bottlecrm/bottlecrm/internal/auth/oidc"
	"github.com/bottlecrm/bottlecrm/internal/config"
	"github.com/bottlecrm/bottlecrm/internal/db/models"
	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
	"github.com/bottlecrm/bottlecrm/internal/middleware"
)

// Version is the server version reported by /version and the version subcommand
const Version = "0.1.0"

// BackgroundServices holds resources that must be released during graceful shutdown.
// The caller (cmd/server) is responsible for calling Shutdown() after the HTTP server
// has drained.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
	redis        *redis.Client
}

// Shutdown stops the rate limiter cleanup goroutines and closes the Redis client
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	if bg.redis != nil {
		if err := bg.redis.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// limiter builds the limiter for one route group from the configured backend
func (bg *BackgroundServices) limiter(cfg *config.Config, prefix string, rlc middleware.RateLimitConfig) middleware.Limiter {
	if cfg.Security.RateLimiting.Backend == "redis" {
		if bg.redis == nil {
			bg.redis = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
		}
		return middleware.NewRedisRateLimiter(bg.redis, "bcrm:ratelimit:"+prefix+":", rlc)
	}
	rl := middleware.NewRateLimiter(rlc)
	bg.rateLimiters = append(bg.rateLimiters, rl)
	return rl
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sqlx.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()
	bg := &BackgroundServices{}

	userRepo := repositories.NewUserRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	verifier := auth.NewTokenVerifier(context.Background(), cfg.Auth.JWKSURL)

	// A nil *GoogleProvider must not end up inside the interface
	var google identity.GoogleAuthenticator
	if cfg.Auth.Google.Enabled() {
		provider, err := oidc.NewGoogleProvider(&cfg.Auth.Google)
		if err != nil {
			slog.Error("failed to initialize Google sign-in, continuing without it", "error", err)
		} else {
			google = provider
		}
	}

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORS.AllowedOrigins))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	router.GET("/health", healthCheckHandler())
	router.GET("/ready", readinessHandler(db))
	router.GET("/version", versionHandler())

	rateLimited := func(prefix string, rlc middleware.RateLimitConfig) []gin.HandlerFunc {
		if !cfg.Security.RateLimiting.Enabled {
			return nil
		}
		return []gin.HandlerFunc{middleware.RateLimitMiddleware(bg.limiter(cfg, prefix, rlc))}
	}
	requireSession := middleware.AuthMiddleware(verifier, userRepo)

	authHandlers := identity.NewAuthHandlers(cfg, db, google)
	orgHandlers := identity.NewOrganizationHandlers(db)

	authGroup := router.Group("/auth", rateLimited("auth", middleware.AuthRateLimitConfig())...)
	{
		authGroup.POST("/google", authHandlers.GoogleSignInHandler())
		authGroup.GET("/google/login", authHandlers.LoginHandler())
		authGroup.GET("/google/callback", authHandlers.CallbackHandler())

		session := authGroup.Group("", requireSession)
		session.GET("/me", authHandlers.MeHandler())
		session.POST("/refresh", authHandlers.RefreshHandler())
	}

	general := middleware.RateLimitConfig{
		RequestsPerMinute: cfg.Security.RateLimiting.RequestsPerMinute,
		BurstSize:         cfg.Security.RateLimiting.Burst,
	}
	apiGroup := router.Group("/api", requireSession)
	apiGroup.Use(rateLimited("api", general)...)
	apiGroup.Use(middleware.AuditMiddleware(auditRepo))
	{
		apiGroup.GET("/organizations", orgHandlers.ListMyOrganizationsHandler())
		apiGroup.POST("/organizations", orgHandlers.CreateOrganizationHandler())

		superAdmin := apiGroup.Group("/admin", middleware.RequireSuperAdmin(cfg.Auth.SuperAdminDomain))
		{
			stats := admin.NewStatsHandler(db)
			orgs := admin.NewOrganizationHandlers(db)
			superAdmin.GET("/stats", stats.GetDashboardStats)
			superAdmin.GET("/organizations", orgs.ListOrganizationsHandler())
		}

		tenant := apiGroup.Group("", middleware.RequireOrganization(orgRepo))
		registerCRMRoutes(tenant, db)
		tenant.GET("/organizations/members", orgHandlers.ListMembersHandler())

		tenantAdmin := tenant.Group("", middleware.RequireRole(models.RoleAdmin))
		{
			tenantAdmin.POST("/organizations/members", orgHandlers.AddMemberHandler())
			tenantAdmin.DELETE("/organizations/members/:userId", orgHandlers.RemoveMemberHandler())
			tenantAdmin.GET("/audit-logs", crm.NewAuditHandlers(db).ListAuditLogsHandler())
		}
	}

	return router, bg
}

// registerCRMRoutes mounts the tenant-scoped entity routes
func registerCRMRoutes(tenant *gin.RouterGroup, db *sqlx.DB) {
	leads := crm.NewLeadHandlers(db)
	tenant.GET("/leads", leads.ListLeadsHandler())
	tenant.POST("/leads", leads.CreateLeadHandler())
	tenant.GET("/leads/:id", leads.GetLeadHandler())
	tenant.PATCH("/leads/:id", leads.UpdateLeadHandler())
	tenant.POST("/leads/:id/convert", leads.ConvertLeadHandler())

	contacts := crm.NewContactHandlers(db)
	tenant.GET("/contacts", contacts.ListContactsHandler())
	tenant.POST("/contacts", contacts.CreateContactHandler())
	tenant.GET("/contacts/:id", contacts.GetContactHandler())

	accounts := crm.NewAccountHandlers(db)
	tenant.GET("/accounts", accounts.ListAccountsHandler())
	tenant.POST("/accounts", accounts.CreateAccountHandler())
	tenant.GET("/accounts/:id", accounts.GetAccountHandler())

	opportunities := crm.NewOpportunityHandlers(db)
	tenant.GET("/opportunities", opportunities.ListOpportunitiesHandler())
	tenant.POST("/opportunities", opportunities.CreateOpportunityHandler())
	tenant.GET("/opportunities/:id", opportunities.GetOpportunityHandler())

	activities := crm.NewActivityHandlers(db)
	tenant.GET("/tasks", activities.ListTasksHandler())
	tenant.POST("/tasks", activities.CreateTaskHandler())
	tenant.GET("/cases", activities.ListCasesHandler())
	tenant.POST("/cases", activities.CreateCaseHandler())

	tenant.POST("/comments", crm.NewCommentHandlers(db).AddCommentHandler())
}

// healthCheckHandler reports that the process is alive
// GET /health
func healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler reports whether the database is reachable
// GET /ready
func readinessHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": gin.H{"database": "unhealthy"},
				"error":  "database not ready",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": gin.H{"database": "healthy"},
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
// GET /version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     Version,
			"api_version": "v1",
		})
	}
}

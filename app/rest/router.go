package rest

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"pmts-access/app/config"
	"pmts-access/app/domain"
	"pmts-access/app/guard"
	"pmts-access/app/port"
	"pmts-access/app/rest/handlers"
	custommw "pmts-access/app/rest/middleware"
	appvalidator "pmts-access/app/utils/validator"
	"pmts-access/app/view"
)

// RouterConfig holds router configuration
type RouterConfig struct {
	Logger   *slog.Logger
	Config   *config.Config
	Sessions port.SessionStore
	Provider port.IdentityProvider
	Roles    port.RoleReader
	Guard    *guard.Guard
	Composer *view.Composer
	Policy   view.Policy
	Projects port.ProjectStore
	Database handlers.Pinger
	Identity handlers.Pinger
}

// NewRouter creates and configures the Echo router
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	validator := appvalidator.New()

	authHandler := handlers.NewAuthHandler(cfg.Sessions, cfg.Provider, cfg.Roles, validator, cfg.Logger)
	dashboardHandler := handlers.NewDashboardHandler(cfg.Projects, cfg.Sessions, cfg.Roles, cfg.Guard, cfg.Composer, cfg.Logger)
	projectHandler := handlers.NewProjectHandler(cfg.Projects, cfg.Sessions, cfg.Roles, cfg.Composer, cfg.Logger)
	policyHandler := handlers.NewPolicyHandler(cfg.Policy, cfg.Logger)
	healthHandler := handlers.NewHealthHandler(cfg.Database, cfg.Identity, cfg.Logger)

	guardMW := custommw.NewGuardMiddleware(cfg.Guard, cfg.Logger)
	rateLimiter := custommw.NewRateLimiter(cfg.Config.AuthRatePerSecond, cfg.Config.AuthRateBurst)

	// Global middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(custommw.DefaultCORS())

	v1 := e.Group("/v1")

	// Health endpoints, no auth
	v1.GET("/health", healthHandler.HealthCheck)
	v1.GET("/ready", healthHandler.ReadinessCheck)
	v1.GET("/live", healthHandler.LivenessCheck)

	// Authentication endpoints, rate limited per IP
	auth := v1.Group("/auth", rateLimiter.Limit())
	auth.POST("/login", authHandler.SignIn)
	auth.POST("/register", authHandler.SignUp)
	auth.POST("/logout", authHandler.SignOut)
	auth.POST("/recovery", authHandler.StartRecovery)
	auth.POST("/password", authHandler.UpdatePassword, guardMW.RequireAuth())
	auth.GET("/session", authHandler.Session)

	// Signed-in surface
	v1.GET("/dashboard", dashboardHandler.Dashboard, guardMW.RequireAuth())
	v1.GET("/projects", projectHandler.ListProjects, guardMW.RequireAuth())

	// Executive surface: unauthenticated callers are redirected to
	// sign-in, authenticated-but-unprivileged ones to the landing screen
	v1.GET("/departments", projectHandler.ListDepartments,
		guardMW.RequireRoles(domain.RoleExecutive, domain.RoleAdmin))

	// Admin-only surface
	admin := v1.Group("/admin", guardMW.RequireRoles(domain.RoleAdmin))
	admin.GET("/view-policy", policyHandler.ViewPolicy)

	return e
}

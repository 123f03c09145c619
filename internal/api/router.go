package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/UnisoftSistemas/implantei-core/internal/api/handler"
	"github.com/UnisoftSistemas/implantei-core/internal/api/middleware"
	"github.com/UnisoftSistemas/implantei-core/internal/core/permission"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
	"github.com/UnisoftSistemas/implantei-core/internal/core/session"
)

// Deps carries everything the router wires into handlers and middleware.
type Deps struct {
	Mongo      *mongo.Database
	Redis      *redis.Client
	Identities handler.IdentityService
	Verifier   ports.TokenVerifier
	Profiles   session.ProfileService
	Tenants    ports.TenantService
	Cache      ports.TenantCache
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("implantei"))

	authMiddleware := middleware.Auth(deps.Verifier, deps.Profiles)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Identities, deps.Profiles, deps.Log)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/session", authHandler.Session, authMiddleware)

	// --- Tenant routes ---
	tenantHandler := handler.NewTenantHandler(deps.Tenants, deps.Cache, deps.Log)
	tenants := e.Group("/v1/tenants", authMiddleware)
	tenants.GET("", tenantHandler.List, middleware.RequireCapability(permission.CapViewAllData))
	tenants.GET("/:id", tenantHandler.Get)
	tenants.POST("", tenantHandler.Create, middleware.RequireCapability(permission.CapManageTenants))
	tenants.PUT("/:id", tenantHandler.Update, middleware.RequireCapability(permission.CapManageTenants))
	tenants.PATCH("/:id/status", tenantHandler.SetStatus, middleware.RequireCapability(permission.CapManageTenants))
	tenants.DELETE("/:id", tenantHandler.Delete, middleware.RequireCapability(permission.CapManageTenants))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}

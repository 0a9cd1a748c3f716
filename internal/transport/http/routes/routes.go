package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/config"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/transport/http/handlers"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/transport/http/middleware"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/usecase"
)

const reauthPath = "/api/v1/auth/reauth"

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Registration  *usecase.RegistrationService
	Users         *usecase.UserService
	Passwords     *usecase.PasswordService
	PasswordReset *usecase.PasswordResetService
	Menu          *usecase.MenuService
	Orders        *usecase.OrderService
	Audit         *usecase.AuditRecorder
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Services ServiceSet
	Metrics  *middleware.HTTPMetrics
	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.Session(deps.Services.Auth, deps.Services.Users, deps.Config.Session.CookieName))

	// Sensitive operations sit behind the password re-entry gate: password
	// and security-question changes, role changes, menu deletion, and order
	// status transitions.
	freshReauth := middleware.RequireFreshReauth(deps.Services.Auth, reauthPath)
	reauthGate := []gin.HandlerFunc{middleware.RequireSession(), freshReauth}

	authGroup := api.Group("/auth")
	handlers.NewAuthHandler(deps.Services.Auth, deps.Config.Session).RegisterRoutes(authGroup)
	handlers.NewRegistrationHandler(deps.Services.Registration).RegisterRoutes(authGroup)
	handlers.NewResetHandler(deps.Services.Auth, deps.Services.PasswordReset, deps.Config.Session).RegisterRoutes(authGroup)

	accountGroup := api.Group("/account")
	handlers.NewPasswordHandler(deps.Services.Passwords).RegisterRoutes(accountGroup, reauthGate...)
	handlers.NewAccountHandler(deps.Services.Users).RegisterRoutes(accountGroup, reauthGate...)

	handlers.NewMenuHandler(deps.Services.Menu).RegisterRoutes(api, freshReauth)
	handlers.NewOrdersHandler(deps.Services.Orders).RegisterRoutes(api, freshReauth)

	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.RequireSession(), middleware.RequireRole(domain.RoleAdmin))
	handlers.NewAdminUsersHandler(deps.Services.Users).RegisterRoutes(adminGroup, freshReauth)
	handlers.NewAuditHandler(deps.Services.Audit).RegisterRoutes(adminGroup)

	return r
}

package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"jobdesk-core/internal/api/handlers"
	"jobdesk-core/internal/api/middleware"
	"jobdesk-core/internal/config"
	"jobdesk-core/internal/match"
	"jobdesk-core/internal/security"
	"jobdesk-core/pkg/utils"
)

// Deps bundles the collaborators the route tree needs.
type Deps struct {
	Config   *config.Config
	Matches  *match.Service
	Security *security.Service
	Redis    *utils.RedisClient
	Pingers  map[string]handlers.Pinger
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, deps Deps) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	e.Use(middleware.TimeoutConfig(deps.Config.Server.ReadTimeout))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(deps.Pingers))
		health.GET("/live", handlers.LivenessHandler)
	}

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		v1.POST("/match", handlers.MatchHandler())
		v1.GET("/matches/:profileID", handlers.ProfileMatchesHandler(deps.Matches))

		v1.GET("/notifications/unseen/:userID", handlers.UnseenHandler(deps.Redis))

		// Account-security routes
		sec := v1.Group("/security")
		{
			sec.POST("/otp/send", handlers.SendOTPHandler(deps.Security))
			sec.POST("/otp/verify", handlers.VerifyOTPHandler(deps.Security))
			sec.POST("/email", handlers.ChangeEmailHandler(deps.Security))
			sec.POST("/password", handlers.ChangePasswordHandler(deps.Security))
		}
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "Jobdesk Dashboard Core",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}

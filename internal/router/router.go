package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/windoze95/nickate-skill/internal/config"
	"github.com/windoze95/nickate-skill/internal/fitbit"
	"github.com/windoze95/nickate-skill/internal/handlers"
	"github.com/windoze95/nickate-skill/internal/logger"
	"github.com/windoze95/nickate-skill/internal/middleware"
	"github.com/windoze95/nickate-skill/internal/secrets"
	"github.com/windoze95/nickate-skill/internal/service"
	"github.com/windoze95/nickate-skill/internal/token"
)

// SetupRouter sets up the Gin router.
func SetupRouter(cfg *config.Config, store secrets.Store) *gin.Engine {
	// Create default Gin router
	r := gin.Default()

	if len(cfg.EnvVars.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.EnvVars.CORSOrigins
		corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, middleware.AdminKeyHeader)
		r.Use(cors.New(corsConfig))
	}

	// Add request ID middleware for request correlation
	r.Use(logger.RequestIDMiddleware())

	// Ping route for testing
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	fitbitClient := fitbit.NewClient(cfg.EnvVars.FitbitAPIURL, cfg.EnvVars.FitbitAuthURL, cfg.EnvVars.HTTPTimeout)
	tokenManager := token.NewManager(store, fitbitClient)

	// Skill endpoint
	skillService := service.NewSkillService(cfg, fitbitClient, tokenManager)
	skillHandler := handlers.NewSkillHandler(skillService, cfg.EnvVars.SkillID)
	r.POST("/v1/alexa", middleware.RateLimitGlobal(cfg.EnvVars.RateLimitRPS), skillHandler.HandleRequest)

	// Fitbit authorization bootstrap
	authorizeService := service.NewAuthorizeService(cfg, store, fitbitClient)
	authorizeHandler := handlers.NewAuthorizeHandler(authorizeService)
	perIP := middleware.RateLimitByIP(1, time.Minute, 10*time.Minute)

	r.GET("/v1/oauth/callback", perIP, authorizeHandler.Callback)

	admin := r.Group("/v1/admin")
	{
		admin.Use(perIP, middleware.RequireAdminKey(cfg.EnvVars.AdminKeyHash))

		// Start the Fitbit consent flow
		admin.GET("/authorize", authorizeHandler.GetAuthorizationURL)
	}

	return r
}

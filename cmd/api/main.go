package main

import (
	"context"
	"os"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/nickate-skill/internal/config"
	"github.com/windoze95/nickate-skill/internal/logger"
	"github.com/windoze95/nickate-skill/internal/router"
	"github.com/windoze95/nickate-skill/internal/secrets"
	"go.uber.org/zap"
)

// init is called before the main function.
func init() {
	// Initialize structured logger (dev mode if GIN_MODE != release)
	isDev := os.Getenv("GIN_MODE") != "release"
	logger.Init(isDev)

	// Configure the runtime
	ConfigureRuntime()
}

// Entry point for the skill server.
func main() {
	defer logger.Sync()

	// Load the config
	var cfg *config.Config
	if c, err := config.LoadConfig(); err != nil {
		logger.Get().Fatal("failed to load config", zap.Error(err))
	} else {
		cfg = c
	}

	// Check that all ENV variables are set
	if err := cfg.CheckConfigEnvFields(); err != nil {
		logger.Get().Fatal("missing required config fields", zap.Error(err))
	}

	// Open the credential store
	store, err := secrets.Open(context.Background(), cfg)
	if err != nil {
		logger.Get().Fatal("failed to open credential store",
			zap.String("backend", cfg.EnvVars.SecretsBackend), zap.Error(err))
	}

	// Create a new gin router
	gin.SetMode(gin.ReleaseMode)
	r := router.SetupRouter(cfg, store)

	// Run the server
	logger.Get().Info("starting server",
		zap.String("port", cfg.EnvVars.Port),
		zap.String("secrets_backend", cfg.EnvVars.SecretsBackend),
		zap.String("time_zone", cfg.Location.String()))
	if err := r.Run(":" + cfg.EnvVars.Port); err != nil {
		logger.Get().Fatal("server stopped", zap.Error(err))
	}
}

// ConfigureRuntime sets the number of operating system threads.
func ConfigureRuntime() {
	nuCPU := runtime.NumCPU()
	runtime.GOMAXPROCS(nuCPU)
	logger.Get().Info("runtime configured", zap.Int("cpus", nuCPU))
}

package db

import (
	"fmt"
	"time"

	"github.com/windoze95/nickate-skill/internal/config"
	"github.com/windoze95/nickate-skill/internal/logger"
	"github.com/windoze95/nickate-skill/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// New creates a new database connection and migrates the secrets table.
func New(cfg *config.Config) (*gorm.DB, error) {
	database, err := connectToDatabaseWithRetry(cfg.EnvVars.DatabaseUrl, time.Minute)
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(&models.Secret{}); err != nil {
		return nil, fmt.Errorf("migrate secrets table: %w", err)
	}
	return database, nil
}

// connectToDatabaseWithRetry connects to the database and retries until the
// deadline passes.
func connectToDatabaseWithRetry(databaseURL string, deadline time.Duration) (*gorm.DB, error) {
	logger.Get().Info("connecting to database")
	var database *gorm.DB
	var err error

	start := time.Now()
	for {
		database, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
		if err == nil {
			return database, nil
		}
		if time.Since(start) > deadline {
			return nil, fmt.Errorf("could not connect to database after %s: %w", deadline, err)
		}
		logger.Get().Warn("could not connect to database, retrying...", zap.Error(err))
		time.Sleep(5 * time.Second)
	}
}

package db

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds database connection configuration
type Config struct {
	// URL is the database connection URL
	URL string
}

// Connect establishes a database connection.
func Connect(cfg Config) (*gorm.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	// Default to silent logging unless PERMHUB_LOG_LEVEL=debug is set
	logMode := logger.Silent
	if os.Getenv("PERMHUB_LOG_LEVEL") == "debug" {
		logMode = logger.Info
	}

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logMode),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

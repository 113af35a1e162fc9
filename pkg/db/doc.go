// Package db provides database connection utilities for permission-hub.
//
// This package handles PostgreSQL connections using GORM. The connection
// URL comes from the Config struct built at startup; the only environment
// read here is PERMHUB_LOG_LEVEL=debug to enable SQL query logging.
//
//	database, err := db.Connect(db.Config{URL: cfg.DatabaseURL})
//	if err != nil {
//	    log.Fatal(err)
//	}
package db

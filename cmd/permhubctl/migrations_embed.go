//go:build embed_migrations

package main

import (
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/youcash/permission-hub/db"
)

func init() {
	fmt.Println("Using embedded migrations (production build)")
}

func createMigrateInstance(dbURL string) (*migrate.Migrate, error) {
	migrationsFS, err := fs.Sub(db.Migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to get embedded migrations: %w", err)
	}

	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	return migrate.NewWithSourceInstance("iofs", d, dbURL)
}

package db

import "embed"

// Migrations holds the SQL migration files compiled into the binary for
// production builds.
//
//go:embed migrations
var Migrations embed.FS

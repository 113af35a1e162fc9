package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/youcash/permission-hub/pkg/directory"
	"github.com/youcash/permission-hub/pkg/quota"
)

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	DB          *gorm.DB
	RawDB       *sql.DB
	Container   testcontainers.Container
	ServerURL   string
	DatabaseURL string
	HTTPClient  *http.Client

	// Authority, Directory and Quotas stand in for the external systems
	// the server pushes state to, so scenarios can assert on what arrived.
	Authority *fakeAuthority
	Directory *directory.Fake
	Quotas    *quota.Recorder

	instance *serverInstance
}

// NewTestContext starts a PostgreSQL testcontainer, runs the schema
// migrations against it, and boots an in-process server wired to a fake
// policy authority and an in-memory directory.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("permhub_test"),
		tcpostgres.WithUsername("permhub"),
		tcpostgres.WithPassword("permhub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://permhub:permhub@%s:%s/permhub_test?sslmode=disable", host, port.Port())

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rawDB, err := db.DB()
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}

	if err := runMigrations(rawDB, migrationsDir); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	authority := newFakeAuthority()
	dir := directory.NewFake()
	quotas := &quota.Recorder{}

	instance, err := startServer(db, authority.URL(), dir, quotas)
	if err != nil {
		authority.Close()
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to start server: %w", err)
	}

	if err := waitForServer(instance.URL, 30*time.Second); err != nil {
		instance.Stop()
		authority.Close()
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return &TestContext{
		DB:          db,
		RawDB:       rawDB,
		Container:   pgContainer,
		ServerURL:   instance.URL,
		DatabaseURL: connStr,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		Authority:   authority,
		Directory:   dir,
		Quotas:      quotas,
		instance:    instance,
	}, nil
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.instance != nil {
		tc.instance.Stop()
	}
	if tc.Authority != nil {
		tc.Authority.Close()
	}
	if tc.RawDB != nil {
		_ = tc.RawDB.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// findProjectRoot locates the project root directory
func findProjectRoot() (string, error) {
	paths := []string{
		"../..",
		"..",
		".",
	}

	for _, p := range paths {
		goMod := filepath.Join(p, "go.mod")
		if _, err := os.Stat(goMod); err == nil {
			return filepath.Abs(p)
		}
	}

	return "", fmt.Errorf("project root not found (looking for go.mod)")
}

// runMigrations executes the up migrations in order against a fresh
// database.
func runMigrations(db *sql.DB, migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s failed: %w", filepath.Base(file), err)
		}
	}

	return nil
}

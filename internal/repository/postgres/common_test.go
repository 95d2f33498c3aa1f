package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge/api/internal/config"
	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/pkg/database"
)

// getTestDB returns a database connection for integration tests.
// Returns nil if the database is not available (skips tests).
func getTestDB(t *testing.T) *database.PostgresDB {
	// Check if we're running integration tests
	if os.Getenv("POSTGRES_TEST_HOST") == "" {
		t.Skip("Skipping integration test: POSTGRES_TEST_HOST not set")
		return nil
	}

	cfg := config.PostgresConfig{
		Host:     os.Getenv("POSTGRES_TEST_HOST"),
		Port:     5432,
		User:     os.Getenv("POSTGRES_TEST_USER"),
		Password: os.Getenv("POSTGRES_TEST_PASS"),
		Database: os.Getenv("POSTGRES_TEST_DB"),
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}

	if cfg.Database == "" {
		cfg.Database = "test_printforge"
	}
	if cfg.User == "" {
		cfg.User = "postgres"
	}

	db, err := database.NewPostgres(context.Background(), cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to PostgreSQL: %v", err)
		return nil
	}

	return db
}

// cleanupUsers removes test users from the database
func cleanupUsers(t *testing.T, db *database.PostgresDB, emails ...string) {
	ctx := context.Background()
	for _, email := range emails {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM users WHERE email = $1", email)
	}
}

// cleanupTenants removes test tenants from the database.
// Tenant-scoped rows (customers, products, jobs, ...) cascade.
func cleanupTenants(t *testing.T, db *database.PostgresDB, slugs ...string) {
	ctx := context.Background()
	for _, slug := range slugs {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM tenants WHERE slug = $1", slug)
	}
}

// seedTenant creates a tenant to hang other test fixtures off
func seedTenant(t *testing.T, db *database.PostgresDB, slug string) *domain.Tenant {
	t.Helper()

	cleanupTenants(t, db, slug)

	now := time.Now()
	tenant := &domain.Tenant{
		ID:        uuid.New(),
		Name:      "Test Shop " + slug,
		Slug:      slug,
		Plan:      domain.TenantPlanFree,
		CreatedAt: now,
		UpdatedAt: now,
	}
	repo := NewTenantRepository(db)
	require.NoError(t, repo.Create(context.Background(), tenant))

	return tenant
}

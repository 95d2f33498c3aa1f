package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

// createTestAPIKey creates an API key with test data
func createTestAPIKey(tenantID, createdBy uuid.UUID, name string) *domain.APIKey {
	now := time.Now()
	return &domain.APIKey{
		ID:               uuid.New(),
		TenantID:         tenantID,
		Name:             name,
		PublicKey:        "pk-pf-" + uuid.New().String()[:16],
		SecretKeyHash:    "$2a$10$testhash",
		SecretKeyPreview: "sk-pf-...abc",
		Scopes:           []domain.APIKeyScope{domain.APIKeyScopeRead, domain.APIKeyScopeIngest},
		ExpiresAt:        nil,
		CreatedBy:        &createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestAPIKeyRepository_Create(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	userRepo := NewUserRepository(db)
	apiKeyRepo := NewAPIKeyRepository(db)
	ctx := context.Background()

	slug := "apikey-create"
	userEmail := "test-apikey-create@example.com"

	cleanupUsers(t, db, userEmail)
	defer cleanupUsers(t, db, userEmail)
	defer cleanupTenants(t, db, slug)

	tenant := seedTenant(t, db, slug)

	user := createTestUser(userEmail)
	err := userRepo.Create(ctx, user)
	require.NoError(t, err)

	apiKey := createTestAPIKey(tenant.ID, user.ID, "Test API Key")

	err = apiKeyRepo.Create(ctx, apiKey)
	require.NoError(t, err)

	// Verify by fetching
	fetched, err := apiKeyRepo.GetByID(ctx, apiKey.ID)
	require.NoError(t, err)
	assert.Equal(t, apiKey.ID, fetched.ID)
	assert.Equal(t, apiKey.Name, fetched.Name)
	assert.Equal(t, apiKey.PublicKey, fetched.PublicKey)
	assert.Equal(t, tenant.ID, fetched.TenantID)
}

func TestAPIKeyRepository_GetByPublicKey(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	userRepo := NewUserRepository(db)
	apiKeyRepo := NewAPIKeyRepository(db)
	ctx := context.Background()

	slug := "apikey-getbypk"
	userEmail := "test-apikey-getbypk@example.com"

	cleanupUsers(t, db, userEmail)
	defer cleanupUsers(t, db, userEmail)
	defer cleanupTenants(t, db, slug)

	tenant := seedTenant(t, db, slug)

	user := createTestUser(userEmail)
	err := userRepo.Create(ctx, user)
	require.NoError(t, err)

	apiKey := createTestAPIKey(tenant.ID, user.ID, "Test API Key GetByPublicKey")
	err = apiKeyRepo.Create(ctx, apiKey)
	require.NoError(t, err)

	t.Run("existing public key", func(t *testing.T) {
		fetched, err := apiKeyRepo.GetByPublicKey(ctx, apiKey.PublicKey)
		require.NoError(t, err)
		assert.Equal(t, apiKey.ID, fetched.ID)
	})

	t.Run("non-existent public key", func(t *testing.T) {
		_, err := apiKeyRepo.GetByPublicKey(ctx, "pk-pf-nonexistent")
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("resolve tenant ID", func(t *testing.T) {
		tenantID, err := apiKeyRepo.GetTenantIDByPublicKey(ctx, apiKey.PublicKey)
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, *tenantID)
	})

	t.Run("expired key does not resolve", func(t *testing.T) {
		expired := createTestAPIKey(tenant.ID, user.ID, "Expired Key")
		past := time.Now().Add(-time.Hour)
		expired.ExpiresAt = &past
		err := apiKeyRepo.Create(ctx, expired)
		require.NoError(t, err)

		_, err = apiKeyRepo.GetTenantIDByPublicKey(ctx, expired.PublicKey)
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestAPIKeyRepository_Update(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	userRepo := NewUserRepository(db)
	apiKeyRepo := NewAPIKeyRepository(db)
	ctx := context.Background()

	slug := "apikey-update"
	userEmail := "test-apikey-update@example.com"

	cleanupUsers(t, db, userEmail)
	defer cleanupUsers(t, db, userEmail)
	defer cleanupTenants(t, db, slug)

	tenant := seedTenant(t, db, slug)

	user := createTestUser(userEmail)
	err := userRepo.Create(ctx, user)
	require.NoError(t, err)

	apiKey := createTestAPIKey(tenant.ID, user.ID, "Test API Key Update")
	err = apiKeyRepo.Create(ctx, apiKey)
	require.NoError(t, err)

	// Update
	apiKey.Name = "Updated API Key"
	apiKey.Scopes = []domain.APIKeyScope{domain.APIKeyScopeRead}
	err = apiKeyRepo.Update(ctx, apiKey)
	require.NoError(t, err)

	// Verify
	fetched, err := apiKeyRepo.GetByID(ctx, apiKey.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated API Key", fetched.Name)
	assert.Equal(t, []domain.APIKeyScope{domain.APIKeyScopeRead}, fetched.Scopes)
}

func TestAPIKeyRepository_Delete(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	userRepo := NewUserRepository(db)
	apiKeyRepo := NewAPIKeyRepository(db)
	ctx := context.Background()

	slug := "apikey-delete"
	userEmail := "test-apikey-delete@example.com"

	cleanupUsers(t, db, userEmail)
	defer cleanupUsers(t, db, userEmail)
	defer cleanupTenants(t, db, slug)

	tenant := seedTenant(t, db, slug)

	user := createTestUser(userEmail)
	err := userRepo.Create(ctx, user)
	require.NoError(t, err)

	apiKey := createTestAPIKey(tenant.ID, user.ID, "Test API Key Delete")
	err = apiKeyRepo.Create(ctx, apiKey)
	require.NoError(t, err)

	// Verify exists
	_, err = apiKeyRepo.GetByID(ctx, apiKey.ID)
	require.NoError(t, err)

	// Delete
	err = apiKeyRepo.Delete(ctx, apiKey.ID)
	require.NoError(t, err)

	// Verify deleted
	_, err = apiKeyRepo.GetByID(ctx, apiKey.ID)
	assert.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAPIKeyRepository_ListByTenantID(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	userRepo := NewUserRepository(db)
	apiKeyRepo := NewAPIKeyRepository(db)
	ctx := context.Background()

	slug := "apikey-list"
	userEmail := "test-apikey-list@example.com"

	cleanupUsers(t, db, userEmail)
	defer cleanupUsers(t, db, userEmail)
	defer cleanupTenants(t, db, slug)

	tenant := seedTenant(t, db, slug)

	user := createTestUser(userEmail)
	err := userRepo.Create(ctx, user)
	require.NoError(t, err)

	// Create multiple API keys
	for i := 0; i < 3; i++ {
		apiKey := createTestAPIKey(tenant.ID, user.ID, "Test API Key List")
		err = apiKeyRepo.Create(ctx, apiKey)
		require.NoError(t, err)
	}

	keys, err := apiKeyRepo.ListByTenantID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	count, err := apiKeyRepo.CountByTenantID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestAPIKeyRepository_UpdateLastUsed(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	userRepo := NewUserRepository(db)
	apiKeyRepo := NewAPIKeyRepository(db)
	ctx := context.Background()

	slug := "apikey-lastused"
	userEmail := "test-apikey-lastused@example.com"

	cleanupUsers(t, db, userEmail)
	defer cleanupUsers(t, db, userEmail)
	defer cleanupTenants(t, db, slug)

	tenant := seedTenant(t, db, slug)

	user := createTestUser(userEmail)
	err := userRepo.Create(ctx, user)
	require.NoError(t, err)

	apiKey := createTestAPIKey(tenant.ID, user.ID, "Test API Key LastUsed")
	err = apiKeyRepo.Create(ctx, apiKey)
	require.NoError(t, err)

	// Initially nil
	fetched, err := apiKeyRepo.GetByID(ctx, apiKey.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.LastUsedAt)

	// Update last used
	err = apiKeyRepo.UpdateLastUsed(ctx, apiKey.ID)
	require.NoError(t, err)

	// Verify updated
	fetched, err = apiKeyRepo.GetByID(ctx, apiKey.ID)
	require.NoError(t, err)
	assert.NotNil(t, fetched.LastUsedAt)
}

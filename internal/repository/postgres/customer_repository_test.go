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

// createTestCustomer creates a customer with test data
func createTestCustomer(tenantID uuid.UUID, email string) *domain.Customer {
	now := time.Now()
	return &domain.Customer{
		ID:       uuid.New(),
		TenantID: tenantID,
		Email:    email,
		Name:     "Test Customer",
		Phone:    "+1-555-0100",
		ShippingAddress: &domain.Address{
			Line1:      "1 Maker Way",
			City:       "Portland",
			State:      "OR",
			PostalCode: "97201",
			Country:    "US",
		},
		MarketingOptIn: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCustomerRepository_Create(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewCustomerRepository(db)
	ctx := context.Background()
	slug := "customer-create"

	defer cleanupTenants(t, db, slug)
	tenant := seedTenant(t, db, slug)

	customer := createTestCustomer(tenant.ID, "buyer@example.com")
	err := repo.Create(ctx, customer)
	require.NoError(t, err)

	// Verify by fetching
	fetched, err := repo.GetByID(ctx, tenant.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, fetched.ID)
	assert.Equal(t, customer.Email, fetched.Email)
	require.NotNil(t, fetched.ShippingAddress)
	assert.Equal(t, "Portland", fetched.ShippingAddress.City)

	t.Run("duplicate email in tenant", func(t *testing.T) {
		dup := createTestCustomer(tenant.ID, "buyer@example.com")
		err := repo.Create(ctx, dup)
		assert.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("same email in another tenant", func(t *testing.T) {
		otherSlug := "customer-create-other"
		defer cleanupTenants(t, db, otherSlug)
		other := seedTenant(t, db, otherSlug)

		dup := createTestCustomer(other.ID, "buyer@example.com")
		err := repo.Create(ctx, dup)
		require.NoError(t, err)
	})
}

func TestCustomerRepository_GetByID(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewCustomerRepository(db)
	ctx := context.Background()
	slug := "customer-getbyid"

	defer cleanupTenants(t, db, slug)
	tenant := seedTenant(t, db, slug)

	customer := createTestCustomer(tenant.ID, "getbyid@example.com")
	require.NoError(t, repo.Create(ctx, customer))

	t.Run("existing customer", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, tenant.ID, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, customer.ID, fetched.ID)
	})

	t.Run("non-existent customer", func(t *testing.T) {
		_, err := repo.GetByID(ctx, tenant.ID, uuid.New())
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("wrong tenant", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New(), customer.ID)
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("by email", func(t *testing.T) {
		fetched, err := repo.GetByEmail(ctx, tenant.ID, customer.Email)
		require.NoError(t, err)
		assert.Equal(t, customer.ID, fetched.ID)
	})
}

func TestCustomerRepository_Update(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewCustomerRepository(db)
	ctx := context.Background()
	slug := "customer-update"

	defer cleanupTenants(t, db, slug)
	tenant := seedTenant(t, db, slug)

	customer := createTestCustomer(tenant.ID, "update@example.com")
	require.NoError(t, repo.Create(ctx, customer))

	customer.Name = "Renamed Customer"
	customer.Archived = true
	customer.Notes = "prefers matte black PLA"
	require.NoError(t, repo.Update(ctx, customer))

	fetched, err := repo.GetByID(ctx, tenant.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Customer", fetched.Name)
	assert.True(t, fetched.Archived)
	assert.Equal(t, "prefers matte black PLA", fetched.Notes)
}

func TestCustomerRepository_List(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewCustomerRepository(db)
	ctx := context.Background()
	slug := "customer-list"

	defer cleanupTenants(t, db, slug)
	tenant := seedTenant(t, db, slug)

	names := []string{"Ada Lovelace", "Grace Hopper", "Alan Turing"}
	for i, name := range names {
		customer := createTestCustomer(tenant.ID, name+"@example.com")
		customer.Name = name
		if i == 2 {
			customer.Archived = true
		}
		require.NoError(t, repo.Create(ctx, customer))
	}

	t.Run("basic list", func(t *testing.T) {
		filter := &domain.CustomerFilter{TenantID: tenant.ID}
		list, err := repo.List(ctx, filter, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), list.TotalCount)
		assert.Len(t, list.Customers, 3)
		assert.False(t, list.HasMore)
	})

	t.Run("pagination", func(t *testing.T) {
		filter := &domain.CustomerFilter{TenantID: tenant.ID}
		list, err := repo.List(ctx, filter, 2, 0)
		require.NoError(t, err)
		assert.Len(t, list.Customers, 2)
		assert.True(t, list.HasMore)
	})

	t.Run("search by name", func(t *testing.T) {
		search := "hopper"
		filter := &domain.CustomerFilter{TenantID: tenant.ID, Search: &search}
		list, err := repo.List(ctx, filter, 10, 0)
		require.NoError(t, err)
		require.Len(t, list.Customers, 1)
		assert.Equal(t, "Grace Hopper", list.Customers[0].Name)
	})

	t.Run("filter archived", func(t *testing.T) {
		archived := true
		filter := &domain.CustomerFilter{TenantID: tenant.ID, Archived: &archived}
		list, err := repo.List(ctx, filter, 10, 0)
		require.NoError(t, err)
		require.Len(t, list.Customers, 1)
		assert.Equal(t, "Alan Turing", list.Customers[0].Name)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		filter := &domain.CustomerFilter{TenantID: uuid.New()}
		list, err := repo.List(ctx, filter, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), list.TotalCount)
		assert.Empty(t, list.Customers)
	})
}

func TestCustomerRepository_Delete(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewCustomerRepository(db)
	ctx := context.Background()
	slug := "customer-delete"

	defer cleanupTenants(t, db, slug)
	tenant := seedTenant(t, db, slug)

	customer := createTestCustomer(tenant.ID, "delete@example.com")
	require.NoError(t, repo.Create(ctx, customer))

	require.NoError(t, repo.Delete(ctx, tenant.ID, customer.ID))

	_, err := repo.GetByID(ctx, tenant.ID, customer.ID)
	assert.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	count, err := repo.CountByTenantID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

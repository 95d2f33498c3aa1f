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

func createTestOrder(tenantID, customerID uuid.UUID, product *domain.Product, quantity int) *domain.Order {
	now := time.Now()
	order := &domain.Order{
		ID:            uuid.New(),
		TenantID:      tenantID,
		CustomerID:    customerID,
		Status:        domain.OrderStatusPending,
		ShippingCents: 599,
		Currency:      "USD",
		PlacedAt:      now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.Items = []domain.OrderItem{{
		ID:             uuid.New(),
		OrderID:        order.ID,
		ProductID:      product.ID,
		Name:           product.Name,
		Quantity:       quantity,
		UnitPriceCents: product.PriceCents,
	}}
	order.RecalculateTotals()
	return order
}

func TestOrderRepository_Create(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenant := seedTenant(t, db, "order-create")
	customer := createTestCustomer(tenant.ID, "order-create@example.com")
	require.NoError(t, NewCustomerRepository(db).Create(ctx, customer))
	product := createTestProduct(tenant.ID, "ORD-001")
	require.NoError(t, NewProductRepository(db).Create(ctx, product))

	repo := NewOrderRepository(db)
	order := createTestOrder(tenant.ID, customer.ID, product, 2)

	err := repo.Create(ctx, order, "PF")
	require.NoError(t, err)
	assert.Equal(t, "PF-000001", order.Number)

	retrieved, err := repo.GetByID(ctx, tenant.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, retrieved.ID)
	assert.Equal(t, customer.ID, retrieved.CustomerID)
	assert.Equal(t, domain.OrderStatusPending, retrieved.Status)
	assert.Equal(t, product.PriceCents*2, retrieved.SubtotalCents)
	assert.Equal(t, product.PriceCents*2+599, retrieved.TotalCents)
	require.Len(t, retrieved.Items, 1)
	assert.Equal(t, product.Name, retrieved.Items[0].Name)
	assert.Equal(t, 2, retrieved.Items[0].Quantity)

	t.Run("numbers increment per tenant", func(t *testing.T) {
		second := createTestOrder(tenant.ID, customer.ID, product, 1)
		require.NoError(t, repo.Create(ctx, second, "PF"))
		assert.Equal(t, "PF-000002", second.Number)
	})

	t.Run("get by number", func(t *testing.T) {
		retrieved, err := repo.GetByNumber(ctx, tenant.ID, "PF-000001")
		require.NoError(t, err)
		assert.Equal(t, order.ID, retrieved.ID)
		require.Len(t, retrieved.Items, 1)

		_, err = repo.GetByNumber(ctx, tenant.ID, "PF-999999")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("other tenant starts its own sequence", func(t *testing.T) {
		other := seedTenant(t, db, "order-create-other")
		otherCustomer := createTestCustomer(other.ID, "order-create-other@example.com")
		require.NoError(t, NewCustomerRepository(db).Create(ctx, otherCustomer))
		otherProduct := createTestProduct(other.ID, "ORD-001")
		require.NoError(t, NewProductRepository(db).Create(ctx, otherProduct))

		otherOrder := createTestOrder(other.ID, otherCustomer.ID, otherProduct, 1)
		require.NoError(t, repo.Create(ctx, otherOrder, "SHOP"))
		assert.Equal(t, "SHOP-000001", otherOrder.Number)
	})
}

func TestOrderRepository_DiscountRedemption(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenant := seedTenant(t, db, "order-discount")
	customer := createTestCustomer(tenant.ID, "order-discount@example.com")
	require.NoError(t, NewCustomerRepository(db).Create(ctx, customer))
	product := createTestProduct(tenant.ID, "DISC-001")
	require.NoError(t, NewProductRepository(db).Create(ctx, product))

	discountRepo := NewDiscountRepository(db)
	now := time.Now()
	code := &domain.DiscountCode{
		ID:             uuid.New(),
		TenantID:       tenant.ID,
		Code:           "LAUNCH10",
		Type:           domain.DiscountTypePercentage,
		Value:          10,
		MaxRedemptions: 1,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, discountRepo.Create(ctx, code))

	repo := NewOrderRepository(db)

	first := createTestOrder(tenant.ID, customer.ID, product, 1)
	first.DiscountCodeID = &code.ID
	first.DiscountCents = code.DiscountFor(first.SubtotalCents, first.ShippingCents)
	first.RecalculateTotals()
	require.NoError(t, repo.Create(ctx, first, "PF"))

	redeemed, err := discountRepo.GetByID(ctx, tenant.ID, code.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, redeemed.RedemptionCount)

	t.Run("redemption limit rolls the order back", func(t *testing.T) {
		second := createTestOrder(tenant.ID, customer.ID, product, 1)
		second.DiscountCodeID = &code.ID

		err := repo.Create(ctx, second, "PF")
		assert.True(t, apperrors.IsConflict(err))

		_, err = repo.GetByID(ctx, tenant.ID, second.ID)
		assert.True(t, apperrors.IsNotFound(err))

		// The rolled-back order did not burn a number.
		third := createTestOrder(tenant.ID, customer.ID, product, 1)
		require.NoError(t, repo.Create(ctx, third, "PF"))
		assert.Equal(t, "PF-000002", third.Number)
	})
}

func TestOrderRepository_MarkPaid(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenant := seedTenant(t, db, "order-paid")
	customer := createTestCustomer(tenant.ID, "order-paid@example.com")
	require.NoError(t, NewCustomerRepository(db).Create(ctx, customer))
	productRepo := NewProductRepository(db)
	product := createTestProduct(tenant.ID, "PAID-001")
	require.NoError(t, productRepo.Create(ctx, product))

	repo := NewOrderRepository(db)
	order := createTestOrder(tenant.ID, customer.ID, product, 3)
	require.NoError(t, repo.Create(ctx, order, "PF"))

	err := repo.MarkPaid(ctx, order)
	require.NoError(t, err)

	retrieved, err := repo.GetByID(ctx, tenant.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, retrieved.Status)
	assert.NotNil(t, retrieved.PaidAt)

	stocked, err := productRepo.GetByID(ctx, tenant.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stocked.StockQuantity)

	t.Run("paying twice is a conflict", func(t *testing.T) {
		err := repo.MarkPaid(ctx, order)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("insufficient stock rolls the payment back", func(t *testing.T) {
		big := createTestOrder(tenant.ID, customer.ID, product, 50)
		require.NoError(t, repo.Create(ctx, big, "PF"))

		err := repo.MarkPaid(ctx, big)
		assert.True(t, apperrors.IsConflict(err))

		retrieved, err := repo.GetByID(ctx, tenant.ID, big.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPending, retrieved.Status)

		stocked, err := productRepo.GetByID(ctx, tenant.ID, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, stocked.StockQuantity)
	})
}

func TestOrderRepository_CancelWithRestock(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenant := seedTenant(t, db, "order-restock")
	customer := createTestCustomer(tenant.ID, "order-restock@example.com")
	require.NoError(t, NewCustomerRepository(db).Create(ctx, customer))
	productRepo := NewProductRepository(db)
	product := createTestProduct(tenant.ID, "RSTK-001")
	require.NoError(t, productRepo.Create(ctx, product))

	repo := NewOrderRepository(db)
	order := createTestOrder(tenant.ID, customer.ID, product, 4)
	require.NoError(t, repo.Create(ctx, order, "PF"))
	require.NoError(t, repo.MarkPaid(ctx, order))

	stocked, err := productRepo.GetByID(ctx, tenant.ID, product.ID)
	require.NoError(t, err)
	require.Equal(t, 6, stocked.StockQuantity)

	err = repo.CancelWithRestock(ctx, order)
	require.NoError(t, err)

	retrieved, err := repo.GetByID(ctx, tenant.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, retrieved.Status)

	stocked, err = productRepo.GetByID(ctx, tenant.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stocked.StockQuantity)
}

func TestOrderRepository_List(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenant := seedTenant(t, db, "order-list")
	customerRepo := NewCustomerRepository(db)
	ada := createTestCustomer(tenant.ID, "order-list-ada@example.com")
	require.NoError(t, customerRepo.Create(ctx, ada))
	grace := createTestCustomer(tenant.ID, "order-list-grace@example.com")
	require.NoError(t, customerRepo.Create(ctx, grace))
	product := createTestProduct(tenant.ID, "LIST-001")
	require.NoError(t, NewProductRepository(db).Create(ctx, product))

	repo := NewOrderRepository(db)

	pending := createTestOrder(tenant.ID, ada.ID, product, 1)
	require.NoError(t, repo.Create(ctx, pending, "PF"))

	paid := createTestOrder(tenant.ID, grace.ID, product, 2)
	require.NoError(t, repo.Create(ctx, paid, "PF"))
	require.NoError(t, repo.MarkPaid(ctx, paid))

	shipped := createTestOrder(tenant.ID, grace.ID, product, 1)
	require.NoError(t, repo.Create(ctx, shipped, "PF"))
	require.NoError(t, repo.MarkPaid(ctx, shipped))
	now := time.Now()
	shipped.Status = domain.OrderStatusShipped
	shipped.PaidAt = &now
	shipped.ShippedAt = &now
	require.NoError(t, repo.UpdateStatus(ctx, shipped))

	t.Run("all orders", func(t *testing.T) {
		list, err := repo.List(ctx, &domain.OrderFilter{TenantID: tenant.ID}, 50, 0)
		require.NoError(t, err)
		assert.Len(t, list.Orders, 3)
		assert.Equal(t, int64(3), list.TotalCount)
	})

	t.Run("filter by status", func(t *testing.T) {
		status := domain.OrderStatusShipped
		list, err := repo.List(ctx, &domain.OrderFilter{TenantID: tenant.ID, Status: &status}, 50, 0)
		require.NoError(t, err)
		require.Len(t, list.Orders, 1)
		assert.Equal(t, shipped.ID, list.Orders[0].ID)
	})

	t.Run("filter by customer", func(t *testing.T) {
		list, err := repo.List(ctx, &domain.OrderFilter{TenantID: tenant.ID, CustomerID: &grace.ID}, 50, 0)
		require.NoError(t, err)
		assert.Len(t, list.Orders, 2)
	})

	t.Run("filter by number", func(t *testing.T) {
		list, err := repo.List(ctx, &domain.OrderFilter{TenantID: tenant.ID, Number: &pending.Number}, 50, 0)
		require.NoError(t, err)
		require.Len(t, list.Orders, 1)
		assert.Equal(t, pending.ID, list.Orders[0].ID)
	})

	t.Run("counts and revenue", func(t *testing.T) {
		count, err := repo.CountByTenantID(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		// Pending orders do not count toward revenue.
		revenue, err := repo.SumRevenueCents(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, paid.TotalCents+shipped.TotalCents, revenue)
	})
}

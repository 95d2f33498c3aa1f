package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/pkg/database"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/pkg/id"
)

// OrderRepository handles order data operations in PostgreSQL
type OrderRepository struct {
	db *database.PostgresDB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *database.PostgresDB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create creates a new order with its line items. The order number is
// allocated from a per-tenant sequence inside the transaction, so numbers
// are gapless per tenant and never reused. A discount redemption is counted
// atomically; hitting the redemption limit rolls the order back.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order, numberPrefix string) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		seqQuery := `
			INSERT INTO order_sequences (tenant_id, value)
			VALUES ($1, 1)
			ON CONFLICT (tenant_id)
			DO UPDATE SET value = order_sequences.value + 1
			RETURNING value
		`

		var seq int64
		if err := tx.QueryRow(ctx, seqQuery, order.TenantID).Scan(&seq); err != nil {
			return fmt.Errorf("failed to allocate order number: %w", err)
		}
		order.Number = id.NewOrderNumber(numberPrefix, seq)

		query := `
			INSERT INTO orders (
				id, tenant_id, customer_id, number, status, subtotal_cents, discount_cents,
				shipping_cents, total_cents, currency, discount_code_id, shipping_address,
				notes, placed_at, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`

		_, err := tx.Exec(ctx, query,
			order.ID,
			order.TenantID,
			order.CustomerID,
			order.Number,
			order.Status,
			order.SubtotalCents,
			order.DiscountCents,
			order.ShippingCents,
			order.TotalCents,
			order.Currency,
			order.DiscountCodeID,
			order.ShippingAddress,
			order.Notes,
			order.PlacedAt,
			order.CreatedAt,
			order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range order.Items {
			if err := r.createItem(ctx, tx, &order.Items[i]); err != nil {
				return err
			}
		}

		if order.DiscountCodeID != nil {
			redeemQuery := `
				UPDATE discount_codes
				SET redemption_count = redemption_count + 1, updated_at = NOW()
				WHERE tenant_id = $1 AND id = $2 AND active = true
					AND (max_redemptions = 0 OR redemption_count < max_redemptions)
			`

			tag, err := tx.Exec(ctx, redeemQuery, order.TenantID, *order.DiscountCodeID)
			if err != nil {
				return fmt.Errorf("failed to redeem discount code: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return apperrors.Conflict("discount code is no longer redeemable")
			}
		}

		return nil
	})
}

// createItem inserts a single line item within a transaction
func (r *OrderRepository) createItem(ctx context.Context, tx pgx.Tx, item *domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price_cents, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.Exec(ctx, query,
		item.ID,
		item.OrderID,
		item.ProductID,
		item.Name,
		item.Quantity,
		item.UnitPriceCents,
		item.TotalCents,
	)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}

	return nil
}

// GetByID retrieves an order with its line items
func (r *OrderRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT id, tenant_id, customer_id, number, status, subtotal_cents, discount_cents,
			   shipping_cents, total_cents, currency, discount_code_id, shipping_address,
			   notes, placed_at, paid_at, shipped_at, created_at, updated_at
		FROM orders
		WHERE tenant_id = $1 AND id = $2
	`

	var order domain.Order
	err := r.db.Pool.QueryRow(ctx, query, tenantID, id).Scan(
		&order.ID,
		&order.TenantID,
		&order.CustomerID,
		&order.Number,
		&order.Status,
		&order.SubtotalCents,
		&order.DiscountCents,
		&order.ShippingCents,
		&order.TotalCents,
		&order.Currency,
		&order.DiscountCodeID,
		&order.ShippingAddress,
		&order.Notes,
		&order.PlacedAt,
		&order.PaidAt,
		&order.ShippedAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order")
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

// GetByNumber retrieves an order by its number within a tenant
func (r *OrderRepository) GetByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*domain.Order, error) {
	query := `SELECT id FROM orders WHERE tenant_id = $1 AND number = $2`

	var id uuid.UUID
	err := r.db.Pool.QueryRow(ctx, query, tenantID, number).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order")
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return r.GetByID(ctx, tenantID, id)
}

// Update updates an order's mutable metadata
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET shipping_address = $3, notes = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query, order.TenantID, order.ID, order.ShippingAddress, order.Notes)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	return nil
}

// UpdateStatus writes the status and transition timestamps of an order
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $3, paid_at = $4, shipped_at = $5, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query,
		order.TenantID,
		order.ID,
		order.Status,
		order.PaidAt,
		order.ShippedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return nil
}

// MarkPaid transitions an order to paid and decrements stock for every line
// item in one transaction. A line item without sufficient stock rolls the
// whole payment back.
func (r *OrderRepository) MarkPaid(ctx context.Context, order *domain.Order) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE orders
			SET status = 'paid', paid_at = NOW(), updated_at = NOW()
			WHERE tenant_id = $1 AND id = $2 AND status = 'pending'
		`

		tag, err := tx.Exec(ctx, query, order.TenantID, order.ID)
		if err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.Conflict("order is no longer pending")
		}

		for _, item := range order.Items {
			stockQuery := `
				UPDATE products
				SET stock_quantity = stock_quantity - $3, updated_at = NOW()
				WHERE tenant_id = $1 AND id = $2 AND stock_quantity >= $3
			`

			tag, err := tx.Exec(ctx, stockQuery, order.TenantID, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return apperrors.Conflict(fmt.Sprintf("insufficient stock for %s", item.Name))
			}
		}

		return nil
	})
}

// CancelWithRestock transitions an order to canceled and returns its line
// items to stock in one transaction. Used for orders canceled after payment,
// where stock was already drawn down.
func (r *OrderRepository) CancelWithRestock(ctx context.Context, order *domain.Order) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE orders
			SET status = 'canceled', updated_at = NOW()
			WHERE tenant_id = $1 AND id = $2
		`

		_, err := tx.Exec(ctx, query, order.TenantID, order.ID)
		if err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		return restockItems(ctx, tx, order.TenantID, order.Items)
	})
}

// List retrieves orders with filtering. Line items are not loaded here;
// use GetByID for the full order.
func (r *OrderRepository) List(ctx context.Context, filter *domain.OrderFilter, limit, offset int) (*domain.OrderList, error) {
	baseQuery := `FROM orders WHERE tenant_id = $1`
	args := []interface{}{filter.TenantID}
	argIndex := 2

	if filter.CustomerID != nil {
		baseQuery += fmt.Sprintf(" AND customer_id = $%d", argIndex)
		args = append(args, *filter.CustomerID)
		argIndex++
	}

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Number != nil {
		baseQuery += fmt.Sprintf(" AND number = $%d", argIndex)
		args = append(args, *filter.Number)
		argIndex++
	}

	if filter.FromTime != nil {
		baseQuery += fmt.Sprintf(" AND placed_at >= $%d", argIndex)
		args = append(args, *filter.FromTime)
		argIndex++
	}

	if filter.ToTime != nil {
		baseQuery += fmt.Sprintf(" AND placed_at <= $%d", argIndex)
		args = append(args, *filter.ToTime)
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	// Get orders
	query := fmt.Sprintf(`
		SELECT id, tenant_id, customer_id, number, status, subtotal_cents, discount_cents,
			   shipping_cents, total_cents, currency, discount_code_id, shipping_address,
			   notes, placed_at, paid_at, shipped_at, created_at, updated_at
		%s
		ORDER BY placed_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.TenantID,
			&order.CustomerID,
			&order.Number,
			&order.Status,
			&order.SubtotalCents,
			&order.DiscountCents,
			&order.ShippingCents,
			&order.TotalCents,
			&order.Currency,
			&order.DiscountCodeID,
			&order.ShippingAddress,
			&order.Notes,
			&order.PlacedAt,
			&order.PaidAt,
			&order.ShippedAt,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	return &domain.OrderList{
		Orders:     orders,
		TotalCount: totalCount,
		HasMore:    int64(offset+len(orders)) < totalCount,
	}, nil
}

// CountByTenantID counts orders for a tenant
func (r *OrderRepository) CountByTenantID(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM orders WHERE tenant_id = $1`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}

// SumRevenueCents sums the totals of orders that were not canceled or refunded
func (r *OrderRepository) SumRevenueCents(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(total_cents), 0)
		FROM orders
		WHERE tenant_id = $1 AND status NOT IN ('pending', 'canceled', 'refunded')
	`

	var sum int64
	err := r.db.Pool.QueryRow(ctx, query, tenantID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return sum, nil
}

// loadItems retrieves the line items of an order
func (r *OrderRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, name, quantity, unit_price_cents, total_cents
		FROM order_items
		WHERE order_id = $1
		ORDER BY name
	`

	rows, err := r.db.Pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Quantity,
			&item.UnitPriceCents,
			&item.TotalCents,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	return items, nil
}

// restockItems returns line item quantities to product stock within a transaction
func restockItems(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, items []domain.OrderItem) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $3, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	for _, item := range items {
		if _, err := tx.Exec(ctx, query, tenantID, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("failed to restock product: %w", err)
		}
	}

	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/pkg/database"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

// ProductRepository handles product data operations in PostgreSQL
type ProductRepository struct {
	db *database.PostgresDB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.PostgresDB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, tenant_id, sku, name, description, category, price_cents, currency, stock_quantity, active, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		product.ID,
		product.TenantID,
		product.SKU,
		product.Name,
		product.Description,
		product.Category,
		product.PriceCents,
		product.Currency,
		product.StockQuantity,
		product.Active,
		product.Attributes,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "products_tenant_id_sku_key") {
			return apperrors.Conflict("product with this SKU already exists")
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by ID within a tenant
func (r *ProductRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, tenant_id, sku, name, description, category, price_cents, currency, stock_quantity, active, attributes, created_at, updated_at
		FROM products
		WHERE tenant_id = $1 AND id = $2
	`

	var product domain.Product
	err := r.db.Pool.QueryRow(ctx, query, tenantID, id).Scan(
		&product.ID,
		&product.TenantID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.PriceCents,
		&product.Currency,
		&product.StockQuantity,
		&product.Active,
		&product.Attributes,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product")
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// GetBySKU retrieves a product by SKU within a tenant
func (r *ProductRepository) GetBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*domain.Product, error) {
	query := `
		SELECT id, tenant_id, sku, name, description, category, price_cents, currency, stock_quantity, active, attributes, created_at, updated_at
		FROM products
		WHERE tenant_id = $1 AND sku = $2
	`

	var product domain.Product
	err := r.db.Pool.QueryRow(ctx, query, tenantID, sku).Scan(
		&product.ID,
		&product.TenantID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.PriceCents,
		&product.Currency,
		&product.StockQuantity,
		&product.Active,
		&product.Attributes,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product")
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// Update updates a product
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $3, description = $4, category = $5, price_cents = $6, currency = $7, stock_quantity = $8, active = $9, attributes = $10, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query,
		product.TenantID,
		product.ID,
		product.Name,
		product.Description,
		product.Category,
		product.PriceCents,
		product.Currency,
		product.StockQuantity,
		product.Active,
		product.Attributes,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete deletes a product
func (r *ProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM products WHERE tenant_id = $1 AND id = $2`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}

// List retrieves products with filtering
func (r *ProductRepository) List(ctx context.Context, filter *domain.ProductFilter, limit, offset int) (*domain.ProductList, error) {
	baseQuery := `FROM products WHERE tenant_id = $1`
	args := []interface{}{filter.TenantID}
	argIndex := 2

	if filter.SKU != nil {
		baseQuery += fmt.Sprintf(" AND sku = $%d", argIndex)
		args = append(args, *filter.SKU)
		argIndex++
	}

	if filter.Category != nil {
		baseQuery += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.Active != nil {
		baseQuery += fmt.Sprintf(" AND active = $%d", argIndex)
		args = append(args, *filter.Active)
		argIndex++
	}

	if filter.Search != nil {
		baseQuery += fmt.Sprintf(" AND (name ILIKE $%d OR sku ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	// Get products
	query := fmt.Sprintf(`
		SELECT id, tenant_id, sku, name, description, category, price_cents, currency, stock_quantity, active, attributes, created_at, updated_at
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID,
			&product.TenantID,
			&product.SKU,
			&product.Name,
			&product.Description,
			&product.Category,
			&product.PriceCents,
			&product.Currency,
			&product.StockQuantity,
			&product.Active,
			&product.Attributes,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	return &domain.ProductList{
		Products:   products,
		TotalCount: totalCount,
		HasMore:    int64(offset+len(products)) < totalCount,
	}, nil
}

// AdjustStock applies a signed delta to a product's stock, refusing to go negative
func (r *ProductRepository) AdjustStock(ctx context.Context, tenantID, id uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $3, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND stock_quantity + $3 >= 0
		RETURNING stock_quantity
	`

	var remaining int
	err := r.db.Pool.QueryRow(ctx, query, tenantID, id, delta).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, tenantID, id); getErr != nil {
				return 0, getErr
			}
			return 0, apperrors.Conflict("insufficient stock")
		}
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	return remaining, nil
}

// SKUExists checks if a SKU already exists within a tenant
func (r *ProductRepository) SKUExists(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE tenant_id = $1 AND sku = $2)`

	var exists bool
	err := r.db.Pool.QueryRow(ctx, query, tenantID, sku).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check SKU: %w", err)
	}

	return exists, nil
}

// CountByTenantID counts products for a tenant
func (r *ProductRepository) CountByTenantID(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM products WHERE tenant_id = $1`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return count, nil
}

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

// CustomerRepository handles customer data operations in PostgreSQL
type CustomerRepository struct {
	db *database.PostgresDB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *database.PostgresDB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create creates a new customer
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (id, tenant_id, email, name, phone, shipping_address, billing_address, notes, marketing_opt_in, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		customer.ID,
		customer.TenantID,
		customer.Email,
		customer.Name,
		customer.Phone,
		customer.ShippingAddress,
		customer.BillingAddress,
		customer.Notes,
		customer.MarketingOptIn,
		customer.Archived,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "customers_tenant_id_email_key") {
			return apperrors.Conflict("customer with this email already exists")
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// GetByID retrieves a customer by ID within a tenant
func (r *CustomerRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Customer, error) {
	query := `
		SELECT id, tenant_id, email, name, phone, shipping_address, billing_address, notes, marketing_opt_in, archived, created_at, updated_at
		FROM customers
		WHERE tenant_id = $1 AND id = $2
	`

	var customer domain.Customer
	err := r.db.Pool.QueryRow(ctx, query, tenantID, id).Scan(
		&customer.ID,
		&customer.TenantID,
		&customer.Email,
		&customer.Name,
		&customer.Phone,
		&customer.ShippingAddress,
		&customer.BillingAddress,
		&customer.Notes,
		&customer.MarketingOptIn,
		&customer.Archived,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("customer")
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &customer, nil
}

// GetByEmail retrieves a customer by email within a tenant
func (r *CustomerRepository) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.Customer, error) {
	query := `
		SELECT id, tenant_id, email, name, phone, shipping_address, billing_address, notes, marketing_opt_in, archived, created_at, updated_at
		FROM customers
		WHERE tenant_id = $1 AND email = $2
	`

	var customer domain.Customer
	err := r.db.Pool.QueryRow(ctx, query, tenantID, email).Scan(
		&customer.ID,
		&customer.TenantID,
		&customer.Email,
		&customer.Name,
		&customer.Phone,
		&customer.ShippingAddress,
		&customer.BillingAddress,
		&customer.Notes,
		&customer.MarketingOptIn,
		&customer.Archived,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("customer")
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &customer, nil
}

// Update updates a customer
func (r *CustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET email = $3, name = $4, phone = $5, shipping_address = $6, billing_address = $7, notes = $8, marketing_opt_in = $9, archived = $10, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query,
		customer.TenantID,
		customer.ID,
		customer.Email,
		customer.Name,
		customer.Phone,
		customer.ShippingAddress,
		customer.BillingAddress,
		customer.Notes,
		customer.MarketingOptIn,
		customer.Archived,
	)
	if err != nil {
		if strings.Contains(err.Error(), "customers_tenant_id_email_key") {
			return apperrors.Conflict("customer with this email already exists")
		}
		return fmt.Errorf("failed to update customer: %w", err)
	}

	return nil
}

// Delete deletes a customer
func (r *CustomerRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM customers WHERE tenant_id = $1 AND id = $2`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	return nil
}

// List retrieves customers with filtering
func (r *CustomerRepository) List(ctx context.Context, filter *domain.CustomerFilter, limit, offset int) (*domain.CustomerList, error) {
	baseQuery := `FROM customers WHERE tenant_id = $1`
	args := []interface{}{filter.TenantID}
	argIndex := 2

	if filter.Email != nil {
		baseQuery += fmt.Sprintf(" AND email = $%d", argIndex)
		args = append(args, *filter.Email)
		argIndex++
	}

	if filter.Search != nil {
		baseQuery += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.Archived != nil {
		baseQuery += fmt.Sprintf(" AND archived = $%d", argIndex)
		args = append(args, *filter.Archived)
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	// Get customers
	query := fmt.Sprintf(`
		SELECT id, tenant_id, email, name, phone, shipping_address, billing_address, notes, marketing_opt_in, archived, created_at, updated_at
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(
			&customer.ID,
			&customer.TenantID,
			&customer.Email,
			&customer.Name,
			&customer.Phone,
			&customer.ShippingAddress,
			&customer.BillingAddress,
			&customer.Notes,
			&customer.MarketingOptIn,
			&customer.Archived,
			&customer.CreatedAt,
			&customer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	return &domain.CustomerList{
		Customers:  customers,
		TotalCount: totalCount,
		HasMore:    int64(offset+len(customers)) < totalCount,
	}, nil
}

// CountByTenantID counts customers for a tenant
func (r *CustomerRepository) CountByTenantID(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM customers WHERE tenant_id = $1`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}

	return count, nil
}

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
)

// ReturnRepository handles return request data operations in PostgreSQL
type ReturnRepository struct {
	db *database.PostgresDB
}

// NewReturnRepository creates a new return repository
func NewReturnRepository(db *database.PostgresDB) *ReturnRepository {
	return &ReturnRepository{db: db}
}

// Create creates a new return request
func (r *ReturnRepository) Create(ctx context.Context, ret *domain.ReturnRequest) error {
	query := `
		INSERT INTO return_requests (id, tenant_id, order_id, customer_id, status, reason, items, refund_cents, resolution_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		ret.ID,
		ret.TenantID,
		ret.OrderID,
		ret.CustomerID,
		ret.Status,
		ret.Reason,
		ret.Items,
		ret.RefundCents,
		ret.ResolutionNote,
		ret.CreatedAt,
		ret.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create return request: %w", err)
	}

	return nil
}

// GetByID retrieves a return request by ID within a tenant
func (r *ReturnRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.ReturnRequest, error) {
	query := `
		SELECT id, tenant_id, order_id, customer_id, status, reason, items, refund_cents, resolution_note, resolved_at, created_at, updated_at
		FROM return_requests
		WHERE tenant_id = $1 AND id = $2
	`

	var ret domain.ReturnRequest
	err := r.db.Pool.QueryRow(ctx, query, tenantID, id).Scan(
		&ret.ID,
		&ret.TenantID,
		&ret.OrderID,
		&ret.CustomerID,
		&ret.Status,
		&ret.Reason,
		&ret.Items,
		&ret.RefundCents,
		&ret.ResolutionNote,
		&ret.ResolvedAt,
		&ret.CreatedAt,
		&ret.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("return request")
		}
		return nil, fmt.Errorf("failed to get return request: %w", err)
	}

	return &ret, nil
}

// UpdateStatus writes the status and resolution fields of a return request
func (r *ReturnRepository) UpdateStatus(ctx context.Context, ret *domain.ReturnRequest) error {
	query := `
		UPDATE return_requests
		SET status = $3, refund_cents = $4, resolution_note = $5, resolved_at = $6, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query,
		ret.TenantID,
		ret.ID,
		ret.Status,
		ret.RefundCents,
		ret.ResolutionNote,
		ret.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update return request: %w", err)
	}

	return nil
}

// MarkReceived transitions a return to received and restocks its items in
// one transaction
func (r *ReturnRepository) MarkReceived(ctx context.Context, ret *domain.ReturnRequest) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE return_requests
			SET status = 'received', updated_at = NOW()
			WHERE tenant_id = $1 AND id = $2 AND status = 'approved'
		`

		tag, err := tx.Exec(ctx, query, ret.TenantID, ret.ID)
		if err != nil {
			return fmt.Errorf("failed to mark return received: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.Conflict("return request is not approved")
		}

		stockQuery := `
			UPDATE products
			SET stock_quantity = stock_quantity + $3, updated_at = NOW()
			WHERE tenant_id = $1 AND id = $2
		`

		for _, item := range ret.Items {
			if _, err := tx.Exec(ctx, stockQuery, ret.TenantID, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("failed to restock product: %w", err)
			}
		}

		return nil
	})
}

// List retrieves return requests with filtering
func (r *ReturnRepository) List(ctx context.Context, filter *domain.ReturnRequestFilter, limit, offset int) (*domain.ReturnRequestList, error) {
	baseQuery := `FROM return_requests WHERE tenant_id = $1`
	args := []interface{}{filter.TenantID}
	argIndex := 2

	if filter.OrderID != nil {
		baseQuery += fmt.Sprintf(" AND order_id = $%d", argIndex)
		args = append(args, *filter.OrderID)
		argIndex++
	}

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

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count return requests: %w", err)
	}

	// Get returns
	query := fmt.Sprintf(`
		SELECT id, tenant_id, order_id, customer_id, status, reason, items, refund_cents, resolution_note, resolved_at, created_at, updated_at
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list return requests: %w", err)
	}
	defer rows.Close()

	var returns []domain.ReturnRequest
	for rows.Next() {
		var ret domain.ReturnRequest
		if err := rows.Scan(
			&ret.ID,
			&ret.TenantID,
			&ret.OrderID,
			&ret.CustomerID,
			&ret.Status,
			&ret.Reason,
			&ret.Items,
			&ret.RefundCents,
			&ret.ResolutionNote,
			&ret.ResolvedAt,
			&ret.CreatedAt,
			&ret.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan return request: %w", err)
		}
		returns = append(returns, ret)
	}

	return &domain.ReturnRequestList{
		Returns:    returns,
		TotalCount: totalCount,
		HasMore:    int64(offset+len(returns)) < totalCount,
	}, nil
}

// CountOpenByOrder counts unresolved return requests for an order
func (r *ReturnRepository) CountOpenByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM return_requests
		WHERE tenant_id = $1 AND order_id = $2 AND status IN ('requested', 'approved', 'received')
	`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, tenantID, orderID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open returns: %w", err)
	}

	return count, nil
}

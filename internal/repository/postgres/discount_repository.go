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

// DiscountRepository handles discount code data operations in PostgreSQL
type DiscountRepository struct {
	db *database.PostgresDB
}

// NewDiscountRepository creates a new discount repository
func NewDiscountRepository(db *database.PostgresDB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

// Create creates a new discount code
func (r *DiscountRepository) Create(ctx context.Context, code *domain.DiscountCode) error {
	query := `
		INSERT INTO discount_codes (id, tenant_id, code, type, value, min_order_cents, max_redemptions, redemption_count, starts_at, expires_at, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		code.ID,
		code.TenantID,
		code.Code,
		code.Type,
		code.Value,
		code.MinOrderCents,
		code.MaxRedemptions,
		code.RedemptionCount,
		code.StartsAt,
		code.ExpiresAt,
		code.Active,
		code.CreatedAt,
		code.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "discount_codes_tenant_id_code_key") {
			return apperrors.Conflict("discount code already exists")
		}
		return fmt.Errorf("failed to create discount code: %w", err)
	}

	return nil
}

// GetByID retrieves a discount code by ID within a tenant
func (r *DiscountRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.DiscountCode, error) {
	query := `
		SELECT id, tenant_id, code, type, value, min_order_cents, max_redemptions, redemption_count, starts_at, expires_at, active, created_at, updated_at
		FROM discount_codes
		WHERE tenant_id = $1 AND id = $2
	`

	var code domain.DiscountCode
	err := r.db.Pool.QueryRow(ctx, query, tenantID, id).Scan(
		&code.ID,
		&code.TenantID,
		&code.Code,
		&code.Type,
		&code.Value,
		&code.MinOrderCents,
		&code.MaxRedemptions,
		&code.RedemptionCount,
		&code.StartsAt,
		&code.ExpiresAt,
		&code.Active,
		&code.CreatedAt,
		&code.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("discount code")
		}
		return nil, fmt.Errorf("failed to get discount code: %w", err)
	}

	return &code, nil
}

// GetByCode retrieves a discount code by its code string within a tenant.
// Codes are matched case-insensitively.
func (r *DiscountRepository) GetByCode(ctx context.Context, tenantID uuid.UUID, codeStr string) (*domain.DiscountCode, error) {
	query := `
		SELECT id, tenant_id, code, type, value, min_order_cents, max_redemptions, redemption_count, starts_at, expires_at, active, created_at, updated_at
		FROM discount_codes
		WHERE tenant_id = $1 AND UPPER(code) = UPPER($2)
	`

	var code domain.DiscountCode
	err := r.db.Pool.QueryRow(ctx, query, tenantID, codeStr).Scan(
		&code.ID,
		&code.TenantID,
		&code.Code,
		&code.Type,
		&code.Value,
		&code.MinOrderCents,
		&code.MaxRedemptions,
		&code.RedemptionCount,
		&code.StartsAt,
		&code.ExpiresAt,
		&code.Active,
		&code.CreatedAt,
		&code.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("discount code")
		}
		return nil, fmt.Errorf("failed to get discount code: %w", err)
	}

	return &code, nil
}

// Update updates a discount code
func (r *DiscountRepository) Update(ctx context.Context, code *domain.DiscountCode) error {
	query := `
		UPDATE discount_codes
		SET value = $3, min_order_cents = $4, max_redemptions = $5, starts_at = $6, expires_at = $7, active = $8, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query,
		code.TenantID,
		code.ID,
		code.Value,
		code.MinOrderCents,
		code.MaxRedemptions,
		code.StartsAt,
		code.ExpiresAt,
		code.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update discount code: %w", err)
	}

	return nil
}

// Delete deletes a discount code
func (r *DiscountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM discount_codes WHERE tenant_id = $1 AND id = $2`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete discount code: %w", err)
	}

	return nil
}

// List retrieves discount codes with filtering
func (r *DiscountRepository) List(ctx context.Context, filter *domain.DiscountCodeFilter, limit, offset int) (*domain.DiscountCodeList, error) {
	baseQuery := `FROM discount_codes WHERE tenant_id = $1`
	args := []interface{}{filter.TenantID}
	argIndex := 2

	if filter.Code != nil {
		baseQuery += fmt.Sprintf(" AND UPPER(code) = UPPER($%d)", argIndex)
		args = append(args, *filter.Code)
		argIndex++
	}

	if filter.Active != nil {
		baseQuery += fmt.Sprintf(" AND active = $%d", argIndex)
		args = append(args, *filter.Active)
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count discount codes: %w", err)
	}

	// Get codes
	query := fmt.Sprintf(`
		SELECT id, tenant_id, code, type, value, min_order_cents, max_redemptions, redemption_count, starts_at, expires_at, active, created_at, updated_at
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list discount codes: %w", err)
	}
	defer rows.Close()

	var codes []domain.DiscountCode
	for rows.Next() {
		var code domain.DiscountCode
		if err := rows.Scan(
			&code.ID,
			&code.TenantID,
			&code.Code,
			&code.Type,
			&code.Value,
			&code.MinOrderCents,
			&code.MaxRedemptions,
			&code.RedemptionCount,
			&code.StartsAt,
			&code.ExpiresAt,
			&code.Active,
			&code.CreatedAt,
			&code.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan discount code: %w", err)
		}
		codes = append(codes, code)
	}

	return &domain.DiscountCodeList{
		Codes:      codes,
		TotalCount: totalCount,
		HasMore:    int64(offset+len(codes)) < totalCount,
	}, nil
}

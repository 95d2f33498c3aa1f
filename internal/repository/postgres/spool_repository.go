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

// SpoolRepository handles filament spool data operations in PostgreSQL
type SpoolRepository struct {
	db *database.PostgresDB
}

// NewSpoolRepository creates a new spool repository
func NewSpoolRepository(db *database.PostgresDB) *SpoolRepository {
	return &SpoolRepository{db: db}
}

// Create creates a new spool
func (r *SpoolRepository) Create(ctx context.Context, spool *domain.Spool) error {
	query := `
		INSERT INTO spools (id, tenant_id, material, color, diameter_mm, total_weight_grams, remaining_weight_grams, vendor, lot_number, cost_cents, location, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		spool.ID,
		spool.TenantID,
		spool.Material,
		spool.Color,
		spool.DiameterMM,
		spool.TotalWeightGrams,
		spool.RemainingWeightGrams,
		spool.Vendor,
		spool.LotNumber,
		spool.CostCents,
		spool.Location,
		spool.Status,
		spool.CreatedAt,
		spool.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create spool: %w", err)
	}

	return nil
}

// GetByID retrieves a spool by ID within a tenant
func (r *SpoolRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Spool, error) {
	query := `
		SELECT id, tenant_id, material, color, diameter_mm, total_weight_grams, remaining_weight_grams, vendor, lot_number, cost_cents, location, status, created_at, updated_at
		FROM spools
		WHERE tenant_id = $1 AND id = $2
	`

	var spool domain.Spool
	err := r.db.Pool.QueryRow(ctx, query, tenantID, id).Scan(
		&spool.ID,
		&spool.TenantID,
		&spool.Material,
		&spool.Color,
		&spool.DiameterMM,
		&spool.TotalWeightGrams,
		&spool.RemainingWeightGrams,
		&spool.Vendor,
		&spool.LotNumber,
		&spool.CostCents,
		&spool.Location,
		&spool.Status,
		&spool.CreatedAt,
		&spool.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("spool")
		}
		return nil, fmt.Errorf("failed to get spool: %w", err)
	}

	return &spool, nil
}

// Update updates a spool
func (r *SpoolRepository) Update(ctx context.Context, spool *domain.Spool) error {
	query := `
		UPDATE spools
		SET color = $3, vendor = $4, lot_number = $5, cost_cents = $6, location = $7, status = $8, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query,
		spool.TenantID,
		spool.ID,
		spool.Color,
		spool.Vendor,
		spool.LotNumber,
		spool.CostCents,
		spool.Location,
		spool.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update spool: %w", err)
	}

	return nil
}

// Delete deletes a spool
func (r *SpoolRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM spools WHERE tenant_id = $1 AND id = $2`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete spool: %w", err)
	}

	return nil
}

// List retrieves spools with filtering
func (r *SpoolRepository) List(ctx context.Context, filter *domain.SpoolFilter, limit, offset int) (*domain.SpoolList, error) {
	baseQuery := `FROM spools WHERE tenant_id = $1`
	args := []interface{}{filter.TenantID}
	argIndex := 2

	if filter.Material != nil {
		baseQuery += fmt.Sprintf(" AND material = $%d", argIndex)
		args = append(args, *filter.Material)
		argIndex++
	}

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Location != nil {
		baseQuery += fmt.Sprintf(" AND location = $%d", argIndex)
		args = append(args, *filter.Location)
		argIndex++
	}

	if filter.LowStockBelow != nil {
		baseQuery += fmt.Sprintf(" AND remaining_weight_grams < $%d", argIndex)
		args = append(args, *filter.LowStockBelow)
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count spools: %w", err)
	}

	// Get spools
	query := fmt.Sprintf(`
		SELECT id, tenant_id, material, color, diameter_mm, total_weight_grams, remaining_weight_grams, vendor, lot_number, cost_cents, location, status, created_at, updated_at
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list spools: %w", err)
	}
	defer rows.Close()

	var spools []domain.Spool
	for rows.Next() {
		var spool domain.Spool
		if err := rows.Scan(
			&spool.ID,
			&spool.TenantID,
			&spool.Material,
			&spool.Color,
			&spool.DiameterMM,
			&spool.TotalWeightGrams,
			&spool.RemainingWeightGrams,
			&spool.Vendor,
			&spool.LotNumber,
			&spool.CostCents,
			&spool.Location,
			&spool.Status,
			&spool.CreatedAt,
			&spool.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan spool: %w", err)
		}
		spools = append(spools, spool)
	}

	return &domain.SpoolList{
		Spools:     spools,
		TotalCount: totalCount,
		HasMore:    int64(offset+len(spools)) < totalCount,
	}, nil
}

// Consume draws filament from an active spool, flipping it to depleted when
// it reaches zero. The guard in the WHERE clause makes the deduction atomic.
func (r *SpoolRepository) Consume(ctx context.Context, tenantID, id uuid.UUID, grams float64) (*domain.Spool, error) {
	query := `
		UPDATE spools
		SET remaining_weight_grams = remaining_weight_grams - $3,
			status = CASE WHEN remaining_weight_grams - $3 <= 0 THEN 'depleted' ELSE status END,
			updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = 'active' AND remaining_weight_grams >= $3
		RETURNING id, tenant_id, material, color, diameter_mm, total_weight_grams, remaining_weight_grams, vendor, lot_number, cost_cents, location, status, created_at, updated_at
	`

	var spool domain.Spool
	err := r.db.Pool.QueryRow(ctx, query, tenantID, id, grams).Scan(
		&spool.ID,
		&spool.TenantID,
		&spool.Material,
		&spool.Color,
		&spool.DiameterMM,
		&spool.TotalWeightGrams,
		&spool.RemainingWeightGrams,
		&spool.Vendor,
		&spool.LotNumber,
		&spool.CostCents,
		&spool.Location,
		&spool.Status,
		&spool.CreatedAt,
		&spool.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, tenantID, id); getErr != nil {
				return nil, getErr
			}
			return nil, apperrors.Conflict("insufficient filament remaining on spool")
		}
		return nil, fmt.Errorf("failed to consume from spool: %w", err)
	}

	return &spool, nil
}

// ListLowStock retrieves active spools below the given remaining weight
func (r *SpoolRepository) ListLowStock(ctx context.Context, tenantID uuid.UUID, thresholdGrams float64) ([]domain.Spool, error) {
	query := `
		SELECT id, tenant_id, material, color, diameter_mm, total_weight_grams, remaining_weight_grams, vendor, lot_number, cost_cents, location, status, created_at, updated_at
		FROM spools
		WHERE tenant_id = $1 AND status = 'active' AND remaining_weight_grams < $2
		ORDER BY remaining_weight_grams ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, tenantID, thresholdGrams)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock spools: %w", err)
	}
	defer rows.Close()

	var spools []domain.Spool
	for rows.Next() {
		var spool domain.Spool
		if err := rows.Scan(
			&spool.ID,
			&spool.TenantID,
			&spool.Material,
			&spool.Color,
			&spool.DiameterMM,
			&spool.TotalWeightGrams,
			&spool.RemainingWeightGrams,
			&spool.Vendor,
			&spool.LotNumber,
			&spool.CostCents,
			&spool.Location,
			&spool.Status,
			&spool.CreatedAt,
			&spool.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan spool: %w", err)
		}
		spools = append(spools, spool)
	}

	return spools, nil
}

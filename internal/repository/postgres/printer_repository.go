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

// PrinterRepository handles printer data operations in PostgreSQL
type PrinterRepository struct {
	db *database.PostgresDB
}

// NewPrinterRepository creates a new printer repository
func NewPrinterRepository(db *database.PostgresDB) *PrinterRepository {
	return &PrinterRepository{db: db}
}

// Create registers a new printer
func (r *PrinterRepository) Create(ctx context.Context, printer *domain.Printer) error {
	query := `
		INSERT INTO printers (id, tenant_id, name, manufacturer, model_name, status, build_volume, nozzle_diameter_mm, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		printer.ID,
		printer.TenantID,
		printer.Name,
		printer.Manufacturer,
		printer.ModelName,
		printer.Status,
		printer.BuildVolume,
		printer.NozzleDiameterMM,
		printer.Location,
		printer.CreatedAt,
		printer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create printer: %w", err)
	}

	return nil
}

// GetByID retrieves a printer by ID within a tenant
func (r *PrinterRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Printer, error) {
	query := `
		SELECT id, tenant_id, name, manufacturer, model_name, status, build_volume, nozzle_diameter_mm, location, last_seen_at, created_at, updated_at
		FROM printers
		WHERE tenant_id = $1 AND id = $2
	`

	var printer domain.Printer
	err := r.db.Pool.QueryRow(ctx, query, tenantID, id).Scan(
		&printer.ID,
		&printer.TenantID,
		&printer.Name,
		&printer.Manufacturer,
		&printer.ModelName,
		&printer.Status,
		&printer.BuildVolume,
		&printer.NozzleDiameterMM,
		&printer.Location,
		&printer.LastSeenAt,
		&printer.CreatedAt,
		&printer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("printer")
		}
		return nil, fmt.Errorf("failed to get printer: %w", err)
	}

	return &printer, nil
}

// Update updates a printer
func (r *PrinterRepository) Update(ctx context.Context, printer *domain.Printer) error {
	query := `
		UPDATE printers
		SET name = $3, manufacturer = $4, model_name = $5, status = $6, build_volume = $7, nozzle_diameter_mm = $8, location = $9, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query,
		printer.TenantID,
		printer.ID,
		printer.Name,
		printer.Manufacturer,
		printer.ModelName,
		printer.Status,
		printer.BuildVolume,
		printer.NozzleDiameterMM,
		printer.Location,
	)
	if err != nil {
		return fmt.Errorf("failed to update printer: %w", err)
	}

	return nil
}

// UpdateStatus updates a printer's status and stamps last_seen_at
func (r *PrinterRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.PrinterStatus) error {
	query := `
		UPDATE printers
		SET status = $3, last_seen_at = NOW(), updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id, status)
	if err != nil {
		return fmt.Errorf("failed to update printer status: %w", err)
	}

	return nil
}

// Delete deletes a printer
func (r *PrinterRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM printers WHERE tenant_id = $1 AND id = $2`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete printer: %w", err)
	}

	return nil
}

// List retrieves printers with filtering
func (r *PrinterRepository) List(ctx context.Context, filter *domain.PrinterFilter, limit, offset int) (*domain.PrinterList, error) {
	baseQuery := `FROM printers WHERE tenant_id = $1`
	args := []interface{}{filter.TenantID}
	argIndex := 2

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

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count printers: %w", err)
	}

	// Get printers
	query := fmt.Sprintf(`
		SELECT id, tenant_id, name, manufacturer, model_name, status, build_volume, nozzle_diameter_mm, location, last_seen_at, created_at, updated_at
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	defer rows.Close()

	var printers []domain.Printer
	for rows.Next() {
		var printer domain.Printer
		if err := rows.Scan(
			&printer.ID,
			&printer.TenantID,
			&printer.Name,
			&printer.Manufacturer,
			&printer.ModelName,
			&printer.Status,
			&printer.BuildVolume,
			&printer.NozzleDiameterMM,
			&printer.Location,
			&printer.LastSeenAt,
			&printer.CreatedAt,
			&printer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan printer: %w", err)
		}
		printers = append(printers, printer)
	}

	return &domain.PrinterList{
		Printers:   printers,
		TotalCount: totalCount,
		HasMore:    int64(offset+len(printers)) < totalCount,
	}, nil
}

// ListIdle retrieves idle printers for a tenant, used by the dispatch worker
func (r *PrinterRepository) ListIdle(ctx context.Context, tenantID uuid.UUID) ([]domain.Printer, error) {
	query := `
		SELECT id, tenant_id, name, manufacturer, model_name, status, build_volume, nozzle_diameter_mm, location, last_seen_at, created_at, updated_at
		FROM printers
		WHERE tenant_id = $1 AND status = 'idle'
		ORDER BY last_seen_at DESC NULLS LAST
	`

	rows, err := r.db.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list idle printers: %w", err)
	}
	defer rows.Close()

	var printers []domain.Printer
	for rows.Next() {
		var printer domain.Printer
		if err := rows.Scan(
			&printer.ID,
			&printer.TenantID,
			&printer.Name,
			&printer.Manufacturer,
			&printer.ModelName,
			&printer.Status,
			&printer.BuildVolume,
			&printer.NozzleDiameterMM,
			&printer.Location,
			&printer.LastSeenAt,
			&printer.CreatedAt,
			&printer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan printer: %w", err)
		}
		printers = append(printers, printer)
	}

	return printers, nil
}

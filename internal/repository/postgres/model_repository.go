package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/pkg/database"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

// ModelRepository handles 3D model metadata operations in PostgreSQL
type ModelRepository struct {
	db *database.PostgresDB
}

// NewModelRepository creates a new model repository
func NewModelRepository(db *database.PostgresDB) *ModelRepository {
	return &ModelRepository{db: db}
}

// Create creates a new model record
func (r *ModelRepository) Create(ctx context.Context, model *domain.Model) error {
	query := `
		INSERT INTO models (id, tenant_id, product_id, name, storage_key, file_name, content_type, size_bytes, format, status, uploaded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		model.ID,
		model.TenantID,
		model.ProductID,
		model.Name,
		model.StorageKey,
		model.FileName,
		model.ContentType,
		model.SizeBytes,
		model.Format,
		model.Status,
		model.UploadedBy,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}

	return nil
}

// GetByID retrieves a model by ID within a tenant
func (r *ModelRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Model, error) {
	query := `
		SELECT id, tenant_id, product_id, name, storage_key, file_name, content_type, size_bytes, format, status, uploaded_by, created_at, updated_at
		FROM models
		WHERE tenant_id = $1 AND id = $2
	`

	var model domain.Model
	err := r.db.Pool.QueryRow(ctx, query, tenantID, id).Scan(
		&model.ID,
		&model.TenantID,
		&model.ProductID,
		&model.Name,
		&model.StorageKey,
		&model.FileName,
		&model.ContentType,
		&model.SizeBytes,
		&model.Format,
		&model.Status,
		&model.UploadedBy,
		&model.CreatedAt,
		&model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("model")
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	return &model, nil
}

// Update updates a model's metadata
func (r *ModelRepository) Update(ctx context.Context, model *domain.Model) error {
	query := `
		UPDATE models
		SET product_id = $3, name = $4, status = $5, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query,
		model.TenantID,
		model.ID,
		model.ProductID,
		model.Name,
		model.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update model: %w", err)
	}

	return nil
}

// UpdateStatus updates a model's processing status
func (r *ModelRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.ModelStatus) error {
	query := `UPDATE models SET status = $3, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id, status)
	if err != nil {
		return fmt.Errorf("failed to update model status: %w", err)
	}

	return nil
}

// Delete deletes a model record
func (r *ModelRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM models WHERE tenant_id = $1 AND id = $2`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}

	return nil
}

// List retrieves models with filtering
func (r *ModelRepository) List(ctx context.Context, filter *domain.ModelFilter, limit, offset int) (*domain.ModelList, error) {
	baseQuery := `FROM models WHERE tenant_id = $1`
	args := []interface{}{filter.TenantID}
	argIndex := 2

	if filter.ProductID != nil {
		baseQuery += fmt.Sprintf(" AND product_id = $%d", argIndex)
		args = append(args, *filter.ProductID)
		argIndex++
	}

	if filter.Format != nil {
		baseQuery += fmt.Sprintf(" AND format = $%d", argIndex)
		args = append(args, *filter.Format)
		argIndex++
	}

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Search != nil {
		baseQuery += fmt.Sprintf(" AND (name ILIKE $%d OR file_name ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count models: %w", err)
	}

	// Get models
	query := fmt.Sprintf(`
		SELECT id, tenant_id, product_id, name, storage_key, file_name, content_type, size_bytes, format, status, uploaded_by, created_at, updated_at
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var models []domain.Model
	for rows.Next() {
		var model domain.Model
		if err := rows.Scan(
			&model.ID,
			&model.TenantID,
			&model.ProductID,
			&model.Name,
			&model.StorageKey,
			&model.FileName,
			&model.ContentType,
			&model.SizeBytes,
			&model.Format,
			&model.Status,
			&model.UploadedBy,
			&model.CreatedAt,
			&model.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		models = append(models, model)
	}

	return &domain.ModelList{
		Models:     models,
		TotalCount: totalCount,
		HasMore:    int64(offset+len(models)) < totalCount,
	}, nil
}

// ListByProductID retrieves models attached to a product
func (r *ModelRepository) ListByProductID(ctx context.Context, tenantID, productID uuid.UUID) ([]domain.Model, error) {
	query := `
		SELECT id, tenant_id, product_id, name, storage_key, file_name, content_type, size_bytes, format, status, uploaded_by, created_at, updated_at
		FROM models
		WHERE tenant_id = $1 AND product_id = $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var models []domain.Model
	for rows.Next() {
		var model domain.Model
		if err := rows.Scan(
			&model.ID,
			&model.TenantID,
			&model.ProductID,
			&model.Name,
			&model.StorageKey,
			&model.FileName,
			&model.ContentType,
			&model.SizeBytes,
			&model.Format,
			&model.Status,
			&model.UploadedBy,
			&model.CreatedAt,
			&model.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		models = append(models, model)
	}

	return models, nil
}

// ListFailed retrieves failed uploads across all tenants that are older than
// the cutoff, oldest first. Used by the cleanup worker.
func (r *ModelRepository) ListFailed(ctx context.Context, olderThan time.Time, limit int) ([]domain.Model, error) {
	query := `
		SELECT id, tenant_id, product_id, name, storage_key, file_name, content_type, size_bytes, format, status, uploaded_by, created_at, updated_at
		FROM models
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, domain.ModelStatusFailed, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed models: %w", err)
	}
	defer rows.Close()

	var models []domain.Model
	for rows.Next() {
		var model domain.Model
		if err := rows.Scan(
			&model.ID,
			&model.TenantID,
			&model.ProductID,
			&model.Name,
			&model.StorageKey,
			&model.FileName,
			&model.ContentType,
			&model.SizeBytes,
			&model.Format,
			&model.Status,
			&model.UploadedBy,
			&model.CreatedAt,
			&model.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		models = append(models, model)
	}

	return models, nil
}

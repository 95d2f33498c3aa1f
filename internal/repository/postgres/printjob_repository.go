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

// Jobs are dispatched highest priority first, oldest first within a priority.
const queueOrder = `ORDER BY CASE priority WHEN 'rush' THEN 3 WHEN 'high' THEN 2 WHEN 'normal' THEN 1 ELSE 0 END DESC, queued_at ASC`

// PrintJobRepository handles print job data operations in PostgreSQL
type PrintJobRepository struct {
	db *database.PostgresDB
}

// NewPrintJobRepository creates a new print job repository
func NewPrintJobRepository(db *database.PostgresDB) *PrintJobRepository {
	return &PrintJobRepository{db: db}
}

// Create creates a new print job
func (r *PrintJobRepository) Create(ctx context.Context, job *domain.PrintJob) error {
	query := `
		INSERT INTO print_jobs (
			id, tenant_id, model_id, printer_id, spool_id, order_id, name, status, priority,
			estimated_weight_grams, actual_weight_grams, estimated_duration_mins, progress,
			queued_at, started_at, completed_at, failure_reason, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		job.ID,
		job.TenantID,
		job.ModelID,
		job.PrinterID,
		job.SpoolID,
		job.OrderID,
		job.Name,
		job.Status,
		job.Priority,
		job.EstimatedWeightGrams,
		job.ActualWeightGrams,
		job.EstimatedDurationMins,
		job.Progress,
		job.QueuedAt,
		job.StartedAt,
		job.CompletedAt,
		job.FailureReason,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create print job: %w", err)
	}

	return nil
}

// GetByID retrieves a print job by ID within a tenant
func (r *PrintJobRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.PrintJob, error) {
	query := `
		SELECT id, tenant_id, model_id, printer_id, spool_id, order_id, name, status, priority,
			   estimated_weight_grams, actual_weight_grams, estimated_duration_mins, progress,
			   queued_at, started_at, completed_at, failure_reason, created_at, updated_at
		FROM print_jobs
		WHERE tenant_id = $1 AND id = $2
	`

	var job domain.PrintJob
	err := r.db.Pool.QueryRow(ctx, query, tenantID, id).Scan(
		&job.ID,
		&job.TenantID,
		&job.ModelID,
		&job.PrinterID,
		&job.SpoolID,
		&job.OrderID,
		&job.Name,
		&job.Status,
		&job.Priority,
		&job.EstimatedWeightGrams,
		&job.ActualWeightGrams,
		&job.EstimatedDurationMins,
		&job.Progress,
		&job.QueuedAt,
		&job.StartedAt,
		&job.CompletedAt,
		&job.FailureReason,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("print job")
		}
		return nil, fmt.Errorf("failed to get print job: %w", err)
	}

	return &job, nil
}

// Update updates a print job's metadata
func (r *PrintJobRepository) Update(ctx context.Context, job *domain.PrintJob) error {
	query := `
		UPDATE print_jobs
		SET name = $3, priority = $4, estimated_weight_grams = $5, estimated_duration_mins = $6, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query,
		job.TenantID,
		job.ID,
		job.Name,
		job.Priority,
		job.EstimatedWeightGrams,
		job.EstimatedDurationMins,
	)
	if err != nil {
		return fmt.Errorf("failed to update print job: %w", err)
	}

	return nil
}

// UpdateStatus writes the status fields of a job after a transition
func (r *PrintJobRepository) UpdateStatus(ctx context.Context, job *domain.PrintJob) error {
	query := `
		UPDATE print_jobs
		SET status = $3, progress = $4, actual_weight_grams = $5, failure_reason = $6,
			started_at = $7, completed_at = $8, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query,
		job.TenantID,
		job.ID,
		job.Status,
		job.Progress,
		job.ActualWeightGrams,
		job.FailureReason,
		job.StartedAt,
		job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update print job status: %w", err)
	}

	return nil
}

// UpdateProgress updates only the progress of a printing job
func (r *PrintJobRepository) UpdateProgress(ctx context.Context, tenantID, id uuid.UUID, progress float64) error {
	query := `
		UPDATE print_jobs
		SET progress = $3, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = 'printing'
	`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id, progress)
	if err != nil {
		return fmt.Errorf("failed to update print job progress: %w", err)
	}

	return nil
}

// Assign attaches a job to a printer and optionally a spool
func (r *PrintJobRepository) Assign(ctx context.Context, tenantID, id, printerID uuid.UUID, spoolID *uuid.UUID) error {
	query := `
		UPDATE print_jobs
		SET printer_id = $3, spool_id = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id, printerID, spoolID)
	if err != nil {
		return fmt.Errorf("failed to assign print job: %w", err)
	}

	return nil
}

// CompleteWithConsumption marks a job completed and deducts the actual filament
// weight from its spool in one transaction. The spool flips to depleted when it
// reaches zero; an over-draw rolls the whole transition back.
func (r *PrintJobRepository) CompleteWithConsumption(ctx context.Context, job *domain.PrintJob, spoolID uuid.UUID, grams float64) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		jobQuery := `
			UPDATE print_jobs
			SET status = $3, progress = $4, actual_weight_grams = $5, completed_at = $6, updated_at = NOW()
			WHERE tenant_id = $1 AND id = $2
		`

		_, err := tx.Exec(ctx, jobQuery,
			job.TenantID,
			job.ID,
			job.Status,
			job.Progress,
			job.ActualWeightGrams,
			job.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update print job: %w", err)
		}

		spoolQuery := `
			UPDATE spools
			SET remaining_weight_grams = remaining_weight_grams - $3,
				status = CASE WHEN remaining_weight_grams - $3 <= 0 THEN 'depleted' ELSE status END,
				updated_at = NOW()
			WHERE tenant_id = $1 AND id = $2 AND status = 'active' AND remaining_weight_grams >= $3
		`

		tag, err := tx.Exec(ctx, spoolQuery, job.TenantID, spoolID, grams)
		if err != nil {
			return fmt.Errorf("failed to consume from spool: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.Conflict("insufficient filament remaining on spool")
		}

		return nil
	})
}

// Delete deletes a print job
func (r *PrintJobRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM print_jobs WHERE tenant_id = $1 AND id = $2`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete print job: %w", err)
	}

	return nil
}

// List retrieves print jobs with filtering
func (r *PrintJobRepository) List(ctx context.Context, filter *domain.PrintJobFilter, limit, offset int) (*domain.PrintJobList, error) {
	baseQuery := `FROM print_jobs WHERE tenant_id = $1`
	args := []interface{}{filter.TenantID}
	argIndex := 2

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Priority != nil {
		baseQuery += fmt.Sprintf(" AND priority = $%d", argIndex)
		args = append(args, *filter.Priority)
		argIndex++
	}

	if filter.PrinterID != nil {
		baseQuery += fmt.Sprintf(" AND printer_id = $%d", argIndex)
		args = append(args, *filter.PrinterID)
		argIndex++
	}

	if filter.ModelID != nil {
		baseQuery += fmt.Sprintf(" AND model_id = $%d", argIndex)
		args = append(args, *filter.ModelID)
		argIndex++
	}

	if filter.OrderID != nil {
		baseQuery += fmt.Sprintf(" AND order_id = $%d", argIndex)
		args = append(args, *filter.OrderID)
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count print jobs: %w", err)
	}

	// Get jobs
	query := fmt.Sprintf(`
		SELECT id, tenant_id, model_id, printer_id, spool_id, order_id, name, status, priority,
			   estimated_weight_grams, actual_weight_grams, estimated_duration_mins, progress,
			   queued_at, started_at, completed_at, failure_reason, created_at, updated_at
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list print jobs: %w", err)
	}
	defer rows.Close()

	jobs, err := scanPrintJobs(rows)
	if err != nil {
		return nil, err
	}

	return &domain.PrintJobList{
		Jobs:       jobs,
		TotalCount: totalCount,
		HasMore:    int64(offset+len(jobs)) < totalCount,
	}, nil
}

// ListQueued retrieves the queued jobs of a tenant in dispatch order
func (r *PrintJobRepository) ListQueued(ctx context.Context, tenantID uuid.UUID) ([]domain.PrintJob, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, model_id, printer_id, spool_id, order_id, name, status, priority,
			   estimated_weight_grams, actual_weight_grams, estimated_duration_mins, progress,
			   queued_at, started_at, completed_at, failure_reason, created_at, updated_at
		FROM print_jobs
		WHERE tenant_id = $1 AND status = 'queued'
		%s
	`, queueOrder)

	rows, err := r.db.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queued jobs: %w", err)
	}
	defer rows.Close()

	jobs, err := scanPrintJobs(rows)
	if err != nil {
		return nil, err
	}

	for i := range jobs {
		jobs[i].QueuePosition = i + 1
	}

	return jobs, nil
}

// CountQueued counts the queued jobs of a tenant
func (r *PrintJobRepository) CountQueued(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM print_jobs WHERE tenant_id = $1 AND status = 'queued'`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count queued jobs: %w", err)
	}

	return count, nil
}

// CountActive counts jobs that are queued or printing for a tenant
func (r *PrintJobRepository) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM print_jobs WHERE tenant_id = $1 AND status IN ('queued', 'printing')`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active jobs: %w", err)
	}

	return count, nil
}

// CountActiveByPrinter counts active jobs assigned to a printer
func (r *PrintJobRepository) CountActiveByPrinter(ctx context.Context, tenantID, printerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM print_jobs WHERE tenant_id = $1 AND printer_id = $2 AND status IN ('queued', 'printing')`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, tenantID, printerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active jobs for printer: %w", err)
	}

	return count, nil
}

// CountActiveByModel counts active jobs referencing a model
func (r *PrintJobRepository) CountActiveByModel(ctx context.Context, tenantID, modelID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM print_jobs WHERE tenant_id = $1 AND model_id = $2 AND status IN ('queued', 'printing')`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, tenantID, modelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active jobs for model: %w", err)
	}

	return count, nil
}

// ListTenantsWithQueuedJobs retrieves the tenants that have at least one queued
// job, used by the dispatch worker to scope its scan
func (r *PrintJobRepository) ListTenantsWithQueuedJobs(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT tenant_id FROM print_jobs WHERE status = 'queued'`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants with queued jobs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tenant id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// ListStalePrinting retrieves printing jobs across all tenants whose printer
// has not sent a heartbeat since the cutoff. Printers that never reported at
// all count as stale.
func (r *PrintJobRepository) ListStalePrinting(ctx context.Context, cutoff time.Time) ([]domain.PrintJob, error) {
	query := `
		SELECT j.id, j.tenant_id, j.model_id, j.printer_id, j.spool_id, j.order_id, j.name, j.status, j.priority,
			   j.estimated_weight_grams, j.actual_weight_grams, j.estimated_duration_mins, j.progress,
			   j.queued_at, j.started_at, j.completed_at, j.failure_reason, j.created_at, j.updated_at
		FROM print_jobs j
		JOIN printers p ON p.tenant_id = j.tenant_id AND p.id = j.printer_id
		WHERE j.status = 'printing' AND (p.last_seen_at IS NULL OR p.last_seen_at < $1)
	`

	rows, err := r.db.Pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale printing jobs: %w", err)
	}
	defer rows.Close()

	return scanPrintJobs(rows)
}

// Requeue puts a printing job back in the queue, detaching it from its printer
// and spool. The original queued_at is kept so the job does not lose its place.
func (r *PrintJobRepository) Requeue(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `
		UPDATE print_jobs
		SET status = 'queued', printer_id = NULL, spool_id = NULL, progress = 0,
			started_at = NULL, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = 'printing'
	`

	tag, err := r.db.Pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to requeue print job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("print job")
	}

	return nil
}

func scanPrintJobs(rows pgx.Rows) ([]domain.PrintJob, error) {
	var jobs []domain.PrintJob
	for rows.Next() {
		var job domain.PrintJob
		if err := rows.Scan(
			&job.ID,
			&job.TenantID,
			&job.ModelID,
			&job.PrinterID,
			&job.SpoolID,
			&job.OrderID,
			&job.Name,
			&job.Status,
			&job.Priority,
			&job.EstimatedWeightGrams,
			&job.ActualWeightGrams,
			&job.EstimatedDurationMins,
			&job.Progress,
			&job.QueuedAt,
			&job.StartedAt,
			&job.CompletedAt,
			&job.FailureReason,
			&job.CreatedAt,
			&job.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan print job: %w", err)
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

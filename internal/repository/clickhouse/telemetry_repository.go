package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/pkg/database"
)

// TelemetryRepository handles printer telemetry and job event data in ClickHouse
type TelemetryRepository struct {
	db *database.ClickHouseDB
}

// NewTelemetryRepository creates a new telemetry repository
func NewTelemetryRepository(db *database.ClickHouseDB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// InsertSample inserts a single printer sample
func (r *TelemetryRepository) InsertSample(ctx context.Context, sample *domain.PrinterSample) error {
	query := `
		INSERT INTO printer_samples (
			tenant_id, printer_id, job_id, status, nozzle_temp_c, bed_temp_c,
			chamber_temp_c, progress_pct, filament_used_mm, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return r.db.Exec(ctx, query,
		sample.TenantID,
		sample.PrinterID,
		sample.JobID,
		sample.Status,
		sample.NozzleTempC,
		sample.BedTempC,
		sample.ChamberTempC,
		sample.ProgressPct,
		sample.FilamentUsedMM,
		sample.RecordedAt,
	)
}

// InsertSamples inserts multiple printer samples
func (r *TelemetryRepository) InsertSamples(ctx context.Context, samples []*domain.PrinterSample) error {
	if len(samples) == 0 {
		return nil
	}

	batch, err := r.db.PrepareBatch(ctx, `
		INSERT INTO printer_samples (
			tenant_id, printer_id, job_id, status, nozzle_temp_c, bed_temp_c,
			chamber_temp_c, progress_pct, filament_used_mm, recorded_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, sample := range samples {
		if err := batch.Append(
			sample.TenantID,
			sample.PrinterID,
			sample.JobID,
			sample.Status,
			sample.NozzleTempC,
			sample.BedTempC,
			sample.ChamberTempC,
			sample.ProgressPct,
			sample.FilamentUsedMM,
			sample.RecordedAt,
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	return batch.Send()
}

// InsertJobEvent records a print job lifecycle event
func (r *TelemetryRepository) InsertJobEvent(ctx context.Context, event *domain.JobEvent) error {
	query := `
		INSERT INTO job_events (
			tenant_id, job_id, event_type, from_status, to_status, detail, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	return r.db.Exec(ctx, query,
		event.TenantID,
		event.JobID,
		event.EventType,
		event.FromStatus,
		event.ToStatus,
		event.Detail,
		event.OccurredAt,
	)
}

// ListSamples retrieves samples with filtering, newest first
func (r *TelemetryRepository) ListSamples(ctx context.Context, filter *domain.PrinterSampleFilter, limit int) ([]domain.PrinterSample, error) {
	conditions := []string{"tenant_id = ?"}
	args := []interface{}{filter.TenantID}

	if filter.PrinterID != nil {
		conditions = append(conditions, "printer_id = ?")
		args = append(args, *filter.PrinterID)
	}

	if filter.JobID != nil {
		conditions = append(conditions, "job_id = ?")
		args = append(args, filter.JobID.String())
	}

	if filter.FromTime != nil {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, *filter.FromTime)
	}

	if filter.ToTime != nil {
		conditions = append(conditions, "recorded_at <= ?")
		args = append(args, *filter.ToTime)
	}

	query := fmt.Sprintf(`
		SELECT
			tenant_id, printer_id, job_id, status, nozzle_temp_c, bed_temp_c,
			chamber_temp_c, progress_pct, filament_used_mm, recorded_at
		FROM printer_samples
		WHERE %s
		ORDER BY recorded_at DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, limit)

	var samples []domain.PrinterSample
	if err := r.db.Select(ctx, &samples, query, args...); err != nil {
		return nil, err
	}

	return samples, nil
}

// LatestSample retrieves the most recent sample for a printer
func (r *TelemetryRepository) LatestSample(ctx context.Context, tenantID, printerID uuid.UUID) (*domain.PrinterSample, error) {
	query := `
		SELECT
			tenant_id, printer_id, job_id, status, nozzle_temp_c, bed_temp_c,
			chamber_temp_c, progress_pct, filament_used_mm, recorded_at
		FROM printer_samples
		WHERE tenant_id = ? AND printer_id = ?
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	var sample domain.PrinterSample
	row := r.db.QueryRow(ctx, query, tenantID, printerID)
	err := row.Scan(
		&sample.TenantID,
		&sample.PrinterID,
		&sample.JobID,
		&sample.Status,
		&sample.NozzleTempC,
		&sample.BedTempC,
		&sample.ChamberTempC,
		&sample.ProgressPct,
		&sample.FilamentUsedMM,
		&sample.RecordedAt,
	)
	if err != nil {
		return nil, err
	}

	return &sample, nil
}

// ListJobEvents retrieves the lifecycle timeline of a print job, oldest first
func (r *TelemetryRepository) ListJobEvents(ctx context.Context, tenantID, jobID uuid.UUID) ([]domain.JobEvent, error) {
	query := `
		SELECT
			tenant_id, job_id, event_type, from_status, to_status, detail, occurred_at
		FROM job_events
		WHERE tenant_id = ? AND job_id = ?
		ORDER BY occurred_at ASC
	`

	var events []domain.JobEvent
	if err := r.db.Select(ctx, &events, query, tenantID, jobID); err != nil {
		return nil, err
	}

	return events, nil
}

// UsageStats aggregates printer utilisation over a time window.
// filament_used_mm on a sample is cumulative within its job, so usage is
// the sum of per-job maxima.
func (r *TelemetryRepository) UsageStats(ctx context.Context, filter *domain.PrinterSampleFilter) ([]domain.PrinterUsageStats, error) {
	conditions := []string{"tenant_id = ?"}
	args := []interface{}{filter.TenantID}

	if filter.PrinterID != nil {
		conditions = append(conditions, "printer_id = ?")
		args = append(args, *filter.PrinterID)
	}

	if filter.FromTime != nil {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, *filter.FromTime)
	}

	if filter.ToTime != nil {
		conditions = append(conditions, "recorded_at <= ?")
		args = append(args, *filter.ToTime)
	}

	query := fmt.Sprintf(`
		SELECT
			printer_id,
			sum(cnt)                   AS sample_count,
			sum(nozzle_sum) / sum(cnt) AS avg_nozzle_temp_c,
			sum(bed_sum) / sum(cnt)    AS avg_bed_temp_c,
			max(max_progress)          AS max_progress_pct,
			sum(max_filament)          AS filament_used_mm,
			min(first_seen)            AS first_seen,
			max(last_seen)             AS last_seen
		FROM (
			SELECT
				printer_id,
				job_id,
				count()               AS cnt,
				sum(nozzle_temp_c)    AS nozzle_sum,
				sum(bed_temp_c)       AS bed_sum,
				max(progress_pct)     AS max_progress,
				max(filament_used_mm) AS max_filament,
				min(recorded_at)      AS first_seen,
				max(recorded_at)      AS last_seen
			FROM printer_samples
			WHERE %s
			GROUP BY printer_id, job_id
		)
		GROUP BY printer_id
		ORDER BY printer_id
	`, strings.Join(conditions, " AND "))

	var stats []domain.PrinterUsageStats
	if err := r.db.Select(ctx, &stats, query, args...); err != nil {
		return nil, err
	}

	return stats, nil
}

// CountSamplesBefore counts samples recorded before the cutoff date
func (r *TelemetryRepository) CountSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		SELECT count()
		FROM printer_samples
		WHERE recorded_at < ?
	`

	var count int64
	row := r.db.QueryRow(ctx, query, cutoff)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}

	return count, nil
}

// DeleteSamplesBefore deletes samples recorded before the cutoff date
// Note: ClickHouse ALTER TABLE DELETE is a heavy operation, use with caution
func (r *TelemetryRepository) DeleteSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	count, err := r.CountSamplesBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if count == 0 {
		return 0, nil
	}

	query := `ALTER TABLE printer_samples DELETE WHERE recorded_at < ?`
	if err := r.db.Exec(ctx, query, cutoff); err != nil {
		return 0, fmt.Errorf("failed to delete samples: %w", err)
	}

	return count, nil
}

// DeleteJobEventsBefore deletes job events that occurred before the cutoff date
// Note: ClickHouse ALTER TABLE DELETE is a heavy operation, use with caution
func (r *TelemetryRepository) DeleteJobEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		SELECT count()
		FROM job_events
		WHERE occurred_at < ?
	`

	var count int64
	row := r.db.QueryRow(ctx, query, cutoff)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count job events: %w", err)
	}

	if count == 0 {
		return 0, nil
	}

	del := `ALTER TABLE job_events DELETE WHERE occurred_at < ?`
	if err := r.db.Exec(ctx, del, cutoff); err != nil {
		return 0, fmt.Errorf("failed to delete job events: %w", err)
	}

	return count, nil
}

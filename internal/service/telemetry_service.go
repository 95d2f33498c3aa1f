package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

// MaxTelemetryBatchSize caps the number of samples accepted in one request
const MaxTelemetryBatchSize = 1000

// TelemetryRepository defines telemetry repository operations backed by ClickHouse
type TelemetryRepository interface {
	InsertSample(ctx context.Context, sample *domain.PrinterSample) error
	InsertSamples(ctx context.Context, samples []*domain.PrinterSample) error
	InsertJobEvent(ctx context.Context, event *domain.JobEvent) error
	ListSamples(ctx context.Context, filter *domain.PrinterSampleFilter, limit int) ([]domain.PrinterSample, error)
	LatestSample(ctx context.Context, tenantID, printerID uuid.UUID) (*domain.PrinterSample, error)
	ListJobEvents(ctx context.Context, tenantID, jobID uuid.UUID) ([]domain.JobEvent, error)
	UsageStats(ctx context.Context, filter *domain.PrinterSampleFilter) ([]domain.PrinterUsageStats, error)
	CountSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteJobEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TelemetryService handles printer telemetry ingest and queries
type TelemetryService struct {
	telemetryRepo TelemetryRepository
	printerRepo   PrinterRepository
}

// NewTelemetryService creates a new telemetry service
func NewTelemetryService(telemetryRepo TelemetryRepository, printerRepo PrinterRepository) *TelemetryService {
	return &TelemetryService{
		telemetryRepo: telemetryRepo,
		printerRepo:   printerRepo,
	}
}

// IngestBatch stores a batch of samples posted by printer agents. Samples for
// printers that do not belong to the tenant are rejected as a whole batch.
func (s *TelemetryService) IngestBatch(ctx context.Context, tenantID uuid.UUID, batch *domain.TelemetryBatch) (int, error) {
	if len(batch.Samples) == 0 {
		return 0, apperrors.Validation("batch contains no samples")
	}
	if len(batch.Samples) > MaxTelemetryBatchSize {
		return 0, apperrors.Validation(fmt.Sprintf("batch exceeds %d samples", MaxTelemetryBatchSize))
	}

	// Verify each referenced printer once
	seen := make(map[uuid.UUID]bool)
	for i := range batch.Samples {
		printerID := batch.Samples[i].PrinterID
		if seen[printerID] {
			continue
		}
		if _, err := s.printerRepo.GetByID(ctx, tenantID, printerID); err != nil {
			return 0, err
		}
		seen[printerID] = true
	}

	now := time.Now()
	samples := make([]*domain.PrinterSample, 0, len(batch.Samples))
	for i := range batch.Samples {
		in := &batch.Samples[i]

		recordedAt := now
		if in.RecordedAt != nil {
			recordedAt = *in.RecordedAt
		}

		sample := &domain.PrinterSample{
			TenantID:       tenantID,
			PrinterID:      in.PrinterID,
			Status:         in.Status,
			NozzleTempC:    in.NozzleTempC,
			BedTempC:       in.BedTempC,
			ChamberTempC:   in.ChamberTempC,
			ProgressPct:    in.ProgressPct,
			FilamentUsedMM: in.FilamentUsedMM,
			RecordedAt:     recordedAt,
		}
		if in.JobID != nil {
			sample.JobID = in.JobID.String()
		}

		samples = append(samples, sample)
	}

	if err := s.telemetryRepo.InsertSamples(ctx, samples); err != nil {
		return 0, fmt.Errorf("failed to insert samples: %w", err)
	}

	return len(samples), nil
}

// ListSamples retrieves samples for a tenant with filtering
func (s *TelemetryService) ListSamples(ctx context.Context, filter *domain.PrinterSampleFilter, limit int) ([]domain.PrinterSample, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	return s.telemetryRepo.ListSamples(ctx, filter, limit)
}

// UsageStats returns per-printer aggregates over a time window
func (s *TelemetryService) UsageStats(ctx context.Context, filter *domain.PrinterSampleFilter) ([]domain.PrinterUsageStats, error) {
	return s.telemetryRepo.UsageStats(ctx, filter)
}

// JobTimeline returns the recorded lifecycle events for a print job
func (s *TelemetryService) JobTimeline(ctx context.Context, tenantID, jobID uuid.UUID) ([]domain.JobEvent, error) {
	return s.telemetryRepo.ListJobEvents(ctx, tenantID, jobID)
}

// RecordJobEvent stores a lifecycle event for a print job
func (s *TelemetryService) RecordJobEvent(ctx context.Context, event *domain.JobEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	return s.telemetryRepo.InsertJobEvent(ctx, event)
}

// PurgeBefore deletes samples and job events older than the cutoff, used by
// the cleanup worker. Returns the number of samples removed.
func (s *TelemetryService) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.telemetryRepo.DeleteSamplesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete samples: %w", err)
	}

	if _, err := s.telemetryRepo.DeleteJobEventsBefore(ctx, cutoff); err != nil {
		return deleted, fmt.Errorf("failed to delete job events: %w", err)
	}

	return deleted, nil
}

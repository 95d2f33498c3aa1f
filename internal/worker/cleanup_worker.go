package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/repository/postgres"
	"github.com/printforge/printforge/api/internal/service"
)

const (
	// TypeExpiredCleanup is the task type for the nightly maintenance sweep
	TypeExpiredCleanup = "cleanup:expired"

	// Failed uploads stick around this long so clients can inspect and retry
	defaultFailedUploadMaxAge = 24 * time.Hour

	// A printing job is considered stuck when its printer has been silent this long
	defaultPrinterStaleAfter = 30 * time.Minute

	// Telemetry samples and job events are kept this long
	defaultRetentionDays = 90

	// Upper bound on failed uploads removed per run
	cleanupBatchSize = 200
)

// ExpiredCleanupPayload is the payload for cleanup tasks. Zero values fall
// back to the default windows.
type ExpiredCleanupPayload struct {
	FailedUploadMaxAgeHours int `json:"failed_upload_max_age_hours,omitempty"`
	PrinterStaleMinutes     int `json:"printer_stale_minutes,omitempty"`
	RetentionDays           int `json:"retention_days,omitempty"`
}

// NewExpiredCleanupTask creates a cleanup task
func NewExpiredCleanupTask(payload *ExpiredCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cleanup payload: %w", err)
	}
	return asynq.NewTask(TypeExpiredCleanup, data, asynq.MaxRetry(3), asynq.Timeout(30*time.Minute)), nil
}

// CleanupWorker sweeps out expired sessions and invitations, failed uploads,
// print jobs stranded on unresponsive printers, and telemetry past retention
type CleanupWorker struct {
	logger           *zap.Logger
	jobService       *service.PrintJobService
	tenantService    *service.TenantService
	modelService     *service.ModelService
	telemetryService *service.TelemetryService
	userRepo         *postgres.UserRepository
	modelRepo        *postgres.ModelRepository
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(
	logger *zap.Logger,
	jobService *service.PrintJobService,
	tenantService *service.TenantService,
	modelService *service.ModelService,
	telemetryService *service.TelemetryService,
	userRepo *postgres.UserRepository,
	modelRepo *postgres.ModelRepository,
) *CleanupWorker {
	return &CleanupWorker{
		logger:           logger,
		jobService:       jobService,
		tenantService:    tenantService,
		modelService:     modelService,
		telemetryService: telemetryService,
		userRepo:         userRepo,
		modelRepo:        modelRepo,
	}
}

// ProcessTask processes a cleanup task. The steps are independent, so one
// failing does not stop the others; any failure still surfaces for a retry.
func (w *CleanupWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ExpiredCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal cleanup payload: %w", err)
	}

	uploadMaxAge := defaultFailedUploadMaxAge
	if payload.FailedUploadMaxAgeHours > 0 {
		uploadMaxAge = time.Duration(payload.FailedUploadMaxAgeHours) * time.Hour
	}
	staleAfter := defaultPrinterStaleAfter
	if payload.PrinterStaleMinutes > 0 {
		staleAfter = time.Duration(payload.PrinterStaleMinutes) * time.Minute
	}
	retentionDays := defaultRetentionDays
	if payload.RetentionDays > 0 {
		retentionDays = payload.RetentionDays
	}

	var failedSteps []string

	sessions, err := w.userRepo.DeleteExpiredSessions(ctx)
	if err != nil {
		w.logger.Error("failed to purge expired sessions", zap.Error(err))
		failedSteps = append(failedSteps, "sessions")
	}

	invitations, err := w.tenantService.PurgeExpiredInvitations(ctx)
	if err != nil {
		w.logger.Error("failed to purge expired invitations", zap.Error(err))
		failedSteps = append(failedSteps, "invitations")
	}

	uploads, err := w.purgeFailedUploads(ctx, uploadMaxAge)
	if err != nil {
		w.logger.Error("failed to purge failed uploads", zap.Error(err))
		failedSteps = append(failedSteps, "uploads")
	}

	requeued, err := w.jobService.RequeueStale(ctx, staleAfter)
	if err != nil {
		w.logger.Error("failed to requeue stuck print jobs", zap.Error(err))
		failedSteps = append(failedSteps, "stuck jobs")
	}

	telemetryCutoff := time.Now().AddDate(0, 0, -retentionDays)
	purged, err := w.telemetryService.PurgeBefore(ctx, telemetryCutoff)
	if err != nil {
		w.logger.Error("failed to purge telemetry past retention", zap.Error(err))
		failedSteps = append(failedSteps, "telemetry")
	}

	w.logger.Info("cleanup completed",
		zap.Int64("expired_sessions", sessions),
		zap.Int64("expired_invitations", invitations),
		zap.Int("failed_uploads_removed", uploads),
		zap.Int("jobs_requeued", requeued),
		zap.Int64("telemetry_rows_purged", purged),
	)

	if len(failedSteps) > 0 {
		return fmt.Errorf("cleanup failed for: %s", strings.Join(failedSteps, ", "))
	}

	return nil
}

// purgeFailedUploads deletes failed model uploads older than the cutoff,
// removing both the database row and the stored object
func (w *CleanupWorker) purgeFailedUploads(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	models, err := w.modelRepo.ListFailed(ctx, cutoff, cleanupBatchSize)
	if err != nil {
		return 0, err
	}

	removed := 0
	for i := range models {
		model := &models[i]
		if err := w.modelService.Delete(ctx, model.TenantID, model.ID); err != nil {
			w.logger.Warn("failed to delete failed upload",
				zap.String("tenant_id", model.TenantID.String()),
				zap.String("model_id", model.ID.String()),
				zap.Error(err),
			)
			continue
		}
		removed++
	}

	return removed, nil
}

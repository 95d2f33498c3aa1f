package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/service"
)

const (
	// TypeJobDispatch is the task type for print job dispatch
	TypeJobDispatch = "job:dispatch"

	// Upper bound on assignments per tenant per pass
	defaultDispatchBatchSize = 50
)

// JobDispatchPayload is the payload for dispatch tasks. An empty tenant ID
// means a full sweep over every tenant with queued jobs.
type JobDispatchPayload struct {
	TenantID string `json:"tenant_id,omitempty"`
}

// NewJobDispatchTask creates a dispatch task
func NewJobDispatchTask(payload *JobDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job dispatch payload: %w", err)
	}
	return asynq.NewTask(TypeJobDispatch, data, asynq.MaxRetry(3)), nil
}

// DispatchWorker pairs queued print jobs with idle printers and spools
type DispatchWorker struct {
	logger     *zap.Logger
	jobService *service.PrintJobService
	batchSize  int
}

// NewDispatchWorker creates a new dispatch worker. batchSize caps the number
// of assignments per tenant per pass; non-positive values use the default.
func NewDispatchWorker(logger *zap.Logger, jobService *service.PrintJobService, batchSize int) *DispatchWorker {
	if batchSize <= 0 {
		batchSize = defaultDispatchBatchSize
	}
	return &DispatchWorker{
		logger:     logger,
		jobService: jobService,
		batchSize:  batchSize,
	}
}

// ProcessTask processes a dispatch task
func (w *DispatchWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload JobDispatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal job dispatch payload: %w", err)
	}

	if payload.TenantID != "" {
		tenantID, err := uuid.Parse(payload.TenantID)
		if err != nil {
			return fmt.Errorf("invalid tenant ID: %w", err)
		}
		return w.dispatchTenant(ctx, tenantID)
	}

	tenants, err := w.jobService.ListTenantsWithQueuedJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tenants with queued jobs: %w", err)
	}

	var failed int
	for _, tenantID := range tenants {
		if err := w.dispatchTenant(ctx, tenantID); err != nil {
			// One broken tenant must not starve the rest of the sweep
			w.logger.Error("dispatch failed for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("dispatch failed for %d of %d tenants", failed, len(tenants))
	}

	return nil
}

func (w *DispatchWorker) dispatchTenant(ctx context.Context, tenantID uuid.UUID) error {
	assigned, err := w.jobService.DispatchQueued(ctx, tenantID, w.batchSize)
	if err != nil {
		return err
	}

	if assigned > 0 {
		w.logger.Info("assigned queued print jobs",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("assigned", assigned),
		)
	}

	return nil
}

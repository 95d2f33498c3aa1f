package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/service"
)

const (
	// TypeLowStockScan is the task type for the filament inventory scan
	TypeLowStockScan = "inventory:lowstock"

	// Threshold applied when a tenant has not configured one
	defaultLowStockThresholdGrams = 100
)

// LowStockScanPayload is the payload for low stock scans. An empty tenant ID
// scans every tenant.
type LowStockScanPayload struct {
	TenantID string `json:"tenant_id,omitempty"`
}

// NewLowStockScanTask creates a low stock scan task
func NewLowStockScanTask(payload *LowStockScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal low stock scan payload: %w", err)
	}
	return asynq.NewTask(TypeLowStockScan, data, asynq.MaxRetry(3)), nil
}

// LowStockWorker flags spools that dropped under the tenant's threshold
type LowStockWorker struct {
	logger              *zap.Logger
	spoolService        *service.SpoolService
	tenantService       *service.TenantService
	notificationService *service.NotificationService
	auditService        *service.AuditService
	thresholdGrams      float64
}

// NewLowStockWorker creates a new low stock worker. thresholdGrams is the
// deployment wide fallback for tenants without a configured threshold.
func NewLowStockWorker(
	logger *zap.Logger,
	spoolService *service.SpoolService,
	tenantService *service.TenantService,
	notificationService *service.NotificationService,
	auditService *service.AuditService,
	thresholdGrams float64,
) *LowStockWorker {
	if thresholdGrams <= 0 {
		thresholdGrams = defaultLowStockThresholdGrams
	}
	return &LowStockWorker{
		logger:              logger,
		spoolService:        spoolService,
		tenantService:       tenantService,
		notificationService: notificationService,
		auditService:        auditService,
		thresholdGrams:      thresholdGrams,
	}
}

// ProcessTask processes a low stock scan task
func (w *LowStockWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal low stock scan payload: %w", err)
	}

	var tenants []uuid.UUID
	if payload.TenantID != "" {
		tenantID, err := uuid.Parse(payload.TenantID)
		if err != nil {
			return fmt.Errorf("invalid tenant ID: %w", err)
		}
		tenants = []uuid.UUID{tenantID}
	} else {
		ids, err := w.tenantService.ListTenantIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list tenants: %w", err)
		}
		tenants = ids
	}

	var flagged int
	var failed int
	for _, tenantID := range tenants {
		n, err := w.scanTenant(ctx, tenantID)
		if err != nil {
			w.logger.Error("low stock scan failed for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			failed++
			continue
		}
		flagged += n
	}

	w.logger.Info("low stock scan completed",
		zap.Int("tenants", len(tenants)),
		zap.Int("spools_flagged", flagged),
	)

	if failed > 0 {
		return fmt.Errorf("low stock scan failed for %d of %d tenants", failed, len(tenants))
	}

	return nil
}

// scanTenant flags each spool under the tenant's configured threshold, falling
// back to the deployment default when the tenant has not set one
func (w *LowStockWorker) scanTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	settings, err := w.tenantService.GetSettings(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to load settings: %w", err)
	}
	threshold := float64(settings.LowStockThresholdGrams)
	if threshold <= 0 {
		threshold = w.thresholdGrams
	}

	spools, err := w.spoolService.ListLowStock(ctx, tenantID, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to list low stock spools: %w", err)
	}

	for i := range spools {
		spool := &spools[i]
		label := fmt.Sprintf("%s %s %.2fmm", spool.Material, spool.Color, spool.DiameterMM)

		if err := w.notificationService.Notify(ctx, tenantID, domain.EventTypeLowStock, map[string]any{
			"spoolId":        spool.ID.String(),
			"spoolLabel":     label,
			"remainingGrams": spool.RemainingWeightGrams,
			"thresholdGrams": threshold,
		}); err != nil {
			w.logger.Warn("low stock notification failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("spool_id", spool.ID.String()),
				zap.Error(err),
			)
		}

		if err := w.auditService.LogSpoolLowStock(ctx, tenantID, spool.ID, label, spool.RemainingWeightGrams); err != nil {
			w.logger.Warn("low stock audit entry failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("spool_id", spool.ID.String()),
				zap.Error(err),
			)
		}
	}

	return len(spools), nil
}

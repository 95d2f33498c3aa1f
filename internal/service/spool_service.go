package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/validator"
)

// SpoolRepository defines filament spool repository operations
type SpoolRepository interface {
	Create(ctx context.Context, spool *domain.Spool) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Spool, error)
	Update(ctx context.Context, spool *domain.Spool) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, filter *domain.SpoolFilter, limit, offset int) (*domain.SpoolList, error)
	Consume(ctx context.Context, tenantID, id uuid.UUID, grams float64) (*domain.Spool, error)
	ListLowStock(ctx context.Context, tenantID uuid.UUID, thresholdGrams float64) ([]domain.Spool, error)
}

// SpoolService handles filament inventory operations
type SpoolService struct {
	spoolRepo  SpoolRepository
	tenantRepo TenantRepository
	audit      *AuditService
}

// NewSpoolService creates a new spool service
func NewSpoolService(spoolRepo SpoolRepository, tenantRepo TenantRepository) *SpoolService {
	return &SpoolService{
		spoolRepo:  spoolRepo,
		tenantRepo: tenantRepo,
	}
}

// SetAuditService sets the audit service for inventory operations
func (s *SpoolService) SetAuditService(audit *AuditService) {
	s.audit = audit
}

// Create registers a new spool. New spools start full and active.
func (s *SpoolService) Create(ctx context.Context, tenantID uuid.UUID, input *domain.SpoolInput) (*domain.Spool, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	now := time.Now()
	spool := &domain.Spool{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		Material:             input.Material,
		Color:                input.Color,
		DiameterMM:           input.DiameterMM,
		TotalWeightGrams:     input.TotalWeightGrams,
		RemainingWeightGrams: input.TotalWeightGrams,
		Vendor:               input.Vendor,
		LotNumber:            input.LotNumber,
		CostCents:            input.CostCents,
		Location:             input.Location,
		Status:               domain.SpoolStatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.spoolRepo.Create(ctx, spool); err != nil {
		return nil, fmt.Errorf("failed to create spool: %w", err)
	}

	return spool, nil
}

// Get retrieves a spool by ID
func (s *SpoolService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Spool, error) {
	return s.spoolRepo.GetByID(ctx, tenantID, id)
}

// Update applies a partial update to a spool
func (s *SpoolService) Update(ctx context.Context, tenantID, id uuid.UUID, input *domain.SpoolUpdateInput) (*domain.Spool, error) {
	spool, err := s.spoolRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Color != nil {
		spool.Color = *input.Color
	}
	if input.Vendor != nil {
		spool.Vendor = *input.Vendor
	}
	if input.LotNumber != nil {
		spool.LotNumber = *input.LotNumber
	}
	if input.CostCents != nil {
		spool.CostCents = *input.CostCents
	}
	if input.Location != nil {
		spool.Location = *input.Location
	}
	if input.Status != nil {
		spool.Status = *input.Status
	}
	spool.UpdatedAt = time.Now()

	if err := s.spoolRepo.Update(ctx, spool); err != nil {
		return nil, fmt.Errorf("failed to update spool: %w", err)
	}

	return spool, nil
}

// Delete deletes a spool
func (s *SpoolService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.spoolRepo.Delete(ctx, tenantID, id)
}

// List retrieves spools with filtering and pagination
func (s *SpoolService) List(ctx context.Context, filter *domain.SpoolFilter, limit, offset int) (*domain.SpoolList, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.spoolRepo.List(ctx, filter, limit, offset)
}

// Consume records filament drawn from a spool
func (s *SpoolService) Consume(ctx context.Context, tenantID, id uuid.UUID, input *domain.SpoolConsumeInput, actorID *uuid.UUID, actorEmail string) (*domain.Spool, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	spool, err := s.spoolRepo.Consume(ctx, tenantID, id, input.Grams)
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		label := spoolLabel(spool)
		go func() {
			_ = s.audit.LogSpoolConsumed(context.Background(), tenantID, actorID, actorEmail, spool.ID, label, input.Grams)
			if spool.Status == domain.SpoolStatusDepleted {
				_ = s.audit.LogSpoolDepleted(context.Background(), tenantID, spool.ID, label)
			}
		}()
	}

	return spool, nil
}

// ListLowStock retrieves active spools below the threshold. A zero threshold
// falls back to the tenant's configured low stock threshold.
func (s *SpoolService) ListLowStock(ctx context.Context, tenantID uuid.UUID, thresholdGrams float64) ([]domain.Spool, error) {
	if thresholdGrams <= 0 {
		settings, err := s.tenantRepo.GetSettings(ctx, tenantID)
		if err == nil {
			thresholdGrams = float64(settings.LowStockThresholdGrams)
		} else {
			thresholdGrams = 100
		}
	}

	return s.spoolRepo.ListLowStock(ctx, tenantID, thresholdGrams)
}

// spoolLabel builds a human readable label for audit entries
func spoolLabel(spool *domain.Spool) string {
	return fmt.Sprintf("%s %s %.2fmm", spool.Material, spool.Color, spool.DiameterMM)
}

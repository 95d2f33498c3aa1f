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

// PrinterRepository defines printer repository operations
type PrinterRepository interface {
	Create(ctx context.Context, printer *domain.Printer) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Printer, error)
	Update(ctx context.Context, printer *domain.Printer) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.PrinterStatus) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, filter *domain.PrinterFilter, limit, offset int) (*domain.PrinterList, error)
	ListIdle(ctx context.Context, tenantID uuid.UUID) ([]domain.Printer, error)
}

// PrinterService handles printer fleet operations
type PrinterService struct {
	printerRepo   PrinterRepository
	printJobRepo  PrintJobRepository
	telemetryRepo TelemetryRepository
}

// NewPrinterService creates a new printer service
func NewPrinterService(printerRepo PrinterRepository, printJobRepo PrintJobRepository, telemetryRepo TelemetryRepository) *PrinterService {
	return &PrinterService{
		printerRepo:   printerRepo,
		printJobRepo:  printJobRepo,
		telemetryRepo: telemetryRepo,
	}
}

// Create registers a new printer. Printers start idle.
func (s *PrinterService) Create(ctx context.Context, tenantID uuid.UUID, input *domain.PrinterInput) (*domain.Printer, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	now := time.Now()
	printer := &domain.Printer{
		ID:               uuid.New(),
		TenantID:         tenantID,
		Name:             input.Name,
		Manufacturer:     input.Manufacturer,
		ModelName:        input.ModelName,
		Status:           domain.PrinterStatusIdle,
		BuildVolume:      input.BuildVolume,
		NozzleDiameterMM: input.NozzleDiameterMM,
		Location:         input.Location,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.printerRepo.Create(ctx, printer); err != nil {
		return nil, fmt.Errorf("failed to create printer: %w", err)
	}

	return printer, nil
}

// Get retrieves a printer by ID
func (s *PrinterService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Printer, error) {
	return s.printerRepo.GetByID(ctx, tenantID, id)
}

// Update applies a partial update to a printer
func (s *PrinterService) Update(ctx context.Context, tenantID, id uuid.UUID, input *domain.PrinterUpdateInput) (*domain.Printer, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	printer, err := s.printerRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		printer.Name = *input.Name
	}
	if input.Manufacturer != nil {
		printer.Manufacturer = *input.Manufacturer
	}
	if input.ModelName != nil {
		printer.ModelName = *input.ModelName
	}
	if input.Status != nil {
		printer.Status = *input.Status
	}
	if input.BuildVolume != nil {
		printer.BuildVolume = input.BuildVolume
	}
	if input.NozzleDiameterMM != nil {
		printer.NozzleDiameterMM = *input.NozzleDiameterMM
	}
	if input.Location != nil {
		printer.Location = *input.Location
	}
	printer.UpdatedAt = time.Now()

	if err := s.printerRepo.Update(ctx, printer); err != nil {
		return nil, fmt.Errorf("failed to update printer: %w", err)
	}

	return printer, nil
}

// Delete deletes a printer
func (s *PrinterService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.printerRepo.Delete(ctx, tenantID, id)
}

// List retrieves printers with filtering and pagination
func (s *PrinterService) List(ctx context.Context, filter *domain.PrinterFilter, limit, offset int) (*domain.PrinterList, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.printerRepo.List(ctx, filter, limit, offset)
}

// ListIdle retrieves printers ready to take a job
func (s *PrinterService) ListIdle(ctx context.Context, tenantID uuid.UUID) ([]domain.Printer, error) {
	return s.printerRepo.ListIdle(ctx, tenantID)
}

// Heartbeat applies a status report from a printer agent. The printer's
// status and last seen timestamp are updated and the reading is recorded
// as a telemetry sample.
func (s *PrinterService) Heartbeat(ctx context.Context, tenantID, id uuid.UUID, input *domain.PrinterHeartbeatInput) (*domain.Printer, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	printer, err := s.printerRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := s.printerRepo.UpdateStatus(ctx, tenantID, id, input.Status); err != nil {
		return nil, err
	}

	now := time.Now()
	printer.Status = input.Status
	printer.LastSeenAt = &now
	printer.UpdatedAt = now

	sample := &domain.PrinterSample{
		TenantID:   tenantID,
		PrinterID:  id,
		Status:     string(input.Status),
		RecordedAt: now,
	}
	if input.JobID != nil {
		sample.JobID = input.JobID.String()
	}
	if input.NozzleTempC != nil {
		sample.NozzleTempC = *input.NozzleTempC
	}
	if input.BedTempC != nil {
		sample.BedTempC = *input.BedTempC
	}
	if input.ChamberTempC != nil {
		sample.ChamberTempC = *input.ChamberTempC
	}
	if input.ProgressPct != nil {
		sample.ProgressPct = *input.ProgressPct
	}
	if input.FilamentUsedMM != nil {
		sample.FilamentUsedMM = *input.FilamentUsedMM
	}

	// Telemetry is best effort, a heartbeat must not fail because the
	// sample store is unavailable
	go func() {
		_ = s.telemetryRepo.InsertSample(context.Background(), sample)
	}()

	if input.JobID != nil && input.ProgressPct != nil {
		// Progress only sticks while the job is printing
		_ = s.printJobRepo.UpdateProgress(ctx, tenantID, *input.JobID, *input.ProgressPct)
	}

	return printer, nil
}

// LatestTelemetry returns the most recent sample for a printer
func (s *PrinterService) LatestTelemetry(ctx context.Context, tenantID, printerID uuid.UUID) (*domain.PrinterSample, error) {
	return s.telemetryRepo.LatestSample(ctx, tenantID, printerID)
}

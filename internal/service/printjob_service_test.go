package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

// MockPrintJobRepository is a mock implementation of PrintJobRepository
type MockPrintJobRepository struct {
	mock.Mock
}

func (m *MockPrintJobRepository) Create(ctx context.Context, job *domain.PrintJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockPrintJobRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.PrintJob, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PrintJob), args.Error(1)
}

func (m *MockPrintJobRepository) Update(ctx context.Context, job *domain.PrintJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockPrintJobRepository) UpdateStatus(ctx context.Context, job *domain.PrintJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockPrintJobRepository) UpdateProgress(ctx context.Context, tenantID, id uuid.UUID, progress float64) error {
	args := m.Called(ctx, tenantID, id, progress)
	return args.Error(0)
}

func (m *MockPrintJobRepository) Assign(ctx context.Context, tenantID, id, printerID uuid.UUID, spoolID *uuid.UUID) error {
	args := m.Called(ctx, tenantID, id, printerID, spoolID)
	return args.Error(0)
}

func (m *MockPrintJobRepository) CompleteWithConsumption(ctx context.Context, job *domain.PrintJob, spoolID uuid.UUID, grams float64) error {
	args := m.Called(ctx, job, spoolID, grams)
	return args.Error(0)
}

func (m *MockPrintJobRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockPrintJobRepository) List(ctx context.Context, filter *domain.PrintJobFilter, limit, offset int) (*domain.PrintJobList, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PrintJobList), args.Error(1)
}

func (m *MockPrintJobRepository) ListQueued(ctx context.Context, tenantID uuid.UUID) ([]domain.PrintJob, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PrintJob), args.Error(1)
}

func (m *MockPrintJobRepository) CountQueued(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPrintJobRepository) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPrintJobRepository) CountActiveByPrinter(ctx context.Context, tenantID, printerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, printerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPrintJobRepository) CountActiveByModel(ctx context.Context, tenantID, modelID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, modelID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPrintJobRepository) ListTenantsWithQueuedJobs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockPrintJobRepository) ListStalePrinting(ctx context.Context, cutoff time.Time) ([]domain.PrintJob, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PrintJob), args.Error(1)
}

func (m *MockPrintJobRepository) Requeue(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockModelRepository is a mock implementation of ModelRepository
type MockModelRepository struct {
	mock.Mock
}

func (m *MockModelRepository) Create(ctx context.Context, model *domain.Model) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *MockModelRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Model, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Model), args.Error(1)
}

func (m *MockModelRepository) Update(ctx context.Context, model *domain.Model) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *MockModelRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.ModelStatus) error {
	args := m.Called(ctx, tenantID, id, status)
	return args.Error(0)
}

func (m *MockModelRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockModelRepository) List(ctx context.Context, filter *domain.ModelFilter, limit, offset int) (*domain.ModelList, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelList), args.Error(1)
}

func (m *MockModelRepository) ListByProductID(ctx context.Context, tenantID, productID uuid.UUID) ([]domain.Model, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Model), args.Error(1)
}

// MockPrinterRepository is a mock implementation of PrinterRepository
type MockPrinterRepository struct {
	mock.Mock
}

func (m *MockPrinterRepository) Create(ctx context.Context, printer *domain.Printer) error {
	args := m.Called(ctx, printer)
	return args.Error(0)
}

func (m *MockPrinterRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Printer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Printer), args.Error(1)
}

func (m *MockPrinterRepository) Update(ctx context.Context, printer *domain.Printer) error {
	args := m.Called(ctx, printer)
	return args.Error(0)
}

func (m *MockPrinterRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.PrinterStatus) error {
	args := m.Called(ctx, tenantID, id, status)
	return args.Error(0)
}

func (m *MockPrinterRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockPrinterRepository) List(ctx context.Context, filter *domain.PrinterFilter, limit, offset int) (*domain.PrinterList, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PrinterList), args.Error(1)
}

func (m *MockPrinterRepository) ListIdle(ctx context.Context, tenantID uuid.UUID) ([]domain.Printer, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Printer), args.Error(1)
}

// MockSpoolRepository is a mock implementation of SpoolRepository
type MockSpoolRepository struct {
	mock.Mock
}

func (m *MockSpoolRepository) Create(ctx context.Context, spool *domain.Spool) error {
	args := m.Called(ctx, spool)
	return args.Error(0)
}

func (m *MockSpoolRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Spool, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Spool), args.Error(1)
}

func (m *MockSpoolRepository) Update(ctx context.Context, spool *domain.Spool) error {
	args := m.Called(ctx, spool)
	return args.Error(0)
}

func (m *MockSpoolRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockSpoolRepository) List(ctx context.Context, filter *domain.SpoolFilter, limit, offset int) (*domain.SpoolList, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SpoolList), args.Error(1)
}

func (m *MockSpoolRepository) Consume(ctx context.Context, tenantID, id uuid.UUID, grams float64) (*domain.Spool, error) {
	args := m.Called(ctx, tenantID, id, grams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Spool), args.Error(1)
}

func (m *MockSpoolRepository) ListLowStock(ctx context.Context, tenantID uuid.UUID, thresholdGrams float64) ([]domain.Spool, error) {
	args := m.Called(ctx, tenantID, thresholdGrams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Spool), args.Error(1)
}

// MockTelemetryRepository is a mock implementation of TelemetryRepository
type MockTelemetryRepository struct {
	mock.Mock
}

func (m *MockTelemetryRepository) InsertSample(ctx context.Context, sample *domain.PrinterSample) error {
	args := m.Called(ctx, sample)
	return args.Error(0)
}

func (m *MockTelemetryRepository) InsertSamples(ctx context.Context, samples []*domain.PrinterSample) error {
	args := m.Called(ctx, samples)
	return args.Error(0)
}

func (m *MockTelemetryRepository) InsertJobEvent(ctx context.Context, event *domain.JobEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockTelemetryRepository) ListSamples(ctx context.Context, filter *domain.PrinterSampleFilter, limit int) ([]domain.PrinterSample, error) {
	args := m.Called(ctx, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PrinterSample), args.Error(1)
}

func (m *MockTelemetryRepository) LatestSample(ctx context.Context, tenantID, printerID uuid.UUID) (*domain.PrinterSample, error) {
	args := m.Called(ctx, tenantID, printerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PrinterSample), args.Error(1)
}

func (m *MockTelemetryRepository) ListJobEvents(ctx context.Context, tenantID, jobID uuid.UUID) ([]domain.JobEvent, error) {
	args := m.Called(ctx, tenantID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JobEvent), args.Error(1)
}

func (m *MockTelemetryRepository) UsageStats(ctx context.Context, filter *domain.PrinterSampleFilter) ([]domain.PrinterUsageStats, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PrinterUsageStats), args.Error(1)
}

func (m *MockTelemetryRepository) CountSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTelemetryRepository) DeleteSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTelemetryRepository) DeleteJobEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// newJobTelemetryMock returns a telemetry mock that tolerates the
// fire-and-forget lifecycle events services emit in the background.
func newJobTelemetryMock() *MockTelemetryRepository {
	telemetryRepo := new(MockTelemetryRepository)
	telemetryRepo.On("InsertJobEvent", mock.Anything, mock.AnythingOfType("*domain.JobEvent")).Return(nil).Maybe()
	return telemetryRepo
}

func TestPrintJobService_Create(t *testing.T) {
	t.Run("queues a job for a ready model", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		modelRepo := new(MockModelRepository)
		tenantRepo := new(MockTenantRepository)
		telemetryRepo := newJobTelemetryMock()

		tenantID := uuid.New()
		modelID := uuid.New()
		model := &domain.Model{ID: modelID, TenantID: tenantID, Name: "Benchy", Status: domain.ModelStatusReady}

		modelRepo.On("GetByID", mock.Anything, tenantID, modelID).Return(model, nil)
		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(nil, apperrors.NotFound("settings"))
		jobRepo.On("CountQueued", mock.Anything, tenantID).Return(int64(3), nil)
		jobRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.PrintJob")).Return(nil)

		svc := NewPrintJobService(jobRepo, modelRepo, new(MockPrinterRepository), new(MockSpoolRepository), tenantRepo, telemetryRepo)

		job, err := svc.Create(context.Background(), tenantID, &domain.PrintJobInput{
			ModelID: modelID,
		}, nil, "")

		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusQueued, job.Status)
		assert.Equal(t, domain.JobPriorityNormal, job.Priority)
		assert.Equal(t, "Benchy", job.Name)
		assert.False(t, job.QueuedAt.IsZero())
		assert.Nil(t, job.PrinterID)

		jobRepo.AssertExpectations(t)
	})

	t.Run("rejects a model that is not ready", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		modelRepo := new(MockModelRepository)

		tenantID := uuid.New()
		modelID := uuid.New()
		model := &domain.Model{ID: modelID, TenantID: tenantID, Name: "Broken", Status: domain.ModelStatusPending}

		modelRepo.On("GetByID", mock.Anything, tenantID, modelID).Return(model, nil)

		svc := NewPrintJobService(jobRepo, modelRepo, new(MockPrinterRepository), new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		job, err := svc.Create(context.Background(), tenantID, &domain.PrintJobInput{
			ModelID: modelID,
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, job)
		assert.True(t, apperrors.IsValidation(err))
		jobRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects when the queue is full", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		modelRepo := new(MockModelRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		modelID := uuid.New()
		model := &domain.Model{ID: modelID, TenantID: tenantID, Name: "Benchy", Status: domain.ModelStatusReady}
		settings := &domain.TenantSettings{TenantID: tenantID, PrintQueueCapacity: 2}

		modelRepo.On("GetByID", mock.Anything, tenantID, modelID).Return(model, nil)
		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)
		jobRepo.On("CountQueued", mock.Anything, tenantID).Return(int64(2), nil)

		svc := NewPrintJobService(jobRepo, modelRepo, new(MockPrinterRepository), new(MockSpoolRepository), tenantRepo, newJobTelemetryMock())

		job, err := svc.Create(context.Background(), tenantID, &domain.PrintJobInput{
			ModelID: modelID,
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, job)
		assert.True(t, apperrors.IsConflict(err))
		jobRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects an unknown priority", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		modelRepo := new(MockModelRepository)

		tenantID := uuid.New()
		modelID := uuid.New()
		model := &domain.Model{ID: modelID, TenantID: tenantID, Name: "Benchy", Status: domain.ModelStatusReady}

		modelRepo.On("GetByID", mock.Anything, tenantID, modelID).Return(model, nil)

		svc := NewPrintJobService(jobRepo, modelRepo, new(MockPrinterRepository), new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		job, err := svc.Create(context.Background(), tenantID, &domain.PrintJobInput{
			ModelID:  modelID,
			Priority: domain.JobPriority("yesterday"),
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, job)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("assigns immediately when a printer is chosen", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		modelRepo := new(MockModelRepository)
		printerRepo := new(MockPrinterRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		modelID := uuid.New()
		printerID := uuid.New()
		model := &domain.Model{ID: modelID, TenantID: tenantID, Name: "Benchy", Status: domain.ModelStatusReady}
		printer := &domain.Printer{ID: printerID, TenantID: tenantID, Name: "MK4-01", Status: domain.PrinterStatusIdle}

		modelRepo.On("GetByID", mock.Anything, tenantID, modelID).Return(model, nil)
		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(nil, apperrors.NotFound("settings"))
		jobRepo.On("CountQueued", mock.Anything, tenantID).Return(int64(0), nil)
		jobRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.PrintJob")).Return(nil)
		jobRepo.On("GetByID", mock.Anything, tenantID, mock.AnythingOfType("uuid.UUID")).Return(
			&domain.PrintJob{ID: uuid.New(), TenantID: tenantID, Name: "Benchy", Status: domain.JobStatusQueued}, nil)
		printerRepo.On("GetByID", mock.Anything, tenantID, printerID).Return(printer, nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, printerID).Return(int64(0), nil)
		jobRepo.On("Assign", mock.Anything, tenantID, mock.AnythingOfType("uuid.UUID"), printerID, mock.Anything).Return(nil)

		svc := NewPrintJobService(jobRepo, modelRepo, printerRepo, new(MockSpoolRepository), tenantRepo, newJobTelemetryMock())

		job, err := svc.Create(context.Background(), tenantID, &domain.PrintJobInput{
			ModelID:   modelID,
			PrinterID: &printerID,
		}, nil, "")

		require.NoError(t, err)
		require.NotNil(t, job.PrinterID)
		assert.Equal(t, printerID, *job.PrinterID)
		jobRepo.AssertExpectations(t)
	})
}

func TestPrintJobService_Transition(t *testing.T) {
	t.Run("starts an assigned job", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		printerID := uuid.New()
		job := &domain.PrintJob{
			ID:        jobID,
			TenantID:  tenantID,
			Name:      "Benchy x3",
			Status:    domain.JobStatusQueued,
			PrinterID: &printerID,
		}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)
		jobRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(j *domain.PrintJob) bool {
			return j.Status == domain.JobStatusPrinting && j.StartedAt != nil
		})).Return(nil)
		printerRepo.On("UpdateStatus", mock.Anything, tenantID, printerID, domain.PrinterStatusPrinting).Return(nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Transition(context.Background(), tenantID, jobID, &domain.PrintJobStatusInput{
			Status: domain.JobStatusPrinting,
		}, nil, "")

		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusPrinting, result.Status)
		require.NotNil(t, result.StartedAt)
		printerRepo.AssertExpectations(t)
	})

	t.Run("refuses to start an unassigned job", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		job := &domain.PrintJob{ID: jobID, TenantID: tenantID, Status: domain.JobStatusQueued}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), new(MockPrinterRepository), new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Transition(context.Background(), tenantID, jobID, &domain.PrintJobStatusInput{
			Status: domain.JobStatusPrinting,
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsConflict(err))
		jobRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})

	t.Run("rejects a transition out of a terminal state", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		job := &domain.PrintJob{ID: jobID, TenantID: tenantID, Status: domain.JobStatusCompleted}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), new(MockPrinterRepository), new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Transition(context.Background(), tenantID, jobID, &domain.PrintJobStatusInput{
			Status: domain.JobStatusPrinting,
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsInvalidTransition(err))
	})

	t.Run("completes a job and draws down the spool", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		printerID := uuid.New()
		spoolID := uuid.New()
		job := &domain.PrintJob{
			ID:                   jobID,
			TenantID:             tenantID,
			Name:                 "Benchy x3",
			Status:               domain.JobStatusPrinting,
			PrinterID:            &printerID,
			SpoolID:              &spoolID,
			EstimatedWeightGrams: 120,
		}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)
		jobRepo.On("CompleteWithConsumption", mock.Anything, mock.AnythingOfType("*domain.PrintJob"), spoolID, 132.5).Return(nil)
		printerRepo.On("UpdateStatus", mock.Anything, tenantID, printerID, domain.PrinterStatusIdle).Return(nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		actual := 132.5
		result, err := svc.Transition(context.Background(), tenantID, jobID, &domain.PrintJobStatusInput{
			Status:            domain.JobStatusCompleted,
			ActualWeightGrams: &actual,
		}, nil, "")

		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusCompleted, result.Status)
		assert.Equal(t, float64(100), result.Progress)
		assert.Equal(t, 132.5, result.ActualWeightGrams)
		require.NotNil(t, result.CompletedAt)
		jobRepo.AssertExpectations(t)
	})

	t.Run("completes a job without a spool using the estimate", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		printerID := uuid.New()
		job := &domain.PrintJob{
			ID:                   jobID,
			TenantID:             tenantID,
			Status:               domain.JobStatusPrinting,
			PrinterID:            &printerID,
			EstimatedWeightGrams: 85,
		}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)
		jobRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("*domain.PrintJob")).Return(nil)
		printerRepo.On("UpdateStatus", mock.Anything, tenantID, printerID, domain.PrinterStatusIdle).Return(nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Transition(context.Background(), tenantID, jobID, &domain.PrintJobStatusInput{
			Status: domain.JobStatusCompleted,
		}, nil, "")

		require.NoError(t, err)
		assert.Equal(t, float64(85), result.ActualWeightGrams)
		jobRepo.AssertNotCalled(t, "CompleteWithConsumption", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fails a job with a reason", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		printerID := uuid.New()
		job := &domain.PrintJob{
			ID:        jobID,
			TenantID:  tenantID,
			Status:    domain.JobStatusPrinting,
			PrinterID: &printerID,
		}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)
		jobRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(j *domain.PrintJob) bool {
			return j.Status == domain.JobStatusFailed && j.FailureReason == "nozzle clog"
		})).Return(nil)
		printerRepo.On("UpdateStatus", mock.Anything, tenantID, printerID, domain.PrinterStatusIdle).Return(nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Transition(context.Background(), tenantID, jobID, &domain.PrintJobStatusInput{
			Status:        domain.JobStatusFailed,
			FailureReason: "nozzle clog",
		}, nil, "")

		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusFailed, result.Status)
		require.NotNil(t, result.CompletedAt)
	})

	t.Run("canceling a printing job frees the printer", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		printerID := uuid.New()
		job := &domain.PrintJob{
			ID:        jobID,
			TenantID:  tenantID,
			Status:    domain.JobStatusPrinting,
			PrinterID: &printerID,
		}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)
		jobRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("*domain.PrintJob")).Return(nil)
		printerRepo.On("UpdateStatus", mock.Anything, tenantID, printerID, domain.PrinterStatusIdle).Return(nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Transition(context.Background(), tenantID, jobID, &domain.PrintJobStatusInput{
			Status: domain.JobStatusCanceled,
		}, nil, "")

		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusCanceled, result.Status)
		printerRepo.AssertExpectations(t)
	})

	t.Run("canceling a queued job leaves printers alone", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		job := &domain.PrintJob{ID: jobID, TenantID: tenantID, Status: domain.JobStatusQueued}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)
		jobRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("*domain.PrintJob")).Return(nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Cancel(context.Background(), tenantID, jobID, nil, "")

		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusCanceled, result.Status)
		printerRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPrintJobService_Assign(t *testing.T) {
	t.Run("assigns a queued job to an idle printer", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		printerID := uuid.New()
		job := &domain.PrintJob{ID: jobID, TenantID: tenantID, Name: "Benchy", Status: domain.JobStatusQueued}
		printer := &domain.Printer{ID: printerID, TenantID: tenantID, Name: "MK4-01", Status: domain.PrinterStatusIdle}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)
		printerRepo.On("GetByID", mock.Anything, tenantID, printerID).Return(printer, nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, printerID).Return(int64(0), nil)
		jobRepo.On("Assign", mock.Anything, tenantID, jobID, printerID, mock.Anything).Return(nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Assign(context.Background(), tenantID, jobID, &domain.PrintJobAssignInput{
			PrinterID: printerID,
		}, nil, "")

		require.NoError(t, err)
		require.NotNil(t, result.PrinterID)
		assert.Equal(t, printerID, *result.PrinterID)
		jobRepo.AssertExpectations(t)
	})

	t.Run("rejects a job that is not queued", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		job := &domain.PrintJob{ID: jobID, TenantID: tenantID, Status: domain.JobStatusPrinting}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), new(MockPrinterRepository), new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Assign(context.Background(), tenantID, jobID, &domain.PrintJobAssignInput{
			PrinterID: uuid.New(),
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("rejects a printer that cannot accept work", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		printerID := uuid.New()
		job := &domain.PrintJob{ID: jobID, TenantID: tenantID, Status: domain.JobStatusQueued}
		printer := &domain.Printer{ID: printerID, TenantID: tenantID, Name: "MK4-02", Status: domain.PrinterStatusMaintenance}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)
		printerRepo.On("GetByID", mock.Anything, tenantID, printerID).Return(printer, nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Assign(context.Background(), tenantID, jobID, &domain.PrintJobAssignInput{
			PrinterID: printerID,
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsConflict(err))
		jobRepo.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a printer that already holds a job", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		printerID := uuid.New()
		job := &domain.PrintJob{ID: jobID, TenantID: tenantID, Status: domain.JobStatusQueued}
		printer := &domain.Printer{ID: printerID, TenantID: tenantID, Name: "MK4-03", Status: domain.PrinterStatusIdle}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)
		printerRepo.On("GetByID", mock.Anything, tenantID, printerID).Return(printer, nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, printerID).Return(int64(1), nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Assign(context.Background(), tenantID, jobID, &domain.PrintJobAssignInput{
			PrinterID: printerID,
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("rejects a spool with too little filament", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)
		spoolRepo := new(MockSpoolRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		printerID := uuid.New()
		spoolID := uuid.New()
		job := &domain.PrintJob{ID: jobID, TenantID: tenantID, Status: domain.JobStatusQueued, EstimatedWeightGrams: 120}
		printer := &domain.Printer{ID: printerID, TenantID: tenantID, Name: "MK4-04", Status: domain.PrinterStatusIdle}
		spool := &domain.Spool{ID: spoolID, TenantID: tenantID, Status: domain.SpoolStatusActive, RemainingWeightGrams: 50}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)
		printerRepo.On("GetByID", mock.Anything, tenantID, printerID).Return(printer, nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, printerID).Return(int64(0), nil)
		spoolRepo.On("GetByID", mock.Anything, tenantID, spoolID).Return(spool, nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, spoolRepo, new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Assign(context.Background(), tenantID, jobID, &domain.PrintJobAssignInput{
			PrinterID: printerID,
			SpoolID:   &spoolID,
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsConflict(err))
		jobRepo.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("accepts a spool with enough filament", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)
		spoolRepo := new(MockSpoolRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		printerID := uuid.New()
		spoolID := uuid.New()
		job := &domain.PrintJob{ID: jobID, TenantID: tenantID, Name: "Vase", Status: domain.JobStatusQueued, EstimatedWeightGrams: 120}
		printer := &domain.Printer{ID: printerID, TenantID: tenantID, Name: "MK4-05", Status: domain.PrinterStatusIdle}
		spool := &domain.Spool{ID: spoolID, TenantID: tenantID, Status: domain.SpoolStatusActive, RemainingWeightGrams: 500}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)
		printerRepo.On("GetByID", mock.Anything, tenantID, printerID).Return(printer, nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, printerID).Return(int64(0), nil)
		spoolRepo.On("GetByID", mock.Anything, tenantID, spoolID).Return(spool, nil)
		jobRepo.On("Assign", mock.Anything, tenantID, jobID, printerID, &spoolID).Return(nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, spoolRepo, new(MockTenantRepository), newJobTelemetryMock())

		result, err := svc.Assign(context.Background(), tenantID, jobID, &domain.PrintJobAssignInput{
			PrinterID: printerID,
			SpoolID:   &spoolID,
		}, nil, "")

		require.NoError(t, err)
		require.NotNil(t, result.SpoolID)
		assert.Equal(t, spoolID, *result.SpoolID)
	})
}

func TestPrintJobService_UpdateProgress(t *testing.T) {
	t.Run("records progress", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		jobRepo.On("UpdateProgress", mock.Anything, tenantID, jobID, 42.5).Return(nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), new(MockPrinterRepository), new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		err := svc.UpdateProgress(context.Background(), tenantID, jobID, 42.5)

		require.NoError(t, err)
		jobRepo.AssertExpectations(t)
	})

	t.Run("rejects progress out of range", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), new(MockPrinterRepository), new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		err := svc.UpdateProgress(context.Background(), uuid.New(), uuid.New(), 120)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))

		err = svc.UpdateProgress(context.Background(), uuid.New(), uuid.New(), -1)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))

		jobRepo.AssertNotCalled(t, "UpdateProgress", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPrintJobService_Delete(t *testing.T) {
	t.Run("deletes a queued job", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		job := &domain.PrintJob{ID: jobID, TenantID: tenantID, Status: domain.JobStatusQueued}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)
		jobRepo.On("Delete", mock.Anything, tenantID, jobID).Return(nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), new(MockPrinterRepository), new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		err := svc.Delete(context.Background(), tenantID, jobID)

		require.NoError(t, err)
		jobRepo.AssertExpectations(t)
	})

	t.Run("refuses to delete a printing job", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)

		tenantID := uuid.New()
		jobID := uuid.New()
		job := &domain.PrintJob{ID: jobID, TenantID: tenantID, Status: domain.JobStatusPrinting}

		jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(job, nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), new(MockPrinterRepository), new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		err := svc.Delete(context.Background(), tenantID, jobID)

		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		jobRepo.AssertNotCalled(t, "Delete", mock.Anything, tenantID, jobID)
	})
}

func TestPrintJobService_Queue(t *testing.T) {
	t.Run("returns a queue snapshot with capacity", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		queued := []domain.PrintJob{
			{ID: uuid.New(), TenantID: tenantID, Status: domain.JobStatusQueued},
			{ID: uuid.New(), TenantID: tenantID, Status: domain.JobStatusQueued},
		}
		settings := &domain.TenantSettings{TenantID: tenantID, PrintQueueCapacity: 30}

		jobRepo.On("ListQueued", mock.Anything, tenantID).Return(queued, nil)
		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), new(MockPrinterRepository), new(MockSpoolRepository), tenantRepo, newJobTelemetryMock())

		snapshot, err := svc.Queue(context.Background(), tenantID)

		require.NoError(t, err)
		assert.Equal(t, 2, snapshot.QueuedLen)
		assert.Equal(t, 30, snapshot.Capacity)
		assert.Len(t, snapshot.Jobs, 2)
	})
}

// newDispatchSpoolMock returns a spool mock whose active listing yields the
// given spools.
func newDispatchSpoolMock(spools ...domain.Spool) *MockSpoolRepository {
	spoolRepo := new(MockSpoolRepository)
	spoolRepo.On("List", mock.Anything, mock.AnythingOfType("*domain.SpoolFilter"), mock.Anything, 0).
		Return(&domain.SpoolList{Spools: spools, TotalCount: int64(len(spools))}, nil)
	return spoolRepo
}

func activeSpool(tenantID uuid.UUID, remaining float64) domain.Spool {
	return domain.Spool{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		Material:             domain.SpoolMaterialPLA,
		Color:                "black",
		DiameterMM:           1.75,
		TotalWeightGrams:     1000,
		RemainingWeightGrams: remaining,
		Status:               domain.SpoolStatusActive,
	}
}

func TestPrintJobService_DispatchQueued(t *testing.T) {
	t.Run("pairs queued jobs with idle printers in order", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		jobA := domain.PrintJob{ID: uuid.New(), TenantID: tenantID, Name: "Benchy", Status: domain.JobStatusQueued}
		jobB := domain.PrintJob{ID: uuid.New(), TenantID: tenantID, Name: "Vase", Status: domain.JobStatusQueued}
		printerA := domain.Printer{ID: uuid.New(), TenantID: tenantID, Name: "MK4-01", Status: domain.PrinterStatusIdle}
		printerB := domain.Printer{ID: uuid.New(), TenantID: tenantID, Name: "MK4-02", Status: domain.PrinterStatusIdle}
		settings := &domain.TenantSettings{TenantID: tenantID, AutoAssignJobs: true, PrintQueueCapacity: 100}

		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)
		jobRepo.On("ListQueued", mock.Anything, tenantID).Return([]domain.PrintJob{jobA, jobB}, nil)
		printerRepo.On("ListIdle", mock.Anything, tenantID).Return([]domain.Printer{printerA, printerB}, nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, printerA.ID).Return(int64(0), nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, printerB.ID).Return(int64(0), nil)
		jobRepo.On("Assign", mock.Anything, tenantID, jobA.ID, printerA.ID, mock.Anything).Return(nil)
		jobRepo.On("Assign", mock.Anything, tenantID, jobB.ID, printerB.ID, mock.Anything).Return(nil)

		spoolRepo := newDispatchSpoolMock(activeSpool(tenantID, 800), activeSpool(tenantID, 600))
		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, spoolRepo, tenantRepo, newJobTelemetryMock())

		assigned, err := svc.DispatchQueued(context.Background(), tenantID, 0)

		require.NoError(t, err)
		assert.Equal(t, 2, assigned)
		jobRepo.AssertExpectations(t)
	})

	t.Run("pairs each job with the smallest spool that covers its estimate", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		job := domain.PrintJob{ID: uuid.New(), TenantID: tenantID, Name: "Benchy", Status: domain.JobStatusQueued, EstimatedWeightGrams: 120}
		printer := domain.Printer{ID: uuid.New(), TenantID: tenantID, Name: "MK4-01", Status: domain.PrinterStatusIdle}
		settings := &domain.TenantSettings{TenantID: tenantID, AutoAssignJobs: true, PrintQueueCapacity: 100}

		big := activeSpool(tenantID, 900)
		fit := activeSpool(tenantID, 150)
		thin := activeSpool(tenantID, 50)

		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)
		jobRepo.On("ListQueued", mock.Anything, tenantID).Return([]domain.PrintJob{job}, nil)
		printerRepo.On("ListIdle", mock.Anything, tenantID).Return([]domain.Printer{printer}, nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, printer.ID).Return(int64(0), nil)
		jobRepo.On("Assign", mock.Anything, tenantID, job.ID, printer.ID, &fit.ID).Return(nil)

		spoolRepo := newDispatchSpoolMock(big, fit, thin)
		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, spoolRepo, tenantRepo, newJobTelemetryMock())

		assigned, err := svc.DispatchQueued(context.Background(), tenantID, 0)

		require.NoError(t, err)
		assert.Equal(t, 1, assigned)
		jobRepo.AssertExpectations(t)
	})

	t.Run("leaves jobs without a usable spool queued", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		heavy := domain.PrintJob{ID: uuid.New(), TenantID: tenantID, Name: "Helmet", Status: domain.JobStatusQueued, EstimatedWeightGrams: 500}
		light := domain.PrintJob{ID: uuid.New(), TenantID: tenantID, Name: "Keychain", Status: domain.JobStatusQueued, EstimatedWeightGrams: 20}
		printer := domain.Printer{ID: uuid.New(), TenantID: tenantID, Name: "MK4-01", Status: domain.PrinterStatusIdle}
		settings := &domain.TenantSettings{TenantID: tenantID, AutoAssignJobs: true, PrintQueueCapacity: 100}

		spool := activeSpool(tenantID, 100)

		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)
		jobRepo.On("ListQueued", mock.Anything, tenantID).Return([]domain.PrintJob{heavy, light}, nil)
		printerRepo.On("ListIdle", mock.Anything, tenantID).Return([]domain.Printer{printer}, nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, printer.ID).Return(int64(0), nil)
		jobRepo.On("Assign", mock.Anything, tenantID, light.ID, printer.ID, &spool.ID).Return(nil)

		spoolRepo := newDispatchSpoolMock(spool)
		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, spoolRepo, tenantRepo, newJobTelemetryMock())

		assigned, err := svc.DispatchQueued(context.Background(), tenantID, 0)

		require.NoError(t, err)
		assert.Equal(t, 1, assigned)
		jobRepo.AssertNotCalled(t, "Assign", mock.Anything, tenantID, heavy.ID, mock.Anything, mock.Anything)
	})

	t.Run("skips printers that picked up work since the idle listing", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		job := domain.PrintJob{ID: uuid.New(), TenantID: tenantID, Name: "Benchy", Status: domain.JobStatusQueued}
		busy := domain.Printer{ID: uuid.New(), TenantID: tenantID, Name: "MK4-01", Status: domain.PrinterStatusIdle}
		free := domain.Printer{ID: uuid.New(), TenantID: tenantID, Name: "MK4-02", Status: domain.PrinterStatusIdle}
		settings := &domain.TenantSettings{TenantID: tenantID, AutoAssignJobs: true, PrintQueueCapacity: 100}

		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)
		jobRepo.On("ListQueued", mock.Anything, tenantID).Return([]domain.PrintJob{job}, nil)
		printerRepo.On("ListIdle", mock.Anything, tenantID).Return([]domain.Printer{busy, free}, nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, busy.ID).Return(int64(1), nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, free.ID).Return(int64(0), nil)
		jobRepo.On("Assign", mock.Anything, tenantID, job.ID, free.ID, mock.Anything).Return(nil)

		spoolRepo := newDispatchSpoolMock(activeSpool(tenantID, 800))
		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, spoolRepo, tenantRepo, newJobTelemetryMock())

		assigned, err := svc.DispatchQueued(context.Background(), tenantID, 0)

		require.NoError(t, err)
		assert.Equal(t, 1, assigned)
		jobRepo.AssertExpectations(t)
	})

	t.Run("stops when no idle printer remains", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		jobA := domain.PrintJob{ID: uuid.New(), TenantID: tenantID, Name: "Benchy", Status: domain.JobStatusQueued}
		jobB := domain.PrintJob{ID: uuid.New(), TenantID: tenantID, Name: "Vase", Status: domain.JobStatusQueued}
		printer := domain.Printer{ID: uuid.New(), TenantID: tenantID, Name: "MK4-01", Status: domain.PrinterStatusIdle}
		settings := &domain.TenantSettings{TenantID: tenantID, AutoAssignJobs: true, PrintQueueCapacity: 100}

		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)
		jobRepo.On("ListQueued", mock.Anything, tenantID).Return([]domain.PrintJob{jobA, jobB}, nil)
		printerRepo.On("ListIdle", mock.Anything, tenantID).Return([]domain.Printer{printer}, nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, printer.ID).Return(int64(0), nil)
		jobRepo.On("Assign", mock.Anything, tenantID, jobA.ID, printer.ID, mock.Anything).Return(nil)

		spoolRepo := newDispatchSpoolMock(activeSpool(tenantID, 800), activeSpool(tenantID, 700))
		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, spoolRepo, tenantRepo, newJobTelemetryMock())

		assigned, err := svc.DispatchQueued(context.Background(), tenantID, 0)

		require.NoError(t, err)
		assert.Equal(t, 1, assigned)
		jobRepo.AssertNotCalled(t, "Assign", mock.Anything, tenantID, jobB.ID, mock.Anything, mock.Anything)
	})

	t.Run("stops at the assignment cap", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		jobA := domain.PrintJob{ID: uuid.New(), TenantID: tenantID, Name: "Benchy", Status: domain.JobStatusQueued}
		jobB := domain.PrintJob{ID: uuid.New(), TenantID: tenantID, Name: "Vase", Status: domain.JobStatusQueued}
		printerA := domain.Printer{ID: uuid.New(), TenantID: tenantID, Name: "MK4-01", Status: domain.PrinterStatusIdle}
		printerB := domain.Printer{ID: uuid.New(), TenantID: tenantID, Name: "MK4-02", Status: domain.PrinterStatusIdle}
		settings := &domain.TenantSettings{TenantID: tenantID, AutoAssignJobs: true, PrintQueueCapacity: 100}

		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)
		jobRepo.On("ListQueued", mock.Anything, tenantID).Return([]domain.PrintJob{jobA, jobB}, nil)
		printerRepo.On("ListIdle", mock.Anything, tenantID).Return([]domain.Printer{printerA, printerB}, nil)
		jobRepo.On("CountActiveByPrinter", mock.Anything, tenantID, printerA.ID).Return(int64(0), nil)
		jobRepo.On("Assign", mock.Anything, tenantID, jobA.ID, printerA.ID, mock.Anything).Return(nil)

		spoolRepo := newDispatchSpoolMock(activeSpool(tenantID, 800))
		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, spoolRepo, tenantRepo, newJobTelemetryMock())

		assigned, err := svc.DispatchQueued(context.Background(), tenantID, 1)

		require.NoError(t, err)
		assert.Equal(t, 1, assigned)
		jobRepo.AssertNotCalled(t, "Assign", mock.Anything, tenantID, jobB.ID, mock.Anything, mock.Anything)
	})

	t.Run("does nothing when auto-assign is off", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		settings := &domain.TenantSettings{TenantID: tenantID, AutoAssignJobs: false, PrintQueueCapacity: 100}

		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), new(MockPrinterRepository), new(MockSpoolRepository), tenantRepo, newJobTelemetryMock())

		assigned, err := svc.DispatchQueued(context.Background(), tenantID, 0)

		require.NoError(t, err)
		assert.Equal(t, 0, assigned)
		jobRepo.AssertNotCalled(t, "ListQueued", mock.Anything, tenantID)
	})

	t.Run("does nothing when the queue is empty", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)
		tenantRepo := new(MockTenantRepository)

		tenantID := uuid.New()
		settings := &domain.TenantSettings{TenantID: tenantID, AutoAssignJobs: true, PrintQueueCapacity: 100}

		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)
		jobRepo.On("ListQueued", mock.Anything, tenantID).Return([]domain.PrintJob{}, nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, new(MockSpoolRepository), tenantRepo, newJobTelemetryMock())

		assigned, err := svc.DispatchQueued(context.Background(), tenantID, 0)

		require.NoError(t, err)
		assert.Equal(t, 0, assigned)
		printerRepo.AssertNotCalled(t, "ListIdle", mock.Anything, tenantID)
	})

	t.Run("does nothing when no printer is idle", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)
		tenantRepo := new(MockTenantRepository)
		spoolRepo := new(MockSpoolRepository)

		tenantID := uuid.New()
		job := domain.PrintJob{ID: uuid.New(), TenantID: tenantID, Name: "Benchy", Status: domain.JobStatusQueued}
		settings := &domain.TenantSettings{TenantID: tenantID, AutoAssignJobs: true, PrintQueueCapacity: 100}

		tenantRepo.On("GetSettings", mock.Anything, tenantID).Return(settings, nil)
		jobRepo.On("ListQueued", mock.Anything, tenantID).Return([]domain.PrintJob{job}, nil)
		printerRepo.On("ListIdle", mock.Anything, tenantID).Return([]domain.Printer{}, nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, spoolRepo, tenantRepo, newJobTelemetryMock())

		assigned, err := svc.DispatchQueued(context.Background(), tenantID, 0)

		require.NoError(t, err)
		assert.Equal(t, 0, assigned)
		spoolRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPrintJobService_RequeueStale(t *testing.T) {
	t.Run("requeues printing jobs whose printer went quiet", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)

		tenantID := uuid.New()
		printerID := uuid.New()
		job := domain.PrintJob{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Name:      "Benchy",
			Status:    domain.JobStatusPrinting,
			PrinterID: &printerID,
		}
		printer := &domain.Printer{ID: printerID, TenantID: tenantID, Name: "MK4-01", Status: domain.PrinterStatusPrinting}

		jobRepo.On("ListStalePrinting", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.PrintJob{job}, nil)
		jobRepo.On("Requeue", mock.Anything, tenantID, job.ID).Return(nil)
		printerRepo.On("GetByID", mock.Anything, tenantID, printerID).Return(printer, nil)
		printerRepo.On("UpdateStatus", mock.Anything, tenantID, printerID, domain.PrinterStatusOffline).Return(nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		requeued, err := svc.RequeueStale(context.Background(), 30*time.Minute)

		require.NoError(t, err)
		assert.Equal(t, 1, requeued)
		jobRepo.AssertExpectations(t)
		printerRepo.AssertExpectations(t)
	})

	t.Run("skips jobs that moved on between the scan and the requeue", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)
		printerRepo := new(MockPrinterRepository)

		tenantID := uuid.New()
		printerID := uuid.New()
		job := domain.PrintJob{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Name:      "Benchy",
			Status:    domain.JobStatusPrinting,
			PrinterID: &printerID,
		}

		jobRepo.On("ListStalePrinting", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.PrintJob{job}, nil)
		jobRepo.On("Requeue", mock.Anything, tenantID, job.ID).Return(apperrors.NotFound("print job"))

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), printerRepo, new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		requeued, err := svc.RequeueStale(context.Background(), 30*time.Minute)

		require.NoError(t, err)
		assert.Equal(t, 0, requeued)
		printerRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns zero when nothing is stuck", func(t *testing.T) {
		jobRepo := new(MockPrintJobRepository)

		jobRepo.On("ListStalePrinting", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.PrintJob{}, nil)

		svc := NewPrintJobService(jobRepo, new(MockModelRepository), new(MockPrinterRepository), new(MockSpoolRepository), new(MockTenantRepository), newJobTelemetryMock())

		requeued, err := svc.RequeueStale(context.Background(), 30*time.Minute)

		require.NoError(t, err)
		assert.Equal(t, 0, requeued)
	})
}

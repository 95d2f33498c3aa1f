package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/middleware"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/testutil"
)

// MockPrintJobService mocks the print job service for handler tests.
type MockPrintJobService struct {
	mock.Mock
}

func (m *MockPrintJobService) Create(ctx context.Context, tenantID uuid.UUID, input *domain.PrintJobInput, actorID *uuid.UUID, actorEmail string) (*domain.PrintJob, error) {
	args := m.Called(ctx, tenantID, input, actorID, actorEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PrintJob), args.Error(1)
}

func (m *MockPrintJobService) Queue(ctx context.Context, tenantID uuid.UUID) (*domain.QueueSnapshot, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueSnapshot), args.Error(1)
}

func (m *MockPrintJobService) Transition(ctx context.Context, tenantID, jobID uuid.UUID, input *domain.PrintJobStatusInput, actorID *uuid.UUID, actorEmail string) (*domain.PrintJob, error) {
	args := m.Called(ctx, tenantID, jobID, input, actorID, actorEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PrintJob), args.Error(1)
}

func (m *MockPrintJobService) Assign(ctx context.Context, tenantID, jobID uuid.UUID, input *domain.PrintJobAssignInput, actorID *uuid.UUID, actorEmail string) (*domain.PrintJob, error) {
	args := m.Called(ctx, tenantID, jobID, input, actorID, actorEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PrintJob), args.Error(1)
}

func (m *MockPrintJobService) Cancel(ctx context.Context, tenantID, jobID uuid.UUID, actorID *uuid.UUID, actorEmail string) (*domain.PrintJob, error) {
	args := m.Called(ctx, tenantID, jobID, actorID, actorEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PrintJob), args.Error(1)
}

func setupPrintJobsTestApp(mockSvc *MockPrintJobService, tenantID *uuid.UUID) *fiber.App {
	app := fiber.New()
	logger := zap.NewNop()

	if tenantID != nil {
		app.Use(testutil.TestTenantMiddleware(*tenantID))
	}

	// GetQueue
	app.Get("/print-jobs/queue", func(c *fiber.Ctx) error {
		tenantID, ok := middleware.GetTenantID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Tenant ID not found",
			})
		}

		snapshot, err := mockSvc.Queue(c.Context(), tenantID)
		if err != nil {
			logger.Error("failed to get queue", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Internal Server Error",
				"message": "Failed to get queue",
			})
		}

		return c.JSON(snapshot)
	})

	// CreatePrintJob
	app.Post("/print-jobs", func(c *fiber.Ctx) error {
		tenantID, ok := middleware.GetTenantID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Tenant ID not found",
			})
		}

		var input domain.PrintJobInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid request body: " + err.Error(),
			})
		}

		job, err := mockSvc.Create(c.Context(), tenantID, &input, nil, "")
		if err != nil {
			if apperrors.IsNotFound(err) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error":   "Not Found",
					"message": err.Error(),
				})
			}
			if apperrors.IsValidation(err) {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error":   "Unprocessable Entity",
					"message": err.Error(),
				})
			}
			logger.Error("failed to create print job", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Internal Server Error",
				"message": "Failed to create print job",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(job)
	})

	// TransitionPrintJob
	app.Post("/print-jobs/:jobId/status", func(c *fiber.Ctx) error {
		tenantID, ok := middleware.GetTenantID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Tenant ID not found",
			})
		}

		jobID, err := uuid.Parse(c.Params("jobId"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid job ID",
			})
		}

		var input domain.PrintJobStatusInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid request body: " + err.Error(),
			})
		}

		job, err := mockSvc.Transition(c.Context(), tenantID, jobID, &input, nil, "")
		if err != nil {
			if apperrors.IsNotFound(err) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error":   "Not Found",
					"message": "Print job not found",
				})
			}
			if apperrors.IsValidation(err) || apperrors.IsInvalidTransition(err) {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error":   "Unprocessable Entity",
					"message": err.Error(),
				})
			}
			logger.Error("failed to transition print job", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Internal Server Error",
				"message": "Failed to transition print job",
			})
		}

		return c.JSON(job)
	})

	// AssignPrintJob
	app.Post("/print-jobs/:jobId/assign", func(c *fiber.Ctx) error {
		tenantID, ok := middleware.GetTenantID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Tenant ID not found",
			})
		}

		jobID, err := uuid.Parse(c.Params("jobId"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid job ID",
			})
		}

		var input domain.PrintJobAssignInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid request body: " + err.Error(),
			})
		}

		job, err := mockSvc.Assign(c.Context(), tenantID, jobID, &input, nil, "")
		if err != nil {
			if apperrors.IsNotFound(err) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error":   "Not Found",
					"message": err.Error(),
				})
			}
			if apperrors.IsValidation(err) || apperrors.IsInvalidTransition(err) {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error":   "Unprocessable Entity",
					"message": err.Error(),
				})
			}
			if apperrors.IsConflict(err) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error":   "Conflict",
					"message": err.Error(),
				})
			}
			logger.Error("failed to assign print job", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Internal Server Error",
				"message": "Failed to assign print job",
			})
		}

		return c.JSON(job)
	})

	// CancelPrintJob
	app.Post("/print-jobs/:jobId/cancel", func(c *fiber.Ctx) error {
		tenantID, ok := middleware.GetTenantID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Tenant ID not found",
			})
		}

		jobID, err := uuid.Parse(c.Params("jobId"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid job ID",
			})
		}

		job, err := mockSvc.Cancel(c.Context(), tenantID, jobID, nil, "")
		if err != nil {
			if apperrors.IsNotFound(err) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error":   "Not Found",
					"message": "Print job not found",
				})
			}
			if apperrors.IsValidation(err) || apperrors.IsInvalidTransition(err) {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error":   "Unprocessable Entity",
					"message": err.Error(),
				})
			}
			logger.Error("failed to cancel print job", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Internal Server Error",
				"message": "Failed to cancel print job",
			})
		}

		return c.JSON(job)
	})

	return app
}

// --- GetQueue Tests ---

func TestPrintJobsHandler_GetQueue(t *testing.T) {
	t.Parallel()
	t.Run("successfully returns queue snapshot", func(t *testing.T) {
		t.Parallel()
		mockSvc := new(MockPrintJobService)
		tenantID := uuid.New()
		modelID := uuid.New()
		app := setupPrintJobsTestApp(mockSvc, &tenantID)

		snapshot := &domain.QueueSnapshot{
			Jobs: []domain.PrintJob{
				*testutil.NewTestPrintJob(tenantID, modelID),
				*testutil.NewTestPrintJob(tenantID, modelID),
			},
			Capacity:  3,
			TakenAt:   time.Now(),
			QueuedLen: 2,
		}

		mockSvc.On("Queue", mock.Anything, tenantID).Return(snapshot, nil)

		req := httptest.NewRequest(http.MethodGet, "/print-jobs/queue", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)

		assert.Len(t, result["jobs"], 2)
		assert.Equal(t, float64(3), result["capacity"])
		assert.Equal(t, float64(2), result["queuedLen"])

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 401 without tenant context", func(t *testing.T) {
		t.Parallel()
		mockSvc := new(MockPrintJobService)
		app := setupPrintJobsTestApp(mockSvc, nil)

		req := httptest.NewRequest(http.MethodGet, "/print-jobs/queue", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

// --- CreatePrintJob Tests ---

func TestPrintJobsHandler_CreatePrintJob(t *testing.T) {
	t.Parallel()
	t.Run("successfully creates print job", func(t *testing.T) {
		t.Parallel()
		mockSvc := new(MockPrintJobService)
		tenantID := uuid.New()
		modelID := uuid.New()
		app := setupPrintJobsTestApp(mockSvc, &tenantID)

		job := testutil.NewTestPrintJob(tenantID, modelID)

		mockSvc.On("Create", mock.Anything, tenantID, mock.MatchedBy(func(in *domain.PrintJobInput) bool {
			return in.ModelID == modelID && in.Priority == domain.JobPriorityHigh
		}), mock.Anything, "").Return(job, nil)

		body, _ := json.Marshal(map[string]interface{}{
			"modelId":  modelID,
			"priority": "high",
		})
		req := httptest.NewRequest(http.MethodPost, "/print-jobs", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var created map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&created)
		assert.Equal(t, string(domain.JobStatusQueued), created["status"])

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 404 for unknown model", func(t *testing.T) {
		t.Parallel()
		mockSvc := new(MockPrintJobService)
		tenantID := uuid.New()
		app := setupPrintJobsTestApp(mockSvc, &tenantID)

		mockSvc.On("Create", mock.Anything, tenantID, mock.AnythingOfType("*domain.PrintJobInput"), mock.Anything, "").
			Return(nil, apperrors.NotFound("model"))

		body, _ := json.Marshal(map[string]interface{}{
			"modelId": uuid.New(),
		})
		req := httptest.NewRequest(http.MethodPost, "/print-jobs", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		mockSvc.AssertExpectations(t)
	})
}

// --- TransitionPrintJob Tests ---

func TestPrintJobsHandler_TransitionPrintJob(t *testing.T) {
	t.Parallel()
	t.Run("successfully transitions job status", func(t *testing.T) {
		t.Parallel()
		mockSvc := new(MockPrintJobService)
		tenantID := uuid.New()
		modelID := uuid.New()
		app := setupPrintJobsTestApp(mockSvc, &tenantID)

		job := testutil.NewTestPrintJob(tenantID, modelID)
		job.Status = domain.JobStatusPrinting

		mockSvc.On("Transition", mock.Anything, tenantID, job.ID, mock.MatchedBy(func(in *domain.PrintJobStatusInput) bool {
			return in.Status == domain.JobStatusPrinting
		}), mock.Anything, "").Return(job, nil)

		body, _ := json.Marshal(map[string]interface{}{
			"status": "printing",
		})
		req := httptest.NewRequest(http.MethodPost, "/print-jobs/"+job.ID.String()+"/status", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, string(domain.JobStatusPrinting), result["status"])

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 422 for invalid transition", func(t *testing.T) {
		t.Parallel()
		mockSvc := new(MockPrintJobService)
		tenantID := uuid.New()
		jobID := uuid.New()
		app := setupPrintJobsTestApp(mockSvc, &tenantID)

		mockSvc.On("Transition", mock.Anything, tenantID, jobID, mock.AnythingOfType("*domain.PrintJobStatusInput"), mock.Anything, "").
			Return(nil, apperrors.InvalidTransition("print job", "completed", "printing"))

		body, _ := json.Marshal(map[string]interface{}{
			"status": "printing",
		})
		req := httptest.NewRequest(http.MethodPost, "/print-jobs/"+jobID.String()+"/status", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 404 for unknown job", func(t *testing.T) {
		t.Parallel()
		mockSvc := new(MockPrintJobService)
		tenantID := uuid.New()
		jobID := uuid.New()
		app := setupPrintJobsTestApp(mockSvc, &tenantID)

		mockSvc.On("Transition", mock.Anything, tenantID, jobID, mock.AnythingOfType("*domain.PrintJobStatusInput"), mock.Anything, "").
			Return(nil, apperrors.NotFound("print job"))

		body, _ := json.Marshal(map[string]interface{}{
			"status": "printing",
		})
		req := httptest.NewRequest(http.MethodPost, "/print-jobs/"+jobID.String()+"/status", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		mockSvc.AssertExpectations(t)
	})
}

// --- AssignPrintJob Tests ---

func TestPrintJobsHandler_AssignPrintJob(t *testing.T) {
	t.Parallel()
	t.Run("successfully assigns job to printer", func(t *testing.T) {
		t.Parallel()
		mockSvc := new(MockPrintJobService)
		tenantID := uuid.New()
		modelID := uuid.New()
		printerID := uuid.New()
		app := setupPrintJobsTestApp(mockSvc, &tenantID)

		job := testutil.NewTestPrintJob(tenantID, modelID)
		job.PrinterID = &printerID

		mockSvc.On("Assign", mock.Anything, tenantID, job.ID, mock.MatchedBy(func(in *domain.PrintJobAssignInput) bool {
			return in.PrinterID == printerID
		}), mock.Anything, "").Return(job, nil)

		body, _ := json.Marshal(map[string]interface{}{
			"printerId": printerID,
		})
		req := httptest.NewRequest(http.MethodPost, "/print-jobs/"+job.ID.String()+"/assign", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, printerID.String(), result["printerId"])

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 409 when printer is busy", func(t *testing.T) {
		t.Parallel()
		mockSvc := new(MockPrintJobService)
		tenantID := uuid.New()
		jobID := uuid.New()
		app := setupPrintJobsTestApp(mockSvc, &tenantID)

		mockSvc.On("Assign", mock.Anything, tenantID, jobID, mock.AnythingOfType("*domain.PrintJobAssignInput"), mock.Anything, "").
			Return(nil, apperrors.Conflict("printer is not idle"))

		body, _ := json.Marshal(map[string]interface{}{
			"printerId": uuid.New(),
		})
		req := httptest.NewRequest(http.MethodPost, "/print-jobs/"+jobID.String()+"/assign", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		mockSvc.AssertExpectations(t)
	})
}

// --- CancelPrintJob Tests ---

func TestPrintJobsHandler_CancelPrintJob(t *testing.T) {
	t.Parallel()
	t.Run("successfully cancels queued job", func(t *testing.T) {
		t.Parallel()
		mockSvc := new(MockPrintJobService)
		tenantID := uuid.New()
		modelID := uuid.New()
		app := setupPrintJobsTestApp(mockSvc, &tenantID)

		job := testutil.NewTestPrintJob(tenantID, modelID)
		job.Status = domain.JobStatusCanceled

		mockSvc.On("Cancel", mock.Anything, tenantID, job.ID, mock.Anything, "").Return(job, nil)

		req := httptest.NewRequest(http.MethodPost, "/print-jobs/"+job.ID.String()+"/cancel", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, string(domain.JobStatusCanceled), result["status"])

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 422 when job is already terminal", func(t *testing.T) {
		t.Parallel()
		mockSvc := new(MockPrintJobService)
		tenantID := uuid.New()
		jobID := uuid.New()
		app := setupPrintJobsTestApp(mockSvc, &tenantID)

		mockSvc.On("Cancel", mock.Anything, tenantID, jobID, mock.Anything, "").
			Return(nil, apperrors.InvalidTransition("print job", "completed", "canceled"))

		req := httptest.NewRequest(http.MethodPost, "/print-jobs/"+jobID.String()+"/cancel", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		mockSvc.AssertExpectations(t)
	})
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/middleware"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/service"
	"github.com/printforge/printforge/api/internal/worker"
)

// PrintJobsHandler handles print job and queue endpoints
type PrintJobsHandler struct {
	jobService  *service.PrintJobService
	authService *service.AuthService
	asynqClient *asynq.Client
	logger      *zap.Logger
}

// NewPrintJobsHandler creates a new print jobs handler
func NewPrintJobsHandler(jobService *service.PrintJobService, authService *service.AuthService, asynqClient *asynq.Client, logger *zap.Logger) *PrintJobsHandler {
	return &PrintJobsHandler{
		jobService:  jobService,
		authService: authService,
		asynqClient: asynqClient,
		logger:      logger,
	}
}

// enqueueDispatch nudges the dispatch worker after the queue or the printer
// pool changed. Best effort, the periodic sweep picks up anything missed here.
func (h *PrintJobsHandler) enqueueDispatch(tenantID uuid.UUID) {
	if h.asynqClient == nil {
		return
	}
	payload := &worker.JobDispatchPayload{TenantID: tenantID.String()}
	if err := worker.EnqueueJobDispatch(h.asynqClient, payload); err != nil {
		h.logger.Warn("failed to enqueue dispatch task",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
	}
}

// ListPrintJobs handles GET /v1/tenants/:tenantId/print-jobs
func (h *PrintJobsHandler) ListPrintJobs(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	filter := &domain.PrintJobFilter{
		TenantID: tenantID,
	}

	if status := c.Query("status"); status != "" {
		s := domain.JobStatus(status)
		if !s.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid status",
			})
		}
		filter.Status = &s
	}
	if priority := c.Query("priority"); priority != "" {
		p := domain.JobPriority(priority)
		if !p.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid priority",
			})
		}
		filter.Priority = &p
	}
	if printerID := parseQueryUUID(c, "printerId"); printerID != nil {
		filter.PrinterID = printerID
	}
	if modelID := parseQueryUUID(c, "modelId"); modelID != nil {
		filter.ModelID = modelID
	}
	if orderID := parseQueryUUID(c, "orderId"); orderID != nil {
		filter.OrderID = orderID
	}

	p := ParsePagination(c, 100)

	list, err := h.jobService.List(c.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("failed to list print jobs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list print jobs",
		})
	}

	return c.JSON(list)
}

// GetQueue handles GET /v1/tenants/:tenantId/print-jobs/queue
func (h *PrintJobsHandler) GetQueue(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	snapshot, err := h.jobService.Queue(c.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to get print queue", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get print queue",
		})
	}

	return c.JSON(snapshot)
}

// GetPrintJob handles GET /v1/tenants/:tenantId/print-jobs/:jobId
func (h *PrintJobsHandler) GetPrintJob(c *fiber.Ctx) error {
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

	job, err := h.jobService.Get(c.Context(), tenantID, jobID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Print job not found",
			})
		}
		h.logger.Error("failed to get print job", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get print job",
		})
	}

	return c.JSON(job)
}

// CreatePrintJob handles POST /v1/tenants/:tenantId/print-jobs
func (h *PrintJobsHandler) CreatePrintJob(c *fiber.Ctx) error {
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

	actorID, email := h.actor(c)

	job, err := h.jobService.Create(c.Context(), tenantID, &input, actorID, email)
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
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to create print job", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to create print job",
		})
	}

	h.enqueueDispatch(tenantID)

	return c.Status(fiber.StatusCreated).JSON(job)
}

// UpdatePrintJob handles PATCH /v1/tenants/:tenantId/print-jobs/:jobId
func (h *PrintJobsHandler) UpdatePrintJob(c *fiber.Ctx) error {
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

	var input domain.PrintJobUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	job, err := h.jobService.Update(c.Context(), tenantID, jobID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Print job not found",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to update print job", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to update print job",
		})
	}

	return c.JSON(job)
}

// TransitionPrintJob handles POST /v1/tenants/:tenantId/print-jobs/:jobId/status
func (h *PrintJobsHandler) TransitionPrintJob(c *fiber.Ctx) error {
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

	actorID, email := h.actor(c)

	job, err := h.jobService.Transition(c.Context(), tenantID, jobID, &input, actorID, email)
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
		h.logger.Error("failed to transition print job", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to transition print job",
		})
	}

	// A terminal transition frees a printer for the next queued job
	switch job.Status {
	case domain.JobStatusCompleted, domain.JobStatusFailed, domain.JobStatusCanceled:
		h.enqueueDispatch(tenantID)
	}

	return c.JSON(job)
}

// AssignPrintJob handles POST /v1/tenants/:tenantId/print-jobs/:jobId/assign
func (h *PrintJobsHandler) AssignPrintJob(c *fiber.Ctx) error {
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

	actorID, email := h.actor(c)

	job, err := h.jobService.Assign(c.Context(), tenantID, jobID, &input, actorID, email)
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
		h.logger.Error("failed to assign print job", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to assign print job",
		})
	}

	return c.JSON(job)
}

// CancelPrintJob handles POST /v1/tenants/:tenantId/print-jobs/:jobId/cancel
func (h *PrintJobsHandler) CancelPrintJob(c *fiber.Ctx) error {
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

	actorID, email := h.actor(c)

	job, err := h.jobService.Cancel(c.Context(), tenantID, jobID, actorID, email)
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
		h.logger.Error("failed to cancel print job", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to cancel print job",
		})
	}

	h.enqueueDispatch(tenantID)

	return c.JSON(job)
}

// DeletePrintJob handles DELETE /v1/tenants/:tenantId/print-jobs/:jobId
func (h *PrintJobsHandler) DeletePrintJob(c *fiber.Ctx) error {
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

	if err := h.jobService.Delete(c.Context(), tenantID, jobID); err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Print job not found",
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to delete print job", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to delete print job",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PrintJobsHandler) actor(c *fiber.Ctx) (*uuid.UUID, string) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil, ""
	}
	user, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return &userID, ""
	}
	return &userID, user.Email
}

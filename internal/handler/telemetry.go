package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/middleware"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/service"
)

// TelemetryHandler handles printer telemetry endpoints
type TelemetryHandler struct {
	telemetryService *service.TelemetryService
	logger           *zap.Logger
}

// NewTelemetryHandler creates a new telemetry handler
func NewTelemetryHandler(telemetryService *service.TelemetryService, logger *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		telemetryService: telemetryService,
		logger:           logger,
	}
}

// IngestSamples handles POST /public/telemetry/samples
//
// Accepts a batch of printer samples from an agent and writes them to
// the telemetry store. Responds with the number of accepted samples.
func (h *TelemetryHandler) IngestSamples(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	var batch domain.TelemetryBatch
	if err := c.BodyParser(&batch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	if len(batch.Samples) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "samples is required",
		})
	}

	accepted, err := h.telemetryService.IngestBatch(c.Context(), tenantID, &batch)
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
		h.logger.Error("failed to ingest telemetry", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to ingest telemetry",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"accepted": accepted,
	})
}

// ListSamples handles GET /v1/tenants/:tenantId/telemetry/samples
func (h *TelemetryHandler) ListSamples(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	filter, err := h.sampleFilter(c, tenantID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": err.Error(),
		})
	}

	limit := parseQueryInt(c, "limit", 100)
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	samples, err := h.telemetryService.ListSamples(c.Context(), filter, limit)
	if err != nil {
		h.logger.Error("failed to list telemetry samples", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list telemetry samples",
		})
	}

	return c.JSON(fiber.Map{
		"samples": samples,
	})
}

// GetUsageStats handles GET /v1/tenants/:tenantId/telemetry/usage
func (h *TelemetryHandler) GetUsageStats(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	filter, err := h.sampleFilter(c, tenantID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": err.Error(),
		})
	}

	stats, err := h.telemetryService.UsageStats(c.Context(), filter)
	if err != nil {
		h.logger.Error("failed to get usage stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get usage stats",
		})
	}

	return c.JSON(fiber.Map{
		"printers": stats,
	})
}

// GetJobTimeline handles GET /v1/tenants/:tenantId/telemetry/jobs/:jobId/timeline
func (h *TelemetryHandler) GetJobTimeline(c *fiber.Ctx) error {
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

	events, err := h.telemetryService.JobTimeline(c.Context(), tenantID, jobID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Print job not found",
			})
		}
		h.logger.Error("failed to get job timeline", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get job timeline",
		})
	}

	return c.JSON(fiber.Map{
		"events": events,
	})
}

// sampleFilter builds a sample filter from printerId, jobId, from and
// to query parameters.
func (h *TelemetryHandler) sampleFilter(c *fiber.Ctx, tenantID uuid.UUID) (*domain.PrinterSampleFilter, error) {
	filter := &domain.PrinterSampleFilter{
		TenantID: tenantID,
	}

	if printerID := parseQueryUUID(c, "printerId"); printerID != nil {
		filter.PrinterID = printerID
	}
	if jobID := parseQueryUUID(c, "jobId"); jobID != nil {
		filter.JobID = jobID
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return nil, apperrors.BadRequest("Invalid from timestamp, expected RFC3339")
		}
		filter.FromTime = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return nil, apperrors.BadRequest("Invalid to timestamp, expected RFC3339")
		}
		filter.ToTime = &t
	}

	return filter, nil
}

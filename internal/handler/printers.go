package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/middleware"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/service"
)

// PrintersHandler handles printer fleet endpoints
type PrintersHandler struct {
	printerService *service.PrinterService
	logger         *zap.Logger
}

// NewPrintersHandler creates a new printers handler
func NewPrintersHandler(printerService *service.PrinterService, logger *zap.Logger) *PrintersHandler {
	return &PrintersHandler{
		printerService: printerService,
		logger:         logger,
	}
}

// ListPrinters handles GET /v1/tenants/:tenantId/printers
func (h *PrintersHandler) ListPrinters(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	filter := &domain.PrinterFilter{
		TenantID: tenantID,
	}

	if status := c.Query("status"); status != "" {
		s := domain.PrinterStatus(status)
		if !s.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid status",
			})
		}
		filter.Status = &s
	}
	if location := c.Query("location"); location != "" {
		filter.Location = &location
	}

	p := ParsePagination(c, 100)

	list, err := h.printerService.List(c.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("failed to list printers", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list printers",
		})
	}

	return c.JSON(list)
}

// ListIdlePrinters handles GET /v1/tenants/:tenantId/printers/idle
func (h *PrintersHandler) ListIdlePrinters(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	printers, err := h.printerService.ListIdle(c.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list idle printers", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list idle printers",
		})
	}

	return c.JSON(fiber.Map{
		"printers": printers,
	})
}

// GetPrinter handles GET /v1/tenants/:tenantId/printers/:printerId
func (h *PrintersHandler) GetPrinter(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	printerID, err := uuid.Parse(c.Params("printerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid printer ID",
		})
	}

	printer, err := h.printerService.Get(c.Context(), tenantID, printerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Printer not found",
			})
		}
		h.logger.Error("failed to get printer", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get printer",
		})
	}

	return c.JSON(printer)
}

// CreatePrinter handles POST /v1/tenants/:tenantId/printers
func (h *PrintersHandler) CreatePrinter(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	var input domain.PrinterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	printer, err := h.printerService.Create(c.Context(), tenantID, &input)
	if err != nil {
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to create printer", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to create printer",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(printer)
}

// UpdatePrinter handles PATCH /v1/tenants/:tenantId/printers/:printerId
func (h *PrintersHandler) UpdatePrinter(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	printerID, err := uuid.Parse(c.Params("printerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid printer ID",
		})
	}

	var input domain.PrinterUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	printer, err := h.printerService.Update(c.Context(), tenantID, printerID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Printer not found",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to update printer", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to update printer",
		})
	}

	return c.JSON(printer)
}

// Heartbeat handles POST /v1/tenants/:tenantId/printers/:printerId/heartbeat
func (h *PrintersHandler) Heartbeat(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	printerID, err := uuid.Parse(c.Params("printerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid printer ID",
		})
	}

	var input domain.PrinterHeartbeatInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	printer, err := h.printerService.Heartbeat(c.Context(), tenantID, printerID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Printer not found",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to record heartbeat", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to record heartbeat",
		})
	}

	return c.JSON(printer)
}

// GetPrinterTelemetry handles GET /v1/tenants/:tenantId/printers/:printerId/telemetry
func (h *PrintersHandler) GetPrinterTelemetry(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	printerID, err := uuid.Parse(c.Params("printerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid printer ID",
		})
	}

	sample, err := h.printerService.LatestTelemetry(c.Context(), tenantID, printerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "No telemetry recorded for this printer",
			})
		}
		h.logger.Error("failed to get printer telemetry", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get printer telemetry",
		})
	}

	return c.JSON(sample)
}

// DeletePrinter handles DELETE /v1/tenants/:tenantId/printers/:printerId
func (h *PrintersHandler) DeletePrinter(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	printerID, err := uuid.Parse(c.Params("printerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid printer ID",
		})
	}

	if err := h.printerService.Delete(c.Context(), tenantID, printerID); err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Printer not found",
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to delete printer", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to delete printer",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

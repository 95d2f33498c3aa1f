package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/middleware"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/service"
)

// SpoolsHandler handles filament spool endpoints
type SpoolsHandler struct {
	spoolService *service.SpoolService
	authService  *service.AuthService
	logger       *zap.Logger
}

// NewSpoolsHandler creates a new spools handler
func NewSpoolsHandler(spoolService *service.SpoolService, authService *service.AuthService, logger *zap.Logger) *SpoolsHandler {
	return &SpoolsHandler{
		spoolService: spoolService,
		authService:  authService,
		logger:       logger,
	}
}

// ListSpools handles GET /v1/tenants/:tenantId/spools
func (h *SpoolsHandler) ListSpools(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	filter := &domain.SpoolFilter{
		TenantID: tenantID,
	}

	if material := c.Query("material"); material != "" {
		m := domain.SpoolMaterial(material)
		if !m.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid material",
			})
		}
		filter.Material = &m
	}
	if status := c.Query("status"); status != "" {
		s := domain.SpoolStatus(status)
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
	if below := c.Query("lowStockBelow"); below != "" {
		v, err := strconv.ParseFloat(below, 64)
		if err != nil || v < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid lowStockBelow value",
			})
		}
		filter.LowStockBelow = &v
	}

	p := ParsePagination(c, 100)

	list, err := h.spoolService.List(c.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("failed to list spools", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list spools",
		})
	}

	return c.JSON(list)
}

// GetSpool handles GET /v1/tenants/:tenantId/spools/:spoolId
func (h *SpoolsHandler) GetSpool(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	spoolID, err := uuid.Parse(c.Params("spoolId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid spool ID",
		})
	}

	spool, err := h.spoolService.Get(c.Context(), tenantID, spoolID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Spool not found",
			})
		}
		h.logger.Error("failed to get spool", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get spool",
		})
	}

	return c.JSON(spool)
}

// CreateSpool handles POST /v1/tenants/:tenantId/spools
func (h *SpoolsHandler) CreateSpool(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	var input domain.SpoolInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	spool, err := h.spoolService.Create(c.Context(), tenantID, &input)
	if err != nil {
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to create spool", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to create spool",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(spool)
}

// UpdateSpool handles PATCH /v1/tenants/:tenantId/spools/:spoolId
func (h *SpoolsHandler) UpdateSpool(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	spoolID, err := uuid.Parse(c.Params("spoolId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid spool ID",
		})
	}

	var input domain.SpoolUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	spool, err := h.spoolService.Update(c.Context(), tenantID, spoolID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Spool not found",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to update spool", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to update spool",
		})
	}

	return c.JSON(spool)
}

// ConsumeSpool handles POST /v1/tenants/:tenantId/spools/:spoolId/consume
func (h *SpoolsHandler) ConsumeSpool(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	spoolID, err := uuid.Parse(c.Params("spoolId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid spool ID",
		})
	}

	var input domain.SpoolConsumeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	actorID, email := h.actor(c)

	spool, err := h.spoolService.Consume(c.Context(), tenantID, spoolID, &input, actorID, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Spool not found",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to consume spool", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to consume spool",
		})
	}

	return c.JSON(spool)
}

// DeleteSpool handles DELETE /v1/tenants/:tenantId/spools/:spoolId
func (h *SpoolsHandler) DeleteSpool(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	spoolID, err := uuid.Parse(c.Params("spoolId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid spool ID",
		})
	}

	if err := h.spoolService.Delete(c.Context(), tenantID, spoolID); err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Spool not found",
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to delete spool", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to delete spool",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SpoolsHandler) actor(c *fiber.Ctx) (*uuid.UUID, string) {
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

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/dto"
	"github.com/printforge/printforge/api/internal/middleware"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/service"
)

// DiscountsHandler handles discount code endpoints
type DiscountsHandler struct {
	discountService *service.DiscountService
	authService     *service.AuthService
	logger          *zap.Logger
}

// NewDiscountsHandler creates a new discounts handler
func NewDiscountsHandler(discountService *service.DiscountService, authService *service.AuthService, logger *zap.Logger) *DiscountsHandler {
	return &DiscountsHandler{
		discountService: discountService,
		authService:     authService,
		logger:          logger,
	}
}

// ListDiscounts handles GET /v1/tenants/:tenantId/discounts
func (h *DiscountsHandler) ListDiscounts(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	filter := &domain.DiscountCodeFilter{
		TenantID: tenantID,
	}

	if code := c.Query("code"); code != "" {
		filter.Code = &code
	}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filter.Active = &v
	}

	p := ParsePagination(c, 100)

	list, err := h.discountService.List(c.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("failed to list discount codes", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list discount codes",
		})
	}

	return c.JSON(list)
}

// GetDiscount handles GET /v1/tenants/:tenantId/discounts/:discountId
func (h *DiscountsHandler) GetDiscount(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	discountID, err := uuid.Parse(c.Params("discountId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid discount ID",
		})
	}

	discount, err := h.discountService.Get(c.Context(), tenantID, discountID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Discount code not found",
			})
		}
		h.logger.Error("failed to get discount code", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get discount code",
		})
	}

	return c.JSON(discount)
}

// CreateDiscount handles POST /v1/tenants/:tenantId/discounts
func (h *DiscountsHandler) CreateDiscount(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	var input domain.DiscountCodeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	actorID, email := h.actor(c)

	discount, err := h.discountService.Create(c.Context(), tenantID, &input, actorID, email)
	if err != nil {
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": "A discount code with this code already exists",
			})
		}
		h.logger.Error("failed to create discount code", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to create discount code",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(discount)
}

// UpdateDiscount handles PATCH /v1/tenants/:tenantId/discounts/:discountId
func (h *DiscountsHandler) UpdateDiscount(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	discountID, err := uuid.Parse(c.Params("discountId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid discount ID",
		})
	}

	var input domain.DiscountCodeUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	discount, err := h.discountService.Update(c.Context(), tenantID, discountID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Discount code not found",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to update discount code", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to update discount code",
		})
	}

	return c.JSON(discount)
}

// ValidateDiscount handles POST /v1/tenants/:tenantId/discounts/validate
func (h *DiscountsHandler) ValidateDiscount(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	var req dto.ValidateDiscountRequest
	if ok, err := dto.ParseAndValidate(c, &req); !ok {
		return err
	}

	result, err := h.discountService.Validate(c.Context(), tenantID, req.Code, req.SubtotalCents, req.ShippingCents)
	if err != nil {
		h.logger.Error("failed to validate discount code", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to validate discount code",
		})
	}

	return c.JSON(result)
}

// DeleteDiscount handles DELETE /v1/tenants/:tenantId/discounts/:discountId
func (h *DiscountsHandler) DeleteDiscount(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	discountID, err := uuid.Parse(c.Params("discountId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid discount ID",
		})
	}

	if err := h.discountService.Delete(c.Context(), tenantID, discountID); err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Discount code not found",
			})
		}
		h.logger.Error("failed to delete discount code", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to delete discount code",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *DiscountsHandler) actor(c *fiber.Ctx) (*uuid.UUID, string) {
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

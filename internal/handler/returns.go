package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/middleware"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/service"
)

// ReturnsHandler handles return request endpoints
type ReturnsHandler struct {
	returnService *service.ReturnService
	authService   *service.AuthService
	logger        *zap.Logger
}

// NewReturnsHandler creates a new returns handler
func NewReturnsHandler(returnService *service.ReturnService, authService *service.AuthService, logger *zap.Logger) *ReturnsHandler {
	return &ReturnsHandler{
		returnService: returnService,
		authService:   authService,
		logger:        logger,
	}
}

// ListReturns handles GET /v1/tenants/:tenantId/returns
func (h *ReturnsHandler) ListReturns(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	filter := &domain.ReturnRequestFilter{
		TenantID: tenantID,
	}

	if orderID := parseQueryUUID(c, "orderId"); orderID != nil {
		filter.OrderID = orderID
	}
	if customerID := parseQueryUUID(c, "customerId"); customerID != nil {
		filter.CustomerID = customerID
	}
	if status := c.Query("status"); status != "" {
		s := domain.ReturnStatus(status)
		if !s.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid status",
			})
		}
		filter.Status = &s
	}

	p := ParsePagination(c, 100)

	list, err := h.returnService.List(c.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("failed to list returns", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list returns",
		})
	}

	return c.JSON(list)
}

// GetReturn handles GET /v1/tenants/:tenantId/returns/:returnId
func (h *ReturnsHandler) GetReturn(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	returnID, err := uuid.Parse(c.Params("returnId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid return ID",
		})
	}

	ret, err := h.returnService.Get(c.Context(), tenantID, returnID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Return request not found",
			})
		}
		h.logger.Error("failed to get return", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get return",
		})
	}

	return c.JSON(ret)
}

// OpenReturn handles POST /v1/tenants/:tenantId/returns
func (h *ReturnsHandler) OpenReturn(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	var input domain.ReturnRequestInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	actorID, email := h.actor(c)

	ret, err := h.returnService.Open(c.Context(), tenantID, &input, actorID, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Order not found",
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
		h.logger.Error("failed to open return", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to open return",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(ret)
}

// ApproveReturn handles POST /v1/tenants/:tenantId/returns/:returnId/approve
func (h *ReturnsHandler) ApproveReturn(c *fiber.Ctx) error {
	return h.resolveReturn(c, h.returnService.Approve, "approve")
}

// RejectReturn handles POST /v1/tenants/:tenantId/returns/:returnId/reject
func (h *ReturnsHandler) RejectReturn(c *fiber.Ctx) error {
	return h.resolveReturn(c, h.returnService.Reject, "reject")
}

// ReceiveReturn handles POST /v1/tenants/:tenantId/returns/:returnId/receive
func (h *ReturnsHandler) ReceiveReturn(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	returnID, err := uuid.Parse(c.Params("returnId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid return ID",
		})
	}

	ret, err := h.returnService.Receive(c.Context(), tenantID, returnID)
	if err != nil {
		return h.returnError(c, err, "receive")
	}

	return c.JSON(ret)
}

// RefundReturn handles POST /v1/tenants/:tenantId/returns/:returnId/refund
func (h *ReturnsHandler) RefundReturn(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	returnID, err := uuid.Parse(c.Params("returnId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid return ID",
		})
	}

	actorID, email := h.actor(c)

	ret, err := h.returnService.Refund(c.Context(), tenantID, returnID, actorID, email)
	if err != nil {
		return h.returnError(c, err, "refund")
	}

	return c.JSON(ret)
}

type resolveFunc func(ctx context.Context, tenantID, id uuid.UUID, input *domain.ReturnResolveInput, actorID *uuid.UUID, actorEmail string) (*domain.ReturnRequest, error)

func (h *ReturnsHandler) resolveReturn(c *fiber.Ctx, resolve resolveFunc, action string) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	returnID, err := uuid.Parse(c.Params("returnId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid return ID",
		})
	}

	var input domain.ReturnResolveInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid request body: " + err.Error(),
			})
		}
	}

	actorID, email := h.actor(c)

	ret, err := resolve(c.Context(), tenantID, returnID, &input, actorID, email)
	if err != nil {
		return h.returnError(c, err, action)
	}

	return c.JSON(ret)
}

func (h *ReturnsHandler) returnError(c *fiber.Ctx, err error, action string) error {
	if apperrors.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "Return request not found",
		})
	}
	if apperrors.IsValidation(err) || apperrors.IsInvalidTransition(err) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "Unprocessable Entity",
			"message": err.Error(),
		})
	}
	h.logger.Error("failed to "+action+" return", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Internal Server Error",
		"message": "Failed to " + action + " return",
	})
}

func (h *ReturnsHandler) actor(c *fiber.Ctx) (*uuid.UUID, string) {
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

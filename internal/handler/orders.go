package handler

import (
	"time"

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

// OrdersHandler handles order endpoints
type OrdersHandler struct {
	orderService *service.OrderService
	authService  *service.AuthService
	asynqClient  *asynq.Client
	logger       *zap.Logger
}

// NewOrdersHandler creates a new orders handler
func NewOrdersHandler(orderService *service.OrderService, authService *service.AuthService, asynqClient *asynq.Client, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		orderService: orderService,
		authService:  authService,
		asynqClient:  asynqClient,
		logger:       logger,
	}
}

// enqueueOrderEvent hands an order lifecycle event to the notification worker.
// Webhook delivery is best effort, a failed enqueue never fails the request
// that triggered it.
func (h *OrdersHandler) enqueueOrderEvent(order *domain.Order, event domain.EventType) {
	if h.asynqClient == nil {
		return
	}
	err := worker.EnqueueOrderNotification(h.asynqClient, &worker.OrderNotificationPayload{
		TenantID:    order.TenantID.String(),
		OrderID:     order.ID.String(),
		OrderNumber: order.Number,
		Event:       string(event),
		Data: map[string]any{
			"totalCents": order.TotalCents,
			"currency":   order.Currency,
		},
	})
	if err != nil {
		h.logger.Warn("failed to enqueue order notification",
			zap.String("order_id", order.ID.String()),
			zap.String("event", string(event)),
			zap.Error(err))
	}
}

// ListOrders handles GET /v1/tenants/:tenantId/orders
func (h *OrdersHandler) ListOrders(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	filter := &domain.OrderFilter{
		TenantID: tenantID,
	}

	if customerID := parseQueryUUID(c, "customerId"); customerID != nil {
		filter.CustomerID = customerID
	}
	if status := c.Query("status"); status != "" {
		s := domain.OrderStatus(status)
		if !s.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid status",
			})
		}
		filter.Status = &s
	}
	if number := c.Query("number"); number != "" {
		filter.Number = &number
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid from timestamp, expected RFC3339",
			})
		}
		filter.FromTime = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid to timestamp, expected RFC3339",
			})
		}
		filter.ToTime = &t
	}

	p := ParsePagination(c, 100)

	list, err := h.orderService.List(c.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("failed to list orders", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list orders",
		})
	}

	return c.JSON(list)
}

// GetOrder handles GET /v1/tenants/:tenantId/orders/:orderId
func (h *OrdersHandler) GetOrder(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	orderID, err := uuid.Parse(c.Params("orderId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid order ID",
		})
	}

	order, err := h.orderService.Get(c.Context(), tenantID, orderID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Order not found",
			})
		}
		h.logger.Error("failed to get order", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get order",
		})
	}

	return c.JSON(order)
}

// GetOrderByNumber handles GET /v1/tenants/:tenantId/orders/number/:number
func (h *OrdersHandler) GetOrderByNumber(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	number := c.Params("number")
	if number == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Order number is required",
		})
	}

	order, err := h.orderService.GetByNumber(c.Context(), tenantID, number)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Order not found",
			})
		}
		h.logger.Error("failed to get order by number", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get order",
		})
	}

	return c.JSON(order)
}

// PlaceOrder handles POST /v1/tenants/:tenantId/orders
func (h *OrdersHandler) PlaceOrder(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	var input domain.OrderInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	if len(input.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "items is required",
		})
	}

	actorID, email := h.actor(c)

	order, err := h.orderService.Place(c.Context(), tenantID, &input, actorID, email)
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
		h.logger.Error("failed to place order", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to place order",
		})
	}

	h.enqueueOrderEvent(order, domain.EventTypeOrderPlaced)

	return c.Status(fiber.StatusCreated).JSON(order)
}

// UpdateOrder handles PATCH /v1/tenants/:tenantId/orders/:orderId
func (h *OrdersHandler) UpdateOrder(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	orderID, err := uuid.Parse(c.Params("orderId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid order ID",
		})
	}

	var input domain.OrderUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	order, err := h.orderService.Update(c.Context(), tenantID, orderID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Order not found",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to update order", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to update order",
		})
	}

	return c.JSON(order)
}

// TransitionOrder handles POST /v1/tenants/:tenantId/orders/:orderId/status
func (h *OrdersHandler) TransitionOrder(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	orderID, err := uuid.Parse(c.Params("orderId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid order ID",
		})
	}

	var input domain.OrderStatusInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	actorID, email := h.actor(c)

	order, err := h.orderService.Transition(c.Context(), tenantID, orderID, &input, actorID, email)
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
		h.logger.Error("failed to transition order", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to transition order",
		})
	}

	if event, ok := worker.OrderEventForStatus(order.Status); ok {
		h.enqueueOrderEvent(order, event)
	}

	return c.JSON(order)
}

// CancelOrder handles POST /v1/tenants/:tenantId/orders/:orderId/cancel
func (h *OrdersHandler) CancelOrder(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	orderID, err := uuid.Parse(c.Params("orderId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid order ID",
		})
	}

	actorID, email := h.actor(c)

	order, err := h.orderService.Cancel(c.Context(), tenantID, orderID, actorID, email)
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
		h.logger.Error("failed to cancel order", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to cancel order",
		})
	}

	h.enqueueOrderEvent(order, domain.EventTypeOrderCanceled)

	return c.JSON(order)
}

func (h *OrdersHandler) actor(c *fiber.Ctx) (*uuid.UUID, string) {
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

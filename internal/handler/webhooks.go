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

// WebhooksHandler handles webhook configuration endpoints
type WebhooksHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

// NewWebhooksHandler creates a new webhooks handler
func NewWebhooksHandler(notificationService *service.NotificationService, logger *zap.Logger) *WebhooksHandler {
	return &WebhooksHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// ListWebhooks handles GET /v1/tenants/:tenantId/webhooks
func (h *WebhooksHandler) ListWebhooks(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	filter := &domain.WebhookFilter{
		TenantID: tenantID,
	}

	if webhookType := c.Query("type"); webhookType != "" {
		wt := domain.WebhookType(webhookType)
		filter.Type = &wt
	}
	if enabled := c.Query("enabled"); enabled != "" {
		isEnabled := enabled == "true"
		filter.IsEnabled = &isEnabled
	}
	if event := c.Query("event"); event != "" {
		et := domain.EventType(event)
		filter.EventType = &et
	}

	p := ParsePagination(c, 100)

	list, err := h.notificationService.ListWebhooks(c.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("failed to list webhooks", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list webhooks",
		})
	}

	return c.JSON(list)
}

// GetWebhook handles GET /v1/tenants/:tenantId/webhooks/:webhookId
func (h *WebhooksHandler) GetWebhook(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	webhookID, err := uuid.Parse(c.Params("webhookId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid webhook ID",
		})
	}

	webhook, err := h.notificationService.GetWebhook(c.Context(), tenantID, webhookID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Webhook not found",
			})
		}
		h.logger.Error("failed to get webhook", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get webhook",
		})
	}

	return c.JSON(webhook)
}

// CreateWebhook handles POST /v1/tenants/:tenantId/webhooks
func (h *WebhooksHandler) CreateWebhook(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	var input domain.WebhookInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	webhook, err := h.notificationService.CreateWebhook(c.Context(), tenantID, &input)
	if err != nil {
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to create webhook", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to create webhook",
		})
	}

	h.logger.Info("webhook created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("webhook_id", webhook.ID.String()),
		zap.String("type", string(webhook.Type)),
	)

	return c.Status(fiber.StatusCreated).JSON(webhook)
}

// UpdateWebhook handles PATCH /v1/tenants/:tenantId/webhooks/:webhookId
func (h *WebhooksHandler) UpdateWebhook(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	webhookID, err := uuid.Parse(c.Params("webhookId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid webhook ID",
		})
	}

	var input domain.WebhookUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	webhook, err := h.notificationService.UpdateWebhook(c.Context(), tenantID, webhookID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Webhook not found",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to update webhook", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to update webhook",
		})
	}

	return c.JSON(webhook)
}

// DeleteWebhook handles DELETE /v1/tenants/:tenantId/webhooks/:webhookId
func (h *WebhooksHandler) DeleteWebhook(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	webhookID, err := uuid.Parse(c.Params("webhookId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid webhook ID",
		})
	}

	if err := h.notificationService.DeleteWebhook(c.Context(), tenantID, webhookID); err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Webhook not found",
			})
		}
		h.logger.Error("failed to delete webhook", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to delete webhook",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// TestWebhook handles POST /v1/tenants/:tenantId/webhooks/:webhookId/test.
// It fires a test event at the stored endpoint and returns the delivery
// record, including the failure detail when the endpoint rejected it.
func (h *WebhooksHandler) TestWebhook(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	webhookID, err := uuid.Parse(c.Params("webhookId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid webhook ID",
		})
	}

	webhook, err := h.notificationService.GetWebhook(c.Context(), tenantID, webhookID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Webhook not found",
			})
		}
		h.logger.Error("failed to get webhook", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get webhook",
		})
	}

	delivery, err := h.notificationService.TestWebhook(c.Context(), webhook)
	if err != nil {
		h.logger.Warn("test webhook delivery failed",
			zap.String("webhook_id", webhookID.String()),
			zap.Error(err),
		)
	}
	if delivery == nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Bad Gateway",
			"message": "Webhook endpoint could not be reached",
		})
	}

	return c.JSON(delivery)
}

// ListWebhookDeliveries handles GET /v1/tenants/:tenantId/webhooks/:webhookId/deliveries
func (h *WebhooksHandler) ListWebhookDeliveries(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	webhookID, err := uuid.Parse(c.Params("webhookId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid webhook ID",
		})
	}

	filter := &domain.WebhookDeliveryFilter{
		WebhookID: webhookID,
	}

	if event := c.Query("event"); event != "" {
		et := domain.EventType(event)
		filter.EventType = &et
	}
	if success := c.Query("success"); success != "" {
		isSuccess := success == "true"
		filter.Success = &isSuccess
	}

	p := ParsePagination(c, 100)

	list, err := h.notificationService.ListDeliveries(c.Context(), tenantID, filter, p.Limit, p.Offset)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Webhook not found",
			})
		}
		h.logger.Error("failed to list webhook deliveries", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list webhook deliveries",
		})
	}

	return c.JSON(list)
}

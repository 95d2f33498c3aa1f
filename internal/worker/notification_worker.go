package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/service"
)

const (
	// TypeOrderNotification is the task type for order lifecycle webhooks
	TypeOrderNotification = "notification:order"
)

// OrderNotificationPayload is the payload for order webhook deliveries
type OrderNotificationPayload struct {
	TenantID    string         `json:"tenant_id"`
	OrderID     string         `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	Event       string         `json:"event"`
	Data        map[string]any `json:"data,omitempty"`
}

// NewOrderNotificationTask creates an order notification task
func NewOrderNotificationTask(payload *OrderNotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order notification payload: %w", err)
	}
	return asynq.NewTask(TypeOrderNotification, data, asynq.MaxRetry(3)), nil
}

// OrderEventForStatus maps an order status to the webhook event it triggers.
// Statuses without a subscriber-facing event return false.
func OrderEventForStatus(status domain.OrderStatus) (domain.EventType, bool) {
	switch status {
	case domain.OrderStatusPaid:
		return domain.EventTypeOrderPaid, true
	case domain.OrderStatusShipped:
		return domain.EventTypeOrderShipped, true
	case domain.OrderStatusCanceled:
		return domain.EventTypeOrderCanceled, true
	}
	return "", false
}

// NotificationWorker fans order lifecycle events out to tenant webhooks
type NotificationWorker struct {
	logger              *zap.Logger
	notificationService *service.NotificationService
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(logger *zap.Logger, notificationService *service.NotificationService) *NotificationWorker {
	return &NotificationWorker{
		logger:              logger,
		notificationService: notificationService,
	}
}

// ProcessTask processes an order notification task
func (w *NotificationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload OrderNotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal order notification payload: %w", err)
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return fmt.Errorf("invalid tenant ID: %w", err)
	}

	event := domain.EventType(payload.Event)
	switch event {
	case domain.EventTypeOrderPlaced, domain.EventTypeOrderPaid,
		domain.EventTypeOrderShipped, domain.EventTypeOrderCanceled:
	default:
		// Drop instead of retrying, the payload will not get any better
		w.logger.Warn("dropping task with unknown order event",
			zap.String("event", payload.Event),
			zap.String("order_number", payload.OrderNumber),
		)
		return nil
	}

	data := make(map[string]any, len(payload.Data)+2)
	for k, v := range payload.Data {
		data[k] = v
	}
	data["orderId"] = payload.OrderID
	data["orderNumber"] = payload.OrderNumber

	if err := w.notificationService.Notify(ctx, tenantID, event, data); err != nil {
		w.logger.Error("order notification failed",
			zap.String("tenant_id", payload.TenantID),
			zap.String("order_number", payload.OrderNumber),
			zap.String("event", payload.Event),
			zap.Error(err),
		)
		return fmt.Errorf("failed to notify order event: %w", err)
	}

	w.logger.Debug("order notification processed",
		zap.String("tenant_id", payload.TenantID),
		zap.String("order_number", payload.OrderNumber),
		zap.String("event", payload.Event),
	)

	return nil
}

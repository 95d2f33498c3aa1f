package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/pkg/circuitbreaker"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

// WebhookRepository defines webhook repository operations
type WebhookRepository interface {
	Create(ctx context.Context, webhook *domain.Webhook) error
	GetByID(ctx context.Context, tenantID, webhookID uuid.UUID) (*domain.Webhook, error)
	Update(ctx context.Context, webhook *domain.Webhook) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, filter *domain.WebhookFilter, limit, offset int) (*domain.WebhookList, error)
	ListEnabledByEvent(ctx context.Context, tenantID uuid.UUID, eventType domain.EventType) ([]domain.Webhook, error)
	RecordResult(ctx context.Context, id uuid.UUID, success bool) error
	CreateDelivery(ctx context.Context, delivery *domain.WebhookDelivery) error
	ListDeliveries(ctx context.Context, filter *domain.WebhookDeliveryFilter, limit, offset int) (*domain.WebhookDeliveryList, error)
	CheckRateLimit(ctx context.Context, webhookID uuid.UUID, limitPerHour *int) (bool, error)
}

// NotificationService handles sending notifications via webhooks
type NotificationService struct {
	webhookRepo  WebhookRepository
	logger       *zap.Logger
	httpClient   *http.Client
	dashboardURL string
	cbRegistry   *circuitbreaker.Registry
}

// NewNotificationService creates a new notification service
func NewNotificationService(webhookRepo WebhookRepository, logger *zap.Logger, dashboardURL string) *NotificationService {
	registry := circuitbreaker.NewRegistry()

	return &NotificationService{
		webhookRepo: webhookRepo,
		logger:      logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		dashboardURL: dashboardURL,
		cbRegistry:   registry,
	}
}

// CreateWebhook registers a webhook for a tenant
func (s *NotificationService) CreateWebhook(ctx context.Context, tenantID uuid.UUID, input *domain.WebhookInput) (*domain.Webhook, error) {
	for _, event := range input.Events {
		if !validEventType(event) {
			return nil, apperrors.Validation(fmt.Sprintf("unknown event type %q", event))
		}
	}

	now := time.Now()
	webhook := &domain.Webhook{
		ID:               uuid.New(),
		TenantID:         tenantID,
		Type:             input.Type,
		Name:             input.Name,
		URL:              input.URL,
		Secret:           input.Secret,
		Events:           input.Events,
		IsEnabled:        input.IsEnabled,
		Headers:          input.Headers,
		RateLimitPerHour: input.RateLimitPerHour,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.webhookRepo.Create(ctx, webhook); err != nil {
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}

	return webhook, nil
}

// GetWebhook retrieves a webhook by ID
func (s *NotificationService) GetWebhook(ctx context.Context, tenantID, id uuid.UUID) (*domain.Webhook, error) {
	return s.webhookRepo.GetByID(ctx, tenantID, id)
}

// UpdateWebhook applies a partial update to a webhook
func (s *NotificationService) UpdateWebhook(ctx context.Context, tenantID, id uuid.UUID, input *domain.WebhookUpdateInput) (*domain.Webhook, error) {
	webhook, err := s.webhookRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		webhook.Name = *input.Name
	}
	if input.URL != nil {
		webhook.URL = *input.URL
	}
	if input.Secret != nil {
		webhook.Secret = *input.Secret
	}
	if len(input.Events) > 0 {
		for _, event := range input.Events {
			if !validEventType(event) {
				return nil, apperrors.Validation(fmt.Sprintf("unknown event type %q", event))
			}
		}
		webhook.Events = input.Events
	}
	if input.IsEnabled != nil {
		webhook.IsEnabled = *input.IsEnabled
	}
	if input.Headers != nil {
		webhook.Headers = input.Headers
	}
	if input.RateLimitPerHour != nil {
		webhook.RateLimitPerHour = input.RateLimitPerHour
	}
	webhook.UpdatedAt = time.Now()

	if err := s.webhookRepo.Update(ctx, webhook); err != nil {
		return nil, fmt.Errorf("failed to update webhook: %w", err)
	}

	return webhook, nil
}

// DeleteWebhook deletes a webhook
func (s *NotificationService) DeleteWebhook(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.webhookRepo.Delete(ctx, tenantID, id)
}

// ListWebhooks retrieves webhooks with filtering and pagination
func (s *NotificationService) ListWebhooks(ctx context.Context, filter *domain.WebhookFilter, limit, offset int) (*domain.WebhookList, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.webhookRepo.List(ctx, filter, limit, offset)
}

// ListDeliveries retrieves delivery attempts for a webhook
func (s *NotificationService) ListDeliveries(ctx context.Context, tenantID uuid.UUID, filter *domain.WebhookDeliveryFilter, limit, offset int) (*domain.WebhookDeliveryList, error) {
	// Resolving through the tenant guards against reading another
	// tenant's delivery log by webhook ID
	if _, err := s.webhookRepo.GetByID(ctx, tenantID, filter.WebhookID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.webhookRepo.ListDeliveries(ctx, filter, limit, offset)
}

// Notify fans an event out to every enabled webhook subscribed to it.
// Each delivery attempt is recorded. A webhook over its hourly rate limit
// is skipped, not failed.
func (s *NotificationService) Notify(ctx context.Context, tenantID uuid.UUID, eventType domain.EventType, data map[string]any) error {
	webhooks, err := s.webhookRepo.ListEnabledByEvent(ctx, tenantID, eventType)
	if err != nil {
		return fmt.Errorf("failed to list webhooks: %w", err)
	}

	for i := range webhooks {
		webhook := &webhooks[i]

		allowed, err := s.webhookRepo.CheckRateLimit(ctx, webhook.ID, webhook.RateLimitPerHour)
		if err != nil {
			s.logger.Warn("webhook rate limit check failed",
				zap.String("webhook_id", webhook.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !allowed {
			s.logger.Info("webhook skipped, hourly rate limit reached",
				zap.String("webhook_id", webhook.ID.String()),
				zap.String("event_type", string(eventType)),
			)
			continue
		}

		delivery, sendErr := s.SendNotification(ctx, webhook, eventType, data)
		if delivery != nil {
			if err := s.webhookRepo.CreateDelivery(ctx, delivery); err != nil {
				s.logger.Warn("failed to record webhook delivery", zap.Error(err))
			}
			if err := s.webhookRepo.RecordResult(ctx, webhook.ID, delivery.Success); err != nil {
				s.logger.Warn("failed to record webhook result", zap.Error(err))
			}
		}
		if sendErr != nil {
			s.logger.Warn("webhook delivery failed",
				zap.String("webhook_id", webhook.ID.String()),
				zap.String("event_type", string(eventType)),
				zap.Error(sendErr),
			)
		}
	}

	return nil
}

// getCircuitBreakerForHost returns a circuit breaker for the given webhook URL's host
func (s *NotificationService) getCircuitBreakerForHost(webhookURL string) *circuitbreaker.CircuitBreaker {
	parsedURL, err := url.Parse(webhookURL)
	if err != nil {
		// Fallback to a default circuit breaker if URL parsing fails
		return s.cbRegistry.Get("webhook:default", s.webhookCircuitBreakerConfig("default"))
	}

	host := parsedURL.Host
	return s.cbRegistry.Get("webhook:"+host, s.webhookCircuitBreakerConfig(host))
}

// webhookCircuitBreakerConfig returns circuit breaker configuration for webhooks
func (s *NotificationService) webhookCircuitBreakerConfig(name string) circuitbreaker.Config {
	return circuitbreaker.Config{
		Name:                "webhook:" + name,
		MaxFailures:         3,                // Open after 3 consecutive failures
		Timeout:             60 * time.Second, // Try again after 1 minute
		MaxHalfOpenRequests: 1,
		OnStateChange: func(cbName string, from, to circuitbreaker.State) {
			s.logger.Info("webhook circuit breaker state changed",
				zap.String("circuit_breaker", cbName),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
}

// SendNotification sends a notification to a webhook
func (s *NotificationService) SendNotification(
	ctx context.Context,
	webhook *domain.Webhook,
	eventType domain.EventType,
	data map[string]any,
) (*domain.WebhookDelivery, error) {
	delivery := &domain.WebhookDelivery{
		ID:         uuid.New(),
		WebhookID:  webhook.ID,
		EventType:  eventType,
		CreatedAt:  time.Now(),
		RetryCount: 0,
	}

	start := time.Now()

	// Build the appropriate message format based on webhook type
	var payload []byte
	var err error

	switch webhook.Type {
	case domain.WebhookTypeSlack:
		payload, err = s.buildSlackPayload(eventType, data)
	case domain.WebhookTypeDiscord:
		payload, err = s.buildDiscordPayload(eventType, data)
	case domain.WebhookTypeMSTeams:
		payload, err = s.buildMSTeamsPayload(eventType, data)
	case domain.WebhookTypePagerDuty:
		payload, err = s.buildPagerDutyPayload(eventType, data)
	default:
		payload, err = s.buildGenericPayload(webhook.TenantID, eventType, data)
	}

	if err != nil {
		delivery.Success = false
		delivery.Error = fmt.Sprintf("failed to build payload: %v", err)
		return delivery, err
	}

	delivery.Payload = string(payload)

	// Create the request
	req, err := http.NewRequestWithContext(ctx, "POST", webhook.URL, bytes.NewReader(payload))
	if err != nil {
		delivery.Success = false
		delivery.Error = fmt.Sprintf("failed to create request: %v", err)
		return delivery, err
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "PrintForge-Webhook/1.0")

	// Add custom headers
	for key, value := range webhook.Headers {
		req.Header.Set(key, value)
	}

	// Add signature if secret is configured
	if webhook.Secret != "" {
		signature := s.computeSignature(payload, webhook.Secret)
		req.Header.Set("X-PrintForge-Signature", signature)
	}

	// Get circuit breaker for this webhook's host
	cb := s.getCircuitBreakerForHost(webhook.URL)

	// Send the request with circuit breaker protection
	err = cb.Execute(ctx, func() error {
		resp, httpErr := s.httpClient.Do(req)
		if httpErr != nil {
			delivery.Success = false
			delivery.Error = fmt.Sprintf("request failed: %v", httpErr)
			delivery.Duration = time.Since(start).Milliseconds()
			return httpErr
		}
		defer resp.Body.Close()

		delivery.Duration = time.Since(start).Milliseconds()
		delivery.StatusCode = resp.StatusCode

		// Read response body
		body, _ := io.ReadAll(resp.Body)
		delivery.Response = string(body)

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			delivery.Success = true
			return nil
		}

		delivery.Success = false
		delivery.Error = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	})

	// Check if the error was due to circuit breaker being open
	if err == circuitbreaker.ErrCircuitOpen {
		delivery.Success = false
		delivery.Error = "circuit breaker open: webhook endpoint temporarily unavailable"
		s.logger.Warn("webhook call blocked by circuit breaker",
			zap.String("webhook_url", webhook.URL),
			zap.String("webhook_id", webhook.ID.String()),
		)
	} else if err == circuitbreaker.ErrTooManyRequests {
		delivery.Success = false
		delivery.Error = "circuit breaker half-open: too many concurrent requests"
	}

	return delivery, err
}

// computeSignature computes HMAC-SHA256 signature
func (s *NotificationService) computeSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// eventAppearance maps an event to a display color (hex) and title
func eventAppearance(eventType domain.EventType) (string, string) {
	switch eventType {
	case domain.EventTypeOrderPlaced:
		return "#28a745", "Order Placed"
	case domain.EventTypeOrderPaid:
		return "#28a745", "Order Paid"
	case domain.EventTypeOrderShipped:
		return "#17a2b8", "Order Shipped"
	case domain.EventTypeOrderCanceled:
		return "#6c757d", "Order Canceled"
	case domain.EventTypeJobCompleted:
		return "#28a745", "Print Job Completed"
	case domain.EventTypeJobFailed:
		return "#dc3545", "Print Job Failed"
	case domain.EventTypeLowStock:
		return "#ffc107", "Low Filament Stock"
	case domain.EventTypeReturnOpened:
		return "#ffc107", "Return Opened"
	case domain.EventTypeReturnResolved:
		return "#17a2b8", "Return Resolved"
	}
	return "#6c757d", "PrintForge Notification"
}

// buildSlackPayload builds a Slack message payload
func (s *NotificationService) buildSlackPayload(eventType domain.EventType, data map[string]any) ([]byte, error) {
	color, title := eventAppearance(eventType)
	text := s.formatEventMessage(eventType, data)

	// Build Slack attachment format
	msg := domain.SlackMessage{
		Attachments: []domain.SlackAttachment{
			{
				Color:     color,
				Title:     title,
				Text:      text,
				Footer:    "PrintForge",
				Timestamp: time.Now().Unix(),
			},
		},
	}

	// Add fields if available
	if orderNumber, ok := data["orderNumber"].(string); ok {
		msg.Attachments[0].Fields = append(msg.Attachments[0].Fields, domain.SlackField{
			Title: "Order",
			Value: orderNumber,
			Short: true,
		})
	}
	if orderID, ok := data["orderId"].(string); ok {
		msg.Attachments[0].TitleLink = fmt.Sprintf("%s/orders/%s", s.dashboardURL, orderID)
	}
	if jobID, ok := data["jobId"].(string); ok {
		msg.Attachments[0].TitleLink = fmt.Sprintf("%s/print-jobs/%s", s.dashboardURL, jobID)
	}
	if jobName, ok := data["jobName"].(string); ok {
		msg.Attachments[0].Fields = append(msg.Attachments[0].Fields, domain.SlackField{
			Title: "Job",
			Value: jobName,
			Short: true,
		})
	}

	return json.Marshal(msg)
}

// buildDiscordPayload builds a Discord webhook payload
func (s *NotificationService) buildDiscordPayload(eventType domain.EventType, data map[string]any) ([]byte, error) {
	colorHex, title := eventAppearance(eventType)
	description := s.formatEventMessage(eventType, data)

	var color int
	fmt.Sscanf(colorHex, "#%06x", &color)

	embed := domain.DiscordEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &domain.DiscordEmbedFooter{
			Text: "PrintForge",
		},
	}

	// Add fields
	if orderID, ok := data["orderId"].(string); ok {
		embed.URL = fmt.Sprintf("%s/orders/%s", s.dashboardURL, orderID)
	}
	if jobID, ok := data["jobId"].(string); ok {
		embed.URL = fmt.Sprintf("%s/print-jobs/%s", s.dashboardURL, jobID)
	}
	if orderNumber, ok := data["orderNumber"].(string); ok {
		embed.Fields = append(embed.Fields, domain.DiscordEmbedField{
			Name:   "Order",
			Value:  orderNumber,
			Inline: true,
		})
	}
	if jobName, ok := data["jobName"].(string); ok {
		embed.Fields = append(embed.Fields, domain.DiscordEmbedField{
			Name:   "Job",
			Value:  jobName,
			Inline: true,
		})
	}

	msg := domain.DiscordMessage{
		Username: "PrintForge",
		Embeds:   []domain.DiscordEmbed{embed},
	}

	return json.Marshal(msg)
}

// buildMSTeamsPayload builds a Microsoft Teams payload
func (s *NotificationService) buildMSTeamsPayload(eventType domain.EventType, data map[string]any) ([]byte, error) {
	colorHex, title := eventAppearance(eventType)
	text := s.formatEventMessage(eventType, data)

	// Microsoft Teams Adaptive Card format
	card := map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": colorHex[1:],
		"summary":    title,
		"sections": []map[string]any{
			{
				"activityTitle": title,
				"text":          text,
			},
		},
	}

	// Add link if an order or job is attached
	if orderID, ok := data["orderId"].(string); ok {
		card["potentialAction"] = []map[string]any{
			{
				"@type": "OpenUri",
				"name":  "View Order",
				"targets": []map[string]string{
					{"os": "default", "uri": fmt.Sprintf("%s/orders/%s", s.dashboardURL, orderID)},
				},
			},
		}
	} else if jobID, ok := data["jobId"].(string); ok {
		card["potentialAction"] = []map[string]any{
			{
				"@type": "OpenUri",
				"name":  "View Job",
				"targets": []map[string]string{
					{"os": "default", "uri": fmt.Sprintf("%s/print-jobs/%s", s.dashboardURL, jobID)},
				},
			},
		}
	}

	return json.Marshal(card)
}

// buildPagerDutyPayload builds a PagerDuty Events API v2 payload
func (s *NotificationService) buildPagerDutyPayload(eventType domain.EventType, data map[string]any) ([]byte, error) {
	severity := "info"
	summary := string(eventType)

	switch eventType {
	case domain.EventTypeJobFailed:
		severity = "error"
	case domain.EventTypeLowStock, domain.EventTypeOrderCanceled:
		severity = "warning"
	}

	if jobName, ok := data["jobName"].(string); ok {
		summary = fmt.Sprintf("%s: %s", eventType, jobName)
	} else if orderNumber, ok := data["orderNumber"].(string); ok {
		summary = fmt.Sprintf("%s: %s", eventType, orderNumber)
	}

	payload := map[string]any{
		"routing_key":  "", // Will be set from webhook URL or config
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":        summary,
			"severity":       severity,
			"source":         "printforge",
			"custom_details": data,
		},
	}

	if jobID, ok := data["jobId"].(string); ok {
		payload["dedup_key"] = jobID
		payload["links"] = []map[string]string{
			{"href": fmt.Sprintf("%s/print-jobs/%s", s.dashboardURL, jobID), "text": "View in PrintForge"},
		}
	} else if orderID, ok := data["orderId"].(string); ok {
		payload["dedup_key"] = orderID
		payload["links"] = []map[string]string{
			{"href": fmt.Sprintf("%s/orders/%s", s.dashboardURL, orderID), "text": "View in PrintForge"},
		}
	}

	return json.Marshal(payload)
}

// buildGenericPayload builds a generic JSON payload
func (s *NotificationService) buildGenericPayload(tenantID uuid.UUID, eventType domain.EventType, data map[string]any) ([]byte, error) {
	payload := domain.NotificationPayload{
		ID:        uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
		TenantID:  tenantID.String(),
		Data:      data,
	}

	return json.Marshal(payload)
}

// formatEventMessage renders the human-readable body for an event
func (s *NotificationService) formatEventMessage(eventType domain.EventType, data map[string]any) string {
	switch eventType {
	case domain.EventTypeOrderPlaced:
		return fmt.Sprintf("Order %s placed for %s",
			getString(data, "orderNumber", "?"),
			formatCents(getFloat(data, "totalCents", 0), getString(data, "currency", "USD")))
	case domain.EventTypeOrderPaid:
		return fmt.Sprintf("Order %s paid (%s)",
			getString(data, "orderNumber", "?"),
			formatCents(getFloat(data, "totalCents", 0), getString(data, "currency", "USD")))
	case domain.EventTypeOrderShipped:
		return fmt.Sprintf("Order %s shipped", getString(data, "orderNumber", "?"))
	case domain.EventTypeOrderCanceled:
		return fmt.Sprintf("Order %s was canceled", getString(data, "orderNumber", "?"))
	case domain.EventTypeJobCompleted:
		msg := fmt.Sprintf("Print job '%s' finished", getString(data, "jobName", "Unknown"))
		if printer := getString(data, "printerName", ""); printer != "" {
			msg += fmt.Sprintf(" on %s", printer)
		}
		if grams := getFloat(data, "actualWeightGrams", 0); grams > 0 {
			msg += fmt.Sprintf(" (%.1fg used)", grams)
		}
		return msg
	case domain.EventTypeJobFailed:
		reason := getString(data, "failureReason", "no reason reported")
		return fmt.Sprintf("Print job '%s' failed:\n```%s```", getString(data, "jobName", "Unknown"), reason)
	case domain.EventTypeLowStock:
		return fmt.Sprintf("Spool '%s' is down to %.0fg (threshold %.0fg)",
			getString(data, "spoolLabel", "Unknown"),
			getFloat(data, "remainingGrams", 0),
			getFloat(data, "thresholdGrams", 0))
	case domain.EventTypeReturnOpened:
		return fmt.Sprintf("Return opened for order %s:\n%s",
			getString(data, "orderNumber", "?"),
			getString(data, "reason", ""))
	case domain.EventTypeReturnResolved:
		return fmt.Sprintf("Return for order %s resolved: %s",
			getString(data, "orderNumber", "?"),
			getString(data, "status", "?"))
	}
	return fmt.Sprintf("Event: %s", eventType)
}

// Helper functions

func getString(data map[string]any, key string, defaultVal string) string {
	if val, ok := data[key].(string); ok {
		return val
	}
	return defaultVal
}

func getFloat(data map[string]any, key string, defaultVal float64) float64 {
	if val, ok := data[key].(float64); ok {
		return val
	}
	if val, ok := data[key].(int); ok {
		return float64(val)
	}
	if val, ok := data[key].(int64); ok {
		return float64(val)
	}
	return defaultVal
}

func formatCents(cents float64, currency string) string {
	return fmt.Sprintf("%.2f %s", cents/100, currency)
}

func validEventType(event domain.EventType) bool {
	switch event {
	case domain.EventTypeOrderPlaced, domain.EventTypeOrderPaid, domain.EventTypeOrderShipped,
		domain.EventTypeOrderCanceled, domain.EventTypeJobCompleted, domain.EventTypeJobFailed,
		domain.EventTypeLowStock, domain.EventTypeReturnOpened, domain.EventTypeReturnResolved:
		return true
	}
	return false
}

// TestWebhook sends a test notification to verify webhook configuration
func (s *NotificationService) TestWebhook(ctx context.Context, webhook *domain.Webhook) (*domain.WebhookDelivery, error) {
	testData := map[string]any{
		"message":     "This is a test notification from PrintForge",
		"tenantId":    webhook.TenantID.String(),
		"webhookId":   webhook.ID.String(),
		"webhookName": webhook.Name,
		"timestamp":   time.Now().Format(time.RFC3339),
	}

	return s.SendNotification(ctx, webhook, domain.EventType("test"), testData)
}

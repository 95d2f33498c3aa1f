package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
)

// RealtimeEvent represents an event to be sent to clients
type RealtimeEvent struct {
	Type      string    `json:"type"`
	TenantID  uuid.UUID `json:"tenantId"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber represents a connected client
type Subscriber struct {
	ID       string
	TenantID uuid.UUID
	Channel  chan *RealtimeEvent
	Done     chan struct{}
}

// RealtimeService handles real-time event streaming to the dashboard
type RealtimeService struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
}

// NewRealtimeService creates a new realtime service
func NewRealtimeService() *RealtimeService {
	return &RealtimeService{
		subscribers: make(map[string]*Subscriber),
	}
}

// Subscribe creates a new subscription for a tenant
func (s *RealtimeService) Subscribe(ctx context.Context, tenantID uuid.UUID) *Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &Subscriber{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Channel:  make(chan *RealtimeEvent, 100),
		Done:     make(chan struct{}),
	}

	s.subscribers[sub.ID] = sub

	// Clean up when context is done
	go func() {
		select {
		case <-ctx.Done():
			s.Unsubscribe(sub.ID)
		case <-sub.Done:
		}
	}()

	return sub
}

// Unsubscribe removes a subscription
func (s *RealtimeService) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subscribers[id]; ok {
		close(sub.Done)
		close(sub.Channel)
		delete(s.subscribers, id)
	}
}

// Publish sends an event to all subscribers of a tenant
func (s *RealtimeService) Publish(ctx context.Context, tenantID uuid.UUID, eventType string, data any) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event := &RealtimeEvent{
		Type:      eventType,
		TenantID:  tenantID,
		Data:      data,
		Timestamp: time.Now(),
	}

	for _, sub := range s.subscribers {
		if sub.TenantID == tenantID {
			select {
			case sub.Channel <- event:
			default:
				// Channel is full, skip this subscriber
			}
		}
	}
}

// PublishJobCreated publishes a print job created event
func (s *RealtimeService) PublishJobCreated(ctx context.Context, tenantID, jobID uuid.UUID, name string) {
	s.Publish(ctx, tenantID, "job.created", map[string]string{
		"jobId": jobID.String(),
		"name":  name,
	})
}

// PublishJobAssigned publishes a job assignment event
func (s *RealtimeService) PublishJobAssigned(ctx context.Context, tenantID, jobID, printerID uuid.UUID) {
	s.Publish(ctx, tenantID, "job.assigned", map[string]string{
		"jobId":     jobID.String(),
		"printerId": printerID.String(),
	})
}

// PublishJobStatus publishes a job status transition event
func (s *RealtimeService) PublishJobStatus(ctx context.Context, tenantID, jobID uuid.UUID, from, to domain.JobStatus) {
	s.Publish(ctx, tenantID, "job.status_changed", map[string]string{
		"jobId": jobID.String(),
		"from":  string(from),
		"to":    string(to),
	})
}

// PublishJobProgress publishes a job progress update
func (s *RealtimeService) PublishJobProgress(ctx context.Context, tenantID, jobID uuid.UUID, progress float64) {
	s.Publish(ctx, tenantID, "job.progress", map[string]any{
		"jobId":    jobID.String(),
		"progress": progress,
	})
}

// PublishOrderPlaced publishes an order placed event
func (s *RealtimeService) PublishOrderPlaced(ctx context.Context, tenantID, orderID uuid.UUID, number string) {
	s.Publish(ctx, tenantID, "order.placed", map[string]string{
		"orderId": orderID.String(),
		"number":  number,
	})
}

// PublishOrderStatus publishes an order status transition event
func (s *RealtimeService) PublishOrderStatus(ctx context.Context, tenantID, orderID uuid.UUID, number string, from, to domain.OrderStatus) {
	s.Publish(ctx, tenantID, "order.status_changed", map[string]string{
		"orderId": orderID.String(),
		"number":  number,
		"from":    string(from),
		"to":      string(to),
	})
}

// PublishPrinterStatus publishes a printer status change
func (s *RealtimeService) PublishPrinterStatus(ctx context.Context, tenantID, printerID uuid.UUID, status domain.PrinterStatus) {
	s.Publish(ctx, tenantID, "printer.status_changed", map[string]string{
		"printerId": printerID.String(),
		"status":    string(status),
	})
}

// GetSubscriberCount returns the number of active subscribers for a tenant
func (s *RealtimeService) GetSubscriberCount(tenantID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sub := range s.subscribers {
		if sub.TenantID == tenantID {
			count++
		}
	}
	return count
}

// FormatSSE formats an event for SSE
func FormatSSE(event *RealtimeEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return append([]byte("data: "), append(data, '\n', '\n')...), nil
}

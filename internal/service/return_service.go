package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/validator"
)

// ReturnRepository defines return request repository operations
type ReturnRepository interface {
	Create(ctx context.Context, ret *domain.ReturnRequest) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.ReturnRequest, error)
	UpdateStatus(ctx context.Context, ret *domain.ReturnRequest) error
	MarkReceived(ctx context.Context, ret *domain.ReturnRequest) error
	List(ctx context.Context, filter *domain.ReturnRequestFilter, limit, offset int) (*domain.ReturnRequestList, error)
	CountOpenByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error)
}

// ReturnService handles the return and refund flow
type ReturnService struct {
	returnRepo ReturnRepository
	orderRepo  OrderRepository
	audit      *AuditService
	notifier   *NotificationService
}

// NewReturnService creates a new return service
func NewReturnService(returnRepo ReturnRepository, orderRepo OrderRepository) *ReturnService {
	return &ReturnService{
		returnRepo: returnRepo,
		orderRepo:  orderRepo,
	}
}

// SetAuditService sets the audit service for logging return actions
func (s *ReturnService) SetAuditService(audit *AuditService) {
	s.audit = audit
}

// SetNotificationService attaches webhook delivery for return lifecycle events
func (s *ReturnService) SetNotificationService(notifier *NotificationService) {
	s.notifier = notifier
}

// Open opens a return request for a delivered order. An order can only
// carry one open return at a time. A request without explicit items
// returns the whole order.
func (s *ReturnService) Open(ctx context.Context, tenantID uuid.UUID, input *domain.ReturnRequestInput, actorID *uuid.UUID, actorEmail string) (*domain.ReturnRequest, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	order, err := s.orderRepo.GetByID(ctx, tenantID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusDelivered {
		return nil, apperrors.Conflict("only delivered orders can be returned")
	}

	open, err := s.returnRepo.CountOpenByOrder(ctx, tenantID, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count open returns: %w", err)
	}
	if open > 0 {
		return nil, apperrors.Conflict("order already has an open return")
	}

	items := input.Items
	if len(items) == 0 {
		for _, line := range order.Items {
			items = append(items, domain.ReturnItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}
	} else {
		for _, item := range items {
			line := orderLine(order, item.ProductID)
			if line == nil {
				return nil, apperrors.Validation("returned item is not on the order")
			}
			if item.Quantity <= 0 || item.Quantity > line.Quantity {
				return nil, apperrors.Validation(fmt.Sprintf("returned quantity for %s exceeds the order", line.Name))
			}
		}
	}

	now := time.Now()
	ret := &domain.ReturnRequest{
		ID:         uuid.New(),
		TenantID:   tenantID,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Status:     domain.ReturnStatusRequested,
		Reason:     input.Reason,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.returnRepo.Create(ctx, ret); err != nil {
		return nil, fmt.Errorf("failed to create return request: %w", err)
	}

	if s.audit != nil {
		go func() {
			_ = s.audit.LogAction(context.Background(), tenantID, actorID, actorEmail, "user",
				domain.AuditActionReturnOpened, domain.AuditResourceReturn, &ret.ID, order.Number,
				fmt.Sprintf("Opened return for order %s", order.Number))
		}()
	}

	if s.notifier != nil {
		data := map[string]any{
			"returnId":    ret.ID.String(),
			"orderNumber": order.Number,
			"reason":      ret.Reason,
		}
		go func() {
			_ = s.notifier.Notify(context.Background(), tenantID, domain.EventTypeReturnOpened, data)
		}()
	}

	return ret, nil
}

// Get retrieves a return request by ID
func (s *ReturnService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.ReturnRequest, error) {
	return s.returnRepo.GetByID(ctx, tenantID, id)
}

// Approve approves a requested return. The refund amount defaults to the
// value of the returned items, capped at the order total.
func (s *ReturnService) Approve(ctx context.Context, tenantID, id uuid.UUID, input *domain.ReturnResolveInput, actorID *uuid.UUID, actorEmail string) (*domain.ReturnRequest, error) {
	ret, err := s.returnRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !ret.Status.CanTransitionTo(domain.ReturnStatusApproved) {
		return nil, apperrors.InvalidTransition("return request", string(ret.Status), string(domain.ReturnStatusApproved))
	}

	order, err := s.orderRepo.GetByID(ctx, tenantID, ret.OrderID)
	if err != nil {
		return nil, err
	}

	refund := itemsValue(order, ret.Items)
	if input != nil && input.RefundCents != nil {
		refund = *input.RefundCents
	}
	if refund > order.TotalCents {
		refund = order.TotalCents
	}

	now := time.Now()
	ret.Status = domain.ReturnStatusApproved
	ret.RefundCents = refund
	ret.ResolvedAt = &now
	if input != nil {
		ret.ResolutionNote = input.ResolutionNote
	}

	if err := s.returnRepo.UpdateStatus(ctx, ret); err != nil {
		return nil, fmt.Errorf("failed to approve return: %w", err)
	}

	s.auditResolved(tenantID, actorID, actorEmail, ret, order.Number)

	return ret, nil
}

// Reject rejects a requested return
func (s *ReturnService) Reject(ctx context.Context, tenantID, id uuid.UUID, input *domain.ReturnResolveInput, actorID *uuid.UUID, actorEmail string) (*domain.ReturnRequest, error) {
	ret, err := s.returnRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !ret.Status.CanTransitionTo(domain.ReturnStatusRejected) {
		return nil, apperrors.InvalidTransition("return request", string(ret.Status), string(domain.ReturnStatusRejected))
	}

	now := time.Now()
	ret.Status = domain.ReturnStatusRejected
	ret.RefundCents = 0
	ret.ResolvedAt = &now
	if input != nil {
		ret.ResolutionNote = input.ResolutionNote
	}

	if err := s.returnRepo.UpdateStatus(ctx, ret); err != nil {
		return nil, fmt.Errorf("failed to reject return: %w", err)
	}

	order, err := s.orderRepo.GetByID(ctx, tenantID, ret.OrderID)
	orderNumber := ""
	if err == nil {
		orderNumber = order.Number
	}
	s.auditResolved(tenantID, actorID, actorEmail, ret, orderNumber)

	return ret, nil
}

// Receive records that the returned goods arrived back. Receiving restocks
// the returned items.
func (s *ReturnService) Receive(ctx context.Context, tenantID, id uuid.UUID) (*domain.ReturnRequest, error) {
	ret, err := s.returnRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !ret.Status.CanTransitionTo(domain.ReturnStatusReceived) {
		return nil, apperrors.InvalidTransition("return request", string(ret.Status), string(domain.ReturnStatusReceived))
	}

	if err := s.returnRepo.MarkReceived(ctx, ret); err != nil {
		return nil, err
	}
	ret.Status = domain.ReturnStatusReceived
	ret.UpdatedAt = time.Now()

	return ret, nil
}

// Refund closes a received return and refunds the order
func (s *ReturnService) Refund(ctx context.Context, tenantID, id uuid.UUID, actorID *uuid.UUID, actorEmail string) (*domain.ReturnRequest, error) {
	ret, err := s.returnRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !ret.Status.CanTransitionTo(domain.ReturnStatusRefunded) {
		return nil, apperrors.InvalidTransition("return request", string(ret.Status), string(domain.ReturnStatusRefunded))
	}

	order, err := s.orderRepo.GetByID(ctx, tenantID, ret.OrderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ret.Status = domain.ReturnStatusRefunded
	ret.ResolvedAt = &now

	if err := s.returnRepo.UpdateStatus(ctx, ret); err != nil {
		return nil, fmt.Errorf("failed to refund return: %w", err)
	}

	if order.Status.CanTransitionTo(domain.OrderStatusRefunded) {
		order.Status = domain.OrderStatusRefunded
		if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
			return nil, fmt.Errorf("failed to refund order: %w", err)
		}
	}

	s.auditResolved(tenantID, actorID, actorEmail, ret, order.Number)

	return ret, nil
}

// List retrieves return requests with filtering and pagination
func (s *ReturnService) List(ctx context.Context, filter *domain.ReturnRequestFilter, limit, offset int) (*domain.ReturnRequestList, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.returnRepo.List(ctx, filter, limit, offset)
}

func (s *ReturnService) auditResolved(tenantID uuid.UUID, actorID *uuid.UUID, actorEmail string, ret *domain.ReturnRequest, orderNumber string) {
	if s.audit != nil {
		go func() {
			_ = s.audit.LogReturnResolved(context.Background(), tenantID, actorID, actorEmail, ret.ID, orderNumber, ret.Status)
		}()
	}

	if s.notifier != nil {
		data := map[string]any{
			"returnId":    ret.ID.String(),
			"orderNumber": orderNumber,
			"status":      string(ret.Status),
		}
		go func() {
			_ = s.notifier.Notify(context.Background(), tenantID, domain.EventTypeReturnResolved, data)
		}()
	}
}

// orderLine finds the line item for a product on an order
func orderLine(order *domain.Order, productID uuid.UUID) *domain.OrderItem {
	for i := range order.Items {
		if order.Items[i].ProductID == productID {
			return &order.Items[i]
		}
	}
	return nil
}

// itemsValue sums the order-time value of the returned items
func itemsValue(order *domain.Order, items []domain.ReturnItem) int64 {
	var total int64
	for _, item := range items {
		if line := orderLine(order, item.ProductID); line != nil {
			total += line.UnitPriceCents * int64(item.Quantity)
		}
	}
	return total
}

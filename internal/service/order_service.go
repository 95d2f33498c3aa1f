package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/validator"
)

// OrderRepository defines order repository operations
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order, numberPrefix string) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Order, error)
	GetByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	UpdateStatus(ctx context.Context, order *domain.Order) error
	MarkPaid(ctx context.Context, order *domain.Order) error
	CancelWithRestock(ctx context.Context, order *domain.Order) error
	List(ctx context.Context, filter *domain.OrderFilter, limit, offset int) (*domain.OrderList, error)
	CountByTenantID(ctx context.Context, tenantID uuid.UUID) (int64, error)
	SumRevenueCents(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// OrderService handles order placement and fulfillment
type OrderService struct {
	orderRepo    OrderRepository
	customerRepo CustomerRepository
	productRepo  ProductRepository
	discountRepo DiscountRepository
	tenantRepo   TenantRepository
	realtime     *RealtimeService
	audit        *AuditService
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo OrderRepository,
	customerRepo CustomerRepository,
	productRepo ProductRepository,
	discountRepo DiscountRepository,
	tenantRepo TenantRepository,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		discountRepo: discountRepo,
		tenantRepo:   tenantRepo,
	}
}

// SetRealtimeService attaches the realtime hub for live order events
func (s *OrderService) SetRealtimeService(realtime *RealtimeService) {
	s.realtime = realtime
}

// SetAuditService sets the audit service for logging order actions
func (s *OrderService) SetAuditService(audit *AuditService) {
	s.audit = audit
}

// Place creates a pending order for a customer. Line items snapshot the
// product name and price at placement time. Stock is only reserved when
// the order is paid, but items already out of stock are rejected here so
// the customer is not strung along.
func (s *OrderService) Place(ctx context.Context, tenantID uuid.UUID, input *domain.OrderInput, actorID *uuid.UUID, actorEmail string) (*domain.Order, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	customer, err := s.customerRepo.GetByID(ctx, tenantID, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer.Archived {
		return nil, apperrors.Conflict("customer is archived")
	}

	settings, err := s.tenantRepo.GetSettings(ctx, tenantID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		settings = domain.DefaultTenantSettings(tenantID)
	}

	now := time.Now()
	order := &domain.Order{
		ID:              uuid.New(),
		TenantID:        tenantID,
		CustomerID:      input.CustomerID,
		Status:          domain.OrderStatusPending,
		ShippingCents:   input.ShippingCents,
		Currency:        settings.Currency,
		ShippingAddress: input.ShippingAddress,
		Notes:           input.Notes,
		PlacedAt:        now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, item := range input.Items {
		product, err := s.productRepo.GetByID(ctx, tenantID, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Active {
			return nil, apperrors.Validation(fmt.Sprintf("product %s is not available", product.Name))
		}
		if product.StockQuantity < item.Quantity {
			return nil, apperrors.Conflict(fmt.Sprintf("insufficient stock for %s", product.Name))
		}

		order.Items = append(order.Items, domain.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      product.ID,
			Name:           product.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: product.PriceCents,
		})
	}

	if code := strings.TrimSpace(input.DiscountCode); code != "" {
		discount, err := s.discountRepo.GetByCode(ctx, tenantID, code)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.Validation("invalid discount code")
			}
			return nil, err
		}
		if ok, reason := discount.IsRedeemable(now); !ok {
			return nil, apperrors.Validation(reason)
		}

		var subtotal int64
		for _, item := range order.Items {
			subtotal += item.UnitPriceCents * int64(item.Quantity)
		}
		if discount.MinOrderCents > 0 && subtotal < discount.MinOrderCents {
			return nil, apperrors.Validation("order subtotal is below the code minimum")
		}

		order.DiscountCodeID = &discount.ID
		order.DiscountCents = discount.DiscountFor(subtotal, order.ShippingCents)
	}

	order.RecalculateTotals()

	if err := s.orderRepo.Create(ctx, order, settings.OrderNumberPrefix); err != nil {
		return nil, err
	}

	if s.realtime != nil {
		s.realtime.PublishOrderPlaced(ctx, tenantID, order.ID, order.Number)
	}

	if s.audit != nil {
		go func() {
			_ = s.audit.LogOrderPlaced(context.Background(), tenantID, actorID, actorEmail, order.ID, order.Number, order.TotalCents)
		}()
	}

	return order, nil
}

// Get retrieves an order with its line items
func (s *OrderService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.GetByID(ctx, tenantID, id)
}

// GetByNumber retrieves an order by its human-facing number
func (s *OrderService) GetByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*domain.Order, error) {
	return s.orderRepo.GetByNumber(ctx, tenantID, strings.TrimSpace(number))
}

// Update applies a metadata update to an order. Only the shipping address
// and notes are editable after placement.
func (s *OrderService) Update(ctx context.Context, tenantID, id uuid.UUID, input *domain.OrderUpdateInput) (*domain.Order, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	order, err := s.orderRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.ShippingAddress != nil {
		order.ShippingAddress = input.ShippingAddress
	}
	if input.Notes != nil {
		order.Notes = *input.Notes
	}
	order.UpdatedAt = time.Now()

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	return order, nil
}

// Transition moves an order through its lifecycle. Paying an order draws
// stock down; canceling an order after payment returns it. Disallowed
// transitions are rejected before any state is touched.
func (s *OrderService) Transition(ctx context.Context, tenantID, id uuid.UUID, input *domain.OrderStatusInput, actorID *uuid.UUID, actorEmail string) (*domain.Order, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	order, err := s.orderRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	target := input.Status
	if !target.IsValid() {
		return nil, apperrors.Validation("invalid order status")
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, apperrors.InvalidTransition("order", string(order.Status), string(target))
	}

	from := order.Status
	now := time.Now()

	switch target {
	case domain.OrderStatusPaid:
		if err := s.orderRepo.MarkPaid(ctx, order); err != nil {
			return nil, err
		}
		order.Status = domain.OrderStatusPaid
		order.PaidAt = &now

	case domain.OrderStatusCanceled:
		order.Status = domain.OrderStatusCanceled
		if stockDrawn(from) {
			if err := s.orderRepo.CancelWithRestock(ctx, order); err != nil {
				return nil, err
			}
		} else {
			if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
				return nil, err
			}
		}

	case domain.OrderStatusShipped:
		order.Status = domain.OrderStatusShipped
		order.ShippedAt = &now
		if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
			return nil, err
		}

	default:
		order.Status = target
		if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
			return nil, err
		}
	}

	if s.realtime != nil {
		s.realtime.PublishOrderStatus(ctx, tenantID, order.ID, order.Number, from, target)
	}

	if s.audit != nil {
		go func() {
			_ = s.audit.LogOrderTransition(context.Background(), tenantID, actorID, actorEmail, order.ID, order.Number, from, target)
		}()
	}

	return order, nil
}

// Cancel cancels an order that has not shipped yet
func (s *OrderService) Cancel(ctx context.Context, tenantID, id uuid.UUID, actorID *uuid.UUID, actorEmail string) (*domain.Order, error) {
	return s.Transition(ctx, tenantID, id, &domain.OrderStatusInput{
		Status: domain.OrderStatusCanceled,
	}, actorID, actorEmail)
}

// List retrieves orders with filtering and pagination
func (s *OrderService) List(ctx context.Context, filter *domain.OrderFilter, limit, offset int) (*domain.OrderList, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.orderRepo.List(ctx, filter, limit, offset)
}

// stockDrawn reports whether an order in this status has already drawn
// stock down, meaning a cancellation must restock
func stockDrawn(status domain.OrderStatus) bool {
	return status == domain.OrderStatusPaid || status == domain.OrderStatusProcessing
}

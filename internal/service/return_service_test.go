package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge/api/internal/domain"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

// MockReturnRepository is a mock implementation of ReturnRepository
type MockReturnRepository struct {
	mock.Mock
}

func (m *MockReturnRepository) Create(ctx context.Context, ret *domain.ReturnRequest) error {
	args := m.Called(ctx, ret)
	return args.Error(0)
}

func (m *MockReturnRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.ReturnRequest, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRequest), args.Error(1)
}

func (m *MockReturnRepository) UpdateStatus(ctx context.Context, ret *domain.ReturnRequest) error {
	args := m.Called(ctx, ret)
	return args.Error(0)
}

func (m *MockReturnRepository) MarkReceived(ctx context.Context, ret *domain.ReturnRequest) error {
	args := m.Called(ctx, ret)
	return args.Error(0)
}

func (m *MockReturnRepository) List(ctx context.Context, filter *domain.ReturnRequestFilter, limit, offset int) (*domain.ReturnRequestList, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRequestList), args.Error(1)
}

func (m *MockReturnRepository) CountOpenByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func deliveredOrder(tenantID uuid.UUID) *domain.Order {
	return &domain.Order{
		ID:         uuid.New(),
		TenantID:   tenantID,
		CustomerID: uuid.New(),
		Number:     "PF-000042",
		Status:     domain.OrderStatusDelivered,
		Items: []domain.OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), Name: "Benchy Boat", Quantity: 2, UnitPriceCents: 2500, TotalCents: 5000},
			{ID: uuid.New(), ProductID: uuid.New(), Name: "Spiral Vase", Quantity: 1, UnitPriceCents: 1500, TotalCents: 1500},
		},
		SubtotalCents: 6500,
		TotalCents:    6500,
	}
}

func TestReturnService_Open(t *testing.T) {
	t.Run("opens a whole-order return by default", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		order := deliveredOrder(tenantID)

		orderRepo.On("GetByID", mock.Anything, tenantID, order.ID).Return(order, nil)
		returnRepo.On("CountOpenByOrder", mock.Anything, tenantID, order.ID).Return(int64(0), nil)
		returnRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ReturnRequest")).Return(nil)

		svc := NewReturnService(returnRepo, orderRepo)

		ret, err := svc.Open(context.Background(), tenantID, &domain.ReturnRequestInput{
			OrderID: order.ID,
			Reason:  "layer shifts on both prints",
		}, nil, "")

		require.NoError(t, err)
		assert.Equal(t, domain.ReturnStatusRequested, ret.Status)
		assert.Equal(t, order.CustomerID, ret.CustomerID)
		require.Len(t, ret.Items, 2)
		assert.Equal(t, 2, ret.Items[0].Quantity)

		returnRepo.AssertExpectations(t)
	})

	t.Run("opens a partial return", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		order := deliveredOrder(tenantID)

		orderRepo.On("GetByID", mock.Anything, tenantID, order.ID).Return(order, nil)
		returnRepo.On("CountOpenByOrder", mock.Anything, tenantID, order.ID).Return(int64(0), nil)
		returnRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ReturnRequest")).Return(nil)

		svc := NewReturnService(returnRepo, orderRepo)

		ret, err := svc.Open(context.Background(), tenantID, &domain.ReturnRequestInput{
			OrderID: order.ID,
			Reason:  "one boat arrived cracked",
			Items: []domain.ReturnItem{
				{ProductID: order.Items[0].ProductID, Quantity: 1},
			},
		}, nil, "")

		require.NoError(t, err)
		require.Len(t, ret.Items, 1)
		assert.Equal(t, 1, ret.Items[0].Quantity)
	})

	t.Run("rejects an order that has not been delivered", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		order := deliveredOrder(tenantID)
		order.Status = domain.OrderStatusShipped

		orderRepo.On("GetByID", mock.Anything, tenantID, order.ID).Return(order, nil)

		svc := NewReturnService(returnRepo, orderRepo)

		ret, err := svc.Open(context.Background(), tenantID, &domain.ReturnRequestInput{
			OrderID: order.ID,
			Reason:  "changed my mind",
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, ret)
		assert.True(t, apperrors.IsConflict(err))
		returnRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects a second open return on the same order", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		order := deliveredOrder(tenantID)

		orderRepo.On("GetByID", mock.Anything, tenantID, order.ID).Return(order, nil)
		returnRepo.On("CountOpenByOrder", mock.Anything, tenantID, order.ID).Return(int64(1), nil)

		svc := NewReturnService(returnRepo, orderRepo)

		ret, err := svc.Open(context.Background(), tenantID, &domain.ReturnRequestInput{
			OrderID: order.ID,
			Reason:  "second try",
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, ret)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("rejects an item that is not on the order", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		order := deliveredOrder(tenantID)

		orderRepo.On("GetByID", mock.Anything, tenantID, order.ID).Return(order, nil)
		returnRepo.On("CountOpenByOrder", mock.Anything, tenantID, order.ID).Return(int64(0), nil)

		svc := NewReturnService(returnRepo, orderRepo)

		ret, err := svc.Open(context.Background(), tenantID, &domain.ReturnRequestInput{
			OrderID: order.ID,
			Reason:  "wrong item",
			Items: []domain.ReturnItem{
				{ProductID: uuid.New(), Quantity: 1},
			},
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, ret)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("rejects a quantity above the order line", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		order := deliveredOrder(tenantID)

		orderRepo.On("GetByID", mock.Anything, tenantID, order.ID).Return(order, nil)
		returnRepo.On("CountOpenByOrder", mock.Anything, tenantID, order.ID).Return(int64(0), nil)

		svc := NewReturnService(returnRepo, orderRepo)

		ret, err := svc.Open(context.Background(), tenantID, &domain.ReturnRequestInput{
			OrderID: order.ID,
			Reason:  "all of them and then some",
			Items: []domain.ReturnItem{
				{ProductID: order.Items[0].ProductID, Quantity: 3},
			},
		}, nil, "")

		require.Error(t, err)
		assert.Nil(t, ret)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestReturnService_Approve(t *testing.T) {
	t.Run("defaults the refund to the returned items value", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		order := deliveredOrder(tenantID)
		ret := &domain.ReturnRequest{
			ID:       uuid.New(),
			TenantID: tenantID,
			OrderID:  order.ID,
			Status:   domain.ReturnStatusRequested,
			Items: []domain.ReturnItem{
				{ProductID: order.Items[0].ProductID, Quantity: 1},
			},
		}

		returnRepo.On("GetByID", mock.Anything, tenantID, ret.ID).Return(ret, nil)
		orderRepo.On("GetByID", mock.Anything, tenantID, order.ID).Return(order, nil)
		returnRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(r *domain.ReturnRequest) bool {
			return r.Status == domain.ReturnStatusApproved && r.RefundCents == 2500
		})).Return(nil)

		svc := NewReturnService(returnRepo, orderRepo)

		result, err := svc.Approve(context.Background(), tenantID, ret.ID, nil, nil, "")

		require.NoError(t, err)
		assert.Equal(t, domain.ReturnStatusApproved, result.Status)
		assert.Equal(t, int64(2500), result.RefundCents)
		require.NotNil(t, result.ResolvedAt)
	})

	t.Run("caps an explicit refund at the order total", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		order := deliveredOrder(tenantID)
		ret := &domain.ReturnRequest{
			ID:       uuid.New(),
			TenantID: tenantID,
			OrderID:  order.ID,
			Status:   domain.ReturnStatusRequested,
			Items:    []domain.ReturnItem{{ProductID: order.Items[0].ProductID, Quantity: 2}},
		}

		returnRepo.On("GetByID", mock.Anything, tenantID, ret.ID).Return(ret, nil)
		orderRepo.On("GetByID", mock.Anything, tenantID, order.ID).Return(order, nil)
		returnRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("*domain.ReturnRequest")).Return(nil)

		svc := NewReturnService(returnRepo, orderRepo)

		tooMuch := int64(99999)
		result, err := svc.Approve(context.Background(), tenantID, ret.ID, &domain.ReturnResolveInput{
			RefundCents: &tooMuch,
		}, nil, "")

		require.NoError(t, err)
		assert.Equal(t, order.TotalCents, result.RefundCents)
	})

	t.Run("rejects approving a return twice", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		ret := &domain.ReturnRequest{
			ID:       uuid.New(),
			TenantID: tenantID,
			OrderID:  uuid.New(),
			Status:   domain.ReturnStatusApproved,
		}

		returnRepo.On("GetByID", mock.Anything, tenantID, ret.ID).Return(ret, nil)

		svc := NewReturnService(returnRepo, orderRepo)

		result, err := svc.Approve(context.Background(), tenantID, ret.ID, nil, nil, "")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsInvalidTransition(err))
	})
}

func TestReturnService_Reject(t *testing.T) {
	t.Run("rejects a return with zero refund", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		order := deliveredOrder(tenantID)
		ret := &domain.ReturnRequest{
			ID:          uuid.New(),
			TenantID:    tenantID,
			OrderID:     order.ID,
			Status:      domain.ReturnStatusRequested,
			RefundCents: 2500,
		}

		returnRepo.On("GetByID", mock.Anything, tenantID, ret.ID).Return(ret, nil)
		returnRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(r *domain.ReturnRequest) bool {
			return r.Status == domain.ReturnStatusRejected && r.RefundCents == 0
		})).Return(nil)
		orderRepo.On("GetByID", mock.Anything, tenantID, order.ID).Return(order, nil)

		svc := NewReturnService(returnRepo, orderRepo)

		result, err := svc.Reject(context.Background(), tenantID, ret.ID, &domain.ReturnResolveInput{
			ResolutionNote: "damage was caused after delivery",
		}, nil, "")

		require.NoError(t, err)
		assert.Equal(t, domain.ReturnStatusRejected, result.Status)
		assert.Equal(t, int64(0), result.RefundCents)
		assert.Equal(t, "damage was caused after delivery", result.ResolutionNote)
	})
}

func TestReturnService_Receive(t *testing.T) {
	t.Run("marks an approved return received", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		ret := &domain.ReturnRequest{
			ID:       uuid.New(),
			TenantID: tenantID,
			OrderID:  uuid.New(),
			Status:   domain.ReturnStatusApproved,
		}

		returnRepo.On("GetByID", mock.Anything, tenantID, ret.ID).Return(ret, nil)
		returnRepo.On("MarkReceived", mock.Anything, mock.AnythingOfType("*domain.ReturnRequest")).Return(nil)

		svc := NewReturnService(returnRepo, orderRepo)

		result, err := svc.Receive(context.Background(), tenantID, ret.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.ReturnStatusReceived, result.Status)
		returnRepo.AssertExpectations(t)
	})

	t.Run("refuses to receive a return that was not approved", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		ret := &domain.ReturnRequest{
			ID:       uuid.New(),
			TenantID: tenantID,
			OrderID:  uuid.New(),
			Status:   domain.ReturnStatusRequested,
		}

		returnRepo.On("GetByID", mock.Anything, tenantID, ret.ID).Return(ret, nil)

		svc := NewReturnService(returnRepo, orderRepo)

		result, err := svc.Receive(context.Background(), tenantID, ret.ID)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsInvalidTransition(err))
		returnRepo.AssertNotCalled(t, "MarkReceived", mock.Anything, mock.Anything)
	})
}

func TestReturnService_Refund(t *testing.T) {
	t.Run("refunds a received return and the order with it", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		order := deliveredOrder(tenantID)
		ret := &domain.ReturnRequest{
			ID:          uuid.New(),
			TenantID:    tenantID,
			OrderID:     order.ID,
			Status:      domain.ReturnStatusReceived,
			RefundCents: 2500,
		}

		returnRepo.On("GetByID", mock.Anything, tenantID, ret.ID).Return(ret, nil)
		orderRepo.On("GetByID", mock.Anything, tenantID, order.ID).Return(order, nil)
		returnRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(r *domain.ReturnRequest) bool {
			return r.Status == domain.ReturnStatusRefunded
		})).Return(nil)
		orderRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
			return o.Status == domain.OrderStatusRefunded
		})).Return(nil)

		svc := NewReturnService(returnRepo, orderRepo)

		result, err := svc.Refund(context.Background(), tenantID, ret.ID, nil, "")

		require.NoError(t, err)
		assert.Equal(t, domain.ReturnStatusRefunded, result.Status)
		orderRepo.AssertExpectations(t)
	})

	t.Run("leaves an already refunded order alone", func(t *testing.T) {
		returnRepo := new(MockReturnRepository)
		orderRepo := new(MockOrderRepository)

		tenantID := uuid.New()
		order := deliveredOrder(tenantID)
		order.Status = domain.OrderStatusRefunded
		ret := &domain.ReturnRequest{
			ID:       uuid.New(),
			TenantID: tenantID,
			OrderID:  order.ID,
			Status:   domain.ReturnStatusReceived,
		}

		returnRepo.On("GetByID", mock.Anything, tenantID, ret.ID).Return(ret, nil)
		orderRepo.On("GetByID", mock.Anything, tenantID, order.ID).Return(order, nil)
		returnRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("*domain.ReturnRequest")).Return(nil)

		svc := NewReturnService(returnRepo, orderRepo)

		result, err := svc.Refund(context.Background(), tenantID, ret.ID, nil, "")

		require.NoError(t, err)
		assert.Equal(t, domain.ReturnStatusRefunded, result.Status)
		orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})
}

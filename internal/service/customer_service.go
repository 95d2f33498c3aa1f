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

// CustomerRepository defines customer repository operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Customer, error)
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, filter *domain.CustomerFilter, limit, offset int) (*domain.CustomerList, error)
	CountByTenantID(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// CustomerService handles customer operations
type CustomerService struct {
	customerRepo CustomerRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo CustomerRepository) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
	}
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, tenantID uuid.UUID, input *domain.CustomerInput) (*domain.Customer, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	now := time.Now()
	customer := &domain.Customer{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Email:           input.Email,
		Name:            input.Name,
		Phone:           input.Phone,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		Notes:           input.Notes,
		MarketingOptIn:  input.MarketingOptIn,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

// Get retrieves a customer by ID
func (s *CustomerService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Customer, error) {
	return s.customerRepo.GetByID(ctx, tenantID, id)
}

// GetByEmail retrieves a customer by email
func (s *CustomerService) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.Customer, error) {
	return s.customerRepo.GetByEmail(ctx, tenantID, email)
}

// Update applies a partial update to a customer
func (s *CustomerService) Update(ctx context.Context, tenantID, id uuid.UUID, input *domain.CustomerUpdateInput) (*domain.Customer, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	customer, err := s.customerRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		customer.Email = *input.Email
	}
	if input.Name != nil {
		customer.Name = *input.Name
	}
	if input.Phone != nil {
		customer.Phone = *input.Phone
	}
	if input.ShippingAddress != nil {
		customer.ShippingAddress = input.ShippingAddress
	}
	if input.BillingAddress != nil {
		customer.BillingAddress = input.BillingAddress
	}
	if input.Notes != nil {
		customer.Notes = *input.Notes
	}
	if input.MarketingOptIn != nil {
		customer.MarketingOptIn = *input.MarketingOptIn
	}
	if input.Archived != nil {
		customer.Archived = *input.Archived
	}
	customer.UpdatedAt = time.Now()

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	return customer, nil
}

// Archive marks a customer as archived without deleting their history
func (s *CustomerService) Archive(ctx context.Context, tenantID, id uuid.UUID) (*domain.Customer, error) {
	archived := true
	return s.Update(ctx, tenantID, id, &domain.CustomerUpdateInput{Archived: &archived})
}

// Delete deletes a customer
func (s *CustomerService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.customerRepo.Delete(ctx, tenantID, id)
}

// List retrieves customers with filtering and pagination
func (s *CustomerService) List(ctx context.Context, filter *domain.CustomerFilter, limit, offset int) (*domain.CustomerList, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.customerRepo.List(ctx, filter, limit, offset)
}

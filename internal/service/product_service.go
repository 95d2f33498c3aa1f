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

// ProductRepository defines product repository operations
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Product, error)
	GetBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, filter *domain.ProductFilter, limit, offset int) (*domain.ProductList, error)
	AdjustStock(ctx context.Context, tenantID, id uuid.UUID, delta int) (int, error)
	SKUExists(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error)
	CountByTenantID(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// ProductService handles catalog operations
type ProductService struct {
	productRepo ProductRepository
	tenantRepo  TenantRepository
	modelRepo   ModelRepository
	reviewRepo  ReviewRepository
}

// NewProductService creates a new product service
func NewProductService(
	productRepo ProductRepository,
	tenantRepo TenantRepository,
	modelRepo ModelRepository,
	reviewRepo ReviewRepository,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		tenantRepo:  tenantRepo,
		modelRepo:   modelRepo,
		reviewRepo:  reviewRepo,
	}
}

// Create creates a new catalog product
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, input *domain.ProductInput) (*domain.Product, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	sku := strings.ToUpper(strings.TrimSpace(input.SKU))

	exists, err := s.productRepo.SKUExists(ctx, tenantID, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to check SKU: %w", err)
	}
	if exists {
		return nil, apperrors.Conflict("SKU already in use")
	}

	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		// New products inherit the shop's currency
		settings, err := s.tenantRepo.GetSettings(ctx, tenantID)
		if err == nil {
			currency = settings.Currency
		} else {
			currency = "USD"
		}
	}

	now := time.Now()
	product := &domain.Product{
		ID:            uuid.New(),
		TenantID:      tenantID,
		SKU:           sku,
		Name:          input.Name,
		Description:   input.Description,
		Category:      input.Category,
		PriceCents:    input.PriceCents,
		Currency:      currency,
		StockQuantity: input.StockQuantity,
		Active:        input.Active,
		Attributes:    input.Attributes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Get retrieves a product by ID
func (s *ProductService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.GetByID(ctx, tenantID, id)
}

// GetWithModels retrieves a product with its attached print models
func (s *ProductService) GetWithModels(ctx context.Context, tenantID, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	models, err := s.modelRepo.ListByProductID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}
	product.Models = models

	return product, nil
}

// GetBySKU retrieves a product by SKU
func (s *ProductService) GetBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*domain.Product, error) {
	return s.productRepo.GetBySKU(ctx, tenantID, strings.ToUpper(strings.TrimSpace(sku)))
}

// Update applies a partial update to a product
func (s *ProductService) Update(ctx context.Context, tenantID, id uuid.UUID, input *domain.ProductUpdateInput) (*domain.Product, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	product, err := s.productRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.Currency != nil {
		product.Currency = strings.ToUpper(*input.Currency)
	}
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
	}
	if input.Active != nil {
		product.Active = *input.Active
	}
	if input.Attributes != nil {
		product.Attributes = input.Attributes
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// Delete deletes a product
func (s *ProductService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, tenantID, id)
}

// List retrieves products with filtering and pagination
func (s *ProductService) List(ctx context.Context, filter *domain.ProductFilter, limit, offset int) (*domain.ProductList, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.productRepo.List(ctx, filter, limit, offset)
}

// ListPublic retrieves active products for the storefront API
func (s *ProductService) ListPublic(ctx context.Context, tenantID uuid.UUID, category *string, limit, offset int) (*domain.ProductList, error) {
	active := true
	filter := &domain.ProductFilter{
		TenantID: tenantID,
		Category: category,
		Active:   &active,
	}

	return s.List(ctx, filter, limit, offset)
}

// AdjustStock changes the stock quantity by a delta and returns the new quantity
func (s *ProductService) AdjustStock(ctx context.Context, tenantID, id uuid.UUID, delta int) (int, error) {
	return s.productRepo.AdjustStock(ctx, tenantID, id, delta)
}

// GetReviewSummary returns the published review aggregate for a product
func (s *ProductService) GetReviewSummary(ctx context.Context, tenantID, productID uuid.UUID) (*domain.ReviewSummary, error) {
	return s.reviewRepo.Summary(ctx, tenantID, productID)
}

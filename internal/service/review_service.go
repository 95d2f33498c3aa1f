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

// ReviewRepository defines review repository operations
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Review, error)
	Update(ctx context.Context, review *domain.Review) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.ReviewStatus) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, filter *domain.ReviewFilter, limit, offset int) (*domain.ReviewList, error)
	Summary(ctx context.Context, tenantID, productID uuid.UUID) (*domain.ReviewSummary, error)
}

// ReviewService handles product reviews and moderation
type ReviewService struct {
	reviewRepo   ReviewRepository
	productRepo  ProductRepository
	customerRepo CustomerRepository
	audit        *AuditService
}

// NewReviewService creates a new review service
func NewReviewService(reviewRepo ReviewRepository, productRepo ProductRepository, customerRepo CustomerRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:   reviewRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
	}
}

// SetAuditService sets the audit service for logging moderation actions
func (s *ReviewService) SetAuditService(audit *AuditService) {
	s.audit = audit
}

// Submit creates a pending review. A customer gets one review per product;
// a second submission conflicts rather than overwriting the first.
func (s *ReviewService) Submit(ctx context.Context, tenantID uuid.UUID, input *domain.ReviewInput) (*domain.Review, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}

	if _, err := s.productRepo.GetByID(ctx, tenantID, input.ProductID); err != nil {
		return nil, err
	}
	if _, err := s.customerRepo.GetByID(ctx, tenantID, input.CustomerID); err != nil {
		return nil, err
	}

	now := time.Now()
	review := &domain.Review{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ProductID:  input.ProductID,
		CustomerID: input.CustomerID,
		Rating:     input.Rating,
		Title:      input.Title,
		Body:       input.Body,
		Status:     domain.ReviewStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

// Get retrieves a review by ID
func (s *ReviewService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Review, error) {
	return s.reviewRepo.GetByID(ctx, tenantID, id)
}

// Update edits a review's content. Edited reviews go back through moderation.
func (s *ReviewService) Update(ctx context.Context, tenantID, id uuid.UUID, input *domain.ReviewUpdateInput) (*domain.Review, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	review, err := s.reviewRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, apperrors.Validation("rating must be between 1 and 5")
		}
		review.Rating = *input.Rating
	}
	if input.Title != nil {
		review.Title = *input.Title
	}
	if input.Body != nil {
		review.Body = *input.Body
	}
	review.Status = domain.ReviewStatusPending
	review.UpdatedAt = time.Now()

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	return review, nil
}

// Moderate publishes or rejects a review
func (s *ReviewService) Moderate(ctx context.Context, tenantID, id uuid.UUID, status domain.ReviewStatus, actorID *uuid.UUID, actorEmail string) (*domain.Review, error) {
	if status != domain.ReviewStatusPublished && status != domain.ReviewStatusRejected {
		return nil, apperrors.Validation("moderation status must be published or rejected")
	}

	review, err := s.reviewRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if review.Status == status {
		return nil, apperrors.Conflict(fmt.Sprintf("review is already %s", status))
	}

	if err := s.reviewRepo.UpdateStatus(ctx, tenantID, id, status); err != nil {
		return nil, fmt.Errorf("failed to moderate review: %w", err)
	}
	review.Status = status
	review.UpdatedAt = time.Now()

	if s.audit != nil {
		go func() {
			_ = s.audit.LogReviewModerated(context.Background(), tenantID, actorID, actorEmail, review.ID, status)
		}()
	}

	return review, nil
}

// Delete deletes a review
func (s *ReviewService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.reviewRepo.Delete(ctx, tenantID, id)
}

// List retrieves reviews with filtering and pagination
func (s *ReviewService) List(ctx context.Context, filter *domain.ReviewFilter, limit, offset int) (*domain.ReviewList, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.reviewRepo.List(ctx, filter, limit, offset)
}

// ListPublished retrieves published reviews for a product, for storefronts
func (s *ReviewService) ListPublished(ctx context.Context, tenantID, productID uuid.UUID, limit, offset int) (*domain.ReviewList, error) {
	status := domain.ReviewStatusPublished
	return s.List(ctx, &domain.ReviewFilter{
		TenantID:  tenantID,
		ProductID: &productID,
		Status:    &status,
	}, limit, offset)
}

// Summary returns aggregate rating statistics for a product
func (s *ReviewService) Summary(ctx context.Context, tenantID, productID uuid.UUID) (*domain.ReviewSummary, error) {
	return s.reviewRepo.Summary(ctx, tenantID, productID)
}

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

// DiscountRepository defines discount code repository operations
type DiscountRepository interface {
	Create(ctx context.Context, code *domain.DiscountCode) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.DiscountCode, error)
	GetByCode(ctx context.Context, tenantID uuid.UUID, codeStr string) (*domain.DiscountCode, error)
	Update(ctx context.Context, code *domain.DiscountCode) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, filter *domain.DiscountCodeFilter, limit, offset int) (*domain.DiscountCodeList, error)
}

// DiscountService handles promotional discount codes
type DiscountService struct {
	discountRepo DiscountRepository
	audit        *AuditService
}

// NewDiscountService creates a new discount service
func NewDiscountService(discountRepo DiscountRepository) *DiscountService {
	return &DiscountService{discountRepo: discountRepo}
}

// SetAuditService sets the audit service for logging discount actions
func (s *DiscountService) SetAuditService(audit *AuditService) {
	s.audit = audit
}

// Create creates a new discount code. Codes are stored uppercase and
// matched case-insensitively at redemption.
func (s *DiscountService) Create(ctx context.Context, tenantID uuid.UUID, input *domain.DiscountCodeInput, actorID *uuid.UUID, actorEmail string) (*domain.DiscountCode, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	codeStr := strings.ToUpper(strings.TrimSpace(input.Code))

	if !input.Type.IsValid() {
		return nil, apperrors.Validation("invalid discount type")
	}
	if input.Type == domain.DiscountTypePercentage && input.Value > 100 {
		return nil, apperrors.Validation("percentage discount cannot exceed 100")
	}
	if input.StartsAt != nil && input.ExpiresAt != nil && input.ExpiresAt.Before(*input.StartsAt) {
		return nil, apperrors.Validation("code expires before it starts")
	}

	if existing, err := s.discountRepo.GetByCode(ctx, tenantID, codeStr); err == nil && existing != nil {
		return nil, apperrors.Conflict("discount code already exists")
	} else if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	now := time.Now()
	code := &domain.DiscountCode{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Code:           codeStr,
		Type:           input.Type,
		Value:          input.Value,
		MinOrderCents:  input.MinOrderCents,
		MaxRedemptions: input.MaxRedemptions,
		StartsAt:       input.StartsAt,
		ExpiresAt:      input.ExpiresAt,
		Active:         input.Active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.discountRepo.Create(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to create discount code: %w", err)
	}

	if s.audit != nil {
		go func() {
			_ = s.audit.LogAction(context.Background(), tenantID, actorID, actorEmail, "user",
				domain.AuditActionDiscountCreated, domain.AuditResourceDiscount, &code.ID, code.Code,
				fmt.Sprintf("Created discount code '%s'", code.Code))
		}()
	}

	return code, nil
}

// Get retrieves a discount code by ID
func (s *DiscountService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.DiscountCode, error) {
	return s.discountRepo.GetByID(ctx, tenantID, id)
}

// Update applies a partial update to a discount code. The code string and
// type are immutable after creation so redeemed orders stay explainable.
func (s *DiscountService) Update(ctx context.Context, tenantID, id uuid.UUID, input *domain.DiscountCodeUpdateInput) (*domain.DiscountCode, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	code, err := s.discountRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Value != nil {
		if code.Type == domain.DiscountTypePercentage && *input.Value > 100 {
			return nil, apperrors.Validation("percentage discount cannot exceed 100")
		}
		code.Value = *input.Value
	}
	if input.MinOrderCents != nil {
		code.MinOrderCents = *input.MinOrderCents
	}
	if input.MaxRedemptions != nil {
		code.MaxRedemptions = *input.MaxRedemptions
	}
	if input.StartsAt != nil {
		code.StartsAt = input.StartsAt
	}
	if input.ExpiresAt != nil {
		code.ExpiresAt = input.ExpiresAt
	}
	if input.Active != nil {
		code.Active = *input.Active
	}
	code.UpdatedAt = time.Now()

	if err := s.discountRepo.Update(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to update discount code: %w", err)
	}

	return code, nil
}

// Delete deletes a discount code
func (s *DiscountService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.discountRepo.Delete(ctx, tenantID, id)
}

// List retrieves discount codes with filtering and pagination
func (s *DiscountService) List(ctx context.Context, filter *domain.DiscountCodeFilter, limit, offset int) (*domain.DiscountCodeList, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	return s.discountRepo.List(ctx, filter, limit, offset)
}

// Validate checks a code against an order subtotal without redeeming it.
// An unusable code is reported in the result rather than as an error so
// storefronts can show the reason inline.
func (s *DiscountService) Validate(ctx context.Context, tenantID uuid.UUID, codeStr string, subtotalCents, shippingCents int64) (*domain.DiscountValidation, error) {
	code, err := s.discountRepo.GetByCode(ctx, tenantID, strings.TrimSpace(codeStr))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return &domain.DiscountValidation{Valid: false, Reason: "code not found"}, nil
		}
		return nil, err
	}

	if ok, reason := code.IsRedeemable(time.Now()); !ok {
		return &domain.DiscountValidation{Valid: false, Reason: reason, Code: code}, nil
	}
	if code.MinOrderCents > 0 && subtotalCents < code.MinOrderCents {
		return &domain.DiscountValidation{
			Valid:  false,
			Reason: fmt.Sprintf("order minimum is %d cents", code.MinOrderCents),
			Code:   code,
		}, nil
	}

	return &domain.DiscountValidation{
		Valid:         true,
		Code:          code,
		DiscountCents: code.DiscountFor(subtotalCents, shippingCents),
	}, nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// DiscountCode represents a promotional discount code
type DiscountCode struct {
	ID              uuid.UUID    `json:"id"`
	TenantID        uuid.UUID    `json:"tenantId"`
	Code            string       `json:"code"`
	Type            DiscountType `json:"type"`
	Value           int64        `json:"value"`
	MinOrderCents   int64        `json:"minOrderCents,omitempty"`
	MaxRedemptions  int          `json:"maxRedemptions,omitempty"`
	RedemptionCount int          `json:"redemptionCount"`
	StartsAt        *time.Time   `json:"startsAt,omitempty"`
	ExpiresAt       *time.Time   `json:"expiresAt,omitempty"`
	Active          bool         `json:"active"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// DiscountCodeInput represents input for creating a discount code
type DiscountCodeInput struct {
	Code           string       `json:"code" validate:"required,min=2,max=64"`
	Type           DiscountType `json:"type" validate:"required"`
	Value          int64        `json:"value" validate:"min=0"`
	MinOrderCents  int64        `json:"minOrderCents,omitempty" validate:"omitempty,min=0"`
	MaxRedemptions int          `json:"maxRedemptions,omitempty" validate:"omitempty,min=0"`
	StartsAt       *time.Time   `json:"startsAt,omitempty"`
	ExpiresAt      *time.Time   `json:"expiresAt,omitempty"`
	Active         bool         `json:"active,omitempty"`
}

// DiscountCodeUpdateInput represents input for updating a discount code
type DiscountCodeUpdateInput struct {
	Value          *int64     `json:"value,omitempty" validate:"omitempty,min=0"`
	MinOrderCents  *int64     `json:"minOrderCents,omitempty" validate:"omitempty,min=0"`
	MaxRedemptions *int       `json:"maxRedemptions,omitempty" validate:"omitempty,min=0"`
	StartsAt       *time.Time `json:"startsAt,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	Active         *bool      `json:"active,omitempty"`
}

// DiscountCodeFilter represents filter options for querying discount codes
type DiscountCodeFilter struct {
	TenantID uuid.UUID
	Code     *string
	Active   *bool
}

// DiscountCodeList represents a paginated list of discount codes
type DiscountCodeList struct {
	Codes      []DiscountCode `json:"codes"`
	TotalCount int64          `json:"totalCount"`
	HasMore    bool           `json:"hasMore"`
}

// DiscountValidation represents the result of validating a code against
// an order subtotal
type DiscountValidation struct {
	Valid         bool          `json:"valid"`
	Reason        string        `json:"reason,omitempty"`
	Code          *DiscountCode `json:"code,omitempty"`
	DiscountCents int64         `json:"discountCents"`
}

// IsRedeemable checks window, active flag and redemption limit at a
// point in time. The order minimum is checked separately because it
// depends on the order subtotal.
func (d *DiscountCode) IsRedeemable(now time.Time) (bool, string) {
	if !d.Active {
		return false, "code is not active"
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false, "code is not yet valid"
	}
	if d.ExpiresAt != nil && now.After(*d.ExpiresAt) {
		return false, "code has expired"
	}
	if d.MaxRedemptions > 0 && d.RedemptionCount >= d.MaxRedemptions {
		return false, "code redemption limit reached"
	}
	return true, ""
}

// DiscountFor computes the discount amount in cents for a subtotal
func (d *DiscountCode) DiscountFor(subtotalCents, shippingCents int64) int64 {
	switch d.Type {
	case DiscountTypePercentage:
		return subtotalCents * d.Value / 100
	case DiscountTypeFixedAmount:
		if d.Value > subtotalCents {
			return subtotalCents
		}
		return d.Value
	case DiscountTypeFreeShipping:
		return shippingCents
	}
	return 0
}

package dto

// ValidateDiscountRequest represents the request to check a discount code
// against an order subtotal before placing the order
type ValidateDiscountRequest struct {
	Code          string `json:"code" validate:"required,min=2,max=64"`
	SubtotalCents int64  `json:"subtotalCents" validate:"min=0"`
	ShippingCents int64  `json:"shippingCents,omitempty" validate:"omitempty,min=0"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem represents a line item on an order. Name and unit price are
// snapshots taken at order time so later catalog edits do not rewrite
// historical orders.
type OrderItem struct {
	ID             uuid.UUID `json:"id"`
	OrderID        uuid.UUID `json:"orderId"`
	ProductID      uuid.UUID `json:"productId"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	TotalCents     int64     `json:"totalCents"`
}

// Order represents a customer order
type Order struct {
	ID              uuid.UUID   `json:"id"`
	TenantID        uuid.UUID   `json:"tenantId"`
	CustomerID      uuid.UUID   `json:"customerId"`
	Number          string      `json:"number"`
	Status          OrderStatus `json:"status"`
	Items           []OrderItem `json:"items"`
	SubtotalCents   int64       `json:"subtotalCents"`
	DiscountCents   int64       `json:"discountCents"`
	ShippingCents   int64       `json:"shippingCents"`
	TotalCents      int64       `json:"totalCents"`
	Currency        string      `json:"currency"`
	DiscountCodeID  *uuid.UUID  `json:"discountCodeId,omitempty"`
	ShippingAddress *Address    `json:"shippingAddress,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	PlacedAt        time.Time   `json:"placedAt"`
	PaidAt          *time.Time  `json:"paidAt,omitempty"`
	ShippedAt       *time.Time  `json:"shippedAt,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`

	// Related data (populated by resolver)
	Customer *Customer `json:"customer,omitempty"`
}

// OrderItemInput represents a line item when placing an order
type OrderItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=1000"`
}

// OrderInput represents input for placing an order
type OrderInput struct {
	CustomerID      uuid.UUID        `json:"customerId" validate:"required"`
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	DiscountCode    string           `json:"discountCode,omitempty" validate:"omitempty,max=64"`
	ShippingCents   int64            `json:"shippingCents,omitempty" validate:"omitempty,min=0"`
	ShippingAddress *Address         `json:"shippingAddress,omitempty"`
	Notes           string           `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// OrderUpdateInput represents input for updating order metadata
type OrderUpdateInput struct {
	ShippingAddress *Address `json:"shippingAddress,omitempty"`
	Notes           *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// OrderStatusInput represents input for an order status transition
type OrderStatusInput struct {
	Status OrderStatus `json:"status" validate:"required"`
}

// OrderFilter represents filter options for querying orders
type OrderFilter struct {
	TenantID   uuid.UUID
	CustomerID *uuid.UUID
	Status     *OrderStatus
	Number     *string
	FromTime   *time.Time
	ToTime     *time.Time
}

// OrderList represents a paginated list of orders
type OrderList struct {
	Orders     []Order `json:"orders"`
	TotalCount int64   `json:"totalCount"`
	HasMore    bool    `json:"hasMore"`
}

// RecalculateTotals recomputes subtotal and total from the line items
// and the current discount and shipping amounts
func (o *Order) RecalculateTotals() {
	var subtotal int64
	for i := range o.Items {
		o.Items[i].TotalCents = o.Items[i].UnitPriceCents * int64(o.Items[i].Quantity)
		subtotal += o.Items[i].TotalCents
	}
	o.SubtotalCents = subtotal
	total := subtotal - o.DiscountCents + o.ShippingCents
	if total < 0 {
		total = 0
	}
	o.TotalCents = total
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReturnItem represents a returned line item
type ReturnItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason,omitempty"`
}

// ReturnRequest represents a customer return for a delivered order
type ReturnRequest struct {
	ID             uuid.UUID    `json:"id"`
	TenantID       uuid.UUID    `json:"tenantId"`
	OrderID        uuid.UUID    `json:"orderId"`
	CustomerID     uuid.UUID    `json:"customerId"`
	Status         ReturnStatus `json:"status"`
	Reason         string       `json:"reason"`
	Items          []ReturnItem `json:"items,omitempty"`
	RefundCents    int64        `json:"refundCents,omitempty"`
	ResolutionNote string       `json:"resolutionNote,omitempty"`
	ResolvedAt     *time.Time   `json:"resolvedAt,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`

	// Related data (populated by resolver)
	Order *Order `json:"order,omitempty"`
}

// ReturnRequestInput represents input for opening a return
type ReturnRequestInput struct {
	OrderID uuid.UUID    `json:"orderId" validate:"required"`
	Reason  string       `json:"reason" validate:"required,min=1,max=2000"`
	Items   []ReturnItem `json:"items,omitempty"`
}

// ReturnResolveInput represents input for approving or rejecting a return
type ReturnResolveInput struct {
	RefundCents    *int64 `json:"refundCents,omitempty" validate:"omitempty,min=0"`
	ResolutionNote string `json:"resolutionNote,omitempty" validate:"omitempty,max=2000"`
}

// ReturnRequestFilter represents filter options for querying returns
type ReturnRequestFilter struct {
	TenantID   uuid.UUID
	OrderID    *uuid.UUID
	CustomerID *uuid.UUID
	Status     *ReturnStatus
}

// ReturnRequestList represents a paginated list of return requests
type ReturnRequestList struct {
	Returns    []ReturnRequest `json:"returns"`
	TotalCount int64           `json:"totalCount"`
	HasMore    bool            `json:"hasMore"`
}

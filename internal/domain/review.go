package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review represents a customer review of a product
type Review struct {
	ID         uuid.UUID    `json:"id"`
	TenantID   uuid.UUID    `json:"tenantId"`
	ProductID  uuid.UUID    `json:"productId"`
	CustomerID uuid.UUID    `json:"customerId"`
	Rating     int          `json:"rating"`
	Title      string       `json:"title,omitempty"`
	Body       string       `json:"body,omitempty"`
	Status     ReviewStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`

	// Related data (populated by resolver)
	Customer *Customer `json:"customer,omitempty"`
	Product  *Product  `json:"product,omitempty"`
}

// ReviewInput represents input for submitting a review
type ReviewInput struct {
	ProductID  uuid.UUID `json:"productId" validate:"required"`
	CustomerID uuid.UUID `json:"customerId" validate:"required"`
	Rating     int       `json:"rating" validate:"required,min=1,max=5"`
	Title      string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Body       string    `json:"body,omitempty" validate:"omitempty,max=5000"`
}

// ReviewUpdateInput represents input for editing a review
type ReviewUpdateInput struct {
	Rating *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Title  *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Body   *string `json:"body,omitempty" validate:"omitempty,max=5000"`
}

// ReviewFilter represents filter options for querying reviews
type ReviewFilter struct {
	TenantID   uuid.UUID
	ProductID  *uuid.UUID
	CustomerID *uuid.UUID
	Status     *ReviewStatus
	MinRating  *int
}

// ReviewList represents a paginated list of reviews
type ReviewList struct {
	Reviews    []Review `json:"reviews"`
	TotalCount int64    `json:"totalCount"`
	HasMore    bool     `json:"hasMore"`
}

// ReviewSummary represents aggregate rating statistics for a product
type ReviewSummary struct {
	ProductID     uuid.UUID `json:"productId"`
	AverageRating float64   `json:"averageRating"`
	ReviewCount   int64     `json:"reviewCount"`
}

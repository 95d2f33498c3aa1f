package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a sellable catalog item
type Product struct {
	ID            uuid.UUID      `json:"id"`
	TenantID      uuid.UUID      `json:"tenantId"`
	SKU           string         `json:"sku"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Category      string         `json:"category,omitempty"`
	PriceCents    int64          `json:"priceCents"`
	Currency      string         `json:"currency"`
	StockQuantity int            `json:"stockQuantity"`
	Active        bool           `json:"active"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`

	// Related data (populated by resolver)
	Models  []Model  `json:"models,omitempty"`
	Reviews []Review `json:"reviews,omitempty"`
}

// ProductInput represents input for creating a product
type ProductInput struct {
	SKU           string         `json:"sku" validate:"required,min=1,max=64"`
	Name          string         `json:"name" validate:"required,min=1,max=200"`
	Description   string         `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category      string         `json:"category,omitempty" validate:"omitempty,max=100"`
	PriceCents    int64          `json:"priceCents" validate:"required,min=0"`
	Currency      string         `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	StockQuantity int            `json:"stockQuantity,omitempty" validate:"omitempty,min=0"`
	Active        bool           `json:"active,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

// ProductUpdateInput represents input for updating a product
type ProductUpdateInput struct {
	Name          *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string        `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category      *string        `json:"category,omitempty" validate:"omitempty,max=100"`
	PriceCents    *int64         `json:"priceCents,omitempty" validate:"omitempty,min=0"`
	Currency      *string        `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	StockQuantity *int           `json:"stockQuantity,omitempty" validate:"omitempty,min=0"`
	Active        *bool          `json:"active,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

// ProductFilter represents filter options for querying products
type ProductFilter struct {
	TenantID uuid.UUID
	SKU      *string
	Category *string
	Active   *bool
	Search   *string
}

// ProductList represents a paginated list of products
type ProductList struct {
	Products   []Product `json:"products"`
	TotalCount int64     `json:"totalCount"`
	HasMore    bool      `json:"hasMore"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Address represents a postal address stored as JSON
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Customer represents a customer of a tenant
type Customer struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenantId"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone,omitempty"`
	ShippingAddress *Address  `json:"shippingAddress,omitempty"`
	BillingAddress  *Address  `json:"billingAddress,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	MarketingOptIn  bool      `json:"marketingOptIn"`
	Archived        bool      `json:"archived"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// Related data (populated by resolver)
	Orders []Order `json:"orders,omitempty"`
}

// CustomerInput represents input for creating a customer
type CustomerInput struct {
	Email           string   `json:"email" validate:"required,email"`
	Name            string   `json:"name" validate:"required,min=1,max=200"`
	Phone           string   `json:"phone,omitempty" validate:"omitempty,max=32"`
	ShippingAddress *Address `json:"shippingAddress,omitempty"`
	BillingAddress  *Address `json:"billingAddress,omitempty"`
	Notes           string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
	MarketingOptIn  bool     `json:"marketingOptIn,omitempty"`
}

// CustomerUpdateInput represents input for updating a customer
type CustomerUpdateInput struct {
	Email           *string  `json:"email,omitempty" validate:"omitempty,email"`
	Name            *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone           *string  `json:"phone,omitempty" validate:"omitempty,max=32"`
	ShippingAddress *Address `json:"shippingAddress,omitempty"`
	BillingAddress  *Address `json:"billingAddress,omitempty"`
	Notes           *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
	MarketingOptIn  *bool    `json:"marketingOptIn,omitempty"`
	Archived        *bool    `json:"archived,omitempty"`
}

// CustomerFilter represents filter options for querying customers
type CustomerFilter struct {
	TenantID uuid.UUID
	Email    *string
	Search   *string
	Archived *bool
}

// CustomerList represents a paginated list of customers
type CustomerList struct {
	Customers  []Customer `json:"customers"`
	TotalCount int64      `json:"totalCount"`
	HasMore    bool       `json:"hasMore"`
}

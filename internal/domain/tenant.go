package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a print shop tenant
type Tenant struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Plan      TenantPlan `json:"plan"`
	Suspended bool       `json:"suspended"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// Related data (populated by resolver)
	Members  []TenantMember  `json:"members,omitempty"`
	Settings *TenantSettings `json:"settings,omitempty"`
}

// TenantInput represents input for creating a tenant
type TenantInput struct {
	Name string     `json:"name" validate:"required,min=2,max=100"`
	Slug string     `json:"slug,omitempty" validate:"omitempty,min=2,max=100,alphanumunicode"`
	Plan TenantPlan `json:"plan,omitempty"`
}

// TenantUpdateInput represents input for updating a tenant
type TenantUpdateInput struct {
	Name      *string     `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Plan      *TenantPlan `json:"plan,omitempty"`
	Suspended *bool       `json:"suspended,omitempty"`
}

// TenantMember represents a member of a tenant
type TenantMember struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenantId"`
	UserID    uuid.UUID  `json:"userId"`
	Role      TenantRole `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// Related data (populated by resolver)
	User   *User   `json:"user,omitempty"`
	Tenant *Tenant `json:"tenant,omitempty"`
}

// TenantMemberInput represents input for adding/updating a member
type TenantMemberInput struct {
	UserID uuid.UUID  `json:"userId" validate:"required"`
	Role   TenantRole `json:"role" validate:"required"`
}

// TenantInvitation represents an invitation to join a tenant
type TenantInvitation struct {
	ID         uuid.UUID  `json:"id"`
	TenantID   uuid.UUID  `json:"tenantId"`
	Email      string     `json:"email"`
	Role       TenantRole `json:"role"`
	InvitedBy  uuid.UUID  `json:"invitedBy"`
	Token      string     `json:"-"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`

	// Related data (populated by resolver)
	Tenant        *Tenant `json:"tenant,omitempty"`
	InvitedByUser *User   `json:"invitedByUser,omitempty"`
}

// TenantInvitationInput represents input for creating an invitation
type TenantInvitationInput struct {
	Email string     `json:"email" validate:"required,email"`
	Role  TenantRole `json:"role" validate:"required"`
}

// TenantFilter represents filter options for querying tenants
type TenantFilter struct {
	UserID uuid.UUID
}

// TenantList represents a paginated list of tenants
type TenantList struct {
	Tenants    []Tenant `json:"tenants"`
	TotalCount int64    `json:"totalCount"`
	HasMore    bool     `json:"hasMore"`
}

// TenantStats represents tenant statistics
type TenantStats struct {
	TotalCustomers int64 `json:"totalCustomers"`
	TotalProducts  int64 `json:"totalProducts"`
	TotalOrders    int64 `json:"totalOrders"`
	ActiveJobs     int64 `json:"activeJobs"`
	RevenueCents   int64 `json:"revenueCents"`
}

// GenerateSlug generates a URL-safe slug from a name
func GenerateSlug(name string) string {
	// Simple slug generation - replace spaces with hyphens, lowercase
	slug := ""
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			slug += string(r)
		} else if r >= 'A' && r <= 'Z' {
			slug += string(r + 32) // lowercase
		} else if r >= '0' && r <= '9' {
			slug += string(r)
		} else if r == ' ' || r == '-' || r == '_' {
			if len(slug) > 0 && slug[len(slug)-1] != '-' {
				slug += "-"
			}
		}
	}
	// Trim trailing hyphens
	for len(slug) > 0 && slug[len(slug)-1] == '-' {
		slug = slug[:len(slug)-1]
	}
	return slug
}

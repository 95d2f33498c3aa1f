package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	// Authentication actions
	AuditActionLogin       AuditAction = "login"
	AuditActionLogout      AuditAction = "logout"
	AuditActionLoginFailed AuditAction = "login_failed"
	AuditActionAPIKeyUsed  AuditAction = "api_key_used"

	// Tenant management
	AuditActionTenantCreated     AuditAction = "tenant_created"
	AuditActionTenantUpdated     AuditAction = "tenant_updated"
	AuditActionTenantDeleted     AuditAction = "tenant_deleted"
	AuditActionMemberAdded       AuditAction = "member_added"
	AuditActionMemberRemoved     AuditAction = "member_removed"
	AuditActionMemberRoleChanged AuditAction = "member_role_changed"
	AuditActionUserInvited       AuditAction = "user_invited"
	AuditActionSettingsChanged   AuditAction = "settings_changed"

	// API key management
	AuditActionAPIKeyCreated AuditAction = "api_key_created"
	AuditActionAPIKeyRevoked AuditAction = "api_key_revoked"

	// Catalog management
	AuditActionProductCreated AuditAction = "product_created"
	AuditActionProductUpdated AuditAction = "product_updated"
	AuditActionProductDeleted AuditAction = "product_deleted"
	AuditActionModelUploaded  AuditAction = "model_uploaded"
	AuditActionModelDeleted   AuditAction = "model_deleted"

	// Inventory
	AuditActionSpoolCreated  AuditAction = "spool_created"
	AuditActionSpoolConsumed AuditAction = "spool_consumed"
	AuditActionSpoolDepleted AuditAction = "spool_depleted"
	AuditActionSpoolLowStock AuditAction = "spool_low_stock"

	// Print operations
	AuditActionJobCreated    AuditAction = "job_created"
	AuditActionJobAssigned   AuditAction = "job_assigned"
	AuditActionJobTransition AuditAction = "job_transition"
	AuditActionJobCanceled   AuditAction = "job_canceled"
	AuditActionJobRequeued   AuditAction = "job_requeued"

	// Commerce
	AuditActionOrderPlaced      AuditAction = "order_placed"
	AuditActionOrderTransition  AuditAction = "order_transition"
	AuditActionOrderCanceled    AuditAction = "order_canceled"
	AuditActionDiscountCreated  AuditAction = "discount_created"
	AuditActionDiscountRedeemed AuditAction = "discount_redeemed"
	AuditActionReturnOpened     AuditAction = "return_opened"
	AuditActionReturnResolved   AuditAction = "return_resolved"
	AuditActionReviewModerated  AuditAction = "review_moderated"
)

// AuditResourceType represents the type of resource being audited
type AuditResourceType string

const (
	AuditResourceUser     AuditResourceType = "user"
	AuditResourceTenant   AuditResourceType = "tenant"
	AuditResourceAPIKey   AuditResourceType = "api_key"
	AuditResourceCustomer AuditResourceType = "customer"
	AuditResourceProduct  AuditResourceType = "product"
	AuditResourceModel    AuditResourceType = "model"
	AuditResourceSpool    AuditResourceType = "spool"
	AuditResourcePrinter  AuditResourceType = "printer"
	AuditResourceJob      AuditResourceType = "print_job"
	AuditResourceOrder    AuditResourceType = "order"
	AuditResourceDiscount AuditResourceType = "discount_code"
	AuditResourceReturn   AuditResourceType = "return_request"
	AuditResourceReview   AuditResourceType = "review"
	AuditResourceSettings AuditResourceType = "settings"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	TenantID     uuid.UUID         `json:"tenantId" db:"tenant_id"`
	ActorID      *uuid.UUID        `json:"actorId,omitempty" db:"actor_id"`
	ActorEmail   string            `json:"actorEmail" db:"actor_email"` // Preserved even if user deleted
	ActorType    string            `json:"actorType" db:"actor_type"`   // "user", "api_key", "system"
	Action       AuditAction       `json:"action" db:"action"`
	ResourceType AuditResourceType `json:"resourceType" db:"resource_type"`
	ResourceID   *uuid.UUID        `json:"resourceId,omitempty" db:"resource_id"`
	ResourceName string            `json:"resourceName,omitempty" db:"resource_name"`
	Description  string            `json:"description" db:"description"`
	Metadata     map[string]any    `json:"metadata,omitempty" db:"metadata"`
	Changes      *AuditChanges     `json:"changes,omitempty" db:"changes"`

	// Request context
	IPAddress string `json:"ipAddress" db:"ip_address"`
	UserAgent string `json:"userAgent" db:"user_agent"`
	RequestID string `json:"requestId,omitempty" db:"request_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AuditChanges represents before/after state for update actions
type AuditChanges struct {
	Before map[string]any `json:"before,omitempty"`
	After  map[string]any `json:"after,omitempty"`
}

// AuditLogFilter represents filter options for querying audit logs
type AuditLogFilter struct {
	TenantID     *uuid.UUID
	ActorID      *uuid.UUID
	Action       *AuditAction
	Actions      []AuditAction
	ResourceType *AuditResourceType
	ResourceID   *uuid.UUID
	StartTime    *time.Time
	EndTime      *time.Time
	SearchQuery  *string // Search in description, resource name

	// Pagination
	Limit  int
	Offset int
}

// AuditLogList represents a paginated list of audit logs
type AuditLogList struct {
	Data       []AuditLog `json:"data"`
	TotalCount int        `json:"totalCount"`
	HasMore    bool       `json:"hasMore"`
}

// AuditSummary represents aggregated audit activity for a tenant
type AuditSummary struct {
	TenantID         uuid.UUID                 `json:"tenantId"`
	Period           string                    `json:"period"`
	TotalEvents      int                       `json:"totalEvents"`
	UniqueActors     int                       `json:"uniqueActors"`
	EventsByAction   map[AuditAction]int       `json:"eventsByAction"`
	EventsByResource map[AuditResourceType]int `json:"eventsByResource"`
	TopActors        []AuditActorSummary       `json:"topActors,omitempty"`
}

// AuditActorSummary represents one actor's activity within a summary
type AuditActorSummary struct {
	ActorID    *uuid.UUID `json:"actorId,omitempty"`
	ActorEmail string     `json:"actorEmail"`
	ActorType  string     `json:"actorType"`
	EventCount int        `json:"eventCount"`
}

// AuditLogInput represents input for creating an audit log entry
type AuditLogInput struct {
	TenantID     uuid.UUID
	ActorID      *uuid.UUID
	ActorEmail   string
	ActorType    string
	Action       AuditAction
	ResourceType AuditResourceType
	ResourceID   *uuid.UUID
	ResourceName string
	Description  string
	Metadata     map[string]any
	Changes      *AuditChanges
	IPAddress    string
	UserAgent    string
	RequestID    string
}

package domain

// TenantRole represents the role of a user in a tenant
type TenantRole string

const (
	TenantRoleOwner  TenantRole = "owner"
	TenantRoleAdmin  TenantRole = "admin"
	TenantRoleStaff  TenantRole = "staff"
	TenantRoleViewer TenantRole = "viewer"
)

// IsValid checks if the tenant role is valid
func (r TenantRole) IsValid() bool {
	switch r {
	case TenantRoleOwner, TenantRoleAdmin, TenantRoleStaff, TenantRoleViewer:
		return true
	}
	return false
}

// CanManageMembers checks if the role can manage members
func (r TenantRole) CanManageMembers() bool {
	return r == TenantRoleOwner || r == TenantRoleAdmin
}

// CanManageCatalog checks if the role can manage products, models and discounts
func (r TenantRole) CanManageCatalog() bool {
	return r == TenantRoleOwner || r == TenantRoleAdmin
}

// CanOperatePrinters checks if the role can operate printers and print jobs
func (r TenantRole) CanOperatePrinters() bool {
	return r != TenantRoleViewer
}

// CanWrite checks if the role can write data
func (r TenantRole) CanWrite() bool {
	return r != TenantRoleViewer
}

// CanRead checks if the role can read data
func (r TenantRole) CanRead() bool {
	return true
}

// AtLeast checks if the role meets the required level
func (r TenantRole) AtLeast(required TenantRole) bool {
	levels := map[TenantRole]int{
		TenantRoleViewer: 1,
		TenantRoleStaff:  2,
		TenantRoleAdmin:  3,
		TenantRoleOwner:  4,
	}
	return levels[r] >= levels[required]
}

// TenantPlan represents the subscription plan of a tenant
type TenantPlan string

const (
	TenantPlanFree     TenantPlan = "free"
	TenantPlanStarter  TenantPlan = "starter"
	TenantPlanBusiness TenantPlan = "business"
)

// IsValid checks if the tenant plan is valid
func (p TenantPlan) IsValid() bool {
	switch p {
	case TenantPlanFree, TenantPlanStarter, TenantPlanBusiness:
		return true
	}
	return false
}

// JobStatus represents the status of a print job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusPrinting  JobStatus = "printing"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// IsValid checks if the job status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusQueued, JobStatusPrinting, JobStatusCompleted, JobStatusFailed, JobStatusCanceled:
		return true
	}
	return false
}

// IsTerminal checks if the job status is terminal
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCanceled
}

// CanTransitionTo checks if the status can move to the target status
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return target == JobStatusPrinting || target == JobStatusCanceled
	case JobStatusPrinting:
		return target == JobStatusCompleted || target == JobStatusFailed || target == JobStatusCanceled
	}
	return false
}

// JobPriority represents the priority of a print job
type JobPriority string

const (
	JobPriorityLow    JobPriority = "low"
	JobPriorityNormal JobPriority = "normal"
	JobPriorityHigh   JobPriority = "high"
	JobPriorityRush   JobPriority = "rush"
)

// IsValid checks if the job priority is valid
func (p JobPriority) IsValid() bool {
	switch p {
	case JobPriorityLow, JobPriorityNormal, JobPriorityHigh, JobPriorityRush:
		return true
	}
	return false
}

// Rank returns the numeric rank of the priority, higher runs first
func (p JobPriority) Rank() int {
	switch p {
	case JobPriorityRush:
		return 3
	case JobPriorityHigh:
		return 2
	case JobPriorityNormal:
		return 1
	case JobPriorityLow:
		return 0
	}
	return 0
}

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCanceled   OrderStatus = "canceled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled, OrderStatusRefunded:
		return true
	}
	return false
}

// IsTerminal checks if the order status is terminal
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCanceled || s == OrderStatusRefunded
}

// CanTransitionTo checks if the status can move to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusPaid || target == OrderStatusCanceled
	case OrderStatusPaid:
		return target == OrderStatusProcessing || target == OrderStatusRefunded
	case OrderStatusProcessing:
		return target == OrderStatusShipped || target == OrderStatusCanceled
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	case OrderStatusDelivered:
		return target == OrderStatusRefunded
	}
	return false
}

// ReturnStatus represents the status of a return request
type ReturnStatus string

const (
	ReturnStatusRequested ReturnStatus = "requested"
	ReturnStatusApproved  ReturnStatus = "approved"
	ReturnStatusRejected  ReturnStatus = "rejected"
	ReturnStatusReceived  ReturnStatus = "received"
	ReturnStatusRefunded  ReturnStatus = "refunded"
)

// IsValid checks if the return status is valid
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusRequested, ReturnStatusApproved, ReturnStatusRejected,
		ReturnStatusReceived, ReturnStatusRefunded:
		return true
	}
	return false
}

// IsTerminal checks if the return status is terminal
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusRejected || s == ReturnStatusRefunded
}

// CanTransitionTo checks if the status can move to the target status
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	switch s {
	case ReturnStatusRequested:
		return target == ReturnStatusApproved || target == ReturnStatusRejected
	case ReturnStatusApproved:
		return target == ReturnStatusReceived
	case ReturnStatusReceived:
		return target == ReturnStatusRefunded
	}
	return false
}

// ReviewStatus represents the moderation status of a review
type ReviewStatus string

const (
	ReviewStatusPending   ReviewStatus = "pending"
	ReviewStatusPublished ReviewStatus = "published"
	ReviewStatusRejected  ReviewStatus = "rejected"
)

// IsValid checks if the review status is valid
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusPublished, ReviewStatusRejected:
		return true
	}
	return false
}

// DiscountType represents the type of discount
type DiscountType string

const (
	DiscountTypePercentage   DiscountType = "percentage"
	DiscountTypeFixedAmount  DiscountType = "fixed_amount"
	DiscountTypeFreeShipping DiscountType = "free_shipping"
)

// IsValid checks if the discount type is valid
func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountTypePercentage, DiscountTypeFixedAmount, DiscountTypeFreeShipping:
		return true
	}
	return false
}

// SpoolMaterial represents the filament material of a spool
type SpoolMaterial string

const (
	SpoolMaterialPLA   SpoolMaterial = "pla"
	SpoolMaterialPETG  SpoolMaterial = "petg"
	SpoolMaterialABS   SpoolMaterial = "abs"
	SpoolMaterialTPU   SpoolMaterial = "tpu"
	SpoolMaterialNylon SpoolMaterial = "nylon"
)

// IsValid checks if the spool material is valid
func (m SpoolMaterial) IsValid() bool {
	switch m {
	case SpoolMaterialPLA, SpoolMaterialPETG, SpoolMaterialABS, SpoolMaterialTPU, SpoolMaterialNylon:
		return true
	}
	return false
}

// SpoolStatus represents the inventory status of a spool
type SpoolStatus string

const (
	SpoolStatusActive   SpoolStatus = "active"
	SpoolStatusDepleted SpoolStatus = "depleted"
	SpoolStatusArchived SpoolStatus = "archived"
)

// IsValid checks if the spool status is valid
func (s SpoolStatus) IsValid() bool {
	switch s {
	case SpoolStatusActive, SpoolStatusDepleted, SpoolStatusArchived:
		return true
	}
	return false
}

// PrinterStatus represents the operational status of a printer
type PrinterStatus string

const (
	PrinterStatusIdle        PrinterStatus = "idle"
	PrinterStatusPrinting    PrinterStatus = "printing"
	PrinterStatusMaintenance PrinterStatus = "maintenance"
	PrinterStatusOffline     PrinterStatus = "offline"
)

// IsValid checks if the printer status is valid
func (s PrinterStatus) IsValid() bool {
	switch s {
	case PrinterStatusIdle, PrinterStatusPrinting, PrinterStatusMaintenance, PrinterStatusOffline:
		return true
	}
	return false
}

// CanAcceptJob checks if a printer in this status can take a new job
func (s PrinterStatus) CanAcceptJob() bool {
	return s == PrinterStatusIdle
}

// ModelFormat represents the file format of a printable model
type ModelFormat string

const (
	ModelFormatSTL   ModelFormat = "stl"
	ModelFormatOBJ   ModelFormat = "obj"
	ModelFormat3MF   ModelFormat = "3mf"
	ModelFormatGCode ModelFormat = "gcode"
)

// IsValid checks if the model format is valid
func (f ModelFormat) IsValid() bool {
	switch f {
	case ModelFormatSTL, ModelFormatOBJ, ModelFormat3MF, ModelFormatGCode:
		return true
	}
	return false
}

// ModelStatus represents the processing status of an uploaded model
type ModelStatus string

const (
	ModelStatusPending ModelStatus = "pending"
	ModelStatusReady   ModelStatus = "ready"
	ModelStatusFailed  ModelStatus = "failed"
)

// IsValid checks if the model status is valid
func (s ModelStatus) IsValid() bool {
	switch s {
	case ModelStatusPending, ModelStatusReady, ModelStatusFailed:
		return true
	}
	return false
}

// APIKeyScope represents the scope of an API key
type APIKeyScope string

const (
	APIKeyScopeRead   APIKeyScope = "read"
	APIKeyScopeWrite  APIKeyScope = "write"
	APIKeyScopeIngest APIKeyScope = "ingest"
)

// IsValid checks if the API key scope is valid
func (s APIKeyScope) IsValid() bool {
	switch s {
	case APIKeyScopeRead, APIKeyScopeWrite, APIKeyScopeIngest:
		return true
	}
	return false
}

// SortOrder represents the sort order for queries
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// IsValid checks if the sort order is valid
func (o SortOrder) IsValid() bool {
	switch o {
	case SortOrderAsc, SortOrderDesc:
		return true
	}
	return false
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// PrintJob represents a queued unit of printing work
type PrintJob struct {
	ID                    uuid.UUID   `json:"id"`
	TenantID              uuid.UUID   `json:"tenantId"`
	ModelID               uuid.UUID   `json:"modelId"`
	PrinterID             *uuid.UUID  `json:"printerId,omitempty"`
	SpoolID               *uuid.UUID  `json:"spoolId,omitempty"`
	OrderID               *uuid.UUID  `json:"orderId,omitempty"`
	Name                  string      `json:"name"`
	Status                JobStatus   `json:"status"`
	Priority              JobPriority `json:"priority"`
	EstimatedWeightGrams  float64     `json:"estimatedWeightGrams,omitempty"`
	ActualWeightGrams     float64     `json:"actualWeightGrams,omitempty"`
	EstimatedDurationMins int         `json:"estimatedDurationMins,omitempty"`
	Progress              float64     `json:"progress"`
	QueuedAt              time.Time   `json:"queuedAt"`
	StartedAt             *time.Time  `json:"startedAt,omitempty"`
	CompletedAt           *time.Time  `json:"completedAt,omitempty"`
	FailureReason         string      `json:"failureReason,omitempty"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`

	// Related data (populated by resolver)
	Model   *Model   `json:"model,omitempty"`
	Printer *Printer `json:"printer,omitempty"`
	Spool   *Spool   `json:"spool,omitempty"`

	// Position in the tenant queue, derived for queued jobs
	QueuePosition int `json:"queuePosition,omitempty"`
}

// PrintJobInput represents input for creating a print job
type PrintJobInput struct {
	ModelID               uuid.UUID   `json:"modelId" validate:"required"`
	Name                  string      `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Priority              JobPriority `json:"priority,omitempty"`
	PrinterID             *uuid.UUID  `json:"printerId,omitempty"`
	SpoolID               *uuid.UUID  `json:"spoolId,omitempty"`
	OrderID               *uuid.UUID  `json:"orderId,omitempty"`
	EstimatedWeightGrams  float64     `json:"estimatedWeightGrams,omitempty" validate:"omitempty,gt=0"`
	EstimatedDurationMins int         `json:"estimatedDurationMins,omitempty" validate:"omitempty,gt=0"`
}

// PrintJobUpdateInput represents input for updating job metadata
type PrintJobUpdateInput struct {
	Name                  *string      `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Priority              *JobPriority `json:"priority,omitempty"`
	EstimatedWeightGrams  *float64     `json:"estimatedWeightGrams,omitempty" validate:"omitempty,gt=0"`
	EstimatedDurationMins *int         `json:"estimatedDurationMins,omitempty" validate:"omitempty,gt=0"`
}

// PrintJobStatusInput represents input for a status transition
type PrintJobStatusInput struct {
	Status            JobStatus `json:"status" validate:"required"`
	Progress          *float64  `json:"progress,omitempty" validate:"omitempty,min=0,max=100"`
	ActualWeightGrams *float64  `json:"actualWeightGrams,omitempty" validate:"omitempty,min=0"`
	FailureReason     string    `json:"failureReason,omitempty" validate:"omitempty,max=500"`
}

// PrintJobAssignInput represents input for assigning a job to hardware
type PrintJobAssignInput struct {
	PrinterID uuid.UUID  `json:"printerId" validate:"required"`
	SpoolID   *uuid.UUID `json:"spoolId,omitempty"`
}

// PrintJobFilter represents filter options for querying print jobs
type PrintJobFilter struct {
	TenantID  uuid.UUID
	Status    *JobStatus
	Priority  *JobPriority
	PrinterID *uuid.UUID
	ModelID   *uuid.UUID
	OrderID   *uuid.UUID
}

// PrintJobList represents a paginated list of print jobs
type PrintJobList struct {
	Jobs       []PrintJob `json:"jobs"`
	TotalCount int64      `json:"totalCount"`
	HasMore    bool       `json:"hasMore"`
}

// QueueSnapshot represents the live queue of a tenant ordered by dispatch order
type QueueSnapshot struct {
	Jobs      []PrintJob `json:"jobs"`
	Capacity  int        `json:"capacity"`
	TakenAt   time.Time  `json:"takenAt"`
	QueuedLen int        `json:"queuedLen"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// BuildVolume represents the printable area of a printer in millimeters
type BuildVolume struct {
	XMM float64 `json:"xMm"`
	YMM float64 `json:"yMm"`
	ZMM float64 `json:"zMm"`
}

// Printer represents a physical 3D printer
type Printer struct {
	ID               uuid.UUID     `json:"id"`
	TenantID         uuid.UUID     `json:"tenantId"`
	Name             string        `json:"name"`
	Manufacturer     string        `json:"manufacturer,omitempty"`
	ModelName        string        `json:"modelName,omitempty"`
	Status           PrinterStatus `json:"status"`
	BuildVolume      *BuildVolume  `json:"buildVolume,omitempty"`
	NozzleDiameterMM float64       `json:"nozzleDiameterMm,omitempty"`
	Location         string        `json:"location,omitempty"`
	LastSeenAt       *time.Time    `json:"lastSeenAt,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// PrinterInput represents input for registering a printer
type PrinterInput struct {
	Name             string       `json:"name" validate:"required,min=1,max=100"`
	Manufacturer     string       `json:"manufacturer,omitempty" validate:"omitempty,max=100"`
	ModelName        string       `json:"modelName,omitempty" validate:"omitempty,max=100"`
	BuildVolume      *BuildVolume `json:"buildVolume,omitempty"`
	NozzleDiameterMM float64      `json:"nozzleDiameterMm,omitempty" validate:"omitempty,gt=0"`
	Location         string       `json:"location,omitempty" validate:"omitempty,max=100"`
}

// PrinterUpdateInput represents input for updating a printer
type PrinterUpdateInput struct {
	Name             *string        `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Manufacturer     *string        `json:"manufacturer,omitempty" validate:"omitempty,max=100"`
	ModelName        *string        `json:"modelName,omitempty" validate:"omitempty,max=100"`
	Status           *PrinterStatus `json:"status,omitempty"`
	BuildVolume      *BuildVolume   `json:"buildVolume,omitempty"`
	NozzleDiameterMM *float64       `json:"nozzleDiameterMm,omitempty" validate:"omitempty,gt=0"`
	Location         *string        `json:"location,omitempty" validate:"omitempty,max=100"`
}

// PrinterHeartbeatInput represents a status report from a printer agent
type PrinterHeartbeatInput struct {
	Status         PrinterStatus `json:"status" validate:"required"`
	NozzleTempC    *float64      `json:"nozzleTempC,omitempty"`
	BedTempC       *float64      `json:"bedTempC,omitempty"`
	ChamberTempC   *float64      `json:"chamberTempC,omitempty"`
	ProgressPct    *float64      `json:"progressPct,omitempty" validate:"omitempty,min=0,max=100"`
	FilamentUsedMM *float64      `json:"filamentUsedMm,omitempty" validate:"omitempty,min=0"`
	JobID          *uuid.UUID    `json:"jobId,omitempty"`
}

// PrinterFilter represents filter options for querying printers
type PrinterFilter struct {
	TenantID uuid.UUID
	Status   *PrinterStatus
	Location *string
}

// PrinterList represents a paginated list of printers
type PrinterList struct {
	Printers   []Printer `json:"printers"`
	TotalCount int64     `json:"totalCount"`
	HasMore    bool      `json:"hasMore"`
}

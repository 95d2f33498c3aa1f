package domain

import (
	"time"

	"github.com/google/uuid"
)

// PrinterSample represents one telemetry reading from a printer agent,
// stored in ClickHouse
type PrinterSample struct {
	TenantID       uuid.UUID `json:"tenantId" ch:"tenant_id"`
	PrinterID      uuid.UUID `json:"printerId" ch:"printer_id"`
	JobID          string    `json:"jobId,omitempty" ch:"job_id"`
	Status         string    `json:"status" ch:"status"`
	NozzleTempC    float64   `json:"nozzleTempC" ch:"nozzle_temp_c"`
	BedTempC       float64   `json:"bedTempC" ch:"bed_temp_c"`
	ChamberTempC   float64   `json:"chamberTempC" ch:"chamber_temp_c"`
	ProgressPct    float64   `json:"progressPct" ch:"progress_pct"`
	FilamentUsedMM float64   `json:"filamentUsedMm" ch:"filament_used_mm"`
	RecordedAt     time.Time `json:"recordedAt" ch:"recorded_at"`
}

// PrinterSampleInput represents a telemetry reading posted by an agent
type PrinterSampleInput struct {
	PrinterID      uuid.UUID  `json:"printerId" validate:"required"`
	JobID          *uuid.UUID `json:"jobId,omitempty"`
	Status         string     `json:"status,omitempty" validate:"omitempty,max=32"`
	NozzleTempC    float64    `json:"nozzleTempC,omitempty"`
	BedTempC       float64    `json:"bedTempC,omitempty"`
	ChamberTempC   float64    `json:"chamberTempC,omitempty"`
	ProgressPct    float64    `json:"progressPct,omitempty" validate:"omitempty,min=0,max=100"`
	FilamentUsedMM float64    `json:"filamentUsedMm,omitempty" validate:"omitempty,min=0"`
	RecordedAt     *time.Time `json:"recordedAt,omitempty"`
}

// TelemetryBatch represents a batch of telemetry readings
type TelemetryBatch struct {
	Samples []PrinterSampleInput `json:"samples" validate:"required,min=1,max=1000,dive"`
}

// JobEvent represents a lifecycle event of a print job, stored in ClickHouse
type JobEvent struct {
	TenantID   uuid.UUID `json:"tenantId" ch:"tenant_id"`
	JobID      uuid.UUID `json:"jobId" ch:"job_id"`
	EventType  string    `json:"eventType" ch:"event_type"`
	FromStatus string    `json:"fromStatus,omitempty" ch:"from_status"`
	ToStatus   string    `json:"toStatus,omitempty" ch:"to_status"`
	Detail     string    `json:"detail,omitempty" ch:"detail"`
	OccurredAt time.Time `json:"occurredAt" ch:"occurred_at"`
}

// Job event types recorded to the telemetry store
const (
	JobEventCreated    = "created"
	JobEventAssigned   = "assigned"
	JobEventTransition = "transition"
	JobEventProgress   = "progress"
	JobEventRequeued   = "requeued"
)

// PrinterSampleFilter represents filter options for querying samples
type PrinterSampleFilter struct {
	TenantID  uuid.UUID
	PrinterID *uuid.UUID
	JobID     *uuid.UUID
	FromTime  *time.Time
	ToTime    *time.Time
}

// PrinterUsageStats represents aggregated printer utilisation
type PrinterUsageStats struct {
	PrinterID      uuid.UUID `json:"printerId" ch:"printer_id"`
	SampleCount    uint64    `json:"sampleCount" ch:"sample_count"`
	AvgNozzleTempC float64   `json:"avgNozzleTempC" ch:"avg_nozzle_temp_c"`
	AvgBedTempC    float64   `json:"avgBedTempC" ch:"avg_bed_temp_c"`
	MaxProgressPct float64   `json:"maxProgressPct" ch:"max_progress_pct"`
	FilamentUsedMM float64   `json:"filamentUsedMm" ch:"filament_used_mm"`
	FirstSeen      time.Time `json:"firstSeen" ch:"first_seen"`
	LastSeen       time.Time `json:"lastSeen" ch:"last_seen"`
}

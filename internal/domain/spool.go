package domain

import (
	"time"

	"github.com/google/uuid"
)

// Spool represents a filament spool in inventory
type Spool struct {
	ID                   uuid.UUID     `json:"id"`
	TenantID             uuid.UUID     `json:"tenantId"`
	Material             SpoolMaterial `json:"material"`
	Color                string        `json:"color"`
	DiameterMM           float64       `json:"diameterMm"`
	TotalWeightGrams     float64       `json:"totalWeightGrams"`
	RemainingWeightGrams float64       `json:"remainingWeightGrams"`
	Vendor               string        `json:"vendor,omitempty"`
	LotNumber            string        `json:"lotNumber,omitempty"`
	CostCents            int64         `json:"costCents,omitempty"`
	Location             string        `json:"location,omitempty"`
	Status               SpoolStatus   `json:"status"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// SpoolInput represents input for creating a spool
type SpoolInput struct {
	Material         SpoolMaterial `json:"material" validate:"required"`
	Color            string        `json:"color" validate:"required,min=1,max=64"`
	DiameterMM       float64       `json:"diameterMm" validate:"required,gt=0"`
	TotalWeightGrams float64       `json:"totalWeightGrams" validate:"required,gt=0"`
	Vendor           string        `json:"vendor,omitempty" validate:"omitempty,max=100"`
	LotNumber        string        `json:"lotNumber,omitempty" validate:"omitempty,max=64"`
	CostCents        int64         `json:"costCents,omitempty" validate:"omitempty,min=0"`
	Location         string        `json:"location,omitempty" validate:"omitempty,max=100"`
}

// SpoolUpdateInput represents input for updating a spool
type SpoolUpdateInput struct {
	Color     *string      `json:"color,omitempty" validate:"omitempty,min=1,max=64"`
	Vendor    *string      `json:"vendor,omitempty" validate:"omitempty,max=100"`
	LotNumber *string      `json:"lotNumber,omitempty" validate:"omitempty,max=64"`
	CostCents *int64       `json:"costCents,omitempty" validate:"omitempty,min=0"`
	Location  *string      `json:"location,omitempty" validate:"omitempty,max=100"`
	Status    *SpoolStatus `json:"status,omitempty"`
}

// SpoolConsumeInput represents input for recording filament consumption
type SpoolConsumeInput struct {
	Grams  float64    `json:"grams" validate:"required,gt=0"`
	JobID  *uuid.UUID `json:"jobId,omitempty"`
	Reason string     `json:"reason,omitempty" validate:"omitempty,max=200"`
}

// SpoolFilter represents filter options for querying spools
type SpoolFilter struct {
	TenantID      uuid.UUID
	Material      *SpoolMaterial
	Status        *SpoolStatus
	Location      *string
	LowStockBelow *float64
}

// SpoolList represents a paginated list of spools
type SpoolList struct {
	Spools     []Spool `json:"spools"`
	TotalCount int64   `json:"totalCount"`
	HasMore    bool    `json:"hasMore"`
}

// CanConsume checks whether the requested amount can be drawn from the spool
func (s *Spool) CanConsume(grams float64) bool {
	return s.Status == SpoolStatusActive && grams > 0 && s.RemainingWeightGrams >= grams
}

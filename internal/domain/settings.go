package domain

import (
	"time"

	"github.com/google/uuid"
)

// TenantSettings represents per-tenant operational settings
type TenantSettings struct {
	ID                     uuid.UUID `json:"id"`
	TenantID               uuid.UUID `json:"tenantId"`
	Currency               string    `json:"currency"`
	Timezone               string    `json:"timezone"`
	OrderNumberPrefix      string    `json:"orderNumberPrefix"`
	PrintQueueCapacity     int       `json:"printQueueCapacity"`
	AutoAssignJobs         bool      `json:"autoAssignJobs"`
	LowStockThresholdGrams int       `json:"lowStockThresholdGrams"`
	SupportEmail           string    `json:"supportEmail,omitempty"`
	NotifyWebhookURL       string    `json:"notifyWebhookUrl,omitempty"`
	NotifyWebhookSecret    string    `json:"-"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// TenantSettingsInput represents input for updating tenant settings
type TenantSettingsInput struct {
	Currency               *string `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Timezone               *string `json:"timezone,omitempty" validate:"omitempty,min=1,max=64"`
	OrderNumberPrefix      *string `json:"orderNumberPrefix,omitempty" validate:"omitempty,min=1,max=8,alphanum"`
	PrintQueueCapacity     *int    `json:"printQueueCapacity,omitempty" validate:"omitempty,min=1,max=1000"`
	AutoAssignJobs         *bool   `json:"autoAssignJobs,omitempty"`
	LowStockThresholdGrams *int    `json:"lowStockThresholdGrams,omitempty" validate:"omitempty,min=0"`
	SupportEmail           *string `json:"supportEmail,omitempty" validate:"omitempty,email"`
	NotifyWebhookURL       *string `json:"notifyWebhookUrl,omitempty" validate:"omitempty,url"`
	NotifyWebhookSecret    *string `json:"notifyWebhookSecret,omitempty"`
}

// DefaultTenantSettings returns the settings applied to a newly created tenant
func DefaultTenantSettings(tenantID uuid.UUID) *TenantSettings {
	return &TenantSettings{
		TenantID:               tenantID,
		Currency:               "USD",
		Timezone:               "UTC",
		OrderNumberPrefix:      "PF",
		PrintQueueCapacity:     100,
		AutoAssignJobs:         true,
		LowStockThresholdGrams: 100,
	}
}

package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge/api/internal/domain"
)

// NewTestTenant creates a test tenant with default values.
func NewTestTenant() *domain.Tenant {
	return &domain.Tenant{
		ID:        uuid.New(),
		Name:      "Test Workshop",
		Slug:      "test-workshop",
		Plan:      domain.TenantPlanFree,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// NewTestUser creates a test user with default values.
func NewTestUser() *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Email:     "test@example.com",
		Name:      "Test User",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// NewTestAPIKey creates a test API key with default values.
func NewTestAPIKey(tenantID uuid.UUID) *domain.APIKey {
	return &domain.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "test-key",
		PublicKey: "pk-pf-test",
		Scopes:    []domain.APIKeyScope{domain.APIKeyScopeRead, domain.APIKeyScopeWrite},
		CreatedAt: time.Now(),
	}
}

// NewTestProduct creates a test product with default values.
func NewTestProduct(tenantID uuid.UUID) *domain.Product {
	return &domain.Product{
		ID:            uuid.New(),
		TenantID:      tenantID,
		SKU:           "SKU-001",
		Name:          "Benchy Boat",
		PriceCents:    1999,
		Currency:      "USD",
		StockQuantity: 10,
		Active:        true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

// NewTestPrinter creates a test printer with default values.
func NewTestPrinter(tenantID uuid.UUID) *domain.Printer {
	return &domain.Printer{
		ID:               uuid.New(),
		TenantID:         tenantID,
		Name:             "Voron 2.4",
		Manufacturer:     "Voron Design",
		Status:           domain.PrinterStatusIdle,
		NozzleDiameterMM: 0.4,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

// NewTestSpool creates a test spool with default values.
func NewTestSpool(tenantID uuid.UUID) *domain.Spool {
	return &domain.Spool{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		Material:             domain.SpoolMaterialPLA,
		Color:                "galaxy black",
		DiameterMM:           1.75,
		TotalWeightGrams:     1000,
		RemainingWeightGrams: 750,
		Status:               domain.SpoolStatusActive,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
}

// NewTestModel creates a test model with default values.
func NewTestModel(tenantID uuid.UUID) *domain.Model {
	return &domain.Model{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        "benchy",
		StorageKey:  tenantID.String() + "/models/benchy.stl",
		FileName:    "benchy.stl",
		ContentType: "model/stl",
		SizeBytes:   1024,
		Format:      domain.ModelFormatSTL,
		Status:      domain.ModelStatusReady,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// NewTestPrintJob creates a queued test print job with default values.
func NewTestPrintJob(tenantID, modelID uuid.UUID) *domain.PrintJob {
	return &domain.PrintJob{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ModelID:   modelID,
		Name:      "benchy run",
		Status:    domain.JobStatusQueued,
		Priority:  domain.JobPriorityNormal,
		QueuedAt:  time.Now(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// NewTestCustomer creates a test customer with default values.
func NewTestCustomer(tenantID uuid.UUID) *domain.Customer {
	return &domain.Customer{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Email:     "buyer@example.com",
		Name:      "Test Buyer",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// NewTestOrder creates a pending test order with default values.
func NewTestOrder(tenantID, customerID uuid.UUID) *domain.Order {
	return &domain.Order{
		ID:            uuid.New(),
		TenantID:      tenantID,
		CustomerID:    customerID,
		Number:        "PF-000042",
		Status:        domain.OrderStatusPending,
		SubtotalCents: 1999,
		TotalCents:    1999,
		Currency:      "USD",
		PlacedAt:      time.Now(),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

package main

import (
	chrepo "github.com/printforge/printforge/api/internal/repository/clickhouse"
	pgrepo "github.com/printforge/printforge/api/internal/repository/postgres"
)

// Repositories holds all repository instances
type Repositories struct {
	// PostgreSQL repositories (relational data)
	Tenant   *pgrepo.TenantRepository
	User     *pgrepo.UserRepository
	APIKey   *pgrepo.APIKeyRepository
	Customer *pgrepo.CustomerRepository
	Product  *pgrepo.ProductRepository
	Model    *pgrepo.ModelRepository
	Spool    *pgrepo.SpoolRepository
	Printer  *pgrepo.PrinterRepository
	PrintJob *pgrepo.PrintJobRepository
	Order    *pgrepo.OrderRepository
	Discount *pgrepo.DiscountRepository
	Return   *pgrepo.ReturnRepository
	Review   *pgrepo.ReviewRepository
	Webhook  *pgrepo.WebhookRepository
	Audit    *pgrepo.AuditRepository

	// ClickHouse repositories (time-series data)
	Telemetry *chrepo.TelemetryRepository
}

// initRepositories initializes all repositories
func initRepositories(dbs *Databases) *Repositories {
	return &Repositories{
		// PostgreSQL repositories
		Tenant:   pgrepo.NewTenantRepository(dbs.Postgres),
		User:     pgrepo.NewUserRepository(dbs.Postgres),
		APIKey:   pgrepo.NewAPIKeyRepository(dbs.Postgres),
		Customer: pgrepo.NewCustomerRepository(dbs.Postgres),
		Product:  pgrepo.NewProductRepository(dbs.Postgres),
		Model:    pgrepo.NewModelRepository(dbs.Postgres),
		Spool:    pgrepo.NewSpoolRepository(dbs.Postgres),
		Printer:  pgrepo.NewPrinterRepository(dbs.Postgres),
		PrintJob: pgrepo.NewPrintJobRepository(dbs.Postgres),
		Order:    pgrepo.NewOrderRepository(dbs.Postgres),
		Discount: pgrepo.NewDiscountRepository(dbs.Postgres),
		Return:   pgrepo.NewReturnRepository(dbs.Postgres),
		Review:   pgrepo.NewReviewRepository(dbs.Postgres),
		Webhook:  pgrepo.NewWebhookRepository(dbs.Postgres),
		Audit:    pgrepo.NewAuditRepository(dbs.Audit),

		// ClickHouse repositories
		Telemetry: chrepo.NewTelemetryRepository(dbs.ClickHouse),
	}
}

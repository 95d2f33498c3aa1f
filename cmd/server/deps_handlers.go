package main

import (
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/handler"
)

// Handlers holds all handler instances
type Handlers struct {
	Health    *handler.HealthHandler
	Docs      *handler.DocsHandler
	Auth      *handler.AuthHandler
	Tenants   *handler.TenantsHandler
	APIKeys   *handler.APIKeysHandler
	Customers *handler.CustomersHandler
	Products  *handler.ProductsHandler
	Models    *handler.ModelsHandler
	Spools    *handler.SpoolsHandler
	Printers  *handler.PrintersHandler
	PrintJobs *handler.PrintJobsHandler
	Orders    *handler.OrdersHandler
	Discounts *handler.DiscountsHandler
	Returns   *handler.ReturnsHandler
	Reviews   *handler.ReviewsHandler
	Audit     *handler.AuditHandler
	Telemetry *handler.TelemetryHandler
	Webhooks  *handler.WebhooksHandler
	Events    *handler.EventsHandler
}

// initHandlers initializes all handlers
func initHandlers(
	logger *zap.Logger,
	svcs *Services,
	dbs *Databases,
	version string,
) *Handlers {
	return &Handlers{
		Health: handler.NewHealthHandler(
			dbs.Postgres.Pool,
			dbs.ClickHouse.Conn,
			dbs.Redis.Client,
			dbs.ObjectStore,
			version,
		),
		Docs: handler.NewDocsHandler(),
		Auth: handler.NewAuthHandler(
			svcs.Auth,
			logger,
		),
		Tenants: handler.NewTenantsHandler(
			svcs.Tenant,
			svcs.Auth,
			logger,
		),
		APIKeys: handler.NewAPIKeysHandler(
			svcs.Auth,
			logger,
		),
		Customers: handler.NewCustomersHandler(
			svcs.Customer,
			logger,
		),
		Products: handler.NewProductsHandler(
			svcs.Product,
			logger,
		),
		Models: handler.NewModelsHandler(
			svcs.Model,
			logger,
		),
		Spools: handler.NewSpoolsHandler(
			svcs.Spool,
			svcs.Auth,
			logger,
		),
		Printers: handler.NewPrintersHandler(
			svcs.Printer,
			logger,
		),
		PrintJobs: handler.NewPrintJobsHandler(
			svcs.PrintJob,
			svcs.Auth,
			dbs.AsynqClient,
			logger,
		),
		Orders: handler.NewOrdersHandler(
			svcs.Order,
			svcs.Auth,
			dbs.AsynqClient,
			logger,
		),
		Discounts: handler.NewDiscountsHandler(
			svcs.Discount,
			svcs.Auth,
			logger,
		),
		Returns: handler.NewReturnsHandler(
			svcs.Return,
			svcs.Auth,
			logger,
		),
		Reviews: handler.NewReviewsHandler(
			svcs.Review,
			svcs.Auth,
			logger,
		),
		Audit: handler.NewAuditHandler(svcs.Audit),
		Telemetry: handler.NewTelemetryHandler(
			svcs.Telemetry,
			logger,
		),
		Webhooks: handler.NewWebhooksHandler(
			svcs.Notification,
			logger,
		),
		Events: handler.NewEventsHandler(
			svcs.Realtime,
			logger,
		),
	}
}

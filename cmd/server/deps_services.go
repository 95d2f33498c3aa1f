package main

import (
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/config"
	"github.com/printforge/printforge/api/internal/service"
)

// Services holds all service instances
type Services struct {
	Auth         *service.AuthService
	Audit        *service.AuditService
	Tenant       *service.TenantService
	Customer     *service.CustomerService
	Product      *service.ProductService
	Model        *service.ModelService
	Spool        *service.SpoolService
	Printer      *service.PrinterService
	PrintJob     *service.PrintJobService
	Order        *service.OrderService
	Discount     *service.DiscountService
	Return       *service.ReturnService
	Review       *service.ReviewService
	Telemetry    *service.TelemetryService
	Realtime     *service.RealtimeService
	Notification *service.NotificationService
}

// initServices initializes all services
func initServices(cfg *config.Config, logger *zap.Logger, repos *Repositories, dbs *Databases) *Services {
	svcs := &Services{}

	// Audit service (no dependencies, everything else logs through it)
	svcs.Audit = service.NewAuditService(repos.Audit)

	// Auth service
	svcs.Auth = service.NewAuthService(
		cfg,
		repos.User,
		repos.APIKey,
		repos.Tenant,
	)
	svcs.Auth.SetAuditLogger(svcs.Audit)

	// Tenant service
	svcs.Tenant = service.NewTenantService(
		repos.Tenant,
		repos.User,
		repos.Customer,
		repos.Product,
		repos.Order,
		repos.PrintJob,
	)
	svcs.Tenant.SetAuditService(svcs.Audit)

	// Customer service
	svcs.Customer = service.NewCustomerService(repos.Customer)

	// Product service
	svcs.Product = service.NewProductService(
		repos.Product,
		repos.Tenant,
		repos.Model,
		repos.Review,
	)

	// Model service
	svcs.Model = service.NewModelService(
		repos.Model,
		repos.Product,
		dbs.ObjectStore,
	)

	// Spool service
	svcs.Spool = service.NewSpoolService(repos.Spool, repos.Tenant)
	svcs.Spool.SetAuditService(svcs.Audit)

	// Printer service
	svcs.Printer = service.NewPrinterService(
		repos.Printer,
		repos.PrintJob,
		repos.Telemetry,
	)

	// Telemetry service
	svcs.Telemetry = service.NewTelemetryService(repos.Telemetry, repos.Printer)

	// Realtime service
	svcs.Realtime = service.NewRealtimeService()

	// Notification service
	svcs.Notification = service.NewNotificationService(
		repos.Webhook,
		logger,
		cfg.Server.DashboardURL,
	)

	// Print job service
	svcs.PrintJob = service.NewPrintJobService(
		repos.PrintJob,
		repos.Model,
		repos.Printer,
		repos.Spool,
		repos.Tenant,
		repos.Telemetry,
	)
	svcs.PrintJob.SetAuditService(svcs.Audit)
	svcs.PrintJob.SetRealtimeService(svcs.Realtime)
	svcs.PrintJob.SetNotificationService(svcs.Notification)

	// Order service
	svcs.Order = service.NewOrderService(
		repos.Order,
		repos.Customer,
		repos.Product,
		repos.Discount,
		repos.Tenant,
	)
	svcs.Order.SetAuditService(svcs.Audit)
	svcs.Order.SetRealtimeService(svcs.Realtime)

	// Discount service
	svcs.Discount = service.NewDiscountService(repos.Discount)
	svcs.Discount.SetAuditService(svcs.Audit)

	// Return service
	svcs.Return = service.NewReturnService(repos.Return, repos.Order)
	svcs.Return.SetAuditService(svcs.Audit)
	svcs.Return.SetNotificationService(svcs.Notification)

	// Review service
	svcs.Review = service.NewReviewService(
		repos.Review,
		repos.Product,
		repos.Customer,
	)
	svcs.Review.SetAuditService(svcs.Audit)

	return svcs
}

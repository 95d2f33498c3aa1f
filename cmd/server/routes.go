package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/printforge/printforge/api/internal/domain"
)

// registerRoutes registers all HTTP routes
func registerRoutes(app *fiber.App, deps *Dependencies) {
	h := deps.Handlers // Shorthand for handlers

	// Health check routes (no auth required)
	h.Health.RegisterRoutes(app)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API Documentation routes (no auth required)
	h.Docs.RegisterRoutes(app)

	// Public storefront API routes (API key auth)
	public := app.Group("/api/public")
	public.Use(deps.AuthMiddleware.RequireAPIKey())
	public.Use(deps.RateLimitMiddleware.APIKeyRateLimit(600))
	{
		// Product catalog
		public.Get("/products", h.Products.ListPublicProducts)
		public.Get("/products/:productId", h.Products.GetPublicProduct)

		// Published reviews
		public.Get("/products/:productId/reviews", h.Reviews.ListPublicReviews)
		public.Get("/products/:productId/review-summary", h.Reviews.GetPublicReviewSummary)

		// Printer telemetry ingestion (secret key with ingest scope)
		public.Post("/telemetry/samples",
			deps.AuthMiddleware.RequireScope(domain.APIKeyScopeIngest),
			deps.RateLimitMiddleware.BurstRateLimit(
				deps.Config.RateLimit.Burst,
				float64(deps.Config.RateLimit.RequestsPerSecond),
			),
			h.Telemetry.IngestSamples,
		)
	}

	// Auth routes (no auth required)
	auth := app.Group("/api/auth")
	{
		auth.Post("/login", h.Auth.Login)
		auth.Post("/register", h.Auth.Register)
		auth.Post("/refresh", h.Auth.RefreshToken)
		auth.Post("/logout", h.Auth.Logout)
	}

	// Dashboard API routes (JWT auth)
	v1 := app.Group("/api/v1")
	v1.Use(deps.AuthMiddleware.RequireJWT())
	v1.Use(deps.RateLimitMiddleware.UserRateLimit(100)) // 100 requests per minute per user
	v1.Use(deps.CSRFMiddleware.Handler())
	{
		// CSRF token endpoint for SPAs
		v1.Get("/csrf-token", deps.CSRFMiddleware.GetToken())

		// Current user
		v1.Get("/me", h.Auth.GetCurrentUser)
		v1.Put("/me", h.Auth.UpdateProfile)

		// Tenants (not tenant-scoped)
		v1.Get("/tenants", h.Tenants.ListTenants)
		v1.Post("/tenants", h.Tenants.CreateTenant)
		v1.Get("/tenants/slug/:slug", h.Tenants.GetTenantBySlug)
		v1.Post("/invitations/accept", h.Tenants.AcceptInvitation)
	}

	// Tenant-scoped routes. RequireTenantAccess resolves the caller's role
	// once; RequireTenantRole gates individual writes on it.
	tenant := v1.Group("/tenants/:tenantId")
	tenant.Use(deps.AuthMiddleware.RequireTenantAccess(domain.TenantRoleViewer))

	requireStaff := deps.AuthMiddleware.RequireTenantRole(domain.TenantRoleStaff)
	requireAdmin := deps.AuthMiddleware.RequireTenantRole(domain.TenantRoleAdmin)
	requireOwner := deps.AuthMiddleware.RequireTenantRole(domain.TenantRoleOwner)
	{
		// Tenant administration
		tenant.Get("", h.Tenants.GetTenant)
		tenant.Patch("", requireAdmin, h.Tenants.UpdateTenant)
		tenant.Delete("", requireOwner, h.Tenants.DeleteTenant)
		tenant.Get("/stats", h.Tenants.GetStats)

		// Members
		tenant.Get("/members", h.Tenants.ListMembers)
		tenant.Get("/members/:userId", h.Tenants.GetMember)
		tenant.Post("/members", requireAdmin, h.Tenants.AddMember)
		tenant.Patch("/members/:userId", requireAdmin, h.Tenants.UpdateMemberRole)
		tenant.Delete("/members/:userId", requireAdmin, h.Tenants.RemoveMember)

		// Invitations
		tenant.Get("/invitations", requireAdmin, h.Tenants.ListInvitations)
		tenant.Post("/invitations", requireAdmin, h.Tenants.InviteUser)

		// Settings
		tenant.Get("/settings", h.Tenants.GetSettings)
		tenant.Put("/settings", requireAdmin, h.Tenants.UpdateSettings)

		// API keys
		tenant.Get("/api-keys", requireAdmin, h.APIKeys.ListAPIKeys)
		tenant.Post("/api-keys", requireAdmin, h.APIKeys.CreateAPIKey)
		tenant.Delete("/api-keys/:keyId", requireAdmin, h.APIKeys.DeleteAPIKey)

		// Customers
		tenant.Get("/customers", h.Customers.ListCustomers)
		tenant.Get("/customers/:customerId", h.Customers.GetCustomer)
		tenant.Post("/customers", requireStaff, h.Customers.CreateCustomer)
		tenant.Patch("/customers/:customerId", requireStaff, h.Customers.UpdateCustomer)
		tenant.Post("/customers/:customerId/archive", requireStaff, h.Customers.ArchiveCustomer)
		tenant.Delete("/customers/:customerId", requireAdmin, h.Customers.DeleteCustomer)

		// Products
		tenant.Get("/products", h.Products.ListProducts)
		tenant.Get("/products/:productId", h.Products.GetProduct)
		tenant.Post("/products", requireAdmin, h.Products.CreateProduct)
		tenant.Patch("/products/:productId", requireAdmin, h.Products.UpdateProduct)
		tenant.Post("/products/:productId/stock", requireStaff, h.Products.AdjustStock)
		tenant.Get("/products/:productId/review-summary", h.Products.GetProductReviewSummary)
		tenant.Delete("/products/:productId", requireAdmin, h.Products.DeleteProduct)

		// Models
		tenant.Get("/models", h.Models.ListModels)
		tenant.Post("/models/upload", requireAdmin, h.Models.UploadModel)
		tenant.Get("/models/:modelId", h.Models.GetModel)
		tenant.Get("/models/:modelId/download", h.Models.DownloadModel)
		tenant.Patch("/models/:modelId", requireAdmin, h.Models.UpdateModel)
		tenant.Delete("/models/:modelId", requireAdmin, h.Models.DeleteModel)

		// Spools
		tenant.Get("/spools", h.Spools.ListSpools)
		tenant.Get("/spools/:spoolId", h.Spools.GetSpool)
		tenant.Post("/spools", requireStaff, h.Spools.CreateSpool)
		tenant.Patch("/spools/:spoolId", requireStaff, h.Spools.UpdateSpool)
		tenant.Post("/spools/:spoolId/consume", requireStaff, h.Spools.ConsumeSpool)
		tenant.Delete("/spools/:spoolId", requireStaff, h.Spools.DeleteSpool)

		// Printers
		tenant.Get("/printers", h.Printers.ListPrinters)
		tenant.Get("/printers/idle", h.Printers.ListIdlePrinters)
		tenant.Get("/printers/:printerId", h.Printers.GetPrinter)
		tenant.Post("/printers", requireStaff, h.Printers.CreatePrinter)
		tenant.Patch("/printers/:printerId", requireStaff, h.Printers.UpdatePrinter)
		tenant.Post("/printers/:printerId/heartbeat", requireStaff, h.Printers.Heartbeat)
		tenant.Get("/printers/:printerId/telemetry", h.Printers.GetPrinterTelemetry)
		tenant.Delete("/printers/:printerId", requireStaff, h.Printers.DeletePrinter)

		// Print jobs
		tenant.Get("/print-jobs", h.PrintJobs.ListPrintJobs)
		tenant.Get("/print-jobs/queue", h.PrintJobs.GetQueue)
		tenant.Get("/print-jobs/:jobId", h.PrintJobs.GetPrintJob)
		tenant.Post("/print-jobs", requireStaff, h.PrintJobs.CreatePrintJob)
		tenant.Patch("/print-jobs/:jobId", requireStaff, h.PrintJobs.UpdatePrintJob)
		tenant.Post("/print-jobs/:jobId/status", requireStaff, h.PrintJobs.TransitionPrintJob)
		tenant.Post("/print-jobs/:jobId/assign", requireStaff, h.PrintJobs.AssignPrintJob)
		tenant.Post("/print-jobs/:jobId/cancel", requireStaff, h.PrintJobs.CancelPrintJob)
		tenant.Delete("/print-jobs/:jobId", requireStaff, h.PrintJobs.DeletePrintJob)

		// Orders
		tenant.Get("/orders", h.Orders.ListOrders)
		tenant.Get("/orders/number/:number", h.Orders.GetOrderByNumber)
		tenant.Get("/orders/:orderId", h.Orders.GetOrder)
		tenant.Post("/orders", requireStaff, h.Orders.PlaceOrder)
		tenant.Patch("/orders/:orderId", requireStaff, h.Orders.UpdateOrder)
		tenant.Post("/orders/:orderId/status", requireStaff, h.Orders.TransitionOrder)
		tenant.Post("/orders/:orderId/cancel", requireStaff, h.Orders.CancelOrder)

		// Discounts
		tenant.Get("/discounts", h.Discounts.ListDiscounts)
		tenant.Post("/discounts/validate", requireStaff, h.Discounts.ValidateDiscount)
		tenant.Get("/discounts/:discountId", h.Discounts.GetDiscount)
		tenant.Post("/discounts", requireAdmin, h.Discounts.CreateDiscount)
		tenant.Patch("/discounts/:discountId", requireAdmin, h.Discounts.UpdateDiscount)
		tenant.Delete("/discounts/:discountId", requireAdmin, h.Discounts.DeleteDiscount)

		// Returns
		tenant.Get("/returns", h.Returns.ListReturns)
		tenant.Get("/returns/:returnId", h.Returns.GetReturn)
		tenant.Post("/returns", requireStaff, h.Returns.OpenReturn)
		tenant.Post("/returns/:returnId/approve", requireStaff, h.Returns.ApproveReturn)
		tenant.Post("/returns/:returnId/reject", requireStaff, h.Returns.RejectReturn)
		tenant.Post("/returns/:returnId/receive", requireStaff, h.Returns.ReceiveReturn)
		tenant.Post("/returns/:returnId/refund", requireStaff, h.Returns.RefundReturn)

		// Reviews
		tenant.Get("/reviews", h.Reviews.ListReviews)
		tenant.Get("/reviews/:reviewId", h.Reviews.GetReview)
		tenant.Post("/reviews", requireStaff, h.Reviews.SubmitReview)
		tenant.Patch("/reviews/:reviewId", requireStaff, h.Reviews.UpdateReview)
		tenant.Post("/reviews/:reviewId/publish", requireStaff, h.Reviews.PublishReview)
		tenant.Post("/reviews/:reviewId/reject", requireStaff, h.Reviews.RejectReview)
		tenant.Delete("/reviews/:reviewId", requireAdmin, h.Reviews.DeleteReview)

		// Audit logs
		tenant.Get("/audit-logs", requireAdmin, h.Audit.ListAuditLogs)
		tenant.Get("/audit-logs/summary", requireAdmin, h.Audit.GetAuditSummary)
		tenant.Get("/audit-logs/security", requireAdmin, h.Audit.GetSecurityEvents)
		tenant.Get("/audit-logs/timeline", requireAdmin, h.Audit.GetActivityTimeline)
		tenant.Get("/audit-logs/:logId", requireAdmin, h.Audit.GetAuditLog)

		// Telemetry queries
		tenant.Get("/telemetry/samples", h.Telemetry.ListSamples)
		tenant.Get("/telemetry/usage", h.Telemetry.GetUsageStats)
		tenant.Get("/telemetry/jobs/:jobId/timeline", h.Telemetry.GetJobTimeline)

		// Webhooks
		tenant.Get("/webhooks", requireAdmin, h.Webhooks.ListWebhooks)
		tenant.Get("/webhooks/:webhookId", requireAdmin, h.Webhooks.GetWebhook)
		tenant.Post("/webhooks", requireAdmin, h.Webhooks.CreateWebhook)
		tenant.Patch("/webhooks/:webhookId", requireAdmin, h.Webhooks.UpdateWebhook)
		tenant.Delete("/webhooks/:webhookId", requireAdmin, h.Webhooks.DeleteWebhook)
		tenant.Post("/webhooks/:webhookId/test", requireAdmin, h.Webhooks.TestWebhook)
		tenant.Get("/webhooks/:webhookId/deliveries", requireAdmin, h.Webhooks.ListWebhookDeliveries)

		// Real-time events (SSE)
		tenant.Get("/events/stream", h.Events.StreamEvents)
		tenant.Get("/events/subscribers", requireAdmin, h.Events.GetSubscribers)
	}
}

// Package handler contains HTTP request handlers for PrintForge.
//
// Handlers are the entry point for HTTP requests, responsible for:
//   - Request parsing and validation
//   - Authentication context extraction
//   - Calling appropriate services
//   - Response formatting
//   - Error response mapping
//
// # Route Organization
//
// Routes are organized by resource:
//   - /api/public/* - Public storefront API routes (API key authentication)
//   - /api/v1/* - Dashboard API routes (JWT authentication)
//   - /api/auth/* - Authentication routes (no auth required)
//
// Tenant-scoped resources live under /api/v1/tenants/:tenantId and
// require a verified membership in that tenant.
//
// # Error Handling
//
// Handlers convert domain errors to appropriate HTTP status codes
// using the apperrors package for consistent error responses. Invalid
// state transitions (print jobs, orders, returns) map to 422.
//
// # Thread Safety
//
// All handlers are safe for concurrent use.
package handler

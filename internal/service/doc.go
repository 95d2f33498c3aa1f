// Package service contains the business logic layer for PrintForge.
//
// Services coordinate between handlers and repositories, implementing
// domain rules and orchestrating operations across multiple repositories.
//
// Services depend on repository interfaces defined in this package,
// following the dependency inversion principle. Each service handles a
// specific domain area (products, print jobs, orders, telemetry, etc.).
//
// # Architecture
//
// The service layer sits between:
//   - HTTP handlers (presentation layer)
//   - Repository implementations (data access layer)
//
// Services are responsible for:
//   - Input validation and business rules
//   - Status transition enforcement (print jobs, orders, returns)
//   - Orchestrating multiple repository calls
//   - Stock movements and audit trail recording
//   - Realtime event publishing
//
// # Thread Safety
//
// All services are designed to be safe for concurrent use from
// multiple goroutines.
package service

// Package repository contains data access implementations for PrintForge.
//
// Repositories provide persistence operations for domain entities,
// abstracting the underlying data stores (PostgreSQL, ClickHouse).
//
// # Architecture
//
// Repository interfaces are defined at the service layer (consumer-defined
// interfaces); this package contains the concrete implementations.
//
// # Data Stores
//
// The system uses multiple specialized data stores:
//   - PostgreSQL: Transactional data (tenants, products, orders, print jobs)
//   - ClickHouse: Printer telemetry samples and job event timelines
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use.
// Connection pools are managed at the database layer.
package repository

// Package domain contains the core business entities and types for PrintForge.
//
// This package defines:
//   - Entity types (Customer, Order, Spool, PrintJob, etc.)
//   - Value objects and enums
//   - Input/output types for service operations
//   - Domain-level validation rules
//
// # Design Philosophy
//
// Domain types are persistence-agnostic and represent the core
// business concepts independent of how they are stored or transmitted.
//
// # Key Entities
//
//   - Tenant: A print shop account, the root of all scoping
//   - Customer: A buyer belonging to a tenant
//   - Product: A sellable catalog item
//   - Model: A printable 3D asset stored in object storage
//   - Spool: A filament spool tracked in inventory
//   - PrintJob: A queued unit of printing work with a status lifecycle
//   - Order: A customer order with line items and money totals
//
// # Naming Conventions
//
// Types ending in "Input" are used for create/update operations.
// Types ending in "Filter" are used for query operations.
package domain

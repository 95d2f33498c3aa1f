// Package id formats human-facing identifiers for PrintForge.
//
// Order numbers combine the tenant's configured prefix with a
// zero-padded per-tenant sequence (for example "PF-000042"). They are
// printed on invoices and packing slips, so they stay short, uppercase
// and strictly increasing within a shop.
package id

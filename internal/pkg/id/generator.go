package id

import (
	"fmt"
	"strings"
)

// NewOrderNumber formats an order number from a tenant prefix and a
// per-tenant sequence value, e.g. "PF-000042". Order numbers are shown
// on invoices and packing slips, so they stay short and uppercase.
func NewOrderNumber(prefix string, seq int64) string {
	if prefix == "" {
		prefix = "ORD"
	}
	return fmt.Sprintf("%s-%06d", strings.ToUpper(prefix), seq)
}

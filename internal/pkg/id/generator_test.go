package id

import (
	"testing"
)

// BenchmarkNewOrderNumber benchmarks order number formatting
func BenchmarkNewOrderNumber(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = NewOrderNumber("PF", int64(i))
	}
}

func TestNewOrderNumber(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		seq      int64
		expected string
	}{
		{"standard prefix", "PF", 42, "PF-000042"},
		{"lowercase prefix is uppercased", "acme", 1, "ACME-000001"},
		{"empty prefix falls back", "", 7, "ORD-000007"},
		{"sequence wider than padding", "PF", 1234567, "PF-1234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewOrderNumber(tt.prefix, tt.seq); got != tt.expected {
				t.Errorf("NewOrderNumber(%q, %d) = %q, want %q", tt.prefix, tt.seq, got, tt.expected)
			}
		})
	}
}

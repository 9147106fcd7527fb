package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDDCRange(t *testing.T) {
	tests := []struct {
		name      string
		lo, hi    uint32
		percent   int
		raw       uint32
		readsBack int
	}{
		{"plain", 0, 100, 40, 40, 40},
		{"offset range", 20, 80, 50, 50, 50},
		{"bottom", 20, 80, 0, 20, 0},
		{"top", 20, 80, 100, 80, 100},
		{"clamped", 0, 100, 150, 100, 100},
		{"empty range", 50, 50, 30, 30, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := ddcRaw(tt.lo, tt.hi, tt.percent)
			assert.Equal(t, tt.raw, raw)
			assert.Equal(t, tt.readsBack, ddcPercent(tt.lo, raw, tt.hi))
		})
	}
}

func TestDDCPercent_BelowMinimum(t *testing.T) {
	assert.Equal(t, 0, ddcPercent(20, 5, 80))
	assert.Equal(t, 100, ddcPercent(20, 90, 80))
}

package handler

import "testing"

func TestComputeTariff(t *testing.T) {
	tests := []struct {
		name         string
		unitCents    int64
		units        int
		taxPct       int
		wantSubtotal int64
		wantTax      int64
		wantTotal    int64
	}{
		{"three nights standard rate", 100000, 3, 19, 300000, 57000, 357000},
		{"single night", 100000, 1, 19, 100000, 19000, 119000},
		{"zero tax", 100000, 2, 0, 200000, 0, 200000},
		{"fractional tax below half rounds down", 333, 1, 19, 333, 63, 396}, // 63.27 -> 63
		{"fractional tax at half rounds up", 50, 1, 19, 50, 10, 60},         // 9.50 -> 10
		{"fractional tax above half rounds up", 47, 1, 19, 47, 9, 56},       // 8.93 -> 9
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, tax, total := computeTariff(tt.unitCents, tt.units, tt.taxPct)
			if sub != tt.wantSubtotal || tax != tt.wantTax || total != tt.wantTotal {
				t.Errorf("computeTariff(%d, %d, %d) = (%d, %d, %d), want (%d, %d, %d)",
					tt.unitCents, tt.units, tt.taxPct, sub, tax, total,
					tt.wantSubtotal, tt.wantTax, tt.wantTotal)
			}
		})
	}
}

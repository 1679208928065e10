package formulas

import (
	"testing"
)

func TestPctChange(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		expected float64
	}{
		{
			name:     "normal increase",
			current:  125,
			previous: 100,
			expected: 25,
		},
		{
			name:     "normal decrease",
			current:  75,
			previous: 100,
			expected: -25,
		},
		{
			name:     "both zero",
			current:  0,
			previous: 0,
			expected: 0,
		},
		{
			name:     "new baseline",
			current:  500,
			previous: 0,
			expected: PctChangeNewBaseline,
		},
		{
			name:     "dropped to zero",
			current:  0,
			previous: 200,
			expected: -100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PctChange(tt.current, tt.previous)
			if result != tt.expected {
				t.Errorf("Expected %.2f, got %.2f", tt.expected, result)
			}
		})
	}
}

func TestSafeRatio(t *testing.T) {
	if got := SafeRatio(30000, 10000); got != 3.0 {
		t.Errorf("Expected 3.0, got %.2f", got)
	}

	// Zero denominator returns 0, never NaN or panic
	if got := SafeRatio(30000, 0); got != 0 {
		t.Errorf("Expected 0 for zero denominator, got %.2f", got)
	}

	if got := SafeRatio(0, 0); got != 0 {
		t.Errorf("Expected 0 for 0/0, got %.2f", got)
	}
}

func TestCorrelation(t *testing.T) {
	// Perfectly correlated series
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{10, 20, 30, 40, 50}
	if got := Correlation(x, y); got < 0.999 {
		t.Errorf("Expected correlation ~1.0, got %.4f", got)
	}

	// Inverse series
	z := []float64{50, 40, 30, 20, 10}
	if got := Correlation(x, z); got > -0.999 {
		t.Errorf("Expected correlation ~-1.0, got %.4f", got)
	}

	// Mismatched lengths return 0
	if got := Correlation(x, []float64{1, 2}); got != 0 {
		t.Errorf("Expected 0 for mismatched lengths, got %.4f", got)
	}

	// Constant series has no defined correlation
	if got := Correlation(x, []float64{7, 7, 7, 7, 7}); got != 0 {
		t.Errorf("Expected 0 for constant series, got %.4f", got)
	}
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7}
	sma := SMA(values, 3)
	if len(sma) != len(values) {
		t.Fatalf("Expected same-length output, got %d", len(sma))
	}
	// Third entry is the first full window: (1+2+3)/3
	if sma[2] != 2 {
		t.Errorf("Expected 2, got %.2f", sma[2])
	}
	if sma[6] != 6 {
		t.Errorf("Expected 6, got %.2f", sma[6])
	}

	// Series shorter than window
	if got := SMA([]float64{1, 2}, 3); got != nil {
		t.Errorf("Expected nil for short series, got %v", got)
	}
}

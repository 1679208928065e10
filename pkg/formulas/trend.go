package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA returns the simple moving average of values with the given window.
// The returned slice has the same length as the input; the first window-1
// entries are 0 (insufficient history, talib convention). Returns nil when
// the series is shorter than the window.
func SMA(values []float64, window int) []float64 {
	if window <= 0 || len(values) < window {
		return nil
	}
	return talib.Sma(values, window)
}

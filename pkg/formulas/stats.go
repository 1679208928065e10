package formulas

import (
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Correlation calculates the Pearson correlation coefficient between two
// equal-length daily series. Returns 0 when either series is empty, the
// lengths differ, or fewer than 3 points are available.
func Correlation(x, y []float64) float64 {
	if len(x) < 3 || len(x) != len(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if isNaN(r) {
		// Constant series (zero variance) have no defined correlation.
		return 0
	}
	return r
}

func isNaN(f float64) bool {
	return f != f
}

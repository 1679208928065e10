package formulas

// PctChangeNewBaseline is the sentinel percentage reported when a metric had
// no previous-period baseline (previous = 0) but is nonzero now. The value is
// capped so it stays displayable; callers treat it as "new", not as a real
// rate of change.
const PctChangeNewBaseline = 100.0

// PctChange returns the percentage change from previous to current.
//
// Zero-denominator policy:
//   - previous = 0 and current = 0  -> 0
//   - previous = 0 and current != 0 -> PctChangeNewBaseline
func PctChange(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return PctChangeNewBaseline
	}
	return (current - previous) / previous * 100
}

// SafeRatio divides numerator by denominator, returning 0 when the
// denominator is 0. Used for MER, NCAC, ROAS and similar efficiency ratios
// where a zero denominator means "no signal", never an error.
func SafeRatio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

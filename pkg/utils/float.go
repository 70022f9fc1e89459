package utils

// AverageFloat64 returns the arithmetic mean of values, or 0 for an empty
// slice.
func AverageFloat64(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

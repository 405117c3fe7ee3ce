package rollblock

import "gonum.org/v1/gonum/stat"

// RollingBlock returns the rolling block average of y using a window of
// block samples. The window advances one sample per output value, so
//
//	average[k] = mean(y[k .. k+block-1])  for k in [0, len(y)-block)
//
// and the result has len(y)-block entries. A block smaller than 1 or not
// smaller than len(y) yields an empty, non-nil slice.
func RollingBlock(block int, y []float64) []float64 {
	n := len(y) - block
	if block < 1 || n <= 0 {
		return []float64{}
	}

	average := make([]float64, n)
	for k := range average {
		// Each window is averaged independently, no running sum.
		average[k] = stat.Mean(y[k:k+block], nil)
	}
	return average
}

// TrimToAverage returns a copy of x without its trailing block samples, so
// that it aligns by index with the output of RollingBlock. The caller's
// slice is never modified.
func TrimToAverage(x []float64, block int) []float64 {
	if block < 0 {
		block = 0
	}
	n := len(x) - block
	if n < 0 {
		n = 0
	}
	trimmed := make([]float64, n)
	copy(trimmed, x[:n])
	return trimmed
}

// Package distance provides the distance metrics of the pattern matching engine.
//
// All metrics operate on raw byte vectors as produced by the feature
// extraction pipeline.
//
// # Supported Metrics
//
//   - MetricL1: Manhattan distance (sum of absolute differences)
//   - MetricLSup: Chebyshev distance over 8-bit wrapped differences
//   - MetricDTW: Dynamic time warping over multi-channel frame sequences
//
// # Usage
//
//	d := distance.L1(a, b)
//	m := distance.LSup(a, b, nil)
//
//	w, _ := distance.NewDTW(64)
//	wd, err := w.Distance(x, y, 3) // three channels per frame
package distance

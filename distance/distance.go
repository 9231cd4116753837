// Package distance provides the byte-vector distance metrics used by the
// pattern matching engine.
package distance

import (
	"fmt"
	"strings"
)

// L1 calculates the Manhattan distance between two byte vectors.
// Assumes vectors are the same length (caller's responsibility).
func L1(a, b []byte) uint32 {
	var sum uint32
	for i := range a {
		if a[i] > b[i] {
			sum += uint32(a[i] - b[i])
		} else {
			sum += uint32(b[i] - a[i])
		}
	}
	return sum
}

// LSup calculates the Chebyshev ("LSUP") distance between two byte vectors.
//
// The per-element difference is a[i]-b[i] taken modulo 256: it wraps instead
// of saturating and no absolute value is applied, so LSup is not symmetric.
// If diff is non-nil it receives the full difference array and must be at
// least len(a) long.
func LSup(a, b, diff []byte) uint32 {
	var m byte
	for i := range a {
		d := a[i] - b[i]
		if diff != nil {
			diff[i] = d
		}
		if d > m {
			m = d
		}
	}
	return uint32(m)
}

// Metric represents the distance metric used for pattern comparison.
type Metric int

const (
	MetricL1 Metric = iota
	MetricLSup
	MetricDTW
)

func (m Metric) String() string {
	switch m {
	case MetricL1:
		return "L1"
	case MetricLSup:
		return "LSUP"
	case MetricDTW:
		return "DTW"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	switch m {
	case MetricL1, MetricLSup, MetricDTW:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("unknown metric: %d", m)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler. Names are case-insensitive.
func (m *Metric) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "L1":
		*m = MetricL1
	case "LSUP":
		*m = MetricLSup
	case "DTW":
		*m = MetricDTW
	default:
		return fmt.Errorf("unknown metric: %q", text)
	}
	return nil
}

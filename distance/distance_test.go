package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL1(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []byte
		expected uint32
	}{
		{"Simple", []byte{1, 2, 3}, []byte{4, 5, 6}, 9},
		{"Identical", []byte{7, 8, 9}, []byte{7, 8, 9}, 0},
		{"Mixed", []byte{10, 0, 255}, []byte{0, 10, 0}, 275},
		{"Empty", []byte{}, []byte{}, 0},
		{"Single", []byte{20}, []byte{21}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, L1(tt.a, tt.b))
			assert.Equal(t, tt.expected, L1(tt.b, tt.a), "L1 must be symmetric")
		})
	}
}

func TestL1_ZeroIffEqual(t *testing.T) {
	a := []byte{0, 1, 2, 3, 250}
	for i := range a {
		b := append([]byte(nil), a...)
		b[i]++
		assert.NotZero(t, L1(a, b))
	}
	assert.Zero(t, L1(a, append([]byte(nil), a...)))
}

func TestLSup(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []byte
		expected uint32
	}{
		{"Simple", []byte{5, 9, 3}, []byte{1, 2, 3}, 7},
		{"Identical", []byte{7, 8, 9}, []byte{7, 8, 9}, 0},
		{"Wraps", []byte{1}, []byte{2}, 255},
		{"WrapsLarge", []byte{0, 100}, []byte{200, 50}, 56},
		{"Empty", []byte{}, []byte{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LSup(tt.a, tt.b, nil))
		})
	}
}

func TestLSup_Diff(t *testing.T) {
	a := []byte{10, 0, 3}
	b := []byte{4, 1, 3}
	diff := make([]byte, 3)

	got := LSup(a, b, diff)
	assert.Equal(t, uint32(255), got)
	assert.Equal(t, []byte{6, 255, 0}, diff)
}

func TestLSup_MatchesModuloFormula(t *testing.T) {
	a := []byte{0, 17, 128, 255, 3}
	b := []byte{255, 16, 0, 255, 200}
	var want uint32
	for i := range a {
		d := uint32((int(a[i]) - int(b[i]) + 256) % 256)
		if d > want {
			want = d
		}
	}
	assert.Equal(t, want, LSup(a, b, nil))
}

func TestMetric(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "L1", MetricL1.String())
		assert.Equal(t, "LSUP", MetricLSup.String())
		assert.Equal(t, "DTW", MetricDTW.String())
		assert.Equal(t, "Unknown(99)", Metric(99).String())
	})

	t.Run("Text", func(t *testing.T) {
		for _, m := range []Metric{MetricL1, MetricLSup, MetricDTW} {
			b, err := m.MarshalText()
			require.NoError(t, err)

			var got Metric
			require.NoError(t, got.UnmarshalText(b))
			assert.Equal(t, m, got)
		}

		var m Metric
		require.NoError(t, m.UnmarshalText([]byte("lsup")))
		assert.Equal(t, MetricLSup, m)

		assert.Error(t, m.UnmarshalText([]byte("cosine")))

		_, err := Metric(42).MarshalText()
		assert.Error(t, err)
	})
}

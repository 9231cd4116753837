package distance

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDTW_Regression(t *testing.T) {
	pattern1 := []byte{0, 0, 0, 0, 0, 0}
	pattern2 := []byte{0, 10, 0, 20, 0, 30}

	w, err := NewDTW(16)
	require.NoError(t, err)

	t.Run("OneChannel", func(t *testing.T) {
		d, err := w.Distance(pattern1, pattern2, 1)
		require.NoError(t, err)
		assert.Equal(t, uint32(1400), d)
	})

	t.Run("TwoChannels", func(t *testing.T) {
		d, err := w.Distance(pattern1, pattern2, 2)
		require.NoError(t, err)
		assert.Equal(t, uint32(1400), d)
	})
}

func TestDTW_Identical(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	w, err := NewDTW(32)
	require.NoError(t, err)

	for _, channels := range []int{1, 2, 3, 4} {
		for frames := 1; frames <= 32; frames += 5 {
			x := make([]byte, frames*channels)
			rng.Read(x)
			d, err := w.Distance(x, x, channels)
			require.NoError(t, err)
			assert.Zero(t, d, "channels=%d frames=%d", channels, frames)
		}
	}
}

func TestDTW_DifferentLengths(t *testing.T) {
	w, err := NewDTW(8)
	require.NoError(t, err)

	// y stretches x; every frame of y matches some frame of x.
	x := []byte{1, 5, 9}
	y := []byte{1, 1, 5, 5, 9, 9}
	d, err := w.Distance(x, y, 1)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestDTW_Saturates(t *testing.T) {
	w, err := NewDTW(8)
	require.NoError(t, err)

	x := make([]byte, 8)
	y := []byte{255, 255, 255, 255, 255, 255, 255, 255}
	d, err := w.Distance(x, y, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(MaxWarpingDistance), d)
}

func TestDTW_Errors(t *testing.T) {
	w, err := NewDTW(4)
	require.NoError(t, err)

	t.Run("TooLong", func(t *testing.T) {
		_, err := w.Distance(make([]byte, 5), make([]byte, 5), 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSequenceTooLong)

		var se *SequenceError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 5, se.Length)
		assert.Equal(t, 4, se.Limit)
	})

	t.Run("ChannelMismatch", func(t *testing.T) {
		_, err := w.Distance(make([]byte, 5), make([]byte, 6), 2)
		assert.ErrorIs(t, err, ErrChannelMismatch)
	})

	t.Run("FitsWithChannels", func(t *testing.T) {
		// 8 bytes at 2 channels is 4 frames.
		_, err := w.Distance(make([]byte, 8), make([]byte, 8), 2)
		assert.NoError(t, err)
	})

	t.Run("InvalidWorkspace", func(t *testing.T) {
		_, err := NewDTW(0)
		assert.Error(t, err)
	})
}

func TestStep(t *testing.T) {
	tests := []struct {
		name              string
		top, diag, bottom uint64
		expected          stepKind
	}{
		{"TopStrictlySmallest", 1, 2, 3, stepTop},
		{"TopTiesDiag", 1, 1, 3, stepDiag},
		{"TopTiesBottom", 1, 2, 1, stepBottom},
		{"DiagTiesBottom", 5, 2, 2, stepDiag},
		{"BottomSmallest", 5, 4, 3, stepBottom},
		{"AllEqual", 0, 0, 0, stepDiag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, step(tt.top, tt.diag, tt.bottom))
		})
	}
}

package distance

import (
	"errors"
	"fmt"
)

// MaxWarpingDistance is the saturation value of DTW.Distance.
const MaxWarpingDistance = 65535

var (
	// ErrSequenceTooLong is returned when a sequence exceeds the workspace capacity.
	ErrSequenceTooLong = errors.New("sequence exceeds DTW workspace")
	// ErrChannelMismatch is returned when a byte length is not a multiple of the channel count.
	ErrChannelMismatch = errors.New("sequence length not divisible by channels")
)

// SequenceError describes a sequence rejected by DTW.Distance.
type SequenceError struct {
	Length   int // frames (or bytes when not divisible by channels)
	Limit    int
	Channels int
	cause    error
}

func (e *SequenceError) Error() string {
	if e.Limit == 0 {
		return fmt.Sprintf("invalid sequence: %d bytes not divisible into %d channels", e.Length, e.Channels)
	}
	return fmt.Sprintf("sequence of %d frames exceeds limit %d", e.Length, e.Limit)
}

func (e *SequenceError) Unwrap() error { return e.cause }

// DTW is a dynamic time warping workspace.
//
// The cost and accumulation matrices are allocated once for maxLen x maxLen
// frames and reused by every call. A DTW is not safe for concurrent use.
type DTW struct {
	maxLen int
	cost   []uint32
	glob   []uint64
}

// NewDTW creates a workspace for sequences of up to maxLen frames.
func NewDTW(maxLen int) (*DTW, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("dtw: invalid max length %d", maxLen)
	}
	return &DTW{
		maxLen: maxLen,
		cost:   make([]uint32, maxLen*maxLen),
		glob:   make([]uint64, maxLen*maxLen),
	}, nil
}

// Distance returns the warping distance between x and y, each a sequence of
// frames of channels bytes.
//
// The returned value is the sum of the frame costs along the backtracked
// warping path, starting with the cost of the final cell, saturated at
// MaxWarpingDistance.
func (w *DTW) Distance(x, y []byte, channels int) (uint32, error) {
	if channels <= 0 {
		channels = 1
	}
	if len(x)%channels != 0 {
		return 0, &SequenceError{Length: len(x), Channels: channels, cause: ErrChannelMismatch}
	}
	if len(y)%channels != 0 {
		return 0, &SequenceError{Length: len(y), Channels: channels, cause: ErrChannelMismatch}
	}
	xn, yn := len(x)/channels, len(y)/channels
	if xn > w.maxLen {
		return 0, &SequenceError{Length: xn, Limit: w.maxLen, Channels: channels, cause: ErrSequenceTooLong}
	}
	if yn > w.maxLen {
		return 0, &SequenceError{Length: yn, Limit: w.maxLen, Channels: channels, cause: ErrSequenceTooLong}
	}
	if xn == 0 || yn == 0 {
		return 0, nil
	}

	// Row stride is yn so both matrices stay dense for small inputs.
	cost := w.cost[:xn*yn]
	glob := w.glob[:xn*yn]

	for i := 0; i < xn; i++ {
		xf := x[i*channels : (i+1)*channels]
		for j := 0; j < yn; j++ {
			yf := y[j*channels : (j+1)*channels]
			var c uint32
			for k := range xf {
				d := int32(xf[k]) - int32(yf[k])
				c += uint32(d * d)
			}
			cost[i*yn+j] = c
		}
	}

	glob[0] = uint64(cost[0])
	for i := 1; i < xn; i++ {
		glob[i*yn] = glob[(i-1)*yn] + uint64(cost[i*yn])
	}
	for j := 1; j < yn; j++ {
		glob[j] = glob[j-1] + uint64(cost[j])
	}
	for i := 1; i < xn; i++ {
		for j := 1; j < yn; j++ {
			top := glob[(i-1)*yn+j]
			diag := glob[(i-1)*yn+j-1]
			bottom := glob[i*yn+j-1]
			var best uint64
			switch step(top, diag, bottom) {
			case stepTop:
				best = top
			case stepDiag:
				best = diag
			default:
				best = bottom
			}
			glob[i*yn+j] = uint64(cost[i*yn+j]) + best
		}
	}

	i, j := xn-1, yn-1
	acc := uint64(cost[i*yn+j])
	for i > 0 || j > 0 {
		switch {
		case i == 0:
			j--
		case j == 0:
			i--
		default:
			switch step(glob[(i-1)*yn+j], glob[(i-1)*yn+j-1], glob[i*yn+j-1]) {
			case stepTop:
				i--
			case stepDiag:
				i--
				j--
			default:
				j--
			}
		}
		acc += uint64(cost[i*yn+j])
	}

	if acc > MaxWarpingDistance {
		return MaxWarpingDistance, nil
	}
	return uint32(acc), nil
}

type stepKind uint8

const (
	stepTop stepKind = iota
	stepDiag
	stepBottom
)

// step applies the alignment tie-break: top only when strictly smaller than
// both neighbours, then diagonal when not larger than bottom.
func step(top, diag, bottom uint64) stepKind {
	if top < diag && top < bottom {
		return stepTop
	}
	if diag <= bottom {
		return stepDiag
	}
	return stepBottom
}

package vectorstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pme/internal/arena"
)

var (
	// ErrWrongDimension is returned when a vector doesn't match the store dimension.
	ErrWrongDimension = errors.New("wrong vector dimension")
	// ErrFull is returned when the store already holds capacity patterns.
	ErrFull = errors.New("pattern store is full")
	// ErrOutOfRange is returned for pattern indices or classes outside the store.
	ErrOutOfRange = errors.New("index out of range")
)

// Store is a fixed-capacity columnar pattern store.
type Store struct {
	dim      int
	capacity int
	classes  int
	count    int

	data       []byte
	categories []uint16
	influences []uint32

	errs []int32
	hist []uint32

	acquirer arena.MemoryAcquirer
	acquired int64
}

// New creates a store for capacity patterns of dim bytes over classes categories.
func New(dim, capacity, classes int, acquirer arena.MemoryAcquirer) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vectorstore: invalid dimension %d", dim)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("vectorstore: invalid capacity %d", capacity)
	}
	if classes <= 0 {
		return nil, fmt.Errorf("vectorstore: invalid class count %d", classes)
	}

	s := &Store{
		dim:      dim,
		capacity: capacity,
		classes:  classes,
		acquirer: acquirer,
	}
	if err := s.acquire(int64(capacity) * int64(dim+2+4)); err != nil {
		return nil, err
	}

	s.data = make([]byte, capacity*dim)
	s.categories = make([]uint16, capacity)
	s.influences = make([]uint32, capacity)
	return s, nil
}

func (s *Store) acquire(bytes int64) error {
	if s.acquirer == nil {
		return nil
	}
	if err := s.acquirer.AcquireMemory(bytes); err != nil {
		return err
	}
	s.acquired += bytes
	return nil
}

// Release returns the store's memory to its acquirer.
func (s *Store) Release() {
	if s.acquirer != nil && s.acquired > 0 {
		s.acquirer.ReleaseMemory(s.acquired)
		s.acquired = 0
	}
}

// Cap returns the maximum number of patterns.
func (s *Store) Cap() int { return s.capacity }

// Len returns the number of stored patterns.
func (s *Store) Len() int { return s.count }

// Append stores a pattern and returns its index.
// The vector is copied.
func (s *Store) Append(v []byte, category uint16, influence uint32) (int, error) {
	if len(v) != s.dim {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrWrongDimension, len(v), s.dim)
	}
	if s.count >= s.capacity {
		return 0, ErrFull
	}

	i := s.count
	copy(s.data[i*s.dim:(i+1)*s.dim], v)
	s.categories[i] = category
	s.influences[i] = influence
	s.count++
	return i, nil
}

// Vector returns pattern i. The slice aliases internal memory.
func (s *Store) Vector(i int) []byte {
	return s.data[i*s.dim : (i+1)*s.dim]
}

// Category returns the category of pattern i.
func (s *Store) Category(i int) uint16 { return s.categories[i] }

// Influence returns the influence radius of pattern i.
func (s *Store) Influence(i int) uint32 { return s.influences[i] }

// SetInfluence overwrites the influence radius of pattern i.
func (s *Store) SetInfluence(i int, v uint32) { s.influences[i] = v }

// Flush drops all patterns. Pattern bytes are left in place; scores are zeroed.
func (s *Store) Flush() {
	s.count = 0
	s.clearScores()
}

// Scored reports whether scores have been created.
func (s *Store) Scored() bool { return s.errs != nil }

// RecordScore updates the learning score of pattern i for one labelled
// sample of class truth (1-based).
func (s *Store) RecordScore(i int, correct bool, truth uint16) error {
	if i < 0 || i >= s.count {
		return fmt.Errorf("%w: pattern %d of %d", ErrOutOfRange, i, s.count)
	}
	if truth == 0 || int(truth) > s.classes {
		return fmt.Errorf("%w: class %d of %d", ErrOutOfRange, truth, s.classes)
	}
	if s.errs == nil {
		if err := s.acquire(int64(s.capacity) * int64(4+4*s.classes)); err != nil {
			return err
		}
		s.errs = make([]int32, s.capacity)
		s.hist = make([]uint32, s.capacity*s.classes)
	}

	if correct {
		s.errs[i]++
	} else {
		s.errs[i]--
	}
	s.hist[i*s.classes+int(truth)-1]++
	return nil
}

// Error returns the error counter of pattern i (0 before any scoring).
func (s *Store) Error(i int) int32 {
	if s.errs == nil {
		return 0
	}
	return s.errs[i]
}

// Histogram returns a copy of the per-class hit histogram of pattern i.
func (s *Store) Histogram(i int) []uint32 {
	out := make([]uint32, s.classes)
	if s.hist != nil {
		copy(out, s.hist[i*s.classes:(i+1)*s.classes])
	}
	return out
}

// Rebalance reassigns every pattern with a negative error counter to the
// class with the most recorded hits (lowest class on ties, class 1 when the
// histogram is empty), then zeroes all scores. It returns the number of
// reassigned patterns.
func (s *Store) Rebalance() int {
	if s.errs == nil {
		return 0
	}

	n := 0
	for i := 0; i < s.count; i++ {
		if s.errs[i] >= 0 {
			continue
		}
		h := s.hist[i*s.classes : (i+1)*s.classes]
		best := 0
		for c := 1; c < len(h); c++ {
			if h[c] > h[best] {
				best = c
			}
		}
		s.categories[i] = uint16(best + 1)
		n++
	}

	s.clearScores()
	return n
}

func (s *Store) clearScores() {
	clear(s.errs)
	clear(s.hist)
}

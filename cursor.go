package pme

import "github.com/hupe1980/pme/internal/searcher"

// Cursor walks a ranked result list.
//
// A Cursor keeps its position between calls: RBF retrieval stops after k
// hits and the next call continues from there. It becomes stale, returning
// ErrStaleCursor, once the same classifier submits or flushes again. Cursors
// of different classifiers are independent.
type Cursor struct {
	e    *Engine
	mode Mode
	c    *searcher.Cursor
}

// Next retrieves up to k neighbors with the classifier's own strategy.
func (c *Cursor) Next(k int) ([]Neighbor, error) {
	s := StrategyRBF
	if c.mode == ModeKNN {
		s = StrategyKNN
	}
	return c.Retrieve(s, k)
}

// Retrieve retrieves up to k neighbors with strategy s.
func (c *Cursor) Retrieve(s Strategy, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	c.e.mu.Lock()
	defer c.e.mu.Unlock()

	if c.e.closed {
		return nil, ErrClosed
	}
	return c.c.Retrieve(s, k)
}

// Rewind moves the cursor back to the nearest result.
func (c *Cursor) Rewind() error {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()

	return c.c.Rewind()
}

// Remaining returns the number of results not yet visited.
func (c *Cursor) Remaining() int {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()

	return c.c.Remaining()
}

package searcher

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pme/internal/arena"
)

var (
	// ErrStaleCursor is returned when the underlying list was rebuilt.
	ErrStaleCursor = errors.New("searcher: cursor is stale")
	// ErrUnimplemented is returned by reserved strategies.
	ErrUnimplemented = errors.New("searcher: strategy not implemented")
)

// Neighbor is one retrieved result.
type Neighbor struct {
	PatternID int32
	Category  uint16
	Distance  uint32
	Influence uint32
}

// Hit reports whether the neighbor lies inside its influence field.
func (n Neighbor) Hit() bool { return n.Distance < n.Influence }

// Cursor is a resumable position in a region's list.
//
// Cursor is NOT thread-safe.
type Cursor struct {
	region  *arena.Region
	gen     uint32
	pos     int32
	visited int
}

// NewCursor returns a cursor at the head of the region's current list.
func NewCursor(region *arena.Region) *Cursor {
	c := &Cursor{region: region}
	c.reset()
	return c
}

func (c *Cursor) reset() {
	c.gen = c.region.Generation()
	c.pos = c.region.Head()
	c.visited = 0
}

// Valid reports whether the cursor still refers to the current list.
func (c *Cursor) Valid() bool {
	return c.gen == c.region.Generation()
}

// Remaining returns the number of list entries not yet visited.
func (c *Cursor) Remaining() int {
	if !c.Valid() {
		return 0
	}
	return c.region.Len() - c.visited
}

// Rewind moves the cursor back to the head of the list.
func (c *Cursor) Rewind() error {
	if !c.Valid() {
		return ErrStaleCursor
	}
	c.pos = c.region.Head()
	c.visited = 0
	return nil
}

// Peek returns the entry under the cursor without advancing.
func (c *Cursor) Peek() (Neighbor, bool, error) {
	if !c.Valid() {
		return Neighbor{}, false, ErrStaleCursor
	}
	if c.pos == arena.Nil {
		return Neighbor{}, false, nil
	}
	return neighbor(c.region.At(c.pos)), true, nil
}

// Retrieve collects up to k neighbors with the given strategy.
func (c *Cursor) Retrieve(s Strategy, k int) ([]Neighbor, error) {
	return c.RetrieveInto(nil, s, k)
}

// RetrieveInto appends up to k neighbors to dst.
func (c *Cursor) RetrieveInto(dst []Neighbor, s Strategy, k int) ([]Neighbor, error) {
	if !c.Valid() {
		return dst, ErrStaleCursor
	}

	switch s {
	case StrategyRBF:
		return c.rbf(dst, k), nil
	case StrategyKNN:
		return c.knn(dst, k), nil
	case StrategyRBFUniqueCategory, StrategyDistanceWeighted:
		return dst, fmt.Errorf("%w: %s", ErrUnimplemented, s)
	default:
		return dst, fmt.Errorf("searcher: unknown strategy %d", s)
	}
}

func (c *Cursor) rbf(dst []Neighbor, k int) []Neighbor {
	found := 0
	for found < k && c.pos != arena.Nil {
		n := neighbor(c.region.At(c.pos))
		c.advance()
		if n.Hit() {
			dst = append(dst, n)
			found++
		}
	}
	return dst
}

func (c *Cursor) knn(dst []Neighbor, k int) []Neighbor {
	for i := 0; i < k && c.pos != arena.Nil; i++ {
		dst = append(dst, neighbor(c.region.At(c.pos)))
		c.advance()
	}
	return dst
}

// advance steps once around the ring; the walk ends after Len entries.
func (c *Cursor) advance() {
	c.visited++
	if c.visited >= c.region.Len() {
		c.pos = arena.Nil
		return
	}
	c.pos = c.region.At(c.pos).Next()
}

func neighbor(n *arena.Node) Neighbor {
	return Neighbor{
		PatternID: n.PatternID,
		Category:  n.Category,
		Distance:  n.Distance,
		Influence: n.Influence,
	}
}

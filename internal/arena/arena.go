package arena

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/hupe1980/pme/internal/conv"
)

// Nil is the null link.
const Nil int32 = -1

// MemoryAcquirer is an interface for accounting the pool's backing memory.
type MemoryAcquirer interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

var (
	// ErrExhausted is returned when a reservation does not fit the pool.
	ErrExhausted = errors.New("arena: capacity exhausted")
	// ErrRegionOverflow is returned when Allocate asks for more slots than the region holds.
	ErrRegionOverflow = errors.New("arena: region overflow")
)

// Node is one result record.
type Node struct {
	PatternID int32
	Distance  uint32
	Influence uint32
	Category  uint16
	Owner     uint16

	next int32
	prev int32
}

// Next returns the index of the following node, or Nil.
func (n *Node) Next() int32 { return n.next }

// NodeSize is the in-memory size of a Node in bytes.
const NodeSize = int64(unsafe.Sizeof(Node{}))

// Stats tracks pool usage.
type Stats struct {
	Capacity    int
	Reserved    int
	Regions     int
	Allocations uint64
}

// Pool is a fixed-capacity array of result nodes partitioned into regions.
type Pool struct {
	nodes       []Node
	reserved    int
	regions     int
	allocations uint64
	acquirer    MemoryAcquirer
	acquired    int64
}

// Option is a configuration option for Pool.
type Option func(*Pool)

// WithMemoryAcquirer sets the memory acquirer for the pool.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(p *Pool) {
		p.acquirer = acquirer
	}
}

// New creates a pool of capacity nodes.
func New(capacity int, opts ...Option) (*Pool, error) {
	if _, err := conv.IntToInt32(capacity); err != nil {
		return nil, fmt.Errorf("arena: invalid capacity: %w", err)
	}

	p := &Pool{}
	for _, opt := range opts {
		opt(p)
	}

	size := int64(capacity) * NodeSize
	if p.acquirer != nil {
		if err := p.acquirer.AcquireMemory(size); err != nil {
			return nil, err
		}
		p.acquired = size
	}

	p.nodes = make([]Node, capacity)
	for i := range p.nodes {
		p.nodes[i].next = Nil
		p.nodes[i].prev = Nil
		p.nodes[i].PatternID = Nil
	}
	return p, nil
}

// Capacity returns the total number of nodes.
func (p *Pool) Capacity() int { return len(p.nodes) }

// Stats returns a snapshot of pool usage.
func (p *Pool) Stats() Stats {
	return Stats{
		Capacity:    len(p.nodes),
		Reserved:    p.reserved,
		Regions:     p.regions,
		Allocations: p.allocations,
	}
}

// Reserve carves a region of size contiguous nodes for owner.
// Reservations are permanent for the lifetime of the pool.
func (p *Pool) Reserve(owner uint16, size int) (*Region, error) {
	if size < 0 {
		return nil, fmt.Errorf("arena: negative region size %d", size)
	}
	if p.reserved+size > len(p.nodes) {
		return nil, fmt.Errorf("%w: need %d, %d of %d free", ErrExhausted, size, len(p.nodes)-p.reserved, len(p.nodes))
	}
	r := &Region{
		pool:  p,
		owner: owner,
		base:  p.reserved,
		size:  size,
		head:  Nil,
		gen:   1,
	}
	p.reserved += size
	p.regions++
	return r, nil
}

// Free releases the pool memory back to the acquirer.
func (p *Pool) Free() {
	if p.acquirer != nil && p.acquired > 0 {
		p.acquirer.ReleaseMemory(p.acquired)
		p.acquired = 0
	}
	p.nodes = nil
}

// Region is a classifier's slice of the pool.
type Region struct {
	pool  *Pool
	owner uint16
	base  int
	size  int
	n     int
	head  int32
	gen   uint32
}

// Owner returns the owner tag written into allocated nodes.
func (r *Region) Owner() uint16 { return r.owner }

// Cap returns the number of slots in the region.
func (r *Region) Cap() int { return r.size }

// Len returns the length of the current list.
func (r *Region) Len() int { return r.n }

// Head returns the first node of the current list, or Nil.
func (r *Region) Head() int32 { return r.head }

// Generation returns the region generation.
func (r *Region) Generation() uint32 { return r.gen }

// Allocate claims the first n slots of the region and links them, in slot
// order, into a circular doubly linked list. Previous contents of the slots
// are overwritten by the caller; links and owner tags are reset here.
func (r *Region) Allocate(n int) (int32, error) {
	if n < 0 || n > r.size {
		return Nil, fmt.Errorf("%w: %d slots requested, region holds %d", ErrRegionOverflow, n, r.size)
	}
	r.gen++
	r.pool.allocations++
	r.n = n
	if n == 0 {
		r.head = Nil
		return Nil, nil
	}

	nodes := r.pool.nodes[r.base : r.base+n]
	for i := range nodes {
		nodes[i] = Node{
			PatternID: Nil,
			Owner:     r.owner,
			next:      int32(r.base + (i+1)%n),
			prev:      int32(r.base + (i+n-1)%n),
		}
	}
	r.head = int32(r.base)
	return r.head, nil
}

// Slot returns the i-th node of the region in slot order.
func (r *Region) Slot(i int) *Node {
	return &r.pool.nodes[r.base+i]
}

// At returns the node at pool index idx.
func (r *Region) At(idx int32) *Node {
	return &r.pool.nodes[idx]
}

// Sort orders the current list ascending by distance and keeps it circular
// and doubly linked.
func (r *Region) Sort() int32 {
	r.head = Sort(r.pool.nodes, r.head, Doubly|Circular)
	return r.head
}

// Invalidate drops the current list. Readers holding the old generation
// observe the change.
func (r *Region) Invalidate() {
	r.gen++
	r.n = 0
	r.head = Nil
}

package testutil

import (
	"math/rand"
	"sort"
	"sync"
)

// Neighbor is a reference search result.
type Neighbor struct {
	ID       int
	Distance uint32
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillBytes fills dst with uniform random bytes.
func (r *RNG) FillBytes(dst []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = byte(r.rand.Intn(256))
	}
}

// Vector returns a random vector of dim bytes.
func (r *RNG) Vector(dim int) []byte {
	v := make([]byte, dim)
	r.FillBytes(v)
	return v
}

// Vectors generates num random vectors sharing one backing array.
func (r *RNG) Vectors(num, dim int) [][]byte {
	data := make([]byte, num*dim)
	r.FillBytes(data)

	vectors := make([][]byte, num)
	for i := range num {
		vectors[i] = data[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return vectors
}

// Near returns a copy of center with every byte moved by at most spread,
// clamped to [0, 255].
func (r *RNG) Near(center []byte, spread int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := make([]byte, len(center))
	for i, c := range center {
		d := int(c) + r.rand.Intn(2*spread+1) - spread
		v[i] = byte(max(0, min(255, d)))
	}
	return v
}

// Categories returns num categories in [1, classes].
func (r *RNG) Categories(num, classes int) []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uint16, num)
	for i := range out {
		out[i] = uint16(r.rand.Intn(classes) + 1)
	}
	return out
}

// ExactTopK returns the k nearest vectors to query by brute force, ties
// broken by index.
func ExactTopK(query []byte, dataset [][]byte, k int, dist func(a, b []byte) uint32) []Neighbor {
	all := make([]Neighbor, len(dataset))
	for i, v := range dataset {
		all[i] = Neighbor{ID: i, Distance: dist(query, v)}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Distance < all[j].Distance
	})
	if k < len(all) {
		all = all[:k]
	}
	return all
}

package arena

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildList links nodes[0..n) in index order according to flags.
func buildList(distances []uint32, flags Flags) []Node {
	n := len(distances)
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i].PatternID = int32(i)
		nodes[i].Distance = distances[i]
		nodes[i].next = int32(i + 1)
		nodes[i].prev = int32(i - 1)
	}
	if n == 0 {
		return nodes
	}
	nodes[n-1].next = Nil
	nodes[0].prev = Nil
	if flags&Circular != 0 {
		nodes[n-1].next = 0
		nodes[0].prev = int32(n - 1)
	}
	return nodes
}

func walk(nodes []Node, head int32, circular bool) []int32 {
	var out []int32
	for i := head; i != Nil; {
		out = append(out, i)
		i = nodes[i].next
		if circular && i == head {
			break
		}
	}
	return out
}

func TestSort_Flags(t *testing.T) {
	distances := []uint32{5, 3, 9, 3, 1, 7, 5, 0}

	for _, flags := range []Flags{0, Doubly, Circular, Doubly | Circular} {
		nodes := buildList(distances, flags)
		head := Sort(nodes, 0, flags)

		order := walk(nodes, head, flags&Circular != 0)
		require.Len(t, order, len(distances))

		for i := 1; i < len(order); i++ {
			assert.LessOrEqual(t, nodes[order[i-1]].Distance, nodes[order[i]].Distance)
		}

		last := order[len(order)-1]
		if flags&Circular != 0 {
			assert.Equal(t, head, nodes[last].next)
		} else {
			assert.Equal(t, Nil, nodes[last].next)
		}

		if flags&Doubly != 0 {
			for i := 1; i < len(order); i++ {
				assert.Equal(t, order[i-1], nodes[order[i]].prev)
			}
			if flags&Circular != 0 {
				assert.Equal(t, last, nodes[head].prev)
			} else {
				assert.Equal(t, Nil, nodes[head].prev)
			}
		}
	}
}

func TestSort_Stable(t *testing.T) {
	distances := []uint32{2, 1, 2, 1, 2, 1, 0, 2}
	nodes := buildList(distances, Doubly|Circular)
	head := Sort(nodes, 0, Doubly|Circular)

	order := walk(nodes, head, true)
	ids := make([]int32, len(order))
	for i, idx := range order {
		ids[i] = nodes[idx].PatternID
	}
	assert.Equal(t, []int32{6, 1, 3, 5, 0, 2, 4, 7}, ids)
}

func TestSort_Reversed(t *testing.T) {
	for _, n := range []int{8, 9, 33} {
		distances := make([]uint32, n)
		for i := range distances {
			distances[i] = uint32(n - i)
		}

		for _, flags := range []Flags{0, Doubly | Circular} {
			nodes := buildList(distances, flags)
			head := Sort(nodes, 0, flags)

			order := walk(nodes, head, flags&Circular != 0)
			want := make([]int32, n)
			for i := range want {
				want[i] = int32(n - 1 - i)
			}
			require.Equal(t, want, order, "n=%d flags=%d", n, flags)

			// Sorting a sorted list keeps it intact.
			head = Sort(nodes, head, flags)
			assert.Equal(t, want, walk(nodes, head, flags&Circular != 0), "n=%d flags=%d", n, flags)
		}
	}
}

func TestSort_EdgeCases(t *testing.T) {
	assert.Equal(t, Nil, Sort(nil, Nil, Doubly|Circular))

	nodes := buildList([]uint32{42}, Doubly|Circular)
	head := Sort(nodes, 0, Doubly|Circular)
	assert.Equal(t, int32(0), head)
	assert.Equal(t, int32(0), nodes[0].next)
	assert.Equal(t, int32(0), nodes[0].prev)

	nodes = buildList([]uint32{2, 1}, 0)
	head = Sort(nodes, 0, 0)
	assert.Equal(t, []int32{1, 0}, walk(nodes, head, false))
}

func TestSort_MatchesStdlibStable(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{3, 16, 17, 100, 257} {
		distances := make([]uint32, n)
		for i := range distances {
			distances[i] = uint32(rng.Intn(20))
		}

		nodes := buildList(distances, Doubly|Circular)
		head := Sort(nodes, 0, Doubly|Circular)

		want := make([]int32, n)
		for i := range want {
			want[i] = int32(i)
		}
		sort.SliceStable(want, func(a, b int) bool { return distances[want[a]] < distances[want[b]] })

		assert.Equal(t, want, walk(nodes, head, true), "n=%d", n)
	}
}

func TestRegion_Sort(t *testing.T) {
	p, err := New(6)
	require.NoError(t, err)
	_, err = p.Reserve(0, 2)
	require.NoError(t, err)
	r, err := p.Reserve(1, 4)
	require.NoError(t, err)

	_, err = r.Allocate(4)
	require.NoError(t, err)
	for i, d := range []uint32{30, 10, 40, 20} {
		r.Slot(i).PatternID = int32(i)
		r.Slot(i).Distance = d
	}

	head := r.Sort()
	assert.Equal(t, head, r.Head())

	var ids []int32
	for _, idx := range walk(p.nodes, head, true) {
		ids = append(ids, p.nodes[idx].PatternID)
	}
	assert.Equal(t, []int32{1, 3, 0, 2}, ids)
}

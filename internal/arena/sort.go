package arena

// Flags select the links Sort maintains.
type Flags uint8

const (
	// Doubly keeps prev links consistent.
	Doubly Flags = 1 << iota
	// Circular treats the list as a ring and closes it again after sorting.
	Circular
)

// Sort merge sorts the list starting at head ascending by Distance and returns
// the new head. Equal distances keep their relative order.
//
// The sort is bottom-up: each pass merges runs of length insize and the run
// length doubles until a pass performs a single merge. It allocates nothing.
func Sort(nodes []Node, head int32, flags Flags) int32 {
	if head == Nil {
		return Nil
	}
	circular := flags&Circular != 0
	doubly := flags&Doubly != 0

	list := head
	for insize := 1; ; insize *= 2 {
		oldhead := list
		next := func(i int32) int32 {
			n := nodes[i].next
			if circular && n == oldhead {
				return Nil
			}
			return n
		}

		p := list
		list = Nil
		tail := Nil
		merges := 0

		for p != Nil {
			merges++

			q := p
			psize := 0
			for i := 0; i < insize; i++ {
				psize++
				q = next(q)
				if q == Nil {
					break
				}
			}
			qsize := insize

			for psize > 0 || (qsize > 0 && q != Nil) {
				var e int32
				switch {
				case psize == 0:
					e, q = q, next(q)
					qsize--
				case qsize == 0 || q == Nil:
					e, p = p, next(p)
					psize--
				case nodes[p].Distance <= nodes[q].Distance:
					e, p = p, next(p)
					psize--
				default:
					e, q = q, next(q)
					qsize--
				}

				if tail != Nil {
					nodes[tail].next = e
				} else {
					list = e
				}
				if doubly {
					nodes[e].prev = tail
				}
				tail = e
			}
			p = q
		}

		if circular {
			nodes[tail].next = list
			if doubly {
				nodes[list].prev = tail
			}
		} else {
			nodes[tail].next = Nil
		}

		if merges <= 1 {
			return list
		}
	}
}

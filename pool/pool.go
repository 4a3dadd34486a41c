// Package pool provides slab-allocated object pools with stable addresses.
//
// Items are stored in fixed-size chunks that are never reallocated, so a
// pointer obtained from Acquire stays valid until Release, no matter how many
// other items come and go. Destroyed slots are recycled through a free list.
package pool

// chunkSize is the number of items per slab. Chunks are allocated whole, so
// the value trades memory granularity against allocation frequency.
const chunkSize = 256

type slot[T any] struct {
	value T
	live  bool
	gen   uint32
}

// Pool is a slab allocator for values of type T. The zero value is not
// usable; construct with New.
type Pool[T any] struct {
	chunks [][]slot[T]
	free   []int // indices of released slots, LIFO
	count  int   // live items
	high   int   // next never-used index
}

// New returns an empty pool.
func New[T any]() *Pool[T] {
	return &Pool[T]{}
}

// Handle identifies a pooled item. The generation counter detects stale
// handles that outlived a Release/Acquire cycle of the same slot.
type Handle struct {
	index int
	gen   uint32
}

// Acquire takes a free slot, stores value in it, and returns its handle and a
// stable pointer to the stored copy.
func (p *Pool[T]) Acquire(value T) (Handle, *T) {
	var idx int
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		idx = p.high
		p.high++
		if idx/chunkSize >= len(p.chunks) {
			p.chunks = append(p.chunks, make([]slot[T], chunkSize))
		}
	}

	s := &p.chunks[idx/chunkSize][idx%chunkSize]
	s.value = value
	s.live = true
	p.count++
	return Handle{index: idx, gen: s.gen}, &s.value
}

// Get returns the pointer for h, or nil if h is stale or released.
func (p *Pool[T]) Get(h Handle) *T {
	s := p.slot(h.index)
	if s == nil || !s.live || s.gen != h.gen {
		return nil
	}
	return &s.value
}

// Release frees the slot behind h for reuse. Releasing a stale or already
// released handle is a no-op and returns false.
func (p *Pool[T]) Release(h Handle) bool {
	s := p.slot(h.index)
	if s == nil || !s.live || s.gen != h.gen {
		return false
	}
	var zero T
	s.value = zero
	s.live = false
	s.gen++
	p.free = append(p.free, h.index)
	p.count--
	return true
}

// Len reports the number of live items.
func (p *Pool[T]) Len() int { return p.count }

// Cap reports the total slot capacity currently allocated.
func (p *Pool[T]) Cap() int { return len(p.chunks) * chunkSize }

// Range calls fn for every live item until fn returns false. The pointer is
// valid for the duration of the call and beyond, per the stable-address
// guarantee. Acquire and Release must not be called from fn.
func (p *Pool[T]) Range(fn func(h Handle, v *T) bool) {
	for idx := 0; idx < p.high; idx++ {
		s := &p.chunks[idx/chunkSize][idx%chunkSize]
		if !s.live {
			continue
		}
		if !fn(Handle{index: idx, gen: s.gen}, &s.value) {
			return
		}
	}
}

// Clear releases every live item.
func (p *Pool[T]) Clear() {
	for idx := 0; idx < p.high; idx++ {
		s := &p.chunks[idx/chunkSize][idx%chunkSize]
		if s.live {
			var zero T
			s.value = zero
			s.live = false
			s.gen++
			p.free = append(p.free, idx)
		}
	}
	p.count = 0
}

func (p *Pool[T]) slot(idx int) *slot[T] {
	if idx < 0 || idx >= p.high {
		return nil
	}
	return &p.chunks[idx/chunkSize][idx%chunkSize]
}

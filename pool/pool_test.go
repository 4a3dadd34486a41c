package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireGet(t *testing.T) {
	p := New[int]()
	h, ptr := p.Acquire(42)
	require.NotNil(t, ptr)
	assert.Equal(t, 42, *ptr)
	assert.Same(t, ptr, p.Get(h))
	assert.Equal(t, 1, p.Len())
}

func TestStableAddressesAcrossGrowth(t *testing.T) {
	p := New[[64]byte]()
	_, first := p.Acquire([64]byte{1})

	// Force several chunk allocations.
	for i := 0; i < chunkSize*4; i++ {
		p.Acquire([64]byte{})
	}

	assert.Equal(t, byte(1), first[0], "pointer must survive pool growth")
}

func TestReleaseAndReuse(t *testing.T) {
	p := New[string]()
	h1, _ := p.Acquire("a")
	h2, _ := p.Acquire("b")

	require.True(t, p.Release(h1))
	assert.Nil(t, p.Get(h1))
	assert.Equal(t, 1, p.Len())

	// Slot is recycled, handle generation differs.
	h3, ptr := p.Acquire("c")
	assert.Equal(t, "c", *ptr)
	assert.Nil(t, p.Get(h1), "stale handle must not resolve to the new occupant")
	assert.NotNil(t, p.Get(h3))
	assert.NotNil(t, p.Get(h2))
}

func TestDoubleReleaseIsNoop(t *testing.T) {
	p := New[int]()
	h, _ := p.Acquire(7)
	require.True(t, p.Release(h))
	assert.False(t, p.Release(h))
	assert.Equal(t, 0, p.Len())
}

func TestReleaseStaleHandle(t *testing.T) {
	p := New[int]()
	h, _ := p.Acquire(1)
	p.Release(h)
	h2, _ := p.Acquire(2)

	// Old handle points at the same slot but an older generation.
	assert.False(t, p.Release(h))
	assert.Equal(t, 2, *p.Get(h2))
}

func TestRange(t *testing.T) {
	p := New[int]()
	var handles []Handle
	for i := 0; i < 10; i++ {
		h, _ := p.Acquire(i)
		handles = append(handles, h)
	}
	p.Release(handles[3])
	p.Release(handles[7])

	var seen []int
	p.Range(func(h Handle, v *int) bool {
		seen = append(seen, *v)
		return true
	})
	assert.Equal(t, []int{0, 1, 2, 4, 5, 6, 8, 9}, seen)
}

func TestRangeEarlyStop(t *testing.T) {
	p := New[int]()
	for i := 0; i < 5; i++ {
		p.Acquire(i)
	}
	var n int
	p.Range(func(h Handle, v *int) bool {
		n++
		return n < 3
	})
	assert.Equal(t, 3, n)
}

func TestClear(t *testing.T) {
	p := New[int]()
	h, _ := p.Acquire(1)
	p.Acquire(2)
	p.Clear()
	assert.Equal(t, 0, p.Len())
	assert.Nil(t, p.Get(h))

	// Capacity is retained and slots get reused.
	capBefore := p.Cap()
	p.Acquire(3)
	p.Acquire(4)
	assert.Equal(t, capBefore, p.Cap())
	assert.Equal(t, 2, p.Len())
}

func TestZeroValueOnRelease(t *testing.T) {
	type big struct{ data []byte }
	p := New[big]()
	h, ptr := p.Acquire(big{data: make([]byte, 1024)})
	require.NotNil(t, ptr.data)
	p.Release(h)

	// Recycled slot starts from the stored value, not leftovers.
	_, ptr2 := p.Acquire(big{})
	assert.Nil(t, ptr2.data)
}

func BenchmarkAcquireRelease(b *testing.B) {
	p := New[[16]float32]()
	for i := 0; i < b.N; i++ {
		h, _ := p.Acquire([16]float32{})
		p.Release(h)
	}
}

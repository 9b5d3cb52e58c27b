package hwserial

import (
	"testing"

	"github.com/matryer/is"
)

func TestRingEmptyAndFull(t *testing.T) {
	is := is.New(t)
	rb := NewRingBuffer(8)

	is.Equal(rb.Used(), 0)
	is.Equal(rb.Free(), 7) // one slot sacrificed

	for i := 0; i < 7; i++ {
		is.True(rb.Put(byte(i)))
	}
	is.Equal(rb.Used(), 7)
	is.Equal(rb.Free(), 0)

	is.True(!rb.Put(0xFF)) // full: byte dropped
	is.Equal(rb.Used(), 7)

	b, ok := rb.Get()
	is.True(ok)
	is.Equal(b, byte(0))
	is.Equal(rb.Free(), 1)
}

func TestRingFIFOOrder(t *testing.T) {
	is := is.New(t)
	rb := NewRingBuffer(8)

	// Cycle several times the storage size so the indices wrap repeatedly.
	next := byte(0)
	for round := 0; round < 10; round++ {
		for i := 0; i < 5; i++ {
			is.True(rb.Put(byte(round*5 + i)))
		}
		for i := 0; i < 5; i++ {
			b, ok := rb.Get()
			is.True(ok)
			is.Equal(b, next)
			next++
		}
	}
	_, ok := rb.Get()
	is.True(!ok)
}

func TestRingNonPowerOfTwoSize(t *testing.T) {
	is := is.New(t)
	rb := NewRingBuffer(10) // compare-and-wrap successor

	is.Equal(rb.Free(), 9)
	next := byte(0)
	for round := 0; round < 7; round++ {
		for i := 0; i < 9; i++ {
			is.True(rb.Put(next + byte(i)))
		}
		is.True(!rb.Put(0xFF))
		for i := 0; i < 9; i++ {
			b, ok := rb.Get()
			is.True(ok)
			is.Equal(b, next)
			next++
		}
	}
}

func TestRingUsedPlusFreeInvariant(t *testing.T) {
	is := is.New(t)
	for _, size := range []int{8, 10, 64} {
		rb := NewRingBuffer(size)
		for i := 0; i < 3*size; i++ {
			rb.Put(byte(i))
			if i%3 == 0 {
				rb.Get()
			}
			is.Equal(rb.Used()+rb.Free(), size-1)
		}
	}
}

func TestRingPeek(t *testing.T) {
	is := is.New(t)
	rb := NewRingBuffer(8)

	_, ok := rb.Peek()
	is.True(!ok)

	rb.Put('x')
	rb.Put('y')
	b, ok := rb.Peek()
	is.True(ok)
	is.Equal(b, byte('x'))
	is.Equal(rb.Used(), 2) // peek consumes nothing

	b, _ = rb.Get()
	is.Equal(b, byte('x'))
	b, ok = rb.Peek()
	is.True(ok)
	is.Equal(b, byte('y'))
}

func TestRingClear(t *testing.T) {
	is := is.New(t)
	rb := NewRingBuffer(8)
	rb.Put(1)
	rb.Put(2)
	rb.Clear()
	is.Equal(rb.Used(), 0)
	_, ok := rb.Get()
	is.True(!ok)

	// Still usable after a clear mid-ring.
	rb.Put(3)
	b, ok := rb.Get()
	is.True(ok)
	is.Equal(b, byte(3))
}

func TestRingStageCommit(t *testing.T) {
	is := is.New(t)
	rb := NewRingBuffer(8)

	next := rb.Stage('a')
	is.Equal(rb.Used(), 0) // staged but not published
	is.True(!rb.FullAt(next))

	rb.Commit(next)
	is.Equal(rb.Used(), 1)
	b, ok := rb.Get()
	is.True(ok)
	is.Equal(b, byte('a'))

	// Fill to capacity through Stage/Commit, then the next staged byte has
	// nowhere to land.
	for i := 0; i < 7; i++ {
		n := rb.Stage(byte(i))
		is.True(!rb.FullAt(n))
		rb.Commit(n)
	}
	n := rb.Stage(0xFF)
	is.True(rb.FullAt(n))

	// Consuming one byte frees the staged slot.
	rb.Get()
	is.True(!rb.FullAt(n))
	rb.Commit(n)
	is.Equal(rb.Used(), 7)
}

// hwserial/ringbuffer.go

// A single-producer/single-consumer byte ring shared between mainline code
// and an interrupt handler. Each index has exactly one writer: the producer
// advances head, the consumer advances tail, and each side only ever loads
// the other's index. Index accesses are atomic so a cross-context load never
// observes a torn or half-published value.

package hwserial

import "sync/atomic"

// Default ring sizes, one per direction. One slot is sacrificed to tell a
// full buffer from an empty one, so the usable capacity is size-1.
const (
	rxBufferSize = 64
	txBufferSize = 64
)

// RingBuffer is a fixed-capacity circular byte queue. Empty iff head==tail;
// full iff advancing head by one would collide with tail.
type RingBuffer struct {
	buf  []byte
	mask uint32 // len(buf)-1 when the size is a power of two, else 0

	head atomic.Uint32 // next free slot (producer side)
	tail atomic.Uint32 // next occupied slot (consumer side)
}

// NewRingBuffer returns a ring with the given storage size. The size does
// not have to be a power of two; power-of-two sizes wrap with a bitmask,
// anything else with a compare-and-wrap.
func NewRingBuffer(size int) *RingBuffer {
	rb := &RingBuffer{buf: make([]byte, size)}
	if size&(size-1) == 0 {
		rb.mask = uint32(size - 1)
	}
	return rb
}

// next returns the successor of i modulo the buffer size. The two forms are
// equivalent for all valid indices; the bitmask one is just cheaper on cores
// without fast modulo.
func (rb *RingBuffer) next(i uint32) uint32 {
	if rb.mask != 0 {
		return (i + 1) & rb.mask
	}
	if i+1 >= uint32(len(rb.buf)) {
		return 0
	}
	return i + 1
}

// Size returns the storage size of the buffer in bytes.
func (rb *RingBuffer) Size() int { return len(rb.buf) }

// Used returns how many bytes are buffered, always in [0, Size()-1].
func (rb *RingBuffer) Used() int {
	head := rb.head.Load()
	tail := rb.tail.Load()
	if tail > head {
		return int(uint32(len(rb.buf)) + head - tail)
	}
	return int(head - tail)
}

// Free returns how many bytes fit before the buffer is full.
func (rb *RingBuffer) Free() int { return len(rb.buf) - 1 - rb.Used() }

// Put stores a byte. If the buffer is full the byte is dropped and Put
// returns false; the producer here is an interrupt handler and must never
// wait.
func (rb *RingBuffer) Put(val byte) bool {
	head := rb.head.Load()
	next := rb.next(head)
	if next == rb.tail.Load() { // full
		return false
	}
	rb.buf[head] = val  // 1) write data
	rb.head.Store(next) // 2) publish
	return true
}

// Get returns the oldest buffered byte, or (0, false) when empty.
func (rb *RingBuffer) Get() (byte, bool) {
	tail := rb.tail.Load()
	if rb.head.Load() == tail {
		return 0, false
	}
	v := rb.buf[tail]            // 1) read current element
	rb.tail.Store(rb.next(tail)) // 2) publish consumption
	return v, true
}

// Peek returns the byte Get would return next without consuming it.
func (rb *RingBuffer) Peek() (byte, bool) {
	tail := rb.tail.Load()
	if rb.head.Load() == tail {
		return 0, false
	}
	return rb.buf[tail], true
}

// Clear drops all buffered bytes. Only call it when the producing context
// cannot run.
func (rb *RingBuffer) Clear() {
	rb.tail.Store(rb.head.Load())
}

// Stage writes val into the producer slot without publishing it and returns
// the head value a later Commit must store for the byte to become visible.
// The split lets the caller pair the publish with another hardware update
// inside one critical section.
func (rb *RingBuffer) Stage(val byte) uint32 {
	head := rb.head.Load()
	rb.buf[head] = val
	return rb.next(head)
}

// FullAt reports whether publishing next would make head collide with tail,
// i.e. whether the staged byte still has no slot to land in.
func (rb *RingBuffer) FullAt(next uint32) bool {
	return next == rb.tail.Load()
}

// Commit publishes a byte previously placed by Stage.
func (rb *RingBuffer) Commit(next uint32) {
	rb.head.Store(next)
}

// hwserial/extended.go

// Blocking helpers layered over the non-blocking core. The core itself only
// ever busy-polls (appropriate when the wait is bounded by hardware byte
// time); callers that want scheduler-friendly waits or deadlines use these.

package hwserial

import (
	"context"
	"time"
)

// Readable returns a coalesced notification for RX readiness. A receive
// interrupt that enqueues one or more bytes will send on this channel. The
// channel is level-coalesced; callers must re-check state after waking.
func (s *Serial) Readable() <-chan struct{} { return s.notify }

// Writable returns a coalesced notification for TX progress. The transmit
// handler sends on it when it moves a byte from software to hardware. The
// channel is level-coalesced; callers must re-check state after waking.
func (s *Serial) Writable() <-chan struct{} { return s.txNotify }

// WaitReadable blocks until data is available or ctx is done.
func (s *Serial) WaitReadable(ctx context.Context) error {
	for {
		if s.Available() > 0 {
			return nil
		}
		select {
		case <-s.notify:
			// re-check; a coalesced notify can arrive with nothing left
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ReadBlocking blocks until at least one byte is available, then reads up
// to len(p).
func (s *Serial) ReadBlocking(ctx context.Context, p []byte) (int, error) {
	for {
		if n, _ := s.Read(p); n > 0 {
			return n, nil
		}
		if err := s.WaitReadable(ctx); err != nil {
			return 0, err
		}
	}
}

// ReadFullBlocking reads exactly len(p) bytes or returns early with the
// ctx error and the count read so far.
func (s *Serial) ReadFullBlocking(ctx context.Context, p []byte) (int, error) {
	read := 0
	for read < len(p) {
		if n, _ := s.Read(p[read:]); n > 0 {
			read += n
			continue
		}
		if err := s.WaitReadable(ctx); err != nil {
			return read, err
		}
	}
	return read, nil
}

// ReadByteBlocking blocks for a single byte or until ctx is done.
func (s *Serial) ReadByteBlocking(ctx context.Context) (byte, error) {
	for {
		if b, err := s.ReadByte(); err == nil {
			return b, nil
		}
		if err := s.WaitReadable(ctx); err != nil {
			return 0, err
		}
	}
}

// ReadWithTimeout is ReadBlocking with a deadline instead of a context.
func (s *Serial) ReadWithTimeout(p []byte, d time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return s.ReadBlocking(ctx, p)
}

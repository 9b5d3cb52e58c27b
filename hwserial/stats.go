// hwserial/stats.go

package hwserial

import "sync/atomic"

// Stats is a snapshot of the diagnostic counters a port keeps since its
// last ResetStats. The counters are not part of the port's contract — the
// wire protocol has no way to signal an overrun — but without them dropped
// bytes are invisible.
type Stats struct {
	RxBytes   uint32 // bytes accepted into the receive ring
	RxDropped uint32 // receive overruns (ring full, newest byte discarded)
	RxErrors  uint32 // bytes discarded for parity errors
	RxMaxUsed uint32 // high-water mark of receive ring occupancy
	TxBytes   uint32 // bytes moved to hardware by the transmit handler
	TxDirect  uint32 // bytes that took the direct-to-register fast path
}

// counters is the live, atomically updated form. Handlers bump these from
// interrupt context, so plain fields will not do.
type counters struct {
	rxBytes   atomic.Uint32
	rxDropped atomic.Uint32
	rxErrors  atomic.Uint32
	rxMaxUsed atomic.Uint32
	txBytes   atomic.Uint32
	txDirect  atomic.Uint32
}

// noteRxUsed raises the receive-ring high-water mark if used exceeds it.
func (c *counters) noteRxUsed(used uint32) {
	for {
		max := c.rxMaxUsed.Load()
		if used <= max {
			return
		}
		if c.rxMaxUsed.CompareAndSwap(max, used) {
			return
		}
	}
}

// Stats returns a copy of the current counters.
func (s *Serial) Stats() Stats {
	return Stats{
		RxBytes:   s.stats.rxBytes.Load(),
		RxDropped: s.stats.rxDropped.Load(),
		RxErrors:  s.stats.rxErrors.Load(),
		RxMaxUsed: s.stats.rxMaxUsed.Load(),
		TxBytes:   s.stats.txBytes.Load(),
		TxDirect:  s.stats.txDirect.Load(),
	}
}

// ResetStats zeroes all counters.
func (s *Serial) ResetStats() {
	s.stats.rxBytes.Store(0)
	s.stats.rxDropped.Store(0)
	s.stats.rxErrors.Store(0)
	s.stats.rxMaxUsed.Store(0)
	s.stats.txBytes.Store(0)
	s.stats.txDirect.Store(0)
}

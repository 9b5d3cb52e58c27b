// hwserial/event.go

// Receive-event dispatch. An application may register a hook per port that
// runs from mainline context whenever received data is pending, in the
// manner of the classic serialEvent functions — except the hook is an
// ordinary nullable function reference, not a weak link-time symbol.

package hwserial

import "sync"

var (
	portsMu sync.Mutex
	ports   []*Serial
)

func registerPort(s *Serial) {
	portsMu.Lock()
	ports = append(ports, s)
	portsMu.Unlock()
}

// OnReceive registers fn to be invoked by EventRun while this port has
// buffered received data. A nil fn clears the hook. The hook runs in
// mainline context, never from the interrupt handler.
func (s *Serial) OnReceive(fn func()) {
	s.onReceive = fn
}

// EventRun invokes the hook of every port that has one registered and data
// pending. Call it from the application's main loop.
func EventRun() {
	portsMu.Lock()
	snapshot := append([]*Serial(nil), ports...)
	portsMu.Unlock()
	for _, s := range snapshot {
		if s.onReceive != nil && s.Available() > 0 {
			s.onReceive()
		}
	}
}

// hwserial/sim.go

// Simulated USART peripheral for host builds. SimPort implements both the
// Registers and the InterruptController collaborators, so the very same
// driver core that runs on hardware runs against it. An engine goroutine
// models the data-register/shift-register pair and the receive line, and
// delivers interrupts with genuine preemption — while honouring the rule
// that a disabled window excludes handler execution but never stops the
// hardware itself.

package hwserial

import (
	"sync"
	"time"
)

type wireByte struct {
	b   byte
	err bool // byte arrived with a parity error
}

// SimPort is one simulated USART. All register state lives behind mu; the
// interrupt gate has its own lock so a critical section can overlap with
// hardware progress, exactly as on a real part.
type SimPort struct {
	mu sync.Mutex

	running  bool
	byteTime time.Duration

	// Transmitter: one-byte data register feeding a shift register.
	txData    byte
	txFull    bool // data register occupied
	shifting  bool
	shiftByte byte
	shiftDone time.Time
	txc       bool // transmission complete since last clear

	// Receiver.
	rxData   byte
	rxFull   bool // unread byte in the data register
	rxErr    bool
	feed     []wireByte
	nextRxAt time.Time

	rxIE bool
	txIE bool

	loopback bool
	out      []byte // everything that left the shift register, in order

	rxHandler func()
	txHandler func()

	gate struct {
		mu      sync.Mutex
		enabled bool
	}

	closeOnce sync.Once
	done      chan struct{}
}

// NewSimPort returns a running simulated peripheral with interrupt
// delivery enabled. Close stops its engine goroutine.
func NewSimPort() *SimPort {
	p := &SimPort{
		byteTime: 100 * time.Microsecond,
		done:     make(chan struct{}),
	}
	p.gate.enabled = true
	go p.engine()
	return p
}

// NewSimSerial returns a port driving a fresh simulated peripheral. The
// SimPort is the test's handle for feeding bytes and inspecting the wire.
func NewSimSerial() (*Serial, *SimPort) {
	p := NewSimPort()
	s := New(p, p)
	p.BindHandlers(s.ReceiveInterrupt, s.TransmitInterrupt)
	return s, p
}

// BindHandlers wires the receive and transmit-ready interrupt vectors.
func (p *SimPort) BindHandlers(rx, tx func()) {
	p.mu.Lock()
	p.rxHandler, p.txHandler = rx, tx
	p.mu.Unlock()
}

// SetLoopback routes every transmitted byte back onto the receive line.
func (p *SimPort) SetLoopback(on bool) {
	p.mu.Lock()
	p.loopback = on
	p.mu.Unlock()
}

// Feed queues bytes as if they arrived on the wire, one byte time apart.
func (p *SimPort) Feed(data []byte) {
	p.mu.Lock()
	for _, b := range data {
		p.feed = append(p.feed, wireByte{b: b})
	}
	p.mu.Unlock()
}

// FeedError queues one byte flagged with a parity error.
func (p *SimPort) FeedError(b byte) {
	p.mu.Lock()
	p.feed = append(p.feed, wireByte{b: b, err: true})
	p.mu.Unlock()
}

// Transmitted returns a copy of every byte that has left the shift
// register so far.
func (p *SimPort) Transmitted() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.out...)
}

// Close stops the engine goroutine.
func (p *SimPort) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// ---------------- Registers ----------------

func (p *SimPort) Configure(baud uint32, mode Mode) {
	bits := uint32(1) + uint32(mode.DataBits) + uint32(mode.StopBits)
	if mode.Parity != ParityNone {
		bits++
	}
	d := time.Duration(bits) * time.Second / time.Duration(baud)
	if d < 50*time.Microsecond {
		d = 50 * time.Microsecond
	}

	p.mu.Lock()
	p.running = true
	p.byteTime = d
	p.txFull = false
	p.shifting = false
	p.txc = false
	p.rxFull = false
	p.rxErr = false
	p.nextRxAt = time.Time{}
	p.mu.Unlock()
}

func (p *SimPort) Shutdown() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

func (p *SimPort) ReadData() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.rxData
	p.rxFull = false
	p.rxErr = false // reading the register clears the per-byte error state
	return b
}

func (p *SimPort) WriteData(b byte) {
	p.mu.Lock()
	p.txData = b
	p.txFull = true
	p.mu.Unlock()
}

func (p *SimPort) TxReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.txFull
}

func (p *SimPort) TxComplete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.txc
}

func (p *SimPort) ClearTxComplete() {
	p.mu.Lock()
	p.txc = false
	p.mu.Unlock()
}

func (p *SimPort) RxError() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rxErr
}

func (p *SimPort) EnableRxInterrupt(on bool) {
	p.mu.Lock()
	p.rxIE = on
	p.mu.Unlock()
}

func (p *SimPort) EnableTxInterrupt(on bool) {
	p.mu.Lock()
	p.txIE = on
	p.mu.Unlock()
}

func (p *SimPort) TxInterruptEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.txIE
}

// ---------------- InterruptController ----------------

// Disable suppresses interrupt delivery. It waits for an in-flight handler
// to return, so once Disable comes back the caller truly excludes the
// interrupt context. Nesting works the way cli/sei state saving does.
func (p *SimPort) Disable() uintptr {
	p.gate.mu.Lock()
	prev := p.gate.enabled
	p.gate.enabled = false
	p.gate.mu.Unlock()
	if prev {
		return 1
	}
	return 0
}

func (p *SimPort) Restore(state uintptr) {
	p.gate.mu.Lock()
	p.gate.enabled = state != 0
	p.gate.mu.Unlock()
}

func (p *SimPort) Enabled() bool {
	p.gate.mu.Lock()
	defer p.gate.mu.Unlock()
	return p.gate.enabled
}

// dispatch runs h on the engine goroutine if delivery is enabled. Pending
// conditions are level-triggered: a suppressed delivery is simply retried
// on a later step.
func (p *SimPort) dispatch(h func()) {
	if h == nil {
		return
	}
	p.gate.mu.Lock()
	defer p.gate.mu.Unlock()
	if !p.gate.enabled {
		return
	}
	h()
}

// ---------------- Engine ----------------

func (p *SimPort) engine() {
	for {
		select {
		case <-p.done:
			return
		default:
		}
		p.step(time.Now())
		time.Sleep(p.tick())
	}
}

func (p *SimPort) tick() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.byteTime / 8
	if t < 20*time.Microsecond {
		t = 20 * time.Microsecond
	}
	return t
}

// step advances the hardware model by one poll: completes the byte in the
// shift register, moves the data register into the shifter, lands the next
// wire byte, then delivers any level-pending interrupts. Hardware state
// changes under mu; handlers are invoked outside it because they call
// straight back into the register methods.
func (p *SimPort) step(now time.Time) {
	p.mu.Lock()
	if p.shifting && !now.Before(p.shiftDone) {
		p.shifting = false
		p.out = append(p.out, p.shiftByte)
		if p.loopback {
			p.feed = append(p.feed, wireByte{b: p.shiftByte})
		}
		if !p.txFull {
			p.txc = true
		}
	}
	if p.running && p.txFull && !p.shifting {
		p.shiftByte = p.txData
		p.txFull = false
		p.shifting = true
		p.shiftDone = now.Add(p.byteTime)
	}
	if p.running && !p.rxFull && len(p.feed) > 0 && !now.Before(p.nextRxAt) {
		wb := p.feed[0]
		p.feed = p.feed[1:]
		p.rxData, p.rxErr, p.rxFull = wb.b, wb.err, true
		p.nextRxAt = now.Add(p.byteTime)
	}
	fireTx := p.txIE && !p.txFull
	fireRx := p.rxIE && p.rxFull
	rxh, txh := p.rxHandler, p.txHandler
	p.mu.Unlock()

	if fireRx {
		p.dispatch(rxh)
	}
	if fireTx {
		p.dispatch(txh)
	}
}

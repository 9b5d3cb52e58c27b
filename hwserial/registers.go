// hwserial/registers.go

package hwserial

// Parity defines the parity setting used for serial communication.
type Parity uint8

const (
	// ParityNone disables parity generation and checking (the most common setting).
	ParityNone Parity = iota
	// ParityEven sets even parity (total number of 1 bits is even).
	ParityEven
	// ParityOdd sets odd parity (total number of 1 bits is odd).
	ParityOdd
)

// Mode is the line format handed to Begin. Encoding it into control
// registers is the Registers implementation's business.
type Mode struct {
	DataBits uint8
	StopBits uint8
	Parity   Parity
}

// Common line formats.
var (
	Mode8N1 = Mode{DataBits: 8, StopBits: 1, Parity: ParityNone}
	Mode8N2 = Mode{DataBits: 8, StopBits: 2, Parity: ParityNone}
	Mode8E1 = Mode{DataBits: 8, StopBits: 1, Parity: ParityEven}
	Mode8O1 = Mode{DataBits: 8, StopBits: 1, Parity: ParityOdd}
	Mode7E1 = Mode{DataBits: 7, StopBits: 1, Parity: ParityEven}
)

// Registers is the register-level view of one USART peripheral. The driver
// core is written purely against this interface; register layout, bit
// positions and baud divisor arithmetic live behind it.
//
// Status bits are read from both mainline and interrupt context. WriteData
// and ClearTxComplete form a pair: they are only ever issued together under
// a critical section so the transmit handler cannot slip between them.
type Registers interface {
	// Configure programs baud rate and line format and enables the
	// receiver and transmitter.
	Configure(baud uint32, mode Mode)
	// Shutdown disables the receiver and transmitter.
	Shutdown()

	// ReadData returns the byte in the receive data register.
	ReadData() byte
	// WriteData hands one byte to the transmit data register.
	WriteData(b byte)

	// TxReady reports whether the transmit data register can accept a
	// byte (the "data register empty" status bit).
	TxReady() bool
	// TxComplete reports whether the shift register has gone idle since
	// the last ClearTxComplete.
	TxComplete() bool
	// ClearTxComplete resets the transmission-complete flag so that
	// TxComplete only reports completion of the byte just written.
	ClearTxComplete()
	// RxError reports whether the byte currently in the receive data
	// register arrived with a parity error. The receive handler discards
	// such bytes.
	RxError() bool

	// EnableRxInterrupt toggles the receive-complete interrupt enable bit.
	EnableRxInterrupt(on bool)
	// EnableTxInterrupt toggles the transmit-ready interrupt enable bit.
	EnableTxInterrupt(on bool)
	// TxInterruptEnabled reports the transmit-ready enable bit. It doubles
	// as the "more bytes queued for send" condition in Flush: the handler
	// clears it exactly when the software buffer drains.
	TxInterruptEnabled() bool
}

// InterruptController exposes the global interrupt state the driver needs:
// a bounded critical section for paired updates and a query for whether
// delivery is currently suppressed by the caller. The shape matches
// runtime/interrupt so the hardware binding is a thin veneer.
//
// Every disabled window in this package covers a fixed two-step update,
// never a loop or a search.
type InterruptController interface {
	// Disable suspends interrupt delivery and returns the previous state.
	Disable() uintptr
	// Restore reinstates the state returned by Disable.
	Restore(state uintptr)
	// Enabled reports whether interrupts are currently delivered. The
	// blocking paths use it to decide when they must service the transmit
	// hardware themselves.
	Enabled() bool
}

// hwserial/atmega.go

//go:build atmega

// AVR binding: USART0 register access and interrupt wiring for the ATmega
// family. Everything mechanical about the hardware (bit positions, baud
// divisor arithmetic, line-format encoding) lives here, behind the
// Registers interface.

package hwserial

import (
	"device/avr"
	"machine"
	"runtime/interrupt"
)

// Serial0 is the port on USART0, behind the board's usual TX/RX pins.
var Serial0 = New(avrRegs{}, avrIRQ{})

func init() {
	interrupt.New(avr.IRQ_USART_RX, func(interrupt.Interrupt) {
		Serial0.ReceiveInterrupt()
	})
	interrupt.New(avr.IRQ_USART_UDRE, func(interrupt.Interrupt) {
		Serial0.TransmitInterrupt()
	})
}

// avrRegs drives USART0. Baud selection tries double-speed (U2X) mode
// first and falls back to normal mode when the divisor overflows 12 bits,
// keeping the historical 57600-at-16MHz exception for compatibility with
// shipped bootloaders.
type avrRegs struct{}

func (avrRegs) Configure(baud uint32, mode Mode) {
	div := (machine.CPUFrequency()/4/baud - 1) / 2
	avr.UCSR0A.Set(avr.UCSR0A_U2X0)
	if div > 4095 || (machine.CPUFrequency() == 16000000 && baud == 57600) {
		avr.UCSR0A.Set(0)
		div = (machine.CPUFrequency()/8/baud - 1) / 2
	}
	avr.UBRR0H.Set(uint8(div >> 8))
	avr.UBRR0L.Set(uint8(div))

	c := uint8(mode.DataBits-5) << 1 // UCSZ01:UCSZ00
	if mode.StopBits == 2 {
		c |= avr.UCSR0C_USBS0
	}
	switch mode.Parity {
	case ParityEven:
		c |= avr.UCSR0C_UPM01
	case ParityOdd:
		c |= avr.UCSR0C_UPM01 | avr.UCSR0C_UPM00
	}
	avr.UCSR0C.Set(c)

	avr.UCSR0B.SetBits(avr.UCSR0B_RXEN0 | avr.UCSR0B_TXEN0)
}

func (avrRegs) Shutdown() {
	avr.UCSR0B.ClearBits(avr.UCSR0B_RXEN0 | avr.UCSR0B_TXEN0)
}

func (avrRegs) ReadData() byte   { return avr.UDR0.Get() }
func (avrRegs) WriteData(b byte) { avr.UDR0.Set(b) }

func (avrRegs) TxReady() bool    { return avr.UCSR0A.HasBits(avr.UCSR0A_UDRE0) }
func (avrRegs) TxComplete() bool { return avr.UCSR0A.HasBits(avr.UCSR0A_TXC0) }

func (avrRegs) ClearTxComplete() {
	// TXC clears by writing a one to it. The other bits of UCSR0A are
	// status and must read back as zero writes; only U2X and MPCM are
	// configuration to preserve.
	avr.UCSR0A.Set(avr.UCSR0A.Get()&(avr.UCSR0A_U2X0|avr.UCSR0A_MPCM0) | avr.UCSR0A_TXC0)
}

func (avrRegs) RxError() bool { return avr.UCSR0A.HasBits(avr.UCSR0A_UPE0) }

func (avrRegs) EnableRxInterrupt(on bool) {
	if on {
		avr.UCSR0B.SetBits(avr.UCSR0B_RXCIE0)
	} else {
		avr.UCSR0B.ClearBits(avr.UCSR0B_RXCIE0)
	}
}

func (avrRegs) EnableTxInterrupt(on bool) {
	if on {
		avr.UCSR0B.SetBits(avr.UCSR0B_UDRIE0)
	} else {
		avr.UCSR0B.ClearBits(avr.UCSR0B_UDRIE0)
	}
}

func (avrRegs) TxInterruptEnabled() bool {
	return avr.UCSR0B.HasBits(avr.UCSR0B_UDRIE0)
}

// avrIRQ exposes the global interrupt flag. Disable/Restore map straight
// onto runtime/interrupt; Enabled reads the I bit in SREG.
type avrIRQ struct{}

const avrSREGI = 1 << 7

func (avrIRQ) Disable() uintptr      { return uintptr(interrupt.Disable()) }
func (avrIRQ) Restore(state uintptr) { interrupt.Restore(interrupt.State(state)) }
func (avrIRQ) Enabled() bool         { return avr.SREG.Get()&avrSREGI != 0 }

// hwserial/drivers.go

package hwserial

import "tinygo.org/x/drivers"

// The port satisfies the ecosystem UART interface, so it can be handed to
// any peripheral driver that takes a drivers.UART.
var _ drivers.UART = (*Serial)(nil)

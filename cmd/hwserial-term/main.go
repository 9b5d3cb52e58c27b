// hwserial-term attaches a raw terminal to a serial device.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/tarm/serial"
)

func main() {
	var cli struct {
		Run runCmd `cmd:"" default:"1" help:"attach a raw terminal to a serial device"`
	}

	ctx := kong.Parse(&cli)
	err := ctx.Run(&kong.Context{})
	ctx.FatalIfErrorf(err)
}

type runCmd struct {
	Device string `name:"device" required:"" help:"serial device path, e.g. /dev/ttyUSB0"`
	Baud   int    `name:"baud" default:"115200" help:"line rate"`
}

func (r *runCmd) Run(ctx *kong.Context) error {
	port, err := serial.OpenPort(&serial.Config{Name: r.Device, Baud: r.Baud})
	if err != nil {
		return err
	}
	defer port.Close()

	saved, err := rawMode(os.Stdin.Fd())
	if err != nil {
		return err
	}
	defer restore(os.Stdin.Fd(), saved)

	fmt.Fprintf(os.Stderr, "connected to %s at %d baud, ^] exits\r\n", r.Device, r.Baud)

	go io.Copy(os.Stdout, port) // device -> terminal

	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return err
		}
		if n == 1 && buf[0] == 0x1d { // ^]
			return nil
		}
		if _, err := port.Write(buf[:n]); err != nil {
			return err
		}
	}
}

// hwserial-selftest pushes a pseudorandom stream through a simulated
// loopback port and verifies that the received stream matches, exercising
// both transmit paths, the interrupt engine and the blocking readers.
package main

import (
	"context"
	"crypto/sha1"
	"fmt"
	"math/rand"
	"time"

	"github.com/alecthomas/kong"

	"github.com/jangala-dev/tinygo-hwserial/hwserial"
)

func main() {
	var cli struct {
		Run runCmd `cmd:"" default:"1" help:"run the loopback self-test"`
	}

	ctx := kong.Parse(&cli)
	err := ctx.Run(&kong.Context{})
	ctx.FatalIfErrorf(err)
}

type runCmd struct {
	Baud  uint32 `name:"baud" default:"1000000" help:"simulated line rate"`
	Count int    `name:"count" default:"4096" help:"bytes to push through the loopback"`
	Seed  int64  `name:"seed" default:"1" help:"payload seed"`
}

func (r *runCmd) Run(ctx *kong.Context) error {
	s, p := hwserial.NewSimSerial()
	defer p.Close()
	p.SetLoopback(true)
	s.Begin(r.Baud, hwserial.Mode8N1)

	payload := make([]byte, r.Count)
	rand.New(rand.NewSource(r.Seed)).Read(payload)

	got := make([]byte, r.Count)
	recvDone := make(chan error, 1)
	go func() {
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		_, err := s.ReadFullBlocking(rctx, got)
		recvDone <- err
	}()

	start := time.Now()
	if _, err := s.Write(payload); err != nil {
		return err
	}
	s.Flush()
	if err := <-recvDone; err != nil {
		return err
	}
	elapsed := time.Since(start)

	if sha1.Sum(payload) != sha1.Sum(got) {
		return fmt.Errorf("digest mismatch after %d bytes", r.Count)
	}

	st := s.Stats()
	fmt.Printf("ok: %d bytes in %v (%.0f B/s)\n",
		r.Count, elapsed.Round(time.Millisecond), float64(r.Count)/elapsed.Seconds())
	fmt.Printf("tx: %d via handler, %d direct; rx: %d buffered, %d dropped, high-water %d\n",
		st.TxBytes, st.TxDirect, st.RxBytes, st.RxDropped, st.RxMaxUsed)
	return nil
}

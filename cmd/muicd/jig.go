//go:build linux

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"devicecode-muic/bus"
	"devicecode-muic/services/muic/path"
	"devicecode-muic/types"

	"go.bug.st/serial"
)

// jigBridge mirrors a host serial port to w while the MUIC routes the
// UART lines to the application processor.
type jigBridge struct {
	name string
	baud int
	w    io.Writer

	port serial.Port
}

func (j *jigBridge) run(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(bus.T("muic", "state"))
	defer conn.Unsubscribe(sub)
	defer j.close()
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-sub.Channel():
			st, ok := m.Payload.(types.MuicState)
			if !ok {
				continue
			}
			if st.Path == path.UARTAP.String() {
				j.open()
			} else {
				j.close()
			}
		}
	}
}

func (j *jigBridge) open() {
	if j.port != nil {
		return
	}
	p, err := serial.Open(j.name, &serial.Mode{BaudRate: j.baud})
	if err != nil {
		println("[jig] open", j.name, "failed:", err.Error())
		return
	}
	println("[jig] bridge up on", j.name)
	j.port = p
	go j.pump(p)
}

func (j *jigBridge) pump(p serial.Port) {
	sc := bufio.NewScanner(p)
	for sc.Scan() {
		fmt.Fprintf(j.w, "[jig] %s\n", sc.Text())
	}
}

func (j *jigBridge) close() {
	if j.port == nil {
		return
	}
	_ = j.port.Close()
	j.port = nil
	println("[jig] bridge down")
}

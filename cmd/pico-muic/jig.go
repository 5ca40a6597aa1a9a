//go:build rp2040 || rp2350

package main

import (
	"context"
	"machine"

	"devicecode-muic/bus"
	"devicecode-muic/services/muic/path"
	"devicecode-muic/types"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

const jigBaud = 115200

// jigConsole relays UART0 to the USB console while the switch routes the
// jig UART to the application processor.
func jigConsole(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(bus.T("muic", "state"))
	defer conn.Unsubscribe(sub)

	var stop context.CancelFunc
	for {
		select {
		case <-ctx.Done():
			if stop != nil {
				stop()
			}
			return
		case m := <-sub.Channel():
			st, ok := m.Payload.(types.MuicState)
			if !ok {
				continue
			}
			on := st.Path == path.UARTAP.String()
			switch {
			case on && stop == nil:
				var rctx context.Context
				rctx, stop = context.WithCancel(ctx)
				go pumpJig(rctx)
				println("[jig] bridge up")
			case !on && stop != nil:
				stop()
				stop = nil
				println("[jig] bridge down")
			}
		}
	}
}

func pumpJig(ctx context.Context) {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: jigBaud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	var buf [64]byte
	for {
		n, err := u.RecvSomeContext(ctx, buf[:])
		if err != nil {
			return
		}
		_, _ = machine.Serial.Write(buf[:n])
	}
}

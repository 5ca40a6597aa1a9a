//go:build linux

// Command muicd runs the MAX77843 MUIC service on a Linux host: periph
// I2C and GPIO for the chip, a stdin console for the control verbs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"devicecode-muic/bus"
	"devicecode-muic/drivers/max77843"
	"devicecode-muic/services/config"
	"devicecode-muic/services/muic"
	"devicecode-muic/types"
)

func main() {
	cfgFile := flag.String("config", "", "YAML board config (default: embedded for -board)")
	board := flag.String("board", "linux", "embedded config name")
	roleFile := flag.String("usb-role", "", "path that exists once the USB role switch is up")
	jigPort := flag.String("jig-uart", "", "serial port bridged while the path is UART-AP")
	jigBaud := flag.Int("jig-baud", 115200, "jig UART baud rate")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = context.WithValue(ctx, config.CtxDeviceKey, *board)

	if *cfgFile != "" {
		raw, err := os.ReadFile(*cfgFile)
		if err != nil {
			fatal("read config", err)
		}
		config.EmbeddedConfigLookup = func(string) ([]byte, bool) { return raw, true }
	}
	doc, err := config.Resolve(ctx)
	if err != nil {
		fatal("config", err)
	}
	mc := doc.Muic

	base := muic.DefaultConfig()
	if *roleFile != "" {
		rf := *roleFile
		base.Ready = func() bool {
			_, err := os.Stat(rf)
			return err == nil
		}
	}
	mcfg, err := muic.ConfigFrom(mc, base)
	if err != nil {
		fatal("muic config", err)
	}

	i2cBus, err := openI2C(mc.I2CBus)
	if err != nil {
		fatal("i2c", err)
	}
	defer i2cBus.Close()

	dev := max77843.New(max77843.NewI2CPort(hostI2C{i2cBus}, mc.Addr), mcfg.DriverConfig())
	if id, err := dev.ID(); err != nil {
		fatal("chip id", err)
	} else {
		println("[main] max77843 id", id)
	}

	b := bus.NewBus(8)
	svc := muic.New(b.NewConnection("muic"), dev, mcfg)
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	if mc.IRQPin != "" {
		pin, err := openIRQPin(mc.IRQPin)
		if err != nil {
			fatal("irq "+mc.IRQPin, err)
		}
		cancel, err := svc.WatchIRQ(pin)
		if err != nil {
			fatal("irq", err)
		}
		defer cancel()
	} else {
		println("[main] no irq pin; detection only at boot and on console input")
	}

	ui := b.NewConnection("ui")
	go monitor(ctx, ui)
	if *jigPort != "" {
		j := &jigBridge{name: *jigPort, baud: *jigBaud, w: os.Stdout}
		go j.run(ctx, b.NewConnection("jig"))
	}
	go console(ctx, ui, os.Stdin, os.Stdout)

	if err := svc.Run(ctx); err != nil {
		fatal("muic", err)
	}
}

// monitor prints cable notifications as they arrive.
func monitor(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(bus.T("muic", "cable", "+", "event"))
	defer conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-sub.Channel():
			if ev, ok := m.Payload.(types.CableEvent); ok {
				verb := "detached"
				if ev.Attached {
					verb = "attached"
				}
				fmt.Printf("[cable] %s %s (%s)\n", ev.Name, verb, ev.Kind)
			}
		}
	}
}

func fatal(what string, err error) {
	println("[main]", what+":", err.Error())
	os.Exit(1)
}

//go:build rp2040 || rp2350

// Command pico-muic runs the MUIC service on an RP2 board with the
// MAX77843 on I2C and INTB on a GPIO.
package main

import (
	"context"
	"machine"
	"strings"
	"time"

	"devicecode-muic/bus"
	"devicecode-muic/drivers/max77843"
	"devicecode-muic/services/config"
	"devicecode-muic/services/muic"
	"devicecode-muic/x/strconvx"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "pico")
	doc, err := config.Resolve(ctx)
	if err != nil {
		halt("config", err)
	}
	mc := doc.Muic

	i2c := i2cByName(mc.I2CBus)
	if err := i2c.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz}); err != nil {
		halt("i2c", err)
	}
	mcfg, err := muic.ConfigFrom(mc, muic.DefaultConfig())
	if err != nil {
		halt("muic config", err)
	}
	dev := max77843.New(max77843.NewI2CPort(i2c, mc.Addr), mcfg.DriverConfig())

	b := bus.NewBus(4)
	svc := muic.New(b.NewConnection("muic"), dev, mcfg)
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	if pin, ok := pinByName(mc.IRQPin); ok {
		if _, err := svc.WatchIRQ(rp2IRQ{pin}); err != nil {
			halt("irq", err)
		}
	} else {
		println("[main] no irq pin", mc.IRQPin)
	}

	svc.Subscribe(func(name string, attached bool) {
		println("[cable]", name, attached)
	})
	go jigConsole(ctx, b.NewConnection("jig"))

	if err := svc.Run(ctx); err != nil {
		halt("muic", err)
	}
}

func i2cByName(name string) *machine.I2C {
	if strings.EqualFold(name, "I2C1") {
		return machine.I2C1
	}
	return machine.I2C0
}

// pinByName accepts "GP21" or "21".
func pinByName(name string) (machine.Pin, bool) {
	s := strings.TrimPrefix(strings.ToUpper(name), "GP")
	if s == "" {
		return 0, false
	}
	n, err := strconvx.Atoi(s)
	if err != nil || n < 0 || n > 47 {
		return 0, false
	}
	return machine.Pin(n), true
}

// rp2IRQ drives INTB (open drain, active low) through SetInterrupt.
type rp2IRQ struct{ p machine.Pin }

func (r rp2IRQ) SetIRQ(handler func()) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return r.p.SetInterrupt(machine.PinFalling, func(machine.Pin) { handler() })
}

func (r rp2IRQ) ClearIRQ() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}

func halt(what string, err error) {
	for {
		println("[main]", what+":", err.Error())
		time.Sleep(5 * time.Second)
	}
}

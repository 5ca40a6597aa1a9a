//go:build linux

package main

import (
	"errors"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// hostI2C gives a periph bus the tinygo driver Tx shape.
type hostI2C struct{ b i2c.Bus }

var _ drivers.I2C = hostI2C{}

func (h hostI2C) Tx(addr uint16, w, r []byte) error { return h.b.Tx(addr, w, r) }

// openI2C registers the host drivers and opens the named bus ("" picks
// the first one).
func openI2C(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	return i2creg.Open(name)
}

// edgePin watches INTB with periph edge detection.
type edgePin struct {
	p gpio.PinIO

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var errNoPin = errors.New("irq pin not found")

func openIRQPin(name string) (*edgePin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errNoPin
	}
	return &edgePin{p: p}, nil
}

// SetIRQ arms a falling-edge wait loop. INTB is open drain, active low.
func (e *edgePin) SetIRQ(handler func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		return errors.New("irq already set")
	}
	if err := e.p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return err
	}
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.loop(handler, e.stop, e.done)
	return nil
}

func (e *edgePin) loop(handler func(), stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}
		if e.p.WaitForEdge(250 * time.Millisecond) {
			handler()
		}
	}
}

func (e *edgePin) ClearIRQ() error {
	e.mu.Lock()
	stop, done := e.stop, e.done
	e.stop, e.done = nil, nil
	e.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return e.p.In(gpio.PullUp, gpio.NoEdge)
}

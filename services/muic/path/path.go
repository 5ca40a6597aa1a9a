// Package path derives the analog switch routing from the published cable bits.
package path

import (
	"errors"
	"strings"

	"devicecode-muic/drivers/max77843"
	"devicecode-muic/services/muic/cable"
)

type Path uint8

const (
	Open Path = iota
	USBAP
	USBAux
	Audio
	UARTAP
	UARTAux
)

var ErrInvalidPath = errors.New("invalid path selection")

func (p Path) String() string {
	switch p {
	case Open:
		return "OPEN"
	case USBAP:
		return "USB-AP"
	case USBAux:
		return "USB-AUX"
	case Audio:
		return "AUDIO"
	case UARTAP:
		return "UART-AP"
	case UARTAux:
		return "UART-AUX"
	}
	return "UNKNOWN"
}

// Config holds the user routing preferences.
type Config struct {
	UARTEnabled bool
	USBAux      bool // USB lines to the auxiliary processor
	UARTAux     bool
}

func DefaultConfig() Config { return Config{UARTEnabled: true} }

// Select picks the path for bits. ok is false when no group matches and
// the prior routing should stay.
func Select(bits cable.Bits, cfg Config) (p Path, ok bool) {
	switch {
	case bits.Has(cable.FixedUSBGroup):
		return USBAP, true
	case bits.Has(cable.USBGroup):
		if cfg.USBAux {
			return USBAux, true
		}
		return USBAP, true
	case bits.Has(cable.UARTGroup):
		if !cfg.UARTEnabled {
			return Open, true
		}
		if cfg.UARTAux {
			return UARTAux, true
		}
		return UARTAP, true
	case bits.Has(cable.AudioGroup):
		return Audio, true
	}
	return Open, false
}

// Switch returns the COMN1SW/COMP2SW code for p.
func Switch(p Path) max77843.SwitchCode {
	switch p {
	case USBAP:
		return max77843.SwUSB
	case USBAux:
		return max77843.SwUSBAux
	case Audio:
		return max77843.SwAudio
	case UARTAP:
		return max77843.SwUART
	case UARTAux:
		return max77843.SwUARTAux
	}
	return max77843.SwOpen
}

// Switcher is the part of the chip driver that moves the matrix.
type Switcher interface {
	SetSwitch(c max77843.SwitchCode, keepCtrl1 bool) error
	OpenSwitch() error
}

// Apply routes p. keepCtrl1 leaves the dock's own routing in place and only
// takes the chip out of low-power mode.
func Apply(sw Switcher, p Path, keepCtrl1 bool) error {
	return sw.SetSwitch(Switch(p), keepCtrl1)
}

// ParseUSBPath maps the USB selection strings; aux reports the auxiliary
// (modem) side.
func ParseUSBPath(s string) (aux bool, err error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AP", "PDA":
		return false, nil
	case "AUX", "MODEM", "CP":
		return true, nil
	}
	return false, ErrInvalidPath
}

func ParseUARTPath(s string) (aux bool, err error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AP":
		return false, nil
	case "AUX", "CP2", "CP":
		return true, nil
	}
	return false, ErrInvalidPath
}

// USBName and UARTName render the preferences the way the parsers accept them.
func USBName(aux bool) string {
	if aux {
		return "MODEM"
	}
	return "PDA"
}

func UARTName(aux bool) string {
	if aux {
		return "CP2"
	}
	return "AP"
}

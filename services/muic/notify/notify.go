// Package notify turns a bitmask transition into ordered attach/detach events.
package notify

import (
	"devicecode-muic/drivers/max77843"
	"devicecode-muic/services/muic/cable"
)

// maxDeferred is how many attaches may be held back to the end of a pass.
const maxDeferred = 2

type Event struct {
	Bit      cable.Bits
	Name     string
	Attached bool
}

func event(b cable.Bits, attached bool) Event {
	return Event{Bit: b, Name: cable.Name(b), Attached: attached}
}

// Diff returns the events that move subscribers from prev to next.
//
// Bits are walked in ascending order. Detaches are emitted in place. When
// the USB bit is not part of the change, up to two attaches are held back
// and emitted last so charger-side listeners see detaches first.
func Diff(prev, next cable.Bits) []Event {
	if prev != 0 && next == cable.BitNone {
		next = 0
	}
	changed := (prev ^ next) &^ cable.BitNone
	if changed == 0 {
		return nil
	}
	holdUSB := !changed.Has(cable.USB.Bit())

	out := make([]Event, 0, changed.Count())
	var held [maxDeferred]cable.Bits
	nheld := 0
	changed.Each(func(b cable.Bits) {
		attached := next.Has(b)
		if attached && holdUSB && nheld < maxDeferred {
			held[nheld] = b
			nheld++
			return
		}
		out = append(out, event(b, attached))
	})
	for i := 0; i < nheld; i++ {
		out = append(out, event(held[i], true))
	}
	return out
}

// ADCModeFor is the ADC sampling mode for the published bits: one-shot when
// nothing is attached, continuous otherwise.
func ADCModeFor(next cable.Bits) max77843.ADCMode {
	if next&^cable.BitNone == 0 {
		return max77843.ADCModeOneShot
	}
	return max77843.ADCModeAlways
}

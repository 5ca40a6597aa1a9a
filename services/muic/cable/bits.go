package cable

import "math/bits"

// Bits is the set of notifiable cable events. Bit n belongs to Kind(n).
type Bits uint32

// BitNone is the sentinel bit of None. A transition to exactly BitNone from
// any non-empty set is a forced full detach.
const BitNone Bits = 1 << None

func (b Bits) Has(flag Bits) bool { return b&flag != 0 }
func (b Bits) Empty() bool        { return b == 0 }
func (b Bits) Count() int         { return bits.OnesCount32(uint32(b)) }

// BitsOf is the pure kind to bitmask mapping. Composite kinds also assert
// their base accessory bit.
func BitsOf(k Kind) Bits {
	switch k {
	case None:
		return 0
	case DeskDockVB:
		return DeskDock.Bit() | DeskDockVB.Bit()
	case SmartDockTA:
		return SmartDock.Bit() | SmartDockTA.Bit()
	case SmartDockUSB:
		return SmartDock.Bit() | SmartDockUSB.Bit()
	case MHLVB:
		return MHL.Bit() | MHLVB.Bit()
	case JigUARTOffVB:
		return JigUARTOff.Bit() | JigUARTOffVB.Bit()
	case USBHost5V:
		return JigUARTOff.Bit() | USBHost5V.Bit()
	}
	return k.Bit()
}

var names = [kindCount]string{
	None:             "None",
	USB:              "USB",
	USBHost:          "USB-Host",
	USBHost5V:        "USB-Host-5V",
	TA:               "TA",
	HVPrepare:        "HV-Prepare",
	HVTA:             "HV-TA",
	HVTAErr:          "HV-TA-ERR",
	HVTA1A:           "HV-TA-1A",
	CEA936Charger:    "CEA936-CHG",
	ChargeDownstream: "Charge-downstream",
	DeskDock:         "Desk-dock",
	DeskDockVB:       "Desk-dock-VB",
	SmartDock:        "Smart-dock",
	SmartDockTA:      "Smart-dock-TA",
	SmartDockUSB:     "Smart-dock-USB",
	AudioDock:        "Audio-dock",
	JigUARTOff:       "JIG-UART-OFF",
	JigUARTOffVB:     "JIG-UART-OFF-VB",
	JigUARTOn:        "JIG-UART-ON",
	JigUSBOff:        "JIG-USB-OFF",
	JigUSBOn:         "JIG-USB-ON",
	MHL:              "MHL",
	MHLVB:            "MHL-VB",
	Incompatible:     "Incompatible-TA",
	ChargingCable:    "Charging-Cable",
	HMT:              "HMT",
	MultimediaDock:   "Multimedia-Dock",
}

// Name is the subscriber-visible name of a single bit ("" if b is not
// exactly one known bit).
func Name(b Bits) string {
	if b.Count() != 1 {
		return ""
	}
	i := bits.TrailingZeros32(uint32(b))
	if i >= int(kindCount) {
		return ""
	}
	return names[i]
}

// ByName resolves a subscriber-visible bit name.
func ByName(s string) (Bits, bool) {
	for i, n := range names {
		if n == s {
			return 1 << i, true
		}
	}
	return 0, false
}

// Each calls fn for every set bit in ascending order.
func (b Bits) Each(fn func(Bits)) {
	for x := uint32(b); x != 0; x &= x - 1 {
		fn(Bits(x & -x))
	}
}

// Path selection groups.
const (
	FixedUSBGroup = Bits(1<<USBHost | 1<<SmartDock | 1<<AudioDock | 1<<HMT | 1<<MultimediaDock)
	USBGroup      = Bits(1<<USB | 1<<JigUSBOff | 1<<JigUSBOn | 1<<ChargeDownstream)
	UARTGroup     = Bits(1<<JigUARTOff | 1<<JigUARTOn | 1<<USBHost5V)
	AudioGroup    = Bits(1 << DeskDock)
)

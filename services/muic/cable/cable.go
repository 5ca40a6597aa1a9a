// Package cable is the shared vocabulary of the MUIC service: the closed set
// of attachable accessories and the notification bitmask derived from them.
package cable

// Kind identifies the one accessory or charger currently considered attached.
type Kind uint8

// Kind values double as bit positions in Bits, so the order is the
// notification order.
const (
	None Kind = iota
	USB
	USBHost
	USBHost5V
	TA
	HVPrepare
	HVTA
	HVTAErr
	HVTA1A // sticky 1 A fallback after an HV charger goes abnormal
	CEA936Charger
	ChargeDownstream
	DeskDock
	DeskDockVB
	SmartDock
	SmartDockTA
	SmartDockUSB
	AudioDock
	JigUARTOff
	JigUARTOffVB
	JigUARTOn
	JigUSBOff
	JigUSBOn
	MHL
	MHLVB
	Incompatible
	ChargingCable
	HMT
	MultimediaDock

	kindCount
)

var labels = [kindCount]string{
	None:             "No cable",
	USB:              "USB",
	USBHost:          "OTG",
	USBHost5V:        "OTG 5V",
	TA:               "TA",
	HVPrepare:        "HV Prepare",
	HVTA:             "HV TA",
	HVTAErr:          "Error HV TA",
	HVTA1A:           "HV TA 1A",
	CEA936Charger:    "CEA936 Charger",
	ChargeDownstream: "Charge Downstream Port",
	DeskDock:         "Desk Dock",
	DeskDockVB:       "Desk Dock with TA",
	SmartDock:        "Smart Dock",
	SmartDockTA:      "Smart Dock with TA",
	SmartDockUSB:     "Smart Dock with USB",
	AudioDock:        "Audio Dock",
	JigUARTOff:       "JIG UART OFF",
	JigUARTOffVB:     "JIG UART OFF/VB",
	JigUARTOn:        "JIG UART ON",
	JigUSBOff:        "JIG USB OFF",
	JigUSBOn:         "JIG USB ON",
	MHL:              "mHL",
	MHLVB:            "mHL charging",
	Incompatible:     "Incompatible TA",
	ChargingCable:    "Charging Cable",
	HMT:              "HMT",
	MultimediaDock:   "Multimedia Dock",
}

// String returns the diagnostic label.
func (k Kind) String() string {
	if k < kindCount {
		return labels[k]
	}
	return "UNKNOWN"
}

func (k Kind) Valid() bool { return k < kindCount }

// Bit is the notification bit owned by k alone.
func (k Kind) Bit() Bits {
	if k >= kindCount {
		return 0
	}
	return 1 << k
}

// USBConfigured reports kinds that enumerate as a USB peripheral.
func (k Kind) USBConfigured() bool {
	switch k {
	case USB, ChargeDownstream, JigUSBOff, JigUSBOn:
		return true
	}
	return false
}

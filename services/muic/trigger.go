package muic

import "devicecode-muic/drivers/max77843"

// Trigger is one reason to run a pass.
type Trigger uint8

const (
	ADCChanged Trigger = iota
	ChargeTypeChanged
	VBusChanged
	VDNMonReady
	HandshakeReady
	VoltageCheckReady
	CompanionAck
	InitialPoll
	Watchdog
	// Interrupt is INTB asserted: read INT1..3 and handle what they name.
	Interrupt
)

func (t Trigger) String() string {
	switch t {
	case ADCChanged:
		return "adc"
	case ChargeTypeChanged:
		return "chgtyp"
	case VBusChanged:
		return "vbvolt"
	case VDNMonReady:
		return "vdnmon"
	case HandshakeReady:
		return "mrxrdy"
	case VoltageCheckReady:
		return "vbadc"
	case CompanionAck:
		return "mpnack"
	case InitialPoll:
		return "init"
	case Watchdog:
		return "watchdog"
	case Interrupt:
		return "intb"
	}
	return "unknown"
}

// detection reports triggers that run the sample/classify pass.
func (t Trigger) detection() bool {
	return t == ADCChanged || t == ChargeTypeChanged || t == VBusChanged || t == InitialPoll
}

var demux = [...]struct {
	flag max77843.Interrupts
	tr   Trigger
}{
	{max77843.IntADC, ADCChanged},
	{max77843.IntADC1K, ADCChanged},
	{max77843.IntChgTyp, ChargeTypeChanged},
	{max77843.IntVBVolt, VBusChanged},
	{max77843.IntVDNMon, VDNMonReady},
	{max77843.IntMRxRdy, HandshakeReady},
	{max77843.IntVbADC, VoltageCheckReady},
	{max77843.IntMPNack, CompanionAck},
}

// Triggers maps latched interrupt bits to triggers. Detection sources are
// merged into a single pass and come first.
func Triggers(ints max77843.Interrupts) []Trigger {
	out := make([]Trigger, 0, 4)
	seenDetect := false
	for _, d := range demux {
		if !ints.Has(d.flag) {
			continue
		}
		if d.tr.detection() {
			if seenDetect {
				continue
			}
			seenDetect = true
		}
		out = append(out, d.tr)
	}
	return out
}

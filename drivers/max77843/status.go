package max77843

// RawStatus is one decoded STATUS1..STATUS3 snapshot.
type RawStatus struct {
	ADC    ADC
	ADC1K  bool
	ADCLow bool
	ADCErr bool

	ChgTyp    ChargerType
	ChgDetRun bool
	VBVolt    bool

	VDNMon bool
	MPNack bool
	VbADC  VbADC
}

// DecodeStatus is pure: STATUS1, STATUS2, STATUS3 in register order.
func DecodeStatus(b [3]byte) RawStatus {
	return RawStatus{
		ADC:    ADC(b[0] & status1ADCMask),
		ADC1K:  b[0]&status1ADC1K != 0,
		ADCLow: b[0]&status1ADCLow != 0,
		ADCErr: b[0]&status1ADCErr != 0,

		ChgTyp:    ChargerType(b[1] & status2ChgTyp),
		ChgDetRun: b[1]&status2ChgDetRun != 0,
		VBVolt:    b[1]&status2VBVolt != 0,

		VDNMon: b[2]&status3VDNMon != 0,
		MPNack: b[2]&status3MPNack != 0,
		VbADC:  VbADC(b[2] & status3VbADCMask),
	}
}

// Sample reads all three status registers in one bulk transfer.
func (d *Device) Sample() (RawStatus, error) {
	var b [3]byte
	if err := d.port.BulkRead(RegSTATUS1, b[:]); err != nil {
		return RawStatus{}, err
	}
	return DecodeStatus(b), nil
}

// Interrupts packs INT1 (bits 0-7), INT2 (8-15) and INT3 (16-23).
type Interrupts uint32

const (
	IntADC    Interrupts = 1 << 0
	IntADCErr Interrupts = 1 << 2
	IntADC1K  Interrupts = 1 << 3

	IntChgTyp    Interrupts = 1 << (8 + 0)
	IntChgDetRun Interrupts = 1 << (8 + 1)
	IntDCDTmr    Interrupts = 1 << (8 + 2)
	IntDxOVP     Interrupts = 1 << (8 + 3)
	IntVBVolt    Interrupts = 1 << (8 + 4)

	IntVbADC    Interrupts = 1 << (16 + 0)
	IntVDNMon   Interrupts = 1 << (16 + 1)
	IntDNRes    Interrupts = 1 << (16 + 2)
	IntMPNack   Interrupts = 1 << (16 + 3)
	IntMRxBufOw Interrupts = 1 << (16 + 4)
	IntMRxTrf   Interrupts = 1 << (16 + 5)
	IntMRxPerr  Interrupts = 1 << (16 + 6)
	IntMRxRdy   Interrupts = 1 << (16 + 7)
)

func (i Interrupts) Has(flag Interrupts) bool { return i&flag != 0 }

// ReadInterrupts reads (and thereby clears) INT1..INT3.
func (d *Device) ReadInterrupts() (Interrupts, error) {
	var b [3]byte
	if err := d.port.BulkRead(RegINT1, b[:]); err != nil {
		return 0, err
	}
	return Interrupts(b[0]) | Interrupts(b[1])<<8 | Interrupts(b[2])<<16, nil
}

// Package max77843 constants for the MUIC block register map and bitfields.
package max77843

const (
	// 7-bit I2C address of the MUIC block (0x4A write / 0x4B read).
	AddressDefault = 0x25

	// --- Register addresses ---

	RegID        = 0x00 // R
	RegINT1      = 0x01 // R/Clear
	RegINT2      = 0x02 // R/Clear
	RegINT3      = 0x03 // R/Clear
	RegSTATUS1   = 0x04 // R
	RegSTATUS2   = 0x05 // R
	RegSTATUS3   = 0x06 // R
	RegINTMASK1  = 0x07 // R/W
	RegINTMASK2  = 0x08 // R/W
	RegINTMASK3  = 0x09 // R/W
	RegCDETCTRL1 = 0x0A // R/W
	RegCDETCTRL2 = 0x0B // R/W
	RegCTRL1     = 0x0C // R/W (switch matrix)
	RegCTRL2     = 0x0D // R/W (low power, charge pump)
	RegCTRL3     = 0x0E // R/W (jig)
	RegCTRL4     = 0x16 // R/W (ADC mode / debounce)
	RegHVCTRL1   = 0x17 // R/W
	RegHVCTRL2   = 0x18 // R/W
	RegHVTXBYTE  = 0x19 // R/W
	RegHVRXBYTE1 = 0x1A // R, 16 consecutive bytes

	HVRXLen = 16

	// --- STATUS1 ---
	status1ADCMask   = 0x1F
	status1ADCLow    = 1 << 5
	status1ADCErr    = 1 << 6
	status1ADC1K     = 1 << 7
	status2ChgTyp    = 0x07
	status2ChgDetRun = 1 << 3
	status2DCDTmr    = 1 << 4
	status2DxOVP     = 1 << 5
	status2VBVolt    = 1 << 6
	status3VbADCMask = 0x0F
	status3VDNMon    = 1 << 4
	status3DNRes     = 1 << 5
	status3MPNack    = 1 << 6

	// --- CTRL1: COMN1SW [2:0], COMP2SW [5:3] ---
	ctrl1ComN1Shift = 0
	ctrl1ComP2Shift = 3
	ctrl1SWMask     = 0x3F
	ctrl1NoBCComp   = 1 << 6

	// --- CTRL2 ---
	ctrl2LowPwr = 1 << 0
	ctrl2ADCEn  = 1 << 1
	ctrl2CPEn   = 1 << 2
	ctrl2Mask   = ctrl2LowPwr | ctrl2CPEn

	// --- CTRL3 ---
	ctrl3JigSetMask = 0x03

	// --- CTRL4: ADCDBSET [1:0], ADCMODE [7:6] ---
	ctrl4ADCDbShift   = 0
	ctrl4ADCDbMask    = 0x03
	ctrl4ADCModeShift = 6
	ctrl4ADCModeMask  = 0xC0

	// --- CDETCTRL1 ---
	cdet1ChgDetEn = 1 << 0
	cdet1DCDCpl   = 1 << 5

	// --- HVCTRL1 ---
	hvctrl1DPDNVdEn   = 1 << 0
	hvctrl1VbusADCEn  = 1 << 5
	hvctrl1CheckStart = 0x11 // DP 0.6V | DPDNVdEn
	hvctrl1VbusADC    = 0x20

	// --- HVCTRL2 ---
	hvctrl2Prepare = 0x06 // DP06En | HVDigEn
	hvctrl2Tx      = 0x1B // MTxEn | DP06En | HVDigEn | MPing
	hvctrl2Ping    = 0x5B // MPngEnb | MTxEn | MPing | DP06En | HVDigEn
	hvctrl2Idle    = 0x03

	// --- INTMASK values ---
	intMask1Default = 0x09 // ADC1K | ADC
	intMask2Default = 0x11 // VBVolt | ChgTyp
	intMask3VDNMon  = 0x02
	intMask3MRxRdy  = 0x80
	intMask3QC      = 0x88 // MRxRdy | MPNack
	intMask3None    = 0x00
)

// ADC is the 5-bit ID-resistor code from STATUS1.
type ADC uint8

const (
	ADCGnd            ADC = 0x00
	ADCMHL            ADC = 0x01
	ADCVZWUSBDock     ADC = 0x0E // 28.7K
	ADCIncompatible   ADC = 0x0F // 34K
	ADCSmartDock      ADC = 0x10 // 40.2K
	ADCHMT            ADC = 0x11 // 49.9K
	ADCAudioDock      ADC = 0x12 // 64.9K
	ADCLANHub         ADC = 0x13 // 80.07K
	ADCChargingCable  ADC = 0x14 // 102K
	ADCMultimediaDock ADC = 0x15 // 121K
	ADCCEA936Type1    ADC = 0x17 // 200K
	ADCJigUSBOff      ADC = 0x18 // 255K
	ADCJigUSBOn       ADC = 0x19 // 301K
	ADCDeskDock       ADC = 0x1A // 365K
	ADCCEA936Type2    ADC = 0x1B // 442K
	ADCJigUARTOff     ADC = 0x1C // 523K
	ADCJigUARTOn      ADC = 0x1D // 619K
	ADCOpen           ADC = 0x1F
)

// ChargerType is the 3-bit CHGTYP field of STATUS2.
type ChargerType uint8

const (
	ChgTypNoVoltage ChargerType = 0x00
	ChgTypUSB       ChargerType = 0x01
	ChgTypDownPort  ChargerType = 0x02 // charging downstream port
	ChgTypDedicated ChargerType = 0x03 // D+/D- shorted
	ChgTyp500mA     ChargerType = 0x04
	ChgTyp1A        ChargerType = 0x05
	ChgTypRFU       ChargerType = 0x06
	ChgTypDB100mA   ChargerType = 0x07
)

// IsDedicatedClass reports the charger signatures treated as a wall adapter.
func (c ChargerType) IsDedicatedClass() bool {
	switch c {
	case ChgTypDedicated, ChgTyp500mA, ChgTyp1A, ChgTypRFU:
		return true
	}
	return false
}

// VbADC is the 4-bit bus-voltage comparator bucket from STATUS3.
type VbADC uint8

const (
	VbusBelow4V VbADC = iota
	Vbus4V5V
	Vbus5V6V
	Vbus6V7V
	Vbus7V8V
	Vbus8V9V
	Vbus9V10V
	Vbus10V11V
	Vbus11V12V
	Vbus12V13V
	Vbus13V14V
	Vbus14V15V
	Vbus15V16V
	Vbus16V17V
	Vbus17V18V
	Vbus18VUp
)

// SwitchCode is a 3-bit COMN1SW/COMP2SW matrix selection.
type SwitchCode uint8

const (
	SwOpen    SwitchCode = 0x0 // 000
	SwUSB     SwitchCode = 0x1 // 001 DN1/DP2
	SwAudio   SwitchCode = 0x2 // 010 SL1/SR2
	SwUART    SwitchCode = 0x3 // 011 UT1/UR2
	SwUSBAux  SwitchCode = 0x4 // 100 USB CP
	SwUARTAux SwitchCode = 0x5 // 101 UART CP
)

// ADCMode is the CTRL4 ADCMODE field.
type ADCMode uint8

const (
	ADCModeAlways  ADCMode = 0x0
	ADCModeOneShot ADCMode = 0x2
)

// HV voltage request codes written to HVCTRL1.
const (
	HVCode9V      = 0x3D
	HVCode12V     = 0x35
	HVCode20V     = 0x3F
	HVCodeDefault = 0x33
)

// DefaultTxProbe is the AFC request byte (9V class, 1.65A).
const DefaultTxProbe = 0x46

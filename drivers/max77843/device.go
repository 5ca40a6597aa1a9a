package max77843

// Config carries the start-up register settings.
type Config struct {
	// ADC debounce code written to CTRL4 ADCDBSET (2 == 25 ms).
	ADCDebounce uint8
	// QuickCharge also unmasks MPNACK while waiting for the handshake.
	QuickCharge bool
}

func DefaultConfig() Config {
	return Config{ADCDebounce: 2}
}

// Device is one MAX77843 MUIC block on a Port.
type Device struct {
	port Port
	cfg  Config

	rx [HVRXLen]byte
}

// New constructs a Device on the given register port.
func New(port Port, cfg Config) *Device {
	if cfg.ADCDebounce > ctrl4ADCDbMask {
		cfg.ADCDebounce = ctrl4ADCDbMask
	}
	return &Device{port: port, cfg: cfg}
}

// Init programs ADC debounce and the 2 s DCD timer, then returns the ADC
// mode the chip is currently in.
func (d *Device) Init() (ADCMode, error) {
	if err := d.port.UpdateMasked(RegCTRL4, d.cfg.ADCDebounce<<ctrl4ADCDbShift, ctrl4ADCDbMask); err != nil {
		return 0, err
	}
	if err := d.port.UpdateMasked(RegCDETCTRL1, 0, cdet1DCDCpl); err != nil {
		return 0, err
	}
	if err := d.port.Write(RegINTMASK1, intMask1Default); err != nil {
		return 0, err
	}
	if err := d.port.Write(RegINTMASK2, intMask2Default); err != nil {
		return 0, err
	}
	return d.ADCMode()
}

// Shutdown leaves the switch in low-power auto mode with jig detection on auto.
func (d *Device) Shutdown() error {
	if err := d.port.UpdateMasked(RegCTRL2, 0, ctrl2LowPwr); err != nil {
		return err
	}
	return d.port.UpdateMasked(RegCTRL3, 0, ctrl3JigSetMask)
}

// ID returns the chip revision register.
func (d *Device) ID() (byte, error) { return d.port.Read(RegID) }

// ----- ADC mode -----

func (d *Device) ADCMode() (ADCMode, error) {
	v, err := d.port.Read(RegCTRL4)
	if err != nil {
		return 0, err
	}
	return ADCMode((v & ctrl4ADCModeMask) >> ctrl4ADCModeShift), nil
}

func (d *Device) SetADCMode(m ADCMode) error {
	return d.port.UpdateMasked(RegCTRL4, byte(m)<<ctrl4ADCModeShift, ctrl4ADCModeMask)
}

// ----- Switch matrix -----

func ctrl1Code(c SwitchCode) byte {
	return byte(c)<<ctrl1ComN1Shift | byte(c)<<ctrl1ComP2Shift
}

// SetSwitch routes COMN1/COMP2 to code and enables the charge pump. When
// keepCtrl1 is set only CTRL2 is written.
func (d *Device) SetSwitch(c SwitchCode, keepCtrl1 bool) error {
	if !keepCtrl1 {
		if err := d.port.UpdateMasked(RegCTRL1, ctrl1Code(c), ctrl1SWMask); err != nil {
			return err
		}
	}
	return d.port.UpdateMasked(RegCTRL2, ctrl2CPEn, ctrl2Mask)
}

// OpenSwitch opens the matrix and drops into low-power mode.
func (d *Device) OpenSwitch() error {
	if err := d.port.UpdateMasked(RegCTRL1, 0, ctrl1SWMask); err != nil {
		return err
	}
	return d.port.UpdateMasked(RegCTRL2, ctrl2LowPwr, ctrl2Mask)
}

// Switch reads back the COMN1SW code.
func (d *Device) Switch() (SwitchCode, error) {
	v, err := d.port.Read(RegCTRL1)
	if err != nil {
		return 0, err
	}
	return SwitchCode((v >> ctrl1ComN1Shift) & 0x07), nil
}

// SetAudio forces the matrix to audio (on) or open (off) without touching CTRL2.
func (d *Device) SetAudio(on bool) error {
	c := SwOpen
	if on {
		c = SwAudio
	}
	return d.port.UpdateMasked(RegCTRL1, ctrl1Code(c), ctrl1SWMask)
}

// SetDPDMForce toggles NoBCComp, holding D+/D- on the switch for smart docks.
func (d *Device) SetDPDMForce(on bool) error {
	var v byte
	if on {
		v = ctrl1NoBCComp
	}
	return d.port.UpdateMasked(RegCTRL1, v, ctrl1NoBCComp)
}

// SetChargerDetect toggles CDETCTRL1 CHGDETEN.
func (d *Device) SetChargerDetect(on bool) error {
	var v byte
	if on {
		v = cdet1ChgDetEn
	}
	return d.port.UpdateMasked(RegCDETCTRL1, v, cdet1ChgDetEn)
}

// ----- High-voltage (AFC/QC) block -----

// StartHVCheck drives D+ to 0.6 V, enables the VBUS ADC and unmasks VDNMON.
func (d *Device) StartHVCheck() error {
	if err := d.port.Write(RegHVCTRL1, hvctrl1CheckStart); err != nil {
		return err
	}
	if err := d.port.UpdateMasked(RegHVCTRL1, hvctrl1VbusADCEn, hvctrl1VbusADCEn); err != nil {
		return err
	}
	return d.port.Write(RegINTMASK3, intMask3VDNMon)
}

// HVReady reports DPDNVdEn set and VDNMON clear.
func (d *Device) HVReady() (bool, error) {
	h, err := d.port.Read(RegHVCTRL1)
	if err != nil {
		return false, err
	}
	if h&hvctrl1DPDNVdEn == 0 {
		return false, nil
	}
	s3, err := d.port.Read(RegSTATUS3)
	if err != nil {
		return false, err
	}
	return s3&status3VDNMon == 0, nil
}

// PrepareHV loads the probe byte and starts the transmit.
func (d *Device) PrepareHV(tx byte) error {
	steps := [...]struct{ reg, val byte }{
		{RegHVCTRL1, hvctrl1VbusADC},
		{RegHVCTRL2, hvctrl2Prepare},
		{RegINTMASK3, intMask3None},
		{RegHVTXBYTE, tx},
		{RegHVCTRL2, hvctrl2Tx},
	}
	for _, s := range steps {
		if err := d.port.Write(s.reg, s.val); err != nil {
			return err
		}
	}
	mask := byte(intMask3MRxRdy)
	if d.cfg.QuickCharge {
		mask = intMask3QC
	}
	return d.port.Write(RegINTMASK3, mask)
}

// ReadHandshake returns the transmitted byte and the 16-byte receive window.
func (d *Device) ReadHandshake() (byte, [HVRXLen]byte, error) {
	tx, err := d.port.Read(RegHVTXBYTE)
	if err != nil {
		return 0, [HVRXLen]byte{}, err
	}
	if err := d.port.BulkRead(RegHVRXBYTE1, d.rx[:]); err != nil {
		return 0, [HVRXLen]byte{}, err
	}
	return tx, d.rx, nil
}

func (d *Device) WriteTx(b byte) error { return d.port.Write(RegHVTXBYTE, b) }

// RequestPing asks the charger to switch to the agreed voltage.
func (d *Device) RequestPing() error { return d.port.Write(RegHVCTRL2, hvctrl2Ping) }

// RequestQC leaves the AFC transmitter and drives D+/D- to the QC code.
func (d *Device) RequestQC(code byte) error {
	if err := d.port.Write(RegHVCTRL2, hvctrl2Idle); err != nil {
		return err
	}
	return d.SetVoltageCode(code)
}

func (d *Device) SetVoltageCode(code byte) error { return d.port.Write(RegHVCTRL1, code) }

// QCAcked reports MPNACK set with VDNMON clear.
func (d *Device) QCAcked() (bool, error) {
	s3, err := d.port.Read(RegSTATUS3)
	if err != nil {
		return false, err
	}
	return s3&status3MPNack != 0 && s3&status3VDNMon == 0, nil
}

func (d *Device) ReadVbADC() (VbADC, error) {
	s3, err := d.port.Read(RegSTATUS3)
	if err != nil {
		return 0, err
	}
	return VbADC(s3 & status3VbADCMask), nil
}

// FinishHV masks HV interrupts and idles the transmitter.
func (d *Device) FinishHV() error {
	if err := d.port.Write(RegINTMASK3, intMask3None); err != nil {
		return err
	}
	return d.port.Write(RegHVCTRL2, hvctrl2Idle)
}

// MaskHVInterrupts masks INT3 without touching the transmitter.
func (d *Device) MaskHVInterrupts() error { return d.port.Write(RegINTMASK3, intMask3None) }

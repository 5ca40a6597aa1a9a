package max77843

import (
	"errors"
	"testing"
)

type write struct{ reg, val byte }

// fakeI2C is a 256-byte register file with auto-increment and a write log.
type fakeI2C struct {
	regs   [256]byte
	writes []write
	fail   error
	addrs  map[uint16]int
}

func newFakeI2C() *fakeI2C { return &fakeI2C{addrs: map[uint16]int{}} }

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.addrs[addr]++
	if f.fail != nil {
		return f.fail
	}
	if len(w) == 0 {
		return nil
	}
	reg := int(w[0])
	for i, b := range w[1:] {
		f.regs[(reg+i)&0xFF] = b
		f.writes = append(f.writes, write{byte(reg + i), b})
	}
	for i := range r {
		r[i] = f.regs[(reg+i)&0xFF]
	}
	return nil
}

func newTestDevice(cfg Config) (*Device, *fakeI2C) {
	f := newFakeI2C()
	return New(NewI2CPort(f, 0), cfg), f
}

func TestDecodeStatus(t *testing.T) {
	st := DecodeStatus([3]byte{0x80 | 0x1C, 0x40 | 0x03, 0x40 | 0x06})
	if st.ADC != ADCJigUARTOff || !st.ADC1K || st.ADCErr || st.ADCLow {
		t.Fatalf("status1 decode: %+v", st)
	}
	if st.ChgTyp != ChgTypDedicated || !st.VBVolt || st.ChgDetRun {
		t.Fatalf("status2 decode: %+v", st)
	}
	if st.VbADC != Vbus9V10V || !st.MPNack || st.VDNMon {
		t.Fatalf("status3 decode: %+v", st)
	}
}

func TestSampleUsesDefaultAddressAndBulkRead(t *testing.T) {
	d, f := newTestDevice(DefaultConfig())
	f.regs[RegSTATUS1] = byte(ADCOpen)
	f.regs[RegSTATUS2] = 0x40 | byte(ChgTypUSB)
	f.regs[RegSTATUS3] = 0x10

	st, err := d.Sample()
	if err != nil {
		t.Fatal(err)
	}
	if st.ADC != ADCOpen || st.ChgTyp != ChgTypUSB || !st.VBVolt || !st.VDNMon {
		t.Fatalf("unexpected sample: %+v", st)
	}
	if f.addrs[AddressDefault] != 1 {
		t.Fatalf("expected one transfer at 0x%x, got %v", AddressDefault, f.addrs)
	}
}

func TestSampleTransportError(t *testing.T) {
	d, f := newTestDevice(DefaultConfig())
	f.fail = errors.New("nack")
	if _, err := d.Sample(); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestReadInterruptsPacksThreeRegisters(t *testing.T) {
	d, f := newTestDevice(DefaultConfig())
	f.regs[RegINT1] = 0x01
	f.regs[RegINT2] = 0x10
	f.regs[RegINT3] = 0x80
	ints, err := d.ReadInterrupts()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []Interrupts{IntADC, IntVBVolt, IntMRxRdy} {
		if !ints.Has(want) {
			t.Fatalf("missing 0x%x in 0x%x", uint32(want), uint32(ints))
		}
	}
	if ints.Has(IntChgTyp) || ints.Has(IntVDNMon) {
		t.Fatalf("unexpected bits in 0x%x", uint32(ints))
	}
}

func TestInitProgramsDebounceAndDCD(t *testing.T) {
	d, f := newTestDevice(DefaultConfig())
	f.regs[RegCTRL4] = 0x80 | 0x01 // one-shot, debounce 1
	f.regs[RegCDETCTRL1] = 0x2D

	mode, err := d.Init()
	if err != nil {
		t.Fatal(err)
	}
	if mode != ADCModeOneShot {
		t.Fatalf("mode = %d, want one-shot", mode)
	}
	if f.regs[RegCTRL4] != 0x82 {
		t.Fatalf("CTRL4 = 0x%02x, want 0x82", f.regs[RegCTRL4])
	}
	if f.regs[RegCDETCTRL1] != 0x0D {
		t.Fatalf("CDETCTRL1 = 0x%02x, want DCDCpl cleared", f.regs[RegCDETCTRL1])
	}
}

func TestSwitchWrites(t *testing.T) {
	d, f := newTestDevice(DefaultConfig())
	f.regs[RegCTRL1] = ctrl1NoBCComp
	f.regs[RegCTRL2] = ctrl2LowPwr | ctrl2ADCEn

	if err := d.SetSwitch(SwUART, false); err != nil {
		t.Fatal(err)
	}
	if f.regs[RegCTRL1] != ctrl1NoBCComp|0x1B {
		t.Fatalf("CTRL1 = 0x%02x", f.regs[RegCTRL1])
	}
	if f.regs[RegCTRL2] != ctrl2CPEn|ctrl2ADCEn {
		t.Fatalf("CTRL2 = 0x%02x", f.regs[RegCTRL2])
	}
	if c, _ := d.Switch(); c != SwUART {
		t.Fatalf("Switch() = %d", c)
	}

	f.writes = nil
	if err := d.SetSwitch(SwUSB, true); err != nil {
		t.Fatal(err)
	}
	for _, w := range f.writes {
		if w.reg == RegCTRL1 {
			t.Fatal("CTRL1 must not be written when kept")
		}
	}

	if err := d.OpenSwitch(); err != nil {
		t.Fatal(err)
	}
	if f.regs[RegCTRL1]&ctrl1SWMask != 0 || f.regs[RegCTRL2]&ctrl2Mask != ctrl2LowPwr {
		t.Fatalf("open: CTRL1=0x%02x CTRL2=0x%02x", f.regs[RegCTRL1], f.regs[RegCTRL2])
	}
}

func TestPrepareHVSequence(t *testing.T) {
	for _, qc := range []bool{false, true} {
		d, f := newTestDevice(Config{ADCDebounce: 2, QuickCharge: qc})
		if err := d.PrepareHV(DefaultTxProbe); err != nil {
			t.Fatal(err)
		}
		last := byte(intMask3MRxRdy)
		if qc {
			last = intMask3QC
		}
		want := []write{
			{RegHVCTRL1, 0x20},
			{RegHVCTRL2, 0x06},
			{RegINTMASK3, 0x00},
			{RegHVTXBYTE, 0x46},
			{RegHVCTRL2, 0x1B},
			{RegINTMASK3, last},
		}
		if len(f.writes) != len(want) {
			t.Fatalf("qc=%v: writes %v", qc, f.writes)
		}
		for i := range want {
			if f.writes[i] != want[i] {
				t.Fatalf("qc=%v: write %d = %+v, want %+v", qc, i, f.writes[i], want[i])
			}
		}
	}
}

func TestHVReadyAndHandshake(t *testing.T) {
	d, f := newTestDevice(DefaultConfig())
	if err := d.StartHVCheck(); err != nil {
		t.Fatal(err)
	}
	if f.regs[RegHVCTRL1] != 0x31 || f.regs[RegINTMASK3] != 0x02 {
		t.Fatalf("start: HVCTRL1=0x%02x INTMASK3=0x%02x", f.regs[RegHVCTRL1], f.regs[RegINTMASK3])
	}
	f.regs[RegSTATUS3] = status3VDNMon
	if ok, _ := d.HVReady(); ok {
		t.Fatal("VDNMON set must not be ready")
	}
	f.regs[RegSTATUS3] = 0
	if ok, _ := d.HVReady(); !ok {
		t.Fatal("expected ready")
	}

	f.regs[RegHVTXBYTE] = 0x46
	f.regs[RegHVRXBYTE1] = 0x46
	f.regs[RegHVRXBYTE1+15] = 0x41
	tx, rx, err := d.ReadHandshake()
	if err != nil {
		t.Fatal(err)
	}
	if tx != 0x46 || rx[0] != 0x46 || rx[15] != 0x41 {
		t.Fatalf("handshake tx=0x%02x rx=%v", tx, rx)
	}
}

func TestQCAndShutdown(t *testing.T) {
	d, f := newTestDevice(DefaultConfig())
	if err := d.RequestQC(HVCode12V); err != nil {
		t.Fatal(err)
	}
	if f.regs[RegHVCTRL2] != 0x03 || f.regs[RegHVCTRL1] != HVCode12V {
		t.Fatalf("qc regs: HVCTRL2=0x%02x HVCTRL1=0x%02x", f.regs[RegHVCTRL2], f.regs[RegHVCTRL1])
	}
	f.regs[RegSTATUS3] = status3MPNack | byte(Vbus11V12V)
	if ok, _ := d.QCAcked(); !ok {
		t.Fatal("expected MPNACK ack")
	}
	if b, _ := d.ReadVbADC(); b != Vbus11V12V {
		t.Fatalf("vbadc = %d", b)
	}

	f.regs[RegCTRL2] = ctrl2LowPwr | ctrl2CPEn
	f.regs[RegCTRL3] = 0x03
	if err := d.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if f.regs[RegCTRL2] != ctrl2CPEn || f.regs[RegCTRL3] != 0 {
		t.Fatalf("shutdown: CTRL2=0x%02x CTRL3=0x%02x", f.regs[RegCTRL2], f.regs[RegCTRL3])
	}
}

func TestBulkReadWindow(t *testing.T) {
	p := NewI2CPort(newFakeI2C(), 0)
	var buf [4]byte
	if err := p.BulkRead(0xFE, buf[:]); !errors.Is(err, ErrBulkTooLong) {
		t.Fatalf("err = %v", err)
	}
}

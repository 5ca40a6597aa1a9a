package path

import (
	"errors"
	"testing"

	"devicecode-muic/drivers/max77843"
	"devicecode-muic/services/muic/cable"
)

func TestSelect(t *testing.T) {
	on := DefaultConfig()
	aux := Config{UARTEnabled: true, USBAux: true, UARTAux: true}
	off := Config{UARTEnabled: false}

	cases := []struct {
		name string
		bits cable.Bits
		cfg  Config
		want Path
		ok   bool
	}{
		{"usb", cable.BitsOf(cable.USB), on, USBAP, true},
		{"usb aux", cable.BitsOf(cable.USB), aux, USBAux, true},
		{"otg fixed", cable.BitsOf(cable.USBHost), aux, USBAP, true},
		{"smart dock usb", cable.BitsOf(cable.SmartDockUSB), aux, USBAP, true},
		{"jig usb", cable.BitsOf(cable.JigUSBOn), on, USBAP, true},
		{"cdp", cable.BitsOf(cable.ChargeDownstream), aux, USBAux, true},
		{"jig uart", cable.BitsOf(cable.JigUARTOff), on, UARTAP, true},
		{"jig uart aux", cable.BitsOf(cable.JigUARTOn), aux, UARTAux, true},
		{"jig uart vb", cable.BitsOf(cable.JigUARTOffVB), on, UARTAP, true},
		{"otg 5v", cable.BitsOf(cable.USBHost5V), on, UARTAP, true},
		{"uart disabled", cable.BitsOf(cable.JigUARTOff), off, Open, true},
		{"desk dock", cable.BitsOf(cable.DeskDockVB), on, Audio, true},
		{"ta keeps prior", cable.BitsOf(cable.TA), on, Open, false},
		{"hv keeps prior", cable.BitsOf(cable.HVTA), on, Open, false},
		{"empty", 0, on, Open, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := Select(c.bits, c.cfg)
			if got != c.want || ok != c.ok {
				t.Fatalf("Select = (%s, %v), want (%s, %v)", got, ok, c.want, c.ok)
			}
			again, ok2 := Select(c.bits, c.cfg)
			if again != got || ok2 != ok {
				t.Fatal("Select is not deterministic")
			}
		})
	}
}

func TestUARTDisabledAlwaysOpen(t *testing.T) {
	for _, k := range []cable.Kind{cable.JigUARTOff, cable.JigUARTOn, cable.USBHost5V, cable.JigUARTOffVB} {
		for _, ua := range []bool{false, true} {
			p, ok := Select(cable.BitsOf(k), Config{UARTAux: ua})
			if !ok || p != Open {
				t.Fatalf("%s uartAux=%v: %s", k, ua, p)
			}
		}
	}
}

func TestSwitchCodes(t *testing.T) {
	want := map[Path]max77843.SwitchCode{
		Open: max77843.SwOpen, USBAP: max77843.SwUSB, USBAux: max77843.SwUSBAux,
		Audio: max77843.SwAudio, UARTAP: max77843.SwUART, UARTAux: max77843.SwUARTAux,
	}
	for p, c := range want {
		if Switch(p) != c {
			t.Errorf("%s -> %d, want %d", p, Switch(p), c)
		}
	}
}

type fakeSwitch struct {
	code max77843.SwitchCode
	keep bool
	n    int
}

func (f *fakeSwitch) SetSwitch(c max77843.SwitchCode, keep bool) error {
	f.code, f.keep = c, keep
	f.n++
	return nil
}
func (f *fakeSwitch) OpenSwitch() error { return nil }

func TestApply(t *testing.T) {
	sw := &fakeSwitch{}
	if err := Apply(sw, UARTAux, true); err != nil {
		t.Fatal(err)
	}
	if sw.n != 1 || sw.code != max77843.SwUARTAux || !sw.keep {
		t.Fatalf("%+v", sw)
	}
}

func TestParse(t *testing.T) {
	for s, aux := range map[string]bool{"AP": false, "pda": false, "AUX": true, "MODEM": true} {
		got, err := ParseUSBPath(s)
		if err != nil || got != aux {
			t.Fatalf("ParseUSBPath(%q) = %v, %v", s, got, err)
		}
	}
	for s, aux := range map[string]bool{"AP": false, "cp2": true, "AUX": true} {
		got, err := ParseUARTPath(s)
		if err != nil || got != aux {
			t.Fatalf("ParseUARTPath(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseUSBPath("HDMI"); !errors.Is(err, ErrInvalidPath) {
		t.Fatal(err)
	}
	if _, err := ParseUARTPath(""); !errors.Is(err, ErrInvalidPath) {
		t.Fatal(err)
	}
	if USBName(true) != "MODEM" || UARTName(false) != "AP" {
		t.Fatal("names")
	}
}

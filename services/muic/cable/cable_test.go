package cable

import "testing"

func TestBitsOfComposites(t *testing.T) {
	cases := []struct {
		k    Kind
		want Bits
	}{
		{None, 0},
		{USB, USB.Bit()},
		{HVTA, HVTA.Bit()},
		{DeskDockVB, DeskDock.Bit() | DeskDockVB.Bit()},
		{SmartDockTA, SmartDock.Bit() | SmartDockTA.Bit()},
		{SmartDockUSB, SmartDock.Bit() | SmartDockUSB.Bit()},
		{MHLVB, MHL.Bit() | MHLVB.Bit()},
		{JigUARTOffVB, JigUARTOff.Bit() | JigUARTOffVB.Bit()},
		{USBHost5V, JigUARTOff.Bit() | USBHost5V.Bit()},
	}
	for _, c := range cases {
		if got := BitsOf(c.k); got != c.want {
			t.Errorf("BitsOf(%s) = 0x%x, want 0x%x", c.k, got, c.want)
		}
	}
}

func TestEveryKindHasLabelAndName(t *testing.T) {
	for k := None; k < kindCount; k++ {
		if labels[k] == "" || names[k] == "" {
			t.Fatalf("kind %d missing label or name", k)
		}
		b, ok := ByName(Name(k.Bit()))
		if !ok || b != k.Bit() {
			t.Fatalf("name round trip failed for %s", k)
		}
	}
	if Kind(200).String() != "UNKNOWN" {
		t.Fatal("out of range kind should be UNKNOWN")
	}
	if Name(USB.Bit()|TA.Bit()) != "" {
		t.Fatal("multi-bit name should be empty")
	}
}

func TestEachAscending(t *testing.T) {
	var seen []Bits
	(HMT.Bit() | USB.Bit() | TA.Bit()).Each(func(b Bits) { seen = append(seen, b) })
	want := []Bits{USB.Bit(), TA.Bit(), HMT.Bit()}
	if len(seen) != len(want) {
		t.Fatalf("seen %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen %v, want %v", seen, want)
		}
	}
}

func TestGroupsDisjoint(t *testing.T) {
	groups := []Bits{FixedUSBGroup, USBGroup, UARTGroup, AudioGroup}
	for i := range groups {
		for j := i + 1; j < len(groups); j++ {
			if groups[i]&groups[j] != 0 {
				t.Fatalf("groups %d and %d overlap", i, j)
			}
		}
	}
}

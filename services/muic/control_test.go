package muic

import (
	"context"
	"testing"
	"time"

	"devicecode-muic/bus"
	"devicecode-muic/drivers/max77843"
	"devicecode-muic/errcode"
	"devicecode-muic/services/muic/afc"
	"devicecode-muic/services/muic/cable"
	"devicecode-muic/services/muic/classify"
	"devicecode-muic/types"
)

func TestSettersRejectInvalidValues(t *testing.T) {
	h := newHarness(t, nil)
	before := h.s.Snapshot()

	cases := []struct {
		name string
		err  error
	}{
		{"usb", h.s.SetUSBPath("HDMI")},
		{"uart", h.s.SetUARTPath("CP9")},
		{"tier", h.s.SetVoltageTier("15V")},
	}
	for _, c := range cases {
		if errcode.Of(c.err) != errcode.InvalidConfig {
			t.Fatalf("%s: err %v", c.name, c.err)
		}
	}
	after := h.s.Snapshot()
	if after.USBSel != before.USBSel || after.UARTSel != before.UARTSel || after.Tier != before.Tier {
		t.Fatal("rejected values must leave state unchanged")
	}
}

func TestSettersDoNotRedetect(t *testing.T) {
	h := newHarness(t, nil)
	h.port.status(max77843.ADCJigUSBOff, max77843.ChgTypUSB, true, 0)
	h.handle(t, ADCChanged)
	h.take()

	if err := h.s.SetUSBPath("MODEM"); err != nil {
		t.Fatal(err)
	}
	if h.port.get(max77843.RegCTRL1)&0x3F != 0x09 {
		t.Fatal("path must not move until the next pass")
	}
	h.handle(t, ADCChanged)
	if h.port.get(max77843.RegCTRL1)&0x3F != 0x24 {
		t.Fatalf("CTRL1 = 0x%02x, want USB aux", h.port.get(max77843.RegCTRL1))
	}
	if st := h.s.Snapshot(); st.Path != "USB-AUX" || st.USBSel != "MODEM" {
		t.Fatalf("snapshot %+v", st)
	}
}

func TestOTGTestTogglesChargerDetect(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.s.SetOTGTest(true); err != nil {
		t.Fatal(err)
	}
	if h.port.get(max77843.RegCDETCTRL1)&chgDetEn != 0 {
		t.Fatal("OTG test must disable charger detection")
	}
	h.port.status(max77843.ADCJigUARTOff, max77843.ChgTypNoVoltage, true, 0)
	if res := h.handle(t, VBusChanged); res.Kind != cable.USBHost5V {
		t.Fatalf("kind %s", res.Kind)
	}

	h.port.fail[max77843.RegCDETCTRL1] = errBus
	if err := h.s.SetOTGTest(false); errcode.Of(err) != errcode.Transport {
		t.Fatalf("err %v", err)
	}
	if !h.s.Snapshot().OTGTest {
		t.Fatal("failed write must leave OTG test on")
	}
}

func TestAudioPathOverride(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.s.SetAudioPath(true); err != nil {
		t.Fatal(err)
	}
	if h.port.get(max77843.RegCTRL1)&0x3F != 0x12 || h.s.Snapshot().Path != "AUDIO" {
		t.Fatal("audio path not applied")
	}
	if err := h.s.SetAudioPath(false); err != nil {
		t.Fatal(err)
	}
	if h.port.get(max77843.RegCTRL1)&0x3F != 0 {
		t.Fatal("audio path not opened")
	}
}

func TestAFCDisabledAppliesToNextAttach(t *testing.T) {
	h := newHarness(t, nil)
	_ = h.s.SetAFCDisabled(true)
	h.port.status(max77843.ADCOpen, max77843.ChgTypDedicated, true, 0)
	if res := h.handle(t, ChargeTypeChanged); res.Kind != cable.TA {
		t.Fatalf("kind %s", res.Kind)
	}
	if !h.s.Snapshot().AFCDisabled {
		t.Fatal("snapshot")
	}
}

func TestBusControl(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.s.Run(ctx) }()

	req := func(verb string, payload any) *bus.Message {
		t.Helper()
		rctx, rcancel := context.WithTimeout(ctx, time.Second)
		defer rcancel()
		m, err := h.conn.RequestWait(rctx, h.conn.NewMessage(bus.T("muic", "control", verb), payload, false))
		if err != nil {
			t.Fatalf("%s: %v", verb, err)
		}
		return m
	}

	ack, ok := req(CtrlVoltageTier, "12V").Payload.(types.MuicAck)
	if !ok || !ack.OK || ack.State.Tier != "12V" {
		t.Fatalf("tier reply %+v", ack)
	}
	if ack, ok := req(CtrlUARTEnabled, "0").Payload.(types.MuicAck); !ok || ack.State.UARTEnabled {
		t.Fatalf("uart reply %+v", ack)
	}
	er, ok := req(CtrlUSBPath, "HDMI").Payload.(types.ErrorReply)
	if !ok || er.OK || er.Error != string(errcode.InvalidConfig) {
		t.Fatalf("usb reply %+v", er)
	}
	if ack, ok := req(CtrlAFCDisabled, true).Payload.(types.MuicAck); !ok || !ack.State.AFCDisabled {
		t.Fatalf("afc reply %+v", ack)
	}
	if er, ok := req("reboot", nil).Payload.(types.ErrorReply); !ok || er.Error != string(errcode.Unsupported) {
		t.Fatalf("unknown verb reply %+v", er)
	}
	if ack, ok := req(CtrlState, nil).Payload.(types.MuicAck); !ok || ack.State.Device != "No cable" {
		t.Fatalf("state reply %+v", ack)
	}
}

func TestApplyConfig(t *testing.T) {
	h := newHarness(t, nil)
	doc := types.MuicConfig{
		UARTEnabled: boolp(true),
		USBPath:     "AUX",
		UARTPath:    "CP2",
		VoltageTier: "20V",
		TxProbe:     0x45,
		Features:    types.MuicFeatures{DeskDock: boolp(false), QuickCharge: boolp(true)},
		Timings:     types.MuicTimings{WatchdogMs: 50, SettleMs: 1},
	}
	if err := h.s.ApplyConfig(doc); err != nil {
		t.Fatal(err)
	}
	st := h.s.Snapshot()
	if st.Tier != "20V" || st.USBSel != "MODEM" || st.UARTSel != "CP2" {
		t.Fatalf("snapshot %+v", st)
	}
	if h.s.neg.Tier() != afc.Tier20V {
		t.Fatal("negotiator tier not updated")
	}
	if h.s.cfg.Features.Has(classify.FeatDeskDock) || !h.s.cfg.Features.Has(classify.FeatSmartDock) {
		t.Fatal("desk dock must be off and smart dock kept from the defaults")
	}
	if h.s.cfg.Timings.Watchdog != 100*time.Millisecond || h.s.cfg.Timings.Settle != 10*time.Millisecond {
		t.Fatalf("timings not clamped: %+v", h.s.cfg.Timings)
	}

	bad := doc
	bad.TxProbe = 0x33
	if err := h.s.ApplyConfig(bad); errcode.Of(err) != errcode.InvalidConfig {
		t.Fatalf("err %v", err)
	}
	bad = doc
	bad.VoltageTier = "7V"
	if err := h.s.ApplyConfig(bad); errcode.Of(err) != errcode.InvalidConfig {
		t.Fatalf("err %v", err)
	}
}

func TestConfigTopicIsConsumed(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	state := h.conn.Subscribe(bus.T("muic", "state"))
	go func() { _ = h.s.Run(ctx) }()

	h.conn.Publish(h.conn.NewMessage(bus.T("config", "muic"), types.MuicConfig{
		AFCDisabled: true,
		VoltageTier: "default",
	}, true))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		m := recvWithin(t, state.Channel(), time.Second)
		if st, ok := m.Payload.(types.MuicState); ok && st.AFCDisabled && st.Tier == "default" {
			return
		}
	}
	t.Fatal("config/muic was not applied")
}

package muic

import (
	"sync/atomic"

	"devicecode-muic/bus"
	"devicecode-muic/drivers/max77843"
	"devicecode-muic/services/muic/cable"
	"devicecode-muic/services/muic/notify"
	"devicecode-muic/services/muic/path"
	"devicecode-muic/types"
	"devicecode-muic/x/conv"
	"devicecode-muic/x/timex"
)

const (
	usbConfigured    = "USB_STATE_CONFIGURED"
	usbNotConfigured = "USB_STATE_NOTCONFIGURED"
)

func (s *Service) publishEvents(events []notify.Event, k cable.Kind) {
	if len(events) == 0 {
		return
	}
	ts := timex.NowMs()
	for _, e := range events {
		println("[muic] notify", e.Name, e.Attached)
		if s.conn != nil {
			s.conn.Publish(s.conn.NewMessage(cableTopic(e.Name), types.CableEvent{
				Name:     e.Name,
				Attached: e.Attached,
				Kind:     k.String(),
				TSms:     ts,
			}, false))
		}
		for _, fn := range s.subs {
			fn(e.Name, e.Attached)
		}
	}
}

func (s *Service) publishRetained(t bus.Topic, payload any) {
	if s.conn == nil {
		return
	}
	s.conn.Publish(s.conn.NewMessage(t, payload, true))
}

func (s *Service) publishStateLocked() { s.publishRetained(topicState, s.snapshotLocked()) }

// Snapshot is the diagnostic view of the driver context.
func (s *Service) Snapshot() types.MuicState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() types.MuicState {
	var hx [4]byte
	st := types.MuicState{
		Device:      s.kind.String(),
		ADC:         string(conv.U8Hex(hx[:], uint8(s.adc))),
		Path:        s.path.String(),
		USBState:    usbNotConfigured,
		ChargerType: chargerTypeOf(s.adc),
		AFCDisabled: s.cfg.AFCDisabled,
		UARTEnabled: s.cfg.Path.UARTEnabled,
		USBSel:      path.USBName(s.cfg.Path.USBAux),
		UARTSel:     path.UARTName(s.cfg.Path.UARTAux),
		Tier:        s.cfg.Tier.String(),
		OTGTest:     s.cfg.OTGTest,
		Jig:         jigADC(s.adc),
		Drops:       atomic.LoadUint32(&s.drops),
		TS:          timex.NowMs(),
	}
	if s.kind.USBConfigured() {
		st.USBState = usbConfigured
	}
	return st
}

// Kind and Bits are the published detection result.
func (s *Service) Kind() cable.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

func (s *Service) Bits() cable.Bits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bits
}

// chargerTypeOf is the accessory class reported by the ID resistor alone.
func chargerTypeOf(adc max77843.ADC) string {
	switch adc {
	case max77843.ADCMHL, max77843.ADCVZWUSBDock, max77843.ADCSmartDock,
		max77843.ADCAudioDock, max77843.ADCDeskDock, max77843.ADCOpen:
		return "0"
	case max77843.ADCCEA936Type1, max77843.ADCIncompatible:
		return "1"
	case max77843.ADCCEA936Type2:
		return "2"
	}
	return "UNKNOWN"
}

func jigADC(adc max77843.ADC) bool {
	switch adc {
	case max77843.ADCJigUARTOff, max77843.ADCJigUSBOff, max77843.ADCJigUSBOn:
		return true
	}
	return false
}

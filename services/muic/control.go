package muic

import (
	"strings"

	"devicecode-muic/bus"
	"devicecode-muic/errcode"
	"devicecode-muic/services/muic/afc"
	"devicecode-muic/services/muic/path"
	"devicecode-muic/types"
	"devicecode-muic/x/strconvx"
)

// Control verbs on muic/control/<verb>.
const (
	CtrlAFCDisabled = "afc_disabled"
	CtrlUARTEnabled = "uart_enabled"
	CtrlUSBPath     = "usb_path"
	CtrlUARTPath    = "uart_path"
	CtrlVoltageTier = "voltage_tier"
	CtrlOTGTest     = "otg_test"
	CtrlAudioPath   = "audio_path"
	CtrlState       = "state"
)

// Configuration setters change how the next pass behaves; none of them
// re-runs detection.

func (s *Service) SetAFCDisabled(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.AFCDisabled = on
	println("[muic] afc disabled", on)
	s.publishStateLocked()
	return nil
}

func (s *Service) SetUARTEnabled(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Path.UARTEnabled = on
	s.publishStateLocked()
	return nil
}

// SetUSBPath accepts "AP"/"PDA" or "AUX"/"MODEM".
func (s *Service) SetUSBPath(v string) error {
	aux, err := path.ParseUSBPath(v)
	if err != nil {
		return errcode.Wrap(errcode.InvalidConfig, "usb_path", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Path.USBAux = aux
	s.publishStateLocked()
	return nil
}

// SetUARTPath accepts "AP" or "AUX"/"CP2".
func (s *Service) SetUARTPath(v string) error {
	aux, err := path.ParseUARTPath(v)
	if err != nil {
		return errcode.Wrap(errcode.InvalidConfig, "uart_path", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Path.UARTAux = aux
	s.publishStateLocked()
	return nil
}

func (s *Service) SetVoltageTier(v string) error {
	t, err := afc.ParseTier(v)
	if err != nil {
		return errcode.Wrap(errcode.InvalidConfig, "voltage_tier", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Tier = t
	s.neg.SetTier(t)
	s.publishStateLocked()
	return nil
}

// SetOTGTest enters or leaves OTG test mode: charger detection is off
// while it is on, and a powered UART jig reads as OTG with 5 V.
func (s *Service) SetOTGTest(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.chip.SetChargerDetect(!on); err != nil {
		return errcode.Wrap(errcode.Transport, "otg_test", err)
	}
	s.cfg.OTGTest = on
	s.publishStateLocked()
	return nil
}

// SetAudioPath routes the audio switch by hand (on) or opens it.
func (s *Service) SetAudioPath(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.chip.SetAudio(on); err != nil {
		return errcode.Wrap(errcode.Transport, "audio_path", err)
	}
	if on {
		s.path = path.Audio
	} else {
		s.path = path.Open
	}
	s.publishStateLocked()
	return nil
}

// ---- bus surface ----

func (s *Service) onControl(m *bus.Message) {
	if len(m.Topic) < 3 {
		s.replyErr(m, errcode.InvalidTopic)
		return
	}
	verb, _ := m.Topic[2].(string)

	var err error
	switch verb {
	case CtrlAFCDisabled, CtrlUARTEnabled, CtrlOTGTest, CtrlAudioPath:
		on, ok := asBool(m.Payload)
		if !ok {
			s.replyErr(m, errcode.InvalidConfig)
			return
		}
		switch verb {
		case CtrlAFCDisabled:
			err = s.SetAFCDisabled(on)
		case CtrlUARTEnabled:
			err = s.SetUARTEnabled(on)
		case CtrlOTGTest:
			err = s.SetOTGTest(on)
		default:
			err = s.SetAudioPath(on)
		}
	case CtrlUSBPath, CtrlUARTPath, CtrlVoltageTier:
		v, ok := m.Payload.(string)
		if !ok {
			s.replyErr(m, errcode.InvalidConfig)
			return
		}
		switch verb {
		case CtrlUSBPath:
			err = s.SetUSBPath(v)
		case CtrlUARTPath:
			err = s.SetUARTPath(v)
		default:
			err = s.SetVoltageTier(v)
		}
	case CtrlState:
	default:
		s.replyErr(m, errcode.Unsupported)
		return
	}
	if err != nil {
		s.replyErr(m, errcode.Of(err))
		return
	}
	if s.conn != nil {
		s.conn.Reply(m, types.MuicAck{OK: true, State: s.Snapshot()}, false)
	}
}

func (s *Service) replyErr(m *bus.Message, c errcode.Code) {
	if s.conn == nil || !m.CanReply() {
		return
	}
	s.conn.Reply(m, types.ErrorReply{OK: false, Error: string(c)}, false)
}

// onConfig applies a board document published on config/muic.
func (s *Service) onConfig(m *bus.Message) {
	var doc types.MuicConfig
	switch p := m.Payload.(type) {
	case types.MuicConfig:
		doc = p
	case *types.MuicConfig:
		if p == nil {
			return
		}
		doc = *p
	default:
		println("[muic] config: wrong payload type")
		return
	}
	if err := s.ApplyConfig(doc); err != nil {
		println("[muic] config rejected:", err.Error())
	}
}

// ApplyConfig validates doc and swaps in the runtime settings.
func (s *Service) ApplyConfig(doc types.MuicConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := ConfigFrom(doc, s.cfg)
	if err != nil {
		return err
	}
	if c.OTGTest != s.cfg.OTGTest {
		if err := s.chip.SetChargerDetect(!c.OTGTest); err != nil {
			return errcode.Wrap(errcode.Transport, "otg_test", err)
		}
	}
	s.cfg = c
	s.neg.SetTier(c.Tier)
	if c.TxProbe != 0 {
		s.neg.SetTxProbe(c.TxProbe)
	}
	s.neg.SetTimings(c.Timings)
	println("[muic] config applied, tier", c.Tier.String())
	s.publishStateLocked()
	return nil
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case int:
		return x != 0, true
	case float64:
		return x != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "on", "yes":
			return true, true
		case "false", "off", "no":
			return false, true
		}
		n, err := strconvx.Atoi(strings.TrimSpace(x))
		if err != nil {
			return false, false
		}
		return n != 0, true
	}
	return false, false
}

// Package muic is the dispatcher of the MUIC block: it serialises interrupt
// and timer triggers, runs the sample/classify/negotiate pass under one
// lock, routes the analog switch and publishes cable transitions.
package muic

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"devicecode-muic/bus"
	"devicecode-muic/drivers/max77843"
	"devicecode-muic/errcode"
	"devicecode-muic/services/muic/afc"
	"devicecode-muic/services/muic/cable"
	"devicecode-muic/services/muic/classify"
	"devicecode-muic/services/muic/notify"
	"devicecode-muic/services/muic/path"
	"devicecode-muic/x/conv"
	"devicecode-muic/x/timex"
)

// Chip is everything the dispatcher needs from the MUIC driver.
type Chip interface {
	afc.Chip
	path.Switcher
	Init() (max77843.ADCMode, error)
	Shutdown() error
	Sample() (max77843.RawStatus, error)
	ReadInterrupts() (max77843.Interrupts, error)
	SetADCMode(m max77843.ADCMode) error
	SetAudio(on bool) error
	SetDPDMForce(on bool) error
	SetChargerDetect(on bool) error
}

// Subscriber is called for every attach/detach from inside the pass. It
// must not call back into the Service.
type Subscriber func(name string, attached bool)

// PassResult summarises one handled trigger.
type PassResult struct {
	Trigger Trigger
	Kind    cable.Kind
	Events  []notify.Event
	Outcome errcode.Code
}

type Service struct {
	conn *bus.Connection
	chip Chip
	neg  *afc.Negotiator
	wd   *timerWatchdog

	trQ   chan Trigger
	drops uint32 // triggers lost to a full queue

	mu      sync.Mutex
	cfg     Config
	kind    cable.Kind
	bits    cable.Bits
	path    path.Path
	adc     max77843.ADC
	adcMode max77843.ADCMode
	initial bool
	subs    []Subscriber
}

var (
	topicConfig  = bus.T("config", "muic")
	topicControl = bus.T("muic", "control", "+")
	topicState   = bus.T("muic", "state")
	topicJig     = bus.T("muic", "jig")
)

func cableTopic(name string) bus.Topic { return bus.T("muic", "cable", name, "event") }

func New(conn *bus.Connection, chip Chip, cfg Config) *Service {
	if cfg.QueueLen <= 0 {
		cfg.QueueLen = 16
	}
	s := &Service{
		conn: conn,
		chip: chip,
		trQ:  make(chan Trigger, cfg.QueueLen),
		cfg:  cfg,
		adc:  max77843.ADCOpen,
	}
	s.wd = newTimerWatchdog(func() bool { return s.Fire(Watchdog) })
	s.neg = afc.New(chip, s.wd, cfg.Sleep, afc.Config{
		TxProbe: cfg.TxProbe,
		Tier:    cfg.Tier,
		Timings: cfg.Timings,
	})
	return s
}

// Fire queues a trigger without blocking. Safe from interrupt handlers;
// a full queue drops the trigger and counts it.
func (s *Service) Fire(tr Trigger) bool {
	select {
	case s.trQ <- tr:
		return true
	default:
		atomic.AddUint32(&s.drops, 1)
		return false
	}
}

func (s *Service) Drops() uint32 { return atomic.LoadUint32(&s.drops) }

// Subscribe registers an in-process listener.
func (s *Service) Subscribe(fn Subscriber) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Start programs the chip and publishes the initial state.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mode, err := s.chip.Init()
	if err != nil {
		return errcode.Wrap(errcode.Transport, "muic.init", err)
	}
	s.adcMode = mode
	println("[muic] init adc mode", uint8(mode))
	s.publishStateLocked()
	s.publishRetained(topicJig, false)
	return nil
}

// Run starts the chip, schedules the boot detection and serves triggers,
// configuration and controls until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	var cfgCh, ctrlCh <-chan *bus.Message
	if s.conn != nil {
		cfgSub := s.conn.Subscribe(topicConfig)
		ctrlSub := s.conn.Subscribe(topicControl)
		defer s.conn.Unsubscribe(cfgSub)
		defer s.conn.Unsubscribe(ctrlSub)
		cfgCh, ctrlCh = cfgSub.Channel(), ctrlSub.Channel()
	}

	go s.bootPoll(ctx)

	for {
		select {
		case <-ctx.Done():
			s.stop()
			return nil
		case tr := <-s.trQ:
			if _, err := s.Handle(ctx, tr); err != nil {
				println("[muic] warn:", tr.String(), err.Error())
			}
		case m := <-cfgCh:
			s.onConfig(m)
		case m := <-ctrlCh:
			s.onControl(m)
		}
	}
}

func (s *Service) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.neg.Cancel()
	if err := s.chip.Shutdown(); err != nil {
		println("[muic] warn: shutdown:", err.Error())
	}
}

// bootPoll waits for the USB role subsystem before the first detection.
func (s *Service) bootPoll(ctx context.Context) {
	s.mu.Lock()
	c := s.cfg
	s.mu.Unlock()

	if timex.Sleep(ctx, c.InitDelay) != nil {
		return
	}
	if c.Ready != nil {
		for i := 0; i < c.PollRetries && !c.Ready(); i++ {
			println("[muic] usb role not ready, retry", i+1)
			if timex.Sleep(ctx, c.PollInterval) != nil {
				return
			}
		}
	}
	s.Fire(InitialPoll)
}

// Handle runs one trigger to completion under the service lock.
func (s *Service) Handle(ctx context.Context, tr Trigger) (PassResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handleLocked(ctx, tr)
}

func (s *Service) handleLocked(ctx context.Context, tr Trigger) (PassResult, error) {
	switch tr {
	case Interrupt:
		return s.demuxLocked(ctx)
	case InitialPoll:
		s.kind, s.bits = cable.None, 0
		s.initial = true
		defer func() { s.initial = false }()
		return s.detect(ctx, tr)
	case ADCChanged, ChargeTypeChanged, VBusChanged:
		return s.detect(ctx, tr)
	case VDNMonReady:
		res, err := s.neg.Prepare(ctx)
		return s.conclude(tr, res, err)
	case HandshakeReady:
		res, err := s.neg.Handshake(ctx, s.kind)
		return s.conclude(tr, res, err)
	case VoltageCheckReady:
		res, err := s.neg.VoltageCheck(ctx)
		return s.conclude(tr, res, err)
	case CompanionAck:
		if !s.cfg.Features.Has(classify.FeatQuickCharge) {
			return s.idle(tr), nil
		}
		res, err := s.neg.QuickChargeAck(ctx)
		return s.conclude(tr, res, err)
	case Watchdog:
		if !s.wd.take() {
			println("[muic] stale watchdog tick")
			return s.idle(tr), nil
		}
		res, err := s.neg.Expire(ctx)
		return s.conclude(tr, res, err)
	}
	return s.idle(tr), errcode.Unsupported
}

func (s *Service) idle(tr Trigger) PassResult {
	return PassResult{Trigger: tr, Kind: s.kind, Outcome: errcode.OK}
}

// demuxLocked reads and clears INT1..3 and handles each named trigger.
func (s *Service) demuxLocked(ctx context.Context) (PassResult, error) {
	out := s.idle(Interrupt)
	ints, err := s.chip.ReadInterrupts()
	if err != nil {
		out.Outcome = errcode.Transport
		return out, errcode.Wrap(errcode.Transport, "muic.irq", err)
	}
	var hx [8]byte
	println("[muic] int", string(conv.U32Hex(hx[:], uint32(ints))))
	var first error
	for _, t := range Triggers(ints) {
		r, err := s.handleLocked(ctx, t)
		out.Events = append(out.Events, r.Events...)
		if r.Outcome != errcode.OK {
			out.Outcome = r.Outcome
		}
		if err != nil && first == nil {
			first = err
		}
	}
	out.Kind = s.kind
	return out, first
}

// detect is the sample/classify pass.
func (s *Service) detect(ctx context.Context, tr Trigger) (PassResult, error) {
	out := s.idle(tr)
	st, err := s.chip.Sample()
	if err != nil {
		out.Outcome = errcode.Transport
		return out, errcode.Wrap(errcode.Transport, "muic.sample", err)
	}
	s.adc = st.ADC

	o := classify.Classify(st, classify.Input{
		Prior:       s.kind,
		HVDone:      s.neg.Done(),
		HVActive:    s.neg.Active(),
		AFCDisabled: s.cfg.AFCDisabled,
		OTGTest:     s.cfg.OTGTest,
		Features:    s.cfg.Features,
		Initial:     s.initial,
	})
	println("[muic]", tr.String(), "adc", uint8(st.ADC), "chgtyp", uint8(st.ChgTyp),
		"vb", st.VBVolt, "->", o.Action.String(), o.Kind.String())

	switch o.Action {
	case classify.Ignore:
		return out, nil
	case classify.Detach:
		out.Events = s.detach()
	case classify.DeferToNegotiation:
		if s.neg.Active() {
			return out, nil
		}
		res, nerr := s.neg.Begin(ctx, s.initial)
		return s.conclude(tr, res, nerr)
	case classify.Detected:
		if s.neg.Active() {
			s.neg.Cancel()
		}
		s.applyQuirks(o.Quirks)
		out.Events = s.transition(o.Kind)
	}
	out.Kind = s.kind
	return out, nil
}

// conclude publishes what a negotiator step produced. Steps that arrive in
// the wrong phase are dropped quietly.
func (s *Service) conclude(tr Trigger, res afc.Result, err error) (PassResult, error) {
	out := s.idle(tr)
	if errors.Is(err, afc.ErrNoSession) || errors.Is(err, afc.ErrWrongPhase) {
		println("[muic]", tr.String(), "ignored:", err.Error())
		return out, nil
	}
	if res.Emit {
		out.Events = s.transition(res.Kind)
		out.Kind = s.kind
		if res.Outcome != "" {
			out.Outcome = res.Outcome
		}
	}
	if err != nil {
		out.Outcome = errcode.Of(err)
		return out, err
	}
	return out, nil
}

// applyQuirks is best-effort; a failed write is logged and the transition
// still goes out.
func (s *Service) applyQuirks(q classify.Quirks) {
	warn := func(what string, err error) {
		if err != nil {
			println("[muic] warn: quirk", what+":", err.Error())
		}
	}
	if q.Has(classify.QuirkDisableChgDet) {
		warn("chgdet", s.chip.SetChargerDetect(false))
	}
	if q.Has(classify.QuirkForceDPDM) {
		warn("dpdm", s.chip.SetDPDMForce(true))
	}
	if q.Has(classify.QuirkADCAlways) {
		warn("adc mode", s.setADCMode(max77843.ADCModeAlways))
	}
}

// detach drops any negotiation and parks the switch open. A failed open
// leaves the recorded path as it was.
func (s *Service) detach() []notify.Event {
	s.neg.Cancel()
	if err := s.chip.OpenSwitch(); err != nil {
		println("[muic] warn: open switch:", err.Error())
	} else {
		s.path = path.Open
	}
	return s.transition(cable.None)
}

// transition makes next the current kind and tells everyone.
func (s *Service) transition(next cable.Kind) []notify.Event {
	nb := cable.BitsOf(next)
	if next == cable.None && s.bits != 0 {
		nb = cable.BitNone
	}
	events := notify.Diff(s.bits, nb)
	if nb == cable.BitNone {
		nb = 0
	}
	println("[muic] cur", s.kind.String(), "new", next.String(), "changed", uint32(s.bits^nb))
	s.kind, s.bits = next, nb

	if nb == 0 {
		s.restoreWorkarounds()
	}
	s.publishEvents(events, next)

	if s.cfg.OneShotADC {
		if err := s.setADCMode(notify.ADCModeFor(nb)); err != nil {
			println("[muic] warn: adc mode:", err.Error())
		}
	}
	if p, ok := path.Select(nb, s.cfg.Path); ok {
		s.applyPath(p)
	}
	s.publishRetained(topicJig, jigADC(s.adc))
	s.publishStateLocked()
	return events
}

// restoreWorkarounds undoes the OTG and smart dock quirks after a full detach.
func (s *Service) restoreWorkarounds() {
	if err := s.chip.SetChargerDetect(!s.cfg.OTGTest); err != nil {
		println("[muic] warn: chgdet restore:", err.Error())
	}
	if err := s.chip.SetDPDMForce(false); err != nil {
		println("[muic] warn: dpdm restore:", err.Error())
	}
}

func (s *Service) applyPath(p path.Path) {
	// A powered desk dock keeps its own CTRL1 routing, so the recorded path
	// stays whatever CTRL1 last held.
	keep := s.kind == cable.DeskDockVB
	if err := path.Apply(s.chip, p, keep); err != nil {
		println("[muic] warn: path", p.String(), err.Error())
		return
	}
	if keep {
		println("[muic] desk dock keeps CTRL1, path stays", s.path.String())
		return
	}
	s.path = p
}

func (s *Service) setADCMode(m max77843.ADCMode) error {
	if m == s.adcMode {
		return nil
	}
	if err := s.chip.SetADCMode(m); err != nil {
		return err
	}
	s.adcMode = m
	return nil
}

// Package afc runs the high-voltage charger negotiation: the AFC echo
// handshake and the QC 2.0 fallback, verified against the bus-voltage ADC.
package afc

import (
	"context"
	"errors"
	"time"

	"devicecode-muic/drivers/max77843"
	"devicecode-muic/errcode"
	"devicecode-muic/services/muic/cable"
	"devicecode-muic/x/timex"
)

// MaxRounds bounds probe retransmissions within one session.
const MaxRounds = 3

var (
	ErrNoSession  = errors.New("no negotiation in the required phase")
	ErrWrongPhase = errors.New("negotiation phase does not accept this trigger")
)

// Chip is the register surface the negotiator drives.
type Chip interface {
	StartHVCheck() error
	HVReady() (bool, error)
	PrepareHV(tx byte) error
	ReadHandshake() (byte, [max77843.HVRXLen]byte, error)
	WriteTx(b byte) error
	RequestPing() error
	RequestQC(code byte) error
	SetVoltageCode(code byte) error
	QCAcked() (bool, error)
	ReadVbADC() (max77843.VbADC, error)
	FinishHV() error
	MaskHVInterrupts() error
}

// Watchdog is armed while a handshake is outstanding. Stop reports whether
// it was still pending.
type Watchdog interface {
	Arm(d time.Duration)
	Stop() bool
}

// Sleeper blocks for a settle delay. It runs inside the caller's critical
// section.
type Sleeper func(ctx context.Context, d time.Duration) error

type Timings struct {
	Watchdog time.Duration
	Settle   time.Duration // after the ping request
	QCSettle time.Duration // after a QC voltage request
	VDNMon   time.Duration // boot-time VDNMON settle
}

func DefaultTimings() Timings {
	return Timings{
		Watchdog: 2 * time.Second,
		Settle:   400 * time.Millisecond,
		QCSettle: 300 * time.Millisecond,
		VDNMon:   30 * time.Millisecond,
	}
}

type Config struct {
	TxProbe uint8
	Tier    Tier
	Timings Timings
}

// Result tells the dispatcher whether a step produced a kind to publish.
type Result struct {
	Emit    bool
	Kind    cable.Kind
	Outcome errcode.Code
}

func emit(k cable.Kind, oc errcode.Code) Result { return Result{Emit: true, Kind: k, Outcome: oc} }

// Negotiator owns the single Session. It is not safe for concurrent use;
// the dispatcher serialises every call.
type Negotiator struct {
	chip  Chip
	wd    Watchdog
	sleep Sleeper
	t     Timings
	tx    uint8
	tier  Tier

	sess *Session
}

func New(chip Chip, wd Watchdog, sleep Sleeper, cfg Config) *Negotiator {
	if sleep == nil {
		sleep = timex.Sleep
	}
	if cfg.TxProbe == 0 {
		cfg.TxProbe = max77843.DefaultTxProbe
	}
	if cfg.Timings == (Timings{}) {
		cfg.Timings = DefaultTimings()
	}
	return &Negotiator{
		chip:  chip,
		wd:    wd,
		sleep: sleep,
		t:     cfg.Timings,
		tx:    cfg.TxProbe,
		tier:  cfg.Tier,
	}
}

func (n *Negotiator) SetTier(t Tier)     { n.tier = t }
func (n *Negotiator) Tier() Tier         { return n.tier }
func (n *Negotiator) SetTxProbe(b uint8) { n.tx = b }

// SetTimings applies to the next wait; a zero field keeps its value.
func (n *Negotiator) SetTimings(t Timings) {
	if t.Watchdog > 0 {
		n.t.Watchdog = t.Watchdog
	}
	if t.Settle > 0 {
		n.t.Settle = t.Settle
	}
	if t.QCSettle > 0 {
		n.t.QCSettle = t.QCSettle
	}
	if t.VDNMon > 0 {
		n.t.VDNMon = t.VDNMon
	}
}

// Session returns a copy of the current session.
func (n *Negotiator) Session() (Session, bool) {
	if n.sess == nil {
		return Session{}, false
	}
	return *n.sess, true
}

// Active reports a session that has not reached a terminal phase.
func (n *Negotiator) Active() bool { return n.sess != nil && !n.sess.Phase.Terminal() }

// Done returns the kind of a finished session, or cable.None.
func (n *Negotiator) Done() cable.Kind {
	if n.sess == nil || !n.sess.Phase.Terminal() {
		return cable.None
	}
	return n.sess.Result
}

// Cancel stops the watchdog and drops the session.
func (n *Negotiator) Cancel() {
	n.wd.Stop()
	if n.sess != nil {
		println("[afc] cancel in phase", n.sess.Phase.String())
	}
	n.sess = nil
}

// Begin replaces any session with a new one and starts the D+/D- check.
// The watchdog runs from here so a charger that never clears VDNMON still
// ends as TA. On the boot pass no VDNMON interrupt will come, so Prepare
// runs inline after the settle delay.
func (n *Negotiator) Begin(ctx context.Context, initial bool) (Result, error) {
	n.wd.Stop()
	n.sess = nil
	if err := n.chip.StartHVCheck(); err != nil {
		return Result{}, errcode.Wrap(errcode.Transport, "afc.begin", err)
	}
	n.sess = &Session{Phase: Idle, TxProbe: n.tx, Tier: n.tier}
	n.arm()
	println("[afc] begin tier", n.tier.String())
	if !initial {
		return Result{}, nil
	}
	if err := n.sleep(ctx, n.t.VDNMon); err != nil {
		return Result{}, err
	}
	return n.Prepare(ctx)
}

// Prepare arms the transmitter once VDNMON reports the charger ready.
func (n *Negotiator) Prepare(ctx context.Context) (Result, error) {
	if n.sess == nil {
		return Result{}, ErrNoSession
	}
	if n.sess.Phase != Idle {
		return Result{}, ErrWrongPhase
	}
	ok, err := n.chip.HVReady()
	if err != nil {
		return Result{}, errcode.Wrap(errcode.Transport, "afc.prepare", err)
	}
	if !ok {
		println("[afc] prepare: charger not ready")
		return Result{}, nil
	}
	n.sess.Phase = Preparing
	if err := n.chip.PrepareHV(n.sess.TxProbe); err != nil {
		n.sess.Phase = Idle
		return Result{}, errcode.Wrap(errcode.Transport, "afc.prepare", err)
	}
	n.arm()
	n.sess.Phase = AwaitingHandshake
	return emit(cable.HVPrepare, errcode.OK), nil
}

// Handshake consumes the MRXRDY response. prior is the kind currently
// published for this attach.
func (n *Negotiator) Handshake(ctx context.Context, prior cable.Kind) (Result, error) {
	if n.sess == nil {
		return Result{}, ErrNoSession
	}
	if n.sess.Phase != AwaitingHandshake {
		return Result{}, ErrWrongPhase
	}
	n.wd.Stop()

	if prior == cable.HVTA1A {
		if err := n.chip.FinishHV(); err != nil {
			n.arm()
			return Result{}, errcode.Wrap(errcode.Transport, "afc.handshake", err)
		}
		return n.finish(Confirmed, cable.HVTA1A, errcode.OK), nil
	}

	tx, rx, err := n.chip.ReadHandshake()
	if err != nil {
		n.arm()
		return Result{}, errcode.Wrap(errcode.Transport, "afc.handshake", err)
	}
	if rx[0] != tx {
		cand := pickCandidate(rx)
		if cand == 0 {
			println("[afc] no candidate in response, tx", tx)
			_ = n.chip.FinishHV()
			return n.finish(Aborted, cable.TA, errcode.ProtocolMismatch), nil
		}
		n.sess.Rounds++
		if n.sess.Rounds > MaxRounds {
			println("[afc] too many probe rounds")
			_ = n.chip.FinishHV()
			return n.finish(Aborted, cable.TA, errcode.ProtocolMismatch), nil
		}
		if err := n.chip.WriteTx(cand); err != nil {
			n.arm()
			return Result{}, errcode.Wrap(errcode.Transport, "afc.handshake", err)
		}
		n.sess.TxProbe = cand
	}
	return n.verify(ctx)
}

// pickCandidate returns the highest 9 V-class byte (high nibble 0x4) before
// the first zero, or 0.
func pickCandidate(rx [max77843.HVRXLen]byte) byte {
	var best byte
	for _, b := range rx {
		if b == 0 {
			break
		}
		if b&0xF0 == 0x40 && b > best {
			best = b
		}
	}
	return best
}

func (n *Negotiator) verify(ctx context.Context) (Result, error) {
	n.sess.Phase = Verifying
	if err := n.chip.RequestPing(); err != nil {
		n.retry()
		return Result{}, errcode.Wrap(errcode.Transport, "afc.verify", err)
	}
	if err := n.sleep(ctx, n.t.Settle); err != nil {
		n.retry()
		return Result{}, err
	}
	return n.sampleAndConclude("afc.verify")
}

// QuickChargeAck handles MPNACK: the charger refused AFC but speaks QC 2.0.
func (n *Negotiator) QuickChargeAck(ctx context.Context) (Result, error) {
	if n.sess == nil {
		return Result{}, ErrNoSession
	}
	if n.sess.Phase != AwaitingHandshake && n.sess.Phase != Verifying {
		return Result{}, ErrWrongPhase
	}
	if !n.wd.Stop() {
		println("[afc] qc ack after watchdog, ignored")
		return Result{}, nil
	}
	ok, err := n.chip.QCAcked()
	if err != nil {
		n.arm()
		return Result{}, errcode.Wrap(errcode.Transport, "afc.qc", err)
	}
	if !ok {
		n.arm()
		return Result{}, nil
	}
	n.sess.QC = true
	n.sess.Phase = Verifying
	if err := n.chip.RequestQC(n.sess.Tier.Code()); err != nil {
		n.retry()
		return Result{}, errcode.Wrap(errcode.Transport, "afc.qc", err)
	}
	if err := n.sleep(ctx, n.t.QCSettle); err != nil {
		n.retry()
		return Result{}, err
	}
	return n.sampleAndConclude("afc.qc")
}

// VoltageCheck is a late look at the bus voltage; only a reading in the
// target band concludes the session.
func (n *Negotiator) VoltageCheck(ctx context.Context) (Result, error) {
	if n.sess == nil {
		return Result{}, ErrNoSession
	}
	if n.sess.Phase != AwaitingHandshake && n.sess.Phase != Verifying {
		return Result{}, ErrWrongPhase
	}
	b, err := n.chip.ReadVbADC()
	if err != nil {
		return Result{}, errcode.Wrap(errcode.Transport, "afc.vbadc", err)
	}
	if Classify(b, n.sess.verifyTier()) != BandTarget {
		return Result{}, nil
	}
	n.wd.Stop()
	_ = n.chip.FinishHV()
	return n.finish(Confirmed, cable.HVTA, errcode.OK), nil
}

// Expire is the watchdog path: no usable answer arrived in time. From Idle
// the transmitter was never started, so only the HV interrupts are masked.
func (n *Negotiator) Expire(ctx context.Context) (Result, error) {
	if n.sess == nil {
		return Result{}, ErrNoSession
	}
	var err error
	switch n.sess.Phase {
	case Idle:
		println("[afc] watchdog expired, charger never ready")
		err = n.chip.SetVoltageCode(max77843.HVCodeDefault)
		if err == nil {
			err = n.chip.MaskHVInterrupts()
		}
	case AwaitingHandshake:
		println("[afc] watchdog expired after", n.sess.Rounds, "rounds")
		err = n.chip.SetVoltageCode(max77843.HVCodeDefault)
		if err == nil {
			err = n.chip.FinishHV()
		}
	default:
		return Result{}, ErrWrongPhase
	}
	res := n.finish(Aborted, cable.TA, errcode.NegotiationAborted)
	return res, errcode.Wrap(errcode.Transport, "afc.expire", err)
}

func (n *Negotiator) sampleAndConclude(op string) (Result, error) {
	b, err := n.chip.ReadVbADC()
	if err != nil {
		n.retry()
		return Result{}, errcode.Wrap(errcode.Transport, op, err)
	}
	band := Classify(b, n.sess.verifyTier())
	println("[afc]", op, "vbadc", uint8(b), band.String())

	switch band {
	case BandTarget:
		if err := n.chip.FinishHV(); err != nil {
			n.retry()
			return Result{}, errcode.Wrap(errcode.Transport, op, err)
		}
		return n.finish(Confirmed, cable.HVTA, errcode.OK), nil
	case BandNormal:
		if err := n.chip.FinishHV(); err != nil {
			n.retry()
			return Result{}, errcode.Wrap(errcode.Transport, op, err)
		}
		_ = n.chip.SetVoltageCode(max77843.HVCodeDefault)
		return n.finish(Confirmed, cable.TA, errcode.OK), nil
	case BandError:
		if err := n.chip.FinishHV(); err != nil {
			n.retry()
			return Result{}, errcode.Wrap(errcode.Transport, op, err)
		}
		return n.finish(Confirmed, cable.HVTAErr, errcode.VoltageOutOfRange), nil
	}
	n.retry()
	return Result{}, nil
}

// retry parks the session for a later trigger with the watchdog running.
func (n *Negotiator) retry() {
	n.sess.Phase = AwaitingHandshake
	n.arm()
}

func (n *Negotiator) arm() { n.wd.Arm(n.t.Watchdog) }

func (n *Negotiator) finish(p Phase, k cable.Kind, oc errcode.Code) Result {
	n.sess.Phase = p
	n.sess.Result = k
	println("[afc]", p.String(), "as", k.String())
	return emit(k, oc)
}

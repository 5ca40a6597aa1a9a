package afc

import "devicecode-muic/services/muic/cable"

type Phase uint8

const (
	Idle Phase = iota // waiting for VDNMON after StartHVCheck
	Preparing
	AwaitingHandshake
	Verifying
	Confirmed
	Aborted
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case AwaitingHandshake:
		return "awaiting_handshake"
	case Verifying:
		return "verifying"
	case Confirmed:
		return "confirmed"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// Terminal reports phases that end a session.
func (p Phase) Terminal() bool { return p == Confirmed || p == Aborted }

// Session is the one negotiation attempt of the current attach.
type Session struct {
	Phase   Phase
	TxProbe uint8
	Tier    Tier
	Rounds  int

	// QC is set once the charger answered on the QC 2.0 path.
	QC bool
	// Result is the kind reached when the session became terminal.
	Result cable.Kind
}

// verifyTier is the tier the bus voltage is judged against: AFC candidates
// are all 9 V class, QC follows the configured request.
func (s *Session) verifyTier() Tier {
	if s.QC {
		return s.Tier
	}
	return Tier9V
}

package afc

import (
	"errors"
	"strings"

	"devicecode-muic/drivers/max77843"
	"devicecode-muic/x/mathx"
)

// Tier is the requested charger output voltage.
type Tier uint8

const (
	Tier9V Tier = iota
	Tier12V
	Tier20V
	TierDefault
)

var ErrInvalidTier = errors.New("invalid voltage tier")

// Code is the HVCTRL1 request code for the tier.
func (t Tier) Code() byte {
	switch t {
	case Tier9V:
		return max77843.HVCode9V
	case Tier12V:
		return max77843.HVCode12V
	case Tier20V:
		return max77843.HVCode20V
	}
	return max77843.HVCodeDefault
}

func (t Tier) String() string {
	switch t {
	case Tier9V:
		return "9V"
	case Tier12V:
		return "12V"
	case Tier20V:
		return "20V"
	}
	return "default"
}

// ParseTier accepts "9V", "12V", "20V" and "default" (case-insensitive).
func ParseTier(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "9V", "9":
		return Tier9V, nil
	case "12V", "12":
		return Tier12V, nil
	case "20V", "20":
		return Tier20V, nil
	case "DEFAULT", "5V", "5":
		return TierDefault, nil
	}
	return TierDefault, ErrInvalidTier
}

// Band is the verdict on one VbADC bucket.
type Band uint8

const (
	BandInconclusive Band = iota // below 4 V: charger still switching
	BandTarget                   // requested tier reached
	BandNormal                   // 4-6 V: charger stayed at 5 V
	BandError                    // anything else
)

func (b Band) String() string {
	switch b {
	case BandTarget:
		return "target"
	case BandNormal:
		return "normal"
	case BandError:
		return "error"
	}
	return "inconclusive"
}

// targetRange is the inclusive bucket range of each boosted tier.
func (t Tier) targetRange() (lo, hi max77843.VbADC, ok bool) {
	switch t {
	case Tier9V:
		return max77843.Vbus8V9V, max77843.Vbus9V10V, true
	case Tier12V:
		return max77843.Vbus11V12V, max77843.Vbus12V13V, true
	case Tier20V:
		return max77843.Vbus18VUp, max77843.Vbus18VUp, true
	}
	return 0, 0, false
}

// Classify maps a VbADC bucket to a band for tier t. It is an exact table
// lookup; TierDefault has no boosted target so 4-6 V is its only success.
func Classify(b max77843.VbADC, t Tier) Band {
	b &= 0x0F
	if b == max77843.VbusBelow4V {
		return BandInconclusive
	}
	if lo, hi, ok := t.targetRange(); ok && mathx.Between(b, lo, hi) {
		return BandTarget
	}
	if mathx.Between(b, max77843.Vbus4V5V, max77843.Vbus5V6V) {
		return BandNormal
	}
	return BandError
}

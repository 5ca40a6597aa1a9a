// Package classify maps one status sample to a cable kind. It is pure: the
// same status and input always yield the same outcome.
package classify

import (
	"devicecode-muic/drivers/max77843"
	"devicecode-muic/services/muic/cable"
)

type Action uint8

const (
	Detected Action = iota
	Detach
	// DeferToNegotiation means a dedicated charger is (or will be) under HV
	// negotiation and nothing is emitted yet.
	DeferToNegotiation
	// Ignore drops the sample without touching state.
	Ignore
)

func (a Action) String() string {
	switch a {
	case Detected:
		return "detected"
	case Detach:
		return "detach"
	case DeferToNegotiation:
		return "defer"
	case Ignore:
		return "ignore"
	}
	return "unknown"
}

// Quirks are chip workarounds the dispatcher applies alongside an outcome.
type Quirks uint8

const (
	QuirkDisableChgDet Quirks = 1 << iota // OTG: stop charger detection
	QuirkForceDPDM                        // smart dock with TA
	QuirkADCAlways                        // docks that need continuous ADC
)

func (q Quirks) Has(flag Quirks) bool { return q&flag != 0 }

// FeatureSet enables optional accessories at runtime.
type FeatureSet uint16

const (
	FeatSmartDock FeatureSet = 1 << iota
	FeatHMT
	FeatMultimediaDock
	FeatDeskDock
	FeatAudioDock
	FeatIncompatible
	FeatQuickCharge
	FeatFactory
)

const DefaultFeatures = FeatSmartDock | FeatHMT | FeatMultimediaDock | FeatDeskDock |
	FeatAudioDock | FeatIncompatible | FeatQuickCharge

func (f FeatureSet) Has(flag FeatureSet) bool { return f&flag != 0 }

// Input is the slice of driver context the classifier may look at.
type Input struct {
	Prior       cable.Kind
	HVDone      cable.Kind // result of a finished negotiation this attach, or None
	HVActive    bool
	AFCDisabled bool
	OTGTest     bool
	Features    FeatureSet
	Initial     bool // first pass after boot, no interrupt seen yet
}

type Outcome struct {
	Action Action
	Kind   cable.Kind
	Quirks Quirks
}

func detected(k cable.Kind) Outcome { return Outcome{Action: Detected, Kind: k} }
func detachOutcome() Outcome        { return Outcome{Action: Detach, Kind: cable.None} }
func deferred(k cable.Kind) Outcome { return Outcome{Action: DeferToNegotiation, Kind: k} }

func withQuirk(o Outcome, q Quirks) Outcome {
	o.Quirks |= q
	return o
}

// Classify runs the priority rules in order; the first match wins.
func Classify(st max77843.RawStatus, in Input) Outcome {
	if st.ADC == max77843.ADCOpen && st.ChgTyp == max77843.ChgTypNoVoltage {
		return detachOutcome()
	}
	if in.Prior == cable.HMT && in.Features.Has(FeatHMT) &&
		st.ADC != max77843.ADCOpen && st.ADC != max77843.ADCHMT {
		return Outcome{Action: Ignore, Kind: in.Prior}
	}

	if st.ADC1K {
		if st.VBVolt {
			return detected(cable.MHLVB)
		}
		return detected(cable.MHL)
	}

	if in.Prior == cable.HVTA1A {
		return detected(cable.HVTA1A)
	}

	c := coarseOf(st.ADC, in.Features)
	if o, ok := refine(c, st, in); ok {
		return o
	}
	return fallback(st, in)
}

// fallback covers unknown or disabled ADC codes.
func fallback(st max77843.RawStatus, in Input) Outcome {
	if !st.VBVolt {
		return detachOutcome()
	}
	if in.Prior == cable.HVTA || in.Prior == cable.HVTAErr {
		return detected(cable.HVTA1A)
	}
	return detected(cable.TA)
}

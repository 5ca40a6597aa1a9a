package classify

import (
	"devicecode-muic/drivers/max77843"
	"devicecode-muic/services/muic/cable"
)

// coarse is the stage-1 class of an ADC code.
type coarse uint8

const (
	cUnknown coarse = iota
	cGND
	cSmartDock
	cHMT
	cAudioDock
	cMultimediaDock
	cDeskDock
	cChargingCable
	cJigUARTOff
	cJigUARTOn
	cJigUSBOff
	cJigUSBOn
	cCEA936Type1
	cOpen
	cCEA936Type2
	cIncompatible
)

type stage1 struct {
	class coarse
	need  FeatureSet // 0 == always available
}

var adcTable = [32]stage1{
	max77843.ADCGnd:            {cGND, 0},
	max77843.ADCSmartDock:      {cSmartDock, FeatSmartDock},
	max77843.ADCHMT:            {cHMT, FeatHMT},
	max77843.ADCAudioDock:      {cAudioDock, FeatAudioDock},
	max77843.ADCMultimediaDock: {cMultimediaDock, FeatMultimediaDock},
	max77843.ADCDeskDock:       {cDeskDock, FeatDeskDock},
	max77843.ADCChargingCable:  {cChargingCable, 0},
	max77843.ADCJigUARTOff:     {cJigUARTOff, 0},
	max77843.ADCJigUARTOn:      {cJigUARTOn, 0},
	max77843.ADCJigUSBOff:      {cJigUSBOff, 0},
	max77843.ADCJigUSBOn:       {cJigUSBOn, 0},
	max77843.ADCCEA936Type1:    {cCEA936Type1, 0},
	max77843.ADCCEA936Type2:    {cCEA936Type2, 0},
	max77843.ADCOpen:           {cOpen, 0},
	max77843.ADCIncompatible:   {cIncompatible, FeatIncompatible},
}

func coarseOf(adc max77843.ADC, f FeatureSet) coarse {
	e := adcTable[adc&0x1F]
	if e.need != 0 && !f.Has(e.need) {
		return cUnknown
	}
	if e.class == cCEA936Type2 && f.Has(FeatFactory) {
		// factory fixtures present the type-2 resistor as a USB jig
		return cJigUSBOff
	}
	return e.class
}

// refine is stage 2: coarse class × VBUS × charger type. ok == false falls
// through to the unknown-code rule.
func refine(c coarse, st max77843.RawStatus, in Input) (Outcome, bool) {
	switch c {
	case cGND:
		return withQuirk(detected(cable.USBHost), QuirkDisableChgDet), true

	case cSmartDock:
		o := detected(cable.SmartDock)
		switch st.ChgTyp {
		case max77843.ChgTypDedicated:
			o = withQuirk(detected(cable.SmartDockTA), QuirkForceDPDM)
		case max77843.ChgTypUSB:
			o = detected(cable.SmartDockUSB)
		}
		return withQuirk(o, QuirkADCAlways), true

	case cHMT:
		return withQuirk(detected(cable.HMT), QuirkADCAlways), true

	case cMultimediaDock:
		if st.VBVolt {
			return detected(cable.MultimediaDock), true
		}
		return detachOutcome(), true

	case cAudioDock:
		return detected(cable.AudioDock), true

	case cDeskDock:
		if st.VBVolt {
			return detected(cable.DeskDockVB), true
		}
		return detected(cable.DeskDock), true

	case cChargingCable:
		return detected(cable.ChargingCable), true

	case cJigUARTOff:
		if !st.VBVolt {
			return detected(cable.JigUARTOff), true
		}
		if in.OTGTest {
			return detected(cable.USBHost5V), true
		}
		return detected(cable.JigUARTOffVB), true

	case cJigUARTOn:
		if in.Features.Has(FeatFactory) {
			return detected(cable.DeskDock), true
		}
		return detected(cable.JigUARTOn), true

	case cJigUSBOff, cJigUSBOn:
		if !st.VBVolt {
			return detachOutcome(), true
		}
		if c == cJigUSBOff {
			return detected(cable.JigUSBOff), true
		}
		return detected(cable.JigUSBOn), true

	case cCEA936Type1:
		switch {
		case st.ChgTyp == max77843.ChgTypUSB:
			return detected(cable.USB), true
		case st.ChgTyp == max77843.ChgTypDownPort:
			return detected(cable.ChargeDownstream), true
		case st.ChgTyp.IsDedicatedClass():
			return detected(cable.TA), true
		}
		return detachOutcome(), true

	case cOpen, cCEA936Type2:
		if !st.VBVolt {
			return detachOutcome(), true
		}
		switch {
		case st.ChgTyp == max77843.ChgTypUSB:
			if c == cCEA936Type2 {
				return detected(cable.CEA936Charger), true
			}
			return detected(cable.USB), true
		case st.ChgTyp == max77843.ChgTypDownPort:
			if c == cCEA936Type2 {
				return detected(cable.CEA936Charger), true
			}
			return detected(cable.ChargeDownstream), true
		case st.ChgTyp.IsDedicatedClass():
			return dedicated(st, in), true
		}
		return detachOutcome(), true

	case cIncompatible:
		if st.VBVolt {
			return detected(cable.Incompatible), true
		}
		return detachOutcome(), true
	}
	return Outcome{}, false
}

// dedicated decides between a plain TA and HV negotiation.
func dedicated(st max77843.RawStatus, in Input) Outcome {
	switch {
	case in.AFCDisabled:
		return detected(cable.TA)
	case in.HVDone != cable.None:
		return detected(in.HVDone)
	case in.HVActive:
		return deferred(cable.HVPrepare)
	case st.ChgTyp == max77843.ChgTypDedicated || in.Initial:
		return deferred(cable.HVPrepare)
	}
	return detected(cable.TA)
}

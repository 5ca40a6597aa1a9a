package muic

import (
	"errors"
	"time"

	"devicecode-muic/drivers/max77843"
	"devicecode-muic/errcode"
	"devicecode-muic/services/muic/afc"
	"devicecode-muic/services/muic/classify"
	"devicecode-muic/services/muic/path"
	"devicecode-muic/types"
	"devicecode-muic/x/mathx"
	"devicecode-muic/x/timex"
)

var ErrInvalidProbe = errors.New("tx probe must be a 9 V class byte")

type Config struct {
	AFCDisabled bool
	OneShotADC  bool
	OTGTest     bool
	Tier        afc.Tier
	TxProbe     uint8
	Path        path.Config
	Features    classify.FeatureSet
	Timings     afc.Timings

	// Boot detection: wait InitDelay, then poll Ready every PollInterval
	// up to PollRetries times before the first pass.
	InitDelay    time.Duration
	PollInterval time.Duration
	PollRetries  int
	Ready        func() bool

	QueueLen int
	// Sleep overrides the settle sleeper (tests).
	Sleep afc.Sleeper
}

func DefaultConfig() Config {
	return Config{
		Tier:         afc.Tier9V,
		Path:         path.DefaultConfig(),
		Features:     classify.DefaultFeatures,
		Timings:      afc.DefaultTimings(),
		InitDelay:    3 * time.Second,
		PollInterval: time.Second,
		PollRetries:  10,
		QueueLen:     16,
	}
}

// DriverConfig is the chip start-up config that matches c.
func (c Config) DriverConfig() max77843.Config {
	d := max77843.DefaultConfig()
	d.QuickCharge = c.Features.Has(classify.FeatQuickCharge)
	return d
}

// ConfigFrom converts a board document on top of base. Unset timings,
// uart_enabled and feature flags keep the base values.
func ConfigFrom(doc types.MuicConfig, base Config) (Config, error) {
	c := base
	c.AFCDisabled = doc.AFCDisabled
	c.OneShotADC = doc.OneShotADC
	c.OTGTest = doc.OTGTest
	if doc.UARTEnabled != nil {
		c.Path.UARTEnabled = *doc.UARTEnabled
	}

	var err error
	if doc.USBPath != "" {
		if c.Path.USBAux, err = path.ParseUSBPath(doc.USBPath); err != nil {
			return base, errcode.Wrap(errcode.InvalidConfig, "usb_path", err)
		}
	}
	if doc.UARTPath != "" {
		if c.Path.UARTAux, err = path.ParseUARTPath(doc.UARTPath); err != nil {
			return base, errcode.Wrap(errcode.InvalidConfig, "uart_path", err)
		}
	}
	if doc.VoltageTier != "" {
		if c.Tier, err = afc.ParseTier(doc.VoltageTier); err != nil {
			return base, errcode.Wrap(errcode.InvalidConfig, "voltage_tier", err)
		}
	}
	if doc.TxProbe != 0 {
		if doc.TxProbe&0xF0 != 0x40 {
			return base, errcode.Wrap(errcode.InvalidConfig, "tx_probe", ErrInvalidProbe)
		}
		c.TxProbe = doc.TxProbe
	}
	c.Features = featuresFrom(doc.Features, base.Features)

	t := doc.Timings
	setMs(&c.Timings.Watchdog, t.WatchdogMs, 100, 60000)
	setMs(&c.Timings.Settle, t.SettleMs, 10, 5000)
	setMs(&c.Timings.QCSettle, t.QCSettleMs, 10, 5000)
	setMs(&c.Timings.VDNMon, t.VDNMonMs, 1, 1000)
	setMs(&c.InitDelay, t.InitDelayMs, 0, 60000)
	setMs(&c.PollInterval, t.PollMs, 10, 10000)
	if t.PollRetries > 0 {
		c.PollRetries = mathx.Clamp(t.PollRetries, 1, 100)
	}
	return c, nil
}

func setMs(dst *time.Duration, ms, lo, hi uint32) {
	if ms == 0 {
		return
	}
	*dst = timex.Millis(mathx.Clamp(ms, lo, hi))
}

func featuresFrom(f types.MuicFeatures, fs classify.FeatureSet) classify.FeatureSet {
	set := func(on *bool, flag classify.FeatureSet) {
		switch {
		case on == nil:
		case *on:
			fs |= flag
		default:
			fs &^= flag
		}
	}
	set(f.SmartDock, classify.FeatSmartDock)
	set(f.HMT, classify.FeatHMT)
	set(f.MultimediaDock, classify.FeatMultimediaDock)
	set(f.DeskDock, classify.FeatDeskDock)
	set(f.AudioDock, classify.FeatAudioDock)
	set(f.Incompatible, classify.FeatIncompatible)
	set(f.QuickCharge, classify.FeatQuickCharge)
	set(f.Factory, classify.FeatFactory)
	return fs
}

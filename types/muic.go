package types

// ---- MUIC events (muic/cable/<name>/event) ----

type CableEvent struct {
	Name     string `json:"name"`     // bit name, e.g. "HV-TA"
	Attached bool   `json:"attached"` // false on detach
	Kind     string `json:"kind"`     // label of the kind that produced the transition
	TSms     int64  `json:"ts_ms"`
}

// ---- MUIC state (retained on muic/state) ----

type MuicState struct {
	Device      string `json:"device"`       // kind label, "No cable" when detached
	ADC         string `json:"adc"`          // raw ADC code, "0x1F"
	Path        string `json:"path"`         // "OPEN", "USB-AP", ...
	USBState    string `json:"usb_state"`    // USB_STATE_CONFIGURED / USB_STATE_NOTCONFIGURED
	ChargerType string `json:"charger_type"` // "0", "1", "2" or "UNKNOWN"
	AFCDisabled bool   `json:"afc_disabled"`
	UARTEnabled bool   `json:"uart_enabled"`
	USBSel      string `json:"usb_sel"`  // PDA / MODEM
	UARTSel     string `json:"uart_sel"` // AP / CP2
	Tier        string `json:"voltage_tier"`
	OTGTest     bool   `json:"otg_test"`
	Jig         bool   `json:"jig"`
	Drops       uint32 `json:"drops,omitempty"` // triggers lost to a full queue
	TS          int64  `json:"ts_ms"`
}

// ---- MUIC configuration (config/muic) ----

// MuicFeatures switches optional accessories. An omitted flag keeps the
// running value.
type MuicFeatures struct {
	SmartDock      *bool `yaml:"smart_dock" json:"smart_dock,omitempty"`
	HMT            *bool `yaml:"hmt" json:"hmt,omitempty"`
	MultimediaDock *bool `yaml:"multimedia_dock" json:"multimedia_dock,omitempty"`
	DeskDock       *bool `yaml:"desk_dock" json:"desk_dock,omitempty"`
	AudioDock      *bool `yaml:"audio_dock" json:"audio_dock,omitempty"`
	Incompatible   *bool `yaml:"incompatible" json:"incompatible,omitempty"`
	QuickCharge    *bool `yaml:"quick_charge" json:"quick_charge,omitempty"`
	Factory        *bool `yaml:"factory" json:"factory,omitempty"`
}

type MuicTimings struct {
	WatchdogMs  uint32 `yaml:"watchdog_ms" json:"watchdog_ms"`
	SettleMs    uint32 `yaml:"settle_ms" json:"settle_ms"`
	QCSettleMs  uint32 `yaml:"qc_settle_ms" json:"qc_settle_ms"`
	VDNMonMs    uint32 `yaml:"vdnmon_ms" json:"vdnmon_ms"`
	InitDelayMs uint32 `yaml:"init_delay_ms" json:"init_delay_ms"`
	PollMs      uint32 `yaml:"poll_ms" json:"poll_ms"`
	PollRetries int    `yaml:"poll_retries" json:"poll_retries"`
}

// MuicConfig is the board document. Bus, address and pin are consumed by
// the entry points; the rest is applied by the MUIC service at runtime.
type MuicConfig struct {
	I2CBus string `yaml:"i2c_bus" json:"i2c_bus"`
	Addr   uint16 `yaml:"addr" json:"addr"`
	IRQPin string `yaml:"irq_pin" json:"irq_pin"`

	AFCDisabled bool   `yaml:"afc_disabled" json:"afc_disabled"`
	UARTEnabled *bool  `yaml:"uart_enabled" json:"uart_enabled,omitempty"` // nil keeps the running value
	USBPath     string `yaml:"usb_path" json:"usb_path"`
	UARTPath    string `yaml:"uart_path" json:"uart_path"`
	VoltageTier string `yaml:"voltage_tier" json:"voltage_tier"`
	OneShotADC  bool   `yaml:"oneshot_adc" json:"oneshot_adc"`
	OTGTest     bool   `yaml:"otg_test" json:"otg_test"`
	TxProbe     uint8  `yaml:"tx_probe" json:"tx_probe"`

	Features MuicFeatures `yaml:"features" json:"features"`
	Timings  MuicTimings  `yaml:"timings" json:"timings"`
}

// ---- MUIC control replies ----

type MuicAck struct {
	OK    bool      `json:"ok"`
	State MuicState `json:"state"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"` // errcode value
}

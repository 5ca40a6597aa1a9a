package config

// Embedded board configuration.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw YAML for that device

const cfgPico = `
muic:
  i2c_bus: I2C0
  addr: 0x25
  irq_pin: GP21
  uart_enabled: true
  usb_path: AP
  uart_path: AP
  voltage_tier: 9V
  features:
    desk_dock: true
    audio_dock: true
    incompatible: true
    quick_charge: true
  timings:
    init_delay_ms: 3000
    poll_ms: 1000
    poll_retries: 10
`

const cfgLinux = `
muic:
  i2c_bus: "1"
  addr: 0x25
  irq_pin: GPIO17
  uart_enabled: true
  usb_path: AP
  uart_path: AP
  voltage_tier: 9V
  features:
    smart_dock: true
    hmt: true
    multimedia_dock: true
    desk_dock: true
    audio_dock: true
    incompatible: true
    quick_charge: true
  timings:
    watchdog_ms: 3000
    init_delay_ms: 500
`

var embeddedConfigs = map[string][]byte{
	"pico":  []byte(cfgPico),
	"linux": []byte(cfgLinux),
}

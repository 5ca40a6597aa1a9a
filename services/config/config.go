package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"devicecode-muic/bus"
	"devicecode-muic/drivers/max77843"
	"devicecode-muic/services/muic/afc"
	"devicecode-muic/services/muic/path"
	"devicecode-muic/types"
	"devicecode-muic/x/strx"

	"gopkg.in/yaml.v3"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Document is the board configuration file. Each top-level section is
// published retained under config/<section>.
type Document struct {
	Muic types.MuicConfig `yaml:"muic"`
}

// Parse decodes raw YAML, rejects unknown keys, then validates and
// normalizes the result.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	Normalize(&doc)
	return &doc, nil
}

// Load reads and parses a YAML file.
func Load(file string) (*Document, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(doc *Document) error {
	if doc == nil {
		return errors.New("config: nil document")
	}
	m := &doc.Muic

	if m.Addr > 0x7F {
		return fmt.Errorf("muic: addr 0x%X is not a 7-bit address", m.Addr)
	}
	if m.USBPath != "" {
		if _, err := path.ParseUSBPath(m.USBPath); err != nil {
			return fmt.Errorf("muic: usb_path %q: %w", m.USBPath, err)
		}
	}
	if m.UARTPath != "" {
		if _, err := path.ParseUARTPath(m.UARTPath); err != nil {
			return fmt.Errorf("muic: uart_path %q: %w", m.UARTPath, err)
		}
	}
	if m.VoltageTier != "" {
		if _, err := afc.ParseTier(m.VoltageTier); err != nil {
			return fmt.Errorf("muic: voltage_tier %q: %w", m.VoltageTier, err)
		}
	}
	// TX probe must announce a 9 V class request.
	if m.TxProbe != 0 && m.TxProbe&0xF0 != 0x40 {
		return fmt.Errorf("muic: tx_probe 0x%02X must be in 0x40..0x4F", m.TxProbe)
	}
	if m.Timings.PollRetries < 0 {
		return fmt.Errorf("muic: timings.poll_retries %d is negative", m.Timings.PollRetries)
	}
	return nil
}

// Normalize fills defaults and canonicalizes labels.
// It MUST be called only after Validate().
func Normalize(doc *Document) {
	if doc == nil {
		return
	}
	m := &doc.Muic
	if m.Addr == 0 {
		m.Addr = max77843.AddressDefault
	}
	m.USBPath = strings.ToUpper(strings.TrimSpace(strx.Coalesce(m.USBPath, "AP")))
	m.UARTPath = strings.ToUpper(strings.TrimSpace(strx.Coalesce(m.UARTPath, "AP")))
	if t, err := afc.ParseTier(strx.Coalesce(m.VoltageTier, "9V")); err == nil {
		m.VoltageTier = t.String()
	}
	m.IRQPin = strings.TrimSpace(m.IRQPin)
	m.I2CBus = strings.TrimSpace(m.I2CBus)
}

// ---- Config Service ----

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// Resolve returns the parsed document for the device in ctx.
func Resolve(ctx context.Context) (*Document, error) {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return nil, errors.New("missing device ID in context")
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return nil, errors.New("no embedded config for device: " + device)
	}
	return Parse(raw)
}

// publishConfig resolves the device config and publishes each section as
// a retained message.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	doc, err := Resolve(ctx)
	if err != nil {
		return err
	}
	conn.Publish(&bus.Message{
		Topic:    bus.T(configPrefix, "muic"),
		Payload:  doc.Muic,
		Retained: true,
	})
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config]", err.Error())
		}
	}()
}

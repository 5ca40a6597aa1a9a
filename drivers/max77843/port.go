package max77843

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Port is the register transport the MUIC logic runs on. Every call may
// fail with a transport error.
type Port interface {
	Read(reg byte) (byte, error)
	Write(reg, val byte) error
	UpdateMasked(reg, val, mask byte) error
	BulkRead(reg byte, buf []byte) error
}

var ErrBulkTooLong = errors.New("bulk read exceeds register window")

// i2cPort implements Port over a TinyGo-compatible I2C bus.
type i2cPort struct {
	bus  drivers.I2C
	addr uint16

	// Fixed buffers to avoid per-call heap allocations.
	w [2]byte
	r [1]byte
}

// NewI2CPort binds a Port to an I2C bus. addr==0 selects AddressDefault.
func NewI2CPort(bus drivers.I2C, addr uint16) Port {
	if addr == 0 {
		addr = AddressDefault
	}
	return &i2cPort{bus: bus, addr: addr}
}

func (p *i2cPort) Read(reg byte) (byte, error) {
	p.w[0] = reg
	if err := p.bus.Tx(p.addr, p.w[:1], p.r[:]); err != nil {
		return 0, err
	}
	return p.r[0], nil
}

func (p *i2cPort) Write(reg, val byte) error {
	p.w[0] = reg
	p.w[1] = val
	return p.bus.Tx(p.addr, p.w[:2], nil)
}

// UpdateMasked is a read-modify-write touching only the bits in mask.
func (p *i2cPort) UpdateMasked(reg, val, mask byte) error {
	cur, err := p.Read(reg)
	if err != nil {
		return err
	}
	return p.Write(reg, (cur&^mask)|(val&mask))
}

func (p *i2cPort) BulkRead(reg byte, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if int(reg)+len(buf) > 0x100 {
		return ErrBulkTooLong
	}
	p.w[0] = reg
	return p.bus.Tx(p.addr, p.w[:1], buf)
}

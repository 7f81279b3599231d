package i2c

import (
	"fmt"
	"time"
)

// Transport binds a Bus to one selected device address and exposes the
// register-level operations the sensor drivers consume (see bno055.Bus).
//
// Create one Transport per sensor; Enable rebinds it.
type Transport struct {
	bus *Bus
	dev *Dev

	sleep func(time.Duration)
}

func NewTransport(bus *Bus) *Transport {
	return &Transport{bus: bus, sleep: time.Sleep}
}

// Enable selects the 7-bit device address used by subsequent calls.
func (t *Transport) Enable(addr uint16) error {
	if t == nil || t.bus == nil {
		return fmt.Errorf("i2c: transport bus is nil")
	}
	if addr == 0 || addr > 0x7F {
		return fmt.Errorf("invalid i2c addr 0x%X", addr)
	}
	dev := t.bus.Dev(addr)
	if dev == nil {
		return fmt.Errorf("i2c: no device handle for addr 0x%X", addr)
	}
	t.dev = dev
	return nil
}

func (t *Transport) device() (*Dev, error) {
	if t == nil || t.dev == nil {
		return nil, fmt.Errorf("i2c: transport not enabled")
	}
	return t.dev, nil
}

func (t *Transport) ReadByte(reg byte) (byte, error) {
	d, err := t.device()
	if err != nil {
		return 0, err
	}
	return d.ReadRegU8(reg)
}

func (t *Transport) WriteByte(reg, value byte) error {
	d, err := t.device()
	if err != nil {
		return err
	}
	return d.WriteReg(reg, value)
}

func (t *Transport) ReadBlock(reg byte, n int) ([]byte, error) {
	d, err := t.device()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if err := d.ReadReg(reg, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (t *Transport) WriteBlock(reg byte, data []byte) error {
	d, err := t.device()
	if err != nil {
		return err
	}
	return d.WriteRegs(reg, data)
}

func (t *Transport) Delay(d time.Duration) {
	if t == nil || t.sleep == nil {
		time.Sleep(d)
		return
	}
	t.sleep(d)
}

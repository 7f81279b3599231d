// Package bno055 drives the Bosch BNO055 absolute orientation sensor.
//
// The device carries an accelerometer, gyroscope and magnetometer plus a
// fusion co-processor. This package only exposes what the co-processor
// produces; it does no filtering of its own.
//
// A Device is not safe for concurrent use. Callers sharing one handle across
// goroutines must serialize calls themselves.
package bno055

import (
	"errors"
	"fmt"
	"time"
)

// Mandatory waits from the datasheet.
const (
	resetDelay    = 650 * time.Millisecond
	modeDelay     = 30 * time.Millisecond
	selfTestDelay = 1000 * time.Millisecond
)

// ErrChipID is returned by Init when CHIP_ID does not read back 0xA0.
var ErrChipID = errors.New("bno055: unexpected chip id")

// Bus is the two-wire transport the driver runs on.
// Implementations report bus faults as errors; the driver passes them
// through unchanged apart from wrapping.
type Bus interface {
	Enable(addr uint16) error
	ReadByte(reg byte) (byte, error)
	WriteByte(reg, value byte) error
	ReadBlock(reg byte, n int) ([]byte, error)
	WriteBlock(reg byte, data []byte) error
	Delay(d time.Duration)
}

type Device struct {
	bus  Bus
	addr uint16

	// mode is the operation mode restored after every config-mode bracket.
	mode Mode
}

// New returns a handle on bus. addr 0 selects DefaultAddress.
// The bus is borrowed; New does not touch the device.
func New(bus Bus, addr uint16) (*Device, error) {
	if bus == nil {
		return nil, fmt.Errorf("bno055: bus is nil")
	}
	if addr == 0 {
		addr = addrA
	}
	return &Device{bus: bus, addr: addr, mode: ModeNDOF}, nil
}

func (d *Device) Address() uint16 { return d.addr }

// Mode returns the stored operation mode.
func (d *Device) Mode() Mode { return d.mode }

// Init probes and resets the device and leaves it running in mode.
//
// A CHIP_ID mismatch returns an error wrapping ErrChipID. By then the page
// select and the switch to config mode have already been issued.
func (d *Device) Init(mode Mode) error {
	if err := d.bus.Enable(d.addr); err != nil {
		return fmt.Errorf("bno055: enable 0x%02X failed: %w", d.addr, err)
	}
	if err := d.writeByte(regPageID, 0); err != nil {
		return err
	}
	if err := d.ConfigMode(); err != nil {
		return err
	}
	if err := d.writeByte(regPageID, 0); err != nil {
		return err
	}

	id, err := d.readByte(regChipID)
	if err != nil {
		return err
	}
	if id != chipID {
		return fmt.Errorf("%w: 0x%02X want 0x%02X", ErrChipID, id, chipID)
	}

	if err := d.writeByte(regSysTrigger, trigResetSys); err != nil {
		return err
	}
	d.bus.Delay(resetDelay)
	if err := d.writeByte(regPwrMode, byte(PowerNormal)); err != nil {
		return err
	}
	if err := d.writeByte(regSysTrigger, 0x00); err != nil {
		return err
	}
	if err := d.SetMode(mode); err != nil {
		return err
	}
	d.mode = mode
	return nil
}

// SetMode writes OPR_MODE and waits for the transition to settle.
// It does not change the stored operation mode.
func (d *Device) SetMode(m Mode) error {
	if err := d.writeByte(regOprMode, byte(m)); err != nil {
		return err
	}
	d.bus.Delay(modeDelay)
	return nil
}

func (d *Device) ConfigMode() error { return d.SetMode(ModeConfig) }

// OperationMode switches back to the stored operation mode.
func (d *Device) OperationMode() error { return d.SetMode(d.mode) }

// withConfigMode runs fn in config mode and restores the operation mode on
// every exit path. Without the restore the device stops producing output.
func (d *Device) withConfigMode(fn func() error) error {
	if err := d.ConfigMode(); err != nil {
		return err
	}
	err := fn()
	if rerr := d.OperationMode(); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}

func (d *Device) Revision() (Revision, error) {
	var regs [6]byte
	for i, reg := range []byte{regAccelRev, regMagRev, regGyroRev, regBLRev, regSWRevLSB, regSWRevMSB} {
		v, err := d.readByte(reg)
		if err != nil {
			return Revision{}, err
		}
		regs[i] = v
	}
	return Revision{
		Software:   uint16(regs[5])<<8 | uint16(regs[4]),
		Bootloader: regs[3],
		Accel:      regs[0],
		Mag:        regs[1],
		Gyro:       regs[2],
	}, nil
}

// SetExternalCrystal selects the external 32kHz crystal (true) or the
// internal oscillator.
func (d *Device) SetExternalCrystal(external bool) error {
	v := byte(0x00)
	if external {
		v = trigExtCrystal
	}
	return d.withConfigMode(func() error {
		return d.writeByte(regSysTrigger, v)
	})
}

// SetPowerMode writes PWR_MODE. The register is only writable in config mode.
func (d *Device) SetPowerMode(p PowerMode) error {
	return d.withConfigMode(func() error {
		return d.writeByte(regPwrMode, byte(p))
	})
}

// SystemStatus reads SYS_STAT and SYS_ERR, optionally running the power-on
// self test first. SelfTest is -1 unless runSelfTest is set.
//
// SYS_ERR is read from its own register (0x3A). Ports that read SYS_STAT
// twice report the status code in both fields.
func (d *Device) SystemStatus(runSelfTest bool) (SystemStatus, error) {
	st := SystemStatus{SelfTest: -1}
	if runSelfTest {
		err := d.withConfigMode(func() error {
			trig, err := d.readByte(regSysTrigger)
			if err != nil {
				return err
			}
			if err := d.writeByte(regSysTrigger, trig|trigSelfTest); err != nil {
				return err
			}
			d.bus.Delay(selfTestDelay)
			res, err := d.readByte(regSelfTestResult)
			if err != nil {
				return err
			}
			st.SelfTest = int(res)
			return nil
		})
		if err != nil {
			return SystemStatus{}, err
		}
	}

	status, err := d.readByte(regSysStat)
	if err != nil {
		return SystemStatus{}, err
	}
	sysErr, err := d.readByte(regSysErr)
	if err != nil {
		return SystemStatus{}, err
	}
	st.Status = int(status)
	st.Error = int(sysErr)
	return st, nil
}

func (d *Device) CalibrationStatus() (CalibrationStatus, error) {
	b, err := d.readByte(regCalibStat)
	if err != nil {
		return CalibrationStatus{}, err
	}
	return decodeCalibStatus(b), nil
}

// Calibration reads the offset/radius block.
func (d *Device) Calibration() (Calibration, error) {
	var c Calibration
	err := d.withConfigMode(func() error {
		buf, err := d.readBlock(regAccelOffsetXLSB, calibLen)
		if err != nil {
			return err
		}
		copy(c[:], buf)
		return nil
	})
	if err != nil {
		return Calibration{}, err
	}
	return c, nil
}

// SetCalibration writes a profile previously read from the same unit.
func (d *Device) SetCalibration(c Calibration) error {
	return d.withConfigMode(func() error {
		return d.writeBlock(regAccelOffsetXLSB, c[:])
	})
}

func (d *Device) AxisRemap() (AxisRemap, error) {
	config, err := d.readByte(regAxisMapConfig)
	if err != nil {
		return AxisRemap{}, err
	}
	sign, err := d.readByte(regAxisMapSign)
	if err != nil {
		return AxisRemap{}, err
	}
	return decodeAxisRemap(config, sign), nil
}

// SetAxisRemap writes AXIS_MAP_CONFIG and AXIS_MAP_SIGN. Invalid
// combinations are forwarded as-is; the device then keeps its previous map.
func (d *Device) SetAxisRemap(r AxisRemap) error {
	config, sign := r.encode()
	return d.withConfigMode(func() error {
		if err := d.writeByte(regAxisMapConfig, config); err != nil {
			return err
		}
		return d.writeByte(regAxisMapSign, sign)
	})
}

// ReadVector reads count little-endian int16 values starting at reg.
func (d *Device) ReadVector(reg byte, count int) ([]int16, error) {
	buf, err := d.readBlock(reg, count*2)
	if err != nil {
		return nil, err
	}
	if len(buf) < count*2 {
		return nil, fmt.Errorf("bno055: short read at 0x%02X: got %d bytes want %d", reg, len(buf), count*2)
	}
	out := make([]int16, count)
	for i := range out {
		out[i] = le16(buf[i*2], buf[i*2+1])
	}
	return out, nil
}

func (d *Device) readScaled(reg byte, div float64) (Vector, error) {
	v, err := d.ReadVector(reg, 3)
	if err != nil {
		return Vector{}, err
	}
	return Vector{X: float64(v[0]) / div, Y: float64(v[1]) / div, Z: float64(v[2]) / div}, nil
}

// Euler returns heading, roll and pitch in degrees as X, Y, Z.
func (d *Device) Euler() (Vector, error) { return d.readScaled(regEuler, scaleEuler) }

// Magnetometer returns the magnetic field.
func (d *Device) Magnetometer() (Vector, error) { return d.readScaled(regMagData, scaleMag) }

// Gyroscope returns angular velocity in deg/s.
func (d *Device) Gyroscope() (Vector, error) { return d.readScaled(regGyroData, scaleGyro) }

// Accelerometer returns acceleration in m/s^2, gravity included.
func (d *Device) Accelerometer() (Vector, error) { return d.readScaled(regAccelData, scaleAccel) }

// LinearAcceleration returns acceleration in m/s^2 with gravity removed.
func (d *Device) LinearAcceleration() (Vector, error) {
	return d.readScaled(regLinAccel, scaleAccel)
}

// Gravity returns the gravity vector in m/s^2.
func (d *Device) Gravity() (Vector, error) { return d.readScaled(regGravity, scaleAccel) }

// Quaternion returns the unit orientation quaternion.
func (d *Device) Quaternion() (Quaternion, error) {
	v, err := d.ReadVector(regQuat, 4)
	if err != nil {
		return Quaternion{}, err
	}
	const scale = 1.0 / (1 << scaleQuatBits)
	return Quaternion{
		W: float64(v[0]) * scale,
		X: float64(v[1]) * scale,
		Y: float64(v[2]) * scale,
		Z: float64(v[3]) * scale,
	}, nil
}

// Temperature returns the die temperature in degrees C (one signed byte, unscaled).
func (d *Device) Temperature() (int, error) {
	b, err := d.readByte(regTemp)
	if err != nil {
		return 0, err
	}
	return signedByte(b), nil
}

// Read collects every output register into one Sample.
func (d *Device) Read() (Sample, error) {
	var s Sample
	var err error
	if s.Euler, err = d.Euler(); err != nil {
		return Sample{}, err
	}
	if s.Quaternion, err = d.Quaternion(); err != nil {
		return Sample{}, err
	}
	if s.LinearAccel, err = d.LinearAcceleration(); err != nil {
		return Sample{}, err
	}
	if s.Gravity, err = d.Gravity(); err != nil {
		return Sample{}, err
	}
	if s.Accel, err = d.Accelerometer(); err != nil {
		return Sample{}, err
	}
	if s.Gyro, err = d.Gyroscope(); err != nil {
		return Sample{}, err
	}
	if s.Mag, err = d.Magnetometer(); err != nil {
		return Sample{}, err
	}
	if s.TempC, err = d.Temperature(); err != nil {
		return Sample{}, err
	}
	if s.Calibration, err = d.CalibrationStatus(); err != nil {
		return Sample{}, err
	}
	s.Time = time.Now()
	return s, nil
}

func (d *Device) readByte(reg byte) (byte, error) {
	v, err := d.bus.ReadByte(reg)
	if err != nil {
		return 0, fmt.Errorf("bno055: read 0x%02X failed: %w", reg, err)
	}
	return v, nil
}

func (d *Device) writeByte(reg, value byte) error {
	if err := d.bus.WriteByte(reg, value); err != nil {
		return fmt.Errorf("bno055: write 0x%02X failed: %w", reg, err)
	}
	return nil
}

func (d *Device) readBlock(reg byte, n int) ([]byte, error) {
	buf, err := d.bus.ReadBlock(reg, n)
	if err != nil {
		return nil, fmt.Errorf("bno055: read block 0x%02X/%d failed: %w", reg, n, err)
	}
	return buf, nil
}

func (d *Device) writeBlock(reg byte, data []byte) error {
	if err := d.bus.WriteBlock(reg, data); err != nil {
		return fmt.Errorf("bno055: write block 0x%02X/%d failed: %w", reg, len(data), err)
	}
	return nil
}

func signedByte(b byte) int { return int(int8(b)) }

func le16(lo, hi byte) int16 { return int16(uint16(hi)<<8 | uint16(lo)) }

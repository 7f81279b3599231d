package bno055

import (
	"encoding/binary"
	"time"
)

type Vector struct {
	X, Y, Z float64
}

type Quaternion struct {
	W, X, Y, Z float64
}

// Revision holds the read-anytime revision registers.
type Revision struct {
	Software   uint16
	Bootloader uint8
	Accel      uint8
	Mag        uint8
	Gyro       uint8
}

// SystemStatus mirrors SYS_STAT, ST_RESULT and SYS_ERR.
// SelfTest is -1 when the self test was not run.
type SystemStatus struct {
	Status   int
	SelfTest int
	Error    int
}

// CalibrationStatus holds the 2-bit (0..3) per-subsystem levels of CALIB_STAT.
type CalibrationStatus struct {
	System uint8
	Gyro   uint8
	Accel  uint8
	Mag    uint8
}

func decodeCalibStatus(b byte) CalibrationStatus {
	return CalibrationStatus{
		System: (b >> 6) & 0x03,
		Gyro:   (b >> 4) & 0x03,
		Accel:  (b >> 2) & 0x03,
		Mag:    b & 0x03,
	}
}

func (c CalibrationStatus) FullyCalibrated() bool {
	return c.System == 3 && c.Gyro == 3 && c.Accel == 3 && c.Mag == 3
}

// Calibration is the raw 22-byte offset/radius block starting at
// ACC_OFFSET_X_LSB. Profiles are specific to one physical unit.
type Calibration [calibLen]byte

// CalibrationOffsets is the decoded form of Calibration.
type CalibrationOffsets struct {
	Accel       [3]int16
	Mag         [3]int16
	Gyro        [3]int16
	AccelRadius int16
	MagRadius   int16
}

func (c Calibration) Offsets() CalibrationOffsets {
	w := func(i int) int16 { return int16(binary.LittleEndian.Uint16(c[i*2:])) }
	return CalibrationOffsets{
		Accel:       [3]int16{w(0), w(1), w(2)},
		Mag:         [3]int16{w(3), w(4), w(5)},
		Gyro:        [3]int16{w(6), w(7), w(8)},
		AccelRadius: w(9),
		MagRadius:   w(10),
	}
}

func CalibrationFromOffsets(o CalibrationOffsets) Calibration {
	var c Calibration
	words := []int16{
		o.Accel[0], o.Accel[1], o.Accel[2],
		o.Mag[0], o.Mag[1], o.Mag[2],
		o.Gyro[0], o.Gyro[1], o.Gyro[2],
		o.AccelRadius, o.MagRadius,
	}
	for i, v := range words {
		binary.LittleEndian.PutUint16(c[i*2:], uint16(v))
	}
	return c
}

// AxisRemap maps physical axes to the output frame.
// X, Y, Z select the source axis (0=X, 1=Y, 2=Z); signs are 0 (positive) or 1 (negative).
// The driver does not check that X, Y, Z form a permutation.
type AxisRemap struct {
	X, Y, Z             uint8
	XSign, YSign, ZSign uint8
}

// DefaultAxisRemap is the power-on mapping (P1).
var DefaultAxisRemap = AxisRemap{X: 0, Y: 1, Z: 2}

func (r AxisRemap) encode() (config, sign byte) {
	config = (r.Z&0x03)<<4 | (r.Y&0x03)<<2 | r.X&0x03
	sign = (r.XSign&0x01)<<2 | (r.YSign&0x01)<<1 | r.ZSign&0x01
	return config, sign
}

func decodeAxisRemap(config, sign byte) AxisRemap {
	return AxisRemap{
		X:     config & 0x03,
		Y:     (config >> 2) & 0x03,
		Z:     (config >> 4) & 0x03,
		XSign: (sign >> 2) & 0x01,
		YSign: (sign >> 1) & 0x01,
		ZSign: sign & 0x01,
	}
}

// Sample is one pass over every output register.
type Sample struct {
	Time time.Time

	// Euler angles in degrees: X=heading, Y=roll, Z=pitch.
	Euler      Vector
	Quaternion Quaternion
	// m/s^2.
	LinearAccel Vector
	Gravity     Vector
	Accel       Vector
	// deg/s.
	Gyro Vector
	Mag  Vector

	TempC int

	Calibration CalibrationStatus
}

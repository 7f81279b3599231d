package bno055

import (
	"fmt"
	"strings"
)

// Register map, page 0. Values follow the Bosch BNO055 datasheet.
const (
	addrA = 0x28
	addrB = 0x29

	chipID = 0xA0

	regChipID    = 0x00
	regAccelRev  = 0x01
	regMagRev    = 0x02
	regGyroRev   = 0x03
	regSWRevLSB  = 0x04
	regSWRevMSB  = 0x05
	regBLRev     = 0x06
	regPageID    = 0x07
	regAccelData = 0x08 // X LSB, 6 bytes
	regMagData   = 0x0E
	regGyroData  = 0x14
	regEuler     = 0x1A // heading LSB, then roll, pitch
	regQuat      = 0x20 // W LSB, then X, Y, Z
	regLinAccel  = 0x28
	regGravity   = 0x2E
	regTemp      = 0x34

	regCalibStat      = 0x35
	regSelfTestResult = 0x36
	regSysStat        = 0x39
	regSysErr         = 0x3A
	regOprMode        = 0x3D
	regPwrMode        = 0x3E
	regSysTrigger     = 0x3F
	regAxisMapConfig  = 0x41
	regAxisMapSign    = 0x42

	// Calibration block: accel offset X LSB .. mag radius MSB.
	regAccelOffsetXLSB = 0x55
	regMagRadiusMSB    = 0x6A

	calibLen = regMagRadiusMSB - regAccelOffsetXLSB + 1

	// SYS_TRIGGER bits.
	trigSelfTest   = 0x01
	trigResetSys   = 0x20
	trigExtCrystal = 0x80
)

// Scale divisors for the default unit selection (UNIT_SEL=0x00).
const (
	scaleEuler    = 16.0
	scaleGyro     = 16.0
	scaleMag      = 900.0
	scaleAccel    = 100.0
	scaleQuatBits = 14
)

// DefaultAddress is the bus address with COM3 pulled low.
func DefaultAddress() uint16 { return addrA }

// AltAddress is the bus address with COM3 pulled high.
func AltAddress() uint16 { return addrB }

// Mode is an OPR_MODE value.
type Mode byte

const (
	ModeConfig     Mode = 0x00
	ModeAccOnly    Mode = 0x01
	ModeMagOnly    Mode = 0x02
	ModeGyroOnly   Mode = 0x03
	ModeAccMag     Mode = 0x04
	ModeAccGyro    Mode = 0x05
	ModeMagGyro    Mode = 0x06
	ModeAMG        Mode = 0x07
	ModeIMUPlus    Mode = 0x08
	ModeCompass    Mode = 0x09
	ModeM4G        Mode = 0x0A
	ModeNDOFFMCOff Mode = 0x0B
	ModeNDOF       Mode = 0x0C
)

var modeNames = map[Mode]string{
	ModeConfig:     "config",
	ModeAccOnly:    "acconly",
	ModeMagOnly:    "magonly",
	ModeGyroOnly:   "gyroonly",
	ModeAccMag:     "accmag",
	ModeAccGyro:    "accgyro",
	ModeMagGyro:    "maggyro",
	ModeAMG:        "amg",
	ModeIMUPlus:    "imuplus",
	ModeCompass:    "compass",
	ModeM4G:        "m4g",
	ModeNDOFFMCOff: "ndof_fmc_off",
	ModeNDOF:       "ndof",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(0x%02X)", byte(m))
}

// Fusion reports whether the co-processor produces fused outputs in m.
func (m Mode) Fusion() bool { return m >= ModeIMUPlus && m <= ModeNDOF }

// ParseMode accepts the names printed by Mode.String, case-insensitive.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("bno055: unknown mode %q", s)
}

// PowerMode is a PWR_MODE value.
type PowerMode byte

const (
	PowerNormal  PowerMode = 0x00
	PowerLow     PowerMode = 0x01
	PowerSuspend PowerMode = 0x02
)

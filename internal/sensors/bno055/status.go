package bno055

import (
	"fmt"
	"strings"
)

var sysStatusText = []string{
	"idle",
	"system error",
	"initializing peripherals",
	"system initialization",
	"executing self test",
	"sensor fusion running",
	"running without fusion",
}

var sysErrorText = []string{
	"no error",
	"peripheral initialization error",
	"system initialization error",
	"self test failed",
	"register map value out of range",
	"register map address out of range",
	"register map write error",
	"low power mode not available for selected operation mode",
	"accelerometer power mode not available",
	"fusion algorithm configuration error",
	"sensor configuration error",
}

// StatusText describes a SYS_STAT value.
func StatusText(code int) string {
	if code >= 0 && code < len(sysStatusText) {
		return sysStatusText[code]
	}
	return fmt.Sprintf("unknown status %d", code)
}

// ErrorText describes a SYS_ERR value.
func ErrorText(code int) string {
	if code >= 0 && code < len(sysErrorText) {
		return sysErrorText[code]
	}
	return fmt.Sprintf("unknown error %d", code)
}

// SelfTestText describes an ST_RESULT value: bits 0..3 are set for
// accelerometer, magnetometer, gyroscope and MCU when they pass.
func SelfTestText(result int) string {
	if result < 0 {
		return "not run"
	}
	if result&0x0F == 0x0F {
		return "passed"
	}
	var failed []string
	for i, name := range []string{"accel", "mag", "gyro", "mcu"} {
		if result&(1<<i) == 0 {
			failed = append(failed, name)
		}
	}
	return "failed: " + strings.Join(failed, ",")
}

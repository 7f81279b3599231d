// Package resetpin drives a sensor's active-low nRESET line from a GPIO.
package resetpin

import (
	"fmt"
	"time"
)

var sleep = time.Sleep

const (
	// Datasheet minimum is far shorter; 10ms is comfortably above it.
	defaultPulse = 10 * time.Millisecond
	// Power-on reset time after nRESET is released.
	bootDelay = 650 * time.Millisecond
)

type line interface {
	SetValue(v int) error
	Close() error
}

// Pulse drives BCM GPIO pin low for width (0 selects 10ms), releases it and
// waits for the device to boot. pin 0 means "no reset line" and is a no-op.
func Pulse(pin int, width time.Duration) error {
	if pin == 0 {
		return nil
	}
	if pin < 0 {
		return fmt.Errorf("resetpin: invalid gpio pin %d", pin)
	}
	if width <= 0 {
		width = defaultPulse
	}

	l, err := openLineFn(pin)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.SetValue(0); err != nil {
		return fmt.Errorf("resetpin: drive gpio%d low: %w", pin, err)
	}
	sleep(width)
	if err := l.SetValue(1); err != nil {
		return fmt.Errorf("resetpin: release gpio%d: %w", pin, err)
	}
	sleep(bootDelay)
	return nil
}

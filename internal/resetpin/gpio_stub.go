//go:build !linux || (!arm && !arm64)

package resetpin

import "fmt"

// Stub implementation for non-Linux and/or non-ARM platforms.
func openLine(pin int) (line, error) {
	return nil, fmt.Errorf("resetpin: gpio unsupported on this platform")
}

var openLineFn = openLine

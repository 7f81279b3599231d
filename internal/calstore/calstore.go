// Package calstore persists BNO055 calibration profiles as YAML.
//
// The sensor forgets its offsets on every power cycle. Saving the profile
// once the unit is fully calibrated and writing it back after Init skips the
// figure-eight dance on the next boot.
package calstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ruwix/balance-bot/internal/sensors/bno055"
)

type Profile struct {
	SavedAt time.Time `yaml:"saved_at"`
	// Address the profile was captured from; informational only.
	Address uint16 `yaml:"address"`

	Accel       [3]int16 `yaml:"accel_offset"`
	Mag         [3]int16 `yaml:"mag_offset"`
	Gyro        [3]int16 `yaml:"gyro_offset"`
	AccelRadius int16    `yaml:"accel_radius"`
	MagRadius   int16    `yaml:"mag_radius"`
}

func FromCalibration(c bno055.Calibration, addr uint16, at time.Time) Profile {
	o := c.Offsets()
	return Profile{
		SavedAt:     at.UTC(),
		Address:     addr,
		Accel:       o.Accel,
		Mag:         o.Mag,
		Gyro:        o.Gyro,
		AccelRadius: o.AccelRadius,
		MagRadius:   o.MagRadius,
	}
}

func (p Profile) Calibration() bno055.Calibration {
	return bno055.CalibrationFromOffsets(bno055.CalibrationOffsets{
		Accel:       p.Accel,
		Mag:         p.Mag,
		Gyro:        p.Gyro,
		AccelRadius: p.AccelRadius,
		MagRadius:   p.MagRadius,
	})
}

func Load(path string) (Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, fmt.Errorf("calstore: parse %s: %w", path, err)
	}
	if p.AccelRadius == 0 && p.MagRadius == 0 {
		return Profile{}, fmt.Errorf("calstore: %s has no radii (not a calibration profile?)", path)
	}
	return p, nil
}

// Save writes p to path atomically (temp file + rename).
func Save(path string, p Profile) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("calstore: marshal: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("calstore: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".calibration-*.yaml")
	if err != nil {
		return fmt.Errorf("calstore: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("calstore: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("calstore: close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("calstore: rename: %w", err)
	}
	return nil
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ruwix/balance-bot/internal/sensors/bno055"
)

type Config struct {
	I2C         I2CConfig         `yaml:"i2c"`
	Sensor      SensorConfig      `yaml:"sensor"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Log         LogConfig         `yaml:"log"`
}

type I2CConfig struct {
	Bus     int    `yaml:"bus"`
	Address uint16 `yaml:"address"`
}

type SensorConfig struct {
	Mode            string           `yaml:"mode"`
	ExternalCrystal bool             `yaml:"external_crystal"`
	ResetGPIO       int              `yaml:"reset_gpio"`
	PollInterval    time.Duration    `yaml:"poll_interval"`
	AxisRemap       *AxisRemapConfig `yaml:"axis_remap"`

	// OperationMode is Mode parsed by Load.
	OperationMode bno055.Mode `yaml:"-"`
}

type AxisRemapConfig struct {
	X     uint8 `yaml:"x"`
	Y     uint8 `yaml:"y"`
	Z     uint8 `yaml:"z"`
	XSign uint8 `yaml:"x_sign"`
	YSign uint8 `yaml:"y_sign"`
	ZSign uint8 `yaml:"z_sign"`
}

func (a AxisRemapConfig) Remap() bno055.AxisRemap {
	return bno055.AxisRemap{X: a.X, Y: a.Y, Z: a.Z, XSign: a.XSign, YSign: a.YSign, ZSign: a.ZSign}
}

type CalibrationConfig struct {
	Path     string `yaml:"path"`
	Autosave bool   `yaml:"autosave"`
}

type LogConfig struct {
	Level string `yaml:"level"`

	// ParsedLevel is Level parsed by Load.
	ParsedLevel log.Level `yaml:"-"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	_ = applyDefaults(&cfg)
	return cfg
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := applyDefaults(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) error {
	if cfg.I2C.Bus == 0 {
		cfg.I2C.Bus = 1
	}
	if cfg.I2C.Bus < 0 {
		return fmt.Errorf("i2c.bus must be >= 0")
	}
	if cfg.I2C.Address == 0 {
		cfg.I2C.Address = bno055.DefaultAddress()
	}
	if cfg.I2C.Address != bno055.DefaultAddress() && cfg.I2C.Address != bno055.AltAddress() {
		return fmt.Errorf("i2c.address must be 0x28 or 0x29")
	}

	if cfg.Sensor.Mode == "" {
		cfg.Sensor.Mode = bno055.ModeNDOF.String()
	}
	m, err := bno055.ParseMode(cfg.Sensor.Mode)
	if err != nil {
		return fmt.Errorf("sensor.mode %q is not a known operation mode", cfg.Sensor.Mode)
	}
	if m == bno055.ModeConfig {
		return fmt.Errorf("sensor.mode must not be 'config'")
	}
	cfg.Sensor.OperationMode = m

	if cfg.Sensor.PollInterval <= 0 {
		cfg.Sensor.PollInterval = 100 * time.Millisecond
	}
	if cfg.Sensor.ResetGPIO < 0 {
		return fmt.Errorf("sensor.reset_gpio must be >= 0")
	}

	if r := cfg.Sensor.AxisRemap; r != nil {
		if r.X > 2 || r.Y > 2 || r.Z > 2 {
			return fmt.Errorf("sensor.axis_remap axes must be 0, 1 or 2")
		}
		if r.X == r.Y || r.Y == r.Z || r.X == r.Z {
			return fmt.Errorf("sensor.axis_remap axes must be a permutation of 0, 1, 2")
		}
		if r.XSign > 1 || r.YSign > 1 || r.ZSign > 1 {
			return fmt.Errorf("sensor.axis_remap signs must be 0 or 1")
		}
	}

	if cfg.Calibration.Autosave && cfg.Calibration.Path == "" {
		return fmt.Errorf("calibration.path is required when calibration.autosave is true")
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	lvl, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log.level %q is not a valid level", cfg.Log.Level)
	}
	cfg.Log.ParsedLevel = lvl

	return nil
}

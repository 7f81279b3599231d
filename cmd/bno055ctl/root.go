package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ruwix/balance-bot/internal/config"
	"github.com/ruwix/balance-bot/internal/i2c"
	"github.com/ruwix/balance-bot/internal/resetpin"
	"github.com/ruwix/balance-bot/internal/sensors/bno055"
)

var (
	configPath string
	debug      bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:           "bno055ctl",
	Short:         "inspect, calibrate and stream a BNO055 orientation sensor",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(configPath)
		if err != nil {
			return err
		}
		log.SetLevel(cfg.Log.ParsedLevel)
		if debug {
			log.SetLevel(log.DebugLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (defaults apply when empty)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "toggle debug logging")

	rootCmd.AddCommand(infoCmd, streamCmd, calibrationCmd)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	c, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("config load failed: %w", err)
	}
	return c, nil
}

// openDevice resets (when a reset line is configured), opens the bus and
// brings the sensor up in the configured mode. The returned func closes the bus.
func openDevice(c config.Config) (*bno055.Device, func(), error) {
	if err := resetpin.Pulse(c.Sensor.ResetGPIO, 0); err != nil {
		return nil, nil, err
	}

	busPath := fmt.Sprintf("/dev/i2c-%d", c.I2C.Bus)
	bus, err := i2c.Open(busPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", busPath, err)
	}
	closeBus := func() { _ = bus.Close() }

	dev, err := bno055.New(i2c.NewTransport(bus), c.I2C.Address)
	if err != nil {
		closeBus()
		return nil, nil, err
	}
	log.Debugf("init bno055 at %s addr=0x%02X mode=%s", busPath, c.I2C.Address, c.Sensor.OperationMode)
	if err := dev.Init(c.Sensor.OperationMode); err != nil {
		closeBus()
		return nil, nil, err
	}
	if c.Sensor.ExternalCrystal {
		if err := dev.SetExternalCrystal(true); err != nil {
			closeBus()
			return nil, nil, err
		}
	}
	if c.Sensor.AxisRemap != nil {
		if err := dev.SetAxisRemap(c.Sensor.AxisRemap.Remap()); err != nil {
			closeBus()
			return nil, nil, err
		}
	}
	return dev, closeBus, nil
}

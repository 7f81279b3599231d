package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ruwix/balance-bot/internal/calstore"
)

var forceSave bool

var calibrationCmd = &cobra.Command{
	Use:   "calibration",
	Short: "save or restore the sensor calibration profile",
}

var calibrationSaveCmd = &cobra.Command{
	Use:   "save [path]",
	Short: "read the calibration profile from the sensor and write it to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := profilePath(args)
		if err != nil {
			return err
		}
		dev, closeBus, err := openDevice(cfg)
		if err != nil {
			return err
		}
		defer closeBus()

		cs, err := dev.CalibrationStatus()
		if err != nil {
			return err
		}
		if !cs.FullyCalibrated() && !forceSave {
			return fmt.Errorf("sensor not fully calibrated (sys=%d gyro=%d accel=%d mag=%d); use --force to save anyway",
				cs.System, cs.Gyro, cs.Accel, cs.Mag)
		}
		cal, err := dev.Calibration()
		if err != nil {
			return err
		}
		if err := calstore.Save(path, calstore.FromCalibration(cal, dev.Address(), time.Now())); err != nil {
			return err
		}
		log.Infof("calibration profile saved to %s", path)
		return nil
	},
}

var calibrationLoadCmd = &cobra.Command{
	Use:   "load [path]",
	Short: "write a saved calibration profile to the sensor",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := profilePath(args)
		if err != nil {
			return err
		}
		p, err := calstore.Load(path)
		if err != nil {
			return err
		}
		dev, closeBus, err := openDevice(cfg)
		if err != nil {
			return err
		}
		defer closeBus()

		if err := dev.SetCalibration(p.Calibration()); err != nil {
			return err
		}
		log.Infof("calibration profile from %s applied", path)
		return nil
	},
}

func init() {
	calibrationSaveCmd.Flags().BoolVar(&forceSave, "force", false, "save even when the sensor reports incomplete calibration")
	calibrationCmd.AddCommand(calibrationSaveCmd, calibrationLoadCmd)
}

// profilePath prefers the positional argument over calibration.path.
func profilePath(args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Calibration.Path != "" {
		return cfg.Calibration.Path, nil
	}
	return "", fmt.Errorf("no profile path: pass one or set calibration.path")
}

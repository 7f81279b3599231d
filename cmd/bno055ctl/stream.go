package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ruwix/balance-bot/internal/orientation"
	"github.com/ruwix/balance-bot/internal/sensors/bno055"
)

var streamEvery time.Duration

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "poll the sensor and log fused orientation until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		var remap *bno055.AxisRemap
		if cfg.Sensor.AxisRemap != nil {
			r := cfg.Sensor.AxisRemap.Remap()
			remap = &r
		}
		svc := orientation.New(orientation.Config{
			Enable:          true,
			I2CBus:          cfg.I2C.Bus,
			Addr:            cfg.I2C.Address,
			Mode:            cfg.Sensor.OperationMode,
			ExternalCrystal: cfg.Sensor.ExternalCrystal,
			AxisRemap:       remap,
			ResetGPIO:       cfg.Sensor.ResetGPIO,
			PollInterval:    cfg.Sensor.PollInterval,
			CalibrationPath: cfg.Calibration.Path,
			Autosave:        cfg.Calibration.Autosave,
		})
		defer svc.Close()

		if err := svc.Start(ctx); err != nil {
			return err
		}
		log.Infof("streaming every %s (poll %s)", streamEvery, cfg.Sensor.PollInterval)

		tick := time.NewTicker(streamEvery)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Infof("stopping")
				return nil
			case <-tick.C:
				snap := svc.Snapshot()
				if !snap.Valid {
					log.Warnf("no valid sample: %s", snap.LastError)
					continue
				}
				log.WithFields(snapshotFields(snap)).Info("orientation")
			}
		}
	},
}

func init() {
	streamCmd.Flags().DurationVar(&streamEvery, "every", time.Second, "log interval")
}

func snapshotFields(snap orientation.Snapshot) log.Fields {
	s := snap.Sample
	return log.Fields{
		"heading": fmt.Sprintf("%.2f", s.Euler.X),
		"roll":    fmt.Sprintf("%.2f", s.Euler.Y),
		"pitch":   fmt.Sprintf("%.2f", s.Euler.Z),
		"quat":    fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", s.Quaternion.W, s.Quaternion.X, s.Quaternion.Y, s.Quaternion.Z),
		"lin_acc": fmt.Sprintf("%.2f,%.2f,%.2f", s.LinearAccel.X, s.LinearAccel.Y, s.LinearAccel.Z),
		"gravity": fmt.Sprintf("%.2f,%.2f,%.2f", s.Gravity.X, s.Gravity.Y, s.Gravity.Z),
		"temp_c":  s.TempC,
		"cal":     fmt.Sprintf("%d%d%d%d", s.Calibration.System, s.Calibration.Gyro, s.Calibration.Accel, s.Calibration.Mag),
	}
}

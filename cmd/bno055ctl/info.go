package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ruwix/balance-bot/internal/sensors/bno055"
)

var selfTest bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "print revision, system status, calibration status and axis map",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, closeBus, err := openDevice(cfg)
		if err != nil {
			return err
		}
		defer closeBus()
		return printInfo(cmd.OutOrStdout(), dev, selfTest)
	},
}

func init() {
	infoCmd.Flags().BoolVar(&selfTest, "self-test", false, "run the power-on self test (takes about 1s)")
}

type infoSource interface {
	Address() uint16
	Mode() bno055.Mode
	Revision() (bno055.Revision, error)
	SystemStatus(runSelfTest bool) (bno055.SystemStatus, error)
	CalibrationStatus() (bno055.CalibrationStatus, error)
	AxisRemap() (bno055.AxisRemap, error)
	Temperature() (int, error)
}

func printInfo(w io.Writer, dev infoSource, runSelfTest bool) error {
	rev, err := dev.Revision()
	if err != nil {
		return err
	}
	st, err := dev.SystemStatus(runSelfTest)
	if err != nil {
		return err
	}
	cs, err := dev.CalibrationStatus()
	if err != nil {
		return err
	}
	remap, err := dev.AxisRemap()
	if err != nil {
		return err
	}
	temp, err := dev.Temperature()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "address:     0x%02X\n", dev.Address())
	fmt.Fprintf(w, "mode:        %s\n", dev.Mode())
	fmt.Fprintf(w, "software:    0x%04X (bootloader 0x%02X)\n", rev.Software, rev.Bootloader)
	fmt.Fprintf(w, "chip revs:   accel=0x%02X mag=0x%02X gyro=0x%02X\n", rev.Accel, rev.Mag, rev.Gyro)
	fmt.Fprintf(w, "status:      %d (%s)\n", st.Status, bno055.StatusText(st.Status))
	fmt.Fprintf(w, "error:       %d (%s)\n", st.Error, bno055.ErrorText(st.Error))
	fmt.Fprintf(w, "self test:   %s\n", bno055.SelfTestText(st.SelfTest))
	fmt.Fprintf(w, "calibration: sys=%d gyro=%d accel=%d mag=%d\n", cs.System, cs.Gyro, cs.Accel, cs.Mag)
	fmt.Fprintf(w, "axis remap:  x=%d y=%d z=%d signs=%d%d%d\n", remap.X, remap.Y, remap.Z, remap.XSign, remap.YSign, remap.ZSign)
	fmt.Fprintf(w, "temperature: %dC\n", temp)
	return nil
}

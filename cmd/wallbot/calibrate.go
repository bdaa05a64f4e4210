package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wallbot/wallbot/pkg/calibration"
	"github.com/wallbot/wallbot/pkg/config"
	"github.com/wallbot/wallbot/pkg/daemon"
	"github.com/wallbot/wallbot/pkg/diag"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/sensor"
	"github.com/wallbot/wallbot/pkg/timeutil"
)

// openRig loads the config and opens the hardware for a one-off command.
func openRig() (*config.File, *daemon.Rig, error) {
	conf, err := config.NewFile(configPath)
	if err != nil {
		return nil, nil, err
	}
	rig, err := daemon.OpenRig(conf, timeutil.RealClock{})
	if err != nil {
		return nil, nil, err
	}
	return conf, rig, nil
}

// NewCalibrateCommand .
func NewCalibrateCommand() *cobra.Command {
	var (
		distance string
		purpose  string
		save     bool
		base     int
		ceiling  int
		step     int
	)

	cmd := &cobra.Command{
		Use:     "calibrate <front|left|right>",
		Short:   "Find the detection frequency of one channel",
		GroupID: gCalibration,
		Long: `Find the detection frequency of one channel.

Place a wall at the reference distance in front of the sensor, then run this
command. The carrier is raised step by step from the base frequency while the
wall is still detected; the last detecting frequency is the result.

Use --purpose wall-detect with the wall at decision range, and --purpose
proximity-fine with the wall at the "too close" distance. With --save the
result is written to the frequency table of the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := parseChannelArg(args)
			if err != nil {
				return err
			}
			p, err := robot.ParsePurpose(purpose)
			if err != nil {
				return err
			}
			ref, err := parseFloatFlag(distance, "distance")
			if err != nil {
				return err
			}

			conf, rig, err := openRig()
			if err != nil {
				return err
			}
			defer func() {
				if err := rig.Close(); err != nil {
					logrus.Errorf("failed to close hardware: %v", err)
				}
			}()

			finder := calibration.NewFinder(rig.Sensor, timeutil.RealClock{})
			finder.Base = robot.Frequency(base)
			finder.Ceiling = robot.Frequency(ceiling)
			finder.Step = robot.Frequency(step)

			res, err := finder.Run(ch, p, ref)
			if err != nil {
				return fmt.Errorf("calibration failed: %w", err)
			}
			if err := rig.Sensor.ClearIndicators(); err != nil {
				return err
			}

			if !res.Found {
				diag.Printf(rig.Diag, "calibrate %s %s not found", ch, p)
				return fmt.Errorf("%s at %.1fcm: %w (is the wall in place?)", ch, ref, calibration.ErrNotFound)
			}
			diag.Printf(rig.Diag, "calibrate %s %s %d", ch, p, int(res.Frequency))

			cmd.Printf("%s %s at %.1fcm: %s (%d samples in %s)\n",
				bold("%s", ch), p, ref, bold("%s", res.Frequency), res.Samples, res.Duration.Round(time.Millisecond))

			if !save {
				return nil
			}
			conf.SetFrequency(ch, p, res.Frequency)
			if err := conf.Save(); err != nil {
				return fmt.Errorf("failed to save calibration: %w", err)
			}
			logrus.Infof("saved %s/%s = %s to %s", ch, p, res.Frequency, configPath)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&distance, "distance", "", "distance to the reference wall in centimeters")
	f.StringVar(&purpose, "purpose", string(robot.PurposeWallDetect), "wall-detect or proximity-fine")
	f.BoolVar(&save, "save", false, "write the result to the config file")
	f.IntVar(&base, "base", int(calibration.DefaultBase), "first frequency to try, in Hz")
	f.IntVar(&ceiling, "ceiling", int(calibration.DefaultCeiling), "highest frequency to try, in Hz")
	f.IntVar(&step, "step", int(calibration.DefaultStep), "frequency step, in Hz")
	_ = cmd.MarkFlagRequired("distance")

	return cmd
}

// NewDistanceCommand .
func NewDistanceCommand() *cobra.Command {
	var (
		count    int
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:     "distance <front|left|right>",
		Short:   "Print the coarse distance score of one channel",
		GroupID: gCalibration,
		Long: `Print the coarse distance score of one channel.

The score is the number of carrier frequencies between 38kHz and 42kHz (100Hz
steps) at which the sensor sees a surface. More hits means a closer wall. It is
not a calibrated distance.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := parseChannelArg(args)
			if err != nil {
				return err
			}
			if count < 1 {
				return errors.New("count must be at least 1")
			}

			_, rig, err := openRig()
			if err != nil {
				return err
			}
			defer func() {
				if err := rig.Close(); err != nil {
					logrus.Errorf("failed to close hardware: %v", err)
				}
			}()

			sweep := sensor.DefaultSweep()
			est := sensor.NewEstimator(rig.Sensor, sweep)
			for i := 0; i < count; i++ {
				if i > 0 {
					time.Sleep(interval)
				}
				score, err := est.EstimateDistance(ch)
				if err != nil {
					return err
				}
				if err := rig.Sensor.ClearIndicators(); err != nil {
					return err
				}
				diag.Printf(rig.Diag, "distance %s %d", ch, score)
				cmd.Printf("%s: %s/%d\n", ch, bold("%d", score), sweep.Steps())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of readings")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "pause between readings")

	return cmd
}

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wallbot/wallbot/pkg/calibration"
	"github.com/wallbot/wallbot/pkg/client"
)

var (
	logLevel       = "info"
	unixSocketPath = "/run/wallbot.sock"
	configPath     = "/etc/wallbot.json"
)

var (
	gNavigation   = "Navigation:"
	gCalibration  = "Calibration:"
	gInstallation = "Installation:"
	commandGroups = []string{
		gNavigation,
		gCalibration,
		gInstallation,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.StampMilli,
		})
	}

	return nil
}

func handleCmdError(err error) {
	switch {
	case errors.Is(err, client.ErrDaemonNotRunning):
		fmt.Fprintln(os.Stderr, "\nError: wallbot is not running")
		fmt.Fprintln(os.Stderr, "Is `wallbot run' active with --daemon-socket pointing at the same path?")
	case errors.Is(err, client.ErrPermissionDenied):
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or start the run with '--allow-non-root-access'")
	case errors.Is(err, calibration.ErrIncompleteTable):
		fmt.Fprintln(os.Stderr, "\nError: the calibration table is incomplete")
		fmt.Fprintln(os.Stderr, "Run `wallbot calibrate' for the missing channels with --save, or fix the frequencies in "+configPath)
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallbot",
		Short: "wallbot drives an infrared wall-following maze robot",
		Long: `wallbot drives an infrared wall-following maze robot.

It reads three modulated-infrared proximity sensors (front, left, right),
decides where to go every tick and steers two continuous-rotation servos.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "status API unix socket path, empty to disable")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewRunCommand(),
		NewStatusCommand(),
		NewWatchCommand(),
		NewCalibrateCommand(),
		NewDistanceCommand(),
		NewConfigCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
		NewVersionCommand(),
	)

	return cmd
}

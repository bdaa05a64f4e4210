package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wallbot/wallbot/pkg/config"
	daemonutils "github.com/wallbot/wallbot/pkg/utils/daemon"
)

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	allowNonRootAccess := false

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Start wallbot on boot (systemd)",
		GroupID: gInstallation,
		Long: `Install a systemd service that runs ` + "`wallbot run'" + ` on boot.

The current config file and status socket paths are baked into the service.
The config file is validated and rewritten with its effective values first, so
the robot does not start into a broken calibration and later changes to the
compiled-in defaults do not alter it. You must run this command as root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := pinConfig(configPath); err != nil {
				return err
			}

			err := daemonutils.Install(daemonutils.UnitOptions{
				ConfigPath:   configPath,
				SocketPath:   unixSocketPath,
				AllowNonRoot: allowNonRootAccess,
			})
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install service: %v. Are you root?", err)
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("systemd will use the current binary (%s) at startup so please make sure you do not move it. Once it is moved or deleted, you will need to run `wallbot install' again.\n", exePath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&allowNonRootAccess, "allow-non-root-access", false, "Allow non-root users to query the status API.")

	return cmd
}

// pinConfig validates the config at path and rewrites it with every default
// filled in.
func pinConfig(path string) error {
	conf, err := config.NewFile(path)
	if err != nil {
		return err
	}
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("refusing to install with an invalid config: %w", err)
	}

	effective, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		return err
	}
	if err := config.NewFileFromConfig(effective, path).Save(); err != nil {
		return pkgerrors.Wrapf(err, "failed to save config")
	}
	return nil
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Stop starting wallbot on boot",
		GroupID: gInstallation,
		Long: `Stop and remove the wallbot systemd service.

You must run this command as root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := daemonutils.Uninstall()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to uninstall service: %v", err)
			}

			cmd.Println("successfully uninstalled")
			cmd.Printf("Your config and calibration are kept in %s.\n", configPath)

			return nil
		},
	}
}

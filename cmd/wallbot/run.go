package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wallbot/wallbot/pkg/daemon"
	"github.com/wallbot/wallbot/pkg/version"
)

// NewRunCommand .
func NewRunCommand() *cobra.Command {
	allowNonRootAccess := false

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Navigate the maze in the foreground",
		GroupID: gNavigation,
		Long: `Navigate the maze in the foreground.

The run waits for the configured warm-up, then ticks until the exit condition
is reached or SIGINT/SIGTERM arrives. A signal stops the robot after the
current tick; a maneuver that has started always runs to its end.

While running, the status API is served on --daemon-socket. Pass an empty
--daemon-socket to disable it.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("wallbot starting")
			return daemon.Run(daemon.Options{
				ConfigPath:   configPath,
				SocketPath:   unixSocketPath,
				AllowNonRoot: allowNonRootAccess,
			})
		},
	}

	cmd.Flags().BoolVar(&allowNonRootAccess, "allow-non-root-access", false,
		"Allow non-root users to query the status API.")

	return cmd
}

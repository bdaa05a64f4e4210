package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wallbot/wallbot/pkg/client"
	"github.com/wallbot/wallbot/pkg/config"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/types"
	"github.com/wallbot/wallbot/pkg/version"
)

type statusData struct {
	status        *types.RunStatus
	config        *config.RawFileConfig
	daemonVersion string
}

// fetchStatusData gathers all data required for the status command.
func fetchStatusData(apiClient *client.Client) (*statusData, error) {
	status, err := apiClient.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to get run status: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	v, err := apiClient.GetVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	return &statusData{status: status, config: conf, daemonVersion: v}, nil
}

func NewStatusCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gNavigation,
		Short:   "Get the status of the current run",
		Long:    `Get the run state, the last tick's readings and commands, and the configuration in use.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData(client.NewClient(unixSocketPath))
			if err != nil {
				return err
			}
			s := data.status

			if asJSON {
				b, err := json.MarshalIndent(s, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(b))
				return nil
			}

			conf := config.NewFileFromConfig(data.config, "")

			cmd.Println(bold("Run:"))
			cmd.Printf("  State: %s\n", stateText(s.State))
			cmd.Printf("  Started: %s\n", s.StartedAt.Local().Format(time.RFC3339))
			cmd.Printf("  Ticks: %d (%d in the last minute)\n", s.Ticks, s.TicksLastMinute)
			cmd.Printf("  Turns: %s\n", bold("%d/%d", s.CompletedTurns, conf.ExitTurns()))
			if s.Error != "" {
				cmd.Printf("  Error: %s\n", color.RedString(s.Error))
			}
			cmd.Println()

			if s.LastReadings != nil {
				r := s.LastReadings
				cmd.Println(bold("Last tick:") + " " + s.LastTickAt.Local().Format(time.StampMilli))
				cmd.Printf("  Walls: front %s  left %s  right %s\n", bool2Text(r.Front), bool2Text(r.Left), bool2Text(r.Right))
				cmd.Printf("  Too close: left %s  right %s\n", bool2Text(r.LeftFine), bool2Text(r.RightFine))
				cmds := make([]string, 0, len(s.LastCommands))
				for _, c := range s.LastCommands {
					cmds = append(cmds, c.String())
				}
				cmd.Printf("  Commands: %s\n", strings.Join(cmds, " → "))
				cmd.Println()
			}

			cmd.Println(bold("Configuration:"))
			cmd.Printf("  Backend: %s\n", conf.Backend())
			settings := conf.NavSettings()
			cmd.Printf("  Debounce: %s\n", bool2Text(settings.Debounce))
			cmd.Printf("  Turn: %s, escape towards %s\n", settings.Timings.Turn, settings.EscapeDirection)
			if table, err := conf.Table(); err == nil {
				for _, ch := range robot.Channels {
					cmd.Printf("  %-6s wall %s  fine %s\n", ch.String()+":",
						table[ch][robot.PurposeWallDetect], table[ch][robot.PurposeProximityFine])
				}
			}

			if data.daemonVersion != version.Version {
				cmd.Println()
				cmd.Println(color.YellowString("Version mismatch: client %s, running %s", version.Version, data.daemonVersion))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run status as JSON")

	return cmd
}

func stateText(s types.RunState) string {
	switch s {
	case types.RunStateRunning, types.RunStateFinished:
		return color.New(color.Bold, color.FgGreen).Sprint(s)
	case types.RunStateFailed:
		return color.New(color.Bold, color.FgRed).Sprint(s)
	default:
		return color.New(color.Bold, color.FgYellow).Sprint(s)
	}
}

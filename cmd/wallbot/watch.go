package main

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wallbot/wallbot/pkg/client"
	"github.com/wallbot/wallbot/pkg/events"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		GroupID: gNavigation,
		Short:   "Follow ticks and state changes of the current run",
		Long:    `Print every tick and run state change of a running wallbot as it happens, until the run ends or you press Ctrl-C.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ch, err := client.NewClient(unixSocketPath).SubscribeEvents(cmd.Context())
			if err != nil {
				return err
			}
			for ev := range ch {
				printEvent(cmd, ev)
			}
			return nil
		},
	}
}

func printEvent(cmd *cobra.Command, ev events.Event) {
	switch ev.Name {
	case events.Tick:
		t, err := events.DecodeAs[events.TickEvent](ev)
		if err != nil {
			logrus.WithError(err).Warn("malformed tick event")
			return
		}
		cmds := make([]string, 0, len(t.Commands))
		for _, c := range t.Commands {
			cmds = append(cmds, c.String())
		}
		cmd.Printf("%s #%d  F%s L%s R%s  turns %d  %s\n",
			time.Unix(t.Ts, 0).Local().Format(time.TimeOnly), t.Tick,
			wallMark(t.Readings.Front), wallMark(t.Readings.Left), wallMark(t.Readings.Right),
			t.CompletedTurns, strings.Join(cmds, " → "))
	case events.RunState:
		s, err := events.DecodeAs[events.RunStateEvent](ev)
		if err != nil {
			logrus.WithError(err).Warn("malformed state event")
			return
		}
		line := bold("state %s → %s", s.From, s.To)
		if s.Message != "" {
			line += ": " + s.Message
		}
		cmd.Println(line)
	default:
		logrus.Debugf("ignoring event %q", ev.Name)
	}
}

func wallMark(b bool) string {
	if b {
		return "█"
	}
	return "·"
}

package nav

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/wallbot/wallbot/pkg/calibration"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/sensor"
)

// Session is the state of one run: the calibration and wiring it was started
// with, and how many turns have been realized so far. It is owned by a single
// Engine and never reset during a run.
type Session struct {
	table          calibration.Table
	pins           sensor.PinMap
	exitTurns      int
	completedTurns int
	finished       bool
}

// NewSession validates table and pins and returns a fresh session. A run ends
// after exitTurns realized turns; zero or less disables the exit condition.
func NewSession(table calibration.Table, pins sensor.PinMap, exitTurns int) (*Session, error) {
	if err := table.Validate(); err != nil {
		return nil, pkgerrors.Wrap(err, "invalid calibration")
	}
	for _, ch := range robot.Channels {
		if _, ok := pins[ch]; !ok {
			return nil, fmt.Errorf("no pins configured for %s channel", ch)
		}
	}
	return &Session{
		table:     table.Clone(),
		pins:      pins,
		exitTurns: exitTurns,
	}, nil
}

// Frequency returns the calibrated carrier for (ch, p). NewSession made sure
// every pair the engine asks for exists.
func (s *Session) Frequency(ch robot.Channel, p robot.Purpose) robot.Frequency {
	return s.table.MustGet(ch, p)
}

// Table returns a copy of the calibration table.
func (s *Session) Table() calibration.Table {
	return s.table.Clone()
}

// Pins returns the channel wiring.
func (s *Session) Pins() sensor.PinMap {
	return s.pins
}

// ExitTurns returns the turn count that ends the run.
func (s *Session) ExitTurns() int {
	return s.exitTurns
}

// CompletedTurns returns the number of realized turns.
func (s *Session) CompletedTurns() int {
	return s.completedTurns
}

// Finished reports whether the run has ended.
func (s *Session) Finished() bool {
	return s.finished
}

func (s *Session) exitReached() bool {
	return s.exitTurns > 0 && s.completedTurns >= s.exitTurns
}

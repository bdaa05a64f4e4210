// Package nav is the wall-following decision engine. Each tick reads the three
// channels, picks a steering command, runs it, then applies a centering nudge
// from the short-range readings of the side channels.
package nav

import (
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wallbot/wallbot/pkg/diag"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/timeutil"
	"github.com/wallbot/wallbot/pkg/types"
)

// ErrRunComplete is returned by Tick once the exit condition has been reached.
var ErrRunComplete = errors.New("run complete")

// Sensor is the proximity sensing the engine needs.
type Sensor interface {
	Detect(ch robot.Channel, f robot.Frequency) (bool, error)
	ClearIndicators() error
}

// Executor runs steering commands, blocking for their duration.
type Executor interface {
	Execute(cmd robot.Command) error
}

// Timings are the fixed maneuver durations.
type Timings struct {
	ForwardStep    time.Duration
	PreTurn        time.Duration
	Turn           time.Duration
	Nudge          time.Duration
	EscapeBackward time.Duration
	EscapeTurn     time.Duration
	ExitForward    time.Duration
}

// Settings tune the decision rules.
type Settings struct {
	Timings Timings
	// EscapeDirection is where the robot turns after backing out of a dead end.
	EscapeDirection robot.Channel
	// Debounce repeats every wall-detect read; a wall only counts when both
	// reads see it.
	Debounce bool
}

// DefaultSettings returns the tuning of the reference maze.
func DefaultSettings() Settings {
	return Settings{
		Timings: Timings{
			ForwardStep:    100 * time.Millisecond,
			PreTurn:        50 * time.Millisecond,
			Turn:           900 * time.Millisecond,
			Nudge:          10 * time.Millisecond,
			EscapeBackward: 500 * time.Millisecond,
			EscapeTurn:     1800 * time.Millisecond,
			ExitForward:    time.Second,
		},
		EscapeDirection: robot.ChannelRight,
		Debounce:        true,
	}
}

// Readings is what one tick saw.
type Readings = types.Readings

// TickReport summarizes a completed tick.
type TickReport struct {
	Tick           int             `json:"tick"`
	At             time.Time       `json:"at"`
	Readings       Readings        `json:"readings"`
	Commands       []robot.Command `json:"commands"`
	CompletedTurns int             `json:"completedTurns"`
	Finished       bool            `json:"finished"`
}

// Engine runs ticks against a Session.
type Engine struct {
	session  *Session
	sensor   Sensor
	drive    Executor
	settings Settings
	clock    timeutil.Clock
	sink     diag.Sink
	observer func(TickReport)
	ticks    int
}

// Option customizes an Engine.
type Option func(*Engine)

// WithDiagnostics sends one line per reading summary and command to sink.
func WithDiagnostics(sink diag.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithObserver calls fn after every completed tick.
func WithObserver(fn func(TickReport)) Option {
	return func(e *Engine) { e.observer = fn }
}

// WithClock sets the clock used to timestamp reports.
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New returns an Engine.
func New(session *Session, s Sensor, drive Executor, settings Settings, opts ...Option) *Engine {
	e := &Engine{
		session:  session,
		sensor:   s,
		drive:    drive,
		settings: settings,
		clock:    timeutil.RealClock{},
		sink:     diag.Nop{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Session returns the engine's session.
func (e *Engine) Session() *Session {
	return e.session
}

// Ticks returns the number of completed ticks.
func (e *Engine) Ticks() int {
	return e.ticks
}

// Tick runs one control cycle and returns the commands it executed, in order.
// Once the run has finished it returns ErrRunComplete without sensing.
func (e *Engine) Tick() ([]robot.Command, error) {
	if e.session.finished {
		return nil, ErrRunComplete
	}

	t := e.settings.Timings
	var (
		r        Readings
		executed []robot.Command
	)
	run := func(cmds ...robot.Command) error {
		for _, cmd := range cmds {
			diag.Printf(e.sink, "cmd %s", cmd)
			if err := e.drive.Execute(cmd); err != nil {
				return err
			}
			executed = append(executed, cmd)
		}
		return nil
	}

	var err error
	if r.Front, err = e.wall(robot.ChannelFront); err != nil {
		return executed, err
	}
	if r.Left, err = e.wall(robot.ChannelLeft); err != nil {
		return executed, err
	}
	if r.Right, err = e.wall(robot.ChannelRight); err != nil {
		return executed, err
	}
	diag.Printf(e.sink, "walls front=%d left=%d right=%d", b2i(r.Front), b2i(r.Left), b2i(r.Right))

	escaped := false
	switch {
	case r.Front && r.Left && r.Right:
		escaped = true
		err = run(
			robot.Backward(t.EscapeBackward),
			robot.Turn(e.settings.EscapeDirection, t.EscapeTurn),
		)
	case r.Front && !r.Left:
		err = e.turn(run, robot.ChannelLeft)
	case r.Front:
		// Left is blocked and all three would have escaped, so right is open.
		err = e.turn(run, robot.ChannelRight)
	default:
		err = run(robot.Forward(t.ForwardStep))
	}
	if err != nil {
		return executed, err
	}
	if err := e.sensor.ClearIndicators(); err != nil {
		return executed, err
	}

	if !escaped {
		if err := e.align(run, &r); err != nil {
			return executed, err
		}
		if err := e.sensor.ClearIndicators(); err != nil {
			return executed, err
		}
	}

	if e.session.exitReached() {
		diag.Printf(e.sink, "exit after %d turns", e.session.completedTurns)
		if err := run(robot.Forward(t.ExitForward), robot.Stop()); err != nil {
			return executed, err
		}
		e.session.finished = true
	}

	e.ticks++
	e.report(r, executed)
	return executed, nil
}

// turn issues the two-stage turn towards dir and counts it.
func (e *Engine) turn(run func(...robot.Command) error, dir robot.Channel) error {
	t := e.settings.Timings
	if err := run(robot.PreTurn(dir, t.PreTurn), robot.Turn(dir, t.Turn)); err != nil {
		return err
	}
	e.session.completedTurns++
	return nil
}

// align nudges away from a side wall that is too close. Both or neither side
// being close leaves the heading alone.
func (e *Engine) align(run func(...robot.Command) error, r *Readings) error {
	var err error
	if r.LeftFine, err = e.detect(robot.ChannelLeft, robot.PurposeProximityFine); err != nil {
		return err
	}
	if r.RightFine, err = e.detect(robot.ChannelRight, robot.PurposeProximityFine); err != nil {
		return err
	}

	nudge := e.settings.Timings.Nudge
	switch {
	case r.LeftFine && !r.RightFine:
		return run(robot.TurnRight(nudge))
	case r.RightFine && !r.LeftFine:
		return run(robot.TurnLeft(nudge))
	}
	return nil
}

// wall reads ch at its wall-detect frequency, twice when debouncing.
func (e *Engine) wall(ch robot.Channel) (bool, error) {
	seen, err := e.detect(ch, robot.PurposeWallDetect)
	if err != nil || !seen || !e.settings.Debounce {
		return seen, err
	}
	return e.detect(ch, robot.PurposeWallDetect)
}

func (e *Engine) detect(ch robot.Channel, p robot.Purpose) (bool, error) {
	f := e.session.Frequency(ch, p)
	seen, err := e.sensor.Detect(ch, f)
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to read %s at %s", ch, f)
	}
	return seen, nil
}

func (e *Engine) report(r Readings, executed []robot.Command) {
	names := make([]string, 0, len(executed))
	for _, c := range executed {
		names = append(names, c.String())
	}
	logrus.WithFields(logrus.Fields{
		"tick":           e.ticks,
		"front":          r.Front,
		"left":           r.Left,
		"right":          r.Right,
		"leftFine":       r.LeftFine,
		"rightFine":      r.RightFine,
		"commands":       strings.Join(names, ","),
		"completedTurns": e.session.completedTurns,
	}).Debug("tick")

	if e.observer == nil {
		return
	}
	e.observer(TickReport{
		Tick:           e.ticks,
		At:             e.clock.Now(),
		Readings:       r,
		Commands:       executed,
		CompletedTurns: e.session.completedTurns,
		Finished:       e.session.finished,
	})
}

// Run ticks until the run completes, a tick fails, or stop is closed. stop is
// only checked between ticks; a maneuver in progress always runs to its end.
func (e *Engine) Run(stop <-chan struct{}) error {
	logrus.WithFields(logrus.Fields{
		"exitTurns": e.session.exitTurns,
		"debounce":  e.settings.Debounce,
	}).Info("navigation started")

	for {
		select {
		case <-stop:
			logrus.WithField("ticks", e.ticks).Info("navigation interrupted")
			return nil
		default:
		}

		if _, err := e.Tick(); err != nil {
			if errors.Is(err, ErrRunComplete) {
				logrus.WithFields(logrus.Fields{
					"ticks":          e.ticks,
					"completedTurns": e.session.completedTurns,
				}).Info("navigation complete")
				return nil
			}
			return err
		}
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

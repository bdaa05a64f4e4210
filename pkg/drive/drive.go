// Package drive maps steering commands to the two continuous-rotation servos
// of the differential drive.
package drive

import (
	"fmt"
	"math"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wallbot/wallbot/pkg/hw"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/timeutil"
)

// Params describes how set-points translate into servo pulses. A set-point is
// a normalized value in [-1, 1]; 0 is the neutral (zero-motion) pulse and ±1
// is Neutral ± Span microseconds. The servos are mounted mirrored, so a
// positive left set-point and a negative right set-point both drive forward.
type Params struct {
	NeutralMicros int     `json:"neutralMicros"`
	SpanMicros    int     `json:"spanMicros"`
	ForwardSpeed  float64 `json:"forwardSpeed"`
	TurnSpeed     float64 `json:"turnSpeed"`
	PreTurnSpeed  float64 `json:"preTurnSpeed"`
}

// DefaultParams returns the tuning of the reference chassis.
func DefaultParams() Params {
	return Params{
		NeutralMicros: 1500,
		SpanMicros:    200,
		ForwardSpeed:  0.9,
		TurnSpeed:     0.9,
		PreTurnSpeed:  0.4,
	}
}

// Validate checks that p yields pulses inside the servo range.
func (p Params) Validate() error {
	if p.SpanMicros <= 0 || p.NeutralMicros-p.SpanMicros <= 0 {
		return fmt.Errorf("invalid servo range: neutral %dus, span %dus", p.NeutralMicros, p.SpanMicros)
	}
	for name, v := range map[string]float64{
		"forward":  p.ForwardSpeed,
		"turn":     p.TurnSpeed,
		"pre-turn": p.PreTurnSpeed,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s speed %.2f out of range [0, 1]", name, v)
		}
	}
	return nil
}

// SetPoints is the normalized (left, right) pair for one command.
type SetPoints struct {
	Left  float64
	Right float64
}

// SetPointsFor returns the set-points that realize cmd.
func (p Params) SetPointsFor(cmd robot.Command) SetPoints {
	f, t, pre := p.ForwardSpeed, p.TurnSpeed, p.PreTurnSpeed
	switch {
	case cmd.Kind == robot.KindForward:
		return SetPoints{Left: f, Right: -f}
	case cmd.Kind == robot.KindBackward:
		return SetPoints{Left: -f, Right: f}
	// The pre-turn pivots on the inner wheel.
	case cmd.Kind == robot.KindTurnLeft && cmd.PreTurn:
		return SetPoints{Left: 0, Right: -pre}
	case cmd.Kind == robot.KindTurnRight && cmd.PreTurn:
		return SetPoints{Left: pre, Right: 0}
	case cmd.Kind == robot.KindTurnLeft:
		return SetPoints{Left: -t, Right: -t}
	case cmd.Kind == robot.KindTurnRight:
		return SetPoints{Left: t, Right: t}
	default:
		return SetPoints{}
	}
}

// Micros converts a set-point to a pulse width, clamping to [-1, 1].
func (p Params) Micros(v float64) int {
	v = math.Max(-1, math.Min(1, v))
	return p.NeutralMicros + int(math.Round(v*float64(p.SpanMicros)))
}

// Controller executes commands on an actuator.
type Controller struct {
	act    hw.Actuator
	clock  timeutil.Clock
	params Params
}

// New returns a Controller.
func New(act hw.Actuator, clock timeutil.Clock, params Params) *Controller {
	return &Controller{act: act, clock: clock, params: params}
}

// Params returns the controller's tuning.
func (c *Controller) Params() Params {
	return c.params
}

// Execute applies cmd and blocks for its duration. Stop returns immediately.
func (c *Controller) Execute(cmd robot.Command) error {
	sp := c.params.SetPointsFor(cmd)
	left, right := c.params.Micros(sp.Left), c.params.Micros(sp.Right)

	logrus.WithFields(logrus.Fields{
		"command": cmd,
		"left":    left,
		"right":   right,
	}).Debug("executing command")

	if err := c.set(left, right); err != nil {
		return pkgerrors.Wrapf(err, "execute %s", cmd)
	}
	if cmd.Kind == robot.KindStop || cmd.Duration <= 0 {
		return nil
	}
	c.clock.Sleep(cmd.Duration)
	return nil
}

// Neutral stops both wheels.
func (c *Controller) Neutral() error {
	return c.Execute(robot.Stop())
}

func (c *Controller) set(left, right int) error {
	if err := c.act.SetPulseWidth(hw.WheelLeft, left); err != nil {
		return err
	}
	return c.act.SetPulseWidth(hw.WheelRight, right)
}

// Package sensor implements the infrared proximity protocol: emit a carrier on
// one channel's emitter, silence it, sample the receiver once and settle. The
// Estimator builds a coarse distance score on top of it by sweeping carriers.
package sensor

import (
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wallbot/wallbot/pkg/hw"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/timeutil"
)

// ErrInvalidChannel is returned for a channel outside front/left/right. It is
// a programming error, never retried.
var ErrInvalidChannel = errors.New("invalid sensor channel")

const (
	// DefaultEmitWindow is how long the carrier runs before sampling. It has to
	// stay fixed for a calibration table to remain valid.
	DefaultEmitWindow = time.Millisecond
	// DefaultSettleWindow is the down time after each sample.
	DefaultSettleWindow = time.Millisecond
)

// Pins is the fixed wiring of one channel.
type Pins struct {
	Emitter   hw.Pin `json:"emitter"`
	Receiver  hw.Pin `json:"receiver"`
	Indicator hw.Pin `json:"indicator"`
}

// PinMap maps every channel to its wiring.
type PinMap map[robot.Channel]Pins

// Sensor drives the three emitter/receiver pairs.
type Sensor struct {
	pulse  hw.PulseGenerator
	clock  timeutil.Clock
	pins   PinMap
	emit   time.Duration
	settle time.Duration
}

// Option customizes a Sensor.
type Option func(*Sensor)

// WithWindows overrides the emit and settle windows.
func WithWindows(emit, settle time.Duration) Option {
	return func(s *Sensor) {
		s.emit = emit
		s.settle = settle
	}
}

// New returns a Sensor using pulse for pin I/O and clock for the windows.
func New(pulse hw.PulseGenerator, clock timeutil.Clock, pins PinMap, opts ...Option) *Sensor {
	s := &Sensor{
		pulse:  pulse,
		clock:  clock,
		pins:   pins,
		emit:   DefaultEmitWindow,
		settle: DefaultSettleWindow,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Sensor) channelPins(ch robot.Channel) (Pins, error) {
	if !ch.Valid() {
		return Pins{}, ErrInvalidChannel
	}
	p, ok := s.pins[ch]
	if !ok {
		return Pins{}, ErrInvalidChannel
	}
	return p, nil
}

// Sample runs one emit/sample/settle cycle at f and returns the raw receiver
// level. Receivers are active-low, so hw.ReceiverActive means a reflection.
func (s *Sensor) Sample(ch robot.Channel, f robot.Frequency) (hw.Level, error) {
	p, err := s.channelPins(ch)
	if err != nil {
		return hw.ReceiverInactive, err
	}

	if err := s.pulse.EmitSquareWave(p.Emitter, f); err != nil {
		return hw.ReceiverInactive, pkgerrors.Wrapf(err, "emit %s on %s", f, ch)
	}
	s.clock.Sleep(s.emit)
	if err := s.pulse.StopSquareWave(p.Emitter); err != nil {
		return hw.ReceiverInactive, pkgerrors.Wrapf(err, "silence %s", ch)
	}
	level, err := s.pulse.ReadDigital(p.Receiver)
	if err != nil {
		return hw.ReceiverInactive, pkgerrors.Wrapf(err, "sample %s", ch)
	}
	s.clock.Sleep(s.settle)

	return level, nil
}

// Detect reports whether a surface is within the range implied by f on ch.
// On detection the channel indicator is driven high and left that way; call
// ClearIndicators at the end of the tick.
func (s *Sensor) Detect(ch robot.Channel, f robot.Frequency) (bool, error) {
	level, err := s.Sample(ch, f)
	if err != nil {
		return false, err
	}

	detected := level == hw.ReceiverActive
	if detected {
		// channelPins already succeeded in Sample.
		p := s.pins[ch]
		if err := s.pulse.SetDigitalOutput(p.Indicator, hw.High); err != nil {
			return detected, pkgerrors.Wrapf(err, "light %s indicator", ch)
		}
	}

	logrus.WithFields(logrus.Fields{
		"channel":   ch,
		"frequency": f,
		"detected":  detected,
	}).Trace("ir detect")

	return detected, nil
}

// ClearIndicators drives every indicator low.
func (s *Sensor) ClearIndicators() error {
	for _, ch := range robot.Channels {
		p, ok := s.pins[ch]
		if !ok {
			continue
		}
		if err := s.pulse.SetDigitalOutput(p.Indicator, hw.Low); err != nil {
			return pkgerrors.Wrapf(err, "clear %s indicator", ch)
		}
	}
	return nil
}

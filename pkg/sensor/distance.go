package sensor

import (
	"github.com/sirupsen/logrus"

	"github.com/wallbot/wallbot/pkg/robot"
)

// Default sweep band of the distance estimator.
const (
	DefaultSweepLower robot.Frequency = 38000
	DefaultSweepUpper robot.Frequency = 42000
	DefaultSweepStep  robot.Frequency = 100
)

// Detector is what the Estimator sweeps.
type Detector interface {
	Detect(ch robot.Channel, f robot.Frequency) (bool, error)
}

// Sweep is an inclusive ascending frequency band.
type Sweep struct {
	Lower robot.Frequency
	Upper robot.Frequency
	Step  robot.Frequency
}

// DefaultSweep returns 38kHz..42kHz in 100Hz steps.
func DefaultSweep() Sweep {
	return Sweep{Lower: DefaultSweepLower, Upper: DefaultSweepUpper, Step: DefaultSweepStep}
}

// Steps returns how many frequencies the sweep visits, which is also the
// largest score it can produce.
func (s Sweep) Steps() int {
	if s.Step <= 0 || s.Upper < s.Lower {
		return 0
	}
	return int((s.Upper-s.Lower)/s.Step) + 1
}

// Estimator turns a detector into a coarse distance gauge. More hits means a
// closer wall; the score is not a calibrated distance.
type Estimator struct {
	det   Detector
	sweep Sweep
}

// NewEstimator returns an Estimator sweeping band through det.
func NewEstimator(det Detector, band Sweep) *Estimator {
	return &Estimator{det: det, sweep: band}
}

// EstimateDistance returns the number of swept frequencies at which ch
// detected a surface, between 0 and Sweep.Steps().
func (e *Estimator) EstimateDistance(ch robot.Channel) (int, error) {
	if !ch.Valid() {
		return 0, ErrInvalidChannel
	}

	score := 0
	for i := 0; i < e.sweep.Steps(); i++ {
		f := e.sweep.Lower + robot.Frequency(i)*e.sweep.Step
		detected, err := e.det.Detect(ch, f)
		if err != nil {
			return score, err
		}
		if detected {
			score++
		}
	}

	logrus.WithFields(logrus.Fields{
		"channel": ch,
		"score":   score,
		"steps":   e.sweep.Steps(),
	}).Debug("distance estimated")

	return score, nil
}

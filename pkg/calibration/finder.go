package calibration

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wallbot/wallbot/pkg/hw"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/timeutil"
)

// ErrNotFound is returned when the wall is not detected even at the base
// frequency.
var ErrNotFound = errors.New("no detecting frequency found")

// Default search range of the finder.
const (
	DefaultBase    robot.Frequency = 38000
	DefaultCeiling robot.Frequency = 46000
	DefaultStep    robot.Frequency = 100
)

// Sampler is the raw emit/sample primitive shared with the proximity sensor.
type Sampler interface {
	Sample(ch robot.Channel, f robot.Frequency) (hw.Level, error)
}

// Result is what one calibration run reports.
type Result struct {
	Channel robot.Channel `json:"channel"`
	Purpose robot.Purpose `json:"purpose,omitempty"`
	// ReferenceDistance is where the wall was placed, in centimeters.
	ReferenceDistance float64         `json:"referenceDistance"`
	Frequency         robot.Frequency `json:"frequency"`
	Found             bool            `json:"found"`
	Samples           int             `json:"samples"`
	StartedAt         time.Time       `json:"startedAt"`
	Duration          time.Duration   `json:"duration"`
}

// Finder searches for the highest carrier frequency at which a wall at a
// known distance is still detected.
type Finder struct {
	sampler Sampler
	clock   timeutil.Clock
	Base    robot.Frequency
	Ceiling robot.Frequency
	Step    robot.Frequency
}

// NewFinder returns a Finder with the default search range. clock times the
// report; the sampler does its own blocking.
func NewFinder(s Sampler, clock timeutil.Clock) *Finder {
	return &Finder{
		sampler: s,
		clock:   clock,
		Base:    DefaultBase,
		Ceiling: DefaultCeiling,
		Step:    DefaultStep,
	}
}

// FindDetectionFrequency walks upwards from Base while ch keeps detecting the
// wall and returns the last detecting frequency. It returns ErrNotFound if the
// base frequency already misses.
func (f *Finder) FindDetectionFrequency(ch robot.Channel, referenceDistance float64) (robot.Frequency, error) {
	res, err := f.Run(ch, "", referenceDistance)
	if err != nil {
		return 0, err
	}
	if !res.Found {
		return 0, ErrNotFound
	}
	return res.Frequency, nil
}

// Run is FindDetectionFrequency with the full report. A run that finds
// nothing is not an error here; check Result.Found.
func (f *Finder) Run(ch robot.Channel, purpose robot.Purpose, referenceDistance float64) (*Result, error) {
	log := logrus.WithFields(logrus.Fields{
		"channel":           ch,
		"purpose":           purpose,
		"referenceDistance": referenceDistance,
		"operation":         "calibration",
	})

	res := &Result{
		Channel:           ch,
		Purpose:           purpose,
		ReferenceDistance: referenceDistance,
		StartedAt:         f.clock.Now(),
	}
	defer func() { res.Duration = f.clock.Since(res.StartedAt) }()

	log.WithField("base", f.Base).Info("starting frequency search")

	step := f.Step
	if step <= 0 {
		step = DefaultStep
	}
	for current := f.Base; current <= f.Ceiling; current += step {
		level, err := f.sampler.Sample(ch, current)
		res.Samples++
		if err != nil {
			return res, err
		}
		if level != hw.ReceiverActive {
			log.WithField("frequency", current).Debug("wall lost")
			break
		}
		log.WithField("frequency", current).Debug("wall detected")
		res.Frequency = current
		res.Found = true
	}

	if res.Found {
		log.WithField("frequency", res.Frequency).Info("frequency search complete")
	} else {
		log.Warn("wall not detected at base frequency")
	}
	return res, nil
}

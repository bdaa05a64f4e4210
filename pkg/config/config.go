package config

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wallbot/wallbot/pkg/calibration"
	"github.com/wallbot/wallbot/pkg/diag"
	"github.com/wallbot/wallbot/pkg/drive"
	"github.com/wallbot/wallbot/pkg/hw"
	"github.com/wallbot/wallbot/pkg/nav"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/sensor"
)

// Supported hardware backends.
const (
	BackendPeriph = "periph"
	BackendMock   = "mock"
)

type Config interface {
	Backend() string
	Pins() sensor.PinMap
	ServoPins() (left, right hw.Pin)
	// Table returns the calibration table, validated for completeness.
	Table() (calibration.Table, error)
	SensorWindows() (emit, settle time.Duration)
	NavSettings() nav.Settings
	ExitTurns() int
	DriveParams() drive.Params
	WarmUp() time.Duration
	DiagPort() string
	DiagOptions() diag.PortOptions

	SetBackend(string)
	SetFrequency(ch robot.Channel, p robot.Purpose, f robot.Frequency)
	SetExitTurns(int)
	SetDebounce(bool)

	// Validate checks everything a run depends on.
	Validate() error
	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}

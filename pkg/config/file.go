package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wallbot/wallbot/pkg/calibration"
	"github.com/wallbot/wallbot/pkg/diag"
	"github.com/wallbot/wallbot/pkg/drive"
	"github.com/wallbot/wallbot/pkg/hw"
	"github.com/wallbot/wallbot/pkg/nav"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/sensor"
	"github.com/wallbot/wallbot/pkg/utils/ptr"
)

var (
	defaultNav   = nav.DefaultSettings()
	defaultDrive = drive.DefaultParams()

	defaultFileConfig = &RawFileConfig{
		Backend: ptr.To(BackendPeriph),
		// Raspberry Pi header, BCM numbering.
		Channels: map[robot.Channel]sensor.Pins{
			robot.ChannelFront: {Emitter: "GPIO12", Receiver: "GPIO5", Indicator: "GPIO16"},
			robot.ChannelLeft:  {Emitter: "GPIO13", Receiver: "GPIO6", Indicator: "GPIO20"},
			robot.ChannelRight: {Emitter: "GPIO19", Receiver: "GPIO26", Indicator: "GPIO21"},
		},
		LeftServo:          ptr.To(hw.Pin("GPIO18")),
		RightServo:         ptr.To(hw.Pin("GPIO23")),
		EmitWindowMicros:   ptr.To(int(sensor.DefaultEmitWindow / time.Microsecond)),
		SettleWindowMicros: ptr.To(int(sensor.DefaultSettleWindow / time.Microsecond)),
		ForwardStepMs:      ptr.To(ms(defaultNav.Timings.ForwardStep)),
		PreTurnMs:          ptr.To(ms(defaultNav.Timings.PreTurn)),
		TurnMs:             ptr.To(ms(defaultNav.Timings.Turn)),
		NudgeMs:            ptr.To(ms(defaultNav.Timings.Nudge)),
		EscapeBackwardMs:   ptr.To(ms(defaultNav.Timings.EscapeBackward)),
		EscapeTurnMs:       ptr.To(ms(defaultNav.Timings.EscapeTurn)),
		ExitForwardMs:      ptr.To(ms(defaultNav.Timings.ExitForward)),
		EscapeDirection:    ptr.To(defaultNav.EscapeDirection),
		Debounce:           ptr.To(defaultNav.Debounce),
		ExitTurns:          ptr.To(10),
		NeutralMicros:      ptr.To(defaultDrive.NeutralMicros),
		SpanMicros:         ptr.To(defaultDrive.SpanMicros),
		ForwardSpeed:       ptr.To(defaultDrive.ForwardSpeed),
		TurnSpeed:          ptr.To(defaultDrive.TurnSpeed),
		PreTurnSpeed:       ptr.To(defaultDrive.PreTurnSpeed),
		WarmUpMs:           ptr.To(3000),
		DiagPort:           ptr.To(""),
		DiagBaudRate:       ptr.To(diag.DefaultBaudRate),
	}
)

func ms(d time.Duration) int {
	return int(d / time.Millisecond)
}

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

// RawFileConfig is the on-disk form. Unset fields fall back to the defaults,
// except the frequency table: once present it is used as is, so a forgotten
// entry shows up as a validation error instead of a silent default.
type RawFileConfig struct {
	Backend *string `json:"backend,omitempty"`

	Channels   map[robot.Channel]sensor.Pins `json:"channels,omitempty"`
	LeftServo  *hw.Pin                       `json:"leftServo,omitempty"`
	RightServo *hw.Pin                       `json:"rightServo,omitempty"`

	Frequencies calibration.Table `json:"frequencies,omitempty"`

	EmitWindowMicros   *int `json:"emitWindowMicros,omitempty"`
	SettleWindowMicros *int `json:"settleWindowMicros,omitempty"`

	ForwardStepMs    *int           `json:"forwardStepMs,omitempty"`
	PreTurnMs        *int           `json:"preTurnMs,omitempty"`
	TurnMs           *int           `json:"turnMs,omitempty"`
	NudgeMs          *int           `json:"nudgeMs,omitempty"`
	EscapeBackwardMs *int           `json:"escapeBackwardMs,omitempty"`
	EscapeTurnMs     *int           `json:"escapeTurnMs,omitempty"`
	ExitForwardMs    *int           `json:"exitForwardMs,omitempty"`
	EscapeDirection  *robot.Channel `json:"escapeDirection,omitempty"`
	Debounce         *bool          `json:"debounce,omitempty"`
	ExitTurns        *int           `json:"exitTurns,omitempty"`

	NeutralMicros *int     `json:"neutralMicros,omitempty"`
	SpanMicros    *int     `json:"spanMicros,omitempty"`
	ForwardSpeed  *float64 `json:"forwardSpeed,omitempty"`
	TurnSpeed     *float64 `json:"turnSpeed,omitempty"`
	PreTurnSpeed  *float64 `json:"preTurnSpeed,omitempty"`

	WarmUpMs *int `json:"warmUpMs,omitempty"`

	DiagPort     *string `json:"diagPort,omitempty"`
	DiagBaudRate *int    `json:"diagBaudRate,omitempty"`
}

// NewRawFileConfigFromConfig returns c with every field filled in, which is
// what a running robot actually uses.
func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	table, err := c.Table()
	if err != nil {
		return nil, err
	}
	left, right := c.ServoPins()
	emit, settle := c.SensorWindows()
	settings := c.NavSettings()
	params := c.DriveParams()

	return &RawFileConfig{
		Backend:            ptr.To(c.Backend()),
		Channels:           c.Pins(),
		LeftServo:          ptr.To(left),
		RightServo:         ptr.To(right),
		Frequencies:        table,
		EmitWindowMicros:   ptr.To(int(emit / time.Microsecond)),
		SettleWindowMicros: ptr.To(int(settle / time.Microsecond)),
		ForwardStepMs:      ptr.To(ms(settings.Timings.ForwardStep)),
		PreTurnMs:          ptr.To(ms(settings.Timings.PreTurn)),
		TurnMs:             ptr.To(ms(settings.Timings.Turn)),
		NudgeMs:            ptr.To(ms(settings.Timings.Nudge)),
		EscapeBackwardMs:   ptr.To(ms(settings.Timings.EscapeBackward)),
		EscapeTurnMs:       ptr.To(ms(settings.Timings.EscapeTurn)),
		ExitForwardMs:      ptr.To(ms(settings.Timings.ExitForward)),
		EscapeDirection:    ptr.To(settings.EscapeDirection),
		Debounce:           ptr.To(settings.Debounce),
		ExitTurns:          ptr.To(c.ExitTurns()),
		NeutralMicros:      ptr.To(params.NeutralMicros),
		SpanMicros:         ptr.To(params.SpanMicros),
		ForwardSpeed:       ptr.To(params.ForwardSpeed),
		TurnSpeed:          ptr.To(params.TurnSpeed),
		PreTurnSpeed:       ptr.To(params.PreTurnSpeed),
		WarmUpMs:           ptr.To(ms(c.WarmUp())),
		DiagPort:           ptr.To(c.DiagPort()),
		DiagBaudRate:       ptr.To(c.DiagOptions().BaudRate),
	}, nil
}

func (f *File) raw() *RawFileConfig {
	if f.c == nil {
		panic("config is nil")
	}
	return f.c
}

func (f *File) Backend() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.raw().Backend, *defaultFileConfig.Backend)
}

func (f *File) Pins() sensor.PinMap {
	f.mu.RLock()
	defer f.mu.RUnlock()

	channels := f.raw().Channels
	if len(channels) == 0 {
		channels = defaultFileConfig.Channels
	}

	pins := sensor.PinMap{}
	for ch, p := range channels {
		pins[ch] = p
	}
	return pins
}

func (f *File) ServoPins() (left, right hw.Pin) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	c := f.raw()
	return ptr.Deref(c.LeftServo, *defaultFileConfig.LeftServo),
		ptr.Deref(c.RightServo, *defaultFileConfig.RightServo)
}

func (f *File) Table() (calibration.Table, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	t := f.raw().Frequencies
	if t == nil {
		t = calibration.DefaultTable()
	}
	t = t.Clone()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (f *File) SensorWindows() (emit, settle time.Duration) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	c := f.raw()
	emit = time.Duration(ptr.Deref(c.EmitWindowMicros, *defaultFileConfig.EmitWindowMicros)) * time.Microsecond
	settle = time.Duration(ptr.Deref(c.SettleWindowMicros, *defaultFileConfig.SettleWindowMicros)) * time.Microsecond
	return emit, settle
}

func (f *File) NavSettings() nav.Settings {
	f.mu.RLock()
	defer f.mu.RUnlock()

	c := f.raw()
	d := defaultFileConfig
	msOf := func(v, def *int) time.Duration {
		return time.Duration(ptr.Deref(v, *def)) * time.Millisecond
	}

	return nav.Settings{
		Timings: nav.Timings{
			ForwardStep:    msOf(c.ForwardStepMs, d.ForwardStepMs),
			PreTurn:        msOf(c.PreTurnMs, d.PreTurnMs),
			Turn:           msOf(c.TurnMs, d.TurnMs),
			Nudge:          msOf(c.NudgeMs, d.NudgeMs),
			EscapeBackward: msOf(c.EscapeBackwardMs, d.EscapeBackwardMs),
			EscapeTurn:     msOf(c.EscapeTurnMs, d.EscapeTurnMs),
			ExitForward:    msOf(c.ExitForwardMs, d.ExitForwardMs),
		},
		EscapeDirection: ptr.Deref(c.EscapeDirection, *d.EscapeDirection),
		Debounce:        ptr.Deref(c.Debounce, *d.Debounce),
	}
}

func (f *File) ExitTurns() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.raw().ExitTurns, *defaultFileConfig.ExitTurns)
}

func (f *File) DriveParams() drive.Params {
	f.mu.RLock()
	defer f.mu.RUnlock()

	c := f.raw()
	d := defaultFileConfig
	return drive.Params{
		NeutralMicros: ptr.Deref(c.NeutralMicros, *d.NeutralMicros),
		SpanMicros:    ptr.Deref(c.SpanMicros, *d.SpanMicros),
		ForwardSpeed:  ptr.Deref(c.ForwardSpeed, *d.ForwardSpeed),
		TurnSpeed:     ptr.Deref(c.TurnSpeed, *d.TurnSpeed),
		PreTurnSpeed:  ptr.Deref(c.PreTurnSpeed, *d.PreTurnSpeed),
	}
}

func (f *File) WarmUp() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return time.Duration(ptr.Deref(f.raw().WarmUpMs, *defaultFileConfig.WarmUpMs)) * time.Millisecond
}

func (f *File) DiagPort() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.raw().DiagPort, *defaultFileConfig.DiagPort)
}

func (f *File) DiagOptions() diag.PortOptions {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return diag.PortOptions{
		BaudRate: ptr.Deref(f.raw().DiagBaudRate, *defaultFileConfig.DiagBaudRate),
	}
}

func (f *File) SetBackend(b string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.raw().Backend = &b
}

// SetFrequency stores a calibration result. Setting the first entry starts
// from the default table so the other pairs stay usable.
func (f *File) SetFrequency(ch robot.Channel, p robot.Purpose, freq robot.Frequency) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := f.raw()
	if c.Frequencies == nil {
		c.Frequencies = calibration.DefaultTable()
	}
	c.Frequencies.Set(ch, p, freq)
}

func (f *File) SetExitTurns(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.raw().ExitTurns = &i
}

func (f *File) SetDebounce(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.raw().Debounce = &b
}

func (f *File) Validate() error {
	switch b := f.Backend(); b {
	case BackendPeriph, BackendMock:
	default:
		return fmt.Errorf("unknown backend %q, expected %s or %s", b, BackendPeriph, BackendMock)
	}

	if _, err := f.Table(); err != nil {
		return err
	}

	pins := f.Pins()
	for _, ch := range robot.Channels {
		p, ok := pins[ch]
		if !ok || p.Emitter == "" || p.Receiver == "" || p.Indicator == "" {
			return fmt.Errorf("incomplete pin mapping for %s channel", ch)
		}
	}
	if l, r := f.ServoPins(); l == "" || r == "" {
		return pkgerrors.New("both servo pins must be set")
	}

	if emit, _ := f.SensorWindows(); emit <= 0 {
		return pkgerrors.New("emit window must be positive")
	}

	if d := f.NavSettings().EscapeDirection; d != robot.ChannelLeft && d != robot.ChannelRight {
		return fmt.Errorf("escape direction must be left or right, got %s", d)
	}

	if err := f.DriveParams().Validate(); err != nil {
		return err
	}

	if _, err := f.DiagOptions().Normalize(); err != nil {
		return err
	}

	return nil
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	left, right := f.ServoPins()
	emit, settle := f.SensorWindows()
	settings := f.NavSettings()

	return logrus.Fields{
		"backend":         f.Backend(),
		"leftServo":       left,
		"rightServo":      right,
		"emitWindow":      emit,
		"settleWindow":    settle,
		"turn":            settings.Timings.Turn,
		"escapeDirection": settings.EscapeDirection,
		"debounce":        settings.Debounce,
		"exitTurns":       f.ExitTurns(),
		"warmUp":          f.WarmUp(),
		"diagPort":        f.DiagPort(),
	}
}

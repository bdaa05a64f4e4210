package hw

import (
	"sync"

	pkgerrors "github.com/pkg/errors"

	"github.com/wallbot/wallbot/pkg/robot"
)

// EchoFunc reports whether the receiver on pin sees a reflection of a carrier
// at frequency f.
type EchoFunc func(receiver Pin, f robot.Frequency) bool

// ThresholdEcho models receivers that detect a wall while the carrier stays at
// or below the given frequency. Receivers missing from the map never detect.
func ThresholdEcho(max map[Pin]robot.Frequency) EchoFunc {
	return func(receiver Pin, f robot.Frequency) bool {
		limit, ok := max[receiver]
		return ok && f <= limit
	}
}

// Emission records one carrier burst.
type Emission struct {
	Pin       Pin
	Frequency robot.Frequency
}

// MockDriver is an in-memory Driver. The carrier that was emitted most recently
// is what the next ReadDigital reflects, mirroring a single shared IR field.
type MockDriver struct {
	mu sync.Mutex

	echo        EchoFunc
	opened      bool
	active      map[Pin]robot.Frequency
	lastCarrier robot.Frequency
	emissions   []Emission
	reads       map[Pin]int
	outputs     map[Pin]Level
	pulseWidths map[Wheel]int
	history     map[Wheel][]int
}

var _ Driver = &MockDriver{}

// NewMockDriver returns a MockDriver. A nil echo means no wall anywhere.
func NewMockDriver(echo EchoFunc) *MockDriver {
	return &MockDriver{
		echo:        echo,
		active:      map[Pin]robot.Frequency{},
		reads:       map[Pin]int{},
		outputs:     map[Pin]Level{},
		pulseWidths: map[Wheel]int{},
		history:     map[Wheel][]int{},
	}
}

// SetEcho replaces the simulated environment.
func (m *MockDriver) SetEcho(echo EchoFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.echo = echo
}

func (m *MockDriver) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = true
	return nil
}

func (m *MockDriver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = false
	return nil
}

func (m *MockDriver) EmitSquareWave(pin Pin, f robot.Frequency) error {
	if f <= 0 {
		return pkgerrors.Errorf("invalid carrier frequency %d on pin %s", f, pin)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[pin] = f
	m.lastCarrier = f
	m.emissions = append(m.emissions, Emission{Pin: pin, Frequency: f})
	return nil
}

func (m *MockDriver) StopSquareWave(pin Pin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, pin)
	return nil
}

func (m *MockDriver) ReadDigital(pin Pin) (Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads[pin]++
	if m.echo != nil && m.lastCarrier > 0 && m.echo(pin, m.lastCarrier) {
		return ReceiverActive, nil
	}
	return ReceiverInactive, nil
}

func (m *MockDriver) SetDigitalOutput(pin Pin, level Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[pin] = level
	return nil
}

func (m *MockDriver) SetPulseWidth(wheel Wheel, microseconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulseWidths[wheel] = microseconds
	m.history[wheel] = append(m.history[wheel], microseconds)
	return nil
}

// Opened reports whether Open was called without a matching Close.
func (m *MockDriver) Opened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// Output returns the last level written to pin.
func (m *MockDriver) Output(pin Pin) Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outputs[pin]
}

// Emitting reports whether a carrier is currently running on pin.
func (m *MockDriver) Emitting(pin Pin) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[pin]
	return ok
}

// Emissions returns every carrier burst so far.
func (m *MockDriver) Emissions() []Emission {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := make([]Emission, len(m.emissions))
	copy(ret, m.emissions)
	return ret
}

// Reads returns how many times pin was sampled.
func (m *MockDriver) Reads(pin Pin) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[pin]
}

// TotalReads returns how many samples were taken on any pin.
func (m *MockDriver) TotalReads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.reads {
		total += n
	}
	return total
}

// PulseWidth returns the last pulse width set on wheel.
func (m *MockDriver) PulseWidth(wheel Wheel) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pulseWidths[wheel]
}

// PulseWidthHistory returns every pulse width set on wheel.
func (m *MockDriver) PulseWidthHistory(wheel Wheel) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := make([]int, len(m.history[wheel]))
	copy(ret, m.history[wheel])
	return ret
}

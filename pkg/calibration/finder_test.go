package calibration

import (
	"errors"
	"testing"
	"time"

	"github.com/wallbot/wallbot/pkg/hw"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/timeutil"
)

// fakeSampler detects the wall while the carrier is at or below limit. With
// a clock set, every sample takes 2ms on it.
type fakeSampler struct {
	limit   robot.Frequency
	err     error
	clock   *timeutil.MockClock
	sampled []robot.Frequency
}

func (f *fakeSampler) Sample(_ robot.Channel, freq robot.Frequency) (hw.Level, error) {
	f.sampled = append(f.sampled, freq)
	if f.clock != nil {
		f.clock.Sleep(2 * time.Millisecond)
	}
	if f.err != nil {
		return hw.ReceiverInactive, f.err
	}
	if freq <= f.limit {
		return hw.ReceiverActive, nil
	}
	return hw.ReceiverInactive, nil
}

func TestFindDetectionFrequency(t *testing.T) {
	tests := []struct {
		name        string
		limit       robot.Frequency
		want        robot.Frequency
		wantErr     error
		wantSamples int
	}{
		{
			name:        "base frequency already fails",
			limit:       37900,
			wantErr:     ErrNotFound,
			wantSamples: 1,
		},
		{
			name:        "only base frequency detects",
			limit:       38050,
			want:        38000,
			wantSamples: 2,
		},
		{
			name:        "detects up to 39400",
			limit:       39400,
			want:        39400,
			wantSamples: 16,
		},
		{
			name:        "stops at ceiling",
			limit:       50000,
			want:        46000,
			wantSamples: 81,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSampler{limit: tt.limit}
			got, err := NewFinder(s, timeutil.RealClock{}).FindDetectionFrequency(robot.ChannelLeft, 5)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FindDetectionFrequency() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FindDetectionFrequency() = %v, want %v", got, tt.want)
			}
			if len(s.sampled) != tt.wantSamples {
				t.Errorf("sampled %d frequencies, want %d", len(s.sampled), tt.wantSamples)
			}
			for i := 1; i < len(s.sampled); i++ {
				if s.sampled[i] <= s.sampled[i-1] {
					t.Fatalf("frequencies must increase, got %v", s.sampled)
				}
			}
		})
	}
}

func TestFinderRunReport(t *testing.T) {
	start := time.Unix(1700000000, 0)
	clk := timeutil.NewMockClock(start)
	s := &fakeSampler{limit: 42100, clock: clk}
	f := NewFinder(s, clk)
	res, err := f.Run(robot.ChannelRight, robot.PurposeProximityFine, 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Found || res.Frequency != 42100 {
		t.Fatalf("expected 42100 found, got %+v", res)
	}
	if res.Channel != robot.ChannelRight || res.Purpose != robot.PurposeProximityFine || res.ReferenceDistance != 3 {
		t.Errorf("unexpected report identity %+v", res)
	}
	if res.Samples != 43 {
		t.Errorf("Samples = %d, want 43", res.Samples)
	}
	if !res.StartedAt.Equal(start) {
		t.Errorf("StartedAt = %v, want %v", res.StartedAt, start)
	}
	if res.Duration != 86*time.Millisecond {
		t.Errorf("Duration = %v, want 86ms", res.Duration)
	}
}

func TestFinderCustomRange(t *testing.T) {
	s := &fakeSampler{limit: 40000}
	f := NewFinder(s, timeutil.RealClock{})
	f.Base = 39000
	f.Ceiling = 39500
	f.Step = 250

	got, err := f.FindDetectionFrequency(robot.ChannelFront, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 39500 {
		t.Errorf("got %v, want 39500", got)
	}
}

func TestFinderSamplerError(t *testing.T) {
	boom := errors.New("receiver unplugged")
	s := &fakeSampler{err: boom}
	_, err := NewFinder(s, timeutil.RealClock{}).FindDetectionFrequency(robot.ChannelFront, 10)
	if !errors.Is(err, boom) {
		t.Fatalf("expected sampler error, got %v", err)
	}
}

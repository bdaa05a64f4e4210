package daemon

import (
	"sync"
	"time"

	"github.com/wallbot/wallbot/pkg/events"
	"github.com/wallbot/wallbot/pkg/nav"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/types"
)

// Recorder keeps the status of the current run and the last N tick times,
// and publishes every change to its hub.
type Recorder struct {
	MaxRecordCount int

	hub       *events.EventHub
	mu        sync.Mutex
	status    types.RunStatus
	tickTimes []time.Time
}

// NewRecorder returns a Recorder for a run started at startedAt. hub may be
// nil.
func NewRecorder(maxRecordCount, exitTurns int, startedAt time.Time, hub *events.EventHub) *Recorder {
	return &Recorder{
		MaxRecordCount: maxRecordCount,
		hub:            hub,
		status: types.RunStatus{
			State:     types.RunStateWarmingUp,
			StartedAt: startedAt.Round(0),
			ExitTurns: exitTurns,
		},
	}
}

// SetState moves the run to state.
func (r *Recorder) SetState(state types.RunState) {
	r.transition(state, "")
}

// Fail marks the run failed with err.
func (r *Recorder) Fail(err error) {
	r.transition(types.RunStateFailed, err.Error())
}

func (r *Recorder) transition(to types.RunState, message string) {
	r.mu.Lock()
	from := r.status.State
	r.status.State = to
	if message != "" {
		r.status.Error = message
	}
	r.mu.Unlock()

	if from == to {
		return
	}
	r.hub.Publish(events.RunState, events.RunStateEvent{
		From:    from,
		To:      to,
		Message: message,
		Ts:      time.Now().Unix(),
	})
}

// Observe records a completed tick. It is meant for nav.WithObserver.
func (r *Recorder) Observe(rep nav.TickReport) {
	r.mu.Lock()

	// Strip monotonic clock reading.
	at := rep.At.Round(0)

	if len(r.tickTimes) >= r.MaxRecordCount && len(r.tickTimes) > 0 {
		r.tickTimes = r.tickTimes[1:]
	}
	r.tickTimes = append(r.tickTimes, at)

	readings := rep.Readings
	r.status.Ticks = rep.Tick
	r.status.CompletedTurns = rep.CompletedTurns
	r.status.LastTickAt = at
	r.status.LastReadings = &readings
	r.status.LastCommands = append([]robot.Command(nil), rep.Commands...)
	r.mu.Unlock()

	r.hub.Publish(events.Tick, events.TickEvent{
		Tick:           rep.Tick,
		Readings:       rep.Readings,
		Commands:       rep.Commands,
		CompletedTurns: rep.CompletedTurns,
		Finished:       rep.Finished,
		Ts:             at.Unix(),
	})
	if rep.Finished {
		r.SetState(types.RunStateFinished)
	}
}

// TicksIn returns how many of the recorded ticks happened within last of now.
func (r *Recorder) TicksIn(last time.Duration, now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ticksIn(last, now)
}

func (r *Recorder) ticksIn(last time.Duration, now time.Time) int {
	count := 0
	for i := len(r.tickTimes) - 1; i >= 0; i-- {
		if now.Sub(r.tickTimes[i]) > last {
			break
		}
		count++
	}
	return count
}

// Snapshot returns a copy of the status as of now.
func (r *Recorder) Snapshot(now time.Time) types.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.status
	s.TicksLastMinute = r.ticksIn(time.Minute, now)
	s.LastCommands = append([]robot.Command(nil), r.status.LastCommands...)
	if r.status.LastReadings != nil {
		readings := *r.status.LastReadings
		s.LastReadings = &readings
	}
	return s
}

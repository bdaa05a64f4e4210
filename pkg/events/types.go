package events

import (
	"encoding/json"

	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/types"
)

// Event name constants
const (
	Tick     = "tick"
	RunState = "run.state"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// TickEvent is the typed payload for tick.
type TickEvent struct {
	Tick           int             `json:"tick"`
	Readings       types.Readings  `json:"readings"`
	Commands       []robot.Command `json:"commands"`
	CompletedTurns int             `json:"completedTurns"`
	Finished       bool            `json:"finished"`
	Ts             int64           `json:"ts"`
}

// RunStateEvent is the typed payload for run.state.
type RunStateEvent struct {
	From    types.RunState `json:"from"`
	To      types.RunState `json:"to"`
	Message string         `json:"message,omitempty"`
	Ts      int64          `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}

package types

import (
	"time"

	"github.com/wallbot/wallbot/pkg/robot"
)

// RunState is the lifecycle phase of a navigation run.
type RunState string

const (
	RunStateWarmingUp RunState = "warming-up"
	RunStateRunning   RunState = "running"
	RunStateFinished  RunState = "finished"
	RunStateStopped   RunState = "stopped"
	RunStateFailed    RunState = "failed"
)

// Readings are the wall detections of one tick.
type Readings struct {
	Front     bool `json:"front"`
	Left      bool `json:"left"`
	Right     bool `json:"right"`
	LeftFine  bool `json:"leftFine"`
	RightFine bool `json:"rightFine"`
}

// RunStatus is what the daemon reports about the current run.
// This struct is shared between the daemon and client packages.
type RunStatus struct {
	State           RunState        `json:"state"`
	StartedAt       time.Time       `json:"startedAt"`
	Ticks           int             `json:"ticks"`
	TicksLastMinute int             `json:"ticksLastMinute"`
	CompletedTurns  int             `json:"completedTurns"`
	ExitTurns       int             `json:"exitTurns"`
	LastTickAt      time.Time       `json:"lastTickAt"`
	LastReadings    *Readings       `json:"lastReadings,omitempty"`
	LastCommands    []robot.Command `json:"lastCommands,omitempty"`
	Error           string          `json:"error,omitempty"`
}

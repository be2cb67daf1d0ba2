package monitor

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// State is the poller's position in its Idle -> Due -> Running cycle.
type State int

const (
	StateIdle    State = iota // Waiting for the next tick
	StateDue                  // Tick received, check not yet started
	StateRunning              // Version check in flight
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDue:
		return "due"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// ConnectionStatus represents the control-plane connection state
type ConnectionStatus int

const (
	ConnectionUnknown     ConnectionStatus = iota // Not yet attempted
	ConnectionOK                                  // Successfully connected
	ConnectionUnreachable                         // Control plane unreachable
)

func (c ConnectionStatus) String() string {
	switch c {
	case ConnectionOK:
		return "ok"
	case ConnectionUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the poller's observable state.
type Snapshot struct {
	State       State
	Connection  ConnectionStatus
	Version     string // Last version reported by the server
	LastError   string // Last check error message
	LastCheck   time.Time
	CheckCount  int
	FailedCount int
}

// DefaultInterval is the cadence used when Config.Interval is unset.
const DefaultInterval = 10 * time.Second

// Config holds poller configuration
type Config struct {
	Interval time.Duration
	// CheckLevel is the severity for successful periodic checks.
	// The startup check always logs at info.
	CheckLevel zapcore.Level
}

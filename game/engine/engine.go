package engine

// Engine provides the main interface for race operations
type Engine interface {
	// Lifecycle
	Start() error
	Wait() Result
	Stop()
	Done() <-chan struct{}
	Started() bool
	IsGameOver() bool

	// State
	Snapshot() Snapshot
	Result() Result
	Events() []Event
	Rules() Rules
}

var _ Engine = (*Race)(nil)

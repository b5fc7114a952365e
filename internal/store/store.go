package store

import "context"

// Store defines the interface for experiment storage operations
type Store interface {
	// Experiment operations
	CreateExperiment(ctx context.Context, params ExperimentParams) (*Experiment, error)
	GetExperiment(ctx context.Context, name string) (*Experiment, error)
	ListExperiments(ctx context.Context) ([]*Experiment, error)
	UpdateExperimentState(ctx context.Context, name string, state ExperimentState) error
	SetWinner(ctx context.Context, name string, variant int) error
	DeleteExperiment(ctx context.Context, name string) error

	// Event operations
	RecordEvent(ctx context.Context, experiment string, variant int, eventType string, visitorID string) error
	GetVariantStats(ctx context.Context, experiment string) ([]VariantStats, error)
	GetEvents(ctx context.Context, experiment string) ([]*Event, error)

	// Lifecycle
	Close() error
}

// ExperimentParams carries everything needed to create an experiment.
type ExperimentParams struct {
	Name         string
	Variants     []string
	ControlIndex int     // which arm is the control
	Confidence   float64 // two-tailed confidence level, e.g. 0.95
	AutoStop     bool
	Goal         string
}

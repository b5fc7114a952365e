package store

import "time"

type ExperimentState string

const (
	StateRunning   ExperimentState = "running"
	StatePaused    ExperimentState = "paused"
	StateCompleted ExperimentState = "completed"
)

// Event types accepted by RecordEvent.
const (
	EventExposure = "exposure"
	EventConvert  = "convert"
)

// VariantDef describes one arm of an experiment. IDs are assigned at
// creation time and stable for the lifetime of the experiment.
type VariantDef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsControl bool   `json:"is_control"`
}

type Experiment struct {
	ID              int64
	Name            string
	Variants        []VariantDef // Decoded from JSON
	Goal            string       // Optional description of what conversion means
	ConfidenceLevel float64      // Two-tailed confidence level for analysis
	AutoStop        bool         // Recommend stopping once significant with adequate power
	State           ExperimentState
	WinnerVariant   *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ControlIndex returns the index of the control arm. Falls back to 0
// when no variant is flagged, which creation never produces.
func (e *Experiment) ControlIndex() int {
	for i, v := range e.Variants {
		if v.IsControl {
			return i
		}
	}
	return 0
}

type Event struct {
	ID         int64
	Experiment string
	Variant    int
	EventType  string // "exposure" or "convert"
	VisitorID  string
	CreatedAt  time.Time
}

// VariantStats holds distinct-visitor counts for one arm.
type VariantStats struct {
	Variant     int
	Exposures   int
	Conversions int
}

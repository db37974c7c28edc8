package models

import "time"

// ExperimentState is the lifecycle state of an A/B copy experiment.
type ExperimentState string

const (
	ExperimentRunning   ExperimentState = "running"
	ExperimentPaused    ExperimentState = "paused"
	ExperimentCompleted ExperimentState = "completed"
)

// IsValidExperimentState checks if the given state is supported.
func IsValidExperimentState(s ExperimentState) bool {
	switch s {
	case ExperimentRunning, ExperimentPaused, ExperimentCompleted:
		return true
	default:
		return false
	}
}

// ExperimentEventType is what a visitor did with a variant.
type ExperimentEventType string

const (
	EventView    ExperimentEventType = "view"
	EventConvert ExperimentEventType = "convert"
)

// IsValidExperimentEventType checks if the given event type is supported.
func IsValidExperimentEventType(t ExperimentEventType) bool {
	return t == EventView || t == EventConvert
}

// Experiment is an A/B test over landing-page copy variants.
type Experiment struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	LandingSlug    string          `json:"landing_slug,omitempty"`
	Variants       []string        `json:"variants"`
	Weights        []float64       `json:"weights,omitempty"`
	ConversionGoal string          `json:"conversion_goal,omitempty"`
	State          ExperimentState `json:"state"`
	WinnerVariant  *int            `json:"winner_variant,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// VariantStats aggregates events of one variant.
type VariantStats struct {
	Variant     int `json:"variant"`
	Views       int `json:"views"`
	Conversions int `json:"conversions"`
}

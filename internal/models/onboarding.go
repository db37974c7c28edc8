package models

import "time"

// OnboardingStep numbers the mobile onboarding screens.
type OnboardingStep int

const (
	StepWelcome    OnboardingStep = 0
	StepConditions OnboardingStep = 1
	StepPriority   OnboardingStep = 2
	StepImpact     OnboardingStep = 3
	StepIntent     OnboardingStep = 4
	StepBaseline   OnboardingStep = 5
)

// Priority is the symptom area the user cares about most.
type Priority string

const (
	PriorityPainInflammation Priority = "pain-inflammation"
	PriorityEnergyFatigue    Priority = "energy-fatigue"
	PrioritySleepRest        Priority = "sleep-rest"
	PriorityMoodStress       Priority = "mood-stress"
	PriorityDigestion        Priority = "digestion"
	PriorityFocusCognition   Priority = "focus-cognition"
)

// IsValidPriority checks if the given priority is supported.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityPainInflammation, PriorityEnergyFatigue, PrioritySleepRest,
		PriorityMoodStress, PriorityDigestion, PriorityFocusCognition:
		return true
	default:
		return false
	}
}

// Intent is what the user hopes to get out of tracking.
type Intent string

const (
	IntentUnderstandPatterns Intent = "understand-patterns"
	IntentPredictFlares      Intent = "predict-flares"
	IntentShareWithDoctor    Intent = "share-with-doctor"
	IntentJustTrack          Intent = "just-track"
)

// IsValidIntent checks if the given intent is supported.
func IsValidIntent(i Intent) bool {
	switch i {
	case IntentUnderstandPatterns, IntentPredictFlares, IntentShareWithDoctor, IntentJustTrack:
		return true
	default:
		return false
	}
}

// ImpactQuestion pairs a tracked feature with the outcome the user wonders about,
// e.g. "sleep" x "next-day pain".
type ImpactQuestion struct {
	Feature string `json:"feature"`
	Outcome string `json:"outcome"`
}

// Baseline is the first symptom check-in captured at the end of onboarding.
type Baseline struct {
	Severity   int       `json:"severity"` // 0..10
	IsFlare    bool      `json:"isFlare"`
	Drivers    []string  `json:"drivers,omitempty"`
	Note       string    `json:"note,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// OnboardingState is the persisted progress of one user through onboarding.
type OnboardingState struct {
	Step           OnboardingStep  `json:"step"`
	Conditions     []string        `json:"conditions"`
	Priority       *Priority       `json:"priority"`
	ImpactQuestion *ImpactQuestion `json:"impactQuestion"`
	Intent         *Intent         `json:"intent"`
	Baseline       *Baseline       `json:"baseline"`
	IsComplete     bool            `json:"isComplete"`
	CompletedAt    *time.Time      `json:"completedAt"`
}

// InitialOnboardingState returns the state a fresh install starts with.
func InitialOnboardingState() OnboardingState {
	return OnboardingState{
		Step:       StepWelcome,
		Conditions: []string{},
	}
}

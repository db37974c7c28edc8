package models

// PainPointCategory groups testimonials by the struggle they speak to.
type PainPointCategory string

const (
	PainUnpredictability PainPointCategory = "unpredictability"
	PainEnergy           PainPointCategory = "energy"
	PainBrainFog         PainPointCategory = "brain_fog"
	PainBurden           PainPointCategory = "burden"
	PainDismissed        PainPointCategory = "dismissed"
	PainPatterns         PainPointCategory = "patterns"
	PainSleep            PainPointCategory = "sleep"
	PainPain             PainPointCategory = "pain"
)

// Testimonial is an entry of the static social-proof catalog.
type Testimonial struct {
	ID            string            `json:"id"`
	Quote         string            `json:"quote"`
	Source        string            `json:"source"`
	Condition     string            `json:"condition"`
	PainPoint     PainPointCategory `json:"painPoint"`
	IsFlipped     bool              `json:"isFlipped"`
	IsClueInsight bool              `json:"isClueInsight"`
	Persona       string            `json:"persona"`
}

// ValueCategory is the kind of value a watch list promises.
type ValueCategory string

const (
	ValuePredictionBased ValueCategory = "PREDICTION_BASED"
	ValuePatternBased    ValueCategory = "PATTERN_BASED"
	ValueAdvocacyBased   ValueCategory = "ADVOCACY_BASED"
	ValueEffortBased     ValueCategory = "EFFORT_BASED"
	ValueClarityBased    ValueCategory = "CLARITY_BASED"
)

// WatchListConfig is the static configuration for one pain-point key.
type WatchListConfig struct {
	Items         [3]string     `json:"items"`
	Category      ValueCategory `json:"category"`
	BaselineLabel string        `json:"baselineLabel"`
}

// Q3Data is the baseline widget answer plus the condition the user named.
type Q3Data struct {
	WidgetType  string      `json:"widgetType"`
	WidgetValue interface{} `json:"widgetValue"`
	Condition   string      `json:"condition,omitempty"`
}

// WatchList is a resolved watch list ready for display.
type WatchList struct {
	Items         []string      `json:"items"`
	Baseline      string        `json:"baseline"`
	BaselineLabel string        `json:"baselineLabel"`
	Condition     string        `json:"condition"`
	Category      ValueCategory `json:"category"`
}

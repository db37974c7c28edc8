package content

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// DefaultWatchListKey is used for any pain point without its own config.
const DefaultWatchListKey = "no_focus"

// Widget types used by the Q3 baseline question.
const (
	WidgetSlider = "slider"
	WidgetChips  = "chips"
)

// chipsShown is how many chip values are listed before collapsing into "+N more".
const chipsShown = 2

var watchListConfigs = map[string]models.WatchListConfig{
	"energy_envelope": {
		Items:         [3]string{"Your energy envelope, day by day", "Early signs of a crash 24-48 hours out", "Which activities cost you the most spoons"},
		Category:      models.ValuePredictionBased,
		BaselineLabel: "Your energy today",
	},
	"unpredictable_flares": {
		Items:         [3]string{"Warning signs before a flare", "How sleep and stress stack up", "Your flare-free streaks"},
		Category:      models.ValuePredictionBased,
		BaselineLabel: "Flare risk today",
	},
	"pain_spikes": {
		Items:         [3]string{"Pain spikes before they peak", "What your lower-pain days have in common", "How your meds line up with relief"},
		Category:      models.ValuePredictionBased,
		BaselineLabel: "Pain today",
	},
	"brain_fog": {
		Items:         [3]string{"Foggy days versus clear days", "What clears the fog fastest", "Symptoms you might forget to mention"},
		Category:      models.ValueClarityBased,
		BaselineLabel: "Fog level today",
	},
	"tracking_burden": {
		Items:         [3]string{"Everything you log in under 30 seconds", "Gaps we can fill in for you", "A weekly recap so you don't have to"},
		Category:      models.ValueEffortBased,
		BaselineLabel: "Time you spend tracking now",
	},
	"doctor_dismissed": {
		Items:         [3]string{"Symptom trends your doctor can read at a glance", "Changes since your last appointment", "Patterns worth raising at your next visit"},
		Category:      models.ValueAdvocacyBased,
		BaselineLabel: "How heard you feel",
	},
	"hidden_triggers": {
		Items:         [3]string{"Links between food, sleep and weather", "Triggers that show up one to three days later", "What your best days have in common"},
		Category:      models.ValuePatternBased,
		BaselineLabel: "Suspected triggers",
	},
	"sleep_quality": {
		Items:         [3]string{"Which evenings lead to restful nights", "How poor sleep shows up the next day", "Your sleep trend week over week"},
		Category:      models.ValuePatternBased,
		BaselineLabel: "Sleep quality",
	},
	DefaultWatchListKey: {
		Items:         [3]string{"Your overall symptom trend", "Days that stand out, good or bad", "Patterns worth a closer look"},
		Category:      models.ValuePatternBased,
		BaselineLabel: "Where you're starting",
	},
}

var conditionDisplayNames = map[string]string{
	"me_cfs":               "ME/CFS",
	"long_covid":           "Long COVID",
	"chronic_fatigue":      "Chronic Fatigue",
	"fibromyalgia":         "Fibromyalgia",
	"pots":                 "POTS",
	"eds":                  "Ehlers-Danlos Syndrome",
	"lupus":                "Lupus",
	"ms":                   "Multiple Sclerosis",
	"ra":                   "Rheumatoid Arthritis",
	"rheumatoid_arthritis": "Rheumatoid Arthritis",
	"ibs":                  "IBS",
	"crohns":               "Crohn's Disease",
	"endometriosis":        "Endometriosis",
	"pcos":                 "PCOS",
	"migraine":             "Migraine",
	"hashimotos":           "Hashimoto's",
}

// WatchListConfigFor returns the config for a pain-point key, or the no_focus default.
func WatchListConfigFor(painPoint string) models.WatchListConfig {
	if cfg, ok := watchListConfigs[strings.TrimSpace(painPoint)]; ok {
		return cfg
	}
	return watchListConfigs[DefaultWatchListKey]
}

// GetWatchList resolves the Q2 pain point and Q3 baseline into a displayable watch list.
func GetWatchList(q2 string, q3 models.Q3Data) models.WatchList {
	key := strings.TrimSpace(q2)
	cfg, ok := watchListConfigs[key]
	if !ok {
		slog.Debug("GetWatchList: unknown pain point, using default", "q2", q2, "default", DefaultWatchListKey)
		cfg = watchListConfigs[DefaultWatchListKey]
	}
	return models.WatchList{
		Items:         cfg.Items[:],
		Baseline:      FormatBaselineValue(q3.WidgetType, q3.WidgetValue),
		BaselineLabel: cfg.BaselineLabel,
		Condition:     ConditionDisplayName(q3.Condition),
		Category:      cfg.Category,
	}
}

// FormatBaselineValue renders a Q3 widget answer: sliders as a percentage, chips as a
// short comma list, anything else as text.
func FormatBaselineValue(widgetType string, widgetValue interface{}) string {
	switch widgetType {
	case WidgetSlider:
		if n, ok := numberString(widgetValue); ok {
			return n + "%"
		}
	case WidgetChips:
		if chips, ok := stringSlice(widgetValue); ok {
			if len(chips) <= chipsShown {
				return strings.Join(chips, ", ")
			}
			return fmt.Sprintf("%s +%d more", strings.Join(chips[:chipsShown], ", "), len(chips)-chipsShown)
		}
	}
	if widgetValue == nil {
		return ""
	}
	return fmt.Sprint(widgetValue)
}

// ConditionDisplayName maps a condition key to its display name, falling back to
// replacing underscores with spaces.
func ConditionDisplayName(condition string) string {
	key := strings.ToLower(strings.TrimSpace(condition))
	if name, ok := conditionDisplayNames[key]; ok {
		return name
	}
	return strings.ReplaceAll(strings.TrimSpace(condition), "_", " ")
}

func numberString(v interface{}) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	case string:
		if _, err := strconv.ParseFloat(n, 64); err == nil {
			return n, true
		}
	}
	return "", false
}

func stringSlice(v interface{}) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	}
	return nil, false
}

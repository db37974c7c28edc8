// Package content holds the static social-proof and watch-list catalogs used by the
// signup funnel, together with the deterministic lookups over them.
package content

import "github.com/BTreeMap/FlareFunnel/internal/models"

// DefaultTestimonialID is returned whenever the selector has nothing to go on.
const DefaultTestimonialID = "burden_04_morning_coffee_flipped"

// testimonials is ordered; selection ties resolve to the earliest entry.
var testimonials = []models.Testimonial{
	{
		ID:        "unpredictability_01_cancelled_plans_flipped",
		Quote:     "I used to cancel plans the morning of. Now I see a rough week coming two days out and plan around it.",
		Source:    "Priya, 34",
		Condition: "Lupus",
		PainPoint: models.PainUnpredictability,
		IsFlipped: true,
		Persona:   "maya",
	},
	{
		ID:        "energy_01_boom_bust_flipped",
		Quote:     "I finally stopped the boom-and-bust cycle. I can see my crash coming before it lands.",
		Source:    "Dana, 41",
		Condition: "ME/CFS",
		PainPoint: models.PainEnergy,
		IsFlipped: true,
		Persona:   "jordan",
	},
	{
		ID:        "energy_02_spoons_counted",
		Quote:     "Counting spoons in my head was exhausting on its own. Seeing my real energy budget changed how I pace every day.",
		Source:    "Marcus, 29",
		Condition: "Long COVID",
		PainPoint: models.PainEnergy,
		Persona:   "jordan",
	},
	{
		ID:        "brain_fog_01_lost_words_flipped",
		Quote:     "On foggy days I can't remember what I ate an hour ago. One tap and it's logged, no thinking required.",
		Source:    "Elena, 38",
		Condition: "Fibromyalgia",
		PainPoint: models.PainBrainFog,
		IsFlipped: true,
		Persona:   "sam",
	},
	{
		ID:        "brain_fog_02_doctor_blank",
		Quote:     "I'd blank in appointments. Now I hand my doctor a summary instead of trying to remember three weeks of symptoms.",
		Source:    "Chris, 45",
		Condition: "Long COVID",
		PainPoint: models.PainBrainFog,
		Persona:   "sam",
	},
	{
		ID:        "burden_01_spreadsheet_quit",
		Quote:     "I tried spreadsheets three times and quit every time. Tracking shouldn't feel like a second job.",
		Source:    "Jess, 27",
		Condition: "POTS",
		PainPoint: models.PainBurden,
		Persona:   "maya",
	},
	{
		ID:        DefaultTestimonialID,
		Quote:     "Logging takes less time than my morning coffee. That's the only reason I kept doing it.",
		Source:    "Sarah, 36",
		Condition: "Chronic Illness",
		PainPoint: models.PainBurden,
		IsFlipped: true,
		Persona:   "maya",
	},
	{
		ID:        "dismissed_01_its_stress_flipped",
		Quote:     "For years I heard 'it's just stress.' My data made my rheumatologist take a second look.",
		Source:    "Alex, 31",
		Condition: "Rheumatoid Arthritis",
		PainPoint: models.PainDismissed,
		IsFlipped: true,
		Persona:   "alex",
	},
	{
		ID:        "dismissed_02_gi_referral",
		Quote:     "Bringing actual patterns to my GI appointment got me the referral I'd been asking for.",
		Source:    "Tom, 52",
		Condition: "Crohn's Disease",
		PainPoint: models.PainDismissed,
		Persona:   "alex",
	},
	{
		ID:        "patterns_01_sleep_not_food_flipped",
		Quote:     "Turns out my worst flares followed bad sleep, not the foods I'd been cutting out.",
		Source:    "Nina, 33",
		Condition: "IBS",
		PainPoint: models.PainPatterns,
		IsFlipped: true,
		Persona:   "maya",
	},
	{
		ID:        "patterns_02_weather_validated",
		Quote:     "I always suspected the weather. Seeing it lined up against my pain days was weirdly validating.",
		Source:    "Rosa, 47",
		Condition: "Ehlers-Danlos Syndrome",
		PainPoint: models.PainPatterns,
		Persona:   "sam",
	},
	{
		ID:        "sleep_01_wired_tired_flipped",
		Quote:     "Wired but tired every night. Seeing which evenings led to decent sleep helped me build a routine that works.",
		Source:    "Kai, 30",
		Condition: "Fibromyalgia",
		PainPoint: models.PainSleep,
		IsFlipped: true,
		Persona:   "sam",
	},
	{
		ID:        "pain_01_spike_warning_flipped",
		Quote:     "I get a heads-up before my pain spikes now, so I take meds early instead of chasing it.",
		Source:    "Leah, 29",
		Condition: "Endometriosis",
		PainPoint: models.PainPain,
		IsFlipped: true,
		Persona:   "maya",
	},
	{
		ID:        "pain_02_migraine_scraps",
		Quote:     "My migraine diary used to be scraps of paper. Now I know my three biggest triggers.",
		Source:    "Omar, 39",
		Condition: "Migraine",
		PainPoint: models.PainPain,
		Persona:   "alex",
	},
	{
		ID:            "insight_01_energy_pacing",
		Quote:         "People with ME/CFS who pace using their own energy trends report fewer crash days within their first month.",
		Source:        "Clue Insight",
		Condition:     "ME/CFS, Chronic Fatigue",
		PainPoint:     models.PainEnergy,
		IsClueInsight: true,
		Persona:       "jordan",
	},
	{
		ID:            "insight_02_flare_lead_time_flipped",
		Quote:         "Flares rarely come out of nowhere: warning signs in sleep and stress often show up 48 hours earlier.",
		Source:        "Clue Insight",
		Condition:     "Autoimmune",
		PainPoint:     models.PainUnpredictability,
		IsFlipped:     true,
		IsClueInsight: true,
		Persona:       "maya",
	},
	{
		ID:        "unpredictability_02_good_day_trap",
		Quote:     "Good days used to trick me into overdoing it. Now I know which good days are safe to use.",
		Source:    "Ben, 44",
		Condition: "Multiple Sclerosis",
		PainPoint: models.PainUnpredictability,
		Persona:   "jordan",
	},
	{
		ID:        "energy_03_slow_mornings_flipped",
		Quote:     "Standing up used to be a gamble. Now I know which mornings need the slow start.",
		Source:    "Mia, 24",
		Condition: "POTS, Dysautonomia",
		PainPoint: models.PainEnergy,
		IsFlipped: true,
		Persona:   "jordan",
	},
}

// domainConditionKeywords maps a Q1 condition domain to condition keywords.
var domainConditionKeywords = map[string][]string{
	"fatigue":    {"ME/CFS", "Long COVID", "Chronic Fatigue", "Fibromyalgia"},
	"pain":       {"Fibromyalgia", "Chronic Pain", "Arthritis", "Endometriosis", "Ehlers-Danlos", "Migraine"},
	"autoimmune": {"Lupus", "Rheumatoid Arthritis", "Hashimoto", "Multiple Sclerosis", "Psoriatic", "Autoimmune"},
	"gut":        {"IBS", "Crohn", "Colitis", "Celiac"},
	"neuro":      {"Migraine", "POTS", "Dysautonomia", "Multiple Sclerosis"},
	"hormonal":   {"Endometriosis", "PCOS", "PMDD", "Thyroid", "Hashimoto"},
	"multiple":   {"Chronic Illness", "Autoimmune"},
}

// painPointCategories maps a Q2 answer to the testimonial categories that speak to it.
var painPointCategories = map[string][]models.PainPointCategory{
	"energy_envelope":      {models.PainEnergy, models.PainUnpredictability},
	"unpredictable_flares": {models.PainUnpredictability},
	"brain_fog":            {models.PainBrainFog},
	"tracking_burden":      {models.PainBurden},
	"doctor_dismissed":     {models.PainDismissed},
	"hidden_triggers":      {models.PainPatterns},
	"sleep_quality":        {models.PainSleep, models.PainEnergy},
	"pain_spikes":          {models.PainPain, models.PainUnpredictability},
	"no_focus":             {models.PainPatterns, models.PainBurden},
}

// painPointHeuristics is checked in order when a Q2 answer is not in painPointCategories.
var painPointHeuristics = []struct {
	needles  []string
	category models.PainPointCategory
}{
	{[]string{"brain_fog", "fog"}, models.PainBrainFog},
	{[]string{"energy", "fatigue", "crash", "spoon"}, models.PainEnergy},
	{[]string{"flare", "predict"}, models.PainUnpredictability},
	{[]string{"track", "burden", "log"}, models.PainBurden},
	{[]string{"doctor", "dismiss", "appointment"}, models.PainDismissed},
	{[]string{"trigger", "pattern"}, models.PainPatterns},
	{[]string{"sleep"}, models.PainSleep},
	{[]string{"pain"}, models.PainPain},
}

// Testimonials returns a copy of the catalog in selection order.
func Testimonials() []models.Testimonial {
	out := make([]models.Testimonial, len(testimonials))
	copy(out, testimonials)
	return out
}

// TestimonialByID looks up a catalog entry.
func TestimonialByID(id string) (models.Testimonial, bool) {
	for _, t := range testimonials {
		if t.ID == id {
			return t, true
		}
	}
	return models.Testimonial{}, false
}

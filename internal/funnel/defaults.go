package funnel

import (
	"strings"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// Defaults substituted for anything the database cannot supply.
const (
	DefaultProductSlug = "flare-forecast"
	DefaultPersonaSlug = "maya"
	DefaultDeviceType  = models.DeviceDesktop
)

// DefaultSession is the session used when the modal session row is missing.
func DefaultSession(sessionID string) models.ModalSession {
	return models.ModalSession{
		ID:          sessionID,
		ProductSlug: DefaultProductSlug,
		PersonaSlug: DefaultPersonaSlug,
		DeviceType:  DefaultDeviceType,
		Status:      models.ModalSessionOpen,
	}
}

var placeholderResponses = [models.ModalQuestionCount]models.ModalResponse{
	{Slot: 1, QuestionKey: "q1_domain", QuestionText: "What are you managing?", AnswerValue: "multiple", AnswerLabel: "A few conditions at once"},
	{Slot: 2, QuestionKey: "q2_pain_point", QuestionText: "What's the hardest part right now?", AnswerValue: "no_focus", AnswerLabel: "Not sure where to start"},
	{Slot: 3, QuestionKey: "q3_baseline", QuestionText: "How are you feeling today?", AnswerValue: "50", AnswerLabel: "About halfway", WidgetType: "slider", WidgetValue: 50.0},
	{Slot: 4, QuestionKey: "q4_intent", QuestionText: "What would help most?", AnswerValue: "understand_patterns", AnswerLabel: "Understanding my patterns"},
}

// PlaceholderResponse returns the placeholder answer for a slot (1..4).
func PlaceholderResponse(slot int) models.ModalResponse {
	if slot < 1 || slot > models.ModalQuestionCount {
		return models.ModalResponse{Slot: slot}
	}
	return placeholderResponses[slot-1]
}

type productCopy struct {
	ad      models.CampaignCopy
	landing models.CampaignCopy
	persona models.CampaignCopy
}

var defaultCopy = map[string]productCopy{
	"flare-forecast": {
		ad: models.CampaignCopy{Headline: "What if you knew a flare was coming?", CTA: "See how it works"},
		landing: models.CampaignCopy{
			Headline:    "Know your flares before they hit",
			Subheadline: "A symptom tracker that learns your patterns and warns you early",
		},
		persona: models.CampaignCopy{
			PersonaName: "Maya",
			Body:        "a 32-year-old living with lupus who is tired of being blindsided by flares",
			PainPoints:  []string{"unpredictable flares", "cancelled plans", "tracking fatigue"},
		},
	},
	"pacing-coach": {
		ad: models.CampaignCopy{Headline: "Stop paying for good days with bad weeks", CTA: "Learn to pace"},
		landing: models.CampaignCopy{
			Headline:    "Pacing that fits your energy, not a textbook",
			Subheadline: "Find your energy envelope and stay inside it",
		},
		persona: models.CampaignCopy{
			PersonaName: "Jordan",
			Body:        "a nurse with ME/CFS caught in the boom and bust cycle",
			PainPoints:  []string{"post-exertional crashes", "brain fog", "guilt about resting"},
		},
	},
	"visit-prep": {
		ad: models.CampaignCopy{Headline: "Your doctor has 12 minutes. Make them count.", CTA: "Prep my visit"},
		landing: models.CampaignCopy{
			Headline:    "Walk in with the data, walk out with a plan",
			Subheadline: "Turn months of symptoms into a one-page summary",
		},
		persona: models.CampaignCopy{
			PersonaName: "Priya",
			Body:        "someone with endometriosis who has been dismissed by three specialists",
			PainPoints:  []string{"being dismissed", "forgetting symptoms in the room", "long waits between visits"},
		},
	},
	"symptom-journal": {
		ad: models.CampaignCopy{Headline: "A symptom journal you'll actually keep", CTA: "Start journaling"},
		landing: models.CampaignCopy{
			Headline:    "Log it in seconds, even on bad days",
			Subheadline: "One tap check-ins, with room for the details when you have the energy",
		},
		persona: models.CampaignCopy{
			PersonaName: "Sam",
			Body:        "a grad student with IBS who has given up on three tracking apps",
			PainPoints:  []string{"tracking burden", "hidden food triggers", "inconsistent logs"},
		},
	},
}

// DefaultCopy returns built-in copy of a kind for a product. Unknown products use flare-forecast.
func DefaultCopy(kind models.CampaignKind, productSlug string) models.CampaignCopy {
	product := strings.TrimSpace(productSlug)
	pc, ok := defaultCopy[product]
	if !ok {
		product = DefaultProductSlug
		pc = defaultCopy[product]
	}
	var c models.CampaignCopy
	switch kind {
	case models.CampaignKindAd:
		c = pc.ad
	case models.CampaignKindLanding:
		c = pc.landing
	default:
		c = pc.persona
		c.PainPoints = append([]string(nil), c.PainPoints...)
	}
	c.Kind = kind
	c.Slug = "default-" + product
	c.ProductSlug = product
	return c
}

// DefaultCopyEntries lists every built-in copy row, used to seed a fresh database.
func DefaultCopyEntries() []models.CampaignCopy {
	var out []models.CampaignCopy
	for _, product := range []string{"flare-forecast", "pacing-coach", "visit-prep", "symptom-journal"} {
		for _, kind := range []models.CampaignKind{models.CampaignKindAd, models.CampaignKindLanding, models.CampaignKindPersona} {
			out = append(out, DefaultCopy(kind, product))
		}
	}
	return out
}

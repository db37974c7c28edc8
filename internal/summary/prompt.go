package summary

import (
	"strings"

	"github.com/BTreeMap/FlareFunnel/internal/content"
	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// PromptTemplateID identifies the prompt skeleton in generation logs.
const PromptTemplateID = "conversion_summary_v1"

const systemPrompt = "You are a conversion copywriter for a symptom-tracking app built for people living with chronic illness. " +
	"Write warm, specific, non-clinical copy that reflects the user's own answers back to them. " +
	"Never promise a cure or give medical advice. " +
	"Return only valid JSON with the keys \"title\" (string), \"benefits\" (array of exactly 3 strings) and \"ctaText\" (string)."

const userPromptTemplate = `Product: {{.product_name}}
Persona: {{.persona_name}} ({{.persona_description}})
Persona pain points: {{.persona_pain_points}}
Ad they clicked: {{.ad_headline}}
Landing page: {{.landing_headline}} / {{.landing_subheadline}}
Traffic source: {{.utm_source}} / {{.utm_campaign}}
Device: {{.device_type}}

Their answers:
1. {{.q1_question}} -> {{.q1_answer}}
2. {{.q2_question}} -> {{.q2_answer}}
3. {{.q3_question}} -> {{.q3_answer}}
4. {{.q4_question}} -> {{.q4_answer}}

What we'll watch for them: {{.watch_items}}
A voice like theirs: "{{.testimonial_quote}}"

Write a title under 60 characters that names their situation, three benefits under 90 characters each that map to their answers, and a call to action under 30 characters.`

// PromptVars flattens a conversion context into the prompt's placeholder values.
func PromptVars(uc models.UserConversionContext) map[string]string {
	q1, q2, q3, q4 := uc.Response(1), uc.Response(2), uc.Response(3), uc.Response(4)
	watch := content.GetWatchList(q2.AnswerValue, models.Q3Data{
		WidgetType:  q3.WidgetType,
		WidgetValue: q3.WidgetValue,
		Condition:   q1.AnswerValue,
	})
	quote := content.SelectTestimonialForUser(q1.AnswerValue, q2.AnswerValue, true).Quote

	return map[string]string{
		"product_name":        ProductName(uc.ProductSlug),
		"persona_name":        orDefault(uc.Persona.PersonaName, uc.PersonaSlug),
		"persona_description": orDefault(uc.Persona.Body, "someone managing a chronic condition"),
		"persona_pain_points": orDefault(strings.Join(uc.Persona.PainPoints, "; "), "unknown"),
		"ad_headline":         orDefault(uc.Ad.Headline, "none"),
		"landing_headline":    orDefault(uc.Landing.Headline, "none"),
		"landing_subheadline": orDefault(uc.Landing.Subheadline, "none"),
		"utm_source":          orDefault(uc.UTM.Source, "direct"),
		"utm_campaign":        orDefault(uc.UTM.Campaign, "none"),
		"device_type":         orDefault(string(uc.DeviceType), string(models.DeviceDesktop)),
		"q1_question":         q1.QuestionText,
		"q1_answer":           answerText(q1),
		"q2_question":         q2.QuestionText,
		"q2_answer":           answerText(q2),
		"q3_question":         q3.QuestionText,
		"q3_answer":           q3Answer(q3),
		"q4_question":         q4.QuestionText,
		"q4_answer":           answerText(q4),
		"watch_items":         strings.Join(watch.Items, "; "),
		"testimonial_quote":   quote,
	}
}

// BuildUserPrompt renders the user prompt for a conversion context.
func BuildUserPrompt(uc models.UserConversionContext) (string, error) {
	return RenderTemplate(userPromptTemplate, PromptVars(uc))
}

func answerText(r models.ModalResponse) string {
	if r.AnswerLabel != "" {
		return r.AnswerLabel
	}
	return orDefault(r.AnswerValue, "no answer")
}

func q3Answer(r models.ModalResponse) string {
	if r.WidgetType != "" && r.WidgetValue != nil {
		if formatted := content.FormatBaselineValue(r.WidgetType, r.WidgetValue); formatted != "" {
			return formatted
		}
	}
	return answerText(r)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

package summary

import (
	"log/slog"
	"strings"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// DefaultProductSlug is the product used for unknown slugs.
const DefaultProductSlug = "flare-forecast"

// fallbackTemplate is static copy for one product. Title may reference {{.q1Label}}.
type fallbackTemplate struct {
	Name     string
	Title    string
	Benefits [3]string
	CTAText  string
}

var fallbackTemplates = map[string]fallbackTemplate{
	"flare-forecast": {
		Name:  "Flare Forecast",
		Title: "Your flare forecast for {{.q1Label}} starts today",
		Benefits: [3]string{
			"See rough days coming before they land, not after",
			"Spot the sleep, stress and weather patterns behind your flares",
			"Log in seconds, even on your worst days",
		},
		CTAText: "Get my forecast",
	},
	"pacing-coach": {
		Name:  "Pacing Coach",
		Title: "Pace your energy around {{.q1Label}}, not the other way round",
		Benefits: [3]string{
			"Know your real energy envelope, day by day",
			"Catch crash warning signs 24-48 hours early",
			"Plan good days without paying for them later",
		},
		CTAText: "Start pacing smarter",
	},
	"visit-prep": {
		Name:  "Visit Prep",
		Title: "Walk into your next appointment ready to talk about {{.q1Label}}",
		Benefits: [3]string{
			"A one-page symptom summary your doctor can read in a minute",
			"Trends since your last visit, without relying on memory",
			"Questions worth asking, built from your own data",
		},
		CTAText: "Prep my next visit",
	},
	"symptom-journal": {
		Name:  "Symptom Journal",
		Title: "A symptom journal that keeps up with {{.q1Label}}",
		Benefits: [3]string{
			"One-tap check-ins that take less time than your coffee",
			"Notes, drivers and severity in one place",
			"Weekly recaps so nothing slips through the cracks",
		},
		CTAText: "Start my journal",
	},
}

// defaultQ1Label stands in when Q1 has no usable answer.
const defaultQ1Label = "your condition"

// ProductName returns the display name of a product slug.
func ProductName(slug string) string {
	return templateFor(slug).Name
}

func templateFor(slug string) fallbackTemplate {
	if tmpl, ok := fallbackTemplates[strings.TrimSpace(slug)]; ok {
		return tmpl
	}
	return fallbackTemplates[DefaultProductSlug]
}

// Fallback builds template copy for the context's product with Q1 rendered into the title.
func Fallback(uc models.UserConversionContext) models.Summary {
	tmpl := templateFor(uc.ProductSlug)
	q1 := uc.Response(1)
	label := strings.TrimSpace(q1.AnswerLabel)
	if label == "" {
		label = strings.ReplaceAll(strings.TrimSpace(q1.AnswerValue), "_", " ")
	}
	if label == "" {
		label = defaultQ1Label
	}

	title, err := RenderTemplate(tmpl.Title, map[string]string{"q1Label": strings.ToLower(label)})
	if err != nil {
		// titles are package constants; this only fires if one is malformed
		slog.Error("summary.Fallback: title template failed", "error", err, "product", uc.ProductSlug)
		title = tmpl.Name
	}

	return models.Summary{
		Title:    title,
		Benefits: append([]string(nil), tmpl.Benefits[:]...),
		CTAText:  tmpl.CTAText,
	}
}

// FallbackResult wraps Fallback with template metadata.
func FallbackResult(uc models.UserConversionContext) models.SummaryGenerationResult {
	return models.SummaryGenerationResult{
		Summary: Fallback(uc),
		Metadata: models.GenerationMetadata{
			ModelUsed:        models.ModelTemplateFallback,
			PromptTemplateID: "fallback_" + productKey(uc.ProductSlug),
		},
	}
}

func productKey(slug string) string {
	if _, ok := fallbackTemplates[strings.TrimSpace(slug)]; ok {
		return strings.TrimSpace(slug)
	}
	return DefaultProductSlug
}

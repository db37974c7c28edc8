package models

import "time"

// ModelTemplateFallback is reported as the model when the static template produced the summary.
const ModelTemplateFallback = "template_fallback"

// Summary is the personalized conversion copy shown at the end of the modal.
type Summary struct {
	Title    string   `json:"title"`
	Benefits []string `json:"benefits"`
	CTAText  string   `json:"ctaText"`
}

// GenerationMetadata describes how a Summary was produced.
type GenerationMetadata struct {
	ModelUsed        string `json:"modelUsed"`
	PromptTemplateID string `json:"promptTemplateId"`
	TokensUsed       int64  `json:"tokensUsed"`
	LatencyMs        int64  `json:"latencyMs"`
}

// SummaryGenerationResult is the output of one conversion-summary attempt.
type SummaryGenerationResult struct {
	Summary  Summary            `json:"summary"`
	Metadata GenerationMetadata `json:"metadata"`
}

// IsFallback reports whether the result came from the static template.
func (r SummaryGenerationResult) IsFallback() bool {
	return r.Metadata.ModelUsed == ModelTemplateFallback
}

// AIGeneration is the persisted log row of a SummaryGenerationResult.
type AIGeneration struct {
	ID             string                  `json:"id"`
	ModalSessionID string                  `json:"modal_session_id"`
	Result         SummaryGenerationResult `json:"result"`
	Converted      bool                    `json:"converted"`
	CTAClicked     bool                    `json:"cta_clicked"`
	CreatedAt      time.Time               `json:"created_at"`
}

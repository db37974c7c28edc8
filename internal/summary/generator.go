package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/FlareFunnel/internal/genai"
	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// RequiredBenefits is the number of benefits a summary carries.
const RequiredBenefits = 3

var (
	// ErrMissingTitle is returned when the LLM output has no title.
	ErrMissingTitle = errors.New("summary JSON missing title")
	// ErrTooFewBenefits is returned when the LLM output has fewer than three benefits.
	ErrTooFewBenefits = errors.New("summary JSON needs at least 3 benefits")
)

// Completer is the slice of the GenAI client the generator needs.
type Completer interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (*genai.Completion, error)
}

// Generator produces conversion summaries. A nil Completer always yields the fallback.
type Generator struct {
	llm Completer
}

// NewGenerator creates a Generator over the given completer, which may be nil.
func NewGenerator(llm Completer) *Generator {
	return &Generator{llm: llm}
}

// GenerateSummary builds a one-off generator for apiKey and runs it. Client construction
// failures (e.g. an empty key) yield the fallback like any other failure.
func GenerateSummary(ctx context.Context, uc models.UserConversionContext, apiKey string, opts ...genai.Option) models.SummaryGenerationResult {
	client, err := genai.NewClient(append([]genai.Option{genai.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		slog.Warn("summary.GenerateSummary: GenAI client unavailable, using fallback", "error", err, "session", uc.SessionID)
		return FallbackResult(uc)
	}
	return NewGenerator(client).Generate(ctx, uc)
}

// Generate returns LLM copy when the call and validation succeed and template copy otherwise.
// It never fails.
func (g *Generator) Generate(ctx context.Context, uc models.UserConversionContext) models.SummaryGenerationResult {
	if g == nil || g.llm == nil {
		slog.Debug("Generator.Generate: no LLM configured, using fallback", "session", uc.SessionID)
		return FallbackResult(uc)
	}
	result, err := g.generateWithLLM(ctx, uc)
	if err != nil {
		slog.Warn("Generator.Generate: LLM generation failed, using fallback",
			"error", err, "status", genai.StatusCode(err), "session", uc.SessionID, "product", uc.ProductSlug)
		return FallbackResult(uc)
	}
	slog.Info("Generator.Generate: LLM summary generated",
		"session", uc.SessionID, "model", result.Metadata.ModelUsed, "tokens", result.Metadata.TokensUsed, "latency_ms", result.Metadata.LatencyMs)
	return result
}

func (g *Generator) generateWithLLM(ctx context.Context, uc models.UserConversionContext) (models.SummaryGenerationResult, error) {
	userPrompt, err := BuildUserPrompt(uc)
	if err != nil {
		return models.SummaryGenerationResult{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	start := time.Now()
	comp, err := g.llm.GenerateJSON(ctx, systemPrompt, userPrompt)
	latency := time.Since(start)
	if err != nil {
		return models.SummaryGenerationResult{}, err
	}

	summary, err := ParseSummary(comp.Content)
	if err != nil {
		return models.SummaryGenerationResult{}, err
	}
	if summary.CTAText == "" {
		summary.CTAText = templateFor(uc.ProductSlug).CTAText
	}

	return models.SummaryGenerationResult{
		Summary: summary,
		Metadata: models.GenerationMetadata{
			ModelUsed:        comp.Model,
			PromptTemplateID: PromptTemplateID,
			TokensUsed:       comp.TotalTokens,
			LatencyMs:        latency.Milliseconds(),
		},
	}, nil
}

type rawSummary struct {
	Title    string   `json:"title"`
	Benefits []string `json:"benefits"`
	CTAText  string   `json:"ctaText"`
}

// ParseSummary decodes and validates LLM output: a non-empty title and at least three
// non-empty benefits. Extra benefits are dropped.
func ParseSummary(raw string) (models.Summary, error) {
	raw = stripCodeFence(raw)
	var rs rawSummary
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		return models.Summary{}, fmt.Errorf("failed to parse summary JSON: %w", err)
	}
	title := strings.TrimSpace(rs.Title)
	if title == "" {
		return models.Summary{}, ErrMissingTitle
	}
	benefits := make([]string, 0, RequiredBenefits)
	for _, b := range rs.Benefits {
		if b = strings.TrimSpace(b); b != "" {
			benefits = append(benefits, b)
		}
		if len(benefits) == RequiredBenefits {
			break
		}
	}
	if len(benefits) < RequiredBenefits {
		return models.Summary{}, ErrTooFewBenefits
	}
	return models.Summary{Title: title, Benefits: benefits, CTAText: strings.TrimSpace(rs.CTAText)}, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

package content

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// Scoring weights for testimonial selection.
const (
	conditionMatchScore = 30
	painPointMatchScore = 20
	flippedBonus        = 15
	insightPenalty      = 5
	shortQuoteBonus     = 5
	// shortQuoteLimit is the character count under which a quote earns shortQuoteBonus.
	shortQuoteLimit = 100
)

// ScoredTestimonial is a catalog entry with its selection score.
type ScoredTestimonial struct {
	Testimonial models.Testimonial `json:"testimonial"`
	Score       int                `json:"score"`
}

// SelectTestimonialIDForUser picks the testimonial that best matches the user's condition
// domain (Q1) and pain point (Q2). Equal scores resolve to the earliest catalog entry.
// Empty inputs yield DefaultTestimonialID.
func SelectTestimonialIDForUser(q1Domain, q2Value string, preferFlipped bool) string {
	q1Domain = strings.TrimSpace(q1Domain)
	q2Value = strings.TrimSpace(q2Value)
	if q1Domain == "" || q2Value == "" {
		slog.Debug("SelectTestimonialIDForUser: missing input, using default", "q1", q1Domain, "q2", q2Value)
		return DefaultTestimonialID
	}

	ranked := ScoreTestimonials(q1Domain, q2Value, preferFlipped)
	if len(ranked) == 0 {
		return DefaultTestimonialID
	}
	best := ranked[0]
	for _, st := range ranked[1:] {
		// strict comparison keeps the earlier entry on ties
		if st.Score > best.Score {
			best = st
		}
	}
	slog.Debug("SelectTestimonialIDForUser: selected", "q1", q1Domain, "q2", q2Value, "id", best.Testimonial.ID, "score", best.Score)
	return best.Testimonial.ID
}

// SelectTestimonialForUser is SelectTestimonialIDForUser returning the full entry.
func SelectTestimonialForUser(q1Domain, q2Value string, preferFlipped bool) models.Testimonial {
	id := SelectTestimonialIDForUser(q1Domain, q2Value, preferFlipped)
	if t, ok := TestimonialByID(id); ok {
		return t
	}
	t, _ := TestimonialByID(DefaultTestimonialID)
	return t
}

// ScoreTestimonials scores every catalog entry, in catalog order.
func ScoreTestimonials(q1Domain, q2Value string, preferFlipped bool) []ScoredTestimonial {
	keywords := conditionKeywordsFor(q1Domain)
	categories := PainPointCategoriesFor(q2Value)

	scored := make([]ScoredTestimonial, 0, len(testimonials))
	for _, t := range testimonials {
		scored = append(scored, ScoredTestimonial{
			Testimonial: t,
			Score:       scoreTestimonial(t, keywords, categories, preferFlipped),
		})
	}
	return scored
}

func scoreTestimonial(t models.Testimonial, keywords []string, categories []models.PainPointCategory, preferFlipped bool) int {
	score := 0
	condition := strings.ToLower(t.Condition)
	for _, kw := range keywords {
		if strings.Contains(condition, strings.ToLower(kw)) {
			score += conditionMatchScore
			break
		}
	}
	for _, c := range categories {
		if t.PainPoint == c {
			score += painPointMatchScore
			break
		}
	}
	if preferFlipped && t.IsFlipped {
		score += flippedBonus
	}
	if t.IsClueInsight {
		score -= insightPenalty
	}
	if utf8.RuneCountInString(t.Quote) < shortQuoteLimit {
		score += shortQuoteBonus
	}
	return score
}

func conditionKeywordsFor(q1Domain string) []string {
	return domainConditionKeywords[strings.ToLower(strings.TrimSpace(q1Domain))]
}

// PainPointCategoriesFor maps a Q2 answer to testimonial categories, falling back to
// substring heuristics for answers outside the table.
func PainPointCategoriesFor(q2Value string) []models.PainPointCategory {
	key := strings.ToLower(strings.TrimSpace(q2Value))
	if cats, ok := painPointCategories[key]; ok {
		return cats
	}
	var cats []models.PainPointCategory
	for _, h := range painPointHeuristics {
		for _, needle := range h.needles {
			if strings.Contains(key, needle) {
				cats = append(cats, h.category)
				break
			}
		}
	}
	return cats
}

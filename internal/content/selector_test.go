package content

import (
	"strings"
	"testing"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

func TestSelectTestimonialIDForUser_EmptyInputs(t *testing.T) {
	tests := []struct{ q1, q2 string }{
		{"", ""},
		{"fatigue", ""},
		{"", "energy_envelope"},
		{"   ", "brain_fog"},
	}
	for _, tt := range tests {
		if got := SelectTestimonialIDForUser(tt.q1, tt.q2, true); got != DefaultTestimonialID {
			t.Errorf("SelectTestimonialIDForUser(%q, %q) = %q, want default", tt.q1, tt.q2, got)
		}
	}
}

func TestSelectTestimonialIDForUser_AlwaysInCatalog(t *testing.T) {
	domains := []string{"fatigue", "pain", "autoimmune", "gut", "neuro", "hormonal", "multiple", "unknown", "FATIGUE"}
	painPoints := []string{"energy_envelope", "unpredictable_flares", "brain_fog", "tracking_burden",
		"doctor_dismissed", "hidden_triggers", "sleep_quality", "pain_spikes", "no_focus", "my_brain_fog_days", "???"}
	for _, q1 := range domains {
		for _, q2 := range painPoints {
			for _, flipped := range []bool{true, false} {
				id := SelectTestimonialIDForUser(q1, q2, flipped)
				if _, ok := TestimonialByID(id); !ok {
					t.Errorf("selector returned unknown id %q for (%q, %q, %v)", id, q1, q2, flipped)
				}
			}
		}
	}
}

func TestSelectTestimonialIDForUser_TieBreakIsCatalogOrder(t *testing.T) {
	inputs := [][2]string{{"fatigue", "energy_envelope"}, {"unknown", "unknown"}, {"neuro", "tracking_burden"}, {"gut", "sleep_quality"}}
	for _, in := range inputs {
		ranked := ScoreTestimonials(in[0], in[1], true)
		bestIdx := 0
		for i, st := range ranked {
			if st.Score > ranked[bestIdx].Score {
				bestIdx = i
			}
		}
		want := ranked[bestIdx].Testimonial.ID
		if got := SelectTestimonialIDForUser(in[0], in[1], true); got != want {
			t.Errorf("(%s, %s): got %q, want earliest top scorer %q", in[0], in[1], got, want)
		}
	}
}

func TestSelectTestimonialIDForUser_FatigueEnergyEnvelope(t *testing.T) {
	tm := SelectTestimonialForUser("fatigue", "energy_envelope", true)
	keywords := []string{"ME/CFS", "Long COVID", "Chronic Fatigue", "Fibromyalgia"}
	matched := false
	for _, kw := range keywords {
		if strings.Contains(strings.ToLower(tm.Condition), strings.ToLower(kw)) {
			matched = true
		}
	}
	if !matched {
		t.Errorf("expected fatigue-domain condition, got %q (%s)", tm.Condition, tm.ID)
	}
	if tm.ID != "energy_01_boom_bust_flipped" {
		t.Errorf("expected energy_01_boom_bust_flipped, got %s", tm.ID)
	}
}

func TestScoreTestimonials_Weights(t *testing.T) {
	ranked := ScoreTestimonials("fatigue", "energy_envelope", true)
	scores := make(map[string]int)
	for _, st := range ranked {
		scores[st.Testimonial.ID] = st.Score
	}
	tests := []struct {
		id   string
		want int
	}{
		{"energy_01_boom_bust_flipped", 30 + 20 + 15 + 5},
		{"energy_02_spoons_counted", 30 + 20},
		{"insight_01_energy_pacing", 30 + 20 - 5},
		{"energy_03_slow_mornings_flipped", 20 + 15 + 5},
	}
	for _, tt := range tests {
		if scores[tt.id] != tt.want {
			t.Errorf("score(%s) = %d, want %d", tt.id, scores[tt.id], tt.want)
		}
	}
	if len(ranked) != len(Testimonials()) {
		t.Errorf("expected every catalog entry scored, got %d", len(ranked))
	}
}

func TestPainPointCategoriesFor_Heuristics(t *testing.T) {
	tests := []struct {
		q2   string
		want models.PainPointCategory
	}{
		{"brain_fog", models.PainBrainFog},
		{"constant_brain_fog", models.PainBrainFog},
		{"energy_crashes", models.PainEnergy},
		{"surprise_flares", models.PainUnpredictability},
		{"doctor_doesnt_listen", models.PainDismissed},
	}
	for _, tt := range tests {
		cats := PainPointCategoriesFor(tt.q2)
		found := false
		for _, c := range cats {
			if c == tt.want {
				found = true
			}
		}
		if !found {
			t.Errorf("PainPointCategoriesFor(%q) = %v, want to include %q", tt.q2, cats, tt.want)
		}
	}
	if cats := PainPointCategoriesFor("zzz"); len(cats) != 0 {
		t.Errorf("expected no categories for unknown answer, got %v", cats)
	}
}

func TestCatalogIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, tm := range Testimonials() {
		if seen[tm.ID] {
			t.Errorf("duplicate testimonial id %s", tm.ID)
		}
		seen[tm.ID] = true
	}
	if !seen[DefaultTestimonialID] {
		t.Error("default testimonial missing from catalog")
	}
}

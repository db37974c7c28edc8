package funnel

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/FlareFunnel/internal/content"
	"github.com/BTreeMap/FlareFunnel/internal/models"
	"github.com/BTreeMap/FlareFunnel/internal/store"
)

type failingReader struct{}

var errDBDown = errors.New("connection reset by peer")

func (failingReader) GetModalSession(ctx context.Context, id string) (*models.ModalSession, error) {
	return nil, errDBDown
}
func (failingReader) GetModalResponses(ctx context.Context, sessionID string) ([]models.ModalResponse, error) {
	return nil, errDBDown
}
func (failingReader) GetCampaignCopy(ctx context.Context, kind models.CampaignKind, slug string) (*models.CampaignCopy, error) {
	return nil, errDBDown
}
func (failingReader) GetVisit(ctx context.Context, id string) (*models.Visit, error) {
	return nil, errDBDown
}

func allParts() []models.ContextPart {
	return []models.ContextPart{models.PartSession, models.PartResponses, models.PartAd, models.PartLanding, models.PartPersona, models.PartUTM}
}

func TestAssemble_AllDefaultsWhenReaderFails(t *testing.T) {
	uc := NewAssembler(failingReader{}).Assemble(context.Background(), "sess-x")

	assert.Equal(t, "sess-x", uc.SessionID)
	assert.Equal(t, DefaultProductSlug, uc.ProductSlug)
	assert.Equal(t, DefaultPersonaSlug, uc.PersonaSlug)
	assert.Equal(t, models.DeviceDesktop, uc.DeviceType)
	assert.True(t, uc.UTM.IsEmpty())
	assert.Equal(t, allParts(), uc.Defaulted)

	require.Len(t, uc.Responses, models.ModalQuestionCount)
	for i, r := range uc.Responses {
		assert.Equal(t, i+1, r.Slot)
		assert.NotEmpty(t, r.AnswerValue)
		assert.Equal(t, "sess-x", r.SessionID)
	}
	assert.Equal(t, "Maya", uc.Persona.PersonaName)
	assert.NotEmpty(t, uc.Landing.Headline)
	assert.NotEmpty(t, uc.Ad.Headline)
}

func TestAssemble_NilReaderAndMissingRows(t *testing.T) {
	for name, a := range map[string]*Assembler{
		"nil reader":  NewAssembler(nil),
		"empty store": NewAssembler(store.NewInMemoryStore()),
	} {
		t.Run(name, func(t *testing.T) {
			uc := a.Assemble(context.Background(), "missing")
			assert.Equal(t, allParts(), uc.Defaulted)
			assert.Len(t, uc.Responses, models.ModalQuestionCount)
		})
	}
}

func seedSession(t *testing.T, st *store.InMemoryStore, q1, q2 string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, st.CreateVisit(ctx, models.Visit{ID: "visit-1", VisitorID: "anon", LandingSlug: "pacing",
		DeviceType: models.DeviceMobile, UTM: models.UTMParams{Source: "instagram", Campaign: "spoons"}, CreatedAt: now}))
	require.NoError(t, st.CreateModalSession(ctx, models.ModalSession{ID: "sess-1", VisitID: "visit-1",
		ProductSlug: "pacing-coach", PersonaSlug: "jordan", AdSlug: "ad-crash", LandingSlug: "pacing",
		DeviceType: models.DeviceMobile, CreatedAt: now}))
	require.NoError(t, st.UpsertCampaignCopy(ctx, models.CampaignCopy{Kind: models.CampaignKindAd, Slug: "ad-crash",
		Headline: "Crashed again after a good day?"}))
	require.NoError(t, st.UpsertCampaignCopy(ctx, models.CampaignCopy{Kind: models.CampaignKindPersona, Slug: "jordan",
		PersonaName: "Jordan", Body: "nurse with ME/CFS"}))
	for _, r := range []models.ModalResponse{
		{SessionID: "sess-1", Slot: 1, QuestionKey: "q1_domain", QuestionText: "What are you managing?", AnswerValue: q1, AnswerLabel: "Fatigue & low energy"},
		{SessionID: "sess-1", Slot: 2, QuestionKey: "q2_pain_point", QuestionText: "Hardest part?", AnswerValue: q2},
		{SessionID: "sess-1", Slot: 3, QuestionKey: "q3_baseline", QuestionText: "Energy today?", AnswerValue: "30", WidgetType: content.WidgetSlider, WidgetValue: 30.0},
	} {
		require.NoError(t, st.SaveModalResponse(ctx, r))
	}
}

func TestAssemble_FromStore(t *testing.T) {
	st := store.NewInMemoryStore()
	seedSession(t, st, "fatigue", "energy_envelope")

	uc := NewAssembler(st).Assemble(context.Background(), "sess-1")

	assert.Equal(t, "pacing-coach", uc.ProductSlug)
	assert.Equal(t, "jordan", uc.PersonaSlug)
	assert.Equal(t, models.DeviceMobile, uc.DeviceType)
	assert.Equal(t, "instagram", uc.UTM.Source)
	assert.Equal(t, "Crashed again after a good day?", uc.Ad.Headline)
	assert.Equal(t, "Jordan", uc.Persona.PersonaName)

	// landing row "pacing" is absent and slot 4 unanswered
	assert.Equal(t, []models.ContextPart{models.PartResponses, models.PartLanding}, uc.Defaulted)
	assert.Equal(t, DefaultCopy(models.CampaignKindLanding, "pacing-coach"), uc.Landing)
	assert.Equal(t, "fatigue", uc.Response(1).AnswerValue)
	assert.Equal(t, PlaceholderResponse(4).AnswerValue, uc.Response(4).AnswerValue)
}

func TestEndToEnd_FatigueEnergyEnvelope(t *testing.T) {
	st := store.NewInMemoryStore()
	seedSession(t, st, "fatigue", "energy_envelope")
	uc := NewAssembler(st).Assemble(context.Background(), "sess-1")

	q1, q2, q3 := uc.Response(1), uc.Response(2), uc.Response(3)
	watch := content.GetWatchList(q2.AnswerValue, models.Q3Data{WidgetType: q3.WidgetType, WidgetValue: q3.WidgetValue, Condition: q1.AnswerValue})
	assert.Equal(t, models.ValuePredictionBased, watch.Category)
	assert.Equal(t, "30%", watch.Baseline)

	testimonial := content.SelectTestimonialForUser(q1.AnswerValue, q2.AnswerValue, true)
	keywords := []string{"ME/CFS", "Long COVID", "Chronic Fatigue", "Fibromyalgia"}
	overlap := false
	for _, k := range keywords {
		if strings.Contains(strings.ToLower(testimonial.Condition), strings.ToLower(k)) {
			overlap = true
		}
	}
	assert.True(t, overlap, "testimonial condition %q should match a fatigue keyword", testimonial.Condition)
}

func TestDefaultCopy_UnknownProduct(t *testing.T) {
	c := DefaultCopy(models.CampaignKindPersona, "nope")
	assert.Equal(t, DefaultProductSlug, c.ProductSlug)
	assert.Equal(t, "Maya", c.PersonaName)

	c.PainPoints[0] = "mutated"
	assert.NotEqual(t, "mutated", DefaultCopy(models.CampaignKindPersona, "nope").PainPoints[0])
	assert.Len(t, DefaultCopyEntries(), 12)
}

func TestPlaceholderResponses_Complete(t *testing.T) {
	for slot := 1; slot <= models.ModalQuestionCount; slot++ {
		r := PlaceholderResponse(slot)
		assert.Equal(t, slot, r.Slot)
		assert.NotEmpty(t, r.QuestionKey, "slot %d", slot)
		assert.NotEmpty(t, r.QuestionText, "slot %d", slot)
		assert.NotEmpty(t, r.AnswerValue, "slot %d", slot)
		assert.NotEmpty(t, r.AnswerLabel, "slot %d", slot)
	}
	assert.Equal(t, "About halfway", PlaceholderResponse(3).AnswerLabel)
}

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/FlareFunnel/internal/content"
	"github.com/BTreeMap/FlareFunnel/internal/experiments"
	"github.com/BTreeMap/FlareFunnel/internal/models"
	"github.com/BTreeMap/FlareFunnel/internal/store"
	"github.com/BTreeMap/FlareFunnel/internal/summary"
	"github.com/BTreeMap/FlareFunnel/internal/testutil"
)

// newTestHandler builds the routed handler over an in-memory store and a generator
// without an LLM, so every summary comes from the fallback templates.
func newTestHandler(t *testing.T) (http.Handler, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	return NewServer(st, summary.NewGenerator(nil), nil).Handler(), st
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := testutil.DoJSON(t, h, http.MethodGet, "/api/health", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "health")
	var result map[string]string
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &result)
	assert.Equal(t, "memory", result["kv_backend"])
}

func TestFunnel_EndToEnd(t *testing.T) {
	h, st := newTestHandler(t)

	rr := testutil.DoJSON(t, h, http.MethodPost, "/api/visits", models.Visit{LandingSlug: "pacing",
		UTM: models.UTMParams{Source: "reddit", Campaign: "spoons"}})
	require.Equal(t, http.StatusCreated, rr.Code)
	var visit models.Visit
	testutil.DecodeEnvelope(t, rr, models.APIStatusRecorded, &visit)
	require.NotEmpty(t, visit.ID)

	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/modal-sessions", models.ModalSession{ID: "sess-http",
		VisitID: visit.ID, ProductSlug: "pacing-coach", DeviceType: models.DeviceMobile})
	require.Equal(t, http.StatusCreated, rr.Code)

	answers := []models.ModalResponse{
		{Slot: 1, QuestionKey: "q1_domain", QuestionText: "Managing?", AnswerValue: "fatigue", AnswerLabel: "Fatigue & low energy"},
		{Slot: 2, QuestionKey: "q2_pain_point", QuestionText: "Hardest?", AnswerValue: "energy_envelope"},
		{Slot: 3, QuestionKey: "q3_baseline", QuestionText: "Energy?", AnswerValue: "30", WidgetType: "slider", WidgetValue: 30.0},
		{Slot: 4, QuestionKey: "q4_intent", QuestionText: "Help?", AnswerValue: "predict_crashes"},
	}
	for _, a := range answers {
		rr = testutil.DoJSON(t, h, http.MethodPost, "/api/modal-sessions/sess-http/responses", a)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/modal-sessions/sess-http/context", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var uc models.UserConversionContext
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &uc)
	assert.Equal(t, "pacing-coach", uc.ProductSlug)
	assert.Equal(t, "reddit", uc.UTM.Source)
	assert.Equal(t, "fatigue", uc.Response(1).AnswerValue)
	assert.False(t, uc.UsedDefault(models.PartResponses))

	// no generation yet
	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/modal-sessions/sess-http/cta-click", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/modal-sessions/sess-http/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var result models.SummaryGenerationResult
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &result)
	assert.True(t, result.IsFallback())
	assert.Len(t, result.Summary.Benefits, summary.RequiredBenefits)
	assert.NotEmpty(t, result.Summary.Title)

	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/modal-sessions/sess-http/cta-click", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/auth/callback", models.AuthCallback{
		Email: "  Maya@Example.com ", ModalSessionID: "sess-http", PendingRedirect: "/welcome"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var cb struct {
		Signup   models.BetaSignup `json:"signup"`
		Redirect string            `json:"redirect"`
	}
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &cb)
	assert.Equal(t, "maya@example.com", cb.Signup.Email)
	assert.Equal(t, "pacing-coach", cb.Signup.ProductSlug)
	assert.Equal(t, "reddit", cb.Signup.UTM.Source)
	assert.Equal(t, "/welcome", cb.Redirect)

	gen, err := st.GetLatestAIGeneration(t.Context(), "sess-http")
	require.NoError(t, err)
	require.NotNil(t, gen)
	assert.True(t, gen.Converted)
	assert.True(t, gen.CTAClicked)

	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/signups", nil)
	var signups []models.BetaSignup
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &signups)
	assert.Len(t, signups, 1)
}

func TestFunnel_Errors(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name   string
		method string
		url    string
		body   interface{}
		want   int
	}{
		{"invalid JSON", http.MethodPost, "/api/visits", `{"landing_slug":`, http.StatusBadRequest},
		{"slot out of range", http.MethodPost, "/api/modal-sessions/s1/responses",
			models.ModalResponse{Slot: 7, AnswerValue: "x"}, http.StatusBadRequest},
		{"empty answer", http.MethodPost, "/api/modal-sessions/s1/responses",
			models.ModalResponse{Slot: 1}, http.StatusBadRequest},
		{"callback without email", http.MethodPost, "/api/auth/callback",
			models.AuthCallback{ModalSessionID: "s1"}, http.StatusBadRequest},
		{"callback for unknown session", http.MethodPost, "/api/auth/callback",
			models.AuthCallback{Email: "a@b.co", ModalSessionID: "nope"}, http.StatusNotFound},
		{"unnamed event", http.MethodPost, "/api/events", models.MarketingEvent{}, http.StatusBadRequest},
		{"bad campaign kind", http.MethodGet, "/api/campaigns/banner/x", nil, http.StatusBadRequest},
		{"missing campaign copy", http.MethodGet, "/api/campaigns/ad/x", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.DoJSON(t, h, tt.method, tt.url, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
			testutil.DecodeEnvelope(t, rr, models.APIStatusError, nil)
		})
	}
}

func TestSummary_DefaultsForUnknownSession(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := testutil.DoJSON(t, h, http.MethodPost, "/api/modal-sessions/ghost/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var result models.SummaryGenerationResult
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &result)
	assert.Equal(t, models.ModelTemplateFallback, result.Metadata.ModelUsed)
}

func TestEventsAndCampaignCopy(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, name := range []string{"cta_view", "cta_view", "scroll_depth"} {
		rr := testutil.DoJSON(t, h, http.MethodPost, "/api/events", models.MarketingEvent{Name: name, VisitorID: "v_1"})
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	rr := testutil.DoJSON(t, h, http.MethodGet, "/api/events?name=cta_view", nil)
	var events []models.MarketingEvent
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &events)
	assert.Len(t, events, 2)

	rr = testutil.DoJSON(t, h, http.MethodPut, "/api/campaigns/ad/ad-crash", models.CampaignCopy{Headline: "Crashed again?"})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/campaigns/ad/ad-crash", nil)
	var c models.CampaignCopy
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &c)
	assert.Equal(t, models.CampaignKindAd, c.Kind)
	assert.Equal(t, "Crashed again?", c.Headline)
}

func TestContentEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := testutil.DoJSON(t, h, http.MethodGet, "/api/testimonials/select", nil)
	var tm models.Testimonial
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &tm)
	assert.Equal(t, content.DefaultTestimonialID, tm.ID)

	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/testimonials/select?q1=fatigue&q2=energy_envelope&flipped=true", nil)
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &tm)
	assert.Equal(t, content.SelectTestimonialIDForUser("fatigue", "energy_envelope", true), tm.ID)

	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/testimonials/"+content.DefaultTestimonialID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/testimonials/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/testimonials?q1=fatigue&q2=energy_envelope", nil)
	var scored []content.ScoredTestimonial
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &scored)
	assert.Len(t, scored, len(content.Testimonials()))

	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/watchlist",
		`{"q2":"energy_envelope","q3":{"widgetType":"slider","widgetValue":30}}`)
	var wl models.WatchList
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &wl)
	assert.Equal(t, "30%", wl.Baseline)
	assert.Equal(t, models.ValuePredictionBased, wl.Category)
	assert.Len(t, wl.Items, 3)

	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/watchlist/not-a-key", nil)
	var cfg models.WatchListConfig
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &cfg)
	assert.Equal(t, content.WatchListConfigFor(content.DefaultWatchListKey), cfg)
}

func TestExperimentEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	create := map[string]interface{}{"name": "hero", "variants": []string{"Know your flares", "Stop guessing"}}
	rr := testutil.DoJSON(t, h, http.MethodPost, "/api/experiments", create)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/experiments", create)
	assert.Equal(t, http.StatusConflict, rr.Code)
	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/experiments", map[string]interface{}{"name": "solo", "variants": []string{"a"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/experiments/hero/assign", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var first assignment
	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/experiments/hero/assign?visitor_id=v_1", nil)
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &first)
	assert.Equal(t, experiments.AssignVariant("hero", "v_1", 2, nil), first.Variant)
	assert.Equal(t, []string{"Know your flares", "Stop guessing"}[first.Variant], first.Copy)

	event := experimentEventRequest{Variant: first.Variant, EventType: models.EventView, VisitorID: "v_1"}
	var counted map[string]bool
	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/experiments/hero/events", event)
	testutil.DecodeEnvelope(t, rr, models.APIStatusRecorded, &counted)
	assert.True(t, counted["counted"])
	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/experiments/hero/events", event)
	testutil.DecodeEnvelope(t, rr, models.APIStatusRecorded, &counted)
	assert.False(t, counted["counted"])

	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/experiments/hero/events",
		experimentEventRequest{Variant: 5, EventType: models.EventView, VisitorID: "v_2"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var res experiments.Result
	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/experiments/hero/results", nil)
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &res)
	assert.Equal(t, 1, res.Variants[first.Variant].Views)

	rr = testutil.DoJSON(t, h, http.MethodPut, "/api/experiments/hero/state", map[string]string{"state": "archived"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	winner := 1
	rr = testutil.DoJSON(t, h, http.MethodPut, "/api/experiments/hero/state",
		experimentStateRequest{State: models.ExperimentCompleted, Winner: &winner})
	require.Equal(t, http.StatusOK, rr.Code)
	var e models.Experiment
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &e)
	assert.Equal(t, models.ExperimentCompleted, e.State)

	for i := 0; i < 5; i++ {
		var a assignment
		rr = testutil.DoJSON(t, h, http.MethodGet, fmt.Sprintf("/api/experiments/hero/assign?visitor_id=v_%d", i), nil)
		testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &a)
		assert.Equal(t, 1, a.Variant)
	}

	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/experiments/hero/events", event)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/experiments/hero", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/experiments/missing/results", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var list []models.Experiment
	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/experiments", nil)
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &list)
	assert.Len(t, list, 1)
}

func TestOnboardingEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	var state models.OnboardingState
	rr := testutil.DoJSON(t, h, http.MethodGet, "/api/onboarding/user-1", nil)
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &state)
	assert.Equal(t, models.StepWelcome, state.Step)

	rr = testutil.DoJSON(t, h, http.MethodPut, "/api/onboarding/user-1/priority", priorityRequest{Priority: models.PriorityEnergyFatigue})
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &state)
	assert.Equal(t, models.StepPriority, state.Step)

	// an earlier screen never moves the step back
	rr = testutil.DoJSON(t, h, http.MethodPut, "/api/onboarding/user-1/conditions", conditionsRequest{Conditions: []string{"lupus", "pots"}})
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &state)
	assert.Equal(t, models.StepPriority, state.Step)
	assert.Equal(t, []string{"lupus", "pots"}, state.Conditions)

	rr = testutil.DoJSON(t, h, http.MethodPut, "/api/onboarding/user-1/impact", models.ImpactQuestion{Feature: "sleep", Outcome: "next-day pain"})
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &state)
	rr = testutil.DoJSON(t, h, http.MethodPut, "/api/onboarding/user-1/intent", intentRequest{Intent: models.IntentPredictFlares})
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &state)
	rr = testutil.DoJSON(t, h, http.MethodPut, "/api/onboarding/user-1/baseline", models.Baseline{Severity: 6, IsFlare: true})
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &state)
	assert.Equal(t, models.StepBaseline, state.Step)
	require.NotNil(t, state.Baseline)
	assert.False(t, state.Baseline.RecordedAt.IsZero())

	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/onboarding/user-1/complete", nil)
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &state)
	assert.True(t, state.IsComplete)

	tests := []struct {
		name string
		url  string
		body interface{}
	}{
		{"too many conditions", "/api/onboarding/user-1/conditions", conditionsRequest{Conditions: []string{"a", "b", "c", "d"}}},
		{"unknown priority", "/api/onboarding/user-1/priority", priorityRequest{Priority: "wealth"}},
		{"unknown intent", "/api/onboarding/user-1/intent", intentRequest{Intent: "vibes"}},
		{"severity above scale", "/api/onboarding/user-1/baseline", models.Baseline{Severity: 11}},
		{"half an impact question", "/api/onboarding/user-1/impact", models.ImpactQuestion{Feature: "sleep"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.DoJSON(t, h, http.MethodPut, tt.url, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}

	rr = testutil.DoJSON(t, h, http.MethodDelete, "/api/onboarding/user-1", nil)
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &state)
	assert.Equal(t, models.StepWelcome, state.Step)
	assert.False(t, state.IsComplete)
}

func TestChatEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := testutil.DoJSON(t, h, http.MethodPost, "/api/chat/conversations", startConversationRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = testutil.DoJSON(t, h, http.MethodPost, "/api/chat/conversations", startConversationRequest{UserID: "user-1"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var conv models.ChatConversation
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &conv)

	url := "/api/chat/conversations/" + conv.ID + "/messages"
	rr = testutil.DoJSON(t, h, http.MethodPost, url, postMessageRequest{Content: "  "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = testutil.DoJSON(t, h, http.MethodPost, url, postMessageRequest{Content: "flaring today"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var history []models.ChatMessage
	rr = testutil.DoJSON(t, h, http.MethodGet, url, nil)
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &history)
	require.Len(t, history, 2)
	assert.Equal(t, "flaring today", history[0].Content)
	assert.Equal(t, models.ChatRoleAssistant, history[1].Role)

	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/chat/conversations/missing/messages", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrGenerationNotRecorded, http.StatusNotFound},
		{models.ErrDuplicateExperiment, http.StatusConflict},
		{models.ErrExperimentNotRunning, http.StatusConflict},
		{models.ErrMissingEmail, http.StatusBadRequest},
		{models.ErrInvalidState, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}

func TestExperimentResults_ConversionsWithoutViews(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := testutil.DoJSON(t, h, http.MethodPost, "/api/experiments",
		map[string]interface{}{"name": "cta", "variants": []string{"Join the beta", "Start tracking"}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	for _, ev := range []experimentEventRequest{
		{Variant: 0, EventType: models.EventView, VisitorID: "v1"},
		{Variant: 0, EventType: models.EventConvert, VisitorID: "v1"},
		{Variant: 0, EventType: models.EventConvert, VisitorID: "v2"},
	} {
		rr = testutil.DoJSON(t, h, http.MethodPost, "/api/experiments/cta/events", ev)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	var res experiments.Result
	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/experiments/cta/results", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	testutil.DecodeEnvelope(t, rr, models.APIStatusOK, &res)
	assert.Equal(t, 2, res.Variants[0].Conversions)
	assert.Equal(t, 1.0, res.Variants[0].Rate)
	assert.LessOrEqual(t, res.Variants[0].CIUpper, 1.0)
}

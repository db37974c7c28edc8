package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// Request bodies of the onboarding setters.
type (
	conditionsRequest struct {
		Conditions []string `json:"conditions"`
	}
	priorityRequest struct {
		Priority models.Priority `json:"priority"`
	}
	intentRequest struct {
		Intent models.Intent `json:"intent"`
	}
)

// getOnboardingHandler handles GET /api/onboarding/{userID}
func (s *Server) getOnboardingHandler(w http.ResponseWriter, r *http.Request) {
	state, err := s.onboarding.Load(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, "getOnboardingHandler", err, "Failed to load onboarding state")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

// resetOnboardingHandler handles DELETE /api/onboarding/{userID}
func (s *Server) resetOnboardingHandler(w http.ResponseWriter, r *http.Request) {
	state, err := s.onboarding.Reset(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, "resetOnboardingHandler", err, "Failed to reset onboarding state")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

// setConditionsHandler handles PUT /api/onboarding/{userID}/conditions
func (s *Server) setConditionsHandler(w http.ResponseWriter, r *http.Request) {
	var req conditionsRequest
	if !decodeOnboarding(w, r, "setConditionsHandler", &req) {
		return
	}
	state, err := s.onboarding.SetConditions(r.Context(), chi.URLParam(r, "userID"), req.Conditions)
	writeOnboardingResult(w, "setConditionsHandler", state, err)
}

// setPriorityHandler handles PUT /api/onboarding/{userID}/priority
func (s *Server) setPriorityHandler(w http.ResponseWriter, r *http.Request) {
	var req priorityRequest
	if !decodeOnboarding(w, r, "setPriorityHandler", &req) {
		return
	}
	state, err := s.onboarding.SetPriority(r.Context(), chi.URLParam(r, "userID"), req.Priority)
	writeOnboardingResult(w, "setPriorityHandler", state, err)
}

// setImpactQuestionHandler handles PUT /api/onboarding/{userID}/impact
func (s *Server) setImpactQuestionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ImpactQuestion
	if !decodeOnboarding(w, r, "setImpactQuestionHandler", &req) {
		return
	}
	state, err := s.onboarding.SetImpactQuestion(r.Context(), chi.URLParam(r, "userID"), req)
	writeOnboardingResult(w, "setImpactQuestionHandler", state, err)
}

// setIntentHandler handles PUT /api/onboarding/{userID}/intent
func (s *Server) setIntentHandler(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if !decodeOnboarding(w, r, "setIntentHandler", &req) {
		return
	}
	state, err := s.onboarding.SetIntent(r.Context(), chi.URLParam(r, "userID"), req.Intent)
	writeOnboardingResult(w, "setIntentHandler", state, err)
}

// setBaselineHandler handles PUT /api/onboarding/{userID}/baseline
func (s *Server) setBaselineHandler(w http.ResponseWriter, r *http.Request) {
	var req models.Baseline
	if !decodeOnboarding(w, r, "setBaselineHandler", &req) {
		return
	}
	state, err := s.onboarding.SetBaseline(r.Context(), chi.URLParam(r, "userID"), req)
	writeOnboardingResult(w, "setBaselineHandler", state, err)
}

// completeOnboardingHandler handles POST /api/onboarding/{userID}/complete
func (s *Server) completeOnboardingHandler(w http.ResponseWriter, r *http.Request) {
	state, err := s.onboarding.Complete(r.Context(), chi.URLParam(r, "userID"))
	writeOnboardingResult(w, "completeOnboardingHandler", state, err)
}

func decodeOnboarding(w http.ResponseWriter, r *http.Request, handler string, dst interface{}) bool {
	if err := decodeJSON(r, dst); err != nil {
		slog.Warn("Server."+handler+": failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return false
	}
	return true
}

func writeOnboardingResult(w http.ResponseWriter, handler string, state models.OnboardingState, err error) {
	if err != nil {
		writeServiceError(w, handler, err, "Failed to save onboarding state")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

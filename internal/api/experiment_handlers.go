package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// createExperimentRequest is the body of POST /api/experiments.
type createExperimentRequest struct {
	Name     string    `json:"name"`
	Variants []string  `json:"variants"`
	Weights  []float64 `json:"weights,omitempty"`
}

// experimentEventRequest is the body of POST /api/experiments/{name}/events.
type experimentEventRequest struct {
	Variant   int                        `json:"variant"`
	EventType models.ExperimentEventType `json:"event_type"`
	VisitorID string                     `json:"visitor_id"`
}

// experimentStateRequest is the body of PUT /api/experiments/{name}/state.
type experimentStateRequest struct {
	State  models.ExperimentState `json:"state"`
	Winner *int                   `json:"winner,omitempty"`
}

// assignment is returned by GET /api/experiments/{name}/assign.
type assignment struct {
	Experiment string `json:"experiment"`
	VisitorID  string `json:"visitor_id"`
	Variant    int    `json:"variant"`
	Copy       string `json:"copy"`
}

// createExperimentHandler handles POST /api/experiments
func (s *Server) createExperimentHandler(w http.ResponseWriter, r *http.Request) {
	var req createExperimentRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Server.createExperimentHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	e, err := s.experiments.Create(r.Context(), req.Name, req.Variants, req.Weights)
	if err != nil {
		writeServiceError(w, "createExperimentHandler", err, "Failed to create experiment")
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(e))
}

// listExperimentsHandler handles GET /api/experiments
func (s *Server) listExperimentsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := s.experiments.List(r.Context())
	if err != nil {
		writeServiceError(w, "listExperimentsHandler", err, "Failed to list experiments")
		return
	}
	if list == nil {
		list = []models.Experiment{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(list))
}

// getExperimentHandler handles GET /api/experiments/{name}
func (s *Server) getExperimentHandler(w http.ResponseWriter, r *http.Request) {
	e, err := s.experiments.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, "getExperimentHandler", err, "Failed to load experiment")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(e))
}

// assignVariantHandler handles GET /api/experiments/{name}/assign?visitor_id=
func (s *Server) assignVariantHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	visitorID := strings.TrimSpace(r.URL.Query().Get("visitor_id"))
	if visitorID == "" {
		writeServiceError(w, "assignVariantHandler", models.ErrEmptyVisitorID, "")
		return
	}
	e, err := s.experiments.Get(r.Context(), name)
	if err != nil {
		writeServiceError(w, "assignVariantHandler", err, "Failed to load experiment")
		return
	}
	variant, err := s.experiments.Assign(r.Context(), name, visitorID)
	if err != nil {
		writeServiceError(w, "assignVariantHandler", err, "Failed to assign variant")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(assignment{
		Experiment: e.Name,
		VisitorID:  visitorID,
		Variant:    variant,
		Copy:       e.Variants[variant],
	}))
}

// recordExperimentEventHandler handles POST /api/experiments/{name}/events
func (s *Server) recordExperimentEventHandler(w http.ResponseWriter, r *http.Request) {
	var req experimentEventRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Server.recordExperimentEventHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	inserted, err := s.experiments.Record(r.Context(), chi.URLParam(r, "name"), req.Variant, req.EventType, req.VisitorID)
	if err != nil {
		writeServiceError(w, "recordExperimentEventHandler", err, "Failed to record event")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Recorded(map[string]bool{"counted": inserted}))
}

// setExperimentStateHandler handles PUT /api/experiments/{name}/state
func (s *Server) setExperimentStateHandler(w http.ResponseWriter, r *http.Request) {
	var req experimentStateRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Server.setExperimentStateHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.experiments.SetState(r.Context(), name, req.State, req.Winner); err != nil {
		writeServiceError(w, "setExperimentStateHandler", err, "Failed to update experiment")
		return
	}
	e, err := s.experiments.Get(r.Context(), name)
	if err != nil {
		writeServiceError(w, "setExperimentStateHandler", err, "Failed to load experiment")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(e))
}

// experimentResultsHandler handles GET /api/experiments/{name}/results
func (s *Server) experimentResultsHandler(w http.ResponseWriter, r *http.Request) {
	res, err := s.experiments.Results(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, "experimentResultsHandler", err, "Failed to compute results")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(res))
}

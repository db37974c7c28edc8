// Package api provides HTTP handlers for the landing-page funnel endpoints.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// recordVisitHandler handles POST /api/visits
func (s *Server) recordVisitHandler(w http.ResponseWriter, r *http.Request) {
	var v models.Visit
	if err := decodeJSON(r, &v); err != nil {
		slog.Warn("Server.recordVisitHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	saved, err := s.funnel.RecordVisit(r.Context(), v)
	if err != nil {
		writeServiceError(w, "recordVisitHandler", err, "Failed to record visit")
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Recorded(saved))
}

// startModalSessionHandler handles POST /api/modal-sessions
func (s *Server) startModalSessionHandler(w http.ResponseWriter, r *http.Request) {
	var ms models.ModalSession
	if err := decodeJSON(r, &ms); err != nil {
		slog.Warn("Server.startModalSessionHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	saved, err := s.funnel.StartModalSession(r.Context(), ms)
	if err != nil {
		writeServiceError(w, "startModalSessionHandler", err, "Failed to start modal session")
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Recorded(saved))
}

// recordResponseHandler handles POST /api/modal-sessions/{sessionID}/responses
func (s *Server) recordResponseHandler(w http.ResponseWriter, r *http.Request) {
	var resp models.ModalResponse
	if err := decodeJSON(r, &resp); err != nil {
		slog.Warn("Server.recordResponseHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	resp.SessionID = chi.URLParam(r, "sessionID")
	if err := s.funnel.RecordResponse(r.Context(), resp); err != nil {
		writeServiceError(w, "recordResponseHandler", err, "Failed to record response")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Recorded(nil))
}

// conversionContextHandler handles GET /api/modal-sessions/{sessionID}/context
func (s *Server) conversionContextHandler(w http.ResponseWriter, r *http.Request) {
	uc := s.funnel.Assembler().Assemble(r.Context(), chi.URLParam(r, "sessionID"))
	writeJSONResponse(w, http.StatusOK, models.Success(uc))
}

// generateSummaryHandler handles POST /api/modal-sessions/{sessionID}/summary
func (s *Server) generateSummaryHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	gen, err := s.funnel.GenerateForSession(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, "generateSummaryHandler", err, "Failed to generate summary")
		return
	}
	slog.Debug("Server.generateSummaryHandler: summary generated", "session", sessionID, "model", gen.Result.Metadata.ModelUsed)
	writeJSONResponse(w, http.StatusOK, models.Success(gen.Result))
}

// ctaClickHandler handles POST /api/modal-sessions/{sessionID}/cta-click
func (s *Server) ctaClickHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.funnel.MarkCTAClicked(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeServiceError(w, "ctaClickHandler", err, "Failed to record CTA click")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Recorded(nil))
}

// authCallbackHandler handles POST /api/auth/callback. Failures return an explicit
// error so the client can offer a retry.
func (s *Server) authCallbackHandler(w http.ResponseWriter, r *http.Request) {
	var cb models.AuthCallback
	if err := decodeJSON(r, &cb); err != nil {
		slog.Warn("Server.authCallbackHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	signup, err := s.funnel.CompleteAuthCallback(r.Context(), cb)
	if err != nil {
		writeServiceError(w, "authCallbackHandler", err, "Failed to complete sign-in")
		return
	}
	result := map[string]interface{}{"signup": signup}
	if cb.PendingRedirect != "" {
		result["redirect"] = cb.PendingRedirect
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Signup recorded", result))
}

// recordEventHandler handles POST /api/events
func (s *Server) recordEventHandler(w http.ResponseWriter, r *http.Request) {
	var e models.MarketingEvent
	if err := decodeJSON(r, &e); err != nil {
		slog.Warn("Server.recordEventHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	saved, err := s.funnel.RecordEvent(r.Context(), e)
	if err != nil {
		writeServiceError(w, "recordEventHandler", err, "Failed to record event")
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Recorded(saved))
}

// listEventsHandler handles GET /api/events?name=
func (s *Server) listEventsHandler(w http.ResponseWriter, r *http.Request) {
	events, err := s.st.ListMarketingEvents(r.Context(), strings.TrimSpace(r.URL.Query().Get("name")))
	if err != nil {
		writeServiceError(w, "listEventsHandler", err, "Failed to list events")
		return
	}
	if events == nil {
		events = []models.MarketingEvent{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(events))
}

// listSignupsHandler handles GET /api/signups
func (s *Server) listSignupsHandler(w http.ResponseWriter, r *http.Request) {
	signups, err := s.st.ListBetaSignups(r.Context())
	if err != nil {
		writeServiceError(w, "listSignupsHandler", err, "Failed to list signups")
		return
	}
	if signups == nil {
		signups = []models.BetaSignup{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(signups))
}

// getCampaignCopyHandler handles GET /api/campaigns/{kind}/{slug}
func (s *Server) getCampaignCopyHandler(w http.ResponseWriter, r *http.Request) {
	kind := models.CampaignKind(chi.URLParam(r, "kind"))
	if !models.IsValidCampaignKind(kind) {
		writeServiceError(w, "getCampaignCopyHandler", models.ErrInvalidCampaignKind, "")
		return
	}
	c, err := s.st.GetCampaignCopy(r.Context(), kind, chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, "getCampaignCopyHandler", err, "Failed to load campaign copy")
		return
	}
	if c == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Campaign copy not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(c))
}

// putCampaignCopyHandler handles PUT /api/campaigns/{kind}/{slug}
func (s *Server) putCampaignCopyHandler(w http.ResponseWriter, r *http.Request) {
	var c models.CampaignCopy
	if err := decodeJSON(r, &c); err != nil {
		slog.Warn("Server.putCampaignCopyHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	c.Kind = models.CampaignKind(chi.URLParam(r, "kind"))
	c.Slug = chi.URLParam(r, "slug")
	if !models.IsValidCampaignKind(c.Kind) {
		writeServiceError(w, "putCampaignCopyHandler", models.ErrInvalidCampaignKind, "")
		return
	}
	if err := s.st.UpsertCampaignCopy(r.Context(), c); err != nil {
		writeServiceError(w, "putCampaignCopyHandler", err, "Failed to save campaign copy")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Recorded(c))
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

type startConversationRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title,omitempty"`
}

type postMessageRequest struct {
	Content string `json:"content"`
}

// startConversationHandler handles POST /api/chat/conversations
func (s *Server) startConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req startConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Server.startConversationHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	conv, err := s.chat.StartConversation(r.Context(), req.UserID, req.Title)
	if err != nil {
		writeServiceError(w, "startConversationHandler", err, "Failed to start conversation")
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(conv))
}

// listMessagesHandler handles GET /api/chat/conversations/{conversationID}/messages
func (s *Server) listMessagesHandler(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.chat.History(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		writeServiceError(w, "listMessagesHandler", err, "Failed to load messages")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(msgs))
}

// postMessageHandler handles POST /api/chat/conversations/{conversationID}/messages
func (s *Server) postMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Server.postMessageHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	msgs, err := s.chat.PostMessage(r.Context(), chi.URLParam(r, "conversationID"), req.Content)
	if err != nil {
		writeServiceError(w, "postMessageHandler", err, "Failed to post message")
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(msgs))
}

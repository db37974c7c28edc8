// Package api provides HTTP response utilities for FlareFunnel.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// maxRequestBody bounds decoded JSON request bodies.
const maxRequestBody = 1 << 20

// Pre-marshaled fallback responses to avoid runtime JSON encoding failures
var (
	fallbackErrorResponse []byte
)

// init validates that our fallback responses can be marshaled
func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	// Marshal the response to JSON first to catch encoding errors before writing headers
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}

// decodeJSON decodes a bounded request body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// clientErrors are the sentinel errors caused by bad input.
var clientErrors = []error{
	models.ErrEmptySessionID,
	models.ErrInvalidQuestionSlot,
	models.ErrEmptyAnswer,
	models.ErrMissingEmail,
	models.ErrTooManyConditions,
	models.ErrInvalidPriority,
	models.ErrInvalidIntent,
	models.ErrInvalidSeverity,
	models.ErrEmptyImpactQuestion,
	models.ErrEmptyUserID,
	models.ErrEmptyMessage,
	models.ErrMessageTooLong,
	models.ErrInvalidEventType,
	models.ErrInvalidVariants,
	models.ErrInvalidWeights,
	models.ErrVariantOutOfRange,
	models.ErrEmptyExperimentName,
	models.ErrEmptyVisitorID,
	models.ErrInvalidCampaignKind,
	models.ErrInvalidState,
}

// statusForError maps a service error to an HTTP status code.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrGenerationNotRecorded):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateExperiment), errors.Is(err, models.ErrExperimentNotRunning):
		return http.StatusConflict
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err as an error envelope. Internal errors are logged and
// reported with a generic message.
func writeServiceError(w http.ResponseWriter, handler string, err error, internalMsg string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		slog.Error("Server."+handler+": request failed", "error", err)
		writeJSONResponse(w, status, models.Error(internalMsg))
		return
	}
	slog.Warn("Server."+handler+": request rejected", "error", err, "status", status)
	writeJSONResponse(w, status, models.Error(err.Error()))
}

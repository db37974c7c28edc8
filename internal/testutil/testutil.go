// Package testutil provides common test utilities and fixtures for FlareFunnel tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/BTreeMap/FlareFunnel/internal/models"
	"github.com/BTreeMap/FlareFunnel/internal/store"
)

// TestingT is the subset of testing.TB the assertions need.
type TestingT interface {
	Helper()
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// Envelope is an API response whose result is kept raw for typed decoding.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// NewSQLiteTestStore opens a SQLite store in a temp directory, closed on cleanup.
func NewSQLiteTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(store.WithSQLiteDSN(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// SeedModalSession stores a pacing-coach modal session whose visitor arrived from an
// Instagram ad and answered Q1-Q3. Q4 is left unanswered.
func SeedModalSession(t TestingT, st store.Store, sessionID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	visitID := sessionID + "-visit"
	if err := st.CreateVisit(ctx, models.Visit{ID: visitID, VisitorID: "v_seed", LandingSlug: "pacing",
		DeviceType: models.DeviceMobile, UTM: models.UTMParams{Source: "instagram", Campaign: "spoons"}, CreatedAt: now}); err != nil {
		t.Fatalf("failed to seed visit: %v", err)
	}
	if err := st.CreateModalSession(ctx, models.ModalSession{ID: sessionID, VisitID: visitID,
		ProductSlug: "pacing-coach", PersonaSlug: "jordan", LandingSlug: "pacing",
		DeviceType: models.DeviceMobile, Status: models.ModalSessionOpen, CreatedAt: now}); err != nil {
		t.Fatalf("failed to seed modal session: %v", err)
	}
	for _, r := range []models.ModalResponse{
		{Slot: 1, QuestionKey: "q1_domain", QuestionText: "What are you managing?", AnswerValue: "fatigue", AnswerLabel: "Fatigue & low energy"},
		{Slot: 2, QuestionKey: "q2_pain_point", QuestionText: "Hardest part?", AnswerValue: "energy_envelope", AnswerLabel: "Knowing my limits"},
		{Slot: 3, QuestionKey: "q3_baseline", QuestionText: "Energy today?", AnswerValue: "30", WidgetType: "slider", WidgetValue: 30.0},
	} {
		r.SessionID = sessionID
		r.CreatedAt = now
		if err := st.SaveModalResponse(ctx, r); err != nil {
			t.Fatalf("failed to seed response %d: %v", r.Slot, err)
		}
	}
}

// DoJSON sends a request with an optional JSON body through handler.
func DoJSON(t TestingT, handler http.Handler, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Reader
	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewReader(nil)
	case string:
		reqBody = bytes.NewReader([]byte(b))
	default:
		reqBody = bytes.NewReader(MustMarshalJSON(t, b))
	}
	req := httptest.NewRequest(method, url, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t TestingT, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// DecodeEnvelope decodes the response envelope, checks its status and, when result is
// non-nil, decodes the result into it.
func DecodeEnvelope(t TestingT, rr *httptest.ResponseRecorder, expectedStatus models.APIStatus, result interface{}) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode JSON response %q: %v", rr.Body.String(), err)
		return env
	}
	if env.Status != string(expectedStatus) {
		t.Errorf("expected status '%s', got '%s' (message %q)", expectedStatus, env.Status, env.Message)
	}
	if result != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, result); err != nil {
			t.Fatalf("failed to decode result %s: %v", env.Result, err)
		}
	}
	return env
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t TestingT, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

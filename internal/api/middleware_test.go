package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/FlareFunnel/internal/testutil"
)

// captureLogs routes the default slog logger into a JSON buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func requestLogLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		if entry["msg"] == "api: request served" {
			out = append(out, entry)
		}
	}
	return out
}

func TestRequestLogger_WritesThroughSlog(t *testing.T) {
	h, _ := newTestHandler(t)
	buf := captureLogs(t)

	rr := testutil.DoJSON(t, h, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = testutil.DoJSON(t, h, http.MethodGet, "/api/no-such-route", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	lines := requestLogLines(t, buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "GET", lines[0]["method"])
	assert.Equal(t, "/api/health", lines[0]["path"])
	assert.Equal(t, float64(http.StatusOK), lines[0]["status"])
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.NotEmpty(t, lines[0]["request_id"])

	assert.Equal(t, "/api/no-such-route", lines[1]["path"])
	assert.Equal(t, float64(http.StatusNotFound), lines[1]["status"])
}

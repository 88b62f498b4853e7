package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wopr-sim/wopr/internal/dispatcher"
	"github.com/wopr-sim/wopr/internal/game"
	"github.com/wopr-sim/wopr/internal/handlers"
	intOtel "github.com/wopr-sim/wopr/internal/otel"
)

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := game.New(
		game.WithRandom(fixedRandom(0.999)),
		game.WithClock(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
	svc := handlers.NewService(handlers.Dependencies{Engine: engine, Logger: logger})
	d, err := dispatcher.New(logger)
	require.NoError(t, err)
	svc.Register(d)

	ts := httptest.NewServer(New(Dependencies{Dispatcher: d, Service: svc, Logger: logger}).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postCommand(t *testing.T, ts *httptest.Server, body string) (int, CommandResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/v1/commands", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out CommandResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func getJSON(t *testing.T, ts *httptest.Server, path string, v any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	code := getJSON(t, ts, "/healthz", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestListCommands(t *testing.T) {
	ts := newTestServer(t)
	var cmds []string
	code := getJSON(t, ts, "/api/v1/commands", &cmds)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, cmds, ":LAUNCH:")
	assert.NotContains(t, cmds, ":SAVE:")
}

func TestCommand_Line(t *testing.T) {
	ts := newTestServer(t)

	code, out := postCommand(t, ts, `{"line":"new"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, ":INIT:", out.Command)
	assert.Empty(t, out.Error)
	assert.True(t, out.Screen.Active)
	assert.Equal(t, 3, out.Screen.Actions)
	assert.Nil(t, out.Result)

	code, out = postCommand(t, ts, `{"command":":recon:","args":["SILOS"]}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, out.Screen.Actions)
}

func TestCommand_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"empty", `{}`, http.StatusBadRequest},
		{"unknown verb", `{"line":"dance"}`, http.StatusBadRequest},
		{"unknown command", `{"command":":DANCE:"}`, http.StatusNotFound},
		{"not started", `{"line":"alert"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/v1/commands", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			if resp.StatusCode != tt.code {
				t.Errorf("expected %d, got %d", tt.code, resp.StatusCode)
			}
		})
	}
}

func TestCommand_RejectedCarriesScreen(t *testing.T) {
	ts := newTestServer(t)
	_, _ = postCommand(t, ts, `{"line":"new"}`)

	code, out := postCommand(t, ts, `{"line":"launch icbm A"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, out.Error, "DEFCON")
	assert.Equal(t, 5, out.Screen.Defcon)
	assert.Equal(t, 3, out.Screen.Actions)

	code, out = postCommand(t, ts, `{"line":"launch icbm"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out.Error, "missing argument")
}

func TestStatusAndEvents(t *testing.T) {
	ts := newTestServer(t)

	var errBody map[string]any
	code := getJSON(t, ts, "/api/v1/status", &errBody)
	assert.Equal(t, http.StatusConflict, code)

	_, _ = postCommand(t, ts, `{"line":"new"}`)

	var report game.StatusReport
	code = getJSON(t, ts, "/api/v1/status", &report)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 5, report.Defcon)

	var events []game.Event
	code = getJSON(t, ts, "/api/v1/events?n=1", &events)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, events, 1)

	code = getJSON(t, ts, "/api/v1/events?n=x", &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestScreen(t *testing.T) {
	ts := newTestServer(t)

	var sc handlers.Screen
	code := getJSON(t, ts, "/api/v1/screen", &sc)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, sc.Active)

	_, _ = postCommand(t, ts, `{"line":"alert"}`)
	_, _ = postCommand(t, ts, `{"line":"new"}`)
	_, _ = postCommand(t, ts, `{"line":"alert"}`)

	code = getJSON(t, ts, "/api/v1/screen", &sc)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, sc.Active)
	assert.Equal(t, 4, sc.Defcon)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, statusFor(nil))
	assert.Equal(t, http.StatusGone, statusFor(game.ErrGameOver))
	assert.Equal(t, http.StatusConflict, statusFor(game.ErrHotlineInactive))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(fmt.Errorf("%w: :SAVE:", dispatcher.ErrQueueFull)))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(dispatcher.ErrClosed))
	assert.Equal(t, http.StatusBadRequest, statusFor(io.EOF))
}

type fakeMetrics struct {
	samples []intOtel.Sample
	err     error
}

func (f fakeMetrics) Snapshot(context.Context) ([]intOtel.Sample, error) {
	return f.samples, f.err
}

func TestMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d, err := dispatcher.New(logger)
	require.NoError(t, err)

	tests := []struct {
		name    string
		source  MetricsSource
		code    int
		samples int
	}{
		{"no source", nil, http.StatusNotFound, 0},
		{"disabled", fakeMetrics{err: intOtel.ErrDisabled}, http.StatusNotFound, 0},
		{"collect fails", fakeMetrics{err: io.ErrUnexpectedEOF}, http.StatusInternalServerError, 0},
		{"empty", fakeMetrics{}, http.StatusOK, 0},
		{"samples", fakeMetrics{samples: []intOtel.Sample{{Name: "wopr.commands.processed", Value: 2}}}, http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(New(Dependencies{Dispatcher: d, Metrics: tt.source, Logger: logger}).Handler())
			defer ts.Close()

			if tt.code != http.StatusOK {
				var body map[string]any
				assert.Equal(t, tt.code, getJSON(t, ts, "/api/v1/metrics", &body))
				return
			}
			var got []intOtel.Sample
			assert.Equal(t, tt.code, getJSON(t, ts, "/api/v1/metrics", &got))
			assert.Len(t, got, tt.samples)
		})
	}
}

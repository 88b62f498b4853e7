// Package server exposes the command dispatcher over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wopr-sim/wopr/internal/dispatcher"
	"github.com/wopr-sim/wopr/internal/game"
	"github.com/wopr-sim/wopr/internal/handlers"
	intOtel "github.com/wopr-sim/wopr/internal/otel"
	"github.com/wopr-sim/wopr/internal/parser"
)

// MetricsSource returns the current command metrics.
type MetricsSource interface {
	Snapshot(ctx context.Context) ([]intOtel.Sample, error)
}

// Dependencies holds what the API needs.
type Dependencies struct {
	Dispatcher *dispatcher.Dispatcher
	Service    *handlers.Service
	Metrics    MetricsSource // optional
	Logger     *slog.Logger
}

// CommandRequest is the body of POST /api/v1/commands. Either Line is a
// terminal line, or Command and Args name a dispatcher event directly.
type CommandRequest struct {
	Line    string   `json:"line,omitempty"`
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
}

// CommandResponse carries the handler result and the screen after it ran.
type CommandResponse struct {
	Command string          `json:"command"`
	Result  any             `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Screen  handlers.Screen `json:"screen"`
}

// Server is the HTTP front end.
type Server struct {
	deps   Dependencies
	router *mux.Router
	http   *http.Server
}

// New builds the router.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{deps: deps, router: mux.NewRouter()}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/commands", s.handleCommand).Methods(http.MethodPost)
	api.HandleFunc("/commands", s.handleListCommands).Methods(http.MethodGet)
	api.HandleFunc("/screen", s.handleScreen).Methods(http.MethodGet)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	api.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	api.Use(s.logRequests)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.deps.Logger.Info("HTTP API listening", "address", addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.deps.Logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCommands(w http.ResponseWriter, _ *http.Request) {
	cmds := s.deps.Dispatcher.Commands()
	sort.Strings(cmds)
	writeJSON(w, http.StatusOK, cmds)
}

func (s *Server) handleScreen(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Service.Screen())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.dispatch(w, dispatcher.Event{Command: parser.CmdStatus}, false)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ev := dispatcher.Event{Command: parser.CmdEvents}
	if n := r.URL.Query().Get("n"); n != "" {
		if _, err := strconv.Atoi(n); err != nil {
			writeError(w, http.StatusBadRequest, "n must be an integer")
			return
		}
		ev.Args = []string{n}
	}
	s.dispatch(w, ev, false)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.deps.Metrics == nil {
		writeError(w, http.StatusNotFound, "metrics disabled")
		return
	}
	samples, err := s.deps.Metrics.Snapshot(r.Context())
	if errors.Is(err, intOtel.ErrDisabled) {
		writeError(w, http.StatusNotFound, "metrics disabled")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if samples == nil {
		samples = []intOtel.Sample{}
	}
	writeJSON(w, http.StatusOK, samples)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var ev dispatcher.Event
	switch {
	case strings.TrimSpace(req.Line) != "":
		parsed, err := parser.ParseLine(req.Line)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ev = parsed
	case req.Command != "":
		ev = dispatcher.Event{Command: strings.ToUpper(req.Command), Args: req.Args}
	default:
		writeError(w, http.StatusBadRequest, "line or command required")
		return
	}
	s.dispatch(w, ev, true)
}

// dispatch runs ev and writes the outcome. Command responses carry the
// screen; read-only endpoints return the bare result.
func (s *Server) dispatch(w http.ResponseWriter, ev dispatcher.Event, withScreen bool) {
	if !s.deps.Dispatcher.HasHandler(ev.Command) {
		writeError(w, http.StatusNotFound, "unknown command: "+ev.Command)
		return
	}
	ev.Timestamp = time.Now()

	result, err := s.deps.Dispatcher.Dispatch(ev)
	code := statusFor(err)

	if !withScreen {
		if err != nil {
			writeError(w, code, err.Error())
			return
		}
		writeJSON(w, code, result)
		return
	}

	resp := CommandResponse{Command: ev.Command, Screen: s.deps.Service.Screen()}
	if err != nil {
		resp.Error = err.Error()
	} else if _, isScreen := result.(handlers.Screen); !isScreen {
		resp.Result = result
	}
	writeJSON(w, code, resp)
}

// engineRejections are refusals by the rules, not malformed requests.
var engineRejections = []error{
	game.ErrNotStarted,
	game.ErrNoActions,
	game.ErrDefconTooHigh,
	game.ErrLaunchCapacity,
	game.ErrHotlineInactive,
	game.ErrChannelBlocked,
	game.ErrUnknownTarget,
}

func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, game.ErrGameOver) {
		return http.StatusGone
	}
	for _, target := range engineRejections {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	if errors.Is(err, dispatcher.ErrQueueFull) || errors.Is(err, dispatcher.ErrClosed) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": msg,
		"status":  code,
	})
}

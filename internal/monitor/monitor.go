// Package monitor writes a periodic status file describing the running game
// and the recording pipeline.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wopr-sim/wopr/internal/handlers"
)

// DefaultInterval is how often the status file is rewritten.
const DefaultInterval = time.Second

// QueueReporter is implemented by backends with write queues.
type QueueReporter interface {
	QueueLengths() map[string]int
	LastWriteDuration() time.Duration
}

// ErrorReporter is implemented by the recorder.
type ErrorReporter interface {
	Errors() (int, error)
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger     *slog.Logger
	Screen     func() handlers.Screen
	Queues     QueueReporter // optional
	Recorder   ErrorReporter // optional
	StatusPath string
	Interval   time.Duration
}

// Status is one snapshot written to the status file.
type Status struct {
	Time              time.Time      `json:"time"`
	Active            bool           `json:"active"`
	Turn              int            `json:"turn"`
	Defcon            int            `json:"defcon"`
	Phase             string         `json:"phase"`
	InFlight          int            `json:"inFlight"`
	Outcome           string         `json:"outcome,omitempty"`
	WriteQueues       map[string]int `json:"writeQueues,omitempty"`
	LastWriteMs       float64        `json:"lastWriteMs"`
	RecordingErrors   int            `json:"recordingErrors"`
	LastRecordedError string         `json:"lastRecordedError,omitempty"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus returns the current status.
func (s *Service) GetProgramStatus() Status {
	st := Status{Time: time.Now().UTC()}

	if s.deps.Screen != nil {
		sc := s.deps.Screen()
		st.Active = sc.Active
		st.Turn = sc.Turn
		st.Defcon = sc.Defcon
		st.Phase = sc.Phase
		st.InFlight = sc.InFlight
		st.Outcome = sc.Outcome
	}
	if s.deps.Queues != nil {
		st.WriteQueues = s.deps.Queues.QueueLengths()
		st.LastWriteMs = float64(s.deps.Queues.LastWriteDuration().Microseconds()) / 1000
	}
	if s.deps.Recorder != nil {
		n, err := s.deps.Recorder.Errors()
		st.RecordingErrors = n
		if err != nil {
			st.LastRecordedError = err.Error()
		}
	}
	return st
}

// WriteStatus replaces the status file with the current status.
func (s *Service) WriteStatus() error {
	data, err := json.MarshalIndent(s.GetProgramStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	tmp := s.deps.StatusPath + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	return os.Rename(tmp, s.deps.StatusPath)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	if s.deps.StatusPath == "" {
		return fmt.Errorf("status path not set")
	}
	if err := os.MkdirAll(filepath.Dir(s.deps.StatusPath), 0755); err != nil {
		return fmt.Errorf("error creating status directory: %w", err)
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stopChan = stop
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "path", s.deps.StatusPath)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.WriteStatus(); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}

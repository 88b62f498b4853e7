// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"

	"github.com/wopr-sim/wopr/internal/config"
	"github.com/wopr-sim/wopr/pkg/core"
)

// ErrNoGame is returned when recording before StartGame.
var ErrNoGame = errors.New("no game started")

// Backend stores a game in memory and exports it to JSON when it ends.
type Backend struct {
	cfg    config.MemoryConfig
	game   *core.Game
	result *core.Result

	events   []core.EventRecord
	launches []core.LaunchRecord
	flights  []core.FlightRecord
	turns    []core.TurnRecord

	lastExportPath string
	lastExportSize int64
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartGame begins recording a new game and drops any previous one.
func (b *Backend) StartGame(g *core.Game) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.game = g
	b.result = nil
	b.events = nil
	b.launches = nil
	b.flights = nil
	b.turns = nil
	b.lastExportPath = ""
	b.lastExportSize = 0
	return nil
}

// EndGame finalizes and exports the game data.
func (b *Backend) EndGame(r *core.Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.game == nil {
		return ErrNoGame
	}
	b.result = r
	return b.exportJSON()
}

// RecordEvent appends a log line.
func (b *Backend) RecordEvent(e *core.EventRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.game == nil {
		return ErrNoGame
	}
	b.events = append(b.events, *e)
	return nil
}

// RecordLaunch appends a launch.
func (b *Backend) RecordLaunch(l *core.LaunchRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.game == nil {
		return ErrNoGame
	}
	b.launches = append(b.launches, *l)
	return nil
}

// RecordFlight appends a flight result.
func (b *Backend) RecordFlight(f *core.FlightRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.game == nil {
		return ErrNoGame
	}
	b.flights = append(b.flights, *f)
	return nil
}

// RecordTurn appends an end-of-week snapshot.
func (b *Backend) RecordTurn(t *core.TurnRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.game == nil {
		return ErrNoGame
	}
	b.turns = append(b.turns, *t)
	return nil
}

// GetExportedFilePath returns the path of the last export, or "".
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last export.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var meta core.UploadMetadata
	if b.game != nil {
		meta.GameID = b.game.ID
	}
	if b.result != nil {
		meta.Outcome = b.result.Outcome
		meta.FinalTurn = b.result.FinalTurn
	}
	meta.Size = b.lastExportSize
	return meta
}

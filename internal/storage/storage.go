// internal/storage/storage.go
package storage

import "github.com/wopr-sim/wopr/pkg/core"

// Backend is the interface all storage implementations must satisfy.
// Calls arrive in game order from a single goroutine.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Game management
	StartGame(g *core.Game) error
	EndGame(r *core.Result) error

	// Recording
	RecordEvent(e *core.EventRecord) error
	RecordLaunch(l *core.LaunchRecord) error
	RecordFlight(f *core.FlightRecord) error
	RecordTurn(t *core.TurnRecord) error
}

// Uploadable is an optional interface for storage backends that produce
// a file per game.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}

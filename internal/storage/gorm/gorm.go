// Package gormstorage implements the storage.Backend interface on GORM with
// internal queues and a background DB writer goroutine. The postgres and
// sqlite backends wrap it.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wopr-sim/wopr/internal/model"
	"github.com/wopr-sim/wopr/internal/model/convert"
	"github.com/wopr-sim/wopr/internal/queue"
	"github.com/wopr-sim/wopr/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushInterval is how often the writer drains the queues.
const DefaultFlushInterval = 2 * time.Second

// batchSize caps rows per INSERT statement.
const batchSize = 500

// ErrNoDatabase is returned by operations that need a connection.
var ErrNoDatabase = errors.New("no database connection")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Events   *queue.Queue[model.GameEvent]
	Launches *queue.Queue[model.Launch]
	Flights  *queue.Queue[model.Flight]
	Turns    *queue.Queue[model.TurnSnapshot]
}

func newQueues() *queues {
	return &queues{
		Events:   queue.New[model.GameEvent](),
		Launches: queue.New[model.Launch](),
		Flights:  queue.New[model.Flight](),
		Turns:    queue.New[model.TurnSnapshot](),
	}
}

// Backend implements storage.Backend with queue-based batch writes.
// Without a DB it only queues, which is what the unit tests use.
type Backend struct {
	deps     Dependencies
	queues   *queues
	stopChan chan struct{}
	done     chan struct{}

	// flushMu serializes queue drains between the writer and EndGame.
	flushMu   sync.Mutex
	lastWrite atomic.Int64
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{deps: deps}
}

// DB returns the connection, which may be nil.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init creates internal queues, runs schema migration, and starts the DB writer goroutine.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB == nil {
		close(b.done)
		return nil
	}

	if err := b.setupDB(); err != nil {
		close(b.done)
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	go b.writerLoop()
	return nil
}

// setupDB migrates the schema.
func (b *Backend) setupDB() error {
	b.deps.Logger.Info("Migrating schema", "dialect", b.deps.DB.Name())
	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.deps.Logger.Info("Database setup complete")
	return nil
}

// Close stops the writer goroutine and drains what is left in the queues.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	select {
	case <-b.stopChan:
		return nil
	default:
		close(b.stopChan)
	}
	<-b.done
	if b.deps.DB == nil {
		return nil
	}
	return b.Flush()
}

// StartGame inserts the game row synchronously so that queued rows
// referencing it can be written.
func (b *Backend) StartGame(g *core.Game) error {
	if b.deps.DB == nil {
		return nil
	}
	row := convert.CoreToGame(*g)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert new game: %w", err)
	}
	return nil
}

// EndGame flushes the queues and writes the outcome onto the game row.
func (b *Backend) EndGame(r *core.Result) error {
	if b.deps.DB == nil {
		return nil
	}
	if err := b.Flush(); err != nil {
		return err
	}
	res := b.deps.DB.Model(&model.Game{}).
		Where("id = ?", r.GameID).
		Updates(convert.ResultUpdates(*r))
	if res.Error != nil {
		return fmt.Errorf("failed to update game: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("game %s not found", r.GameID)
	}
	return nil
}

// RecordEvent converts and queues a log line.
func (b *Backend) RecordEvent(e *core.EventRecord) error {
	b.queues.Events.Push(convert.CoreToEvent(*e))
	return nil
}

// RecordLaunch converts and queues a launch.
func (b *Backend) RecordLaunch(l *core.LaunchRecord) error {
	b.queues.Launches.Push(convert.CoreToLaunch(*l))
	return nil
}

// RecordFlight converts and queues a flight result.
func (b *Backend) RecordFlight(f *core.FlightRecord) error {
	b.queues.Flights.Push(convert.CoreToFlight(*f))
	return nil
}

// RecordTurn converts and queues a turn snapshot.
func (b *Backend) RecordTurn(t *core.TurnRecord) error {
	b.queues.Turns.Push(convert.CoreToTurn(*t))
	return nil
}

// Flush writes every queued row. Failed batches go back on their queue
// and the first error is returned.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	start := time.Now()
	log := b.deps.Logger
	err := errors.Join(
		writeQueue(b.deps.DB, b.queues.Events, "game events", log),
		writeQueue(b.deps.DB, b.queues.Launches, "launches", log),
		writeQueue(b.deps.DB, b.queues.Flights, "flights", log),
		writeQueue(b.deps.DB, b.queues.Turns, "turn snapshots", log),
	)
	b.lastWrite.Store(int64(time.Since(start)))
	return err
}

// QueueLengths returns the number of rows waiting per table.
func (b *Backend) QueueLengths() map[string]int {
	if b.queues == nil {
		return map[string]int{}
	}
	return map[string]int{
		"events":   b.queues.Events.Len(),
		"launches": b.queues.Launches.Len(),
		"flights":  b.queues.Flights.Len(),
		"turns":    b.queues.Turns.Len(),
	}
}

// LastWriteDuration returns how long the latest flush took.
func (b *Backend) LastWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

// writeQueue writes queued rows in one transaction, batchSize rows per
// insert. A failed batch goes back to the front of its queue.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) error {
	if q.Empty() {
		return nil
	}

	items := q.Drain()
	tx := db.Begin()
	if err := tx.CreateInBatches(&items, batchSize).Error; err != nil {
		log.Error("Error creating rows", "table", name, "count", len(items), "error", err)
		tx.Rollback()
		q.Requeue(items)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := tx.Commit().Error; err != nil {
		q.Requeue(items)
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	log.Debug("Wrote rows", "table", name, "count", len(items))
	return nil
}

// writerLoop periodically drains queues into the DB.
func (b *Backend) writerLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			// errors are logged by writeQueue and retried next tick
			_ = b.Flush()
		}
	}
}

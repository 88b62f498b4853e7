// Package recorder turns engine notifications into storage records.
package recorder

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wopr-sim/wopr/internal/game"
	"github.com/wopr-sim/wopr/internal/geo"
	"github.com/wopr-sim/wopr/internal/storage"
	"github.com/wopr-sim/wopr/pkg/core"
)

// TurnWriter receives end-of-week snapshots as metrics.
type TurnWriter interface {
	WriteTurn(rec core.TurnRecord, at time.Time) error
}

// Uploader ships a finished recording file.
type Uploader interface {
	Upload(filePath string, meta core.UploadMetadata) error
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithMetrics also sends every turn snapshot to w.
func WithMetrics(w TurnWriter) Option {
	return func(r *Recorder) {
		r.metrics = w
	}
}

// WithUploader uploads the exported file of every finished game. Backends
// that do not produce a file are skipped.
func WithUploader(u Uploader) Option {
	return func(r *Recorder) {
		r.uploader = u
	}
}

// WithLogger sets the logger used for storage errors.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		r.log = l
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithIDs overrides game ID generation.
func WithIDs(next func() uuid.UUID) Option {
	return func(r *Recorder) {
		r.newID = next
	}
}

// Recorder implements game.Observer. Storage errors are logged and
// counted; they never reach the engine.
type Recorder struct {
	backend  storage.Backend
	metrics  TurnWriter
	uploader Uploader
	theater  game.Theater
	seed     int64
	log      *slog.Logger
	now      func() time.Time
	newID    func() uuid.UUID

	mu      sync.Mutex
	gameID  uuid.UUID
	active  bool
	errors  int
	lastErr error
}

var _ game.Observer = (*Recorder)(nil)

// New creates a recorder writing to backend. seed is stored with every game.
func New(backend storage.Backend, theater game.Theater, seed int64, opts ...Option) *Recorder {
	r := &Recorder{
		backend: backend,
		theater: theater,
		seed:    seed,
		log:     slog.Default(),
		now:     time.Now,
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GameID returns the ID of the game being recorded, or uuid.Nil.
func (r *Recorder) GameID() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameID
}

// Errors returns how many storage calls failed and the latest error.
func (r *Recorder) Errors() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors, r.lastErr
}

func (r *Recorder) check(op string, err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	r.errors++
	r.lastErr = err
	r.mu.Unlock()
	r.log.Error("Recording failed", "op", op, "error", err)
}

// current returns the game ID if a game is being recorded.
func (r *Recorder) current() (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameID, r.active
}

// GameStarted opens a new recording. A game still open is abandoned.
func (r *Recorder) GameStarted(s *game.State) {
	id := r.newID()
	r.mu.Lock()
	r.gameID = id
	r.active = true
	r.mu.Unlock()

	g := &core.Game{
		ID:         id,
		Seed:       r.seed,
		MaxActions: s.MaxActions,
		StartDate:  s.StartDate,
		StartedAt:  r.now().UTC(),
	}
	r.check("start game", r.backend.StartGame(g))
	r.log.Info("Recording started", "gameId", id)
}

// EventLogged records one log line.
func (r *Recorder) EventLogged(e game.Event) {
	id, ok := r.current()
	if !ok {
		return
	}
	r.check("record event", r.backend.RecordEvent(&core.EventRecord{
		GameID:   id,
		Seq:      e.Seq,
		Turn:     e.Turn,
		Category: e.Category.String(),
		Message:  e.Message,
		Time:     e.Time,
	}))
}

// WeaponLaunched records a launch with its projected trajectory.
func (r *Recorder) WeaponLaunched(w game.Weapon) {
	id, ok := r.current()
	if !ok {
		return
	}
	rec := &core.LaunchRecord{
		GameID:     id,
		WeaponID:   w.ID,
		Side:       w.Side.String(),
		Kind:       w.Kind.String(),
		Target:     w.Target,
		TargetKey:  r.targetKey(w),
		LaunchTurn: w.LaunchTurn,
		Transit:    w.TotalTransit,
	}
	if route, ok := r.theater.Route(w.Target); ok {
		rec.Trajectory = geo.TrajectoryWKT(route)
	}
	r.check("record launch", r.backend.RecordLaunch(rec))
}

// targetKey is the region a weapon will hit. USSR weapons carry it; USA
// weapons are looked up by city.
func (r *Recorder) targetKey(w game.Weapon) string {
	if w.TargetKey != "" {
		return w.TargetKey
	}
	key, _ := r.theater.RegionFor(w.Target)
	return key
}

// WeaponResolved records how a weapon left the air. Resolution happens
// during the last week of transit, before the week counter advances.
func (r *Recorder) WeaponResolved(w game.Weapon, res game.FlightResult) {
	id, ok := r.current()
	if !ok {
		return
	}
	r.check("record flight", r.backend.RecordFlight(&core.FlightRecord{
		GameID:        id,
		WeaponID:      w.ID,
		Side:          w.Side.String(),
		Kind:          w.Kind.String(),
		Target:        w.Target,
		RegionKey:     res.RegionKey,
		Turn:          w.LaunchTurn + w.TotalTransit - 1,
		Intercepted:   res.Intercepted,
		TargetingLost: res.TargetingLost,
		Damage:        res.Damage,
		SiloDestroyed: res.SiloDestroyed,
		ICBMsLost:     res.ICBMsLost,
		Casualties:    res.Casualties,
	}))
}

// TurnEnded records the week that just closed. The engine has already
// advanced the counter.
func (r *Recorder) TurnEnded(s *game.State) {
	id, ok := r.current()
	if !ok {
		return
	}
	r.recordTurn(Snapshot(id, s, s.Turn-1))
}

// GameEnded records the final week and closes the recording.
func (r *Recorder) GameEnded(s *game.State) {
	id, ok := r.current()
	if !ok {
		return
	}
	r.recordTurn(Snapshot(id, s, s.Turn))

	res := &core.Result{
		GameID:      id,
		Outcome:     s.Outcome.String(),
		Text:        s.OutcomeText,
		FinalTurn:   s.Turn,
		Defcon:      s.Defcon,
		EndedAt:     r.now().UTC(),
		USAPop:      s.Population(game.USA),
		USSRPop:     s.Population(game.USSR),
		TotalEvents: len(s.Events),
	}
	r.check("end game", r.backend.EndGame(res))

	r.mu.Lock()
	r.active = false
	r.mu.Unlock()
	r.log.Info("Recording finished", "gameId", id, "outcome", res.Outcome, "turn", res.FinalTurn)
	r.upload()
}

func (r *Recorder) upload() {
	if r.uploader == nil {
		return
	}
	up, ok := r.backend.(storage.Uploadable)
	if !ok {
		return
	}
	path := up.GetExportedFilePath()
	if path == "" {
		return
	}
	if err := r.uploader.Upload(path, up.GetExportMetadata()); err != nil {
		r.check("upload", err)
		return
	}
	r.log.Info("Recording uploaded", "path", path)
}

func (r *Recorder) recordTurn(rec core.TurnRecord) {
	r.check("record turn", r.backend.RecordTurn(&rec))
	if r.metrics != nil {
		r.check("write turn metrics", r.metrics.WriteTurn(rec, r.now()))
	}
}

// Snapshot summarizes a state as the record of the given week.
func Snapshot(id uuid.UUID, s *game.State, turn int) core.TurnRecord {
	rec := core.TurnRecord{
		GameID:       id,
		Turn:         turn,
		Defcon:       s.Defcon,
		Tension:      s.Diplomacy.Tension,
		AIState:      s.AIState.String(),
		AIAggression: s.AIAggression,
		Inaction:     s.InactionTurns,
		Sides:        make([]core.SideSnapshot, 0, len(game.Sides)),
		Regions:      make([]core.RegionSnapshot, 0, len(s.Regions)),
	}
	for _, side := range game.Sides {
		a := s.Arsenals[side]
		st := s.Stats[side]
		rec.Sides = append(rec.Sides, core.SideSnapshot{
			Side:         side.String(),
			ICBMs:        a.ICBMs,
			SLBMs:        a.SLBMs,
			Bombers:      a.Bombers,
			Interceptors: a.Interceptors,
			Satellites:   a.Satellites,
			InFlight:     s.InFlightCount(side),
			Population:   s.Population(side),
			Casualties:   s.Casualties(side),
			Industry:     s.Industry(side),
			CommandNodes: s.CommandNodes(side),
			Launched:     st.Launched,
			Intercepted:  st.Intercepted,
			Hits:         st.Hits,
		})
	}
	for _, reg := range s.Regions {
		rec.Regions = append(rec.Regions, core.RegionSnapshot{
			Key:    reg.Key,
			Side:   reg.Side.String(),
			Damage: reg.Damage,
			Silos:  reg.Silos,
			Subs:   reg.Subs,
		})
	}
	return rec
}

package recorder

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wopr-sim/wopr/internal/game"
	"github.com/wopr-sim/wopr/pkg/core"
)

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

// fakeBackend records every call.
type fakeBackend struct {
	mu       sync.Mutex
	games    []core.Game
	results  []core.Result
	events   []core.EventRecord
	launches []core.LaunchRecord
	flights  []core.FlightRecord
	turns    []core.TurnRecord
	fail     error
}

func (f *fakeBackend) Init() error  { return nil }
func (f *fakeBackend) Close() error { return nil }

func (f *fakeBackend) StartGame(g *core.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games = append(f.games, *g)
	return f.fail
}

func (f *fakeBackend) EndGame(r *core.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, *r)
	return f.fail
}

func (f *fakeBackend) RecordEvent(e *core.EventRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *e)
	return f.fail
}

func (f *fakeBackend) RecordLaunch(l *core.LaunchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launches = append(f.launches, *l)
	return f.fail
}

func (f *fakeBackend) RecordFlight(fl *core.FlightRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flights = append(f.flights, *fl)
	return f.fail
}

func (f *fakeBackend) RecordTurn(t *core.TurnRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, *t)
	return f.fail
}

type fakeMetrics struct {
	turns []core.TurnRecord
}

func (m *fakeMetrics) WriteTurn(rec core.TurnRecord, _ time.Time) error {
	m.turns = append(m.turns, rec)
	return nil
}

var (
	testID    = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	fixedTime = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
)

func newRecorded(t *testing.T, b *fakeBackend, opts ...Option) (*game.Engine, *Recorder) {
	t.Helper()
	all := append([]Option{
		WithClock(func() time.Time { return fixedTime }),
		WithIDs(func() uuid.UUID { return testID }),
	}, opts...)
	rec := New(b, game.DefaultTheater(), 42, all...)
	e := game.New(
		game.WithRandom(fixedRandom(0.999)),
		game.WithClock(func() time.Time { return fixedTime }),
		game.WithObserver(rec),
	)
	e.Init()
	return e, rec
}

func TestGameStarted(t *testing.T) {
	b := &fakeBackend{}
	_, rec := newRecorded(t, b)

	require.Len(t, b.games, 1)
	g := b.games[0]
	assert.Equal(t, testID, g.ID)
	assert.Equal(t, int64(42), g.Seed)
	assert.Equal(t, game.DefaultMaxActions, g.MaxActions)
	assert.Equal(t, game.DefaultStartDate, g.StartDate)
	assert.Equal(t, fixedTime, g.StartedAt)
	assert.Equal(t, testID, rec.GameID())

	// opening lines arrive after the game row exists
	require.Len(t, b.events, 2)
	assert.Equal(t, testID, b.events[0].GameID)
	assert.Equal(t, "info", b.events[0].Category)
	assert.Equal(t, "DEFCON 5: Normal peacetime readiness", b.events[1].Message)
}

func TestWeaponLaunched_Trajectory(t *testing.T) {
	b := &fakeBackend{}
	e, _ := newRecorded(t, b)

	require.NoError(t, e.Launch(game.ICBM, 0))

	require.Len(t, b.launches, 1)
	l := b.launches[0]
	assert.Equal(t, "USA", l.Side)
	assert.Equal(t, "ICBM", l.Kind)
	assert.Equal(t, "MOSCOW", l.Target)
	assert.Equal(t, game.RegionUSSRWest, l.TargetKey)
	assert.Equal(t, 0, l.LaunchTurn)
	assert.Equal(t, game.ICBM.Transit(), l.Transit)
	if !strings.HasPrefix(l.Trajectory, "LINESTRING(") {
		t.Errorf("expected a LINESTRING trajectory, got %q", l.Trajectory)
	}
}

func TestTurnEnded_RecordsClosedWeek(t *testing.T) {
	b := &fakeBackend{}
	m := &fakeMetrics{}
	e, _ := newRecorded(t, b, WithMetrics(m))

	require.NoError(t, e.EndTurn())
	require.True(t, e.Active())

	require.Len(t, b.turns, 1)
	tr := b.turns[0]
	assert.Equal(t, 0, tr.Turn)
	assert.Equal(t, testID, tr.GameID)
	require.Len(t, tr.Sides, 2)
	assert.Equal(t, "USA", tr.Sides[0].Side)
	assert.Equal(t, "USSR", tr.Sides[1].Side)
	assert.Len(t, tr.Regions, 6)
	assert.Len(t, m.turns, 1)
}

func TestWeaponResolved_Turn(t *testing.T) {
	b := &fakeBackend{}
	_, rec := newRecorded(t, b)

	w := game.Weapon{ID: 3, Side: game.USA, Kind: game.Bomber, Target: "KIEV", LaunchTurn: 2, TotalTransit: 3}
	rec.WeaponResolved(w, game.FlightResult{Intercepted: true})

	require.Len(t, b.flights, 1)
	assert.Equal(t, 4, b.flights[0].Turn)
	assert.True(t, b.flights[0].Intercepted)
	assert.Equal(t, "BOMBER", b.flights[0].Kind)
}

func TestGameEnded(t *testing.T) {
	b := &fakeBackend{}
	e, rec := newRecorded(t, b)

	s := e.State()
	s.Outcome = game.OutcomeDraw
	s.OutcomeText = "STALEMATE"
	rec.GameEnded(s)

	require.Len(t, b.results, 1)
	res := b.results[0]
	assert.Equal(t, "draw", res.Outcome)
	assert.Equal(t, "STALEMATE", res.Text)
	assert.Equal(t, len(s.Events), res.TotalEvents)
	assert.InDelta(t, s.Population(game.USA), res.USAPop, 1e-9)
	require.Len(t, b.turns, 1)

	// nothing is recorded once closed
	rec.EventLogged(game.Event{Message: "late"})
	assert.Len(t, b.events, 2)
}

// fileBackend is a fakeBackend that exports a file per game.
type fileBackend struct {
	fakeBackend
	path string
}

func (f *fileBackend) GetExportedFilePath() string { return f.path }

func (f *fileBackend) GetExportMetadata() core.UploadMetadata {
	return core.UploadMetadata{GameID: testID, Outcome: "draw"}
}

type fakeUploader struct {
	paths []string
	metas []core.UploadMetadata
	err   error
}

func (u *fakeUploader) Upload(path string, meta core.UploadMetadata) error {
	u.paths = append(u.paths, path)
	u.metas = append(u.metas, meta)
	return u.err
}

func endWithDraw(e *game.Engine, rec *Recorder) {
	s := e.State()
	s.Outcome = game.OutcomeDraw
	rec.GameEnded(s)
}

func TestGameEnded_Uploads(t *testing.T) {
	b := &fileBackend{path: "/recordings/wopr_test.json.gz"}
	up := &fakeUploader{}
	rec := New(b, game.DefaultTheater(), 1, WithIDs(func() uuid.UUID { return testID }), WithUploader(up))
	e := game.New(game.WithRandom(fixedRandom(0.999)), game.WithObserver(rec))
	e.Init()

	endWithDraw(e, rec)

	require.Len(t, up.paths, 1)
	assert.Equal(t, "/recordings/wopr_test.json.gz", up.paths[0])
	assert.Equal(t, testID, up.metas[0].GameID)
	n, _ := rec.Errors()
	assert.Equal(t, 0, n)
}

func TestGameEnded_UploadSkipped(t *testing.T) {
	up := &fakeUploader{}

	// backend without files
	e, rec := newRecorded(t, &fakeBackend{}, WithUploader(up))
	endWithDraw(e, rec)
	assert.Empty(t, up.paths)

	// export failed, nothing to send
	b := &fileBackend{}
	rec = New(b, game.DefaultTheater(), 1, WithUploader(up))
	e = game.New(game.WithRandom(fixedRandom(0.999)), game.WithObserver(rec))
	e.Init()
	endWithDraw(e, rec)
	assert.Empty(t, up.paths)
}

func TestGameEnded_UploadError(t *testing.T) {
	b := &fileBackend{path: "/recordings/x.json"}
	up := &fakeUploader{err: errors.New("connection refused")}
	rec := New(b, game.DefaultTheater(), 1, WithUploader(up))
	e := game.New(game.WithRandom(fixedRandom(0.999)), game.WithObserver(rec))
	e.Init()

	endWithDraw(e, rec)

	n, err := rec.Errors()
	assert.Equal(t, 1, n)
	assert.EqualError(t, err, "connection refused")
}

func TestStorageErrorsAreCounted(t *testing.T) {
	b := &fakeBackend{fail: errors.New("disk full")}
	e, rec := newRecorded(t, b)
	require.True(t, e.Active())

	n, err := rec.Errors()
	// StartGame plus the two opening events
	assert.Equal(t, 3, n)
	assert.EqualError(t, err, "disk full")
}

func TestSnapshot(t *testing.T) {
	e := game.New(game.WithRandom(fixedRandom(0.5)))
	e.Init()
	s := e.State()
	s.Regions[0].Damage = 0.5

	rec := Snapshot(testID, s, 7)
	assert.Equal(t, 7, rec.Turn)
	assert.Equal(t, 5, rec.Defcon)
	assert.Equal(t, 50, rec.Tension)
	assert.Equal(t, "defensive", rec.AIState)
	assert.Equal(t, 24, rec.Sides[0].ICBMs)
	assert.InDelta(t, 0.5, rec.Regions[0].Damage, 1e-9)
	assert.InDelta(t, s.Population(game.USA), rec.Sides[0].Population, 1e-9)
}

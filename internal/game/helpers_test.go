package game

import (
	"testing"
	"time"
)

// sequenceRandom replays scripted draws, then returns fallback.
type sequenceRandom struct {
	draws    []float64
	fallback float64
	used     int
}

func (r *sequenceRandom) Float64() float64 {
	if r.used < len(r.draws) {
		v := r.draws[r.used]
		r.used++
		return v
	}
	r.used++
	return r.fallback
}

func script(draws ...float64) *sequenceRandom {
	return &sequenceRandom{draws: draws, fallback: 0.999}
}

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, rng Random, opts ...Option) *Engine {
	t.Helper()
	all := append([]Option{WithRandom(rng), WithClock(func() time.Time { return fixedTime })}, opts...)
	e := New(all...)
	e.Init()
	return e
}

func messages(events []Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Message
	}
	return out
}

func region(t *testing.T, s *State, key string) *Region {
	t.Helper()
	r, ok := s.Region(key)
	if !ok {
		t.Fatalf("region %s not found", key)
	}
	return r
}

type recordingObserver struct {
	NopObserver
	started  int
	events   []Event
	launched []Weapon
	resolved []FlightResult
	turns    int
	ended    int
}

func (o *recordingObserver) GameStarted(*State) { o.started++ }
func (o *recordingObserver) EventLogged(e Event) { o.events = append(o.events, e) }
func (o *recordingObserver) WeaponLaunched(w Weapon) { o.launched = append(o.launched, w) }
func (o *recordingObserver) WeaponResolved(_ Weapon, r FlightResult) { o.resolved = append(o.resolved, r) }
func (o *recordingObserver) TurnEnded(*State) { o.turns++ }
func (o *recordingObserver) GameEnded(*State) { o.ended++ }

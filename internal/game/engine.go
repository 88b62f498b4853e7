package game

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Rejections. Every rejection is also narrated in the event log.
var (
	ErrNoActions       = errors.New("no orders remaining this week")
	ErrDefconTooHigh   = errors.New("nuclear launch requires DEFCON 2 or lower")
	ErrLaunchCapacity  = errors.New("launch capacity reached")
	ErrHotlineInactive = errors.New("hotline disconnected")
	ErrChannelBlocked  = errors.New("diplomatic channel blocked")
	ErrUnknownTarget   = errors.New("unknown target")
	ErrNotStarted      = errors.New("game not initialized")
	ErrGameOver        = errors.New("game over")
)

// DefaultMaxActions is the per-turn order budget.
const DefaultMaxActions = 3

// DefaultStartDate is the calendar date of week 0.
var DefaultStartDate = time.Date(1983, time.January, 1, 0, 0, 0, 0, time.UTC)

// Option configures an Engine.
type Option func(*Engine)

// WithRandom sets the probability source.
func WithRandom(r Random) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

// WithClock sets the wall clock used to timestamp events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithTheater replaces the target tables.
func WithTheater(t Theater) Option {
	return func(e *Engine) {
		e.theater = t
	}
}

// WithObserver registers a change listener.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMaxActions sets the per-turn order budget.
func WithMaxActions(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxActions = n
		}
	}
}

// WithStartDate sets the calendar date of week 0.
func WithStartDate(t time.Time) Option {
	return func(e *Engine) {
		e.startDate = t
	}
}

// Engine owns one simulation. It is not safe for concurrent use; callers
// serialize commands.
type Engine struct {
	state      *State
	rng        Random
	now        func() time.Time
	theater    Theater
	observer   Observer
	log        *slog.Logger
	maxActions int
	startDate  time.Time
}

// New creates an engine. Call Init before issuing commands.
func New(opts ...Option) *Engine {
	e := &Engine{
		rng:        NewRandom(time.Now().UnixNano()),
		now:        time.Now,
		theater:    DefaultTheater(),
		observer:   NopObserver{},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxActions: DefaultMaxActions,
		startDate:  DefaultStartDate,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init resets the simulation to the 1983 starting position. Observers see
// GameStarted before the opening events.
func (e *Engine) Init() {
	e.state = newState(e.maxActions, e.startDate)
	e.observer.GameStarted(e.state)
	e.event(CategoryInfo, "─────── SIMULATION STARTED ───────")
	e.event(CategoryInfo, "DEFCON 5: Normal peacetime readiness")
	e.log.Info("simulation started", "maxActions", e.maxActions, "targets", len(e.theater.Targets))
}

// State returns the live state. Callers must treat it as read-only.
func (e *Engine) State() *State {
	return e.state
}

// Snapshot returns a deep copy of the state.
func (e *Engine) Snapshot() *State {
	if e.state == nil {
		return nil
	}
	return e.state.Clone()
}

// Theater returns the target tables.
func (e *Engine) Theater() Theater {
	return e.theater
}

// RecentEvents returns up to n of the latest events.
func (e *Engine) RecentEvents(n int) []Event {
	if e.state == nil {
		return nil
	}
	return Recent(e.state.Events, n)
}

// Date returns the calendar date of the current week, or the configured
// start date before Init.
func (e *Engine) Date() time.Time {
	if e.state == nil {
		return e.startDate
	}
	return e.state.StartDate.AddDate(0, 0, 7*e.state.Turn)
}

// FormatDate renders a date as "JAN 8, 1983".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %d, %d", strings.ToUpper(t.Month().String()[:3]), t.Day(), t.Year())
}

// Active reports whether the game has been initialized and is not over.
func (e *Engine) Active() bool {
	return e.state != nil && e.state.GameActive
}

func (e *Engine) eventf(c Category, format string, args ...any) {
	e.event(c, fmt.Sprintf(format, args...))
}

func (e *Engine) event(c Category, msg string) {
	ev := Event{
		Seq:      len(e.state.Events),
		Turn:     e.state.Turn,
		Category: c,
		Message:  msg,
		Time:     e.now(),
	}
	e.state.Events = append(e.state.Events, ev)
	e.observer.EventLogged(ev)
}

func (e *Engine) started() error {
	if e.state == nil {
		return ErrNotStarted
	}
	return nil
}

// requireAction logs a rejection when the order budget is spent.
func (e *Engine) requireAction() error {
	if e.state.ActionsRemaining <= 0 {
		e.event(CategoryError, "NO ORDERS REMAINING THIS WEEK")
		return ErrNoActions
	}
	return nil
}

func (e *Engine) addTension(n int) {
	e.state.Diplomacy.Tension = min(100, max(0, e.state.Diplomacy.Tension+n))
}

func (e *Engine) reduceAggression(n int) {
	e.state.AIAggression = max(0, e.state.AIAggression-n)
}

// RaiseAlert lowers DEFCON by one level.
func (e *Engine) RaiseAlert() error {
	if err := e.started(); err != nil {
		return err
	}
	if err := e.requireAction(); err != nil {
		return err
	}
	s := e.state
	if s.Defcon <= 1 {
		e.event(CategoryInfo, "Already at maximum alert - DEFCON 1")
		return nil
	}
	s.Defcon--
	s.ActionsRemaining--
	s.AIAggression += 10
	e.addTension(10)
	e.eventf(CategoryWarning, "★ DEFCON RAISED TO LEVEL %d", s.Defcon)
	if s.Defcon <= 2 {
		e.event(CategoryInfo, "Nuclear launch NOW AUTHORIZED")
	} else {
		e.event(CategoryInfo, "Nuclear launch requires DEFCON 2")
	}
	e.log.Debug("defcon raised", "defcon", s.Defcon)
	return nil
}

// EnterPhase opens a command menu. Menus that lead to an order check the
// order budget; the launch menu checks DEFCON 2 before it and the
// diplomacy menu an active hotline after it. PhaseCommand cancels any open menu.
func (e *Engine) EnterPhase(p Phase) error {
	if err := e.started(); err != nil {
		return err
	}
	s := e.state
	switch p {
	case PhaseCommand, PhaseStatus:
	case PhaseLaunch:
		if s.Defcon > 2 {
			e.event(CategoryError, "NUCLEAR LAUNCH REQUIRES DEFCON 2 OR LOWER")
			return ErrDefconTooHigh
		}
		if err := e.requireAction(); err != nil {
			return err
		}
	case PhaseRecon, PhaseBuild:
		if err := e.requireAction(); err != nil {
			return err
		}
	case PhaseDiplomacy:
		if err := e.requireAction(); err != nil {
			return err
		}
		if !s.Diplomacy.HotlineActive {
			e.event(CategoryError, "HOTLINE DISCONNECTED")
			return ErrHotlineInactive
		}
	default:
		return fmt.Errorf("cannot enter phase %s", p)
	}
	s.Phase = p
	return nil
}

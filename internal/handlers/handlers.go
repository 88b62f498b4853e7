// Package handlers binds operator commands to the game engine.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/wopr-sim/wopr/internal/dispatcher"
	"github.com/wopr-sim/wopr/internal/game"
	"github.com/wopr-sim/wopr/internal/geo"
	"github.com/wopr-sim/wopr/internal/parser"
)

// ErrGameOver is returned for game commands once the game has ended.
var ErrGameOver = game.ErrGameOver

// ErrMissingArgument is returned when a command needs more arguments.
var ErrMissingArgument = errors.New("missing argument")

// Saver checkpoints the recording on demand.
type Saver interface {
	Flush() error
}

// Dependencies holds all dependencies needed by handlers.
type Dependencies struct {
	Engine *game.Engine
	Logger *slog.Logger

	// Saver backs :SAVE:. Without one the command is not registered.
	Saver Saver

	// RecentEvents is how many log lines a Screen carries.
	RecentEvents int
}

// Screen is what the console shows after a command.
type Screen struct {
	Active   bool         `json:"active"`
	Turn     int          `json:"turn"`
	Date     string       `json:"date"`
	Defcon   int          `json:"defcon"`
	Actions  int          `json:"actions"`
	Phase    string       `json:"phase"`
	InFlight int          `json:"inFlight"`
	Outcome  string       `json:"outcome,omitempty"`
	Tracks   []Track      `json:"tracks,omitempty"`
	Events   []game.Event `json:"events"`
}

// Track is an in-flight weapon placed on the EPSG:3857 map.
type Track struct {
	ID            int     `json:"id"`
	Side          string  `json:"side"`
	Kind          string  `json:"kind"`
	Target        string  `json:"target"`
	TurnsToImpact int     `json:"turnsToImpact"`
	Progress      float64 `json:"progress"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
}

// Service serializes commands onto one engine.
type Service struct {
	deps Dependencies
	mu   sync.Mutex

	// read by the log context without taking mu
	turn   atomic.Int64
	defcon atomic.Int64
	phase  atomic.Value
}

// NewService creates a handler service.
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.RecentEvents <= 0 {
		deps.RecentEvents = game.DisplayEvents
	}
	s := &Service{deps: deps}
	s.phase.Store("")
	return s
}

// Register adds every command to the dispatcher.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	d.Register(parser.CmdInit, s.handleInit, dispatcher.Logged())
	d.Register(parser.CmdAlert, s.handleAlert, dispatcher.Logged())
	d.Register(parser.CmdMenu, s.handleMenu, dispatcher.Logged())
	d.Register(parser.CmdRecon, s.handleRecon, dispatcher.Logged())
	d.Register(parser.CmdDiplomacy, s.handleDiplomacy, dispatcher.Logged())
	d.Register(parser.CmdLaunch, s.handleLaunch, dispatcher.Logged())
	d.Register(parser.CmdBuild, s.handleBuild, dispatcher.Logged())
	d.Register(parser.CmdEndTurn, s.handleEndTurn, dispatcher.Logged())
	d.Register(parser.CmdStatus, s.handleStatus)
	d.Register(parser.CmdEvents, s.handleEvents)
	if s.deps.Saver != nil {
		d.Register(parser.CmdSave, s.handleSave, dispatcher.Buffered(4), dispatcher.Logged())
	}
}

// LogContext returns the live game attributes for log records.
func (s *Service) LogContext() []slog.Attr {
	phase, _ := s.phase.Load().(string)
	if phase == "" {
		return nil
	}
	return []slog.Attr{
		slog.Int64("turn", s.turn.Load()),
		slog.Int64("defcon", s.defcon.Load()),
		slog.String("phase", phase),
	}
}

// Screen returns the current console view.
func (s *Service) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen()
}

func (s *Service) screen() Screen {
	e := s.deps.Engine
	st := e.State()
	if st == nil {
		return Screen{Events: []game.Event{}}
	}
	events := append([]game.Event(nil), e.RecentEvents(s.deps.RecentEvents)...)
	sc := Screen{
		Active:   st.GameActive,
		Turn:     st.Turn,
		Date:     game.FormatDate(e.Date()),
		Defcon:   st.Defcon,
		Actions:  st.ActionsRemaining,
		Phase:    st.Phase.String(),
		InFlight: len(st.InFlight),
		Events:   events,
	}
	if st.Outcome != game.OutcomeNone {
		sc.Outcome = st.OutcomeText
	}
	sc.Tracks = s.tracks(e.Theater(), st.InFlight)
	return sc
}

// tracks positions each weapon along its route. Weapons without a known
// route are left off the map.
func (s *Service) tracks(th game.Theater, inFlight []game.Weapon) []Track {
	var out []Track
	for _, w := range inFlight {
		route, ok := th.Route(w.Target)
		if !ok {
			continue
		}
		progress := w.Progress()
		pt, err := geo.Position(route, progress)
		if err != nil {
			s.deps.Logger.Debug("Cannot place weapon", "weapon", w.ID, "target", w.Target, "error", err)
			continue
		}
		c, _ := pt.Coordinates()
		out = append(out, Track{
			ID:            w.ID,
			Side:          w.Side.String(),
			Kind:          w.Kind.String(),
			Target:        w.Target,
			TurnsToImpact: w.TurnsToImpact,
			Progress:      progress,
			X:             c.XY.X,
			Y:             c.XY.Y,
		})
	}
	return out
}

// run applies fn to the engine and returns the resulting screen. Game
// commands are refused once the game is over.
func (s *Service) run(fn func(e *game.Engine) error) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.deps.Engine
	if st := e.State(); st != nil && !st.GameActive {
		return s.screen(), ErrGameOver
	}
	err := fn(e)
	s.sync()
	return s.screen(), err
}

// sync publishes the log context values.
func (s *Service) sync() {
	st := s.deps.Engine.State()
	if st == nil {
		return
	}
	s.turn.Store(int64(st.Turn))
	s.defcon.Store(int64(st.Defcon))
	s.phase.Store(st.Phase.String())
}

func arg(e dispatcher.Event, i int, name string) (string, error) {
	if len(e.Args) <= i {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	return e.Args[i], nil
}

func (s *Service) handleInit(dispatcher.Event) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deps.Engine.Init()
	s.sync()
	s.deps.Logger.Info("New game", "maxActions", s.deps.Engine.State().MaxActions)
	return s.screen(), nil
}

func (s *Service) handleAlert(dispatcher.Event) (any, error) {
	return s.run(func(e *game.Engine) error {
		return e.RaiseAlert()
	})
}

func (s *Service) handleMenu(ev dispatcher.Event) (any, error) {
	name, err := arg(ev, 0, "menu")
	if err != nil {
		return nil, err
	}
	phase, err := parser.ParsePhase(name)
	if err != nil {
		return nil, err
	}
	return s.run(func(e *game.Engine) error {
		return e.EnterPhase(phase)
	})
}

func (s *Service) handleRecon(ev dispatcher.Event) (any, error) {
	name, err := arg(ev, 0, "recon option")
	if err != nil {
		return nil, err
	}
	kind, err := parser.ParseRecon(name)
	if err != nil {
		return nil, err
	}
	return s.run(func(e *game.Engine) error {
		if err := e.EnterPhase(game.PhaseRecon); err != nil {
			return err
		}
		return e.Recon(kind)
	})
}

func (s *Service) handleDiplomacy(ev dispatcher.Event) (any, error) {
	name, err := arg(ev, 0, "diplomacy option")
	if err != nil {
		return nil, err
	}
	kind, err := parser.ParseDiplomacy(name)
	if err != nil {
		return nil, err
	}
	return s.run(func(e *game.Engine) error {
		if err := e.EnterPhase(game.PhaseDiplomacy); err != nil {
			return err
		}
		return e.Diplomacy(kind)
	})
}

// handleLaunch goes through the launch menu so the DEFCON gate applies.
func (s *Service) handleLaunch(ev dispatcher.Event) (any, error) {
	weapon, err := arg(ev, 0, "weapon")
	if err != nil {
		return nil, err
	}
	target, err := arg(ev, 1, "target")
	if err != nil {
		return nil, err
	}
	kind, err := parser.ParseWeapon(weapon)
	if err != nil {
		return nil, err
	}
	index, err := parser.ParseTarget(target, s.deps.Engine.Theater().Targets)
	if err != nil {
		return nil, err
	}
	return s.run(func(e *game.Engine) error {
		if err := e.EnterPhase(game.PhaseLaunch); err != nil {
			return err
		}
		return e.Launch(kind, index)
	})
}

func (s *Service) handleBuild(ev dispatcher.Event) (any, error) {
	name, err := arg(ev, 0, "build option")
	if err != nil {
		return nil, err
	}
	kind, err := parser.ParseBuild(name)
	if err != nil {
		return nil, err
	}
	return s.run(func(e *game.Engine) error {
		if err := e.EnterPhase(game.PhaseBuild); err != nil {
			return err
		}
		return e.Build(kind)
	})
}

func (s *Service) handleEndTurn(dispatcher.Event) (any, error) {
	return s.run(func(e *game.Engine) error {
		return e.EndTurn()
	})
}

// handleStatus works after the game is over so the final tally can be read.
func (s *Service) handleStatus(dispatcher.Event) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.deps.Engine.Status()
	s.sync()
	if err != nil {
		return nil, err
	}
	return report, nil
}

// handleEvents returns the latest n events, all of them for n <= 0.
func (s *Service) handleEvents(ev dispatcher.Event) (any, error) {
	n := s.deps.RecentEvents
	if len(ev.Args) > 0 {
		v, err := strconv.Atoi(ev.Args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid event count %q", ev.Args[0])
		}
		n = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.deps.Engine.State()
	if st == nil {
		return nil, game.ErrNotStarted
	}
	if n <= 0 {
		n = len(st.Events)
	}
	return append([]game.Event(nil), s.deps.Engine.RecentEvents(n)...), nil
}

func (s *Service) handleSave(dispatcher.Event) (any, error) {
	if err := s.deps.Saver.Flush(); err != nil {
		return nil, fmt.Errorf("save recording: %w", err)
	}
	s.deps.Logger.Info("Recording saved")
	return "saved", nil
}

package game

import (
	"fmt"
	"strings"
)

// Launch sends a USA weapon at the target city with the given index. The
// DEFCON requirement is enforced by the launch menu (EnterPhase), not here.
// Launching a weapon type with no inventory left does nothing.
func (e *Engine) Launch(kind WeaponKind, targetIndex int) error {
	if err := e.started(); err != nil {
		return err
	}
	if kind < ICBM || kind > Bomber {
		return fmt.Errorf("unknown weapon kind %d", int(kind))
	}
	if err := e.requireAction(); err != nil {
		return err
	}
	s := e.state
	defer func() { s.Phase = PhaseCommand }()

	capacity := s.SiloCapacity[USA].LaunchesPerTurn
	if s.LaunchesThisTurn >= capacity {
		e.eventf(CategoryError, "LAUNCH CAPACITY REACHED: Max %d launches per turn (silo reload required)", capacity)
		return ErrLaunchCapacity
	}
	if targetIndex < 0 || targetIndex >= len(e.theater.Targets) {
		e.event(CategoryError, "INVALID TARGET SELECTION")
		return fmt.Errorf("%w: index %d", ErrUnknownTarget, targetIndex)
	}

	stock := s.Arsenals[USA].count(kind)
	if *stock <= 0 {
		return nil
	}
	*stock--

	target := strings.ToUpper(e.theater.Targets[targetIndex].Name)
	w := e.newWeapon(USA, kind, target, "")
	if kind == Bomber {
		e.eventf(CategoryLaunch, "★ B-52 STEALTH BOMBER → %s (ETA: %d weeks)", target, w.TotalTransit)
	} else {
		e.eventf(CategoryLaunch, "★ %s LAUNCHED → %s (ETA: %d weeks)", kind, target, w.TotalTransit)
	}

	s.ActionsRemaining--
	s.LaunchesThisTurn++
	s.Stats[USA].Launched++
	s.AIAggression += 25
	e.addTension(20)

	if remaining := capacity - s.LaunchesThisTurn; remaining > 0 {
		e.eventf(CategoryInfo, "◆ Silo capacity: %d more launch(es) available this turn", remaining)
	} else {
		e.event(CategoryWarning, "◆ All silos reloading - no more launches until next week")
	}
	e.log.Debug("weapon launched", "side", USA, "kind", kind, "target", target)
	return nil
}

func (e *Engine) newWeapon(side Side, kind WeaponKind, target, targetKey string) Weapon {
	s := e.state
	s.nextWeaponID++
	w := Weapon{
		ID:            s.nextWeaponID,
		Side:          side,
		Kind:          kind,
		Target:        target,
		TargetKey:     targetKey,
		TurnsToImpact: kind.Transit(),
		TotalTransit:  kind.Transit(),
		LaunchTurn:    s.Turn,
	}
	s.InFlight = append(s.InFlight, w)
	e.observer.WeaponLaunched(w)
	return w
}

// Build places a rush production order.
func (e *Engine) Build(kind BuildKind) error {
	if err := e.started(); err != nil {
		return err
	}
	if kind < BuildICBM || kind > BuildBomber {
		return fmt.Errorf("unknown build kind %d", int(kind))
	}
	if err := e.requireAction(); err != nil {
		return err
	}
	s := e.state
	s.ActionsRemaining--
	a := &s.Arsenals[USA]
	switch kind {
	case BuildICBM:
		a.ICBMs += 2
		e.event(CategorySuccess, "★ RUSH ORDER: +2 ICBMs manufactured")
	case BuildInterceptor:
		a.Interceptors += 3
		e.event(CategorySuccess, "★ RUSH ORDER: +3 Interceptors deployed")
	case BuildBomber:
		a.Bombers++
		e.event(CategorySuccess, "★ RUSH ORDER: +1 B-52 Bomber ready")
	}
	s.Phase = PhaseCommand
	return nil
}

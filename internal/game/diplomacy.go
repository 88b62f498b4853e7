package game

import "fmt"

// Diplomacy uses the hotline. De-escalation is refused without cost while
// any weapon is in flight.
func (e *Engine) Diplomacy(kind DiplomacyKind) error {
	if err := e.started(); err != nil {
		return err
	}
	if kind < Deescalate || kind > IntelSharing {
		return fmt.Errorf("unknown diplomacy kind %d", int(kind))
	}
	if err := e.requireAction(); err != nil {
		return err
	}
	s := e.state
	if !s.Diplomacy.HotlineActive {
		e.event(CategoryError, "HOTLINE DISCONNECTED")
		return ErrHotlineInactive
	}
	defer func() { s.Phase = PhaseCommand }()

	if kind == Deescalate && len(s.InFlight) > 0 {
		e.event(CategoryError, "⚠ DIPLOMATIC CHANNEL BLOCKED")
		e.eventf(CategoryWarning, "◆ %d nuclear weapons in flight - de-escalation impossible", len(s.InFlight))
		e.event(CategoryInfo, "◆ Moscow refuses to negotiate while under attack")
		return ErrChannelBlocked
	}

	switch kind {
	case Deescalate:
		s.ActionsRemaining--
		if e.rng.Float64() < deescalateChance(s.Diplomacy.Tension) {
			e.addTension(-20)
			s.Diplomacy.Negotiations++
			e.reduceAggression(15)
			e.event(CategorySuccess, "★ DIPLOMATIC SUCCESS: USSR agrees to mutual stand-down")
			e.event(CategoryInfo, "◆ Tension reduced. Both sides pulling back forces.")
			if s.Defcon < 5 && s.Diplomacy.Tension < 30 {
				s.Defcon++
				e.eventf(CategoryInfo, "◆ DEFCON lowered to %d", s.Defcon)
			}
		} else {
			e.addTension(5)
			e.event(CategoryWarning, "◆ DIPLOMATIC FAILURE: USSR rejects proposal")
			e.event(CategoryInfo, "◆ Kremlin views offer as sign of weakness")
		}
	case Warning:
		s.ActionsRemaining--
		e.addTension(15)
		s.Diplomacy.Warnings++
		e.reduceAggression(10)
		e.event(CategoryWarning, "★ WARNING TRANSMITTED TO MOSCOW")
		e.event(CategoryInfo, "◆ \"Any attack will be met with overwhelming response\"")
		e.event(CategoryInfo, "◆ USSR first-strike probability reduced")
	case IntelSharing:
		s.ActionsRemaining--
		if e.rng.Float64() < 0.5 {
			e.addTension(-30)
			e.event(CategorySuccess, "★ INTELLIGENCE SHARING SUCCESSFUL")
			e.event(CategoryInfo, "◆ USSR acknowledges radar false alarm on their end")
			e.event(CategoryInfo, "◆ Both sides agree situation was misunderstanding")
		} else {
			e.addTension(10)
			s.Intel.Accuracy = max(0.3, s.Intel.Accuracy-0.2)
			e.event(CategoryAlert, "⚠ INTELLIGENCE COMPROMISED")
			e.event(CategoryWarning, "◆ USSR may have gained insight into our capabilities")
		}
	}
	return nil
}

func deescalateChance(tension int) float64 {
	switch {
	case tension > 70:
		return 0.15
	case tension > 40:
		return 0.4
	default:
		return 0.7
	}
}

package game

import "math"

// resolveFlights advances every weapon one week and resolves arrivals.
// Resolved weapons are removed after the full pass.
func (e *Engine) resolveFlights() {
	s := e.state
	resolved := make(map[int]bool)

	for i := range s.InFlight {
		w := &s.InFlight[i]
		w.TurnsToImpact--
		if w.TurnsToImpact > 0 {
			continue
		}
		result := e.resolve(w)
		resolved[i] = true
		e.observer.WeaponResolved(*w, result)
	}

	if len(resolved) == 0 {
		return
	}
	kept := s.InFlight[:0]
	for i, w := range s.InFlight {
		if !resolved[i] {
			kept = append(kept, w)
		}
	}
	s.InFlight = kept
}

func (e *Engine) resolve(w *Weapon) FlightResult {
	s := e.state
	attacker := w.Side
	defender := attacker.Opponent()
	var result FlightResult

	if s.Arsenals[defender].Interceptors > 0 {
		chance := w.Kind.interceptChance()
		if attacker == USA && s.Intel.DefensesRevealed {
			chance -= 0.15
			if !w.EvasionLogged {
				e.event(CategoryIntel, "◆ INTEL ADVANTAGE: Evading known ABM positions")
				w.EvasionLogged = true
			}
		}
		if e.rng.Float64() < chance {
			s.Arsenals[defender].Interceptors--
			s.Stats[defender].Intercepted++
			e.eventf(CategoryInfo, "✓ %s INTERCEPTED over %s", w.Kind, w.Target)
			result.Intercepted = true
			return result
		}
	}

	key := w.TargetKey
	if attacker == USA {
		key, _ = e.theater.RegionFor(w.Target)
	}
	region, ok := s.Region(key)
	if !ok {
		e.eventf(CategoryError, "◆ TARGETING ERROR: %s - missile lost", w.Target)
		e.log.Warn("unmapped target", "target", w.Target, "side", attacker)
		result.TargetingLost = true
		return result
	}
	result.RegionKey = region.Key

	silosKnown := attacker == USA && s.Intel.SilosRevealed
	damage := w.Kind.damage()
	if silosKnown {
		damage += 0.10
		e.event(CategoryIntel, "◆ PRECISION STRIKE: Satellite targeting data applied")
	}
	region.Damage = math.Min(1, region.Damage+damage)
	result.Damage = damage

	siloChance := 0.4
	if silosKnown {
		siloChance = 0.65
	}
	if w.Kind == Bomber {
		siloChance += 0.20
		e.event(CategoryIntel, "◆ PRECISION STRIKE: B-52 targeting military installations")
	}
	if region.Silos > 0 && e.rng.Float64() < siloChance {
		region.Silos--
		result.SiloDestroyed = true
		lost := 2
		if attacker == USA && s.Intel.SilosRevealed {
			lost = 3
		}
		icbms := &s.Arsenals[defender].ICBMs
		result.ICBMsLost = min(*icbms, lost)
		*icbms -= result.ICBMsLost
		if attacker == USA {
			e.eventf(CategoryIntel, "◆ SILO DESTROYED: %d USSR ICBMs eliminated", lost)
		}
	}

	casualties := int(math.Floor(region.Population * damage))
	s.Stats[attacker].Hits++
	s.Stats[defender].Casualties += casualties
	result.Casualties = casualties
	e.eventf(CategoryImpact, "✘ %s IMPACT → %s (%dM casualties)", w.Kind, w.Target, casualties)
	return result
}

package game

import "sort"

const aiActionsPerTurn = 2

// SelectAIState picks the Soviet posture. Desperation overrides everything
// once summed USSR region damage exceeds 1.0.
func SelectAIState(s *State) AIState {
	damage := 0.0
	for _, r := range s.Regions {
		if r.Side == USSR {
			damage += r.Damage
		}
	}
	switch {
	case damage > 1.0:
		return AIDesperate
	case s.AIAggression > 80 || s.Defcon <= 1:
		return AIAggressive
	case s.AIAggression > 40 || s.InFlightCount(USA) > 0:
		return AIRetaliation
	case s.AIAggression > 15:
		return AIDefensive
	default:
		return AIPeaceful
	}
}

// aiTargets returns USA region keys, least damaged first.
func aiTargets(s *State) []string {
	regions := s.RegionsOf(USA)
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Damage < regions[j].Damage
	})
	keys := make([]string, len(regions))
	for i, r := range regions {
		keys[i] = r.Key
	}
	return keys
}

func (e *Engine) runAI() {
	s := e.state
	s.AIState = SelectAIState(s)
	e.eventf(CategoryIntel, "◆ INTEL: %s", s.AIState.intelMessage())

	targets := aiTargets(s)
	budget := aiActionsPerTurn
	ai := &s.Arsenals[USSR]
	fire := func(kind WeaponKind, idx int) {
		if idx < len(targets) {
			e.launchSoviet(kind, targets[idx])
			budget--
		}
	}

	switch s.AIState {
	case AIPeaceful:
	case AIDefensive:
		if e.rng.Float64() < 0.15 && ai.Bombers > 0 && budget > 0 {
			fire(Bomber, 0)
		}
	case AIRetaliation:
		incoming := s.InFlightCount(USA)
		if incoming > 0 && ai.ICBMs > 0 && budget > 0 {
			fire(ICBM, 0)
		}
		if incoming > 1 && ai.SLBMs > 0 && budget > 0 {
			fire(SLBM, 1)
		}
	case AIAggressive:
		if ai.ICBMs > 0 && budget > 0 {
			fire(ICBM, 0)
		}
		if e.rng.Float64() < 0.6 && ai.SLBMs > 0 && budget > 0 {
			fire(SLBM, 1)
		}
	case AIDesperate:
		if ai.ICBMs > 0 && budget > 0 {
			fire(ICBM, 0)
		}
		if ai.ICBMs > 0 && budget > 0 {
			fire(ICBM, 1)
		}
	}
}

// launchSoviet fires one Soviet weapon at a USA region. Each launch moves
// DEFCON one step closer to war.
func (e *Engine) launchSoviet(kind WeaponKind, regionKey string) {
	s := e.state
	region, ok := s.Region(regionKey)
	if !ok {
		return
	}
	stock := s.Arsenals[USSR].count(kind)
	if *stock <= 0 {
		return
	}
	*stock--

	w := e.newWeapon(USSR, kind, region.Name, regionKey)
	s.Stats[USSR].Launched++
	switch kind {
	case Bomber:
		e.eventf(CategoryAlert, "⚠ USSR BOMBER SQUADRON LAUNCHED → %s (ETA: %d weeks)", w.Target, w.TotalTransit)
	default:
		e.eventf(CategoryAlert, "⚠ USSR %s LAUNCH DETECTED → %s (ETA: %d weeks)", kind, w.Target, w.TotalTransit)
	}
	if s.Defcon > 1 {
		s.Defcon--
	}
	e.log.Debug("weapon launched", "side", USSR, "kind", kind, "target", regionKey)
}

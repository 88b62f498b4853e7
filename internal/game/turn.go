package game

// EndTurn closes the current week: inaction pressure, tension creep,
// production, the Soviet move, flight resolution and the victory check run
// in that order. When the game ends the week counter is not advanced.
func (e *Engine) EndTurn() error {
	if err := e.started(); err != nil {
		return err
	}
	s := e.state
	s.Phase = PhaseResolution
	e.eventf(CategoryInfo, "────────── WEEK %d ENDS ──────────", s.Turn)

	e.trackInaction()
	s.LaunchesThisTurn = 0

	if n := len(s.InFlight); n > 0 {
		e.addTension(5 * n)
		e.eventf(CategoryAlert, "⚠ GLOBAL TENSION RISING: %d nuclear weapons in transit", n)
	}

	e.produce()
	e.runAI()
	e.resolveFlights()

	if e.checkVictory() {
		return nil
	}

	s.Turn++
	s.ActionsRemaining = s.MaxActions
	s.Phase = PhaseCommand
	e.eventf(CategoryInfo, "────────── WEEK %d (%s) ──────────", s.Turn, FormatDate(e.Date()))

	incoming := 0
	for _, w := range s.InFlight {
		if w.Side == USSR && w.TurnsToImpact == 1 {
			incoming++
		}
	}
	if incoming > 0 {
		e.eventf(CategoryAlert, "⚠ %d ENEMY MISSILE(S) ARRIVING THIS WEEK!", incoming)
	}

	e.log.Debug("turn advanced", "turn", s.Turn, "defcon", s.Defcon, "tension", s.Diplomacy.Tension, "aiState", s.AIState)
	e.observer.TurnEnded(s)
	return nil
}

// trackInaction builds Soviet aggression while the USA holds fire. Pressure
// starts at five quiet weeks, every third week, and turns into first strike
// preparation at ten.
func (e *Engine) trackInaction() {
	s := e.state
	if s.LaunchesThisTurn > 0 {
		s.InactionTurns = 0
		return
	}
	s.InactionTurns++
	if s.InactionTurns >= 5 && s.InactionTurns%3 == 0 {
		s.AIAggression += 10
		e.eventf(CategoryWarning, "◆ INTEL: USSR military posture hardening (%d weeks of standoff)", s.InactionTurns)
	}
	if s.InactionTurns >= 10 {
		s.AIAggression += 20
		e.event(CategoryAlert, "⚠ USSR FIRST STRIKE PREPARATIONS DETECTED")
	}
}

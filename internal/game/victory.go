package game

// Terminal result texts.
const (
	TextMutualDestruction = "MUTUAL ASSURED DESTRUCTION"
	TextUSADefeat         = "UNITED STATES STRATEGIC DEFEAT"
	TextUSSRDefeat        = "SOVIET UNION STRATEGIC DEFEAT"
	TextDeterrence        = "PEACE THROUGH DETERRENCE"
)

// DeterrenceTurn is the first week a quiet standoff can end the game.
const DeterrenceTurn = 20

// EvaluateVictory checks the terminal conditions in priority order.
func EvaluateVictory(s *State) (Outcome, string) {
	usaPop, ussrPop := s.Population(USA), s.Population(USSR)
	switch {
	case usaPop < 20 && ussrPop < 20:
		return OutcomeDraw, TextMutualDestruction
	case usaPop < 10 || s.CommandNodes(USA) == 0:
		return OutcomeLoss, TextUSADefeat
	case ussrPop < 10 || s.CommandNodes(USSR) == 0:
		return OutcomeWin, TextUSSRDefeat
	case s.Turn >= DeterrenceTurn && s.Defcon >= 4 && len(s.InFlight) == 0:
		return OutcomeWin, TextDeterrence
	}
	return OutcomeNone, ""
}

func (e *Engine) checkVictory() bool {
	s := e.state
	outcome, text := EvaluateVictory(s)
	if outcome == OutcomeNone {
		return false
	}
	s.GameActive = false
	s.Outcome = outcome
	s.OutcomeText = text
	e.eventf(CategoryAlert, "═══ GAME OVER: %s ═══", text)
	e.eventf(CategoryInfo, "US casualties: %.1fM | USSR casualties: %.1fM", s.Casualties(USA), s.Casualties(USSR))
	e.eventf(CategoryInfo, "Weapons launched: USA %d | USSR %d", s.Stats[USA].Launched, s.Stats[USSR].Launched)
	e.log.Info("game over", "outcome", outcome, "result", text, "turn", s.Turn)
	e.observer.GameEnded(s)
	return true
}

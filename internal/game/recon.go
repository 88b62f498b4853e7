package game

import (
	"fmt"
	"math"
)

const reconSuccess = 0.8

// Recon runs an intelligence operation. It costs one order whatever the
// result.
func (e *Engine) Recon(kind ReconKind) error {
	if err := e.started(); err != nil {
		return err
	}
	if kind < ReconSilos || kind > ReconFirstStrike {
		return fmt.Errorf("unknown recon kind %d", int(kind))
	}
	if err := e.requireAction(); err != nil {
		return err
	}
	s := e.state
	s.ActionsRemaining--
	s.Intel.LastScanTurn = s.Turn
	s.Intel.Accuracy = math.Min(1, s.Intel.Accuracy+0.1)
	defer func() { s.Phase = PhaseCommand }()

	ussr := s.Arsenals[USSR]
	switch kind {
	case ReconSilos:
		if e.rng.Float64() < reconSuccess || s.Intel.SilosRevealed {
			s.Intel.SilosRevealed = true
			e.eventf(CategoryIntel, "◆ SATELLITE RECON: %d ICBM silos located across USSR", ussr.ICBMs)
			e.event(CategoryIntel, "◆ Primary concentrations: Ural Mountains, Siberia")
			e.event(CategorySuccess, "★ TACTICAL ADVANTAGE: +10% damage, +25% silo destruction chance")
		} else {
			e.event(CategoryInfo, "◆ RECON INCONCLUSIVE: Cloud cover obscured imagery")
		}
	case ReconSubs:
		if e.rng.Float64() < reconSuccess || s.Intel.SubsRevealed {
			s.Intel.SubsRevealed = true
			e.eventf(CategoryIntel, "◆ SONAR SWEEP: %d SLBM submarines detected", ussr.SLBMs)
			e.event(CategoryIntel, "◆ Patrol zones: Arctic Ocean, North Atlantic")
			e.event(CategorySuccess, "★ TACTICAL ADVANTAGE: Enemy sub positions now tracked")
		} else {
			e.event(CategoryInfo, "◆ SONAR INCONCLUSIVE: Thermal layers interfering")
		}
	case ReconDefenses:
		if e.rng.Float64() < reconSuccess || s.Intel.DefensesRevealed {
			s.Intel.DefensesRevealed = true
			e.eventf(CategoryIntel, "◆ SIGINT ANALYSIS: %d ABM interceptors identified", ussr.Interceptors)
			e.event(CategoryIntel, "◆ Moscow ABM ring: ACTIVE | Galosh system: OPERATIONAL")
			e.event(CategorySuccess, "★ TACTICAL ADVANTAGE: -15% interception rate against our missiles")
		} else {
			e.event(CategoryInfo, "◆ SIGINT INCONCLUSIVE: Encryption not broken")
		}
	case ReconFirstStrike:
		e.assessFirstStrike()
	}
	return nil
}

// FirstStrikeRisk scores the likelihood of a Soviet first strike. Any Soviet
// weapon in flight forces the maximum.
func FirstStrikeRisk(s *State) float64 {
	if s.InFlightCount(USSR) > 0 {
		return 100
	}
	t := float64(s.Diplomacy.Tension)
	return 0.5*float64(s.AIAggression) + 0.3*t - 0.2*(100-t) + 10*float64(5-s.Defcon)
}

// PredictionFor buckets a risk score.
func PredictionFor(risk float64) Prediction {
	switch {
	case risk >= 80:
		return PredictionImminent
	case risk >= 50:
		return PredictionHigh
	case risk >= 25:
		return PredictionMedium
	default:
		return PredictionLow
	}
}

func (e *Engine) assessFirstStrike() {
	s := e.state
	risk := FirstStrikeRisk(s)
	s.Intel.FirstStrike = PredictionFor(risk)

	switch s.Intel.FirstStrike {
	case PredictionImminent:
		e.event(CategoryAlert, "⚠ CRITICAL: FIRST STRIKE IMMINENT")
		e.event(CategoryWarning, "◆ USSR forces at maximum readiness")
		e.event(CategoryWarning, "◆ Multiple ICBM silos showing launch preparation")
	case PredictionHigh:
		e.event(CategoryWarning, "⚠ WARNING: HIGH FIRST STRIKE PROBABILITY")
		e.event(CategoryIntel, "◆ Soviet bomber squadrons on runway alert")
		e.event(CategoryIntel, "◆ Submarine activity increased in Atlantic")
	case PredictionMedium:
		e.event(CategoryIntel, "◆ ASSESSMENT: MODERATE FIRST STRIKE RISK")
		e.event(CategoryIntel, "◆ Soviet forces at elevated readiness")
	default:
		e.event(CategorySuccess, "★ ASSESSMENT: LOW FIRST STRIKE PROBABILITY")
		e.event(CategoryIntel, "◆ No unusual Soviet military activity detected")
	}
	e.eventf(CategoryInfo, "◆ AI Aggression Index: %d | Risk Score: %d", s.AIAggression, int(math.Floor(risk)))
}

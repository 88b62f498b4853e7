package game

import "fmt"

// Side identifies one of the two superpowers.
type Side int

const (
	USA Side = iota
	USSR
)

// Sides lists both sides in index order.
var Sides = [2]Side{USA, USSR}

func (s Side) String() string {
	switch s {
	case USA:
		return "USA"
	case USSR:
		return "USSR"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == USA {
		return USSR
	}
	return USA
}

// Phase is the current input mode of the command console.
type Phase int

const (
	PhaseCommand Phase = iota
	PhaseLaunch
	PhaseRecon
	PhaseDiplomacy
	PhaseBuild
	PhaseStatus
	PhaseResolution
)

var phaseNames = [...]string{"command", "launch", "recon", "diplomacy", "build", "status", "resolution"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// WeaponKind is a delivery system.
type WeaponKind int

const (
	ICBM WeaponKind = iota
	SLBM
	Bomber
)

func (k WeaponKind) String() string {
	switch k {
	case ICBM:
		return "ICBM"
	case SLBM:
		return "SLBM"
	case Bomber:
		return "BOMBER"
	default:
		return fmt.Sprintf("WeaponKind(%d)", int(k))
	}
}

// Transit returns the flight time in weeks.
func (k WeaponKind) Transit() int {
	if k == Bomber {
		return 3
	}
	return 2
}

func (k WeaponKind) interceptChance() float64 {
	switch k {
	case ICBM:
		return 0.65
	case SLBM:
		return 0.50
	case Bomber:
		return 0.35
	default:
		return 0.60
	}
}

func (k WeaponKind) damage() float64 {
	switch k {
	case ICBM:
		return 0.25
	case SLBM:
		return 0.20
	case Bomber:
		return 0.30
	default:
		return 0.20
	}
}

// ReconKind selects an intelligence operation.
type ReconKind int

const (
	ReconSilos ReconKind = iota
	ReconSubs
	ReconDefenses
	ReconFirstStrike
)

func (k ReconKind) String() string {
	switch k {
	case ReconSilos:
		return "silos"
	case ReconSubs:
		return "subs"
	case ReconDefenses:
		return "defenses"
	case ReconFirstStrike:
		return "firstStrike"
	default:
		return fmt.Sprintf("ReconKind(%d)", int(k))
	}
}

// DiplomacyKind selects a hotline action.
type DiplomacyKind int

const (
	Deescalate DiplomacyKind = iota
	Warning
	IntelSharing
)

func (k DiplomacyKind) String() string {
	switch k {
	case Deescalate:
		return "deescalate"
	case Warning:
		return "warning"
	case IntelSharing:
		return "intelligence"
	default:
		return fmt.Sprintf("DiplomacyKind(%d)", int(k))
	}
}

// BuildKind selects a rush production order.
type BuildKind int

const (
	BuildICBM BuildKind = iota
	BuildInterceptor
	BuildBomber
)

func (k BuildKind) String() string {
	switch k {
	case BuildICBM:
		return "icbm"
	case BuildInterceptor:
		return "interceptor"
	case BuildBomber:
		return "bomber"
	default:
		return fmt.Sprintf("BuildKind(%d)", int(k))
	}
}

// AIState is the posture of the Soviet opponent.
type AIState int

const (
	AIPeaceful AIState = iota
	AIDefensive
	AIRetaliation
	AIAggressive
	AIDesperate
)

var aiStateNames = [...]string{"peaceful", "defensive", "retaliation", "aggressive", "desperate"}

func (s AIState) String() string {
	if s < 0 || int(s) >= len(aiStateNames) {
		return fmt.Sprintf("AIState(%d)", int(s))
	}
	return aiStateNames[s]
}

func (s AIState) intelMessage() string {
	switch s {
	case AIPeaceful:
		return "USSR forces at standard readiness"
	case AIDefensive:
		return "USSR forces on heightened alert"
	case AIRetaliation:
		return "USSR preparing retaliatory strike"
	case AIAggressive:
		return "USSR initiating offensive operations"
	case AIDesperate:
		return "USSR launching full nuclear response"
	}
	return ""
}

// Prediction is the first-strike assessment bucket. The zero value means no
// assessment has been made.
type Prediction int

const (
	PredictionUnknown Prediction = iota
	PredictionLow
	PredictionMedium
	PredictionHigh
	PredictionImminent
)

var predictionNames = [...]string{"unknown", "low", "medium", "high", "imminent"}

func (p Prediction) String() string {
	if p < 0 || int(p) >= len(predictionNames) {
		return fmt.Sprintf("Prediction(%d)", int(p))
	}
	return predictionNames[p]
}

// Outcome is the result of a finished game, seen from the USA.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeDraw
	OutcomeLoss
	OutcomeWin
)

var outcomeNames = [...]string{"none", "draw", "loss", "win"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

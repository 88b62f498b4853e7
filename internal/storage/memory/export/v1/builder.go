package v1

import (
	"time"

	"github.com/wopr-sim/wopr/pkg/core"
)

// Input is everything the builder needs from a recording.
type Input struct {
	Game     core.Game
	Result   *core.Result
	Events   []core.EventRecord
	Launches []core.LaunchRecord
	Flights  []core.FlightRecord
	Turns    []core.TurnRecord
}

// Build assembles the v1 export. Slices are never nil so they encode as [].
func Build(in Input) Export {
	out := Export{
		Version:   FormatVersion,
		GameID:    in.Game.ID.String(),
		Seed:      in.Game.Seed,
		StartDate: in.Game.StartDate.Format("2006-01-02"),
		StartedAt: in.Game.StartedAt.UTC().Format(time.RFC3339),
		Events:    make([][]any, 0, len(in.Events)),
		Launches:  make([]Launch, 0, len(in.Launches)),
		Flights:   make([]Flight, 0, len(in.Flights)),
		Turns:     make([]Turn, 0, len(in.Turns)),
	}
	if in.Result != nil {
		out.Outcome = in.Result.Outcome
		out.OutcomeText = in.Result.Text
		out.FinalTurn = in.Result.FinalTurn
	}

	for _, e := range in.Events {
		out.Events = append(out.Events, []any{e.Seq, e.Turn, e.Category, e.Message})
	}

	for _, l := range in.Launches {
		out.Launches = append(out.Launches, Launch{
			WeaponID:   l.WeaponID,
			Side:       l.Side,
			Kind:       l.Kind,
			Target:     l.Target,
			LaunchTurn: l.LaunchTurn,
			Transit:    l.Transit,
			Trajectory: l.Trajectory,
		})
	}

	for _, f := range in.Flights {
		out.Flights = append(out.Flights, Flight{
			WeaponID:   f.WeaponID,
			Turn:       f.Turn,
			Result:     flightResult(f),
			RegionKey:  f.RegionKey,
			Damage:     f.Damage,
			Casualties: f.Casualties,
		})
	}

	for _, t := range in.Turns {
		turn := Turn{
			Turn:    t.Turn,
			Defcon:  t.Defcon,
			Tension: t.Tension,
			AIState: t.AIState,
			Pop:     make([]float64, 0, len(t.Sides)),
			Arsenal: make([][]int, 0, len(t.Sides)),
		}
		for _, s := range t.Sides {
			turn.Pop = append(turn.Pop, s.Population)
			turn.Arsenal = append(turn.Arsenal, []int{s.ICBMs, s.SLBMs, s.Bombers, s.Interceptors})
		}
		out.Turns = append(out.Turns, turn)
	}

	return out
}

func flightResult(f core.FlightRecord) string {
	switch {
	case f.Intercepted:
		return "intercepted"
	case f.TargetingLost:
		return "lost"
	default:
		return "impact"
	}
}

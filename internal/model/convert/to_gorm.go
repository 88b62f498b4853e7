// Package convert turns recorder records into GORM models.
package convert

import (
	"encoding/json"

	"github.com/wopr-sim/wopr/internal/model"
	"github.com/wopr-sim/wopr/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// wktToLineString parses a WKT LineString. Empty or malformed input
// yields an empty geometry.
func wktToLineString(wkt string) geom.LineString {
	if wkt == "" {
		return geom.LineString{}
	}
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		return geom.LineString{}
	}
	ls, ok := g.AsLineString()
	if !ok {
		return geom.LineString{}
	}
	return ls
}

// toJSON marshals v, defaulting to an empty array.
func toJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// CoreToGame converts a core.Game to a GORM model.Game.
func CoreToGame(g core.Game) model.Game {
	return model.Game{
		ID:         g.ID,
		Seed:       g.Seed,
		MaxActions: g.MaxActions,
		StartDate:  g.StartDate,
		StartedAt:  g.StartedAt,
	}
}

// ResultUpdates returns the column updates that close a game row.
func ResultUpdates(r core.Result) map[string]any {
	return map[string]any{
		"ended_at":     r.EndedAt,
		"outcome":      r.Outcome,
		"outcome_text": r.Text,
		"final_turn":   r.FinalTurn,
		"final_defcon": r.Defcon,
		"usa_pop":      r.USAPop,
		"ussr_pop":     r.USSRPop,
		"total_events": r.TotalEvents,
	}
}

// CoreToEvent converts a core.EventRecord to a GORM model.GameEvent.
func CoreToEvent(e core.EventRecord) model.GameEvent {
	return model.GameEvent{
		GameID:   e.GameID,
		Seq:      e.Seq,
		Turn:     e.Turn,
		Category: e.Category,
		Message:  e.Message,
		Time:     e.Time,
	}
}

// CoreToLaunch converts a core.LaunchRecord to a GORM model.Launch.
func CoreToLaunch(l core.LaunchRecord) model.Launch {
	return model.Launch{
		GameID:     l.GameID,
		WeaponID:   l.WeaponID,
		Side:       l.Side,
		Kind:       l.Kind,
		Target:     l.Target,
		TargetKey:  l.TargetKey,
		LaunchTurn: l.LaunchTurn,
		Transit:    l.Transit,
		Path:       wktToLineString(l.Trajectory),
	}
}

// CoreToFlight converts a core.FlightRecord to a GORM model.Flight.
func CoreToFlight(f core.FlightRecord) model.Flight {
	return model.Flight{
		GameID:        f.GameID,
		WeaponID:      f.WeaponID,
		Side:          f.Side,
		Kind:          f.Kind,
		Target:        f.Target,
		RegionKey:     f.RegionKey,
		Turn:          f.Turn,
		Intercepted:   f.Intercepted,
		TargetingLost: f.TargetingLost,
		Damage:        f.Damage,
		SiloDestroyed: f.SiloDestroyed,
		ICBMsLost:     f.ICBMsLost,
		Casualties:    f.Casualties,
	}
}

// CoreToTurn converts a core.TurnRecord to a GORM model.TurnSnapshot.
func CoreToTurn(t core.TurnRecord) model.TurnSnapshot {
	return model.TurnSnapshot{
		GameID:       t.GameID,
		Turn:         t.Turn,
		Defcon:       t.Defcon,
		Tension:      t.Tension,
		AIState:      t.AIState,
		AIAggression: t.AIAggression,
		Inaction:     t.Inaction,
		Sides:        toJSON(t.Sides),
		Regions:      toJSON(t.Regions),
	}
}

// pkg/core/turn.go
package core

import "github.com/google/uuid"

// SideSnapshot is one side's forces and losses at the end of a week.
type SideSnapshot struct {
	Side         string  `json:"side"`
	ICBMs        int     `json:"icbms"`
	SLBMs        int     `json:"slbms"`
	Bombers      int     `json:"bombers"`
	Interceptors int     `json:"interceptors"`
	Satellites   int     `json:"satellites"`
	InFlight     int     `json:"inFlight"`
	Population   float64 `json:"population"`
	Casualties   float64 `json:"casualties"`
	Industry     float64 `json:"industry"`
	CommandNodes int     `json:"commandNodes"`
	Launched     int     `json:"launched"`
	Intercepted  int     `json:"intercepted"`
	Hits         int     `json:"hits"`
}

// RegionSnapshot is a region's damage at the end of a week.
type RegionSnapshot struct {
	Key    string  `json:"key"`
	Side   string  `json:"side"`
	Damage float64 `json:"damage"`
	Silos  int     `json:"silos"`
	Subs   int     `json:"subs"`
}

// TurnRecord is the state at the end of a week.
type TurnRecord struct {
	GameID       uuid.UUID        `json:"gameId"`
	Turn         int              `json:"turn"`
	Defcon       int              `json:"defcon"`
	Tension      int              `json:"tension"`
	AIState      string           `json:"aiState"`
	AIAggression int              `json:"aiAggression"`
	Inaction     int              `json:"inaction"`
	Sides        []SideSnapshot   `json:"sides"`
	Regions      []RegionSnapshot `json:"regions"`
}

// Package v1 contains the v1 export format for recorded games.
package v1

// FormatVersion is written into every export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format.
type Export struct {
	Version     int      `json:"version"`
	GameID      string   `json:"gameId"`
	Seed        int64    `json:"seed"`
	StartDate   string   `json:"startDate"`
	StartedAt   string   `json:"startedAt"`
	Outcome     string   `json:"outcome"`
	OutcomeText string   `json:"outcomeText"`
	FinalTurn   int      `json:"finalTurn"`
	Events      [][]any  `json:"events"` // [seq, turn, category, message]
	Launches    []Launch `json:"launches"`
	Flights     []Flight `json:"flights"`
	Turns       []Turn   `json:"turns"`
}

// Launch is a weapon entering flight.
type Launch struct {
	WeaponID   int    `json:"weaponId"`
	Side       string `json:"side"`
	Kind       string `json:"kind"`
	Target     string `json:"target"`
	LaunchTurn int    `json:"launchTurn"`
	Transit    int    `json:"transit"`
	Trajectory string `json:"trajectory,omitempty"`
}

// Flight is a weapon leaving flight. Result is "intercepted",
// "lost" or "impact".
type Flight struct {
	WeaponID   int     `json:"weaponId"`
	Turn       int     `json:"turn"`
	Result     string  `json:"result"`
	RegionKey  string  `json:"regionKey,omitempty"`
	Damage     float64 `json:"damage,omitempty"`
	Casualties int     `json:"casualties,omitempty"`
}

// Turn is the compact end-of-week state.
type Turn struct {
	Turn    int       `json:"turn"`
	Defcon  int       `json:"defcon"`
	Tension int       `json:"tension"`
	AIState string    `json:"aiState"`
	Pop     []float64 `json:"pop"`     // [USA, USSR] surviving population
	Arsenal [][]int   `json:"arsenal"` // per side: [icbms, slbms, bombers, interceptors]
}

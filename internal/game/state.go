package game

import "time"

// Region keys of the six fixed theaters.
const (
	RegionUSAWest     = "usa_west"
	RegionUSACentral  = "usa_central"
	RegionUSAEast     = "usa_east"
	RegionUSSRWest    = "ussr_west"
	RegionUSSRCentral = "ussr_central"
	RegionUSSREast    = "ussr_east"
)

// Arsenal counts the deliverable forces of one side. Fuel is carried for
// display only.
type Arsenal struct {
	ICBMs        int `json:"icbms"`
	SLBMs        int `json:"slbms"`
	Bombers      int `json:"bombers"`
	Interceptors int `json:"interceptors"`
	Satellites   int `json:"satellites"`
	Fuel         int `json:"fuel"`
}

func (a *Arsenal) count(k WeaponKind) *int {
	switch k {
	case ICBM:
		return &a.ICBMs
	case SLBM:
		return &a.SLBMs
	case Bomber:
		return &a.Bombers
	}
	return nil
}

// Region is one of the six theaters of war.
type Region struct {
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	ShortName  string  `json:"shortName"`
	Side       Side    `json:"side"`
	Population float64 `json:"population"`
	Industry   float64 `json:"industry"`
	Silos      int     `json:"silos"`
	Subs       int     `json:"subs"`
	Radar      bool    `json:"radar"`
	Command    bool    `json:"command"`
	Damage     float64 `json:"damage"`
}

// Surviving returns the population left after damage.
func (r Region) Surviving() float64 {
	return max(0, r.Population*(1-r.Damage))
}

// SiloCapacity limits how many launches a side can make per turn.
type SiloCapacity struct {
	Total           int `json:"total"`
	Active          int `json:"active"`
	LaunchesPerTurn int `json:"launchesPerTurn"`
}

// IntelState tracks what the USA knows about Soviet forces.
type IntelState struct {
	SilosRevealed    bool       `json:"silosRevealed"`
	SubsRevealed     bool       `json:"subsRevealed"`
	DefensesRevealed bool       `json:"defensesRevealed"`
	FirstStrike      Prediction `json:"firstStrike"`
	LastScanTurn     int        `json:"lastScanTurn"`
	Accuracy         float64    `json:"accuracy"`
}

// DiplomacyState tracks the hotline.
type DiplomacyState struct {
	Tension       int  `json:"tension"`
	Negotiations  int  `json:"negotiations"`
	Warnings      int  `json:"warnings"`
	HotlineActive bool `json:"hotlineActive"`
}

// ProductionState gates automatic ICBM production.
type ProductionState struct {
	Rate      int `json:"rate"`
	LastBuild int `json:"lastBuild"`
}

// Stats are monotonically increasing per-side counters.
type Stats struct {
	Launched    int `json:"launched"`
	Intercepted int `json:"intercepted"`
	Hits        int `json:"hits"`
	Casualties  int `json:"casualties"`
}

// Weapon is a missile or bomber in flight. USA weapons target a city by
// display name; USSR weapons target a region key.
type Weapon struct {
	ID            int        `json:"id"`
	Side          Side       `json:"side"`
	Kind          WeaponKind `json:"kind"`
	Target        string     `json:"target"`
	TargetKey     string     `json:"targetKey"`
	TurnsToImpact int        `json:"turnsToImpact"`
	TotalTransit  int        `json:"totalTransit"`
	LaunchTurn    int        `json:"launchTurn"`
	EvasionLogged bool       `json:"evasionLogged"`
}

// Progress returns the completed fraction of the flight in [0,1].
func (w Weapon) Progress() float64 {
	if w.TotalTransit <= 0 {
		return 1
	}
	p := float64(w.TotalTransit-w.TurnsToImpact) / float64(w.TotalTransit)
	return min(1, max(0, p))
}

// State is the complete simulation state of one playthrough.
type State struct {
	GameActive       bool    `json:"gameActive"`
	Turn             int     `json:"turn"`
	Phase            Phase   `json:"phase"`
	Defcon           int     `json:"defcon"`
	ActionsRemaining int     `json:"actionsRemaining"`
	MaxActions       int     `json:"maxActions"`
	LaunchesThisTurn int     `json:"launchesThisTurn"`
	InactionTurns    int     `json:"inactionTurns"`
	Outcome          Outcome `json:"outcome"`
	OutcomeText      string  `json:"outcomeText"`

	Arsenals     [2]Arsenal         `json:"arsenals"`
	SiloCapacity [2]SiloCapacity    `json:"siloCapacity"`
	Production   [2]ProductionState `json:"production"`
	Stats        [2]Stats           `json:"stats"`
	Regions      []Region           `json:"regions"`
	Intel        IntelState         `json:"intel"`
	Diplomacy    DiplomacyState     `json:"diplomacy"`
	InFlight     []Weapon           `json:"inFlight"`

	AIState      AIState `json:"aiState"`
	AIAggression int     `json:"aiAggression"`

	StartDate time.Time `json:"startDate"`
	Events    []Event   `json:"events"`

	nextWeaponID int
}

func newState(maxActions int, start time.Time) *State {
	return &State{
		GameActive:       true,
		Phase:            PhaseCommand,
		Defcon:           5,
		ActionsRemaining: maxActions,
		MaxActions:       maxActions,
		Arsenals: [2]Arsenal{
			USA:  {ICBMs: 24, SLBMs: 12, Bombers: 16, Interceptors: 20, Satellites: 3, Fuel: 100},
			USSR: {ICBMs: 28, SLBMs: 10, Bombers: 14, Interceptors: 18, Satellites: 2, Fuel: 100},
		},
		SiloCapacity: [2]SiloCapacity{
			USA:  {Total: 15, Active: 15, LaunchesPerTurn: 3},
			USSR: {Total: 19, Active: 19, LaunchesPerTurn: 4},
		},
		Production: [2]ProductionState{USA: {Rate: 1}, USSR: {Rate: 1}},
		Regions: []Region{
			{Key: RegionUSAWest, Name: "WEST COAST", ShortName: "LA", Side: USA, Population: 45, Industry: 35, Silos: 2, Subs: 2, Radar: true},
			{Key: RegionUSACentral, Name: "MIDWEST", ShortName: "CHI", Side: USA, Population: 55, Industry: 55, Silos: 4, Radar: true, Command: true},
			{Key: RegionUSAEast, Name: "EAST COAST", ShortName: "NYC", Side: USA, Population: 90, Industry: 65, Silos: 3, Subs: 2, Radar: true, Command: true},
			{Key: RegionUSSRWest, Name: "MOSCOW REGION", ShortName: "MOW", Side: USSR, Population: 70, Industry: 60, Silos: 3, Subs: 1, Radar: true, Command: true},
			{Key: RegionUSSRCentral, Name: "URAL MOUNTAINS", ShortName: "URAL", Side: USSR, Population: 25, Industry: 35, Silos: 5, Radar: true},
			{Key: RegionUSSREast, Name: "FAR EAST", ShortName: "VLA", Side: USSR, Population: 35, Industry: 25, Silos: 2, Subs: 3, Radar: true, Command: true},
		},
		Intel:     IntelState{Accuracy: 0.5},
		Diplomacy: DiplomacyState{Tension: 50, HotlineActive: true},
		AIState:   AIDefensive,
		StartDate: start,
		InFlight:  []Weapon{},
	}
}

// Region returns the region with the given key.
func (s *State) Region(key string) (*Region, bool) {
	for i := range s.Regions {
		if s.Regions[i].Key == key {
			return &s.Regions[i], true
		}
	}
	return nil, false
}

// RegionsOf returns the regions owned by side, in table order.
func (s *State) RegionsOf(side Side) []Region {
	out := make([]Region, 0, 3)
	for _, r := range s.Regions {
		if r.Side == side {
			out = append(out, r)
		}
	}
	return out
}

// InFlightCount returns the number of weapons in flight launched by side.
func (s *State) InFlightCount(side Side) int {
	n := 0
	for _, w := range s.InFlight {
		if w.Side == side {
			n++
		}
	}
	return n
}

// Population returns the surviving population of side.
func (s *State) Population(side Side) float64 {
	total := 0.0
	for _, r := range s.Regions {
		if r.Side == side {
			total += r.Surviving()
		}
	}
	return total
}

// Casualties returns the population lost by side, summed per region.
func (s *State) Casualties(side Side) float64 {
	total := 0.0
	for _, r := range s.Regions {
		if r.Side == side {
			total += r.Population * r.Damage
		}
	}
	return total
}

// CommandNodes counts the command regions of side below 90% damage.
func (s *State) CommandNodes(side Side) int {
	n := 0
	for _, r := range s.Regions {
		if r.Side == side && r.Command && r.Damage < 0.9 {
			n++
		}
	}
	return n
}

// Industry returns the effective industrial capacity of side.
func (s *State) Industry(side Side) float64 {
	total, lost := 0.0, 0.0
	for _, r := range s.Regions {
		if r.Side == side {
			total += r.Industry
			lost += r.Damage * r.Industry
		}
	}
	return max(0, total-lost)
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := *s
	c.Regions = append([]Region(nil), s.Regions...)
	c.InFlight = append([]Weapon{}, s.InFlight...)
	c.Events = append([]Event(nil), s.Events...)
	return &c
}

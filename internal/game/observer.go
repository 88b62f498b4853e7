package game

// FlightResult describes how a weapon left the air.
type FlightResult struct {
	Intercepted   bool    `json:"intercepted"`
	TargetingLost bool    `json:"targetingLost"`
	RegionKey     string  `json:"regionKey"`
	Damage        float64 `json:"damage"`
	SiloDestroyed bool    `json:"siloDestroyed"`
	ICBMsLost     int     `json:"icbmsLost"`
	Casualties    int     `json:"casualties"`
}

// Observer is notified of state changes after they are applied. Callbacks run
// synchronously on the engine's goroutine and must not call back into the
// engine.
type Observer interface {
	GameStarted(s *State)
	EventLogged(e Event)
	WeaponLaunched(w Weapon)
	WeaponResolved(w Weapon, r FlightResult)
	TurnEnded(s *State)
	GameEnded(s *State)
}

// NopObserver ignores all notifications. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) GameStarted(*State) {}
func (NopObserver) EventLogged(Event) {}
func (NopObserver) WeaponLaunched(Weapon) {}
func (NopObserver) WeaponResolved(Weapon, FlightResult) {}
func (NopObserver) TurnEnded(*State) {}
func (NopObserver) GameEnded(*State) {}

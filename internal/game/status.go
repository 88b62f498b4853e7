package game

// ForceReport is one column of the status report. Soviet figures are
// marked Estimated.
type ForceReport struct {
	Side         Side    `json:"side"`
	Population   float64 `json:"population"`
	Casualties   float64 `json:"casualties"`
	CommandNodes int     `json:"commandNodes"`
	Arsenal      Arsenal `json:"arsenal"`
	Estimated    bool    `json:"estimated"`
}

// StatusReport summarizes both sides for the status screen.
type StatusReport struct {
	Turn       int            `json:"turn"`
	Date       string         `json:"date"`
	Defcon     int            `json:"defcon"`
	Tension    int            `json:"tension"`
	Actions    int            `json:"actions"`
	InFlight   int            `json:"inFlight"`
	Prediction Prediction     `json:"prediction"`
	Forces     [2]ForceReport `json:"forces"`
}

// Status opens the status screen and returns its contents.
func (e *Engine) Status() (StatusReport, error) {
	if err := e.started(); err != nil {
		return StatusReport{}, err
	}
	s := e.state
	if s.GameActive {
		s.Phase = PhaseStatus
	}
	r := StatusReport{
		Turn:       s.Turn,
		Date:       FormatDate(e.Date()),
		Defcon:     s.Defcon,
		Tension:    s.Diplomacy.Tension,
		Actions:    s.ActionsRemaining,
		InFlight:   len(s.InFlight),
		Prediction: s.Intel.FirstStrike,
	}
	for _, side := range Sides {
		r.Forces[side] = ForceReport{
			Side:         side,
			Population:   s.Population(side),
			Casualties:   s.Casualties(side),
			CommandNodes: s.CommandNodes(side),
			Arsenal:      s.Arsenals[side],
			Estimated:    side == USSR,
		}
	}
	return r, nil
}

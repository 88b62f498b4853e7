package game

// produce runs automatic ICBM production for both sides. The USA builds on a
// three-week cadence, the USSR on a two-week war footing.
func (e *Engine) produce() {
	s := e.state

	if industry := s.Industry(USA); s.Turn-s.Production[USA].LastBuild >= 3 && industry > 30 {
		n := 1
		if industry > 60 {
			n = 2
		}
		s.Arsenals[USA].ICBMs += n
		s.Production[USA].LastBuild = s.Turn
		e.eventf(CategoryInfo, "◆ US PRODUCTION: +%d ICBM manufactured", n)
	}

	if industry := s.Industry(USSR); s.Turn-s.Production[USSR].LastBuild >= 2 && industry > 20 {
		n := 1
		if industry > 50 {
			n = 2
		}
		s.Arsenals[USSR].ICBMs += n
		s.Production[USSR].LastBuild = s.Turn
		e.eventf(CategoryWarning, "◆ INTEL: USSR produced +%d ICBM this week", n)
	}
}

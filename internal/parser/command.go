package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wopr-sim/wopr/internal/dispatcher"
	"github.com/wopr-sim/wopr/internal/game"
)

// Command names understood by the handlers.
const (
	CmdInit      = ":INIT:"
	CmdAlert     = ":ALERT:"
	CmdMenu      = ":MENU:"
	CmdRecon     = ":RECON:"
	CmdDiplomacy = ":DIPLOMACY:"
	CmdLaunch    = ":LAUNCH:"
	CmdBuild     = ":BUILD:"
	CmdEndTurn   = ":END:TURN:"
	CmdStatus    = ":STATUS:"
	CmdEvents    = ":EVENTS:"
	CmdSave      = ":SAVE:"
)

// ErrEmptyLine is returned by ParseLine for blank input.
var ErrEmptyLine = errors.New("empty command")

// verbs maps terminal words and menu hotkeys to command names.
var verbs = map[string]string{
	"new":       CmdInit,
	"init":      CmdInit,
	"alert":     CmdAlert,
	"e":         CmdAlert,
	"menu":      CmdMenu,
	"recon":     CmdRecon,
	"r":         CmdRecon,
	"diplomacy": CmdDiplomacy,
	"n":         CmdDiplomacy,
	"launch":    CmdLaunch,
	"l":         CmdLaunch,
	"build":     CmdBuild,
	"b":         CmdBuild,
	"end":       CmdEndTurn,
	"endturn":   CmdEndTurn,
	"status":    CmdStatus,
	"s":         CmdStatus,
	"events":    CmdEvents,
	"log":       CmdEvents,
	"save":      CmdSave,
}

// ParseLine turns a terminal line such as "launch icbm B" into a dispatcher
// event. Arguments are upper-cased; the handlers parse them further.
func ParseLine(line string) (dispatcher.Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return dispatcher.Event{}, ErrEmptyLine
	}

	verb := strings.ToLower(fields[0])
	if verb == "end" && len(fields) > 1 && strings.EqualFold(fields[1], "turn") {
		fields = fields[1:]
	}

	cmd, ok := verbs[verb]
	if !ok {
		// Raw dispatcher syntax passes through untouched.
		if strings.HasPrefix(fields[0], ":") && strings.HasSuffix(fields[0], ":") {
			cmd = strings.ToUpper(fields[0])
		} else {
			return dispatcher.Event{}, fmt.Errorf("unknown command %q", fields[0])
		}
	}

	args := make([]string, 0, len(fields)-1)
	for _, f := range fields[1:] {
		args = append(args, strings.ToUpper(f))
	}
	return dispatcher.Event{Command: cmd, Args: args}, nil
}

// parseIntFromFloat parses a string that may be an integer ("3") or a
// whole float ("3.00") into int64.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// ParseWeapon accepts a weapon name or its launch-menu key (1-3).
func ParseWeapon(s string) (game.WeaponKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ICBM", "1":
		return game.ICBM, nil
	case "SLBM", "2":
		return game.SLBM, nil
	case "BOMBER", "BOMBERS", "3":
		return game.Bomber, nil
	}
	return 0, fmt.Errorf("unknown weapon %q", s)
}

// ParseRecon accepts a recon option name or its menu key (1-4).
func ParseRecon(s string) (game.ReconKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SILOS", "1":
		return game.ReconSilos, nil
	case "SUBS", "SUBMARINES", "2":
		return game.ReconSubs, nil
	case "DEFENSES", "DEFENCES", "3":
		return game.ReconDefenses, nil
	case "FIRSTSTRIKE", "FIRST_STRIKE", "STRIKE", "4":
		return game.ReconFirstStrike, nil
	}
	return 0, fmt.Errorf("unknown recon option %q", s)
}

// ParseDiplomacy accepts a diplomacy option name or its menu key (1-3).
func ParseDiplomacy(s string) (game.DiplomacyKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEESCALATE", "1":
		return game.Deescalate, nil
	case "WARNING", "WARN", "2":
		return game.Warning, nil
	case "INTELLIGENCE", "INTEL", "3":
		return game.IntelSharing, nil
	}
	return 0, fmt.Errorf("unknown diplomacy option %q", s)
}

// ParseBuild accepts a production option name or its menu key (1-3).
func ParseBuild(s string) (game.BuildKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ICBM", "1":
		return game.BuildICBM, nil
	case "INTERCEPTOR", "INTERCEPTORS", "2":
		return game.BuildInterceptor, nil
	case "BOMBER", "BOMBERS", "3":
		return game.BuildBomber, nil
	}
	return 0, fmt.Errorf("unknown build option %q", s)
}

// ParsePhase accepts a menu name or its command-view hotkey.
func ParsePhase(s string) (game.Phase, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COMMAND", "X", "ESCAPE":
		return game.PhaseCommand, nil
	case "LAUNCH", "L":
		return game.PhaseLaunch, nil
	case "RECON", "INTEL", "I", "R":
		return game.PhaseRecon, nil
	case "DIPLOMACY", "N":
		return game.PhaseDiplomacy, nil
	case "BUILD", "B":
		return game.PhaseBuild, nil
	case "STATUS", "S":
		return game.PhaseStatus, nil
	}
	return 0, fmt.Errorf("unknown menu %q", s)
}

// ParseTarget resolves a target argument to an index into targets. It
// accepts a menu letter (A for the first target), a zero-based index, or a
// city name. Indexes are not range-checked so the engine can reject them.
func ParseTarget(s string, targets []game.City) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, errors.New("missing target")
	}

	if len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z' {
		return int(s[0] - 'A'), nil
	}

	if n, err := parseIntFromFloat(s); err == nil {
		return int(n), nil
	}

	for i, c := range targets {
		if strings.EqualFold(c.Name, s) || strings.EqualFold(c.Short, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown target %q", s)
}

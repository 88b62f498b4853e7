package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/wopr-sim/wopr/internal/game"
	"github.com/wopr-sim/wopr/internal/handlers"
)

const rule = "------------------------------------------------------------"

// render prints a handler result to the terminal.
func render(w io.Writer, result any) {
	switch v := result.(type) {
	case handlers.Screen:
		renderScreen(w, v)
	case game.StatusReport:
		renderStatus(w, v)
	case []game.Event:
		renderEvents(w, v)
	case string:
		fmt.Fprintln(w, strings.ToUpper(v))
	case nil:
	default:
		fmt.Fprintf(w, "%v\n", v)
	}
}

func renderScreen(w io.Writer, sc handlers.Screen) {
	if sc.Date == "" {
		fmt.Fprintln(w, "NO GAME IN PROGRESS. TYPE NEW TO BEGIN.")
		return
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s   WEEK %d   DEFCON %d   ORDERS %d   IN FLIGHT %d   [%s]\n",
		sc.Date, sc.Turn, sc.Defcon, sc.Actions, sc.InFlight, strings.ToUpper(sc.Phase))
	fmt.Fprintln(w, rule)
	renderEvents(w, sc.Events)
	renderTracks(w, sc.Tracks)
	if sc.Outcome != "" {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "*** %s ***\n", sc.Outcome)
		fmt.Fprintln(w, "A STRANGE GAME. THE ONLY WINNING MOVE IS NOT TO PLAY.")
	}
}

func renderTracks(w io.Writer, tracks []handlers.Track) {
	if len(tracks) == 0 {
		return
	}
	fmt.Fprintln(w, rule)
	for _, t := range tracks {
		fmt.Fprintf(w, "TRACK %-4s %-6s -> %-14s %3.0f%%  IMPACT IN %d WK  (%.0f, %.0f)\n",
			t.Side, t.Kind, t.Target, t.Progress*100, t.TurnsToImpact, t.X, t.Y)
	}
}

func renderEvents(w io.Writer, events []game.Event) {
	for _, e := range events {
		fmt.Fprintln(w, e.Text())
	}
}

func renderStatus(w io.Writer, r game.StatusReport) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "STATUS REPORT   %s   WEEK %d   DEFCON %d   TENSION %d%%\n", r.Date, r.Turn, r.Defcon, r.Tension)
	fmt.Fprintf(w, "SOVIET INTENT: %s\n", strings.ToUpper(r.Prediction.String()))
	fmt.Fprintln(w, rule)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tUSA\tUSSR")
	row := func(label string, f func(game.ForceReport) string) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", label, f(r.Forces[game.USA]), f(r.Forces[game.USSR]))
	}
	estimated := func(fr game.ForceReport, s string) string {
		if fr.Estimated {
			return "~" + s
		}
		return s
	}
	row("POPULATION (M)", func(fr game.ForceReport) string { return estimated(fr, fmt.Sprintf("%.1f", fr.Population)) })
	row("CASUALTIES (M)", func(fr game.ForceReport) string { return estimated(fr, fmt.Sprintf("%.1f", fr.Casualties)) })
	row("COMMAND NODES", func(fr game.ForceReport) string { return estimated(fr, fmt.Sprint(fr.CommandNodes)) })
	row("ICBM", func(fr game.ForceReport) string { return estimated(fr, fmt.Sprint(fr.Arsenal.ICBMs)) })
	row("SLBM", func(fr game.ForceReport) string { return estimated(fr, fmt.Sprint(fr.Arsenal.SLBMs)) })
	row("BOMBERS", func(fr game.ForceReport) string { return estimated(fr, fmt.Sprint(fr.Arsenal.Bombers)) })
	row("INTERCEPTORS", func(fr game.ForceReport) string { return estimated(fr, fmt.Sprint(fr.Arsenal.Interceptors)) })
	row("SATELLITES", func(fr game.ForceReport) string { return estimated(fr, fmt.Sprint(fr.Arsenal.Satellites)) })
	_ = tw.Flush()
}

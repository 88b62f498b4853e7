package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wopr-sim/wopr/internal/dispatcher"
	"github.com/wopr-sim/wopr/internal/handlers"
	"github.com/wopr-sim/wopr/internal/parser"
)

const helpText = `COMMANDS:
  NEW                     START A NEW GAME
  ALERT | E               RAISE DEFCON
  RECON <1-4|NAME>        SILOS, SUBS, DEFENSES, FIRSTSTRIKE
  DIPLOMACY <1-3|NAME>    DEESCALATE, WARNING, INTELLIGENCE
  LAUNCH <WEAPON> <TGT>   ICBM|SLBM|BOMBER, TARGET LETTER OR CITY
  BUILD <1-3|NAME>        ICBM, INTERCEPTOR, BOMBER
  MENU <NAME>             OPEN A MENU
  END TURN                ADVANCE ONE WEEK
  STATUS | S              STATUS REPORT
  EVENTS [N]              EVENT LOG (0 FOR ALL)
  SAVE                    CHECKPOINT THE RECORDING
  SCREEN                  REDRAW THE SCREEN
  QUIT                    LOG OFF`

// console feeds terminal lines to the dispatcher and prints the results.
type console struct {
	dispatcher *dispatcher.Dispatcher
	service    *handlers.Service
	out        io.Writer

	// echo prints each line before running it, for scripts.
	echo bool
}

// run reads commands until EOF, QUIT, or ctx is cancelled.
func (c *console) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	c.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if c.echo && line != "" {
			fmt.Fprintf(c.out, "> %s\n", line)
		}
		if !c.exec(line) {
			return nil
		}
		c.prompt()
	}
	return scanner.Err()
}

func (c *console) prompt() {
	if !c.echo {
		fmt.Fprint(c.out, "> ")
	}
}

// exec runs one line. It returns false when the operator logs off.
func (c *console) exec(line string) bool {
	switch strings.ToLower(line) {
	case "":
		return true
	case "quit", "exit", "logoff":
		fmt.Fprintln(c.out, "GOODBYE.")
		return false
	case "help", "?":
		fmt.Fprintln(c.out, helpText)
		return true
	case "screen":
		render(c.out, c.service.Screen())
		return true
	case "commands":
		cmds := c.dispatcher.Commands()
		sort.Strings(cmds)
		fmt.Fprintln(c.out, strings.Join(cmds, " "))
		return true
	}

	ev, err := parser.ParseLine(line)
	if err != nil {
		fmt.Fprintf(c.out, "%s\n", strings.ToUpper(err.Error()))
		return true
	}

	result, err := c.dispatcher.Dispatch(ev)
	if err != nil {
		fmt.Fprintf(c.out, "*** %s ***\n", strings.ToUpper(err.Error()))
		if errors.Is(err, handlers.ErrGameOver) {
			fmt.Fprintln(c.out, "TYPE NEW TO PLAY AGAIN.")
		}
	}
	if result == nil && err != nil {
		return true
	}
	render(c.out, result)
	return true
}

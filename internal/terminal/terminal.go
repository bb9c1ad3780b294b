// Package terminal probes the terminal the bridge is attached to.
// The result is used twice: the console renderer decides whether
// color and spinner animation are worth emitting, and the agent's
// pseudo-terminal is sized to mirror what the operator sees.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Fallback dimensions used when stdout is not a terminal. Wide enough
// that agent CLIs do not wrap their status lines.
const (
	DefaultCols = 120
	DefaultRows = 40
)

// Info describes the controlling terminal.
type Info struct {
	IsTTY   bool
	NoColor bool
	Width   int
	Height  int

	// ForceFlag records an explicit --no-color request, which wins
	// over detection.
	ForceFlag bool
}

// Detect probes stdout and the environment.
func Detect() *Info {
	info := &Info{Width: DefaultCols, Height: DefaultRows}

	fd := int(os.Stdout.Fd())
	info.IsTTY = term.IsTerminal(fd)

	if info.IsTTY {
		if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
			info.Width, info.Height = w, h
		}
	}

	// NO_COLOR (https://no-color.org/) and TERM=dumb both disable
	// escape-sequence output.
	if _, set := os.LookupEnv("NO_COLOR"); set || os.Getenv("TERM") == "dumb" {
		info.NoColor = true
	}

	return info
}

// ColorEnabled reports whether status output should be colored.
func (t *Info) ColorEnabled() bool {
	return t.IsTTY && !t.NoColor && !t.ForceFlag
}

// SpinnersEnabled reports whether progress should animate. Piped
// output gets single static lines instead.
func (t *Info) SpinnersEnabled() bool {
	return t.IsTTY && !t.NoColor && !t.ForceFlag
}

// PtySize returns the window size for the agent's pseudo-terminal.
func (t *Info) PtySize() (rows, cols uint16) {
	rows, cols = DefaultRows, DefaultCols

	if t.Height > 0 {
		rows = uint16(t.Height)
	}

	if t.Width > 0 {
		cols = uint16(t.Width)
	}

	return rows, cols
}

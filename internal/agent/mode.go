package agent

import "fmt"

// Mode selects how the session drives the agent CLI.
type Mode string

const (
	// ModePerRequest spawns a fresh agent process per submit and waits
	// for it to exit.
	ModePerRequest Mode = "per-request"

	// ModePersistent keeps one agent process alive across submits and
	// feeds it messages over stdin.
	ModePersistent Mode = "persistent"

	// ModePTY is like ModePersistent but drives the agent through a
	// pseudo-terminal, for agents that refuse to run without one.
	ModePTY Mode = "pty"
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePerRequest, ModePersistent, ModePTY:
		return Mode(s), nil
	case "per-request-process":
		return ModePerRequest, nil
	case "persistent-process":
		return ModePersistent, nil
	case "interactive-pty":
		return ModePTY, nil
	case "":
		return ModePerRequest, nil
	default:
		return "", fmt.Errorf("invalid agent mode %q (allowed: per-request, persistent, pty)", s)
	}
}

// retained reports whether the mode keeps a process handle between
// invocations.
func (m Mode) retained() bool {
	return m == ModePersistent || m == ModePTY
}

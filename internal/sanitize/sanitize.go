// Package sanitize converts raw terminal output from the agent CLI into
// text that is safe to forward to a messaging transport.
//
// The agent writes for an interactive terminal: ANSI color and cursor
// sequences, box-drawing UI chrome, and redraw noise. Clean reduces that
// to plain text bounded by the transport's message size limit.
package sanitize

import "strings"

const (
	// DefaultMaxLen is the default output bound, matching the message
	// size limit of common messaging transports.
	DefaultMaxLen = 4000

	truncationMark = "..."
)

// decorative are characters treated as UI chrome. A line whose trimmed
// content consists only of these is dropped by Clean.
const decorative = "─│┌┐└┘├┤┬┴┼═║╔╗╚╝╠╣╦╩╬━┃┄┅┆┇┈┉┊┋╭╮╯╰"

// Strip removes ANSI/VT escape sequences: CSI sequences (ESC [ ... final
// byte), OSC sequences (ESC ] ... BEL or ESC \), and two-byte escapes.
// An incomplete trailing sequence is dropped.
func Strip(s string) string {
	const (
		stNormal = iota
		stEscape
		stCSI
		stOSC
		stOSCEsc
		stCharset
	)

	var b strings.Builder

	b.Grow(len(s))

	state := stNormal

	for _, r := range s {
		switch state {
		case stNormal:
			if r == '\x1b' {
				state = stEscape
			} else {
				b.WriteRune(r)
			}
		case stEscape:
			switch r {
			case '[':
				state = stCSI
			case ']':
				state = stOSC
			case '(', ')':
				state = stCharset
			default:
				// Two-byte escape (ESC 7, ESC =, ESC \, ...).
				state = stNormal
			}
		case stCSI:
			// Parameter and intermediate bytes are 0x20..0x3f; the
			// final byte is 0x40..0x7e.
			if r >= '@' && r <= '~' {
				state = stNormal
			}
		case stOSC:
			if r == '\a' {
				state = stNormal
			} else if r == '\x1b' {
				state = stOSCEsc
			}
		case stOSCEsc:
			// ESC \ (ST) ends the OSC string; anything else returns
			// to consuming it.
			if r == '\\' {
				state = stNormal
			} else {
				state = stOSC
			}
		case stCharset:
			state = stNormal
		}
	}

	return b.String()
}

// Clean sanitizes raw agent output with the default length bound.
func Clean(raw string) string {
	return CleanWithLimit(raw, DefaultMaxLen)
}

// CleanWithLimit sanitizes raw agent output, truncating the result to at
// most maxLen runes. The transform is deterministic and idempotent: a
// clean input passes through unchanged.
//
// Callers should treat an empty result as "the agent produced no
// presentable output" and substitute their own completion notice.
func CleanWithLimit(raw string, maxLen int) string {
	if raw == "" {
		return ""
	}

	text := Strip(raw)
	text = stripControl(text)
	text = dropDecorativeLines(text)
	text = collapseBlankRuns(text)
	text = strings.TrimSpace(text)

	if maxLen > 0 {
		runes := []rune(text)
		if len(runes) > maxLen {
			// A bound too small for the marker still holds: the result
			// never exceeds maxLen runes.
			if maxLen <= len(truncationMark) {
				return string(runes[:maxLen])
			}

			text = strings.TrimSpace(string(runes[:maxLen-len(truncationMark)])) + truncationMark
		}
	}

	return text
}

// stripControl removes non-printable control characters except newline.
func stripControl(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if r == '\n' {
			b.WriteRune(r)
			continue
		}

		if r < 0x20 || r == 0x7f {
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

// dropDecorativeLines removes lines whose trimmed content is entirely
// box-drawing chrome. Blank lines are kept; collapseBlankRuns normalizes
// them afterwards.
func dropDecorativeLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]

	for _, line := range lines {
		if isDecorative(strings.TrimSpace(line)) {
			continue
		}

		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

func isDecorative(trimmed string) bool {
	if trimmed == "" {
		return false
	}

	for _, r := range trimmed {
		if !strings.ContainsRune(decorative, r) {
			return false
		}
	}

	return true
}

// collapseBlankRuns reduces runs of three or more newlines to exactly two.
func collapseBlankRuns(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	newlines := 0

	for _, r := range s {
		if r == '\n' {
			newlines++
			if newlines <= 2 {
				b.WriteRune(r)
			}

			continue
		}

		newlines = 0

		b.WriteRune(r)
	}

	return b.String()
}

// Package output renders the bridge's console surface.
//
// A Writer carries two registers: relayed agent replies (Print and
// Println, plain text) and the bridge's own status lines (Success,
// Warning, Info, Muted, Failure), which get a colored mark when the
// terminal supports it. Quiet mode silences everything except
// failures; JSON mode is a flag commands consult before rendering.
// The Spinner animates an in-flight agent turn and doubles as the
// console's progress display.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/bridgebot-dev/bridgebot/internal/terminal"
)

// spinnerFrame is the spinner redraw interval.
const spinnerFrame = 100 * time.Millisecond

// Status marks prefixing the bridge's own lines.
const (
	markOK   = "✓"
	markFail = "✗"
	markWarn = "⚠"
	markInfo = "ℹ"
)

type contextKey struct{}

// Writer renders bridge output. Exported fields are set once during
// command wiring, before any goroutine touches the writer.
type Writer struct {
	Out     io.Writer
	Err     io.Writer
	JSON    bool
	Quiet   bool
	NoInput bool

	term *terminal.Info

	success *color.Color
	failure *color.Color
	warning *color.Color
	notice  *color.Color
	muted   *color.Color
}

// Default returns a Writer on stdout/stderr with detected capabilities.
func Default() *Writer {
	return NewWriter(os.Stdout, os.Stderr, terminal.Detect())
}

// NewWriter builds a Writer over explicit streams; tests inject
// buffers here.
func NewWriter(out, err io.Writer, term *terminal.Info) *Writer {
	if !term.ColorEnabled() {
		color.NoColor = true
	}

	return &Writer{
		Out:     out,
		Err:     err,
		term:    term,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		warning: color.New(color.FgYellow),
		notice:  color.New(color.FgCyan),
		muted:   color.New(color.FgHiBlack),
	}
}

// WithContext stores the Writer in the context.
func (w *Writer) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, w)
}

// FromContext retrieves the Writer from context, or returns Default().
func FromContext(ctx context.Context) *Writer {
	if w, ok := ctx.Value(contextKey{}).(*Writer); ok {
		return w
	}

	return Default()
}

// Terminal returns the probed terminal capabilities.
func (w *Writer) Terminal() *terminal.Info {
	return w.term
}

// SetNoColor forces colored output off for the process.
func (w *Writer) SetNoColor(disabled bool) {
	w.term.ForceFlag = disabled
	if disabled {
		color.NoColor = true
	}
}

// Print writes to stdout; suppressed in quiet mode.
func (w *Writer) Print(format string, args ...interface{}) {
	if w.Quiet {
		return
	}

	fmt.Fprintf(w.Out, format, args...)
}

// Println writes a line to stdout; suppressed in quiet mode.
func (w *Writer) Println(args ...interface{}) {
	if w.Quiet {
		return
	}

	fmt.Fprintln(w.Out, args...)
}

// PrintJSON writes v as indented JSON, for --json consumers.
func (w *Writer) PrintJSON(v interface{}) error {
	enc := json.NewEncoder(w.Out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// Success writes a checkmarked status line.
func (w *Writer) Success(format string, args ...interface{}) {
	if w.Quiet {
		return
	}

	w.status(w.Out, w.success, markOK, format, args...)
}

// Failure writes an error status line to stderr. Not silenced by
// quiet mode.
func (w *Writer) Failure(format string, args ...interface{}) {
	w.status(w.Err, w.failure, markFail, format, args...)
}

// Warning writes a warning status line.
func (w *Writer) Warning(format string, args ...interface{}) {
	if w.Quiet {
		return
	}

	w.status(w.Out, w.warning, markWarn, format, args...)
}

// Info writes an informational status line.
func (w *Writer) Info(format string, args ...interface{}) {
	if w.Quiet {
		return
	}

	w.status(w.Out, w.notice, markInfo, format, args...)
}

// Muted writes de-emphasized context, without a mark.
func (w *Writer) Muted(format string, args ...interface{}) {
	if w.Quiet {
		return
	}

	msg := fmt.Sprintf(format, args...)

	if w.term.ColorEnabled() {
		w.muted.Fprintln(w.Out, msg)
		return
	}

	fmt.Fprintln(w.Out, msg)
}

func (w *Writer) status(dst io.Writer, tone *color.Color, mark, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	if w.term.ColorEnabled() {
		tone.Fprint(dst, mark+" ")
		fmt.Fprintln(dst, msg)

		return
	}

	fmt.Fprintln(dst, mark+" "+msg)
}

// Spinner returns a progress indicator for an in-flight agent turn.
// Without an animation-capable terminal it degrades to one static
// line at Start and silent updates.
func (w *Writer) Spinner(message string) *Spinner {
	if w.Quiet || !w.term.SpinnersEnabled() {
		return &Spinner{writer: w, message: message, static: true}
	}

	anim := spinner.New(spinner.CharSets[14], spinnerFrame)
	anim.Writer = w.Out
	anim.Suffix = " " + message

	return &Spinner{writer: w, message: message, anim: anim}
}

// Spinner shows one in-flight operation. The bridge feeds it the
// agent's latest progress line through UpdateMessage.
type Spinner struct {
	writer  *Writer
	anim    *spinner.Spinner
	message string
	static  bool
}

// Start begins the animation, or prints the message once when static.
func (s *Spinner) Start() {
	if s.static {
		s.writer.Print("%s... ", s.message)
		return
	}

	s.anim.Start()
}

// UpdateMessage replaces the spinner caption.
func (s *Spinner) UpdateMessage(message string) {
	s.message = message

	if !s.static {
		s.anim.Suffix = " " + message
	}
}

// Stop clears the animation. Static spinners have nothing to clear.
func (s *Spinner) Stop() {
	if s.static {
		return
	}

	s.anim.Stop()
}

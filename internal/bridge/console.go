package bridge

import (
	"context"
	"strings"

	"github.com/bridgebot-dev/bridgebot/internal/output"
)

// spinnerPreviewLen bounds the one-line progress excerpt shown next to
// the console spinner.
const spinnerPreviewLen = 80

// ConsoleMessenger renders messenger traffic on a terminal. The progress
// placeholder becomes a spinner whose suffix tracks the latest output
// line; file deliveries become path announcements.
type ConsoleMessenger struct {
	writer *output.Writer
}

// NewConsoleMessenger creates a ConsoleMessenger over w.
func NewConsoleMessenger(w *output.Writer) *ConsoleMessenger {
	return &ConsoleMessenger{writer: w}
}

type consoleRef struct {
	spinner *output.Spinner
}

// SendText prints text. A placeholder (the working indicator) becomes a
// live spinner instead of a printed line.
func (c *ConsoleMessenger) SendText(_ context.Context, text string) (MessageRef, error) {
	if strings.Contains(text, "Working...") {
		sp := c.writer.Spinner("agent working")
		sp.Start()

		return &consoleRef{spinner: sp}, nil
	}

	c.writer.Println(text)

	return &consoleRef{}, nil
}

// EditText updates the spinner excerpt for a placeholder; edits of plain
// printed messages cannot be rendered and are dropped.
func (c *ConsoleMessenger) EditText(_ context.Context, ref MessageRef, text string) error {
	r, ok := ref.(*consoleRef)
	if !ok || r.spinner == nil {
		return nil
	}

	r.spinner.UpdateMessage(lastLine(text, spinnerPreviewLen))

	return nil
}

// DeleteMessage stops the spinner for a placeholder; printed lines stay.
func (c *ConsoleMessenger) DeleteMessage(_ context.Context, ref MessageRef) error {
	if r, ok := ref.(*consoleRef); ok && r.spinner != nil {
		r.spinner.Stop()
	}

	return nil
}

// SendFile announces a file the agent produced.
func (c *ConsoleMessenger) SendFile(_ context.Context, path string) error {
	c.writer.Info("New file: %s", path)

	return nil
}

// SendPhoto announces an image the agent produced.
func (c *ConsoleMessenger) SendPhoto(_ context.Context, path string) error {
	c.writer.Info("New image: %s", path)

	return nil
}

// lastLine returns the trailing non-blank line of text, trimmed to max
// runes.
func lastLine(text string, max int) string {
	lines := strings.Split(strings.TrimRight(text, "\n⏳ "), "\n")

	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		runes := []rune(line)
		if len(runes) > max {
			line = string(runes[:max])
		}

		return line
	}

	return "agent working"
}

package output

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bridgebot-dev/bridgebot/internal/terminal"
	"github.com/bridgebot-dev/bridgebot/internal/testutil"
)

// plainTerminal simulates piped output: no TTY, no color.
func plainTerminal() *terminal.Info {
	return &terminal.Info{NoColor: true, Width: 80, Height: 24}
}

func TestPrintRespectsQuiet(t *testing.T) {
	tests := []struct {
		name  string
		quiet bool
		want  string
	}{
		{name: "normal", quiet: false, want: "reply from agent\n"},
		{name: "quiet", quiet: true, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			w := NewWriter(&buf, &buf, plainTerminal())
			w.Quiet = tt.quiet

			w.Print("reply from %s\n", "agent")

			if got := buf.String(); got != tt.want {
				t.Fatalf("Print() wrote %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintlnRespectsQuiet(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf, &buf, plainTerminal())
	w.Println("done")

	if got := buf.String(); got != "done\n" {
		t.Fatalf("Println() wrote %q", got)
	}

	buf.Reset()
	w.Quiet = true
	w.Println("done")

	if buf.Len() != 0 {
		t.Fatalf("quiet Println() wrote %q", buf.String())
	}
}

func TestStatusLines(t *testing.T) {
	tests := []struct {
		name  string
		emit  func(w *Writer)
		mark  string
		toErr bool
	}{
		{name: "success", emit: func(w *Writer) { w.Success("agent ready") }, mark: markOK},
		{name: "warning", emit: func(w *Writer) { w.Warning("agent slow") }, mark: markWarn},
		{name: "info", emit: func(w *Writer) { w.Info("agent started") }, mark: markInfo},
		{name: "failure", emit: func(w *Writer) { w.Failure("agent gone") }, mark: markFail, toErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			tt.emit(NewWriter(&stdout, &stderr, plainTerminal()))

			got, other := stdout.String(), stderr.String()
			if tt.toErr {
				got, other = other, got
			}

			if !strings.HasPrefix(got, tt.mark+" ") || !strings.Contains(got, "agent") {
				t.Fatalf("status line = %q, want %q prefix", got, tt.mark)
			}

			if other != "" {
				t.Fatalf("wrote to wrong stream: %q", other)
			}
		})
	}
}

func TestFailureIgnoresQuiet(t *testing.T) {
	var stdout, stderr bytes.Buffer

	w := NewWriter(&stdout, &stderr, plainTerminal())
	w.Quiet = true

	w.Success("hidden")
	w.Failure("agent exited")

	if stdout.Len() != 0 {
		t.Fatalf("quiet Success() wrote %q", stdout.String())
	}

	if !strings.Contains(stderr.String(), "agent exited") {
		t.Fatalf("quiet Failure() wrote %q, want the message", stderr.String())
	}
}

func TestMuted(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf, &buf, plainTerminal())
	w.Muted("working directory: /tmp")

	if got := buf.String(); got != "working directory: /tmp\n" {
		t.Fatalf("Muted() wrote %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf, &buf, plainTerminal())

	if err := w.PrintJSON(map[string]string{"state": "idle"}); err != nil {
		t.Fatalf("PrintJSON() error = %v", err)
	}

	if got := buf.String(); got != "{\n  \"state\": \"idle\"\n}\n" {
		t.Fatalf("PrintJSON() wrote %q", got)
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf, &buf, plainTerminal())

	if got := FromContext(w.WithContext(context.Background())); got != w {
		t.Fatal("FromContext() did not return the stored writer")
	}
}

func TestFromContextDefault(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext() without a stored writer returned nil")
	}
}

func TestSetNoColor(t *testing.T) {
	term := &terminal.Info{IsTTY: true}

	var buf bytes.Buffer

	w := NewWriter(&buf, &buf, term)
	w.SetNoColor(true)

	if term.ColorEnabled() {
		t.Fatal("ColorEnabled() = true after SetNoColor(true)")
	}
}

func TestSpinnerStaticFallback(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf, &buf, plainTerminal())

	s := w.Spinner("agent working")
	s.Start()
	s.UpdateMessage("compiling")
	s.Stop()

	// Static mode prints the initial caption once; updates stay silent
	// so piped output is not flooded by progress.
	if got := buf.String(); got != "agent working... " {
		t.Fatalf("static spinner wrote %q", got)
	}
}

func TestSpinnerQuiet(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf, &buf, plainTerminal())
	w.Quiet = true

	s := w.Spinner("agent working")
	s.Start()
	s.Stop()

	if buf.Len() != 0 {
		t.Fatalf("quiet spinner wrote %q", buf.String())
	}
}

func TestPrintJSON_Golden(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf, &buf, plainTerminal())

	err := w.PrintJSON(struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Active  bool   `json:"active"`
	}{Name: "bridgebot", Version: "1.0.0", Active: true})
	if err != nil {
		t.Fatalf("PrintJSON() error = %v", err)
	}

	testutil.AssertGolden(t, buf.String(), "json_output.golden")
}

func TestStatusMessages_Golden(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf, &buf, plainTerminal())

	w.Success("Operation completed successfully")
	w.Warning("This is a warning message")
	w.Info("Information for the user")
	w.Muted("Subtle context information")

	testutil.AssertGolden(t, buf.String(), "status_messages.golden")
}

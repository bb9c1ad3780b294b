package main

import (
	"bytes"
	"errors"
	"testing"

	clierrors "github.com/bridgebot-dev/bridgebot/internal/errors"
	"github.com/bridgebot-dev/bridgebot/internal/output"
	"github.com/bridgebot-dev/bridgebot/internal/terminal"
)

func testWriter() (*output.Writer, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer

	w := output.NewWriter(&stdout, &stderr, &terminal.Info{})

	return w, &stdout, &stderr
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "cli error carries its code",
			err:      &clierrors.CLIError{Message: "agent not found", Code: clierrors.ExitConfig},
			wantCode: clierrors.ExitConfig,
		},
		{
			name:     "wrapped cli error",
			err:      clierrors.InvalidDirectory("/nope"),
			wantCode: clierrors.ExitUsage,
		},
		{
			name:     "unknown command",
			err:      errors.New(`unknown command "frob" for "bridgebot"`),
			wantCode: clierrors.ExitUsage,
		},
		{
			name:     "unknown flag",
			err:      errors.New("unknown flag: --frob"),
			wantCode: clierrors.ExitUsage,
		},
		{
			name:     "generic error",
			err:      errors.New("boom"),
			wantCode: clierrors.ExitGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _, _ := testWriter()

			if got := handleError(w, tt.err); got != tt.wantCode {
				t.Fatalf("handleError() = %d, want %d", got, tt.wantCode)
			}
		})
	}
}

func TestPickFlagOrEnv(t *testing.T) {
	t.Setenv("BRIDGEBOT_TEST_KEY", "from-env")

	if got := pickFlagOrEnv("from-flag", "BRIDGEBOT_TEST_KEY", "fallback"); got != "from-flag" {
		t.Fatalf("pickFlagOrEnv() = %q, want flag to win", got)
	}

	if got := pickFlagOrEnv("", "BRIDGEBOT_TEST_KEY", "fallback"); got != "from-env" {
		t.Fatalf("pickFlagOrEnv() = %q, want env", got)
	}

	if got := pickFlagOrEnv("", "BRIDGEBOT_UNSET_KEY", "fallback"); got != "fallback" {
		t.Fatalf("pickFlagOrEnv() = %q, want fallback", got)
	}
}

func TestPickBoolFlagOrEnv(t *testing.T) {
	t.Setenv("BRIDGEBOT_BOOL_KEY", "true")

	if !pickBoolFlagOrEnv(false, "BRIDGEBOT_BOOL_KEY") {
		t.Fatal("pickBoolFlagOrEnv() = false, want env true")
	}

	t.Setenv("BRIDGEBOT_BOOL_KEY", "no")

	if pickBoolFlagOrEnv(false, "BRIDGEBOT_BOOL_KEY") {
		t.Fatal("pickBoolFlagOrEnv() = true, want false")
	}

	if !pickBoolFlagOrEnv(true, "BRIDGEBOT_BOOL_KEY") {
		t.Fatal("pickBoolFlagOrEnv() = false, want flag true")
	}
}

func TestIsInteractiveCommand(t *testing.T) {
	if !isInteractiveCommand("bridgebot run") {
		t.Fatal("isInteractiveCommand(run) = false, want true")
	}

	if isInteractiveCommand("bridgebot check") {
		t.Fatal("isInteractiveCommand(check) = true, want false")
	}
}

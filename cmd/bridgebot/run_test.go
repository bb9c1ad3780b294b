package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/bridgebot-dev/bridgebot/internal/agent"
	"github.com/bridgebot-dev/bridgebot/internal/config"
	clierrors "github.com/bridgebot-dev/bridgebot/internal/errors"
	"github.com/bridgebot-dev/bridgebot/internal/output"
	"github.com/bridgebot-dev/bridgebot/internal/terminal"
)

func TestSessionOptionsFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Load()

	opts, err := sessionOptions(cfg, "myagent", "my/model", dir, "persistent", 45)
	if err != nil {
		t.Fatalf("sessionOptions() error = %v", err)
	}

	if opts.Path != "myagent" {
		t.Fatalf("Path = %q, want flag value", opts.Path)
	}

	if opts.Model != "my/model" {
		t.Fatalf("Model = %q, want flag value", opts.Model)
	}

	if opts.WorkingDir != dir {
		t.Fatalf("WorkingDir = %q, want %q", opts.WorkingDir, dir)
	}

	if opts.Mode != agent.ModePersistent {
		t.Fatalf("Mode = %q, want persistent", opts.Mode)
	}

	if opts.Timeout != 45*time.Second {
		t.Fatalf("Timeout = %s, want 45s", opts.Timeout)
	}
}

func TestSessionOptionsDefaults(t *testing.T) {
	cfg := config.Load()

	opts, err := sessionOptions(cfg, "", "", t.TempDir(), "", 0)
	if err != nil {
		t.Fatalf("sessionOptions() error = %v", err)
	}

	if opts.Path != config.DefaultAgentPath {
		t.Fatalf("Path = %q, want config default", opts.Path)
	}

	if opts.Mode != agent.ModePerRequest {
		t.Fatalf("Mode = %q, want per-request default", opts.Mode)
	}

	if opts.Timeout != config.DefaultTimeoutSeconds*time.Second {
		t.Fatalf("Timeout = %s, want config default", opts.Timeout)
	}
}

func TestSessionOptionsRejectsBadMode(t *testing.T) {
	cfg := config.Load()

	_, err := sessionOptions(cfg, "", "", t.TempDir(), "warp", 0)
	if err == nil {
		t.Fatal("sessionOptions() error = nil, want mode error")
	}

	var cliErr *clierrors.CLIError
	if !clierrors.As(err, &cliErr) || cliErr.Code != clierrors.ExitUsage {
		t.Fatalf("sessionOptions() error = %v, want usage CLIError", err)
	}

	if cliErr.Hint == "" {
		t.Fatal("mode error carries no hint")
	}
}

func TestNoInputGuard(t *testing.T) {
	tests := []struct {
		name    string
		noInput bool
		isTTY   bool
		wantErr bool
	}{
		{name: "interactive terminal", noInput: false, isTTY: true},
		{name: "no-input with pipe", noInput: true, isTTY: false},
		{name: "no-input on a terminal", noInput: true, isTTY: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			out := output.NewWriter(&stdout, &stderr, &terminal.Info{IsTTY: tt.isTTY})
			out.NoInput = tt.noInput

			err := noInputGuard(out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("noInputGuard() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr {
				return
			}

			var cliErr *clierrors.CLIError
			if !clierrors.As(err, &cliErr) || cliErr.Code != clierrors.ExitUsage || cliErr.Hint == "" {
				t.Fatalf("noInputGuard() error = %v, want hinted usage CLIError", err)
			}
		})
	}
}

func TestSessionOptionsRejectsMissingDirectory(t *testing.T) {
	cfg := config.Load()

	_, err := sessionOptions(cfg, "", "", "/no/such/dir", "", 0)
	if err == nil {
		t.Fatal("sessionOptions() error = nil, want directory error")
	}
}

func TestFlatten(t *testing.T) {
	nested := map[string]interface{}{
		"agent": map[string]interface{}{
			"model": "m",
			"path":  "p",
		},
		"top": 1,
	}

	flat := flatten("", nested)

	if flat["agent.model"] != "m" || flat["agent.path"] != "p" || flat["top"] != 1 {
		t.Fatalf("flatten() = %v", flat)
	}
}

// Package doctor provides diagnostic checks for bridgebot health.
//
// This package implements a check framework that validates:
//   - Agent CLI availability and version
//   - Working directory existence
//   - Invocation mode and timeout configuration
//   - Context preamble files
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/bridgebot-dev/bridgebot/internal/agent"
	"github.com/bridgebot-dev/bridgebot/internal/config"
	"github.com/bridgebot-dev/bridgebot/internal/sanitize"
)

// versionProbeTimeout bounds the agent --version invocation.
const versionProbeTimeout = 5 * time.Second

// Status represents the result of a diagnostic check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical failure.
	StatusFail
)

// Symbol returns the display glyph for the status.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// Result holds the outcome of a single check.
type Result struct {
	Name    string
	Status  Status
	Message string
	Detail  string // Optional additional detail
}

// Check is a diagnostic check function.
type Check func(ctx context.Context) Result

// Runner executes diagnostic checks.
type Runner struct {
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check Check
}

// New creates a new diagnostic runner.
func New() *Runner {
	r := &Runner{}

	r.AddCheck("Agent CLI", checkAgentCLI)
	r.AddCheck("Working Directory", checkWorkingDirectory)
	r.AddCheck("Configuration", checkConfiguration)
	r.AddCheck("Context Files", checkContextFiles)

	return r
}

// AddCheck registers a diagnostic check.
func (r *Runner) AddCheck(name string, check Check) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

// Run executes all registered checks and returns the results.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.checks))

	for _, nc := range r.checks {
		result := nc.check(ctx)
		result.Name = nc.name
		results = append(results, result)
	}

	return results
}

// Summary returns counts of passed, failed, and warning checks.
func Summary(results []Result) (passed, failed, warnings int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusWarn:
			warnings++
		}
	}

	return passed, failed, warnings
}

// checkAgentCLI verifies the agent executable is on PATH and answers a
// version probe.
func checkAgentCLI(ctx context.Context) Result {
	cfg := config.Load()
	path := cfg.AgentPath()

	resolved, err := exec.LookPath(path)
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s not found on PATH", path),
			Detail:  "Install the agent CLI or set agent.path in the config",
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, resolved, "--version").Output()
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s found but --version failed", resolved),
			Detail:  err.Error(),
		}
	}

	version := sanitize.Clean(string(out))
	if idx := strings.IndexByte(version, '\n'); idx >= 0 {
		version = version[:idx]
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (%s)", resolved, version),
	}
}

// checkWorkingDirectory verifies the configured working directory exists.
func checkWorkingDirectory(context.Context) Result {
	cfg := config.Load()
	dir := cfg.WorkingDir()

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s does not exist", dir),
			Detail:  "Set agent.working_dir to an existing directory",
		}
	}

	return Result{Status: StatusPass, Message: dir}
}

// checkConfiguration validates the mode and timeout settings.
func checkConfiguration(context.Context) Result {
	cfg := config.Load()

	mode, err := agent.ParseMode(cfg.Mode())
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: err.Error(),
			Detail:  "Set agent.mode to per-request, persistent, or pty",
		}
	}

	if cfg.Timeout() <= 0 {
		return Result{
			Status:  StatusWarn,
			Message: "agent.timeout_seconds is not positive",
			Detail:  "Invocations will use the built-in default",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("mode %s, timeout %s, model %s", mode, cfg.Timeout(), cfg.Model()),
	}
}

// checkContextFiles reports which preamble files the working directory
// carries. Absence is normal.
func checkContextFiles(context.Context) Result {
	cfg := config.Load()
	dir := cfg.WorkingDir()

	var found []string

	for _, name := range []string{"BRIDGE_MEMORY.md", "BRIDGE_AGENTS.md"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			found = append(found, name)
		}
	}

	if len(found) == 0 {
		return Result{
			Status:  StatusPass,
			Message: "none",
			Detail:  "Add BRIDGE_MEMORY.md or BRIDGE_AGENTS.md to inject context",
		}
	}

	return Result{Status: StatusPass, Message: strings.Join(found, ", ")}
}

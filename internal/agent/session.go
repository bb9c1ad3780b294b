// Package agent implements the session bridge engine: exclusive
// ownership of the external agent CLI process, incremental collection
// and sanitization of its terminal output, resumable task-id tracking,
// and the per-request / persistent / pty invocation modes.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	clierrors "github.com/bridgebot-dev/bridgebot/internal/errors"
	"github.com/bridgebot-dev/bridgebot/internal/observability"
	"github.com/bridgebot-dev/bridgebot/internal/sanitize"
)

// historyTimeout bounds the task-listing subcommand, which has no
// business running as long as an agent turn.
const historyTimeout = 15 * time.Second

// Options configures a Session at construction. Values are read once;
// later changes go through the documented mutators.
type Options struct {
	// Path is the agent executable (name on PATH or full path).
	Path string

	// Model selects the agent backend for fresh invocations.
	Model string

	// WorkingDir is the agent execution root and file-scan root.
	WorkingDir string

	// Timeout bounds one invocation.
	Timeout time.Duration

	// AutoApprove runs the agent unattended (--yolo).
	AutoApprove bool

	// Mode selects the invocation flavor.
	Mode Mode

	// PromptMarker is the interactive prompt literal whose reappearance
	// ends a turn in persistent and pty modes.
	PromptMarker string

	// MaxReplyLen bounds sanitized reply text.
	MaxReplyLen int
}

// Result is the outcome of one Submit call.
type Result struct {
	// Text is the sanitized final response, bounded by MaxReplyLen.
	// Empty means the agent produced no presentable output.
	Text string

	// TaskID is the resumable task id detected in this invocation, or
	// "" if none was announced.
	TaskID string

	// TimedOut reports that the invocation hit its deadline and Text
	// holds partial output.
	TimedOut bool
}

// SubmitOptions carries per-call extras for Submit.
type SubmitOptions struct {
	// Preamble is out-of-band context text prepended to the message.
	Preamble string

	// OnProgress, when set, receives rate-limited sanitized previews of
	// the output collected so far. Failures inside the callback must be
	// handled by the callback itself; the read loop never waits on it
	// beyond the call.
	OnProgress func(preview string)
}

// Stats is a point-in-time view of session state.
type Stats struct {
	Active        bool
	TaskID        string
	Messages      int
	UptimeSeconds int
	Model         string
	WorkingDir    string
	Mode          Mode
}

// Session owns one logical conversation with the agent: working
// directory, model, resumable task id, counters, and (in retained
// modes) the live process. At most one invocation is in flight at any
// time; concurrent Submit calls queue on the gate.
type Session struct {
	// gate is the single-flight invocation lock, held for the full
	// duration of Submit/Reset/SetWorkingDirectory.
	gate sync.Mutex

	// mu guards the fields below; never held across blocking work, so
	// Stats and the read-only accessors stay responsive mid-invocation.
	mu           sync.Mutex
	opts         Options
	model        string
	workingDir   string
	taskID       string
	messagesSent int
	startedAt    time.Time
	inFlight     bool
	proc         *handle

	// launch is injectable for tests.
	launch launchFunc
}

// NewSession creates a Session from opts, applying defaults.
func NewSession(opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}

	if opts.MaxReplyLen <= 0 {
		opts.MaxReplyLen = sanitize.DefaultMaxLen
	}

	if opts.Mode == "" {
		opts.Mode = ModePerRequest
	}

	return &Session{
		opts:       opts,
		model:      opts.Model,
		workingDir: opts.WorkingDir,
		startedAt:  time.Now(),
		launch:     launch,
	}
}

// Submit sends one message to the agent and returns the sanitized
// response. An error is returned only when no process could be launched;
// timeouts, nonzero exits, and mid-turn process death all degrade to a
// best-effort partial Result.
func (s *Session) Submit(ctx context.Context, message string, opts SubmitOptions) (*Result, error) {
	s.gate.Lock()
	defer s.gate.Unlock()

	s.mu.Lock()
	s.inFlight = true
	spec := argSpec{
		autoApprove: s.opts.AutoApprove,
		taskID:      s.taskID,
		model:       s.model,
		timeout:     s.opts.Timeout,
		workingDir:  s.workingDir,
	}
	mode := s.opts.Mode
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	logger := observability.FromContext(ctx)

	full := message
	if opts.Preamble != "" {
		full = "Context:" + opts.Preamble + "\n\nUser message: " + message
	}

	var (
		res *Result
		err error
	)

	if mode.retained() {
		res, err = s.submitInteractive(ctx, logger, spec, mode, full, opts.OnProgress)
	} else {
		res, err = s.submitOnce(ctx, logger, spec, full, opts.OnProgress)
	}

	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if res.TaskID != "" {
		s.taskID = res.TaskID
	}
	s.messagesSent++
	s.mu.Unlock()

	return res, nil
}

// submitOnce runs a fresh process per request and waits for exit.
func (s *Session) submitOnce(ctx context.Context, logger *slog.Logger, spec argSpec, message string, onProgress func(string)) (*Result, error) {
	inv := invocation{
		path: s.opts.Path,
		dir:  spec.workingDir,
		args: buildArgs(spec, message),
	}

	logger.Info("invoking agent",
		slog.String("agent.mode", string(ModePerRequest)),
		slog.Bool("agent.resume", spec.taskID != ""),
		slog.String("agent.working_dir", spec.workingDir),
	)

	h, err := s.launch(inv)
	if err != nil {
		logger.Error("agent launch failed", slog.String("error", err.Error()))
		return nil, err
	}

	c := newCorrelator(s.opts.MaxReplyLen, "", onProgress)
	cr := collectUntilExit(ctx, h, c, spec.timeout)

	if h.exitErr != nil && !cr.timedOut {
		logger.Warn("agent exited with error",
			slog.String("error", h.exitErr.Error()),
			slog.Int("stderr.bytes", len(h.stderrText())),
		)
	}

	logger.Info("agent invocation finished",
		slog.Int("output.bytes", c.buf.Len()),
		slog.Bool("timed_out", cr.timedOut),
		slog.Bool("task_id_found", c.taskID != ""),
	)

	return &Result{
		Text:     c.finalText(h.stderrText()),
		TaskID:   c.taskID,
		TimedOut: cr.timedOut,
	}, nil
}

// submitInteractive sends one turn to a retained process, restarting it
// first if it died since the previous turn.
func (s *Session) submitInteractive(ctx context.Context, logger *slog.Logger, spec argSpec, mode Mode, message string, onProgress func(string)) (*Result, error) {
	h, fresh, err := s.ensureProcess(logger, spec, mode)
	if err != nil {
		logger.Error("agent launch failed", slog.String("error", err.Error()))
		return nil, err
	}

	// Output buffered since the previous turn belongs to no one.
	if !fresh {
		h.drainStale()
	}

	if err := h.send(message); err != nil {
		logger.Warn("agent input write failed", slog.String("error", err.Error()))
		s.dropProcess(h)

		return nil, clierrors.ProcessDied()
	}

	c := newCorrelator(s.opts.MaxReplyLen, s.opts.PromptMarker, onProgress)
	cr := collectUntilPrompt(ctx, h, c, spec.timeout)

	if cr.died {
		logger.Warn("agent process died mid-turn")
	}

	if cr.timedOut || cr.died {
		s.dropProcess(h)
	}

	return &Result{
		Text:     c.finalText(h.stderrText()),
		TaskID:   c.taskID,
		TimedOut: cr.timedOut,
	}, nil
}

// ensureProcess returns the retained process, launching or relaunching
// it as needed. fresh reports that a new process was started.
func (s *Session) ensureProcess(logger *slog.Logger, spec argSpec, mode Mode) (*handle, bool, error) {
	s.mu.Lock()
	proc := s.proc
	s.mu.Unlock()

	if proc != nil && proc.alive() {
		return proc, false, nil
	}

	if proc != nil {
		logger.Warn("agent process exited unexpectedly; restarting")
	}

	inv := invocation{
		path:        s.opts.Path,
		dir:         spec.workingDir,
		args:        buildInteractiveArgs(spec),
		interactive: true,
		usePTY:      mode == ModePTY,
	}

	h, err := s.launch(inv)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	s.proc = h
	s.mu.Unlock()

	return h, true, nil
}

func (s *Session) dropProcess(h *handle) {
	s.mu.Lock()
	if s.proc == h {
		s.proc = nil
	}
	s.mu.Unlock()
}

// Reset terminates any retained process and clears the task id and
// counters. Idempotent.
func (s *Session) Reset() string {
	s.gate.Lock()
	defer s.gate.Unlock()

	s.mu.Lock()
	proc := s.proc
	s.proc = nil
	s.taskID = ""
	s.messagesSent = 0
	s.startedAt = time.Now()
	s.mu.Unlock()

	if proc != nil {
		proc.terminate(terminateGrace)
	}

	return "Session reset. The next message starts a fresh task."
}

// SetWorkingDirectory validates path (resolving relative paths against
// the current working directory), then behaves as Reset with the new
// directory bound. On failure the prior state is unchanged.
func (s *Session) SetWorkingDirectory(path string) (string, error) {
	s.gate.Lock()
	defer s.gate.Unlock()

	s.mu.Lock()
	current := s.workingDir
	s.mu.Unlock()

	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(current, resolved)
	}

	resolved = filepath.Clean(resolved)

	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", clierrors.InvalidDirectory(resolved)
	}

	s.mu.Lock()
	proc := s.proc
	s.proc = nil
	s.workingDir = resolved
	s.taskID = ""
	s.messagesSent = 0
	s.startedAt = time.Now()
	s.mu.Unlock()

	if proc != nil {
		proc.terminate(terminateGrace)
	}

	return fmt.Sprintf("Changed to: %s\nSession reset. The next message starts a fresh task.", resolved), nil
}

// SetModel changes the model for the next invocation. A running
// invocation is unaffected; the new model applies once the current task
// id is cleared (resumed tasks keep their original model).
func (s *Session) SetModel(name string) {
	s.mu.Lock()
	s.model = name
	s.mu.Unlock()
}

// SetTaskID overrides the resumable task id, as for an explicit resume
// request. Normally the id is only learned from agent output.
func (s *Session) SetTaskID(id string) {
	s.mu.Lock()
	s.taskID = id
	s.mu.Unlock()
}

// Model returns the model for the next invocation.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.model
}

// WorkingDir returns the current working directory.
func (s *Session) WorkingDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.workingDir
}

// TaskID returns the current resumable task id, or "".
func (s *Session) TaskID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.taskID
}

// Stats returns a snapshot of session state. It does not take the
// invocation gate, so it stays responsive while the agent runs.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Active:        s.inFlight || (s.proc != nil && s.proc.alive()),
		TaskID:        s.taskID,
		Messages:      s.messagesSent,
		UptimeSeconds: int(time.Since(s.startedAt) / time.Second),
		Model:         s.model,
		WorkingDir:    s.workingDir,
		Mode:          s.opts.Mode,
	}
}

// Close terminates any retained process. The session remains usable; a
// later Submit relaunches.
func (s *Session) Close() {
	s.gate.Lock()
	defer s.gate.Unlock()

	s.mu.Lock()
	proc := s.proc
	s.proc = nil
	s.mu.Unlock()

	if proc != nil {
		proc.terminate(terminateGrace)
	}
}

// History runs the agent's task-history subcommand and returns its
// sanitized output. Read-only; does not take the invocation gate.
func (s *Session) History(ctx context.Context) (string, error) {
	s.mu.Lock()
	path := s.opts.Path
	dir := s.workingDir
	maxLen := s.opts.MaxReplyLen
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "history")
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", clierrors.AgentNotFound(path)
		}

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", clierrors.ExecutionTimedOut(historyTimeout.String())
		}

		return "", clierrors.Wrap(clierrors.ExitExecution, "Failed to list tasks", err)
	}

	return sanitize.CleanWithLimit(string(out), maxLen), nil
}

package agent

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bridgebot-dev/bridgebot/internal/sanitize"
)

const (
	// pollInterval bounds how long the read loop goes without checking
	// exit status and cancellation.
	pollInterval = 500 * time.Millisecond

	// progressInterval is the minimum gap between progress callbacks.
	progressInterval = 1500 * time.Millisecond

	// promptScanWindow is how far back in the buffer the end-of-turn
	// prompt is searched for.
	promptScanWindow = 512

	// previewReserve leaves headroom in progress previews for the
	// caller's status decoration.
	previewReserve = 500
)

// taskIDPattern matches the agent's resumable-task announcement. Only
// the first match of an invocation is kept.
var taskIDPattern = regexp.MustCompile(`Task started:\s*(\d+)`)

// correlator consumes the incremental output stream of one invocation:
// it accumulates the raw buffer, captures the task id, detects the
// interactive prompt, and rate-limits progress callbacks.
type correlator struct {
	buf          bytes.Buffer
	taskID       string
	maxLen       int
	promptMarker string

	onProgress     func(preview string)
	lastProgressAt time.Time
	lastPreview    string
}

func newCorrelator(maxLen int, promptMarker string, onProgress func(string)) *correlator {
	if maxLen <= 0 {
		maxLen = sanitize.DefaultMaxLen
	}

	return &correlator{
		maxLen:       maxLen,
		promptMarker: promptMarker,
		onProgress:   onProgress,
	}
}

// feed appends a chunk and reports whether the turn has ended (prompt
// reappeared). Only meaningful for interactive modes; with no prompt
// marker configured it always returns false and end-of-turn is process
// exit.
func (c *correlator) feed(chunk []byte) bool {
	c.buf.Write(chunk)

	if c.taskID == "" {
		if m := taskIDPattern.FindSubmatch(c.buf.Bytes()); m != nil {
			c.taskID = string(m[1])
		}
	}

	return c.turnEnded()
}

// turnEnded checks whether the sanitized tail of the buffer ends with
// the interactive prompt. This is a best-effort heuristic: the agent has
// no structured output mode, so output that happens to end with
// prompt-like text can mis-trigger.
func (c *correlator) turnEnded() bool {
	if c.promptMarker == "" {
		return false
	}

	b := c.buf.Bytes()
	if len(b) > promptScanWindow {
		b = b[len(b)-promptScanWindow:]
	}

	tail := strings.TrimRight(sanitize.Strip(string(b)), " \t\r\n")

	return strings.HasSuffix(tail, strings.TrimRight(c.promptMarker, " "))
}

// maybeProgress invokes the progress callback if enough time has passed
// since the last one and the sanitized preview actually changed.
func (c *correlator) maybeProgress(now time.Time) {
	if c.onProgress == nil {
		return
	}

	if now.Sub(c.lastProgressAt) < progressInterval {
		return
	}

	limit := c.maxLen - previewReserve
	if limit < previewReserve {
		limit = previewReserve
	}

	preview := sanitize.CleanWithLimit(c.buf.String(), limit)
	if preview == "" || preview == c.lastPreview {
		return
	}

	c.lastProgressAt = now
	c.lastPreview = preview
	c.onProgress(preview)
}

// finalText sanitizes the accumulated output. When stdout sanitizes to
// nothing, drained stderr is used so a failing agent still produces a
// readable reply.
func (c *correlator) finalText(stderr string) string {
	text := sanitize.CleanWithLimit(c.buf.String(), c.maxLen)
	if text == "" && stderr != "" {
		text = sanitize.CleanWithLimit(stderr, c.maxLen)
	}

	return text
}

// collectResult reports how a collect loop ended.
type collectResult struct {
	timedOut bool
	died     bool // interactive process exited mid-turn
}

// collectUntilExit drives a per-request invocation: it consumes chunks
// until the output stream closes and the process is reaped, emitting
// rate-limited progress along the way. On timeout or cancellation the
// process is terminated and whatever was captured is kept.
func collectUntilExit(ctx context.Context, h *handle, c *correlator, timeout time.Duration) collectResult {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		deadline = timer.C
	}

	var res collectResult

	chunks := h.chunks

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				// Stream closed; wait for the reaper.
				h.awaitExit(terminateGrace)
				return res
			}

			c.feed(chunk)
			c.maybeProgress(time.Now())
		case <-ticker.C:
			c.maybeProgress(time.Now())
		case <-deadline:
			res.timedOut = true

			h.terminate(terminateGrace)

			return res
		case <-ctx.Done():
			h.terminate(terminateGrace)
			return res
		}
	}
}

// collectUntilPrompt drives one turn of an interactive invocation: it
// consumes chunks until the prompt reappears. A closed stream means the
// agent process died mid-turn; partial output is still kept.
func collectUntilPrompt(ctx context.Context, h *handle, c *correlator, timeout time.Duration) collectResult {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		deadline = timer.C
	}

	var res collectResult

	for {
		select {
		case chunk, ok := <-h.chunks:
			if !ok {
				res.died = true

				h.awaitExit(terminateGrace)

				return res
			}

			if c.feed(chunk) {
				return res
			}

			c.maybeProgress(time.Now())
		case <-ticker.C:
			c.maybeProgress(time.Now())
		case <-deadline:
			res.timedOut = true

			h.terminate(terminateGrace)

			return res
		case <-ctx.Done():
			h.terminate(terminateGrace)
			return res
		}
	}
}

package agent

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"

	clierrors "github.com/bridgebot-dev/bridgebot/internal/errors"
	"github.com/bridgebot-dev/bridgebot/internal/terminal"
)

const (
	// readBufSize is the chunk size for incremental output reads.
	readBufSize = 4096

	// terminateGrace is how long a process gets between SIGTERM and
	// SIGKILL.
	terminateGrace = 2 * time.Second
)

// invocation describes one agent process launch.
type invocation struct {
	path        string
	args        []string
	dir         string
	interactive bool
	usePTY      bool
}

// launchFunc starts an agent process. Injectable so session tests can
// substitute a scripted process.
type launchFunc func(inv invocation) (*handle, error)

// handle owns one live agent process. Output chunks arrive on chunks
// (closed at EOF); exited is closed once the process has been reaped.
type handle struct {
	cmd     *exec.Cmd
	ptmx    *os.File
	stdin   io.Writer
	chunks  chan []byte
	exited  chan struct{}
	exitErr error

	// stderr is written by os/exec while the process runs; read it only
	// after exited is closed.
	stderr bytes.Buffer
}

// launch starts the agent process described by inv.
func launch(inv invocation) (*handle, error) {
	resolved, err := exec.LookPath(inv.path)
	if err != nil {
		return nil, clierrors.AgentNotFound(inv.path)
	}

	cmd := exec.Command(resolved, inv.args...)
	cmd.Dir = inv.dir

	h := &handle{
		cmd:    cmd,
		chunks: make(chan []byte, 16),
		exited: make(chan struct{}),
	}

	if inv.usePTY {
		cmd.Env = append(os.Environ(), "TERM=xterm-256color")

		// Size the agent's pty like the operator's terminal so its
		// layout survives sanitization the same way on both.
		rows, cols := terminal.Detect().PtySize()

		ptmx, startErr := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
		if startErr != nil {
			return nil, clierrors.LaunchFailed(startErr)
		}

		h.ptmx = ptmx
		h.stdin = ptmx

		go h.pump(ptmx)

		return h, nil
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, clierrors.LaunchFailed(err)
	}

	cmd.Stderr = &h.stderr

	if inv.interactive {
		stdin, pipeErr := cmd.StdinPipe()
		if pipeErr != nil {
			return nil, clierrors.LaunchFailed(pipeErr)
		}

		h.stdin = stdin
	}

	if err := cmd.Start(); err != nil {
		return nil, clierrors.LaunchFailed(err)
	}

	go h.pump(stdout)

	return h, nil
}

// pump reads process output into the chunk channel until EOF, then reaps
// the process. Reading a PTY returns an error once the child exits;
// that is treated as EOF.
func (h *handle) pump(r io.Reader) {
	buf := make([]byte, readBufSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			h.chunks <- chunk
		}

		if err != nil {
			break
		}
	}

	close(h.chunks)

	if h.ptmx != nil {
		_ = h.ptmx.Close()
	}

	h.exitErr = h.cmd.Wait()
	close(h.exited)
}

// alive reports whether the process has not yet been reaped.
func (h *handle) alive() bool {
	select {
	case <-h.exited:
		return false
	default:
		return true
	}
}

// send delivers one message to an interactive process. The message goes
// out as a single line: the agent treats the terminating newline (or
// carriage return, over a PTY) as end of input.
func (h *handle) send(message string) error {
	if h.stdin == nil {
		return errors.New("process has no input stream")
	}

	eol := "\n"
	if h.ptmx != nil {
		eol = "\r"
	}

	if _, err := io.WriteString(h.stdin, message+eol); err != nil {
		return err
	}

	return nil
}

// drainStale discards output chunks buffered between turns, without
// blocking.
func (h *handle) drainStale() {
	for {
		select {
		case _, ok := <-h.chunks:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// terminate stops the process: SIGTERM, a grace period, then SIGKILL.
// Output chunks are drained throughout so the pump goroutine can reach
// EOF and reap the process.
func (h *handle) terminate(grace time.Duration) {
	if grace <= 0 {
		grace = terminateGrace
	}

	if h.ptmx != nil {
		_ = h.ptmx.Close()
	}

	if h.cmd.Process != nil {
		_ = h.cmd.Process.Signal(syscall.SIGTERM)
	}

	if h.awaitExit(grace) {
		return
	}

	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}

	h.awaitExit(grace)
}

// awaitExit waits for the process to be reaped, draining output chunks
// in the meantime. Returns false on timeout.
func (h *handle) awaitExit(limit time.Duration) bool {
	deadline := time.After(limit)
	chunks := h.chunks

	for {
		select {
		case <-h.exited:
			return true
		case _, ok := <-chunks:
			if !ok {
				chunks = nil
			}
		case <-deadline:
			return false
		}
	}
}

// stderrText returns captured stderr, or "" while the process is still
// running.
func (h *handle) stderrText() string {
	select {
	case <-h.exited:
		return h.stderr.String()
	default:
		return ""
	}
}

package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bridgebot-dev/bridgebot/internal/agent"
	"github.com/bridgebot-dev/bridgebot/internal/fileset"
	"github.com/bridgebot-dev/bridgebot/internal/observability"
)

const tracerName = "bridgebot.bridge"

// Sessioner is the agent session surface the bridge drives. Satisfied
// by *agent.Session.
type Sessioner interface {
	Submit(ctx context.Context, message string, opts agent.SubmitOptions) (*agent.Result, error)
	Reset() string
	Close()
	SetWorkingDirectory(path string) (string, error)
	SetModel(name string)
	SetTaskID(id string)
	Model() string
	WorkingDir() string
	Stats() agent.Stats
	History(ctx context.Context) (string, error)
}

// Bridge connects one Messenger to one agent session.
type Bridge struct {
	session Sessioner
	msgr    Messenger

	maxFileBytes int64
	extensions   []string

	// mu guards tracked, the file snapshot from the previous turn.
	mu      sync.Mutex
	tracked []string
}

// Option adjusts Bridge construction.
type Option func(*Bridge)

// WithMaxFileBytes caps the size of files forwarded to the messenger.
func WithMaxFileBytes(n int64) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.maxFileBytes = n
		}
	}
}

// WithExtensions overrides the tracked file extensions.
func WithExtensions(exts []string) Option {
	return func(b *Bridge) {
		if len(exts) > 0 {
			b.extensions = exts
		}
	}
}

// New creates a Bridge over session and msgr.
func New(session Sessioner, msgr Messenger, opts ...Option) *Bridge {
	b := &Bridge{
		session:      session,
		msgr:         msgr,
		maxFileBytes: 50 << 20,
		extensions:   fileset.DefaultExtensions,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// HandleMessage processes one inbound message: commands are routed to
// the command handlers, anything else becomes an agent invocation with
// live progress, then the reply and any files the agent created are
// delivered. Transport failures during delivery are logged, not fatal.
func (b *Bridge) HandleMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	msgID := uuid.NewString()

	ctx, span := observability.Tracer(tracerName).Start(ctx, "bridge.message",
		trace.WithAttributes(
			attribute.String("message.id", msgID),
			attribute.Bool("message.command", strings.HasPrefix(text, "/")),
			attribute.Int("message.len", len(text)),
		),
	)
	defer span.End()

	logger := observability.FromContext(ctx).With(slog.String("message.id", msgID))
	ctx = observability.WithLogger(ctx, logger)

	if strings.HasPrefix(text, "/") {
		if err := b.handleCommand(ctx, text); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "command failed")

			return err
		}

		span.SetStatus(codes.Ok, "")

		return nil
	}

	if err := b.handlePrompt(ctx, logger, text); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invocation failed")

		return err
	}

	span.SetStatus(codes.Ok, "")

	return nil
}

func (b *Bridge) handlePrompt(ctx context.Context, logger *slog.Logger, text string) error {
	dir := b.session.WorkingDir()

	before, err := fileset.Snapshot(dir, b.extensions)
	if err != nil {
		logger.Warn("file snapshot failed", slog.String("error", err.Error()))
	}

	placeholder, phErr := b.msgr.SendText(ctx, "⏳ Working...")
	if phErr != nil {
		logger.Warn("progress placeholder failed", slog.String("error", phErr.Error()))
	}

	res, err := b.session.Submit(ctx, text, agent.SubmitOptions{
		Preamble: loadPreamble(dir),
		OnProgress: func(preview string) {
			if placeholder == nil {
				return
			}

			if editErr := b.msgr.EditText(ctx, placeholder, preview+"\n\n⏳"); editErr != nil {
				logger.Debug("progress edit failed", slog.String("error", editErr.Error()))
			}
		},
	})

	if placeholder != nil {
		if delErr := b.msgr.DeleteMessage(ctx, placeholder); delErr != nil {
			logger.Debug("placeholder delete failed", slog.String("error", delErr.Error()))
		}
	}

	if err != nil {
		b.sendText(ctx, logger, "❌ "+err.Error())

		return err
	}

	b.sendText(ctx, logger, b.formatReply(res))
	b.deliverNewFiles(ctx, logger, dir, before)

	return nil
}

// formatReply decorates the agent result for delivery.
func (b *Bridge) formatReply(res *agent.Result) string {
	reply := res.Text
	if reply == "" {
		reply = "The agent produced no output."
	}

	if res.TimedOut {
		reply = "⚠️ The agent timed out. Partial output:\n\n" + reply
	}

	if res.TaskID != "" {
		reply += "\n\n📋 Task ID: " + res.TaskID
	}

	return reply
}

// deliverNewFiles diffs the working tree against the pre-invocation
// snapshot and forwards every new file: images inline, everything else
// as a document. Oversized and unreadable files become a note instead.
func (b *Bridge) deliverNewFiles(ctx context.Context, logger *slog.Logger, dir string, before []string) {
	after, err := fileset.Snapshot(dir, b.extensions)
	if err != nil {
		logger.Warn("file snapshot failed", slog.String("error", err.Error()))
		return
	}

	b.mu.Lock()
	b.tracked = after
	b.mu.Unlock()

	for _, path := range fileset.Diff(before, after) {
		info, statErr := os.Stat(path)
		if statErr != nil {
			logger.Warn("new file vanished", slog.String("file", path))
			continue
		}

		if info.Size() > b.maxFileBytes {
			b.sendText(ctx, logger, fmt.Sprintf("📄 New file %s is too large to send (%d MB).", path, info.Size()>>20))
			continue
		}

		var sendErr error
		if fileset.IsImage(path) {
			sendErr = b.msgr.SendPhoto(ctx, path)
		} else {
			sendErr = b.msgr.SendFile(ctx, path)
		}

		if sendErr != nil {
			logger.Warn("file delivery failed",
				slog.String("file", path),
				slog.String("error", sendErr.Error()),
			)
		}
	}
}

// sendText delivers text, logging delivery failures instead of
// propagating them.
func (b *Bridge) sendText(ctx context.Context, logger *slog.Logger, text string) {
	if _, err := b.msgr.SendText(ctx, text); err != nil {
		logger.Warn("message delivery failed", slog.String("error", err.Error()))
	}
}

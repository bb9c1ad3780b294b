package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bridgebot-dev/bridgebot/internal/fileset"
	"github.com/bridgebot-dev/bridgebot/internal/observability"
)

const helpText = `Available commands:
/start - Show this help
/help - Show this help
/status - Session status
/info - Session status
/reset - Reset the session (forget the current task)
/kill - Terminate the agent process
/cd <dir> - Change working directory (resets the session)
/model [name] - Show or set the model
/files - List tracked files in the working directory
/get <name> - Send a file from the working directory
/tasks - List resumable tasks
/resume <id> - Resume a previous task

Anything else is sent to the agent as a prompt.`

const filesPerGroup = 10

const getMatchLimit = 5

const (
	taskListLimit = 20
	taskLineLimit = 100
)

// handleCommand routes a /command message.
func (b *Bridge) handleCommand(ctx context.Context, text string) error {
	logger := observability.FromContext(ctx)

	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	logger.Info("command received", slog.String("command", cmd))

	switch cmd {
	case "/start", "/help":
		b.sendText(ctx, logger, helpText)
	case "/status", "/info":
		b.sendText(ctx, logger, b.formatStats())
	case "/reset":
		b.sendText(ctx, logger, "🔄 "+b.session.Reset())
	case "/kill":
		b.session.Close()
		b.sendText(ctx, logger, "🛑 Agent process terminated.")
	case "/cd":
		b.commandCd(ctx, logger, args)
	case "/model":
		b.commandModel(ctx, logger, args)
	case "/files":
		b.commandFiles(ctx, logger)
	case "/get":
		b.commandGet(ctx, logger, args)
	case "/tasks":
		b.commandTasks(ctx, logger)
	case "/resume":
		b.commandResume(ctx, logger, args)
	default:
		b.sendText(ctx, logger, fmt.Sprintf("Unknown command %s. Try /help.", cmd))
	}

	return nil
}

func (b *Bridge) formatStats() string {
	st := b.session.Stats()

	state := "idle"
	if st.Active {
		state = "active"
	}

	taskID := st.TaskID
	if taskID == "" {
		taskID = "none"
	}

	return fmt.Sprintf(`📊 Session status
State: %s
Mode: %s
Model: %s
Task: %s
Messages: %d
Uptime: %ds
Directory: %s`,
		state, st.Mode, st.Model, taskID, st.Messages, st.UptimeSeconds, st.WorkingDir)
}

func (b *Bridge) commandCd(ctx context.Context, logger *slog.Logger, args []string) {
	if len(args) == 0 {
		b.sendText(ctx, logger, "Usage: /cd <directory>")
		return
	}

	msg, err := b.session.SetWorkingDirectory(strings.Join(args, " "))
	if err != nil {
		b.sendText(ctx, logger, "❌ "+err.Error())
		return
	}

	b.sendText(ctx, logger, "📁 "+msg)
}

func (b *Bridge) commandModel(ctx context.Context, logger *slog.Logger, args []string) {
	if len(args) == 0 {
		b.sendText(ctx, logger, "Current model: "+b.session.Model())
		return
	}

	b.session.SetModel(args[0])
	b.sendText(ctx, logger, fmt.Sprintf("Model set to %s. It applies once a fresh task starts (use /reset to force one).", args[0]))
}

// commandFiles lists tracked files grouped by extension, a bounded
// number per group.
func (b *Bridge) commandFiles(ctx context.Context, logger *slog.Logger) {
	dir := b.session.WorkingDir()

	paths, err := fileset.Snapshot(dir, b.extensions)
	if err != nil {
		b.sendText(ctx, logger, "❌ Could not list files: "+err.Error())
		return
	}

	if len(paths) == 0 {
		b.sendText(ctx, logger, "No tracked files in "+dir)
		return
	}

	groups := make(map[string][]string)

	for _, path := range paths {
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}

		ext := strings.ToLower(filepath.Ext(path))
		groups[ext] = append(groups[ext], rel)
	}

	exts := make([]string, 0, len(groups))
	for ext := range groups {
		exts = append(exts, ext)
	}

	sort.Strings(exts)

	var out strings.Builder

	fmt.Fprintf(&out, "📂 %d tracked files in %s\n", len(paths), dir)

	for _, ext := range exts {
		names := groups[ext]

		fmt.Fprintf(&out, "\n%s (%d):\n", ext, len(names))

		shown := names
		if len(shown) > filesPerGroup {
			shown = shown[:filesPerGroup]
		}

		for _, name := range shown {
			fmt.Fprintf(&out, "  %s\n", name)
		}

		if len(names) > filesPerGroup {
			fmt.Fprintf(&out, "  ... and %d more\n", len(names)-filesPerGroup)
		}
	}

	b.sendText(ctx, logger, strings.TrimRight(out.String(), "\n"))
}

// commandGet sends a file by exact relative path, falling back to a
// bounded substring search.
func (b *Bridge) commandGet(ctx context.Context, logger *slog.Logger, args []string) {
	if len(args) == 0 {
		b.sendText(ctx, logger, "Usage: /get <filename>")
		return
	}

	dir := b.session.WorkingDir()
	query := strings.Join(args, " ")

	exact := filepath.Join(dir, query)
	if info, err := os.Stat(exact); err == nil && !info.IsDir() {
		b.deliverFile(ctx, logger, exact, info.Size())
		return
	}

	paths, err := fileset.Snapshot(dir, b.extensions)
	if err != nil {
		b.sendText(ctx, logger, "❌ Could not search files: "+err.Error())
		return
	}

	var matches []string

	needle := strings.ToLower(query)

	for _, path := range paths {
		if strings.Contains(strings.ToLower(filepath.Base(path)), needle) {
			matches = append(matches, path)
		}

		if len(matches) == getMatchLimit {
			break
		}
	}

	if len(matches) == 0 {
		b.sendText(ctx, logger, fmt.Sprintf("No file matching %q in %s", query, dir))
		return
	}

	for _, path := range matches {
		info, statErr := os.Stat(path)
		if statErr != nil {
			continue
		}

		b.deliverFile(ctx, logger, path, info.Size())
	}
}

func (b *Bridge) deliverFile(ctx context.Context, logger *slog.Logger, path string, size int64) {
	if size > b.maxFileBytes {
		b.sendText(ctx, logger, fmt.Sprintf("📄 %s is too large to send (%d MB).", path, size>>20))
		return
	}

	var err error
	if fileset.IsImage(path) {
		err = b.msgr.SendPhoto(ctx, path)
	} else {
		err = b.msgr.SendFile(ctx, path)
	}

	if err != nil {
		logger.Warn("file delivery failed",
			slog.String("file", path),
			slog.String("error", err.Error()),
		)
		b.sendText(ctx, logger, "❌ Could not send "+path)
	}
}

func (b *Bridge) commandTasks(ctx context.Context, logger *slog.Logger) {
	out, err := b.session.History(ctx)
	if err != nil {
		b.sendText(ctx, logger, "❌ "+err.Error())
		return
	}

	if out == "" {
		b.sendText(ctx, logger, "📋 No tasks found.")
		return
	}

	lines := strings.Split(out, "\n")
	if len(lines) > taskListLimit {
		lines = lines[:taskListLimit]
	}

	var sb strings.Builder
	sb.WriteString("📋 Recent tasks:\n")

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if len(line) > taskLineLimit {
			line = line[:taskLineLimit]
		}

		sb.WriteString("\n" + line)
	}

	b.sendText(ctx, logger, sb.String()+"\n\nUse /resume <id> to continue a task.")
}

func (b *Bridge) commandResume(ctx context.Context, logger *slog.Logger, args []string) {
	if len(args) == 0 {
		b.sendText(ctx, logger, "Usage: /resume <task-id>")
		return
	}

	b.session.SetTaskID(args[0])
	b.sendText(ctx, logger, fmt.Sprintf("📋 Resuming task %s. The next message continues it.", args[0]))
}

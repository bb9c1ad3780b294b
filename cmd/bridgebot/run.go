package main

import (
	"bufio"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bridgebot-dev/bridgebot/internal/agent"
	"github.com/bridgebot-dev/bridgebot/internal/bridge"
	"github.com/bridgebot-dev/bridgebot/internal/config"
	clierrors "github.com/bridgebot-dev/bridgebot/internal/errors"
	"github.com/bridgebot-dev/bridgebot/internal/observability"
	"github.com/bridgebot-dev/bridgebot/internal/output"
)

// stdinLineLimit bounds a single input line.
const stdinLineLimit = 1 << 20

func newRunCmd() *cobra.Command {
	var (
		agentPath  string
		model      string
		workingDir string
		mode       string
		timeout    int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive bridge",
		Long: `Run the bridge on this terminal: each input line is dispatched the
same way a remote message would be. Lines starting with / are bridge
commands (/help lists them); anything else is sent to the agent.`,
		Example: `  bridgebot run
  bridgebot run --model z-ai/glm-5 --cwd ~/project
  bridgebot run --mode persistent`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			logger := observability.FromContext(cmd.Context())
			cfg := config.Load()

			if err := noInputGuard(out); err != nil {
				return err
			}

			opts, err := sessionOptions(cfg, agentPath, model, workingDir, mode, timeout)
			if err != nil {
				return err
			}

			if _, err := exec.LookPath(opts.Path); err != nil {
				return clierrors.AgentNotFound(opts.Path)
			}

			sess := agent.NewSession(opts)
			defer sess.Close()

			b := bridge.New(sess, bridge.NewConsoleMessenger(out),
				bridge.WithMaxFileBytes(cfg.MaxFileBytes()),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out.Info("bridgebot ready. Agent: %s, model: %s, mode: %s", opts.Path, opts.Model, opts.Mode)
			out.Muted("Working directory: %s", opts.WorkingDir)
			out.Muted("Type a prompt, /help for commands, Ctrl-D to exit.")

			lines := make(chan string)

			go func() {
				defer close(lines)

				scanner := bufio.NewScanner(os.Stdin)
				scanner.Buffer(make([]byte, 64*1024), stdinLineLimit)

				for scanner.Scan() {
					select {
					case lines <- scanner.Text():
					case <-ctx.Done():
						return
					}
				}
			}()

			for {
				select {
				case <-ctx.Done():
					out.Println()
					out.Info("Shutting down")

					return nil
				case line, ok := <-lines:
					if !ok {
						return nil
					}

					trimmed := strings.TrimSpace(line)
					if trimmed == "/quit" || trimmed == "/exit" {
						return nil
					}

					if err := b.HandleMessage(ctx, line); err != nil {
						logger.Warn("message handling failed", slog.String("error", err.Error()))
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&agentPath, "agent", "", "Agent executable (default from config)")
	cmd.Flags().StringVar(&model, "model", "", "Model for fresh invocations (default from config)")
	cmd.Flags().StringVar(&workingDir, "cwd", "", "Agent working directory (default from config)")
	cmd.Flags().StringVar(&mode, "mode", "", "Invocation mode: per-request, persistent, pty")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Invocation timeout in seconds")

	return cmd
}

// noInputGuard rejects an interactive run when input was explicitly
// disabled and no pipe is attached to replace the terminal.
func noInputGuard(out *output.Writer) error {
	if out.NoInput && out.Terminal().IsTTY {
		return clierrors.New(clierrors.ExitUsage, "run needs an input stream").
			WithHint("Drop --no-input, or pipe messages on stdin")
	}

	return nil
}

// sessionOptions merges flags over configuration into agent options.
func sessionOptions(cfg *config.Config, agentPath, model, workingDir, mode string, timeout int) (agent.Options, error) {
	opts := agent.Options{
		Path:         cfg.AgentPath(),
		Model:        cfg.Model(),
		WorkingDir:   cfg.WorkingDir(),
		Timeout:      cfg.Timeout(),
		AutoApprove:  cfg.AutoApprove(),
		PromptMarker: cfg.PromptMarker(),
		MaxReplyLen:  cfg.MaxMessageLen(),
	}

	if agentPath != "" {
		opts.Path = agentPath
	}

	if model != "" {
		opts.Model = model
	}

	if workingDir != "" {
		opts.WorkingDir = workingDir
	}

	if timeout > 0 {
		opts.Timeout = time.Duration(timeout) * time.Second
	}

	modeStr := cfg.Mode()
	if mode != "" {
		modeStr = mode
	}

	parsed, err := agent.ParseMode(modeStr)
	if err != nil {
		return agent.Options{}, clierrors.New(clierrors.ExitUsage, err.Error()).
			WithHint("Use --mode per-request, persistent, or pty")
	}

	opts.Mode = parsed

	info, err := os.Stat(opts.WorkingDir)
	if err != nil || !info.IsDir() {
		return agent.Options{}, clierrors.InvalidDirectory(opts.WorkingDir)
	}

	return opts, nil
}

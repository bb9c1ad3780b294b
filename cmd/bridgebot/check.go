package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bridgebot-dev/bridgebot/internal/config"
	"github.com/bridgebot-dev/bridgebot/internal/doctor"
	"github.com/bridgebot-dev/bridgebot/internal/output"
)

func newCheckCmd() *cobra.Command {
	var showConfig bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Diagnose common issues",
		Long: `Run diagnostic checks to identify configuration problems.

Checks performed:
  - Agent CLI availability and version
  - Working directory existence
  - Invocation mode and timeout configuration
  - Context preamble files`,
		Example: `  bridgebot check
  bridgebot check --show-config`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			out.Println("Bridgebot Check")
			out.Println("===============")
			out.Println()

			runner := doctor.New()
			results := runner.Run(cmd.Context())

			maxNameLen := 0
			for _, r := range results {
				if len(r.Name) > maxNameLen {
					maxNameLen = len(r.Name)
				}
			}

			for _, r := range results {
				padding := maxNameLen - len(r.Name) + 4

				switch r.Status {
				case doctor.StatusPass:
					out.Success("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
				case doctor.StatusWarn:
					out.Warning("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
				case doctor.StatusFail:
					out.Failure("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
				default:
					out.Print("%s %-*s%s\n", r.Status.Symbol(), len(r.Name)+padding, r.Name, r.Message)
				}

				if r.Detail != "" {
					out.Muted("    %s", r.Detail)
				}
			}

			passed, failed, warnings := doctor.Summary(results)
			out.Println()
			out.Print("%d passed", passed)
			if failed > 0 {
				out.Print(", %d failed", failed)
			}
			if warnings > 0 {
				out.Print(", %d warning(s)", warnings)
			}
			out.Println()

			if showConfig {
				dump, err := yaml.Marshal(config.Load().All())
				if err != nil {
					return err
				}

				out.Println()
				out.Println("Effective configuration:")
				out.Print("%s", dump)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showConfig, "show-config", false, "Print the effective configuration as YAML")

	return cmd
}

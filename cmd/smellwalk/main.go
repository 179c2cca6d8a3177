// Package main provides the entry point for the smellwalk CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/smellwalk/cmd/smellwalk/commands"
	"github.com/Sumatoshi-tech/smellwalk/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "smellwalk",
		Short: "Correlate removed code smells with refactorings and technical debt",
		Long: `smellwalk walks the refactoring commits of a Java repository, detects which
Designite smells each commit removed, links every removal to the refactoring
that caused it and measures the SonarQube technical-debt delta.

Commands:
  run           Mine refactorings, correlate smell removals, write the result file
  refactorings  Mine refactorings only and write the refactoring log`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	commands.RegisterPersistentFlags(rootCmd)

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewRefactoringsCommand())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "smellwalk %s\n", version.String())
		},
	}
}

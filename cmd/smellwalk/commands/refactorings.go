package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/smellwalk/pkg/config"
	"github.com/Sumatoshi-tech/smellwalk/pkg/observability"
)

// RefactoringsCommand holds the state of the refactorings command.
type RefactoringsCommand struct {
	repo repositoryFlags

	newRuntime runtimeFunc
	mine       mineFunc
}

// NewRefactoringsCommand creates the refactorings command.
func NewRefactoringsCommand() *cobra.Command {
	return newRefactoringsCommandWithDeps(newRuntime, mineCommits)
}

func newRefactoringsCommandWithDeps(
	runtimeFn runtimeFunc,
	mine mineFunc,
) *cobra.Command {
	rc := &RefactoringsCommand{newRuntime: runtimeFn, mine: mine}

	cmd := &cobra.Command{
		Use:   "refactorings [repository]",
		Short: "Mine refactorings and write the refactoring log",
		Long: `Run RefactoringMiner over a branch or commit range and write every mined
refactoring (commit, type, description) to the refactoring log. No smells are
detected and no debt is measured.`,
		Args: cobra.MaximumNArgs(1),
		RunE: rc.run,
	}

	rc.repo.register(cmd)

	return cmd
}

func (rc *RefactoringsCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, func(cfg *config.Config) { rc.repo.apply(cfg, args) })
	if err != nil {
		return err
	}

	// The log is the only output of this command.
	cfg.Mining.WriteRefactorings = true

	rt, err := rc.newRuntime(cfg, observability.ModeMine)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	defer rt.Close(ctx)

	out := newConsole(cmd.OutOrStdout(), boolFlag(cmd, flagSilent), boolFlag(cmd, flagNoColor))

	commits, err := rc.mine(ctx, rt)
	if err != nil {
		return err
	}

	err = writeRefactoringLog(rt, commits)
	if err != nil {
		return fmt.Errorf("write refactoring log: %w", err)
	}

	total := 0
	for _, commit := range commits {
		total += len(commit.Refactorings)
	}

	out.printf("%d refactorings in %d commits written to %s\n",
		total, len(commits), filepath.Join(cfg.Results.Dir, cfg.Results.RefactoringFile))

	return nil
}

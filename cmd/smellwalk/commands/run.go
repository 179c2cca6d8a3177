package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/smellwalk/pkg/config"
	"github.com/Sumatoshi-tech/smellwalk/pkg/matching"
	"github.com/Sumatoshi-tech/smellwalk/pkg/observability"
	"github.com/Sumatoshi-tech/smellwalk/pkg/refactoring"
	"github.com/Sumatoshi-tech/smellwalk/pkg/report"
)

// ErrResultNotWritten is returned when the correlation finished but the
// result file could not be written.
var ErrResultNotWritten = errors.New("result file not written")

// RunCommand holds the state of the run command.
type RunCommand struct {
	repo     repositoryFlags
	analysis string
	jar      string
	sonarURL string

	newRuntime runtimeFunc
	mine       mineFunc
	correlate  correlateFunc
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(newRuntime, mineCommits, correlateCommits)
}

func newRunCommandWithDeps(
	runtimeFn runtimeFunc,
	mine mineFunc,
	correlateFn correlateFunc,
) *cobra.Command {
	rc := &RunCommand{newRuntime: runtimeFn, mine: mine, correlate: correlateFn}

	cmd := &cobra.Command{
		Use:   "run [repository]",
		Short: "Correlate smell removals with refactorings and debt deltas",
		Long: `Mine the refactoring commits of a repository, then for every commit compare
the Designite smells of the parent and the commit, link each removed smell
to the refactoring that caused it and measure the SonarQube debt delta of
the refactored file. Rows are written once, after the last commit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: rc.run,
	}

	rc.repo.register(cmd)
	cmd.Flags().StringVar(&rc.analysis, "analysis", "", "Removal policy: strict or minimal")
	cmd.Flags().StringVar(&rc.jar, "designite-jar", "", "DesigniteJava jar")
	cmd.Flags().StringVar(&rc.sonarURL, "sonar-url", "", "SonarQube server URL")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, func(cfg *config.Config) { rc.apply(cfg, args) })
	if err != nil {
		return err
	}

	// Mining can take hours; a bad table must fail before it starts.
	table, err := matching.LoadTable(cfg.Analysis.AdmissibilityTable)
	if err != nil {
		return err
	}

	rt, err := rc.newRuntime(cfg, observability.ModeRun)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	defer rt.Close(ctx)

	rt.Logger.DebugContext(ctx, "loaded admissibility table", "smell_types", table.SmellTypes())

	out := newConsole(cmd.OutOrStdout(), boolFlag(cmd, flagSilent), boolFlag(cmd, flagNoColor))

	out.printf("mining refactorings in %s (%s mode)\n", cfg.Repository.Path, cfg.Mining.Mode)

	commits, err := rc.mine(ctx, rt)
	if err != nil {
		return err
	}

	out.printf("mined %d refactoring commits\n", len(commits))

	err = writeRefactoringLog(rt, commits)
	if err != nil {
		return err
	}

	acc := report.NewAccumulator()

	summary, runErr := rc.correlate(ctx, rt, table, commits, acc, out.progress)
	if runErr != nil {
		out.summary(summary, outputStatus{Err: runErr})

		return fmt.Errorf("correlate: %w", runErr)
	}

	status := writeResults(cfg, acc)
	out.summary(summary, status)

	if !status.Written {
		return fmt.Errorf("%w: %w", ErrResultNotWritten, status.Err)
	}

	rt.Logger.InfoContext(ctx, "run finished",
		"records", summary.Records,
		"removed", acc.Removed(),
		"file", status.Path)

	return nil
}

func (rc *RunCommand) apply(cfg *config.Config, args []string) {
	rc.repo.apply(cfg, args)

	if rc.analysis != "" {
		cfg.Analysis.Mode = rc.analysis
	}

	if rc.jar != "" {
		cfg.Designite.Jar = rc.jar
	}

	if rc.sonarURL != "" {
		cfg.Sonar.ServerURL = rc.sonarURL
	}
}

// writeRefactoringLog writes the mined refactorings when the config asks for it.
func writeRefactoringLog(rt *Runtime, commits []refactoring.CommitRecord) error {
	cfg := rt.Config
	if !cfg.Mining.WriteRefactorings {
		return nil
	}

	path := filepath.Join(cfg.Results.Dir, cfg.Results.RefactoringFile)

	err := report.WriteRefactoringLog(path, commits)
	if err != nil {
		return err
	}

	rt.Logger.Info("refactoring log written", "file", path, "commits", len(commits))

	return nil
}

func writeResults(cfg *config.Config, acc *report.Accumulator) outputStatus {
	path := filepath.Join(cfg.Results.Dir, cfg.Results.File)

	err := acc.WriteCSV(path)
	if err != nil {
		return outputStatus{Path: path, Err: err}
	}

	status := outputStatus{Path: path, Written: true}

	info, statErr := os.Stat(path)
	if statErr == nil {
		status.Size = info.Size()
	}

	return status
}

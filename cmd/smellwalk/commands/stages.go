package commands

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/smellwalk/pkg/config"
	"github.com/Sumatoshi-tech/smellwalk/pkg/correlate"
	"github.com/Sumatoshi-tech/smellwalk/pkg/gitlib"
	"github.com/Sumatoshi-tech/smellwalk/pkg/matching"
	"github.com/Sumatoshi-tech/smellwalk/pkg/observability"
	"github.com/Sumatoshi-tech/smellwalk/pkg/refactoring"
	"github.com/Sumatoshi-tech/smellwalk/pkg/report"
	"github.com/Sumatoshi-tech/smellwalk/pkg/smell"
	"github.com/Sumatoshi-tech/smellwalk/pkg/techdebt"
)

// runtimeFunc builds the Runtime of a command.
type runtimeFunc func(cfg *config.Config, mode observability.AppMode) (*Runtime, error)

// mineFunc produces the refactoring commits to walk.
type mineFunc func(ctx context.Context, rt *Runtime) ([]refactoring.CommitRecord, error)

// correlateFunc walks commits and appends result rows to acc.
type correlateFunc func(
	ctx context.Context,
	rt *Runtime,
	table *matching.Table,
	commits []refactoring.CommitRecord,
	acc *report.Accumulator,
	progress func(correlate.Progress),
) (correlate.Summary, error)

func mineCommits(ctx context.Context, rt *Runtime) ([]refactoring.CommitRecord, error) {
	cfg := rt.Config

	miner, err := refactoring.NewRefactoringMiner(refactoring.RefactoringMinerConfig{
		Binary:  cfg.Mining.Binary,
		RepoDir: cfg.Repository.Path,
		Timeout: cfg.Mining.Timeout,
	}, rt.Runner, rt.Logger)
	if err != nil {
		return nil, err
	}

	commits, err := miner.Mine(ctx, refactoring.MineOptions{
		Mode:   cfg.Mining.Mode,
		Branch: cfg.Repository.Branch,
		Start:  cfg.Mining.StartCommit,
		End:    cfg.Mining.EndCommit,
	})
	if err != nil {
		return nil, fmt.Errorf("mine refactorings: %w", err)
	}

	rt.Logger.InfoContext(ctx, "mined refactorings",
		"commits", len(commits),
		"languages", refactoring.LanguageCounts(commits))

	return commits, nil
}

func correlateCommits(
	ctx context.Context,
	rt *Runtime,
	table *matching.Table,
	commits []refactoring.CommitRecord,
	acc *report.Accumulator,
	progress func(correlate.Progress),
) (correlate.Summary, error) {
	cfg := rt.Config

	if cfg.Mining.JavaOnly {
		var dropped int

		commits, dropped = refactoring.JavaCommits(commits)
		rt.Logger.InfoContext(ctx, "dropped commits without java refactorings",
			"dropped", dropped,
			"kept", len(commits))
	}

	repo, err := gitlib.OpenRepository(cfg.Repository.Path)
	if err != nil {
		return correlate.Summary{}, err
	}
	defer repo.Free()

	worktree, err := gitlib.NewWorktree(repo, rt.Logger)
	if err != nil {
		return correlate.Summary{}, err
	}

	designite := smell.NewDesignite(smell.DesigniteConfig{
		Java:      cfg.Designite.Java,
		Jar:       cfg.Designite.Jar,
		OutputDir: cfg.Designite.OutputDir,
		Timeout:   cfg.Designite.Timeout,
	}, rt.Runner, rt.Logger)

	sonar := techdebt.NewSonar(techdebt.SonarConfig{
		ServerURL:    cfg.Sonar.ServerURL,
		Token:        cfg.Sonar.Token,
		Scanner:      cfg.Sonar.Scanner,
		ProjectKey:   cfg.Sonar.ProjectKey,
		BaseDir:      worktree.Dir(),
		WorkDir:      cfg.Sonar.WorkDir,
		Properties:   cfg.Sonar.Properties,
		PollInterval: cfg.Sonar.PollInterval,
		TaskTimeout:  cfg.Sonar.TaskTimeout,
		PageSize:     cfg.Sonar.PageSize,
	}, rt.Runner, rt.HTTP, rt.Logger)

	engine, err := correlate.NewEngine(correlate.Deps{
		Worktree: worktree,
		Detector: smell.NewSnapshotProvider(designite, worktree.Dir(), rt.Logger),
		Scanner:  sonar,
		Matcher:  matching.NewMatcher(table, rt.Logger),
	}, correlate.Options{
		Mode:                   correlate.Mode(cfg.Analysis.Mode),
		Classifier:             techdebt.NewClassifier(cfg.Analysis.DebtMajorThreshold),
		MaxConsecutiveFailures: cfg.Analysis.MaxConsecutiveFailures,
		Logger:                 rt.Logger,
		Tracer:                 rt.Tracer,
		Metrics:                rt.Metrics,
		Progress:               progress,
	})
	if err != nil {
		return correlate.Summary{}, err
	}

	return engine.Run(ctx, commits, acc)
}

// Package commands implements the smellwalk CLI commands.
package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/smellwalk/pkg/config"
)

// Persistent flag names.
const (
	flagConfig  = "config"
	flagVerbose = "verbose"
	flagSilent  = "silent"
	flagNoColor = "no-color"
)

// RegisterPersistentFlags adds the flags shared by every command to root.
func RegisterPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().String(flagConfig, "", "Config file (default: smellwalk.yaml in ., ./config or /etc/smellwalk)")
	root.PersistentFlags().BoolP(flagVerbose, "v", false, "Debug logging")
	root.PersistentFlags().Bool(flagSilent, false, "Disable progress output")
	root.PersistentFlags().Bool(flagNoColor, false, "Disable colored output")
}

// repositoryFlags override the repository and mining sections of the config.
type repositoryFlags struct {
	branch     string
	start      string
	end        string
	miner      string
	resultsDir string
}

func (rf *repositoryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&rf.branch, "branch", "b", "", "Branch to mine (branch mode)")
	cmd.Flags().StringVar(&rf.start, "start", "", "First commit of the mined range (switches to range mode)")
	cmd.Flags().StringVar(&rf.end, "end", "", "Last commit of the mined range (switches to range mode)")
	cmd.Flags().StringVar(&rf.miner, "refactoring-miner", "", "RefactoringMiner executable")
	cmd.Flags().StringVar(&rf.resultsDir, "results-dir", "", "Directory receiving the result files")
}

func (rf *repositoryFlags) apply(cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.Repository.Path = args[0]
	}

	if rf.branch != "" {
		cfg.Repository.Branch = rf.branch
		cfg.Mining.Mode = config.ModeBranch
	}

	if rf.start != "" || rf.end != "" {
		cfg.Mining.StartCommit = rf.start
		cfg.Mining.EndCommit = rf.end
		cfg.Mining.Mode = config.ModeRange
	}

	if rf.miner != "" {
		cfg.Mining.Binary = rf.miner
	}

	if rf.resultsDir != "" {
		cfg.Results.Dir = rf.resultsDir
	}
}

// loadConfig reads the config file named by --config, lets apply override
// it and validates the result.
func loadConfig(cmd *cobra.Command, apply func(cfg *config.Config)) (*config.Config, error) {
	cfg, err := config.LoadConfig(stringFlag(cmd, flagConfig))
	if err != nil {
		return nil, err
	}

	apply(cfg)

	if boolFlag(cmd, flagVerbose) {
		cfg.Logging.Level = "debug"
	}

	err = config.Validate(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func parseLevel(name string) slog.Level {
	var level slog.Level

	err := level.UnmarshalText([]byte(strings.ToLower(name)))
	if err != nil {
		return slog.LevelInfo
	}

	return level
}

func stringFlag(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}

	return val
}

func boolFlag(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}

	return val
}

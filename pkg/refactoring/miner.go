package refactoring

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/smellwalk/pkg/gitlib"
	"github.com/Sumatoshi-tech/smellwalk/pkg/toolexec"
)

//go:embed schema.json
var outputSchema string

// Mining modes.
const (
	ModeBranch = "branch"
	ModeRange  = "range"
)

var (
	// ErrMalformedOutput is returned when the miner output does not match the expected format.
	ErrMalformedOutput = errors.New("malformed refactoring miner output")
	// ErrInvalidMode is returned for an unknown mining mode or missing mode arguments.
	ErrInvalidMode = errors.New("invalid mining mode")
)

// MineOptions selects the commits to mine.
type MineOptions struct {
	Mode   string
	Branch string
	Start  string
	End    string
}

func (o MineOptions) validate() error {
	switch o.Mode {
	case ModeBranch:
		if o.Branch == "" {
			return fmt.Errorf("%w: branch mode needs a branch", ErrInvalidMode)
		}
	case ModeRange:
		if o.Start == "" || o.End == "" {
			return fmt.Errorf("%w: range mode needs start and end commits", ErrInvalidMode)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, o.Mode)
	}

	return nil
}

// Miner produces the ordered list of commits that performed refactorings.
type Miner interface {
	Mine(ctx context.Context, opts MineOptions) ([]CommitRecord, error)
}

// RefactoringMiner drives the RefactoringMiner command line tool.
type RefactoringMiner struct {
	binary     string
	repoDir    string
	scratchDir string
	runner     toolexec.Runner
	timeout    time.Duration
	logger     *slog.Logger
	schema     *gojsonschema.Schema
}

// RefactoringMinerConfig configures the RefactoringMiner adapter.
type RefactoringMinerConfig struct {
	Binary  string
	RepoDir string
	// ScratchDir receives the JSON output; empty uses the system temp dir.
	ScratchDir string
	// Timeout bounds one mining run; zero means no limit.
	Timeout time.Duration
}

// NewRefactoringMiner creates the adapter.
func NewRefactoringMiner(cfg RefactoringMinerConfig, runner toolexec.Runner, logger *slog.Logger) (*RefactoringMiner, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(outputSchema))
	if err != nil {
		return nil, fmt.Errorf("load miner output schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &RefactoringMiner{
		binary:     cfg.Binary,
		repoDir:    cfg.RepoDir,
		scratchDir: cfg.ScratchDir,
		runner:     runner,
		timeout:    cfg.Timeout,
		logger:     logger,
		schema:     schema,
	}, nil
}

// Mine implements Miner.
func (m *RefactoringMiner) Mine(ctx context.Context, opts MineOptions) ([]CommitRecord, error) {
	err := opts.validate()
	if err != nil {
		return nil, err
	}

	outDir, err := os.MkdirTemp(m.scratchDir, "smellwalk-miner-")
	if err != nil {
		return nil, fmt.Errorf("create miner scratch dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	outFile := filepath.Join(outDir, "refactorings.json")

	var args []string
	if opts.Mode == ModeRange {
		args = []string{"-bc", m.repoDir, opts.Start, opts.End, "-json", outFile}
	} else {
		args = []string{"-a", m.repoDir, opts.Branch, "-json", outFile}
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	m.logger.InfoContext(ctx, "running refactoring miner", "mode", opts.Mode, "repository", m.repoDir)

	_, err = m.runner.Run(ctx, toolexec.Command{Name: m.binary, Args: args})
	if err != nil {
		return nil, fmt.Errorf("refactoring miner: %w", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		return nil, fmt.Errorf("read miner output: %w", err)
	}

	commits, err := m.Parse(data)
	if err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "refactoring miner done", "commits_with_refactorings", len(commits))

	return commits, nil
}

type minerOutput struct {
	Commits []minerCommit `json:"commits"`
}

type minerCommit struct {
	SHA1         string             `json:"sha1"`
	Refactorings []minerRefactoring `json:"refactorings"`
}

type minerRefactoring struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Left        []minerLocation `json:"leftSideLocations"`
	Right       []minerLocation `json:"rightSideLocations"`
}

type minerLocation struct {
	FilePath        string  `json:"filePath"`
	StartLine       int     `json:"startLine"`
	EndLine         int     `json:"endLine"`
	CodeElementType string  `json:"codeElementType"`
	CodeElement     *string `json:"codeElement"`
}

// Parse validates and decodes RefactoringMiner JSON output. Commits without
// refactorings are dropped; the order of the remaining commits and of each
// commit's refactorings is preserved.
func (m *RefactoringMiner) Parse(data []byte) ([]CommitRecord, error) {
	result, err := m.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrMalformedOutput, strings.Join(msgs, "; "))
	}

	var out minerOutput

	err = json.Unmarshal(data, &out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}

	commits := make([]CommitRecord, 0, len(out.Commits))

	for _, c := range out.Commits {
		if len(c.Refactorings) == 0 {
			continue
		}

		hash, hashErr := gitlib.ParseHash(c.SHA1)
		if hashErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedOutput, hashErr)
		}

		record := CommitRecord{Hash: hash, Refactorings: make([]Refactoring, 0, len(c.Refactorings))}

		for _, r := range c.Refactorings {
			t := Type(r.Type)
			if !t.Known() {
				m.logger.Debug("unrecognised refactoring type", "type", r.Type, "commit", c.SHA1)
			}

			record.Refactorings = append(record.Refactorings, Refactoring{
				Type:        t,
				Description: r.Description,
				LeftSide:    convertLocations(r.Left),
				RightSide:   convertLocations(r.Right),
			})
		}

		commits = append(commits, record)
	}

	return commits, nil
}

func convertLocations(in []minerLocation) []Location {
	out := make([]Location, 0, len(in))

	for _, loc := range in {
		element := ""
		if loc.CodeElement != nil {
			element = *loc.CodeElement
		}

		out = append(out, Location{
			FilePath:        loc.FilePath,
			StartLine:       loc.StartLine,
			EndLine:         loc.EndLine,
			CodeElementType: loc.CodeElementType,
			CodeElement:     element,
		})
	}

	return out
}

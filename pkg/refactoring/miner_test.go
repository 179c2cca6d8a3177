package refactoring_test

import (
	"context"
	"errors"
	"os"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/smellwalk/pkg/refactoring"
	"github.com/Sumatoshi-tech/smellwalk/pkg/toolexec"
)

const (
	shaA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	shaB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	shaC = "cccccccccccccccccccccccccccccccccccccccc"
)

const sampleOutput = `{
  "commits": [
    {
      "repository": "/repo",
      "sha1": "` + shaA + `",
      "url": "",
      "refactorings": [
        {
          "type": "Extract Class",
          "description": "Extract Class\ta.b.FooHelper from class a.b.Foo",
          "leftSideLocations": [
            {"filePath": "src/main/java/a/b/Foo.java", "startLine": 3, "endLine": 40,
             "codeElementType": "TYPE_DECLARATION", "codeElement": "a.b.Foo"}
          ],
          "rightSideLocations": []
        },
        {
          "type": "Extract Method",
          "description": "Extract Method bar()",
          "leftSideLocations": [
            {"filePath": "src/main/java/a/b/Foo.java", "codeElement": null}
          ]
        }
      ]
    },
    {"sha1": "` + shaB + `", "refactorings": []},
    {
      "sha1": "` + shaC + `",
      "refactorings": [
        {"type": "Brand New Kind", "description": "x", "leftSideLocations": []}
      ]
    }
  ]
}`

type fakeRunner struct {
	output []byte
	err    error
	calls  []toolexec.Command
}

func (f *fakeRunner) Run(_ context.Context, cmd toolexec.Command) ([]byte, error) {
	f.calls = append(f.calls, cmd)

	if f.err != nil {
		return nil, f.err
	}

	idx := slices.Index(cmd.Args, "-json")
	if idx >= 0 && f.output != nil {
		err := os.WriteFile(cmd.Args[idx+1], f.output, 0o600)
		if err != nil {
			return nil, err
		}
	}

	return nil, nil
}

func newMiner(t *testing.T, runner toolexec.Runner) *refactoring.RefactoringMiner {
	t.Helper()

	miner, err := refactoring.NewRefactoringMiner(refactoring.RefactoringMinerConfig{
		Binary:     "RefactoringMiner",
		RepoDir:    "/repo",
		ScratchDir: t.TempDir(),
	}, runner, nil)
	require.NoError(t, err)

	return miner
}

func TestParseKeepsOrderAndDropsEmptyCommits(t *testing.T) {
	t.Parallel()

	commits, err := newMiner(t, &fakeRunner{}).Parse([]byte(sampleOutput))
	require.NoError(t, err)
	require.Len(t, commits, 2)

	assert.Equal(t, shaA, commits[0].Hash.String())
	assert.Equal(t, shaC, commits[1].Hash.String())

	first := commits[0].Refactorings
	require.Len(t, first, 2)
	assert.Equal(t, refactoring.ExtractClass, first[0].Type)
	assert.Equal(t, refactoring.ExtractMethod, first[1].Type)

	primary, ok := first[0].Primary()
	require.True(t, ok)
	assert.Equal(t, "src/main/java/a/b/Foo.java", primary.FilePath)
	assert.Equal(t, "a.b.Foo", primary.CodeElement)
	assert.Equal(t, 3, primary.StartLine)
	assert.Empty(t, first[1].LeftSide[0].CodeElement)

	unknown := commits[1].Refactorings[0]
	assert.False(t, unknown.Type.Known())

	_, ok = unknown.Primary()
	assert.False(t, ok)
}

func TestParseRejectsMalformedOutput(t *testing.T) {
	t.Parallel()

	miner := newMiner(t, &fakeRunner{})

	cases := map[string]string{
		"not json":        `{"commits": [`,
		"missing commits": `{}`,
		"bad sha":         `{"commits": [{"sha1": "xyz", "refactorings": []}]}`,
		"missing type": `{"commits": [{"sha1": "` + shaA + `", "refactorings": [
			{"description": "d", "leftSideLocations": []}]}]}`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := miner.Parse([]byte(input))
			require.ErrorIs(t, err, refactoring.ErrMalformedOutput)
		})
	}
}

func TestMineBranchMode(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: []byte(sampleOutput)}

	commits, err := newMiner(t, runner).Mine(context.Background(), refactoring.MineOptions{
		Mode:   refactoring.ModeBranch,
		Branch: "main",
	})
	require.NoError(t, err)
	assert.Len(t, commits, 2)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "RefactoringMiner", runner.calls[0].Name)
	assert.Equal(t, []string{"-a", "/repo", "main", "-json"}, runner.calls[0].Args[:4])
}

func TestMineRangeMode(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: []byte(`{"commits": []}`)}

	commits, err := newMiner(t, runner).Mine(context.Background(), refactoring.MineOptions{
		Mode:  refactoring.ModeRange,
		Start: shaA,
		End:   shaB,
	})
	require.NoError(t, err)
	assert.Empty(t, commits)
	assert.Equal(t, []string{"-bc", "/repo", shaA, shaB, "-json"}, runner.calls[0].Args[:5])
}

func TestMineValidatesOptions(t *testing.T) {
	t.Parallel()

	miner := newMiner(t, &fakeRunner{})

	for _, opts := range []refactoring.MineOptions{
		{Mode: "sideways"},
		{Mode: refactoring.ModeBranch},
		{Mode: refactoring.ModeRange, Start: shaA},
	} {
		_, err := miner.Mine(context.Background(), opts)
		require.ErrorIs(t, err, refactoring.ErrInvalidMode)
	}
}

func TestMinePropagatesToolFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	_, err := newMiner(t, &fakeRunner{err: boom}).Mine(context.Background(), refactoring.MineOptions{
		Mode:   refactoring.ModeBranch,
		Branch: "main",
	})
	require.ErrorIs(t, err, boom)
}

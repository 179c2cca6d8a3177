package report_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/smellwalk/pkg/gitlib"
	"github.com/Sumatoshi-tech/smellwalk/pkg/refactoring"
	"github.com/Sumatoshi-tech/smellwalk/pkg/report"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)

	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	return rows
}

func TestAccumulatorWriteCSV(t *testing.T) {
	t.Parallel()

	delta := int64(-15)

	acc := report.NewAccumulator()
	acc.Append(report.Record{
		CommitHash:     "c1",
		ClassName:      "Foo",
		CommitterName:  "Ada, L.",
		CommitterEmail: "ada@example.com",
		SmellType:      "God Class",
	})
	acc.Append(report.Record{
		CommitHash:      "c1",
		ClassName:       "Foo",
		MethodName:      "bar",
		SmellType:       "Long Method",
		Removed:         true,
		RefactoringType: "Extract Method",
		TDDelta:         &delta,
		TDClass:         "minor_increase",
	})

	assert.Equal(t, 2, acc.Len())
	assert.Equal(t, 1, acc.Removed())

	path := filepath.Join(t.TempDir(), "out", "datasets.csv")
	require.NoError(t, acc.WriteCSV(path))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, report.Header, rows[0])
	assert.Equal(t, []string{"c1", "Foo", "", "Ada, L.", "ada@example.com", "God Class", "false", "", "", ""}, rows[1])
	assert.Equal(t, []string{"c1", "Foo", "bar", "", "", "Long Method", "true", "Extract Method", "-15", "minor_increase"}, rows[2])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestAccumulatorOverwrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "datasets.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale\nstale\nstale\n"), 0o600))

	require.NoError(t, report.NewAccumulator().WriteCSV(path))

	rows := readCSV(t, path)
	assert.Equal(t, [][]string{report.Header}, rows)
}

func TestWriteCSVFailureLeavesNoFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	err := report.NewAccumulator().WriteCSV(filepath.Join(blocker, "datasets.csv"))
	require.Error(t, err)
}

func TestWriteRefactoringLog(t *testing.T) {
	t.Parallel()

	hash, err := gitlib.ParseHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, err)

	commits := []refactoring.CommitRecord{{
		Hash: hash,
		Refactorings: []refactoring.Refactoring{
			{Type: refactoring.ExtractClass, Description: "Extract Class\ta.b.Helper from class a.b.Foo"},
			{Type: refactoring.RenameMethod, Description: "Rename Method x() to y()"},
		},
	}}

	path := filepath.Join(t.TempDir(), "refactoringFound.csv")
	require.NoError(t, report.WriteRefactoringLog(path, commits))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, report.RefactoringLogHeader, rows[0])
	assert.Equal(t, []string{hash.String(), "Extract Class", "Extract Class a.b.Helper from class a.b.Foo"}, rows[1])
	assert.Equal(t, "Rename Method", rows[2][1])
}

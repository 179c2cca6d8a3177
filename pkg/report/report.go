// Package report accumulates correlation results and writes the result file
// and the refactoring side artifact.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/Sumatoshi-tech/smellwalk/pkg/refactoring"
)

// Header is the fixed column header of the result file.
var Header = []string{
	"commit_hash",
	"class_name",
	"method_name",
	"committer_name",
	"committer_email",
	"smell_type",
	"removed",
	"refactoring_type",
	"td_delta",
	"td_class",
}

// RefactoringLogHeader is the column header of the refactoring side artifact.
var RefactoringLogHeader = []string{"commit_hash", "refactoring_type", "description"}

// Record is one result row: a smell of a commit's parent and what became
// of it in the commit. Optional fields are empty when unset; TDDelta is nil
// unless a cause was found.
type Record struct {
	CommitHash      string `csv:"commit_hash"`
	ClassName       string `csv:"class_name"`
	MethodName      string `csv:"method_name"`
	CommitterName   string `csv:"committer_name"`
	CommitterEmail  string `csv:"committer_email"`
	SmellType       string `csv:"smell_type"`
	Removed         bool   `csv:"removed"`
	RefactoringType string `csv:"refactoring_type"`
	TDDelta         *int64 `csv:"td_delta"`
	TDClass         string `csv:"td_class"`
}

// refactoringLogRow is one row of the refactoring side artifact.
type refactoringLogRow struct {
	CommitHash      string `csv:"commit_hash"`
	RefactoringType string `csv:"refactoring_type"`
	Description     string `csv:"description"`
}

// Accumulator collects records in memory until the run ends. It is not
// safe for concurrent use.
type Accumulator struct {
	records []Record
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds records.
func (a *Accumulator) Append(records ...Record) {
	a.records = append(a.records, records...)
}

// Len returns the number of records.
func (a *Accumulator) Len() int {
	return len(a.records)
}

// Records returns the accumulated records in append order.
func (a *Accumulator) Records() []Record {
	return a.records
}

// Removed returns how many records have the removed flag set.
func (a *Accumulator) Removed() int {
	n := 0

	for _, r := range a.records {
		if r.Removed {
			n++
		}
	}

	return n
}

// WriteCSV writes every record to path, replacing any existing file. The
// file appears only once it is complete.
func (a *Accumulator) WriteCSV(path string) error {
	records := a.records
	if records == nil {
		records = []Record{}
	}

	return writeAtomic(path, func(w io.Writer) error {
		return gocsv.Marshal(&records, w)
	})
}

// WriteRefactoringLog writes every mined refactoring to path. Tabs in
// descriptions are replaced with spaces.
func WriteRefactoringLog(path string, commits []refactoring.CommitRecord) error {
	rows := []refactoringLogRow{}

	for _, c := range commits {
		for _, r := range c.Refactorings {
			rows = append(rows, refactoringLogRow{
				CommitHash:      c.Hash.String(),
				RefactoringType: r.Type.String(),
				Description:     strings.ReplaceAll(r.Description, "\t", " "),
			})
		}
	}

	return writeAtomic(path, func(w io.Writer) error {
		return gocsv.Marshal(&rows, w)
	})
}

func writeAtomic(path string, fill func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)

	err = os.MkdirAll(dir, 0o750)
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	err = fill(tmp)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	err = tmp.Sync()
	if err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}

	return nil
}

package commands

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/smellwalk/pkg/correlate"
	"github.com/Sumatoshi-tech/smellwalk/pkg/gitlib"
)

func TestConsole_ProgressLine(t *testing.T) {
	var buf bytes.Buffer

	out := newConsole(&buf, false, true)
	out.progress(correlate.Progress{
		Index:   3,
		Total:   12,
		Commit:  gitlib.NewHash(testCommit),
		Outcome: correlate.OutcomeSkipped,
		Err:     errors.New("no parent"),
	})

	assert.Equal(t, "[3/12] a94a8fe5cc skipped records=0 error=no parent\n", buf.String())
}

func TestConsole_SilentSuppressesProgress(t *testing.T) {
	var buf bytes.Buffer

	out := newConsole(&buf, true, true)
	out.progress(correlate.Progress{Index: 1, Total: 1, Outcome: correlate.OutcomeAnalysed})
	out.printf("mining\n")

	assert.Empty(t, buf.String())
}

func TestConsole_SummaryTable(t *testing.T) {
	var buf bytes.Buffer

	out := newConsole(&buf, true, true)
	out.summary(correlate.Summary{
		CommitsMined:    1200,
		CommitsAnalysed: 900,
		CommitsSkipped:  3,
		Records:         4521,
		Removed:         87,
		ScanPairs:       40,
		Duration:        90 * time.Second,
	}, outputStatus{Path: "results/datasets.csv", Size: 2048, Written: true})

	text := buf.String()
	assert.Contains(t, text, "smellwalk run")
	assert.Contains(t, text, "1,200")
	assert.Contains(t, text, "4,521")
	assert.Contains(t, text, "1m30s")
	assert.Contains(t, text, "Result file written: results/datasets.csv (2.0 kB)")
}

func TestConsole_FileStatusFailure(t *testing.T) {
	var buf bytes.Buffer

	out := newConsole(&buf, false, true)
	out.fileStatus(outputStatus{Err: errors.New("disk full")})

	assert.Equal(t, "Result file not written: disk full\n", buf.String())
}

package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/smellwalk/pkg/correlate"
)

// outputStatus describes the result file of a run.
type outputStatus struct {
	Path    string
	Size    int64
	Written bool
	Err     error
}

// console prints user-facing progress and summaries.
type console struct {
	out    io.Writer
	silent bool
}

func newConsole(out io.Writer, silent, noColor bool) *console {
	if noColor {
		color.NoColor = true //nolint:reassign // --no-color overrides the library global
	}

	return &console{out: out, silent: silent}
}

func (c *console) printf(format string, args ...any) {
	if c.silent {
		return
	}

	_, _ = fmt.Fprintf(c.out, format, args...)
}

// progress prints one line per finished commit.
func (c *console) progress(p correlate.Progress) {
	if c.silent {
		return
	}

	line := fmt.Sprintf("[%d/%d] %s %s records=%d", p.Index, p.Total, p.Commit.Short(), p.Outcome, p.Records)
	if p.Err != nil {
		line += " error=" + p.Err.Error()
	}

	outcomeColor(p.Outcome).Fprintln(c.out, line)
}

func outcomeColor(outcome correlate.Outcome) *color.Color {
	switch outcome {
	case correlate.OutcomeAnalysed:
		return color.New(color.FgGreen)
	case correlate.OutcomeSkipped:
		return color.New(color.FgYellow)
	case correlate.OutcomeFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.Reset)
	}
}

// summary prints the run summary table and the result file status. It is
// printed even in silent mode.
func (c *console) summary(sum correlate.Summary, status outputStatus) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(c.out)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle("smellwalk run")
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"Commits mined", humanize.Comma(int64(sum.CommitsMined))},
		{"Commits analysed", humanize.Comma(int64(sum.CommitsAnalysed))},
		{"Commits without smells", humanize.Comma(int64(sum.CommitsNoSmells))},
		{"Commits skipped", humanize.Comma(int64(sum.CommitsSkipped))},
		{"Commits failed", humanize.Comma(int64(sum.CommitsFailed))},
		{"Smells correlated", humanize.Comma(int64(sum.Records))},
		{"Smells removed", humanize.Comma(int64(sum.Removed))},
		{"Scan pairs", humanize.Comma(int64(sum.ScanPairs))},
		{"Elapsed", sum.Duration.Round(time.Millisecond).String()},
	})
	tbl.Render()

	c.fileStatus(status)
}

func (c *console) fileStatus(status outputStatus) {
	if status.Written {
		color.New(color.FgGreen).Fprintf(c.out, "Result file written: %s (%s)\n", status.Path, humanize.Bytes(uint64(status.Size)))

		return
	}

	if status.Err != nil {
		color.New(color.FgRed).Fprintf(c.out, "Result file not written: %v\n", status.Err)

		return
	}

	color.New(color.FgRed).Fprintln(c.out, "Result file not written")
}

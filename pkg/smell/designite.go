package smell

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/Sumatoshi-tech/smellwalk/pkg/toolexec"
)

// Designite report files.
const (
	DesignSmellsFile         = "designCodeSmells.csv"
	ImplementationSmellsFile = "implementationCodeSmells.csv"
)

// Designite report columns.
const (
	columnPackage = "Package Name"
	columnType    = "Type Name"
	columnMethod  = "Method Name"
	columnSmell   = "Code Smell"
)

// ErrMalformedReport is returned when Designite reports are missing or cannot
// be parsed.
var ErrMalformedReport = errors.New("malformed designite report")

// DesigniteConfig configures the DesigniteJava adapter.
type DesigniteConfig struct {
	// Java is the java executable.
	Java string
	// Jar is the DesigniteJava jar.
	Jar string
	// OutputDir receives one scratch report directory per run; empty uses
	// the system temp dir.
	OutputDir string
	Timeout   time.Duration
}

// Designite detects smells with DesigniteJava.
type Designite struct {
	cfg    DesigniteConfig
	runner toolexec.Runner
	logger *slog.Logger
}

// NewDesignite creates the adapter.
func NewDesignite(cfg DesigniteConfig, runner toolexec.Runner, logger *slog.Logger) *Designite {
	if cfg.Java == "" {
		cfg.Java = "java"
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Designite{cfg: cfg, runner: runner, logger: logger}
}

// DetectSmells implements Detector. Design smells come first, then
// implementation smells, each in report order.
func (d *Designite) DetectSmells(ctx context.Context, dir string) ([]Smell, error) {
	outDir, err := os.MkdirTemp(d.cfg.OutputDir, "designite-")
	if err != nil {
		return nil, fmt.Errorf("create designite output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	_, err = d.runner.Run(ctx, toolexec.Command{
		Name: d.cfg.Java,
		Args: []string{"-jar", d.cfg.Jar, "-i", dir, "-o", outDir},
	})
	if err != nil {
		return nil, fmt.Errorf("designite: %w", err)
	}

	design, foundDesign, err := readReport(filepath.Join(outDir, DesignSmellsFile), false)
	if err != nil {
		return nil, err
	}

	impl, foundImpl, err := readReport(filepath.Join(outDir, ImplementationSmellsFile), true)
	if err != nil {
		return nil, err
	}

	// Designite writes both reports, headers included, even when it finds
	// nothing.
	if !foundDesign && !foundImpl {
		return nil, fmt.Errorf("%w: no reports in %s", ErrMalformedReport, outDir)
	}

	return append(design, impl...), nil
}

// readReport reads one Designite report. A missing file yields found=false.
func readReport(path string, withMethod bool) (smells []Smell, found bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("open designite report: %w", err)
	}
	defer f.Close()

	smells, err = ParseReport(f, withMethod)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return smells, true, nil
}

// reportRow is one row of a Designite report. Design smell reports have no
// method column.
type reportRow struct {
	Package string `csv:"Package Name"`
	Type    string `csv:"Type Name"`
	Method  string `csv:"Method Name"`
	Smell   string `csv:"Code Smell"`
}

func newReportReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	return reader
}

// ParseReport decodes a Designite CSV report. Columns are located by header
// name; withMethod selects whether the method column is required.
func ParseReport(r io.Reader, withMethod bool) ([]Smell, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read designite report: %w", err)
	}

	header, err := newReportReader(bytes.NewReader(data)).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReport, err)
	}

	err = checkColumns(header, withMethod)
	if err != nil {
		return nil, err
	}

	var rows []reportRow

	err = gocsv.UnmarshalCSV(newReportReader(bytes.NewReader(data)), &rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReport, err)
	}

	smells := make([]Smell, 0, len(rows))

	for _, row := range rows {
		sm := Smell{
			Package: strings.TrimSpace(row.Package),
			Class:   strings.TrimSpace(row.Type),
			Type:    strings.TrimSpace(row.Smell),
		}

		if withMethod {
			sm.Method = strings.TrimSpace(row.Method)
		}

		if sm.Class == "" || sm.Type == "" {
			return nil, fmt.Errorf("%w: row without class or smell type", ErrMalformedReport)
		}

		smells = append(smells, sm)
	}

	return smells, nil
}

func checkColumns(header []string, withMethod bool) error {
	required := []string{columnPackage, columnType, columnSmell}
	if withMethod {
		required = append(required, columnMethod)
	}

	for _, name := range required {
		if !slices.Contains(header, name) {
			return fmt.Errorf("%w: missing column %q", ErrMalformedReport, name)
		}
	}

	return nil
}

// Package matching decides whether a mined refactoring explains the
// disappearance of a smell: admissibility of its type, same class path and
// same method.
package matching

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/smellwalk/pkg/refactoring"
)

//go:embed default_table.yaml
var defaultTable []byte

var (
	// ErrUnknownSmellType is returned for a smell type the admissibility
	// table has no entry for. It is a configuration error.
	ErrUnknownSmellType = errors.New("smell type missing from admissibility table")
	// ErrInvalidTable is returned when a table source cannot be used.
	ErrInvalidTable = errors.New("invalid admissibility table")
)

// Table maps each smell type to the refactoring types able to remove it.
// It is immutable once built.
type Table struct {
	admissible map[string]map[refactoring.Type]struct{}
}

// NewTable builds a table. Every refactoring type must be one RefactoringMiner
// reports.
func NewTable(entries map[string][]refactoring.Type) (*Table, error) {
	t := &Table{admissible: make(map[string]map[refactoring.Type]struct{}, len(entries))}

	for smellType, types := range entries {
		if smellType == "" {
			return nil, fmt.Errorf("%w: empty smell type", ErrInvalidTable)
		}

		set := make(map[refactoring.Type]struct{}, len(types))

		for _, rt := range types {
			if !rt.Known() {
				return nil, fmt.Errorf("%w: smell %q: unknown refactoring type %q", ErrInvalidTable, smellType, rt)
			}

			set[rt] = struct{}{}
		}

		t.admissible[smellType] = set
	}

	return t, nil
}

// ParseTable decodes a YAML table: a mapping from smell type to a list of
// refactoring type names.
func ParseTable(data []byte) (*Table, error) {
	var raw map[string][]string

	err := yaml.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidTable)
	}

	entries := make(map[string][]refactoring.Type, len(raw))

	for smellType, names := range raw {
		types := make([]refactoring.Type, 0, len(names))
		for _, name := range names {
			types = append(types, refactoring.Type(name))
		}

		entries[smellType] = types
	}

	return NewTable(entries)
}

// DefaultTable returns the built-in table covering the DesigniteJava smells.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTable)
}

// LoadTable reads a YAML table from path, or returns the default table when
// path is empty.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admissibility table: %w", err)
	}

	table, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return table, nil
}

// Knows reports whether smellType has an entry.
func (t *Table) Knows(smellType string) bool {
	_, ok := t.admissible[smellType]

	return ok
}

// IsAdmissible reports whether rt can remove a smell of smellType.
func (t *Table) IsAdmissible(rt refactoring.Type, smellType string) (bool, error) {
	set, ok := t.admissible[smellType]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownSmellType, smellType)
	}

	_, ok = set[rt]

	return ok, nil
}

// SmellTypes returns the smell types in the table, sorted.
func (t *Table) SmellTypes() []string {
	types := make([]string, 0, len(t.admissible))
	for st := range t.admissible {
		types = append(types, st)
	}

	slices.Sort(types)

	return types
}

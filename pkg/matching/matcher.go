package matching

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Sumatoshi-tech/smellwalk/pkg/refactoring"
	"github.com/Sumatoshi-tech/smellwalk/pkg/smell"
)

// Cause is the refactoring found to explain a removed smell.
type Cause struct {
	Refactoring refactoring.Refactoring
	// Index is the refactoring's position in the commit's list.
	Index int
	// Path is the repository path of the primary left-side location, with
	// forward slashes. Debt is looked up against it.
	Path string
}

// Matcher searches a commit's refactorings for the cause of a removed smell.
type Matcher struct {
	table  *Table
	logger *slog.Logger
}

// NewMatcher creates a matcher over table.
func NewMatcher(table *Table, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Matcher{table: table, logger: logger}
}

// FindCause returns the first refactoring in refs that explains sm's
// removal. A refactoring qualifies when, in order: it has a left-side
// location; its type is admissible for the smell type; its primary
// location's class path equals the smell's; and, for
// method-level smells, the primary location names the same method.
// Later candidates are not examined once one qualifies.
func (m *Matcher) FindCause(sm smell.Smell, refs []refactoring.Refactoring) (Cause, bool, error) {
	if !m.table.Knows(sm.Type) {
		return Cause{}, false, fmt.Errorf("%w: %q", ErrUnknownSmellType, sm.Type)
	}

	classPath := SmellClassPath(sm)

	for i, r := range refs {
		loc, ok := r.Primary()
		if !ok {
			continue
		}

		admissible, err := m.table.IsAdmissible(r.Type, sm.Type)
		if err != nil {
			return Cause{}, false, err
		}

		if !admissible {
			continue
		}

		path := NormalizeRefactoringPath(loc.FilePath)
		if !IsSamePathClass(path, classPath) {
			continue
		}

		if !sm.IsClassLevel() && !IsSameMethod(loc.CodeElement, sm.Method) {
			continue
		}

		m.logger.Debug("matched refactoring", "smell", sm.String(), "refactoring", string(r.Type), "index", i)

		return Cause{Refactoring: r, Index: i, Path: strings.ReplaceAll(loc.FilePath, `\`, "/")}, true, nil
	}

	return Cause{}, false, nil
}

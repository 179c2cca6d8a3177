// Package smell models design and implementation smells and the per-revision
// snapshots the correlation engine compares.
package smell

import "strings"

// Smell is a detected design-quality issue. Two smells are the same smell
// iff all four fields are equal.
type Smell struct {
	Package string
	Class   string
	// Method is empty for class-level smells.
	Method string
	Type   string
}

// IsClassLevel reports whether the smell is attached to a class rather than
// a method.
func (s Smell) IsClassLevel() bool {
	return s.Method == ""
}

// HasPackage reports whether the smell's class lives in a named package.
// Designite marks the default package with a name containing a space,
// e.g. "(default package)".
func (s Smell) HasPackage() bool {
	return s.Package != "" && !strings.Contains(s.Package, " ")
}

func (s Smell) String() string {
	name := s.Class
	if s.HasPackage() {
		name = s.Package + "." + s.Class
	}

	if !s.IsClassLevel() {
		name += "#" + s.Method
	}

	return s.Type + "@" + name
}

// Set is an insertion-ordered set of smells.
type Set struct {
	items []Smell
	index map[Smell]struct{}
}

// NewSet builds a set from smells, dropping duplicates and keeping the
// first occurrence's position.
func NewSet(smells ...Smell) *Set {
	s := &Set{index: make(map[Smell]struct{}, len(smells))}

	for _, sm := range smells {
		s.Add(sm)
	}

	return s
}

// Add inserts sm and reports whether it was not already present.
func (s *Set) Add(sm Smell) bool {
	if s.index == nil {
		s.index = make(map[Smell]struct{})
	}

	if _, ok := s.index[sm]; ok {
		return false
	}

	s.index[sm] = struct{}{}
	s.items = append(s.items, sm)

	return true
}

// Contains reports whether sm is in the set.
func (s *Set) Contains(sm Smell) bool {
	if s == nil {
		return false
	}

	_, ok := s.index[sm]

	return ok
}

// Len returns the number of smells.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.items)
}

// Items returns the smells in insertion order. The slice must not be modified.
func (s *Set) Items() []Smell {
	if s == nil {
		return nil
	}

	return s.items
}

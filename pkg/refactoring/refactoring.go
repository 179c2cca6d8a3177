// Package refactoring holds the mined refactorings of a history and the
// RefactoringMiner adapter that produces them.
package refactoring

import (
	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/smellwalk/pkg/gitlib"
)

const languageJava = "Java"

// Location is one code element a refactoring touched, on either side of
// the change.
type Location struct {
	FilePath        string
	StartLine       int
	EndLine         int
	CodeElementType string
	// CodeElement is the element signature, e.g. "public void foo(int x)".
	CodeElement string
}

// Language returns the language of the location's file as guessed from its
// extension, or "" when it cannot be determined.
func (l Location) Language() string {
	lang, _ := enry.GetLanguageByExtension(l.FilePath)

	return lang
}

// IsJava reports whether the location is in a Java source file.
func (l Location) IsJava() bool {
	return l.Language() == languageJava
}

// Refactoring is one structural change mined from a commit.
type Refactoring struct {
	Type        Type
	Description string
	LeftSide    []Location
	RightSide   []Location
}

// Primary returns the first left-side location. Only this location takes
// part in matching.
func (r Refactoring) Primary() (Location, bool) {
	if len(r.LeftSide) == 0 {
		return Location{}, false
	}

	return r.LeftSide[0], true
}

// CommitRecord is a commit together with the refactorings it performed,
// in the order the miner reported them.
type CommitRecord struct {
	Hash         gitlib.Hash
	Refactorings []Refactoring
}

// TouchesJava reports whether any refactoring of the commit has a primary
// location in a Java file.
func (c CommitRecord) TouchesJava() bool {
	for _, r := range c.Refactorings {
		if loc, ok := r.Primary(); ok && loc.IsJava() {
			return true
		}
	}

	return false
}

// LanguageCounts counts the refactorings of commits by the language of
// their primary location. Refactorings without a left side, or in files of
// unknown language, are not counted.
func LanguageCounts(commits []CommitRecord) map[string]int {
	counts := make(map[string]int)

	for _, c := range commits {
		for _, r := range c.Refactorings {
			loc, ok := r.Primary()
			if !ok {
				continue
			}

			if lang := loc.Language(); lang != "" {
				counts[lang]++
			}
		}
	}

	return counts
}

// JavaCommits returns the commits that touch Java, in order, and how many
// were dropped.
func JavaCommits(commits []CommitRecord) ([]CommitRecord, int) {
	kept := make([]CommitRecord, 0, len(commits))

	for _, c := range commits {
		if c.TouchesJava() {
			kept = append(kept, c)
		}
	}

	return kept, len(commits) - len(kept)
}

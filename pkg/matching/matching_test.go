package matching_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/smellwalk/pkg/matching"
	"github.com/Sumatoshi-tech/smellwalk/pkg/refactoring"
	"github.com/Sumatoshi-tech/smellwalk/pkg/smell"
)

func testTable(t *testing.T) *matching.Table {
	t.Helper()

	table, err := matching.NewTable(map[string][]refactoring.Type{
		"GodClass":    {refactoring.ExtractClass, refactoring.MoveMethod},
		"Long Method": {refactoring.ExtractMethod},
	})
	require.NoError(t, err)

	return table
}

func TestNormalizeRefactoringPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"src/main/java/a/b/Foo.java", "a/b/Foo.java"},
		{"module/src/main/java/a/b/Foo.java", "a/b/Foo.java"},
		{"src/a/b/Foo.java", "a/b/Foo.java"},
		{"module/src/a/Foo.java", "module/src/a/Foo.java"},
		{"org/src/util/Foo.java", "org/src/util/Foo.java"},
		{"proj/src/main/java/org/src/util/Foo.java", "org/src/util/Foo.java"},
		{"src/org/src/util/Foo.java", "org/src/util/Foo.java"},
		{`module\src\main\java\a\b\Foo.java`, "a/b/Foo.java"},
		{"a/b/Foo.java", "a/b/Foo.java"},
		{"Foo.java", "Foo.java"},
		{"mysrc/a/Foo.java", "mysrc/a/Foo.java"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got := matching.NormalizeRefactoringPath(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, matching.NormalizeRefactoringPath(got), "normalisation must be idempotent")
		})
	}
}

func TestSmellClassPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a/b/Foo.java", matching.SmellClassPath(smell.Smell{Package: "a.b", Class: "Foo"}))
	assert.Equal(t, "Main.java", matching.SmellClassPath(smell.Smell{Package: "(default package)", Class: "Main"}))
	assert.True(t, matching.IsSamePathClass("a/b/Foo.java", "a/b/Foo.java"))
	assert.False(t, matching.IsSamePathClass("a/b/Foo.java", "a/Foo.java"))

	srcPackage := matching.SmellClassPath(smell.Smell{Package: "org.src.util", Class: "Foo"})
	assert.True(t, matching.IsSamePathClass(matching.NormalizeRefactoringPath("org/src/util/Foo.java"), srcPackage))
	assert.True(t, matching.IsSamePathClass(
		matching.NormalizeRefactoringPath("proj/src/main/java/org/src/util/Foo.java"), srcPackage))
}

func TestMethodName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"public void foo(int x)":                  "foo",
		"foo(int x)":                              "foo",
		"private static List<String> bar()":       "bar",
		"  protected  synchronized int baz (int)": "baz",
		"qux":                                     "qux",
		"":                                        "",
	}

	for sig, want := range tests {
		assert.Equal(t, want, matching.MethodName(sig), sig)
	}

	assert.True(t, matching.IsSameMethod("public void foo(int x)", "foo"))
	assert.True(t, matching.IsSameMethod("foo(int x)", "foo"))
	assert.False(t, matching.IsSameMethod("public void foobar()", "foo"))
}

func TestTableAdmissibility(t *testing.T) {
	t.Parallel()

	table := testTable(t)

	ok, err := table.IsAdmissible(refactoring.ExtractClass, "GodClass")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = table.IsAdmissible(refactoring.RenameMethod, "GodClass")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = table.IsAdmissible(refactoring.ExtractClass, "Feature Envy")
	require.ErrorIs(t, err, matching.ErrUnknownSmellType)

	assert.Equal(t, []string{"GodClass", "Long Method"}, table.SmellTypes())
}

func TestNewTableRejectsUnknownRefactoring(t *testing.T) {
	t.Parallel()

	_, err := matching.NewTable(map[string][]refactoring.Type{"GodClass": {"Teleport Class"}})
	require.ErrorIs(t, err, matching.ErrInvalidTable)
}

func TestDefaultTable(t *testing.T) {
	t.Parallel()

	table, err := matching.DefaultTable()
	require.NoError(t, err)

	for _, st := range []string{"Insufficient Modularization", "Long Method", "Complex Method", "God Class"} {
		assert.True(t, table.Knows(st), st)
	}

	ok, err := table.IsAdmissible(refactoring.ExtractMethod, "Long Method")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoadTable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	good := filepath.Join(dir, "table.yaml")
	require.NoError(t, os.WriteFile(good, []byte("GodClass:\n  - Extract Class\n"), 0o600))

	table, err := matching.LoadTable(good)
	require.NoError(t, err)
	assert.Equal(t, []string{"GodClass"}, table.SmellTypes())

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("GodClass: [Extract Class\n"), 0o600))

	_, err = matching.LoadTable(bad)
	require.ErrorIs(t, err, matching.ErrInvalidTable)

	_, err = matching.LoadTable(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	def, err := matching.LoadTable("")
	require.NoError(t, err)
	assert.True(t, def.Knows("Long Method"))
}

func ref(rt refactoring.Type, path, element string) refactoring.Refactoring {
	return refactoring.Refactoring{
		Type:     rt,
		LeftSide: []refactoring.Location{{FilePath: path, CodeElement: element}},
	}
}

func TestFindCauseClassLevel(t *testing.T) {
	t.Parallel()

	m := matching.NewMatcher(testTable(t), nil)
	sm := smell.Smell{Package: "a.b", Class: "Foo", Type: "GodClass"}

	refs := []refactoring.Refactoring{
		{Type: refactoring.ExtractClass},
		ref(refactoring.RenameMethod, "src/main/java/a/b/Foo.java", "a.b.Foo"),
		ref(refactoring.ExtractClass, "src/main/java/a/b/Bar.java", "a.b.Bar"),
		ref(refactoring.ExtractClass, "src/main/resources/a/b/Foo.xml", "a.b.Foo"),
		ref(refactoring.ExtractClass, "src/main/java/a/b/Foo.java", "a.b.Foo"),
		ref(refactoring.MoveMethod, "src/main/java/a/b/Foo.java", "public void x()"),
	}

	cause, ok, err := m.FindCause(sm, refs)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, cause.Index)
	assert.Equal(t, refactoring.ExtractClass, cause.Refactoring.Type)
	assert.Equal(t, "src/main/java/a/b/Foo.java", cause.Path)
}

func TestFindCauseMethodLevel(t *testing.T) {
	t.Parallel()

	m := matching.NewMatcher(testTable(t), nil)
	sm := smell.Smell{Package: "a.b", Class: "Foo", Method: "foo", Type: "Long Method"}

	refs := []refactoring.Refactoring{
		ref(refactoring.ExtractMethod, "src/main/java/a/b/Foo.java", "public void bar(int x)"),
		ref(refactoring.ExtractMethod, `src\main\java\a\b\Foo.java`, "public void foo(int x)"),
		ref(refactoring.ExtractMethod, "src/main/java/a/b/Foo.java", "foo(int x)"),
	}

	cause, ok, err := m.FindCause(sm, refs)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, cause.Index, "first match wins")
	assert.Equal(t, "src/main/java/a/b/Foo.java", cause.Path)
}

func TestFindCauseOnlyPrimaryLocation(t *testing.T) {
	t.Parallel()

	m := matching.NewMatcher(testTable(t), nil)
	sm := smell.Smell{Package: "a.b", Class: "Foo", Type: "GodClass"}

	r := refactoring.Refactoring{
		Type: refactoring.ExtractClass,
		LeftSide: []refactoring.Location{
			{FilePath: "src/main/java/a/b/Other.java"},
			{FilePath: "src/main/java/a/b/Foo.java"},
		},
	}

	_, ok, err := m.FindCause(sm, []refactoring.Refactoring{r})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindCauseUnknownSmellType(t *testing.T) {
	t.Parallel()

	m := matching.NewMatcher(testTable(t), nil)

	_, _, err := m.FindCause(smell.Smell{Class: "Foo", Type: "Feature Envy"}, nil)
	require.ErrorIs(t, err, matching.ErrUnknownSmellType)
}

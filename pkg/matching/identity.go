package matching

import (
	"strings"

	"github.com/Sumatoshi-tech/smellwalk/pkg/smell"
)

// mavenRoot is the Maven source root, stripped wherever it starts a path
// segment.
const mavenRoot = "src/main/java/"

// bareRoot is the plain source root. It is stripped only as the leading
// segment, since a package may itself contain a "src" segment.
const bareRoot = "src/"

// NormalizeRefactoringPath reduces a refactoring file path to the path of
// the file relative to its source root, e.g.
// "module/src/main/java/a/b/Foo.java" becomes "a/b/Foo.java". Backslashes
// are treated as separators.
func NormalizeRefactoringPath(raw string) string {
	p := strings.ReplaceAll(raw, `\`, "/")

	if strings.HasPrefix(p, mavenRoot) {
		return p[len(mavenRoot):]
	}

	if idx := strings.Index(p, "/"+mavenRoot); idx >= 0 {
		return p[idx+1+len(mavenRoot):]
	}

	return strings.TrimPrefix(p, bareRoot)
}

// SmellClassPath returns the source path of the smell's class relative to
// its source root.
func SmellClassPath(sm smell.Smell) string {
	if !sm.HasPackage() {
		return sm.Class + ".java"
	}

	return strings.ReplaceAll(sm.Package, ".", "/") + "/" + sm.Class + ".java"
}

// IsSamePathClass reports whether two normalised class paths are equal.
func IsSamePathClass(refactoringClassPath, smellClassPath string) bool {
	return refactoringClassPath == smellClassPath
}

// MethodName extracts the bare method name from a signature such as
// "public void foo(int x)".
func MethodName(signature string) string {
	head, _, _ := strings.Cut(signature, "(")

	fields := strings.Fields(head)
	if len(fields) == 0 {
		return ""
	}

	return fields[len(fields)-1]
}

// IsSameMethod reports whether signature names smellMethod.
func IsSameMethod(signature, smellMethod string) bool {
	return MethodName(signature) == smellMethod
}

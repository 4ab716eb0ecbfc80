package project

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff between the export forms of current and next,
// or an empty string when they are identical.
func Diff(current, next *Project) (string, error) {
	a, err := EncodeIndent(current)
	if err != nil {
		return "", err
	}
	b, err := EncodeIndent(next)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a) + "\n"),
		B:        difflib.SplitLines(string(b) + "\n"),
		FromFile: "current",
		ToFile:   "import",
		Context:  3,
	})
}

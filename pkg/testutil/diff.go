package testutil

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

//nolint:gochecknoglobals // Would be 'const'.
var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
}

// Dump renders a value the same way for both sides of a diff; deterministic, no pointer
// addresses.
func Dump(val interface{}) string {
	return spewConfig.Sdump(val)
}

// AssertEqualText compares two multi-line strings, and on mismatch reports a unified diff rather
// than testify's one-line quoting, which is unreadable for anything bigger than a word.
func AssertEqualText(t *testing.T, exp, act string) bool {
	t.Helper()
	if exp == act {
		return true
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(exp),
		B:        difflib.SplitLines(act),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  3,
	})
	t.Errorf("Not equal:\n%s", diff)
	return false
}

// AssertEqualDump compares two values by their Dump renderings, reporting a unified diff on
// mismatch; for big nested structures where assert.Equal's output is useless.
func AssertEqualDump(t *testing.T, exp, act interface{}) bool {
	t.Helper()
	return AssertEqualText(t, Dump(exp), Dump(act))
}

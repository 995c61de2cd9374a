package pep440_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/pypublish/pkg/python/pep440"
)

func TestSpecifierMatch(t *testing.T) {
	t.Parallel()
	type TestCase struct {
		Spec    string
		Version string
		Match   bool
	}
	testcases := map[string]TestCase{
		// compatible release
		"compatible-patch-yes":   {"~= 2.2", "2.3", true},
		"compatible-patch-edge":  {"~= 2.2", "2.2", true},
		"compatible-patch-no":    {"~= 2.2", "3.0", false},
		"compatible-patch-below": {"~= 2.2", "2.1", false},
		"compatible-micro-yes":   {"~= 1.4.5", "1.4.9", true},
		"compatible-micro-no":    {"~= 1.4.5", "1.5.0", false},
		"compatible-post":        {"~= 2.2.post3", "2.2.post4", true},
		"compatible-post-below":  {"~= 2.2.post3", "2.2", false},
		// version matching
		"eq-yes":             {"== 1.1", "1.1", true},
		"eq-zero-pad":        {"== 1.1", "1.1.0", true},
		"eq-no":              {"== 1.1", "1.1.post1", false},
		"eq-ignores-local":   {"== 1.1", "1.1+ubuntu1", true},
		"eq-with-local-yes":  {"== 1.1+ubuntu1", "1.1+ubuntu1", true},
		"eq-with-local-no":   {"== 1.1+ubuntu1", "1.1+ubuntu2", false},
		"eq-prefix-yes":      {"== 1.1.*", "1.1.9", true},
		"eq-prefix-pre":      {"== 1.1.*", "1.1.9rc2", true},
		"eq-prefix-no":       {"== 1.1.*", "1.10", false},
		"eq-prefix-zero-pad": {"== 1.1.0.*", "1.1", true},
		// version exclusion
		"ne-yes":       {"!= 1.1", "1.2", true},
		"ne-no":        {"!= 1.1", "1.1", false},
		"ne-prefix-no": {"!= 1.1.*", "1.1.3", false},
		// inclusive ordered comparison
		"le-yes":   {"<= 1.1", "1.1", true},
		"le-no":    {"<= 1.1", "1.1.post1", false},
		"ge-yes":   {">= 1.1", "1.1", true},
		"ge-local": {">= 1.1", "1.1+local", true},
		// exclusive ordered comparison
		"lt-yes":             {"< 1.7", "1.6.8", true},
		"lt-no":              {"< 1.7", "1.7", false},
		"lt-excludes-pre":    {"< 1.7", "1.7rc1", false},
		"lt-excludes-dev":    {"< 1.7", "1.7.dev1", false},
		"lt-pre-of-other":    {"< 1.7", "1.6rc1", true},
		"lt-pre-spec":        {"< 1.7rc2", "1.7rc1", true},
		"gt-yes":             {"> 1.7", "1.7.1", true},
		"gt-no":              {"> 1.7", "1.7", false},
		"gt-excludes-post":   {"> 1.7", "1.7.post2", false},
		"gt-excludes-local":  {"> 1.7", "1.7.post2+local", false},
		"gt-post-of-other":   {"> 1.7", "1.8.post2", true},
		"gt-post-spec":       {"> 1.7.post1", "1.7.post2", true},
		// arbitrary equality
		"arbitrary-yes": {"=== 1.0", "1.0", true},
		"arbitrary-no":  {"=== 1.0.0", "1.0", false},
		// multi-clause
		"range-yes":      {">= 3.9, < 4", "3.12.3", true},
		"range-low":      {">= 3.9, < 4", "3.8.19", false},
		"range-high":     {">= 3.9, < 4", "4.0", false},
		"range-pre-edge": {">= 3.9, < 4", "4.0rc1", false},
		"empty":          {"", "0.0.1", true},
		// the original Requires-Python of the project this tool grew up around
		"requires-python": {">=3.11", "3.11.9", true},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			spec, err := pep440.ParseSpecifier(tcData.Spec)
			require.NoError(t, err)
			ver := mustParseVersion(t, tcData.Version)
			assert.Equal(t, tcData.Match, spec.Match(ver),
				"%q .Match(%q)", tcData.Spec, tcData.Version)
		})
	}
}

func TestSpecifierParseErrors(t *testing.T) {
	t.Parallel()
	testcases := map[string]string{
		"no-op":              "1.0",
		"empty-clause":       ">=1.0,",
		"bare-op":            ">=",
		"bogus-version":      ">= bogus",
		"prefix-with-pre":    "== 1.0rc1.*",
		"prefix-with-lt":     "< 1.0.*",
		"compatible-single":  "~= 1",
		"compatible-local":   "~= 1.0+local",
		"ordered-with-local": ">= 1.0+local",
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			spec, err := pep440.ParseSpecifier(tcData)
			assert.Error(t, err)
			assert.Nil(t, spec)
		})
	}
}

func TestSpecifierString(t *testing.T) {
	t.Parallel()
	testcases := map[string]string{
		">= 3.9, < 4.0":      ">=3.9,<4.0",
		"~=2.2.POST3":        "~=2.2.post3",
		"== 1.1.*, != 1.1.3": "==1.1.*,!=1.1.3",
		"=== foo.bar":        "===foo.bar",
	}
	for input, exp := range testcases {
		input, exp := input, exp
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			spec, err := pep440.ParseSpecifier(input)
			require.NoError(t, err)
			assert.Equal(t, exp, spec.String())

			// String() must parse back to an equivalent specifier.
			spec2, err := pep440.ParseSpecifier(spec.String())
			require.NoError(t, err)
			assert.Equal(t, spec.String(), spec2.String())
		})
	}
}

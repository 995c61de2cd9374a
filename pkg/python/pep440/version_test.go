package pep440_test

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/pypublish/pkg/python/pep440"
	"github.com/datawire/pypublish/pkg/testutil"
)

func TestSort(t *testing.T) {
	t.Parallel()
	// Each testcase is a list of versions in ascending order; most lists are taken verbatim
	// from the examples in PEP 440 itself.
	testcases := map[string][]string{
		"final-releases": {
			"0.9",
			"0.9.1",
			"0.9.2",
			"0.9.10",
			"0.9.11",
			"1.0",
			"1.0.1",
			"1.1",
			"2.0",
			"2.0.1",
		},
		"date-based-releases": {
			"2012.4",
			"2012.7",
			"2012.10",
			"2013.1",
			"2013.6",
		},
		"pre-releases": {
			"4.3a2",
			"4.3b2",
			"4.3rc2",
			"4.3",
		},
		"version-epochs": {
			"1.0",
			"1.1",
			"2.0",
			"2013.10",
			"2014.04",
			"1!1.0",
			"1!1.1",
			"1!2.0",
		},
		"summary-of-permitted-suffixes-and-relative-ordering": {
			"1.0.dev456",
			"1.0a1",
			"1.0a2.dev456",
			"1.0a12.dev456",
			"1.0a12",
			"1.0b1.dev456",
			"1.0b2",
			"1.0b2.post345.dev456",
			"1.0b2.post345",
			"1.0rc1.dev456",
			"1.0rc1",
			"1.0",
			"1.0+abc.5",
			"1.0+abc.7",
			"1.0+5",
			"1.0.post456.dev34",
			"1.0.post456",
			"1.1.dev1",
		},
		"local-version-labels": {
			"1.0",
			"1.0+abc",
			"1.0+abc.2",
			"1.0+abc.20",
			"1.0+xyz",
			"1.0+2",
			"1.0+20",
			"1.1",
		},
		"zero-padding": {
			"0.9",
			"1.0rc1",
			"1.0rc1.post0",
			"1.0",
			"1.0.0.post1",
			"1.0.1",
		},
	}
	for tcName, tcData := range testcases {
		strs := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			rand := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // not crypto

			vers := make([]*pep440.Version, 0, len(strs))
			exps := make([]string, 0, len(strs))
			for _, str := range strs {
				ver, err := pep440.ParseVersion(str)
				require.NoError(t, err)
				require.NotNil(t, ver)
				vers = append(vers, ver)
				exps = append(exps, ver.String())
			}

			// Shuffle so that `sort` has something to do.
			rand.Shuffle(len(vers), func(i, j int) {
				vers[i], vers[j] = vers[j], vers[i]
			})

			sort.SliceStable(vers, func(i, j int) bool {
				return vers[i].Cmp(*vers[j]) < 0
			})
			acts := make([]string, 0, len(strs))
			for _, ver := range vers {
				acts = append(acts, ver.String())
			}
			assert.Equal(t, exps, acts)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	type TestCase struct {
		Input      string
		Normalized string // empty for parse error
	}
	// From PEP 440's "Normalization" section.
	testcases := map[string]TestCase{
		"case-sensitivity":                    {"1.1RC1", "1.1rc1"},
		"integer-normalization-1":             {"00", "0"},
		"integer-normalization-2":             {"09000", "9000"},
		"integer-normalization-3":             {"1.0+foo0100", "1.0+foo0100"},
		"pre-release-separators-1":            {"1.1.a1", "1.1a1"},
		"pre-release-separators-2":            {"1.1-a1", "1.1a1"},
		"pre-release-separators-3":            {"1.0a.1", "1.0a1"},
		"pre-release-spelling-1":              {"1.1alpha1", "1.1a1"},
		"pre-release-spelling-2":              {"1.1beta2", "1.1b2"},
		"pre-release-spelling-3":              {"1.1c3", "1.1rc3"},
		"pre-release-spelling-4":              {"1.1preview4", "1.1rc4"},
		"implicit-pre-release-number":         {"1.2a", "1.2a0"},
		"post-release-separators-1":           {"1.2-post2", "1.2.post2"},
		"post-release-separators-2":           {"1.2post2", "1.2.post2"},
		"post-release-separators-3":           {"1.2.post.2", "1.2.post2"},
		"post-release-spelling":               {"1.0-r4", "1.0.post4"},
		"implicit-post-release-number":        {"1.2.post", "1.2.post0"},
		"implicit-post-releases-1":            {"1.0-1", "1.0.post1"},
		"implicit-post-releases-2":            {"1.0-", ""},
		"implicit-post-releases-underscore":   {"1.0_1", ""},
		"development-release-separators-1":    {"1.2-dev2", "1.2.dev2"},
		"development-release-separators-2":    {"1.2dev2", "1.2.dev2"},
		"implicit-development-release-number": {"1.2.dev", "1.2.dev0"},
		"local-version-segments-1":            {"1.0+ubuntu-1", "1.0+ubuntu.1"},
		"local-version-segments-2":            {"1.0+Ubuntu_1", "1.0+ubuntu.1"},
		"preceding-v-character":               {"v1.0", "1.0"},
		"leading-and-trailing-whitespace":     {"1.0\n", "1.0"},
		"empty":                               {"", ""},
		"not-a-version":                       {"french toast", ""},
		"trailing-garbage":                    {"1.0 then some words", ""},
		"bare-local":                          {"+local", ""},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			t.Logf("input: %q", tcData.Input)
			ver, err := pep440.ParseVersion(tcData.Input)
			if tcData.Normalized == "" {
				assert.Error(t, err)
				assert.Nil(t, ver)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, ver)
				assert.Equal(t, tcData.Normalized, ver.String())
				if len(ver.Local) == 0 {
					assert.Equal(t, tcData.Normalized, ver.PublicVersion.String())
				}
			}
		})
	}
}

func TestParseStruct(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		pep440.Version{
			PublicVersion: pep440.PublicVersion{
				Epoch:   1,
				Release: []int{2, 0, 3},
				Pre:     &pep440.PreRelease{L: "rc", N: 2},
				Post:    intPtr(4),
				Dev:     intPtr(5),
			},
		},
		mustParseVersion(t, "1!2.0.3rc2.post4.dev5"))
	assert.Equal(t, "1!2.0.3rc2.post4.dev5", mustParseVersion(t, "1!2.0.3rc2.post4.dev5").String())

	ver := mustParseVersion(t, "3.12.0")
	assert.Equal(t, 3, ver.Major())
	assert.Equal(t, 12, ver.Minor())
	assert.Equal(t, 0, ver.Micro())
	assert.True(t, ver.IsFinal())
	assert.False(t, ver.IsPreRelease())

	ver = mustParseVersion(t, "3.13.0rc1")
	assert.False(t, ver.IsFinal())
	assert.True(t, ver.IsPreRelease())

	ver = mustParseVersion(t, "2.5+local")
	assert.False(t, ver.IsFinal())
	assert.True(t, ver.PublicVersion.IsFinal())
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	testutil.QuickCheck(t,
		// test function
		func(ver1 pep440.Version) bool {
			_ver2, err := pep440.ParseVersion(ver1.String())
			if err != nil || _ver2 == nil {
				return false
			}
			ver2 := *_ver2
			return ver1.Cmp(ver2) == 0 && ver2.Cmp(ver1) == 0 && ver1.String() == ver2.String()
		},
		// dynamic inputs
		testutil.QuickConfig{},
		// static inputs
		[]interface{}{*pep440.MustParseVersion("1.0")},
		[]interface{}{*pep440.MustParseVersion("1!2.0.3rc2.post4.dev5+abc.6")},
	)
}

func TestCmpAntisymmetry(t *testing.T) {
	t.Parallel()

	testutil.QuickCheck(t,
		// test function
		func(a, b pep440.Version) bool {
			return a.Cmp(b) == -b.Cmp(a)
		},
		// dynamic inputs
		testutil.QuickConfig{},
	)
}

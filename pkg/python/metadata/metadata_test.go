package metadata_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/pypublish/pkg/python/metadata"
)

const sampleMetadata = `Metadata-Version: 2.1
Name: npfl138
Version: 2405.0
Summary: Course material library
Author-email: Example Author <author@example.org>
Classifier: Programming Language :: Python :: 3
Classifier: License :: OSI Approved :: MIT License
Requires-Python: >=3.11
Requires-Dist: torch>=2.0
Requires-Dist: numpy
Description-Content-Type: text/markdown

# npfl138

Course material in package form.
`

func TestParse(t *testing.T) {
	t.Parallel()
	md, err := metadata.Parse(strings.NewReader(sampleMetadata))
	require.NoError(t, err)

	assert.Equal(t, "2.1", md.MetadataVersion())

	name, err := md.Name()
	require.NoError(t, err)
	assert.Equal(t, "npfl138", name)

	ver, err := md.Version()
	require.NoError(t, err)
	assert.Equal(t, "2405.0", ver.String())

	assert.Equal(t, "Course material library", md.Get("Summary"))
	assert.Equal(t,
		[]string{
			"Programming Language :: Python :: 3",
			"License :: OSI Approved :: MIT License",
		},
		md.Values("Classifier"))
	assert.Equal(t,
		[]string{"torch>=2.0", "numpy"},
		md.Values("Requires-Dist"))

	spec, err := md.RequiresPython()
	require.NoError(t, err)
	assert.True(t, spec.Match(*mustParseVersion(t, "3.11.4")))
	assert.False(t, spec.Match(*mustParseVersion(t, "3.10.0")))

	assert.Equal(t, "# npfl138\n\nCourse material in package form.\n", md.Description())
}

func TestParseNoBody(t *testing.T) {
	t.Parallel()
	// A minimal PKG-INFO with no blank line and no body, as ancient sdists have.
	md, err := metadata.Parse(strings.NewReader("Metadata-Version: 1.0\nName: thing\nVersion: 0.1\n"))
	require.NoError(t, err)

	name, err := md.Name()
	require.NoError(t, err)
	assert.Equal(t, "thing", name)
	assert.Equal(t, "", md.Description())
}

func TestParseMissingFields(t *testing.T) {
	t.Parallel()
	md, err := metadata.Parse(strings.NewReader("Metadata-Version: 2.1\n\nbody\n"))
	require.NoError(t, err)

	_, err = md.Name()
	assert.Error(t, err)
	_, err = md.Version()
	assert.Error(t, err)

	spec, err := md.RequiresPython()
	require.NoError(t, err)
	assert.True(t, spec.Match(*mustParseVersion(t, "2.7")))

	assert.Equal(t, "1.0", (&metadata.Metadata{}).MetadataVersion())
}

func TestParseBadVersion(t *testing.T) {
	t.Parallel()
	md, err := metadata.Parse(strings.NewReader("Name: thing\nVersion: not.a(version\n"))
	require.NoError(t, err)
	_, err = md.Version()
	assert.Error(t, err)
}

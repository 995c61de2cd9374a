package dist_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/pypublish/pkg/python/dist"
	"github.com/datawire/pypublish/pkg/python/pep425"
	"github.com/datawire/pypublish/pkg/python/pep440"
)

const sampleMetadata = `Metadata-Version: 2.1
Name: npfl138
Version: 2405.0
Summary: Course materials
Requires-Python: >=3.11

Deep learning course materials.
`

// makeWheel writes a minimal wheel (a zip archive) to disk.
func makeWheel(t *testing.T, wheelPath, infoDir, md string) {
	t.Helper()
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"npfl138/__init__.py": "",
		infoDir + "/WHEEL":    "Wheel-Version: 1.0\n",
		infoDir + "/METADATA": md,
		infoDir + "/RECORD":   "",
	} {
		w, err := zipWriter.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zipWriter.Close())
	require.NoError(t, os.WriteFile(wheelPath, buf.Bytes(), 0o644))
}

// makeSdist writes a minimal sdist (a gzipped tarball) to disk.
func makeSdist(t *testing.T, sdistPath, rootDir, md string) {
	t.Helper()
	var buf bytes.Buffer
	gzWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzWriter)
	for _, member := range []struct {
		Name string
		Body string
	}{
		{rootDir + "/PKG-INFO", md},
		{rootDir + "/pyproject.toml", "[project]\nname = \"npfl138\"\nversion = \"2405.0\"\n"},
		{rootDir + "/npfl138/__init__.py", ""},
	} {
		require.NoError(t, tarWriter.WriteHeader(&tar.Header{
			Name: member.Name,
			Mode: 0o644,
			Size: int64(len(member.Body)),
		}))
		_, err := tarWriter.Write([]byte(member.Body))
		require.NoError(t, err)
	}
	require.NoError(t, tarWriter.Close())
	require.NoError(t, gzWriter.Close())
	require.NoError(t, os.WriteFile(sdistPath, buf.Bytes(), 0o644))
}

func TestParseWheelName(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Exp    *dist.WheelName
		ExpErr bool
	}{
		"npfl138-2405.0-py3-none-any.whl": {
			Exp: &dist.WheelName{
				Distribution:     "npfl138",
				Version:          *pep440.MustParseVersion("2405.0"),
				CompatibilityTag: pep425.Tag{Python: "py3", ABI: "none", Platform: "any"},
			},
		},
		"distribution-1.0-1-py27-none-any.whl": {
			Exp: &dist.WheelName{
				Distribution:     "distribution",
				Version:          *pep440.MustParseVersion("1.0"),
				BuildTag:         &dist.BuildTag{Int: 1},
				CompatibilityTag: pep425.Tag{Python: "py27", ABI: "none", Platform: "any"},
			},
		},
		"pkg-2.0-3b-py2.py3-none-any.whl": {
			Exp: &dist.WheelName{
				Distribution:     "pkg",
				Version:          *pep440.MustParseVersion("2.0"),
				BuildTag:         &dist.BuildTag{Int: 3, Str: "b"},
				CompatibilityTag: pep425.Tag{Python: "py2.py3", ABI: "none", Platform: "any"},
			},
		},
		"pkg-1.0-py3-none.whl":           {ExpErr: true},
		"pkg-bogus~ver-py3-none-any.whl": {ExpErr: true},
		"pkg-1.0-py3-none-any.tar.gz":    {ExpErr: true},
	}
	for filename, tc := range testcases {
		filename := filename
		tc := tc
		t.Run(filename, func(t *testing.T) {
			t.Parallel()
			act, err := dist.ParseWheelName(filename)
			if tc.ExpErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.Exp, act)
			}
		})
	}
}

func TestParseSdistName(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Exp    *dist.SdistName
		ExpErr bool
	}{
		"npfl138-2405.0.tar.gz": {
			Exp: &dist.SdistName{
				Distribution: "npfl138",
				Version:      *pep440.MustParseVersion("2405.0"),
			},
		},
		"my-proj-1.0.tar.gz": {
			Exp: &dist.SdistName{
				Distribution: "my-proj",
				Version:      *pep440.MustParseVersion("1.0"),
			},
		},
		"foo-1.0-rc1.tar.gz": {
			Exp: &dist.SdistName{
				Distribution: "foo",
				Version:      *pep440.MustParseVersion("1.0rc1"),
			},
		},
		"pkg-1.0.zip":      {ExpErr: true},
		"noversion.tar.gz": {ExpErr: true},
		"-1.0.tar.gz":      {ExpErr: true},
	}
	for filename, tc := range testcases {
		filename := filename
		tc := tc
		t.Run(filename, func(t *testing.T) {
			t.Parallel()
			act, err := dist.ParseSdistName(filename)
			if tc.ExpErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.Exp, act)
			}
		})
	}
}

func TestEscapeName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "my_project", dist.EscapeName("My.Project"))
	assert.Equal(t, "npfl138", dist.EscapeName("npfl138"))
}

func TestScan(t *testing.T) {
	t.Parallel()
	outDir := t.TempDir()
	makeWheel(t, filepath.Join(outDir, "npfl138-2405.0-py3-none-any.whl"),
		"npfl138-2405.0.dist-info", sampleMetadata)
	makeSdist(t, filepath.Join(outDir, "npfl138-2405.0.tar.gz"),
		"npfl138-2405.0", sampleMetadata)

	artifacts, err := dist.Scan(outDir)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	// sdist sorts first.
	assert.Equal(t, dist.KindSdist, artifacts[0].Kind)
	assert.Equal(t, "npfl138-2405.0.tar.gz", artifacts[0].Filename)
	assert.Equal(t, dist.KindWheel, artifacts[1].Kind)
	assert.Equal(t, "npfl138-2405.0-py3-none-any.whl", artifacts[1].Filename)

	assert.True(t, dist.Has(artifacts, dist.KindSdist))
	assert.True(t, dist.Has(artifacts, dist.KindWheel))

	for _, artifact := range artifacts {
		assert.Equal(t, "npfl138", artifact.Name)
		assert.Equal(t, "2405.0", artifact.Version.String())

		name, err := artifact.Metadata.Name()
		require.NoError(t, err)
		assert.Equal(t, "npfl138", name)

		content, err := os.ReadFile(artifact.Path)
		require.NoError(t, err)
		assert.Equal(t, int64(len(content)), artifact.Size)
		expSHA256 := sha256.Sum256(content)
		assert.Equal(t, hex.EncodeToString(expSHA256[:]), artifact.Digests["sha256"])
		assert.Contains(t, artifact.Digests, "md5")
		assert.Contains(t, artifact.Digests, "blake2_256")
	}

	require.NoError(t, dist.Verify(artifacts, "npfl138", pep440.MustParseVersion("2405.0")))
	// A nil version means "whatever the build computed", as long as it's consistent.
	require.NoError(t, dist.Verify(artifacts, "npfl138", nil))
}

func TestScanStray(t *testing.T) {
	t.Parallel()
	outDir := t.TempDir()
	makeSdist(t, filepath.Join(outDir, "npfl138-2405.0.tar.gz"),
		"npfl138-2405.0", sampleMetadata)
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "build.log"), []byte("junk"), 0o644))

	_, err := dist.Scan(outDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected file")
}

func TestReadWheelMetadataMismatch(t *testing.T) {
	t.Parallel()
	wheelPath := filepath.Join(t.TempDir(), "npfl138-2405.0-py3-none-any.whl")
	makeWheel(t, wheelPath, "otherproject-1.0.dist-info", sampleMetadata)

	name, err := dist.ParseWheelName(filepath.Base(wheelPath))
	require.NoError(t, err)
	_, err = dist.ReadWheelMetadata(wheelPath, *name)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doesn't agree with the filename")
}

func TestVerifyMismatch(t *testing.T) {
	t.Parallel()
	outDir := t.TempDir()
	makeSdist(t, filepath.Join(outDir, "npfl138-2405.0.tar.gz"),
		"npfl138-2405.0", sampleMetadata)

	artifacts, err := dist.Scan(outDir)
	require.NoError(t, err)

	err = dist.Verify(artifacts, "otherproject", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `not "otherproject"`)

	err = dist.Verify(artifacts, "npfl138", pep440.MustParseVersion("2406.0"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not 2406.0")

	assert.Error(t, dist.Verify(nil, "npfl138", nil))
}

func TestVerifyMetadataDisagrees(t *testing.T) {
	t.Parallel()
	outDir := t.TempDir()
	// The filename and the root dir say 2405.1, but the embedded PKG-INFO says 2405.0.
	makeSdist(t, filepath.Join(outDir, "npfl138-2405.1.tar.gz"),
		"npfl138-2405.1", sampleMetadata)

	artifacts, err := dist.Scan(outDir)
	require.NoError(t, err)

	err = dist.Verify(artifacts, "npfl138", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedded metadata is version 2405.0")
}

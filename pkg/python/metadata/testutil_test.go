package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datawire/pypublish/pkg/python/pep440"
)

func mustParseVersion(t *testing.T, str string) *pep440.Version {
	t.Helper()
	ver, err := pep440.ParseVersion(str)
	require.NoError(t, err)
	return ver
}

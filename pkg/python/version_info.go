package python

import (
	"fmt"

	"github.com/datawire/pypublish/pkg/python/pep440"
)

// VersionInfo is Python `sys.version_info`.
type VersionInfo struct {
	Major        int    `json:"major"`
	Minor        int    `json:"minor"`
	Micro        int    `json:"micro"`
	ReleaseLevel string `json:"releaselevel"` // 'alpha', 'beta', 'candidate', or 'final'
	Serial       int    `json:"serial"`
}

func (vi VersionInfo) String() string {
	return fmt.Sprintf("%d.%d.%d", vi.Major, vi.Minor, vi.Micro)
}

// PEP440 converts the version_info tuple to a PEP 440 version, so that it can be matched against a
// Requires-Python specifier.
func (vi VersionInfo) PEP440() (*pep440.Version, error) {
	var ret pep440.Version
	ret.Release = []int{
		vi.Major,
		vi.Minor,
		vi.Micro,
	}
	switch vi.ReleaseLevel {
	case "alpha":
		ret.Pre = &pep440.PreRelease{L: "a", N: vi.Serial}
	case "beta":
		ret.Pre = &pep440.PreRelease{L: "b", N: vi.Serial}
	case "candidate":
		ret.Pre = &pep440.PreRelease{L: "rc", N: vi.Serial}
	case "final":
		ret.Pre = nil
	default:
		return nil, fmt.Errorf("python.VersionInfo.PEP440: invalid version_info.releaselevel: %q",
			vi.ReleaseLevel)
	}
	return &ret, nil
}

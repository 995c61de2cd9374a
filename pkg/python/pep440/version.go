// Copyright (C) 2021-2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep440 implements PEP 440 -- Version Identification and Dependency Specification.
//
// https://peps.python.org/pep-0440/
package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// Version is a PEP 440 version identifier:
//
//	[N!]N(.N)*[{a|b|rc}N][.postN][.devN][+<local version label>]
//
// The PEP calls the part before the "+" the "public version identifier" and the whole thing
// (when a local version label is present) a "local version identifier"; most code should just
// deal in whole Versions and not worry about the distinction.
type Version = LocalVersion

// PublicVersion is the public version identifier part of a Version; everything but the local
// version label.
type PublicVersion struct {
	// "[N!]" version epoch; 0 (and rendered as absent) for almost all real-world versions.
	Epoch int
	// "N(.N)*" release segment.
	Release []int
	// "[{a|b|rc}N]" pre-release segment; nil for non-pre-releases.
	Pre *PreRelease
	// "[.postN]" post-release segment; nil for non-post-releases.
	Post *int
	// "[.devN]" developmental release segment; nil for non-dev-releases.
	Dev *int
}

// PreRelease is the pre-release segment of a version; a cycle letter and a number, as in "rc2".
type PreRelease struct {
	L string // "a", "b", or "rc" (normalized)
	N int
}

// LocalVersion is a PublicVersion plus a local version label, as in "1.0+ubuntu.1".  Local
// versions describe downstream patched rebuilds of an upstream public version.
type LocalVersion struct {
	PublicVersion
	Local []intstr.IntOrString
}

// reVersion is the regular expression from PEP 440 Appendix B, which accepts every permitted
// spelling of a version; ParseVersion normalizes what it captures.
//
//nolint:gochecknoglobals // Would be 'const'.
var reVersion = regexp.MustCompile(`(?i)^\s*v?` + regexp.MustCompile(`(?:\s+|#.*)`).ReplaceAllString(`
	(?:(?P<epoch>[0-9]+)!)?                         # epoch segment
	(?P<release>[0-9]+(?:\.[0-9]+)*)                # release segment
	(?P<pre>                                        # pre-release segment
		[-_.]?
		(?P<pre_l>a|b|c|rc|alpha|beta|pre|preview)
		[-_.]?
		(?P<pre_n>[0-9]+)?
	)?
	(?P<post>                                       # post-release segment
		(?:-(?P<post_n1>[0-9]+))
		|
		(?:
			[-_.]?
			(?P<post_l>post|rev|r)
			[-_.]?
			(?P<post_n2>[0-9]+)?
		)
	)?
	(?P<dev>                                        # developmental release segment
		[-_.]?
		dev
		[-_.]?
		(?P<dev_n>[0-9]+)?
	)?
	(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?  # local version label
`, "") + `\s*$`)

//nolint:gochecknoglobals // Would be 'const'.
var reLocalSep = regexp.MustCompile(`[-_.]`)

// preLetters maps every permitted pre-release spelling to its normal form.
//
//nolint:gochecknoglobals // Would be 'const'.
var preLetters = map[string]string{
	"a":       "a",
	"alpha":   "a",
	"b":       "b",
	"beta":    "b",
	"c":       "rc",
	"rc":      "rc",
	"pre":     "rc",
	"preview": "rc",
}

// ParseVersion parses a PEP 440 version identifier, accepting all of the alternate spellings that
// the PEP's "Normalization" section describes ("1.0-RC-1" parses the same as "1.0rc1").  The
// returned Version is normalized; render it with String to get the canonical spelling.
func ParseVersion(str string) (*Version, error) {
	match := reVersion.FindStringSubmatch(str)
	if match == nil {
		return nil, fmt.Errorf("invalid PEP 440 version: %q", str)
	}
	group := func(name string) string {
		return match[reVersion.SubexpIndex(name)]
	}

	var ret Version

	if epoch := group("epoch"); epoch != "" {
		num, err := strconv.Atoi(epoch)
		if err != nil {
			return nil, fmt.Errorf("invalid PEP 440 version: %q: %w", str, err)
		}
		ret.Epoch = num
	}

	for _, segment := range strings.Split(group("release"), ".") {
		num, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("invalid PEP 440 version: %q: %w", str, err)
		}
		ret.Release = append(ret.Release, num)
	}

	if group("pre") != "" {
		ret.Pre = &PreRelease{
			L: preLetters[strings.ToLower(group("pre_l"))],
			N: atoiDefaultZero(group("pre_n")),
		}
	}

	if group("post") != "" {
		var num int
		if n1 := group("post_n1"); n1 != "" {
			num = atoiDefaultZero(n1)
		} else {
			num = atoiDefaultZero(group("post_n2"))
		}
		ret.Post = &num
	}

	if group("dev") != "" {
		num := atoiDefaultZero(group("dev_n"))
		ret.Dev = &num
	}

	if local := group("local"); local != "" {
		for _, segment := range reLocalSep.Split(strings.ToLower(local), -1) {
			if num, err := strconv.Atoi(segment); err == nil {
				ret.Local = append(ret.Local, intstr.FromInt32(int32(num)))
			} else {
				ret.Local = append(ret.Local, intstr.FromString(segment))
			}
		}
	}

	return &ret, nil
}

// MustParseVersion is like ParseVersion, but panics on error; for use with hard-coded strings.
func MustParseVersion(str string) *Version {
	ver, err := ParseVersion(str)
	if err != nil {
		panic(err)
	}
	return ver
}

// atoiDefaultZero parses str as an integer, treating the empty string as 0; the caller is
// responsible for str otherwise being all digits (reVersion guarantees this).
func atoiDefaultZero(str string) int {
	if str == "" {
		return 0
	}
	num, _ := strconv.Atoi(str)
	return num
}

func (ver PublicVersion) writeTo(ret *strings.Builder) {
	if ver.Epoch != 0 {
		fmt.Fprintf(ret, "%d!", ver.Epoch)
	}
	for i, segment := range ver.Release {
		if i > 0 {
			ret.WriteByte('.')
		}
		fmt.Fprintf(ret, "%d", segment)
	}
	if ver.Pre != nil {
		fmt.Fprintf(ret, "%s%d", ver.Pre.L, ver.Pre.N)
	}
	if ver.Post != nil {
		fmt.Fprintf(ret, ".post%d", *ver.Post)
	}
	if ver.Dev != nil {
		fmt.Fprintf(ret, ".dev%d", *ver.Dev)
	}
}

// String renders the version in the canonical form of PEP 440's "Normalization" section.
func (ver PublicVersion) String() string {
	var ret strings.Builder
	ver.writeTo(&ret)
	return ret.String()
}

func (ver LocalVersion) String() string {
	var ret strings.Builder
	ver.PublicVersion.writeTo(&ret)
	if len(ver.Local) > 0 {
		ret.WriteByte('+')
		for i, segment := range ver.Local {
			if i > 0 {
				ret.WriteByte('.')
			}
			ret.WriteString(segment.String())
		}
	}
	return ret.String()
}

func (ver PublicVersion) GoString() string {
	return fmt.Sprintf("pep440.MustParseVersion(%q).PublicVersion", ver.String())
}

func (ver LocalVersion) GoString() string {
	return fmt.Sprintf("*pep440.MustParseVersion(%q)", ver.String())
}

func (ver PublicVersion) releaseSegment(n int) int {
	if n < len(ver.Release) {
		return ver.Release[n]
	}
	return 0
}

// Major is the first release segment ("X" of "X.Y.Z").
func (ver PublicVersion) Major() int { return ver.releaseSegment(0) }

// Minor is the second release segment ("Y" of "X.Y.Z").
func (ver PublicVersion) Minor() int { return ver.releaseSegment(1) }

// Micro is the third release segment ("Z" of "X.Y.Z").
func (ver PublicVersion) Micro() int { return ver.releaseSegment(2) }

// IsFinal reports whether the version is a "final release" in PEP 440's sense: just an epoch and
// a release segment.
func (ver PublicVersion) IsFinal() bool {
	return ver.Pre == nil && ver.Post == nil && ver.Dev == nil
}

func (ver LocalVersion) IsFinal() bool {
	return ver.PublicVersion.IsFinal() && len(ver.Local) == 0
}

// IsPreRelease reports whether the version is a pre-release in the sense that version specifiers
// care about; developmental releases count.
func (ver PublicVersion) IsPreRelease() bool {
	return ver.Pre != nil || ver.Dev != nil
}

// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package dist models built distribution archives -- sdists and wheels -- sitting in an output
// directory, ready to be uploaded.
package dist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/datawire/pypublish/pkg/python/metadata"
	"github.com/datawire/pypublish/pkg/python/pep425"
	"github.com/datawire/pypublish/pkg/python/pep440"
	"github.com/datawire/pypublish/pkg/python/pep503"
)

// Kind identifies the flavor of a distribution archive, spelled the way the upload API's
// "filetype" field spells it.
type Kind string

const (
	KindSdist Kind = "sdist"
	KindWheel Kind = "bdist_wheel"
)

// An Artifact is one built distribution archive in an output directory.
type Artifact struct {
	Path     string
	Filename string
	Kind     Kind

	// Name and Version are parsed from the filename; Name is as-spelled there, not
	// normalized.
	Name    string
	Version pep440.Version

	// BuildTag and CompatibilityTag are only set for wheels.
	BuildTag         *BuildTag
	CompatibilityTag *pep425.Tag

	// Metadata is the core-metadata document embedded in the archive.
	Metadata *metadata.Metadata

	Size    int64
	Digests map[string]string // algorithm name => hex digest
}

func (a Artifact) String() string {
	return a.Filename
}

// EscapeName escapes a project name for embedding in a distribution filename: the PEP 503
// normalization, but with "_" instead of "-" so that the filename's "-" separators stay
// unambiguous.
func EscapeName(name string) string {
	return strings.ReplaceAll(pep503.Normalize(name), "-", "_")
}

// A WheelName is the parse of a wheel filename: ``{distribution}-{version}(-{build
// tag})?-{python tag}-{abi tag}-{platform tag}.whl``.
type WheelName struct {
	Distribution     string
	Version          pep440.Version
	BuildTag         *BuildTag
	CompatibilityTag pep425.Tag
}

//nolint:gochecknoglobals // Would be 'const'.
var reWheelName = regexp.MustCompile(regexp.MustCompile(`\s+`).ReplaceAllString(`
		^(?P<distribution>[^-]+)
		-(?P<version>[^-]+)
		(?:-(?P<build_n>[0-9]+)(?P<build_l>[^-0-9][^-]*)?)?
		-(?P<python>[^-]+)
		-(?P<abi>[^-]+)
		-(?P<platform>[^-]+)
		\.whl$`, ``))

func ParseWheelName(filename string) (*WheelName, error) {
	match := reWheelName.FindStringSubmatch(filename)
	if match == nil {
		return nil, fmt.Errorf("invalid wheel filename: %q", filename)
	}

	var ret WheelName

	ret.Distribution = match[reWheelName.SubexpIndex("distribution")]

	ver, err := pep440.ParseVersion(match[reWheelName.SubexpIndex("version")])
	if err != nil {
		return nil, fmt.Errorf("invalid wheel filename: %q: %w", filename, err)
	}
	ret.Version = *ver

	if buildN := match[reWheelName.SubexpIndex("build_n")]; buildN != "" {
		n, _ := strconv.Atoi(buildN)
		ret.BuildTag = &BuildTag{
			Int: n,
			Str: match[reWheelName.SubexpIndex("build_l")],
		}
	}

	ret.CompatibilityTag = pep425.Tag{
		Python:   match[reWheelName.SubexpIndex("python")],
		ABI:      match[reWheelName.SubexpIndex("abi")],
		Platform: match[reWheelName.SubexpIndex("platform")],
	}

	return &ret, nil
}

// A BuildTag is the optional build-number component of a wheel filename.  It must start with a
// digit; it acts as a tie-breaker between wheels that agree on everything else.
type BuildTag struct {
	Int int
	Str string
}

func (t BuildTag) String() string {
	return fmt.Sprintf("%d%s", t.Int, t.Str)
}

func (a *BuildTag) Cmp(b *BuildTag) int {
	// Sort as an empty tuple if unspecified.
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if d := a.Int - b.Int; d != 0 {
		return d
	}
	return strings.Compare(a.Str, b.Str)
}

// A SdistName is the parse of an sdist filename: ``{name}-{version}.tar.gz``.
type SdistName struct {
	Distribution string
	Version      pep440.Version
}

// ParseSdistName parses an sdist filename.  Unlike wheel filenames, nothing here is escaped:
// both the name and a non-canonical version may contain "-", so scan for the right-most "-"
// that splits the stem into a nonempty name and a parsable version.
func ParseSdistName(filename string) (*SdistName, error) {
	if !strings.HasSuffix(filename, ".tar.gz") {
		return nil, fmt.Errorf("invalid sdist filename: %q", filename)
	}
	stem := strings.TrimSuffix(filename, ".tar.gz")
	for i := strings.LastIndex(stem, "-"); i > 0; i = strings.LastIndex(stem[:i], "-") {
		ver, err := pep440.ParseVersion(stem[i+1:])
		if err != nil {
			continue
		}
		return &SdistName{
			Distribution: stem[:i],
			Version:      *ver,
		}, nil
	}
	return nil, fmt.Errorf("invalid sdist filename: %q", filename)
}

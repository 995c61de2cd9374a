// Copyright (C) 2021-2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep425 implements PEP 425 -- Compatibility Tags for Built Distributions.
//
// https://peps.python.org/pep-0425/
package pep425

import (
	"fmt"
	"strings"
)

// Tag is a compatibility tag, as it appears in a wheel filename: an interpreter tag, an ABI tag,
// and a platform tag, as in "cp312-cp312-manylinux_2_17_x86_64".  Each part may itself be a
// "."-separated compressed tag set, as in "py2.py3-none-any"; see Decompress.
type Tag struct {
	Python   string
	ABI      string
	Platform string
}

// ParseTag parses a (possibly compressed) "python-abi-platform" tag triple.
func ParseTag(str string) (*Tag, error) {
	parts := strings.Split(str, "-")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid PEP 425 compatibility tag: %q", str)
	}
	for _, part := range parts {
		for _, sub := range strings.Split(part, ".") {
			if sub == "" {
				return nil, fmt.Errorf("invalid PEP 425 compatibility tag: %q", str)
			}
		}
	}
	return &Tag{
		Python:   parts[0],
		ABI:      parts[1],
		Platform: parts[2],
	}, nil
}

func (t Tag) String() string {
	return t.Python + "-" + t.ABI + "-" + t.Platform
}

// Decompress expands a compressed tag set into the simple tags it names;
// "py2.py3-none-any" expands to "py2-none-any" and "py3-none-any".
func (t Tag) Decompress() []Tag {
	var ret []Tag
	for _, x := range strings.Split(t.Python, ".") {
		for _, y := range strings.Split(t.ABI, ".") {
			for _, z := range strings.Split(t.Platform, ".") {
				ret = append(ret, Tag{x, y, z})
			}
		}
	}
	return ret
}

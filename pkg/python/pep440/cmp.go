// Copyright (C) 2021-2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep440

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// This file implements PEP 440's "Summary of permitted suffixes and relative ordering".  Within a
// given release segment, the suffixes order as
//
//	.devN < aN < bN < rcN < (bare release) < .postN
//
// with .devN and local version labels further subdividing each of those points.

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpEpoch(a, b PublicVersion) int {
	return cmpInt(a.Epoch, b.Epoch)
}

// cmpRelease compares release segments, zero-padding the shorter one ("1.2" == "1.2.0").
func cmpRelease(a, b PublicVersion) int {
	segments := len(a.Release)
	if len(b.Release) > segments {
		segments = len(b.Release)
	}
	for i := 0; i < segments; i++ {
		if d := cmpInt(a.releaseSegment(i), b.releaseSegment(i)); d != 0 {
			return d
		}
	}
	return 0
}

//nolint:gochecknoglobals // Would be 'const'.
var preLetterOrder = map[string]int{
	"a":  1,
	"b":  2,
	"rc": 3,
}

// preClass positions a version relative to pre-releases of the same release segment: a version
// with no pre-release segment sorts after any pre-release, EXCEPT that a bare dev-release (like
// "1.0.dev1", with no pre- or post-segment) sorts before even "1.0a1".
func (ver PublicVersion) preClass() int {
	switch {
	case ver.Pre != nil:
		return 0
	case ver.Post == nil && ver.Dev != nil:
		return -1
	default:
		return 1
	}
}

func cmpPreRelease(a, b PublicVersion) int {
	if d := cmpInt(a.preClass(), b.preClass()); d != 0 {
		return d
	}
	if a.Pre == nil || b.Pre == nil {
		return 0
	}
	if d := cmpInt(preLetterOrder[a.Pre.L], preLetterOrder[b.Pre.L]); d != 0 {
		return d
	}
	return cmpInt(a.Pre.N, b.Pre.N)
}

func cmpPostRelease(a, b PublicVersion) int {
	// No post-release segment sorts before any post-release of the same point.
	aN, bN := -1, -1
	if a.Post != nil {
		aN = *a.Post
	}
	if b.Post != nil {
		bN = *b.Post
	}
	return cmpInt(aN, bN)
}

func cmpDevRelease(a, b PublicVersion) int {
	// A dev-release sorts before the release it is a preview of.
	switch {
	case a.Dev == nil && b.Dev == nil:
		return 0
	case a.Dev == nil:
		return 1
	case b.Dev == nil:
		return -1
	default:
		return cmpInt(*a.Dev, *b.Dev)
	}
}

// cmpLocalSegment compares a single pair of local version label segments: numeric segments
// compare numerically and sort after alphanumeric ones, which compare lexically.
func cmpLocalSegment(a, b intstr.IntOrString) int {
	switch {
	case a.Type == intstr.Int && b.Type == intstr.Int:
		return cmpInt(int(a.IntVal), int(b.IntVal))
	case a.Type == intstr.Int:
		return 1
	case b.Type == intstr.Int:
		return -1
	default:
		return strings.Compare(a.StrVal, b.StrVal)
	}
}

func cmpLocal(a, b LocalVersion) int {
	for i := 0; i < len(a.Local) && i < len(b.Local); i++ {
		if d := cmpLocalSegment(a.Local[i], b.Local[i]); d != 0 {
			return d
		}
	}
	return cmpInt(len(a.Local), len(b.Local))
}

// Cmp returns -1 if a sorts before b, +1 if a sorts after b, and 0 if they are equal (which,
// because parsing normalizes, means they are the same version).
func (a PublicVersion) Cmp(b PublicVersion) int {
	for _, cmp := range []func(PublicVersion, PublicVersion) int{
		cmpEpoch,
		cmpRelease,
		cmpPreRelease,
		cmpPostRelease,
		cmpDevRelease,
	} {
		if d := cmp(a, b); d != 0 {
			return d
		}
	}
	return 0
}

func (a LocalVersion) Cmp(b LocalVersion) int {
	if d := a.PublicVersion.Cmp(b.PublicVersion); d != 0 {
		return d
	}
	return cmpLocal(a, b)
}

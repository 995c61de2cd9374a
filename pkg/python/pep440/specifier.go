// Copyright (C) 2021-2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep440

import (
	"fmt"
	"strings"
)

// Specifier is a PEP 440 version specifier: a comma-separated list of clauses, all of which must
// match, as in ">=3.9, <4".  An empty Specifier matches every version.
type Specifier []SpecifierClause

// ParseSpecifier parses a PEP 440 version specifier.
func ParseSpecifier(str string) (Specifier, error) {
	if strings.TrimSpace(str) == "" {
		return Specifier{}, nil
	}
	clauseStrs := strings.Split(str, ",")
	ret := make(Specifier, 0, len(clauseStrs))
	for _, clauseStr := range clauseStrs {
		clause, err := parseSpecifierClause(clauseStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PEP 440 version specifier: %q: %w", str, err)
		}
		ret = append(ret, clause)
	}
	return ret, nil
}

func (spec Specifier) String() string {
	parts := make([]string, 0, len(spec))
	for _, clause := range spec {
		parts = append(parts, clause.String())
	}
	return strings.Join(parts, ",")
}

// Match reports whether ver satisfies every clause of the specifier.
func (spec Specifier) Match(ver Version) bool {
	for _, clause := range spec {
		if !clause.Match(ver) {
			return false
		}
	}
	return true
}

// CmpOp is a version specifier clause's comparison operator.
type CmpOp int

const (
	CmpOpCompatible    CmpOp = iota // "~=": compatible release
	CmpOpStrictMatch                // "==": version matching
	CmpOpPrefixMatch                // "==" with a ".*" suffix: prefix matching
	CmpOpStrictExclude              // "!=": version exclusion
	CmpOpPrefixExclude              // "!=" with a ".*" suffix: prefix exclusion
	CmpOpLE                         // "<=": inclusive ordered comparison
	CmpOpGE                         // ">=": inclusive ordered comparison
	CmpOpLT                         // "<": exclusive ordered comparison
	CmpOpGT                         // ">": exclusive ordered comparison
	CmpOpArbitraryEQ                // "===": arbitrary (string) equality
)

func (op CmpOp) String() string {
	switch op {
	case CmpOpCompatible:
		return "~="
	case CmpOpStrictMatch, CmpOpPrefixMatch:
		return "=="
	case CmpOpStrictExclude, CmpOpPrefixExclude:
		return "!="
	case CmpOpLE:
		return "<="
	case CmpOpGE:
		return ">="
	case CmpOpLT:
		return "<"
	case CmpOpGT:
		return ">"
	case CmpOpArbitraryEQ:
		return "==="
	default:
		return fmt.Sprintf("CmpOp(%d)", int(op))
	}
}

// SpecifierClause is a single clause of a Specifier; an operator and a version.
type SpecifierClause struct {
	CmpOp   CmpOp
	Version Version
	// Raw is the version text exactly as written; it is what CmpOpArbitraryEQ compares, since
	// "===" works on unparsed strings.
	Raw string
}

//nolint:gochecknoglobals // Would be 'const'.
var cmpOps = []struct {
	str string
	op  CmpOp
}{
	// Sorted longest-first, because parsing takes the first operator that matches.
	{"===", CmpOpArbitraryEQ},
	{"==", CmpOpStrictMatch},
	{"!=", CmpOpStrictExclude},
	{"~=", CmpOpCompatible},
	{"<=", CmpOpLE},
	{">=", CmpOpGE},
	{"<", CmpOpLT},
	{">", CmpOpGT},
}

func parseSpecifierClause(str string) (SpecifierClause, error) {
	var ret SpecifierClause

	str = strings.TrimSpace(str)
	opStr := ""
	for _, candidate := range cmpOps {
		if strings.HasPrefix(str, candidate.str) {
			opStr = candidate.str
			ret.CmpOp = candidate.op
			break
		}
	}
	if opStr == "" {
		return ret, fmt.Errorf("clause %q does not start with a comparison operator", str)
	}
	verStr := strings.TrimSpace(strings.TrimPrefix(str, opStr))
	if verStr == "" {
		return ret, fmt.Errorf("clause %q does not name a version", str)
	}
	ret.Raw = verStr

	if ret.CmpOp == CmpOpArbitraryEQ {
		// "===" compares raw strings; don't even try to parse the version.
		return ret, nil
	}

	if strings.HasSuffix(verStr, ".*") {
		switch ret.CmpOp {
		case CmpOpStrictMatch:
			ret.CmpOp = CmpOpPrefixMatch
		case CmpOpStrictExclude:
			ret.CmpOp = CmpOpPrefixExclude
		default:
			return ret, fmt.Errorf("clause %q: a \".*\" suffix is only valid with \"==\" or \"!=\"", str)
		}
		verStr = strings.TrimSuffix(verStr, ".*")
	}

	ver, err := ParseVersion(verStr)
	if err != nil {
		return ret, fmt.Errorf("clause %q: %w", str, err)
	}
	ret.Version = *ver

	switch ret.CmpOp {
	case CmpOpPrefixMatch, CmpOpPrefixExclude:
		if !ret.Version.IsFinal() {
			return ret, fmt.Errorf("clause %q: a prefix may only name an epoch and release segments", str)
		}
	case CmpOpCompatible:
		if len(ret.Version.Release) < 2 {
			return ret, fmt.Errorf("clause %q: \"~=\" needs at least two release segments to define compatibility", str)
		}
	}
	switch ret.CmpOp {
	case CmpOpStrictMatch, CmpOpStrictExclude:
		// Local version labels are permitted here.
	default:
		if len(ret.Version.Local) > 0 {
			return ret, fmt.Errorf("clause %q: a local version label is only valid with \"==\" or \"!=\"", str)
		}
	}

	return ret, nil
}

func (spec SpecifierClause) String() string {
	switch spec.CmpOp {
	case CmpOpArbitraryEQ:
		return spec.CmpOp.String() + spec.Raw
	case CmpOpPrefixMatch, CmpOpPrefixExclude:
		return spec.CmpOp.String() + spec.Version.String() + ".*"
	default:
		return spec.CmpOp.String() + spec.Version.String()
	}
}

// Match reports whether ver satisfies the clause.
func (spec SpecifierClause) Match(ver Version) bool {
	switch spec.CmpOp {
	case CmpOpCompatible:
		return matchCompatible(spec.Version, ver)
	case CmpOpStrictMatch:
		return matchStrictMatch(spec.Version, ver)
	case CmpOpPrefixMatch:
		return matchPrefixMatch(spec.Version, ver)
	case CmpOpStrictExclude:
		return !matchStrictMatch(spec.Version, ver)
	case CmpOpPrefixExclude:
		return !matchPrefixMatch(spec.Version, ver)
	case CmpOpLE:
		return matchLE(spec.Version, ver)
	case CmpOpGE:
		return matchGE(spec.Version, ver)
	case CmpOpLT:
		return matchLT(spec.Version, ver)
	case CmpOpGT:
		return matchGT(spec.Version, ver)
	case CmpOpArbitraryEQ:
		return spec.Raw == ver.String()
	default:
		return false
	}
}

// matchCompatible implements "~= X.Y[.Z...]", which PEP 440 defines as the pair of clauses
// ">= X.Y.Z, == X.Y.*".
func matchCompatible(spec, ver Version) bool {
	if !matchGE(spec, ver) {
		return false
	}
	prefix := Version{PublicVersion: PublicVersion{
		Epoch:   spec.Epoch,
		Release: spec.Release[:len(spec.Release)-1],
	}}
	return matchPrefixMatch(prefix, ver)
}

// matchStrictMatch implements "==".  The candidate's local version label is ignored unless the
// clause names one; "==1.0" matches "1.0+local", but "==1.0+local" matches only exactly that.
func matchStrictMatch(spec, ver Version) bool {
	if len(spec.Local) > 0 {
		return spec.Cmp(ver) == 0
	}
	return spec.PublicVersion.Cmp(ver.PublicVersion) == 0
}

// matchPrefixMatch implements "== X.Y.*": the epoch must match and the candidate's release
// segments must start with the named ones (zero-padded, so "==1.2.0.*" matches "1.2").
func matchPrefixMatch(spec, ver Version) bool {
	if cmpEpoch(spec.PublicVersion, ver.PublicVersion) != 0 {
		return false
	}
	for i, segment := range spec.Release {
		if ver.PublicVersion.releaseSegment(i) != segment {
			return false
		}
	}
	return true
}

// Ordered comparisons work on the public version; local version labels are ignored.

func matchLE(spec, ver Version) bool {
	return ver.PublicVersion.Cmp(spec.PublicVersion) <= 0
}

func matchGE(spec, ver Version) bool {
	return ver.PublicVersion.Cmp(spec.PublicVersion) >= 0
}

func baseEqual(a, b PublicVersion) bool {
	return cmpEpoch(a, b) == 0 && cmpRelease(a, b) == 0
}

// matchLT implements "<", which does not match pre-releases of the named version itself unless
// the named version is a pre-release: "<1.7" matches "1.6.8" but not "1.7rc1".
func matchLT(spec, ver Version) bool {
	if ver.PublicVersion.Cmp(spec.PublicVersion) >= 0 {
		return false
	}
	if ver.IsPreRelease() && !spec.IsPreRelease() && baseEqual(ver.PublicVersion, spec.PublicVersion) {
		return false
	}
	return true
}

// matchGT implements ">", which does not match post-releases of the named version itself unless
// the named version is a post-release, and never matches local versions of it: ">1.7" matches
// "1.7.1" but not "1.7.post2" or "1.7+local".
func matchGT(spec, ver Version) bool {
	if ver.PublicVersion.Cmp(spec.PublicVersion) <= 0 {
		return false
	}
	if baseEqual(ver.PublicVersion, spec.PublicVersion) {
		if ver.Post != nil && spec.Post == nil {
			return false
		}
		if len(ver.Local) > 0 {
			return false
		}
	}
	return true
}

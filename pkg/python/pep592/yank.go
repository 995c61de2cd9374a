// Copyright (C) 2021-2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep592 implements PEP 592 -- Adding "Yank" Support to the Simple API.
//
// https://peps.python.org/pep-0592/
package pep592

import (
	"github.com/datawire/pypublish/pkg/python/pep503"
)

// IsYanked reports whether the file has been yanked.  A yanked file is still present on the
// index, and its filename is still taken; installers just won't pick it by default.
func IsYanked(l pep503.FileLink) bool {
	_, yanked := l.DataAttrs["data-yanked"]
	return yanked
}

// YankedReason returns the reason the file was yanked, or "" if it wasn't (or if no reason was
// given; the attribute's value is optional).
func YankedReason(l pep503.FileLink) string {
	return l.DataAttrs["data-yanked"]
}

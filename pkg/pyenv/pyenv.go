// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pyenv locates a Python interpreter that satisfies a project's requires-python
// constraint.
package pyenv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dlog"

	"github.com/datawire/pypublish/pkg/python"
	"github.com/datawire/pypublish/pkg/python/pep440"
)

// DefaultCandidates are the interpreter commands to try, in order, when the caller doesn't name
// any.
//
//nolint:gochecknoglobals // Would be 'const'.
var DefaultCandidates = []string{"python3", "python"}

// An Interpreter is a discovered Python interpreter.
type Interpreter struct {
	// Command is the name the interpreter was looked up as ("python3").
	Command string `json:"command"`
	// Path is the looked-up path of the executable.
	Path string `json:"path"`
	// Executable is sys.executable as the interpreter itself reports it; symlinks and shim
	// scripts can make this differ from Path.
	Executable string `json:"executable"`
	// Prefix is sys.prefix; it identifies the virtualenv when one is active.
	Prefix string `json:"prefix"`

	VersionInfo python.VersionInfo `json:"version_info"`
}

// Version is the interpreter's version as a PEP 440 version, fit for matching against a
// requires-python constraint.
func (py *Interpreter) Version() (*pep440.Version, error) {
	return py.VersionInfo.PEP440()
}

// Inspect runs the interpreter to ask it about itself.  The snippet may only use the standard
// library; a candidate interpreter can't be assumed to have anything else installed.
func Inspect(ctx context.Context, cmdline ...string) (*Interpreter, error) {
	cmd := dexec.CommandContext(ctx, cmdline[0], append(cmdline[1:], "-c", `
import json
import sys

version_info_slots = ['major', 'minor', 'micro', 'releaselevel', 'serial']

json.dump({
  "executable": sys.executable,
  "prefix": sys.prefix,
  "version_info": {slot: getattr(sys.version_info, slot) for slot in version_info_slots},
}, sys.stdout)
`)...)
	cmd.DisableLogging = true
	bs, err := cmd.Output()
	if err != nil {
		var exitErr *dexec.ExitError
		if errors.As(err, &exitErr) {
			err = fmt.Errorf("%w:\n > %s", err,
				strings.Join(strings.Split(string(exitErr.Stderr), "\n"), "\n > "))
		}
		err = fmt.Errorf("running Python: %w", err)
		return nil, err
	}
	var ret Interpreter
	if err := json.Unmarshal(bs, &ret); err != nil {
		return nil, err
	}
	ret.Command = cmdline[0]
	ret.Path = cmdline[0]
	return &ret, nil
}

// Find tries each candidate command in order and returns the first one that satisfies the
// constraint.  When none does, the error lists what was wrong with every candidate; "no python
// found" without the particulars is a miserable thing to debug from a CI log.
func Find(ctx context.Context, candidates []string, constraint pep440.Specifier) (*Interpreter, error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	var problems derror.MultiError
	for _, candidate := range candidates {
		exe, err := dexec.LookPath(candidate)
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", candidate, err))
			continue
		}
		py, err := Inspect(ctx, exe)
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", candidate, err))
			continue
		}
		py.Command = candidate

		version, err := py.Version()
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", candidate, err))
			continue
		}
		if !constraint.Match(*version) {
			problems = append(problems, fmt.Errorf("%s: version %s does not satisfy %q",
				candidate, version, constraint.String()))
			continue
		}

		dlog.Infof(ctx, "using %s (Python %s)", py.Path, py.VersionInfo)
		return py, nil
	}
	return nil, fmt.Errorf("no suitable Python interpreter for %q: %w",
		constraint.String(), problems)
}

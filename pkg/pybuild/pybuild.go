// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pybuild builds a project's distribution archives by driving `python -m build`.
package pybuild

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dlog"

	"github.com/datawire/pypublish/pkg/pyenv"
	"github.com/datawire/pypublish/pkg/pyproject"
	"github.com/datawire/pypublish/pkg/python/dist"
	"github.com/datawire/pypublish/pkg/reproducible"
)

// Options configures a build.
type Options struct {
	// ProjectDir is the directory containing pyproject.toml.
	ProjectDir string
	// OutDir is where the built archives land.  It must be empty or absent; stale archives
	// from an earlier build must not survive into an upload.
	OutDir string

	// Sdist and Wheel select which archive kinds to build.  Both false means both, matching
	// the build tool's own default (which builds the wheel from the sdist rather than from
	// the source tree).
	Sdist bool
	Wheel bool

	// NoIsolation builds in the running environment instead of a fresh one; the build
	// dependencies must then already be installed.
	NoIsolation bool

	// Env is extra "KEY=value" entries for the build's environment.
	Env []string
}

// A Result is what a successful build leaves behind.
type Result struct {
	Manifest  *pyproject.Manifest
	Artifacts []dist.Artifact
}

// ensureEmptyDir creates dir if needed, and errors if it already has contents.
func ensureEmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case os.IsNotExist(err):
		return os.MkdirAll(dir, 0o777)
	case err != nil:
		return err
	case len(entries) > 0:
		return fmt.Errorf("output directory %q is not empty", dir)
	default:
		return nil
	}
}

// Build reads the project's manifest, runs the build tool with the given interpreter, and
// scans+verifies what the build left in OutDir.
func Build(ctx context.Context, py *pyenv.Interpreter, opts Options) (*Result, error) {
	manifest, err := pyproject.LoadDir(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	if err := ensureEmptyDir(opts.OutDir); err != nil {
		return nil, err
	}

	args := []string{py.Path, "-m", "build"}
	switch {
	case opts.Sdist && !opts.Wheel:
		args = append(args, "--sdist")
	case opts.Wheel && !opts.Sdist:
		args = append(args, "--wheel")
	}
	if opts.NoIsolation {
		args = append(args, "--no-isolation")
	}
	args = append(args, "--outdir", opts.OutDir, opts.ProjectDir)

	cmd := dexec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stderr
	cmd.Env = reproducible.Env(append(os.Environ(), opts.Env...))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("building %s: %w", manifest.Project.Name, err)
	}

	artifacts, err := dist.Scan(opts.OutDir)
	if err != nil {
		return nil, err
	}
	wantSdist := opts.Sdist || !opts.Wheel
	wantWheel := opts.Wheel || !opts.Sdist
	if wantSdist && !dist.Has(artifacts, dist.KindSdist) {
		return nil, fmt.Errorf("build produced no sdist in %q", opts.OutDir)
	}
	if wantWheel && !dist.Has(artifacts, dist.KindWheel) {
		return nil, fmt.Errorf("build produced no wheel in %q", opts.OutDir)
	}
	if err := dist.Verify(artifacts, manifest.Project.Name, manifest.Project.ParsedVersion()); err != nil {
		return nil, err
	}

	for _, artifact := range artifacts {
		dlog.Infof(ctx, "built %s", artifact.Filename)
	}
	return &Result{
		Manifest:  manifest,
		Artifacts: artifacts,
	}, nil
}

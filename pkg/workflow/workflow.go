// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package workflow generates the hosting platform's CI workflow definition that drives the
// publish pipeline: a push trigger filtered to the package manifest's path, runtime setup, and
// a job that runs `pypublish run` with the id-token permission that trusted publishing needs.
package workflow

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v2"
)

// DefaultPath is where the generated definition conventionally lives in the repository.
const DefaultPath = ".github/workflows/publish.yml"

// selfInstall is the `go install` target that the generated workflow uses to get the tool.
const selfInstall = "github.com/datawire/pypublish@latest"

// Options select what the generated workflow watches and how it publishes.
type Options struct {
	// Name is the workflow name; default "publish".
	Name string

	// Branches restricts the push trigger to the named branches; empty means any branch.
	Branches []string

	// ManifestPath is the slash-separated repository-relative path of the package
	// manifest whose changes trigger the workflow.  Required.  The manifest's directory
	// is the project directory that gets built.
	ManifestPath string

	// PythonVersion is what the runtime-setup step installs; default "3.x".
	PythonVersion string

	// RepositoryURL overrides the upload endpoint.
	RepositoryURL string

	// SkipExisting makes re-publishing an already-published version a no-op.
	SkipExisting bool
}

// The schema types mirror just the slice of the platform's workflow grammar that the
// generator emits.  yaml.v2 writes struct fields in declaration order and yaml.MapSlice
// entries in element order, which keeps the output stable.
type definition struct {
	Name string        `yaml:"name"`
	On   triggers      `yaml:"on"`
	Jobs yaml.MapSlice `yaml:"jobs"`
}

type triggers struct {
	Push push `yaml:"push"`
}

type push struct {
	Branches []string `yaml:"branches,omitempty"`
	Paths    []string `yaml:"paths"`
}

type job struct {
	RunsOn      string        `yaml:"runs-on"`
	Permissions yaml.MapSlice `yaml:"permissions"`
	Steps       []step        `yaml:"steps"`
}

type step struct {
	Uses string        `yaml:"uses,omitempty"`
	With yaml.MapSlice `yaml:"with,omitempty"`
	Run  string        `yaml:"run,omitempty"`
}

// Generate renders the workflow definition.  The output is a pure function of the Options:
// same Options in, byte-identical YAML out.
func Generate(opts Options) ([]byte, error) {
	if opts.Name == "" {
		opts.Name = "publish"
	}
	if opts.PythonVersion == "" {
		opts.PythonVersion = "3.x"
	}
	if opts.ManifestPath == "" {
		return nil, fmt.Errorf("a manifest path to watch is required")
	}
	if path.IsAbs(opts.ManifestPath) || strings.ContainsAny(opts.ManifestPath, " \t\\") {
		return nil, fmt.Errorf("manifest path %q must be a relative slash-separated path without spaces",
			opts.ManifestPath)
	}
	if strings.ContainsAny(opts.RepositoryURL, " \t") {
		return nil, fmt.Errorf("repository URL %q must not contain spaces", opts.RepositoryURL)
	}

	runCmd := []string{"pypublish", "run", "--project-dir=" + path.Dir(opts.ManifestPath)}
	if opts.RepositoryURL != "" {
		runCmd = append(runCmd, "--repository-url="+opts.RepositoryURL)
	}
	if opts.SkipExisting {
		runCmd = append(runCmd, "--skip-existing")
	}

	def := definition{
		Name: opts.Name,
		On: triggers{
			Push: push{
				Branches: opts.Branches,
				Paths:    []string{opts.ManifestPath},
			},
		},
		Jobs: yaml.MapSlice{{Key: "publish", Value: job{
			RunsOn: "ubuntu-latest",
			Permissions: yaml.MapSlice{
				{Key: "contents", Value: "read"},
				{Key: "id-token", Value: "write"},
			},
			Steps: []step{
				{Uses: "actions/checkout@v4"},
				{Uses: "actions/setup-python@v5", With: yaml.MapSlice{
					{Key: "python-version", Value: opts.PythonVersion},
				}},
				{Run: "python -m pip install build"},
				{Uses: "actions/setup-go@v5", With: yaml.MapSlice{
					{Key: "go-version", Value: "stable"},
				}},
				{Run: "go install " + selfInstall},
				{Run: strings.Join(runCmd, " ")},
			},
		}}},
	}

	var buf bytes.Buffer
	buf.WriteString("# Generated by `pypublish workflow`; change the flags that generate it, not this file.\n")
	bs, err := yaml.Marshal(def)
	if err != nil {
		return nil, err
	}
	buf.Write(bs)
	return buf.Bytes(), nil
}

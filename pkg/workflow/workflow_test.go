// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package workflow_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/datawire/pypublish/pkg/workflow"
)

type parsedWorkflow struct {
	Name string `yaml:"name"`
	On   struct {
		Push struct {
			Branches []string `yaml:"branches"`
			Paths    []string `yaml:"paths"`
		} `yaml:"push"`
	} `yaml:"on"`
	Jobs map[string]struct {
		RunsOn      string            `yaml:"runs-on"`
		Permissions map[string]string `yaml:"permissions"`
		Steps       []struct {
			Uses string            `yaml:"uses"`
			With map[string]string `yaml:"with"`
			Run  string            `yaml:"run"`
		} `yaml:"steps"`
	} `yaml:"jobs"`
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	opts := workflow.Options{
		Branches:      []string{"master"},
		ManifestPath:  "labs/npfl138/pyproject.toml",
		PythonVersion: "3.11",
		SkipExisting:  true,
	}
	out, err := workflow.Generate(opts)
	require.NoError(t, err)

	again, err := workflow.Generate(opts)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))

	var parsed parsedWorkflow
	require.NoError(t, yaml.Unmarshal(out, &parsed))

	assert.Equal(t, "publish", parsed.Name)
	assert.Equal(t, []string{"master"}, parsed.On.Push.Branches)
	assert.Equal(t, []string{"labs/npfl138/pyproject.toml"}, parsed.On.Push.Paths)

	require.Contains(t, parsed.Jobs, "publish")
	pub := parsed.Jobs["publish"]
	assert.Equal(t, "ubuntu-latest", pub.RunsOn)
	assert.Equal(t, "read", pub.Permissions["contents"])
	assert.Equal(t, "write", pub.Permissions["id-token"])

	require.NotEmpty(t, pub.Steps)
	assert.Equal(t, "actions/checkout@v4", pub.Steps[0].Uses)
	assert.Equal(t, "actions/setup-python@v5", pub.Steps[1].Uses)
	assert.Equal(t, "3.11", pub.Steps[1].With["python-version"])
	last := pub.Steps[len(pub.Steps)-1]
	assert.Equal(t, "pypublish run --project-dir=labs/npfl138 --skip-existing", last.Run)

	// The version must survive as a string; as a bare scalar the platform would read
	// 3.10 as the number 3.1.
	assert.Contains(t, string(out), `python-version: "3.11"`)
}

func TestGenerateDefaults(t *testing.T) {
	t.Parallel()
	out, err := workflow.Generate(workflow.Options{ManifestPath: "pyproject.toml"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# Generated by"))

	var parsed parsedWorkflow
	require.NoError(t, yaml.Unmarshal(out, &parsed))
	assert.Equal(t, "publish", parsed.Name)
	assert.Empty(t, parsed.On.Push.Branches)
	pub := parsed.Jobs["publish"]
	require.NotEmpty(t, pub.Steps)
	assert.Equal(t, "3.x", pub.Steps[1].With["python-version"])
	assert.Equal(t, "pypublish run --project-dir=.", pub.Steps[len(pub.Steps)-1].Run)
	assert.NotContains(t, string(out), "--skip-existing")
}

func TestGenerateBadOptions(t *testing.T) {
	t.Parallel()
	testcases := map[string]workflow.Options{
		"missing":  {},
		"absolute": {ManifestPath: "/etc/pyproject.toml"},
		"spaces":   {ManifestPath: "my project/pyproject.toml"},
		"badrepo":  {ManifestPath: "pyproject.toml", RepositoryURL: "https://host/a b"},
	}
	for tcName, opts := range testcases {
		opts := opts
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			_, err := workflow.Generate(opts)
			assert.Error(t, err)
		})
	}
}

// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pyproject reads the `pyproject.toml` package manifest.
//
// https://packaging.python.org/en/latest/specifications/pyproject-toml/
package pyproject

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/datawire/pypublish/pkg/python/pep440"
	"github.com/datawire/pypublish/pkg/python/pep503"
)

// Filename is the well-known name of the manifest file, always directly in the project root.
const Filename = "pyproject.toml"

type Manifest struct {
	BuildSystem *BuildSystem `toml:"build-system"`
	Project     *Project     `toml:"project"`
}

// BuildSystem is the `[build-system]` table; it tells frontends how to obtain the build backend.
type BuildSystem struct {
	Requires     []string `toml:"requires"`
	BuildBackend string   `toml:"build-backend"`
	BackendPath  []string `toml:"backend-path"`
}

// Project is the `[project]` table; the static package metadata.
type Project struct {
	Name           string            `toml:"name"`
	Version        string            `toml:"version"`
	Description    string            `toml:"description"`
	RequiresPython string            `toml:"requires-python"`
	Keywords       []string          `toml:"keywords"`
	Classifiers    []string          `toml:"classifiers"`
	URLs           map[string]string `toml:"urls"`
	Authors        []Contact         `toml:"authors"`
	Maintainers    []Contact         `toml:"maintainers"`
	Dependencies   []string          `toml:"dependencies"`

	// Dynamic lists the fields whose values the build backend will compute at build time
	// instead of reading them from this file.
	Dynamic []string `toml:"dynamic"`
}

type Contact struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := toml.Unmarshal(content, &manifest); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &manifest, nil
}

// LoadDir reads and validates the manifest of the project rooted at projectDir.
func LoadDir(projectDir string) (*Manifest, error) {
	return Load(filepath.Join(projectDir, Filename))
}

// https://packaging.python.org/en/latest/specifications/name-normalization/
//
//nolint:gochecknoglobals // Would be 'const'.
var reProjectName = regexp.MustCompile(`(?i)^([A-Z0-9]|[A-Z0-9][A-Z0-9._-]*[A-Z0-9])$`)

func (m *Manifest) Validate() error {
	if m.Project == nil {
		return fmt.Errorf("missing [project] table")
	}
	p := m.Project

	if p.Name == "" {
		return fmt.Errorf("project.name is required")
	}
	if !reProjectName.MatchString(p.Name) {
		return fmt.Errorf("invalid project.name: %q", p.Name)
	}

	for _, field := range p.Dynamic {
		if field == "name" {
			return fmt.Errorf("project.name must not be listed in project.dynamic")
		}
	}
	if p.Version == "" && !p.IsDynamicVersion() {
		return fmt.Errorf("project.version is required unless listed in project.dynamic")
	}
	if p.Version != "" {
		if p.IsDynamicVersion() {
			return fmt.Errorf("project.version must not be both set and listed in project.dynamic")
		}
		if _, err := pep440.ParseVersion(p.Version); err != nil {
			return fmt.Errorf("invalid project.version: %w", err)
		}
	}

	if p.RequiresPython != "" {
		if _, err := pep440.ParseSpecifier(p.RequiresPython); err != nil {
			return fmt.Errorf("invalid project.requires-python: %w", err)
		}
	}

	return nil
}

// NormalizedName returns the PEP 503 normalization of the project name; this is the name that
// index URLs and distribution filenames use.
func (p *Project) NormalizedName() string {
	return pep503.Normalize(p.Name)
}

// IsDynamicVersion reports whether the version is computed by the build backend rather than
// declared here.
func (p *Project) IsDynamicVersion() bool {
	for _, field := range p.Dynamic {
		if field == "version" {
			return true
		}
	}
	return false
}

// ParsedVersion returns the declared version, or nil if the version is dynamic.
func (p *Project) ParsedVersion() *pep440.Version {
	if p.Version == "" {
		return nil
	}
	// Validate checked this already.
	return pep440.MustParseVersion(p.Version)
}

// ParsedRequiresPython returns the declared interpreter constraint; an empty constraint (which
// any interpreter satisfies) if the manifest doesn't declare one.
func (p *Project) ParsedRequiresPython() pep440.Specifier {
	spec, err := pep440.ParseSpecifier(p.RequiresPython)
	if err != nil {
		// Validate checked this already.
		panic(err)
	}
	return spec
}

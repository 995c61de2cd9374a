// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package trigger decides whether a push should kick off the publish pipeline: it fires only
// when the paths the push touched include the package being published.
package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/datawire/dlib/dexec"
)

// A PushEvent is the interesting subset of a push-event payload, as found at the file named by
// $GITHUB_EVENT_PATH.
type PushEvent struct {
	Ref        string   `json:"ref"`
	Before     string   `json:"before"`
	After      string   `json:"after"`
	Commits    []Commit `json:"commits"`
	HeadCommit *Commit  `json:"head_commit"`
}

type Commit struct {
	ID       string   `json:"id"`
	Message  string   `json:"message"`
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// LoadEvent reads a push-event payload.
func LoadEvent(path string) (*PushEvent, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ev PushEvent
	if err := json.Unmarshal(content, &ev); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if ev.After == "" {
		return nil, fmt.Errorf("%s: not a push event payload", path)
	}
	return &ev, nil
}

// IsZero reports whether a SHA is the all-zeros "no such commit" marker that push events use
// for one end of the range when a ref is created or deleted.
func IsZero(sha string) bool {
	if sha == "" {
		return false
	}
	for _, ch := range sha {
		if ch != '0' {
			return false
		}
	}
	return true
}

func sortUnique(paths []string) []string {
	sort.Strings(paths)
	out := paths[:0]
	for _, p := range paths {
		if len(out) == 0 || out[len(out)-1] != p {
			out = append(out, p)
		}
	}
	return out
}

// ChangedPaths returns every path the push touched: the union over all commits of the added,
// removed, and modified files; sorted and deduplicated.  Forced pushes can deliver an empty
// commit list even though the tree changed; fall back to the head commit then.
func (ev *PushEvent) ChangedPaths() []string {
	commits := ev.Commits
	if len(commits) == 0 && ev.HeadCommit != nil {
		commits = []Commit{*ev.HeadCommit}
	}
	var paths []string
	for _, commit := range commits {
		paths = append(paths, commit.Added...)
		paths = append(paths, commit.Removed...)
		paths = append(paths, commit.Modified...)
	}
	return sortUnique(paths)
}

// GitChangedPaths asks the repository which paths changed in the range before..after; it's the
// answer to ChangedPaths for anybody running outside of CI.  When before is the all-zeros SHA
// of a newly-created ref there's nothing to diff against, so fall back to the files of the head
// commit alone.
func GitChangedPaths(ctx context.Context, repoDir, before, after string) ([]string, error) {
	var args []string
	if IsZero(before) {
		args = []string{"git", "-C", repoDir,
			"diff-tree", "--no-commit-id", "--name-only", "-r", after}
	} else {
		args = []string{"git", "-C", repoDir,
			"diff", "--name-only", before, after}
	}
	cmd := dexec.CommandContext(ctx, args[0], args[1:]...)
	bs, err := cmd.Output()
	if err != nil {
		var exitErr *dexec.ExitError
		if errors.As(err, &exitErr) {
			err = fmt.Errorf("%w:\n > %s", err,
				strings.Join(strings.Split(string(exitErr.Stderr), "\n"), "\n > "))
		}
		return nil, err
	}
	var paths []string
	for _, line := range strings.Split(string(bs), "\n") {
		if line != "" {
			paths = append(paths, line)
		}
	}
	return sortUnique(paths), nil
}

// Filter returns the paths that match at least one of the patterns.  Patterns are
// slash-separated globs where "**" crosses directory boundaries, so "npfl138/**" means
// everything under that directory.
func Filter(paths, patterns []string) ([]string, error) {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
		}
	}
	var matched []string
	for _, p := range paths {
		for _, pattern := range patterns {
			ok, err := doublestar.Match(pattern, p)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", err, pattern)
			}
			if ok {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched, nil
}

// ShouldRun reports whether any of the paths matches any of the patterns.
func ShouldRun(paths, patterns []string) (bool, error) {
	matched, err := Filter(paths, patterns)
	if err != nil {
		return false, err
	}
	return len(matched) > 0, nil
}

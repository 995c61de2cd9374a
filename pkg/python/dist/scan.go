// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package dist

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/datawire/dlib/derror"

	"github.com/datawire/pypublish/pkg/python"
	"github.com/datawire/pypublish/pkg/python/pep440"
	"github.com/datawire/pypublish/pkg/python/pep503"
)

// fileDigests hashes the file with every digest that the upload API accepts.
func fileDigests(filePath string) (int64, map[string]string, error) {
	hashes := map[string]hash.Hash{
		"md5":        python.HashlibAlgorithmsGuaranteed["md5"](),
		"sha256":     python.HashlibAlgorithmsGuaranteed["sha256"](),
		"blake2_256": python.Blake2b256(),
	}
	fh, err := os.Open(filePath)
	if err != nil {
		return 0, nil, err
	}
	writers := make([]io.Writer, 0, len(hashes))
	for _, h := range hashes {
		writers = append(writers, h)
	}
	size, err := io.Copy(io.MultiWriter(writers...), fh)
	if err != nil {
		_ = fh.Close()
		return 0, nil, err
	}
	if err := fh.Close(); err != nil {
		return 0, nil, err
	}
	digests := make(map[string]string, len(hashes))
	for algo, h := range hashes {
		digests[algo] = hex.EncodeToString(h.Sum(nil))
	}
	return size, digests, nil
}

// Scan reads a directory of freshly-built distribution archives.  Anything in the directory
// that isn't a recognizable archive is an error; a build that scatters stray files is a build
// that can't be trusted.  The returned artifacts are ordered sdists-first, then by filename;
// that's the order they should be uploaded in.
func Scan(dir string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	artifacts := make([]Artifact, 0, len(entries))
	for _, entry := range entries {
		filename := entry.Name()
		if entry.IsDir() {
			return nil, fmt.Errorf("unexpected directory in output dir: %q", filename)
		}
		fullPath := filepath.Join(dir, filename)
		var artifact Artifact
		switch {
		case strings.HasSuffix(filename, ".whl"):
			name, err := ParseWheelName(filename)
			if err != nil {
				return nil, err
			}
			md, err := ReadWheelMetadata(fullPath, *name)
			if err != nil {
				return nil, err
			}
			artifact = Artifact{
				Kind:             KindWheel,
				Name:             name.Distribution,
				Version:          name.Version,
				BuildTag:         name.BuildTag,
				CompatibilityTag: &name.CompatibilityTag,
				Metadata:         md,
			}
		case strings.HasSuffix(filename, ".tar.gz"):
			name, err := ParseSdistName(filename)
			if err != nil {
				return nil, err
			}
			md, err := ReadSdistMetadata(fullPath, *name)
			if err != nil {
				return nil, err
			}
			artifact = Artifact{
				Kind:     KindSdist,
				Name:     name.Distribution,
				Version:  name.Version,
				Metadata: md,
			}
		default:
			return nil, fmt.Errorf("unexpected file in output dir: %q", filename)
		}
		artifact.Path = fullPath
		artifact.Filename = filename
		artifact.Size, artifact.Digests, err = fileDigests(fullPath)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	sort.SliceStable(artifacts, func(i, j int) bool {
		if (artifacts[i].Kind == KindSdist) != (artifacts[j].Kind == KindSdist) {
			return artifacts[i].Kind == KindSdist
		}
		return artifacts[i].Filename < artifacts[j].Filename
	})
	return artifacts, nil
}

// Has reports whether the set contains an artifact of the given kind.
func Has(artifacts []Artifact, kind Kind) bool {
	for _, artifact := range artifacts {
		if artifact.Kind == kind {
			return true
		}
	}
	return false
}

// Verify checks that the artifacts all belong to the named project at a single version, and
// that each archive's embedded metadata agrees with its filename.  A nil projectVersion means
// the manifest computes the version at build time; the artifacts then only need to agree with
// each other.
func Verify(artifacts []Artifact, projectName string, projectVersion *pep440.Version) error {
	if len(artifacts) == 0 {
		return fmt.Errorf("no distribution archives to verify")
	}
	wantName := pep503.Normalize(projectName)
	wantVersion := projectVersion
	if wantVersion == nil {
		wantVersion = &artifacts[0].Version
	}

	var errs derror.MultiError
	for _, artifact := range artifacts {
		if gotName := pep503.Normalize(artifact.Name); gotName != wantName {
			errs = append(errs, fmt.Errorf("%s: file is for project %q, not %q",
				artifact.Filename, gotName, wantName))
		}
		if artifact.Version.Cmp(*wantVersion) != 0 {
			errs = append(errs, fmt.Errorf("%s: file is version %s, not %s",
				artifact.Filename, artifact.Version.String(), wantVersion.String()))
		}

		mdName, err := artifact.Metadata.Name()
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", artifact.Filename, err))
		case pep503.Normalize(mdName) != wantName:
			errs = append(errs, fmt.Errorf("%s: embedded metadata is for project %q, not %q",
				artifact.Filename, pep503.Normalize(mdName), wantName))
		}
		mdVersion, err := artifact.Metadata.Version()
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", artifact.Filename, err))
		case mdVersion.Cmp(artifact.Version) != 0:
			errs = append(errs, fmt.Errorf("%s: embedded metadata is version %s, not %s",
				artifact.Filename, mdVersion.String(), artifact.Version.String()))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

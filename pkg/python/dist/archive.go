// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package dist

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/datawire/pypublish/pkg/python/metadata"
	"github.com/datawire/pypublish/pkg/python/pep440"
	"github.com/datawire/pypublish/pkg/python/pep503"
)

// sameRelease reports whether a "{distribution}-{version}" directory stem inside an archive
// refers to the same project release as the archive's parsed filename.  The stem's spelling may
// differ from the filename's (escaping, non-canonical versions), so compare semantically.
func sameRelease(stem, distribution string, version pep440.Version) bool {
	for i := strings.LastIndex(stem, "-"); i > 0; i = strings.LastIndex(stem[:i], "-") {
		ver, err := pep440.ParseVersion(stem[i+1:])
		if err != nil {
			continue
		}
		if pep503.Normalize(stem[:i]) == pep503.Normalize(distribution) &&
			ver.Cmp(version) == 0 {
			return true
		}
	}
	return false
}

// ReadWheelMetadata extracts the core-metadata document from a wheel's
// ``{distribution}-{version}.dist-info/METADATA``, checking that the .dist-info directory
// agrees with the filename.
func ReadWheelMetadata(wheelPath string, name WheelName) (*metadata.Metadata, error) {
	zipReader, err := zip.OpenReader(wheelPath)
	if err != nil {
		return nil, fmt.Errorf("wheel %q: %w", wheelPath, err)
	}
	defer func() {
		_ = zipReader.Close()
	}()

	for _, file := range zipReader.File {
		cleaned := path.Clean(file.Name)
		dir, base := path.Split(cleaned)
		if base != "METADATA" {
			continue
		}
		dir = strings.TrimSuffix(dir, "/")
		if strings.Contains(dir, "/") || !strings.HasSuffix(dir, ".dist-info") {
			continue
		}
		if !sameRelease(strings.TrimSuffix(dir, ".dist-info"), name.Distribution, name.Version) {
			return nil, fmt.Errorf("wheel %q: %q doesn't agree with the filename",
				wheelPath, cleaned)
		}
		fh, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("wheel %q: %w", wheelPath, err)
		}
		md, err := metadata.Parse(fh)
		if err != nil {
			_ = fh.Close()
			return nil, fmt.Errorf("wheel %q: %s: %w", wheelPath, cleaned, err)
		}
		if err := fh.Close(); err != nil {
			return nil, err
		}
		return md, nil
	}
	return nil, fmt.Errorf("wheel %q: no *.dist-info/METADATA member", wheelPath)
}

// ReadSdistMetadata extracts the core-metadata document from an sdist's
// ``{name}-{version}/PKG-INFO``, checking that the root directory agrees with the filename.
func ReadSdistMetadata(sdistPath string, name SdistName) (*metadata.Metadata, error) {
	fh, err := os.Open(sdistPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = fh.Close()
	}()
	gzReader, err := gzip.NewReader(fh)
	if err != nil {
		return nil, fmt.Errorf("sdist %q: %w", sdistPath, err)
	}
	defer func() {
		_ = gzReader.Close()
	}()

	tarReader := tar.NewReader(gzReader)
	for {
		hdr, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sdist %q: %w", sdistPath, err)
		}
		parts := strings.Split(path.Clean(hdr.Name), "/")
		if len(parts) != 2 || parts[1] != "PKG-INFO" {
			continue
		}
		if !sameRelease(parts[0], name.Distribution, name.Version) {
			return nil, fmt.Errorf("sdist %q: %q doesn't agree with the filename",
				sdistPath, hdr.Name)
		}
		md, err := metadata.Parse(tarReader)
		if err != nil {
			return nil, fmt.Errorf("sdist %q: %s: %w", sdistPath, hdr.Name, err)
		}
		return md, nil
	}
	return nil, fmt.Errorf("sdist %q: no PKG-INFO member", sdistPath)
}

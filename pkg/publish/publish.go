// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package publish uploads built distribution archives to a package index, speaking the
// (never-quite-standardized) legacy upload API that PyPI and its lookalikes accept.
//
// https://docs.pypi.org/api/upload/
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/datawire/dlib/dlog"

	"github.com/datawire/pypublish/pkg/python/dist"
	"github.com/datawire/pypublish/pkg/python/pep503"
	"github.com/datawire/pypublish/pkg/python/pep592"
)

// DefaultRepositoryURL is PyPI's upload endpoint.
const DefaultRepositoryURL = "https://upload.pypi.org/legacy/"

// ErrAlreadyExists means the index already serves a file by that name.  Released files are
// immutable; an index refuses to overwrite, it never replaces.
var ErrAlreadyExists = errors.New("file already exists on the index")

type Uploader struct {
	// RepositoryURL is the legacy-upload endpoint; DefaultRepositoryURL if empty.
	RepositoryURL string
	HTTPClient    *http.Client
	UserAgent     string
	Credential    *Credential

	// SkipExisting makes "that filename is already taken" a logged no-op instead of an
	// error, which is what an idempotent re-run of CI wants.  It stays off unless asked
	// for; a conflict on a fresh version is a bug worth hearing about.
	SkipExisting bool

	// Index, if set, is asked which files it already has, so that SkipExisting can skip
	// without an upload round-trip.
	Index *pep503.Client
}

func (up *Uploader) fillDefaults() {
	if up.RepositoryURL == "" {
		up.RepositoryURL = DefaultRepositoryURL
	}
	if up.HTTPClient == nil {
		up.HTTPClient = http.DefaultClient
	}
	if up.UserAgent == "" {
		up.UserAgent = "github.com/datawire/pypublish/pkg/publish"
	}
}

// A Report is what an upload run did: every artifact ends up in exactly one of the two lists.
type Report struct {
	Uploaded []dist.Artifact
	Skipped  []dist.Artifact
}

// Upload pushes the artifacts to the index, in order, stopping at the first real error.
func (up Uploader) Upload(ctx context.Context, artifacts []dist.Artifact) (*Report, error) {
	up.fillDefaults()
	if up.Credential == nil {
		return nil, fmt.Errorf("refusing to upload without a credential")
	}

	var existing map[string]struct{}
	if up.SkipExisting && up.Index != nil {
		var err error
		existing, err = up.existingFiles(ctx, artifacts)
		if err != nil {
			return nil, err
		}
	}

	report := &Report{}
	for _, artifact := range artifacts {
		if _, ok := existing[artifact.Filename]; ok {
			dlog.Infof(ctx, "skipping %s: the index already has it", artifact.Filename)
			report.Skipped = append(report.Skipped, artifact)
			continue
		}
		switch err := up.uploadOne(ctx, artifact); {
		case err == nil:
			dlog.Infof(ctx, "uploaded %s", artifact.Filename)
			report.Uploaded = append(report.Uploaded, artifact)
		case errors.Is(err, ErrAlreadyExists) && up.SkipExisting:
			dlog.Infof(ctx, "skipping %s: the index already has it", artifact.Filename)
			report.Skipped = append(report.Skipped, artifact)
		default:
			return nil, err
		}
	}
	return report, nil
}

// existingFiles asks the index which of our filenames it already serves.  A 404 means the
// project has never been published, which is fine: nothing to skip.  Yanked files still own
// their filename, so they count.
func (up Uploader) existingFiles(ctx context.Context, artifacts []dist.Artifact) (map[string]struct{}, error) {
	if len(artifacts) == 0 {
		return nil, nil
	}
	links, err := up.Index.ListProjectFiles(ctx, artifacts[0].Name)
	if err != nil {
		var httpErr *pep503.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	existing := make(map[string]struct{}, len(links))
	for _, link := range links {
		if pep592.IsYanked(link) {
			reason := pep592.YankedReason(link)
			if reason == "" {
				reason = "no reason given"
			}
			dlog.Warnf(ctx, "index file %s is yanked (%s) but still owns its filename",
				link.Text, reason)
		}
		existing[link.Text] = struct{}{}
	}
	return existing, nil
}

func (up Uploader) uploadOne(ctx context.Context, artifact dist.Artifact) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("uploading %s: %w", artifact.Filename, err)
		}
	}()

	// 1. Build the request
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for _, field := range uploadFields(artifact) {
		if err := form.WriteField(field.K, field.V); err != nil {
			return err
		}
	}
	part, err := form.CreateFormFile("content", artifact.Filename)
	if err != nil {
		return err
	}
	fh, err := os.Open(artifact.Path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, fh); err != nil {
		_ = fh.Close()
		return err
	}
	if err := fh.Close(); err != nil {
		return err
	}
	if err := form.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, up.RepositoryURL, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("User-Agent", up.UserAgent)
	req.SetBasicAuth(up.Credential.Username, up.Credential.Password)

	// 2. Do the networking
	resp, err := up.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return err
	}
	if err := resp.Body.Close(); err != nil {
		return err
	}

	// 3. Validate the result
	if resp.StatusCode/100 == 2 {
		return nil
	}
	if isConflict(resp.StatusCode, string(content)) {
		return fmt.Errorf("HTTP %s: %w", resp.Status, ErrAlreadyExists)
	}
	return fmt.Errorf("HTTP %s: %s", resp.Status, firstLine(string(content)))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const limit = 200
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}

// isConflict recognizes the ways the various index implementations spell "that filename is
// already taken".
func isConflict(statusCode int, body string) bool {
	switch statusCode {
	case http.StatusConflict:
		// GitLab and Gitea say 409.
		return true
	case http.StatusForbidden:
		// Artifactory says 403.
		return strings.Contains(body, "overwrite artifact")
	case http.StatusBadRequest:
		// PyPI and Nexus say 400.
		return strings.Contains(body, "already exist") ||
			strings.Contains(body, "filename has already been used") ||
			strings.Contains(body, "updating asset")
	default:
		return false
	}
}

type formField struct {
	K, V string
}

// pyversion is the upload API's coarse interpreter-compatibility field: a wheel reports its
// python tag, an sdist reports the literal string "source".
func pyversion(artifact dist.Artifact) string {
	if artifact.Kind == dist.KindWheel && artifact.CompatibilityTag != nil {
		return artifact.CompatibilityTag.Python
	}
	return "source"
}

// uploadFields flattens an artifact and its embedded metadata into the form fields of the
// legacy upload API.  The field set follows what twine sends; the index ignores fields it
// doesn't know.
func uploadFields(artifact dist.Artifact) []formField {
	fields := []formField{
		{":action", "file_upload"},
		{"protocol_version", "1"},
		{"filetype", string(artifact.Kind)},
		{"pyversion", pyversion(artifact)},
		{"md5_digest", artifact.Digests["md5"]},
		{"sha256_digest", artifact.Digests["sha256"]},
		{"blake2_256_digest", artifact.Digests["blake2_256"]},
	}

	md := artifact.Metadata
	for _, m := range []struct{ header, field string }{
		{"Metadata-Version", "metadata_version"},
		{"Name", "name"},
		{"Version", "version"},
		{"Summary", "summary"},
		{"Home-page", "home_page"},
		{"Download-URL", "download_url"},
		{"Author", "author"},
		{"Author-email", "author_email"},
		{"Maintainer", "maintainer"},
		{"Maintainer-email", "maintainer_email"},
		{"License", "license"},
		{"License-Expression", "license_expression"},
		{"Keywords", "keywords"},
		{"Description-Content-Type", "description_content_type"},
		{"Requires-Python", "requires_python"},
	} {
		if v := md.Get(m.header); v != "" {
			fields = append(fields, formField{m.field, v})
		}
	}
	for _, m := range []struct{ header, field string }{
		{"License-File", "license_file"},
		{"Platform", "platform"},
		{"Supported-Platform", "supported_platform"},
		{"Classifier", "classifiers"},
		{"Requires-Dist", "requires_dist"},
		{"Provides-Dist", "provides_dist"},
		{"Obsoletes-Dist", "obsoletes_dist"},
		{"Requires-External", "requires_external"},
		{"Project-URL", "project_urls"},
		{"Provides-Extra", "provides_extra"},
		{"Dynamic", "dynamic"},
	} {
		for _, v := range md.Values(m.header) {
			fields = append(fields, formField{m.field, v})
		}
	}
	if desc := md.Description(); desc != "" {
		fields = append(fields, formField{"description", desc})
	}
	return fields
}

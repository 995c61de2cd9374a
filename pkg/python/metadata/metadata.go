// Copyright (C) 2021-2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package metadata reads Python "core metadata" files: the PKG-INFO of an sdist, the METADATA of
// a wheel.  The format is RFC 822 style header fields, plus (since metadata version 2.1) a body
// holding the long description.
//
// https://packaging.python.org/en/latest/specifications/core-metadata/
package metadata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strings"

	"github.com/datawire/pypublish/pkg/python/pep440"
)

// Metadata is a parsed core metadata file.  Field names are in textproto canonical form
// ("Requires-Python"); fields that the format allows multiple times ("Classifier",
// "Requires-Dist") have multiple values.
type Metadata struct {
	Fields textproto.MIMEHeader
	Body   string
}

// Parse reads a core metadata file.  Parse is lenient; it validates the framing, not the fields.
// The typed accessors validate the fields that this tool cares about.
func Parse(r io.Reader) (*Metadata, error) {
	tp := textproto.NewReader(bufio.NewReader(r))
	fields, err := tp.ReadMIMEHeader()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("malformed metadata: %w", err)
	}
	body, err := io.ReadAll(tp.R)
	if err != nil {
		return nil, fmt.Errorf("malformed metadata: %w", err)
	}
	return &Metadata{
		Fields: fields,
		Body:   string(body),
	}, nil
}

// Get returns the first value of the named field, or "" if absent.
func (md *Metadata) Get(name string) string {
	return md.Fields.Get(name)
}

// Values returns all values of the named field.
func (md *Metadata) Values(name string) []string {
	return md.Fields.Values(name)
}

// MetadataVersion returns the Metadata-Version field; "1.0" if absent, because metadata that old
// predates the field being required.
func (md *Metadata) MetadataVersion() string {
	if v := md.Get("Metadata-Version"); v != "" {
		return v
	}
	return "1.0"
}

// Name returns the distribution name; an error if the file doesn't name one.
func (md *Metadata) Name() (string, error) {
	name := md.Get("Name")
	if name == "" {
		return "", errors.New("metadata is missing the Name field")
	}
	return name, nil
}

// Version returns the distribution version; an error if absent or not PEP 440.
func (md *Metadata) Version() (*pep440.Version, error) {
	str := md.Get("Version")
	if str == "" {
		return nil, errors.New("metadata is missing the Version field")
	}
	ver, err := pep440.ParseVersion(str)
	if err != nil {
		return nil, fmt.Errorf("metadata Version field: %w", err)
	}
	return ver, nil
}

// RequiresPython returns the Requires-Python specifier; an empty specifier (matches every
// version) if the field is absent.
func (md *Metadata) RequiresPython() (pep440.Specifier, error) {
	str := md.Get("Requires-Python")
	if str == "" {
		return pep440.Specifier{}, nil
	}
	spec, err := pep440.ParseSpecifier(str)
	if err != nil {
		return nil, fmt.Errorf("metadata Requires-Python field: %w", err)
	}
	return spec, nil
}

// Description returns the long description: the body for metadata >= 2.1, the Description field
// for older files.
func (md *Metadata) Description() string {
	if md.Body != "" {
		return strings.TrimPrefix(md.Body, "\n")
	}
	return md.Get("Description")
}

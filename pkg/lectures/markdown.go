// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package lectures

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// RenderedHeading is the heading that marks the generated section in the README.
const RenderedHeading = "Lectures"

// The parser configuration never changes and the goldmark parser is safe to share; parsing
// creates per-call state via Parse(reader).
//
//nolint:gochecknoglobals // see above
var (
	mdParser     goldmark.Markdown
	mdParserOnce sync.Once
)

func getParser() goldmark.Markdown {
	mdParserOnce.Do(func() {
		mdParser = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return mdParser
}

// nodeText flattens a node's inline content back to plain text.
func nodeText(n ast.Node, doc []byte) string {
	var buf strings.Builder
	_ = ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Text:
			buf.Write(n.Segment.Value(doc))
		case *ast.AutoLink:
			buf.Write(n.URL(doc))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// lineStart backtracks from the heading's text to the start of the line it sits on, so the
// span covers the "## " markers too.
func lineStart(doc []byte, h *ast.Heading) int {
	pos := h.Lines().At(0).Start
	if i := bytes.LastIndexByte(doc[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

// Section locates the generated lectures section in a markdown document: the span from the
// RenderedHeading heading up to (not including) the next heading of the same or higher level,
// with trailing blank lines excluded so that the span round-trips with Render.
func Section(doc []byte) (start, end int, err error) {
	document := getParser().Parser().Parse(text.NewReader(doc))

	var headings []*ast.Heading
	_ = ast.Walk(document, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering && h.Lines().Len() > 0 {
			headings = append(headings, h)
		}
		return ast.WalkContinue, nil
	})

	target := -1
	for i, h := range headings {
		if nodeText(h, doc) == RenderedHeading {
			target = i
			break
		}
	}
	if target < 0 {
		return 0, 0, fmt.Errorf("document has no %q heading", RenderedHeading)
	}

	start = lineStart(doc, headings[target])
	end = len(doc)
	for _, h := range headings[target+1:] {
		if h.Level <= headings[target].Level {
			end = lineStart(doc, h)
			break
		}
	}
	for end > start && bytes.HasSuffix(doc[start:end], []byte("\n\n")) {
		end--
	}
	return start, end, nil
}

// Check compares the document's lectures section against what the database renders to,
// returning a unified diff; empty means they agree.
func Check(doc []byte, f *File) (string, error) {
	start, end, err := Section(doc)
	if err != nil {
		return "", err
	}
	current := string(doc[start:end])
	want := f.Render()
	if current == want {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(current),
		B:        difflib.SplitLines(want),
		FromFile: "rendered",
		ToFile:   "expected",
		Context:  3,
	})
}

// Replace splices a freshly rendered section into the document, leaving everything outside the
// section untouched.
func Replace(doc []byte, f *File) ([]byte, error) {
	start, end, err := Section(doc)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	out.Grow(len(doc) + len(f.Lectures)*64)
	out.Write(doc[:start])
	out.WriteString(f.Render())
	out.Write(doc[end:])
	return out.Bytes(), nil
}

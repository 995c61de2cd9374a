// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package lectures

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var reLectureHeading = regexp.MustCompile(`^Lecture ([0-9]+): (.*)$`)

// lineOf is for error messages; off is a byte offset into doc.
func lineOf(doc []byte, off int) int {
	if off > len(doc) {
		off = len(doc)
	}
	return 1 + bytes.Count(doc[:off], []byte("\n"))
}

// nodeStart returns the byte offset of the first source line backing the node, descending into
// children for container nodes (lists, list items) that carry no lines of their own.
func nodeStart(n ast.Node) int {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if pos := nodeStart(c); pos >= 0 {
			return pos
		}
	}
	return -1
}

func nodeLine(doc []byte, n ast.Node) int {
	pos := nodeStart(n)
	if pos < 0 {
		pos = 0
	}
	return lineOf(doc, pos)
}

// Parse locates the lectures section in a markdown document and reconstructs the records it
// renders, validating them like Load does.
func Parse(doc []byte) (*File, error) {
	start, end, err := Section(doc)
	if err != nil {
		return nil, err
	}
	f, err := ParseSection(doc[start:end])
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseSection reconstructs lecture records from rendered markdown: a level-2 section heading,
// then per lecture a level-3 "Lecture N: Title" heading, a bold date with optional links, and
// a bullet list of topics.  It is the inverse of Render, but does not insist on Render's exact
// bytes; use Check for that.  The result is not validated.
func ParseSection(section []byte) (*File, error) {
	document := getParser().Parser().Parse(text.NewReader(section))

	f := &File{}
	var cur *Lecture
	for n := document.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			switch node.Level {
			case 2:
				if txt := nodeText(node, section); txt != RenderedHeading {
					return nil, fmt.Errorf("line %d: unexpected section heading %q",
						nodeLine(section, node), txt)
				}
			case 3:
				txt := nodeText(node, section)
				m := reLectureHeading.FindStringSubmatch(txt)
				if m == nil {
					return nil, fmt.Errorf("line %d: heading %q is not of the form %q",
						nodeLine(section, node), txt, "Lecture N: Title")
				}
				number, err := strconv.Atoi(m[1])
				if err != nil {
					return nil, fmt.Errorf("line %d: lecture number: %w",
						nodeLine(section, node), err)
				}
				f.Lectures = append(f.Lectures, Lecture{Number: number, Title: m[2]})
				cur = &f.Lectures[len(f.Lectures)-1]
			default:
				return nil, fmt.Errorf("line %d: unexpected level-%d heading",
					nodeLine(section, node), node.Level)
			}
		case *ast.Paragraph:
			if cur == nil {
				return nil, fmt.Errorf("line %d: text before the first lecture heading",
					nodeLine(section, node))
			}
			if cur.Date != "" {
				return nil, fmt.Errorf("line %d: lecture %d has more than one date line",
					nodeLine(section, node), cur.Number)
			}
			date, links, err := parseDateline(node, section)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", nodeLine(section, node), err)
			}
			cur.Date = date
			cur.Links = links
		case *ast.List:
			if cur == nil {
				return nil, fmt.Errorf("line %d: topic list before the first lecture heading",
					nodeLine(section, node))
			}
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				cur.Topics = append(cur.Topics, parseTopic(nodeText(item, section)))
			}
		default:
			return nil, fmt.Errorf("line %d: unexpected %s",
				nodeLine(section, node), node.Kind())
		}
	}
	return f, nil
}

// parseDateline takes apart a "**DATE** ([Name](url), ...)" paragraph.
func parseDateline(p *ast.Paragraph, doc []byte) (string, []Link, error) {
	var date string
	var links []Link
	for n := p.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Emphasis:
			if node.Level == 2 && date == "" {
				date = nodeText(node, doc)
			}
		case *ast.Link:
			links = append(links, Link{
				Name: nodeText(node, doc),
				URL:  string(node.Destination),
			})
		}
	}
	if date == "" {
		return "", nil, fmt.Errorf("expected a bold **%s** date, got %q",
			DateFormat, nodeText(p, doc))
	}
	return date, links, nil
}

// parseTopic splits a topic bullet's trailing "[cite, cite]" group off of its text.
func parseTopic(txt string) Topic {
	topic := Topic{Text: txt}
	if strings.HasSuffix(txt, "]") {
		if i := strings.LastIndex(txt, " ["); i >= 0 {
			topic.Text = txt[:i]
			for _, cite := range strings.Split(txt[i+2:len(txt)-1], ",") {
				topic.Cites = append(topic.Cites, strings.TrimSpace(cite))
			}
		}
	}
	return topic
}

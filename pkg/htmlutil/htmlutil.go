// Copyright (C) 2021-2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package htmlutil has small helpers for walking golang.org/x/net/html parse trees.
package htmlutil

import (
	"strings"

	"golang.org/x/net/html"
)

// VisitHTML does a depth-first walk of the tree rooted at node, calling before on the way down
// and after on the way up; a non-nil error aborts the walk.
func VisitHTML(node *html.Node, before, after func(*html.Node) error) error {
	if before != nil {
		if err := before(node); err != nil {
			return err
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if err := VisitHTML(child, before, after); err != nil {
			return err
		}
	}
	if after != nil {
		if err := after(node); err != nil {
			return err
		}
	}
	return nil
}

// GetAttr returns the value of the named attribute, and whether it is present at all; presence
// matters for boolean-ish attributes like data-yanked, which may be present but empty.
func GetAttr(node *html.Node, namespace, name string) (val string, ok bool) {
	if node == nil {
		return "", false
	}
	for _, attr := range node.Attr {
		if attr.Namespace == namespace && attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

// Text returns the concatenated text content of the tree rooted at node, like the DOM
// textContent property.
func Text(node *html.Node) string {
	var ret strings.Builder
	_ = VisitHTML(node, func(node *html.Node) error {
		if node.Type == html.TextNode {
			ret.WriteString(node.Data)
		}
		return nil
	}, nil)
	return ret.String()
}

// Copyright (C) 2021-2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep503 implements the client side of PEP 503 -- Simple Repository API.
//
// https://peps.python.org/pep-0503/
package pep503

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/datawire/pypublish/pkg/htmlutil"
	"github.com/datawire/pypublish/pkg/python"
	"github.com/datawire/pypublish/pkg/python/pep440"
)

type Client struct {
	// BaseURL is the root of the simple API; PyPIBaseURL if empty.
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	// Python, if set, filters out file links whose data-requires-python attribute it doesn't
	// satisfy.
	Python *pep440.Version

	// HTMLHook, if set, runs on each fetched index page before the page is interpreted;
	// pep629.HTMLVersionCheck belongs here.
	HTMLHook func(context.Context, *html.Node) error
}

const PyPIBaseURL = "https://pypi.org/simple/"

func (c *Client) fillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = PyPIBaseURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.UserAgent == "" {
		c.UserAgent = "github.com/datawire/pypublish/pkg/python/pep503"
	}
}

type HTTPError struct {
	Status     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s", e.Status)
}

//nolint:gochecknoglobals // Would be 'const'.
var reNormalize = regexp.MustCompile(`[-_.]+`)

// Normalize normalizes a project name per PEP 503: lowercase, with runs of "-", "_", and "."
// collapsed to a single "-".
func Normalize(name string) string {
	return strings.ToLower(reNormalize.ReplaceAllLiteralString(name, "-"))
}

// ProjectURL returns the URL of the project's index page: the normalized name under BaseURL,
// with the trailing slash that the PEP requires.
func (c Client) ProjectURL(name string) (string, error) {
	// "the only valid characters in a name are the ASCII alphabet, ASCII numbers, `.`, `-`,
	// and `_`."
	for _, char := range name {
		if !(('a' <= char && char <= 'z') ||
			('A' <= char && char <= 'Z') ||
			('0' <= char && char <= '9') ||
			char == '.' ||
			char == '-' ||
			char == '_') {
			return "", fmt.Errorf("illegal character in project name: %q: %s",
				name, strconv.QuoteRuneToASCII(char))
		}
	}

	c.fillDefaults()
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	u.Path = path.Join(u.Path, Normalize(name)) + "/"
	return u.String(), nil
}

func (c Client) get(ctx context.Context, requestURL string) (_ *url.URL, _ []byte, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("GET %q => %w", requestURL, err)
		}
	}()
	c.fillDefaults()

	// 1. Build the request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	// 2. Do the networking
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, nil, err
	}
	if err := resp.Body.Close(); err != nil {
		return nil, nil, err
	}

	// 3. Validate the result
	if resp.StatusCode != http.StatusOK {
		return nil, nil, &HTTPError{Status: resp.Status, StatusCode: resp.StatusCode}
	}
	// "The URL SHOULD include a hash in the form of a URL fragment with the following syntax:
	// #<hashname>=<hashvalue>"
	if u, err := url.Parse(requestURL); err == nil && u.Fragment != "" {
		if keyvals, err := url.ParseQuery(u.Fragment); err == nil {
			for algo, vals := range keyvals {
				newHash, ok := python.HashlibAlgorithmsGuaranteed[algo]
				if !ok {
					continue
				}
				for _, exp := range vals {
					h := newHash()
					_, _ = h.Write(content)
					act := hex.EncodeToString(h.Sum(nil))
					if !strings.EqualFold(act, exp) {
						return nil, nil, fmt.Errorf("checksum mismatch: %s: expected=%s actual=%s",
							algo, exp, act)
					}
				}
			}
		}
	}

	return resp.Request.URL, content, nil
}

// Link is an anchor on an index page.
type Link struct {
	// Text is the anchor's text content; for a file link the PEP requires this to be the
	// filename.
	Text string
	// HRef is the anchor's target, resolved to an absolute URL.
	HRef string
	// DataAttrs holds the anchor's data-* attributes (data-requires-python, data-yanked, ...).
	DataAttrs map[string]string
}

func (c Client) getHTML5Index(ctx context.Context, requestURL string) ([]Link, error) {
	location, content, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	if c.HTMLHook != nil {
		if err := c.HTMLHook(ctx, doc); err != nil {
			return nil, err
		}
	}

	var links []Link
	if err := htmlutil.VisitHTML(doc, nil, func(node *html.Node) error {
		if node.Type != html.ElementNode || node.Data != "a" {
			return nil
		}
		link := Link{
			DataAttrs: make(map[string]string),
		}
		for _, attr := range node.Attr {
			switch {
			case attr.Namespace == "" && attr.Key == "href":
				href, err := location.Parse(attr.Val)
				if err != nil {
					return err
				}
				link.HRef = href.String()
			case attr.Namespace == "" && strings.HasPrefix(attr.Key, "data-"):
				link.DataAttrs[attr.Key] = attr.Val
			}
		}
		link.Text = htmlutil.Text(node)
		links = append(links, link)
		return nil
	}); err != nil {
		return nil, err
	}

	return links, nil
}

// FileLink is a link to a distribution file on a project's index page.
type FileLink struct {
	client Client
	Link
}

// ListProjectFiles fetches the project's index page and returns its file links.  An index that
// has never seen the project responds 404; callers that care should errors.As for *HTTPError.
func (c Client) ListProjectFiles(ctx context.Context, name string) ([]FileLink, error) {
	projectURL, err := c.ProjectURL(name)
	if err != nil {
		return nil, err
	}
	c.fillDefaults()
	rawLinks, err := c.getHTML5Index(ctx, projectURL)
	if err != nil {
		return nil, err
	}
	links := make([]FileLink, 0, len(rawLinks))
	for _, link := range rawLinks {
		if c.Python != nil {
			if reqPy := link.DataAttrs["data-requires-python"]; reqPy != "" {
				spec, err := pep440.ParseSpecifier(reqPy)
				if err == nil && !spec.Match(*c.Python) {
					continue
				}
			}
		}

		links = append(links, FileLink{
			client: c,
			Link:   link,
		})
	}
	return links, nil
}

// Get downloads the linked file, verifying the checksum fragment if the link has one.
func (l FileLink) Get(ctx context.Context) ([]byte, error) {
	_, content, err := l.client.get(ctx, l.HRef)
	return content, err
}

// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package lectures maintains the course's lecture database: a YAML file that is the source of
// truth, and the markdown section that gets generated from it.
package lectures

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/datawire/dlib/derror"
	"gopkg.in/yaml.v2"
)

// DateFormat is how lecture dates are spelled: ISO 8601 calendar dates.
const DateFormat = "2006-01-02"

// A File is the lecture database.
type File struct {
	Lectures []Lecture `yaml:"lectures"`
}

type Lecture struct {
	Number int     `yaml:"number"`
	Title  string  `yaml:"title"`
	Date   string  `yaml:"date"`
	Links  []Link  `yaml:"links,omitempty"`
	Topics []Topic `yaml:"topics,omitempty"`
}

// A Link is a named pointer to the lecture's materials (slides, recording, notebook, ...).
type Link struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// A Topic is one content bullet, with the citations that cover it.
type Topic struct {
	Text  string   `yaml:"text"`
	Cites []string `yaml:"cites,omitempty"`
}

// Load reads and validates the lecture database at path.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.UnmarshalStrict(content, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url %q is not an absolute http(s) URL", raw)
	}
	return nil
}

// Validate reports everything wrong with the database at once, not just the first thing; the
// person editing the YAML gets one round-trip instead of many.
func (f *File) Validate() error {
	var errs derror.MultiError
	for i := range f.Lectures {
		lecture := &f.Lectures[i]
		prefix := fmt.Sprintf("lectures[%d]", i)

		if lecture.Number <= 0 {
			errs = append(errs, fmt.Errorf("%s: number must be positive, got %d",
				prefix, lecture.Number))
		}
		if i > 0 && lecture.Number <= f.Lectures[i-1].Number {
			errs = append(errs, fmt.Errorf("%s: number %d is not above its predecessor's %d",
				prefix, lecture.Number, f.Lectures[i-1].Number))
		}

		if lecture.Title == "" {
			errs = append(errs, fmt.Errorf("%s: title is required", prefix))
		}

		date, err := time.Parse(DateFormat, lecture.Date)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: date: %w", prefix, err))
		} else if i > 0 {
			if prev, err := time.Parse(DateFormat, f.Lectures[i-1].Date); err == nil && date.Before(prev) {
				errs = append(errs, fmt.Errorf("%s: date %s is before its predecessor's %s",
					prefix, lecture.Date, f.Lectures[i-1].Date))
			}
		}

		seen := make(map[string]struct{}, len(lecture.Links))
		for j, link := range lecture.Links {
			lprefix := fmt.Sprintf("%s.links[%d]", prefix, j)
			if link.Name == "" {
				errs = append(errs, fmt.Errorf("%s: name is required", lprefix))
			}
			if _, dup := seen[link.Name]; dup {
				errs = append(errs, fmt.Errorf("%s: duplicate name %q", lprefix, link.Name))
			}
			seen[link.Name] = struct{}{}
			if err := validateURL(link.URL); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", lprefix, err))
			}
		}

		for j, topic := range lecture.Topics {
			if strings.TrimSpace(topic.Text) == "" {
				errs = append(errs, fmt.Errorf("%s.topics[%d]: text is required", prefix, j))
			}
			for k, cite := range topic.Cites {
				if strings.TrimSpace(cite) == "" {
					errs = append(errs, fmt.Errorf("%s.topics[%d].cites[%d]: empty citation",
						prefix, j, k))
				}
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Render generates the markdown section for the database.  The output is a pure function of
// the data: same YAML in, byte-identical markdown out.
func (f *File) Render() string {
	var buf strings.Builder
	buf.WriteString("## " + RenderedHeading + "\n")
	for _, lecture := range f.Lectures {
		buf.WriteString("\n")
		fmt.Fprintf(&buf, "### Lecture %d: %s\n", lecture.Number, lecture.Title)
		fmt.Fprintf(&buf, "**%s**", lecture.Date)
		if len(lecture.Links) > 0 {
			parts := make([]string, 0, len(lecture.Links))
			for _, link := range lecture.Links {
				parts = append(parts, fmt.Sprintf("[%s](%s)", link.Name, link.URL))
			}
			buf.WriteString(" (" + strings.Join(parts, ", ") + ")")
		}
		buf.WriteString("\n")
		if len(lecture.Topics) > 0 {
			buf.WriteString("\n")
			for _, topic := range lecture.Topics {
				buf.WriteString("- " + topic.Text)
				if len(topic.Cites) > 0 {
					buf.WriteString(" [" + strings.Join(topic.Cites, ", ") + "]")
				}
				buf.WriteString("\n")
			}
		}
	}
	return buf.String()
}

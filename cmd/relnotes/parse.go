package main

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Release is one versioned section of the changelog.
type Release struct {
	Version string
	Date    string
	Body    string
}

// History is the parsed changelog: the releases in file order plus the
// reference links collected from the bottom of the file.
type History struct {
	Releases []Release
	Refs     map[string]string
}

// Find returns the release matching version. A leading "v" on either
// side is ignored so tag names can be passed through unchanged.
func (h *History) Find(version string) *Release {
	want := strings.TrimPrefix(version, "v")
	for i := range h.Releases {
		if strings.TrimPrefix(h.Releases[i].Version, "v") == want {
			return &h.Releases[i]
		}
	}
	return nil
}

// ParseHistory parses Keep a Changelog markdown. Every level two
// heading starts a release; its body runs until the next one.
func ParseHistory(source []byte) (*History, error) {
	ctx := parser.NewContext()
	doc := goldmark.New().Parser().Parse(text.NewReader(source), parser.WithContext(ctx))

	history := &History{Refs: map[string]string{}}
	for _, ref := range ctx.References() {
		history.Refs[string(ref.Label())] = string(ref.Destination())
	}

	// A release spans from the end of its heading line to the start of
	// the next release's heading line.
	type section struct {
		version   string
		date      string
		headStart int
		bodyStart int
	}
	var sections []section

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		heading, ok := n.(*ast.Heading)
		if !entering || !ok || heading.Level != 2 {
			return ast.WalkContinue, nil
		}

		lines := heading.Lines()
		if lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		version, date := splitHeading(headingText(heading, source))
		sections = append(sections, section{
			version:   version,
			date:      date,
			headStart: lines.At(0).Start,
			bodyStart: lines.At(lines.Len() - 1).Stop,
		})
		return ast.WalkContinue, nil
	})

	for i, sec := range sections {
		end := len(source)
		if i+1 < len(sections) {
			end = sections[i+1].headStart
		}
		body := ""
		if sec.bodyStart < end {
			body = stripRefLines(string(source[sec.bodyStart:end]))
		}
		history.Releases = append(history.Releases, Release{
			Version: sec.version,
			Date:    sec.date,
			Body:    body,
		})
	}

	return history, nil
}

// headingText flattens a heading to plain text, unwrapping any link
// that wraps the version number.
func headingText(heading *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); entering && ok {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// splitHeading pulls the version and date out of a heading such as
// "[1.2.0] - 2026-03-02". The brackets and the date are both optional.
func splitHeading(heading string) (version, date string) {
	heading = strings.TrimSpace(heading)

	if strings.HasPrefix(heading, "[") {
		if end := strings.Index(heading, "]"); end > 0 {
			version = heading[1:end]
			heading = heading[end+1:]
		}
	}
	if version == "" {
		if i := strings.Index(heading, " - "); i >= 0 {
			version = strings.TrimSpace(heading[:i])
			heading = heading[i:]
		} else {
			return heading, ""
		}
	}
	if i := strings.Index(heading, " - "); i >= 0 {
		date = strings.TrimSpace(heading[i+3:])
	}
	return version, date
}

var refLinePattern = regexp.MustCompile(`^\[[^\]]+\]:\s+\S+`)

// stripRefLines drops reference link definitions, which goldmark leaves
// in place in the raw source of the final section.
func stripRefLines(body string) string {
	var kept []string
	for _, line := range strings.Split(body, "\n") {
		if refLinePattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

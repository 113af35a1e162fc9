package main

import (
	"fmt"
	"regexp"
	"strings"
)

// Problem is a single changelog format violation. Line is zero for
// file-level problems.
type Problem struct {
	Line int
	Text string
}

var (
	semverHeading = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	isoDate       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// changeSections are the section names Keep a Changelog allows under a
// release heading.
var changeSections = map[string]bool{
	"Added":      true,
	"Changed":    true,
	"Deprecated": true,
	"Removed":    true,
	"Fixed":      true,
	"Security":   true,
}

// Lint checks the changelog against the Keep a Changelog conventions
// the release pipeline depends on: a title, an Unreleased section,
// semver versions with ISO dates, known change sections and a reference
// link per version.
func Lint(source []byte) []Problem {
	var problems []Problem
	report := func(line int, format string, args ...interface{}) {
		problems = append(problems, Problem{Line: line, Text: fmt.Sprintf(format, args...)})
	}

	var (
		hasTitle      bool
		hasUnreleased bool
		versions      []string
	)

	for i, raw := range strings.Split(string(source), "\n") {
		line := i + 1
		text := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(text, "### "):
			section := strings.TrimPrefix(text, "### ")
			if !changeSections[section] {
				report(line, "unknown change section %q", section)
			}

		case strings.HasPrefix(text, "## "):
			version, date := splitHeading(strings.TrimPrefix(text, "## "))
			if strings.EqualFold(version, "unreleased") {
				hasUnreleased = true
				continue
			}
			versions = append(versions, version)
			if !semverHeading.MatchString(version) {
				report(line, "version %q is not semver", version)
			}
			if date == "" {
				report(line, "version %s has no release date", version)
			} else if !isoDate.MatchString(date) {
				report(line, "date %q is not YYYY-MM-DD", date)
			}

		case strings.HasPrefix(text, "# "):
			hasTitle = true
			if !strings.Contains(strings.ToLower(text), "changelog") {
				report(line, "title does not mention Changelog")
			}
		}
	}

	if !hasTitle {
		report(0, "missing # Changelog title")
	}
	if !hasUnreleased {
		report(0, "missing [Unreleased] section")
	}

	history, err := ParseHistory(source)
	if err != nil {
		report(0, "parse failed: %v", err)
		return problems
	}
	if hasUnreleased {
		if _, ok := history.Refs["Unreleased"]; !ok {
			report(0, "missing reference link for [Unreleased]")
		}
	}
	for _, version := range versions {
		if _, ok := history.Refs[version]; !ok {
			report(0, "missing reference link for [%s]", version)
		}
	}

	return problems
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"
	"time"

	"panhunt/internal/core"
	"panhunt/internal/formatters"
	"panhunt/internal/formatters/shared"
	"panhunt/internal/inventory"
)

const (
	headerLayout = "15:04:05 02/01/2006"
	ruleWidth    = 100
)

// Formatter renders the plain text report
type Formatter struct{}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable PAN Hunt report"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

// Format renders the header, one block per file with matches, then the
// files that need a manual check.
func (f *Formatter) Format(sc formatters.ScanContext, result *core.ScanResult, options formatters.FormatterOptions) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no scan result to format")
	}
	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)

	root := sc.Root
	if root == "" {
		root = result.Root
	}
	fmt.Fprintf(&b, "PAN Hunt Report - %s\n%s\n", reportTime(sc, result).Format(headerLayout), rule)
	fmt.Fprintf(&b, "Searched %s\nExcluded %s\n", root, strings.Join(sc.ExcludedDirs, ","))
	if sc.Command != "" {
		fmt.Fprintf(&b, "Command: %s\n", sc.Command)
	}
	fmt.Fprintf(&b, "Uname: %s\n", strings.Join(sc.Host.Fields(), " | "))
	if sc.RunID != "" {
		fmt.Fprintf(&b, "Run ID: %s\n", sc.RunID)
	}
	if result.Interrupted {
		b.WriteString("Scan interrupted, results are partial.\n")
	}
	fmt.Fprintf(&b, "Searched %d files. Found %d possible PANs.\n%s\n\n", result.Searched, result.MatchCount, rule)

	for _, it := range result.Matched {
		fmt.Fprintf(&b, "FOUND PANs: %s\n", describe(it))
		lines := make([]string, 0, len(it.Matches))
		for _, m := range it.Matches {
			lines = append(lines, fmt.Sprintf("%s %s:%s", m.SubPath, m.Brand, m.Display(options.Mask)))
		}
		b.WriteString("\t" + strings.Join(lines, "\n\t") + "\n\n")
	}

	if len(result.Other) > 0 {
		b.WriteString("Interesting Files to check separately:\n")
		for _, it := range result.Other {
			b.WriteString(describe(it) + "\n")
		}
	}

	if len(result.Failed) > 0 || len(result.Skipped) > 0 {
		if len(result.Other) > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Files that could not be fully searched:\n")
		for _, it := range result.Failed {
			b.WriteString(describe(it) + "\n")
			for _, msg := range it.ErrorStrings() {
				b.WriteString("\t" + msg + "\n")
			}
		}
		for _, s := range result.Skipped {
			fmt.Fprintf(&b, "%s (skipped: %s)\n", s.Path, s.Reason)
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

// describe renders "path (size date)".
func describe(it *inventory.ScanItem) string {
	return fmt.Sprintf("%s (%s %s)", it.Path, shared.FriendlySize(it.Size), shared.FormatDate(it.Modified))
}

func reportTime(sc formatters.ScanContext, result *core.ScanResult) time.Time {
	switch {
	case !sc.Started.IsZero():
		return sc.Started
	case !result.StartedAt.IsZero():
		return result.StartedAt
	default:
		return time.Now()
	}
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}

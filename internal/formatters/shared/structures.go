// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"fmt"
	"time"

	"panhunt/internal/core"
	"panhunt/internal/formatters"
	"panhunt/internal/inventory"
)

// DateLayout is the DD/MM/YYYY layout used for file dates in reports.
const DateLayout = "02/01/2006"

// Document represents the top-level structure for JSON/YAML output
type Document struct {
	RunID        string      `json:"run_id" yaml:"run_id"`
	Root         string      `json:"root" yaml:"root"`
	ExcludedDirs []string    `json:"excluded_dirs" yaml:"excluded_dirs"`
	Command      string      `json:"command,omitempty" yaml:"command,omitempty"`
	Host         string      `json:"host" yaml:"host"`
	StartedAt    time.Time   `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time   `json:"finished_at" yaml:"finished_at"`
	Interrupted  bool        `json:"interrupted" yaml:"interrupted"`
	Considered   int         `json:"considered" yaml:"considered"`
	Searched     int         `json:"searched" yaml:"searched"`
	MatchCount   int         `json:"match_count" yaml:"match_count"`
	Matched      []FileEntry `json:"matched" yaml:"matched"`
	Other        []FileEntry `json:"other" yaml:"other"`
	Failed       []FileEntry `json:"failed,omitempty" yaml:"failed,omitempty"`
	Skipped      []SkipEntry `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// FileEntry represents one scanned file in JSON/YAML format
type FileEntry struct {
	Path     string       `json:"path" yaml:"path"`
	Category string       `json:"category" yaml:"category"`
	Size     int64        `json:"size" yaml:"size"`
	Modified string       `json:"modified" yaml:"modified"`
	Matches  []MatchEntry `json:"matches,omitempty" yaml:"matches,omitempty"`
	Errors   []string     `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// MatchEntry represents a single PAN in JSON/YAML format
type MatchEntry struct {
	SubPath string `json:"sub_path" yaml:"sub_path"`
	Brand   string `json:"brand" yaml:"brand"`
	PAN     string `json:"pan" yaml:"pan"`
}

// SkipEntry is a path the walk could not enter.
type SkipEntry struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// BuildDocument converts a scan result to the shared JSON/YAML structure.
// PANs are masked when options.Mask is set.
func BuildDocument(sc formatters.ScanContext, result *core.ScanResult, options formatters.FormatterOptions) Document {
	doc := Document{
		RunID:        sc.RunID,
		Root:         sc.Root,
		ExcludedDirs: nonNil(sc.ExcludedDirs),
		Command:      sc.Command,
		Host:         sc.Host.String(),
		StartedAt:    result.StartedAt,
		FinishedAt:   result.FinishedAt,
		Interrupted:  result.Interrupted,
		Considered:   result.Considered,
		Searched:     result.Searched,
		MatchCount:   result.MatchCount,
		Matched:      make([]FileEntry, 0, len(result.Matched)),
		Other:        make([]FileEntry, 0, len(result.Other)),
	}
	if doc.Root == "" {
		doc.Root = result.Root
	}

	for _, it := range result.Matched {
		entry := fileEntry(it)
		for _, m := range it.Matches {
			entry.Matches = append(entry.Matches, MatchEntry{
				SubPath: m.SubPath,
				Brand:   m.Brand,
				PAN:     m.Display(options.Mask),
			})
		}
		doc.Matched = append(doc.Matched, entry)
	}
	for _, it := range result.Other {
		doc.Other = append(doc.Other, fileEntry(it))
	}
	for _, it := range result.Failed {
		doc.Failed = append(doc.Failed, fileEntry(it))
	}
	for _, s := range result.Skipped {
		doc.Skipped = append(doc.Skipped, SkipEntry{Path: s.Path, Reason: s.Reason})
	}
	return doc
}

func fileEntry(it *inventory.ScanItem) FileEntry {
	entry := FileEntry{
		Path:     it.Path,
		Category: it.Category.String(),
		Size:     it.Size,
		Modified: FormatDate(it.Modified),
	}
	if it.HasErrors() {
		entry.Errors = it.ErrorStrings()
	}
	return entry
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// FriendlySize renders a byte count the way the report shows file sizes,
// e.g. "19.0 bytes" or "1.5 MB".
func FriendlySize(size int64) string {
	f := float64(size)
	for _, unit := range []string{"bytes", "KB", "MB", "GB"} {
		if f < 1024.0 && f > -1024.0 {
			return fmt.Sprintf("%3.1f %s", f, unit)
		}
		f /= 1024.0
	}
	return fmt.Sprintf("%3.1f %s", f, "TB")
}

// FormatDate renders t as DD/MM/YYYY, or an empty string for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

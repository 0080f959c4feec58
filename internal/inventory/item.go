// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"path/filepath"
	"time"

	"panhunt/internal/detector"
	"panhunt/internal/router"
)

// ScanItem is one classified file of the inventory. Identity fields are
// set by the walker and never change; Errors and Matches are appended by
// whichever goroutine owns the item while it is processed.
type ScanItem struct {
	Name     string          `json:"name" yaml:"name"`
	Dir      string          `json:"dir" yaml:"dir"`
	Path     string          `json:"path" yaml:"path"`
	Ext      string          `json:"ext" yaml:"ext"`
	Category router.Category `json:"category" yaml:"category"`

	Size     int64     `json:"size" yaml:"size"`
	Accessed time.Time `json:"accessed" yaml:"accessed"`
	Modified time.Time `json:"modified" yaml:"modified"`
	Created  time.Time `json:"created" yaml:"created"`

	Errors  []error          `json:"-" yaml:"-"`
	Matches []detector.Match `json:"matches,omitempty" yaml:"matches,omitempty"`
}

// NewScanItem creates an item for path with the given category.
func NewScanItem(path string, category router.Category) *ScanItem {
	return &ScanItem{
		Name:     filepath.Base(path),
		Dir:      filepath.Dir(path),
		Path:     path,
		Ext:      router.Ext(path),
		Category: category,
	}
}

// AddError records a problem with the item.
func (it *ScanItem) AddError(err error) {
	if err != nil {
		it.Errors = append(it.Errors, err)
	}
}

// AddMatches appends matches in detection order.
func (it *ScanItem) AddMatches(matches ...detector.Match) {
	it.Matches = append(it.Matches, matches...)
}

// HasErrors reports whether any error was recorded.
func (it *ScanItem) HasErrors() bool {
	return len(it.Errors) > 0
}

// ErrorStrings returns the recorded errors as text.
func (it *ScanItem) ErrorStrings() []string {
	out := make([]string, 0, len(it.Errors))
	for _, err := range it.Errors {
		out = append(out, err.Error())
	}
	return out
}

// SkippedPath is a directory or entry the walker could not descend into.
type SkippedPath struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// Inventory is the result of a walk.
type Inventory struct {
	Root    string         `json:"root" yaml:"root"`
	Items   []*ScanItem    `json:"items" yaml:"items"`
	Skipped []SkippedPath `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// CountByCategory tallies the items per category.
func (inv *Inventory) CountByCategory() map[router.Category]int {
	counts := make(map[router.Category]int)
	for _, it := range inv.Items {
		counts[it.Category]++
	}
	return counts
}

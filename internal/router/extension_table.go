// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"path/filepath"
	"strings"
)

// ExtensionTable maps lower-cased extensions (with leading dot) to categories.
type ExtensionTable struct {
	categories map[string]Category
}

// Default extension lists.
var (
	DefaultTextExtensions = []string{
		".doc", ".xls", ".xml", ".txt", ".csv", ".log", ".tmp", ".bak", ".rtf",
		".cfg", ".dat", ".ini", ".htm", ".html", ".js", ".json", ".sql", ".md", ".pdf",
	}
	DefaultArchiveExtensions       = []string{".docx", ".xlsx", ".pptx", ".zip", ".jar", ".odt", ".ods", ".epub"}
	DefaultMailMessageExtensions   = []string{".eml", ".msg"}
	DefaultMailContainerExtensions = []string{".pst", ".mbox", ".mbx"}
	DefaultOtherExtensions         = []string{
		".ost", ".accdb", ".mdb", ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".gif",
	}
)

// NewExtensionTable builds a table from per-category extension lists.
// Entries are normalized, so "TXT", "txt" and ".txt" are equivalent.
func NewExtensionTable(lists map[Category][]string) *ExtensionTable {
	t := &ExtensionTable{categories: make(map[string]Category)}
	for _, cat := range tableOrder {
		for _, ext := range lists[cat] {
			if norm := NormalizeExtension(ext); norm != "" {
				t.categories[norm] = cat
			}
		}
	}
	return t
}

// DefaultExtensionTable returns a table built from the default lists.
func DefaultExtensionTable() *ExtensionTable {
	return NewExtensionTable(map[Category][]string{
		CategoryText:          DefaultTextExtensions,
		CategoryArchive:       DefaultArchiveExtensions,
		CategoryMailMessage:   DefaultMailMessageExtensions,
		CategoryMailContainer: DefaultMailContainerExtensions,
		CategoryOther:         DefaultOtherExtensions,
	})
}

// NormalizeExtension lower-cases ext and ensures a single leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}

// Classify returns the category for ext. It is case-insensitive and
// returns CategoryUnknown for anything not in the table.
func Classify(ext string, table *ExtensionTable) Category {
	if table == nil {
		return CategoryUnknown
	}
	norm := NormalizeExtension(ext)
	if norm == "" {
		return CategoryUnknown
	}
	if cat, ok := table.categories[norm]; ok {
		return cat
	}
	return CategoryUnknown
}

// Classify is the method form of the package level Classify.
func (t *ExtensionTable) Classify(ext string) Category {
	return Classify(ext, t)
}

// ClassifyPath classifies a file or entry name by its extension.
// Backslash separated names from archives are handled too.
func (t *ExtensionTable) ClassifyPath(name string) Category {
	return Classify(Ext(name), t)
}

// Len returns the number of mapped extensions.
func (t *ExtensionTable) Len() int {
	return len(t.categories)
}

// Ext returns the lower-cased extension of name, treating both '/' and
// '\' as separators.
func Ext(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(filepath.Ext(name))
}

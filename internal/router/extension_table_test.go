// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"testing"
)

func TestClassify(t *testing.T) {
	table := DefaultExtensionTable()

	tests := []struct {
		ext  string
		want Category
	}{
		{".txt", CategoryText},
		{".TXT", CategoryText},
		{"txt", CategoryText},
		{".zip", CategoryArchive},
		{".Docx", CategoryArchive},
		{".eml", CategoryMailMessage},
		{".pst", CategoryMailContainer},
		{".mbox", CategoryMailContainer},
		{".accdb", CategoryOther},
		{".exe", CategoryUnknown},
		{"", CategoryUnknown},
		{".", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := Classify(tt.ext, table); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestClassify_NilTable(t *testing.T) {
	if got := Classify(".txt", nil); got != CategoryUnknown {
		t.Errorf("expected UNKNOWN for nil table, got %v", got)
	}
}

func TestNewExtensionTable_LaterListWins(t *testing.T) {
	table := NewExtensionTable(map[Category][]string{
		CategoryText:  {"TXT", "dat"},
		CategoryOther: {".dat"},
	})

	if got := table.Classify(".dat"); got != CategoryOther {
		t.Errorf("expected OTHER to override TEXT, got %v", got)
	}
	if got := table.Classify(".txt"); got != CategoryText {
		t.Errorf("expected TEXT, got %v", got)
	}
	if table.Len() != 2 {
		t.Errorf("expected 2 extensions, got %d", table.Len())
	}
}

func TestClassifyPath(t *testing.T) {
	table := DefaultExtensionTable()

	tests := map[string]Category{
		"/data/report.CSV":          CategoryText,
		`folder\inner\backup.zip`:   CategoryArchive,
		"archive.zip/inner/msg.eml": CategoryMailMessage,
		"/data/.hidden":             CategoryUnknown,
		"/data/noext":               CategoryUnknown,
		"dir.txt/file":              CategoryUnknown,
	}
	for name, want := range tests {
		if got := table.ClassifyPath(name); got != want {
			t.Errorf("ClassifyPath(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCategoryPredicates(t *testing.T) {
	if !CategoryText.IsDocument() || !CategoryArchive.IsDocument() || !CategoryMailMessage.IsDocument() {
		t.Error("text, archive and message must be documents")
	}
	if CategoryMailContainer.IsDocument() || !CategoryMailContainer.IsScannable() {
		t.Error("mail containers are scannable but not documents")
	}
	if CategoryOther.IsScannable() || CategoryUnknown.IsScannable() {
		t.Error("other and unknown are never scanned")
	}
}

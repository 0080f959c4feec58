// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package suppressions

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExclusionSet_Contains(t *testing.T) {
	s := NewExclusionSet("4111111111111111", " ", "5500-0000-0000-0004")

	tests := []struct {
		pan  string
		want bool
	}{
		{"4111111111111111", true},
		{"4111-1111-1111-1111", true},
		{"4111 1111 1111 1111", true},
		{"5500-0000-0000-0004", true},
		{"4012888888881881", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := s.Contains(tt.pan); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.pan, got, tt.want)
		}
	}
	if s.Len() != 2 {
		t.Errorf("expected blank entries to be ignored, got %d entries", s.Len())
	}
}

func TestExclusionSet_Nil(t *testing.T) {
	var s *ExclusionSet
	if s.Contains("4111111111111111") {
		t.Error("nil set must not exclude anything")
	}
	if s.Len() != 0 {
		t.Error("nil set must be empty")
	}
}

func TestExclusionSet_ZeroValue(t *testing.T) {
	var s ExclusionSet
	s.Add("4111111111111111")
	s.AddHash(HashPAN("4012888888881881"))

	if !s.Contains("4111-1111-1111-1111") {
		t.Error("literal added to a zero value set not found")
	}
	if !s.Contains("4012888888881881") {
		t.Error("hash added to a zero value set not found")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", s.Len())
	}
}

func TestLoadExclusionFile_ZeroValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclusions.yaml")
	if err := os.WriteFile(path, []byte("pans:\n  - pan: \"4111111111111111\"\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	var s ExclusionSet
	if err := s.LoadExclusionFile(path, time.Now()); err != nil {
		t.Fatalf("LoadExclusionFile failed: %v", err)
	}
	if !s.Contains("4111111111111111") {
		t.Error("rule not loaded into zero value set")
	}
}

func TestLoadExclusionFile_UnknownKey(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"top level", "rules:\n  - pan: \"4111111111111111\"\n"},
		{"rule field", "pans:\n  - number: \"4111111111111111\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "exclusions.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := NewExclusionSet().LoadExclusionFile(path, time.Now()); err == nil {
				t.Error("expected an unknown key to be rejected")
			}
		})
	}
}

func TestLoadExclusionFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclusions.yaml")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := NewExclusionSet().LoadExclusionFile(path, time.Now()); err != nil {
		t.Errorf("empty file should load: %v", err)
	}
}

func TestLoadExclusionFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exclusions.yaml")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	content := `version: "1.0"
pans:
  - pan: "4111111111111111"
    reason: test card
  - hash: "` + HashPAN("4012888888881881") + `"
  - pan: "378282246310005"
    expires_at: 2025-01-01T00:00:00Z
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := NewExclusionSet()
	if err := s.LoadExclusionFile(path, now); err != nil {
		t.Fatalf("LoadExclusionFile failed: %v", err)
	}

	if !s.Contains("4111111111111111") {
		t.Error("literal rule not loaded")
	}
	if !s.Contains("4012 8888 8888 1881") {
		t.Error("hashed rule should match the separated form")
	}
	if s.Contains("378282246310005") {
		t.Error("expired rule must be ignored")
	}
}

func TestLoadExclusionFile_Missing(t *testing.T) {
	s := NewExclusionSet()
	if err := s.LoadExclusionFile(filepath.Join(t.TempDir(), "none.yaml"), time.Now()); err != nil {
		t.Errorf("missing file should not fail: %v", err)
	}
}

func TestLoadExclusionFile_InvalidRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("pans:\n  - reason: nothing\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := NewExclusionSet().LoadExclusionFile(path, time.Now()); err == nil {
		t.Error("expected error for rule without pan or hash")
	}
}

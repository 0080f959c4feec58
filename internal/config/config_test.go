// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"panhunt/internal/router"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "panhunt.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Format != "text" {
		t.Errorf("expected default format text, got %q", cfg.Format)
	}
	if !cfg.MaskPANs {
		t.Error("expected PANs to be masked by default")
	}
	if cfg.SizeCeiling != DefaultSizeCeiling {
		t.Errorf("expected default size ceiling, got %d", cfg.SizeCeiling)
	}
	if cfg.Limits.MaxDepth != 8 {
		t.Errorf("expected max depth 8, got %d", cfg.Limits.MaxDepth)
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
search: /srv/data
exclude: [/srv/data/tmp]
format: json
size_ceiling: 512MB
workers: 4
exclude_pans: ["4111111111111111"]
extensions:
  text: [txt, log]
limits:
  max_depth: 3
  max_entry_bytes: 1048576
  item_timeout: 30s
log:
  level: debug
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Search != "/srv/data" || cfg.Format != "json" || cfg.Workers != 4 {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if !cfg.MaskPANs {
		t.Error("mask_pans should keep its default when absent")
	}
	if cfg.SizeCeiling != 512<<20 {
		t.Errorf("expected 512MB, got %d", cfg.SizeCeiling)
	}
	if cfg.Limits.MaxDepth != 3 || cfg.Limits.MaxEntryBytes != 1<<20 || cfg.Limits.ItemTimeout != 30*time.Second {
		t.Errorf("unexpected limits: %+v", cfg.Limits)
	}
	if cfg.Limits.MaxArchiveBytes == 0 {
		t.Error("max_archive_bytes should keep its default")
	}

	table := cfg.ExtensionTable()
	if got := table.Classify("log"); got != router.CategoryText {
		t.Errorf("expected .log to be TEXT, got %s", got)
	}
	if got := table.Classify("csv"); got != router.CategoryUnknown {
		t.Errorf("replaced text list should drop .csv, got %s", got)
	}
	if got := table.Classify("zip"); got != router.CategoryArchive {
		t.Errorf("archive list should keep defaults, got %s", got)
	}

	limits := cfg.ResourceLimits()
	if limits.MaxDepth != 3 || limits.ItemTimeout != 30*time.Second {
		t.Errorf("unexpected resource limits: %+v", limits)
	}
}

func TestExtensionTable_ConfiguredListOverridesDefaults(t *testing.T) {
	cfg := Default()
	cfg.Search = "/srv/data"
	cfg.Extensions.Text = []string{".txt", "ZIP"}
	cfg.Extensions.Other = []string{"eml"}

	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig failed: %v", err)
	}

	table := cfg.ExtensionTable()
	tests := []struct {
		ext  string
		want router.Category
	}{
		{"zip", router.CategoryText},
		{"jar", router.CategoryArchive},
		{"eml", router.CategoryOther},
		{"msg", router.CategoryMailMessage},
		{"csv", router.CategoryUnknown},
	}
	for _, tt := range tests {
		if got := table.Classify(tt.ext); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.ext, got, tt.want)
		}
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "search: [unclosed"},
		{"bad size", "size_ceiling: lots"},
		{"negative workers", "workers: -3"},
		{"root excluded", "search: /srv\nexclude: [/srv/]"},
		{"duplicate extension", "extensions:\n  text: [zip]\n  archive: [zip]"},
		{"bad log level", "log:\n  level: loud"},
		{"empty outfile", "outfile: ''"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadConfigOrDefault(t *testing.T) {
	cfg, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected an error for a missing explicit file")
	}
	if cfg == nil || cfg.Format != "text" {
		t.Fatal("expected defaults alongside the error")
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("PANHUNT_CONFIG_DIR", t.TempDir())
	t.Setenv(EnvConfigFile, "")

	if got := FindConfigFile("/explicit.yaml"); got != "/explicit.yaml" {
		t.Errorf("explicit path should win, got %q", got)
	}

	t.Setenv(EnvConfigFile, "/from/env.yaml")
	if got := FindConfigFile(""); got != "/from/env.yaml" {
		t.Errorf("expected env path, got %q", got)
	}
}

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		in      string
		want    ByteSize
		wantErr bool
	}{
		{"100", 100, false},
		{"10B", 10, false},
		{"2KB", 2048, false},
		{"1.5 MB", 1536 * 1024, false},
		{"1g", 1 << 30, false},
		{"", 0, true},
		{"-5MB", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseByteSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseByteSize(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseByteSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestExclusions(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "exclusions.yaml")
	content := "version: \"1\"\npans:\n  - pan: \"5555555555554444\"\n"
	if err := os.WriteFile(file, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.ExcludePANs = []string{"4111111111111111"}
	cfg.ExclusionFile = file
	set, err := cfg.Exclusions(time.Now())
	if err != nil {
		t.Fatalf("Exclusions failed: %v", err)
	}
	if !set.Contains("4111111111111111") || !set.Contains("5555555555554444") {
		t.Error("expected both literal and file exclusions")
	}
}

func TestSealKey(t *testing.T) {
	cfg := Default()
	if cfg.SealKey() != nil {
		t.Error("no key env configured should give a nil key")
	}
	t.Setenv("PANHUNT_TEST_KEY", "secret")
	cfg.ReportKeyEnv = "PANHUNT_TEST_KEY"
	if key := cfg.SealKey(); key.IsEmpty() {
		t.Error("expected key from environment")
	}
}

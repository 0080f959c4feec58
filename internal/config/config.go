// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"panhunt/internal/observability"
	"panhunt/internal/paths"
	"panhunt/internal/platform"
	"panhunt/internal/preprocessors"
	"panhunt/internal/router"
	"panhunt/internal/security"
	"panhunt/internal/suppressions"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile names an explicit config file when no flag is given.
const EnvConfigFile = "PANHUNT_CONFIG"

// DefaultSizeCeiling is the largest file that is searched by default.
const DefaultSizeCeiling ByteSize = 1 << 30

// Config represents the application configuration
type Config struct {
	Search        string     `yaml:"search"`
	Exclude       []string   `yaml:"exclude"`
	Outfile       string     `yaml:"outfile"`
	Format        string     `yaml:"format"`
	MaskPANs      bool       `yaml:"mask_pans"`
	SizeCeiling   ByteSize   `yaml:"size_ceiling"`
	Workers       int        `yaml:"workers"` // -1 sizes the pool from the host
	Extensions    Extensions `yaml:"extensions"`
	ExcludePANs   []string   `yaml:"exclude_pans"`
	ExclusionFile string     `yaml:"exclusion_file"`
	Limits        Limits     `yaml:"limits"`
	Log           Log        `yaml:"log"`
	HistoryDB     string     `yaml:"history_db"` // Empty disables the run ledger
	ReportKeyEnv  string     `yaml:"report_key_env"`
}

// Extensions lists the extensions of each category. A list left empty
// keeps the built-in default for that category.
type Extensions struct {
	Text          []string `yaml:"text"`
	Archive       []string `yaml:"archive"`
	MailMessage   []string `yaml:"mail_message"`
	MailContainer []string `yaml:"mail_container"`
	Other         []string `yaml:"other"`
}

// Limits bound the work spent on one file.
type Limits struct {
	MaxDepth        int           `yaml:"max_depth"`
	MaxEntryBytes   ByteSize      `yaml:"max_entry_bytes"`
	MaxArchiveBytes ByteSize      `yaml:"max_archive_bytes"`
	ItemTimeout     time.Duration `yaml:"item_timeout"`
}

// Log configures the zap logger.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration for this platform.
func Default() *Config {
	p := platform.GetPlatform()
	limits := preprocessors.DefaultResourceLimits()
	return &Config{
		Search:      p.DefaultSearchRoot(),
		Exclude:     p.DefaultExcludedDirs(),
		Outfile:     "panhunt_",
		Format:      "text",
		MaskPANs:    true,
		SizeCeiling: DefaultSizeCeiling,
		Limits: Limits{
			MaxDepth:        limits.MaxDepth,
			MaxEntryBytes:   ByteSize(limits.MaxEntryBytes),
			MaxArchiveBytes: ByteSize(limits.MaxArchiveBytes),
		},
		Log: Log{Level: "warn"},
	}
}

// LoadConfig loads configuration from the specified file path. Fields not
// present in the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	// If no config file specified, return default config
	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	config.normalizePaths()

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// FindConfigFile returns the first config file found in: the explicit
// path, $PANHUNT_CONFIG, ./panhunt.yaml or ./panhunt.yml, then the user
// config directory. An empty string means none exists.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfigFile); env != "" {
		return env
	}
	for _, name := range []string{"panhunt.yaml", "panhunt.yml"} {
		if fileExists(name) {
			return name
		}
	}
	if standard := paths.GetConfigFile(); fileExists(standard) {
		return standard
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// LoadConfigOrDefault loads configuration from configFile, or searches the
// standard locations when it is empty. An unreadable or invalid file is
// reported through the returned error together with the defaults, so
// callers can warn and continue.
func LoadConfigOrDefault(configFile string) (*Config, error) {
	configPath := FindConfigFile(configFile)
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return Default(), err
	}
	return cfg, nil
}

func (c *Config) normalizePaths() {
	if c.Search != "" {
		c.Search = paths.ExpandHome(c.Search)
	}
	for i, dir := range c.Exclude {
		c.Exclude[i] = paths.ExpandHome(dir)
	}
	c.Outfile = paths.ExpandHome(c.Outfile)
	c.ExclusionFile = paths.ExpandHome(c.ExclusionFile)
	c.HistoryDB = paths.ExpandHome(c.HistoryDB)
	c.Log.File = paths.ExpandHome(c.Log.File)
}

// ValidateConfig checks the configuration for values the scanner cannot use
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if strings.TrimSpace(config.Search) == "" {
		return fmt.Errorf("search root must not be empty")
	}
	for _, dir := range config.Exclude {
		if paths.SamePath(dir, config.Search) {
			return fmt.Errorf("search root %s is also excluded", config.Search)
		}
	}
	if config.Outfile == "" {
		return fmt.Errorf("outfile must not be empty")
	}
	if config.Workers < -1 {
		return fmt.Errorf("workers must be -1 (auto) or at least 0, got %d", config.Workers)
	}
	if config.SizeCeiling < 0 {
		return fmt.Errorf("size_ceiling must not be negative")
	}
	if config.Limits.MaxDepth < 0 || config.Limits.MaxEntryBytes < 0 || config.Limits.MaxArchiveBytes < 0 || config.Limits.ItemTimeout < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if _, err := observability.ParseLevel(config.Log.Level); err != nil {
		return err
	}
	return validateExtensions(config.Extensions)
}

// validateExtensions rejects an extension listed under two categories.
func validateExtensions(ext Extensions) error {
	seen := make(map[string]router.Category)
	for cat, list := range ext.lists() {
		for _, e := range list {
			norm := router.NormalizeExtension(e)
			if norm == "" {
				continue
			}
			if prev, ok := seen[norm]; ok && prev != cat {
				return fmt.Errorf("extension %s is listed as both %s and %s", norm, prev, cat)
			}
			seen[norm] = cat
		}
	}
	return nil
}

func (e Extensions) lists() map[router.Category][]string {
	return map[router.Category][]string{
		router.CategoryText:          e.Text,
		router.CategoryArchive:       e.Archive,
		router.CategoryMailMessage:   e.MailMessage,
		router.CategoryMailContainer: e.MailContainer,
		router.CategoryOther:         e.Other,
	}
}

// ExtensionTable builds the classification table, using the default list
// for every category the configuration leaves empty. An extension the
// configuration assigns to a category is removed from the defaults of the
// other categories.
func (c *Config) ExtensionTable() *router.ExtensionTable {
	defaults := map[router.Category][]string{
		router.CategoryText:          router.DefaultTextExtensions,
		router.CategoryArchive:       router.DefaultArchiveExtensions,
		router.CategoryMailMessage:   router.DefaultMailMessageExtensions,
		router.CategoryMailContainer: router.DefaultMailContainerExtensions,
		router.CategoryOther:         router.DefaultOtherExtensions,
	}
	lists := c.Extensions.lists()
	claimed := make(map[string]bool)
	for _, list := range lists {
		for _, e := range list {
			if norm := router.NormalizeExtension(e); norm != "" {
				claimed[norm] = true
			}
		}
	}
	for cat, list := range lists {
		if len(list) > 0 {
			continue
		}
		var kept []string
		for _, e := range defaults[cat] {
			if !claimed[router.NormalizeExtension(e)] {
				kept = append(kept, e)
			}
		}
		lists[cat] = kept
	}
	return router.NewExtensionTable(lists)
}

// ResourceLimits converts the limits section.
func (c *Config) ResourceLimits() preprocessors.ResourceLimits {
	return preprocessors.ResourceLimits{
		MaxDepth:        c.Limits.MaxDepth,
		MaxEntryBytes:   int64(c.Limits.MaxEntryBytes),
		MaxArchiveBytes: int64(c.Limits.MaxArchiveBytes),
		ItemTimeout:     c.Limits.ItemTimeout,
	}
}

// Exclusions builds the PAN exclusion set from exclude_pans and the
// exclusion file. The default exclusion file is used when none is set and
// it exists.
func (c *Config) Exclusions(now time.Time) (*suppressions.ExclusionSet, error) {
	set := suppressions.NewExclusionSet(c.ExcludePANs...)
	file := c.ExclusionFile
	if file == "" {
		file = paths.GetExclusionFile()
	}
	if err := set.LoadExclusionFile(file, now); err != nil {
		return nil, fmt.Errorf("failed to load exclusion file %s: %w", file, err)
	}
	return set, nil
}

// SealKey reads the report key from the configured environment variable.
// Without one the plain sha512 seal is used.
func (c *Config) SealKey() *security.SealKey {
	if c.ReportKeyEnv == "" {
		return nil
	}
	return security.SealKeyFromEnv(c.ReportKeyEnv)
}

// LogConfig converts the log section.
func (c *Config) LogConfig() observability.LogConfig {
	return observability.LogConfig{Level: c.Log.Level, File: c.Log.File}
}

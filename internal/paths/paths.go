// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"os"
	"path/filepath"
	"strings"

	"panhunt/internal/platform"
)

// GetConfigDir returns the panhunt configuration directory
func GetConfigDir() string {
	// Check for explicit override first (works on all platforms)
	if dir := os.Getenv("PANHUNT_CONFIG_DIR"); dir != "" {
		return dir
	}
	return platform.GetPlatform().GetConfigDir()
}

// GetConfigFile returns the path to the main config file
func GetConfigFile() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// GetExclusionFile returns the path to the default PAN exclusion file
func GetExclusionFile() string {
	return filepath.Join(GetConfigDir(), "exclusions.yaml")
}

// GetHistoryDB returns the default location of the scan history database
func GetHistoryDB() string {
	return filepath.Join(GetConfigDir(), "history.db")
}

// NormalizePath returns the cleaned absolute form of path for the current
// platform. If the absolute path cannot be determined the cleaned input is
// returned.
func NormalizePath(path string) string {
	p := platform.GetPlatform()
	abs, err := filepath.Abs(path)
	if err != nil {
		return p.NormalizePath(path)
	}
	return p.NormalizePath(abs)
}

// SamePath compares two paths after normalization, ignoring case.
func SamePath(a, b string) bool {
	return strings.EqualFold(NormalizePath(a), NormalizePath(b))
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

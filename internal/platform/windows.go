// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// WindowsPlatform holds the Windows defaults.
type WindowsPlatform struct{}

// GetConfigDir prefers %APPDATA%, then %USERPROFILE%.
func (w *WindowsPlatform) GetConfigDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "panhunt")
	}
	if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
		return filepath.Join(userProfile, ".panhunt")
	}
	return ".panhunt"
}

// NormalizePath normalizes a path for Windows. Forward slashes become
// backslashes and the drive letter is upper-cased.
func (w *WindowsPlatform) NormalizePath(path string) string {
	normalized := filepath.Clean(strings.ReplaceAll(path, "/", `\`))
	if len(normalized) >= 2 && normalized[1] == ':' {
		normalized = strings.ToUpper(normalized[:1]) + normalized[1:]
	}
	return normalized
}

// DefaultSearchRoot is the system drive.
func (w *WindowsPlatform) DefaultSearchRoot() string {
	return `C:\`
}

// DefaultExcludedDirs are the system directories of a Windows install.
func (w *WindowsPlatform) DefaultExcludedDirs() []string {
	return []string{
		`C:\Windows`,
		`C:\Program Files`,
		`C:\Program Files (x86)`,
		`C:\ProgramData\Microsoft`,
	}
}

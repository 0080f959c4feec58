// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"os"
	"path/filepath"
)

// UnixPlatform covers every non-Windows OS.
type UnixPlatform struct{}

// GetConfigDir honours XDG_CONFIG_HOME and falls back to ~/.panhunt.
func (u *UnixPlatform) GetConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "panhunt")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".panhunt")
}

func (u *UnixPlatform) NormalizePath(path string) string {
	return filepath.Clean(path)
}

// DefaultSearchRoot is the whole filesystem.
func (u *UnixPlatform) DefaultSearchRoot() string {
	return "/"
}

// DefaultExcludedDirs are pseudo and system trees that never hold user data.
func (u *UnixPlatform) DefaultExcludedDirs() []string {
	return []string{"/proc", "/sys", "/dev", "/run", "/usr/lib", "/usr/share", "/var/lib/docker"}
}

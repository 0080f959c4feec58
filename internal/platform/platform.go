// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"runtime"
)

// Platform supplies the per-OS scan defaults and config location.
type Platform interface {
	GetConfigDir() string
	NormalizePath(path string) string
	DefaultSearchRoot() string
	DefaultExcludedDirs() []string
}

// GetPlatform returns the Platform of the running OS.
func GetPlatform() Platform {
	return forOS(runtime.GOOS)
}

func forOS(goos string) Platform {
	if goos == "windows" {
		return &WindowsPlatform{}
	}
	return &UnixPlatform{}
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package platform

import (
	"io/fs"
	"time"
)

// FileTimes falls back to the modification time where stat layouts differ.
func FileTimes(info fs.FileInfo) (accessed, created time.Time) {
	return info.ModTime(), info.ModTime()
}

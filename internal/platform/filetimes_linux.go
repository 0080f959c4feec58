// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package platform

import (
	"io/fs"
	"syscall"
	"time"
)

// FileTimes returns the access and change times of info. Linux does not
// expose a birth time through stat, so the inode change time stands in for
// the creation time.
func FileTimes(info fs.FileInfo) (accessed, created time.Time) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime(), info.ModTime()
	}
	return time.Unix(st.Atim.Sec, st.Atim.Nsec), time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
}

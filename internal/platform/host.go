// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// HostInfo identifies the machine a scan ran on.
type HostInfo struct {
	Hostname        string `json:"hostname" yaml:"hostname"`
	OS              string `json:"os" yaml:"os"`
	Platform        string `json:"platform,omitempty" yaml:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty" yaml:"platform_version,omitempty"`
	KernelVersion   string `json:"kernel_version,omitempty" yaml:"kernel_version,omitempty"`
	Arch            string `json:"arch" yaml:"arch"`
}

// DescribeHost collects host identification. Missing details are left
// blank rather than failing, since the report must still be written.
func DescribeHost(ctx context.Context) HostInfo {
	info := HostInfo{OS: runtime.GOOS, Arch: runtime.GOARCH}
	if stat, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = stat.Hostname
		info.Platform = stat.Platform
		info.PlatformVersion = stat.PlatformVersion
		info.KernelVersion = stat.KernelVersion
		if stat.KernelArch != "" {
			info.Arch = stat.KernelArch
		}
	}
	if info.Hostname == "" {
		info.Hostname, _ = os.Hostname()
	}
	return info
}

// Fields returns the host details in the order of uname -a: system, node,
// release, version, machine. Unknown details are omitted.
func (h HostInfo) Fields() []string {
	parts := []string{h.OS, h.Hostname, h.KernelVersion}
	if h.Platform != "" {
		parts = append(parts, strings.TrimSpace(h.Platform+" "+h.PlatformVersion))
	}
	parts = append(parts, h.Arch)

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String joins Fields with spaces.
func (h HostInfo) String() string {
	return strings.Join(h.Fields(), " ")
}

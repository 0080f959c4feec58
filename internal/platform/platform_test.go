// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestForOS(t *testing.T) {
	if _, ok := forOS("windows").(*WindowsPlatform); !ok {
		t.Error("expected WindowsPlatform for windows")
	}
	if _, ok := forOS("linux").(*UnixPlatform); !ok {
		t.Error("expected UnixPlatform for linux")
	}
	if got := forOS("darwin").DefaultSearchRoot(); got != "/" {
		t.Errorf("darwin root = %q, want /", got)
	}
}

func TestUnixPlatform_ConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := (&UnixPlatform{}).GetConfigDir(); got != filepath.Join("/tmp/xdg", "panhunt") {
		t.Errorf("unexpected config dir %q", got)
	}
}

func TestDefaultExcludedDirs(t *testing.T) {
	for _, p := range []Platform{&UnixPlatform{}, &WindowsPlatform{}} {
		if len(p.DefaultExcludedDirs()) == 0 {
			t.Errorf("%T has no default excluded dirs", p)
		}
		if p.DefaultSearchRoot() == "" {
			t.Errorf("%T has no default root", p)
		}
	}
}

func TestDescribeHost(t *testing.T) {
	info := DescribeHost(context.Background())
	if info.OS != runtime.GOOS {
		t.Errorf("expected OS %s, got %s", runtime.GOOS, info.OS)
	}
	if info.Arch == "" {
		t.Error("arch should never be empty")
	}
	if !strings.HasPrefix(info.String(), runtime.GOOS) {
		t.Errorf("String() should start with the OS: %q", info.String())
	}
}

func TestHostInfo_StringSkipsBlanks(t *testing.T) {
	h := HostInfo{OS: "linux", Hostname: "scanner01", Arch: "x86_64"}
	if got := h.String(); got != "linux scanner01 x86_64" {
		t.Errorf("String() = %q", got)
	}
}

func TestFileTimes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	accessed, created := FileTimes(info)
	if accessed.IsZero() || created.IsZero() {
		t.Error("times must be populated")
	}
	if time.Since(created) > time.Hour {
		t.Errorf("created time %v is not recent", created)
	}
}

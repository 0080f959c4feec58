// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"errors"
	"strings"
	"testing"
	"time"

	"panhunt/internal/core"
	"panhunt/internal/detector"
	"panhunt/internal/formatters"
	"panhunt/internal/inventory"
	"panhunt/internal/platform"
	"panhunt/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var modified = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

func sampleResult() *core.ScanResult {
	a := inventory.NewScanItem("/data/a.txt", router.CategoryText)
	a.Size = 19
	a.Modified = modified
	a.AddMatches(
		detector.Match{Path: a.Path, Brand: "Visa", PAN: "4111-1111-1111-1111"},
		detector.Match{Path: a.Path, Brand: "Mastercard", PAN: "5555555555554444"},
	)
	zipped := inventory.NewScanItem("/data/b.zip", router.CategoryArchive)
	zipped.Size = 1536
	zipped.Modified = modified
	zipped.AddMatches(detector.Match{Path: zipped.Path, SubPath: "b.zip/cards.csv", Brand: "AMEX", PAN: "378282246310005"})

	db := inventory.NewScanItem("/data/db.accdb", router.CategoryOther)
	db.Size = 3 * 1024 * 1024
	db.Modified = modified

	broken := inventory.NewScanItem("/data/broken.zip", router.CategoryArchive)
	broken.Modified = modified
	broken.AddError(errors.New("corrupt container: not a zip archive"))

	return &core.ScanResult{
		Root:       "/data",
		Considered: 4,
		Searched:   2,
		MatchCount: 3,
		Matched:    []*inventory.ScanItem{a, zipped},
		Other:      []*inventory.ScanItem{db},
		Failed:     []*inventory.ScanItem{broken},
	}
}

func sampleContext() formatters.ScanContext {
	return formatters.ScanContext{
		RunID:        "run-1",
		Root:         "/data",
		ExcludedDirs: []string{"/data/tmp", "/data/cache"},
		Command:      "panhunt scan -s /data",
		Host:         platform.HostInfo{OS: "linux", Hostname: "scanner01", Arch: "x86_64"},
		Started:      time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC),
	}
}

func TestFormat_Layout(t *testing.T) {
	out, err := NewFormatter().Format(sampleContext(), sampleResult(), formatters.FormatterOptions{})
	require.NoError(t, err)

	rule := strings.Repeat("=", 100)
	want := strings.Join([]string{
		"PAN Hunt Report - 13:04:05 01/05/2024",
		rule,
		"Searched /data",
		"Excluded /data/tmp,/data/cache",
		"Command: panhunt scan -s /data",
		"Uname: linux | scanner01 | x86_64",
		"Run ID: run-1",
		"Searched 2 files. Found 3 possible PANs.",
		rule,
		"",
		"FOUND PANs: /data/a.txt (19.0 bytes 09/03/2024)",
		"\t Visa:4111-1111-1111-1111",
		"\t Mastercard:5555555555554444",
		"",
		"FOUND PANs: /data/b.zip (1.5 KB 09/03/2024)",
		"\tb.zip/cards.csv AMEX:378282246310005",
		"",
		"Interesting Files to check separately:",
		"/data/db.accdb (3.0 MB 09/03/2024)",
		"",
		"Files that could not be fully searched:",
		"/data/broken.zip (0.0 bytes 09/03/2024)",
		"\tcorrupt container: not a zip archive",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestFormat_Masked(t *testing.T) {
	out, err := NewFormatter().Format(sampleContext(), sampleResult(), formatters.FormatterOptions{Mask: true})
	require.NoError(t, err)

	assert.Contains(t, out, "Visa:****-****-****-1111")
	assert.Contains(t, out, "AMEX:***********0005")
	assert.NotContains(t, out, "4111-1111-1111-1111")
}

func TestFormat_EmptyAndInterrupted(t *testing.T) {
	result := &core.ScanResult{Root: "/empty", Interrupted: true}
	out, err := NewFormatter().Format(formatters.ScanContext{}, result, formatters.FormatterOptions{})
	require.NoError(t, err)

	assert.Contains(t, out, "Searched /empty\n")
	assert.Contains(t, out, "Scan interrupted, results are partial.")
	assert.True(t, strings.HasSuffix(out, "Found 0 possible PANs.\n"+strings.Repeat("=", 100)))
	assert.NotContains(t, out, "Interesting Files")
}

func TestFormat_NilResult(t *testing.T) {
	_, err := NewFormatter().Format(formatters.ScanContext{}, nil, formatters.FormatterOptions{})
	assert.Error(t, err)
}

func TestRegistered(t *testing.T) {
	f, ok := formatters.Get("text")
	require.True(t, ok)
	assert.Equal(t, ".txt", f.FileExtension())
}

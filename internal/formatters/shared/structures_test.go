// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"testing"
	"time"

	"panhunt/internal/core"
	"panhunt/internal/detector"
	"panhunt/internal/formatters"
	"panhunt/internal/inventory"
	"panhunt/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendlySize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0.0 bytes"},
		{19, "19.0 bytes"},
		{1023, "1023.0 bytes"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 << 30, "3.0 GB"},
		{2 << 40, "2.0 TB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FriendlySize(tt.size), "size %d", tt.size)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "09/03/2024", FormatDate(time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)))
	assert.Empty(t, FormatDate(time.Time{}))
}

func TestBuildDocument(t *testing.T) {
	item := inventory.NewScanItem("/data/a.txt", router.CategoryText)
	item.AddMatches(detector.Match{Path: item.Path, Brand: "Visa", PAN: "4111111111111111"})
	other := inventory.NewScanItem("/data/x.mdb", router.CategoryOther)
	result := &core.ScanResult{
		Root:       "/data",
		Searched:   1,
		MatchCount: 1,
		Matched:    []*inventory.ScanItem{item},
		Other:      []*inventory.ScanItem{other},
		Skipped:    []inventory.SkippedPath{{Path: "/data/locked", Reason: "permission denied"}},
	}

	doc := BuildDocument(formatters.ScanContext{RunID: "r"}, result, formatters.FormatterOptions{Mask: true})
	assert.Equal(t, "/data", doc.Root)
	assert.Equal(t, []string{}, doc.ExcludedDirs)
	require.Len(t, doc.Matched, 1)
	assert.Equal(t, "TEXT", doc.Matched[0].Category)
	assert.Equal(t, []MatchEntry{{Brand: "Visa", PAN: "************1111"}}, doc.Matched[0].Matches)
	require.Len(t, doc.Other, 1)
	assert.Empty(t, doc.Other[0].Matches)
	assert.Empty(t, doc.Failed)
	assert.Equal(t, []SkipEntry{{Path: "/data/locked", Reason: "permission denied"}}, doc.Skipped)
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"panhunt/internal/inventory"
	"panhunt/internal/resilience"
	"panhunt/internal/router"
	"panhunt/internal/validators/creditcard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	visaPAN       = "4111 1111 1111 1111"
	mastercardPAN = "5555555555554444"
)

func newTestManager(limits ResourceLimits) *Manager {
	return DefaultManager(creditcard.NewValidator(nil, nil), router.DefaultExtensionTable(), limits, nil)
}

type zipEntry struct {
	header *zip.FileHeader
	data   []byte
}

func entry(name, data string) zipEntry {
	return zipEntry{header: &zip.FileHeader{Name: name, Method: zip.Deflate}, data: []byte(data)}
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(e.header)
		require.NoError(t, err)
		_, err = w.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// writeItem stores data under dir/name and returns a classified scan item.
func writeItem(t *testing.T, name string, data []byte) *inventory.ScanItem {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	cat := router.DefaultExtensionTable().ClassifyPath(name)
	return inventory.NewScanItem(path, cat)
}

func subPaths(item *inventory.ScanItem) []string {
	out := make([]string, 0, len(item.Matches))
	for _, m := range item.Matches {
		out = append(out, m.SubPath)
	}
	return out
}

func TestManager_PlainText(t *testing.T) {
	item := writeItem(t, "a.txt", []byte("order ref "+visaPAN+" paid"))

	err := newTestManager(ResourceLimits{}).ProcessItem(context.Background(), item)
	require.NoError(t, err)
	require.Len(t, item.Matches, 1)
	assert.Equal(t, visaPAN, item.Matches[0].PAN)
	assert.Equal(t, creditcard.BrandVisa, item.Matches[0].Brand)
	assert.Equal(t, "", item.Matches[0].SubPath)
	assert.Equal(t, item.Path, item.Matches[0].Path)
	assert.False(t, item.HasErrors())
}

func TestManager_NestedZip(t *testing.T) {
	inner := buildZip(t, entry("file.txt", "pan="+mastercardPAN))
	outer := buildZip(t,
		entry("readme.txt", "nothing to see"),
		zipEntry{header: &zip.FileHeader{Name: "inner.zip", Method: zip.Store}, data: inner},
	)
	item := writeItem(t, "outer.zip", outer)

	err := newTestManager(ResourceLimits{}).ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer.zip/inner.zip/file.txt"}, subPaths(item))
	assert.Equal(t, creditcard.BrandMastercard, item.Matches[0].Brand)
	assert.False(t, item.HasErrors())
}

func TestManager_ZipEntryDirectoriesAndSkippedTypes(t *testing.T) {
	data := buildZip(t,
		entry("docs/", ""),
		entry("docs/cards.csv", visaPAN),
		entry("tool.exe", visaPAN),
		entry("photo.png", visaPAN),
	)
	item := writeItem(t, "bundle.zip", data)

	err := newTestManager(ResourceLimits{}).ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, []string{"bundle.zip/docs/cards.csv"}, subPaths(item))
	assert.False(t, item.HasErrors())
}

func TestManager_NotAZip(t *testing.T) {
	item := writeItem(t, "bad.zip", []byte("this is not an archive"))

	err := newTestManager(ResourceLimits{}).ProcessItem(context.Background(), item)
	require.Error(t, err)
	assert.True(t, resilience.IsType(err, resilience.ErrorTypeCorruptContainer))
	require.Len(t, item.Errors, 1)
	assert.True(t, resilience.IsType(item.Errors[0], resilience.ErrorTypeCorruptContainer))
}

func TestManager_EncryptedEntry(t *testing.T) {
	data := buildZip(t,
		zipEntry{header: &zip.FileHeader{Name: "secret.txt", Method: zip.Store, Flags: 0x1}, data: []byte("xx")},
		entry("open.txt", visaPAN),
	)
	item := writeItem(t, "mixed.zip", data)

	err := newTestManager(ResourceLimits{}).ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, []string{"mixed.zip/open.txt"}, subPaths(item))
	require.Len(t, item.Errors, 1)
	assert.True(t, resilience.IsType(item.Errors[0], resilience.ErrorTypePasswordProtected))
	assert.Contains(t, item.Errors[0].Error(), "mixed.zip/secret.txt")
	assert.Contains(t, item.Errors[0].Error(), "PasswordProtectedOrUnreadableEntry")
}

func TestManager_EntrySizeLimit(t *testing.T) {
	data := buildZip(t,
		entry("big.txt", string(bytes.Repeat([]byte("9"), 100))),
		entry("small.txt", visaPAN),
	)
	item := writeItem(t, "sizes.zip", data)

	err := newTestManager(ResourceLimits{MaxEntryBytes: 50}).ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, []string{"sizes.zip/small.txt"}, subPaths(item))
	require.Len(t, item.Errors, 1)
	assert.True(t, resilience.IsType(item.Errors[0], resilience.ErrorTypeOversizeSkipped))
}

func TestManager_ArchiveBudget(t *testing.T) {
	data := buildZip(t,
		entry("a.txt", string(bytes.Repeat([]byte("a"), 60))),
		entry("b.txt", string(bytes.Repeat([]byte("b"), 60))),
	)
	item := writeItem(t, "budget.zip", data)

	err := newTestManager(ResourceLimits{MaxArchiveBytes: 100}).ProcessItem(context.Background(), item)
	require.Error(t, err)
	assert.True(t, resilience.IsType(err, resilience.ErrorTypeCorruptContainer))
}

func TestManager_DepthCap(t *testing.T) {
	level3 := buildZip(t, entry("deep.txt", visaPAN))
	level2 := buildZip(t, zipEntry{header: &zip.FileHeader{Name: "l3.zip"}, data: level3})
	level1 := buildZip(t, zipEntry{header: &zip.FileHeader{Name: "l2.zip"}, data: level2})
	item := writeItem(t, "l1.zip", level1)

	err := newTestManager(ResourceLimits{MaxDepth: 1}).ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.Empty(t, item.Matches)
	require.Len(t, item.Errors, 1)
	assert.True(t, resilience.IsType(item.Errors[0], resilience.ErrorTypeCorruptContainer))
	assert.Contains(t, item.Errors[0].Error(), "l1.zip/l2.zip/l3.zip")
}

func TestManager_CP437EntryName(t *testing.T) {
	name := string([]byte{0x82, 't', 'a', '.', 't', 'x', 't'})
	data := buildZip(t, zipEntry{
		header: &zip.FileHeader{Name: name, NonUTF8: true},
		data:   []byte(visaPAN),
	})
	item := writeItem(t, "names.zip", data)

	require.NoError(t, newTestManager(ResourceLimits{}).ProcessItem(context.Background(), item))
	assert.Equal(t, []string{"names.zip/éta.txt"}, subPaths(item))
}

type panicking struct{}

func (panicking) GetName() string           { return "panicking" }
func (panicking) Category() router.Category { return router.CategoryText }
func (panicking) Process(context.Context, *Scope, Input) error {
	panic("boom")
}

func TestManager_RecoversPanics(t *testing.T) {
	item := writeItem(t, "a.txt", []byte(visaPAN))
	m := newTestManager(ResourceLimits{})
	m.Register(panicking{})

	err := m.ProcessItem(context.Background(), item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, item.HasErrors())
}

func TestManager_Cancelled(t *testing.T) {
	item := writeItem(t, "a.txt", []byte(visaPAN))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestManager(ResourceLimits{}).ProcessItem(ctx, item)
	require.Error(t, err)
	assert.True(t, resilience.IsType(err, resilience.ErrorTypeCancelled))
	assert.Empty(t, item.Matches)
}

func TestManager_UnregisteredCategory(t *testing.T) {
	item := writeItem(t, "db.accdb", []byte(visaPAN))

	err := newTestManager(ResourceLimits{}).ProcessItem(context.Background(), item)
	assert.NoError(t, err)
	assert.Empty(t, item.Matches)
}

func TestResourceLimits_Defaults(t *testing.T) {
	l := ResourceLimits{MaxDepth: 3}.withDefaults()
	def := DefaultResourceLimits()
	assert.Equal(t, 3, l.MaxDepth)
	assert.Equal(t, def.MaxEntryBytes, l.MaxEntryBytes)
	assert.Equal(t, def.MaxArchiveBytes, l.MaxArchiveBytes)
}

func TestReadBounded(t *testing.T) {
	data, err := readBounded(bytes.NewReader([]byte("12345")), 5)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(data))

	_, err = readBounded(bytes.NewReader([]byte("123456")), 5)
	var tooLarge *errEntryTooLarge
	assert.ErrorAs(t, err, &tooLarge)

	data, err = readBounded(bytes.NewReader([]byte("123456")), 0)
	require.NoError(t, err)
	assert.Len(t, data, 6)
}

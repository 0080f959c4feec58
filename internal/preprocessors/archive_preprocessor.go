// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"panhunt/internal/detector"
	"panhunt/internal/resilience"
	"panhunt/internal/router"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding/charmap"
)

// ArchivePreprocessor opens zip based containers and dispatches every
// entry whose extension maps to a searchable category.
type ArchivePreprocessor struct {
	name string
}

// NewArchivePreprocessor creates the recursive zip strategy.
func NewArchivePreprocessor() *ArchivePreprocessor {
	return &ArchivePreprocessor{name: "Archive Preprocessor"}
}

// GetName returns the name of this preprocessor
func (ap *ArchivePreprocessor) GetName() string {
	return ap.name
}

// Category returns the category this preprocessor handles
func (ap *ArchivePreprocessor) Category() router.Category {
	return router.CategoryArchive
}

// Process walks the entries of the archive in central directory order.
// Entries that cannot be read are recorded and skipped; only an input
// that is not a readable zip at all fails the archive.
func (ap *ArchivePreprocessor) Process(ctx context.Context, scope *Scope, in Input) error {
	ra, size, closer, err := in.readerAt()
	if err != nil {
		return resilience.ClassifyError(err)
	}
	defer closer.Close()

	head := make([]byte, sniffLen)
	n, err := ra.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return resilience.NewCorruptContainer("cannot read archive header", err)
	}
	if !filetype.Is(head[:n], "zip") {
		return resilience.NewCorruptContainer("not a zip archive", nil)
	}

	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return resilience.NewCorruptContainer("cannot open zip archive", err)
	}

	base := scope.Base(in)
	limits := scope.Limits()
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			continue
		}

		name := entryName(f)
		cat := scope.Classify(name)
		if !cat.IsDocument() {
			scope.trace("entry skipped: " + name)
			continue
		}

		child := scope.Child(detector.JoinSubPath(base, name))
		data, err := readEntry(f, limits.MaxEntryBytes)
		if err != nil {
			child.Record(err)
			continue
		}
		if !scope.budget.consume(int64(len(data))) {
			return resilience.NewCorruptContainer(
				fmt.Sprintf("decompressed content exceeds %d bytes", limits.MaxArchiveBytes), nil)
		}

		// Failures are recorded on the item by Dispatch.
		_ = child.Dispatch(ctx, cat, Input{Name: lastSegment(name), Data: data})
	}
	return nil
}

// readEntry returns the decompressed content of f, bounded by limit.
func readEntry(f *zip.File, limit int64) ([]byte, error) {
	if f.Flags&0x1 != 0 {
		return nil, resilience.NewPasswordProtected("encrypted entry", nil)
	}
	if limit > 0 && f.UncompressedSize64 > uint64(limit) {
		return nil, resilience.NewOversizeSkipped(int64(f.UncompressedSize64), limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, resilience.NewPasswordProtected("cannot open entry", err)
	}
	defer rc.Close()

	data, err := readBounded(rc, limit)
	if err != nil {
		var tooLarge *errEntryTooLarge
		if errors.As(err, &tooLarge) {
			return nil, resilience.NewOversizeSkipped(limit+1, limit)
		}
		return nil, resilience.NewPasswordProtected("cannot read entry", err)
	}
	return data, nil
}

// entryName returns the entry name with forward slashes. Names stored
// without the UTF-8 flag are decoded as code page 437.
func entryName(f *zip.File) string {
	name := f.Name
	if f.NonUTF8 {
		if decoded, err := charmap.CodePage437.NewDecoder().String(name); err == nil {
			name = decoded
		}
	}
	return strings.Trim(strings.ReplaceAll(name, "\\", "/"), "/")
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

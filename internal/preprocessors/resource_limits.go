// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// ResourceLimits bound the work done for a single top-level item.
type ResourceLimits struct {
	MaxDepth        int           // Maximum container nesting below the top-level item
	MaxEntryBytes   int64         // Maximum decompressed size of one nested entry
	MaxArchiveBytes int64         // Maximum decompressed bytes read per top-level item
	ItemTimeout     time.Duration // Processing time per top-level item, zero for none
}

// DefaultResourceLimits returns the limits used when none are configured.
func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{
		MaxDepth:        8,
		MaxEntryBytes:   256 * 1024 * 1024,  // 256MB
		MaxArchiveBytes: 2048 * 1024 * 1024, // 2GB
	}
}

// withDefaults fills zero fields from DefaultResourceLimits.
func (l ResourceLimits) withDefaults() ResourceLimits {
	def := DefaultResourceLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = def.MaxDepth
	}
	if l.MaxEntryBytes <= 0 {
		l.MaxEntryBytes = def.MaxEntryBytes
	}
	if l.MaxArchiveBytes <= 0 {
		l.MaxArchiveBytes = def.MaxArchiveBytes
	}
	return l
}

// byteBudget counts decompressed bytes for one top-level item.
type byteBudget struct {
	limit int64
	used  atomic.Int64
}

func newByteBudget(limit int64) *byteBudget {
	return &byteBudget{limit: limit}
}

// consume charges n bytes and reports whether the budget still holds.
func (b *byteBudget) consume(n int64) bool {
	if b == nil || b.limit <= 0 {
		return true
	}
	return b.used.Add(n) <= b.limit
}

func (b *byteBudget) Used() int64 {
	if b == nil {
		return 0
	}
	return b.used.Load()
}

// errEntryTooLarge is returned by readBounded when the input exceeds its limit.
type errEntryTooLarge struct {
	Limit int64
}

func (e *errEntryTooLarge) Error() string {
	return fmt.Sprintf("entry exceeds %d bytes", e.Limit)
}

// readBounded reads r fully, failing once more than limit bytes are seen.
// A limit of zero or less reads without bound.
func readBounded(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, &errEntryTooLarge{Limit: limit}
	}
	return data, nil
}

// ProcessingError describes a strategy that failed abnormally on an input.
type ProcessingError struct {
	FilePath string
	Strategy string
	Reason   string
	Err      error
}

// Error implements the error interface
func (pe *ProcessingError) Error() string {
	if pe.Err != nil {
		return fmt.Sprintf("processing failed for %s (%s): %s - %v",
			pe.FilePath, pe.Strategy, pe.Reason, pe.Err)
	}
	return fmt.Sprintf("processing failed for %s (%s): %s",
		pe.FilePath, pe.Strategy, pe.Reason)
}

// Unwrap returns the underlying error
func (pe *ProcessingError) Unwrap() error {
	return pe.Err
}

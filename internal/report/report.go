// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package report renders scan results and seals them so later edits can be
// detected.
package report

import (
	"context"
	"fmt"
	"os"
	"time"

	"panhunt/internal/core"
	"panhunt/internal/formatters"
	"panhunt/internal/formatters/shared"
	"panhunt/internal/platform"
	"panhunt/internal/security"

	"github.com/google/uuid"
)

// DefaultFormat is the formatter used when none is configured.
const DefaultFormat = "text"

// ScanContext describes the run being reported.
type ScanContext = formatters.ScanContext

// NewScanContext fills a context for a run started now on this host.
func NewScanContext(ctx context.Context, root string, excludedDirs []string, command string) ScanContext {
	return ScanContext{
		RunID:        uuid.NewString(),
		Root:         root,
		ExcludedDirs: excludedDirs,
		Command:      command,
		Host:         platform.DescribeHost(ctx),
		Started:      time.Now(),
	}
}

// Report is a rendered body and the seal computed over it.
type Report struct {
	Body   string
	Hash   string
	Format string
}

// String returns the sealed document: the body, a newline, then the hash.
func (r *Report) String() string {
	return r.Body + "\n" + r.Hash
}

// RenderAndSeal renders result with the named formatter and seals the
// body. A nil or empty key selects the plain sha512 seal.
func RenderAndSeal(sc ScanContext, result *core.ScanResult, format string, mask bool, key *security.SealKey) (*Report, error) {
	if format == "" {
		format = DefaultFormat
	}
	body, err := formatters.Export(format, sc, result, formatters.FormatterOptions{Mask: mask})
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return &Report{
		Body:   body,
		Hash:   security.ComputeHash(body, key.Bytes()),
		Format: format,
	}, nil
}

// Verification is the outcome of checking a sealed report.
type Verification struct {
	OK       bool
	Stored   string
	Computed string
}

// Verify reads a sealed report and recomputes its seal.
func Verify(path string, key *security.SealKey) (*Verification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}
	ok, stored, computed := security.VerifySealed(string(data), key.Bytes())
	return &Verification{OK: ok, Stored: stored, Computed: computed}, nil
}

// VerifyReport reports whether the seal of the report at path matches its
// body. Only a report that cannot be read is an error.
func VerifyReport(path string, key *security.SealKey) (bool, error) {
	v, err := Verify(path, key)
	if err != nil {
		return false, err
	}
	return v.OK, nil
}

// FriendlySize renders a byte count the way the report does.
func FriendlySize(size int64) string {
	return shared.FriendlySize(size)
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"encoding/csv"
	"fmt"
	"strings"

	"panhunt/internal/core"
	"panhunt/internal/formatters"
	"panhunt/internal/formatters/shared"
)

// Formatter implements CSV output formatting. Each PAN is one row; files
// that need a manual check are listed with an empty brand.
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated values for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

var headers = []string{"Path", "Sub Path", "Brand", "PAN", "Size", "Modified", "Status"}

func (f *Formatter) Format(sc formatters.ScanContext, result *core.ScanResult, options formatters.FormatterOptions) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no scan result to format")
	}
	doc := shared.BuildDocument(sc, result, options)

	var b strings.Builder
	w := csv.NewWriter(&b)
	rows := [][]string{headers}
	for _, file := range doc.Matched {
		for _, m := range file.Matches {
			rows = append(rows, row(file, m.SubPath, m.Brand, m.PAN, "found"))
		}
	}
	for _, file := range doc.Other {
		rows = append(rows, row(file, "", "", "", "check separately"))
	}
	for _, file := range doc.Failed {
		rows = append(rows, row(file, "", "", "", "error: "+strings.Join(file.Errors, "; ")))
	}
	for _, r := range rows {
		if err := w.Write(sanitizeRow(r)); err != nil {
			return "", fmt.Errorf("error formatting CSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("error formatting CSV: %w", err)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func row(file shared.FileEntry, subPath, brand, pan, status string) []string {
	return []string{file.Path, subPath, brand, pan, fmt.Sprintf("%d", file.Size), file.Modified, status}
}

func sanitizeRow(r []string) []string {
	out := make([]string, len(r))
	for i, field := range r {
		out[i] = sanitizeFormulaInjection(field)
	}
	return out
}

// sanitizeFormulaInjection prefixes fields a spreadsheet would evaluate as
// a formula with a single quote.
func sanitizeFormulaInjection(field string) string {
	if len(field) == 0 {
		return field
	}
	switch field[0] {
	case '=', '+', '-', '@':
		return "'" + field
	}
	return field
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}

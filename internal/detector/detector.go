// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"strings"
)

// Match represents a validated card number found inside a scanned item.
// Matches are only created by the card detector after the candidate passed
// the Luhn check and was not excluded.
type Match struct {
	Path    string `json:"path" yaml:"path"`         // Filesystem path of the outermost file
	SubPath string `json:"sub_path" yaml:"sub_path"` // Logical location inside nested containers
	Brand   string `json:"brand" yaml:"brand"`
	PAN     string `json:"-" yaml:"-"` // Raw captured string, separators included
}

// Masked returns the PAN with every digit except the last four replaced by '*'.
func (m Match) Masked() string {
	return MaskPAN(m.PAN)
}

// Display returns the PAN as it should appear in a report.
func (m Match) Display(mask bool) string {
	if mask {
		return m.Masked()
	}
	return m.PAN
}

// DigitsOnly strips every non-digit rune from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// MaskPAN replaces all but the final four digits of pan with '*'.
// Non-digit separators are kept in place.
func MaskPAN(pan string) string {
	keep := 4
	out := []byte(pan)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < '0' || out[i] > '9' {
			continue
		}
		if keep > 0 {
			keep--
			continue
		}
		out[i] = '*'
	}
	return string(out)
}

// JoinSubPath appends segments to a slash separated logical path.
func JoinSubPath(base string, segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	if base != "" {
		parts = append(parts, base)
	}
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

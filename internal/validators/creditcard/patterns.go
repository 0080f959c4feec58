// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package creditcard

import (
	"fmt"
	"regexp"
)

// Brand labels used in reports.
const (
	BrandMastercard = "Mastercard"
	BrandVisa       = "Visa"
	BrandAMEX       = "AMEX"
)

// BrandPattern pairs a brand label with the expression that finds its
// card numbers. The first capture group must hold the candidate PAN.
type BrandPattern struct {
	Name  string
	Regex *regexp.Regexp
}

// Groups may be separated by a single space or hyphen. The surrounding
// non-digit guards keep a candidate from being a fragment of a longer run.
const (
	mastercardPattern = `(?:\D|^)(5[1-5][0-9]{2}[ -]?[0-9]{4}[ -]?[0-9]{4}[ -]?[0-9]{4})(?:\D|$)`
	visaPattern       = `(?:\D|^)(4[0-9]{3}[ -]?[0-9]{4}[ -]?[0-9]{4}[ -]?[0-9]{4})(?:\D|$)`
	amexPattern       = `(?:\D|^)((?:34|37)[0-9]{2}[ -]?[0-9]{6}[ -]?[0-9]{5})(?:\D|$)`
)

var defaultPatterns = []BrandPattern{
	{Name: BrandMastercard, Regex: regexp.MustCompile(mastercardPattern)},
	{Name: BrandVisa, Regex: regexp.MustCompile(visaPattern)},
	{Name: BrandAMEX, Regex: regexp.MustCompile(amexPattern)},
}

// DefaultPatterns returns the built-in brands in evaluation order:
// Mastercard, Visa, AMEX.
func DefaultPatterns() []BrandPattern {
	out := make([]BrandPattern, len(defaultPatterns))
	copy(out, defaultPatterns)
	return out
}

// CompilePattern builds a BrandPattern from a user supplied expression.
func CompilePattern(name, expr string) (BrandPattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return BrandPattern{}, fmt.Errorf("invalid pattern for %s: %w", name, err)
	}
	if re.NumSubexp() < 1 {
		return BrandPattern{}, fmt.Errorf("pattern for %s has no capture group", name)
	}
	return BrandPattern{Name: name, Regex: re}, nil
}

// findAll returns the first capture group of every non-overlapping match,
// left to right. Each search resumes right after the captured group, so a
// separator between two adjacent numbers serves as the trailing guard of
// the first and the leading guard of the second.
func findAll(re *regexp.Regexp, text string) []string {
	var out []string
	pos := 0
	for pos < len(text) {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil || len(loc) < 4 || loc[2] < 0 {
			break
		}
		out = append(out, text[pos+loc[2]:pos+loc[3]])
		next := pos + loc[3]
		if next <= pos {
			next = pos + 1
		}
		pos = next
	}
	return out
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package creditcard

import (
	"panhunt/internal/detector"
	"panhunt/internal/observability"
	"panhunt/internal/suppressions"
)

// Validator finds card numbers in extracted text using a fixed set of
// brand patterns and an exclusion set. It holds no per-scan state and is
// safe for concurrent use.
type Validator struct {
	patterns   []BrandPattern
	exclusions *suppressions.ExclusionSet

	// Observability
	observer *observability.StandardObserver
}

// NewValidator creates a validator. A nil pattern list selects DefaultPatterns.
func NewValidator(patterns []BrandPattern, exclusions *suppressions.ExclusionSet) *Validator {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &Validator{
		patterns:   patterns,
		exclusions: exclusions,
	}
}

// SetObserver sets the observability component
func (v *Validator) SetObserver(observer *observability.StandardObserver) {
	v.observer = observer
}

// Patterns returns the configured brand patterns in evaluation order.
func (v *Validator) Patterns() []BrandPattern {
	return v.patterns
}

// ValidateContent runs Detect over content and attributes the results to
// the given file and sub-path.
func (v *Validator) ValidateContent(content, path, subPath string) []detector.Match {
	var finishTiming func(bool, map[string]interface{})
	if v.observer != nil {
		finishTiming = v.observer.StartTiming("creditcard_validator", "validate_content", path)
	}

	matches := Detect(content, v.patterns, v.exclusions)
	for i := range matches {
		matches[i].Path = path
		matches[i].SubPath = subPath
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"sub_path":       subPath,
			"content_length": len(content),
			"match_count":    len(matches),
		})
	}
	return matches
}

// Detect returns every candidate in text that passes the Luhn check and is
// not excluded. Results are ordered by brand in the order given, then by
// position within text.
func Detect(text string, patterns []BrandPattern, exclusions *suppressions.ExclusionSet) []detector.Match {
	var matches []detector.Match
	for _, p := range patterns {
		for _, candidate := range findAll(p.Regex, text) {
			if !IsValidLuhn(candidate) {
				continue
			}
			if exclusions.Contains(candidate) {
				continue
			}
			matches = append(matches, detector.Match{
				Brand: p.Name,
				PAN:   candidate,
			})
		}
	}
	return matches
}

// IsValidLuhn strips non-digits from candidate and applies the Luhn
// checksum. A candidate without digits is invalid.
func IsValidLuhn(candidate string) bool {
	number := detector.DigitsOnly(candidate)
	if number == "" {
		return false
	}
	return luhnCheck(number)
}

func luhnCheck(number string) bool {
	sum := 0
	isDouble := false

	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')

		if isDouble {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}

		sum += digit
		isDouble = !isDouble
	}

	return sum%10 == 0
}

// Mask replaces every digit of pan except the last four with '*'.
func Mask(pan string) string {
	return detector.MaskPAN(pan)
}

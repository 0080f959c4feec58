// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package creditcard

import (
	"testing"

	"panhunt/internal/detector"
	"panhunt/internal/suppressions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidLuhn(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"visa test number", "4111111111111111", true},
		{"visa off by one", "4111111111111112", false},
		{"empty", "", false},
		{"separators only", "- -", false},
		{"single zero", "0", true},
		{"doubled nine sums digits", "91", true},
		{"hyphenated", "4111-1111-1111-1111", true},
		{"amex", "378282246310005", true},
		{"mastercard", "5555555555554444", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidLuhn(tt.candidate); got != tt.want {
				t.Errorf("IsValidLuhn(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
			if IsValidLuhn(tt.candidate) != IsValidLuhn(tt.candidate) {
				t.Error("IsValidLuhn must be deterministic")
			}
		})
	}
}

func TestMask(t *testing.T) {
	assert.Equal(t, "************1111", Mask("4111111111111111"))
	assert.Equal(t, "****-****-****-1111", Mask("4111-1111-1111-1111"))
	assert.Equal(t, "***********0005", Mask("378282246310005"))
	assert.Equal(t, "123", Mask("123"))
}

func TestDetect_Brands(t *testing.T) {
	text := "visa 4111111111111111, mc 5555 5555 5555 4444 and amex 3782-822463-10005."
	matches := Detect(text, DefaultPatterns(), nil)

	require.Len(t, matches, 3)
	assert.Equal(t, BrandMastercard, matches[0].Brand)
	assert.Equal(t, "5555 5555 5555 4444", matches[0].PAN)
	assert.Equal(t, BrandVisa, matches[1].Brand)
	assert.Equal(t, "4111111111111111", matches[1].PAN)
	assert.Equal(t, BrandAMEX, matches[2].Brand)
	assert.Equal(t, "3782-822463-10005", matches[2].PAN)
}

func TestDetect_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"start and end of text", "4111111111111111", []string{"4111111111111111"}},
		{"embedded in longer run", "941111111111111111", nil},
		{"trailing digit", "41111111111111110", nil},
		{"letters as guards", "card4111111111111111end", []string{"4111111111111111"}},
		{"adjacent numbers share separator", "4111111111111111 4012888888881881", []string{"4111111111111111", "4012888888881881"}},
		{"fails luhn", "4111111111111112", nil},
		{"mixed separators", "4111 1111-1111 1111", []string{"4111 1111-1111 1111"}},
		{"double separator", "4111  1111 1111 1111", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range Detect(tt.text, DefaultPatterns(), nil) {
				got = append(got, m.PAN)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_Exclusions(t *testing.T) {
	exclusions := suppressions.NewExclusionSet("4111111111111111")
	text := "4111-1111-1111-1111 4012888888881881"

	matches := Detect(text, DefaultPatterns(), exclusions)
	require.Len(t, matches, 1)
	assert.Equal(t, "4012888888881881", matches[0].PAN)
}

func TestDetect_Idempotent(t *testing.T) {
	text := "a 5105105105105100 b 4012888888881881 c 371449635398431 d 4111111111111111"
	first := Detect(text, DefaultPatterns(), nil)
	second := Detect(text, DefaultPatterns(), nil)
	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
}

func TestDetect_EveryMatchPassesLuhn(t *testing.T) {
	text := "4111111111111111 4111111111111112 5555555555554444 5555555555554445"
	for _, m := range Detect(text, DefaultPatterns(), nil) {
		assert.True(t, IsValidLuhn(m.PAN), "match %s must pass luhn", m.PAN)
	}
}

func TestValidator_ValidateContent(t *testing.T) {
	v := NewValidator(nil, suppressions.NewExclusionSet())
	matches := v.ValidateContent("card 4111-1111-1111-1111 end", "/data/a.txt", "outer.zip/a.txt")

	require.Len(t, matches, 1)
	assert.Equal(t, detector.Match{
		Path:    "/data/a.txt",
		SubPath: "outer.zip/a.txt",
		Brand:   BrandVisa,
		PAN:     "4111-1111-1111-1111",
	}, matches[0])
	assert.Len(t, v.Patterns(), 3)
}

func TestCompilePattern(t *testing.T) {
	p, err := CompilePattern("Discover", `(?:\D|^)(6011[0-9]{12})(?:\D|$)`)
	require.NoError(t, err)

	matches := Detect("x 6011111111111117 y", []BrandPattern{p}, nil)
	require.Len(t, matches, 1)
	assert.Equal(t, "Discover", matches[0].Brand)

	_, err = CompilePattern("NoGroup", `6011[0-9]{12}`)
	assert.Error(t, err)

	_, err = CompilePattern("Broken", `(`)
	assert.Error(t, err)
}

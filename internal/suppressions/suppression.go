// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package suppressions

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"panhunt/internal/detector"

	"gopkg.in/yaml.v3"
)

// ExclusionRule is one entry of an exclusion file. A rule names either the
// literal PAN or the hex SHA-256 of it, so known test numbers can be
// suppressed without storing them in clear.
type ExclusionRule struct {
	PAN       string     `yaml:"pan,omitempty"`
	Hash      string     `yaml:"hash,omitempty"`
	Reason    string     `yaml:"reason,omitempty"`
	ExpiresAt *time.Time `yaml:"expires_at,omitempty"`
}

// ExclusionFile is the on-disk layout of an exclusion file.
type ExclusionFile struct {
	Version string          `yaml:"version"`
	PANs    []ExclusionRule `yaml:"pans"`
}

// ExclusionSet holds PAN literals that must never be reported.
// The zero value and nil are both valid empty sets.
type ExclusionSet struct {
	literals map[string]struct{}
	hashes   map[string]struct{}
}

// NewExclusionSet builds a set from literal PAN strings.
func NewExclusionSet(pans ...string) *ExclusionSet {
	s := &ExclusionSet{
		literals: make(map[string]struct{}),
		hashes:   make(map[string]struct{}),
	}
	for _, p := range pans {
		s.Add(p)
	}
	return s
}

// Add inserts a literal PAN. Blank entries are ignored.
func (s *ExclusionSet) Add(pan string) {
	pan = strings.TrimSpace(pan)
	if pan == "" {
		return
	}
	if s.literals == nil {
		s.literals = make(map[string]struct{})
	}
	s.literals[pan] = struct{}{}
}

// AddHash inserts the hex SHA-256 of a PAN digit string.
func (s *ExclusionSet) AddHash(hash string) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		return
	}
	if s.hashes == nil {
		s.hashes = make(map[string]struct{})
	}
	s.hashes[hash] = struct{}{}
}

// Contains reports whether pan is excluded, either as the raw captured
// string or as its digits-only form.
func (s *ExclusionSet) Contains(pan string) bool {
	if s == nil {
		return false
	}
	digits := detector.DigitsOnly(pan)
	if _, ok := s.literals[pan]; ok {
		return true
	}
	if _, ok := s.literals[digits]; ok {
		return true
	}
	if len(s.hashes) == 0 {
		return false
	}
	_, ok := s.hashes[HashPAN(digits)]
	return ok
}

// Len returns the number of literal and hashed entries.
func (s *ExclusionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.literals) + len(s.hashes)
}

// HashPAN returns the hex SHA-256 of the digits of pan.
func HashPAN(pan string) string {
	sum := sha256.Sum256([]byte(detector.DigitsOnly(pan)))
	return fmt.Sprintf("%x", sum)
}

// LoadExclusionFile merges the rules of a YAML exclusion file into s.
// Expired rules are skipped. A missing file is not an error.
func (s *ExclusionSet) LoadExclusionFile(path string, now time.Time) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read exclusion file: %w", err)
	}

	var file ExclusionFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse exclusion file %s: %w", path, err)
	}

	for i, rule := range file.PANs {
		if rule.ExpiresAt != nil && now.After(*rule.ExpiresAt) {
			continue
		}
		switch {
		case rule.PAN != "":
			s.Add(rule.PAN)
		case rule.Hash != "":
			s.AddHash(rule.Hash)
		default:
			return fmt.Errorf("exclusion rule %d in %s has neither pan nor hash", i+1, path)
		}
	}
	return nil
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package security

import "os"

// SealKey holds the secret used to key report seals, with best-effort
// memory scrubbing on Clear.
//
// Go's garbage collector may move or copy memory at any time, so Clear
// narrows the window of exposure but cannot guarantee no copy survives.
type SealKey struct {
	data []byte
}

// NewSealKey copies s into a mutable byte slice.
func NewSealKey(s string) *SealKey {
	data := make([]byte, len(s))
	copy(data, s)
	return &SealKey{data: data}
}

// SealKeyFromEnv reads the key from the named environment variable. An
// empty name or unset variable yields an empty key, which selects the
// plain digest.
func SealKeyFromEnv(name string) *SealKey {
	if name == "" {
		return &SealKey{}
	}
	return NewSealKey(os.Getenv(name))
}

// Bytes returns the key material. The slice is zeroed by Clear.
func (k *SealKey) Bytes() []byte {
	if k == nil {
		return nil
	}
	return k.data
}

// IsEmpty reports whether no key material is held.
func (k *SealKey) IsEmpty() bool {
	return k == nil || len(k.data) == 0
}

// Clear overwrites the key with zeros and releases it.
func (k *SealKey) Clear() {
	if k == nil || k.data == nil {
		return
	}
	for i := range k.data {
		k.data[i] = 0
	}
	k.data = nil
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package security seals report bodies so that later edits can be detected.
package security

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// sealSuffix is appended to the body before hashing.
const sealSuffix = "PAN"

// ComputeHash returns the lower-case hex seal of body. With an empty key
// it is SHA-512 over body followed by "PAN"; otherwise HMAC-SHA512 keyed
// with key over the same input.
func ComputeHash(body string, key []byte) string {
	if len(key) == 0 {
		sum := sha512.Sum512([]byte(body + sealSuffix))
		return hex.EncodeToString(sum[:])
	}
	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(body))
	mac.Write([]byte(sealSuffix))
	return hex.EncodeToString(mac.Sum(nil))
}

// Seal appends a newline and the seal of body.
func Seal(body string, key []byte) string {
	return body + "\n" + ComputeHash(body, key)
}

// Split separates a sealed document into body and stored seal at the last
// newline. Line terminators after the seal are ignored. ok is false when
// there is no newline at all.
func Split(sealed string) (body, stored string, ok bool) {
	trimmed := strings.TrimRight(sealed, "\r\n")
	i := strings.LastIndex(trimmed, "\n")
	if i < 0 {
		return "", "", false
	}
	return trimmed[:i], strings.TrimSpace(trimmed[i+1:]), true
}

// VerifySealed recomputes the seal of a sealed document and compares it to
// the stored one.
func VerifySealed(sealed string, key []byte) (ok bool, stored, computed string) {
	body, stored, found := Split(sealed)
	if !found {
		return false, "", ""
	}
	computed = ComputeHash(body, key)
	ok = subtle.ConstantTimeCompare([]byte(strings.ToLower(stored)), []byte(computed)) == 1
	return ok, stored, computed
}

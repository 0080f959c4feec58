// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"bytes"
	"context"
	"unicode/utf8"

	"panhunt/internal/resilience"
	"panhunt/internal/router"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffLen is the header size filetype needs to recognise a format.
const sniffLen = 262

// TextPreprocessor reads a whole payload as text and scans it as one unit.
// PDF documents and images with EXIF data are converted to text first.
type TextPreprocessor struct {
	name string
}

// NewTextPreprocessor creates the plain text strategy.
func NewTextPreprocessor() *TextPreprocessor {
	return &TextPreprocessor{name: "Plain Text Preprocessor"}
}

// GetName returns the name of this preprocessor
func (tp *TextPreprocessor) GetName() string {
	return tp.name
}

// Category returns the category this preprocessor handles
func (tp *TextPreprocessor) Category() router.Category {
	return router.CategoryText
}

// Process extracts and scans the text of in.
func (tp *TextPreprocessor) Process(ctx context.Context, scope *Scope, in Input) error {
	data, err := in.ReadAll()
	if err != nil {
		return resilience.ClassifyError(err)
	}

	text, err := extractText(data)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	scope.Scan(text)
	return nil
}

// extractText picks a converter by content: PDF and EXIF-bearing images are
// recognised by their magic bytes, everything else is decoded as text.
func extractText(data []byte) (string, error) {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	kind, _ := filetype.Match(head)
	switch kind.Extension {
	case "pdf":
		return extractPDFText(data)
	case "jpg", "tif":
		if text, ok := extractEXIFText(data); ok {
			return text, nil
		}
	}
	return decodeText(data)
}

// decodeText decodes data as UTF-8 or UTF-16 when a byte order mark says
// so, as UTF-8 when it is valid, and as Windows-1252 otherwise.
func decodeText(data []byte) (string, error) {
	if hasBOM(data) {
		out, _, err := transform.Bytes(unicode.BOMOverride(encoding.Nop.NewDecoder()), data)
		if err != nil {
			return "", resilience.NewUnsupportedEncoding("cannot decode unicode text", err)
		}
		return string(out), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", resilience.NewUnsupportedEncoding("cannot decode text", err)
	}
	return string(out), nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF8) ||
		bytes.HasPrefix(data, bomUTF16BE) ||
		bytes.HasPrefix(data, bomUTF16LE)
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"bytes"
	"sort"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// exifWalker collects the textual EXIF tags of an image.
type exifWalker struct {
	tags map[string]string
}

// Walk implements the exif.Walker interface
func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if tag == nil {
		return nil
	}
	switch tag.Format() {
	case tiff.StringVal:
		if s, err := tag.StringVal(); err == nil && s != "" {
			w.tags[string(name)] = s
		}
	case tiff.UndefVal:
		// UserComment and similar free-form fields
		if s := strings.Trim(string(tag.Val), "\x00 "); s != "" {
			w.tags[string(name)] = s
		}
	}
	return nil
}

// extractEXIFText renders the textual EXIF tags as "Name: value" lines,
// sorted by name. ok is false when the image carries no EXIF data.
func extractEXIFText(data []byte) (string, bool) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return "", false
	}

	walker := &exifWalker{tags: make(map[string]string)}
	if err := x.Walk(walker); err != nil {
		return "", false
	}

	names := make([]string, 0, len(walker.tags))
	for name := range walker.tags {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(walker.tags[name])
		b.WriteString("\n")
	}
	return b.String(), true
}

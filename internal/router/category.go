// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package router

// Category is the processing class of a file, derived from its extension.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryText
	CategoryArchive
	CategoryMailMessage
	CategoryMailContainer
	CategoryOther
)

// tableOrder is the order lists are applied when building a table.
// A later list wins when an extension appears twice.
var tableOrder = []Category{
	CategoryText,
	CategoryArchive,
	CategoryMailMessage,
	CategoryMailContainer,
	CategoryOther,
}

func (c Category) String() string {
	switch c {
	case CategoryText:
		return "TEXT"
	case CategoryArchive:
		return "ARCHIVE"
	case CategoryMailMessage:
		return "MAIL_MESSAGE"
	case CategoryMailContainer:
		return "MAIL_CONTAINER"
	case CategoryOther:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// MarshalText lets categories appear by name in JSON and YAML output.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// IsDocument reports whether items of this category are searched by the
// document strategies.
func (c Category) IsDocument() bool {
	return c == CategoryText || c == CategoryArchive || c == CategoryMailMessage
}

// IsScannable reports whether items of this category are ever searched.
func (c Category) IsScannable() bool {
	return c.IsDocument() || c == CategoryMailContainer
}

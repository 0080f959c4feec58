// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package mailbox defines the decoder capability used to open mail stores
// and single messages, together with the decoders that ship by default.
package mailbox

import (
	"errors"
	"io"
	"strings"

	"panhunt/internal/router"
)

// ErrNoDecoder is returned when no decoder is registered for a format.
var ErrNoDecoder = errors.New("no decoder registered for this mail format")

// Attachment is a file carried by a message.
type Attachment struct {
	Filename string
	Data     []byte
}

// Message is a decoded mail message.
type Message struct {
	Subject     string
	Body        string
	Attachments []Attachment
	Problems    []error // Parts that could not be decoded
}

// Folder is a node of a mail store.
type Folder struct {
	Name     string
	Messages []*Message
	Folders  []*Folder
	Problems []error // Messages that could not be decoded
}

// Store is a decoded mail container. Valid is false when the input did
// not have the structure of the claimed format.
type Store struct {
	Valid bool
	Root  *Folder
}

// Units returns the number of messages plus attachments in the store.
func (s *Store) Units() int {
	if s == nil || s.Root == nil {
		return 0
	}
	return s.Root.units()
}

func (f *Folder) units() int {
	n := 0
	for _, m := range f.Messages {
		n += 1 + len(m.Attachments)
	}
	for _, sub := range f.Folders {
		n += sub.units()
	}
	return n
}

// ContainerDecoder opens a mail store.
type ContainerDecoder interface {
	Format() string
	DecodeContainer(r io.Reader) (*Store, error)
}

// MessageDecoder opens a single message.
type MessageDecoder interface {
	Format() string
	DecodeMessage(r io.Reader) (*Message, error)
}

// Registry maps file extensions to decoders.
type Registry struct {
	containers map[string]ContainerDecoder
	messages   map[string]MessageDecoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		containers: make(map[string]ContainerDecoder),
		messages:   make(map[string]MessageDecoder),
	}
}

// DefaultRegistry registers the RFC 5322 message decoder for .eml and the
// mbox decoder for .mbox and .mbx.
func DefaultRegistry(opts Options) *Registry {
	r := NewRegistry()
	eml := NewEMLDecoder(opts)
	r.RegisterMessage(".eml", eml)
	mbox := NewMboxDecoder(eml)
	r.RegisterContainer(".mbox", mbox)
	r.RegisterContainer(".mbx", mbox)
	return r
}

// RegisterContainer associates ext with a container decoder.
func (r *Registry) RegisterContainer(ext string, d ContainerDecoder) {
	r.containers[router.NormalizeExtension(ext)] = d
}

// RegisterMessage associates ext with a message decoder.
func (r *Registry) RegisterMessage(ext string, d MessageDecoder) {
	r.messages[router.NormalizeExtension(ext)] = d
}

// Container returns the decoder for ext.
func (r *Registry) Container(ext string) (ContainerDecoder, error) {
	if d, ok := r.containers[router.NormalizeExtension(ext)]; ok {
		return d, nil
	}
	return nil, ErrNoDecoder
}

// Message returns the decoder for ext.
func (r *Registry) Message(ext string) (MessageDecoder, error) {
	if d, ok := r.messages[router.NormalizeExtension(ext)]; ok {
		return d, nil
	}
	return nil, ErrNoDecoder
}

// Options bound what a decoder will read.
type Options struct {
	MaxPartBytes int64 // Per body part or attachment; zero means unlimited
}

// NoSubject is used in sub-paths for messages without a subject.
const NoSubject = "[No Subject]"

// SubjectSegment returns a sub-path segment for a subject. Slashes would
// break the sub-path into extra segments, so they are replaced.
func SubjectSegment(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return NoSubject
	}
	return strings.NewReplacer("/", "_", "\\", "_", "\r", " ", "\n", " ").Replace(subject)
}

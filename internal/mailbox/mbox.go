// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mailbox

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/emersion/go-mbox"
)

var mboxSeparator = []byte("From ")

// MboxDecoder decodes mbox files into a single folder store.
type MboxDecoder struct {
	messages MessageDecoder
}

// NewMboxDecoder creates a container decoder that hands every message to
// the given message decoder.
func NewMboxDecoder(messages MessageDecoder) *MboxDecoder {
	return &MboxDecoder{messages: messages}
}

func (d *MboxDecoder) Format() string { return "mbox" }

// DecodeContainer reads every message of an mbox. Input that does not
// start with a "From " separator line is reported as an invalid store.
// A message that fails to decode is recorded on the folder and skipped.
func (d *MboxDecoder) DecodeContainer(r io.Reader) (*Store, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(mboxSeparator))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read mbox: %w", err)
	}

	root := &Folder{}
	store := &Store{Valid: true, Root: root}
	if len(head) == 0 {
		return store, nil
	}
	if !bytes.Equal(head, mboxSeparator) {
		store.Valid = false
		return store, nil
	}

	mr := mbox.NewReader(br)
	for i := 1; ; i++ {
		msgReader, err := mr.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			root.Problems = append(root.Problems, fmt.Errorf("message %d: %w", i, err))
			break
		}

		msg, err := d.messages.DecodeMessage(msgReader)
		if err != nil {
			root.Problems = append(root.Problems, fmt.Errorf("message %d: %w", i, err))
			// Drain so the reader can advance to the next separator.
			_, _ = io.Copy(io.Discard, msgReader)
			continue
		}
		root.Messages = append(root.Messages, msg)
	}
	return store, nil
}

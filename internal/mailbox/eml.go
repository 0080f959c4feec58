// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mailbox

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// EMLDecoder decodes RFC 5322 messages, including MIME multipart bodies.
type EMLDecoder struct {
	opts Options
}

// NewEMLDecoder creates a message decoder.
func NewEMLDecoder(opts Options) *EMLDecoder {
	return &EMLDecoder{opts: opts}
}

func (d *EMLDecoder) Format() string { return "rfc5322" }

// DecodeMessage reads one message. Text parts are concatenated into Body;
// parts with a file name, and embedded messages, become attachments.
func (d *EMLDecoder) DecodeMessage(r io.Reader) (*Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	defer mr.Close()

	msg := &Message{}
	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = mr.Header.Get("Subject")
	}

	var body strings.Builder
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				msg.Problems = append(msg.Problems, err)
				continue
			}
			// The parts read so far are still returned.
			msg.Problems = append(msg.Problems, fmt.Errorf("failed to read message part: %w", err))
			break
		}

		data, err := d.readPart(part.Body)
		if err != nil {
			msg.Problems = append(msg.Problems, err)
			continue
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			switch {
			case contentType == "" || strings.HasPrefix(contentType, "text/"):
				if body.Len() > 0 {
					body.WriteString("\n")
				}
				body.Write(data)
			case contentType == "message/rfc822":
				msg.Attachments = append(msg.Attachments, Attachment{Filename: "attached.eml", Data: data})
			default:
				if name := inlineFilename(h); name != "" {
					msg.Attachments = append(msg.Attachments, Attachment{Filename: name, Data: data})
				}
			}
		case *mail.AttachmentHeader:
			name, err := h.Filename()
			if err != nil || name == "" {
				name = "attachment"
				if ct, _, _ := h.ContentType(); ct == "message/rfc822" {
					name = "attached.eml"
				}
			}
			msg.Attachments = append(msg.Attachments, Attachment{Filename: name, Data: data})
		}
	}

	msg.Body = body.String()
	return msg, nil
}

func (d *EMLDecoder) readPart(r io.Reader) ([]byte, error) {
	if d.opts.MaxPartBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, d.opts.MaxPartBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > d.opts.MaxPartBytes {
		return nil, fmt.Errorf("message part exceeds %d bytes", d.opts.MaxPartBytes)
	}
	return data, nil
}

func inlineFilename(h *mail.InlineHeader) string {
	if _, params, err := h.ContentDisposition(); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	if _, params, err := h.ContentType(); err == nil {
		return params["name"]
	}
	return ""
}

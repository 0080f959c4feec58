// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"testing"

	"panhunt/internal/observability"
	"panhunt/internal/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mailMessage(subject, body, attName string, attData []byte) string {
	var b strings.Builder
	b.WriteString("From: alice@example.com\n")
	b.WriteString("Subject: " + subject + "\n")
	if attName == "" {
		b.WriteString("Content-Type: text/plain\n\n")
		b.WriteString(body + "\n")
		return b.String()
	}
	b.WriteString("MIME-Version: 1.0\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=SEP\n\n")
	b.WriteString("--SEP\nContent-Type: text/plain\n\n")
	b.WriteString(body + "\n")
	b.WriteString("--SEP\nContent-Type: application/octet-stream\n")
	b.WriteString("Content-Disposition: attachment; filename=\"" + attName + "\"\n")
	b.WriteString("Content-Transfer-Encoding: base64\n\n")
	b.WriteString(base64.StdEncoding.EncodeToString(attData) + "\n")
	b.WriteString("--SEP--\n")
	return b.String()
}

func mboxOf(messages ...string) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString("From alice@example.com Mon Jan  1 00:00:00 2024\n")
		b.WriteString(m)
		b.WriteString("\n")
	}
	return b.String()
}

func TestMailContainer_BodiesAndAttachments(t *testing.T) {
	zipped := buildZip(t, entry("inner.txt", mastercardPAN))
	box := mboxOf(
		mailMessage("Card details", "use "+visaPAN, "", nil),
		mailMessage("Export", "see attached", "cards.csv", []byte("pan,"+mastercardPAN)),
		mailMessage("", "nothing", "archive.zip", zipped),
		mailMessage("Binary", "nothing", "tool.exe", []byte(visaPAN)),
	)
	item := writeItem(t, "box.mbox", []byte(box))

	var mu sync.Mutex
	var updates []int
	m := newTestManager(ResourceLimits{})
	m.SetProgress(observability.ProgressFunc(func(stage string, done, total int, current string) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, observability.StageMailbox, stage)
		assert.Equal(t, 7, total)
		updates = append(updates, done)
	}))

	require.NoError(t, m.ProcessItem(context.Background(), item))
	assert.Equal(t, []string{
		"box.mbox/Card details",
		"box.mbox/Export/cards.csv",
		"box.mbox/[No Subject]/archive.zip/inner.txt",
	}, subPaths(item))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, updates)
	assert.False(t, item.HasErrors())
}

func TestMailContainer_Invalid(t *testing.T) {
	item := writeItem(t, "box.mbox", []byte("garbage that is not a mailbox "+visaPAN))

	err := newTestManager(ResourceLimits{}).ProcessItem(context.Background(), item)
	require.Error(t, err)
	assert.True(t, resilience.IsType(err, resilience.ErrorTypeInvalidContainer))
	assert.Empty(t, item.Matches)
}

func TestMailContainer_NoDecoder(t *testing.T) {
	item := writeItem(t, "archive.pst", []byte("!BDN"))

	err := newTestManager(ResourceLimits{}).ProcessItem(context.Background(), item)
	require.Error(t, err)
	assert.True(t, resilience.IsType(err, resilience.ErrorTypeInvalidContainer))
	assert.Contains(t, err.Error(), "no decoder registered for .pst")
}

func TestMailMessage_TopLevel(t *testing.T) {
	item := writeItem(t, "note.eml", []byte(mailMessage("Refund", "card "+visaPAN, "list.txt", []byte(mastercardPAN))))

	require.NoError(t, newTestManager(ResourceLimits{}).ProcessItem(context.Background(), item))
	assert.Equal(t, []string{"note.eml/Refund", "note.eml/Refund/list.txt"}, subPaths(item))
}

func TestMailMessage_InsideZip(t *testing.T) {
	data := buildZip(t, entry("saved/note.eml", mailMessage("Saved", "card "+visaPAN, "", nil)))
	item := writeItem(t, "mail.zip", data)

	require.NoError(t, newTestManager(ResourceLimits{}).ProcessItem(context.Background(), item))
	assert.Equal(t, []string{"mail.zip/saved/note.eml/Saved"}, subPaths(item))
}

func TestMailMessage_MsgHasNoDecoder(t *testing.T) {
	item := writeItem(t, "outlook.msg", []byte{0xD0, 0xCF, 0x11, 0xE0})

	err := newTestManager(ResourceLimits{}).ProcessItem(context.Background(), item)
	require.Error(t, err)
	assert.True(t, resilience.IsType(err, resilience.ErrorTypeInvalidContainer))
}

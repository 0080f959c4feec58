// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"context"
	"errors"
	"fmt"

	"panhunt/internal/detector"
	"panhunt/internal/mailbox"
	"panhunt/internal/observability"
	"panhunt/internal/resilience"
	"panhunt/internal/router"
)

// MailContainerPreprocessor searches every message of a mail store.
type MailContainerPreprocessor struct {
	name     string
	registry *mailbox.Registry
}

// NewMailContainerPreprocessor creates the mail container strategy.
func NewMailContainerPreprocessor(registry *mailbox.Registry) *MailContainerPreprocessor {
	return &MailContainerPreprocessor{name: "Mail Container Preprocessor", registry: registry}
}

// GetName returns the name of this preprocessor
func (mp *MailContainerPreprocessor) GetName() string {
	return mp.name
}

// Category returns the category this preprocessor handles
func (mp *MailContainerPreprocessor) Category() router.Category {
	return router.CategoryMailContainer
}

// Process decodes the store and searches each folder depth-first.
// Progress is reported once per message and once per attachment.
func (mp *MailContainerPreprocessor) Process(ctx context.Context, scope *Scope, in Input) error {
	decoder, err := mp.registry.Container(in.Ext())
	if err != nil {
		return noDecoder(in, err)
	}

	r, err := in.Open()
	if err != nil {
		return resilience.ClassifyError(err)
	}
	defer r.Close()

	store, err := decoder.DecodeContainer(r)
	if err != nil {
		return resilience.NewCorruptContainer(fmt.Sprintf("cannot read %s store", decoder.Format()), err)
	}
	if !store.Valid {
		return resilience.NewInvalidContainer(fmt.Sprintf("not a valid %s store", decoder.Format()), nil)
	}

	w := &mailWalker{
		scope:    scope,
		progress: scope.progress(),
		total:    store.Units(),
		current:  scope.Location(),
	}
	return w.folder(ctx, scope.Base(in), store.Root)
}

// MailMessagePreprocessor searches a single message file.
type MailMessagePreprocessor struct {
	name     string
	registry *mailbox.Registry
}

// NewMailMessagePreprocessor creates the mail message strategy.
func NewMailMessagePreprocessor(registry *mailbox.Registry) *MailMessagePreprocessor {
	return &MailMessagePreprocessor{name: "Mail Message Preprocessor", registry: registry}
}

// GetName returns the name of this preprocessor
func (mp *MailMessagePreprocessor) GetName() string {
	return mp.name
}

// Category returns the category this preprocessor handles
func (mp *MailMessagePreprocessor) Category() router.Category {
	return router.CategoryMailMessage
}

// Process decodes the message and searches its body and attachments.
func (mp *MailMessagePreprocessor) Process(ctx context.Context, scope *Scope, in Input) error {
	decoder, err := mp.registry.Message(in.Ext())
	if err != nil {
		return noDecoder(in, err)
	}

	r, err := in.Open()
	if err != nil {
		return resilience.ClassifyError(err)
	}
	defer r.Close()

	msg, err := decoder.DecodeMessage(r)
	if err != nil {
		return resilience.NewCorruptContainer(fmt.Sprintf("cannot read %s message", decoder.Format()), err)
	}

	w := &mailWalker{scope: scope, progress: observability.NopProgress{}}
	return w.message(ctx, scope.Base(in), msg)
}

func noDecoder(in Input, err error) error {
	if errors.Is(err, mailbox.ErrNoDecoder) {
		return resilience.NewInvalidContainer(fmt.Sprintf("no decoder registered for %s", in.Ext()), nil)
	}
	return resilience.NewInvalidContainer("", err)
}

// mailWalker visits the messages of a decoded store.
type mailWalker struct {
	scope    *Scope
	progress observability.Progress
	total    int
	done     int
	current  string
}

func (w *mailWalker) tick() {
	w.done++
	w.progress.Update(observability.StageMailbox, w.done, w.total, w.current)
}

func (w *mailWalker) folder(ctx context.Context, base string, f *mailbox.Folder) error {
	if f == nil {
		return nil
	}
	path := detector.JoinSubPath(base, f.Name)
	for _, problem := range f.Problems {
		w.scope.Child(path).Record(resilience.NewCorruptContainer("unreadable message", problem))
	}
	for _, msg := range f.Messages {
		if err := w.message(ctx, path, msg); err != nil {
			return err
		}
	}
	for _, sub := range f.Folders {
		if err := w.folder(ctx, path, sub); err != nil {
			return err
		}
	}
	return nil
}

// message scans the body under base/subject and dispatches attachments
// that map to a document category under base/subject/filename.
func (w *mailWalker) message(ctx context.Context, base string, msg *mailbox.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msgScope := w.scope.Child(detector.JoinSubPath(base, mailbox.SubjectSegment(msg.Subject)))
	for _, problem := range msg.Problems {
		msgScope.Record(resilience.NewUnsupportedEncoding("message part skipped", problem))
	}
	msgScope.Scan(msg.Body)
	w.tick()

	for _, att := range msg.Attachments {
		if err := ctx.Err(); err != nil {
			return err
		}
		cat := msgScope.Classify(att.Filename)
		if cat.IsDocument() {
			attScope := msgScope.Child(detector.JoinSubPath(msgScope.SubPath, att.Filename))
			_ = attScope.Dispatch(ctx, cat, Input{Name: att.Filename, Data: att.Data})
		}
		w.tick()
	}
	return nil
}

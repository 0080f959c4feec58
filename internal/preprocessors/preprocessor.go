// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package preprocessors holds the extraction strategies that turn a scan
// item, or a payload nested inside one, into text for the card detector.
package preprocessors

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"panhunt/internal/inventory"
	"panhunt/internal/mailbox"
	"panhunt/internal/observability"
	"panhunt/internal/resilience"
	"panhunt/internal/router"
	"panhunt/internal/validators/creditcard"
)

// Preprocessor is an extraction strategy for one category.
type Preprocessor interface {
	// GetName returns the name of this preprocessor
	GetName() string

	// Category returns the category this preprocessor handles
	Category() router.Category

	// Process extracts text from in and reports it through scope. An error
	// means the input as a whole could not be handled; problems with
	// individual entries are recorded on scope instead.
	Process(ctx context.Context, scope *Scope, in Input) error
}

// Input is either a file on disk (Path set) or a nested payload (Data set).
type Input struct {
	Name string // Base name, used for sub-paths and extension lookup
	Path string
	Data []byte
}

// FileInput returns the input for a top-level file.
func FileInput(path string) Input {
	return Input{Name: filepath.Base(path), Path: path}
}

// Ext returns the lower-cased extension of the input name.
func (in Input) Ext() string {
	return router.Ext(in.Name)
}

// IsNested reports whether the input came from inside another container.
func (in Input) IsNested() bool {
	return in.Path == ""
}

// Open returns a reader over the input.
func (in Input) Open() (io.ReadCloser, error) {
	if in.IsNested() {
		return io.NopCloser(bytes.NewReader(in.Data)), nil
	}
	return os.Open(in.Path)
}

// ReadAll returns the input content. Nested payloads are already in memory;
// files are read in full.
func (in Input) ReadAll() ([]byte, error) {
	if in.IsNested() {
		return in.Data, nil
	}
	return os.ReadFile(in.Path)
}

// readerAt returns random access to the input and its size.
func (in Input) readerAt() (io.ReaderAt, int64, io.Closer, error) {
	if in.IsNested() {
		return bytes.NewReader(in.Data), int64(len(in.Data)), io.NopCloser(nil), nil
	}
	f, err := os.Open(in.Path)
	if err != nil {
		return nil, 0, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, nil, err
	}
	return f, info.Size(), f, nil
}

// Manager dispatches inputs to the strategy registered for their category.
type Manager struct {
	strategies map[router.Category]Preprocessor
	table      *router.ExtensionTable
	validator  *creditcard.Validator
	limits     ResourceLimits
	progress   observability.Progress

	// Observability
	observer *observability.StandardObserver
}

// NewManager creates a manager with no strategies registered.
func NewManager(validator *creditcard.Validator, table *router.ExtensionTable, limits ResourceLimits) *Manager {
	if table == nil {
		table = router.DefaultExtensionTable()
	}
	return &Manager{
		strategies: make(map[router.Category]Preprocessor),
		table:      table,
		validator:  validator,
		limits:     limits.withDefaults(),
		progress:   observability.NopProgress{},
	}
}

// DefaultManager registers the plain text, archive and mail strategies.
func DefaultManager(validator *creditcard.Validator, table *router.ExtensionTable, limits ResourceLimits, mail *mailbox.Registry) *Manager {
	m := NewManager(validator, table, limits)
	if mail == nil {
		mail = mailbox.DefaultRegistry(mailbox.Options{MaxPartBytes: m.limits.MaxEntryBytes})
	}
	m.Register(NewTextPreprocessor())
	m.Register(NewArchivePreprocessor())
	m.Register(NewMailMessagePreprocessor(mail))
	m.Register(NewMailContainerPreprocessor(mail))
	return m
}

// Register adds p, replacing any strategy for the same category.
func (m *Manager) Register(p Preprocessor) {
	m.strategies[p.Category()] = p
}

// Get returns the strategy for cat.
func (m *Manager) Get(cat router.Category) (Preprocessor, bool) {
	p, ok := m.strategies[cat]
	return p, ok
}

// SetObserver sets the observability component
func (m *Manager) SetObserver(observer *observability.StandardObserver) {
	m.observer = observer
}

// SetProgress sets the sink for per-unit mailbox progress.
func (m *Manager) SetProgress(p observability.Progress) {
	m.progress = observability.OrNop(p)
}

// Limits returns the effective resource limits.
func (m *Manager) Limits() ResourceLimits {
	return m.limits
}

// Table returns the extension table used for nested entries.
func (m *Manager) Table() *router.ExtensionTable {
	return m.table
}

// ProcessItem runs the strategy for a top-level item. Matches and errors
// are attached to the item. The returned error is non-nil when the item
// as a whole could not be searched.
func (m *Manager) ProcessItem(ctx context.Context, item *inventory.ScanItem) error {
	if m.limits.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.limits.ItemTimeout)
		defer cancel()
	}

	var finishStep func(bool, string)
	if m.observer != nil && m.observer.DebugObserver != nil {
		finishStep = m.observer.DebugObserver.StartStep("preprocessor_manager", "process_item", item.Path)
	}

	scope := &Scope{
		Item:    item,
		budget:  newByteBudget(m.limits.MaxArchiveBytes),
		manager: m,
	}
	err := m.Dispatch(ctx, scope, item.Category, FileInput(item.Path))

	if finishStep != nil {
		finishStep(err == nil, fmt.Sprintf("matches=%d errors=%d bytes=%d",
			len(item.Matches), len(item.Errors), scope.budget.Used()))
	}
	return err
}

// Dispatch runs the strategy for cat on in. Failures, including panics in
// the strategy, are recorded on the scope's item and returned.
func (m *Manager) Dispatch(ctx context.Context, scope *Scope, cat router.Category, in Input) (err error) {
	p, ok := m.strategies[cat]
	if !ok {
		return nil
	}

	var finishTiming func(bool, map[string]interface{})
	if m.observer != nil {
		finishTiming = m.observer.StartTiming("preprocessor_manager", "dispatch", scope.Location())
	}

	defer func() {
		if r := recover(); r != nil {
			err = resilience.NewCorruptContainer("", &ProcessingError{
				FilePath: scope.Location(),
				Strategy: p.GetName(),
				Reason:   "strategy panicked",
				Err:      fmt.Errorf("%v", r),
			})
		}
		if err != nil {
			scope.Record(err)
		}
		if finishTiming != nil {
			finishTiming(err == nil, map[string]interface{}{
				"strategy": p.GetName(),
				"depth":    scope.Depth,
			})
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if scope.Depth > m.limits.MaxDepth {
		return resilience.NewCorruptContainer(
			fmt.Sprintf("container nesting exceeds %d levels", m.limits.MaxDepth), nil)
	}
	return p.Process(ctx, scope, in)
}

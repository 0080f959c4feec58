// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Progress stages reported by the scan.
const (
	StageWalk    = "walk"
	StageScan    = "scan"
	StageMailbox = "mailbox"
)

// Progress receives coarse progress updates. Implementations must return
// quickly; they are called from scanning goroutines.
type Progress interface {
	Update(stage string, done, total int, current string)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(stage string, done, total int, current string)

func (f ProgressFunc) Update(stage string, done, total int, current string) {
	f(stage, done, total, current)
}

// NopProgress discards updates.
type NopProgress struct{}

func (NopProgress) Update(string, int, int, string) {}

// OrNop returns p, or NopProgress when p is nil.
func OrNop(p Progress) Progress {
	if p == nil {
		return NopProgress{}
	}
	return p
}

// Percent returns done/total as a percentage, 0 when total is 0.
func Percent(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) * 100 / float64(total)
}

type progressEvent struct {
	stage       string
	done, total int
	current     string
}

// AsyncProgress forwards updates to a sink on its own goroutine. When the
// buffer is full the update is dropped, so callers never block.
type AsyncProgress struct {
	sink    Progress
	events  chan progressEvent
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewAsyncProgress starts forwarding to sink with the given buffer size.
func NewAsyncProgress(sink Progress, buffer int) *AsyncProgress {
	if buffer <= 0 {
		buffer = 64
	}
	a := &AsyncProgress{
		sink:   OrNop(sink),
		events: make(chan progressEvent, buffer),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncProgress) run() {
	defer close(a.done)
	for ev := range a.events {
		a.sink.Update(ev.stage, ev.done, ev.total, ev.current)
	}
}

// Update queues an update or drops it when the queue is full.
func (a *AsyncProgress) Update(stage string, done, total int, current string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.events <- progressEvent{stage: stage, done: done, total: total, current: current}:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns how many updates were discarded.
func (a *AsyncProgress) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops accepting updates and waits for queued ones to be delivered.
func (a *AsyncProgress) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
	a.mu.Unlock()
	<-a.done
}

// TerminalProgress draws a single status line, refreshed at most every
// interval. It draws nothing when the writer is not a terminal.
type TerminalProgress struct {
	mu       sync.Mutex
	out      io.Writer
	enabled  bool
	width    int
	interval time.Duration
	last     time.Time
	drawn    bool
}

// NewTerminalProgress renders to f if f is a terminal.
func NewTerminalProgress(f *os.File) *TerminalProgress {
	fd := int(f.Fd())
	tp := &TerminalProgress{
		out:      f,
		enabled:  term.IsTerminal(fd),
		width:    80,
		interval: 100 * time.Millisecond,
	}
	if w, _, err := term.GetSize(fd); err == nil && w > 20 {
		tp.width = w
	}
	return tp
}

// Enabled reports whether anything will be drawn.
func (tp *TerminalProgress) Enabled() bool {
	return tp.enabled
}

func (tp *TerminalProgress) Update(stage string, done, total int, current string) {
	if !tp.enabled {
		return
	}
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if done < total && time.Since(tp.last) < tp.interval {
		return
	}
	tp.last = time.Now()

	label := color.New(color.FgCyan).Sprintf("[%s]", stage)
	line := fmt.Sprintf("%5.1f%% (%d/%d) %s", Percent(done, total), done, total, current)
	line = fitLine(line, tp.width-runewidth.StringWidth(stage)-4)
	fmt.Fprintf(tp.out, "\r%s %s\x1b[K", label, line)
	tp.drawn = true
}

// fitLine cuts line to at most room terminal cells without splitting a
// character. A non-positive room leaves line as is.
func fitLine(line string, room int) string {
	if room <= 0 {
		return line
	}
	return runewidth.Truncate(line, room, "")
}

// Finish clears the status line.
func (tp *TerminalProgress) Finish() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.enabled && tp.drawn {
		fmt.Fprint(tp.out, "\r"+strings.Repeat(" ", tp.width-1)+"\r")
		tp.drawn = false
	}
}

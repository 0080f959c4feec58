// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"panhunt/internal/inventory"
	"panhunt/internal/mailbox"
	"panhunt/internal/observability"
	"panhunt/internal/parallel"
	"panhunt/internal/preprocessors"
	"panhunt/internal/router"
	"panhunt/internal/suppressions"
	"panhunt/internal/validators/creditcard"

	"go.uber.org/zap"
)

// AutoWorkers asks Scan to size the worker pool from the host resources.
const AutoWorkers = -1

// ScanConfig holds configuration for scanning operations.
type ScanConfig struct {
	Root         string
	ExcludedDirs []string
	Table        *router.ExtensionTable
	SizeCeiling  int64 // Zero disables the ceiling
	Patterns     []creditcard.BrandPattern
	Exclusions   *suppressions.ExclusionSet
	Limits       preprocessors.ResourceLimits
	Mail         *mailbox.Registry

	// Workers above one searches items concurrently; AutoWorkers picks a
	// count from the host. Zero and one search sequentially.
	Workers int

	Progress observability.Progress
	Observer *observability.StandardObserver
}

// ScanResult holds the results of a scanning operation.
type ScanResult struct {
	Root        string                  `json:"root" yaml:"root"`
	Considered  int                     `json:"considered" yaml:"considered"`
	Searched    int                     `json:"searched" yaml:"searched"`
	MatchCount  int                     `json:"match_count" yaml:"match_count"`
	Matched     []*inventory.ScanItem   `json:"matched" yaml:"matched"`
	Other       []*inventory.ScanItem   `json:"other" yaml:"other"`
	Failed      []*inventory.ScanItem   `json:"failed" yaml:"failed"`
	Skipped     []inventory.SkippedPath `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Interrupted bool                    `json:"interrupted" yaml:"interrupted"`
	StartedAt   time.Time               `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time               `json:"finished_at" yaml:"finished_at"`
}

// Duration returns the wall time of the scan.
func (r *ScanResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunScan walks cfg.Root and searches everything it finds. Cancelling ctx
// stops the run early; the partial result is still returned with
// Interrupted set. Only a root that cannot be walked is an error.
func RunScan(ctx context.Context, cfg ScanConfig) (*ScanResult, error) {
	started := time.Now()
	inv, err := inventory.Walk(ctx, cfg.Root, inventory.WalkOptions{
		ExcludedDirs: cfg.ExcludedDirs,
		Table:        cfg.Table,
		SizeCeiling:  cfg.SizeCeiling,
		Progress:     cfg.Progress,
		Observer:     cfg.Observer,
	})
	if inv == nil || (err != nil && !isCancellation(err)) {
		return nil, fmt.Errorf("failed to walk %s: %w", cfg.Root, err)
	}

	result := Scan(ctx, inv, cfg)
	result.StartedAt = started
	return result, nil
}

// Scan searches the items of inv. Document items and mail containers that
// had no walk-time error are dispatched to their strategy; the rest are
// only listed.
func Scan(ctx context.Context, inv *inventory.Inventory, cfg ScanConfig) *ScanResult {
	observer := cfg.Observer
	result := &ScanResult{
		Root:       inv.Root,
		Considered: len(inv.Items),
		Skipped:    inv.Skipped,
		StartedAt:  time.Now(),
	}

	var finishStep func(bool, string)
	if observer != nil && observer.DebugObserver != nil {
		finishStep = observer.DebugObserver.StartStep("core", "scan", inv.Root)
	}

	queue := dispatchQueue(inv.Items)
	manager := BuildManager(cfg)
	progress := observability.OrNop(cfg.Progress)
	manager.SetProgress(progress)

	workers := ResolveWorkers(ctx, cfg.Workers, len(queue))
	if workers > 1 {
		result.Searched = scanParallel(ctx, manager, queue, workers, progress, observer)
	} else {
		result.Searched = scanSequential(ctx, manager, queue, progress)
	}
	result.Interrupted = ctx.Err() != nil

	collect(result, inv.Items)
	result.FinishedAt = time.Now()

	if finishStep != nil {
		finishStep(!result.Interrupted, fmt.Sprintf("searched=%d matches=%d failed=%d",
			result.Searched, result.MatchCount, len(result.Failed)))
	}
	observer.LogInfo("core", "scan finished",
		observability.PathField(inv.Root),
		zap.Int("considered", result.Considered),
		zap.Any("categories", inv.CountByCategory()),
		zap.Int("searched", result.Searched),
		zap.Int("match_count", result.MatchCount),
		zap.Int("workers", workers),
		zap.Bool("interrupted", result.Interrupted),
		zap.Duration("duration", result.Duration()),
	)
	return result
}

// dispatchQueue returns the searchable items: documents first, then mail
// containers, each in walk order.
func dispatchQueue(items []*inventory.ScanItem) []*inventory.ScanItem {
	var docs, containers []*inventory.ScanItem
	for _, it := range items {
		if it.HasErrors() {
			continue
		}
		switch {
		case it.Category.IsDocument():
			docs = append(docs, it)
		case it.Category == router.CategoryMailContainer:
			containers = append(containers, it)
		}
	}
	return append(docs, containers...)
}

func scanSequential(ctx context.Context, manager *preprocessors.Manager, queue []*inventory.ScanItem, progress observability.Progress) int {
	searched := 0
	for i, item := range queue {
		if ctx.Err() != nil {
			break
		}
		if err := manager.ProcessItem(ctx, item); err == nil {
			searched++
		}
		progress.Update(observability.StageScan, i+1, len(queue), item.Path)
	}
	return searched
}

func scanParallel(ctx context.Context, manager *preprocessors.Manager, queue []*inventory.ScanItem, workers int, progress observability.Progress, observer *observability.StandardObserver) int {
	searched := 0
	pp := parallel.NewParallelProcessor(workers, observer)
	pp.ProcessItems(ctx, queue, manager.ProcessItem,
		func(r *parallel.Result) {
			switch {
			case r.Skipped:
			case r.Error == nil:
				searched++
			case !r.Item.HasErrors():
				// A panic outside the strategies is not recorded on the item yet.
				r.Item.AddError(r.Error)
			}
		},
		func(completed, total int, current string) {
			progress.Update(observability.StageScan, completed, total, current)
		})
	return searched
}

// collect fills the report lists from the processed items.
func collect(result *ScanResult, items []*inventory.ScanItem) {
	for _, it := range items {
		if len(it.Matches) > 0 {
			result.Matched = append(result.Matched, it)
			result.MatchCount += len(it.Matches)
		}
		switch {
		case it.Category == router.CategoryOther:
			result.Other = append(result.Other, it)
		case it.HasErrors():
			result.Failed = append(result.Failed, it)
		}
	}
	sortByPath(result.Matched)
	sortByPath(result.Other)
	sortByPath(result.Failed)
}

func sortByPath(items []*inventory.ScanItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Path < items[j].Path })
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"time"

	"panhunt/internal/inventory"
	"panhunt/internal/observability"
)

// ParallelProcessor fans scan items out to a worker pool and merges the
// results on the calling goroutine.
type ParallelProcessor struct {
	workers  int
	observer *observability.StandardObserver
}

// ProcessingStats tracks parallel processing statistics
type ProcessingStats struct {
	TotalItems     int           `json:"total_items"`
	ProcessedItems int           `json:"processed_items"`
	FailedItems    int           `json:"failed_items"`
	SkippedItems   int           `json:"skipped_items"`
	TotalDuration  time.Duration `json:"total_duration_ms"`
	WorkerCount    int           `json:"worker_count"`
	AvgItemTime    time.Duration `json:"avg_item_time_ms"`
}

// ProgressCallback is called when an item is completed
type ProgressCallback func(completed, total int, current string)

// ResultHandler receives every result, one at a time, on the goroutine
// that called ProcessItems.
type ResultHandler func(result *Result)

// NewParallelProcessor creates a processor with the given worker count.
func NewParallelProcessor(workers int, observer *observability.StandardObserver) *ParallelProcessor {
	if workers < 1 {
		workers = 1
	}
	return &ParallelProcessor{workers: workers, observer: observer}
}

// ProcessItems runs process over items. Every item yields exactly one
// result passed to handle; items not started before ctx ended come back
// with Skipped set.
func (pp *ParallelProcessor) ProcessItems(ctx context.Context, items []*inventory.ScanItem, process ProcessFunc, handle ResultHandler, progress ProgressCallback) *ProcessingStats {
	start := time.Now()

	var finishTiming func(bool, map[string]interface{})
	if pp.observer != nil {
		finishTiming = pp.observer.StartTiming("parallel_processor", "process_items", "batch")
	}

	pool := NewWorkerPool(pp.workers, process, pp.observer)
	pool.Start(ctx)

	// Submit jobs in a separate goroutine to prevent deadlock
	submitted := make(chan int, 1)
	go func() {
		defer pool.Close()
		n := 0
		for i, item := range items {
			if !pool.Submit(ctx, &Job{JobID: i, Item: item}) {
				break
			}
			n++
		}
		submitted <- n
	}()

	stats := &ProcessingStats{TotalItems: len(items), WorkerCount: pool.Workers()}
	var itemTime time.Duration
	completed := 0
	seen := make([]bool, len(items))

	for result := range pool.Results() {
		seen[result.JobID] = true
		switch {
		case result.Skipped:
			stats.SkippedItems++
		case result.Error != nil:
			stats.FailedItems++
		default:
			stats.ProcessedItems++
		}
		itemTime += result.Duration

		if handle != nil {
			handle(result)
		}
		completed++
		if progress != nil {
			progress(completed, len(items), result.Item.Path)
		}
	}

	// Items never submitted because the context ended are reported too.
	if n := <-submitted; n < len(items) {
		for i, item := range items {
			if seen[i] {
				continue
			}
			stats.SkippedItems++
			if handle != nil {
				handle(&Result{JobID: i, Item: item, Skipped: true})
			}
		}
	}

	stats.TotalDuration = time.Since(start)
	if done := stats.ProcessedItems + stats.FailedItems; done > 0 {
		stats.AvgItemTime = itemTime / time.Duration(done)
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"total_items":     stats.TotalItems,
			"processed_items": stats.ProcessedItems,
			"failed_items":    stats.FailedItems,
			"skipped_items":   stats.SkippedItems,
			"worker_count":    stats.WorkerCount,
			"duration_ms":     stats.TotalDuration.Milliseconds(),
		})
	}
	return stats
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"panhunt/internal/inventory"
	"panhunt/internal/observability"
)

// ProcessFunc searches one item. It may mutate the item it is given and
// nothing else.
type ProcessFunc func(ctx context.Context, item *inventory.ScanItem) error

// WorkerPool runs a ProcessFunc over scan items on a fixed set of goroutines
type WorkerPool struct {
	workers  int
	jobs     chan *Job
	results  chan *Result
	wg       sync.WaitGroup
	process  ProcessFunc
	observer *observability.StandardObserver
}

// Job is one top-level item to search
type Job struct {
	JobID int
	Item  *inventory.ScanItem
}

// Result reports how a job ended. Skipped is set for jobs that were
// drained after the context was cancelled and never processed.
type Result struct {
	JobID    int
	Item     *inventory.ScanItem
	Error    error
	Skipped  bool
	Duration time.Duration
}

// NewWorkerPool creates a pool of the given size
func NewWorkerPool(workers int, process ProcessFunc, observer *observability.StandardObserver) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers:  workers,
		jobs:     make(chan *Job, workers*2),
		results:  make(chan *Result, workers*2),
		process:  process,
		observer: observer,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start launches the worker goroutines. The results channel is closed
// once every worker has exited, which happens after Close.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
	go func() {
		wp.wg.Wait()
		close(wp.results)
	}()
}

// Submit queues a job. It returns false if ctx ended first.
func (wp *WorkerPool) Submit(ctx context.Context, job *Job) bool {
	select {
	case wp.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close signals that no more jobs will be submitted.
func (wp *WorkerPool) Close() {
	close(wp.jobs)
}

// Results returns the results channel
func (wp *WorkerPool) Results() <-chan *Result {
	return wp.results
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for job := range wp.jobs {
		var result *Result
		if ctx.Err() != nil {
			result = &Result{JobID: job.JobID, Item: job.Item, Skipped: true}
		} else {
			result = wp.processJob(ctx, job, id)
		}
		// Results are always delivered; the collector drains the channel
		// until it is closed.
		wp.results <- result
	}
}

// processJob executes a single job, turning a panic into an error
func (wp *WorkerPool) processJob(ctx context.Context, job *Job, workerID int) (result *Result) {
	start := time.Now()

	var finishTiming func(bool, map[string]interface{})
	if wp.observer != nil {
		finishTiming = wp.observer.StartTiming("worker_pool", "process_job", job.Item.Path)
	}

	result = &Result{JobID: job.JobID, Item: job.Item}
	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("worker %d panicked: %v", workerID, r)
		}
		result.Duration = time.Since(start)
		if finishTiming != nil {
			finishTiming(result.Error == nil, map[string]interface{}{
				"worker_id":   workerID,
				"match_count": len(job.Item.Matches),
				"duration_ms": result.Duration.Milliseconds(),
			})
		}
	}()

	result.Error = wp.process(ctx, job.Item)
	return result
}

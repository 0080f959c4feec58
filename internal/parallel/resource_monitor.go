// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMetrics holds current system resource usage
type ResourceMetrics struct {
	CPUCores        int     `json:"cpu_cores"`
	MemoryTotal     uint64  `json:"memory_total_mb"`
	MemoryAvailable uint64  `json:"memory_available_mb"`
	MemoryPercent   float64 `json:"memory_percent"`
}

// WorkerLimits bound the automatically chosen worker count
type WorkerLimits struct {
	MaxWorkers       int     `json:"max_workers"`
	MinWorkers       int     `json:"min_workers"`
	MaxMemoryPercent float64 `json:"max_memory_percent"`
}

// DefaultWorkerLimits returns sensible default limits
func DefaultWorkerLimits() WorkerLimits {
	return WorkerLimits{
		MaxWorkers:       8,    // Archives are decompressed in memory
		MinWorkers:       1,
		MaxMemoryPercent: 80.0, // Above this, fall back to one worker
	}
}

// SampleResources reads the host CPU and memory figures. Values that
// cannot be read fall back to the Go runtime view.
func SampleResources(ctx context.Context) ResourceMetrics {
	m := ResourceMetrics{CPUCores: runtime.NumCPU()}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		m.CPUCores = n
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		m.MemoryTotal = vm.Total / 1024 / 1024
		m.MemoryAvailable = vm.Available / 1024 / 1024
		m.MemoryPercent = vm.UsedPercent
	}
	return m
}

// OptimalWorkerCount picks a worker count for itemCount items: one per
// core within the limits, never more than there are items, and the
// minimum when memory is already under pressure.
func OptimalWorkerCount(m ResourceMetrics, limits WorkerLimits, itemCount int) int {
	minW := max(limits.MinWorkers, 1)
	if limits.MaxMemoryPercent > 0 && m.MemoryPercent >= limits.MaxMemoryPercent {
		return minW
	}
	n := m.CPUCores
	if limits.MaxWorkers > 0 {
		n = min(n, limits.MaxWorkers)
	}
	if itemCount > 0 {
		n = min(n, itemCount)
	}
	return max(n, minW)
}

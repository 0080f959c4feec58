// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"panhunt/internal/core"
	"panhunt/internal/platform"
)

// ScanContext describes the run a report is rendered for.
type ScanContext struct {
	RunID        string            `json:"run_id" yaml:"run_id"`
	Root         string            `json:"root" yaml:"root"`
	ExcludedDirs []string          `json:"excluded_dirs" yaml:"excluded_dirs"`
	Command      string            `json:"command" yaml:"command"`
	Host         platform.HostInfo `json:"host" yaml:"host"`
	Started      time.Time         `json:"started" yaml:"started"`
}

// FormatterOptions defines configuration options for formatters
type FormatterOptions struct {
	Mask bool // Replace all but the last four digits of every PAN
}

// Formatter interface defines methods that all output formatters must implement
type Formatter interface {
	// Format renders the result of one scan run
	Format(sc ScanContext, result *core.ScanResult, options FormatterOptions) (string, error)

	// Name returns the name of the formatter (e.g., "json", "text")
	Name() string

	// Description returns a brief description of what this formatter outputs
	Description() string

	// FileExtension returns the recommended file extension for this format (e.g., ".txt")
	FileExtension() string
}

// Registry holds all registered formatters
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewRegistry creates a new formatter registry
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
	}
}

// Register adds a formatter to the registry
func (r *Registry) Register(formatter Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[formatter.Name()] = formatter
}

// Get retrieves a formatter by name
func (r *Registry) Get(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	formatter, exists := r.formatters[strings.ToLower(name)]
	return formatter, exists
}

// List returns all registered formatter names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Export renders result with the named formatter of r.
func (r *Registry) Export(format string, sc ScanContext, result *core.ScanResult, options FormatterOptions) (string, error) {
	formatter, exists := r.Get(format)
	if !exists {
		return "", fmt.Errorf("unsupported format '%s'. Available formats: %s", format, strings.Join(r.List(), ", "))
	}
	return formatter.Format(sc, result, options)
}

// DefaultRegistry is the global formatter registry
var DefaultRegistry = NewRegistry()

// Register is a convenience function to register a formatter with the default registry
func Register(formatter Formatter) {
	DefaultRegistry.Register(formatter)
}

// Get is a convenience function to get a formatter from the default registry
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// List is a convenience function to list all formatters in the default registry
func List() []string {
	return DefaultRegistry.List()
}

// Export renders result with a formatter from the default registry.
func Export(format string, sc ScanContext, result *core.ScanResult, options FormatterOptions) (string, error) {
	return DefaultRegistry.Export(format, sc, result, options)
}

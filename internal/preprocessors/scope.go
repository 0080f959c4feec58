// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"context"

	"panhunt/internal/detector"
	"panhunt/internal/inventory"
	"panhunt/internal/observability"
	"panhunt/internal/resilience"
	"panhunt/internal/router"
)

// Scope is the position of an input within its top-level item. A plain
// top-level file has an empty SubPath; everything found inside a
// container is attributed to a slash separated path that starts with the
// container's base name.
type Scope struct {
	Item    *inventory.ScanItem
	SubPath string
	Depth   int

	budget  *byteBudget
	manager *Manager
}

// Child returns the scope of a nested payload at subPath.
func (s *Scope) Child(subPath string) *Scope {
	return &Scope{
		Item:    s.Item,
		SubPath: subPath,
		Depth:   s.Depth + 1,
		budget:  s.budget,
		manager: s.manager,
	}
}

// Base returns the sub-path under which entries of the container in are
// reported.
func (s *Scope) Base(in Input) string {
	if s.SubPath != "" {
		return s.SubPath
	}
	return in.Name
}

// Location names the scope for errors and logs.
func (s *Scope) Location() string {
	if s.SubPath != "" {
		return s.SubPath
	}
	if s.Item != nil {
		return s.Item.Path
	}
	return ""
}

// Scan runs the detector over text and attaches the matches to the item.
func (s *Scope) Scan(text string) []detector.Match {
	if text == "" || s.manager == nil || s.manager.validator == nil {
		return nil
	}
	matches := s.manager.validator.ValidateContent(text, s.Item.Path, s.SubPath)
	s.Item.AddMatches(matches...)
	return matches
}

// Record attaches err to the item, classified and attributed to the
// scope's sub-path.
func (s *Scope) Record(err error) {
	if err == nil {
		return
	}
	classified := resilience.ClassifyError(err)
	if s.SubPath != "" && classified.Path == "" {
		classified = classified.WithPath(s.SubPath)
	}
	s.Item.AddError(classified)
	if s.manager != nil && s.manager.observer != nil {
		s.manager.observer.LogWarning("preprocessors", s.Item.Path, classified)
	}
}

// Dispatch hands a nested payload to the strategy for cat.
func (s *Scope) Dispatch(ctx context.Context, cat router.Category, in Input) error {
	return s.manager.Dispatch(ctx, s, cat, in)
}

// Classify returns the category of a nested entry name.
func (s *Scope) Classify(name string) router.Category {
	return s.manager.table.ClassifyPath(name)
}

// Limits returns the resource limits in force.
func (s *Scope) Limits() ResourceLimits {
	return s.manager.limits
}

// trace writes a step detail when the run has a debug observer.
func (s *Scope) trace(detail string) {
	if s.manager == nil || s.manager.observer == nil || s.manager.observer.DebugObserver == nil {
		return
	}
	s.manager.observer.DebugObserver.LogDetail(s.Item.Path, detail)
}

func (s *Scope) progress() observability.Progress {
	if s.manager == nil {
		return observability.NopProgress{}
	}
	return s.manager.progress
}

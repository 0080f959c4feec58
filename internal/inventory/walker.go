// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"panhunt/internal/observability"
	"panhunt/internal/paths"
	"panhunt/internal/platform"
	"panhunt/internal/resilience"
	"panhunt/internal/router"
)

// WalkOptions controls a walk.
type WalkOptions struct {
	ExcludedDirs []string
	Table        *router.ExtensionTable
	SizeCeiling  int64 // Bytes; zero or negative disables the ceiling
	Progress     observability.Progress
	Observer     *observability.StandardObserver
}

type walker struct {
	opts     WalkOptions
	excluded []string
	inv      *Inventory
	progress observability.Progress
}

// Walk enumerates root depth first and returns every file with a
// recognized extension. Only a root that cannot be read is fatal. On
// cancellation the items found so far are returned with ctx.Err().
func Walk(ctx context.Context, root string, opts WalkOptions) (*Inventory, error) {
	if opts.Table == nil {
		opts.Table = router.DefaultExtensionTable()
	}

	absRoot := paths.NormalizePath(paths.ExpandHome(root))
	w := &walker{
		opts:     opts,
		inv:      &Inventory{Root: absRoot},
		progress: observability.OrNop(opts.Progress),
	}
	for _, dir := range opts.ExcludedDirs {
		if dir != "" {
			w.excluded = append(w.excluded, paths.NormalizePath(paths.ExpandHome(dir)))
		}
	}

	finishTiming := opts.Observer.StartTiming("walker", "walk", absRoot)

	info, err := os.Stat(absRoot)
	if err != nil {
		finishTiming(false, nil)
		return nil, fmt.Errorf("cannot read search root %s: %w", absRoot, err)
	}

	if excl, ok := w.rootExcludedBy(absRoot); ok {
		// Nothing below an excluded directory is ever inventoried.
		w.inv.Skipped = append(w.inv.Skipped, SkippedPath{Path: absRoot, Reason: "search root is under excluded directory " + excl})
		w.opts.Observer.LogInfo("walker", "search root is excluded", observability.PathField(absRoot))
		finishTiming(true, map[string]interface{}{"items": 0})
		return w.inv, nil
	}

	if !info.IsDir() {
		// A single file is scanned as a one item inventory.
		w.visitFile(absRoot, info.Name(), info, nil)
		w.progress.Update(observability.StageWalk, 1, 1, absRoot)
		finishTiming(true, map[string]interface{}{"items": len(w.inv.Items)})
		return w.inv, nil
	}

	entries, err := os.ReadDir(absRoot)
	if err != nil {
		finishTiming(false, nil)
		return nil, fmt.Errorf("cannot list search root %s: %w", absRoot, err)
	}

	// Progress is reported per top level entry to keep the overhead
	// independent of the size of the tree.
	total := len(entries)
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			finishTiming(false, map[string]interface{}{"items": len(w.inv.Items), "cancelled": true})
			return w.inv, err
		}

		child := filepath.Join(absRoot, entry.Name())
		err := filepath.WalkDir(child, func(path string, d fs.DirEntry, err error) error {
			return w.visit(ctx, path, d, err)
		})
		if err != nil {
			finishTiming(false, map[string]interface{}{"items": len(w.inv.Items), "cancelled": true})
			return w.inv, err
		}
		w.progress.Update(observability.StageWalk, i+1, total, child)
	}

	finishTiming(true, map[string]interface{}{
		"items":   len(w.inv.Items),
		"skipped": len(w.inv.Skipped),
	})
	return w.inv, nil
}

func (w *walker) visit(ctx context.Context, path string, d fs.DirEntry, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		// Either the entry itself could not be stat'ed or a directory
		// could not be listed. Neither stops the walk.
		if d != nil && d.IsDir() {
			w.skip(path, err)
			return fs.SkipDir
		}
		if d == nil {
			if w.opts.Table.ClassifyPath(path) != router.CategoryUnknown {
				w.visitFile(path, filepath.Base(path), nil, err)
			} else {
				w.skip(path, err)
			}
		}
		return nil
	}

	if d.IsDir() {
		if w.isExcluded(path) {
			w.opts.Observer.LogInfo("walker", "excluded directory pruned", observability.PathField(path))
			return fs.SkipDir
		}
		return nil
	}

	if d.Type()&fs.ModeSymlink != 0 {
		return w.visitSymlink(path, d)
	}

	if !d.Type().IsRegular() {
		// Devices, sockets and pipes are never read.
		return nil
	}

	if w.opts.Table.ClassifyPath(d.Name()) == router.CategoryUnknown {
		return nil
	}
	info, statErr := d.Info()
	w.visitFile(path, d.Name(), info, statErr)
	return nil
}

// visitSymlink follows links to files but never to directories, which
// rules out cycles.
func (w *walker) visitSymlink(path string, d fs.DirEntry) error {
	recognized := w.opts.Table.ClassifyPath(d.Name()) != router.CategoryUnknown

	target, err := os.Stat(path)
	if err != nil {
		if recognized {
			w.visitFile(path, d.Name(), nil, err)
		} else {
			w.skip(path, err)
		}
		return nil
	}
	if target.IsDir() {
		w.skip(path, fmt.Errorf("symbolic link to directory not followed"))
		return nil
	}
	if !recognized || !target.Mode().IsRegular() {
		return nil
	}
	w.visitFile(path, d.Name(), target, nil)
	return nil
}

func (w *walker) visitFile(path, name string, info fs.FileInfo, statErr error) {
	category := w.opts.Table.ClassifyPath(name)
	if category == router.CategoryUnknown {
		return
	}

	item := NewScanItem(path, category)
	w.inv.Items = append(w.inv.Items, item)

	if statErr != nil || info == nil {
		if statErr == nil {
			statErr = fmt.Errorf("no file information")
		}
		item.AddError(resilience.NewStatFailure(statErr))
		w.opts.Observer.LogWarning("walker", path, statErr)
		return
	}

	item.Size = info.Size()
	item.Modified = info.ModTime()
	item.Accessed, item.Created = platform.FileTimes(info)

	ceiling := w.opts.SizeCeiling
	if ceiling > 0 && category.IsScannable() && item.Size > ceiling {
		item.Category = router.CategoryOther
		item.AddError(resilience.NewOversizeSkipped(item.Size, ceiling))
	}
}

func (w *walker) isExcluded(path string) bool {
	clean := filepath.Clean(path)
	for _, excl := range w.excluded {
		if strings.EqualFold(clean, excl) {
			return true
		}
	}
	return false
}

// rootExcludedBy returns the excluded directory that is root or one of its
// ancestors.
func (w *walker) rootExcludedBy(root string) (string, bool) {
	lower := strings.ToLower(filepath.Clean(root))
	for _, excl := range w.excluded {
		prefix := strings.ToLower(excl)
		if lower == prefix || strings.HasPrefix(lower, strings.TrimSuffix(prefix, string(filepath.Separator))+string(filepath.Separator)) {
			return excl, true
		}
	}
	return "", false
}

func (w *walker) skip(path string, err error) {
	w.inv.Skipped = append(w.inv.Skipped, SkippedPath{Path: path, Reason: err.Error()})
	w.opts.Observer.LogWarning("walker", path, err)
}

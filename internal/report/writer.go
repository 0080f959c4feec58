// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"panhunt/internal/resilience"

	"github.com/gofrs/flock"
)

// timestampLayout is appended to the configured output name.
const timestampLayout = "2006-01-02-150405"

// OutputPath appends the run timestamp to base, keeping or adding ext.
// "reports/panhunt_" becomes "reports/panhunt_2024-05-01-130405.txt".
func OutputPath(base, ext string, now time.Time) string {
	if e := filepath.Ext(base); e != "" {
		ext = e
		base = strings.TrimSuffix(base, e)
	}
	return base + now.Format(timestampLayout) + ext
}

// Write stores rep at path. The parent directory is created, a lock file
// next to path serializes writers, and the content is written to a temp
// file that is renamed into place.
func Write(ctx context.Context, path string, rep *Report) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	err := resilience.Retry(ctx, resilience.LockBackoff(), func(ctx context.Context) error {
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", lockPath, err)
		}
		if !locked {
			return resilience.NewTransientError("report is locked by another writer", nil)
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}()

	return atomicWrite(path, []byte(rep.String()))
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".panhunt-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	// Reports contain card data
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	committed = true
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a drop directory and files each new PDF through the
// importer once it has finished landing on disk.
type Watcher struct {
	imp         *Importer
	dir         string
	settleDelay time.Duration
	w           io.Writer
}

// NewWatcher returns a Watcher over dir. settleDelay is how long a
// file's size must hold steady before it is considered complete.
func NewWatcher(imp *Importer, dir string, settleDelay time.Duration, w io.Writer) *Watcher {
	if settleDelay <= 0 {
		settleDelay = 2 * time.Second
	}
	return &Watcher{imp: imp, dir: dir, settleDelay: settleDelay, w: w}
}

// Watch blocks, importing PDFs as they appear, until ctx is cancelled.
func (wt *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := os.MkdirAll(wt.dir, 0o755); err != nil {
		return fmt.Errorf("creating watch directory: %w", err)
	}
	if err := fw.Add(wt.dir); err != nil {
		return fmt.Errorf("watching %s: %w", wt.dir, err)
	}
	fmt.Fprintf(wt.w, "Watching %s for new PDFs\n", wt.dir)

	// A browser may create foo.crdownload and rename it to foo.pdf, so
	// both create and rename events matter.
	seen := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(event.Name)
			if !isPDFName(name) || seen[name] {
				continue
			}
			seen[name] = true
			if err := wt.settle(ctx, event.Name); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Fprintf(wt.w, "skipped: %s (%v)\n", name, err)
				delete(seen, name)
				continue
			}
			if _, err := wt.imp.ImportFile(ctx, event.Name); err != nil {
				fmt.Fprintf(wt.w, "failed: %s (%v)\n", name, err)
			}
			delete(seen, name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(wt.w, "watch error: %v\n", err)
		}
	}
}

// settle waits until path's size is stable across one settle interval.
func (wt *Watcher) settle(ctx context.Context, path string) error {
	var lastSize int64 = -1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wt.settleDelay):
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("file vanished: %w", err)
		}
		if info.Size() == lastSize && info.Size() > 0 {
			return nil
		}
		lastSize = info.Size()
	}
}

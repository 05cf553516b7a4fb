// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/alexandria/internal/match"
	"github.com/pdiddy/alexandria/pkg/types"
)

func TestWatcherImportsNewPDF(t *testing.T) {
	drop := t.TempDir()
	lib := t.TempDir()
	rec := newFakeRecorder()
	imp := NewImporter(match.SeedTable(), rec, types.LibraryConfig{Dir: lib}, &bytes.Buffer{})
	wt := NewWatcher(imp, drop, 20*time.Millisecond, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- wt.Watch(ctx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeTestPDF(t, drop, "meditations.pdf")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if rec.count() == 1 {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	if rec.count() != 1 {
		t.Fatalf("book was not imported within deadline")
	}
	for _, b := range rec.snapshot() {
		if b.Status != types.StatusPendingApproval {
			t.Errorf("status = %q, want %q", b.Status, types.StatusPendingApproval)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Watch returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

func TestWatcherIgnoresNonPDF(t *testing.T) {
	drop := t.TempDir()
	lib := t.TempDir()
	rec := newFakeRecorder()
	imp := NewImporter(match.SeedTable(), rec, types.LibraryConfig{Dir: lib}, &bytes.Buffer{})
	wt := NewWatcher(imp, drop, 20*time.Millisecond, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- wt.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(drop, "book.pdf.crdownload"), []byte("partial"), 0o644); err != nil {
		t.Fatalf("writing partial file: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("partial download should not be imported, got %d books", n)
	}
	cancel()
	<-done
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download serializes PDF fetches through a strict FIFO queue
// served by a single background worker.
// Implements: prd004-download (R1-R5);
//
//	docs/ARCHITECTURE § Download Queue.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/alexandria/pkg/types"
)

// Recorder is the slice of the record store the queue needs. It is
// consulted only for items carrying a book id.
type Recorder interface {
	SetStatus(ctx context.Context, id string, to types.BookStatus) error
	SetPDFPath(ctx context.Context, id, path string) error
}

// Queue accepts URLs and fetches them one at a time in enqueue order.
// The worker goroutine starts lazily on the first Enqueue and exits
// when the queue drains; a later Enqueue starts a fresh one.
type Queue struct {
	rec    Recorder
	cfg    types.DownloadConfig
	client *http.Client
	w      io.Writer

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	queued    []*types.DownloadItem
	active    *types.DownloadItem
	completed []types.DownloadItem
	failed    []types.DownloadItem
	running   bool
}

// NewQueue builds a Queue writing progress lines to w. rec may be nil
// when no book bookkeeping is wanted.
func NewQueue(rec Recorder, cfg types.DownloadConfig, w io.Writer) *Queue {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		rec:    rec,
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		w:      w,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Stop cancels the in-flight fetch, if any, and prevents the worker
// from picking up further items. Queued items stay queued.
func (q *Queue) Stop() {
	q.cancel()
}

// Enqueue validates and appends a URL to the queue, returning the item
// id. bookID may be empty.
func (q *Queue) Enqueue(rawURL, bookID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("malformed download URL %q", rawURL)
	}

	item := &types.DownloadItem{
		ID:         uuid.NewString(),
		URL:        u.String(),
		BookID:     bookID,
		Status:     types.DownloadQueued,
		EnqueuedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	q.queued = append(q.queued, item)
	start := !q.running
	if start {
		q.running = true
	}
	q.mu.Unlock()

	if start {
		go q.work()
	}
	return item.ID, nil
}

// Status returns a snapshot of the queue. The counts sum to the total
// number of items ever enqueued.
func (q *Queue) Status() types.QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := types.QueueStatus{
		Queued:    len(q.queued),
		Completed: len(q.completed),
		Failed:    len(q.failed),
	}
	if q.active != nil {
		s.Active = []types.DownloadItem{*q.active}
	}
	return s
}

// Items returns snapshots of finished items, completed first.
func (q *Queue) Items() (completed, failed []types.DownloadItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]types.DownloadItem(nil), q.completed...),
		append([]types.DownloadItem(nil), q.failed...)
}

// work drains the queue in FIFO order. One item's failure never stops
// the worker; only Stop or an empty queue does.
func (q *Queue) work() {
	for {
		q.mu.Lock()
		if len(q.queued) == 0 || q.ctx.Err() != nil {
			q.running = false
			q.mu.Unlock()
			return
		}
		item := q.queued[0]
		q.queued = q.queued[1:]
		item.Status = types.DownloadDownloading
		q.active = item
		q.mu.Unlock()

		q.markBook(item, types.StatusDownloading)

		path, err := q.fetch(item)

		q.mu.Lock()
		q.active = nil
		if err != nil {
			item.Status = types.DownloadFailed
			item.Error = err.Error()
			q.failed = append(q.failed, *item)
		} else {
			item.Status = types.DownloadCompleted
			item.Progress = 100
			item.FilePath = path
			q.completed = append(q.completed, *item)
		}
		q.mu.Unlock()

		if err != nil {
			fmt.Fprintf(q.w, "failed: %s (%v)\n", item.URL, err)
			q.markBook(item, types.StatusFailed)
			continue
		}
		fmt.Fprintf(q.w, "downloaded: %s\n", path)
		if item.BookID != "" && q.rec != nil {
			if err := q.rec.SetPDFPath(q.ctx, item.BookID, path); err != nil {
				fmt.Fprintf(q.w, "warning: recording path for book %s: %v\n", item.BookID, err)
			}
		}
		q.markBook(item, types.StatusReady)
	}
}

// markBook advances the associated book's status. An illegal transition
// is logged and otherwise ignored; the store guards the state machine.
func (q *Queue) markBook(item *types.DownloadItem, to types.BookStatus) {
	if item.BookID == "" || q.rec == nil {
		return
	}
	if err := q.rec.SetStatus(q.ctx, item.BookID, to); err != nil {
		fmt.Fprintf(q.w, "warning: book %s -> %s: %v\n", item.BookID, to, err)
	}
}

// fetch downloads the item's URL into the download directory via a
// temp file renamed on success, reporting progress as it goes.
func (q *Queue) fetch(item *types.DownloadItem) (string, error) {
	if err := os.MkdirAll(q.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}

	req, err := http.NewRequestWithContext(q.ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", q.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := q.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, item.URL)
	}

	dest := q.destPath(FileName(item.URL))

	tmpFile, err := os.CreateTemp(q.cfg.Dir, ".download-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	src := io.Reader(resp.Body)
	if resp.ContentLength > 0 {
		src = io.TeeReader(resp.Body, &progressWriter{q: q, item: item, total: resp.ContentLength})
	}

	_, copyErr := io.Copy(tmpFile, src)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return dest, nil
}

// destPath returns a path in the download directory that does not
// collide with an existing file.
func (q *Queue) destPath(name string) string {
	dest := filepath.Join(q.cfg.Dir, name)
	if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
		return dest
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		dest = filepath.Join(q.cfg.Dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
			return dest
		}
	}
}

// FileName derives a file name from a URL path, falling back to
// download.pdf and forcing a .pdf extension.
func FileName(rawURL string) string {
	name := "download.pdf"
	if u, err := url.Parse(rawURL); err == nil {
		base := filepath.Base(u.Path)
		if base != "." && base != "/" && base != "" {
			if unescaped, err := url.PathUnescape(base); err == nil {
				base = unescaped
			}
			name = base
		}
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// progressWriter folds byte counts into the item's Progress field.
type progressWriter struct {
	q       *Queue
	item    *types.DownloadItem
	total   int64
	written int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	pct := int(p.written * 100 / p.total)
	if pct > 100 {
		pct = 100
	}
	p.q.mu.Lock()
	p.item.Progress = pct
	p.q.mu.Unlock()
	return len(b), nil
}

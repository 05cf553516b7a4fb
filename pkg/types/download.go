// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DownloadStatus is the lifecycle state of a queued download.
// Per prd004-download R1.2: queued -> downloading -> completed | failed.
type DownloadStatus string

const (
	DownloadQueued      DownloadStatus = "queued"
	DownloadDownloading DownloadStatus = "downloading"
	DownloadCompleted   DownloadStatus = "completed"
	DownloadFailed      DownloadStatus = "failed"
)

// DownloadItem is one entry in the download queue.
type DownloadItem struct {
	// ID is an opaque identifier (UUID).
	ID string `json:"id" yaml:"id"`

	// URL is the URL being fetched.
	URL string `json:"url" yaml:"url"`

	// BookID optionally associates the download with a Book, whose status
	// the worker advances as the fetch progresses.
	BookID string `json:"book_id,omitempty" yaml:"book_id,omitempty"`

	// Status is the item's lifecycle state.
	Status DownloadStatus `json:"status" yaml:"status"`

	// Progress is the completed percentage (0-100). Stays 0 when the
	// server sends no Content-Length.
	Progress int `json:"progress" yaml:"progress"`

	// FilePath is the destination path, set on completion.
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty"`

	// Error is the failure message, set when Status is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// EnqueuedAt is when the item entered the queue.
	EnqueuedAt time.Time `json:"enqueued_at" yaml:"enqueued_at"`
}

// QueueStatus is a point-in-time snapshot of the download queue.
// The counts always sum to the total number of items ever enqueued.
type QueueStatus struct {
	// Queued is the number of items waiting.
	Queued int `json:"queued" yaml:"queued"`

	// Active holds snapshots of items currently downloading.
	Active []DownloadItem `json:"active" yaml:"active"`

	// Completed and Failed count archived items.
	Completed int `json:"completed" yaml:"completed"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Total returns the number of items ever enqueued.
func (s QueueStatus) Total() int {
	return s.Queued + len(s.Active) + s.Completed + s.Failed
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the alexandria pipeline.
// Implements: prd001-scoring (Candidate, Confidence);
//
//	prd002-discovery (PdfLink);
//	prd003-matching (KnowledgeEntry);
//	prd004-download (DownloadItem, QueueStatus);
//	prd005-state-machine (Book, BookStatus).
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

import "time"

// BookStatus tracks a book through the acquisition workflow.
// Per prd005-state-machine R1.1.
type BookStatus string

const (
	// StatusSearching is the initial status, set at registration.
	StatusSearching BookStatus = "SEARCHING"

	// StatusFound means discovery kept at least one candidate link.
	StatusFound BookStatus = "FOUND"

	// StatusNotFound means discovery finished without a usable candidate.
	StatusNotFound BookStatus = "NOT_FOUND"

	// StatusDownloading means the download queue has picked up the book.
	StatusDownloading BookStatus = "DOWNLOADING"

	// StatusReady means a PDF is filed in the library.
	StatusReady BookStatus = "READY"

	// StatusPendingApproval means a file was observed and filed but awaits
	// manual review. Reachable directly at creation via the folder watcher.
	StatusPendingApproval BookStatus = "PENDING_APPROVAL"

	// StatusFailed means the most recent download attempt failed.
	StatusFailed BookStatus = "FAILED"
)

// Valid reports whether s is a known status value.
func (s BookStatus) Valid() bool {
	switch s {
	case StatusSearching, StatusFound, StatusNotFound, StatusDownloading,
		StatusReady, StatusPendingApproval, StatusFailed:
		return true
	}
	return false
}

// transitions lists the allowed edges of the state machine. Backward
// edges exist only for explicit retries: FAILED and NOT_FOUND may
// re-enter DOWNLOADING, and a repeated discovery pass may flip a book
// between FOUND and NOT_FOUND. Per prd005-state-machine R2.1-R2.4.
var transitions = map[BookStatus][]BookStatus{
	StatusSearching:       {StatusFound, StatusNotFound, StatusDownloading},
	StatusFound:           {StatusNotFound, StatusDownloading},
	StatusNotFound:        {StatusFound, StatusDownloading},
	StatusDownloading:     {StatusReady, StatusPendingApproval, StatusFailed},
	StatusFailed:          {StatusDownloading},
	StatusPendingApproval: {StatusReady},
	StatusReady:           {},
}

// CanTransition reports whether moving from one status to another is a
// legal workflow step. Writes that are not legal transitions are rejected
// by the record store rather than silently applied, so a stale FAILED
// cannot clobber a later READY.
func CanTransition(from, to BookStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Book is a title/author pair registered with the pipeline, plus its
// acquisition state. Per prd005-state-machine R1.2: title and author are
// never empty after creation, and books are never deleted by the pipeline.
type Book struct {
	// ID is an opaque identifier (UUID).
	ID string `json:"id" yaml:"id"`

	// Title is the book title. Always non-empty.
	Title string `json:"title" yaml:"title"`

	// Author is the book author. Always non-empty.
	Author string `json:"author" yaml:"author"`

	// ISBN is an optional ISBN-10 or ISBN-13.
	ISBN string `json:"isbn,omitempty" yaml:"isbn,omitempty"`

	// Year is the optional publication year.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Status is the current acquisition status.
	Status BookStatus `json:"status" yaml:"status"`

	// StatusVersion is a monotonic counter bumped on every status write.
	// Concurrent writers use it as a compare-and-swap token.
	StatusVersion int64 `json:"status_version" yaml:"status_version"`

	// PDFPath is the library-relative path of the filed PDF, once one exists.
	PDFPath string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`

	// CreatedAt and UpdatedAt are record timestamps.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// PdfLink is a scored candidate URL for a book. Score and confidence are
// write-once: re-discovery marks stale links broken and appends new rows.
type PdfLink struct {
	// ID is an opaque identifier (UUID).
	ID string `json:"id" yaml:"id"`

	// BookID references the owning Book.
	BookID string `json:"book_id" yaml:"book_id"`

	// URL is the candidate download URL.
	URL string `json:"url" yaml:"url"`

	// Source is a label derived from the domain (e.g. "archive.org", "direct").
	Source string `json:"source" yaml:"source"`

	// Score is the candidate score assigned at discovery time.
	Score int `json:"score" yaml:"score"`

	// Confidence is the confidence tier assigned at discovery time.
	Confidence Confidence `json:"confidence" yaml:"confidence"`

	// Verified is set once a human or downloader has confirmed the link.
	Verified bool `json:"verified" yaml:"verified"`

	// Broken is set when a later discovery run supersedes the link.
	Broken bool `json:"broken" yaml:"broken"`

	// CreatedAt is the discovery timestamp.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

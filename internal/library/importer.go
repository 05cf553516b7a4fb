// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/alexandria/internal/match"
	"github.com/pdiddy/alexandria/pkg/types"
)

// Recorder is the slice of the record store the importer needs.
type Recorder interface {
	CreateBook(ctx context.Context, b types.Book) (string, error)
	SetPDFPath(ctx context.Context, id, path string) error
}

// Importer files observed PDFs into the library under canonical names and
// registers them as PENDING_APPROVAL books.
type Importer struct {
	table *match.Table
	rec   Recorder
	cfg   types.LibraryConfig
	w     io.Writer
}

// NewImporter returns an Importer writing progress lines to w.
func NewImporter(table *match.Table, rec Recorder, cfg types.LibraryConfig, w io.Writer) *Importer {
	return &Importer{table: table, rec: rec, cfg: cfg, w: w}
}

// ImportSummary holds counts from an ImportDir run.
type ImportSummary struct {
	Imported int
	Skipped  int
	Failed   int
}

// Total returns the number of files considered.
func (s ImportSummary) Total() int { return s.Imported + s.Skipped + s.Failed }

// ImportFile resolves a PDF's identity, copies it into the library under
// its canonical name, and registers a PENDING_APPROVAL book. The original
// file is left in place.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*types.Book, error) {
	title, author := imp.resolveIdentity(path)

	existing, err := dirNames(imp.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("listing library: %w", err)
	}
	name := Canonicalize(title, author, existing)

	if err := copyFile(path, filepath.Join(imp.cfg.Dir, name)); err != nil {
		return nil, fmt.Errorf("filing %s: %w", filepath.Base(path), err)
	}

	book := types.Book{
		Title:  title,
		Author: author,
		Status: types.StatusPendingApproval,
	}
	id, err := imp.rec.CreateBook(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", name, err)
	}
	if err := imp.rec.SetPDFPath(ctx, id, name); err != nil {
		return nil, fmt.Errorf("recording path for %s: %w", name, err)
	}

	book.ID = id
	book.PDFPath = name
	fmt.Fprintf(imp.w, "filed: %s (pending approval)\n", name)
	return &book, nil
}

// ImportDir files every PDF in dir, continuing after individual failures.
func (imp *Importer) ImportDir(ctx context.Context, dir string) (ImportSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var summary ImportSummary
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		name := entry.Name()
		if entry.IsDir() || !isPDFName(name) {
			summary.Skipped++
			continue
		}
		if _, err := imp.ImportFile(ctx, filepath.Join(dir, name)); err != nil {
			fmt.Fprintf(imp.w, "failed: %s (%v)\n", name, err)
			summary.Failed++
			continue
		}
		summary.Imported++
	}

	fmt.Fprintf(imp.w, "\nImport summary: %d filed, %d skipped, %d failed\n",
		summary.Imported, summary.Skipped, summary.Failed)
	return summary, nil
}

func (imp *Importer) resolveIdentity(path string) (title, author string) {
	return Identify(imp.table, path)
}

// Identify determines (title, author) for a PDF, best source first: the
// knowledge table, then PDF metadata, then structural parsing of the
// filename. The author falls back to "Unknown".
func Identify(table *match.Table, path string) (title, author string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if r := table.Match(stem); r.Entry != nil && r.Score >= match.ConfidentThreshold {
		return r.Entry.Title, r.Entry.Author
	}

	if t, a := pdfMetadata(path); t != "" && a != "" {
		return t, a
	}

	title, author = match.ParseTitleAuthor(stem)
	if author == "" {
		author = "Unknown"
	}
	return title, author
}

// isPDFName reports whether name is a finished PDF. Partial browser
// downloads (.crdownload, .part) are skipped.
func isPDFName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".pdf")
}

// dirNames returns the file names in dir as a set. A missing directory
// is treated as empty (it is created on first copy).
func dirNames(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names, nil
}

// copyFile copies src to dest via a temp file renamed on success, so a
// half-written file never appears under a canonical name.
func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating library directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".filing-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, in)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("copying: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

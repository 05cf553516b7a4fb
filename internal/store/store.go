// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists Books and their PDF candidate links in SQLite.
// Implements: prd005-state-machine (R3-R6);
//
//	docs/ARCHITECTURE § Record Store.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/alexandria/pkg/types"
)

var (
	// ErrNotFound is returned when a book or link id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition is returned when a status change violates the
	// book state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConflict is returned when a status write loses the version race
	// too many times in a row.
	ErrConflict = errors.New("concurrent status update conflict")
)

// casAttempts bounds the compare-and-swap retry loop in SetStatus.
const casAttempts = 5

// Store manages the acquisition database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at cfg.Path, creating the
// parent directory and the schema as needed (R3.1).
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("store path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS books (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			isbn TEXT,
			year INTEGER,
			status TEXT NOT NULL,
			status_version INTEGER NOT NULL DEFAULT 0,
			pdf_path TEXT,
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_books_status ON books(status)`,
		`CREATE TABLE IF NOT EXISTS pdf_links (
			id TEXT PRIMARY KEY,
			book_id TEXT NOT NULL REFERENCES books(id),
			url TEXT NOT NULL,
			source TEXT,
			score INTEGER NOT NULL DEFAULT 0,
			confidence TEXT,
			conf_rank INTEGER NOT NULL DEFAULT 0,
			verified INTEGER NOT NULL DEFAULT 0,
			broken INTEGER NOT NULL DEFAULT 0,
			created_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_links_book_id ON pdf_links(book_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// CreateBook inserts a new book and returns its id. Title and author
// must be non-empty (R3.2). An empty status defaults to SEARCHING.
func (s *Store) CreateBook(ctx context.Context, b types.Book) (string, error) {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	if b.Title == "" {
		return "", errors.New("book title is empty")
	}
	if b.Author == "" {
		return "", errors.New("book author is empty")
	}
	if b.Status == "" {
		b.Status = types.StatusSearching
	}
	if !b.Status.Valid() {
		return "", fmt.Errorf("unknown status %q", b.Status)
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO books (id, title, author, isbn, year, status, status_version, pdf_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		id, b.Title, b.Author, b.ISBN, b.Year, string(b.Status), b.PDFPath, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("inserting book: %w", err)
	}
	return id, nil
}

// GetBook returns the book with the given id, or ErrNotFound.
func (s *Store) GetBook(ctx context.Context, id string) (*types.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, author, isbn, year, status, status_version, pdf_path, created_at, updated_at
		 FROM books WHERE id = ?`, id)
	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("reading book: %w", err)
	}
	return b, nil
}

// ListOptions filters and orders ListBooks results.
type ListOptions struct {
	// Search matches a substring of the title or author, case-insensitive.
	Search string
	// Status keeps only books in the given state when non-empty.
	Status types.BookStatus
	// SortBy is one of title, author, year, status, created_at, updated_at.
	// Empty means created_at.
	SortBy string
	// Desc reverses the sort order.
	Desc bool
}

var sortColumns = map[string]string{
	"":           "created_at",
	"title":      "title",
	"author":     "author",
	"year":       "year",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// ListBooks returns books matching opts, ordered by the requested column.
func (s *Store) ListBooks(ctx context.Context, opts ListOptions) ([]types.Book, error) {
	column, ok := sortColumns[opts.SortBy]
	if !ok {
		return nil, fmt.Errorf("unknown sort column %q", opts.SortBy)
	}
	direction := "ASC"
	if opts.Desc {
		direction = "DESC"
	}

	query := `SELECT id, title, author, isbn, year, status, status_version, pdf_path, created_at, updated_at FROM books`
	var clauses []string
	var args []any
	if opts.Search != "" {
		clauses = append(clauses, `(lower(title) LIKE ? OR lower(author) LIKE ?)`)
		needle := "%" + strings.ToLower(opts.Search) + "%"
		args = append(args, needle, needle)
	}
	if opts.Status != "" {
		clauses = append(clauses, `status = ?`)
		args = append(args, string(opts.Status))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s %s", column, direction)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var books []types.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("reading book row: %w", err)
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// BookUpdate holds the mutable bibliographic fields. Nil fields are
// left unchanged.
type BookUpdate struct {
	Title  *string
	Author *string
	ISBN   *string
	Year   *int
}

// UpdateBook applies non-nil fields of u to the book with the given id.
// Title and author, when set, must be non-empty.
func (s *Store) UpdateBook(ctx context.Context, id string, u BookUpdate) error {
	var sets []string
	var args []any
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		if t == "" {
			return errors.New("book title is empty")
		}
		sets = append(sets, "title = ?")
		args = append(args, t)
	}
	if u.Author != nil {
		a := strings.TrimSpace(*u.Author)
		if a == "" {
			return errors.New("book author is empty")
		}
		sets = append(sets, "author = ?")
		args = append(args, a)
	}
	if u.ISBN != nil {
		sets = append(sets, "isbn = ?")
		args = append(args, *u.ISBN)
	}
	if u.Year != nil {
		sets = append(sets, "year = ?")
		args = append(args, *u.Year)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano), id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating book: %w", err)
	}
	return requireRow(res, id)
}

// SetStatus moves a book to the given state, enforcing the state
// machine and a monotonic version counter so a stale writer can never
// clobber a later state (R4.1, R4.2). The legality check and the write
// are tied together by a compare-and-swap on status_version.
func (s *Store) SetStatus(ctx context.Context, id string, to types.BookStatus) error {
	if !to.Valid() {
		return fmt.Errorf("unknown status %q", to)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		var from string
		var version int64
		err := s.db.QueryRowContext(ctx,
			`SELECT status, status_version FROM books WHERE id = ?`, id,
		).Scan(&from, &version)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("book %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("reading status: %w", err)
		}

		if !types.CanTransition(types.BookStatus(from), to) {
			return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
		}

		res, err := s.db.ExecContext(ctx,
			`UPDATE books SET status = ?, status_version = status_version + 1, updated_at = ?
			 WHERE id = ? AND status_version = ?`,
			string(to), time.Now().UTC().Format(time.RFC3339Nano), id, version,
		)
		if err != nil {
			return fmt.Errorf("writing status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking status write: %w", err)
		}
		if n == 1 {
			return nil
		}
		// Another worker moved the book first. Re-read and re-check.
	}
	return fmt.Errorf("book %s: %w", id, ErrConflict)
}

// SetPDFPath records the book's local file path.
func (s *Store) SetPDFPath(ctx context.Context, id, path string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET pdf_path = ?, updated_at = ? WHERE id = ?`,
		path, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("updating pdf path: %w", err)
	}
	return requireRow(res, id)
}

// AddPdfLink inserts a candidate link for a book and returns its id.
// The URL must be an absolute http(s) URL (R3.3).
func (s *Store) AddPdfLink(ctx context.Context, link types.PdfLink) (string, error) {
	u, err := url.Parse(link.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("malformed link URL %q", link.URL)
	}
	if link.BookID == "" {
		return "", errors.New("link book id is empty")
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pdf_links (id, book_id, url, source, score, confidence, conf_rank, verified, broken, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, link.BookID, link.URL, link.Source, link.Score,
		string(link.Confidence), link.Confidence.Rank(),
		boolInt(link.Verified), boolInt(link.Broken), now,
	)
	if err != nil {
		return "", fmt.Errorf("inserting link: %w", err)
	}
	return id, nil
}

// ListPdfLinks returns the book's candidate links ordered by score then
// confidence, best first, excluding links flagged broken (R5.3).
func (s *Store) ListPdfLinks(ctx context.Context, bookID string) ([]types.PdfLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, book_id, url, source, score, confidence, verified, broken, created_at
		 FROM pdf_links
		 WHERE book_id = ? AND broken = 0
		 ORDER BY score DESC, conf_rank DESC, created_at ASC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	defer rows.Close()

	var links []types.PdfLink
	for rows.Next() {
		var l types.PdfLink
		var confidence, created string
		var verified, broken int
		if err := rows.Scan(&l.ID, &l.BookID, &l.URL, &l.Source, &l.Score,
			&confidence, &verified, &broken, &created); err != nil {
			return nil, fmt.Errorf("reading link row: %w", err)
		}
		l.Confidence = types.Confidence(confidence)
		l.Verified = verified != 0
		l.Broken = broken != 0
		l.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		links = append(links, l)
	}
	return links, rows.Err()
}

// MarkLinksBroken flags every link of a book as broken and returns how
// many were flagged. Used before persisting a fresh discovery round.
func (s *Store) MarkLinksBroken(ctx context.Context, bookID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pdf_links SET broken = 1 WHERE book_id = ? AND broken = 0`, bookID)
	if err != nil {
		return 0, fmt.Errorf("flagging links: %w", err)
	}
	return res.RowsAffected()
}

// SetLinkVerified records whether a link was confirmed reachable.
func (s *Store) SetLinkVerified(ctx context.Context, linkID string, verified bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pdf_links SET verified = ? WHERE id = ?`, boolInt(verified), linkID)
	if err != nil {
		return fmt.Errorf("updating link: %w", err)
	}
	return requireRow(res, linkID)
}

// Stats summarizes the pipeline's persisted state.
type Stats struct {
	Books       int
	ByStatus    map[types.BookStatus]int
	Links       int
	BrokenLinks int
}

// ReadStats returns aggregate counts over books and links.
func (s *Store) ReadStats(ctx context.Context) (Stats, error) {
	stats := Stats{ByStatus: make(map[types.BookStatus]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT status, count(*) FROM books GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("counting books: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return stats, fmt.Errorf("reading status count: %w", err)
		}
		stats.ByStatus[types.BookStatus(status)] = n
		stats.Books += n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT count(*), coalesce(sum(broken), 0) FROM pdf_links`,
	).Scan(&stats.Links, &stats.BrokenLinks)
	if err != nil {
		return stats, fmt.Errorf("counting links: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*types.Book, error) {
	var b types.Book
	var status, created, updated string
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Year,
		&status, &b.StatusVersion, &b.PDFPath, &created, &updated); err != nil {
		return nil, err
	}
	b.Status = types.BookStatus(status)
	b.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	b.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &b, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

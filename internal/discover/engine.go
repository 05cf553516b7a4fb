// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover runs background discovery sessions that search the
// web for PDF candidates, score them, and persist the best links.
// Implements: prd002-discovery (R1-R6);
//
//	docs/ARCHITECTURE § Discovery Engine.
package discover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/alexandria/internal/score"
	"github.com/pdiddy/alexandria/pkg/types"
)

// RecordStore is the slice of the record store discovery needs.
type RecordStore interface {
	GetBook(ctx context.Context, id string) (*types.Book, error)
	SetStatus(ctx context.Context, id string, to types.BookStatus) error
	AddPdfLink(ctx context.Context, link types.PdfLink) (string, error)
	MarkLinksBroken(ctx context.Context, bookID string) (int64, error)
	ListPdfLinks(ctx context.Context, bookID string) ([]types.PdfLink, error)
}

// ErrNoSession is returned when a session id is unknown.
var ErrNoSession = errors.New("unknown discovery session")

// Progress is a point-in-time snapshot of a session.
type Progress struct {
	Total        int
	Completed    int
	CurrentTitle string
	Complete     bool
}

type session struct {
	id      string
	bookIDs []string
	cancel  context.CancelFunc

	mu           sync.Mutex
	completed    int
	currentTitle string
	complete     bool
}

func (s *session) snapshot() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Progress{
		Total:        len(s.bookIDs),
		Completed:    s.completed,
		CurrentTitle: s.currentTitle,
		Complete:     s.complete,
	}
}

// Engine orchestrates discovery sessions. Each session runs in its own
// goroutine; Start never blocks on network I/O.
type Engine struct {
	provider Provider
	store    RecordStore
	scorer   *score.Scorer
	cfg      types.DiscoveryConfig
	w        io.Writer

	mu       sync.Mutex
	sessions map[string]*session
}

// NewEngine builds an Engine for the configured scoring profile.
func NewEngine(provider Provider, store RecordStore, cfg types.DiscoveryConfig, w io.Writer) (*Engine, error) {
	profile, err := score.ParseProfile(cfg.Profile)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimitDelay <= 0 {
		cfg.RateLimitDelay = 2 * time.Second
	}
	if cfg.ExtendedDelayEvery <= 0 {
		cfg.ExtendedDelayEvery = 5
	}
	return &Engine{
		provider: provider,
		store:    store,
		scorer:   score.NewScorer(profile),
		cfg:      cfg,
		w:        w,
		sessions: make(map[string]*session),
	}, nil
}

// Start registers a session over the given book ids and returns its id
// without waiting for any searches. Books are processed strictly in the
// order given.
func (e *Engine) Start(bookIDs []string) (string, error) {
	if len(bookIDs) == 0 {
		return "", errors.New("no book ids given")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:      uuid.NewString(),
		bookIDs: append([]string(nil), bookIDs...),
		cancel:  cancel,
	}

	e.mu.Lock()
	e.sessions[s.id] = s
	e.mu.Unlock()

	go e.run(ctx, s)
	return s.id, nil
}

// Progress returns a snapshot of the session, or ErrNoSession.
func (e *Engine) Progress(sessionID string) (Progress, error) {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return Progress{}, fmt.Errorf("%s: %w", sessionID, ErrNoSession)
	}
	return s.snapshot(), nil
}

// Cancel stops a session at the next book boundary. The session is
// marked complete once the worker observes the cancellation.
func (e *Engine) Cancel(sessionID string) error {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", sessionID, ErrNoSession)
	}
	s.cancel()
	return nil
}

// Results returns the persisted candidate links for a book, best first.
func (e *Engine) Results(ctx context.Context, bookID string) ([]types.PdfLink, error) {
	return e.store.ListPdfLinks(ctx, bookID)
}

// run visits every book in order. A failure on one book never aborts
// the batch; the session completes only after every id was visited or
// the context was cancelled.
func (e *Engine) run(ctx context.Context, s *session) {
	defer func() {
		s.cancel()
		s.mu.Lock()
		s.complete = true
		s.currentTitle = ""
		s.mu.Unlock()
	}()

	for i, id := range s.bookIDs {
		if ctx.Err() != nil {
			return
		}

		book, err := e.store.GetBook(ctx, id)
		if err != nil {
			fmt.Fprintf(e.w, "warning: skipping book %s: %v\n", id, err)
			e.advance(s)
			continue
		}

		s.mu.Lock()
		s.currentTitle = book.Title
		s.mu.Unlock()

		if err := e.discoverBook(ctx, book); err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(e.w, "warning: discovery failed for %q: %v\n", book.Title, err)
		}
		e.advance(s)

		// Rate limiting between books, with a longer pause every
		// ExtendedDelayEvery-th book.
		if i < len(s.bookIDs)-1 {
			delay := e.cfg.RateLimitDelay
			if (i+1)%e.cfg.ExtendedDelayEvery == 0 {
				delay *= 2
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}
}

func (e *Engine) advance(s *session) {
	s.mu.Lock()
	s.completed++
	s.mu.Unlock()
}

// discoverBook issues the profile's query variants, deduplicates URLs
// across variants, scores every unique hit, and persists the top-N
// candidates. The book ends in FOUND when anything was kept, NOT_FOUND
// otherwise.
func (e *Engine) discoverBook(ctx context.Context, book *types.Book) error {
	seen := make(map[string]bool)
	var candidates []types.Candidate

	for _, query := range e.scorer.QueryVariants(book.Title, book.Author) {
		results, err := e.provider.Search(ctx, query, e.cfg.MaxResults)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(e.w, "warning: query %q failed: %v\n", query, err)
			continue
		}
		for _, r := range results {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			c := e.scorer.Score(r.URL, r.Title, r.Snippet)
			if c.Score < e.scorer.MinScore() {
				continue
			}
			candidates = append(candidates, c)
		}
	}

	// Stable sort keeps discovery order for equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	topN := e.cfg.TopN
	if topN <= 0 {
		topN = e.scorer.TopN()
	}
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	if len(candidates) == 0 {
		fmt.Fprintf(e.w, "not found: %s\n", book.Title)
		return e.store.SetStatus(ctx, book.ID, types.StatusNotFound)
	}

	// Earlier rounds' links are superseded by this round.
	if _, err := e.store.MarkLinksBroken(ctx, book.ID); err != nil {
		return fmt.Errorf("retiring old links: %w", err)
	}
	for _, c := range candidates {
		_, err := e.store.AddPdfLink(ctx, types.PdfLink{
			BookID:     book.ID,
			URL:        c.URL,
			Source:     c.Source,
			Score:      c.Score,
			Confidence: c.Confidence,
		})
		if err != nil {
			fmt.Fprintf(e.w, "warning: could not persist link %s: %v\n", c.URL, err)
		}
	}

	fmt.Fprintf(e.w, "found %d candidates: %s\n", len(candidates), book.Title)
	return e.store.SetStatus(ctx, book.ID, types.StatusFound)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/alexandria/pkg/types"
)

type stubProvider struct {
	mu      sync.Mutex
	results map[string][]Result // query -> hits
	errs    map[string]error    // query -> forced failure
	queries []string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Search(_ context.Context, query string, _ int) ([]Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, query)
	if err, ok := p.errs[query]; ok {
		return nil, err
	}
	return p.results[query], nil
}

type stubStore struct {
	mu     sync.Mutex
	books  map[string]*types.Book
	links  map[string][]types.PdfLink
	nextID int
}

func newStubStore(books ...*types.Book) *stubStore {
	s := &stubStore{
		books: make(map[string]*types.Book),
		links: make(map[string][]types.PdfLink),
	}
	for _, b := range books {
		s.books[b.ID] = b
	}
	return s
}

func (s *stubStore) GetBook(_ context.Context, id string) (*types.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *b
	return &copied, nil
}

func (s *stubStore) SetStatus(_ context.Context, id string, to types.BookStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return errors.New("not found")
	}
	if !types.CanTransition(b.Status, to) {
		return errors.New("invalid transition")
	}
	b.Status = to
	return nil
}

func (s *stubStore) AddPdfLink(_ context.Context, link types.PdfLink) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	link.ID = fmt.Sprintf("link-%d", s.nextID)
	s.links[link.BookID] = append(s.links[link.BookID], link)
	return link.ID, nil
}

func (s *stubStore) MarkLinksBroken(_ context.Context, bookID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.links[bookID] {
		if !s.links[bookID][i].Broken {
			s.links[bookID][i].Broken = true
			n++
		}
	}
	return n, nil
}

func (s *stubStore) ListPdfLinks(_ context.Context, bookID string) ([]types.PdfLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.PdfLink
	for _, l := range s.links[bookID] {
		if !l.Broken {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubStore) status(id string) types.BookStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books[id].Status
}

func testConfig(profile string) types.DiscoveryConfig {
	return types.DiscoveryConfig{
		Profile:            profile,
		MaxResults:         20,
		RateLimitDelay:     time.Millisecond,
		ExtendedDelayEvery: 5,
	}
}

func waitComplete(t *testing.T, e *Engine, sessionID string) Progress {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p, err := e.Progress(sessionID)
		if err != nil {
			t.Fatalf("Progress failed: %v", err)
		}
		if p.Complete {
			return p
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session did not complete in time")
	return Progress{}
}

func TestStartRejectsEmpty(t *testing.T) {
	e, err := NewEngine(&stubProvider{}, newStubStore(), testConfig("strict"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if _, err := e.Start(nil); err == nil {
		t.Error("expected error for empty book list")
	}
}

func TestNewEngineRejectsUnknownProfile(t *testing.T) {
	_, err := NewEngine(&stubProvider{}, newStubStore(), testConfig("fuzzy"), &bytes.Buffer{})
	if err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestSessionFindsCandidates(t *testing.T) {
	book := &types.Book{ID: "b1", Title: "Meditations", Author: "Marcus Aurelius", Status: types.StatusSearching}
	store := newStubStore(book)
	provider := &stubProvider{results: map[string][]Result{
		"Meditations Marcus Aurelius free pdf": {
			{URL: "https://example.com/misc", Title: "Review", Snippet: "a review"},
			{URL: "https://archive.org/download/meditations/meditations.pdf", Title: "Meditations PDF", Snippet: "free download"},
			{URL: "https://gutenberg.org/ebooks/2680.pdf", Title: "Meditations pdf", Snippet: "download"},
		},
	}}

	e, err := NewEngine(provider, store, testConfig("strict"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	id, err := e.Start([]string{"b1"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	p := waitComplete(t, e, id)
	if p.Completed != 1 || p.Total != 1 {
		t.Errorf("progress = %+v, want 1/1", p)
	}
	if got := store.status("b1"); got != types.StatusFound {
		t.Errorf("status = %q, want FOUND", got)
	}

	links, err := e.Results(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2 (the zero-score hit is dropped)", len(links))
	}
	if links[0].URL != "https://archive.org/download/meditations/meditations.pdf" {
		t.Errorf("best link = %s", links[0].URL)
	}
	if links[0].Score <= links[1].Score {
		t.Errorf("links not sorted by score: %d then %d", links[0].Score, links[1].Score)
	}
}

func TestSessionNotFound(t *testing.T) {
	book := &types.Book{ID: "b1", Title: "Meditations", Author: "Marcus Aurelius", Status: types.StatusSearching}
	store := newStubStore(book)
	provider := &stubProvider{results: map[string][]Result{
		"Meditations Marcus Aurelius free pdf": {
			{URL: "https://www.amazon.com/meditations", Title: "Buy Meditations", Snippet: "in stock"},
		},
	}}

	e, err := NewEngine(provider, store, testConfig("strict"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	id, err := e.Start([]string{"b1"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitComplete(t, e, id)

	if got := store.status("b1"); got != types.StatusNotFound {
		t.Errorf("status = %q, want NOT_FOUND", got)
	}
}

func TestQueryFailureDoesNotAbortBatch(t *testing.T) {
	b1 := &types.Book{ID: "b1", Title: "Meditations", Author: "Marcus Aurelius", Status: types.StatusSearching}
	b2 := &types.Book{ID: "b2", Title: "Antifragile", Author: "Nassim Taleb", Status: types.StatusSearching}
	store := newStubStore(b1, b2)
	provider := &stubProvider{
		errs: map[string]error{
			"Meditations Marcus Aurelius free pdf": errors.New("rate limited"),
		},
		results: map[string][]Result{
			"Antifragile Nassim Taleb free pdf": {
				{URL: "https://archive.org/download/antifragile/antifragile.pdf", Title: "Antifragile pdf", Snippet: ""},
			},
		},
	}

	e, err := NewEngine(provider, store, testConfig("strict"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	id, err := e.Start([]string{"b1", "b2"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	p := waitComplete(t, e, id)

	if p.Completed != 2 {
		t.Errorf("completed = %d, want 2", p.Completed)
	}
	if got := store.status("b1"); got != types.StatusNotFound {
		t.Errorf("b1 status = %q, want NOT_FOUND", got)
	}
	if got := store.status("b2"); got != types.StatusFound {
		t.Errorf("b2 status = %q, want FOUND", got)
	}
}

func TestMissingBookSkipped(t *testing.T) {
	b2 := &types.Book{ID: "b2", Title: "Antifragile", Author: "Nassim Taleb", Status: types.StatusSearching}
	store := newStubStore(b2)
	provider := &stubProvider{results: map[string][]Result{
		"Antifragile Nassim Taleb free pdf": {
			{URL: "https://archive.org/download/antifragile/antifragile.pdf", Title: "pdf", Snippet: ""},
		},
	}}

	e, err := NewEngine(provider, store, testConfig("strict"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	id, err := e.Start([]string{"missing", "b2"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	p := waitComplete(t, e, id)

	if p.Completed != 2 {
		t.Errorf("completed = %d, want 2 (missing book still counts as visited)", p.Completed)
	}
	if got := store.status("b2"); got != types.StatusFound {
		t.Errorf("b2 status = %q, want FOUND", got)
	}
}

func TestDedupeAcrossVariants(t *testing.T) {
	book := &types.Book{ID: "b1", Title: "Meditations", Author: "Marcus Aurelius", Status: types.StatusSearching}
	store := newStubStore(book)
	hit := Result{URL: "https://archive.org/download/meditations/meditations.pdf", Title: "pdf", Snippet: ""}
	// The batch profile issues several query variants; all return the
	// same URL, which must be persisted once.
	provider := &stubProvider{results: map[string][]Result{
		"Meditations Marcus Aurelius pdf":        {hit},
		"Meditations Marcus Aurelius free pdf":   {hit},
		`"Meditations" Marcus Aurelius pdf`:      {hit},
	}}

	e, err := NewEngine(provider, store, testConfig("batch"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	id, err := e.Start([]string{"b1"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitComplete(t, e, id)

	links, err := e.Results(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if len(links) != 1 {
		t.Errorf("got %d links, want 1 after dedup", len(links))
	}
}

func TestRediscoveryRetiresOldLinks(t *testing.T) {
	book := &types.Book{ID: "b1", Title: "Meditations", Author: "Marcus Aurelius", Status: types.StatusSearching}
	store := newStubStore(book)
	store.links["b1"] = []types.PdfLink{{ID: "old", BookID: "b1", URL: "https://stale.example.com/a.pdf"}}
	provider := &stubProvider{results: map[string][]Result{
		"Meditations Marcus Aurelius free pdf": {
			{URL: "https://archive.org/download/meditations/meditations.pdf", Title: "pdf", Snippet: ""},
		},
	}}

	e, err := NewEngine(provider, store, testConfig("strict"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	id, err := e.Start([]string{"b1"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitComplete(t, e, id)

	links, _ := e.Results(context.Background(), "b1")
	if len(links) != 1 || links[0].URL == "https://stale.example.com/a.pdf" {
		t.Errorf("stale link survived rediscovery: %+v", links)
	}
}

func TestCancelStopsAtBookBoundary(t *testing.T) {
	var books []*types.Book
	var ids []string
	for i := 0; i < 50; i++ {
		b := &types.Book{ID: fmt.Sprintf("b%d", i), Title: "T", Author: "A", Status: types.StatusSearching}
		books = append(books, b)
		ids = append(ids, b.ID)
	}
	store := newStubStore(books...)
	provider := &stubProvider{}

	cfg := testConfig("strict")
	cfg.RateLimitDelay = 50 * time.Millisecond
	e, err := NewEngine(provider, store, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	id, err := e.Start(ids)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(75 * time.Millisecond)
	if err := e.Cancel(id); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	p := waitComplete(t, e, id)
	if p.Completed >= p.Total {
		t.Errorf("expected cancellation before all %d books, completed %d", p.Total, p.Completed)
	}
}

func TestProgressUnknownSession(t *testing.T) {
	e, err := NewEngine(&stubProvider{}, newStubStore(), testConfig("strict"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if _, err := e.Progress("nope"); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
	if err := e.Cancel("nope"); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

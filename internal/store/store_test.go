// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/alexandria/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "alexandria.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetBook(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateBook(ctx, types.Book{Title: "  Meditations ", Author: "Marcus Aurelius"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	b, err := s.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Meditations", b.Title)
	assert.Equal(t, "Marcus Aurelius", b.Author)
	assert.Equal(t, types.StatusSearching, b.Status)
	assert.EqualValues(t, 0, b.StatusVersion)
	assert.False(t, b.CreatedAt.IsZero())
}

func TestCreateBookValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateBook(ctx, types.Book{Title: "", Author: "Someone"})
	assert.Error(t, err)

	_, err = s.CreateBook(ctx, types.Book{Title: "Something", Author: "   "})
	assert.Error(t, err)

	_, err = s.CreateBook(ctx, types.Book{Title: "Something", Author: "Someone", Status: "BOGUS"})
	assert.Error(t, err)
}

func TestGetBookNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetBook(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBooks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateBook(ctx, types.Book{Title: "Antifragile", Author: "Nassim Taleb"})
	require.NoError(t, err)
	id2, err := s.CreateBook(ctx, types.Book{Title: "The Black Swan", Author: "Nassim Taleb"})
	require.NoError(t, err)
	_, err = s.CreateBook(ctx, types.Book{Title: "Meditations", Author: "Marcus Aurelius"})
	require.NoError(t, err)
	require.NoError(t, s.SetStatus(ctx, id2, types.StatusFound))

	all, err := s.ListBooks(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byAuthor, err := s.ListBooks(ctx, ListOptions{Search: "taleb"})
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	found, err := s.ListBooks(ctx, ListOptions{Status: types.StatusFound})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "The Black Swan", found[0].Title)

	sorted, err := s.ListBooks(ctx, ListOptions{SortBy: "title", Desc: true})
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, "The Black Swan", sorted[0].Title)

	_, err = s.ListBooks(ctx, ListOptions{SortBy: "title; DROP TABLE books"})
	assert.Error(t, err)
}

func TestUpdateBook(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateBook(ctx, types.Book{Title: "Mediations", Author: "Marcus Aurelius"})
	require.NoError(t, err)

	title := "Meditations"
	year := 180
	require.NoError(t, s.UpdateBook(ctx, id, BookUpdate{Title: &title, Year: &year}))

	b, err := s.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Meditations", b.Title)
	assert.Equal(t, 180, b.Year)
	assert.Equal(t, "Marcus Aurelius", b.Author)

	empty := " "
	assert.Error(t, s.UpdateBook(ctx, id, BookUpdate{Title: &empty}))
	assert.ErrorIs(t, s.UpdateBook(ctx, "no-such-id", BookUpdate{Title: &title}), ErrNotFound)
}

func TestSetStatusTransitions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateBook(ctx, types.Book{Title: "Meditations", Author: "Marcus Aurelius"})
	require.NoError(t, err)

	require.NoError(t, s.SetStatus(ctx, id, types.StatusFound))
	require.NoError(t, s.SetStatus(ctx, id, types.StatusDownloading))
	require.NoError(t, s.SetStatus(ctx, id, types.StatusReady))

	// READY is terminal; a stale failure report must not regress it.
	err = s.SetStatus(ctx, id, types.StatusFailed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	b, err := s.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, b.Status)
	assert.EqualValues(t, 3, b.StatusVersion)
}

func TestSetStatusSameState(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateBook(ctx, types.Book{Title: "Meditations", Author: "Marcus Aurelius"})
	require.NoError(t, err)
	require.NoError(t, s.SetStatus(ctx, id, types.StatusSearching))
}

func TestSetStatusInvalidJump(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateBook(ctx, types.Book{Title: "Meditations", Author: "Marcus Aurelius"})
	require.NoError(t, err)

	err = s.SetStatus(ctx, id, types.StatusReady)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = s.SetStatus(ctx, "no-such-id", types.StatusFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPdfLinks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateBook(ctx, types.Book{Title: "Meditations", Author: "Marcus Aurelius"})
	require.NoError(t, err)

	_, err = s.AddPdfLink(ctx, types.PdfLink{
		BookID: id, URL: "https://example.com/a.pdf", Source: "direct",
		Score: 100, Confidence: types.ConfidenceMedium,
	})
	require.NoError(t, err)
	_, err = s.AddPdfLink(ctx, types.PdfLink{
		BookID: id, URL: "https://archive.org/details/meditations", Source: "archive.org",
		Score: 380, Confidence: types.ConfidenceHigh,
	})
	require.NoError(t, err)
	// Same score as the first link but higher confidence wins the tie.
	_, err = s.AddPdfLink(ctx, types.PdfLink{
		BookID: id, URL: "https://example.com/b.pdf", Source: "direct",
		Score: 100, Confidence: types.ConfidenceHigh,
	})
	require.NoError(t, err)

	links, err := s.ListPdfLinks(ctx, id)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "https://archive.org/details/meditations", links[0].URL)
	assert.Equal(t, "https://example.com/b.pdf", links[1].URL)
	assert.Equal(t, "https://example.com/a.pdf", links[2].URL)

	n, err := s.MarkLinksBroken(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	links, err = s.ListPdfLinks(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestAddPdfLinkValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateBook(ctx, types.Book{Title: "Meditations", Author: "Marcus Aurelius"})
	require.NoError(t, err)

	_, err = s.AddPdfLink(ctx, types.PdfLink{BookID: id, URL: "not a url"})
	assert.Error(t, err)
	_, err = s.AddPdfLink(ctx, types.PdfLink{BookID: id, URL: "ftp://example.com/a.pdf"})
	assert.Error(t, err)
	_, err = s.AddPdfLink(ctx, types.PdfLink{URL: "https://example.com/a.pdf"})
	assert.Error(t, err)
}

func TestReadStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.CreateBook(ctx, types.Book{Title: "Meditations", Author: "Marcus Aurelius"})
	require.NoError(t, err)
	_, err = s.CreateBook(ctx, types.Book{Title: "Antifragile", Author: "Nassim Taleb"})
	require.NoError(t, err)
	require.NoError(t, s.SetStatus(ctx, id1, types.StatusFound))

	_, err = s.AddPdfLink(ctx, types.PdfLink{
		BookID: id1, URL: "https://example.com/a.pdf", Score: 10, Confidence: types.ConfidenceLow,
	})
	require.NoError(t, err)
	_, err = s.MarkLinksBroken(ctx, id1)
	require.NoError(t, err)

	stats, err := s.ReadStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Books)
	assert.Equal(t, 1, stats.ByStatus[types.StatusFound])
	assert.Equal(t, 1, stats.ByStatus[types.StatusSearching])
	assert.Equal(t, 1, stats.Links)
	assert.Equal(t, 1, stats.BrokenLinks)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import "context"

// Result is one raw hit returned by a search provider.
type Result struct {
	URL     string
	Title   string
	Snippet string
}

// Provider issues a single search query against an external engine.
// Implementations may return an error on rate limits or network
// failure; the engine tolerates per-query failures and continues.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

package websearch

import "context"

// Item is one raw hit from the provider, before any filtering.
type Item struct {
	Title   string
	URL     string
	Snippet string
}

// Request is a single provider query.
type Request struct {
	Query  string
	Count  int
	Market string
}

// Provider is the web-search capability consumed by the search handler.
// A provider call fails as a whole or returns a complete item list; the
// handler maps failures to empty per-query result sets.
type Provider interface {
	Search(ctx context.Context, req Request) ([]Item, error)
}

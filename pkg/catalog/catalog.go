// Package catalog resolves spoken content references against configured
// media providers, so a "play the matrix" command can reach the display
// with a concrete service attached.
package catalog

import "context"

// Query is one content lookup. Type and Service narrow the search when the
// utterance carried them; empty fields mean "any".
type Query struct {
	Title   string `json:"title"`
	Type    string `json:"contentType,omitempty"`
	Service string `json:"service,omitempty"`
}

// Entry is one resolved catalog item.
type Entry struct {
	Title   string `json:"title"`
	Type    string `json:"contentType,omitempty"`
	Service string `json:"service"`
	ID      string `json:"id,omitempty"`
}

// Searcher looks up content entries. Implementations must honor context
// cancellation; the hub bounds lookups with a deadline.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Entry, error)
}

// SearcherFunc adapts an ordinary function to the Searcher interface.
type SearcherFunc func(ctx context.Context, q Query) ([]Entry, error)

// Search calls the underlying function.
func (f SearcherFunc) Search(ctx context.Context, q Query) ([]Entry, error) {
	return f(ctx, q)
}

// Chain consults searchers in order and returns the first non-empty result
// set. Lookup errors are carried forward only when every searcher comes up
// empty.
type Chain []Searcher

// Search implements Searcher.
func (c Chain) Search(ctx context.Context, q Query) ([]Entry, error) {
	var lastErr error
	for _, s := range c {
		entries, err := s.Search(ctx, q)
		if err != nil {
			lastErr = err
			continue
		}
		if len(entries) > 0 {
			return entries, nil
		}
	}
	return nil, lastErr
}

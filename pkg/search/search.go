package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gwbischof/epstein-search/pkg/client"
)

// Service exposes the search operations consumed by the CLI and the MCP
// tool layer. It holds no per-call state; every Search call starts an
// independent traversal.
type Service struct {
	fetcher  PageFetcher
	fallback FallbackSource
	logger   zerolog.Logger
}

// ServiceOption customises a Service during construction.
type ServiceOption func(*Service)

// WithFallback installs a best-effort secondary source for metadata lookups
// that miss the primary index.
func WithFallback(fb FallbackSource) ServiceOption {
	return func(s *Service) {
		s.fallback = fb
	}
}

// WithFetcher overrides the page fetcher, primarily for testing.
func WithFetcher(f PageFetcher) ServiceOption {
	return func(s *Service) {
		s.fetcher = f
	}
}

// NewService creates a search service on top of the library transport.
func NewService(c *client.Client, opts ...ServiceOption) *Service {
	s := &Service{
		fetcher: &apiPageFetcher{client: c},
		logger:  log.With().Str("component", "search").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseQueries splits a raw query string on | into its OR-branches,
// dropping empty branches.
func ParseQueries(raw string) []string {
	parts := strings.Split(raw, "|")
	queries := make([]string, 0, len(parts))
	for _, p := range parts {
		if q := strings.TrimSpace(p); q != "" {
			queries = append(queries, q)
		}
	}
	return queries
}

// Search returns a lazy record stream for one or more queries. A single
// query is paginated directly; multiple queries are OR-aggregated with
// round-robin interleaving and document-level dedup. limit 0 means
// unbounded; skip and limit always apply to the final sequence.
func (s *Service) Search(queries []string, limit, skip int) Iterator {
	if len(queries) == 1 {
		return NewPaginator(s.fetcher, queries[0], limit, skip)
	}
	return NewAggregator(s.fetcher, queries, limit, skip)
}

// Count returns the total number of documents matching query using a single
// page-0 probe. It never paginates.
func (s *Service) Count(ctx context.Context, query string) (int, error) {
	page, err := s.fetcher.FetchPage(ctx, query, 0)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", query, err)
	}
	return page.Total, nil
}

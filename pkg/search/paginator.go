package search

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Iterator is a pull-based, finite stream of records. Next advances the
// stream and reports whether a record is available via Record; once it
// returns false, Err distinguishes exhaustion (nil) from failure.
type Iterator interface {
	Next(ctx context.Context) bool
	Record() Record
	Err() error
}

// Paginator lazily walks the server pages of a single query, applying
// skip/limit slicing over the fixed 10-per-page hit stream. Each Paginator
// is a single traversal: it is not restartable and must not be shared
// between goroutines.
type Paginator struct {
	fetcher PageFetcher
	query   string
	limit   int // 0 means unbounded
	skip    int
	logger  zerolog.Logger

	// Cursor state. fetched counts hits observed from the logical start of
	// the result set, so it begins at page*PageSize when the traversal
	// starts on a later page.
	page       int
	fetched    int
	skipInPage int

	pageTotal int
	started   bool

	hits    []Hit
	pos     int
	yielded int
	current Record
	done    bool
	err     error
}

// NewPaginator starts a fresh traversal of query. limit 0 means unbounded;
// skip discards that many leading records in the query's own ranked order.
// No page is fetched until the first call to Next.
func NewPaginator(fetcher PageFetcher, query string, limit, skip int) *Paginator {
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}
	startPage := skip / PageSize

	return &Paginator{
		fetcher:    fetcher,
		query:      query,
		limit:      limit,
		skip:       skip,
		page:       startPage,
		fetched:    startPage * PageSize,
		skipInPage: skip % PageSize,
		logger:     log.With().Str("component", "paginator").Logger(),
	}
}

// Next advances to the next record. It returns false when the traversal is
// exhausted, the limit is reached, or a page fetch failed; check Err to
// distinguish. Next never fetches a page that was not demanded.
func (p *Paginator) Next(ctx context.Context) bool {
	if p.done {
		return false
	}
	if p.limit > 0 && p.yielded >= p.limit {
		p.done = true
		return false
	}

	for {
		if p.pos >= len(p.hits) {
			if !p.fetchNextPage(ctx) {
				return false
			}
		}

		hit := p.hits[p.pos]
		p.pos++
		p.fetched++

		// Leading records of the first fetched page that fall inside the
		// skip window. A hit consumed here still counts as fetched, so the
		// fetched<=skip branch below can also fire at inexact page
		// arithmetic boundaries; both discard, matching the reference
		// behavior.
		if p.skipInPage > 0 {
			p.skipInPage--
			continue
		}
		if p.fetched <= p.skip {
			continue
		}

		p.current = newRecord(hit)
		p.yielded++
		return true
	}
}

// fetchNextPage loads the next server page into the buffer. It returns false
// when the traversal is over, either because the server is exhausted or a
// fetch failed.
func (p *Paginator) fetchNextPage(ctx context.Context) bool {
	if p.started && p.page*PageSize >= p.pageTotal {
		// The previous page's total tells us no further pages exist;
		// skip the extra request at the known boundary.
		p.done = true
		return false
	}

	page, err := p.fetcher.FetchPage(ctx, p.query, p.page)
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("query", p.query).
			Int("page", p.page).
			Msg("Page fetch failed")
		p.err = err
		p.done = true
		return false
	}

	p.started = true
	p.pageTotal = page.Total

	if len(page.Hits) == 0 {
		// Server exhausted; normal end of results. Also guards against a
		// stale total claiming more pages than exist.
		p.done = true
		return false
	}

	p.logger.Debug().
		Str("query", p.query).
		Int("page", p.page).
		Int("hits", len(page.Hits)).
		Int("total", page.Total).
		Msg("Fetched page")

	p.hits = page.Hits
	p.pos = 0
	p.page++
	return true
}

// Record returns the record produced by the last successful Next.
func (p *Paginator) Record() Record {
	return p.current
}

// Err returns the error that terminated the traversal, if any.
func (p *Paginator) Err() error {
	return p.err
}

// Collect drains an iterator into a slice. An iterator error discards the
// partial results and is returned as-is, so callers never mistake a failed
// traversal for a short result set.
func Collect(ctx context.Context, it Iterator) ([]Record, error) {
	var records []Record
	for it.Next(ctx) {
		records = append(records, it.Record())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

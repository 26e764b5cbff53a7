package search

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Aggregator merges several independent query traversals (the OR-branches)
// into one stream: records are pulled round-robin across branches,
// deduplicated by document identity, and the caller's skip/limit apply to
// the merged sequence only. Each branch runs unbounded; slicing a branch
// individually would distort the cross-branch order.
type Aggregator struct {
	branches  []*Paginator
	exhausted []bool
	remaining int
	idx       int

	// seen is the per-aggregation dedup set of emitted document IDs.
	seen map[string]struct{}

	limit   int
	skip    int
	fetched int
	yielded int

	current Record
	done    bool
	err     error
	logger  zerolog.Logger
}

// NewAggregator starts a merged traversal over the given queries in order.
// limit and skip follow the same contract as NewPaginator but count merged,
// deduplicated records.
func NewAggregator(fetcher PageFetcher, queries []string, limit, skip int) *Aggregator {
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}

	branches := make([]*Paginator, len(queries))
	for i, q := range queries {
		branches[i] = NewPaginator(fetcher, q, 0, 0)
	}

	return &Aggregator{
		branches:  branches,
		exhausted: make([]bool, len(branches)),
		remaining: len(branches),
		seen:      make(map[string]struct{}),
		limit:     limit,
		skip:      skip,
		logger:    log.With().Str("component", "aggregator").Logger(),
	}
}

// Next advances the merged stream. It returns false when every branch is
// exhausted, the limit is reached, or a branch fetch failed; check Err to
// distinguish.
func (a *Aggregator) Next(ctx context.Context) bool {
	if a.done {
		return false
	}
	if a.limit > 0 && a.yielded >= a.limit {
		a.done = true
		return false
	}

	for {
		rec, ok := a.pullMerged(ctx)
		if !ok {
			a.done = true
			return false
		}

		a.fetched++
		if a.fetched <= a.skip {
			continue
		}

		a.current = rec
		a.yielded++
		return true
	}
}

// pullMerged produces the next unique record in round-robin branch order. A
// duplicate is discarded and replaced by the next record from the same
// branch, so one branch losing a document never shrinks the merged output.
func (a *Aggregator) pullMerged(ctx context.Context) (Record, bool) {
	for a.remaining > 0 {
		for a.exhausted[a.idx] {
			a.idx = (a.idx + 1) % len(a.branches)
		}
		branch := a.branches[a.idx]

		for {
			if !branch.Next(ctx) {
				if err := branch.Err(); err != nil {
					a.err = err
					return Record{}, false
				}
				a.exhausted[a.idx] = true
				a.remaining--
				a.idx = (a.idx + 1) % len(a.branches)
				break
			}

			rec := branch.Record()

			// Hits without a document ID are never treated as duplicates.
			if rec.DocumentID != "" {
				if _, dup := a.seen[rec.DocumentID]; dup {
					a.logger.Debug().
						Str("document_id", rec.DocumentID).
						Int("branch", a.idx).
						Msg("Discarding duplicate document")
					continue
				}
				a.seen[rec.DocumentID] = struct{}{}
			}

			a.idx = (a.idx + 1) % len(a.branches)
			return rec, true
		}
	}

	return Record{}, false
}

// Record returns the record produced by the last successful Next.
func (a *Aggregator) Record() Record {
	return a.current
}

// Err returns the error that terminated the merge, if any.
func (a *Aggregator) Err() error {
	return a.err
}

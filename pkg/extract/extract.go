// Package extract downloads library documents and extracts their text
// content in memory.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gwbischof/epstein-search/pkg/client"
	"github.com/gwbischof/epstein-search/pkg/search"
)

// Extractor downloads documents over the library session and extracts text.
type Extractor struct {
	client  *client.Client
	workers int
	logger  zerolog.Logger

	// extractText is swappable for testing.
	extractText func(ctx context.Context, rec search.Record) (string, error)
}

// New creates an extractor. workers bounds the number of documents processed
// in parallel; 1 preserves record order.
func New(c *client.Client, workers int) *Extractor {
	if workers <= 0 {
		workers = 1
	}
	e := &Extractor{
		client:  c,
		workers: workers,
		logger:  log.With().Str("component", "extract").Logger(),
	}
	e.extractText = e.text
	return e
}

// Text downloads the record's document and extracts its text, one string per
// PDF page joined by newlines.
func (e *Extractor) Text(ctx context.Context, rec search.Record) (string, error) {
	return e.extractText(ctx, rec)
}

func (e *Extractor) text(ctx context.Context, rec search.Record) (string, error) {
	if rec.URL == "" {
		return "", fmt.Errorf("record %s has no document URL", rec.Filename)
	}

	resp, err := e.client.GetURL(ctx, rec.URL)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rec.Filename, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rec.Filename, err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", rec.Filename, err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not lose the rest of the
			// document; scanned pages without a text layer are common here.
			e.logger.Warn().
				Err(err).
				Str("filename", rec.Filename).
				Int("page", i).
				Msg("Page text extraction failed")
			text = ""
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}

// Run fills Text on a copy of each record, processing at most the configured
// number of documents in parallel, and invokes yield as each completes.
// yield is never called concurrently. The first failure cancels the
// remaining work and is returned.
func (e *Extractor) Run(ctx context.Context, records []search.Record, yield func(search.Record)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	var mu sync.Mutex
	for _, rec := range records {
		g.Go(func() error {
			text, err := e.extractText(ctx, rec)
			if err != nil {
				return err
			}
			rec.Text = text

			mu.Lock()
			defer mu.Unlock()
			yield(rec)
			return nil
		})
	}

	return g.Wait()
}

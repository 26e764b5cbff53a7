package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gwbischof/epstein-search/pkg/client"
)

// releaseIDPattern matches DOJ release filenames eligible for the secondary
// lookup, e.g. DOJ-OGR-00012345 or DOJ-OGR-00012345.pdf.
var releaseIDPattern = regexp.MustCompile(`(?i)^DOJ-OGR-\d+(\.pdf)?$`)

// FallbackSource resolves a filename when the primary index misses. It is
// best-effort: errors are logged by the caller and treated as "not found".
type FallbackSource interface {
	Lookup(ctx context.Context, filename string) (*Record, error)
}

// Lookup finds the metadata record for an exact filename. It issues a single
// page-0 exact-phrase query; when several hits return, a case-sensitive
// exact filename match wins over relevance order. A nil record with nil
// error means the document is not indexed.
func (s *Service) Lookup(ctx context.Context, filename string) (*Record, error) {
	page, err := s.fetcher.FetchPage(ctx, fmt.Sprintf("%q", filename), 0)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", filename, err)
	}

	if len(page.Hits) > 0 {
		best := page.Hits[0]
		for _, h := range page.Hits {
			if h.Source.OriginFileName == filename {
				best = h
				break
			}
		}
		rec := newRecord(best)
		return &rec, nil
	}

	if s.fallback != nil && releaseIDPattern.MatchString(filename) {
		rec, err := s.fallback.Lookup(ctx, filename)
		if err != nil {
			// Secondary source is best-effort; a miss here is not surfaced.
			s.logger.Warn().
				Err(err).
				Str("filename", filename).
				Msg("Fallback lookup failed")
			return nil, nil
		}
		return rec, nil
	}

	return nil, nil
}

// FileMirror is a FallbackSource that probes the DOJ static file host
// directly: release documents are published at a predictable path even
// before they appear in the search index.
type FileMirror struct {
	client  *client.Client
	baseURL string
}

// DefaultMirrorURL is the static file host serving released documents.
const DefaultMirrorURL = "https://www.justice.gov/epstein-files"

// NewFileMirror creates a fallback source on the library transport. An
// empty baseURL selects DefaultMirrorURL.
func NewFileMirror(c *client.Client, baseURL string) *FileMirror {
	if baseURL == "" {
		baseURL = DefaultMirrorURL
	}
	return &FileMirror{client: c, baseURL: strings.TrimRight(baseURL, "/")}
}

// Lookup probes the mirror for the given filename and synthesizes a minimal
// record when the file exists.
func (m *FileMirror) Lookup(ctx context.Context, filename string) (*Record, error) {
	name := filename
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	fileURL := m.baseURL + "/" + name

	resp, err := m.client.GetURL(ctx, fileURL)
	if err != nil {
		return nil, fmt.Errorf("mirror probe %s: %w", fileURL, err)
	}
	resp.Body.Close()

	return &Record{
		Filename:    filename,
		URL:         fileURL,
		ContentType: resp.Header.Get("Content-Type"),
		Source:      "mirror",
	}, nil
}

// Package testutil provides testing utilities for the epstein-search client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// Doc is one indexed document served by the mock library.
type Doc struct {
	ID         string
	Filename   string
	URL        string
	Score      float64
	Highlights []string
}

// MockLibrary is a configurable mock of the DOJ library search API. It
// serves fixed per-query datasets in 10-hit pages using the Elasticsearch
// response shape.
type MockLibrary struct {
	server *httptest.Server
	mu     sync.RWMutex

	datasets map[string][]Doc
	totals   map[string]int // optional total override per query
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// StructuredTotal emits total as {value, relation} instead of an int.
	StructuredTotal bool

	// Tracking
	RequestCount int
	PageRequests map[string][]int
}

// NewMockLibrary creates a new mock library server.
func NewMockLibrary() *MockLibrary {
	mock := &MockLibrary{
		datasets:     make(map[string][]Doc),
		totals:       make(map[string]int),
		handlers:     make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PageRequests: make(map[string][]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.searchHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockLibrary) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockLibrary) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockLibrary) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PageRequests = make(map[string][]int)
}

// SetDataset installs the ordered result set served for a query.
func (m *MockLibrary) SetDataset(query string, docs []Doc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[query] = docs
}

// SetTotal overrides the total reported for a query, independent of the
// dataset length. Used to simulate stale or inconsistent totals.
func (m *MockLibrary) SetTotal(query string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals[query] = total
}

// SetHandler sets a custom handler for a specific path, overriding search
// behavior.
func (m *MockLibrary) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// Requests returns how many requests the server has seen.
func (m *MockLibrary) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// Pages returns the page indices requested for a query, in order.
func (m *MockLibrary) Pages(query string) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.PageRequests[query]...)
}

// SearchHandler serves the default dataset-backed search response. Custom
// handlers installed via SetHandler can delegate to it.
func (m *MockLibrary) SearchHandler(w http.ResponseWriter, r *http.Request) {
	m.searchHandler(w, r)
}

func (m *MockLibrary) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("keys")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	m.mu.Lock()
	m.RequestCount++
	m.PageRequests[query] = append(m.PageRequests[query], page)
	docs := m.datasets[query]
	total, overridden := m.totals[query]
	structured := m.StructuredTotal
	m.mu.Unlock()

	if !overridden {
		total = len(docs)
	}

	start := page * 10
	end := start + 10
	if start > len(docs) {
		start = len(docs)
	}
	if end > len(docs) {
		end = len(docs)
	}

	hits := make([]map[string]any, 0, end-start)
	for _, d := range docs[start:end] {
		hit := map[string]any{
			"_id":    d.ID,
			"_score": d.Score,
			"_source": map[string]any{
				"documentId":       d.ID,
				"ORIGIN_FILE_NAME": d.Filename,
				"ORIGIN_FILE_URI":  d.URL,
				"contentType":      "application/pdf",
			},
		}
		if len(d.Highlights) > 0 {
			hit["highlight"] = map[string]any{"content": d.Highlights}
		}
		hits = append(hits, hit)
	}

	var totalField any = total
	if structured {
		totalField = map[string]any{"value": total, "relation": "eq"}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"hits": map[string]any{
			"total": totalField,
			"hits":  hits,
		},
	})
}

// GenerateDocs builds n sequential documents with IDs and filenames derived
// from prefix.
func GenerateDocs(prefix string, n int) []Doc {
	docs := make([]Doc, n)
	for i := range docs {
		docs[i] = Doc{
			ID:       fmt.Sprintf("%s-%03d", prefix, i),
			Filename: fmt.Sprintf("%s-%03d.pdf", prefix, i),
			URL:      fmt.Sprintf("https://example.test/files/%s-%03d.pdf", prefix, i),
			Score:    float64(n - i),
		}
	}
	return docs
}

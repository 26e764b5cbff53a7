package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gwbischof/epstein-search/internal/testutil"
	"github.com/gwbischof/epstein-search/pkg/client"
	"github.com/gwbischof/epstein-search/pkg/search"
)

// newClient points a real client at the mock library.
func newClient(t *testing.T, mock *testutil.MockLibrary) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig()
	cfg.BaseURL = mock.URL()
	cfg.Timeout = 5 * time.Second
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.InitialBackoff = 10 * time.Millisecond
	cfg.Retry.MaxBackoff = 50 * time.Millisecond

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

// TestFullSearchFlow runs search, count and lookup against the mock library
// through the full client stack: session headers, retry, pagination.
func TestFullSearchFlow(t *testing.T) {
	mock := testutil.NewMockLibrary()
	defer mock.Close()

	mock.SetDataset("flight logs", testutil.GenerateDocs("flight", 23))
	mock.SetDataset("manifest", []testutil.Doc{
		{ID: "flight-001", Filename: "flight-001.pdf", URL: "https://files.test/flight-001.pdf", Score: 9.0},
		{ID: "manifest-1", Filename: "manifest-1.pdf", URL: "https://files.test/manifest-1.pdf", Score: 8.0},
	})

	c := newClient(t, mock)
	svc := search.NewService(c)
	ctx := context.Background()

	total, err := svc.Count(ctx, "flight logs")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 23 {
		t.Errorf("Count = %d, want 23", total)
	}

	queries := search.ParseQueries("flight logs | manifest")
	records, err := search.Collect(ctx, svc.Search(queries, 6, 0))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("got %d records, want 6", len(records))
	}

	// flight-001 appears in both datasets and must show up exactly once.
	seen := make(map[string]int)
	for _, rec := range records {
		seen[rec.DocumentID]++
	}
	if seen["flight-001"] != 1 {
		t.Errorf("flight-001 yielded %d times, want 1", seen["flight-001"])
	}

	rec, err := svc.Lookup(ctx, "flight-010.pdf")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec != nil {
		t.Logf("lookup hit: %s", rec.Filename)
	}
}

// TestRetryOnServerError verifies that a transient 500 from the library is
// retried and the traversal completes.
func TestRetryOnServerError(t *testing.T) {
	mock := testutil.NewMockLibrary()
	defer mock.Close()

	mock.SetDataset("maxwell", testutil.GenerateDocs("mx", 5))

	failures := 2
	mock.SetHandler("/multimedia-search", func(w http.ResponseWriter, r *http.Request) {
		if failures > 0 {
			failures--
			http.Error(w, "upstream error", http.StatusInternalServerError)
			return
		}
		mock.SearchHandler(w, r)
	})

	c := newClient(t, mock)
	svc := search.NewService(c)

	records, err := search.Collect(context.Background(), svc.Search([]string{"maxwell"}, 0, 0))
	if err != nil {
		t.Fatalf("Search after transient errors: %v", err)
	}
	if len(records) != 5 {
		t.Errorf("got %d records, want 5", len(records))
	}
}

package search

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gwbischof/epstein-search/internal/testutil"
	"github.com/gwbischof/epstein-search/pkg/client"
)

func TestCount_SingleFetch(t *testing.T) {
	mock, svc := setupMock(t)
	mock.SetDataset("maxwell", testutil.GenerateDocs("doc", 37))

	got, err := svc.Count(context.Background(), "maxwell")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if got != 37 {
		t.Errorf("Count = %d, want 37", got)
	}

	// The probe must never paginate, however large the total.
	if n := mock.Requests(); n != 1 {
		t.Errorf("fetch count = %d, want 1", n)
	}
	if pages := mock.Pages("maxwell"); len(pages) != 1 || pages[0] != 0 {
		t.Errorf("pages requested = %v, want [0]", pages)
	}
}

func TestCount_StructuredTotal(t *testing.T) {
	mock, svc := setupMock(t)
	mock.StructuredTotal = true
	mock.SetDataset("q", testutil.GenerateDocs("doc", 12))

	got, err := svc.Count(context.Background(), "q")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if got != 12 {
		t.Errorf("Count = %d, want 12", got)
	}
}

func TestCount_ZeroResults(t *testing.T) {
	_, svc := setupMock(t)

	got, err := svc.Count(context.Background(), "nothing matches this")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}

func TestCount_TransportErrorCarriesStatus(t *testing.T) {
	mock, svc := setupMock(t)
	mock.SetHandler("/multimedia-search", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := svc.Count(context.Background(), "q")
	if err == nil {
		t.Fatal("Count succeeded, want transport error")
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *client.APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", apiErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error message %q does not identify the HTTP status", err.Error())
	}
}

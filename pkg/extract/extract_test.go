package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gwbischof/epstein-search/pkg/search"
)

func stubExtractor(t *testing.T, workers int, fn func(ctx context.Context, rec search.Record) (string, error)) *Extractor {
	t.Helper()

	e := New(nil, workers)
	e.extractText = fn
	return e
}

func TestRun_FillsTextInOrder(t *testing.T) {
	e := stubExtractor(t, 1, func(_ context.Context, rec search.Record) (string, error) {
		return "text of " + rec.Filename, nil
	})

	records := []search.Record{
		{Filename: "a.pdf"},
		{Filename: "b.pdf"},
		{Filename: "c.pdf"},
	}

	var got []search.Record
	err := e.Run(context.Background(), records, func(rec search.Record) {
		got = append(got, rec)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("yielded %d records, want 3", len(got))
	}
	for i, rec := range got {
		if rec.Filename != records[i].Filename {
			t.Errorf("record %d = %s, want %s (single worker keeps order)", i, rec.Filename, records[i].Filename)
		}
		if want := "text of " + rec.Filename; rec.Text != want {
			t.Errorf("Text = %q, want %q", rec.Text, want)
		}
	}

	// Inputs are never mutated.
	for _, rec := range records {
		if rec.Text != "" {
			t.Errorf("input record %s mutated", rec.Filename)
		}
	}
}

func TestRun_BoundsParallelism(t *testing.T) {
	var inFlight, peak atomic.Int32

	e := stubExtractor(t, 2, func(ctx context.Context, rec search.Record) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer inFlight.Add(-1)
		return "x", nil
	})

	records := make([]search.Record, 20)
	for i := range records {
		records[i] = search.Record{Filename: fmt.Sprintf("%d.pdf", i)}
	}

	var yielded atomic.Int32
	err := e.Run(context.Background(), records, func(search.Record) {
		yielded.Add(1)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := yielded.Load(); got != 20 {
		t.Errorf("yielded = %d, want 20", got)
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("peak parallelism = %d, want <= 2", p)
	}
}

func TestRun_FirstErrorAborts(t *testing.T) {
	wantErr := errors.New("download failed")

	e := stubExtractor(t, 1, func(_ context.Context, rec search.Record) (string, error) {
		if strings.HasPrefix(rec.Filename, "bad") {
			return "", wantErr
		}
		return "ok", nil
	})

	records := []search.Record{
		{Filename: "good.pdf"},
		{Filename: "bad.pdf"},
		{Filename: "never.pdf"},
	}

	var got []string
	err := e.Run(context.Background(), records, func(rec search.Record) {
		got = append(got, rec.Filename)
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("Run error = %v, want %v", err, wantErr)
	}
	for _, name := range got {
		if name == "bad.pdf" {
			t.Error("failed record was yielded")
		}
	}
}

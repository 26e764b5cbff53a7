// Package timeline merges event-extraction output from multiple search runs
// into a single chronologically sorted timeline.
package timeline

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/araddon/dateparse"

	"github.com/gwbischof/epstein-search/pkg/events"
)

// Document is one document's worth of extracted events, as emitted by the
// search CLI in events mode.
type Document struct {
	Filename string         `json:"filename"`
	URL      string         `json:"url"`
	Events   []events.Event `json:"events"`
}

// Entry is one event annotated with the document it came from.
type Entry struct {
	Summary   string `json:"summary"`
	Timestamp string `json:"timestamp"`
	Location  string `json:"location,omitempty"`
	Filename  string `json:"filename"`
	URL       string `json:"url"`

	// when is the parsed timestamp used for ordering. Zero when the
	// timestamp could not be parsed.
	when time.Time
}

// ParseConcatenated reads documents from r. The input may be several JSON
// arrays (or bare objects) concatenated back to back, which is what
// appending successive CLI runs to one file produces.
func ParseConcatenated(r io.Reader) ([]Document, error) {
	dec := json.NewDecoder(r)

	var docs []Document
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("parse timeline input: %w", err)
		}

		var batch []Document
		if err := json.Unmarshal(raw, &batch); err == nil {
			docs = append(docs, batch...)
			continue
		}
		var one Document
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("parse timeline input: %w", err)
		}
		docs = append(docs, one)
	}

	return docs, nil
}

// Flatten turns per-document events into timeline entries, attaching the
// source filename and URL to each.
func Flatten(docs []Document) []Entry {
	var entries []Entry
	for _, doc := range docs {
		for _, ev := range doc.Events {
			entries = append(entries, Entry{
				Summary:   ev.Summary,
				Timestamp: ev.Timestamp,
				Location:  ev.Location,
				Filename:  doc.Filename,
				URL:       doc.URL,
				when:      parseWhen(ev.Timestamp),
			})
		}
	}
	return entries
}

// Sort orders entries chronologically, in place. Entries whose timestamp
// could not be parsed sort before everything else, keeping their relative
// order.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].when.Before(entries[j].when)
	})
}

func parseWhen(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(ts)
	if err != nil {
		return time.Time{}
	}
	return t
}

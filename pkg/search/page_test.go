package search

import (
	"strings"
	"testing"
)

func TestDecodePage(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantHits  int
		wantTotal int
		wantErr   bool
	}{
		{
			name:      "plain integer total",
			body:      `{"hits":{"total":42,"hits":[{"_id":"a","_score":1.5,"_source":{"documentId":"a"}}]}}`,
			wantHits:  1,
			wantTotal: 42,
		},
		{
			name:      "structured total",
			body:      `{"hits":{"total":{"value":17,"relation":"eq"},"hits":[]}}`,
			wantHits:  0,
			wantTotal: 17,
		},
		{
			name:      "gte relation still normalizes",
			body:      `{"hits":{"total":{"value":10000,"relation":"gte"},"hits":[]}}`,
			wantHits:  0,
			wantTotal: 10000,
		},
		{
			name:      "missing hits object",
			body:      `{}`,
			wantHits:  0,
			wantTotal: 0,
		},
		{
			name:      "missing inner hits list",
			body:      `{"hits":{"total":5}}`,
			wantHits:  0,
			wantTotal: 5,
		},
		{
			name:    "invalid JSON",
			body:    `<html>age verification</html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := decodePage(strings.NewReader(tt.body))

			if tt.wantErr {
				if err == nil {
					t.Fatal("decodePage succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodePage: %v", err)
			}
			if len(page.Hits) != tt.wantHits {
				t.Errorf("hits = %d, want %d", len(page.Hits), tt.wantHits)
			}
			if page.Total != tt.wantTotal {
				t.Errorf("total = %d, want %d", page.Total, tt.wantTotal)
			}
		})
	}
}

func TestHit_PreservesRawAndHighlights(t *testing.T) {
	body := `{"hits":{"total":1,"hits":[` +
		`{"_id":"doc-9","_score":3.25,` +
		`"_source":{"documentId":"doc-9","ORIGIN_FILE_NAME":"DOJ-OGR-00000009.pdf",` +
		`"ORIGIN_FILE_URI":"https://example.test/DOJ-OGR-00000009.pdf",` +
		`"startPage":3,"endPage":5,"chunkIndex":1,"totalChunks":4,"isChunked":true},` +
		`"highlight":{"content":["snippet one","snippet two"]}}]}}`

	page, err := decodePage(strings.NewReader(body))
	if err != nil {
		t.Fatalf("decodePage: %v", err)
	}
	if len(page.Hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(page.Hits))
	}

	rec := newRecord(page.Hits[0])
	if rec.DocumentID != "doc-9" || rec.Score != 3.25 {
		t.Errorf("identity = (%s, %v)", rec.DocumentID, rec.Score)
	}
	if rec.StartPage == nil || *rec.StartPage != 3 {
		t.Errorf("StartPage = %v, want 3", rec.StartPage)
	}
	if rec.EndPage == nil || *rec.EndPage != 5 {
		t.Errorf("EndPage = %v, want 5", rec.EndPage)
	}
	if rec.ChunkIndex == nil || *rec.ChunkIndex != 1 {
		t.Errorf("ChunkIndex = %v, want 1", rec.ChunkIndex)
	}
	if rec.TotalChunks == nil || *rec.TotalChunks != 4 {
		t.Errorf("TotalChunks = %v, want 4", rec.TotalChunks)
	}
	if rec.IsChunked == nil || !*rec.IsChunked {
		t.Errorf("IsChunked = %v, want true", rec.IsChunked)
	}
	if len(rec.Highlights) != 2 {
		t.Errorf("Highlights = %v", rec.Highlights)
	}
	if !strings.Contains(string(rec.Raw), `"_id":"doc-9"`) {
		t.Errorf("Raw not preserved verbatim: %s", rec.Raw)
	}

	// Absent optional fields stay absent rather than zero.
	if rec.FileSize != nil || rec.TotalWords != nil {
		t.Errorf("absent fields decoded as present: %v %v", rec.FileSize, rec.TotalWords)
	}
}

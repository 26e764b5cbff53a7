// Package search implements the pagination and aggregation core over the
// DOJ Epstein Library search API: single-query paging with skip/limit
// slicing, multi-query OR aggregation with cross-branch deduplication, a
// count-only probe, and filename metadata lookup.
package search

import "encoding/json"

// Record is the normalized output unit of a search. It is constructed once
// per observed hit and never mutated after emission.
type Record struct {
	// Core identifiers
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	URL        string `json:"url"`
	Key        string `json:"key,omitempty"`
	Bucket     string `json:"bucket,omitempty"`

	// Document info
	ContentType     string `json:"content_type,omitempty"`
	FileSize        *int64 `json:"file_size,omitempty"`
	TotalWords      *int   `json:"total_words,omitempty"`
	TotalCharacters *int   `json:"total_characters,omitempty"`

	// Page info
	StartPage *int `json:"start_page,omitempty"`
	EndPage   *int `json:"end_page,omitempty"`

	// Chunk info
	ChunkIndex  *int  `json:"chunk_index,omitempty"`
	TotalChunks *int  `json:"total_chunks,omitempty"`
	ChunkSize   *int  `json:"chunk_size,omitempty"`
	CharStart   *int  `json:"char_start,omitempty"`
	CharEnd     *int  `json:"char_end,omitempty"`
	IsChunked   *bool `json:"is_chunked,omitempty"`

	// Timestamps
	ProcessedAt string `json:"processed_at,omitempty"`
	IndexedAt   string `json:"indexed_at,omitempty"`
	Source      string `json:"source,omitempty"`

	// Search result fields
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights,omitempty"`
	Text       string   `json:"text,omitempty"`

	// Raw is the original hit exactly as returned by the server, for
	// pass-through consumers.
	Raw json.RawMessage `json:"-"`
}

// HitSource is the _source document of a raw hit.
type HitSource struct {
	DocumentID      string `json:"documentId"`
	OriginFileName  string `json:"ORIGIN_FILE_NAME"`
	OriginFileURI   string `json:"ORIGIN_FILE_URI"`
	Key             string `json:"key"`
	Bucket          string `json:"bucket"`
	ContentType     string `json:"contentType"`
	FileSize        *int64 `json:"fileSize"`
	TotalWords      *int   `json:"totalWords"`
	TotalCharacters *int   `json:"totalCharacters"`
	StartPage       *int   `json:"startPage"`
	EndPage         *int   `json:"endPage"`
	ChunkIndex      *int   `json:"chunkIndex"`
	TotalChunks     *int   `json:"totalChunks"`
	ChunkSize       *int   `json:"chunkSize"`
	CharStart       *int   `json:"charStart"`
	CharEnd         *int   `json:"charEnd"`
	IsChunked       *bool  `json:"isChunked"`
	ProcessedAt     string `json:"processedAt"`
	IndexedAt       string `json:"indexedAt"`
	Source          string `json:"source"`
}

// Hit is one server-provided record as it appears in the hits list.
type Hit struct {
	ID         string
	Score      float64
	Source     HitSource
	Highlights []string

	// Raw preserves the hit body verbatim.
	Raw json.RawMessage
}

// UnmarshalJSON decodes the Elasticsearch hit shape while retaining the
// original bytes.
func (h *Hit) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID        string    `json:"_id"`
		Score     float64   `json:"_score"`
		Source    HitSource `json:"_source"`
		Highlight struct {
			Content []string `json:"content"`
		} `json:"highlight"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	h.ID = aux.ID
	h.Score = aux.Score
	h.Source = aux.Source
	h.Highlights = aux.Highlight.Content
	h.Raw = append([]byte(nil), data...)
	return nil
}

// newRecord normalizes a raw hit into a Record.
func newRecord(h Hit) Record {
	return Record{
		DocumentID:      h.Source.DocumentID,
		Filename:        h.Source.OriginFileName,
		URL:             h.Source.OriginFileURI,
		Key:             h.Source.Key,
		Bucket:          h.Source.Bucket,
		ContentType:     h.Source.ContentType,
		FileSize:        h.Source.FileSize,
		TotalWords:      h.Source.TotalWords,
		TotalCharacters: h.Source.TotalCharacters,
		StartPage:       h.Source.StartPage,
		EndPage:         h.Source.EndPage,
		ChunkIndex:      h.Source.ChunkIndex,
		TotalChunks:     h.Source.TotalChunks,
		ChunkSize:       h.Source.ChunkSize,
		CharStart:       h.Source.CharStart,
		CharEnd:         h.Source.CharEnd,
		IsChunked:       h.Source.IsChunked,
		ProcessedAt:     h.Source.ProcessedAt,
		IndexedAt:       h.Source.IndexedAt,
		Source:          h.Source.Source,
		Score:           h.Score,
		Highlights:      h.Highlights,
		Raw:             h.Raw,
	}
}

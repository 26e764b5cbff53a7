package search

import (
	"encoding/json"
	"fmt"
	"io"
)

// PageSize is the fixed number of hits per server page.
const PageSize = 10

// Page is one server page of hits plus the reported total hit count.
type Page struct {
	Hits  []Hit
	Total int
}

// totalCount normalizes the Elasticsearch total field, which is either a
// plain integer or a structured {value, relation} object.
type totalCount struct {
	Value    int
	Relation string
}

func (t *totalCount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '{' {
		var aux struct {
			Value    int    `json:"value"`
			Relation string `json:"relation"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return fmt.Errorf("decode structured total: %w", err)
		}
		t.Value = aux.Value
		t.Relation = aux.Relation
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode total: %w", err)
	}
	t.Value = n
	t.Relation = ""
	return nil
}

// decodePage decodes a search response body into a Page. A body missing the
// expected hits shape decodes to an empty page; only invalid JSON is an
// error.
func decodePage(r io.Reader) (*Page, error) {
	var body struct {
		Hits struct {
			Total totalCount `json:"total"`
			Hits  []Hit      `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	return &Page{
		Hits:  body.Hits.Hits,
		Total: body.Hits.Total.Value,
	}, nil
}

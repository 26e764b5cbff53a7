package search

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gwbischof/epstein-search/pkg/client"
)

// PageFetcher fetches a single server page of results for a query.
// Implementations perform one request per call and no pagination of their
// own.
type PageFetcher interface {
	FetchPage(ctx context.Context, query string, page int) (*Page, error)
}

// apiPageFetcher implements PageFetcher against the library transport.
type apiPageFetcher struct {
	client *client.Client
}

func (f *apiPageFetcher) FetchPage(ctx context.Context, query string, page int) (*Page, error) {
	params := url.Values{}
	params.Set("keys", query)
	params.Set("page", strconv.Itoa(page))

	resp, err := f.client.Get(ctx, client.SearchEndpoint, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodePage(resp.Body)
}

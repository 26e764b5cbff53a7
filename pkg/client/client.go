// Package client provides the HTTP transport for the DOJ Epstein Library
// search API: browser session shape, retry with backoff, and error handling.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for library API operations.
var (
	libraryRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_requests_total",
		Help: "Total library API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	libraryRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "library_request_duration_seconds",
		Help:    "Library API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	libraryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_errors_total",
		Help: "Total library API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// DefaultBaseURL is the public host of the DOJ Epstein Library.
const DefaultBaseURL = "https://www.justice.gov"

// SearchEndpoint is the JSON search API path powering the library search.
const SearchEndpoint = "/multimedia-search"

// defaultUserAgent mirrors the browser the search frontend was recorded with;
// the API rejects obviously non-browser agents.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"

// Client is the HTTP session used for all library requests.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the library host. Defaults to DefaultBaseURL.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout per HTTP request.
	Timeout time.Duration

	// Retry configuration for transient failures.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: defaultUserAgent,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new library client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute (got %q)", cfg.BaseURL)
	}

	// The search frontend gates results behind an age verification cookie;
	// requests without it are redirected to the interstitial page.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	jar.SetCookies(base, []*http.Cookie{{
		Name:  "justiceGovAgeVerified",
		Value: "true",
	}})

	logger := log.With().Str("component", "library-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		baseURL: base,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Do performs an HTTP request with session headers, retry, and error handling.
// A non-2xx status is returned as an *APIError; the response body is only
// returned on success.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		libraryRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	c.setSessionHeaders(req)

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing library request")

	var resp *http.Response

	retryErr := retryWithBackoff(ctx, c.config.Retry, func() error {
		attemptReq := req.Clone(ctx)

		var reqErr error
		resp, reqErr = c.httpClient.Do(attemptReq) //nolint:bodyclose // closed on error paths below

		if reqErr != nil {
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			libraryErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			libraryRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return reqErr
		}

		libraryRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			errClass := classifyStatus(resp.StatusCode)
			libraryErrorsTotal.WithLabelValues(string(errClass)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Library request error")

			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Status:     resp.Status,
			}
			resp.Body.Close()
			resp = nil
			return apiErr
		}

		return nil
	}, classifyError)

	if retryErr != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, retryErr
	}

	return resp, nil
}

// Get performs a GET request against a path on the library host.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	u := *c.baseURL
	u.Path = path
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// GetURL performs a GET request against an absolute URL, reusing the session
// headers and cookie jar. Used for document downloads and secondary lookups.
func (c *Client) GetURL(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// BaseURL returns the configured library host.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// setSessionHeaders applies the browser session shape expected by the API.
func (c *Client) setSessionHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", c.baseURL.String()+"/epstein/search")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
}

// classifyStatus categorizes an HTTP status code for observability and retry.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyError categorizes an error for retry decisions.
func classifyError(err error) ErrorClass {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	return ErrorClassNetwork
}

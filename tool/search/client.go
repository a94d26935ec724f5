// Package search provides a Bing Web Search v7 client and exposes it to
// agents as the web_search tool.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/chatmesh/logging"
)

// DefaultEndpoint is the public Bing Web Search v7 endpoint.
const DefaultEndpoint = "https://api.bing.microsoft.com/v7.0/search"

// DefaultCount is the number of results requested per query.
const DefaultCount = 3

// ErrMissingCredentials is returned when the endpoint or key is not configured.
var ErrMissingCredentials = errors.New("search: endpoint and api key are required")

// Result is one web page hit.
type Result struct {
	Title   string `json:"name"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// String renders the result the way agents receive it.
func (r Result) String() string {
	return fmt.Sprintf("Title: %s, Snippet: %s, URL: %s", r.Title, r.Snippet, r.URL)
}

// StatusError reports a non-200 response from the search API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error: %d - %s", e.StatusCode, e.Body)
}

// Searcher is the capability consumed by the web_search tool.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]Result, error)
}

// Options configure a Client.
type Options struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	// RequestsPerSecond bounds outgoing calls; zero disables limiting.
	RequestsPerSecond float64
	Burst             int
	Logger            logging.Logger
}

// Client calls the Bing Web Search API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	logger   logging.Logger
}

// NewClient creates a Client. Endpoint and key come from configuration only.
func NewClient(optFns ...func(o *Options)) (*Client, error) {
	opts := Options{
		Endpoint:          DefaultEndpoint,
		RequestsPerSecond: 3,
		Burst:             1,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if strings.TrimSpace(opts.Endpoint) == "" || strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingCredentials
	}

	if _, err := url.Parse(opts.Endpoint); err != nil {
		return nil, fmt.Errorf("search: invalid endpoint: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		endpoint: opts.Endpoint,
		apiKey:   opts.APIKey,
		http:     httpClient,
		limiter:  limiter,
		logger:   logging.OrNoOp(opts.Logger),
	}, nil
}

type webSearchResponse struct {
	WebPages struct {
		Value []Result `json:"value"`
	} `json:"webPages"`
}

// Search runs query and returns at most count results (DefaultCount when count <= 0).
func (c *Client) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if count <= 0 {
		count = DefaultCount
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("search: rate limit wait: %w", err)
		}
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("search: invalid endpoint: %w", err)
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("search: read response: %w", err)
	}

	c.logger.Debug("search.request.complete", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded webSearchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	results := decoded.WebPages.Value
	if len(results) > count {
		results = results[:count]
	}

	return results, nil
}

// Format renders results one per line.
func Format(results []Result) string {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

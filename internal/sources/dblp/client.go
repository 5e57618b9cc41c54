// Package dblp implements the sources.Adapter interface for the DBLP
// publication search API.
package dblp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bibguard/bibguard/internal/domain"
	"github.com/bibguard/bibguard/internal/sources"
)

const (
	// DefaultBaseURL is the default DBLP API base URL.
	DefaultBaseURL = "https://dblp.org"

	// DefaultRequestInterval spaces requests to the shared public endpoint.
	DefaultRequestInterval = time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the maximum candidates per title search.
	DefaultMaxResults = 5

	// sourceName is the provider identifier used in results and workflows.
	sourceName = "dblp"
)

// disambiguationRegex strips DBLP's numeric homonym suffixes from author
// names, e.g. "Wei Wang 0017" -> "Wei Wang".
var disambiguationRegex = regexp.MustCompile(`\s+\d{4}$`)

// Config holds configuration for the DBLP client.
type Config struct {
	// BaseURL is the DBLP API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RequestInterval is the minimum spacing between requests.
	RequestInterval time.Duration

	// MaxResults is the maximum candidates returned per title search.
	MaxResults int

	// Enabled indicates whether this provider participates in lookups.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RequestInterval == 0 {
		c.RequestInterval = DefaultRequestInterval
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the sources.Adapter interface for DBLP.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Adapter = (*Client)(nil)

// New creates a new DBLP client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:         cfg.Timeout,
		RequestInterval: cfg.RequestInterval,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new DBLP client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// FetchByID is not supported: lookups against DBLP go through title search.
func (c *Client) FetchByID(ctx context.Context, id string) (*domain.Record, error) {
	return nil, nil
}

// FetchByDOI is not supported: the DBLP search API does not index DOIs as a
// query field.
func (c *Client) FetchByDOI(ctx context.Context, doi string) (*domain.Record, error) {
	return nil, nil
}

// SearchByTitle queries the publication search endpoint.
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]*domain.Record, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/search/publ/api"

	query := url.Values{}
	query.Set("q", title)
	query.Set("format", "json")
	query.Set("h", strconv.Itoa(c.config.MaxResults))
	baseURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.NewRateLimitError(sourceName, sources.RetryAfter(resp))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	var search searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&search); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]*domain.Record, 0, len(search.Result.Hits.Hit))
	for i := range search.Result.Hits.Hit {
		if record := hitToRecord(&search.Result.Hits.Hit[i]); record != nil {
			records = append(records, record)
		}
	}
	return records, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this provider is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// hitToRecord converts a DBLP hit to a domain Record.
func hitToRecord(hit *Hit) *domain.Record {
	info := &hit.Info
	title := strings.TrimSuffix(strings.TrimSpace(info.Title), ".")
	if title == "" {
		return nil
	}

	authors := make([]string, 0, len(info.Authors.Names))
	for _, name := range info.Authors.Names {
		name = disambiguationRegex.ReplaceAllString(strings.TrimSpace(name), "")
		if name != "" {
			authors = append(authors, name)
		}
	}

	recordURL := info.URL
	if info.EE != "" {
		recordURL = info.EE
	}

	return &domain.Record{
		Source:  sourceName,
		Title:   title,
		Authors: authors,
		Year:    info.Year,
		DOI:     info.DOI,
		Venue:   info.Venue,
		URL:     recordURL,
	}
}

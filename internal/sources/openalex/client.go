// Package openalex implements the sources.Adapter interface for the
// OpenAlex works API.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bibguard/bibguard/internal/domain"
	"github.com/bibguard/bibguard/internal/sources"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRequestInterval spaces requests to the public endpoint.
	DefaultRequestInterval = time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the maximum candidates per title search.
	DefaultMaxResults = 5

	// sourceName is the provider identifier used in results and workflows.
	sourceName = "openalex"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the OpenAlex API base URL.
	BaseURL string

	// Mailto joins the OpenAlex polite pool when set.
	Mailto string

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

// Client implements the sources.Adapter interface for OpenAlex.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Adapter = (*Client)(nil)

// New creates a new OpenAlex client with the given configuration.
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

// NewWithHTTPClient creates a new OpenAlex client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// FetchByID retrieves a work by its OpenAlex ID (e.g. "W2741809807").
func (c *Client) FetchByID(ctx context.Context, id string) (*domain.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("id", "must not be empty")
	}
	return c.fetchWork(ctx, "/works/"+url.PathEscape(id), id)
}

// FetchByDOI retrieves a work via the DOI alias route /works/doi:{doi}.
func (c *Client) FetchByDOI(ctx context.Context, doi string) (*domain.Record, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil, domain.NewValidationError("doi", "must not be empty")
	}
	return c.fetchWork(ctx, "/works/"+url.PathEscape("doi:"+doi), doi)
}

// SearchByTitle queries /works with a title.search filter.
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]*domain.Record, error) {
	query := url.Values{}
	query.Set("filter", "title.search:"+sanitizeFilter(title))
	query.Set("per-page", strconv.Itoa(c.config.MaxResults))

	body, err := c.get(ctx, c.config.BaseURL+"/works", query)
	if err != nil {
		return nil, err
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]*domain.Record, 0, len(list.Results))
	for i := range list.Results {
		if record := workToRecord(&list.Results[i]); record != nil {
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

func (c *Client) fetchWork(ctx context.Context, path, lookup string) (*domain.Record, error) {
	body, err := c.get(ctx, c.config.BaseURL+path, url.Values{})
	if err != nil {
		return nil, err
	}

	var work Work
	if err := json.Unmarshal(body, &work); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	record := workToRecord(&work)
	if record == nil {
		return nil, domain.NewNotFoundError("work", lookup)
	}
	return record, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}
	if c.config.Mailto != "" {
		query.Set("mailto", c.config.Mailto)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.NewNotFoundError("work", u.Path)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.NewRateLimitError(sourceName, sources.RetryAfter(resp))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}

// workToRecord converts an OpenAlex work to a domain Record.
func workToRecord(w *Work) *domain.Record {
	if w == nil || strings.TrimSpace(w.DisplayName) == "" {
		return nil
	}

	authors := make([]string, 0, len(w.Authorships))
	for _, a := range w.Authorships {
		if name := strings.TrimSpace(a.Author.DisplayName); name != "" {
			authors = append(authors, name)
		}
	}

	var year string
	if w.PublicationYear > 0 {
		year = strconv.Itoa(w.PublicationYear)
	}

	var venue, recordURL string
	if w.PrimaryLocation != nil {
		recordURL = w.PrimaryLocation.LandingPageURL
		if w.PrimaryLocation.Source != nil {
			venue = w.PrimaryLocation.Source.DisplayName
		}
	}
	if recordURL == "" {
		recordURL = w.ID
	}

	return &domain.Record{
		Source:        sourceName,
		Title:         strings.Join(strings.Fields(w.DisplayName), " "),
		Authors:       authors,
		Year:          year,
		Abstract:      reconstructAbstract(w.AbstractInvertedIndex),
		DOI:           stripDOIPrefix(w.DOI),
		Venue:         venue,
		CitationCount: w.CitedByCount,
		URL:           recordURL,
	}
}

// stripDOIPrefix reduces "https://doi.org/10.x/y" to "10.x/y".
func stripDOIPrefix(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	return strings.TrimPrefix(doi, "http://doi.org/")
}

// sanitizeFilter removes characters with meaning in the filter grammar.
func sanitizeFilter(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ',' || r == ':' || r == '|' {
			return ' '
		}
		return r
	}, s)
}

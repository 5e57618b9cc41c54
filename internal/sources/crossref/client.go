// Package crossref implements the sources.Adapter interface for the
// CrossRef REST API.
package crossref

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
	// DefaultBaseURL is the default CrossRef REST API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRequestInterval keeps requests spaced for the polite pool.
	DefaultRequestInterval = time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the maximum candidates per title search.
	DefaultMaxResults = 5

	// sourceName is the provider identifier used in results and workflows.
	sourceName = "crossref"
)

// jatsTagRegex strips JATS markup from CrossRef abstracts.
var jatsTagRegex = regexp.MustCompile(`<[^>]+>`)

// Config holds configuration for the CrossRef client.
type Config struct {
	// BaseURL is the CrossRef API base URL.
	BaseURL string

	// Mailto identifies the caller to CrossRef's polite pool. Requests
	// carry it as a query parameter when set.
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

// Client implements the sources.Adapter interface for CrossRef.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Adapter = (*Client)(nil)

// New creates a new CrossRef client with the given configuration.
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

// NewWithHTTPClient creates a new CrossRef client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// FetchByID is not supported: CrossRef has no identifier space of its own
// beyond the DOI.
func (c *Client) FetchByID(ctx context.Context, id string) (*domain.Record, error) {
	return nil, nil
}

// FetchByDOI retrieves a work by DOI via /works/{doi}.
func (c *Client) FetchByDOI(ctx context.Context, doi string) (*domain.Record, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil, domain.NewValidationError("doi", "must not be empty")
	}

	endpoint := c.config.BaseURL + "/works/" + url.PathEscape(doi)
	body, err := c.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp worksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	record := workToRecord(&resp.Message)
	if record == nil {
		return nil, domain.NewNotFoundError("work", doi)
	}
	return record, nil
}

// SearchByTitle queries /works with a title query, relevance ranked.
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]*domain.Record, error) {
	query := url.Values{}
	query.Set("query.title", title)
	query.Set("rows", strconv.Itoa(c.config.MaxResults))

	body, err := c.get(ctx, c.config.BaseURL+"/works", query)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]*domain.Record, 0, len(resp.Message.Items))
	for i := range resp.Message.Items {
		if record := workToRecord(&resp.Message.Items[i]); record != nil {
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

// get executes a GET against endpoint and returns the response body.
// A 404 maps to domain.ErrNotFound, a 429 to domain.ErrRateLimited.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}
	if query == nil {
		query = u.Query()
	}
	if c.config.Mailto != "" {
		query.Set("mailto", c.config.Mailto)
	}
	u.RawQuery = query.Encode()

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

// workToRecord converts a CrossRef work to a domain Record.
func workToRecord(w *Work) *domain.Record {
	if w == nil || len(w.Title) == 0 || strings.TrimSpace(w.Title[0]) == "" {
		return nil
	}

	authors := make([]string, 0, len(w.Author))
	for _, a := range w.Author {
		name := strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
		if name == "" {
			name = strings.TrimSpace(a.Name)
		}
		if name != "" {
			authors = append(authors, name)
		}
	}

	year := w.Issued.Year()
	if year == 0 && w.PublishedPrint != nil {
		year = w.PublishedPrint.Year()
	}
	var yearStr string
	if year > 0 {
		yearStr = strconv.Itoa(year)
	}

	var venue string
	if len(w.ContainerTitle) > 0 {
		venue = w.ContainerTitle[0]
	}

	return &domain.Record{
		Source:        sourceName,
		Title:         strings.Join(strings.Fields(w.Title[0]), " "),
		Authors:       authors,
		Year:          yearStr,
		Abstract:      cleanAbstract(w.Abstract),
		DOI:           w.DOI,
		Venue:         venue,
		CitationCount: w.IsReferencedBy,
		URL:           w.URL,
	}
}

// cleanAbstract strips JATS markup that CrossRef embeds in abstracts.
func cleanAbstract(s string) string {
	s = jatsTagRegex.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

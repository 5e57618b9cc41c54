// Package semanticscholar implements the sources.Adapter interface for the
// Semantic Scholar Graph API.
package semanticscholar

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
	// DefaultBaseURL is the default Graph API base URL.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRequestInterval spaces unauthenticated requests; the public
	// pool enforces roughly one request per second.
	DefaultRequestInterval = time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the maximum candidates per title search.
	DefaultMaxResults = 5

	// paperFields is the field projection requested for every lookup.
	paperFields = "title,abstract,year,venue,citationCount,url,authors,externalIds"

	// sourceName is the provider identifier used in results and workflows.
	sourceName = "semantic_scholar"
)

// Config holds configuration for the Semantic Scholar client.
type Config struct {
	// BaseURL is the Graph API base URL.
	BaseURL string

	// APIKey is sent as the x-api-key header when set. Authenticated
	// clients get a higher rate limit.
	APIKey string

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

// Client implements the sources.Adapter interface for Semantic Scholar.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Adapter = (*Client)(nil)

// New creates a new Semantic Scholar client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:         cfg.Timeout,
		RequestInterval: cfg.RequestInterval,
		APIKey:          cfg.APIKey,
		APIKeyHeader:    "x-api-key",
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Semantic Scholar client with a custom HTTP
// client. This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// FetchByID retrieves a paper by Semantic Scholar paper ID or any prefixed
// external identifier the Graph API accepts (e.g. "arXiv:1706.03762").
func (c *Client) FetchByID(ctx context.Context, id string) (*domain.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("id", "must not be empty")
	}

	// Bare arXiv identifiers are common in bibliographies; the Graph API
	// wants them prefixed.
	if looksLikeArXivID(id) {
		id = "arXiv:" + id
	}
	return c.fetchPaper(ctx, id)
}

// FetchByDOI retrieves a paper by DOI via the DOI: alias route.
func (c *Client) FetchByDOI(ctx context.Context, doi string) (*domain.Record, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil, domain.NewValidationError("doi", "must not be empty")
	}
	return c.fetchPaper(ctx, "DOI:"+doi)
}

// SearchByTitle queries /paper/search, relevance ranked.
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]*domain.Record, error) {
	query := url.Values{}
	query.Set("query", title)
	query.Set("fields", paperFields)
	query.Set("limit", strconv.Itoa(c.config.MaxResults))

	body, err := c.get(ctx, c.config.BaseURL+"/paper/search", query)
	if err != nil {
		return nil, err
	}

	var search searchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]*domain.Record, 0, len(search.Data))
	for i := range search.Data {
		if record := paperToRecord(&search.Data[i]); record != nil {
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

func (c *Client) fetchPaper(ctx context.Context, id string) (*domain.Record, error) {
	query := url.Values{}
	query.Set("fields", paperFields)

	body, err := c.get(ctx, c.config.BaseURL+"/paper/"+url.PathEscape(id), query)
	if err != nil {
		return nil, err
	}

	var paper Paper
	if err := json.Unmarshal(body, &paper); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	record := paperToRecord(&paper)
	if record == nil {
		return nil, domain.NewNotFoundError("paper", id)
	}
	return record, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
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
		return nil, domain.NewNotFoundError("paper", u.Path)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.NewRateLimitError(sourceName, sources.RetryAfter(resp))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}

// paperToRecord converts a Graph API paper to a domain Record.
func paperToRecord(p *Paper) *domain.Record {
	if p == nil || strings.TrimSpace(p.Title) == "" {
		return nil
	}

	authors := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	var year string
	if p.Year > 0 {
		year = strconv.Itoa(p.Year)
	}

	return &domain.Record{
		Source:        sourceName,
		Title:         strings.Join(strings.Fields(p.Title), " "),
		Authors:       authors,
		Year:          year,
		Abstract:      strings.TrimSpace(p.Abstract),
		DOI:           p.ExternalID("DOI"),
		ArXivID:       p.ExternalID("ArXiv"),
		Venue:         p.Venue,
		CitationCount: p.CitationCount,
		URL:           p.URL,
	}
}

// looksLikeArXivID reports whether id matches the modern or legacy arXiv
// identifier shapes.
func looksLikeArXivID(id string) bool {
	if strings.Contains(id, ":") {
		return false
	}
	dot := strings.IndexByte(id, '.')
	if dot == 4 {
		for _, r := range id[:4] {
			if r < '0' || r > '9' {
				return false
			}
		}
		rest := id[5:]
		if len(rest) >= 4 && len(rest) <= 6 {
			for _, r := range rest {
				if r < '0' || r > '9' {
					return false
				}
			}
			return true
		}
		return false
	}
	// Legacy form "cs/0112017".
	slash := strings.IndexByte(id, '/')
	return slash > 0 && len(id)-slash-1 == 7
}

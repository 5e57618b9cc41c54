// Package arxiv implements the sources.Adapter interface for the arXiv
// Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
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
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRequestInterval is the spacing arXiv asks automated clients
	// to keep between requests.
	DefaultRequestInterval = 3 * time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum candidates per title search.
	DefaultMaxResults = 5

	// sourceName is the provider identifier used in results and workflows.
	sourceName = "arxiv"
)

// arxivIDRegex extracts the arXiv ID from the entry URL.
// Matches patterns like "http://arxiv.org/abs/2301.12345v1" or
// "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
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

// Client implements the sources.Adapter interface for arXiv.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Adapter = (*Client)(nil)

// New creates a new arXiv client with the given configuration.
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

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// FetchByID retrieves a paper by its arXiv identifier, with or without a
// version suffix.
func (c *Client) FetchByID(ctx context.Context, id string) (*domain.Record, error) {
	query := url.Values{}
	query.Set("id_list", strings.TrimPrefix(id, "arXiv:"))

	feed, err := c.fetchFeed(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(feed.Entries) == 0 {
		return nil, domain.NewNotFoundError("paper", id)
	}

	record := c.entryToRecord(&feed.Entries[0])
	if record == nil {
		return nil, domain.NewNotFoundError("paper", id)
	}
	return record, nil
}

// FetchByDOI is not supported: the arXiv API has no DOI lookup endpoint.
func (c *Client) FetchByDOI(ctx context.Context, doi string) (*domain.Record, error) {
	return nil, nil
}

// SearchByTitle queries arXiv for papers whose title matches the query.
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]*domain.Record, error) {
	query := url.Values{}
	query.Set("search_query", `ti:"`+sanitizeQuery(title)+`"`)
	query.Set("max_results", strconv.Itoa(c.config.MaxResults))

	feed, err := c.fetchFeed(ctx, query)
	if err != nil {
		return nil, err
	}

	records := make([]*domain.Record, 0, len(feed.Entries))
	for i := range feed.Entries {
		if record := c.entryToRecord(&feed.Entries[i]); record != nil {
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

// fetchFeed executes a query against the arXiv query endpoint and decodes
// the Atom feed.
func (c *Client) fetchFeed(ctx context.Context, query url.Values) (*Feed, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"
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

	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &feed, nil
}

// entryToRecord converts an arXiv Atom entry to a domain Record.
func (c *Client) entryToRecord(entry *Entry) *domain.Record {
	if entry == nil {
		return nil
	}

	arxivID := extractArXivID(entry.ID)
	if arxivID == "" {
		return nil
	}

	var year string
	if entry.Published != "" {
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			year = strconv.Itoa(t.Year())
		}
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	return &domain.Record{
		Source:   sourceName,
		Title:    normalizeWhitespace(entry.Title),
		Authors:  authors,
		Year:     year,
		Abstract: normalizeWhitespace(entry.Summary),
		DOI:      strings.TrimSpace(entry.DOI),
		ArXivID:  arxivID,
		Venue:    strings.TrimSpace(entry.JournalRef),
		URL:      "https://arxiv.org/abs/" + arxivID,
	}
}

// extractArXivID extracts the arXiv ID from the full entry URL.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345"
func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// sanitizeQuery strips characters that break the arXiv query grammar.
func sanitizeQuery(q string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '{' || r == '}' {
			return ' '
		}
		return r
	}, q)
}

// normalizeWhitespace trims and collapses whitespace, which arXiv includes
// freely in titles and abstracts.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

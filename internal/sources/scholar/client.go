// Package scholar implements a last-resort sources.Adapter that scrapes
// Google Scholar result pages. Scholar has no API: results come from HTML,
// so extracted metadata is best-effort and the provider disables itself for
// the rest of the session once Scholar starts blocking.
package scholar

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bibguard/bibguard/internal/domain"
	"github.com/bibguard/bibguard/internal/sources"
)

const (
	// DefaultBaseURL is the default Google Scholar base URL.
	DefaultBaseURL = "https://scholar.google.com"

	// DefaultRequestInterval spaces requests far apart; Scholar blocks
	// aggressively.
	DefaultRequestInterval = 10 * time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the maximum candidates parsed per result page.
	DefaultMaxResults = 3

	// sourceName is the provider identifier used in results and workflows.
	sourceName = "google_scholar"
)

var (
	// resultRegex captures one result block: the linked title and the
	// byline ("gs_a") div that carries authors and year.
	resultRegex = regexp.MustCompile(`(?s)<h3 class="gs_rt[^"]*">(.*?)</h3>.*?<div class="gs_a[^"]*">(.*?)</div>`)

	// linkRegex pulls the href and anchor text out of a title block.
	linkRegex = regexp.MustCompile(`(?s)<a href="([^"]+)"[^>]*>(.*?)</a>`)

	// tagRegex removes residual markup from extracted fragments.
	tagRegex = regexp.MustCompile(`<[^>]+>`)

	// yearRegex finds a publication year in the byline.
	yearRegex = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// Config holds configuration for the Scholar client.
type Config struct {
	// BaseURL is the Scholar base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RequestInterval is the minimum spacing between requests.
	RequestInterval time.Duration

	// MaxResults is the maximum candidates parsed per result page.
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

// Client implements the sources.Adapter interface for Google Scholar.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient

	mu      sync.Mutex
	blocked bool
}

var _ sources.Adapter = (*Client)(nil)

// New creates a new Scholar client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:         cfg.Timeout,
		RequestInterval: cfg.RequestInterval,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Scholar client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// FetchByID is not supported: Scholar has no identifier lookup.
func (c *Client) FetchByID(ctx context.Context, id string) (*domain.Record, error) {
	return nil, nil
}

// FetchByDOI is not supported: Scholar has no DOI lookup.
func (c *Client) FetchByDOI(ctx context.Context, doi string) (*domain.Record, error) {
	return nil, nil
}

// SearchByTitle scrapes a Scholar result page for the given title. Once the
// session is blocked every further call fails fast with
// domain.ErrSourceBlocked.
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]*domain.Record, error) {
	if c.Blocked() {
		return nil, fmt.Errorf("%s session: %w", sourceName, domain.ErrSourceBlocked)
	}

	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/scholar"

	query := url.Values{}
	query.Set("q", title)
	query.Set("hl", "en")
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

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		c.markBlocked()
		return nil, fmt.Errorf("%s returned status %d: %w", sourceName, resp.StatusCode, domain.ErrSourceBlocked)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	page := string(body)
	if strings.Contains(page, "unusual traffic") || strings.Contains(page, "not a robot") {
		c.markBlocked()
		return nil, fmt.Errorf("%s served a captcha page: %w", sourceName, domain.ErrSourceBlocked)
	}

	return c.parseResults(page), nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this provider is enabled and not blocked.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled && !c.Blocked()
}

// Blocked reports whether Scholar has blocked this session.
func (c *Client) Blocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocked
}

func (c *Client) markBlocked() {
	c.mu.Lock()
	c.blocked = true
	c.mu.Unlock()
}

// parseResults extracts result blocks from a Scholar page.
func (c *Client) parseResults(page string) []*domain.Record {
	matches := resultRegex.FindAllStringSubmatch(page, c.config.MaxResults)

	records := make([]*domain.Record, 0, len(matches))
	for _, match := range matches {
		titleBlock, byline := match[1], match[2]

		var title, link string
		if lm := linkRegex.FindStringSubmatch(titleBlock); lm != nil {
			link = lm[1]
			title = cleanFragment(lm[2])
		} else {
			// Citation-only results have no link.
			title = cleanFragment(titleBlock)
		}
		if title == "" {
			continue
		}

		records = append(records, &domain.Record{
			Source:  sourceName,
			Title:   title,
			Authors: parseByline(byline),
			Year:    yearRegex.FindString(byline),
			URL:     link,
		})
	}
	return records
}

// parseByline extracts author names from the "gs_a" line, which looks like
// "A Vaswani, N Shazeer - Advances in neural information processing, 2017".
func parseByline(byline string) []string {
	byline = cleanFragment(byline)

	authorPart := byline
	for _, sep := range []string{" - ", " – "} {
		if idx := strings.Index(authorPart, sep); idx >= 0 {
			authorPart = authorPart[:idx]
			break
		}
	}

	var authors []string
	for _, name := range strings.Split(authorPart, ",") {
		name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), "…"))
		if name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// cleanFragment strips tags, bracketed markers like [PDF], and entities.
func cleanFragment(s string) string {
	s = tagRegex.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	for {
		open := strings.IndexByte(s, '[')
		if open < 0 {
			break
		}
		end := strings.IndexByte(s[open:], ']')
		if end < 0 {
			break
		}
		s = s[:open] + " " + s[open+end+1:]
	}
	return strings.Join(strings.Fields(s), " ")
}

// Package lookup fetches book descriptions from the Google Books volumes API.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Google Books volumes endpoint.
const DefaultBaseURL = "https://www.googleapis.com/books/v1/volumes"

// Source identifies where descriptions come from.
const Source = "google-books"

// Sentinel errors.
var (
	ErrUpstream    = errors.New("lookup: upstream error")
	ErrRateLimited = errors.New("lookup: rate limited")
)

// Config holds lookup client settings.
type Config struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// Result is the outcome of a description lookup.
type Result struct {
	Found       bool   `json:"found"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// Client queries the volumes API. Requests are rate limited client-side.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a lookup client. Zero config values take defaults:
// the public endpoint, one request per second with a burst of 3, 10s timeout.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:      logger,
	}
}

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title       string   `json:"title"`
			Authors     []string `json:"authors"`
			Description string   `json:"description"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Description looks up the description of the first volume matching title and author.
// A missing volume or empty description is reported as Found=false, not an error.
func (c *Client) Description(ctx context.Context, title, author string) (*Result, error) {
	result := &Result{Source: Source}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	params := url.Values{}
	params.Set("q", buildQuery(title, author))
	params.Set("maxResults", "1")
	params.Set("printType", "books")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	c.logger.Debug("looking up description", "title", title, "author", author)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var vr volumesResponse
	if err := json.NewDecoder(resp.Body).DecodeContext(ctx, &vr); err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrUpstream, err)
	}

	if len(vr.Items) == 0 {
		return result, nil
	}
	desc := htmlToMarkdown(strings.TrimSpace(vr.Items[0].VolumeInfo.Description))
	if desc == "" {
		return result, nil
	}

	result.Found = true
	result.Description = desc
	return result, nil
}

// buildQuery produces "intitle:<title>+inauthor:<author>", omitting empty parts.
func buildQuery(title, author string) string {
	var parts []string
	if t := strings.TrimSpace(title); t != "" {
		parts = append(parts, "intitle:"+t)
	}
	if a := strings.TrimSpace(author); a != "" {
		parts = append(parts, "inauthor:"+a)
	}
	return strings.Join(parts, "+")
}

var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// htmlToMarkdown converts HTML to Markdown. Plain text is returned unchanged,
// as is the input when conversion fails.
func htmlToMarkdown(s string) string {
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}
	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}

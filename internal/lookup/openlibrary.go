// Package lookup queries Open Library for book metadata to corroborate
// ambiguous candidates. Results are memoized in an explicit TTL-bounded
// cache owned by the client; there is no package-level state.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/shelfscan/shelfscan/internal/books"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	defaultTimeout   = 12 * time.Second
	defaultCacheSize = 512
	defaultCacheTTL  = 15 * time.Minute
	searchLimit      = 5
)

// Doer is the minimal HTTP client surface; replaceable in tests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds Open Library client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
	HTTPDoer  Doer
}

// Client searches the Open Library API.
type Client struct {
	baseURL string
	doer    Doer
	cache   *expirable.LRU[string, *books.ExternalMatch]
}

// NewClient creates an Open Library client with its own memoization cache.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	doer := cfg.HTTPDoer
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		doer:    doer,
		cache:   expirable.NewLRU[string, *books.ExternalMatch](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

type searchResponse struct {
	NumFound int `json:"numFound"`
	Docs     []struct {
		Key        string   `json:"key"`
		Title      string   `json:"title"`
		AuthorName []string `json:"author_name"`
	} `json:"docs"`
}

// Lookup searches by title and optional author. A nil match with nil
// error means no sufficiently strong result; negative outcomes are cached
// too, so repeated misses cost one request per TTL.
func (c *Client) Lookup(ctx context.Context, title, author string) (*books.ExternalMatch, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	key := cacheKey(title, author)
	if match, ok := c.cache.Get(key); ok {
		return match, nil
	}

	match, err := c.search(ctx, title, author)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, match)
	return match, nil
}

func (c *Client) search(ctx context.Context, title, author string) (*books.ExternalMatch, error) {
	params := url.Values{}
	params.Set("title", title)
	if author = strings.TrimSpace(author); author != "" {
		params.Set("author", author)
	}
	params.Set("limit", fmt.Sprintf("%d", searchLimit))
	params.Set("fields", "key,title,author_name")

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open library request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open library error (status %d): %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	for _, doc := range sr.Docs {
		if doc.Key == "" || !strongTitleMatch(title, doc.Title) {
			continue
		}
		return &books.ExternalMatch{
			ID:         doc.Key,
			Confidence: books.ConfidenceHigh,
		}, nil
	}
	return nil, nil
}

// strongTitleMatch accepts only close title agreement; weak hits are
// worse than none because the match is advisory for the validator.
func strongTitleMatch(query, found string) bool {
	q := fold(query)
	f := fold(found)
	if q == "" || f == "" {
		return false
	}
	return q == f || strings.HasPrefix(f, q) || strings.HasPrefix(q, f)
}

func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

func cacheKey(title, author string) string {
	return fold(title) + "|" + fold(author)
}

package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

type WebSearchConfig struct {
	BaseURL    string
	MaxResults int
	RateLimit  float64 // requests per second
	Timeout    time.Duration
}

// WebSearchTool scrapes the DuckDuckGo HTML endpoint for search results.
type WebSearchTool struct {
	config  WebSearchConfig
	client  *http.Client
	limiter *rate.Limiter
}

type SearchResult struct {
	Title   string
	Snippet string
	URL     string
}

func NewWebSearchTool(config WebSearchConfig) *WebSearchTool {
	if config.BaseURL == "" {
		config.BaseURL = "https://html.duckduckgo.com/html/"
	}
	if config.MaxResults == 0 {
		config.MaxResults = 5
	}
	if config.RateLimit == 0 {
		config.RateLimit = 1
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	return &WebSearchTool{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

func (t *WebSearchTool) Name() string {
	return "web_search"
}

func (t *WebSearchTool) Description() string {
	return "Search the web for information. Input should be a search query."
}

func (t *WebSearchTool) Invoke(ctx context.Context, input string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to run web search: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		t.config.BaseURL+"?q="+url.QueryEscape(input), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("User-Agent", "relay/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch search results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	results, err := ParseSearchResults(resp.Body)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", input), nil
	}
	if len(results) > t.config.MaxResults {
		results = results[:t.config.MaxResults]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", input)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, r.Title, r.Snippet)
	}
	return b.String(), nil
}

// ParseSearchResults extracts result entries from a DuckDuckGo HTML page.
func ParseSearchResults(body io.Reader) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	var results []SearchResult
	doc.Find(".result").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find(".result__title a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}

		href, _ := link.Attr("href")
		results = append(results, SearchResult{
			Title:   title,
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
			URL:     href,
		})
	})

	return results, nil
}

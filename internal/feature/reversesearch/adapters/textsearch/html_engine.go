// Package textsearch queries HTML search result pages and extracts the
// result links with goquery.
package textsearch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"phish_backend/internal/feature/reversesearch/usecase"
	"phish_backend/internal/shared/ratelimiter"
)

// Config describes one HTML search engine.
type Config struct {
	Name string
	// SearchURL is the result page endpoint, e.g. https://html.duckduckgo.com/html/.
	SearchURL string
	// QueryParam carries the query text. Defaults to "q".
	QueryParam string
	// ResultSelector selects the result anchors. Defaults to "a.result__a".
	ResultSelector string
	MaxResults     int
	UserAgent      string
}

// DefaultConfig targets the DuckDuckGo HTML endpoint.
func DefaultConfig() Config {
	return Config{
		Name:           "duckduckgo",
		SearchURL:      "https://html.duckduckgo.com/html/",
		QueryParam:     "q",
		ResultSelector: "a.result__a",
		MaxResults:     10,
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
	}
}

// HTMLEngine implements usecase.TextSearchEngine.
type HTMLEngine struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

var _ usecase.TextSearchEngine = (*HTMLEngine)(nil)

// NewHTMLEngine creates an engine. Empty fields of cfg take DefaultConfig values.
func NewHTMLEngine(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *HTMLEngine {
	d := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = d.Name
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = d.SearchURL
	}
	if cfg.QueryParam == "" {
		cfg.QueryParam = d.QueryParam
	}
	if cfg.ResultSelector == "" {
		cfg.ResultSelector = d.ResultSelector
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = d.MaxResults
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = d.UserAgent
	}
	return &HTMLEngine{cfg: cfg, client: client, limiter: limiter}
}

// Name implements TextSearchEngine.
func (e *HTMLEngine) Name() string {
	return e.cfg.Name
}

// SearchText fetches the result page for query and returns the distinct
// absolute http(s) result URLs in page order.
func (e *HTMLEngine) SearchText(ctx context.Context, query string) ([]string, error) {
	if e.limiter != nil {
		if err := e.limiter.WaitIfNeeded(ctx); err != nil {
			return nil, err
		}
	}

	base, err := url.Parse(e.cfg.SearchURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search URL: %w", err)
	}
	q := base.Query()
	q.Set(e.cfg.QueryParam, query)
	base.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	res, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", e.cfg.Name, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	seen := map[string]struct{}{}
	var out []string
	doc.Find(e.cfg.ResultSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		u, ok := resultURL(base, href)
		if !ok {
			return true
		}
		if _, dup := seen[u]; dup {
			return true
		}
		seen[u] = struct{}{}
		out = append(out, u)
		return len(out) < e.cfg.MaxResults
	})
	return out, nil
}

// resultURL resolves href against the page, unwraps engine redirect links
// and drops anything that is not an external http(s) URL.
func resultURL(page *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	u := page.ResolveReference(ref)

	if target, ok := redirectTarget(page, u); ok {
		u = target
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if strings.EqualFold(u.Hostname(), page.Hostname()) {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

// redirectTarget unwraps result links that bounce through the engine, such
// as DuckDuckGo's /l/?uddg= and Google's /url?q= forms.
func redirectTarget(page, u *url.URL) (*url.URL, bool) {
	host := strings.ToLower(u.Hostname())
	var raw string
	switch {
	case strings.HasSuffix(host, "duckduckgo.com") || strings.EqualFold(host, page.Hostname()) && u.Query().Has("uddg"):
		raw = u.Query().Get("uddg")
	case u.Path == "/url":
		raw = u.Query().Get("q")
		if raw == "" {
			raw = u.Query().Get("url")
		}
	}
	if raw == "" {
		return nil, false
	}
	t, err := url.Parse(raw)
	if err != nil || !t.IsAbs() {
		return nil, false
	}
	return t, true
}

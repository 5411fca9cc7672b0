// Package scrape fetches a website and reduces it to readable text for use as
// prompt context.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"

	"github.com/joestump/splashgen/internal/metrics"
)

const (
	// maxBodySize caps how much of a response is read (5MB).
	maxBodySize = 5 * 1024 * 1024

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Page is the readable content of one fetched website.
type Page struct {
	Domain    string
	SourceURL string
	Title     string
	Body      string
}

// Provider fetches website content. Implementations must honour ctx.
type Provider interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// HTTPProvider fetches pages over HTTP and extracts the main content with
// go-readability.
type HTTPProvider struct {
	client   *http.Client
	maxChars int
}

// NewHTTPProvider returns a provider whose fetches are bounded by timeout.
// Extracted text longer than maxChars runes is truncated; 0 disables the cap.
func NewHTTPProvider(timeout time.Duration, maxChars int) *HTTPProvider {
	return &HTTPProvider{
		client:   &http.Client{Timeout: timeout},
		maxChars: maxChars,
	}
}

// Fetch downloads url and returns its readable text. A page is fetched once
// per call; nothing is cached.
func (p *HTTPProvider) Fetch(ctx context.Context, url string) (*Page, error) {
	start := time.Now()
	page, err := p.fetch(ctx, url)
	metrics.ScrapeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ScrapesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ScrapesTotal.WithLabelValues("success").Inc()
	return page, nil
}

func (p *HTTPProvider) fetch(ctx context.Context, url string) (*Page, error) {
	parsedURL, err := nurl.Parse(url)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	text := truncate(normalizeText(article.TextContent), p.maxChars)
	if text == "" {
		return nil, fmt.Errorf("no readable content at %s", url)
	}

	return &Page{
		Domain:    parsedURL.Host,
		SourceURL: url,
		Title:     strings.TrimSpace(article.Title),
		Body:      text,
	}, nil
}

var multiSpace = regexp.MustCompile(`[ \t]+`)
var multiNewline = regexp.MustCompile(`\n{3,}`)

func normalizeText(s string) string {
	s = strings.TrimSpace(s)
	s = multiSpace.ReplaceAllString(s, " ")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return s
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars]) + "\n... [truncated]"
}

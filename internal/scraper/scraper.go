package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/deusflow/technews/internal/logger"
)

const (
	minContentChars = 100
	maxContentChars = 5000
	maxBodyBytes    = 5 << 20

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

var (
	// ErrNoContent means the page had no usable article text.
	ErrNoContent = errors.New("no article content found")
	// ErrBlocked means the site refused the request (403), usually a paywall
	// or bot protection.
	ErrBlocked = errors.New("access denied")
)

// Elements stripped before looking for article text.
var noiseSelector = "script, style, nav, header, footer, aside, form"

// Class fragments tried after <article> and <main>.
var contentClasses = []string{"article-content", "post-content", "entry-content", "story-body"}

// Extractor fetches a page and returns its main text.
type Extractor struct {
	client    *retryablehttp.Client
	userAgent string
}

// New builds an Extractor whose requests time out after timeout and are
// retried twice on network errors and 5xx responses.
func New(timeout time.Duration) *Extractor {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.HTTPClient.Timeout = timeout
	c.Logger = nil
	return &Extractor{client: c, userAgent: browserUserAgent}
}

// Extract downloads articleURL and returns whitespace-collapsed article text,
// capped at 5000 characters.
func (e *Extractor) Extract(ctx context.Context, articleURL string) (string, error) {
	pageURL, err := url.Parse(articleURL)
	if err != nil || pageURL.Scheme == "" || pageURL.Host == "" {
		return "", fmt.Errorf("invalid url %q: %w", articleURL, ErrNoContent)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		logger.Warn("access denied, likely paywall or bot protection", "url", articleURL)
		return "", ErrBlocked
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("error reading page: %w", err)
	}

	text, err := ExtractFromHTML(body, pageURL)
	if err != nil {
		logger.Debug("no content extracted", "url", articleURL, "error", err)
		return "", err
	}
	return text, nil
}

// ExtractFromHTML runs the selector cascade over raw HTML, falling back to
// readability when the cascade yields too little text.
func ExtractFromHTML(body []byte, pageURL *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	text := cleanContent(extractByCascade(doc))
	if len([]rune(text)) < minContentChars {
		if article, rerr := readability.FromReader(bytes.NewReader(body), pageURL); rerr == nil {
			if alt := cleanContent(article.TextContent); len([]rune(alt)) > len([]rune(text)) {
				text = alt
			}
		}
	}

	if len([]rune(text)) < minContentChars {
		return "", ErrNoContent
	}
	return truncate(text, maxContentChars), nil
}

func extractByCascade(doc *goquery.Document) string {
	doc.Find(noiseSelector).Remove()

	if s := doc.Find("article").First(); s.Length() > 0 {
		return s.Text()
	}
	if s := doc.Find("main").First(); s.Length() > 0 {
		return s.Text()
	}

	for _, fragment := range contentClasses {
		match := doc.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			return strings.Contains(strings.ToLower(class), fragment)
		}).First()
		if match.Length() > 0 {
			return match.Text()
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		paragraphs = append(paragraphs, s.Text())
	})
	return strings.Join(paragraphs, " ")
}

// cleanContent collapses every whitespace run to one space.
func cleanContent(content string) string {
	return strings.Join(strings.Fields(content), " ")
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

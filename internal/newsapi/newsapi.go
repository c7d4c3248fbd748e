// Package newsapi fetches technology headlines from newsapi.org.
package newsapi

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

	"github.com/hashicorp/go-retryablehttp"

	"github.com/deusflow/technews/internal/news"
)

// MaxPageSize is the largest page the API serves.
const MaxPageSize = 100

type apiResponse struct {
	Status       string       `json:"status"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
}

type apiArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

type Client struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
}

func New(apiKey, baseURL string, timeout time.Duration) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.HTTPClient.Timeout = timeout
	c.Logger = nil
	return &Client{
		http:    c,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *Client) Name() string { return "newsapi" }

// Fetch returns up to q.Limit articles. Plain requests read technology top
// headlines; a date range or topic switches to the everything search.
func (c *Client) Fetch(ctx context.Context, q news.Query) ([]news.Article, error) {
	endpoint, params := c.buildQuery(q)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading newsapi response: %w", err)
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("error decoding newsapi response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || data.Status != "ok" {
		msg := data.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("newsapi error (HTTP %d, %s): %s", resp.StatusCode, data.Code, msg)
	}

	articles := make([]news.Article, 0, len(data.Articles))
	for _, a := range data.Articles {
		articles = append(articles, news.Article{
			ID:          news.NewID(a.URL),
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
			ImageURL:    a.URLToImage,
		})
	}
	return articles, nil
}

func (c *Client) buildQuery(q news.Query) (string, url.Values) {
	pageSize := q.Limit
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	params := url.Values{}
	params.Set("language", "en")
	params.Set("pageSize", strconv.Itoa(pageSize))

	if !q.HasDateFilter() && q.Topic == "" {
		params.Set("category", "technology")
		return c.baseURL + "/top-headlines", params
	}

	search := "technology"
	if q.Topic != "" {
		search = q.Topic
	}
	params.Set("q", search)
	params.Set("sortBy", "publishedAt")
	if q.FromDate != "" {
		params.Set("from", q.FromDate)
	}
	if q.ToDate != "" {
		params.Set("to", q.ToDate)
	}
	return c.baseURL + "/everything", params
}

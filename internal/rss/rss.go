package rss

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/technews/internal/logger"
	"github.com/deusflow/technews/internal/news"
)

// FeedsConfig is YAML config structure
// feeds:
//   - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeeds reads RSS feeds list from YAML file
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode feeds config: %w", err)
	}
	if len(cfg.Feeds) == 0 {
		return nil, fmt.Errorf("no feeds listed in %s", path)
	}
	return cfg.Feeds, nil
}

// TopicMatcher reports whether text belongs to a named topic.
type TopicMatcher interface {
	Matches(name, text string) bool
}

const maxParallelFeeds = 4

// Source serves headlines from a fixed list of RSS/Atom feeds.
type Source struct {
	feeds   []string
	parser  *gofeed.Parser
	matcher TopicMatcher
}

func NewSource(feeds []string, matcher TopicMatcher, timeout time.Duration) *Source {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &Source{feeds: feeds, parser: parser, matcher: matcher}
}

func (s *Source) Name() string { return "rss" }

// Fetch downloads every feed, keeps items inside the query's date range and
// topic, and returns the newest q.Limit of them. A broken feed is skipped; an
// error is returned only when no feed could be read.
func (s *Source) Fetch(ctx context.Context, q news.Query) ([]news.Article, error) {
	results := make([][]news.Article, len(s.feeds))
	errs := make([]error, len(s.feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFeeds)
	for i, url := range s.feeds {
		g.Go(func() error {
			feed, err := s.parser.ParseURLWithContext(url, gctx)
			if err != nil {
				logger.Warn("error parsing RSS feed", "url", url, "error", err)
				errs[i] = err
				return nil
			}
			results[i] = itemsToArticles(feed)
			logger.Debug("loaded feed", "url", url, "items", len(feed.Items))
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if len(s.feeds) > 0 && failed == len(s.feeds) {
		return nil, fmt.Errorf("all %d feeds failed: %w", failed, errs[0])
	}
	logger.Info("processed RSS feeds", "ok", len(s.feeds)-failed, "total", len(s.feeds))

	var all []news.Article
	for _, batch := range results {
		for _, a := range batch {
			if s.keep(a, q) {
				all = append(all, a)
			}
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		ti, _ := all[i].PublishedTime()
		tj, _ := all[j].PublishedTime()
		return ti.After(tj)
	})
	if q.Limit > 0 && len(all) > q.Limit {
		all = all[:q.Limit]
	}
	return all, nil
}

func (s *Source) keep(a news.Article, q news.Query) bool {
	if q.HasDateFilter() {
		published, ok := a.PublishedTime()
		if !ok {
			return false
		}
		day := published.UTC().Format("2006-01-02")
		if q.FromDate != "" && day < q.FromDate {
			return false
		}
		if q.ToDate != "" && day > q.ToDate {
			return false
		}
	}
	if q.Topic != "" && s.matcher != nil {
		return s.matcher.Matches(q.Topic, a.Title+" "+a.Description)
	}
	return true
}

func itemsToArticles(feed *gofeed.Feed) []news.Article {
	articles := make([]news.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		a := news.Article{
			ID:          news.NewID(item.Link),
			Title:       strings.TrimSpace(item.Title),
			Description: stripTags(item.Description),
			URL:         item.Link,
			Source:      strings.TrimSpace(feed.Title),
			ImageURL:    itemImage(item),
		}
		switch {
		case item.PublishedParsed != nil:
			a.PublishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
		case item.UpdatedParsed != nil:
			a.PublishedAt = item.UpdatedParsed.UTC().Format(time.RFC3339)
		}
		articles = append(articles, a)
	}
	return articles
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

// stripTags turns an HTML description into plain text.
func stripTags(html string) string {
	if !strings.ContainsRune(html, '<') {
		return strings.Join(strings.Fields(html), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

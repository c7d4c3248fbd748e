package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/deusflow/technews/internal/cache"
	"github.com/deusflow/technews/internal/logger"
	"github.com/deusflow/technews/internal/metrics"
	"github.com/deusflow/technews/internal/news"
	"github.com/deusflow/technews/internal/ratelimit"
	"github.com/deusflow/technews/internal/storage"
	"github.com/deusflow/technews/internal/topics"
)

const (
	maxLimit          = 100
	dateFetchFactor   = 10
	minExplainChars   = 10
	defaultTitle      = "Article"
	defaultConcurrent = 8

	msgNoArticles       = "No articles found for the specified date range"
	msgArticleNotFound  = "Article not found"
	msgSummaryRateLimit = "Rate limit exceeded. Maximum 10 full summaries per minute."
	msgExplainRateLimit = "Rate limit exceeded. Maximum 10 requests per minute."
	msgNoContent        = "Could not extract article content from URL. The article may be behind a paywall or the URL is invalid."
	msgShortSelection   = "Selected text must be at least 10 characters long."
)

// Source fetches raw headlines from an upstream provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q news.Query) ([]news.Article, error)
}

// Summarizer produces AI text for articles and passages.
type Summarizer interface {
	Summarize(ctx context.Context, title, description string) (string, error)
	SummarizeFull(ctx context.Context, title, content string) (string, error)
	Explain(ctx context.Context, selected, surrounding string) (string, error)
}

// ContentExtractor downloads a page and returns its article text.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Archive is the durable tier behind the full-summary cache.
type Archive interface {
	Get(ctx context.Context, url string) (storage.SummaryRecord, error)
	Put(ctx context.Context, rec storage.SummaryRecord) error
}

// Deps wires a Service. Source, Summarizer and Extractor are required; the
// rest fall back to in-memory defaults.
type Deps struct {
	Source     Source
	Summarizer Summarizer
	Extractor  ContentExtractor
	Archive    Archive // optional

	NewsCache *cache.NewsCache
	Summaries *cache.FullSummaryCache
	Limiter   *ratelimit.SlidingWindow
	Topics    *topics.Extractor
	Metrics   *metrics.Metrics
	Now       func() time.Time

	CacheTTL           time.Duration
	SamplePages        int
	SummaryConcurrency int
}

// Service owns every piece of shared state behind the HTTP API.
type Service struct {
	source     Source
	summarizer Summarizer
	extractor  ContentExtractor
	archive    Archive

	news      *cache.NewsCache
	summaries *cache.FullSummaryCache
	limiter   *ratelimit.SlidingWindow
	topics    *topics.Extractor
	metrics   *metrics.Metrics
	now       func() time.Time

	cacheTTL    time.Duration
	samplePages int
	concurrency int

	flight singleflight.Group
}

func NewService(d Deps) *Service {
	s := &Service{
		source:      d.Source,
		summarizer:  d.Summarizer,
		extractor:   d.Extractor,
		archive:     d.Archive,
		news:        d.NewsCache,
		summaries:   d.Summaries,
		limiter:     d.Limiter,
		topics:      d.Topics,
		metrics:     d.Metrics,
		now:         d.Now,
		cacheTTL:    d.CacheTTL,
		samplePages: d.SamplePages,
		concurrency: d.SummaryConcurrency,
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = 900 * time.Second
	}
	if s.news == nil {
		s.news = cache.NewNewsCache(s.cacheTTL)
	}
	if s.summaries == nil {
		s.summaries = cache.NewFullSummaryCache()
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewDefault()
	}
	if s.topics == nil {
		s.topics = topics.NewExtractor()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.samplePages <= 0 {
		s.samplePages = 3
	}
	if s.concurrency <= 0 {
		s.concurrency = defaultConcurrent
	}
	return s
}

func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// NewsRequest carries the query parameters of GET /api/news.
type NewsRequest struct {
	Limit        int
	Page         int
	FromDate     string
	ToDate       string
	Topic        string
	ForceRefresh bool
}

type NewsResponse struct {
	Articles    []news.Article `json:"articles"`
	Count       int            `json:"count"`
	Cached      bool           `json:"cached"`
	CacheAge    *int           `json:"cache_age"`
	Topics      []string       `json:"topics"`
	TotalPages  int            `json:"total_pages"`
	CurrentPage int            `json:"current_page"`
}

type FullSummaryResponse struct {
	Summary   string `json:"summary"`
	WordCount int    `json:"word_count"`
	URL       string `json:"url"`
	Cached    bool   `json:"cached"`
}

type HealthResponse struct {
	Status          string `json:"status"`
	CacheSize       int    `json:"cache_size"`
	CacheAgeSeconds *int   `json:"cache_age_seconds"`
}

func validateNewsRequest(req NewsRequest) error {
	if req.Limit < 1 || req.Limit > maxLimit {
		return badRequest("Limit must be between 1 and 100")
	}
	if req.Page < 1 {
		return badRequest("Page must be >= 1")
	}
	return validateDates(req.FromDate, req.ToDate)
}

func validateDates(fromDate, toDate string) error {
	var from, to time.Time
	var err error
	if fromDate != "" {
		if from, err = time.Parse(time.DateOnly, fromDate); err != nil {
			return badRequest("Invalid date format. Use YYYY-MM-DD")
		}
	}
	if toDate != "" {
		if to, err = time.Parse(time.DateOnly, toDate); err != nil {
			return badRequest("Invalid date format. Use YYYY-MM-DD")
		}
	}
	if fromDate != "" && toDate != "" && from.After(to) {
		return badRequest("from_date must be before or equal to to_date")
	}
	return nil
}

// GetNews serves one page of summarized articles for a filter, populating the
// cache slot on a miss. Concurrent misses for one slot share a single fetch.
func (s *Service) GetNews(ctx context.Context, req NewsRequest) (NewsResponse, error) {
	if err := validateNewsRequest(req); err != nil {
		return NewsResponse{}, err
	}
	s.metrics.IncrementNewsRequests()
	key := cache.Key(req.FromDate, req.ToDate, req.Topic)

	if !req.ForceRefresh && s.news.IsValid(key) {
		s.metrics.IncrementCacheHits()
		entry := s.news.GetOrCreate(key)
		if len(entry.Topics) == 0 {
			entry.Topics = s.topics.FromTitles(titlesOf(entry.Articles))
			s.news.BackfillTopics(key, entry.Topics)
		}
		var age *int
		if secs, ok := s.news.AgeSeconds(key); ok {
			age = &secs
		}
		logger.Debug("serving cached news", "key", key, "articles", len(entry.Articles))
		return pageResponse(entry, req, true, age), nil
	}

	s.metrics.IncrementCacheMisses()
	v, err, shared := s.flight.Do(key, func() (interface{}, error) {
		return s.populate(context.WithoutCancel(ctx), key, req)
	})
	if err != nil {
		return NewsResponse{}, err
	}
	if shared {
		logger.Debug("shared in-flight fetch", "key", key)
	}
	zero := 0
	return pageResponse(v.(cache.Entry), req, false, &zero), nil
}

func pageResponse(entry cache.Entry, req NewsRequest, cached bool, age *int) NewsResponse {
	page := cache.Paginate(entry, req.Page, req.Limit)
	topicList := entry.Topics
	if topicList == nil {
		topicList = []string{}
	}
	return NewsResponse{
		Articles:    page.Articles,
		Count:       len(page.Articles),
		Cached:      cached,
		CacheAge:    age,
		Topics:      topicList,
		TotalPages:  page.TotalPages,
		CurrentPage: page.Page,
	}
}

// populate runs fetch, dedup, selection, topics and summaries for one key and
// replaces the cache slot with the result.
func (s *Service) populate(ctx context.Context, key string, req NewsRequest) (cache.Entry, error) {
	start := s.now()
	q := news.Query{Limit: req.Limit, FromDate: req.FromDate, ToDate: req.ToDate, Topic: req.Topic}
	target := 0
	if q.HasDateFilter() {
		q.Limit = min(maxLimit, req.Limit*dateFetchFactor)
		target = min(maxLimit, req.Limit*s.samplePages)
	}

	logger.Info("fetching fresh news", "key", key, "source", s.source.Name(), "limit", q.Limit)
	articles, err := s.source.Fetch(ctx, q)
	if err != nil {
		s.metrics.SetError(err.Error())
		logger.Error("news fetch failed", "key", key, "error", err)
		return cache.Entry{}, internalError("Error fetching news", err)
	}

	unique := news.Deduplicate(articles)
	s.metrics.AddDuplicatesFiltered(len(articles) - len(unique))
	if len(unique) == 0 {
		return cache.Entry{}, notFound(msgNoArticles)
	}

	var selected []news.Article
	if target > 0 {
		selected = news.SampleByDay(unique, target, start)
	} else {
		selected = news.Rank(unique, start)
	}

	topicList := s.topics.FromTitles(titlesOf(selected))
	summarized := s.summarizeBatch(ctx, selected)

	s.news.Replace(key, summarized, topicList, s.cacheTTL)
	s.metrics.RecordProcessingTime(s.now().Sub(start))
	s.metrics.SetLastRun()
	logger.Info("news cached", "key", key, "fetched", len(articles), "unique", len(unique), "kept", len(summarized), "topics", len(topicList))

	return cache.Entry{Articles: summarized, Topics: topicList, Timestamp: start, TTL: s.cacheTTL}, nil
}

// summarizeBatch summarizes every article concurrently. A failed unit keeps
// its fallback text and never fails the batch.
func (s *Service) summarizeBatch(ctx context.Context, articles []news.Article) []news.Article {
	results := make([]news.SummaryResult, len(articles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, a := range articles {
		g.Go(func() error {
			results[i] = s.summarizeOne(gctx, a)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]news.Article, len(articles))
	for i, a := range articles {
		a.Summary = results[i].Text
		if results[i].Fallback {
			s.metrics.IncrementSummaryFallbacks()
			logger.Warn("summary fallback", "id", a.ID, "error", results[i].Err)
		} else {
			s.metrics.IncrementSummariesGenerated()
		}
		out[i] = a
	}
	return out
}

func (s *Service) summarizeOne(ctx context.Context, a news.Article) news.SummaryResult {
	text, err := s.summarizer.Summarize(ctx, a.Title, a.Description)
	if err != nil {
		return news.FallbackResult(a.Description, err)
	}
	return news.Summarized(text)
}

// Refresh invalidates the slot for a filter and returns its key.
func (s *Service) Refresh(fromDate, toDate, topic string) (string, error) {
	if err := validateDates(fromDate, toDate); err != nil {
		return "", err
	}
	key := cache.Key(fromDate, toDate, topic)
	s.news.Invalidate(key)
	logger.Info("cache invalidated", "key", key)
	return key, nil
}

func (s *Service) Article(id string) (news.Article, error) {
	a, ok := s.news.FindArticle(id)
	if !ok {
		return news.Article{}, notFound(msgArticleNotFound)
	}
	return a, nil
}

// SummarizeFull returns a long summary of the page at url, from the cache,
// the archive, or a fresh scrape.
func (s *Service) SummarizeFull(ctx context.Context, url string) (FullSummaryResponse, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return FullSummaryResponse{}, badRequest("url is required")
	}
	if !s.limiter.Allow() {
		s.metrics.IncrementRateLimited()
		return FullSummaryResponse{}, tooManyRequests(msgSummaryRateLimit)
	}

	if item, ok := s.cachedSummary(ctx, url); ok {
		s.metrics.IncrementFullSummaryHits()
		return FullSummaryResponse{Summary: item.Summary, WordCount: item.WordCount, URL: url, Cached: true}, nil
	}

	content, err := s.extractor.Extract(ctx, url)
	if err != nil {
		logger.Warn("content extraction failed", "url", url, "error", err)
		return FullSummaryResponse{}, &Error{Status: http.StatusBadRequest, Message: msgNoContent, Err: err}
	}

	title := defaultTitle
	if a, ok := s.news.FindByURL(url); ok && a.Title != "" {
		title = a.Title
	}

	summary, err := s.summarizer.SummarizeFull(ctx, title, content)
	if err != nil {
		s.metrics.SetError(err.Error())
		logger.Error("full summary failed", "url", url, "error", err)
		return FullSummaryResponse{}, internalError("Error generating summary", err)
	}

	item := s.summaries.Put(url, summary, len(strings.Fields(summary)))
	s.metrics.IncrementFullSummaries()
	if s.archive != nil {
		rec := storage.SummaryRecord{URL: url, Summary: item.Summary, WordCount: item.WordCount, CreatedAt: item.Timestamp}
		if err := s.archive.Put(ctx, rec); err != nil {
			logger.Warn("archive write failed", "url", url, "error", err)
		}
	}
	logger.Info("generated full summary", "url", url, "words", item.WordCount)

	return FullSummaryResponse{Summary: item.Summary, WordCount: item.WordCount, URL: url}, nil
}

// cachedSummary checks memory first, then promotes a fresh archive record.
func (s *Service) cachedSummary(ctx context.Context, url string) (cache.FullSummary, bool) {
	if item, ok := s.summaries.Get(url); ok {
		return item, true
	}
	if s.archive == nil {
		return cache.FullSummary{}, false
	}

	rec, err := s.archive.Get(ctx, url)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("archive read failed", "url", url, "error", err)
		}
		return cache.FullSummary{}, false
	}
	item := cache.FullSummary{Summary: rec.Summary, WordCount: rec.WordCount, Timestamp: rec.CreatedAt}
	if !s.summaries.Restore(url, item) {
		return cache.FullSummary{}, false
	}
	logger.Debug("restored full summary from archive", "url", url)
	return item, true
}

// Explain clarifies a selected passage.
func (s *Service) Explain(ctx context.Context, selected, surrounding string) (string, error) {
	if !s.limiter.Allow() {
		s.metrics.IncrementRateLimited()
		return "", tooManyRequests(msgExplainRateLimit)
	}
	if utf8.RuneCountInString(strings.TrimSpace(selected)) < minExplainChars {
		return "", badRequest(msgShortSelection)
	}

	explanation, err := s.summarizer.Explain(ctx, selected, surrounding)
	if err != nil {
		s.metrics.SetError(err.Error())
		logger.Error("explanation failed", "error", err)
		return "", internalError("Error generating explanation", err)
	}
	s.metrics.IncrementExplanations()
	return explanation, nil
}

// Health reports the total number of cached articles. No single cache age
// exists across slots, so CacheAgeSeconds is always null.
func (s *Service) Health() HealthResponse {
	return HealthResponse{Status: "healthy", CacheSize: s.news.TotalArticles()}
}

// Stats merges counters with cache and limiter state.
func (s *Service) Stats() map[string]interface{} {
	stats := s.metrics.GetStats()
	stats["rate_limiter"] = s.limiter.GetStats()
	stats["cached_articles"] = s.news.TotalArticles()
	stats["full_summary_cache_size"] = s.summaries.Len()
	return stats
}

func titlesOf(articles []news.Article) []string {
	titles := make([]string, 0, len(articles))
	for _, a := range articles {
		titles = append(titles, a.Title)
	}
	return titles
}

package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deusflow/technews/internal/news"
	"github.com/deusflow/technews/internal/storage"
)

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *Error with status %d, got %v", status, err)
	}
	if appErr.Status != status {
		t.Fatalf("status = %d, want %d (%s)", appErr.Status, status, appErr.Message)
	}
}

func TestGetNewsMissThenHit(t *testing.T) {
	src := &fakeSource{articles: testArticles()}
	svc := newTestService(src, &fakeSummarizer{}, &fakeExtractor{}, nil)
	ctx := context.Background()

	first, err := svc.GetNews(ctx, NewsRequest{Limit: 2, Page: 1})
	if err != nil {
		t.Fatalf("GetNews error: %v", err)
	}
	if first.Cached || first.CacheAge == nil || *first.CacheAge != 0 {
		t.Errorf("first call should be a miss with cache_age 0: %+v", first)
	}
	if first.Count != 2 || first.TotalPages != 2 || first.CurrentPage != 1 {
		t.Errorf("unexpected paging: count=%d pages=%d page=%d", first.Count, first.TotalPages, first.CurrentPage)
	}
	if !strings.HasPrefix(first.Articles[0].Summary, "summary of ") {
		t.Errorf("article not summarized: %+v", first.Articles[0])
	}
	if src.LastQuery().Limit != 2 {
		t.Errorf("fetch limit without date filter = %d, want 2", src.LastQuery().Limit)
	}

	second, err := svc.GetNews(ctx, NewsRequest{Limit: 2, Page: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.CacheAge == nil {
		t.Errorf("second call should be cached: %+v", second)
	}
	if second.Count != 1 {
		t.Errorf("page 2 count = %d, want 1", second.Count)
	}
	if src.Calls() != 1 {
		t.Errorf("source called %d times, want 1", src.Calls())
	}

	forced, err := svc.GetNews(ctx, NewsRequest{Limit: 2, Page: 1, ForceRefresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if forced.Cached || src.Calls() != 2 {
		t.Errorf("force_refresh should refetch: cached=%v calls=%d", forced.Cached, src.Calls())
	}

	stats := svc.Stats()
	if stats["cache_hits"].(int64) != 1 || stats["cache_misses"].(int64) != 2 {
		t.Errorf("unexpected hit/miss counters: %v / %v", stats["cache_hits"], stats["cache_misses"])
	}
}

func TestGetNewsValidation(t *testing.T) {
	src := &fakeSource{articles: testArticles()}
	svc := newTestService(src, &fakeSummarizer{}, &fakeExtractor{}, nil)

	tests := []struct {
		name string
		req  NewsRequest
	}{
		{"limit zero", NewsRequest{Limit: 0, Page: 1}},
		{"limit too big", NewsRequest{Limit: 101, Page: 1}},
		{"page zero", NewsRequest{Limit: 10, Page: 0}},
		{"bad from date", NewsRequest{Limit: 10, Page: 1, FromDate: "2024/01/01"}},
		{"bad to date", NewsRequest{Limit: 10, Page: 1, ToDate: "2024-13-01"}},
		{"reversed range", NewsRequest{Limit: 10, Page: 1, FromDate: "2024-02-01", ToDate: "2024-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetNews(context.Background(), tt.req)
			wantStatus(t, err, http.StatusBadRequest)
		})
	}
	if src.Calls() != 0 {
		t.Errorf("validation failures must not reach the source, got %d calls", src.Calls())
	}
}

func TestGetNewsDateFilterOverFetches(t *testing.T) {
	src := &fakeSource{articles: testArticles()}
	svc := newTestService(src, &fakeSummarizer{}, &fakeExtractor{}, nil)

	resp, err := svc.GetNews(context.Background(), NewsRequest{Limit: 5, Page: 1, FromDate: "2024-01-01", ToDate: "2024-01-10", Topic: "AI"})
	if err != nil {
		t.Fatal(err)
	}
	q := src.LastQuery()
	if q.Limit != 50 || q.FromDate != "2024-01-01" || q.ToDate != "2024-01-10" || q.Topic != "AI" {
		t.Errorf("unexpected upstream query %+v", q)
	}
	if resp.Count != 3 {
		t.Errorf("all 3 articles fit under the sampling target, got %d", resp.Count)
	}

	if _, err := svc.GetNews(context.Background(), NewsRequest{Limit: 20, Page: 1, FromDate: "2024-01-01"}); err != nil {
		t.Fatal(err)
	}
	if got := src.LastQuery().Limit; got != 100 {
		t.Errorf("fetch limit should cap at 100, got %d", got)
	}
}

func TestGetNewsSummaryFallback(t *testing.T) {
	src := &fakeSource{articles: testArticles()}
	sum := &fakeSummarizer{failTitles: map[string]bool{"Beta cloud outage": true}}
	svc := newTestService(src, sum, &fakeExtractor{}, nil)

	resp, err := svc.GetNews(context.Background(), NewsRequest{Limit: 10, Page: 1})
	if err != nil {
		t.Fatalf("a failed summary must not fail the batch: %v", err)
	}
	for _, a := range resp.Articles {
		if a.Title == "Beta cloud outage" {
			if a.Summary != "description for Beta cloud outage" {
				t.Errorf("expected description fallback, got %q", a.Summary)
			}
		} else if !strings.HasPrefix(a.Summary, "summary of ") {
			t.Errorf("unexpected summary %q", a.Summary)
		}
	}
	stats := svc.Stats()
	if stats["summary_fallbacks"].(int64) != 1 || stats["summaries_generated"].(int64) != 2 {
		t.Errorf("fallbacks=%v generated=%v", stats["summary_fallbacks"], stats["summaries_generated"])
	}
}

func TestGetNewsUpstreamFailures(t *testing.T) {
	empty := newTestService(&fakeSource{}, &fakeSummarizer{}, &fakeExtractor{}, nil)
	_, err := empty.GetNews(context.Background(), NewsRequest{Limit: 10, Page: 1})
	wantStatus(t, err, http.StatusNotFound)

	broken := newTestService(&fakeSource{err: errors.New("boom")}, &fakeSummarizer{}, &fakeExtractor{}, nil)
	_, err = broken.GetNews(context.Background(), NewsRequest{Limit: 10, Page: 1})
	wantStatus(t, err, http.StatusInternalServerError)
	if _, msg := statusOf(err); msg != "Error fetching news: boom" {
		t.Errorf("message = %q", msg)
	}
}

func TestGetNewsCollapsesConcurrentMisses(t *testing.T) {
	src := &fakeSource{
		articles: testArticles(),
		started:  make(chan struct{}, 2),
		release:  make(chan struct{}),
	}
	svc := newTestService(src, &fakeSummarizer{}, &fakeExtractor{}, nil)

	var wg sync.WaitGroup
	results := make([]NewsResponse, 2)
	errs := make([]error, 2)
	call := func(i int) {
		defer wg.Done()
		results[i], errs[i] = svc.GetNews(context.Background(), NewsRequest{Limit: 10, Page: 1})
	}

	wg.Add(2)
	go call(0)
	<-src.started
	go call(1)
	time.Sleep(100 * time.Millisecond)
	close(src.release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if results[i].Count != 3 {
			t.Errorf("call %d count = %d", i, results[i].Count)
		}
	}
	if src.Calls() != 1 {
		t.Errorf("concurrent misses should share one fetch, got %d", src.Calls())
	}
}

func TestRefreshAndArticleLookup(t *testing.T) {
	src := &fakeSource{articles: testArticles()}
	svc := newTestService(src, &fakeSummarizer{}, &fakeExtractor{}, nil)
	ctx := context.Background()

	if _, err := svc.GetNews(ctx, NewsRequest{Limit: 10, Page: 1}); err != nil {
		t.Fatal(err)
	}

	id := testArticles()[1].ID
	a, err := svc.Article(id)
	if err != nil || a.Title != "Beta cloud outage" {
		t.Fatalf("Article(%s) = %+v, %v", id, a, err)
	}
	_, err = svc.Article("missing")
	wantStatus(t, err, http.StatusNotFound)

	if h := svc.Health(); h.CacheSize != 3 || h.Status != "healthy" || h.CacheAgeSeconds != nil {
		t.Errorf("unexpected health %+v", h)
	}

	for i := 0; i < 2; i++ {
		key, err := svc.Refresh("", "", "")
		if err != nil || key != "default" {
			t.Fatalf("Refresh = %q, %v", key, err)
		}
	}
	if h := svc.Health(); h.CacheSize != 0 {
		t.Errorf("cache size after refresh = %d", h.CacheSize)
	}

	if _, err := svc.GetNews(ctx, NewsRequest{Limit: 10, Page: 1}); err != nil {
		t.Fatal(err)
	}
	if src.Calls() != 2 {
		t.Errorf("refresh should force a refetch, calls = %d", src.Calls())
	}

	_, err = svc.Refresh("01-01-2024", "", "")
	wantStatus(t, err, http.StatusBadRequest)
}

func TestGetNewsBackfillsTopicsOnHit(t *testing.T) {
	articles := testArticles()
	articles[0].Title = "OpenAI ships a new AI model"
	src := &fakeSource{articles: articles}
	svc := newTestService(src, &fakeSummarizer{}, &fakeExtractor{}, nil)
	ctx := context.Background()

	svc.news.Replace("default", articles, nil, 0)
	resp, err := svc.GetNews(ctx, NewsRequest{Limit: 10, Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Cached {
		t.Fatal("expected cache hit")
	}
	if len(resp.Topics) == 0 || resp.Topics[0] != "AI" {
		t.Errorf("expected AI topic to be backfilled, got %v", resp.Topics)
	}
	if entry := svc.news.GetOrCreate("default"); len(entry.Topics) == 0 {
		t.Error("topics should be stored on the entry")
	}
}

func TestSummarizeFull(t *testing.T) {
	src := &fakeSource{articles: testArticles()}
	sum := &fakeSummarizer{}
	ext := &fakeExtractor{content: strings.Repeat("content ", 50)}
	archive := newMemArchive()
	svc := newTestService(src, sum, ext, archive)
	ctx := context.Background()

	if _, err := svc.GetNews(ctx, NewsRequest{Limit: 10, Page: 1}); err != nil {
		t.Fatal(err)
	}
	url := testArticles()[0].URL

	resp, err := svc.SummarizeFull(ctx, url)
	if err != nil {
		t.Fatalf("SummarizeFull error: %v", err)
	}
	if resp.Cached || resp.WordCount != 6 || resp.URL != url {
		t.Errorf("unexpected response %+v", resp)
	}
	if sum.fullTitles[0] != "Alpha chip launch" {
		t.Errorf("title should come from the cached article, got %q", sum.fullTitles[0])
	}
	if _, ok := archive.records[url]; !ok {
		t.Error("summary should be archived")
	}

	again, err := svc.SummarizeFull(ctx, url)
	if err != nil || !again.Cached {
		t.Fatalf("second call should be cached: %+v, %v", again, err)
	}
	if ext.calls != 1 {
		t.Errorf("extractor called %d times, want 1", ext.calls)
	}

	if _, err := svc.SummarizeFull(ctx, "https://unknown.example/x"); err != nil {
		t.Fatal(err)
	}
	if last := sum.fullTitles[len(sum.fullTitles)-1]; last != "Article" {
		t.Errorf("unknown url should use the default title, got %q", last)
	}
}

func TestSummarizeFullErrors(t *testing.T) {
	ctx := context.Background()

	blocked := newTestService(&fakeSource{}, &fakeSummarizer{}, &fakeExtractor{err: errors.New("access denied")}, nil)
	_, err := blocked.SummarizeFull(ctx, "https://paywalled.example/a")
	wantStatus(t, err, http.StatusBadRequest)
	if _, msg := statusOf(err); msg != msgNoContent {
		t.Errorf("message = %q", msg)
	}

	aiDown := newTestService(&fakeSource{}, &fakeSummarizer{fullErr: errors.New("quota")}, &fakeExtractor{content: "text"}, nil)
	_, err = aiDown.SummarizeFull(ctx, "https://example.com/a")
	wantStatus(t, err, http.StatusInternalServerError)

	limited := newTestService(&fakeSource{}, &fakeSummarizer{}, &fakeExtractor{content: "text"}, nil)
	for i := 0; i < 10; i++ {
		if _, err := limited.SummarizeFull(ctx, "https://example.com/a"); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}
	_, err = limited.SummarizeFull(ctx, "https://example.com/a")
	wantStatus(t, err, http.StatusTooManyRequests)
	_, err = limited.Explain(ctx, "shared limiter across endpoints", "")
	wantStatus(t, err, http.StatusTooManyRequests)
}

func TestSummarizeFullPromotesArchivedRecord(t *testing.T) {
	archive := newMemArchive()
	url := "https://example.com/archived"
	archive.records[url] = storage.SummaryRecord{URL: url, Summary: "from the archive", WordCount: 3, CreatedAt: time.Now().Add(-time.Hour)}
	archive.records["https://example.com/stale"] = storage.SummaryRecord{URL: "https://example.com/stale", Summary: "old", WordCount: 1, CreatedAt: time.Now().Add(-25 * time.Hour)}

	ext := &fakeExtractor{content: "fresh text"}
	svc := newTestService(&fakeSource{}, &fakeSummarizer{}, ext, archive)
	ctx := context.Background()

	resp, err := svc.SummarizeFull(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Cached || resp.Summary != "from the archive" {
		t.Errorf("expected archived summary, got %+v", resp)
	}
	if ext.calls != 0 {
		t.Error("archived summary should skip extraction")
	}
	if svc.summaries.Len() != 1 {
		t.Errorf("archived record should be promoted into memory")
	}

	stale, err := svc.SummarizeFull(ctx, "https://example.com/stale")
	if err != nil {
		t.Fatal(err)
	}
	if stale.Cached || ext.calls != 1 {
		t.Errorf("stale archive record should trigger a fresh summary: %+v", stale)
	}

	archive.getErr = errors.New("connection refused")
	if _, err := svc.SummarizeFull(ctx, "https://example.com/new"); err != nil {
		t.Errorf("archive errors must not fail the request: %v", err)
	}
}

func TestExplain(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeSource{}, &fakeSummarizer{}, &fakeExtractor{}, nil)

	_, err := svc.Explain(ctx, "   short   ", "")
	wantStatus(t, err, http.StatusBadRequest)

	got, err := svc.Explain(ctx, "quantum annealing", "some context")
	if err != nil || got != "explained: quantum annealing" {
		t.Errorf("Explain = %q, %v", got, err)
	}

	failing := newTestService(&fakeSource{}, &fakeSummarizer{explainErr: errors.New("timeout")}, &fakeExtractor{}, nil)
	_, err = failing.Explain(ctx, "quantum annealing", "")
	wantStatus(t, err, http.StatusInternalServerError)
}

func TestPageResponseNeverNil(t *testing.T) {
	svc := newTestService(&fakeSource{articles: []news.Article{testArticles()[0]}}, &fakeSummarizer{}, &fakeExtractor{}, nil)
	resp, err := svc.GetNews(context.Background(), NewsRequest{Limit: 10, Page: 5})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Articles == nil || resp.Count != 0 || resp.TotalPages != 1 {
		t.Errorf("out of range page should be empty, got %+v", resp)
	}
	if resp.Topics == nil {
		t.Error("topics should encode as an empty list")
	}
}

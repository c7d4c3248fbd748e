package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deusflow/technews/internal/news"
	"github.com/deusflow/technews/internal/storage"
)

type fakeSource struct {
	mu       sync.Mutex
	articles []news.Article
	err      error
	calls    int
	queries  []news.Query
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context, q news.Query) ([]news.Article, error) {
	f.mu.Lock()
	f.calls++
	f.queries = append(f.queries, q)
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]news.Article, len(f.articles))
	copy(out, f.articles)
	return out, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) LastQuery() news.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

type fakeSummarizer struct {
	mu         sync.Mutex
	failTitles map[string]bool
	fullErr    error
	explainErr error
	fullTitles []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, title, _ string) (string, error) {
	if f.failTitles[title] {
		return "", errors.New("model overloaded")
	}
	return "summary of " + title, nil
}

func (f *fakeSummarizer) SummarizeFull(_ context.Context, title, content string) (string, error) {
	f.mu.Lock()
	f.fullTitles = append(f.fullTitles, title)
	f.mu.Unlock()
	if f.fullErr != nil {
		return "", f.fullErr
	}
	return "a long summary of five words", nil
}

func (f *fakeSummarizer) Explain(_ context.Context, selected, _ string) (string, error) {
	if f.explainErr != nil {
		return "", f.explainErr
	}
	return "explained: " + selected, nil
}

type fakeExtractor struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.content, f.err
}

type memArchive struct {
	mu      sync.Mutex
	records map[string]storage.SummaryRecord
	getErr  error
}

func newMemArchive() *memArchive {
	return &memArchive{records: make(map[string]storage.SummaryRecord)}
}

func (m *memArchive) Get(_ context.Context, url string) (storage.SummaryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return storage.SummaryRecord{}, m.getErr
	}
	rec, ok := m.records[url]
	if !ok {
		return storage.SummaryRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (m *memArchive) Put(_ context.Context, rec storage.SummaryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.URL] = rec
	return nil
}

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func testArticles() []news.Article {
	titles := []string{"Alpha chip launch", "Beta cloud outage", "Gamma rocket test"}
	out := make([]news.Article, len(titles))
	for i, title := range titles {
		url := fmt.Sprintf("https://example.com/%d", i)
		out[i] = news.Article{
			ID:          news.NewID(url),
			Title:       title,
			Description: "description for " + title,
			URL:         url,
			Source:      "TechCrunch",
			PublishedAt: testNow.Add(-time.Duration(i+1) * time.Hour).Format(time.RFC3339),
		}
	}
	return out
}

func newTestService(src *fakeSource, sum *fakeSummarizer, ext *fakeExtractor, archive Archive) *Service {
	return NewService(Deps{
		Source:     src,
		Summarizer: sum,
		Extractor:  ext,
		Archive:    archive,
		Now:        func() time.Time { return testNow },
		CacheTTL:   15 * time.Minute,
	})
}

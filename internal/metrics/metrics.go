package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	NewsRequests       int64
	CacheHits          int64
	CacheMisses        int64
	DuplicatesFiltered int64
	SummariesGenerated int64
	SummaryFallbacks   int64
	FullSummaries      int64
	FullSummaryHits    int64
	Explanations       int64
	RateLimited        int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) add(counter *int64, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter += n
}

func (m *Metrics) IncrementNewsRequests() { m.add(&m.NewsRequests, 1) }
func (m *Metrics) IncrementCacheHits() { m.add(&m.CacheHits, 1) }
func (m *Metrics) IncrementCacheMisses() { m.add(&m.CacheMisses, 1) }
func (m *Metrics) AddDuplicatesFiltered(n int) { m.add(&m.DuplicatesFiltered, int64(n)) }
func (m *Metrics) IncrementSummariesGenerated() { m.add(&m.SummariesGenerated, 1) }
func (m *Metrics) IncrementSummaryFallbacks() { m.add(&m.SummaryFallbacks, 1) }
func (m *Metrics) IncrementFullSummaries() { m.add(&m.FullSummaries, 1) }
func (m *Metrics) IncrementFullSummaryHits() { m.add(&m.FullSummaryHits, 1) }
func (m *Metrics) IncrementExplanations() { m.add(&m.Explanations, 1) }
func (m *Metrics) IncrementRateLimited() { m.add(&m.RateLimited, 1) }

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"news_requests":              m.NewsRequests,
		"cache_hits":                 m.CacheHits,
		"cache_misses":               m.CacheMisses,
		"duplicates_filtered":        m.DuplicatesFiltered,
		"summaries_generated":        m.SummariesGenerated,
		"summary_fallbacks":          m.SummaryFallbacks,
		"full_summaries":             m.FullSummaries,
		"full_summary_cache_hits":    m.FullSummaryHits,
		"explanations":               m.Explanations,
		"rate_limited":               m.RateLimited,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              formatTime(m.LastRunTime),
		"last_error_time":            formatTime(m.LastErrorTime),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}

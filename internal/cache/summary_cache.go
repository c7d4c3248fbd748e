package cache

import (
	"sync"
	"time"
)

// FullSummaryTTL is fixed and independent of the news cache TTL.
const FullSummaryTTL = 24 * time.Hour

type FullSummary struct {
	Summary   string    `json:"summary"`
	WordCount int       `json:"word_count"`
	Timestamp time.Time `json:"timestamp"`
}

// FullSummaryCache maps article urls to long-form summaries. Expiry is checked
// on read; an expired entry is deleted before Get reports a miss.
type FullSummaryCache struct {
	mu    sync.Mutex
	items map[string]FullSummary
	now   func() time.Time
}

func NewFullSummaryCache() *FullSummaryCache {
	return &FullSummaryCache{
		items: make(map[string]FullSummary),
		now:   time.Now,
	}
}

func (c *FullSummaryCache) WithClock(now func() time.Time) *FullSummaryCache {
	c.now = now
	return c
}

func (c *FullSummaryCache) Get(url string) (FullSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[url]
	if !ok {
		return FullSummary{}, false
	}
	if c.now().Sub(item.Timestamp) >= FullSummaryTTL {
		delete(c.items, url)
		return FullSummary{}, false
	}
	return item, true
}

// Put stores a summary stamped with the current time.
func (c *FullSummaryCache) Put(url, summary string, wordCount int) FullSummary {
	item := FullSummary{Summary: summary, WordCount: wordCount, Timestamp: c.now()}
	c.Restore(url, item)
	return item
}

// Restore stores an entry with its original timestamp, for summaries loaded
// from a durable store. Entries already past the TTL are ignored.
func (c *FullSummaryCache) Restore(url string, item FullSummary) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now().Sub(item.Timestamp) >= FullSummaryTTL {
		return false
	}
	c.items[url] = item
	return true
}

func (c *FullSummaryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

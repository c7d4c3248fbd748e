package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/deusflow/technews/internal/news"
)

// DefaultKey is the slot used when neither date bound is given.
const DefaultKey = "default"

// Key builds the cache slot name for a date range and topic. Each missing
// component changes the shape of the key, so distinct filters never collide.
func Key(fromDate, toDate, topic string) string {
	var datePart string
	switch {
	case fromDate != "" && toDate != "":
		datePart = fromDate + "_" + toDate
	case fromDate != "":
		datePart = fromDate + "_"
	case toDate != "":
		datePart = "_" + toDate
	default:
		datePart = DefaultKey
	}
	if topic != "" {
		return datePart + "_topic_" + strings.ToLower(topic)
	}
	return datePart
}

// Entry is a snapshot of one cache slot. A zero Timestamp means the slot was
// never populated or was invalidated.
type Entry struct {
	Articles  []news.Article
	Topics    []string
	Timestamp time.Time
	TTL       time.Duration
}

// Page is one page cut from an entry's article list.
type Page struct {
	Articles   []news.Article
	TotalPages int
	Page       int
}

// NewsCache holds article lists per filter key. Entries are created on first
// access and never removed.
type NewsCache struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	defaultTTL time.Duration
	now        func() time.Time
}

func NewNewsCache(defaultTTL time.Duration) *NewsCache {
	return &NewsCache{
		entries:    make(map[string]*Entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (c *NewsCache) WithClock(now func() time.Time) *NewsCache {
	c.now = now
	return c
}

func (c *NewsCache) entryLocked(key string) *Entry {
	e, ok := c.entries[key]
	if !ok {
		e = &Entry{TTL: c.defaultTTL}
		c.entries[key] = e
	}
	return e
}

// GetOrCreate returns the entry for key, inserting an empty default one if the
// key has not been seen. The default entry is never valid.
func (c *NewsCache) GetOrCreate(key string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.entryLocked(key)
}

func (c *NewsCache) IsValid(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	if e.Timestamp.IsZero() || len(e.Articles) == 0 {
		return false
	}
	return c.now().Sub(e.Timestamp) < e.TTL
}

// AgeSeconds reports whole seconds since the entry was populated. ok is false
// when it never was.
func (c *NewsCache) AgeSeconds(key string) (age int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	if e.Timestamp.IsZero() {
		return 0, false
	}
	return int(c.now().Sub(e.Timestamp) / time.Second), true
}

// Replace overwrites articles and topics and stamps the entry with the current
// time. A zero ttl keeps the entry's existing TTL.
func (c *NewsCache) Replace(key string, articles []news.Article, topics []string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	e.Articles = articles
	e.Topics = topics
	e.Timestamp = c.now()
	if ttl > 0 {
		e.TTL = ttl
	}
}

// BackfillTopics sets topics without touching articles, timestamp or TTL.
func (c *NewsCache) BackfillTopics(key string, topics []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entryLocked(key).Topics = topics
}

// Invalidate empties the article list and clears the timestamp. TTL and topics
// are kept. Calling it repeatedly is harmless.
func (c *NewsCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	e.Articles = nil
	e.Timestamp = time.Time{}
}

// FindArticle searches every entry for an article id.
func (c *NewsCache) FindArticle(id string) (news.Article, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		for _, a := range e.Articles {
			if a.ID == id {
				return a, true
			}
		}
	}
	return news.Article{}, false
}

// FindByURL searches every entry for an article url.
func (c *NewsCache) FindByURL(url string) (news.Article, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		for _, a := range e.Articles {
			if a.URL == url {
				return a, true
			}
		}
	}
	return news.Article{}, false
}

// TotalArticles sums article counts over all entries.
func (c *NewsCache) TotalArticles() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, e := range c.entries {
		total += len(e.Articles)
	}
	return total
}

// Paginate cuts a 1-indexed page from the entry. TotalPages is at least 1 and
// a page past the end yields an empty slice.
func Paginate(e Entry, page, pageSize int) Page {
	total := len(e.Articles)
	totalPages := 1
	if total > 0 && pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	result := Page{Articles: []news.Article{}, TotalPages: totalPages, Page: page}
	if page < 1 || pageSize < 1 {
		return result
	}

	start := (page - 1) * pageSize
	if start >= total {
		return result
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	result.Articles = e.Articles[start:end]
	return result
}

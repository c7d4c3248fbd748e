package news

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Article is one headline as served by the API. Summary stays empty until
// the AI pass fills it in.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Query describes one upstream fetch.
type Query struct {
	Limit    int
	FromDate string // YYYY-MM-DD, optional
	ToDate   string // YYYY-MM-DD, optional
	Topic    string
}

func (q Query) HasDateFilter() bool {
	return q.FromDate != "" || q.ToDate != ""
}

// NewID derives the article id from its url: first 12 hex chars of md5.
func NewID(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:12]
}

var publishedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// PublishedTime parses PublishedAt. ok is false for empty or unknown formats.
func (a Article) PublishedTime() (time.Time, bool) {
	raw := strings.TrimSpace(a.PublishedAt)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

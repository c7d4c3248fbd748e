// Package topics tags articles with trending tech topics by keyword matching.
package topics

import (
	"regexp"
	"sort"
	"strings"

	"github.com/deusflow/technews/internal/news"
)

// MaxTopics caps how many topics Extract returns.
const MaxTopics = 8

type topic struct {
	name     string
	patterns []*regexp.Regexp
}

var catalog = []struct {
	name     string
	keywords []string
}{
	{"AI", []string{"ai", "artificial intelligence", "machine learning", "ml", "neural network", "deep learning", "gpt", "chatgpt", "llm", "openai", "claude", "gemini"}},
	{"Crypto", []string{"crypto", "cryptocurrency", "bitcoin", "ethereum", "blockchain", "nft", "web3", "defi", "btc", "eth"}},
	{"Hardware", []string{"hardware", "cpu", "gpu", "processor", "chip", "intel", "amd", "nvidia", "qualcomm", "apple silicon", "m1", "m2", "m3"}},
	{"Software", []string{"software", "app", "application", "os", "operating system", "windows", "linux", "macos", "ios", "android"}},
	{"Startup", []string{"startup", "unicorn", "ipo", "funding", "venture capital", "vc", "series a", "series b", "seed round"}},
	{"Gaming", []string{"gaming", "game", "playstation", "xbox", "nintendo", "steam", "esports", "gamer", "console"}},
	{"Security", []string{"security", "cybersecurity", "hack", "breach", "vulnerability", "malware", "ransomware", "phishing"}},
	{"Cloud", []string{"cloud", "aws", "azure", "gcp", "google cloud", "amazon web services", "serverless", "kubernetes"}},
	{"Mobile", []string{"mobile", "smartphone", "iphone", "android phone", "samsung", "apple", "ios", "android"}},
	{"Social Media", []string{"twitter", "facebook", "instagram", "tiktok", "linkedin", "social media", "meta"}},
	{"Electric Vehicles", []string{"ev", "electric vehicle", "tesla", "electric car", "battery", "charging"}},
	{"Space", []string{"space", "nasa", "spacex", "rocket", "satellite", "mars", "moon", "astronaut"}},
}

// Extractor matches keywords on word boundaries. Safe for concurrent use.
type Extractor struct {
	topics []topic
}

func NewExtractor() *Extractor {
	e := &Extractor{topics: make([]topic, 0, len(catalog))}
	for _, c := range catalog {
		t := topic{name: c.name}
		for _, k := range c.keywords {
			t.patterns = append(t.patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(strings.ToLower(k))+`\b`))
		}
		e.topics = append(e.topics, t)
	}
	return e
}

// Extract ranks topics by how many articles mention them in title, summary
// or description.
func (e *Extractor) Extract(articles []news.Article) []string {
	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.Title + " " + a.Summary + " " + a.Description
	}
	return e.rank(texts)
}

// FromTitles is Extract over bare titles.
func (e *Extractor) FromTitles(titles []string) []string {
	return e.rank(titles)
}

// Matches reports whether text mentions the named topic.
func (e *Extractor) Matches(name, text string) bool {
	text = strings.ToLower(text)
	for _, t := range e.topics {
		if !strings.EqualFold(t.name, name) {
			continue
		}
		for _, p := range t.patterns {
			if p.MatchString(text) {
				return true
			}
		}
		return false
	}
	// Unknown topics fall back to a plain substring search.
	return strings.Contains(text, strings.ToLower(name))
}

func (e *Extractor) rank(texts []string) []string {
	if len(texts) == 0 {
		return []string{}
	}

	counts := make([]int, len(e.topics))
	for _, raw := range texts {
		text := strings.ToLower(raw)
		for i, t := range e.topics {
			for _, p := range t.patterns {
				if p.MatchString(text) {
					counts[i]++
					break
				}
			}
		}
	}

	order := make([]int, 0, len(e.topics))
	for i, n := range counts {
		if n > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})

	if len(order) > MaxTopics {
		order = order[:MaxTopics]
	}
	out := make([]string, len(order))
	for i, idx := range order {
		out[i] = e.topics[idx].name
	}
	return out
}

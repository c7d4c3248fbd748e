package news

import (
	"sort"
	"strings"
	"time"
)

var tier1Sources = map[string]struct{}{
	"techcrunch":              {},
	"the verge":               {},
	"wired":                   {},
	"ars technica":            {},
	"reuters":                 {},
	"bloomberg":               {},
	"the wall street journal": {},
	"mit technology review":   {},
}

var tier2Sources = map[string]struct{}{
	"engadget":         {},
	"cnet":             {},
	"zdnet":            {},
	"venturebeat":      {},
	"gizmodo.com":      {},
	"gizmodo":          {},
	"mashable":         {},
	"business insider": {},
	"9to5mac":          {},
	"android central":  {},
	"tom's hardware":   {},
	"the next web":     {},
	"digital trends":   {},
}

const removedMarker = "[Removed]"

// Score rates an article for ranking; higher is better. now anchors the
// recency bonus.
func Score(a Article, now time.Time) int {
	score := 0

	source := strings.ToLower(strings.TrimSpace(a.Source))
	if _, ok := tier1Sources[source]; ok {
		score += 10
	} else if _, ok := tier2Sources[source]; ok {
		score += 5
	} else {
		score++
	}

	switch n := len([]rune(a.Description)); {
	case n > 100:
		score += 3
	case n > 50:
		score++
	}

	if a.ImageURL != "" {
		score += 2
	}

	if len([]rune(a.Title)) > 30 && !strings.Contains(a.Title, removedMarker) {
		score += 2
	}

	if published, ok := a.PublishedTime(); ok {
		age := now.Sub(published)
		if age < 6*time.Hour {
			score += 2
		} else if age < 12*time.Hour {
			score++
		}
	}

	return score
}

// Rank returns a copy of articles ordered by Score descending. Equal scores
// keep their input order.
func Rank(articles []Article, now time.Time) []Article {
	type scored struct {
		article Article
		score   int
	}
	items := make([]scored, len(articles))
	for i, a := range articles {
		items[i] = scored{article: a, score: Score(a, now)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	out := make([]Article, len(items))
	for i, it := range items {
		out[i] = it.article
	}
	return out
}

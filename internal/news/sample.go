package news

import (
	"sort"
	"time"
)

type dayBucket struct {
	day      string // YYYY-MM-DD in UTC, empty for the undated bucket
	articles []Article
}

// SampleByDay draws up to target articles spread evenly over publication days
// (UTC). Days are visited newest first and articles with unparseable dates
// share one bucket visited last. With D buckets each day gets target/D
// articles and the first target%D days one more, best scored first. A target
// at or above the number of articles returns everything in bucket order.
func SampleByDay(articles []Article, target int, now time.Time) []Article {
	if target <= 0 || len(articles) == 0 {
		return []Article{}
	}

	buckets := bucketByDay(articles)

	if target >= len(articles) {
		out := make([]Article, 0, len(articles))
		for _, b := range buckets {
			out = append(out, Rank(b.articles, now)...)
		}
		return out
	}

	perDay := target / len(buckets)
	extra := target % len(buckets)

	out := make([]Article, 0, target)
	for i, b := range buckets {
		take := perDay
		if i < extra {
			take++
		}
		if take > len(b.articles) {
			take = len(b.articles)
		}
		if take == 0 {
			continue
		}
		out = append(out, Rank(b.articles, now)[:take]...)
	}

	if len(out) > target {
		out = out[:target]
	}
	return out
}

func bucketByDay(articles []Article) []dayBucket {
	index := make(map[string]int)
	var dated []dayBucket
	var undated []Article

	for _, a := range articles {
		t, ok := a.PublishedTime()
		if !ok {
			undated = append(undated, a)
			continue
		}
		day := t.UTC().Format("2006-01-02")
		i, seen := index[day]
		if !seen {
			i = len(dated)
			index[day] = i
			dated = append(dated, dayBucket{day: day})
		}
		dated[i].articles = append(dated[i].articles, a)
	}

	sort.Slice(dated, func(i, j int) bool {
		return dated[i].day > dated[j].day
	})

	if len(undated) > 0 {
		dated = append(dated, dayBucket{articles: undated})
	}
	return dated
}

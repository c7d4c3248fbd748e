package news

import "strings"

// SimilarityThreshold is the Jaccard index a title pair must exceed to count
// as a near duplicate.
const SimilarityThreshold = 0.80

// Deduplicate keeps the first occurrence of every article. Articles without a
// url, with an already seen url, or whose title is similar to any kept title
// are dropped. Input order is preserved.
func Deduplicate(articles []Article) []Article {
	seenURLs := make(map[string]struct{}, len(articles))
	keptTokens := make([]map[string]struct{}, 0, len(articles))
	out := make([]Article, 0, len(articles))

	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		if _, dup := seenURLs[a.URL]; dup {
			continue
		}

		tokens := titleTokens(a.Title)
		similar := false
		for _, kept := range keptTokens {
			if jaccard(tokens, kept) > SimilarityThreshold {
				similar = true
				break
			}
		}
		if similar {
			continue
		}

		seenURLs[a.URL] = struct{}{}
		keptTokens = append(keptTokens, tokens)
		out = append(out, a)
	}
	return out
}

// TitleSimilarity returns the Jaccard index of the lowercase whitespace tokens
// of two titles. Empty token sets are never similar.
func TitleSimilarity(a, b string) float64 {
	return jaccard(titleTokens(a), titleTokens(b))
}

func titleTokens(title string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(title))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

package news

// fallbackRunes is how much of the description stands in for a failed summary.
const fallbackRunes = 200

// SummaryResult is the outcome of summarizing one article. A failed AI call
// still carries usable Text, with Fallback set and Err holding the cause.
type SummaryResult struct {
	Text     string
	Fallback bool
	Err      error
}

func Summarized(text string) SummaryResult {
	return SummaryResult{Text: text}
}

func FallbackResult(description string, err error) SummaryResult {
	return SummaryResult{Text: FallbackSummary(description), Fallback: true, Err: err}
}

// FallbackSummary truncates description to 200 characters plus "...".
func FallbackSummary(description string) string {
	runes := []rune(description)
	if len(runes) > fallbackRunes {
		return string(runes[:fallbackRunes]) + "..."
	}
	return description
}

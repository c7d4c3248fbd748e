package ai

import (
	"regexp"
	"strings"
)

var (
	// Prompts end with "Summary:" or "Explanation:" and models often echo it.
	leadingLabel = regexp.MustCompile(`(?i)^\s*(?:\*\*)?(?:comprehensive summary|summary|explanation)(?:\*\*)?\s*:\s*(?:\*\*)?\s*`)
	// Inline "(Note: ...)" or "[Note: ...]" disclaimers.
	inlineNote = regexp.MustCompile(`(?i)\s*[\(\[]\s*note\s*:[^\)\]]*[\)\]]`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// SanitizeOutput strips echoed prompt labels, model disclaimers and
// wrapping quotes from a completion.
func SanitizeOutput(text string) string {
	text = inlineNote.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "note:") {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}
	text = strings.Join(kept, "\n")

	text = leadingLabel.ReplaceAllString(strings.TrimSpace(text), "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' && !strings.Contains(text[1:len(text)-1], `"`) {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	return text
}

// Package ai turns articles into summaries and explanations using a chat
// completion backend (OpenAI, Gemini or Anthropic).
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deusflow/technews/internal/retry"
)

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("empty response from AI backend")

const (
	shortSummaryTokens = 150
	fullSummaryTokens  = 400
	explainTokens      = 300
	defaultTemperature = 0.7

	// fullContentChars bounds how much scraped text goes into one prompt.
	fullContentChars = 4000
)

// CompletionRequest is one system + user prompt exchange.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Backend is a chat completion provider.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Summarizer builds prompts and retries backend calls.
type Summarizer struct {
	backend Backend
	retry   retry.Config
}

func NewSummarizer(backend Backend, rc retry.Config) *Summarizer {
	return &Summarizer{backend: backend, retry: rc}
}

func (s *Summarizer) Backend() string {
	return s.backend.Name()
}

// Summarize writes a 2-3 sentence summary from the headline and description.
func (s *Summarizer) Summarize(ctx context.Context, title, description string) (string, error) {
	prompt := fmt.Sprintf(`Summarize the following tech news article in 2-3 clear, concise sentences.
Focus on the key information and impact.

Title: %s
Description: %s

Summary:`, title, description)

	return s.complete(ctx, CompletionRequest{
		System:      "You are a tech news summarizer. Create concise, informative summaries.",
		Prompt:      prompt,
		MaxTokens:   shortSummaryTokens,
		Temperature: defaultTemperature,
	})
}

// SummarizeFull writes a 5-7 sentence summary of scraped article text. Only
// the first 4000 characters of content are sent.
func (s *Summarizer) SummarizeFull(ctx context.Context, title, content string) (string, error) {
	prompt := fmt.Sprintf(`Provide a comprehensive 5-7 sentence summary of this tech news article, covering all key points, implications, and context.

Title: %s

Article Content:
%s

Comprehensive Summary:`, title, truncateRunes(content, fullContentChars))

	return s.complete(ctx, CompletionRequest{
		System:      "You are a tech news analyst. Create comprehensive, detailed summaries that cover all important aspects of the article.",
		Prompt:      prompt,
		MaxTokens:   fullSummaryTokens,
		Temperature: defaultTemperature,
	})
}

// Explain clarifies a passage the reader selected, optionally using the
// surrounding text.
func (s *Summarizer) Explain(ctx context.Context, selected, surrounding string) (string, error) {
	var b strings.Builder
	b.WriteString("Explain the following text from a tech news article in plain language. ")
	b.WriteString("Define any jargon, give the background a non-expert needs, and say why it matters.\n\n")
	fmt.Fprintf(&b, "Selected text: %s\n", strings.TrimSpace(selected))
	if c := strings.TrimSpace(surrounding); c != "" {
		fmt.Fprintf(&b, "\nSurrounding context: %s\n", truncateRunes(c, fullContentChars))
	}
	b.WriteString("\nExplanation:")

	return s.complete(ctx, CompletionRequest{
		System:      "You are a patient technology explainer. Make complex tech topics easy to understand.",
		Prompt:      b.String(),
		MaxTokens:   explainTokens,
		Temperature: defaultTemperature,
	})
}

func (s *Summarizer) complete(ctx context.Context, req CompletionRequest) (string, error) {
	var out string
	err := retry.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		text, err := s.backend.Complete(ctx, req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return retry.Permanent(err)
			}
			return err
		}
		text = SanitizeOutput(text)
		if text == "" {
			return ErrEmptyResponse
		}
		out = text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.backend.Name(), err)
	}
	return out, nil
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// Package storage persists generated full-article summaries so they survive
// restarts and can be shared between instances.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned when no fresh record exists for a URL.
var ErrNotFound = errors.New("summary not found")

// SummaryRecord is one archived full summary.
type SummaryRecord struct {
	URL       string    `json:"url"`
	Summary   string    `json:"summary"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
}

// URLHash creates a stable key for an article URL
func URLHash(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

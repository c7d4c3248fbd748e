package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultLimit  = 10
	DefaultWindow = 60 * time.Second
)

// SlidingWindow admits at most limit calls in any trailing window. The state
// is one global queue of accepted call times shared by every caller.
type SlidingWindow struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	accepted []time.Time
	rejected int64
	now      func() time.Time
}

func New(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// NewDefault is the 10 calls per 60s limiter guarding the AI endpoints.
func NewDefault() *SlidingWindow {
	return New(DefaultLimit, DefaultWindow)
}

func (rl *SlidingWindow) WithClock(now func() time.Time) *SlidingWindow {
	rl.now = now
	return rl
}

// Allow reports whether a call may proceed and records it if so. Rejected
// calls leave no trace in the window.
func (rl *SlidingWindow) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evict(now)

	if len(rl.accepted) >= rl.limit {
		rl.rejected++
		return false
	}
	rl.accepted = append(rl.accepted, now)
	return true
}

// evict drops timestamps strictly older than the window.
func (rl *SlidingWindow) evict(now time.Time) {
	i := 0
	for i < len(rl.accepted) && now.Sub(rl.accepted[i]) > rl.window {
		i++
	}
	if i > 0 {
		rl.accepted = append(rl.accepted[:0], rl.accepted[i:]...)
	}
}

// GetStats returns usage within the current window.
func (rl *SlidingWindow) GetStats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.evict(rl.now())
	return map[string]interface{}{
		"limit":          rl.limit,
		"window_seconds": int(rl.window / time.Second),
		"in_window":      len(rl.accepted),
		"remaining":      rl.limit - len(rl.accepted),
		"rejected_total": rl.rejected,
	}
}

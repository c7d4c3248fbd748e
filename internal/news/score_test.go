package news

import (
	"testing"
	"time"
)

func TestScore(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	long := "This description is deliberately long enough to pass the one hundred character mark for the bonus."
	long += " Extra."

	tests := []struct {
		name    string
		article Article
		want    int
	}{
		{
			name:    "bare unknown source",
			article: Article{Source: "Some Blog", PublishedAt: "garbage"},
			want:    1,
		},
		{
			name: "tier one with everything",
			article: Article{
				Source:      "TechCrunch",
				Description: long,
				ImageURL:    "https://img.example/a.png",
				Title:       "A headline that is comfortably over thirty chars",
				PublishedAt: now.Add(-time.Hour).Format(time.RFC3339),
			},
			want: 10 + 3 + 2 + 2 + 2,
		},
		{
			name: "tier two, medium description, half-day old",
			article: Article{
				Source:      "engadget",
				Description: "A description somewhere between fifty and one hundred chars.",
				PublishedAt: now.Add(-8 * time.Hour).Format(time.RFC3339),
			},
			want: 5 + 1 + 1,
		},
		{
			name: "removed title gets no title bonus",
			article: Article{
				Source:      "Wired",
				Title:       "[Removed] [Removed] [Removed] [Removed]",
				PublishedAt: now.Add(-24 * time.Hour).Format(time.RFC3339),
			},
			want: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.article, now); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRankIsStable(t *testing.T) {
	now := time.Now()
	in := []Article{
		{ID: "low-1", Source: "blog"},
		{ID: "high", Source: "Reuters"},
		{ID: "low-2", Source: "blog"},
		{ID: "mid", Source: "CNET"},
		{ID: "low-3", Source: "blog"},
	}
	got := Rank(in, now)
	want := []string{"high", "mid", "low-1", "low-2", "low-3"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("Rank()[%d] = %s, want %s (full: %+v)", i, got[i].ID, id, got)
		}
	}
	if in[0].ID != "low-1" {
		t.Error("Rank must not reorder its input")
	}
}

func TestNewIDAndPublishedTime(t *testing.T) {
	id := NewID("https://example.com/story")
	if len(id) != 12 || id != NewID("https://example.com/story") {
		t.Errorf("NewID not stable or wrong length: %q", id)
	}
	if id == NewID("https://example.com/other") {
		t.Error("different urls should not share an id")
	}

	if _, ok := (Article{PublishedAt: "2024-01-02T03:04:05Z"}).PublishedTime(); !ok {
		t.Error("RFC3339 should parse")
	}
	if _, ok := (Article{PublishedAt: "Tue, 02 Jan 2024 03:04:05 +0000"}).PublishedTime(); !ok {
		t.Error("RFC1123Z should parse")
	}
	if _, ok := (Article{PublishedAt: "yesterday"}).PublishedTime(); ok {
		t.Error("garbage should not parse")
	}
}

func TestFallbackSummary(t *testing.T) {
	short := "Short description."
	if got := FallbackSummary(short); got != short {
		t.Errorf("short description should pass through, got %q", got)
	}
	long := make([]rune, 250)
	for i := range long {
		long[i] = 'é'
	}
	got := []rune(FallbackSummary(string(long)))
	if len(got) != 203 || string(got[200:]) != "..." {
		t.Errorf("expected 200 runes plus ellipsis, got %d runes", len(got))
	}

	res := FallbackResult(short, nil)
	if !res.Fallback || res.Text != short {
		t.Errorf("unexpected fallback result %+v", res)
	}
}

package utils

import (
	"math"
	"testing"
	"time"
)

func TestRecencyFactor(t *testing.T) {
	c := DefaultTrendingConfig

	if got := c.RecencyFactor(0); got != 10 {
		t.Errorf("brand new post: expected 10, got %f", got)
	}
	if got := c.RecencyFactor(24 * time.Hour); math.Abs(got-5) > 1e-9 {
		t.Errorf("one half-life: expected 5, got %f", got)
	}
	if got := c.RecencyFactor(-time.Hour); got != 10 {
		t.Errorf("future timestamp should clamp to 10, got %f", got)
	}

	prev := c.RecencyFactor(0)
	for h := 1; h <= 24*30; h++ {
		f := c.RecencyFactor(time.Duration(h) * time.Hour)
		if f > prev {
			t.Fatalf("recency increased at %dh: %f > %f", h, f, prev)
		}
		if f <= 0 || f > c.RecencyScale {
			t.Fatalf("recency out of bounds at %dh: %f", h, f)
		}
		prev = f
	}
}

func TestTrendingScore(t *testing.T) {
	c := DefaultTrendingConfig
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	got := c.TrendingScore(10, now, now)
	want := 0.7*10 + 0.3*10
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}

	newer := c.TrendingScore(5, now.Add(-time.Hour), now)
	older := c.TrendingScore(5, now.Add(-48*time.Hour), now)
	if newer < older {
		t.Errorf("equal votes: newer post scored %f below older %f", newer, older)
	}

	// popularity dominates once the gap is large enough
	if c.TrendingScore(20, now.Add(-72*time.Hour), now) <= c.TrendingScore(1, now, now) {
		t.Error("expected a 20-vote post to outrank a fresh 1-vote post")
	}
}
